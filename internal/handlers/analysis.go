package handlers

import (
	"net/http"

	"vr-eyetracking/internal/models"
	"vr-eyetracking/internal/roi"
	"vr-eyetracking/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AnalysisHandler struct {
	log      *zap.Logger
	analysis *services.AnalysisService
}

func NewAnalysisHandler(log *zap.Logger, analysis *services.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{log: log, analysis: analysis}
}

type analysisBody struct {
	Trajectory []models.GazePoint `json:"trajectory" binding:"required"`
	Regions    []models.ROIRegion `json:"regions" binding:"required"`
}

// Analyze computes stats for a posted trajectory and region list.
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	var body analysisBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, h.log, err)
		return
	}
	for i := range body.Regions {
		if err := roi.ValidateBounds(body.Regions[i].NormalizedCoords); err != nil {
			respondValidation(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, services.Analyze(body.Trajectory, body.Regions))
}

// Stored analyses a stored recording against the saved regions of its task.
func (h *AnalysisHandler) Stored(c *gin.Context) {
	source := c.DefaultQuery("source", services.SourceCalibrated)
	if source != services.SourceRaw && source != services.SourceCalibrated {
		c.JSON(http.StatusBadRequest, gin.H{"error": "source must be raw or calibrated"})
		return
	}
	report, err := h.analysis.AnalyzeStored(c.Request.Context(), c.Param("version"), keyFromPath(c), source)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
