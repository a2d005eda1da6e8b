package handlers

import (
	"net/http"

	"vr-eyetracking/internal/calibration"
	"vr-eyetracking/internal/models"
	"vr-eyetracking/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CalibrationHandler struct {
	log         *zap.Logger
	calibration *services.CalibrationService
}

func NewCalibrationHandler(log *zap.Logger, calibrationService *services.CalibrationService) *CalibrationHandler {
	return &CalibrationHandler{log: log, calibration: calibrationService}
}

func keyFromPath(c *gin.Context) calibration.Key {
	return calibration.Key{Group: c.Param("group"), SubjectID: c.Param("subject"), Task: c.Param("task")}
}

// Save appends a calibration version computed from the stored raw recording.
func (h *CalibrationHandler) Save(c *gin.Context) {
	var params models.CalibrationParams
	if err := c.ShouldBindJSON(&params); err != nil {
		badRequest(c, h.log, err)
		return
	}
	v, err := h.calibration.Save(c.Request.Context(), keyFromPath(c), params)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": v})
}

// Params returns the newest version without its points.
func (h *CalibrationHandler) Params(c *gin.Context) {
	v, err := h.calibration.LoadParams(c.Request.Context(), keyFromPath(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// Data returns the calibrated points of the newest version.
func (h *CalibrationHandler) Data(c *gin.Context) {
	points, err := h.calibration.LoadData(c.Request.Context(), keyFromPath(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"points": points})
}

// Versions lists every version, oldest first.
func (h *CalibrationHandler) Versions(c *gin.Context) {
	versions, err := h.calibration.Versions(c.Request.Context(), keyFromPath(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if versions == nil {
		versions = []models.CalibrationVersion{}
	}
	c.JSON(http.StatusOK, gin.H{"versions": versions})
}

type restoreBody struct {
	Version int `json:"version" binding:"required,min=1"`
}

// Restore appends a new version copying an older one.
func (h *CalibrationHandler) Restore(c *gin.Context) {
	var body restoreBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, h.log, err)
		return
	}
	v, err := h.calibration.Restore(c.Request.Context(), keyFromPath(c), body.Version)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": v})
}
