package handlers

import (
	"net/http"

	"vr-eyetracking/internal/models"
	"vr-eyetracking/internal/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type TrajectoryHandler struct {
	log *zap.Logger
}

func NewTrajectoryHandler(log *zap.Logger) *TrajectoryHandler {
	return &TrajectoryHandler{log: log}
}

type trajectoryBody struct {
	Points []models.GazePoint `json:"points" binding:"required"`
}

// Put stores a raw recording.
func (h *TrajectoryHandler) Put(c *gin.Context) {
	var body trajectoryBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, h.log, err)
		return
	}
	t := models.NewTrajectory(c.Param("group"), c.Param("subject"), c.Param("task"), body.Points)
	if err := repository.SaveTrajectory(c.Request.Context(), t); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "points": len(body.Points)})
}

// Get returns a raw recording.
func (h *TrajectoryHandler) Get(c *gin.Context) {
	t, err := repository.GetTrajectory(c.Request.Context(), c.Param("group"), c.Param("subject"), c.Param("task"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"points": t.Points()})
}

// List summarises stored recordings, optionally for one task.
func (h *TrajectoryHandler) List(c *gin.Context) {
	rows, err := repository.ListTrajectories(c.Request.Context(), c.Query("task"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if rows == nil {
		rows = []repository.TrajectorySummary{}
	}
	c.JSON(http.StatusOK, gin.H{"trajectories": rows})
}
