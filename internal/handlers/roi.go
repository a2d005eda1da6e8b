package handlers

import (
	"net/http"
	"strings"

	"vr-eyetracking/internal/models"
	"vr-eyetracking/internal/repository"
	"vr-eyetracking/internal/roi"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ROIHandler struct {
	log *zap.Logger
}

func NewROIHandler(log *zap.Logger) *ROIHandler {
	return &ROIHandler{log: log}
}

// Get returns the saved configuration of a task, 404 when there is none.
func (h *ROIHandler) Get(c *gin.Context) {
	cfg, err := repository.GetROIConfig(c.Request.Context(), c.Param("version"), strings.ToLower(c.Param("task")))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// Save normalises and stores a configuration. The path decides version and task.
func (h *ROIHandler) Save(c *gin.Context) {
	var cfg models.ROIConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		badRequest(c, h.log, err)
		return
	}
	cfg.Version = c.Param("version")
	cfg.TaskID = c.Param("task")
	cfg = roi.NormalizeConfig(cfg)

	if err := repository.SaveROIConfig(c.Request.Context(), cfg); err != nil {
		respondError(c, h.log, err)
		return
	}
	h.log.Info("ROI config saved",
		zap.String("version", cfg.Version), zap.String("task", cfg.TaskID),
		zap.Int("keywords", len(cfg.Regions.Keywords)),
		zap.Int("instructions", len(cfg.Regions.Instructions)))
	c.JSON(http.StatusOK, gin.H{"success": true, "data": cfg})
}

// ListTasks lists the tasks with a saved configuration for a version.
func (h *ROIHandler) ListTasks(c *gin.Context) {
	tasks, err := repository.ListROITasks(c.Request.Context(), c.Param("version"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}
