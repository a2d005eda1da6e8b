package handlers

import (
	"net/http"

	"vr-eyetracking/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type StimulusHandler struct {
	log     *zap.Logger
	stimuli *services.StimulusService
}

func NewStimulusHandler(log *zap.Logger, stimuli *services.StimulusService) *StimulusHandler {
	return &StimulusHandler{log: log, stimuli: stimuli}
}

// List returns the stimulus catalog.
func (h *StimulusHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"stimuli": h.stimuli.Catalog()})
}

// Metadata returns the background image file name and pixel size.
func (h *StimulusHandler) Metadata(c *gin.Context) {
	meta, err := h.stimuli.Metadata(c.Param("version"), c.Param("task"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, meta)
}
