package handlers

import (
	"errors"
	"net/http"

	"vr-eyetracking/internal/calibration"
	"vr-eyetracking/internal/repository"
	"vr-eyetracking/internal/roi"
	"vr-eyetracking/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var (
	errNoEditor      = errors.New("no ROI editor is open in this workspace")
	errNoCalibration = errors.New("no calibration session is open in this workspace")
)

// respondError maps an error onto a status code. Validation failures list
// every problem; not-found and conflicts carry the message; anything else is
// logged and hidden behind a generic 500.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	var verr *calibration.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed", "errors": verr.Problems()})
	case errors.Is(err, calibration.ErrNoChanges):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "warning": true})
	case errors.Is(err, roi.ErrBackgroundNotDrawable):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, calibration.ErrNotFound),
		errors.Is(err, services.ErrNoRecording),
		errors.Is(err, services.ErrUnknownStimulus),
		errors.Is(err, roi.ErrRegionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, calibration.ErrSaveInFlight),
		errors.Is(err, roi.ErrNotEditing),
		errors.Is(err, errNoEditor),
		errors.Is(err, errNoCalibration):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		log.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// respondValidation reports a multierr list as a 422.
func respondValidation(c *gin.Context, err error) {
	errs := multierr.Errors(err)
	problems := make([]string, len(errs))
	for i, e := range errs {
		problems[i] = e.Error()
	}
	c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed", "errors": problems})
}

// badRequest reports an unparsable body.
func badRequest(c *gin.Context, log *zap.Logger, err error) {
	log.Debug("Invalid request body", zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
}
