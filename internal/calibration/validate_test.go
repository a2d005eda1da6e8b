package calibration

import (
	"errors"
	"testing"

	"vr-eyetracking/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		params   models.CalibrationParams
		duration float64
		problems int
	}{
		{"zero params", models.CalibrationParams{}, 0, 0},
		{"offsets at limits", models.CalibrationParams{OffsetX: 0.4, OffsetY: -0.4}, 10, 0},
		{"trim within duration", models.CalibrationParams{TrimStart: 2, TrimEnd: 1}, 9, 0},
		{"offset out of range", models.CalibrationParams{OffsetX: 0.41}, 10, 1},
		{"negative trim", models.CalibrationParams{TrimStart: -1}, 10, 1},
		{"trim exceeds duration", models.CalibrationParams{TrimStart: 6, TrimEnd: 5}, 10, 1},
		{"trim ceiling", models.CalibrationParams{TrimStart: 40, TrimEnd: 30}, 120, 1},
		{"every rule broken", models.CalibrationParams{OffsetX: 1, OffsetY: -1, TrimStart: 61, TrimEnd: 61}, 5, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.params, tt.duration)
			if tt.problems == 0 {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Len(t, verr.Problems(), tt.problems)
		})
	}
}
