package calibration

import (
	"fmt"
	"math"

	"vr-eyetracking/internal/models"

	"go.uber.org/multierr"
)

const (
	// MaxOffset bounds both offsets, in normalized units.
	MaxOffset = 0.4
	// MaxTrim bounds each trim and their sum, in seconds.
	MaxTrim = 60.0
)

// Parameter keys accepted by Session.UpdateParam. They match the JSON names.
const (
	ParamOffsetX   = "offsetX"
	ParamOffsetY   = "offsetY"
	ParamTrimStart = "trimStart"
	ParamTrimEnd   = "trimEnd"
)

// ValidationError lists every rule a parameter set breaks.
type ValidationError struct {
	err error
}

func (e *ValidationError) Error() string {
	return "invalid calibration parameters: " + e.err.Error()
}

// Unwrap exposes each violation to errors.Is and errors.As.
func (e *ValidationError) Unwrap() []error {
	return multierr.Errors(e.err)
}

// Problems returns one message per violated rule.
func (e *ValidationError) Problems() []string {
	errs := multierr.Errors(e.err)
	out := make([]string, len(errs))
	for i, err := range errs {
		out[i] = err.Error()
	}
	return out
}

// Validate checks params against the fixed ranges and against the duration of
// the trajectory they will be applied to. It returns a *ValidationError or nil.
func Validate(params models.CalibrationParams, duration float64) error {
	var err error
	inRange := func(name string, v, lo, hi float64) {
		if math.IsNaN(v) || v < lo || v > hi {
			err = multierr.Append(err, fmt.Errorf("%s must be between %g and %g, got %g", name, lo, hi, v))
		}
	}
	inRange(ParamOffsetX, params.OffsetX, -MaxOffset, MaxOffset)
	inRange(ParamOffsetY, params.OffsetY, -MaxOffset, MaxOffset)
	inRange(ParamTrimStart, params.TrimStart, 0, MaxTrim)
	inRange(ParamTrimEnd, params.TrimEnd, 0, MaxTrim)

	total := params.TrimStart + params.TrimEnd
	if total > MaxTrim {
		err = multierr.Append(err, fmt.Errorf("trimStart + trimEnd must not exceed %gs, got %gs", MaxTrim, total))
	}
	if total > 0 && total > duration {
		err = multierr.Append(err, fmt.Errorf("trimStart + trimEnd (%gs) exceeds the recording duration (%gs)", total, duration))
	}

	if err != nil {
		return &ValidationError{err: err}
	}
	return nil
}

// setParam writes value into the field named by key.
func setParam(p *models.CalibrationParams, key string, value float64) error {
	switch key {
	case ParamOffsetX:
		p.OffsetX = value
	case ParamOffsetY:
		p.OffsetY = value
	case ParamTrimStart:
		p.TrimStart = value
	case ParamTrimEnd:
		p.TrimEnd = value
	default:
		return fmt.Errorf("unknown calibration parameter %q", key)
	}
	return nil
}
