package ink

import (
	"fmt"
	"math"
)

// ValidationError reports invalid stroke data.
type ValidationError struct {
	message string
}

func (v ValidationError) Error() string {
	return v.message
}

// NewValidationError creates a ValidationError from the given format string.
func NewValidationError(msg string, v ...interface{}) error {
	return ValidationError{fmt.Sprintf(msg, v...)}
}

// Validate checks that the stroke carries only finite numbers. Style and
// dot ranges are not restricted: whatever a source sheet accepts is
// mirrored as is.
func (s *Stroke) Validate() error {
	err := s.Attributes.Validate()
	if err != nil {
		return err
	}

	for i := range s.Dots {
		err = s.Dots[i].Validate()
		if err != nil {
			return fmt.Errorf("dot %d: %w", i, err)
		}
	}

	return nil
}

// Validate checks the brush size is finite.
func (a DrawingAttributes) Validate() error {
	if isBad(float32(a.Size)) {
		return NewValidationError("invalid brush size: %v", a.Size)
	}
	return nil
}

// Validate checks every field of a sample point is finite.
func (d *Dot) Validate() error {
	if isBad(d.X) || isBad(d.Y) {
		return NewValidationError("invalid coordinate: (%v, %v)", d.X, d.Y)
	}
	if isBad(d.Speed) {
		return NewValidationError("invalid speed value: %v", d.Speed)
	}
	if isBad(d.Tilt) {
		return NewValidationError("invalid tilt value: %v", d.Tilt)
	}
	if isBad(d.Width) {
		return NewValidationError("invalid width value: %v", d.Width)
	}
	if isBad(d.Pressure) {
		return NewValidationError("invalid pressure value: %v", d.Pressure)
	}
	return nil
}

func isBad(f float32) bool {
	v := float64(f)
	return math.IsNaN(v) || math.IsInf(v, 0)
}
