// Package periodization schedules a macrocycle of training phases onto the
// calendar and keeps the phase and competition lists consistent under edits.
package periodization

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrValidation     = errors.New("validation failed")
	ErrDuplicateOrder = errors.New("duplicate phase order")
)
