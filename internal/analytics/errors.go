// Package analytics reduces swim session histories into training-load figures.
// Every function is a pure function of its inputs and safe for concurrent use
// over a session slice that nobody mutates.
package analytics

import "errors"

var (
	// ErrInvalidArgument reports a caller-supplied value outside its domain.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrUnknownMetric reports a comparison metric name that is not supported.
	ErrUnknownMetric = errors.New("unknown metric")
)
