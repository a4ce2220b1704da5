package domain

import "errors"

var (
	// A required input file does not exist.
	ErrMissingSource = errors.New("source file not found")

	// A required input is absent or lacks its identifier/ZIP columns.
	ErrMissingInput = errors.New("required input missing")

	// A tabular input has none of the recognized column sets.
	ErrSchema = errors.New("unrecognized input schema")

	// Matrix coverage after all fill phases is below the configured minimum.
	ErrCoverage = errors.New("matrix coverage below minimum")

	// An interpolation strategy has too few known entries to fit.
	ErrTooFewKnown = errors.New("too few known entries to interpolate")
)
