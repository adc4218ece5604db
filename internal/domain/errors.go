package domain

import "errors"

// Hard failures of the quantitative core. Wrap with fmt.Errorf("...: %w", err)
// and test with errors.Is.
var (
	// ErrInvalidPositionSize means a share count that is not a positive
	// multiple of SharesPerContract. Always a caller bug.
	ErrInvalidPositionSize = errors.New("invalid position size")

	// ErrDomain means an input that would push the arithmetic outside its
	// domain (non-positive capital base, non-positive price under a log).
	ErrDomain = errors.New("value outside computable domain")

	// ErrNoProbabilityMass means a distribution that assigned zero mass
	// everywhere and therefore cannot be used as weights.
	ErrNoProbabilityMass = errors.New("distribution has no probability mass")
)
