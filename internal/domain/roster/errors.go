package roster

import "errors"

// Sentinel kinds for roster errors.
var (
	ErrInvalidRoster = errors.New("invalid roster")
	ErrLoadRoster    = errors.New("load roster failed")
)
