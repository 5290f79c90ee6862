package assign

import "errors"

// Sentinel kinds for assignment errors.
var (
	ErrInvalidPairing = errors.New("invalid pairing")
	ErrLoadPairing    = errors.New("load pairing failed")
)
