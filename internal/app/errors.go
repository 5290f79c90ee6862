package app

import "errors"

// Sentinel kinds for service errors.
var (
	ErrUnknownParticipant = errors.New("unknown participant")
	ErrBadPIN             = errors.New("wrong pin")
)
