package synclog

import (
	"errors"
)

var (
	ErrNotFound       = errors.New("sync session not found")
	ErrValidation     = errors.New("invalid sync session request")
	ErrInvalidState   = errors.New("sync session is in a terminal status")
	ErrConcurrentSync = errors.New("another sync session is already in progress for this device")
)
