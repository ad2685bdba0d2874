package queue

import (
	"errors"
)

var (
	ErrNotFound       = errors.New("queue item not found")
	ErrValidation     = errors.New("invalid queue item")
	ErrInvalidState   = errors.New("operation not allowed in current item status")
	ErrRetryExhausted = errors.New("retry limit exhausted")
)
