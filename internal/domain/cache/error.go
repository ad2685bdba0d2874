package cache

import (
	"errors"
)

var (
	ErrMiss       = errors.New("cache miss")
	ErrValidation = errors.New("invalid cache request")
)
