package conflict

import (
	"errors"
)

var (
	ErrNotFound         = errors.New("conflict not found")
	ErrValidation       = errors.New("invalid conflict request")
	ErrInvalidState     = errors.New("conflict is not in a resolvable status")
	ErrUnsupportedMerge = errors.New("no merge function registered for entity type")
	ErrUnresolved       = errors.New("conflict has not been resolved")
	ErrUnknownStrategy  = errors.New("unknown resolution strategy")
)
