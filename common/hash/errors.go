package hash

import (
	"github.com/pkg/errors"
)

// hash errors
var (
	ErrInvalidHashSize   = errors.New("invalid hash size")
	ErrInvalidHashFormat = errors.New("invalid hash format")
)
