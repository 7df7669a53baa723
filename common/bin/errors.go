package bin

import "github.com/pkg/errors"

// errors
var (
	ErrInvalidLength      = errors.New("invalid length")
	ErrSizeMismatch       = errors.New("size mismatch")
	ErrNonCanonicalVarInt = errors.New("non-canonical var int")
	ErrUnsupportedWidth   = errors.New("unsupported field width")
)
