package types

import "github.com/pkg/errors"

// types errors
var (
	ErrInvalidAccountFormat    = errors.New("invalid account format")
	ErrInvalidTransactionCount = errors.New("invalid transaction count")
	ErrTooManyTxIn             = errors.New("too many transaction inputs")
	ErrTooManyTxOut            = errors.New("too many transaction outputs")
)
