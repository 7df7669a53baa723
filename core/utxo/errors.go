package utxo

import "github.com/pkg/errors"

// errors
var (
	ErrNotExistUTXO    = errors.New("not exist utxo")
	ErrDoubleSpent     = errors.New("double spent")
	ErrMissingCoinBase = errors.New("first transaction is not a coinbase")
	ErrNotConnected    = errors.New("block does not extend the applied tip")
)
