package chain

import "github.com/pkg/errors"

// errors
var (
	ErrKnownBlock        = errors.New("known block")
	ErrOrphanBlock       = errors.New("orphan block")
	ErrEmptyBlock        = errors.New("empty block")
	ErrInvalidMerkleRoot = errors.New("invalid merkle root")
	ErrMissingCoinBase   = errors.New("first transaction is not a coinbase")
	ErrNotExistBlock     = errors.New("not exist block")
)
