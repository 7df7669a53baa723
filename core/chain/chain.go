package chain

import (
	"sync"

	"github.com/meverselabs/coinnet/common/hash"
	"github.com/meverselabs/coinnet/core/types"
	"github.com/pkg/errors"
)

// Blockchain accepts blocks announced by peers
type Blockchain interface {
	Accept(b *types.Block) error
	Height() int32
}

type blockEntry struct {
	header types.BlockHeader
	height int32
}

// MemChain is an in-memory header chain rooted at a genesis hash.
// It links blocks by parent and checks the merkle commitment only.
type MemChain struct {
	sync.Mutex
	genesis hash.Hash256
	entries map[hash.Hash256]*blockEntry
	tip     hash.Hash256
	height  int32
}

// NewMemChain returns a MemChain
func NewMemChain(genesis hash.Hash256) *MemChain {
	cn := &MemChain{
		genesis: genesis,
		entries: map[hash.Hash256]*blockEntry{
			genesis: {height: 0},
		},
		tip: genesis,
	}
	return cn
}

// Accept links the block to its parent and moves the tip when the block extends the best height
func (cn *MemChain) Accept(b *types.Block) error {
	if len(b.Transactions) == 0 {
		return errors.WithStack(ErrEmptyBlock)
	}
	if !b.Transactions[0].IsCoinBase() {
		return errors.WithStack(ErrMissingCoinBase)
	}
	if types.MerkleRoot(b.Transactions) != b.Header.MerkleRoot {
		return errors.WithStack(ErrInvalidMerkleRoot)
	}
	h := b.Hash()

	cn.Lock()
	defer cn.Unlock()

	if _, has := cn.entries[h]; has {
		return errors.WithStack(ErrKnownBlock)
	}
	parent, has := cn.entries[b.Header.PrevBlock]
	if !has {
		return errors.Wrapf(ErrOrphanBlock, "parent %v", b.Header.PrevBlock.String())
	}
	entry := &blockEntry{
		header: b.Header,
		height: parent.height + 1,
	}
	cn.entries[h] = entry
	if entry.height > cn.height {
		cn.height = entry.height
		cn.tip = h
	}
	return nil
}

// Height returns the best height
func (cn *MemChain) Height() int32 {
	cn.Lock()
	defer cn.Unlock()

	return cn.height
}

// Tip returns the hash and the height of the best block
func (cn *MemChain) Tip() (hash.Hash256, int32) {
	cn.Lock()
	defer cn.Unlock()

	return cn.tip, cn.height
}

// Genesis returns the genesis hash
func (cn *MemChain) Genesis() hash.Hash256 {
	return cn.genesis
}

// BlockHeight returns the height of the known block
func (cn *MemChain) BlockHeight(h hash.Hash256) (int32, error) {
	cn.Lock()
	defer cn.Unlock()

	entry, has := cn.entries[h]
	if !has {
		return 0, errors.WithStack(ErrNotExistBlock)
	}
	return entry.height, nil
}

// HasBlock returns the block is known or not
func (cn *MemChain) HasBlock(h hash.Hash256) bool {
	cn.Lock()
	defer cn.Unlock()

	_, has := cn.entries[h]
	return has
}
