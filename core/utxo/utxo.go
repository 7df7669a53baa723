package utxo

import (
	"bytes"
	"sync"

	"github.com/meverselabs/coinnet/common/hash"
	"github.com/meverselabs/coinnet/core/types"
	"github.com/pkg/errors"
	"github.com/tidwall/btree"
)

const btreeDegrees = 64

// UTXOSet tracks the spendable outputs of the accepted blocks
type UTXOSet interface {
	Apply(b *types.Block) error
	Query(acc types.Account) []*types.UnspentOutput
}

type utxoItem struct {
	key [36]byte
	uo  *types.UnspentOutput
}

// Less orders items by the outpoint key
func (it *utxoItem) Less(than btree.Item, ctx interface{}) bool {
	return bytes.Compare(it.key[:], than.(*utxoItem).key[:]) < 0
}

func keyItem(op types.OutPoint) *utxoItem {
	return &utxoItem{key: op.Key()}
}

// Set is an ordered in-memory UTXO index
type Set struct {
	sync.Mutex
	tree   *btree.BTree
	tip    hash.Hash256
	height int32
}

// NewSet returns a Set
func NewSet() *Set {
	return &Set{
		tree: btree.New(btreeDegrees, nil),
	}
}

// Apply spends the inputs and adds the outputs of the block.
// The block must be a child of the last applied block; an empty set takes
// the parent of its first block as the base.
// Every spend is validated before anything is changed.
func (s *Set) Apply(b *types.Block) error {
	if len(b.Transactions) == 0 || !b.Transactions[0].IsCoinBase() {
		return errors.WithStack(ErrMissingCoinBase)
	}

	s.Lock()
	defer s.Unlock()

	if s.height > 0 && b.Header.PrevBlock != s.tip {
		return errors.Wrapf(ErrNotConnected, "parent %v", b.Header.PrevBlock.String())
	}

	height := s.height + 1
	created := map[types.OutPoint]bool{}
	spent := map[types.OutPoint]bool{}
	for _, tx := range b.Transactions {
		if !tx.IsCoinBase() {
			for _, in := range tx.TxIn {
				op := in.PreviousOutPoint
				if spent[op] {
					return errors.Wrap(ErrDoubleSpent, op.String())
				}
				if !created[op] && s.tree.Get(keyItem(op)) == nil {
					return errors.Wrap(ErrNotExistUTXO, op.String())
				}
				spent[op] = true
			}
		}
		TxHash := tx.Hash()
		for i := range tx.TxOut {
			created[types.OutPoint{Hash: TxHash, Index: uint32(i)}] = true
		}
	}

	for _, tx := range b.Transactions {
		TxHash := tx.Hash()
		for i, out := range tx.TxOut {
			op := types.OutPoint{Hash: TxHash, Index: uint32(i)}
			if spent[op] {
				continue
			}
			s.tree.ReplaceOrInsert(&utxoItem{
				key: op.Key(),
				uo: &types.UnspentOutput{
					OutPoint: op,
					TxOut:    out,
					Height:   height,
				},
			})
		}
	}
	for op := range spent {
		s.tree.Delete(keyItem(op))
	}
	s.tip = b.Hash()
	s.height = height
	return nil
}

// Query returns the unspent outputs paying to the account in outpoint order
func (s *Set) Query(acc types.Account) []*types.UnspentOutput {
	s.Lock()
	defer s.Unlock()

	list := []*types.UnspentOutput{}
	s.tree.Ascend(func(item btree.Item) bool {
		uo := item.(*utxoItem).uo
		if owner, has := uo.Account(); has && owner == acc {
			list = append(list, uo)
		}
		return true
	})
	return list
}

// Balance returns the sum of the unspent outputs of the account
func (s *Set) Balance(acc types.Account) int64 {
	var sum int64
	for _, uo := range s.Query(acc) {
		sum += uo.TxOut.Value
	}
	return sum
}

// Get returns the unspent output of the outpoint
func (s *Set) Get(op types.OutPoint) (*types.UnspentOutput, error) {
	s.Lock()
	defer s.Unlock()

	item := s.tree.Get(keyItem(op))
	if item == nil {
		return nil, errors.WithStack(ErrNotExistUTXO)
	}
	return item.(*utxoItem).uo, nil
}

// Len returns the number of unspent outputs
func (s *Set) Len() int {
	s.Lock()
	defer s.Unlock()

	return s.tree.Len()
}

// Tip returns the hash of the last applied block
func (s *Set) Tip() hash.Hash256 {
	s.Lock()
	defer s.Unlock()

	return s.tip
}

// Height returns the number of applied blocks
func (s *Set) Height() int32 {
	s.Lock()
	defer s.Unlock()

	return s.height
}
