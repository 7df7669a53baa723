package utxo

import (
	"testing"

	"github.com/meverselabs/coinnet/common/hash"
	"github.com/meverselabs/coinnet/core/types"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = types.MustParseAccount("1111111111111111111111111111111111111111")
	bob   = types.MustParseAccount("2222222222222222222222222222222222222222")
)

func spend(op types.OutPoint, value int64, to types.Account) *types.Transaction {
	return &types.Transaction{
		Version: 1,
		TxIn:    []*types.TxIn{{PreviousOutPoint: op, Sequence: 0xffffffff}},
		TxOut:   []*types.TxOut{{Value: value, PkScript: types.PayToAccountScript(to)}},
	}
}

func TestApplyAndQuery(t *testing.T) {
	s := NewSet()
	cb := types.NewCoinBase(1, 50, alice)
	b1 := types.NewBlock(hash.Hash256{}, 1, []*types.Transaction{cb})
	require.NoError(t, s.Apply(b1))
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, int64(50), s.Balance(alice))

	pay := spend(types.OutPoint{Hash: cb.Hash()}, 30, bob)
	b2 := types.NewBlock(b1.Hash(), 2, []*types.Transaction{types.NewCoinBase(2, 50, bob), pay})
	require.NoError(t, s.Apply(b2))

	assert.Equal(t, int64(0), s.Balance(alice))
	assert.Equal(t, int64(80), s.Balance(bob))
	assert.Len(t, s.Query(bob), 2)
	assert.Empty(t, s.Query(alice))
	assert.Equal(t, int32(2), s.Height())

	uo, err := s.Get(types.OutPoint{Hash: pay.Hash()})
	require.NoError(t, err)
	assert.Equal(t, int32(2), uo.Height)
}

func TestApplyChainedInBlock(t *testing.T) {
	s := NewSet()
	cb := types.NewCoinBase(1, 50, alice)
	first := spend(types.OutPoint{Hash: cb.Hash()}, 50, bob)
	second := spend(types.OutPoint{Hash: first.Hash()}, 50, alice)
	require.NoError(t, s.Apply(types.NewBlock(hash.Hash256{}, 1, []*types.Transaction{cb, first, second})))

	assert.Equal(t, 1, s.Len())
	assert.Equal(t, int64(50), s.Balance(alice))
	assert.Equal(t, int64(0), s.Balance(bob))
}

func TestApplyIsAtomic(t *testing.T) {
	s := NewSet()
	cb := types.NewCoinBase(1, 50, alice)
	b1 := types.NewBlock(hash.Hash256{}, 1, []*types.Transaction{cb})
	require.NoError(t, s.Apply(b1))

	op := types.OutPoint{Hash: cb.Hash()}
	tests := []struct {
		name string
		txs  []*types.Transaction
		want error
	}{
		{"double spent", []*types.Transaction{types.NewCoinBase(2, 50, bob), spend(op, 10, bob), spend(op, 20, bob)}, ErrDoubleSpent},
		{"missing input", []*types.Transaction{types.NewCoinBase(2, 50, bob), spend(types.OutPoint{Index: 3}, 10, bob)}, ErrNotExistUTXO},
		{"no coinbase", []*types.Transaction{spend(op, 10, bob)}, ErrMissingCoinBase},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Apply(types.NewBlock(b1.Hash(), 2, tt.txs))
			assert.Equal(t, tt.want, errors.Cause(err))
			assert.Equal(t, 1, s.Len())
			assert.Equal(t, int64(50), s.Balance(alice))
			assert.Equal(t, int64(0), s.Balance(bob))
		})
	}
}

func TestApplyRequiresTip(t *testing.T) {
	s := NewSet()
	parent := hash.DoubleHash([]byte("genesis"))
	b1 := types.NewBlock(parent, 1, []*types.Transaction{types.NewCoinBase(1, 50, alice)})
	sibling := types.NewBlock(parent, 2, []*types.Transaction{types.NewCoinBase(1, 51, alice)})

	require.NoError(t, s.Apply(b1))
	assert.Equal(t, b1.Hash(), s.Tip())

	err := s.Apply(sibling)
	assert.Equal(t, ErrNotConnected, errors.Cause(err))
	assert.Equal(t, int32(1), s.Height())
	assert.Equal(t, int64(50), s.Balance(alice))

	b2 := types.NewBlock(b1.Hash(), 3, []*types.Transaction{types.NewCoinBase(2, 25, bob)})
	require.NoError(t, s.Apply(b2))
	assert.Equal(t, int32(2), s.Height())
	assert.Equal(t, b2.Hash(), s.Tip())
}
