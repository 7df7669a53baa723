package types

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/meverselabs/coinnet/common/bin"
	"github.com/meverselabs/coinnet/common/hash"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	accA = MustParseAccount("89abcdefabbaabbaabbaabbaabbaabbaabbaabba")
	accB = MustParseAccount("0102030405060708090a0b0c0d0e0f1011121314")
)

func TestGenesisHeaderHash(t *testing.T) {
	bh := &BlockHeader{
		Version:    1,
		MerkleRoot: hash.MustParseHash("4a5e1e4baab89f3a32518a88c31bc87f618f76673e2cc77ab2127b7afdeda33b"),
		Timestamp:  1231006505,
		Bits:       0x1d00ffff,
		Nonce:      2083236893,
	}
	bs, n, err := bin.WriterToBytes(bh)
	require.NoError(t, err)
	assert.Equal(t, int64(BlockHeaderSize), n)
	assert.Len(t, bs, BlockHeaderSize)
	assert.Equal(t, "000000000019d6689c085ae165831e934ff763ae46a2a6c172b3f1b60a8ce26f", bh.Hash().String())

	var decoded BlockHeader
	_, err = bin.ReadFromBytes(&decoded, bs)
	require.NoError(t, err)
	assert.Equal(t, *bh, decoded)
}

func TestTransactionRoundTrip(t *testing.T) {
	coinbase := NewCoinBase(1, 50_0000_0000, accA)
	spend := &Transaction{
		Version: 2,
		TxIn: []*TxIn{
			{
				PreviousOutPoint: OutPoint{Hash: coinbase.Hash(), Index: 0},
				SignatureScript:  bytes.Repeat([]byte{0x30}, 300),
				Sequence:         0xfffffffe,
			},
		},
		TxOut: []*TxOut{
			{Value: 10_0000_0000, PkScript: PayToAccountScript(accB)},
			{Value: 39_9999_0000, PkScript: PayToAccountScript(accA)},
		},
		LockTime: 100,
	}
	for _, tx := range []*Transaction{coinbase, spend} {
		bs, n, err := bin.WriterToBytes(tx)
		require.NoError(t, err)
		assert.Equal(t, int64(len(bs)), n)

		decoded := &Transaction{}
		read, err := bin.ReadFromBytes(decoded, bs)
		require.NoError(t, err)
		assert.Equal(t, n, read)
		assert.Equal(t, tx, decoded)
		assert.Equal(t, tx.Hash(), decoded.Hash())
	}
	assert.True(t, coinbase.IsCoinBase())
	assert.False(t, spend.IsCoinBase())
}

func TestTransactionTruncated(t *testing.T) {
	bs, _, err := bin.WriterToBytes(NewCoinBase(7, 1, accA))
	require.NoError(t, err)
	_, err = bin.ReadFromBytes(&Transaction{}, bs[:len(bs)-2])
	assert.Equal(t, bin.ErrSizeMismatch, errors.Cause(err))
}

func TestBlockRoundTrip(t *testing.T) {
	txs := []*Transaction{NewCoinBase(1, 50, accA), NewCoinBase(1, 60, accB), NewCoinBase(1, 70, accA)}
	b := NewBlock(hash.DoubleHash([]byte("parent")), 1700000000, txs)

	bs, _, err := bin.WriterToBytes(b)
	require.NoError(t, err)
	decoded := &Block{}
	_, err = bin.ReadFromBytes(decoded, bs)
	require.NoError(t, err)
	assert.Equal(t, b, decoded)
	assert.Equal(t, b.Hash(), decoded.Hash())
	assert.Equal(t, MerkleRoot(decoded.Transactions), decoded.Header.MerkleRoot)
}

func TestMerkleRoot(t *testing.T) {
	tx := NewCoinBase(3, 1, accA)
	assert.Equal(t, tx.Hash(), MerkleRoot([]*Transaction{tx}))
	assert.Equal(t, hash.Hash256{}, MerkleRoot(nil))

	other := NewCoinBase(4, 1, accB)
	left, right := tx.Hash(), other.Hash()
	pair := append(left[:], right[:]...)
	assert.Equal(t, hash.DoubleHash(pair), MerkleRoot([]*Transaction{tx, other}))
}

func TestAccount(t *testing.T) {
	pub := bytes.Repeat([]byte{0x02}, 33)
	acc, err := ParseAccount("0x" + hex.EncodeToString(pub))
	require.NoError(t, err)
	assert.Equal(t, NewAccountFromPubKey(pub), acc)

	_, err = ParseAccount("abcd")
	assert.Equal(t, ErrInvalidAccountFormat, errors.Cause(err))

	owner, ok := ScriptAccount(PayToAccountScript(accB))
	assert.True(t, ok)
	assert.Equal(t, accB, owner)
	_, ok = ScriptAccount([]byte{0x6a, 0x01, 0x02})
	assert.False(t, ok)

	js, err := accA.MarshalJSON()
	require.NoError(t, err)
	var back Account
	require.NoError(t, back.UnmarshalJSON(js))
	assert.Equal(t, accA, back)
}

func TestRelevanceHelpers(t *testing.T) {
	coinbase := NewCoinBase(1, 50, accA)
	assert.True(t, coinbase.PaysTo(accA))
	assert.False(t, coinbase.PaysTo(accB))

	op := OutPoint{Hash: coinbase.Hash(), Index: 0}
	spend := &Transaction{
		Version: 1,
		TxIn:    []*TxIn{{PreviousOutPoint: op}},
		TxOut:   []*TxOut{{Value: 50, PkScript: PayToAccountScript(accB)}},
	}
	assert.True(t, spend.Spends(map[OutPoint]bool{op: true}))
	assert.False(t, spend.Spends(map[OutPoint]bool{}))
	assert.False(t, coinbase.Spends(map[OutPoint]bool{{Index: 0xffffffff}: true}))
}
