package types

import (
	"io"

	"github.com/meverselabs/coinnet/common/bin"
	"github.com/meverselabs/coinnet/common/hash"
	"github.com/pkg/errors"
)

// MaxTransactionsPerBlock bounds the transaction count read from the wire
const MaxTransactionsPerBlock = 1 << 17

// Block is a header with its transactions
type Block struct {
	Header       BlockHeader
	Transactions []*Transaction
}

// NewBlock returns a block on top of prev with the merkle root of txs
func NewBlock(prev hash.Hash256, timestamp uint32, txs []*Transaction) *Block {
	return &Block{
		Header: BlockHeader{
			Version:    1,
			PrevBlock:  prev,
			MerkleRoot: MerkleRoot(txs),
			Timestamp:  timestamp,
		},
		Transactions: txs,
	}
}

// Hash returns the block hash
func (b *Block) Hash() hash.Hash256 {
	return b.Header.Hash()
}

// WriteTo is a serialization function
func (b *Block) WriteTo(w io.Writer) (int64, error) {
	sw := bin.NewSumWriter()
	if sum, err := sw.WriterTo(w, &b.Header); err != nil {
		return sum, err
	}
	if sum, err := sw.VarInt(w, uint64(len(b.Transactions))); err != nil {
		return sum, err
	}
	for _, tx := range b.Transactions {
		if sum, err := sw.WriterTo(w, tx); err != nil {
			return sum, err
		}
	}
	return sw.Sum(), nil
}

// ReadFrom is a deserialization function
func (b *Block) ReadFrom(r io.Reader) (int64, error) {
	sr := bin.NewSumReader()
	if sum, err := sr.ReaderFrom(r, &b.Header); err != nil {
		return sum, err
	}
	var TxLen uint64
	if sum, err := sr.VarInt(r, &TxLen); err != nil {
		return sum, err
	}
	if TxLen > MaxTransactionsPerBlock {
		return sr.Sum(), errors.WithStack(ErrInvalidTransactionCount)
	}
	b.Transactions = make([]*Transaction, 0, TxLen)
	for i := uint64(0); i < TxLen; i++ {
		tx := &Transaction{}
		if sum, err := sr.ReaderFrom(r, tx); err != nil {
			return sum, err
		}
		b.Transactions = append(b.Transactions, tx)
	}
	return sr.Sum(), nil
}

// MerkleRoot returns the merkle root of the transaction hashes.
// An odd level duplicates its last hash.
func MerkleRoot(txs []*Transaction) hash.Hash256 {
	if len(txs) == 0 {
		return hash.Hash256{}
	}
	level := make([]hash.Hash256, 0, len(txs))
	for _, tx := range txs {
		level = append(level, tx.Hash())
	}
	buf := make([]byte, hash.HashLength*2)
	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		next := make([]hash.Hash256, 0, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			copy(buf, level[i][:])
			copy(buf[hash.HashLength:], level[i+1][:])
			next = append(next, hash.DoubleHash(buf))
		}
		level = next
	}
	return level[0]
}
