package types

import (
	"io"
	"time"

	"github.com/meverselabs/coinnet/common/bin"
	"github.com/meverselabs/coinnet/common/hash"
)

// BlockHeaderSize is the serialized size of a BlockHeader
const BlockHeaderSize = 80

// BlockHeader links a block to its parent and commits to its transactions
type BlockHeader struct {
	Version    int32
	PrevBlock  hash.Hash256
	MerkleRoot hash.Hash256
	Timestamp  uint32
	Bits       uint32
	Nonce      uint32
}

// Hash returns the block hash
func (bh *BlockHeader) Hash() hash.Hash256 {
	return bin.MustWriterToHash(bh)
}

// Time returns the timestamp of the header
func (bh *BlockHeader) Time() time.Time {
	return time.Unix(int64(bh.Timestamp), 0)
}

// WriteTo is a serialization function
func (bh *BlockHeader) WriteTo(w io.Writer) (int64, error) {
	sw := bin.NewSumWriter()
	if sum, err := sw.Int32(w, bh.Version); err != nil {
		return sum, err
	}
	if sum, err := sw.Hash256(w, bh.PrevBlock); err != nil {
		return sum, err
	}
	if sum, err := sw.Hash256(w, bh.MerkleRoot); err != nil {
		return sum, err
	}
	if sum, err := sw.Uint32(w, bh.Timestamp); err != nil {
		return sum, err
	}
	if sum, err := sw.Uint32(w, bh.Bits); err != nil {
		return sum, err
	}
	if sum, err := sw.Uint32(w, bh.Nonce); err != nil {
		return sum, err
	}
	return sw.Sum(), nil
}

// ReadFrom is a deserialization function
func (bh *BlockHeader) ReadFrom(r io.Reader) (int64, error) {
	sr := bin.NewSumReader()
	if sum, err := sr.Int32(r, &bh.Version); err != nil {
		return sum, err
	}
	if sum, err := sr.Hash256(r, &bh.PrevBlock); err != nil {
		return sum, err
	}
	if sum, err := sr.Hash256(r, &bh.MerkleRoot); err != nil {
		return sum, err
	}
	if sum, err := sr.Uint32(r, &bh.Timestamp); err != nil {
		return sum, err
	}
	if sum, err := sr.Uint32(r, &bh.Bits); err != nil {
		return sum, err
	}
	if sum, err := sr.Uint32(r, &bh.Nonce); err != nil {
		return sum, err
	}
	return sr.Sum(), nil
}
