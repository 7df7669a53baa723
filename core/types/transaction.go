package types

import (
	"fmt"
	"io"
	"math"

	"github.com/meverselabs/coinnet/common/bin"
	"github.com/meverselabs/coinnet/common/hash"
	"github.com/pkg/errors"
)

// element limits of a single transaction
const (
	MaxTxInPerTransaction  = 1 << 16
	MaxTxOutPerTransaction = 1 << 16
)

// OutPoint points an output of a previous transaction
type OutPoint struct {
	Hash  hash.Hash256
	Index uint32
}

// String returns the txid:index form of the outpoint
func (op OutPoint) String() string {
	return fmt.Sprintf("%v:%v", op.Hash.String(), op.Index)
}

// Key returns the ordered key of the outpoint
func (op OutPoint) Key() [hash.HashLength + 4]byte {
	var key [hash.HashLength + 4]byte
	copy(key[:], op.Hash[:])
	copy(key[hash.HashLength:], bin.Uint32Bytes(op.Index))
	return key
}

// IsNull returns it is the coinbase outpoint or not
func (op OutPoint) IsNull() bool {
	return op.Index == math.MaxUint32 && op.Hash == hash.Hash256{}
}

// WriteTo is a serialization function
func (op *OutPoint) WriteTo(w io.Writer) (int64, error) {
	sw := bin.NewSumWriter()
	if sum, err := sw.Hash256(w, op.Hash); err != nil {
		return sum, err
	}
	if sum, err := sw.Uint32(w, op.Index); err != nil {
		return sum, err
	}
	return sw.Sum(), nil
}

// ReadFrom is a deserialization function
func (op *OutPoint) ReadFrom(r io.Reader) (int64, error) {
	sr := bin.NewSumReader()
	if sum, err := sr.Hash256(r, &op.Hash); err != nil {
		return sum, err
	}
	if sum, err := sr.Uint32(r, &op.Index); err != nil {
		return sum, err
	}
	return sr.Sum(), nil
}

// TxIn spends an OutPoint
type TxIn struct {
	PreviousOutPoint OutPoint
	SignatureScript  []byte
	Sequence         uint32
}

// WriteTo is a serialization function
func (in *TxIn) WriteTo(w io.Writer) (int64, error) {
	sw := bin.NewSumWriter()
	if sum, err := sw.WriterTo(w, &in.PreviousOutPoint); err != nil {
		return sum, err
	}
	if sum, err := sw.VarBytes(w, in.SignatureScript); err != nil {
		return sum, err
	}
	if sum, err := sw.Uint32(w, in.Sequence); err != nil {
		return sum, err
	}
	return sw.Sum(), nil
}

// ReadFrom is a deserialization function
func (in *TxIn) ReadFrom(r io.Reader) (int64, error) {
	sr := bin.NewSumReader()
	if sum, err := sr.ReaderFrom(r, &in.PreviousOutPoint); err != nil {
		return sum, err
	}
	if sum, err := sr.VarBytes(r, &in.SignatureScript); err != nil {
		return sum, err
	}
	if sum, err := sr.Uint32(r, &in.Sequence); err != nil {
		return sum, err
	}
	return sr.Sum(), nil
}

// TxOut is a spendable output
type TxOut struct {
	Value    int64
	PkScript []byte
}

// Account returns the owner of a pay-to-pubkey-hash output
func (out *TxOut) Account() (Account, bool) {
	return ScriptAccount(out.PkScript)
}

// WriteTo is a serialization function
func (out *TxOut) WriteTo(w io.Writer) (int64, error) {
	sw := bin.NewSumWriter()
	if sum, err := sw.Int64(w, out.Value); err != nil {
		return sum, err
	}
	if sum, err := sw.VarBytes(w, out.PkScript); err != nil {
		return sum, err
	}
	return sw.Sum(), nil
}

// ReadFrom is a deserialization function
func (out *TxOut) ReadFrom(r io.Reader) (int64, error) {
	sr := bin.NewSumReader()
	if sum, err := sr.Int64(r, &out.Value); err != nil {
		return sum, err
	}
	if sum, err := sr.VarBytes(r, &out.PkScript); err != nil {
		return sum, err
	}
	return sr.Sum(), nil
}

// Transaction moves value from previous outputs to new outputs
type Transaction struct {
	Version  int32
	TxIn     []*TxIn
	TxOut    []*TxOut
	LockTime uint32
}

// Hash returns the txid
func (tx *Transaction) Hash() hash.Hash256 {
	return bin.MustWriterToHash(tx)
}

// IsCoinBase returns it is a coinbase transaction or not
func (tx *Transaction) IsCoinBase() bool {
	return len(tx.TxIn) == 1 && tx.TxIn[0].PreviousOutPoint.IsNull()
}

// PaysTo returns it has an output paying to the account or not
func (tx *Transaction) PaysTo(acc Account) bool {
	for _, out := range tx.TxOut {
		if owner, has := out.Account(); has && owner == acc {
			return true
		}
	}
	return false
}

// Spends returns it has an input spending one of the outpoints or not
func (tx *Transaction) Spends(ops map[OutPoint]bool) bool {
	if tx.IsCoinBase() {
		return false
	}
	for _, in := range tx.TxIn {
		if ops[in.PreviousOutPoint] {
			return true
		}
	}
	return false
}

// WriteTo is a serialization function
func (tx *Transaction) WriteTo(w io.Writer) (int64, error) {
	sw := bin.NewSumWriter()
	if sum, err := sw.Int32(w, tx.Version); err != nil {
		return sum, err
	}
	if sum, err := sw.VarInt(w, uint64(len(tx.TxIn))); err != nil {
		return sum, err
	}
	for _, in := range tx.TxIn {
		if sum, err := sw.WriterTo(w, in); err != nil {
			return sum, err
		}
	}
	if sum, err := sw.VarInt(w, uint64(len(tx.TxOut))); err != nil {
		return sum, err
	}
	for _, out := range tx.TxOut {
		if sum, err := sw.WriterTo(w, out); err != nil {
			return sum, err
		}
	}
	if sum, err := sw.Uint32(w, tx.LockTime); err != nil {
		return sum, err
	}
	return sw.Sum(), nil
}

// ReadFrom is a deserialization function
func (tx *Transaction) ReadFrom(r io.Reader) (int64, error) {
	sr := bin.NewSumReader()
	if sum, err := sr.Int32(r, &tx.Version); err != nil {
		return sum, err
	}
	var InLen uint64
	if sum, err := sr.VarInt(r, &InLen); err != nil {
		return sum, err
	}
	if InLen > MaxTxInPerTransaction {
		return sr.Sum(), errors.WithStack(ErrTooManyTxIn)
	}
	tx.TxIn = make([]*TxIn, 0, InLen)
	for i := uint64(0); i < InLen; i++ {
		in := &TxIn{}
		if sum, err := sr.ReaderFrom(r, in); err != nil {
			return sum, err
		}
		tx.TxIn = append(tx.TxIn, in)
	}
	var OutLen uint64
	if sum, err := sr.VarInt(r, &OutLen); err != nil {
		return sum, err
	}
	if OutLen > MaxTxOutPerTransaction {
		return sr.Sum(), errors.WithStack(ErrTooManyTxOut)
	}
	tx.TxOut = make([]*TxOut, 0, OutLen)
	for i := uint64(0); i < OutLen; i++ {
		out := &TxOut{}
		if sum, err := sr.ReaderFrom(r, out); err != nil {
			return sum, err
		}
		tx.TxOut = append(tx.TxOut, out)
	}
	if sum, err := sr.Uint32(r, &tx.LockTime); err != nil {
		return sum, err
	}
	return sr.Sum(), nil
}

// NewCoinBase returns a coinbase transaction paying value to the account
func NewCoinBase(height int32, value int64, acc Account) *Transaction {
	return &Transaction{
		Version: 1,
		TxIn: []*TxIn{
			{
				PreviousOutPoint: OutPoint{Index: math.MaxUint32},
				SignatureScript:  bin.Uint32Bytes(uint32(height)),
				Sequence:         math.MaxUint32,
			},
		},
		TxOut: []*TxOut{
			{Value: value, PkScript: PayToAccountScript(acc)},
		},
	}
}
