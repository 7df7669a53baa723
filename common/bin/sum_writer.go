package bin

import (
	"io"

	"github.com/meverselabs/coinnet/common/hash"
)

// SumWriter writes a sequence of fields and accumulates the written size
type SumWriter struct {
	sum int64
}

// NewSumWriter returns a SumWriter
func NewSumWriter() *SumWriter {
	return &SumWriter{
		sum: 0,
	}
}

func (sw *SumWriter) add(n int64, err error) (int64, error) {
	sw.sum += n
	return sw.sum, err
}

func (sw *SumWriter) Uint8(w io.Writer, v uint8) (int64, error) {
	return sw.add(WriteUint8(w, v))
}

func (sw *SumWriter) Uint16(w io.Writer, v uint16) (int64, error) {
	return sw.add(WriteUint16(w, v))
}

// Uint16BE writes v in network byte order
func (sw *SumWriter) Uint16BE(w io.Writer, v uint16) (int64, error) {
	return sw.add(BigEndian.WriteUint16(w, v))
}

func (sw *SumWriter) Uint32(w io.Writer, v uint32) (int64, error) {
	return sw.add(WriteUint32(w, v))
}

func (sw *SumWriter) Uint64(w io.Writer, v uint64) (int64, error) {
	return sw.add(WriteUint64(w, v))
}

func (sw *SumWriter) Int32(w io.Writer, v int32) (int64, error) {
	return sw.add(WriteInt32(w, v))
}

func (sw *SumWriter) Int64(w io.Writer, v int64) (int64, error) {
	return sw.add(WriteInt64(w, v))
}

func (sw *SumWriter) Bool(w io.Writer, v bool) (int64, error) {
	return sw.add(WriteBool(w, v))
}

func (sw *SumWriter) VarInt(w io.Writer, v uint64) (int64, error) {
	return sw.add(WriteVarInt(w, v))
}

func (sw *SumWriter) VarBytes(w io.Writer, v []byte) (int64, error) {
	return sw.add(WriteVarBytes(w, v))
}

func (sw *SumWriter) VarString(w io.Writer, v string) (int64, error) {
	return sw.add(WriteVarString(w, v))
}

// Fixed writes a fixed-size array in internal order
func (sw *SumWriter) Fixed(w io.Writer, v []byte) (int64, error) {
	return sw.add(Internal.WriteFixed(w, v))
}

func (sw *SumWriter) Hash256(w io.Writer, h hash.Hash256) (int64, error) {
	return sw.add(Internal.WriteFixed(w, h[:]))
}

func (sw *SumWriter) WriterTo(w io.Writer, wt io.WriterTo) (int64, error) {
	return sw.add(wt.WriteTo(w))
}

// Sum returns the total written size
func (sw *SumWriter) Sum() int64 {
	return sw.sum
}
