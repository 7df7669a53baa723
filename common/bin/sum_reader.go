package bin

import (
	"io"

	"github.com/meverselabs/coinnet/common/hash"
)

// SumReader reads a sequence of fields and accumulates the read size
type SumReader struct {
	sum int64
}

// NewSumReader returns a SumReader
func NewSumReader() *SumReader {
	return &SumReader{
		sum: 0,
	}
}

func (sr *SumReader) Uint8(r io.Reader, p *uint8) (int64, error) {
	v, n, err := ReadUint8(r)
	sr.sum += n
	if err != nil {
		return sr.sum, err
	}
	(*p) = v
	return sr.sum, nil
}

func (sr *SumReader) Uint16(r io.Reader, p *uint16) (int64, error) {
	v, n, err := ReadUint16(r)
	sr.sum += n
	if err != nil {
		return sr.sum, err
	}
	(*p) = v
	return sr.sum, nil
}

// Uint16BE reads a uint16 in network byte order
func (sr *SumReader) Uint16BE(r io.Reader, p *uint16) (int64, error) {
	v, n, err := BigEndian.ReadUint16(r)
	sr.sum += n
	if err != nil {
		return sr.sum, err
	}
	(*p) = v
	return sr.sum, nil
}

func (sr *SumReader) Uint32(r io.Reader, p *uint32) (int64, error) {
	v, n, err := ReadUint32(r)
	sr.sum += n
	if err != nil {
		return sr.sum, err
	}
	(*p) = v
	return sr.sum, nil
}

func (sr *SumReader) Uint64(r io.Reader, p *uint64) (int64, error) {
	v, n, err := ReadUint64(r)
	sr.sum += n
	if err != nil {
		return sr.sum, err
	}
	(*p) = v
	return sr.sum, nil
}

func (sr *SumReader) Int32(r io.Reader, p *int32) (int64, error) {
	v, n, err := ReadInt32(r)
	sr.sum += n
	if err != nil {
		return sr.sum, err
	}
	(*p) = v
	return sr.sum, nil
}

func (sr *SumReader) Int64(r io.Reader, p *int64) (int64, error) {
	v, n, err := ReadInt64(r)
	sr.sum += n
	if err != nil {
		return sr.sum, err
	}
	(*p) = v
	return sr.sum, nil
}

func (sr *SumReader) Bool(r io.Reader, p *bool) (int64, error) {
	v, n, err := ReadBool(r)
	sr.sum += n
	if err != nil {
		return sr.sum, err
	}
	(*p) = v
	return sr.sum, nil
}

func (sr *SumReader) VarInt(r io.Reader, p *uint64) (int64, error) {
	v, n, err := ReadVarInt(r)
	sr.sum += n
	if err != nil {
		return sr.sum, err
	}
	(*p) = v
	return sr.sum, nil
}

func (sr *SumReader) VarBytes(r io.Reader, p *[]byte) (int64, error) {
	v, n, err := ReadVarBytes(r)
	sr.sum += n
	if err != nil {
		return sr.sum, err
	}
	(*p) = v
	return sr.sum, nil
}

func (sr *SumReader) VarString(r io.Reader, p *string) (int64, error) {
	v, n, err := ReadVarString(r)
	sr.sum += n
	if err != nil {
		return sr.sum, err
	}
	(*p) = v
	return sr.sum, nil
}

// Fixed fills bs in internal order
func (sr *SumReader) Fixed(r io.Reader, bs []byte) (int64, error) {
	n, err := Internal.ReadFixed(r, bs)
	sr.sum += n
	return sr.sum, err
}

func (sr *SumReader) Hash256(r io.Reader, p *hash.Hash256) (int64, error) {
	n, err := Internal.ReadFixed(r, p[:])
	sr.sum += n
	return sr.sum, err
}

func (sr *SumReader) ReaderFrom(r io.Reader, rf io.ReaderFrom) (int64, error) {
	n, err := rf.ReadFrom(r)
	sr.sum += n
	return sr.sum, err
}

// Sum returns the total read size
func (sr *SumReader) Sum() int64 {
	return sr.sum
}
