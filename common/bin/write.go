package bin

import (
	"bytes"
	"io"

	"github.com/meverselabs/coinnet/common/hash"
	"github.com/pkg/errors"
)

// WriteUint64 writes the little-endian uint64 number to the writer
func WriteUint64(w io.Writer, num uint64) (int64, error) {
	return LittleEndian.WriteUint64(w, num)
}

// WriteUint32 writes the little-endian uint32 number to the writer
func WriteUint32(w io.Writer, num uint32) (int64, error) {
	return LittleEndian.WriteUint32(w, num)
}

// WriteUint16 writes the little-endian uint16 number to the writer
func WriteUint16(w io.Writer, num uint16) (int64, error) {
	return LittleEndian.WriteUint16(w, num)
}

// WriteUint8 writes the uint8 number to the writer
func WriteUint8(w io.Writer, num uint8) (int64, error) {
	return writeAll(w, []byte{byte(num)})
}

// WriteInt32 writes the little-endian int32 number to the writer
func WriteInt32(w io.Writer, num int32) (int64, error) {
	return WriteUint32(w, uint32(num))
}

// WriteInt64 writes the little-endian int64 number to the writer
func WriteInt64(w io.Writer, num int64) (int64, error) {
	return WriteUint64(w, uint64(num))
}

// WriteBool writes the bool using a uint8 to the writer
func WriteBool(w io.Writer, b bool) (int64, error) {
	if b {
		return WriteUint8(w, 1)
	} else {
		return WriteUint8(w, 0)
	}
}

// VarIntSize returns the encoded size of the compact size number
func VarIntSize(v uint64) int {
	switch {
	case v < 0xfd:
		return 1
	case v <= 0xffff:
		return 3
	case v <= 0xffffffff:
		return 5
	default:
		return 9
	}
}

// WriteVarInt writes the number using the shortest compact size encoding
func WriteVarInt(w io.Writer, v uint64) (int64, error) {
	var wrote int64
	var err error
	var n int64
	switch {
	case v < 0xfd:
		return WriteUint8(w, uint8(v))
	case v <= 0xffff:
		if n, err = WriteUint8(w, 0xfd); err != nil {
			return n, err
		}
		wrote += n
		n, err = WriteUint16(w, uint16(v))
	case v <= 0xffffffff:
		if n, err = WriteUint8(w, 0xfe); err != nil {
			return n, err
		}
		wrote += n
		n, err = WriteUint32(w, uint32(v))
	default:
		if n, err = WriteUint8(w, 0xff); err != nil {
			return n, err
		}
		wrote += n
		n, err = WriteUint64(w, v)
	}
	return wrote + n, err
}

// WriteVarBytes writes the byte array with a compact size length prefix
func WriteVarBytes(w io.Writer, bs []byte) (int64, error) {
	wrote, err := WriteVarInt(w, uint64(len(bs)))
	if err != nil {
		return wrote, err
	}
	n, err := writeAll(w, bs)
	return wrote + n, err
}

// WriteVarString writes the string with a compact size length prefix
func WriteVarString(w io.Writer, str string) (int64, error) {
	return WriteVarBytes(w, []byte(str))
}

// WriterToBytes returns the bytes written by the writer to
func WriterToBytes(w io.WriterTo) ([]byte, int64, error) {
	var buffer bytes.Buffer
	if n, err := w.WriteTo(&buffer); err != nil {
		return nil, n, err
	} else {
		return buffer.Bytes(), n, nil
	}
}

// WriterToHash returns the double hash of the bytes written by the writer to
func WriterToHash(w io.WriterTo) (hash.Hash256, int64, error) {
	bs, n, err := WriterToBytes(w)
	if err != nil {
		return hash.Hash256{}, n, err
	}
	return hash.DoubleHash(bs), n, nil
}

// MustWriterToHash panics when the writer to fails
func MustWriterToHash(w io.WriterTo) hash.Hash256 {
	h, _, err := WriterToHash(w)
	if err != nil {
		panic(err)
	}
	return h
}

func writeAll(w io.Writer, bs []byte) (int64, error) {
	if n, err := w.Write(bs); err != nil {
		return int64(n), errors.WithStack(err)
	} else if n != len(bs) {
		return int64(n), errors.WithStack(ErrInvalidLength)
	} else {
		return int64(n), nil
	}
}
