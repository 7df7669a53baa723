package bin

import (
	"bytes"
	"io"

	"github.com/pkg/errors"
)

// ReadUint64 reads a little-endian uint64 number from the reader
func ReadUint64(r io.Reader) (uint64, int64, error) {
	return LittleEndian.ReadUint64(r)
}

// ReadUint32 reads a little-endian uint32 number from the reader
func ReadUint32(r io.Reader) (uint32, int64, error) {
	return LittleEndian.ReadUint32(r)
}

// ReadUint16 reads a little-endian uint16 number from the reader
func ReadUint16(r io.Reader) (uint16, int64, error) {
	return LittleEndian.ReadUint16(r)
}

// ReadUint8 reads a uint8 number from the reader
func ReadUint8(r io.Reader) (uint8, int64, error) {
	BNum := make([]byte, 1)
	if n, err := FillBytes(r, BNum); err != nil {
		return 0, n, err
	}
	return uint8(BNum[0]), 1, nil
}

// ReadInt32 reads a little-endian int32 number from the reader
func ReadInt32(r io.Reader) (int32, int64, error) {
	v, n, err := ReadUint32(r)
	return int32(v), n, err
}

// ReadInt64 reads a little-endian int64 number from the reader
func ReadInt64(r io.Reader) (int64, int64, error) {
	v, n, err := ReadUint64(r)
	return int64(v), n, err
}

// ReadBool reads a bool using a uint8 from the reader
func ReadBool(r io.Reader) (bool, int64, error) {
	if v, n, err := ReadUint8(r); err != nil {
		return false, n, err
	} else {
		return (v != 0), n, nil
	}
}

// ReadVarInt reads a compact size number from the reader
func ReadVarInt(r io.Reader) (uint64, int64, error) {
	var read int64
	prefix, n, err := ReadUint8(r)
	if err != nil {
		return 0, n, err
	}
	read += n

	var v, min uint64
	switch prefix {
	case 0xfd:
		sv, n, err := ReadUint16(r)
		read += n
		if err != nil {
			return 0, read, err
		}
		v, min = uint64(sv), 0xfd
	case 0xfe:
		sv, n, err := ReadUint32(r)
		read += n
		if err != nil {
			return 0, read, err
		}
		v, min = uint64(sv), 0x10000
	case 0xff:
		sv, n, err := ReadUint64(r)
		read += n
		if err != nil {
			return 0, read, err
		}
		v, min = sv, 0x100000000
	default:
		return uint64(prefix), read, nil
	}
	if v < min {
		return 0, read, errors.WithStack(ErrNonCanonicalVarInt)
	}
	return v, read, nil
}

// ReadVarBytes reads a byte array prefixed by a compact size length from the reader
func ReadVarBytes(r io.Reader) ([]byte, int64, error) {
	Len, read, err := ReadVarInt(r)
	if err != nil {
		return nil, read, err
	}
	if Len > MaxVarBytes {
		return nil, read, errors.Wrapf(ErrInvalidLength, "var bytes length %v", Len)
	}
	bs := make([]byte, Len)
	n, err := FillBytes(r, bs)
	read += n
	if err != nil {
		return nil, read, err
	}
	return bs, read, nil
}

// ReadVarString reads a string prefixed by a compact size length from the reader
func ReadVarString(r io.Reader) (string, int64, error) {
	if bs, n, err := ReadVarBytes(r); err != nil {
		return "", n, err
	} else {
		return string(bs), n, nil
	}
}

// FillBytes reads bytes from the reader until the given bytes array is filled.
// A stream that ends before bs is full fails with ErrSizeMismatch, and an
// empty stream fails with io.EOF.
func FillBytes(r io.Reader, bs []byte) (int64, error) {
	read, err := io.ReadFull(r, bs)
	switch err {
	case nil:
		return int64(read), nil
	case io.EOF:
		return 0, errors.WithStack(io.EOF)
	case io.ErrUnexpectedEOF:
		return int64(read), errors.Wrapf(ErrSizeMismatch, "want %v bytes, got %v", len(bs), read)
	default:
		return int64(read), errors.WithStack(err)
	}
}

// ReadFromBytes fills r from the byte array and reports trailing bytes as ErrInvalidLength
func ReadFromBytes(r io.ReaderFrom, bs []byte) (int64, error) {
	br := bytes.NewReader(bs)
	n, err := r.ReadFrom(br)
	if err != nil {
		return n, err
	}
	if br.Len() != 0 {
		return n, errors.Wrapf(ErrInvalidLength, "%v trailing bytes", br.Len())
	}
	return n, nil
}
