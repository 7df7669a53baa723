package bin

import (
	"io"

	"github.com/meverselabs/coinnet/common/binutil"
	"github.com/pkg/errors"
)

// MaxVarBytes is the largest var-length byte array accepted by the reader
const MaxVarBytes = 32 << 20

// Codec reads and writes fixed width integers in one byte order
type Codec struct {
	order binutil.ByteOrder
}

// wire codecs
var (
	LittleEndian = Codec{order: binutil.LittleEndian}
	BigEndian    = Codec{order: binutil.BigEndian}
	Internal     = InternalCodec{}
)

// Order returns the byte order of the codec
func (c Codec) Order() binutil.ByteOrder {
	return c.order
}

// ReadUint16 reads a uint16 number from the reader
func (c Codec) ReadUint16(r io.Reader) (uint16, int64, error) {
	BNum := make([]byte, 2)
	if n, err := FillBytes(r, BNum); err != nil {
		return 0, n, err
	}
	return c.order.Uint16(BNum), 2, nil
}

// ReadUint32 reads a uint32 number from the reader
func (c Codec) ReadUint32(r io.Reader) (uint32, int64, error) {
	BNum := make([]byte, 4)
	if n, err := FillBytes(r, BNum); err != nil {
		return 0, n, err
	}
	return c.order.Uint32(BNum), 4, nil
}

// ReadUint64 reads a uint64 number from the reader
func (c Codec) ReadUint64(r io.Reader) (uint64, int64, error) {
	BNum := make([]byte, 8)
	if n, err := FillBytes(r, BNum); err != nil {
		return 0, n, err
	}
	return c.order.Uint64(BNum), 8, nil
}

// ReadUint reads an unsigned number of the given byte width from the reader
func (c Codec) ReadUint(r io.Reader, width int) (uint64, int64, error) {
	switch width {
	case 1:
		v, n, err := ReadUint8(r)
		return uint64(v), n, err
	case 2:
		v, n, err := c.ReadUint16(r)
		return uint64(v), n, err
	case 4:
		v, n, err := c.ReadUint32(r)
		return uint64(v), n, err
	case 8:
		return c.ReadUint64(r)
	default:
		return 0, 0, errors.WithStack(ErrUnsupportedWidth)
	}
}

// WriteUint16 writes the uint16 number to the writer
func (c Codec) WriteUint16(w io.Writer, num uint16) (int64, error) {
	BNum := make([]byte, 2)
	c.order.PutUint16(BNum, num)
	return writeAll(w, BNum)
}

// WriteUint32 writes the uint32 number to the writer
func (c Codec) WriteUint32(w io.Writer, num uint32) (int64, error) {
	BNum := make([]byte, 4)
	c.order.PutUint32(BNum, num)
	return writeAll(w, BNum)
}

// WriteUint64 writes the uint64 number to the writer
func (c Codec) WriteUint64(w io.Writer, num uint64) (int64, error) {
	BNum := make([]byte, 8)
	c.order.PutUint64(BNum, num)
	return writeAll(w, BNum)
}

// WriteUint writes an unsigned number using the given byte width
func (c Codec) WriteUint(w io.Writer, width int, num uint64) (int64, error) {
	switch width {
	case 1:
		return WriteUint8(w, uint8(num))
	case 2:
		return c.WriteUint16(w, uint16(num))
	case 4:
		return c.WriteUint32(w, uint32(num))
	case 8:
		return c.WriteUint64(w, num)
	default:
		return 0, errors.WithStack(ErrUnsupportedWidth)
	}
}

// InternalCodec copies fixed-size arrays byte for byte
type InternalCodec struct{}

// ReadFixed fills bs from the reader and fails with ErrSizeMismatch on a short stream
func (InternalCodec) ReadFixed(r io.Reader, bs []byte) (int64, error) {
	return FillBytes(r, bs)
}

// WriteFixed writes bs as is
func (InternalCodec) WriteFixed(w io.Writer, bs []byte) (int64, error) {
	return writeAll(w, bs)
}

// Uint32Bytes returns the little-endian bytes of the uint32 number
func Uint32Bytes(v uint32) []byte {
	return binutil.LittleEndian.Uint32ToBytes(v)
}

// Uint16BEBytes returns the big-endian bytes of the uint16 number
func Uint16BEBytes(v uint16) []byte {
	return binutil.BigEndian.Uint16ToBytes(v)
}
