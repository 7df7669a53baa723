package message

import (
	"bytes"
	"encoding/hex"
	"io"

	"github.com/meverselabs/coinnet/common/bin"
	"github.com/meverselabs/coinnet/common/hash"
	"github.com/pkg/errors"
)

// frame sizes
const (
	MagicSize      = 4
	CommandSize    = 12
	HeaderSize     = MagicSize + CommandSize + 4 + hash.ChecksumLength
	MaxPayloadSize = 32 << 20
)

// Magic identifies the network of a message
type Magic [MagicSize]byte

func (m Magic) String() string {
	return hex.EncodeToString(m[:])
}

// MessageHeader precedes every payload on the wire
type MessageHeader struct {
	Magic    Magic
	Command  string
	Length   uint32
	Checksum [hash.ChecksumLength]byte
}

// WriteTo is a serialization function
func (h *MessageHeader) WriteTo(w io.Writer) (int64, error) {
	if len(h.Command) > CommandSize {
		return 0, errors.Wrap(ErrInvalidCommand, h.Command)
	}
	var cmd [CommandSize]byte
	copy(cmd[:], h.Command)

	sw := bin.NewSumWriter()
	if sum, err := sw.Fixed(w, h.Magic[:]); err != nil {
		return sum, err
	}
	if sum, err := sw.Fixed(w, cmd[:]); err != nil {
		return sum, err
	}
	if sum, err := sw.Uint32(w, h.Length); err != nil {
		return sum, err
	}
	if sum, err := sw.Fixed(w, h.Checksum[:]); err != nil {
		return sum, err
	}
	return sw.Sum(), nil
}

// ReadFrom is a deserialization function
func (h *MessageHeader) ReadFrom(r io.Reader) (int64, error) {
	var cmd [CommandSize]byte
	sr := bin.NewSumReader()
	if sum, err := sr.Fixed(r, h.Magic[:]); err != nil {
		return sum, err
	}
	if sum, err := sr.Fixed(r, cmd[:]); err != nil {
		return sum, err
	}
	if sum, err := sr.Uint32(r, &h.Length); err != nil {
		return sum, err
	}
	if sum, err := sr.Fixed(r, h.Checksum[:]); err != nil {
		return sum, err
	}
	Len := bytes.IndexByte(cmd[:], 0)
	if Len < 0 {
		Len = CommandSize
	}
	h.Command = string(cmd[:Len])
	return sr.Sum(), nil
}

// NetworkMessage is a decoded header and its payload
type NetworkMessage struct {
	Header  MessageHeader
	Payload Message
}

// EncodeMessage returns the framed bytes of the message
func EncodeMessage(magic Magic, m Message) ([]byte, error) {
	payload, _, err := bin.WriterToBytes(m)
	if err != nil {
		return nil, err
	}
	if len(payload) > MaxPayloadSize {
		return nil, errors.WithStack(ErrPayloadTooLarge)
	}
	h := &MessageHeader{
		Magic:    magic,
		Command:  m.Command(),
		Length:   uint32(len(payload)),
		Checksum: hash.Checksum(payload),
	}
	var buffer bytes.Buffer
	buffer.Grow(HeaderSize + len(payload))
	if _, err := h.WriteTo(&buffer); err != nil {
		return nil, err
	}
	buffer.Write(payload)
	return buffer.Bytes(), nil
}

// WriteMessage frames the message and writes it to the writer
func WriteMessage(w io.Writer, magic Magic, m Message) (int64, error) {
	bs, err := EncodeMessage(magic, m)
	if err != nil {
		return 0, err
	}
	n, err := w.Write(bs)
	if err != nil {
		return int64(n), errors.WithStack(err)
	}
	return int64(n), nil
}

// DecodeMessage reads one framed message from the reader.
// With ErrUnknownMessage and ErrMalformedPayload the frame is fully consumed and
// the returned message carries the header only.
func DecodeMessage(r io.Reader, magic Magic) (*NetworkMessage, error) {
	nm := &NetworkMessage{}
	if _, err := nm.Header.ReadFrom(r); err != nil {
		return nil, err
	}
	if nm.Header.Magic != magic {
		return nil, errors.Wrapf(ErrInvalidMagic, "%v", nm.Header.Magic)
	}
	if nm.Header.Length > MaxPayloadSize {
		return nil, errors.Wrapf(ErrPayloadTooLarge, "%v bytes", nm.Header.Length)
	}
	payload := make([]byte, nm.Header.Length)
	if _, err := bin.FillBytes(r, payload); err != nil {
		if errors.Cause(err) == io.EOF {
			return nil, errors.Wrapf(bin.ErrSizeMismatch, "want %v bytes, got 0", nm.Header.Length)
		}
		return nil, err
	}
	if hash.Checksum(payload) != nm.Header.Checksum {
		return nil, errors.Wrap(ErrChecksumMismatch, nm.Header.Command)
	}
	m, err := CreateMessage(nm.Header.Command)
	if err != nil {
		return nm, err
	}
	if _, err := bin.ReadFromBytes(m, payload); err != nil {
		return nm, errors.Wrapf(ErrMalformedPayload, "%v: %v", nm.Header.Command, err)
	}
	nm.Payload = m
	return nm, nil
}
