package binutil

import (
	"encoding/binary"
)

// ByteOrder converts fixed width integers to and from byte slices
type ByteOrder interface {
	Uint16(b []byte) uint16
	PutUint16(b []byte, v uint16)
	Uint32(b []byte) uint32
	PutUint32(b []byte, v uint32)
	Uint64(b []byte) uint64
	PutUint64(b []byte, v uint64)
	String() string
}

// LittleEndian is the little-endian implementation of ByteOrder.
var LittleEndian littleEndian

// BigEndian is the big-endian implementation of ByteOrder (network byte order).
var BigEndian bigEndian

// Internal copies byte arrays in their in-memory order without reinterpretation.
var Internal internal

type littleEndian struct{}

func (littleEndian) Uint16(b []byte) uint16 {
	return binary.LittleEndian.Uint16(b)
}

func (littleEndian) PutUint16(b []byte, v uint16) {
	binary.LittleEndian.PutUint16(b, v)
}

func (littleEndian) Uint32(b []byte) uint32 {
	return binary.LittleEndian.Uint32(b)
}

func (littleEndian) PutUint32(b []byte, v uint32) {
	binary.LittleEndian.PutUint32(b, v)
}

func (littleEndian) Uint64(b []byte) uint64 {
	return binary.LittleEndian.Uint64(b)
}

func (littleEndian) PutUint64(b []byte, v uint64) {
	binary.LittleEndian.PutUint64(b, v)
}

func (littleEndian) String() string {
	return "LittleEndian"
}

// Uint32ToBytes returns the little-endian bytes of v
func (littleEndian) Uint32ToBytes(v uint32) []byte {
	BNum := make([]byte, 4)
	binary.LittleEndian.PutUint32(BNum, v)
	return BNum
}

type bigEndian struct{}

func (bigEndian) Uint16(b []byte) uint16 {
	return binary.BigEndian.Uint16(b)
}

func (bigEndian) PutUint16(b []byte, v uint16) {
	binary.BigEndian.PutUint16(b, v)
}

func (bigEndian) Uint32(b []byte) uint32 {
	return binary.BigEndian.Uint32(b)
}

func (bigEndian) PutUint32(b []byte, v uint32) {
	binary.BigEndian.PutUint32(b, v)
}

func (bigEndian) Uint64(b []byte) uint64 {
	return binary.BigEndian.Uint64(b)
}

func (bigEndian) PutUint64(b []byte, v uint64) {
	binary.BigEndian.PutUint64(b, v)
}

func (bigEndian) String() string {
	return "BigEndian"
}

// Uint16ToBytes returns the big-endian bytes of v
func (bigEndian) Uint16ToBytes(v uint16) []byte {
	BNum := make([]byte, 2)
	binary.BigEndian.PutUint16(BNum, v)
	return BNum
}

type internal struct{}

// Copy copies src into dst as is and reports whether the sizes matched
func (internal) Copy(dst []byte, src []byte) bool {
	if len(dst) != len(src) {
		return false
	}
	copy(dst, src)
	return true
}

func (internal) String() string {
	return "Internal"
}
