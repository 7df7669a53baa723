package hash

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/pkg/errors"
	"golang.org/x/crypto/ripemd160"
)

// Hash256 is a double sha256 digest in internal byte order.
// String() renders it byte-reversed as block explorers do.
type Hash256 = chainhash.Hash

// Lengths of hashes in bytes.
const (
	HashLength     = chainhash.HashSize
	Hash160Length  = ripemd160.Size
	ChecksumLength = 4
)

// Hash returns the single sha256 of the data
func Hash(data ...[]byte) Hash256 {
	h := sha256.New()
	for _, d := range data {
		h.Write(d)
	}
	var hash Hash256
	copy(hash[:], h.Sum(nil))
	return hash
}

// DoubleHash returns sha256(sha256(data))
func DoubleHash(data []byte) Hash256 {
	return chainhash.DoubleHashH(data)
}

// Checksum returns the first four bytes of DoubleHash(payload)
func Checksum(payload []byte) [ChecksumLength]byte {
	h := DoubleHash(payload)
	var sum [ChecksumLength]byte
	copy(sum[:], h[:ChecksumLength])
	return sum
}

// Hash160 returns ripemd160(sha256(data))
func Hash160(data []byte) [Hash160Length]byte {
	h := Hash(data)
	rh := ripemd160.New()
	rh.Write(h[:])
	var out [Hash160Length]byte
	copy(out[:], rh.Sum(nil))
	return out
}

// ParseHash parses the byte-reversed hex form returned by String()
func ParseHash(str string) (Hash256, error) {
	if len(str) != HashLength*2 {
		return Hash256{}, errors.WithStack(ErrInvalidHashFormat)
	}
	if _, err := hex.DecodeString(str); err != nil {
		return Hash256{}, errors.Wrap(ErrInvalidHashFormat, err.Error())
	}
	h, err := chainhash.NewHashFromStr(str)
	if err != nil {
		return Hash256{}, errors.WithStack(err)
	}
	return *h, nil
}

// MustParseHash panic when error occurred
func MustParseHash(str string) Hash256 {
	h, err := ParseHash(str)
	if err != nil {
		panic(err)
	}
	return h
}
