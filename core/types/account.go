package types

import (
	"encoding/hex"
	"strings"

	"github.com/meverselabs/coinnet/common/hash"
	"github.com/pkg/errors"
)

// AccountSize is the size of an Account
const AccountSize = hash.Hash160Length

// Account is the HASH160 of a public key, the owner of pay-to-pubkey-hash outputs
type Account [AccountSize]byte

// NewAccountFromPubKey returns the Account of the serialized public key
func NewAccountFromPubKey(pub []byte) Account {
	return Account(hash.Hash160(pub))
}

// ParseAccount parses a hex encoded HASH160 or a hex encoded public key
func ParseAccount(str string) (Account, error) {
	str = strings.TrimPrefix(strings.TrimSpace(str), "0x")
	bs, err := hex.DecodeString(str)
	if err != nil {
		return Account{}, errors.Wrap(ErrInvalidAccountFormat, err.Error())
	}
	switch len(bs) {
	case AccountSize:
		var acc Account
		copy(acc[:], bs)
		return acc, nil
	case 33, 65:
		return NewAccountFromPubKey(bs), nil
	default:
		return Account{}, errors.WithStack(ErrInvalidAccountFormat)
	}
}

// MustParseAccount panic when error occurred
func MustParseAccount(str string) Account {
	acc, err := ParseAccount(str)
	if err != nil {
		panic(err)
	}
	return acc
}

// String returns the hex string of the account
func (acc Account) String() string {
	return hex.EncodeToString(acc[:])
}

// MarshalJSON is a marshaler function
func (acc Account) MarshalJSON() ([]byte, error) {
	return []byte(`"` + acc.String() + `"`), nil
}

// UnmarshalJSON is a unmarshaler function
func (acc *Account) UnmarshalJSON(bs []byte) error {
	if len(bs) < 2 || bs[0] != '"' || bs[len(bs)-1] != '"' {
		return errors.WithStack(ErrInvalidAccountFormat)
	}
	v, err := ParseAccount(string(bs[1 : len(bs)-1]))
	if err != nil {
		return err
	}
	copy(acc[:], v[:])
	return nil
}
