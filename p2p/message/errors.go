package message

import "github.com/pkg/errors"

// errors
var (
	ErrInvalidMagic     = errors.New("invalid magic")
	ErrPayloadTooLarge  = errors.New("payload too large")
	ErrChecksumMismatch = errors.New("checksum mismatch")
	ErrUnknownMessage   = errors.New("unknown message")
	ErrMalformedPayload = errors.New("malformed payload")
	ErrInvalidCommand   = errors.New("invalid command")
	ErrExistMessageType = errors.New("exist message type")
	ErrTooManyAddresses = errors.New("too many addresses")
)
