package p2p

import "github.com/pkg/errors"

// errors
var (
	ErrInvalidAddress      = errors.New("invalid address")
	ErrCannotConnect       = errors.New("cannot connect")
	ErrLocalAddress        = errors.New("local address")
	ErrCannotSend          = errors.New("cannot send")
	ErrAlreadyConnected    = errors.New("already connected")
	ErrTooManyPeers        = errors.New("too many peers")
	ErrMeshStopped         = errors.New("mesh stopped")
	ErrInvalidNetwork      = errors.New("invalid network")
	ErrInvalidMode         = errors.New("invalid mode")
	ErrSelfConnection      = errors.New("self connection")
	ErrIncompatibleVersion = errors.New("incompatible protocol version")
	ErrUnexpectedMessage   = errors.New("unexpected message before ready")
	ErrInvalidHandshake    = errors.New("invalid handshake")
	ErrDuplicateHandshake  = errors.New("duplicate handshake message")
	ErrHandshakeTimeout    = errors.New("handshake timeout")
	ErrInactivePeer        = errors.New("inactive peer")
	ErrTooManyBadPoints    = errors.New("too many bad points")
	ErrPeerClosed          = errors.New("peer closed")
	ErrNotExistPeer        = errors.New("not exist peer")
)
