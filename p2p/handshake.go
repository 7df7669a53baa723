package p2p

import (
	"github.com/meverselabs/coinnet/p2p/message"
	"github.com/meverselabs/coinnet/p2p/peer"
	"github.com/pkg/errors"
)

// protocol versions
const (
	ProtocolVersion    int32 = 70015
	MinProtocolVersion int32 = 70001
)

// Handshake drives the version/verack exchange of a connection.
// Each step returns the messages to send and the new state.
type Handshake struct {
	state       peer.State
	local       *message.Version
	remote      *message.Version
	versionSent bool
	versionRecv bool
	verackSent  bool
	verackRecv  bool
	err         error
}

// NewHandshake returns a Handshake in the Discovered state
func NewHandshake(local *message.Version) *Handshake {
	return &Handshake{
		state: peer.Discovered,
		local: local,
	}
}

// State returns the current state
func (h *Handshake) State() peer.State {
	return h.state
}

// Err returns the error that failed the handshake
func (h *Handshake) Err() error {
	return h.err
}

// Local returns the version sent to the peer
func (h *Handshake) Local() *message.Version {
	return h.local
}

// Remote returns the version received from the peer
func (h *Handshake) Remote() *message.Version {
	return h.remote
}

// Connect marks the start of a socket connect
func (h *Handshake) Connect() peer.State {
	if h.state == peer.Discovered {
		h.state = peer.Connecting
	}
	return h.state
}

// Start returns the local version to send once the socket is connected
func (h *Handshake) Start() ([]message.Message, peer.State) {
	if h.state.IsTerminal() || h.versionSent {
		return nil, h.state
	}
	h.versionSent = true
	h.state = peer.VersionSent
	return []message.Message{h.local}, h.state
}

// Receive applies a message received from the peer.
// In the Ready state a non-handshake message is returned to the caller untouched.
func (h *Handshake) Receive(m message.Message) ([]message.Message, peer.State, error) {
	if h.state.IsTerminal() {
		return nil, h.state, errors.WithStack(ErrPeerClosed)
	}
	if h.state == peer.Ready {
		if message.IsHandshake(m) {
			return nil, h.state, errors.Wrap(ErrDuplicateHandshake, m.Command())
		}
		return nil, h.state, nil
	}

	var replies []message.Message
	switch msg := m.(type) {
	case *message.Version:
		if h.versionRecv {
			return h.reject(errors.Wrap(ErrDuplicateHandshake, m.Command()))
		}
		if msg.ProtocolVersion < MinProtocolVersion {
			return h.reject(errors.Wrapf(ErrIncompatibleVersion, "%v", msg.ProtocolVersion))
		}
		if msg.Nonce == h.local.Nonce {
			return h.reject(errors.WithStack(ErrSelfConnection))
		}
		h.remote = msg
		h.versionRecv = true
		if !h.versionSent {
			h.versionSent = true
			replies = append(replies, h.local)
		}
		h.verackSent = true
		replies = append(replies, &message.Verack{})
		if h.state < peer.VersionSent {
			h.state = peer.VersionSent
		}
	case *message.Verack:
		if !h.versionSent || h.verackRecv {
			return h.reject(errors.Wrap(ErrInvalidHandshake, m.Command()))
		}
		h.verackRecv = true
	default:
		return h.reject(errors.Wrap(ErrUnexpectedMessage, m.Command()))
	}
	if h.versionRecv && h.verackRecv && h.verackSent {
		h.state = peer.VerackExchanged
	}
	return replies, h.state, nil
}

// Register moves a completed exchange to Ready
func (h *Handshake) Register() (peer.State, error) {
	if h.state != peer.VerackExchanged {
		return h.state, errors.Wrap(ErrInvalidHandshake, h.state.String())
	}
	h.state = peer.Ready
	return h.state, nil
}

// Fail moves the handshake to Failed
func (h *Handshake) Fail(err error) peer.State {
	return h.fail(err)
}

func (h *Handshake) reject(err error) ([]message.Message, peer.State, error) {
	h.fail(err)
	return nil, h.state, err
}

func (h *Handshake) fail(err error) peer.State {
	if !h.state.IsTerminal() {
		h.state = peer.Failed
		h.err = err
	}
	return h.state
}

// Close moves the handshake to Closed
func (h *Handshake) Close() peer.State {
	if !h.state.IsTerminal() {
		h.state = peer.Closed
	}
	return h.state
}
