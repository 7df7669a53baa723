package peer

import "github.com/meverselabs/coinnet/p2p/message"

// ConnectionType tells who dialed the connection
type ConnectionType uint8

// connection types
const (
	// Client is a connection accepted from a remote that dialed us
	Client ConnectionType = iota + 1
	// Peer is a connection this node dialed
	Peer
)

func (t ConnectionType) String() string {
	switch t {
	case Client:
		return "client"
	case Peer:
		return "peer"
	default:
		return "unknown"
	}
}

// ConnectionID identifies a connection by its address and direction
type ConnectionID struct {
	Address string
	Type    ConnectionType
}

// NewConnectionID returns a ConnectionID
func NewConnectionID(Address string, Type ConnectionType) ConnectionID {
	return ConnectionID{
		Address: Address,
		Type:    Type,
	}
}

func (id ConnectionID) String() string {
	return id.Type.String() + "/" + id.Address
}

// Conn manages send and recv of the connection
type Conn interface {
	ID() ConnectionID
	Name() string
	Close()
	IsClosed() bool
	State() State
	Send(m message.Message)
	ConnectedTime() int64
}
