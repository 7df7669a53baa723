package p2p

import "github.com/meverselabs/coinnet/p2p/peer"

// Recorder observes the traffic of the mesh
type Recorder interface {
	PeerConnected(t peer.ConnectionType)
	PeerDisconnected(t peer.ConnectionType)
	MessageReceived(cmd string)
	MessageSent(cmd string)
	DecodeFailed(reason string)
}

type nopRecorder struct{}

func (nopRecorder) PeerConnected(t peer.ConnectionType)    {}
func (nopRecorder) PeerDisconnected(t peer.ConnectionType) {}
func (nopRecorder) MessageReceived(cmd string)             {}
func (nopRecorder) MessageSent(cmd string)                 {}
func (nopRecorder) DecodeFailed(reason string)             {}
