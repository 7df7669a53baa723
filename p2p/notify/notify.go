package notify

import (
	"fmt"

	"github.com/meverselabs/coinnet/core/types"
)

// notification kinds
const (
	KindAttemptingHandshake = "attempting_handshake"
	KindSuccessfulHandshake = "successful_handshake"
	KindFailedHandshake     = "failed_handshake"
	KindConnectionClosed    = "connection_closed"
	KindAccountTransaction  = "account_transaction"
	KindNewBlock            = "new_block"
	KindAccountChanged      = "account_changed"
)

// Notification is an event delivered to the user interface
type Notification interface {
	Kind() string
	String() string
}

// AttemptingHandshakeWithPeer is sent when the version is sent to the peer
type AttemptingHandshakeWithPeer struct {
	Address string
}

func (n *AttemptingHandshakeWithPeer) Kind() string { return KindAttemptingHandshake }
func (n *AttemptingHandshakeWithPeer) String() string {
	return fmt.Sprintf("attempting handshake with %v", n.Address)
}

// SuccessfulHandshakeWithPeer is sent when the connection becomes ready
type SuccessfulHandshakeWithPeer struct {
	Address   string
	UserAgent string
	Height    int32
}

func (n *SuccessfulHandshakeWithPeer) Kind() string { return KindSuccessfulHandshake }
func (n *SuccessfulHandshakeWithPeer) String() string {
	return fmt.Sprintf("handshake with %v (%v, height %v) completed", n.Address, n.UserAgent, n.Height)
}

// FailedHandshakeWithPeer is sent when the connection fails before it becomes ready
type FailedHandshakeWithPeer struct {
	Address string
	Err     error
}

func (n *FailedHandshakeWithPeer) Kind() string { return KindFailedHandshake }
func (n *FailedHandshakeWithPeer) String() string {
	return fmt.Sprintf("handshake with %v failed: %v", n.Address, n.Err)
}

// ConnectionClosed is sent when a ready connection is closed
type ConnectionClosed struct {
	Address string
	Err     error
}

func (n *ConnectionClosed) Kind() string { return KindConnectionClosed }
func (n *ConnectionClosed) String() string {
	if n.Err != nil {
		return fmt.Sprintf("connection to %v closed: %v", n.Address, n.Err)
	}
	return fmt.Sprintf("connection to %v closed", n.Address)
}

// TransactionOfAccountReceived is sent once per transaction and relevant account
type TransactionOfAccountReceived struct {
	Account types.Account
	Tx      *types.Transaction
}

func (n *TransactionOfAccountReceived) Kind() string { return KindAccountTransaction }
func (n *TransactionOfAccountReceived) String() string {
	return fmt.Sprintf("transaction %v of account %v", n.Tx.Hash().String(), n.Account.String())
}

// NewBlockAdded is sent for every accepted block
type NewBlockAdded struct {
	Block *types.Block
}

func (n *NewBlockAdded) Kind() string { return KindNewBlock }
func (n *NewBlockAdded) String() string {
	return fmt.Sprintf("block %v added", n.Block.Hash().String())
}

// AccountChanged is sent when the selected account changes
type AccountChanged struct {
	Account types.Account
}

func (n *AccountChanged) Kind() string { return KindAccountChanged }
func (n *AccountChanged) String() string {
	return fmt.Sprintf("selected account %v", n.Account.String())
}

// Notifier delivers notifications
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to a Notifier
type NotifierFunc func(n Notification)

// Notify calls f(n)
func (f NotifierFunc) Notify(n Notification) {
	f(n)
}

// Multi delivers to every notifier in order
type Multi []Notifier

// Notify calls every notifier
func (m Multi) Notify(n Notification) {
	for _, nt := range m {
		nt.Notify(n)
	}
}

// ChanNotifier sends notifications to the channel of the user interface.
// A send blocks until the receiver takes it or done is closed.
type ChanNotifier struct {
	ch   chan<- Notification
	done <-chan struct{}
}

// NewChanNotifier returns a ChanNotifier
func NewChanNotifier(ch chan<- Notification, done <-chan struct{}) *ChanNotifier {
	return &ChanNotifier{
		ch:   ch,
		done: done,
	}
}

// Notify sends n to the channel
func (cn *ChanNotifier) Notify(n Notification) {
	select {
	case cn.ch <- n:
	case <-cn.done:
	}
}
