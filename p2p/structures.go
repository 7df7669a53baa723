package p2p

import (
	"github.com/meverselabs/coinnet/common/work"
	"github.com/meverselabs/coinnet/core/types"
	"github.com/meverselabs/coinnet/p2p/peer"
)

// MessageBroadcasting is a value carried by the broadcasting bus
type MessageBroadcasting interface {
	broadcasting()
}

// BroadcastBlock carries a block. Origin is nil for a local block.
type BroadcastBlock struct {
	Block  *types.Block
	Origin *peer.ConnectionID
}

// BroadcastTransaction carries a transaction. Origin is nil for a local transaction.
type BroadcastTransaction struct {
	Tx     *types.Transaction
	Origin *peer.ConnectionID
}

// ChangeAccount selects the active account
type ChangeAccount struct {
	Account types.Account
}

// Exit stops the mesh and the dispatcher
type Exit struct{}

func (*BroadcastBlock) broadcasting()       {}
func (*BroadcastTransaction) broadcasting() {}
func (*ChangeAccount) broadcasting()        {}
func (*Exit) broadcasting()                 {}

// MessageNotify is a fact delivered to the local wallet matching path
type MessageNotify interface {
	messageNotify()
}

// TransactionOfActiveAccount is a transaction relevant to a wallet account
type TransactionOfActiveAccount struct {
	Account types.Account
	Tx      *types.Transaction
}

// TransactionSeen is a transaction seen for the first time
type TransactionSeen struct {
	Tx *types.Transaction
}

// BlockSeen is a block accepted by the chain
type BlockSeen struct {
	Block *types.Block
}

func (*TransactionOfActiveAccount) messageNotify() {}
func (*TransactionSeen) messageNotify()            {}
func (*BlockSeen) messageNotify()                  {}

// UICommand is a command of the user interface
type UICommand interface {
	uiCommand()
}

// CreateTransaction broadcasts a transaction made by the user
type CreateTransaction struct {
	Tx *types.Transaction
}

// ChangeSelectedAccount changes the account the user works with
type ChangeSelectedAccount struct {
	Account types.Account
}

// ExitProgram terminates the node
type ExitProgram struct{}

func (*CreateTransaction) uiCommand()     {}
func (*ChangeSelectedAccount) uiCommand() {}
func (*ExitProgram) uiCommand()           {}

// TranslateCommand converts a user interface command into a broadcasting value
func TranslateCommand(cmd UICommand) MessageBroadcasting {
	switch c := cmd.(type) {
	case *CreateTransaction:
		return &BroadcastTransaction{Tx: c.Tx}
	case *ChangeSelectedAccount:
		return &ChangeAccount{Account: c.Account}
	default:
		return &Exit{}
	}
}

// ConnectionEvent tells the mesh about a connection candidate
type ConnectionEvent struct {
	PotentialConnection peer.ConnectionID
	Stop                bool
}

// Work converts the event into the work consumed by the mesh
func (ev ConnectionEvent) Work() work.Work[peer.ConnectionID] {
	if ev.Stop {
		return work.Stop[peer.ConnectionID]()
	}
	return work.Information(ev.PotentialConnection)
}
