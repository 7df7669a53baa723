package main

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/meverselabs/coinnet/core/types"
	"github.com/meverselabs/coinnet/p2p"
	"github.com/meverselabs/coinnet/p2p/notify"
)

var (
	okPrefix     = color.New(color.FgGreen).SprintFunc()
	failPrefix   = color.New(color.FgRed).SprintFunc()
	walletPrefix = color.New(color.FgCyan).SprintFunc()
	infoPrefix   = color.New(color.FgBlue).SprintFunc()
)

// Console prints the notifications of the node for the user
type Console struct {
	w       io.Writer
	balance func() (types.Account, int64, bool)
}

// NewConsole returns a Console. balance reports the selected account and its balance.
func NewConsole(w io.Writer, balance func() (types.Account, int64, bool)) *Console {
	return &Console{
		w:       w,
		balance: balance,
	}
}

// Run drains both channels until done is closed
func (c *Console) Run(uiCh <-chan notify.Notification, mnCh <-chan p2p.MessageNotify, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case n := <-uiCh:
			c.Print(n)
		case mn := <-mnCh:
			c.PrintWallet(mn)
		}
	}
}

// Print prints a notification
func (c *Console) Print(n notify.Notification) {
	var prefix string
	switch n.(type) {
	case *notify.SuccessfulHandshakeWithPeer, *notify.NewBlockAdded:
		prefix = okPrefix("[" + n.Kind() + "]")
	case *notify.FailedHandshakeWithPeer, *notify.ConnectionClosed:
		prefix = failPrefix("[" + n.Kind() + "]")
	case *notify.TransactionOfAccountReceived, *notify.AccountChanged:
		prefix = walletPrefix("[" + n.Kind() + "]")
	default:
		prefix = infoPrefix("[" + n.Kind() + "]")
	}
	fmt.Fprintf(c.w, "%v %v %v\n", time.Now().Format("15:04:05"), prefix, n.String())
}

// PrintWallet prints the balance of the selected account after every accepted block
func (c *Console) PrintWallet(mn p2p.MessageNotify) {
	if _, ok := mn.(*p2p.BlockSeen); !ok || c.balance == nil {
		return
	}
	acc, amount, has := c.balance()
	if !has {
		return
	}
	fmt.Fprintf(c.w, "%v %v balance of %v is %v\n", time.Now().Format("15:04:05"), walletPrefix("[wallet]"), acc.String(), amount)
}
