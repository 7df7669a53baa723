package wallet

import (
	"sync"

	"github.com/meverselabs/coinnet/core/types"
)

// Wallet owns the accounts of the local user
type Wallet interface {
	Accounts() []types.Account
	IsRelevant(tx *types.Transaction) bool
}

// WatchWallet is a watch-only set of accounts
type WatchWallet struct {
	sync.Mutex
	accounts []types.Account
	accSet   map[types.Account]bool
}

// NewWatchWallet returns a WatchWallet
func NewWatchWallet(accs ...types.Account) *WatchWallet {
	w := &WatchWallet{
		accSet: map[types.Account]bool{},
	}
	for _, acc := range accs {
		w.Add(acc)
	}
	return w
}

// Add watches the account, it returns false if it is already watched
func (w *WatchWallet) Add(acc types.Account) bool {
	w.Lock()
	defer w.Unlock()

	if w.accSet[acc] {
		return false
	}
	w.accSet[acc] = true
	w.accounts = append(w.accounts, acc)
	return true
}

// Has returns the account is watched or not
func (w *WatchWallet) Has(acc types.Account) bool {
	w.Lock()
	defer w.Unlock()

	return w.accSet[acc]
}

// Accounts returns the watched accounts in insertion order
func (w *WatchWallet) Accounts() []types.Account {
	w.Lock()
	defer w.Unlock()

	list := make([]types.Account, len(w.accounts))
	copy(list, w.accounts)
	return list
}

// IsRelevant returns the transaction pays to a watched account or not
func (w *WatchWallet) IsRelevant(tx *types.Transaction) bool {
	w.Lock()
	defer w.Unlock()

	for _, out := range tx.TxOut {
		if owner, has := out.Account(); has && w.accSet[owner] {
			return true
		}
	}
	return false
}
