package p2p

import (
	"sync"

	"github.com/bluele/gcache"
	"github.com/meverselabs/coinnet/common/hash"
	"github.com/meverselabs/coinnet/common/rlog"
	"github.com/meverselabs/coinnet/common/work"
	"github.com/meverselabs/coinnet/core/chain"
	"github.com/meverselabs/coinnet/core/types"
	"github.com/meverselabs/coinnet/core/utxo"
	"github.com/meverselabs/coinnet/core/wallet"
	"github.com/meverselabs/coinnet/p2p/message"
	"github.com/meverselabs/coinnet/p2p/notify"
	"github.com/meverselabs/coinnet/p2p/peer"
	"github.com/meverselabs/coinnet/p2p/storage"
	"github.com/pkg/errors"
)

// BusSize is the capacity of the broadcasting bus
const BusSize = 1024

// Node dispatches the broadcasting bus to the chain, the wallet, the user interface and the peers
type Node struct {
	sync.Mutex
	cfg         Config
	ms          *NodeMesh
	cn          chain.Blockchain
	utxos       utxo.UTXOSet
	wallet      wallet.Wallet
	notifier    notify.Notifier
	bus         chan work.Work[MessageBroadcasting]
	notifyCh    chan<- MessageNotify
	seen        gcache.Cache
	selected    types.Account
	hasSelected bool
	isRunning   bool
	quit        chan struct{}
	closeOnce   sync.Once
	done        chan struct{}
	logger      rlog.Logger
}

// NewNode returns a Node
func NewNode(cfg Config, network *Network, cn chain.Blockchain, utxos utxo.UTXOSet, wl wallet.Wallet, notifier notify.Notifier, book *storage.AddrBook) *Node {
	cfg = cfg.withDefaults()
	if notifier == nil {
		notifier = notify.Multi{}
	}
	nd := &Node{
		cfg:      cfg,
		cn:       cn,
		utxos:    utxos,
		wallet:   wl,
		notifier: notifier,
		bus:      make(chan work.Work[MessageBroadcasting], BusSize),
		seen:     gcache.New(cfg.SeenCacheSize).LRU().Build(),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
		logger:   rlog.New("module", "node"),
	}
	nd.ms = NewNodeMesh(cfg, network, nd.bus, notifier, book)
	nd.ms.SetHeightFunc(cn.Height)
	if accs := wl.Accounts(); len(accs) > 0 {
		nd.selected = accs[0]
		nd.hasSelected = true
	}
	return nd
}

// Mesh returns the mesh of the node
func (nd *Node) Mesh() *NodeMesh {
	return nd.ms
}

// SetMessageNotify sets the channel of the wallet matching path
func (nd *Node) SetMessageNotify(ch chan<- MessageNotify) {
	nd.Lock()
	defer nd.Unlock()

	nd.notifyCh = ch
}

// SelectedAccount returns the account selected by the user
func (nd *Node) SelectedAccount() (types.Account, bool) {
	nd.Lock()
	defer nd.Unlock()

	return nd.selected, nd.hasSelected
}

// Done is closed when the dispatcher has returned
func (nd *Node) Done() <-chan struct{} {
	return nd.done
}

// Run starts the mesh and the dispatcher
func (nd *Node) Run() error {
	nd.Lock()
	if nd.isRunning {
		nd.Unlock()
		return nil
	}
	nd.isRunning = true
	nd.Unlock()

	if err := nd.ms.Run(); err != nil {
		nd.Lock()
		nd.isRunning = false
		nd.Unlock()
		return err
	}
	go func() {
		defer close(nd.done)
		nd.dispatch()
	}()
	return nil
}

// Submit translates the command of the user interface and queues it on the bus
func (nd *Node) Submit(cmd UICommand) {
	nd.Broadcast(TranslateCommand(cmd))
}

// Broadcast queues the value on the bus
func (nd *Node) Broadcast(mb MessageBroadcasting) {
	select {
	case nd.bus <- work.Information(mb):
	case <-nd.quit:
	case <-nd.done:
	}
}

// Close stops the node and waits until the dispatcher returns.
// Values still queued on the bus are dropped.
func (nd *Node) Close() {
	nd.closeOnce.Do(func() {
		close(nd.quit)
	})

	nd.Lock()
	isRunning := nd.isRunning
	nd.Unlock()

	if !isRunning {
		nd.ms.Stop()
		return
	}
	<-nd.done
}

func (nd *Node) dispatch() {
	for {
		var w work.Work[MessageBroadcasting]
		select {
		case <-nd.quit:
			nd.ms.Stop()
			return
		case next, ok := <-nd.bus:
			if !ok {
				nd.ms.Stop()
				return
			}
			w = next
		}
		mb, ok := w.Info()
		if !ok {
			nd.ms.Stop()
			return
		}
		switch msg := mb.(type) {
		case *BroadcastBlock:
			nd.handleBlock(msg.Block, msg.Origin)
		case *BroadcastTransaction:
			nd.handleTransaction(msg.Tx, msg.Origin)
		case *ChangeAccount:
			nd.Lock()
			nd.selected = msg.Account
			nd.hasSelected = true
			nd.Unlock()
			nd.notifier.Notify(&notify.AccountChanged{Account: msg.Account})
		case *Exit:
			nd.logger.Info("Exit requested")
			nd.ms.Stop()
			return
		}
	}
}

func (nd *Node) markSeen(h hash.Hash256) bool {
	if _, err := nd.seen.Get(h); err == nil {
		return false
	}
	if err := nd.seen.Set(h, true); err != nil {
		nd.logger.Warn("Seen cache update failed", "err", err)
	}
	return true
}

func (nd *Node) handleBlock(b *types.Block, origin *peer.ConnectionID) {
	if b == nil {
		return
	}
	BlockHash := b.Hash()
	if !nd.markSeen(BlockHash) {
		return
	}
	if err := nd.cn.Accept(b); err != nil {
		switch errors.Cause(err) {
		case chain.ErrKnownBlock, chain.ErrOrphanBlock:
			nd.logger.Debug("Block ignored", "hash", BlockHash.String(), "err", err)
		default:
			nd.logger.Warn("Block rejected", "hash", BlockHash.String(), "err", err)
			if origin != nil {
				if nd.ms.AddBadPoint(*origin, 1) {
					nd.ms.RemovePeer(*origin)
				}
			}
		}
		return
	}

	matches := nd.relevantAccounts(b.Transactions)
	if err := nd.utxos.Apply(b); err != nil {
		if errors.Cause(err) == utxo.ErrNotConnected {
			nd.logger.Debug("Side branch block", "hash", BlockHash.String(), "err", err)
		} else {
			nd.logger.Warn("UTXO apply failed", "hash", BlockHash.String(), "err", err)
		}
		return
	}
	nd.logger.Info("Block added", "hash", BlockHash.String(), "height", nd.cn.Height(), "txs", len(b.Transactions))
	nd.notifier.Notify(&notify.NewBlockAdded{Block: b})
	nd.emitMatches(matches)
	nd.emit(&BlockSeen{Block: b})

	msg := &message.BlockMessage{Block: b}
	if origin == nil {
		nd.ms.BroadcastMessage(msg)
	} else if nd.cfg.Relay {
		nd.ms.ExceptCast(*origin, msg)
	}
}

func (nd *Node) handleTransaction(tx *types.Transaction, origin *peer.ConnectionID) {
	if tx == nil {
		return
	}
	if !nd.markSeen(tx.Hash()) {
		return
	}
	nd.emitMatches(nd.relevantAccounts([]*types.Transaction{tx}))
	nd.emit(&TransactionSeen{Tx: tx})

	msg := &message.TxMessage{Tx: tx}
	if origin == nil {
		nd.ms.BroadcastMessage(msg)
	} else if nd.cfg.Relay {
		nd.ms.ExceptCast(*origin, msg)
	}
}

type accountMatch struct {
	Account types.Account
	Tx      *types.Transaction
}

// relevantAccounts returns one match per transaction and account that the
// transaction pays to or spends from
func (nd *Node) relevantAccounts(txs []*types.Transaction) []accountMatch {
	accounts := []types.Account{}
	ownedMap := map[types.Account]map[types.OutPoint]bool{}
	for _, acc := range nd.wallet.Accounts() {
		if _, has := ownedMap[acc]; has {
			continue
		}
		accounts = append(accounts, acc)
		owned := map[types.OutPoint]bool{}
		for _, uo := range nd.utxos.Query(acc) {
			owned[uo.OutPoint] = true
		}
		ownedMap[acc] = owned
	}
	if len(accounts) == 0 {
		return nil
	}

	matches := []accountMatch{}
	for _, tx := range txs {
		pays := nd.wallet.IsRelevant(tx)
		for _, acc := range accounts {
			if (pays && tx.PaysTo(acc)) || tx.Spends(ownedMap[acc]) {
				matches = append(matches, accountMatch{Account: acc, Tx: tx})
			}
		}
		if pays {
			TxHash := tx.Hash()
			for i, out := range tx.TxOut {
				if owner, has := out.Account(); has {
					if owned, has := ownedMap[owner]; has {
						owned[types.OutPoint{Hash: TxHash, Index: uint32(i)}] = true
					}
				}
			}
		}
	}
	return matches
}

func (nd *Node) emitMatches(matches []accountMatch) {
	for _, m := range matches {
		nd.notifier.Notify(&notify.TransactionOfAccountReceived{Account: m.Account, Tx: m.Tx})
		nd.emit(&TransactionOfActiveAccount{Account: m.Account, Tx: m.Tx})
	}
}

func (nd *Node) emit(mn MessageNotify) {
	nd.Lock()
	ch := nd.notifyCh
	nd.Unlock()

	if ch == nil {
		return
	}
	select {
	case ch <- mn:
	case <-nd.quit:
	case <-nd.ms.stopCh:
	}
}
