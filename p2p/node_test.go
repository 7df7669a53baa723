package p2p

import (
	"testing"
	"time"

	"github.com/meverselabs/coinnet/common/hash"
	"github.com/meverselabs/coinnet/core/chain"
	"github.com/meverselabs/coinnet/core/types"
	"github.com/meverselabs/coinnet/core/utxo"
	"github.com/meverselabs/coinnet/core/wallet"
	"github.com/meverselabs/coinnet/p2p/notify"
	"github.com/meverselabs/coinnet/p2p/peer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	watched = types.MustParseAccount("89abcdefabbaabbaabbaabbaabbaabbaabbaabba")
	other   = types.MustParseAccount("0102030405060708090a0b0c0d0e0f1011121314")
)

type nodeFixture struct {
	t       *testing.T
	nd      *Node
	genesis hash.Hash256
	notes   chan notify.Notification
	mn      chan MessageNotify
}

func newNodeFixture(t *testing.T) *nodeFixture {
	network := regtest(t)
	notes := make(chan notify.Notification, 64)
	nd := NewNode(
		Config{Mode: ClientMode, PollInterval: 10 * time.Millisecond},
		network,
		chain.NewMemChain(network.Genesis()),
		utxo.NewSet(),
		wallet.NewWatchWallet(watched),
		notify.NotifierFunc(func(n notify.Notification) { notes <- n }),
		nil,
	)
	mn := make(chan MessageNotify, 64)
	nd.SetMessageNotify(mn)
	require.NoError(t, nd.Run())
	t.Cleanup(nd.Close)
	return &nodeFixture{t: t, nd: nd, genesis: network.Genesis(), notes: notes, mn: mn}
}

func (f *nodeFixture) next() notify.Notification {
	select {
	case n := <-f.notes:
		return n
	case <-time.After(3 * time.Second):
		f.t.Fatal("no notification")
		return nil
	}
}

// barrier waits until every value queued before it is dispatched
func (f *nodeFixture) barrier() {
	f.nd.Submit(&ChangeSelectedAccount{Account: watched})
	for {
		if _, ok := f.next().(*notify.AccountChanged); ok {
			return
		}
	}
}

func spendTx(op types.OutPoint, outs ...*types.TxOut) *types.Transaction {
	return &types.Transaction{
		Version: 1,
		TxIn:    []*types.TxIn{{PreviousOutPoint: op, Sequence: 0xffffffff}},
		TxOut:   outs,
	}
}

func payTo(acc types.Account, value int64) *types.TxOut {
	return &types.TxOut{Value: value, PkScript: types.PayToAccountScript(acc)}
}

func TestNodeBlockAndTransactionMatching(t *testing.T) {
	f := newNodeFixture(t)
	coinbase := types.NewCoinBase(1, 50, watched)
	b1 := types.NewBlock(f.genesis, 1700000001, []*types.Transaction{coinbase})

	f.nd.Broadcast(&BroadcastBlock{Block: b1})
	added, ok := f.next().(*notify.NewBlockAdded)
	require.True(t, ok)
	assert.Equal(t, b1.Hash(), added.Block.Hash())
	recv, ok := f.next().(*notify.TransactionOfAccountReceived)
	require.True(t, ok)
	assert.Equal(t, watched, recv.Account)
	assert.Equal(t, coinbase.Hash(), recv.Tx.Hash())

	assert.IsType(t, &TransactionOfActiveAccount{}, <-f.mn)
	assert.IsType(t, &BlockSeen{}, <-f.mn)

	// seen block is dropped
	f.nd.Broadcast(&BroadcastBlock{Block: b1})

	ID := peer.NewConnectionID("10.0.0.1:18444", peer.Peer)
	spend := spendTx(types.OutPoint{Hash: coinbase.Hash(), Index: 0}, payTo(other, 50))
	f.nd.Broadcast(&BroadcastTransaction{Tx: spend, Origin: &ID})
	recv, ok = f.next().(*notify.TransactionOfAccountReceived)
	require.True(t, ok)
	assert.Equal(t, watched, recv.Account)
	assert.Equal(t, spend.Hash(), recv.Tx.Hash())

	unrelated := spendTx(types.OutPoint{Hash: hash.DoubleHash([]byte("elsewhere"))}, payTo(other, 10))
	f.nd.Broadcast(&BroadcastTransaction{Tx: unrelated, Origin: &ID})

	twice := spendTx(types.OutPoint{Hash: hash.DoubleHash([]byte("twice"))}, payTo(watched, 1), payTo(watched, 2))
	f.nd.Broadcast(&BroadcastTransaction{Tx: twice})
	f.nd.Broadcast(&BroadcastTransaction{Tx: twice})
	recv, ok = f.next().(*notify.TransactionOfAccountReceived)
	require.True(t, ok)
	assert.Equal(t, twice.Hash(), recv.Tx.Hash())

	f.barrier()
	assert.Empty(t, f.notes)
}

func TestNodeChainedBlockMatches(t *testing.T) {
	f := newNodeFixture(t)
	coinbase := types.NewCoinBase(1, 50, other)
	pay := spendTx(types.OutPoint{Hash: coinbase.Hash(), Index: 0}, payTo(watched, 50))
	spend := spendTx(types.OutPoint{Hash: pay.Hash(), Index: 0}, payTo(other, 50))
	b1 := types.NewBlock(f.genesis, 1700000001, []*types.Transaction{coinbase, pay, spend})

	f.nd.Broadcast(&BroadcastBlock{Block: b1})
	assert.IsType(t, &notify.NewBlockAdded{}, f.next())
	for _, tx := range []*types.Transaction{pay, spend} {
		recv, ok := f.next().(*notify.TransactionOfAccountReceived)
		require.True(t, ok)
		assert.Equal(t, tx.Hash(), recv.Tx.Hash())
	}
	f.barrier()
	assert.Empty(t, f.notes)
}

func TestNodeInvalidBlockAddsBadPoint(t *testing.T) {
	f := newNodeFixture(t)
	b := types.NewBlock(f.genesis, 1700000001, []*types.Transaction{types.NewCoinBase(1, 50, watched)})
	b.Header.MerkleRoot = hash.Hash256{}

	ID := peer.NewConnectionID("10.0.0.1:18444", peer.Peer)
	f.nd.Broadcast(&BroadcastBlock{Block: b, Origin: &ID})
	f.barrier()
	assert.Empty(t, f.notes)

	ms := f.nd.Mesh()
	ms.Lock()
	assert.Equal(t, 1, ms.badPointMap[ID])
	ms.Unlock()
}

func TestNodeAccountAndExit(t *testing.T) {
	f := newNodeFixture(t)
	acc, has := f.nd.SelectedAccount()
	assert.True(t, has)
	assert.Equal(t, watched, acc)

	f.nd.Submit(&ChangeSelectedAccount{Account: other})
	changed, ok := f.next().(*notify.AccountChanged)
	require.True(t, ok)
	assert.Equal(t, other, changed.Account)
	acc, _ = f.nd.SelectedAccount()
	assert.Equal(t, other, acc)

	f.nd.Submit(&ExitProgram{})
	select {
	case <-f.nd.Done():
	case <-time.After(3 * time.Second):
		t.Fatal("dispatcher is not stopped")
	}
	assert.True(t, f.nd.Mesh().isStopped())
}

func TestNodeSideBranchBlock(t *testing.T) {
	f := newNodeFixture(t)
	b1 := types.NewBlock(f.genesis, 1700000001, []*types.Transaction{types.NewCoinBase(1, 50, watched)})
	sibling := types.NewBlock(f.genesis, 1700000002, []*types.Transaction{types.NewCoinBase(1, 51, watched)})

	f.nd.Broadcast(&BroadcastBlock{Block: b1})
	assert.IsType(t, &notify.NewBlockAdded{}, f.next())
	assert.IsType(t, &notify.TransactionOfAccountReceived{}, f.next())

	f.nd.Broadcast(&BroadcastBlock{Block: sibling})
	f.barrier()
	assert.Empty(t, f.notes)

	set := f.nd.utxos.(*utxo.Set)
	assert.Equal(t, int32(1), set.Height())
	assert.Equal(t, b1.Hash(), set.Tip())
	assert.Equal(t, int64(50), set.Balance(watched))
	assert.Equal(t, int32(1), f.nd.cn.Height())

	assert.IsType(t, &TransactionOfActiveAccount{}, <-f.mn)
	assert.IsType(t, &BlockSeen{}, <-f.mn)
	assert.Empty(t, f.mn)
}

func TestNodeCloseWithStalledConsumer(t *testing.T) {
	network := regtest(t)
	notes := make(chan notify.Notification, 64)
	nd := NewNode(
		Config{Mode: ClientMode, PollInterval: 10 * time.Millisecond},
		network,
		chain.NewMemChain(network.Genesis()),
		utxo.NewSet(),
		wallet.NewWatchWallet(watched),
		notify.NotifierFunc(func(n notify.Notification) { notes <- n }),
		nil,
	)
	nd.SetMessageNotify(make(chan MessageNotify))
	require.NoError(t, nd.Run())

	b1 := types.NewBlock(network.Genesis(), 1700000001, []*types.Transaction{types.NewCoinBase(1, 50, watched)})
	nd.Broadcast(&BroadcastBlock{Block: b1})
	select {
	case <-notes:
	case <-time.After(3 * time.Second):
		t.Fatal("block is not dispatched")
	}

	closed := make(chan struct{})
	go func() {
		nd.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(3 * time.Second):
		t.Fatal("Close is blocked by the consumer")
	}
	assert.True(t, nd.Mesh().isStopped())
}
