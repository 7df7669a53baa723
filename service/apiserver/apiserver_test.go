package apiserver

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/meverselabs/coinnet/common/hash"
	"github.com/meverselabs/coinnet/core/chain"
	"github.com/meverselabs/coinnet/core/types"
	"github.com/meverselabs/coinnet/core/utxo"
	"github.com/meverselabs/coinnet/core/wallet"
	"github.com/meverselabs/coinnet/p2p/message"
	"github.com/meverselabs/coinnet/p2p/notify"
	"github.com/meverselabs/coinnet/p2p/peer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	accA = types.MustParseAccount("89abcdefabbaabbaabbaabbaabbaabbaabbaabba")
	accB = types.MustParseAccount("0102030405060708090a0b0c0d0e0f1011121314")
)

type stubPeer struct {
	id    peer.ConnectionID
	state peer.State
}

func (p *stubPeer) ID() peer.ConnectionID  { return p.id }
func (p *stubPeer) Name() string           { return p.id.Address }
func (p *stubPeer) Close()                 {}
func (p *stubPeer) IsClosed() bool         { return false }
func (p *stubPeer) State() peer.State      { return p.state }
func (p *stubPeer) Send(m message.Message) {}
func (p *stubPeer) ConnectedTime() int64   { return 100 }

type stubMesh []peer.Conn

func (ms stubMesh) Peers() []peer.Conn { return ms }

type rpcResult struct {
	ID     interface{}     `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  string          `json:"error"`
}

func newTestServer(t *testing.T) (*APIServer, *httptest.Server, *types.Block) {
	genesis := hash.DoubleHash([]byte("genesis"))
	cn := chain.NewMemChain(genesis)
	set := utxo.NewSet()
	b1 := types.NewBlock(genesis, 1700000001, []*types.Transaction{types.NewCoinBase(1, 50, accA)})
	require.NoError(t, cn.Accept(b1))
	require.NoError(t, set.Apply(b1))

	mesh := stubMesh{
		&stubPeer{id: peer.NewConnectionID("10.0.0.2:8333", peer.Peer), state: peer.Ready},
		&stubPeer{id: peer.NewConnectionID("10.0.0.1:50000", peer.Client), state: peer.VersionSent},
	}

	s := NewAPIServer()
	_, err := NewNodeService(s, mesh, cn, set, wallet.NewWatchWallet(accA, accB))
	require.NoError(t, err)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		s.Close()
	})
	return s, ts, b1
}

func call(t *testing.T, ts *httptest.Server, method string, params ...interface{}) *rpcResult {
	if params == nil {
		params = []interface{}{}
	}
	body, err := json.Marshal(&JRPCRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params})
	require.NoError(t, err)
	res, err := http.Post(ts.URL+"/api/endpoints/http", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var ret rpcResult
	require.NoError(t, json.NewDecoder(res.Body).Decode(&ret))
	return &ret
}

func TestNodeMethods(t *testing.T) {
	_, ts, b1 := newTestServer(t)

	res := call(t, ts, "node.height")
	assert.Empty(t, res.Error)
	assert.Equal(t, "1", string(res.Result))

	res = call(t, ts, "node.balance", accA.String())
	assert.Equal(t, "50", string(res.Result))

	res = call(t, ts, "node.utxos", accA.String())
	var utxos []*UTXOInfo
	require.NoError(t, json.Unmarshal(res.Result, &utxos))
	require.Len(t, utxos, 1)
	assert.Equal(t, b1.Transactions[0].Hash().String(), utxos[0].TxID)
	assert.Equal(t, int64(50), utxos[0].Value)

	res = call(t, ts, "node.accounts")
	var accs []string
	require.NoError(t, json.Unmarshal(res.Result, &accs))
	assert.Equal(t, []string{accA.String(), accB.String()}, accs)

	res = call(t, ts, "node.peers")
	var peers []*PeerInfo
	require.NoError(t, json.Unmarshal(res.Result, &peers))
	require.Len(t, peers, 2)
	assert.Equal(t, "client/10.0.0.1:50000", peers[0].ID)
	assert.Equal(t, "version-sent", peers[0].State)
	assert.Equal(t, "ready", peers[1].State)
}

func TestInvalidCalls(t *testing.T) {
	_, ts, _ := newTestServer(t)

	tests := []struct {
		name   string
		method string
		params []interface{}
		want   string
	}{
		{"no sub", "height", nil, ErrInvalidMethod.Error()},
		{"unknown sub", "chain.height", nil, ErrInvalidMethod.Error()},
		{"unknown method", "node.mempool", nil, ErrInvalidMethod.Error()},
		{"missing argument", "node.balance", nil, ErrInvalidArgumentIndex.Error()},
		{"bad account", "node.balance", []interface{}{"zz"}, ErrInvalidArgument.Error()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := call(t, ts, tt.method, tt.params...)
			assert.Contains(t, res.Error, tt.want)
		})
	}

	res, err := http.Post(ts.URL+"/api/endpoints/http", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res, err = http.Post(ts.URL+"/api/endpoints/http", "application/json", strings.NewReader(`{"jsonrpc":"2.0","method":"node.height","params":[]}`))
	require.NoError(t, err)
	body, _ := io.ReadAll(res.Body)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Empty(t, body)
}

func TestDuplicateSub(t *testing.T) {
	s := NewAPIServer()
	defer s.Close()
	_, err := s.JRPC("node")
	require.NoError(t, err)
	_, err = s.JRPC("node")
	assert.Error(t, err)
}

func wsURL(ts *httptest.Server, query string) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/endpoints/websocket" + query
}

func TestWebsocketRPC(t *testing.T) {
	_, ts, _ := newTestServer(t)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts, ""), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(&JRPCRequest{JSONRPC: "2.0", ID: 7, Method: "node.height", Params: []interface{}{}}))
	var res rpcResult
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	require.NoError(t, conn.ReadJSON(&res))
	assert.Equal(t, float64(7), res.ID)
	assert.Equal(t, "1", string(res.Result))
}

func TestNotificationFeed(t *testing.T) {
	s, ts, _ := newTestServer(t)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts, "?type=notifications"), nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return s.FeedCount() == 1 }, 3*time.Second, 10*time.Millisecond)

	var n notify.Notifier = s
	n.Notify(&notify.AttemptingHandshakeWithPeer{Address: "10.0.0.3:8333"})

	var msg NotificationMessage
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, notify.KindAttemptingHandshake, msg.Kind)
	assert.Contains(t, msg.Message, "10.0.0.3:8333")

	conn.Close()
	require.Eventually(t, func() bool { return s.FeedCount() == 0 }, 3*time.Second, 10*time.Millisecond)
}

func TestMount(t *testing.T) {
	s, ts, _ := newTestServer(t)
	s.Mount("/metrics", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "coinnet_peers 1\n")
	}))
	res, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.Equal(t, "coinnet_peers 1\n", string(body))
}
