package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/meverselabs/coinnet/p2p/notify"
	"github.com/meverselabs/coinnet/p2p/peer"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	m := NewMetrics("coinnet")

	m.PeerConnected(peer.Peer)
	m.PeerConnected(peer.Peer)
	m.PeerConnected(peer.Client)
	m.PeerDisconnected(peer.Peer)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Peers.WithLabelValues("peer")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Peers.WithLabelValues("client")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ConnectionsTotal.WithLabelValues("peer")))

	m.MessageReceived("ping")
	m.MessageReceived("ping")
	m.MessageSent("pong")
	m.DecodeFailed("checksum")
	assert.Equal(t, 2.0, testutil.ToFloat64(m.MessagesReceived.WithLabelValues("ping")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MessagesSent.WithLabelValues("pong")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DecodeFailures.WithLabelValues("checksum")))
}

func TestNotify(t *testing.T) {
	m := NewMetrics("coinnet")
	m.Notify(&notify.AttemptingHandshakeWithPeer{Address: "10.0.0.1:8333"})
	m.Notify(&notify.FailedHandshakeWithPeer{Address: "10.0.0.1:8333"})
	m.Notify(&notify.FailedHandshakeWithPeer{Address: "10.0.0.2:8333"})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Notifications.WithLabelValues(notify.KindFailedHandshake)))
	assert.Equal(t, 2, testutil.CollectAndCount(m.Notifications))
}

func TestHandler(t *testing.T) {
	m := NewMetrics("coinnet")
	m.MessageSent("version")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `coinnet_messages_sent_total{command="version"} 1`)
}
