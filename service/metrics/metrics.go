package metrics

import (
	"net/http"

	"github.com/meverselabs/coinnet/p2p"
	"github.com/meverselabs/coinnet/p2p/notify"
	"github.com/meverselabs/coinnet/p2p/peer"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	_ p2p.Recorder    = (*Metrics)(nil)
	_ notify.Notifier = (*Metrics)(nil)
)

// Metrics holds the prometheus metrics of the node
type Metrics struct {
	reg *prometheus.Registry

	// Connection metrics
	Peers            *prometheus.GaugeVec
	ConnectionsTotal *prometheus.CounterVec

	// Traffic metrics
	MessagesReceived *prometheus.CounterVec
	MessagesSent     *prometheus.CounterVec
	DecodeFailures   *prometheus.CounterVec

	Notifications *prometheus.CounterVec
}

// NewMetrics returns a Metrics registered on its own registry under the namespace
func NewMetrics(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		reg: reg,
		Peers: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "peers",
			Help:      "Current number of ready connections by type",
		}, []string{"type"}),
		ConnectionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_total",
			Help:      "Total number of connections that completed the handshake",
		}, []string{"type"}),
		MessagesReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_received_total",
			Help:      "Total number of decoded messages by command",
		}, []string{"command"}),
		MessagesSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_sent_total",
			Help:      "Total number of written messages by command",
		}, []string{"command"}),
		DecodeFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_failures_total",
			Help:      "Total number of frames that failed to decode by reason",
		}, []string{"reason"}),
		Notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Total number of notifications by kind",
		}, []string{"kind"}),
	}
}

// Registry returns the registry of the metrics
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// Handler returns the exposition handler of the registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// PeerConnected records a connection that became ready
func (m *Metrics) PeerConnected(t peer.ConnectionType) {
	m.Peers.WithLabelValues(t.String()).Inc()
	m.ConnectionsTotal.WithLabelValues(t.String()).Inc()
}

// PeerDisconnected records a ready connection that was closed
func (m *Metrics) PeerDisconnected(t peer.ConnectionType) {
	m.Peers.WithLabelValues(t.String()).Dec()
}

// MessageReceived records a decoded message
func (m *Metrics) MessageReceived(cmd string) {
	m.MessagesReceived.WithLabelValues(cmd).Inc()
}

// MessageSent records a written message
func (m *Metrics) MessageSent(cmd string) {
	m.MessagesSent.WithLabelValues(cmd).Inc()
}

// DecodeFailed records a frame that could not be decoded
func (m *Metrics) DecodeFailed(reason string) {
	m.DecodeFailures.WithLabelValues(reason).Inc()
}

// Notify counts the notification by its kind
func (m *Metrics) Notify(n notify.Notification) {
	m.Notifications.WithLabelValues(n.Kind()).Inc()
}
