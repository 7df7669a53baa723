package p2p

import (
	"bufio"
	"io"
	"math/rand"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/meverselabs/coinnet/common/rlog"
	"github.com/meverselabs/coinnet/common/work"
	"github.com/meverselabs/coinnet/p2p/message"
	"github.com/meverselabs/coinnet/p2p/peer"
	"github.com/pkg/errors"
)

// Handler is a interface for connection events
type Handler interface {
	OnReady(p *TCPPeer) error
	OnRecv(p *TCPPeer, m message.Message) error
	OnClosed(p *TCPPeer, wasReady bool, err error)
	AddBadPoint(ID peer.ConnectionID, Point int) bool
}

// TCPPeer owns a connection and runs its worker loop
type TCPPeer struct {
	sync.Mutex
	conn          net.Conn
	reader        *bufio.Reader
	id            peer.ConnectionID
	magic         message.Magic
	cfg           Config
	hs            *Handshake
	handler       Handler
	recorder      Recorder
	queue         chan work.Work[message.Message]
	done          chan struct{}
	state         atomic.Uint32
	isClose       atomic.Bool
	remote        *message.Version
	connectedTime int64
	lastRecv      time.Time
	lastPing      time.Time
	pingNonce     uint64
	logger        rlog.Logger
}

// NewTCPPeer returns a TCPPeer
func NewTCPPeer(conn net.Conn, ID peer.ConnectionID, hs *Handshake, magic message.Magic, cfg Config, handler Handler, recorder Recorder) *TCPPeer {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	now := time.Now()
	p := &TCPPeer{
		conn:          conn,
		reader:        bufio.NewReader(conn),
		id:            ID,
		magic:         magic,
		cfg:           cfg.withDefaults(),
		hs:            hs,
		handler:       handler,
		recorder:      recorder,
		queue:         make(chan work.Work[message.Message], OutboundQueueSize),
		done:          make(chan struct{}),
		connectedTime: now.UnixNano(),
		lastRecv:      now,
		lastPing:      now,
		logger:        rlog.New("module", "p2p", "peer", ID.String()),
	}
	p.state.Store(uint32(hs.State()))
	return p
}

var _ peer.Conn = (*TCPPeer)(nil)

// ID returns the id of the peer
func (p *TCPPeer) ID() peer.ConnectionID {
	return p.id
}

// Name returns the name of the peer
func (p *TCPPeer) Name() string {
	return p.id.Address
}

// State returns the connection state
func (p *TCPPeer) State() peer.State {
	return peer.State(p.state.Load())
}

func (p *TCPPeer) setState(s peer.State) {
	p.state.Store(uint32(s))
}

// Remote returns the version of the peer after the handshake
func (p *TCPPeer) Remote() *message.Version {
	p.Lock()
	defer p.Unlock()

	return p.remote
}

// wants returns false for transactions when the peer asked not to be relayed them
func (p *TCPPeer) wants(m message.Message) bool {
	if _, is := m.(*message.TxMessage); !is {
		return true
	}
	remote := p.Remote()
	return remote == nil || remote.Relay
}

// ConnectedTime returns peer connected time
func (p *TCPPeer) ConnectedTime() int64 {
	return p.connectedTime
}

// Done is closed when the worker loop has returned
func (p *TCPPeer) Done() <-chan struct{} {
	return p.done
}

// Close closes the connection. The worker observes it at its next read.
func (p *TCPPeer) Close() {
	if p.isClose.Swap(true) {
		return
	}
	p.conn.Close()
}

// IsClosed returns it is closed or not
func (p *TCPPeer) IsClosed() bool {
	return p.isClose.Load()
}

// Send queues the message to the worker
func (p *TCPPeer) Send(m message.Message) {
	if p.IsClosed() {
		return
	}
	select {
	case p.queue <- work.Information(m):
	case <-p.done:
	default:
		p.logger.Warn("Outbound queue is full", "cmd", m.Command())
		p.Close()
	}
}

// Stop queues a Stop behind the queued messages
func (p *TCPPeer) Stop() {
	select {
	case p.queue <- work.Stop[message.Message]():
	case <-p.done:
	}
}

// Start sends the local version
func (p *TCPPeer) Start() error {
	msgs, state := p.hs.Start()
	p.setState(state)
	for _, m := range msgs {
		if err := p.write(m); err != nil {
			p.setState(p.hs.Fail(err))
			return errors.Wrap(ErrCannotSend, err.Error())
		}
	}
	return nil
}

// Run runs the worker loop until a Stop or a fatal error
func (p *TCPPeer) Run() {
	defer close(p.done)

	err := p.run()
	wasReady := p.hs.State() == peer.Ready
	switch {
	case err == nil:
		p.hs.Close()
	case wasReady && isDisconnect(err):
		p.hs.Close()
	default:
		p.hs.Fail(err)
	}
	p.setState(p.hs.State())
	p.Close()

	if err != nil {
		p.logger.Debug("Worker stopped", "state", p.State(), "err", err)
	}
	p.handler.OnClosed(p, wasReady, err)
}

func (p *TCPPeer) run() error {
	for {
		if stop, err := p.drainQueue(); err != nil {
			return err
		} else if stop {
			return nil
		}
		if err := p.poll(); err != nil {
			return err
		}
	}
}

func (p *TCPPeer) drainQueue() (bool, error) {
	for {
		w, has := work.TryRecv(p.queue)
		if !has {
			return false, nil
		}
		m, ok := w.Info()
		if !ok {
			return true, nil
		}
		if err := p.write(m); err != nil {
			return false, err
		}
	}
}

func (p *TCPPeer) poll() error {
	if err := p.conn.SetReadDeadline(time.Now().Add(p.cfg.PollInterval)); err != nil {
		return errors.WithStack(err)
	}
	if _, err := p.reader.Peek(1); err != nil {
		if isTimeout(err) {
			return p.keepAlive()
		}
		return errors.WithStack(err)
	}
	p.lastRecv = time.Now()
	if err := p.conn.SetReadDeadline(p.lastRecv.Add(p.cfg.MessageTimeout)); err != nil {
		return errors.WithStack(err)
	}

	nm, err := message.DecodeMessage(p.reader, p.magic)
	if err != nil {
		switch errors.Cause(err) {
		case message.ErrUnknownMessage:
			p.recorder.DecodeFailed("unknown")
			p.logger.Debug("Discard unknown message", "cmd", nm.Header.Command)
			return nil
		case message.ErrMalformedPayload:
			p.recorder.DecodeFailed("malformed")
			p.logger.Debug("Discard malformed message", "err", err)
			if p.handler.AddBadPoint(p.id, 1) {
				return errors.Wrap(ErrTooManyBadPoints, err.Error())
			}
			return nil
		case message.ErrChecksumMismatch:
			p.recorder.DecodeFailed("checksum")
		case message.ErrInvalidMagic:
			p.recorder.DecodeFailed("magic")
		}
		return err
	}
	p.recorder.MessageReceived(nm.Header.Command)
	p.logger.Trace("Recv", "cmd", nm.Header.Command, "len", nm.Header.Length, "msg", rlog.Lazy{Fn: func() string {
		return spew.Sdump(nm.Payload)
	}})
	return p.handle(nm.Payload)
}

func (p *TCPPeer) handle(m message.Message) error {
	replies, state, err := p.hs.Receive(m)
	p.setState(state)
	if err != nil {
		if state.IsTerminal() {
			return err
		}
		if p.handler.AddBadPoint(p.id, 1) {
			return errors.Wrap(ErrTooManyBadPoints, err.Error())
		}
		return nil
	}
	for _, r := range replies {
		if err := p.write(r); err != nil {
			return err
		}
	}

	if state == peer.VerackExchanged {
		p.Lock()
		p.remote = p.hs.Remote()
		p.Unlock()
		if err := p.handler.OnReady(p); err != nil {
			return err
		}
		state, err := p.hs.Register()
		if err != nil {
			return err
		}
		p.setState(state)
		return nil
	}
	if state != peer.Ready || message.IsHandshake(m) {
		return nil
	}

	switch msg := m.(type) {
	case *message.Ping:
		return p.write(&message.Pong{Nonce: msg.Nonce})
	case *message.Pong:
		if msg.Nonce == p.pingNonce {
			p.pingNonce = 0
		}
		return nil
	default:
		return p.handler.OnRecv(p, m)
	}
}

func (p *TCPPeer) keepAlive() error {
	now := time.Now()
	if p.hs.State() != peer.Ready {
		if now.Sub(time.Unix(0, p.connectedTime)) > p.cfg.MessageTimeout {
			return errors.WithStack(ErrHandshakeTimeout)
		}
		return nil
	}
	if now.Sub(p.lastRecv) > p.cfg.InactivityTimeout {
		return errors.WithStack(ErrInactivePeer)
	}
	if now.Sub(p.lastPing) >= p.cfg.PingInterval {
		p.lastPing = now
		p.pingNonce = rand.Uint64()
		return p.write(&message.Ping{Nonce: p.pingNonce})
	}
	return nil
}

func (p *TCPPeer) write(m message.Message) error {
	p.Lock()
	defer p.Unlock()

	if err := p.conn.SetWriteDeadline(time.Now().Add(p.cfg.WriteTimeout)); err != nil {
		return errors.WithStack(err)
	}
	if _, err := message.WriteMessage(p.conn, p.magic, m); err != nil {
		return err
	}
	p.recorder.MessageSent(m.Command())
	p.logger.Trace("Send", "cmd", m.Command())
	return nil
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func isDisconnect(err error) bool {
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
		return true
	}
	var oe *net.OpError
	return errors.As(err, &oe)
}
