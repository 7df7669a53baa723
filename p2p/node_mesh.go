package p2p

import (
	"math/rand"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/meverselabs/coinnet/common/rlog"
	"github.com/meverselabs/coinnet/common/work"
	"github.com/meverselabs/coinnet/p2p/message"
	"github.com/meverselabs/coinnet/p2p/notify"
	"github.com/meverselabs/coinnet/p2p/peer"
	"github.com/meverselabs/coinnet/p2p/storage"
	"github.com/pkg/errors"
)

// NodeMesh is a mesh for networking between nodes
type NodeMesh struct {
	sync.Mutex
	cfg         Config
	network     *Network
	nonce       uint64
	height      func() int32
	bus         chan<- work.Work[MessageBroadcasting]
	notifier    notify.Notifier
	recorder    Recorder
	book        *storage.AddrBook
	peerMap     map[peer.ConnectionID]*TCPPeer
	badPointMap map[peer.ConnectionID]int
	events      chan work.Work[peer.ConnectionID]
	listener    net.Listener
	stopCh      chan struct{}
	wg          sync.WaitGroup
	isRunning   bool
	isStop      bool
	logger      rlog.Logger
}

// NewNodeMesh returns a NodeMesh
func NewNodeMesh(cfg Config, network *Network, bus chan<- work.Work[MessageBroadcasting], notifier notify.Notifier, book *storage.AddrBook) *NodeMesh {
	if notifier == nil {
		notifier = notify.Multi{}
	}
	ms := &NodeMesh{
		cfg:         cfg.withDefaults(),
		network:     network,
		nonce:       rand.Uint64(),
		height:      func() int32 { return 0 },
		bus:         bus,
		notifier:    notifier,
		recorder:    nopRecorder{},
		book:        book,
		peerMap:     map[peer.ConnectionID]*TCPPeer{},
		badPointMap: map[peer.ConnectionID]int{},
		events:      make(chan work.Work[peer.ConnectionID], 1024),
		stopCh:      make(chan struct{}),
		logger:      rlog.New("module", "p2p", "network", network.Name()),
	}
	return ms
}

// SetRecorder sets the traffic recorder
func (ms *NodeMesh) SetRecorder(r Recorder) {
	ms.Lock()
	defer ms.Unlock()

	ms.recorder = r
}

// SetHeightFunc sets the provider of the start height announced in the version
func (ms *NodeMesh) SetHeightFunc(fn func() int32) {
	ms.Lock()
	defer ms.Unlock()

	ms.height = fn
}

// Nonce returns the version nonce of the mesh
func (ms *NodeMesh) Nonce() uint64 {
	return ms.nonce
}

// Run starts the mesh. In server mode it listens on the bind address.
func (ms *NodeMesh) Run() error {
	ms.Lock()
	if ms.isRunning || ms.isStop {
		ms.Unlock()
		return nil
	}
	ms.isRunning = true
	ms.Unlock()

	if ms.cfg.Mode == ServerMode {
		if err := ms.Listen(ms.cfg.BindAddress); err != nil {
			return err
		}
	}

	ms.wg.Add(2)
	go func() {
		defer ms.wg.Done()
		ms.eventLoop()
	}()
	go func() {
		defer ms.wg.Done()
		ms.decayBadPoints()
	}()
	return nil
}

// Listen accepts inbound connections on the address
func (ms *NodeMesh) Listen(BindAddress string) error {
	lstn, err := net.Listen("tcp", BindAddress)
	if err != nil {
		return errors.WithStack(err)
	}
	ms.Lock()
	if ms.isStop {
		ms.Unlock()
		lstn.Close()
		return errors.WithStack(ErrMeshStopped)
	}
	ms.listener = lstn
	ms.wg.Add(1)
	ms.Unlock()

	ms.logger.Info("Start to Listen", "addr", lstn.Addr().String())
	go func() {
		defer ms.wg.Done()
		ms.acceptLoop(lstn)
	}()
	return nil
}

// ListenAddress returns the address of the listener
func (ms *NodeMesh) ListenAddress() string {
	ms.Lock()
	defer ms.Unlock()

	if ms.listener == nil {
		return ""
	}
	return ms.listener.Addr().String()
}

func (ms *NodeMesh) acceptLoop(lstn net.Listener) {
	for {
		conn, err := lstn.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ms.isStopped() {
				return
			}
			ms.logger.Warn("Accept failed", "err", err)
			time.Sleep(ms.cfg.PollInterval)
			continue
		}
		ID := peer.NewConnectionID(conn.RemoteAddr().String(), peer.Client)
		hs := NewHandshake(ms.localVersion(conn.RemoteAddr()))
		hs.Connect()
		if err := ms.attach(conn, ID, hs); err != nil {
			ms.logger.Debug("Inbound connection refused", "addr", ID.Address, "err", err)
			conn.Close()
		}
	}
}

func (ms *NodeMesh) eventLoop() {
	work.Loop(ms.events, func(ID peer.ConnectionID) {
		if ms.HasPeer(ID) || ms.PeerCount() >= ms.cfg.MaxPeers {
			return
		}
		ms.wg.Add(1)
		go func() {
			defer ms.wg.Done()
			if err := ms.Connect(ID.Address); err != nil {
				ms.logger.Debug("Connect failed", "addr", ID.Address, "err", err)
			}
		}()
	})
}

func (ms *NodeMesh) decayBadPoints() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ms.stopCh:
			return
		case <-ticker.C:
			ms.Lock()
			for ID, point := range ms.badPointMap {
				if point <= 1 {
					delete(ms.badPointMap, ID)
				} else {
					ms.badPointMap[ID] = point - 1
				}
			}
			ms.Unlock()
		}
	}
}

// Discover queues a potential outbound connection
func (ms *NodeMesh) Discover(Address string) {
	ev := ConnectionEvent{PotentialConnection: peer.NewConnectionID(Address, peer.Peer)}
	select {
	case <-ms.stopCh:
	case ms.events <- ev.Work():
	default:
		ms.logger.Debug("Connection event dropped", "addr", Address)
	}
}

// Connect dials the address and starts the handshake
func (ms *NodeMesh) Connect(Address string) error {
	host, port, err := net.SplitHostPort(Address)
	if err != nil {
		return errors.Wrap(ErrInvalidAddress, err.Error())
	}
	if len(host) == 0 {
		return errors.Wrap(ErrInvalidAddress, Address)
	}
	if pn, err := strconv.Atoi(port); err != nil || pn <= 0 || pn > 65535 {
		return errors.Wrap(ErrInvalidAddress, Address)
	}
	if ms.isLocalAddress(host, port) {
		return errors.Wrap(ErrLocalAddress, Address)
	}

	ID := peer.NewConnectionID(Address, peer.Peer)
	ms.Lock()
	if ms.isStop {
		ms.Unlock()
		return errors.WithStack(ErrMeshStopped)
	}
	if _, has := ms.peerMap[ID]; has {
		ms.Unlock()
		return errors.WithStack(ErrAlreadyConnected)
	}
	ms.Unlock()

	hs := NewHandshake(ms.localVersion(nil))
	hs.Connect()
	conn, err := net.DialTimeout("tcp", Address, ms.cfg.DialTimeout)
	if err != nil {
		hs.Fail(err)
		ms.notifier.Notify(&notify.FailedHandshakeWithPeer{Address: Address, Err: err})
		return errors.Wrap(ErrCannotConnect, err.Error())
	}
	hs.local.AddrRecv = message.NewNetAddressFromTCP(conn.RemoteAddr(), 0)
	if err := ms.attach(conn, ID, hs); err != nil {
		conn.Close()
		return err
	}
	return nil
}

func (ms *NodeMesh) attach(conn net.Conn, ID peer.ConnectionID, hs *Handshake) error {
	ms.Lock()
	if ms.isStop {
		ms.Unlock()
		return errors.WithStack(ErrMeshStopped)
	}
	if _, has := ms.peerMap[ID]; has {
		ms.Unlock()
		return errors.WithStack(ErrAlreadyConnected)
	}
	if len(ms.peerMap) >= ms.cfg.MaxPeers {
		ms.Unlock()
		return errors.WithStack(ErrTooManyPeers)
	}
	p := NewTCPPeer(conn, ID, hs, ms.network.Magic(), ms.cfg, ms, ms.recorder)
	ms.peerMap[ID] = p
	ms.wg.Add(1)
	ms.Unlock()

	ms.logger.Debug("Attempting handshake", "peer", ID.String())
	ms.notifier.Notify(&notify.AttemptingHandshakeWithPeer{Address: ID.Address})
	if err := p.Start(); err != nil {
		ms.Lock()
		delete(ms.peerMap, ID)
		ms.Unlock()
		ms.wg.Done()
		p.Close()
		ms.notifier.Notify(&notify.FailedHandshakeWithPeer{Address: ID.Address, Err: err})
		return err
	}
	go func() {
		defer ms.wg.Done()
		p.Run()
	}()
	return nil
}

func (ms *NodeMesh) localVersion(remote net.Addr) *message.Version {
	ms.Lock()
	height := ms.height
	var from message.NetAddress
	if ms.listener != nil {
		from = message.NewNetAddressFromTCP(ms.listener.Addr(), ms.cfg.Services)
	} else {
		from = message.NewNetAddress(net.IPv6zero, 0, ms.cfg.Services)
	}
	ms.Unlock()

	recv := message.NewNetAddress(net.IPv6zero, 0, 0)
	if remote != nil {
		recv = message.NewNetAddressFromTCP(remote, 0)
	}
	return &message.Version{
		ProtocolVersion: ProtocolVersion,
		Services:        ms.cfg.Services,
		Timestamp:       time.Now().Unix(),
		AddrRecv:        recv,
		AddrFrom:        from,
		Nonce:           ms.nonce,
		UserAgent:       ms.cfg.UserAgent,
		StartHeight:     height(),
		Relay:           ms.cfg.Relay,
	}
}

func (ms *NodeMesh) isLocalAddress(host string, port string) bool {
	ms.Lock()
	defer ms.Unlock()

	if ms.listener == nil {
		return false
	}
	_, lport, err := net.SplitHostPort(ms.listener.Addr().String())
	if err != nil || lport != port {
		return false
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && (ip.IsLoopback() || ip.IsUnspecified())
}

func (ms *NodeMesh) isStopped() bool {
	ms.Lock()
	defer ms.Unlock()

	return ms.isStop
}

// Stop stops every worker and waits until they return
func (ms *NodeMesh) Stop() {
	ms.Lock()
	if ms.isStop {
		ms.Unlock()
		ms.wg.Wait()
		return
	}
	ms.isStop = true
	close(ms.stopCh)
	lstn := ms.listener
	isRunning := ms.isRunning
	peers := make([]*TCPPeer, 0, len(ms.peerMap))
	for _, p := range ms.peerMap {
		peers = append(peers, p)
	}
	ms.Unlock()

	if lstn != nil {
		lstn.Close()
	}
	if isRunning {
		ms.events <- ConnectionEvent{Stop: true}.Work()
	}
	for _, p := range peers {
		p.Stop()
	}
	ms.wg.Wait()
	ms.logger.Info("Mesh stopped")
}

// HasPeer returns the connection exists or not
func (ms *NodeMesh) HasPeer(ID peer.ConnectionID) bool {
	ms.Lock()
	defer ms.Unlock()

	_, has := ms.peerMap[ID]
	return has
}

// PeerCount returns the number of connections
func (ms *NodeMesh) PeerCount() int {
	ms.Lock()
	defer ms.Unlock()

	return len(ms.peerMap)
}

// Peers returns peers of the node mesh
func (ms *NodeMesh) Peers() []peer.Conn {
	ms.Lock()
	defer ms.Unlock()

	peers := make([]peer.Conn, 0, len(ms.peerMap))
	for _, p := range ms.peerMap {
		peers = append(peers, p)
	}
	return peers
}

// ReadyPeers returns the peers that completed the handshake
func (ms *NodeMesh) ReadyPeers() []*TCPPeer {
	ms.Lock()
	defer ms.Unlock()

	peers := []*TCPPeer{}
	for _, p := range ms.peerMap {
		if p.State() == peer.Ready {
			peers = append(peers, p)
		}
	}
	return peers
}

// GetPeer returns the peer of the id
func (ms *NodeMesh) GetPeer(ID peer.ConnectionID) (*TCPPeer, error) {
	ms.Lock()
	defer ms.Unlock()

	p, has := ms.peerMap[ID]
	if !has {
		return nil, errors.WithStack(ErrNotExistPeer)
	}
	return p, nil
}

// SendTo sends a message to the peer
func (ms *NodeMesh) SendTo(ID peer.ConnectionID, m message.Message) error {
	p, err := ms.GetPeer(ID)
	if err != nil {
		return err
	}
	p.Send(m)
	return nil
}

// ExceptCast sends a message to every ready peer except the peer
func (ms *NodeMesh) ExceptCast(ID peer.ConnectionID, m message.Message) {
	for _, p := range ms.ReadyPeers() {
		if p.ID() != ID && p.wants(m) {
			p.Send(m)
		}
	}
}

// BroadcastMessage sends a message to every ready peer
func (ms *NodeMesh) BroadcastMessage(m message.Message) {
	for _, p := range ms.ReadyPeers() {
		if p.wants(m) {
			p.Send(m)
		}
	}
}

// RemovePeer closes the connection of the peer
func (ms *NodeMesh) RemovePeer(ID peer.ConnectionID) {
	if p, err := ms.GetPeer(ID); err == nil {
		p.Close()
	}
}

// AddBadPoint adds bad points to the peer
func (ms *NodeMesh) AddBadPoint(ID peer.ConnectionID, Point int) bool {
	ms.Lock()
	defer ms.Unlock()

	ms.badPointMap[ID] += Point
	return ms.badPointMap[ID] >= MaxBadPoints
}

// OnReady is called when the handshake with the peer is completed
func (ms *NodeMesh) OnReady(p *TCPPeer) error {
	remote := p.Remote()
	ID := p.ID()
	if ID.Type == peer.Peer && ms.book != nil {
		if err := ms.book.MarkGood(ID.Address, time.Now()); err != nil {
			ms.logger.Warn("Address book update failed", "addr", ID.Address, "err", err)
		}
		p.Send(&message.GetAddr{})
	}
	ms.recorder.PeerConnected(ID.Type)
	ms.logger.Info("Peer ready", "peer", ID.String(), "agent", remote.UserAgent, "height", remote.StartHeight)
	ms.notifier.Notify(&notify.SuccessfulHandshakeWithPeer{
		Address:   ID.Address,
		UserAgent: remote.UserAgent,
		Height:    remote.StartHeight,
	})
	return nil
}

// OnRecv is called when a ready peer delivers a message
func (ms *NodeMesh) OnRecv(p *TCPPeer, m message.Message) error {
	ID := p.ID()
	switch msg := m.(type) {
	case *message.BlockMessage:
		ms.publish(&BroadcastBlock{Block: msg.Block, Origin: &ID})
	case *message.TxMessage:
		ms.publish(&BroadcastTransaction{Tx: msg.Tx, Origin: &ID})
	case *message.GetAddr:
		p.Send(ms.addrMessage())
	case *message.Addr:
		ms.storeAddresses(msg)
	}
	return nil
}

// OnClosed is called after the worker of the peer has returned
func (ms *NodeMesh) OnClosed(p *TCPPeer, wasReady bool, err error) {
	ID := p.ID()
	ms.Lock()
	if cur, has := ms.peerMap[ID]; has && cur == p {
		delete(ms.peerMap, ID)
	}
	delete(ms.badPointMap, ID)
	ms.Unlock()

	if wasReady {
		ms.recorder.PeerDisconnected(ID.Type)
		ms.logger.Info("Peer closed", "peer", ID.String(), "state", p.State(), "err", err)
		ms.notifier.Notify(&notify.ConnectionClosed{Address: ID.Address, Err: err})
		return
	}
	if err == nil {
		err = errors.WithStack(ErrPeerClosed)
	}
	ms.logger.Info("Handshake failed", "peer", ID.String(), "err", err)
	ms.notifier.Notify(&notify.FailedHandshakeWithPeer{Address: ID.Address, Err: err})
}

func (ms *NodeMesh) publish(mb MessageBroadcasting) {
	select {
	case ms.bus <- work.Information(mb):
	case <-ms.stopCh:
	}
}

func (ms *NodeMesh) addrMessage() *message.Addr {
	msg := &message.Addr{Addresses: []*message.TimedNetAddress{}}
	if ms.book == nil {
		return msg
	}
	list, err := ms.book.List(message.MaxAddrPerMessage)
	if err != nil {
		ms.logger.Warn("Address book read failed", "err", err)
		return msg
	}
	for _, e := range list {
		host, port, err := net.SplitHostPort(e.Address)
		if err != nil {
			continue
		}
		ip := net.ParseIP(host)
		pn, err := strconv.Atoi(port)
		if ip == nil || err != nil {
			continue
		}
		msg.Addresses = append(msg.Addresses, &message.TimedNetAddress{
			Timestamp:  uint32(e.LastSeen),
			NetAddress: message.NewNetAddress(ip, uint16(pn), e.Services),
		})
	}
	return msg
}

func (ms *NodeMesh) storeAddresses(msg *message.Addr) {
	for _, ta := range msg.Addresses {
		if ta.Port == 0 || ta.IP == nil || ta.IP.IsUnspecified() {
			continue
		}
		addr := ta.NetAddress.String()
		isNew := true
		if ms.book != nil {
			var err error
			isNew, err = ms.book.Put(addr, ta.Services, time.Unix(int64(ta.Timestamp), 0))
			if err != nil {
				ms.logger.Warn("Address book update failed", "addr", addr, "err", err)
				continue
			}
		}
		if isNew && ms.PeerCount() < ms.cfg.MaxPeers {
			ms.Discover(addr)
		}
	}
}
