package message

import (
	"io"
	"net"
	"strconv"

	"github.com/meverselabs/coinnet/common/bin"
	"github.com/meverselabs/coinnet/core/types"
	"github.com/pkg/errors"
)

// commands
const (
	CmdVersion = "version"
	CmdVerack  = "verack"
	CmdPing    = "ping"
	CmdPong    = "pong"
	CmdGetAddr = "getaddr"
	CmdAddr    = "addr"
	CmdBlock   = "block"
	CmdTx      = "tx"
)

// MaxAddrPerMessage is the largest address count of an addr message
const MaxAddrPerMessage = 1000

// SFNodeNetwork is the service bit of a full node
const SFNodeNetwork uint64 = 1

func init() {
	RegisterMessage(&Version{})
	RegisterMessage(&Verack{})
	RegisterMessage(&Ping{})
	RegisterMessage(&Pong{})
	RegisterMessage(&GetAddr{})
	RegisterMessage(&Addr{})
	RegisterMessage(&BlockMessage{})
	RegisterMessage(&TxMessage{})
}

// NetAddress is a services/ip/port triple. The ip and the port are in network byte order.
type NetAddress struct {
	Services uint64
	IP       net.IP
	Port     uint16
}

// NewNetAddress returns a NetAddress
func NewNetAddress(ip net.IP, port uint16, services uint64) NetAddress {
	return NetAddress{
		Services: services,
		IP:       ip.To16(),
		Port:     port,
	}
}

// NewNetAddressFromTCP returns the NetAddress of the tcp address
func NewNetAddressFromTCP(addr net.Addr, services uint64) NetAddress {
	if tcp, is := addr.(*net.TCPAddr); is {
		return NewNetAddress(tcp.IP, uint16(tcp.Port), services)
	}
	return NewNetAddress(net.IPv6zero, 0, services)
}

// String returns the host:port form of the address
func (na NetAddress) String() string {
	return net.JoinHostPort(na.IP.String(), strconv.Itoa(int(na.Port)))
}

// WriteTo is a serialization function
func (na *NetAddress) WriteTo(w io.Writer) (int64, error) {
	ip := na.IP.To16()
	if ip == nil {
		ip = net.IPv6zero
	}
	sw := bin.NewSumWriter()
	if sum, err := sw.Uint64(w, na.Services); err != nil {
		return sum, err
	}
	if sum, err := sw.Fixed(w, ip); err != nil {
		return sum, err
	}
	if sum, err := sw.Uint16BE(w, na.Port); err != nil {
		return sum, err
	}
	return sw.Sum(), nil
}

// ReadFrom is a deserialization function
func (na *NetAddress) ReadFrom(r io.Reader) (int64, error) {
	sr := bin.NewSumReader()
	if sum, err := sr.Uint64(r, &na.Services); err != nil {
		return sum, err
	}
	ip := make(net.IP, net.IPv6len)
	if sum, err := sr.Fixed(r, ip); err != nil {
		return sum, err
	}
	na.IP = ip
	if sum, err := sr.Uint16BE(r, &na.Port); err != nil {
		return sum, err
	}
	return sr.Sum(), nil
}

// Version opens the handshake
type Version struct {
	ProtocolVersion int32
	Services        uint64
	Timestamp       int64
	AddrRecv        NetAddress
	AddrFrom        NetAddress
	Nonce           uint64
	UserAgent       string
	StartHeight     int32
	Relay           bool
}

func (m *Version) Command() string {
	return CmdVersion
}

func (m *Version) WriteTo(w io.Writer) (int64, error) {
	sw := bin.NewSumWriter()
	if sum, err := sw.Int32(w, m.ProtocolVersion); err != nil {
		return sum, err
	}
	if sum, err := sw.Uint64(w, m.Services); err != nil {
		return sum, err
	}
	if sum, err := sw.Int64(w, m.Timestamp); err != nil {
		return sum, err
	}
	if sum, err := sw.WriterTo(w, &m.AddrRecv); err != nil {
		return sum, err
	}
	if sum, err := sw.WriterTo(w, &m.AddrFrom); err != nil {
		return sum, err
	}
	if sum, err := sw.Uint64(w, m.Nonce); err != nil {
		return sum, err
	}
	if sum, err := sw.VarString(w, m.UserAgent); err != nil {
		return sum, err
	}
	if sum, err := sw.Int32(w, m.StartHeight); err != nil {
		return sum, err
	}
	if sum, err := sw.Bool(w, m.Relay); err != nil {
		return sum, err
	}
	return sw.Sum(), nil
}

// ReadFrom reads the version. A payload without the trailing relay flag relays.
func (m *Version) ReadFrom(r io.Reader) (int64, error) {
	sr := bin.NewSumReader()
	if sum, err := sr.Int32(r, &m.ProtocolVersion); err != nil {
		return sum, err
	}
	if sum, err := sr.Uint64(r, &m.Services); err != nil {
		return sum, err
	}
	if sum, err := sr.Int64(r, &m.Timestamp); err != nil {
		return sum, err
	}
	if sum, err := sr.ReaderFrom(r, &m.AddrRecv); err != nil {
		return sum, err
	}
	if sum, err := sr.ReaderFrom(r, &m.AddrFrom); err != nil {
		return sum, err
	}
	if sum, err := sr.Uint64(r, &m.Nonce); err != nil {
		return sum, err
	}
	if sum, err := sr.VarString(r, &m.UserAgent); err != nil {
		return sum, err
	}
	if sum, err := sr.Int32(r, &m.StartHeight); err != nil {
		return sum, err
	}
	if sum, err := sr.Bool(r, &m.Relay); err != nil {
		if errors.Cause(err) != io.EOF {
			return sum, err
		}
		m.Relay = true
	}
	return sr.Sum(), nil
}

// Verack acknowledges a version
type Verack struct{}

func (m *Verack) Command() string {
	return CmdVerack
}

func (m *Verack) WriteTo(w io.Writer) (int64, error) {
	return 0, nil
}

func (m *Verack) ReadFrom(r io.Reader) (int64, error) {
	return 0, nil
}

// Ping checks the peer is alive
type Ping struct {
	Nonce uint64
}

func (m *Ping) Command() string {
	return CmdPing
}

func (m *Ping) WriteTo(w io.Writer) (int64, error) {
	return bin.WriteUint64(w, m.Nonce)
}

func (m *Ping) ReadFrom(r io.Reader) (int64, error) {
	v, n, err := bin.ReadUint64(r)
	if err != nil {
		return n, err
	}
	m.Nonce = v
	return n, nil
}

// Pong answers a ping with the same nonce
type Pong struct {
	Nonce uint64
}

func (m *Pong) Command() string {
	return CmdPong
}

func (m *Pong) WriteTo(w io.Writer) (int64, error) {
	return bin.WriteUint64(w, m.Nonce)
}

func (m *Pong) ReadFrom(r io.Reader) (int64, error) {
	v, n, err := bin.ReadUint64(r)
	if err != nil {
		return n, err
	}
	m.Nonce = v
	return n, nil
}

// GetAddr requests known addresses
type GetAddr struct{}

func (m *GetAddr) Command() string {
	return CmdGetAddr
}

func (m *GetAddr) WriteTo(w io.Writer) (int64, error) {
	return 0, nil
}

func (m *GetAddr) ReadFrom(r io.Reader) (int64, error) {
	return 0, nil
}

// TimedNetAddress is a NetAddress with the last seen time
type TimedNetAddress struct {
	Timestamp uint32
	NetAddress
}

// WriteTo is a serialization function
func (ta *TimedNetAddress) WriteTo(w io.Writer) (int64, error) {
	sw := bin.NewSumWriter()
	if sum, err := sw.Uint32(w, ta.Timestamp); err != nil {
		return sum, err
	}
	if sum, err := sw.WriterTo(w, &ta.NetAddress); err != nil {
		return sum, err
	}
	return sw.Sum(), nil
}

// ReadFrom is a deserialization function
func (ta *TimedNetAddress) ReadFrom(r io.Reader) (int64, error) {
	sr := bin.NewSumReader()
	if sum, err := sr.Uint32(r, &ta.Timestamp); err != nil {
		return sum, err
	}
	if sum, err := sr.ReaderFrom(r, &ta.NetAddress); err != nil {
		return sum, err
	}
	return sr.Sum(), nil
}

// Addr delivers known addresses
type Addr struct {
	Addresses []*TimedNetAddress
}

func (m *Addr) Command() string {
	return CmdAddr
}

func (m *Addr) WriteTo(w io.Writer) (int64, error) {
	if len(m.Addresses) > MaxAddrPerMessage {
		return 0, errors.WithStack(ErrTooManyAddresses)
	}
	sw := bin.NewSumWriter()
	if sum, err := sw.VarInt(w, uint64(len(m.Addresses))); err != nil {
		return sum, err
	}
	for _, ta := range m.Addresses {
		if sum, err := sw.WriterTo(w, ta); err != nil {
			return sum, err
		}
	}
	return sw.Sum(), nil
}

func (m *Addr) ReadFrom(r io.Reader) (int64, error) {
	sr := bin.NewSumReader()
	var Len uint64
	if sum, err := sr.VarInt(r, &Len); err != nil {
		return sum, err
	}
	if Len > MaxAddrPerMessage {
		return sr.Sum(), errors.WithStack(ErrTooManyAddresses)
	}
	m.Addresses = make([]*TimedNetAddress, 0, Len)
	for i := uint64(0); i < Len; i++ {
		ta := &TimedNetAddress{}
		if sum, err := sr.ReaderFrom(r, ta); err != nil {
			return sum, err
		}
		m.Addresses = append(m.Addresses, ta)
	}
	return sr.Sum(), nil
}

// BlockMessage delivers a block
type BlockMessage struct {
	Block *types.Block
}

func (m *BlockMessage) Command() string {
	return CmdBlock
}

func (m *BlockMessage) WriteTo(w io.Writer) (int64, error) {
	return m.Block.WriteTo(w)
}

func (m *BlockMessage) ReadFrom(r io.Reader) (int64, error) {
	m.Block = &types.Block{}
	return m.Block.ReadFrom(r)
}

// TxMessage delivers a transaction
type TxMessage struct {
	Tx *types.Transaction
}

func (m *TxMessage) Command() string {
	return CmdTx
}

func (m *TxMessage) WriteTo(w io.Writer) (int64, error) {
	return m.Tx.WriteTo(w)
}

func (m *TxMessage) ReadFrom(r io.Reader) (int64, error) {
	m.Tx = &types.Transaction{}
	return m.Tx.ReadFrom(r)
}
