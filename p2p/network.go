package p2p

import (
	"net"
	"strings"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/meverselabs/coinnet/common/binutil"
	"github.com/meverselabs/coinnet/common/hash"
	"github.com/meverselabs/coinnet/common/rlog"
	"github.com/meverselabs/coinnet/p2p/message"
	"github.com/pkg/errors"
)

// Network binds the chain parameters of a bitcoin network
type Network struct {
	Params *chaincfg.Params
}

var gNetworkMap = map[string]*chaincfg.Params{
	"mainnet":  &chaincfg.MainNetParams,
	"testnet3": &chaincfg.TestNet3Params,
	"testnet":  &chaincfg.TestNet3Params,
	"regtest":  &chaincfg.RegressionNetParams,
}

// NetworkByName returns the network of the name
func NetworkByName(name string) (*Network, error) {
	params, has := gNetworkMap[strings.ToLower(strings.TrimSpace(name))]
	if !has {
		return nil, errors.Wrap(ErrInvalidNetwork, name)
	}
	return &Network{Params: params}, nil
}

// Name returns the name of the network
func (n *Network) Name() string {
	return n.Params.Name
}

// Magic returns the message start bytes of the network
func (n *Network) Magic() message.Magic {
	var m message.Magic
	binutil.LittleEndian.PutUint32(m[:], uint32(n.Params.Net))
	return m
}

// DefaultPort returns the default peer port of the network
func (n *Network) DefaultPort() string {
	return n.Params.DefaultPort
}

// Genesis returns the genesis block hash of the network
func (n *Network) Genesis() hash.Hash256 {
	return *n.Params.GenesisHash
}

// SeedHosts returns the dns seeds of the network
func (n *Network) SeedHosts() []string {
	hosts := make([]string, 0, len(n.Params.DNSSeeds))
	for _, s := range n.Params.DNSSeeds {
		hosts = append(hosts, s.Host)
	}
	return hosts
}

// NormalizeAddress appends the default port when the address has no port
func (n *Network) NormalizeAddress(addr string) (string, error) {
	addr = strings.TrimSpace(addr)
	if len(addr) == 0 {
		return "", errors.WithStack(ErrInvalidAddress)
	}
	if _, _, err := net.SplitHostPort(addr); err == nil {
		return addr, nil
	}
	host := strings.TrimSuffix(strings.TrimPrefix(addr, "["), "]")
	return net.JoinHostPort(host, n.DefaultPort()), nil
}

// ResolveSeeds looks up the seed hosts and returns their addresses on the default port
func (n *Network) ResolveSeeds(hosts []string, lookup func(host string) ([]string, error)) []string {
	if lookup == nil {
		lookup = net.LookupHost
	}
	logger := rlog.New("module", "p2p", "network", n.Name())

	addrs := []string{}
	for _, host := range hosts {
		ips, err := lookup(host)
		if err != nil {
			logger.Warn("Seed lookup failed", "host", host, "err", err)
			continue
		}
		for _, ip := range ips {
			addrs = append(addrs, net.JoinHostPort(ip, n.DefaultPort()))
		}
	}
	return addrs
}
