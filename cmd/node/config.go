package main

import (
	"net"
	"strings"

	"github.com/meverselabs/coinnet/cmd/config"
	"github.com/meverselabs/coinnet/core/types"
	"github.com/meverselabs/coinnet/p2p"
)

// Config is a configuration for the node
type Config struct {
	Mode           string          `yaml:"Mode"`
	Network        string          `yaml:"Network"`
	BindAddress    string          `yaml:"BindAddress"`
	Peers          []string        `yaml:"Peers"`
	Seeds          []string        `yaml:"Seeds"`
	UseDNSSeeds    bool            `yaml:"UseDNSSeeds"`
	MaxPeers       int             `yaml:"MaxPeers"`
	UserAgent      string          `yaml:"UserAgent"`
	PeerStorePath  string          `yaml:"PeerStorePath"`
	APIAddress     string          `yaml:"APIAddress"`
	ZMQAddress     string          `yaml:"ZMQAddress"`
	Relay          *bool           `yaml:"Relay"`
	Accounts       []string        `yaml:"Accounts"`
	PollInterval   config.Duration `yaml:"PollInterval"`
	MessageTimeout config.Duration `yaml:"MessageTimeout"`
	DialTimeout    config.Duration `yaml:"DialTimeout"`
}

// LoadConfig reads the config file and fills the defaults
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	if err := config.LoadFile(path, cfg); err != nil {
		return nil, err
	}
	if len(cfg.Network) == 0 {
		cfg.Network = "mainnet"
	}
	if cfg.Relay == nil {
		relay := true
		cfg.Relay = &relay
	}
	return cfg, nil
}

// P2PConfig returns the mesh configuration of the node
func (cfg *Config) P2PConfig(network *p2p.Network) (p2p.Config, error) {
	mode, err := p2p.ParseMode(cfg.Mode)
	if err != nil {
		return p2p.Config{}, err
	}
	BindAddress := cfg.BindAddress
	if len(BindAddress) == 0 {
		BindAddress = net.JoinHostPort("", network.DefaultPort())
	}
	return p2p.Config{
		Mode:           mode,
		BindAddress:    BindAddress,
		MaxPeers:       cfg.MaxPeers,
		UserAgent:      cfg.UserAgent,
		Services:       0,
		Relay:          cfg.Relay == nil || *cfg.Relay,
		PollInterval:   cfg.PollInterval.Duration,
		MessageTimeout: cfg.MessageTimeout.Duration,
		DialTimeout:    cfg.DialTimeout.Duration,
	}, nil
}

// ParseAccounts parses the watched accounts
func (cfg *Config) ParseAccounts() ([]types.Account, error) {
	accs := make([]types.Account, 0, len(cfg.Accounts))
	for _, str := range cfg.Accounts {
		acc, err := types.ParseAccount(str)
		if err != nil {
			return nil, err
		}
		accs = append(accs, acc)
	}
	return accs, nil
}

// Addresses returns the explicit peers followed by the resolved seeds without duplicates
func (cfg *Config) Addresses(network *p2p.Network, lookup func(host string) ([]string, error)) ([]string, error) {
	addrs := []string{}
	addrSet := map[string]bool{}
	add := func(addr string) {
		if !addrSet[addr] {
			addrSet[addr] = true
			addrs = append(addrs, addr)
		}
	}
	for _, str := range cfg.Peers {
		addr, err := network.NormalizeAddress(str)
		if err != nil {
			return nil, err
		}
		add(addr)
	}

	hosts := []string{}
	for _, h := range cfg.Seeds {
		if h = strings.TrimSpace(h); len(h) > 0 {
			hosts = append(hosts, h)
		}
	}
	if cfg.UseDNSSeeds {
		hosts = append(hosts, network.SeedHosts()...)
	}
	for _, addr := range network.ResolveSeeds(hosts, lookup) {
		add(addr)
	}
	return addrs, nil
}
