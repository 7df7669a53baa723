package p2p

import (
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Mode is the operating mode of the mesh
type Mode uint8

// modes
const (
	// ServerMode listens for inbound connections and dials peers
	ServerMode Mode = iota + 1
	// ClientMode only dials peers
	ClientMode
)

func (m Mode) String() string {
	switch m {
	case ServerMode:
		return "server"
	case ClientMode:
		return "client"
	default:
		return "unknown"
	}
}

// ParseMode parses server or client
func ParseMode(str string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(str)) {
	case "server", "":
		return ServerMode, nil
	case "client":
		return ClientMode, nil
	default:
		return 0, errors.Wrap(ErrInvalidMode, str)
	}
}

// defaults
const (
	DefaultMaxPeers          = 8
	DefaultSeenCacheSize     = 10000
	DefaultPollInterval      = 100 * time.Millisecond
	DefaultMessageTimeout    = 30 * time.Second
	DefaultDialTimeout       = 10 * time.Second
	DefaultWriteTimeout      = 5 * time.Second
	DefaultPingInterval      = 2 * time.Minute
	DefaultInactivityTimeout = 20 * time.Minute
	DefaultUserAgent         = "/coinnet:0.1.0/"
	MaxBadPoints             = 3
	OutboundQueueSize        = 256
)

// Config is the configuration of the mesh and the dispatcher
type Config struct {
	Mode              Mode
	BindAddress       string
	MaxPeers          int
	UserAgent         string
	Services          uint64
	Relay             bool
	SeenCacheSize     int
	DialTimeout       time.Duration
	PollInterval      time.Duration
	MessageTimeout    time.Duration
	WriteTimeout      time.Duration
	PingInterval      time.Duration
	InactivityTimeout time.Duration
}

func (cfg Config) withDefaults() Config {
	if cfg.Mode == 0 {
		cfg.Mode = ServerMode
	}
	if cfg.MaxPeers <= 0 {
		cfg.MaxPeers = DefaultMaxPeers
	}
	if len(cfg.UserAgent) == 0 {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.SeenCacheSize <= 0 {
		cfg.SeenCacheSize = DefaultSeenCacheSize
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = DefaultDialTimeout
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.MessageTimeout <= 0 {
		cfg.MessageTimeout = DefaultMessageTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = DefaultPingInterval
	}
	if cfg.InactivityTimeout <= 0 {
		cfg.InactivityTimeout = DefaultInactivityTimeout
	}
	return cfg
}
