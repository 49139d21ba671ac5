package relay

import (
	"net"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/die-net/socksrelay/internal/upstream"
)

const (
	DefaultListenHost         = "127.0.0.1"
	DefaultConnectTimeout     = 10 * time.Second
	DefaultNegotiationTimeout = 10 * time.Second
)

type Config struct {
	Upstream upstream.Endpoint

	ListenHost string
	ListenPort uint16

	// ConnectTimeout bounds the whole upstream connect, handshake included.
	ConnectTimeout time.Duration
	// NegotiationTimeout bounds the inbound SOCKS5 handshake and command read.
	NegotiationTimeout time.Duration

	KeepAlive net.KeepAliveConfig

	Logger zerolog.Logger
}

func (c Config) withDefaults() Config {
	if c.ListenHost == "" {
		c.ListenHost = DefaultListenHost
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.NegotiationTimeout <= 0 {
		c.NegotiationTimeout = DefaultNegotiationTimeout
	}
	return c
}

// ListenAddr returns the host:port the router binds to.
func (c Config) ListenAddr() string {
	host := c.ListenHost
	if host == "" {
		host = DefaultListenHost
	}
	return net.JoinHostPort(host, strconv.Itoa(int(c.ListenPort)))
}
