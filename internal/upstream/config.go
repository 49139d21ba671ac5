package upstream

import (
	"net"
	"time"
)

type Config struct {
	// DialTimeout bounds the TCP connect to the upstream proxy. Zero means no limit.
	DialTimeout time.Duration
	// NegotiationTimeout bounds the CONNECT handshake with the upstream proxy.
	NegotiationTimeout time.Duration

	KeepAlive net.KeepAliveConfig
}
