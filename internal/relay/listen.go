package relay

import (
	"context"
	"fmt"
	"net"
)

// keepAliveListener applies the router's keepalive settings to each accepted
// client before it reaches the SOCKS5 handshake.
type keepAliveListener struct {
	net.Listener
	ka net.KeepAliveConfig
}

func (l keepAliveListener) Accept() (net.Conn, error) {
	c, err := l.Listener.Accept()
	if err != nil {
		return nil, err
	}
	if tc, ok := c.(*net.TCPConn); ok {
		_ = tc.SetKeepAliveConfig(l.ka)
	}
	return c, nil
}

// listen binds cfg's listen address.
func listen(ctx context.Context, cfg Config) (net.Listener, error) {
	var lc net.ListenConfig

	addr := cfg.ListenAddr()
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("bind %s: %w", addr, err)
	}
	return keepAliveListener{Listener: ln, ka: cfg.KeepAlive}, nil
}
