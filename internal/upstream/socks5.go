package upstream

import (
	"net"
	"time"

	"github.com/die-net/socksrelay/internal/socks5"
)

// socks5Connect runs the client side of a SOCKS5 handshake on c, requesting a
// CONNECT to address. c is left open on failure; the caller owns it.
func socks5Connect(c net.Conn, cfg Config, auth Auth, address string) error {
	if cfg.NegotiationTimeout > 0 {
		_ = c.SetDeadline(time.Now().Add(cfg.NegotiationTimeout))
	}

	if err := socks5.ClientDial(c, socks5.Auth{Username: auth.Username, Password: auth.Password}, address); err != nil {
		return err
	}

	if cfg.NegotiationTimeout > 0 {
		_ = c.SetDeadline(time.Time{})
	}
	return nil
}
