package relay

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/rs/zerolog"

	"github.com/die-net/socksrelay/internal/socks5"
)

// ErrCommandNotSupported is returned for SOCKS5 commands other than CONNECT.
var ErrCommandNotSupported = errors.New("command not supported")

// placeholderBindAddr is reported as BND.ADDR/BND.PORT in every success reply;
// the upstream-side local address is not exposed to clients.
var placeholderBindAddr = &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0}

// serveConn runs one inbound connection through handshake, command read,
// upstream connect, reply, and relay. conn is always closed on return.
func (r *Router) serveConn(ctx context.Context, log *zerolog.Logger, conn net.Conn) error {
	defer conn.Close()

	if r.cfg.NegotiationTimeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(r.cfg.NegotiationTimeout))
	}

	if err := socks5.ServerNegotiateNoAuth(conn); err != nil {
		return fmt.Errorf("handshake: %w", err)
	}

	req, err := socks5.ServerReadRequest(conn)
	if err != nil {
		return fmt.Errorf("read command: %w", err)
	}

	_ = conn.SetDeadline(time.Time{})

	if req.Cmd != socks5.CmdConnect {
		if err := socks5.WriteCommandNotSupportedReply(conn, req.Atyp); err != nil {
			return err
		}
		return fmt.Errorf("%w: %#x", ErrCommandNotSupported, req.Cmd)
	}

	target, err := socks5.TargetFromRequest(req)
	if err != nil {
		_ = socks5.WriteReply(conn, socks5.AddressTypeNotSupported, req.Atyp)
		return err
	}

	sublog := log.With().Stringer("target", target).Logger()
	log = &sublog

	up, err := r.connector.ConnectWithTimeout(ctx, target.Host, target.Port, r.cfg.ConnectTimeout)
	if err != nil {
		code := TranslateError(err)
		if werr := socks5.WriteReply(conn, code, req.Atyp); werr != nil {
			log.Debug().Err(werr).Msg("failed to send failure reply")
		}
		return fmt.Errorf("upstream connect %s (replied %s): %w", target, code, err)
	}
	defer up.Close()

	if err := socks5.WriteSuccessReply(conn, placeholderBindAddr); err != nil {
		return err
	}

	log.Debug().Msg("relaying")

	if err := CopyBidirectional(ctx, conn, up); err != nil && !IsCleanClose(err) {
		return fmt.Errorf("relay %s: %w", target, err)
	}

	log.Info().Msg("relay closed")
	return nil
}
