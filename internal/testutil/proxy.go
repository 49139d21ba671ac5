package testutil

import (
	"bufio"
	"context"
	"encoding/base64"
	"io"
	"net"
	"net/http"
	"testing"

	"github.com/die-net/socksrelay/internal/socks5"
)

// TunnelFunc serves one established tunnel. target is the address the proxy
// client asked for and rw is the client side of the tunnel.
type TunnelFunc func(target string, rw io.ReadWriter)

// EchoTunnel echoes tunnel bytes back to the client without dialing target.
func EchoTunnel(target string, rw io.ReadWriter) {
	_, _ = io.Copy(rw, rw)
}

// StartHTTPProxy starts a minimal HTTP CONNECT proxy. When auth.Username is
// non-empty the proxy answers 407 unless matching Basic credentials are sent.
// Every accepted CONNECT is handed to tunnel.
func StartHTTPProxy(t *testing.T, ctx context.Context, auth socks5.Auth, tunnel TunnelFunc) net.Listener {
	t.Helper()

	want := ""
	if auth.Username != "" {
		want = "Basic " + base64.StdEncoding.EncodeToString([]byte(auth.Username+":"+auth.Password))
	}

	return StartServer(t, ctx, func(c net.Conn) {
		br := bufio.NewReader(c)
		req, err := http.ReadRequest(br)
		if err != nil {
			return
		}
		_ = req.Body.Close()

		if req.Method != http.MethodConnect {
			_, _ = io.WriteString(c, "HTTP/1.1 405 Method Not Allowed\r\n\r\n")
			return
		}
		if want != "" && req.Header.Get("Proxy-Authorization") != want {
			_, _ = io.WriteString(c, "HTTP/1.1 407 Proxy Authentication Required\r\n\r\n")
			return
		}

		if _, err := io.WriteString(c, "HTTP/1.1 200 Connection Established\r\n\r\n"); err != nil {
			return
		}
		tunnel(req.Host, struct {
			io.Reader
			io.Writer
		}{br, c})
	})
}

// StartSOCKS5Proxy starts a minimal SOCKS5 proxy supporting CONNECT. When
// auth.Username is non-empty clients must authenticate with matching
// username/password. Every accepted CONNECT is handed to tunnel.
func StartSOCKS5Proxy(t *testing.T, ctx context.Context, auth socks5.Auth, tunnel TunnelFunc) net.Listener {
	t.Helper()

	return StartServer(t, ctx, func(c net.Conn) {
		if err := socks5.ServerNegotiate(c, auth); err != nil {
			return
		}
		req, err := socks5.ServerReadRequest(c)
		if err != nil {
			return
		}
		if req.Cmd != socks5.CmdConnect {
			_ = socks5.WriteCommandNotSupportedReply(c, req.Atyp)
			return
		}
		if err := socks5.WriteSuccessReply(c, c.LocalAddr()); err != nil {
			return
		}
		tunnel(req.Address(), c)
	})
}

// DialTunnel returns a TunnelFunc that dials target for real and pipes bytes
// until either side finishes.
func DialTunnel(ctx context.Context) TunnelFunc {
	return func(target string, rw io.ReadWriter) {
		d := net.Dialer{}
		dst, err := d.DialContext(ctx, "tcp", target)
		if err != nil {
			return
		}
		defer dst.Close()

		go func() {
			_, _ = io.Copy(dst, rw)
			_ = dst.Close()
		}()
		_, _ = io.Copy(rw, dst)
	}
}
