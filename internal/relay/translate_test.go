//go:build unix

package relay

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"testing"
	"time"

	"golang.org/x/sys/unix"

	"github.com/die-net/socksrelay/internal/socks5"
	"github.com/die-net/socksrelay/internal/upstream"
)

func dialErr(errno unix.Errno) error {
	return &net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", errno)}
}

var translateTests = []struct {
	name string
	err  error
	want socks5.ReplyCode
}{
	{name: "timeout", err: upstream.ErrConnectionTimeout, want: socks5.ConnectionTimeout},
	{name: "deadline", err: &upstream.HTTPError{Err: context.DeadlineExceeded}, want: socks5.ConnectionTimeout},
	{name: "refused", err: &upstream.HTTPError{Err: dialErr(unix.ECONNREFUSED)}, want: socks5.ConnectionRefused},
	{name: "aborted", err: &upstream.SOCKS5Error{Err: dialErr(unix.ECONNABORTED)}, want: socks5.ConnectionNotAllowed},
	{name: "reset", err: &upstream.HTTPError{Err: fmt.Errorf("connect read: %w", dialErr(unix.ECONNRESET))}, want: socks5.ConnectionNotAllowed},
	{name: "not connected", err: &upstream.SOCKS5Error{Err: dialErr(unix.ENOTCONN)}, want: socks5.NetworkUnreachable},
	{name: "http protocol failure", err: &upstream.HTTPError{Err: errors.New("connect failed: 403 Forbidden")}, want: socks5.GeneralFailure},
	{name: "socks5 protocol failure", err: &upstream.SOCKS5Error{Err: &socks5.ReplyError{Rep: 0x04}}, want: socks5.GeneralFailure},
	{name: "other transport failure", err: dialErr(unix.EHOSTUNREACH), want: socks5.GeneralFailure},
}

func TestTranslateError(t *testing.T) {
	t.Parallel()

	for _, tt := range translateTests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := TranslateError(tt.err); got != tt.want {
				t.Fatalf("got %v want %v", got, tt.want)
			}
		})
	}
}

func TestRouterRepliesTranslatedCode(t *testing.T) {
	for _, tt := range translateTests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			connector := &fakeConnector{err: tt.err}
			addr := serveRouter(t, ctx, connector)

			c := dialRelay(t, ctx, addr)
			defer c.Close()

			err := socks5.ClientConnect(c, "example.com:443")
			var repErr *socks5.ReplyError
			if !errors.As(err, &repErr) {
				t.Fatalf("expected *socks5.ReplyError, got %v", err)
			}
			if repErr.Rep != tt.want.Byte() {
				t.Fatalf("got reply %#x want %#x (%v)", repErr.Rep, tt.want.Byte(), tt.want)
			}
			if n := connector.Calls(); n != 1 {
				t.Fatalf("upstream connect attempted %d times", n)
			}
		})
	}
}
