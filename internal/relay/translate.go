package relay

import (
	"context"
	"errors"

	"github.com/die-net/socksrelay/internal/socks5"
	"github.com/die-net/socksrelay/internal/upstream"
)

// TranslateError maps an upstream connect failure to the reply code sent to
// the SOCKS5 client. Every error maps to exactly one code; anything not
// recognized is a general failure.
func TranslateError(err error) socks5.ReplyCode {
	switch {
	case errors.Is(err, upstream.ErrConnectionTimeout), errors.Is(err, context.DeadlineExceeded):
		return socks5.ConnectionTimeout
	case errors.Is(err, errConnRefused):
		return socks5.ConnectionRefused
	case errors.Is(err, errConnAborted), errors.Is(err, errConnReset):
		return socks5.ConnectionNotAllowed
	case errors.Is(err, errNotConnected):
		return socks5.NetworkUnreachable
	default:
		return socks5.GeneralFailure
	}
}
