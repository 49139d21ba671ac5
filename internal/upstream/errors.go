package upstream

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidProtocol matches any *InvalidProtocolError.
	ErrInvalidProtocol = errors.New("invalid proxy protocol")
	// ErrInvalidHost is returned when an endpoint has no host.
	ErrInvalidHost = errors.New("invalid proxy host")
	// ErrConnectionTimeout is returned by ConnectWithTimeout when the timer
	// fires before the upstream connection is established.
	ErrConnectionTimeout = errors.New("connection timeout")
)

// InvalidProtocolError reports an unrecognized upstream scheme.
type InvalidProtocolError struct {
	Scheme string
}

func (e *InvalidProtocolError) Error() string {
	return fmt.Sprintf("%s: %q", ErrInvalidProtocol, e.Scheme)
}

func (e *InvalidProtocolError) Is(target error) bool {
	return target == ErrInvalidProtocol
}

// HTTPError wraps a failure talking to an HTTP CONNECT upstream.
type HTTPError struct {
	Err error
}

func (e *HTTPError) Error() string {
	return "http proxy: " + e.Err.Error()
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// SOCKS5Error wraps a failure talking to a SOCKS5 upstream.
type SOCKS5Error struct {
	Err error
}

func (e *SOCKS5Error) Error() string {
	return "socks5 proxy: " + e.Err.Error()
}

func (e *SOCKS5Error) Unwrap() error {
	return e.Err
}
