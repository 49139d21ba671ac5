//go:build unix

package relay

import (
	"golang.org/x/sys/unix"
)

var (
	errConnRefused  error = unix.ECONNREFUSED
	errConnAborted  error = unix.ECONNABORTED
	errConnReset    error = unix.ECONNRESET
	errNotConnected error = unix.ENOTCONN
)
