//go:build windows

package relay

import (
	"golang.org/x/sys/windows"
)

var (
	errConnRefused  error = windows.WSAECONNREFUSED
	errConnAborted  error = windows.WSAECONNABORTED
	errConnReset    error = windows.WSAECONNRESET
	errNotConnected error = windows.WSAENOTCONN
)
