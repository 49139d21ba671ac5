//go:build !unix && !windows

package relay

import (
	"errors"
)

// No errno vocabulary on this platform; transport failures map to a general
// failure.
var (
	errConnRefused  = errors.New("connection refused")
	errConnAborted  = errors.New("connection aborted")
	errConnReset    = errors.New("connection reset")
	errNotConnected = errors.New("not connected")
)
