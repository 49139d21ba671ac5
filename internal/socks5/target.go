package socks5

import (
	"fmt"
	"net"
	"strconv"

	txsocks5 "github.com/txthinking/socks5"
)

// Target is the destination a client asked to reach.
type Target struct {
	Host string
	Port uint16
}

func (t Target) String() string {
	return net.JoinHostPort(t.Host, strconv.Itoa(int(t.Port)))
}

// TargetFromRequest extracts the destination address from req.
func TargetFromRequest(req *txsocks5.Request) (Target, error) {
	host, port, err := net.SplitHostPort(req.Address())
	if err != nil {
		return Target{}, fmt.Errorf("request address: %w", err)
	}
	p, err := strconv.ParseUint(port, 10, 16)
	if err != nil {
		return Target{}, fmt.Errorf("request port %q: %w", port, err)
	}
	return Target{Host: host, Port: uint16(p)}, nil
}
