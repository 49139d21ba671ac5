package upstream

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// Protocol selects the wire protocol spoken to the upstream proxy.
type Protocol int

const (
	ProtocolHTTP Protocol = iota + 1
	ProtocolSOCKS5
)

func (p Protocol) String() string {
	switch p {
	case ProtocolHTTP:
		return "http"
	case ProtocolSOCKS5:
		return "socks5"
	default:
		return fmt.Sprintf("protocol(%d)", int(p))
	}
}

// Auth holds optional Basic (username/password) credentials for the upstream.
// The zero value means no authentication.
type Auth struct {
	Username string
	Password string
}

// IsBasic reports whether a carries credentials.
func (a Auth) IsBasic() bool {
	return a.Username != ""
}

// Endpoint describes an upstream proxy. It is a plain value and safe to share
// between goroutines.
type Endpoint struct {
	Protocol Protocol
	Host     string
	Port     uint16
	Auth     Auth
}

// NewEndpoint validates and returns an explicitly constructed Endpoint.
func NewEndpoint(protocol Protocol, host string, port uint16, auth Auth) (Endpoint, error) {
	switch protocol {
	case ProtocolHTTP, ProtocolSOCKS5:
	default:
		return Endpoint{}, &InvalidProtocolError{Scheme: protocol.String()}
	}
	if host == "" {
		return Endpoint{}, ErrInvalidHost
	}
	return Endpoint{Protocol: protocol, Host: host, Port: port, Auth: auth}, nil
}

// Addr returns the upstream proxy's host:port.
func (e Endpoint) Addr() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(int(e.Port)))
}

// String returns e as a URL with the password redacted.
func (e Endpoint) String() string {
	u := url.URL{Scheme: e.Protocol.String(), Host: e.Addr()}
	if e.Auth.IsBasic() {
		u.User = url.UserPassword(e.Auth.Username, "xxxxx")
	}
	return u.String()
}

// Parse parses upstream and returns the Endpoint it describes.
//
// Supported schemes:
//   - http://[user:pass@]host[:port]
//   - https://[user:pass@]host[:port]
//   - socks5://[user:pass@]host[:port]
//
// Credentials are only used when both the username and the password are
// non-empty. Any path is ignored. A missing port falls back to the scheme's
// well-known port, or 80.
func Parse(upstream string) (Endpoint, error) {
	u, err := url.Parse(upstream)
	if err != nil {
		return Endpoint{}, fmt.Errorf("invalid url: %w", err)
	}

	u.Scheme = strings.ToLower(u.Scheme)

	var protocol Protocol
	switch u.Scheme {
	case "http", "https":
		protocol = ProtocolHTTP
	case "socks5":
		protocol = ProtocolSOCKS5
	default:
		return Endpoint{}, &InvalidProtocolError{Scheme: u.Scheme}
	}

	host := u.Hostname()
	if host == "" {
		return Endpoint{}, ErrInvalidHost
	}

	port := defaultPortForScheme(u.Scheme)
	if p := u.Port(); p != "" {
		n, err := strconv.ParseUint(p, 10, 16)
		if err != nil {
			return Endpoint{}, fmt.Errorf("invalid url port %q: %w", p, err)
		}
		port = uint16(n)
	}

	var auth Auth
	if u.User != nil {
		if pass, ok := u.User.Password(); ok && pass != "" && u.User.Username() != "" {
			auth = Auth{Username: u.User.Username(), Password: pass}
		}
	}

	return Endpoint{Protocol: protocol, Host: host, Port: port, Auth: auth}, nil
}

func defaultPortForScheme(scheme string) uint16 {
	switch scheme {
	case "https":
		return 443
	default:
		return 80
	}
}
