package socks5

import (
	"errors"
	"fmt"
	"net"
	"slices"

	txsocks5 "github.com/txthinking/socks5"
)

var (
	// ErrNoAcceptableMethod means the peers share no authentication method.
	ErrNoAcceptableMethod = errors.New("no acceptable authentication method")
	// ErrAuthFailed means username/password sub-negotiation was rejected.
	ErrAuthFailed = errors.New("authentication failed")
)

// ServerNegotiate performs the server side of method negotiation. A non-empty
// auth.Username requires the client to pass username/password
// sub-negotiation with matching credentials; otherwise only no-auth is offered.
func ServerNegotiate(conn net.Conn, auth Auth) error {
	neg, err := txsocks5.NewNegotiationRequestFrom(conn)
	if err != nil {
		return fmt.Errorf("negotiation request: %w", err)
	}

	method := byte(txsocks5.MethodNone)
	if auth.Username != "" {
		method = txsocks5.MethodUsernamePassword
	}

	if !slices.Contains(neg.Methods, method) {
		// RFC 1928: 0xFF tells the client none of its methods is acceptable.
		_, _ = txsocks5.NewNegotiationReply(txsocks5.MethodUnsupportAll).WriteTo(conn)
		return fmt.Errorf("%w: client offered %x", ErrNoAcceptableMethod, neg.Methods)
	}
	if _, err := txsocks5.NewNegotiationReply(method).WriteTo(conn); err != nil {
		return fmt.Errorf("negotiation reply: %w", err)
	}

	if method == txsocks5.MethodUsernamePassword {
		return checkUserPass(conn, auth)
	}
	return nil
}

// ServerNegotiateNoAuth negotiates without authenticating the client.
func ServerNegotiateNoAuth(conn net.Conn) error {
	return ServerNegotiate(conn, Auth{})
}

func checkUserPass(conn net.Conn, auth Auth) error {
	urq, err := txsocks5.NewUserPassNegotiationRequestFrom(conn)
	if err != nil {
		return fmt.Errorf("read userpass: %w", err)
	}

	status := byte(txsocks5.UserPassStatusSuccess)
	if string(urq.Uname) != auth.Username || string(urq.Passwd) != auth.Password {
		status = txsocks5.UserPassStatusFailure
	}
	if _, err := txsocks5.NewUserPassNegotiationReply(status).WriteTo(conn); err != nil {
		return fmt.Errorf("write userpass: %w", err)
	}
	if status != txsocks5.UserPassStatusSuccess {
		return fmt.Errorf("%w: user %q", ErrAuthFailed, urq.Uname)
	}
	return nil
}

// ServerReadRequest reads the client's command request.
func ServerReadRequest(conn net.Conn) (*txsocks5.Request, error) {
	req, err := txsocks5.NewRequestFrom(conn)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	return req, nil
}
