package socks5

import (
	"fmt"
	"net"

	txsocks5 "github.com/txthinking/socks5"
)

const (
	// CmdConnect is the SOCKS5 CONNECT command value.
	CmdConnect = txsocks5.CmdConnect
	// CmdBind is the SOCKS5 BIND command value.
	CmdBind = txsocks5.CmdBind
	// CmdUDPAssociate is the SOCKS5 UDP ASSOCIATE command value.
	CmdUDPAssociate = txsocks5.CmdUDP
)

// ReplyCode is the outcome reported to a SOCKS5 client in reply to a request.
type ReplyCode int

const (
	Succeeded ReplyCode = iota
	GeneralFailure
	ConnectionNotAllowed
	NetworkUnreachable
	HostUnreachable
	ConnectionRefused
	TTLExpired
	CommandNotSupported
	AddressTypeNotSupported
	// ConnectionTimeout has no dedicated RFC 1928 value and goes out on the
	// wire as TTL expired.
	ConnectionTimeout
)

// Byte returns the RFC 1928 REP field value for c.
func (c ReplyCode) Byte() byte {
	switch c {
	case Succeeded:
		return txsocks5.RepSuccess
	case ConnectionNotAllowed:
		return txsocks5.RepNotAllowed
	case NetworkUnreachable:
		return txsocks5.RepNetworkUnreachable
	case HostUnreachable:
		return txsocks5.RepHostUnreachable
	case ConnectionRefused:
		return txsocks5.RepConnectionRefused
	case TTLExpired, ConnectionTimeout:
		return txsocks5.RepTTLExpired
	case CommandNotSupported:
		return txsocks5.RepCommandNotSupported
	case AddressTypeNotSupported:
		return txsocks5.RepAddressNotSupported
	default:
		return txsocks5.RepServerFailure
	}
}

func (c ReplyCode) String() string {
	switch c {
	case Succeeded:
		return "succeeded"
	case GeneralFailure:
		return "general failure"
	case ConnectionNotAllowed:
		return "connection not allowed"
	case NetworkUnreachable:
		return "network unreachable"
	case HostUnreachable:
		return "host unreachable"
	case ConnectionRefused:
		return "connection refused"
	case TTLExpired:
		return "TTL expired"
	case CommandNotSupported:
		return "command not supported"
	case AddressTypeNotSupported:
		return "address type not supported"
	case ConnectionTimeout:
		return "connection timeout"
	default:
		return fmt.Sprintf("reply code %d", int(c))
	}
}

// ReplyCodeFromByte maps a REP field value back to a ReplyCode. Unknown values
// map to GeneralFailure.
func ReplyCodeFromByte(b byte) ReplyCode {
	switch b {
	case txsocks5.RepSuccess:
		return Succeeded
	case txsocks5.RepNotAllowed:
		return ConnectionNotAllowed
	case txsocks5.RepNetworkUnreachable:
		return NetworkUnreachable
	case txsocks5.RepHostUnreachable:
		return HostUnreachable
	case txsocks5.RepConnectionRefused:
		return ConnectionRefused
	case txsocks5.RepTTLExpired:
		return TTLExpired
	case txsocks5.RepCommandNotSupported:
		return CommandNotSupported
	case txsocks5.RepAddressNotSupported:
		return AddressTypeNotSupported
	default:
		return GeneralFailure
	}
}

// ReplyError is returned by the client side when a SOCKS5 server answers a
// request with a non-success reply.
type ReplyError struct {
	Rep byte
}

func (e *ReplyError) Error() string {
	return fmt.Sprintf("socks5 reply: %s", ReplyCodeFromByte(e.Rep))
}

// Code returns the ReplyCode carried by e.
func (e *ReplyError) Code() ReplyCode {
	return ReplyCodeFromByte(e.Rep)
}

// WriteReply writes a failure-style SOCKS5 reply carrying code and a zero
// bound address of the same family as atyp.
func WriteReply(conn net.Conn, code ReplyCode, atyp byte) error {
	if _, err := newZeroAddrReply(code.Byte(), atyp).WriteTo(conn); err != nil {
		return fmt.Errorf("%s reply: %w", code, err)
	}
	return nil
}

// WriteCommandNotSupportedReply writes a SOCKS5 reply indicating that the
// requested command is not supported.
func WriteCommandNotSupportedReply(conn net.Conn, atyp byte) error {
	return WriteReply(conn, CommandNotSupported, atyp)
}

// WriteSuccessReply writes a SOCKS5 success reply using bindAddr as the bound
// address.
func WriteSuccessReply(conn net.Conn, bindAddr net.Addr) error {
	a, addr, port, err := txsocks5.ParseAddress(bindAddr.String())
	if err != nil {
		return fmt.Errorf("parse bind address %q: %w", bindAddr.String(), err)
	}
	if a == txsocks5.ATYPDomain {
		addr = addr[1:]
	}
	if _, err := txsocks5.NewReply(txsocks5.RepSuccess, a, addr, port).WriteTo(conn); err != nil {
		return fmt.Errorf("success reply: %w", err)
	}
	return nil
}

func newZeroAddrReply(rep, atyp byte) *txsocks5.Reply {
	if atyp == txsocks5.ATYPIPv6 {
		return txsocks5.NewReply(rep, txsocks5.ATYPIPv6, []byte(net.IPv6zero), []byte{0x00, 0x00})
	}
	return txsocks5.NewReply(rep, txsocks5.ATYPIPv4, []byte{0x00, 0x00, 0x00, 0x00}, []byte{0x00, 0x00})
}
