// Package relay implements the inbound SOCKS5 side of socksrelay.
//
// A Router accepts SOCKS5 clients on a local listener and hands each
// connection to its own goroutine, which reads the client's CONNECT request,
// opens the tunnel through the configured upstream proxy, reports the outcome
// as a SOCKS5 reply, and then copies bytes in both directions until either
// side is done.
package relay
