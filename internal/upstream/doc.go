// Package upstream opens TCP connections to a target through one configured
// upstream proxy.
//
// An Endpoint names the upstream (HTTP CONNECT or SOCKS5, host, port, and
// optional username/password) and is usually parsed from a URL. A Client
// performs exactly one connection attempt per Connect call; ConnectWithTimeout
// races that attempt against a timer and reports ErrConnectionTimeout when the
// timer wins.
package upstream
