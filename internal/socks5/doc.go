// Package socks5 provides the small, shared SOCKS5 handshake implementation
// used by socksrelay.
//
// It wraps the low-level protocol types in github.com/txthinking/socks5 so the
// inbound side (internal/relay) and the upstream side (internal/upstream) share
// one implementation of negotiation, CONNECT parsing, and reply writing.
//
// This package is not intended to be a full SOCKS5 server/client
// implementation; it is a thin layer around the library primitives that adds
// the fixed reply-code vocabulary and typed errors the relay needs.
package socks5
