package socks5

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"testing"

	"golang.org/x/sync/errgroup"
)

func TestClientDialToServer(t *testing.T) {
	tests := []struct {
		name string
		auth Auth
	}{
		{name: "no_auth"},
		{name: "user_pass", auth: Auth{Username: "user", Password: "pass"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clientConn, serverConn := net.Pipe()
			defer clientConn.Close()
			defer serverConn.Close()

			g := errgroup.Group{}
			g.Go(func() error {
				if tt.auth.Username == "" {
					if err := ServerNegotiateNoAuth(serverConn); err != nil {
						return err
					}
				} else {
					if err := ServerNegotiate(serverConn, tt.auth); err != nil {
						return err
					}
				}

				req, err := ServerReadRequest(serverConn)
				if err != nil {
					return err
				}
				if req.Cmd != CmdConnect {
					return fmt.Errorf("unexpected command: %d", req.Cmd)
				}
				target, err := TargetFromRequest(req)
				if err != nil {
					return err
				}
				if target != (Target{Host: "example.com", Port: 443}) {
					return fmt.Errorf("unexpected target: %v", target)
				}

				return WriteSuccessReply(serverConn, &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 12345})
			})

			if err := ClientDial(clientConn, tt.auth, "example.com:443"); err != nil {
				t.Fatal(err)
			}
			if err := g.Wait(); err != nil {
				t.Fatal(err)
			}
		})
	}
}

func TestClientNegotiateWrongPassword(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	g := errgroup.Group{}
	g.Go(func() error {
		err := ServerNegotiate(serverConn, Auth{Username: "user", Password: "pass"})
		if !errors.Is(err, ErrAuthFailed) {
			return fmt.Errorf("expected server auth failure, got %v", err)
		}
		return nil
	})

	if err := ClientNegotiate(clientConn, Auth{Username: "user", Password: "nope"}); !errors.Is(err, ErrAuthFailed) {
		t.Fatalf("expected ErrAuthFailed, got %v", err)
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
}

func TestClientNegotiateMissingCredentials(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	g := errgroup.Group{}
	g.Go(func() error {
		if err := ServerNegotiate(serverConn, Auth{Username: "user", Password: "pass"}); !errors.Is(err, ErrNoAcceptableMethod) {
			return fmt.Errorf("expected ErrNoAcceptableMethod, got %v", err)
		}
		return nil
	})

	if err := ClientNegotiate(clientConn, Auth{}); !errors.Is(err, ErrNoAcceptableMethod) {
		t.Fatalf("expected ErrNoAcceptableMethod, got %v", err)
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
}

func TestClientConnectReplyError(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	g := errgroup.Group{}
	g.Go(func() error {
		if _, err := ServerReadRequest(serverConn); err != nil {
			return err
		}
		return WriteReply(serverConn, ConnectionRefused, 0x01)
	})

	err := ClientConnect(clientConn, "127.0.0.1:80")
	var repErr *ReplyError
	if !errors.As(err, &repErr) {
		t.Fatalf("expected *ReplyError, got %v", err)
	}
	if repErr.Code() != ConnectionRefused {
		t.Fatalf("got %v want %v", repErr.Code(), ConnectionRefused)
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
}

func TestWriteSuccessReplyPlaceholder(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	go func() {
		_ = WriteSuccessReply(serverConn, &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0})
	}()

	want := []byte{0x05, 0x00, 0x00, 0x01, 127, 0, 0, 1, 0x00, 0x00}
	got := make([]byte, len(want))
	if _, err := io.ReadFull(clientConn, got); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("got % x want % x", got, want)
	}
}

func TestReplyCodeByte(t *testing.T) {
	tests := []struct {
		code ReplyCode
		want byte
	}{
		{Succeeded, 0x00},
		{GeneralFailure, 0x01},
		{ConnectionNotAllowed, 0x02},
		{NetworkUnreachable, 0x03},
		{HostUnreachable, 0x04},
		{ConnectionRefused, 0x05},
		{TTLExpired, 0x06},
		{CommandNotSupported, 0x07},
		{AddressTypeNotSupported, 0x08},
		{ConnectionTimeout, 0x06},
	}

	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			if got := tt.code.Byte(); got != tt.want {
				t.Fatalf("got %#x want %#x", got, tt.want)
			}
		})
	}
}

func TestTargetString(t *testing.T) {
	tests := []struct {
		target Target
		want   string
	}{
		{Target{Host: "example.com", Port: 443}, "example.com:443"},
		{Target{Host: "::1", Port: 80}, "[::1]:80"},
	}
	for _, tt := range tests {
		if got := tt.target.String(); got != tt.want {
			t.Fatalf("got %q want %q", got, tt.want)
		}
	}
}
