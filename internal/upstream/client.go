package upstream

import (
	"context"
	"net"
	"strconv"
	"time"
)

// Client connects to targets through a single upstream Endpoint. A Client is
// read-only after construction and may be shared by many goroutines.
type Client struct {
	endpoint Endpoint
	cfg      Config
	direct   directDialer
}

// NewClient returns a Client that tunnels through ep.
func NewClient(ep Endpoint, cfg Config) *Client {
	return &Client{endpoint: ep, cfg: cfg, direct: directDialer{cfg: cfg}}
}

// Endpoint returns the upstream this client tunnels through.
func (c *Client) Endpoint() Endpoint {
	return c.endpoint
}

// Connect opens a TCP connection to the upstream proxy and asks it to tunnel to
// host:port. Exactly one attempt is made.
//
// Canceling ctx before Connect returns closes the socket to the upstream so
// that an in-progress handshake is abandoned rather than leaked.
func (c *Client) Connect(ctx context.Context, host string, port uint16) (net.Conn, error) {
	address := net.JoinHostPort(host, strconv.Itoa(int(port)))

	conn, err := c.direct.DialContext(ctx, "tcp", c.endpoint.Addr())
	if err != nil {
		return nil, c.wrap(err)
	}

	// Close conn if ctx is canceled during the handshake.
	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})

	tunnel, err := c.handshake(conn, address)
	if err != nil {
		stop()
		_ = conn.Close()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, c.wrap(ctxErr)
		}
		return nil, c.wrap(err)
	}

	if !stop() {
		// ctx won the race and already closed conn.
		return nil, c.wrap(ctx.Err())
	}
	return tunnel, nil
}

func (c *Client) handshake(conn net.Conn, address string) (net.Conn, error) {
	switch c.endpoint.Protocol {
	case ProtocolHTTP:
		return httpConnect(conn, c.cfg, c.endpoint.Auth, address)
	case ProtocolSOCKS5:
		if err := socks5Connect(conn, c.cfg, c.endpoint.Auth, address); err != nil {
			return nil, err
		}
		return conn, nil
	default:
		return nil, &InvalidProtocolError{Scheme: c.endpoint.Protocol.String()}
	}
}

func (c *Client) wrap(err error) error {
	switch c.endpoint.Protocol {
	case ProtocolHTTP:
		return &HTTPError{Err: err}
	case ProtocolSOCKS5:
		return &SOCKS5Error{Err: err}
	default:
		return err
	}
}

// ConnectWithTimeout is Connect raced against a timer of duration d. If the
// timer fires first the attempt is canceled, any connection it still produces
// is closed, and ErrConnectionTimeout is returned. A d <= 0 disables the timer.
func (c *Client) ConnectWithTimeout(ctx context.Context, host string, port uint16, d time.Duration) (net.Conn, error) {
	if d <= 0 {
		return c.Connect(ctx, host, port)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan connectResult, 1)
	go func() {
		conn, err := c.Connect(ctx, host, port)
		done <- connectResult{conn: conn, err: err}
	}()

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case r := <-done:
		return r.conn, r.err
	case <-timer.C:
		cancel()
		go discard(done)
		return nil, ErrConnectionTimeout
	case <-ctx.Done():
		go discard(done)
		return nil, ctx.Err()
	}
}

type connectResult struct {
	conn net.Conn
	err  error
}

// discard waits for an abandoned connect attempt and closes whatever it
// produced.
func discard(done <-chan connectResult) {
	if r := <-done; r.conn != nil {
		_ = r.conn.Close()
	}
}
