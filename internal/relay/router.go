package relay

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/die-net/socksrelay/internal/upstream"
)

// Connector opens a tunnel to host:port through an upstream proxy.
// *upstream.Client implements it.
type Connector interface {
	ConnectWithTimeout(ctx context.Context, host string, port uint16, d time.Duration) (net.Conn, error)
}

// Router accepts inbound SOCKS5 clients and relays each one through the
// upstream proxy in its own goroutine.
type Router struct {
	cfg       Config
	connector Connector
	log       zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	ln   net.Listener
	done chan struct{}
}

// NewRouter returns a Router for cfg that is not yet listening; see Serve. If
// connector is nil, an *upstream.Client for cfg.Upstream is used.
//
// Canceling ctx, or calling Close, stops the accept loop and closes every
// in-flight relay.
func NewRouter(ctx context.Context, cfg Config, connector Connector) *Router {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg = cfg.withDefaults()
	if connector == nil {
		connector = upstream.NewClient(cfg.Upstream, upstream.Config{
			NegotiationTimeout: cfg.NegotiationTimeout,
			KeepAlive:          cfg.KeepAlive,
		})
	}
	ctx, cancel := context.WithCancel(ctx)
	return &Router{
		cfg:       cfg,
		connector: connector,
		log:       cfg.Logger,
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
}

// Spawn binds cfg's listen address and starts accepting in the background.
// A bind failure is returned before anything is accepted.
func Spawn(ctx context.Context, cfg Config) (*Router, error) {
	r := NewRouter(ctx, cfg, nil)

	ln, err := listen(r.ctx, r.cfg)
	if err != nil {
		r.cancel()
		return nil, err
	}

	r.ln = ln
	go func() {
		_ = r.Serve(ln)
	}()

	r.log.Info().Str("listen", ln.Addr().String()).Stringer("upstream", r.cfg.Upstream).Msg("listening for socks connections")
	return r, nil
}

// Serve accepts connections on ln until ln is closed or the router is closed.
// Transient accept errors are logged and retried. Serve takes ownership of ln
// and may only be called once per Router.
func (r *Router) Serve(ln net.Listener) error {
	defer close(r.done)
	defer r.cancel()

	stop := context.AfterFunc(r.ctx, func() {
		_ = ln.Close()
	})
	defer stop()

	var backoff time.Duration
	for {
		c, err := ln.Accept()
		if err != nil {
			if r.ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}

			if backoff == 0 {
				backoff = 5 * time.Millisecond
			} else {
				backoff = min(2*backoff, time.Second)
			}
			r.log.Warn().Err(err).Dur("retry_in", backoff).Msg("socks accept error")

			select {
			case <-time.After(backoff):
			case <-r.ctx.Done():
				return nil
			}
			continue
		}
		backoff = 0

		go r.handle(c)
	}
}

// Addr returns the bound address of a Router started with Spawn.
func (r *Router) Addr() net.Addr {
	if r.ln == nil {
		return nil
	}
	return r.ln.Addr()
}

// Close stops accepting and closes every in-flight relay.
func (r *Router) Close() error {
	r.cancel()
	return nil
}

// Wait blocks until the accept loop has exited.
func (r *Router) Wait() {
	<-r.done
}

func (r *Router) handle(conn net.Conn) {
	log := r.log.With().
		Str("conn_id", uuid.NewString()).
		Stringer("client", conn.RemoteAddr()).
		Logger()

	if err := r.serveConn(r.ctx, &log, conn); err != nil {
		log.Error().Err(err).Msg("socks connection error")
	}
}
