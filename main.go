package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/die-net/socksrelay/internal/config"
	"github.com/die-net/socksrelay/internal/relay"
	"github.com/die-net/socksrelay/internal/upstream"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	defaults := config.Defaults()

	var (
		configPath = pflag.String("config", "", "Path to an ini file with a [relay] section. Flags override it.")

		listenHost = pflag.String("listen-host", defaults.ListenHost, "Host or IP to accept SOCKS5 clients on")
		listenPort = pflag.Int("listen-port", defaults.ListenPort, "Port to accept SOCKS5 clients on (0 picks a free port)")

		upstreamURL = pflag.String("upstream", "", "Upstream proxy URL: http://[user:pass@]host[:port] | https://[user:pass@]host[:port] | socks5://[user:pass@]host[:port]. Defaults to $SOCKSRELAY_UPSTREAM, then $ALL_PROXY.")

		connectTimeout     = pflag.Duration("connect-timeout", defaults.ConnectTimeout, "Timeout for connecting to a target through the upstream proxy")
		negotiationTimeout = pflag.Duration("negotiation-timeout", defaults.NegotiationTimeout, "Timeout for the SOCKS5 handshake with clients and the upstream proxy")
		tcpKeepAlive       = pflag.String("tcp-keepalive", defaults.TCPKeepAlive, "TCP keepalive: on|off|keepidle:keepintvl:keepcnt")
		verbose            = pflag.Bool("verbose", false, "Enable debug logging")
	)

	pflag.CommandLine.SortFlags = false
	pflag.Parse()

	settings := defaults
	if *configPath != "" {
		var err error
		if settings, err = config.Load(*configPath); err != nil {
			return err
		}
	}
	config.ApplyEnv(&settings)

	pflag.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "listen-host":
			settings.ListenHost = *listenHost
		case "listen-port":
			settings.ListenPort = *listenPort
		case "upstream":
			settings.Upstream = *upstreamURL
		case "connect-timeout":
			settings.ConnectTimeout = *connectTimeout
		case "negotiation-timeout":
			settings.NegotiationTimeout = *negotiationTimeout
		case "tcp-keepalive":
			settings.TCPKeepAlive = *tcpKeepAlive
		case "verbose":
			settings.Verbose = *verbose
		}
	})

	logger := newLogger(settings.Verbose)

	cfg, err := relayConfig(settings, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, cfg); err != nil {
		return err
	}

	logger.Info().Msg("shutting down")
	return nil
}

// serve runs the relay until ctx is canceled. The router shuts itself down on
// cancel, so waiting on it is enough.
func serve(ctx context.Context, cfg relay.Config) error {
	r, err := relay.Spawn(ctx, cfg)
	if err != nil {
		return err
	}
	r.Wait()
	return nil
}

func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}).Level(level)
	return log.Logger
}

func relayConfig(s config.Settings, logger zerolog.Logger) (relay.Config, error) {
	if s.Upstream == "" {
		return relay.Config{}, errors.New("no upstream configured (set --upstream, SOCKSRELAY_UPSTREAM or ALL_PROXY)")
	}
	ep, err := upstream.Parse(s.Upstream)
	if err != nil {
		return relay.Config{}, fmt.Errorf("invalid upstream: %w", err)
	}

	if s.ListenPort < 0 || s.ListenPort > math.MaxUint16 {
		return relay.Config{}, fmt.Errorf("invalid listen port %d", s.ListenPort)
	}

	ka, err := parseTCPKeepAlive(s.TCPKeepAlive)
	if err != nil {
		return relay.Config{}, fmt.Errorf("invalid tcp keepalive: %w", err)
	}

	return relay.Config{
		Upstream:           ep,
		ListenHost:         s.ListenHost,
		ListenPort:         uint16(s.ListenPort),
		ConnectTimeout:     s.ConnectTimeout,
		NegotiationTimeout: s.NegotiationTimeout,
		KeepAlive:          ka,
		Logger:             logger,
	}, nil
}

func parseTCPKeepAlive(s string) (net.KeepAliveConfig, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	switch s {
	case "":
		return net.KeepAliveConfig{}, errors.New("empty")
	case "on":
		return net.KeepAliveConfig{Enable: true}, nil
	case "off":
		return net.KeepAliveConfig{Enable: false}, nil
	}

	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return net.KeepAliveConfig{}, errors.New("expected on|off|keepidle:keepintvl:keepcnt")
	}

	var n [3]int
	for i, name := range []string{"keepidle", "keepintvl", "keepcnt"} {
		v, err := parsePositiveInt(parts[i])
		if err != nil {
			return net.KeepAliveConfig{}, fmt.Errorf("%s: %w", name, err)
		}
		n[i] = v
	}

	return net.KeepAliveConfig{
		Enable:   true,
		Idle:     time.Duration(n[0]) * time.Second,
		Interval: time.Duration(n[1]) * time.Second,
		Count:    n[2],
	}, nil
}

func parsePositiveInt(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, errors.New("must be > 0")
	}
	return n, nil
}
