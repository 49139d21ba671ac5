// Package config loads socksrelay settings from an ini file and the
// environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/ini.v1"
)

// Settings is the [relay] section of the config file.
type Settings struct {
	Upstream           string        `ini:"upstream"`
	ListenHost         string        `ini:"listen_host"`
	ListenPort         int           `ini:"listen_port"`
	ConnectTimeout     time.Duration `ini:"connect_timeout"`
	NegotiationTimeout time.Duration `ini:"negotiation_timeout"`
	TCPKeepAlive       string        `ini:"tcp_keepalive"`
	Verbose            bool          `ini:"verbose"`
}

type file struct {
	Relay Settings `ini:"relay"`
}

// Defaults returns the settings used when neither a file nor a flag says
// otherwise.
func Defaults() Settings {
	return Settings{
		ListenHost:         "127.0.0.1",
		ListenPort:         1080,
		ConnectTimeout:     10 * time.Second,
		NegotiationTimeout: 10 * time.Second,
		TCPKeepAlive:       "45:45:3",
	}
}

// Load reads the ini file at path on top of Defaults. Keys missing from the
// file keep their default values; a value that does not parse is an error.
func Load(path string) (Settings, error) {
	f, err := ini.Load(path)
	if err != nil {
		return Settings{}, fmt.Errorf("load %s: %w", path, err)
	}

	cfg := file{Relay: Defaults()}
	if err := f.StrictMapTo(&cfg); err != nil {
		return Settings{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg.Relay, nil
}

// ApplyEnv overrides s from SOCKSRELAY_UPSTREAM and SOCKSRELAY_LISTEN_PORT,
// then falls back to ALL_PROXY / all_proxy if no upstream is configured.
func ApplyEnv(s *Settings) {
	if v := os.Getenv("SOCKSRELAY_UPSTREAM"); v != "" {
		s.Upstream = v
	}
	overrideFromEnvInt(&s.ListenPort, "SOCKSRELAY_LISTEN_PORT")

	if s.Upstream != "" {
		return
	}
	if p := os.Getenv("ALL_PROXY"); p != "" {
		s.Upstream = p
		return
	}
	if p := os.Getenv("all_proxy"); p != "" {
		s.Upstream = p
	}
}

func overrideFromEnvInt(target *int, envName string) {
	envValue := os.Getenv(envName)
	if envValue != "" {
		if intValue, err := strconv.Atoi(envValue); err == nil {
			*target = intValue
		}
	}
}
