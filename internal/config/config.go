// Package config loads server configuration. Precedence, lowest to
// highest: built-in defaults, an optional YAML file, WORKERD_-prefixed
// environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Server is the workerd process configuration.
type Server struct {
	// Host and Port form the gRPC listen address.
	Host string `env:"HOST" yaml:"host"`
	Port int    `env:"PORT" yaml:"port"`

	// Certificate material for mutual TLS.
	CertPath   string `env:"CERT_PATH" yaml:"cert_path"`
	KeyPath    string `env:"KEY_PATH" yaml:"key_path"`
	CACertPath string `env:"CA_CERT_PATH" yaml:"ca_cert_path"`

	// InitPath is the isolation helper binary spawned per worker.
	InitPath string `env:"INIT_PATH" yaml:"init_path"`

	// CgroupRoot is the cgroup v2 hierarchy root.
	CgroupRoot string `env:"CGROUP_ROOT" yaml:"cgroup_root"`

	// Per-worker resource caps.
	CPUMaxPercent    int64 `env:"CPU_MAX_PERCENT" yaml:"cpu_max_percent"`
	MemoryMaxBytes   int64 `env:"MEMORY_MAX_BYTES" yaml:"memory_max_bytes"`
	IOMaxBytesPerSec int64 `env:"IO_MAX_BPS" yaml:"io_max_bps"`

	// StopGrace is the SIGTERM-to-SIGKILL escalation delay.
	StopGrace time.Duration `env:"STOP_GRACE" yaml:"stop_grace"`

	// MetricsAddr enables the Prometheus endpoint when non-empty, e.g.
	// "127.0.0.1:9090".
	MetricsAddr string `env:"METRICS_ADDR" yaml:"metrics_addr"`

	// Requests per second allowed per client identity, with equal burst.
	RequestsPerSecond float64 `env:"REQUESTS_PER_SECOND" yaml:"requests_per_second"`

	LogLevel  string `env:"LOG_LEVEL" yaml:"log_level"`
	LogFormat string `env:"LOG_FORMAT" yaml:"log_format"`
}

// Default returns the built-in configuration.
func Default() *Server {
	return &Server{
		Port:              8443,
		CertPath:          "certs/server.crt",
		KeyPath:           "certs/server.key",
		CACertPath:        "certs/ca.crt",
		InitPath:          "/usr/local/bin/workerd-init",
		CgroupRoot:        "/sys/fs/cgroup",
		CPUMaxPercent:     100,
		MemoryMaxBytes:    100 * 1024 * 1024,
		IOMaxBytesPerSec:  1024 * 1024,
		StopGrace:         5 * time.Second,
		RequestsPerSecond: 50,
		LogLevel:          "info",
		LogFormat:         "json",
	}
}

// Load starts from defaults, layers the optional YAML file at path
// (skipped when empty), applies environment overrides, then sanitizes.
func Load(path string) (*Server, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: "WORKERD_"}); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.Sanitize(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Sanitize applies guardrails to loaded values.
func (c *Server) Sanitize() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}

	if c.CertPath == "" || c.KeyPath == "" || c.CACertPath == "" {
		return fmt.Errorf("cert_path, key_path, and ca_cert_path are required")
	}

	if c.InitPath == "" {
		return fmt.Errorf("init_path is required")
	}

	if c.StopGrace < 2*time.Second {
		c.StopGrace = 2 * time.Second
	}

	if c.StopGrace > 10*time.Second {
		c.StopGrace = 10 * time.Second
	}

	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = 50
	}

	return nil
}

// Addr returns the gRPC listen address.
func (c *Server) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
