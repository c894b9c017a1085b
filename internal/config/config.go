package config

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultHost           = "127.0.0.1"
	DefaultPort           = 8089
	DefaultPushGatewayURL = "http://pushgateway:9091"
	DefaultLogLevel       = "INFO"
	DefaultFetchTimeout   = 5 * time.Second
)

// EnvConfigPath names the environment variable consulted when --config is not given.
const EnvConfigPath = "GODON_EXPORTER_CONFIG"

type Config struct {
	Host             string        `yaml:"host" json:"host"`
	Port             int           `yaml:"port" json:"port"`
	PushGatewayURL   string        `yaml:"push_gateway_url" json:"push_gateway_url"`
	LogLevel         string        `yaml:"log_level" json:"log_level"`
	FetchTimeout     time.Duration `yaml:"fetch_timeout" json:"fetch_timeout"`
	AdminAddr        string        `yaml:"admin_addr" json:"admin_addr"`
	ErrorLogInterval time.Duration `yaml:"error_log_interval" json:"error_log_interval"`
}

func Default() *Config {
	return &Config{
		Host:           DefaultHost,
		Port:           DefaultPort,
		PushGatewayURL: DefaultPushGatewayURL,
		LogLevel:       DefaultLogLevel,
		FetchTimeout:   DefaultFetchTimeout,
	}
}

// Load reads a yaml file on top of the defaults. Keys missing from the file keep their default.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return cfg, nil
}

// FromArgs builds the effective configuration from command line arguments.
// An optional yaml file (--config, or the GODON_EXPORTER_CONFIG variable) is
// loaded first; flags given explicitly on the command line override it.
func FromArgs(name string, args []string, getenv func(string) string) (*Config, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)

	var configPath string
	fs.StringVar(&configPath, "config", getenv(EnvConfigPath), "Path to config file (yaml)")

	set := Default()
	fs.StringVar(&set.Host, "host", set.Host, "Bind address")
	fs.IntVar(&set.Port, "port", set.Port, "HTTP server port")
	fs.StringVar(&set.PushGatewayURL, "push-gateway-url", set.PushGatewayURL, "Push Gateway URL")
	fs.StringVar(&set.LogLevel, "log-level", set.LogLevel, "Log level (DEBUG, INFO, WARN, ERROR)")
	fs.DurationVar(&set.FetchTimeout, "fetch-timeout", set.FetchTimeout, "Push Gateway request timeout")
	fs.StringVar(&set.AdminAddr, "admin-addr", set.AdminAddr, "Admin listen address; empty disables the admin server")
	fs.DurationVar(&set.ErrorLogInterval, "error-log-interval", set.ErrorLogInterval, "Minimum interval between repeated upstream error logs; 0 logs every failure")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := Default()
	if configPath != "" {
		loaded, err := Load(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "host":
			cfg.Host = set.Host
		case "port":
			cfg.Port = set.Port
		case "push-gateway-url":
			cfg.PushGatewayURL = set.PushGatewayURL
		case "log-level":
			cfg.LogLevel = set.LogLevel
		case "fetch-timeout":
			cfg.FetchTimeout = set.FetchTimeout
		case "admin-addr":
			cfg.AdminAddr = set.AdminAddr
		case "error-log-interval":
			cfg.ErrorLogInterval = set.ErrorLogInterval
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var logLevels = map[string]struct{}{
	"TRACE": {}, "DEBUG": {}, "INFO": {}, "WARN": {}, "WARNING": {}, "ERROR": {},
}

// Validate checks the configuration and normalizes the Push Gateway URL
// (trailing slashes stripped) and the log level (upper case).
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port out of range: %d", c.Port)
	}
	if c.FetchTimeout <= 0 {
		return errors.New("fetch_timeout must be positive")
	}
	if c.ErrorLogInterval < 0 {
		return errors.New("error_log_interval must not be negative")
	}

	c.LogLevel = strings.ToUpper(strings.TrimSpace(c.LogLevel))
	if _, ok := logLevels[c.LogLevel]; !ok {
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}

	c.PushGatewayURL = strings.TrimRight(strings.TrimSpace(c.PushGatewayURL), "/")
	u, err := url.Parse(c.PushGatewayURL)
	if err != nil {
		return fmt.Errorf("push_gateway_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("push_gateway_url: unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("push_gateway_url: missing host")
	}
	return nil
}

// ListenAddr is the data plane bind address.
func (c *Config) ListenAddr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
