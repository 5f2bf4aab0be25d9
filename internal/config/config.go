// Package config handles layered YAML configuration with environment overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config holds all contactbook configuration.
type Config struct {
	Client Client `yaml:"client"`
	Server Server `yaml:"server"`
	Log    Log    `yaml:"log"`
}

// Client holds settings for commands that talk to a contact server.
type Client struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"` // 0 disables the per-request timeout
}

// Server holds settings for the serve command.
type Server struct {
	Addr    string `yaml:"addr"`
	Backend string `yaml:"backend"` // "memory" | "file" | "sqlite"
	Path    string `yaml:"path"`    // Storage file for file and sqlite backends
}

// Log holds logger settings.
type Log struct {
	Level  string `yaml:"level"`  // "debug" | "info" | "warn" | "error"
	Format string `yaml:"format"` // "json" | "console"
	File   string `yaml:"file"`   // Log destination for the ui command
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Client: Client{
			BaseURL: "http://localhost:3000",
			Timeout: 30 * time.Second,
		},
		Server: Server{
			Addr:    ":3000",
			Backend: "memory",
			Path:    ".contactbook/contacts.db",
		},
		Log: Log{
			Level:  "info",
			Format: "json",
			File:   ".contactbook/contactbook.log",
		},
	}
}

// LoadLayered loads config from multiple paths with increasing priority.
// Later paths override earlier ones. Missing files are skipped.
func LoadLayered(paths ...string) (*Config, error) {
	cfg := DefaultConfig()

	for _, path := range paths {
		layer, err := loadLayer(path)
		if err != nil {
			return nil, err
		}
		if layer == nil {
			continue
		}
		cfg.merge(layer)
	}

	return &cfg, nil
}

// Validate checks that config values are usable.
func (c *Config) Validate() error {
	if c.Client.BaseURL == "" {
		return errors.New("config: client.base_url cannot be empty")
	}
	u, err := url.Parse(c.Client.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("config: client.base_url must be an http(s) URL, got %q", c.Client.BaseURL)
	}
	if c.Client.Timeout < 0 {
		return fmt.Errorf("config: client.timeout must be non-negative, got %v", c.Client.Timeout)
	}
	if c.Server.Addr == "" {
		return errors.New("config: server.addr cannot be empty")
	}
	switch c.Server.Backend {
	case "memory":
		// valid; path unused
	case "file", "sqlite":
		if c.Server.Path == "" {
			return fmt.Errorf("config: server.path is required for the %s backend", c.Server.Backend)
		}
	default:
		return fmt.Errorf("config: server.backend must be \"memory\", \"file\" or \"sqlite\", got %q", c.Server.Backend)
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("config: log.level %q: %w", c.Log.Level, err)
	}
	switch c.Log.Format {
	case "json", "console":
		// valid
	default:
		return fmt.Errorf("config: log.format must be \"json\" or \"console\", got %q", c.Log.Format)
	}
	return nil
}

// ApplyEnv applies environment variable overrides to the config.
// Supported variables: CONTACTBOOK_SERVER, CONTACTBOOK_TIMEOUT,
// CONTACTBOOK_ADDR, CONTACTBOOK_BACKEND, CONTACTBOOK_PATH,
// CONTACTBOOK_LOG_LEVEL, CONTACTBOOK_LOG_FILE.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("CONTACTBOOK_SERVER"); v != "" {
		c.Client.BaseURL = v
	}
	if v := os.Getenv("CONTACTBOOK_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: invalid CONTACTBOOK_TIMEOUT %q: %w", v, err)
		}
		c.Client.Timeout = d
	}
	if v := os.Getenv("CONTACTBOOK_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("CONTACTBOOK_BACKEND"); v != "" {
		c.Server.Backend = v
	}
	if v := os.Getenv("CONTACTBOOK_PATH"); v != "" {
		c.Server.Path = v
	}
	if v := os.Getenv("CONTACTBOOK_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("CONTACTBOOK_LOG_FILE"); v != "" {
		c.Log.File = v
	}
	return nil
}

// rawConfig mirrors Config but uses pointers to distinguish set vs unset fields.
type rawConfig struct {
	Client *rawClient `yaml:"client"`
	Server *rawServer `yaml:"server"`
	Log    *rawLog    `yaml:"log"`
}

type rawClient struct {
	BaseURL *string        `yaml:"base_url"`
	Timeout *time.Duration `yaml:"timeout"`
}

type rawServer struct {
	Addr    *string `yaml:"addr"`
	Backend *string `yaml:"backend"`
	Path    *string `yaml:"path"`
}

type rawLog struct {
	Level  *string `yaml:"level"`
	Format *string `yaml:"format"`
	File   *string `yaml:"file"`
}

// loadLayer reads a single config file into a rawConfig for selective merging.
// Returns nil if the file does not exist. Rejects unknown fields.
func loadLayer(path string) (*rawConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if len(data) == 0 {
		return nil, nil
	}

	var raw rawConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	return &raw, nil
}

// merge applies non-nil fields from a rawConfig layer onto this Config.
func (c *Config) merge(layer *rawConfig) {
	if l := layer.Client; l != nil {
		setIf(&c.Client.BaseURL, l.BaseURL)
		setIf(&c.Client.Timeout, l.Timeout)
	}
	if l := layer.Server; l != nil {
		setIf(&c.Server.Addr, l.Addr)
		setIf(&c.Server.Backend, l.Backend)
		setIf(&c.Server.Path, l.Path)
	}
	if l := layer.Log; l != nil {
		setIf(&c.Log.Level, l.Level)
		setIf(&c.Log.Format, l.Format)
		setIf(&c.Log.File, l.File)
	}
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
