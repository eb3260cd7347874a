package internal

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Host             string
	Port             int
	MetricsAddr      string // Empty disables the /metrics endpoint
	StrictBulkLength bool   // Reject bulk strings whose $<len> does not match
	MaxFrameBytes    int
	IdleTimeout      time.Duration // Zero disables the read deadline
	LogLevel         string
}

const DEFAULT_HOST = "127.0.0.1"
const DEFAULT_PORT = 6380
const DEFAULT_MAX_FRAME_BYTES = 512 * 1024 * 1024
const DEFAULT_IDLE_TIMEOUT = 5 * time.Minute

var ErrUnsupportedConfigFormat = errors.New("unsupported config file format")

func DefaultConfig() *Config {
	return &Config{
		Host:          DEFAULT_HOST,
		Port:          DEFAULT_PORT,
		MaxFrameBytes: DEFAULT_MAX_FRAME_BYTES,
		IdleTimeout:   DEFAULT_IDLE_TIMEOUT,
		LogLevel:      "info",
	}
}

// Addr returns host:port for dialing or listening.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Host) == "" {
		return fmt.Errorf("config missing host")
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config port %d out of range", c.Port)
	}
	if c.MaxFrameBytes <= 0 {
		return fmt.Errorf("config max_frame_bytes must be positive, got %d", c.MaxFrameBytes)
	}
	if c.IdleTimeout < 0 {
		return fmt.Errorf("config idle_timeout must not be negative, got %s", c.IdleTimeout)
	}
	return nil
}

// fileConfig mirrors the keys accepted in TOML and YAML files. Pointer
// fields tell "absent" apart from a zero value.
type fileConfig struct {
	Host             *string `toml:"host" yaml:"host"`
	Port             *int    `toml:"port" yaml:"port"`
	MetricsAddr      *string `toml:"metrics_addr" yaml:"metrics_addr"`
	StrictBulkLength *bool   `toml:"strict_bulk_length" yaml:"strict_bulk_length"`
	MaxFrameBytes    *int    `toml:"max_frame_bytes" yaml:"max_frame_bytes"`
	IdleTimeout      *string `toml:"idle_timeout" yaml:"idle_timeout"`
	LogLevel         *string `toml:"log_level" yaml:"log_level"`
}

// LoadConfig reads a .toml, .yaml or .yml file on top of DefaultConfig and
// validates the result. Unknown keys are an error.
func LoadConfig(path string) (*Config, error) {
	var raw fileConfig

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := loadToml(path, &raw); err != nil {
			return nil, err
		}
	case ".yaml", ".yml":
		if err := loadYaml(path, &raw); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("config load failed (%s): %w", path, ErrUnsupportedConfigFormat)
	}

	cfg := DefaultConfig()
	if err := raw.applyTo(cfg); err != nil {
		return nil, fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadToml(path string, out *fileConfig) error {
	meta, err := toml.DecodeFile(path, out)
	if err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("config parse failed (%s): unknown key %q", path, undecoded[0].String())
	}
	return nil
}

func loadYaml(path string, out *fileConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func (raw fileConfig) applyTo(cfg *Config) error {
	if raw.Host != nil {
		cfg.Host = strings.TrimSpace(*raw.Host)
	}
	if raw.Port != nil {
		cfg.Port = *raw.Port
	}
	if raw.MetricsAddr != nil {
		cfg.MetricsAddr = strings.TrimSpace(*raw.MetricsAddr)
	}
	if raw.StrictBulkLength != nil {
		cfg.StrictBulkLength = *raw.StrictBulkLength
	}
	if raw.MaxFrameBytes != nil {
		cfg.MaxFrameBytes = *raw.MaxFrameBytes
	}
	if raw.IdleTimeout != nil {
		d, err := time.ParseDuration(strings.TrimSpace(*raw.IdleTimeout))
		if err != nil {
			return fmt.Errorf("parse idle_timeout: %w", err)
		}
		cfg.IdleTimeout = d
	}
	if raw.LogLevel != nil {
		cfg.LogLevel = strings.TrimSpace(*raw.LogLevel)
	}
	return nil
}
