package utils

import (
	"flag"
	"fmt"

	"github.com/0xRadioAc7iv/go-cmdwire/internal"
)

// ServerFlags holds the command line of the cmdwire server. Only flags the
// user actually set override values from the config file.
type ServerFlags struct {
	ConfigPath  string
	Host        string
	Port        int
	MetricsAddr string
	Strict      bool
	LogLevel    string

	set map[string]bool
}

func HandleCLIInputs(args []string) (*ServerFlags, error) {
	f := &ServerFlags{set: make(map[string]bool)}

	fs := flag.NewFlagSet("cmdwire", flag.ContinueOnError)
	fs.StringVar(&f.ConfigPath, "config", "", "Path to a .toml or .yaml config file")
	fs.StringVar(&f.Host, "host", internal.DEFAULT_HOST, "Host to bind the TCP server to")
	fs.IntVar(&f.Port, "port", internal.DEFAULT_PORT, "Port to use for the TCP Server")
	fs.StringVar(&f.MetricsAddr, "metrics-addr", "", "Address for the Prometheus /metrics endpoint (empty disables it)")
	fs.BoolVar(&f.Strict, "strict", false, "Reject bulk strings whose declared length does not match")
	fs.StringVar(&f.LogLevel, "log-level", "info", "Log level (trace, debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(fl *flag.Flag) {
		f.set[fl.Name] = true
	})

	return f, nil
}

// ResolveConfig loads the config file, if any, and applies explicit flags on
// top of it.
func (f *ServerFlags) ResolveConfig() (*internal.Config, error) {
	cfg := internal.DefaultConfig()

	if f.ConfigPath != "" {
		if !PathExists(f.ConfigPath) {
			return nil, fmt.Errorf("config file %s does not exist", f.ConfigPath)
		}

		loaded, err := internal.LoadConfig(f.ConfigPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if f.set["host"] {
		cfg.Host = f.Host
	}
	if f.set["port"] {
		cfg.Port = f.Port
	}
	if f.set["metrics-addr"] {
		cfg.MetricsAddr = f.MetricsAddr
	}
	if f.set["strict"] {
		cfg.StrictBulkLength = f.Strict
	}
	if f.set["log-level"] {
		cfg.LogLevel = f.LogLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
