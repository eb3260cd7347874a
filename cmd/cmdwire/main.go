package main

import (
	"os"

	"github.com/0xRadioAc7iv/go-cmdwire/core"
	"github.com/0xRadioAc7iv/go-cmdwire/internal/logging"
	"github.com/0xRadioAc7iv/go-cmdwire/internal/utils"
)

func main() {
	logging.ConfigureRuntime()
	logger := logging.New("main")

	flags, err := utils.HandleCLIInputs(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	cfg, err := flags.ResolveConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	// The environment wins over the config file.
	if os.Getenv(logging.EnvLogLevel) == "" && !logging.SetLevel(cfg.LogLevel) {
		logger.Warn().Str("level", cfg.LogLevel).Msg("unknown log level, keeping default")
	}

	server := core.NewServer(cfg)

	if err := server.Start(); err != nil {
		logger.Fatal().Err(err).Msg("error while starting")
	}
	defer server.Stop()

	utils.ListenForProcessInterruptOrKill()
}
