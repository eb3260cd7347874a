package utils

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/0xRadioAc7iv/go-cmdwire/internal/logging"
)

// ListenForProcessInterruptOrKill blocks until it receives an interrupt (Ctrl+C)
// or termination signal (SIGTERM), then returns. This is typically used to keep
// a program running until the user requests shutdown.
func ListenForProcessInterruptOrKill() os.Signal {
	logger := logging.New("process")

	// Listen for Ctrl+C or kill
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	logger.Info().Msg("press Ctrl+C to exit")

	sig := <-sigChan // block until signal arrives
	logger.Info().Str("signal", sig.String()).Msg("shutting down")
	return sig
}
