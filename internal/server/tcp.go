package server

import (
	"context"
	"errors"
	"net"

	"github.com/0xRadioAc7iv/go-cmdwire/internal/logging"
)

// Serve accepts connections on ln and runs handler for each one in its own
// goroutine. Cancelling ctx closes ln and makes Serve return nil.
func Serve(ctx context.Context, ln net.Listener, handler func(conn net.Conn)) error {
	logger := logging.New("tcp")

	// When ctx is cancelled, close listener
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	logger.Info().Str("addr", ln.Addr().String()).Msg("accepting connections")

	// Accept Loop
	for {
		conn, err := ln.Accept()
		if err != nil {
			// When ln.Close() is called, Accept() returns an error.
			// This is how we break out of the loop cleanly.
			select {
			case <-ctx.Done():
				return nil // graceful shutdown
			default:
			}

			if errors.Is(err, net.ErrClosed) {
				return err
			}
			logger.Warn().Err(err).Msg("accept failed")
			continue
		}

		go handler(conn)
	}
}
