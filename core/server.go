package core

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/0xRadioAc7iv/go-cmdwire/internal"
	"github.com/0xRadioAc7iv/go-cmdwire/internal/logging"
	"github.com/0xRadioAc7iv/go-cmdwire/internal/metrics"
	"github.com/0xRadioAc7iv/go-cmdwire/internal/protocol"
	"github.com/0xRadioAc7iv/go-cmdwire/internal/server"
)

// Server accepts client connections, decodes their frames and dispatches the
// resulting commands against an in-memory Keyspace.
type Server struct {
	listener      net.Listener
	serverCancel  context.CancelFunc
	serveDone     chan struct{}
	metricsServer *http.Server
	decoder       *protocol.Decoder
	keyspace      *Keyspace
	logger        zerolog.Logger

	connsMu sync.Mutex
	conns   map[net.Conn]struct{}
	closed  bool

	Host             string
	Port             int
	MetricsAddr      string
	StrictBulkLength bool
	MaxFrameBytes    int
	IdleTimeout      time.Duration
}

// NewServer copies the listener and decoding settings out of cfg.
func NewServer(cfg *internal.Config) *Server {
	return &Server{
		Host:             cfg.Host,
		Port:             cfg.Port,
		MetricsAddr:      cfg.MetricsAddr,
		StrictBulkLength: cfg.StrictBulkLength,
		MaxFrameBytes:    cfg.MaxFrameBytes,
		IdleTimeout:      cfg.IdleTimeout,
	}
}

func (s *Server) Start() error {
	s.logger = logging.New("core")

	if s.MaxFrameBytes <= 0 {
		s.MaxFrameBytes = internal.DEFAULT_MAX_FRAME_BYTES
	}

	var opts []protocol.DecoderOption
	if s.StrictBulkLength {
		opts = append(opts, protocol.WithStrictBulkLength())
	}
	s.decoder = protocol.NewDecoder(opts...)
	s.keyspace = NewKeyspace()
	s.conns = make(map[net.Conn]struct{})
	s.closed = false

	addr := net.JoinHostPort(s.Host, fmt.Sprintf("%d", s.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		s.logger.Error().Err(err).Str("addr", addr).Msg("listen failed")
		return err
	}
	s.listener = ln

	if s.MetricsAddr != "" {
		if err := s.startMetricsServer(); err != nil {
			ln.Close()
			return err
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.serverCancel = cancel
	s.serveDone = make(chan struct{})
	go func() {
		defer close(s.serveDone)
		if err := server.Serve(ctx, ln, s.commandHandler); err != nil {
			s.logger.Error().Err(err).Msg("server stopped abruptly")
		}
	}()

	s.logger.Info().
		Str("addr", ln.Addr().String()).
		Bool("strict_bulk_length", s.StrictBulkLength).
		Msg("cmdwire started")

	return nil
}

func (s *Server) startMetricsServer() error {
	ln, err := net.Listen("tcp", s.MetricsAddr)
	if err != nil {
		s.logger.Error().Err(err).Str("addr", s.MetricsAddr).Msg("metrics listen failed")
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	s.metricsServer = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := s.metricsServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Msg("metrics server stopped")
		}
	}()

	s.logger.Info().Str("addr", ln.Addr().String()).Msg("serving /metrics")
	return nil
}

// Addr returns the address the server listens on, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Keyspace exposes the store the dispatcher writes to.
func (s *Server) Keyspace() *Keyspace {
	return s.keyspace
}

// Stop closes the listener and every open client connection.
func (s *Server) Stop() {
	if s.serverCancel == nil {
		return
	}

	s.serverCancel()
	s.serverCancel = nil
	<-s.serveDone

	s.connsMu.Lock()
	s.closed = true
	for conn := range s.conns {
		conn.Close()
	}
	s.connsMu.Unlock()

	if s.metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.metricsServer.Shutdown(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("metrics server shutdown")
		}
	}

	s.logger.Info().Msg("cmdwire stopped")
}

// trackConn registers or forgets conn. Registering after Stop has swept the
// open connections closes conn and reports false.
func (s *Server) trackConn(conn net.Conn, open bool) bool {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()

	if !open {
		delete(s.conns, conn)
		return true
	}
	if s.closed {
		conn.Close()
		return false
	}
	s.conns[conn] = struct{}{}
	return true
}
