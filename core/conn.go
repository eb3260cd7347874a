package core

import (
	"bufio"
	"errors"
	"io"
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/0xRadioAc7iv/go-cmdwire/internal/metrics"
	"github.com/0xRadioAc7iv/go-cmdwire/internal/protocol"
	"github.com/0xRadioAc7iv/go-cmdwire/internal/server"
)

func (s *Server) commandHandler(conn net.Conn) {
	logger := s.logger.With().
		Str("conn", uuid.NewString()).
		Str("remote", conn.RemoteAddr().String()).
		Logger()

	if !s.trackConn(conn, true) {
		logger.Debug().Msg("server stopping, connection refused")
		return
	}
	metrics.ConnectionOpened()
	defer func() {
		conn.Close()
		s.trackConn(conn, false)
		metrics.ConnectionClosed()
	}()

	logger.Debug().Msg("client connected")

	reader := bufio.NewReaderSize(conn, 64*1024)
	writer := bufio.NewWriter(conn)

	for {
		if s.IdleTimeout > 0 {
			conn.SetReadDeadline(time.Now().Add(s.IdleTimeout))
		}

		frame, err := server.ReadFrame(reader, s.MaxFrameBytes)
		if err != nil {
			if errors.Is(err, server.ErrFrameTooLarge) {
				metrics.RecordFrame(protocol.FormatUnknown.String(), metrics.OutcomeFrameTooLarge, s.MaxFrameBytes)
				logger.Warn().Int("limit", s.MaxFrameBytes).Msg("frame too large, closing")
				s.reply(writer, protocol.ErrorReply(ErrMsgFrameTooLarge))
				return
			}
			if errors.Is(err, io.EOF) {
				logger.Debug().Msg("client disconnected")
			} else {
				logger.Debug().Err(err).Msg("read failed")
			}
			return
		}

		format := protocol.DetectFormat(frame).String()

		cmd, ok, err := s.decoder.Decode(frame)
		switch {
		case errors.Is(err, protocol.ErrMalformedCount):
			metrics.RecordFrame(format, metrics.OutcomeMalformed, len(frame))
			logger.Warn().Err(err).Msg("malformed array count, closing")
			s.reply(writer, protocol.ErrorReply(ErrMsgMultibulkLength))
			return
		case errors.Is(err, protocol.ErrBulkLengthMismatch):
			metrics.RecordFrame(format, metrics.OutcomeBulkLength, len(frame))
			logger.Warn().Err(err).Msg("bulk length mismatch, closing")
			s.reply(writer, protocol.ErrorReply(ErrMsgBulkLength))
			return
		case err != nil:
			logger.Error().Err(err).Msg("decode failed")
			s.reply(writer, protocol.ErrorReply(ErrMsgUnparseable))
			return
		case !ok:
			metrics.RecordFrame(format, metrics.OutcomeNoCommand, len(frame))
			logger.Debug().Int("bytes", len(frame)).Msg("frame carried no command")
			if !s.reply(writer, protocol.ErrorReply(ErrMsgUnparseable)) {
				return
			}
			continue
		}

		metrics.RecordFrame(format, metrics.OutcomeCommand, len(frame))

		start := time.Now()
		reply := s.handleCommand(cmd)
		metrics.RecordCommand(metricVerb(cmd.Verb), reply.IsError(), time.Since(start))

		logger.Debug().Str("verb", cmd.Verb).Int("args", len(cmd.Args)).Str("format", format).Msg("command")

		if !s.reply(writer, reply) {
			return
		}
		if cmd.Verb == "QUIT" {
			return
		}
	}
}

// reply writes and flushes r, reporting whether the connection is still usable.
func (s *Server) reply(w *bufio.Writer, r protocol.Reply) bool {
	if err := protocol.WriteReply(w, r); err != nil {
		return false
	}
	return w.Flush() == nil
}
