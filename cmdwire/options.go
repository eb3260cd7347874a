package cmdwire

import (
	"time"

	"github.com/0xRadioAc7iv/go-cmdwire/internal"
)

type options struct {
	cfg     *internal.Config
	timeout time.Duration
	inline  bool
}

type Option func(*options)

func WithHost(host string) Option {
	return func(o *options) {
		o.cfg.Host = host
	}
}

func WithPort(port int) Option {
	return func(o *options) {
		o.cfg.Port = port
	}
}

// WithTimeout bounds dialing and each request/reply round trip. Zero means
// no deadline.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithInline makes the client send commands as single space-separated lines
// instead of Array Format frames. Arguments containing spaces or line breaks
// are then rejected before anything is written.
func WithInline() Option {
	return func(o *options) {
		o.inline = true
	}
}
