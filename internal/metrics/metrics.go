// Package metrics exposes Prometheus collectors for frame decoding and
// command dispatch.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Decode outcomes used as the "outcome" label.
const (
	OutcomeCommand       = "command"
	OutcomeNoCommand     = "no_command"
	OutcomeMalformed     = "malformed_count"
	OutcomeBulkLength    = "bulk_length"
	OutcomeFrameTooLarge = "frame_too_large"
)

var (
	registerOnce sync.Once

	framesDecoded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cmdwire",
			Subsystem: "decoder",
			Name:      "frames_total",
			Help:      "Frames handed to the decoder, by wire format and outcome.",
		},
		[]string{"format", "outcome"},
	)
	frameBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cmdwire",
			Subsystem: "decoder",
			Name:      "frame_bytes",
			Help:      "Size of decoded frames in bytes.",
			Buckets:   prometheus.ExponentialBuckets(16, 4, 8),
		},
		[]string{"format"},
	)
	commands = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cmdwire",
			Subsystem: "server",
			Name:      "commands_total",
			Help:      "Dispatched commands, by verb and whether the reply was an error.",
		},
		[]string{"verb", "error"},
	)
	commandDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cmdwire",
			Subsystem: "server",
			Name:      "command_duration_seconds",
			Help:      "Time spent dispatching a command.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"verb"},
	)
	connections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "cmdwire",
			Subsystem: "server",
			Name:      "connections",
			Help:      "Currently open client connections.",
		},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(framesDecoded, frameBytes, commands, commandDuration, connections)
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	RegisterMetrics()
	return promhttp.Handler()
}

func RecordFrame(format, outcome string, size int) {
	RegisterMetrics()
	framesDecoded.WithLabelValues(format, outcome).Inc()
	frameBytes.WithLabelValues(format).Observe(float64(size))
}

// RecordCommand counts a dispatched command. verb should come from a fixed
// set; unknown verbs are expected to be folded into one label by the caller.
func RecordCommand(verb string, isError bool, duration time.Duration) {
	RegisterMetrics()
	commands.WithLabelValues(verb, strconv.FormatBool(isError)).Inc()
	commandDuration.WithLabelValues(verb).Observe(duration.Seconds())
}

func ConnectionOpened() {
	RegisterMetrics()
	connections.Inc()
}

func ConnectionClosed() {
	RegisterMetrics()
	connections.Dec()
}
