package resource

import (
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Mode selects how a Dispatcher orders concurrent commands.
type Mode string

const (
	// ModeSerial runs at most one command per resource at a time; later
	// commands wait their turn.
	ModeSerial Mode = "serial"
	// ModeConcurrent runs commands in parallel and drops completions that
	// a newer command for the same id has already overtaken.
	ModeConcurrent Mode = "concurrent"
)

// ParseMode maps a config string to a Mode. Empty means ModeSerial.
func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case "", ModeSerial:
		return ModeSerial, true
	case ModeConcurrent:
		return ModeConcurrent, true
	default:
		return "", false
	}
}

type options struct {
	logger    *slog.Logger
	bus       *Bus
	strictIDs bool
	mode      Mode
	recorder  Recorder
}

// Option configures a Store or Dispatcher.
type Option func(*options)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithBus publishes store transitions on b.
func WithBus(b *Bus) Option {
	return func(o *options) { o.bus = b }
}

// WithStrictIDs makes a store reject confirmed creates whose id it already
// holds instead of appending a duplicate.
func WithStrictIDs(strict bool) Option {
	return func(o *options) { o.strictIDs = strict }
}

// WithMode sets the dispatcher ordering mode. Defaults to ModeSerial.
func WithMode(m Mode) Option {
	return func(o *options) { o.mode = m }
}

// WithRecorder reports every finished dispatcher command to r.
func WithRecorder(r Recorder) Option {
	return func(o *options) { o.recorder = r }
}

func buildOptions(opts []Option) options {
	o := options{mode: ModeSerial}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

type gatewayOptions struct {
	client  *http.Client
	timeout time.Duration
	listURL string
	headers http.Header
	tracer  trace.Tracer
	logger  *slog.Logger
}

// GatewayOption configures an HTTPGateway.
type GatewayOption func(*gatewayOptions)

// WithHTTPClient replaces the default client. The client is never modified;
// WithTimeout applies to a copy of it.
func WithHTTPClient(c *http.Client) GatewayOption {
	return func(o *gatewayOptions) { o.client = c }
}

// WithTimeout bounds every request, whichever client is in use.
func WithTimeout(d time.Duration) GatewayOption {
	return func(o *gatewayOptions) { o.timeout = d }
}

// WithListURL reads the collection from a different URL than the one
// commands are sent to.
func WithListURL(u string) GatewayOption {
	return func(o *gatewayOptions) { o.listURL = u }
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) GatewayOption {
	return func(o *gatewayOptions) { o.headers.Add(key, value) }
}

// WithTracer sets the tracer used for request spans.
func WithTracer(t trace.Tracer) GatewayOption {
	return func(o *gatewayOptions) { o.tracer = t }
}

// WithGatewayLogger sets the gateway logger.
func WithGatewayLogger(l *slog.Logger) GatewayOption {
	return func(o *gatewayOptions) { o.logger = l }
}

func buildGatewayOptions(opts []GatewayOption) gatewayOptions {
	o := gatewayOptions{
		client:  &http.Client{Timeout: 30 * time.Second},
		headers: make(http.Header),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.timeout > 0 && o.client.Timeout != o.timeout {
		c := *o.client
		c.Timeout = o.timeout
		o.client = &c
	}
	if o.tracer == nil {
		o.tracer = otel.Tracer("github.com/revittco/storeadmin/internal/resource")
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}
