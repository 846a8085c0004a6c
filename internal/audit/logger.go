package audit

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/revittco/storeadmin/internal/resource"
	"github.com/revittco/storeadmin/internal/store"
)

// DefaultHints are payload keys redacted in addition to the global patterns.
var DefaultHints = []string{"email", "phone"}

// Logger persists finished commands with payload redaction. It implements
// resource.Recorder.
type Logger struct {
	store  store.CommandStore
	hints  []string
	actor  func(context.Context) string
	logger *slog.Logger
}

// Option configures a Logger.
type Option func(*Logger)

// WithHints replaces the per-deployment redaction hints.
func WithHints(hints ...string) Option {
	return func(l *Logger) { l.hints = hints }
}

// WithActor sets how the acting account is derived from a request context.
func WithActor(fn func(context.Context) string) Option {
	return func(l *Logger) { l.actor = fn }
}

// WithLogger sets the logger used to report write failures.
func WithLogger(lg *slog.Logger) Option {
	return func(l *Logger) { l.logger = lg }
}

// NewLogger creates a Logger writing to s.
func NewLogger(s store.CommandStore, opts ...Option) *Logger {
	l := &Logger{
		store:  s,
		hints:  DefaultHints,
		actor:  func(context.Context) string { return "" },
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// RecordCommand redacts the payload and inserts the record. The insert
// outlives a cancelled request; failures are logged, never returned.
func (l *Logger) RecordCommand(ctx context.Context, c resource.Command) {
	rec := &store.CommandRecord{
		Timestamp: c.Started.UTC(),
		Token:     c.Token,
		Resource:  c.Resource,
		Op:        c.Op,
		EntityID:  c.ID,
		Actor:     l.actor(ctx),
		Status:    c.Phase.String(),
		LatencyMs: int(c.Duration.Milliseconds()),
	}
	if c.Err != nil {
		rec.ErrorMessage = c.Err.Error()
	}
	if c.Payload != nil {
		data, err := json.Marshal(c.Payload)
		if err != nil {
			l.logger.Warn("audit payload not encodable", "resource", c.Resource, "op", c.Op, "error", err)
		} else {
			rec.PayloadRedacted = Redact(data, l.hints)
		}
	}

	if err := l.store.InsertCommandRecord(context.WithoutCancel(ctx), rec); err != nil {
		l.logger.Warn("insert command record", "resource", c.Resource, "op", c.Op, "token", c.Token, "error", err)
	}
}
