// Package logging builds the zap logger and the optional remote log
// sink. The remote sink is strictly fire-and-forget: a record that
// cannot be delivered is dropped, never retried and never surfaced.
package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"kgraph/domain/events"
)

// NewLogger creates the application logger for the given environment
func NewLogger(environment string) (*zap.Logger, error) {
	if environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// record is the wire shape sent to the remote sink
type record struct {
	Level     string `json:"level"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// RemoteCore forwards log entries to an external HTTP sink. Entries are
// queued on a bounded buffer; when the buffer is full or the sink is
// down, entries fall through to the local logger only.
type RemoteCore struct {
	zapcore.LevelEnabler
	endpoint string
	client   *http.Client
	queue    chan record
	done     chan struct{}
}

// NewRemoteCore creates a remote core delivering at the given level and above
func NewRemoteCore(endpoint string, enab zapcore.LevelEnabler) *RemoteCore {
	core := &RemoteCore{
		LevelEnabler: enab,
		endpoint:     endpoint,
		client:       &http.Client{Timeout: 3 * time.Second},
		queue:        make(chan record, 256),
		done:         make(chan struct{}),
	}
	go core.run()
	return core
}

// With implements zapcore.Core. Structured fields are not forwarded;
// the remote contract is level, message and timestamp only.
func (c *RemoteCore) With([]zapcore.Field) zapcore.Core {
	return c
}

// Check implements zapcore.Core
func (c *RemoteCore) Check(entry zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return checked.AddCore(entry, c)
	}
	return checked
}

// Write implements zapcore.Core. Never blocks the caller: a full queue
// drops the record.
func (c *RemoteCore) Write(entry zapcore.Entry, _ []zapcore.Field) error {
	rec := record{
		Level:     entry.Level.String(),
		Message:   entry.Message,
		Timestamp: entry.Time.UTC().Format(time.RFC3339),
	}
	select {
	case c.queue <- rec:
	default:
	}
	return nil
}

// Sync implements zapcore.Core
func (c *RemoteCore) Sync() error {
	return nil
}

// Close stops the delivery worker
func (c *RemoteCore) Close() {
	close(c.done)
}

func (c *RemoteCore) run() {
	for {
		select {
		case rec := <-c.queue:
			c.send(rec)
		case <-c.done:
			return
		}
	}
}

func (c *RemoteCore) send(rec record) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return
	}
	resp, err := c.client.Post(c.endpoint, "application/json", bytes.NewReader(payload))
	if err != nil {
		return // delivery failures are swallowed
	}
	resp.Body.Close()
}

// WithRemoteSink tees a logger into a remote core
func WithRemoteSink(logger *zap.Logger, core *RemoteCore) *zap.Logger {
	return logger.WithOptions(zap.WrapCore(func(local zapcore.Core) zapcore.Core {
		return zapcore.NewTee(local, core)
	}))
}

// EventSink logs drained domain events. It satisfies ports.EventSink
// and doubles as the diagnostic trail for every aggregate mutation.
type EventSink struct {
	logger *zap.Logger
}

// NewEventSink creates a log-backed domain event sink
func NewEventSink(logger *zap.Logger) *EventSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventSink{logger: logger}
}

// Publish implements ports.EventSink
func (s *EventSink) Publish(_ context.Context, event events.DomainEvent) {
	s.logger.Info("domain event",
		zap.String("type", event.GetEventType()),
		zap.String("aggregate_id", event.GetAggregateID()),
		zap.Time("occurred_at", event.GetTimestamp()),
	)
}
