package events

import (
	"context"
	"log/slog"
)

// Inbox is a channel-backed publisher. Publish never blocks the committing
// operation: when the buffer is full the event is dropped and counted against
// the logger.
type Inbox struct {
	ch     chan Event
	logger *slog.Logger
}

func NewInbox(size int, logger *slog.Logger) *Inbox {
	return &Inbox{ch: make(chan Event, size), logger: logger}
}

func (i *Inbox) Publish(_ context.Context, event Event) error {
	select {
	case i.ch <- event:
		return nil
	default:
		i.logger.Warn("event inbox full, dropping event", "event", event.EventName())
		return nil
	}
}

// Events exposes the receiving side for a Worker.
func (i *Inbox) Events() <-chan Event {
	return i.ch
}

// Sink receives events off the worker loop.
type Sink interface {
	Deliver(ctx context.Context, event Event) error
}

// Worker drains an inbox into a sink. It keeps background delivery testable
// without wiring a broker.
type Worker struct {
	inbox  <-chan Event
	sink   Sink
	logger *slog.Logger
}

func NewWorker(inbox <-chan Event, sink Sink, logger *slog.Logger) *Worker {
	return &Worker{inbox: inbox, sink: sink, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.sink.Deliver(ctx, event); err != nil {
				w.logger.Error("event delivery failed",
					"event", event.EventName(), "error", err)
			}
		}
	}
}

// LogSink logs delivered events; the development default when no broker is
// configured.
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) Deliver(_ context.Context, event Event) error {
	s.Logger.Info("domain event", "event", event.EventName(), "payload", event)
	return nil
}
