// Package notify delivers pass alerts to chat channels. Every Sender gets
// each event that passes the configured event filter.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Event types.
const (
	EventPassFailed     = "pass_failed"
	EventDatasetWritten = "dataset_written"
	EventPassSkipped    = "pass_skipped"
)

// Sender is one notification channel.
type Sender interface {
	Send(ctx context.Context, title, message string) error
	Name() string
}

// Notifier fans events out to its senders.
type Notifier struct {
	senders []Sender
	events  map[string]bool
	logger  *slog.Logger
}

// NewNotifier creates a Notifier. An empty events list allows every event.
func NewNotifier(senders []Sender, events []string, logger *slog.Logger) *Notifier {
	allowed := make(map[string]bool, len(events))
	for _, e := range events {
		if e = strings.TrimSpace(e); e != "" {
			allowed[e] = true
		}
	}
	return &Notifier{
		senders: senders,
		events:  allowed,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// Enabled reports whether event would be delivered anywhere.
func (n *Notifier) Enabled(event string) bool {
	if n == nil || len(n.senders) == 0 {
		return false
	}
	return len(n.events) == 0 || n.events[event]
}

// Notify sends title and message to every sender when event is allowed.
// Sender failures are logged and joined into the returned error; one failing
// channel does not stop the others.
func (n *Notifier) Notify(ctx context.Context, event, title, message string) error {
	if !n.Enabled(event) {
		return nil
	}

	var errs []error
	for _, s := range n.senders {
		if err := s.Send(ctx, title, message); err != nil {
			n.logger.ErrorContext(ctx, "sender failed",
				slog.String("sender", s.Name()),
				slog.String("event", event),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// PassFailed reports a failed pass and when it will be retried.
func (n *Notifier) PassFailed(ctx context.Context, pass string, err error, retryIn time.Duration) error {
	return n.Notify(ctx, EventPassFailed,
		fmt.Sprintf("polyscout: %s pass failed", pass),
		fmt.Sprintf("%v\nretrying in %s", err, retryIn),
	)
}

// DatasetWritten reports a written dataset and its row count.
func (n *Notifier) DatasetWritten(ctx context.Context, name string, rows int) error {
	return n.Notify(ctx, EventDatasetWritten,
		fmt.Sprintf("polyscout: %s updated", name),
		fmt.Sprintf("%d rows", rows),
	)
}

// PassSkipped reports a pass that produced no output, with the reason.
func (n *Notifier) PassSkipped(ctx context.Context, pass, reason string) error {
	return n.Notify(ctx, EventPassSkipped,
		fmt.Sprintf("polyscout: %s pass skipped", pass),
		reason,
	)
}
