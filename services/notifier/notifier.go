// Package notifier delivers product alerts and cycle summaries.
package notifier

import (
	"context"
	"errors"

	"sjsage522/pricewatcher/logger"
)

// Notifier is a sink for formatted alert text
type Notifier interface {
	// Notify delivers text; an error is reported to the caller but never fatal
	Notify(ctx context.Context, text string) error

	// Close releases the notifier's resources
	Close() error
}

// Multi fans a message out to every notifier
type Multi []Notifier

// Notify delivers to all notifiers and joins their errors
func (m Multi) Notify(ctx context.Context, text string) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, text); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes all notifiers and joins their errors
func (m Multi) Close() error {
	var errs []error
	for _, n := range m {
		if err := n.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogNotifier writes alerts to the log; used when no channel is configured
type LogNotifier struct {
	log *logger.Logger
}

// NewLogNotifier creates a log-only notifier
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{log: logger.ForNotifier()}
}

// NewLogNotifierWith creates a log notifier writing to l
func NewLogNotifierWith(l *logger.Logger) *LogNotifier {
	return &LogNotifier{log: l}
}

// Notify logs text
func (n *LogNotifier) Notify(_ context.Context, text string) error {
	n.log.Info().Str("channel", "log").Msg(text)
	return nil
}

// Close is a no-op
func (n *LogNotifier) Close() error {
	return nil
}
