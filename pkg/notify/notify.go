// Package notify delivers "time's up" notifications. Delivery is
// fire-and-forget: callers log failures and never retry.
package notify

import (
	"context"
	"errors"
	"log/slog"

	"github.com/harrisonrobin/nudge/pkg/model"
)

// Notification is one "show notification" request.
type Notification struct {
	Summary  string
	Body     string
	Icon     string // file path or icon name, optional
	Priority model.Priority
}

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Func adapts a plain function to Notifier.
type Func func(ctx context.Context, n Notification) error

func (f Func) Notify(ctx context.Context, n Notification) error { return f(ctx, n) }

// Log writes notifications to a logger. Useful headless or when no
// notification daemon is running.
type Log struct {
	Logger *slog.Logger
}

func (l Log) Notify(_ context.Context, n Notification) error {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info(n.Body, "task", n.Summary, "priority", n.Priority)
	return nil
}

// Fanout sends to every notifier and joins their errors.
type Fanout []Notifier

func (f Fanout) Notify(ctx context.Context, n Notification) error {
	var errs []error
	for _, notifier := range f {
		if err := notifier.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
