// Package scheduler runs one countdown per pending task and fires a single
// notification when it expires.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/harrisonrobin/nudge/pkg/model"
	"github.com/harrisonrobin/nudge/pkg/notify"
	"github.com/harrisonrobin/nudge/pkg/store"
)

const DefaultMessage = "Time's up"

type Options struct {
	// Message is the notification body; defaults to DefaultMessage.
	Message string
	// Icon is passed through to the notifier when set.
	Icon string
	// Now defaults to time.Now.
	Now func() time.Time
}

type Scheduler struct {
	store    *store.Store
	notifier notify.Notifier
	opts     Options
	logger   *slog.Logger

	mu    sync.Mutex
	armed map[string]bool
}

func New(st *store.Store, notifier notify.Notifier, opts Options, logger *slog.Logger) *Scheduler {
	if opts.Message == "" {
		opts.Message = DefaultMessage
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		store:    st,
		notifier: notifier,
		opts:     opts,
		logger:   logger,
		armed:    make(map[string]bool),
	}
}

// Cohort is the set of countdowns started by one Start call.
type Cohort struct {
	g    errgroup.Group
	size int

	mu   sync.Mutex
	errs []error
}

// Len is the number of countdowns in the cohort.
func (c *Cohort) Len() int { return c.size }

// Wait blocks until every countdown has fired or been abandoned and returns
// the joined delivery failures.
func (c *Cohort) Wait() error {
	_ = c.g.Wait()
	c.mu.Lock()
	defer c.mu.Unlock()
	return errors.Join(c.errs...)
}

func (c *Cohort) fail(err error) {
	c.mu.Lock()
	c.errs = append(c.errs, err)
	c.mu.Unlock()
}

// Start arms a countdown for every pending task not already armed by this
// scheduler. Tasks added to the store afterwards need another Start.
// Cancelling ctx abandons countdowns that have not fired yet.
func (s *Scheduler) Start(ctx context.Context) *Cohort {
	c := &Cohort{}
	// Pending copies under the store lock; nothing below holds it.
	for _, task := range s.store.Pending() {
		if !s.arm(task.ID) {
			continue
		}
		c.size++
		c.g.Go(func() error {
			s.countdown(ctx, c, task)
			return nil
		})
	}
	return c
}

func (s *Scheduler) arm(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.armed[id] {
		return false
	}
	s.armed[id] = true
	return true
}

func (s *Scheduler) countdown(ctx context.Context, c *Cohort, task model.Task) {
	due := task.DeadlineTime()
	wait := due.Sub(s.opts.Now())
	if wait < 0 {
		wait = 0
	}
	s.logger.Info("starting countdown", "task", task.Content, "deadline", due.Format(time.DateTime), "wait", wait.Round(time.Second))

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		s.logger.Debug("countdown abandoned", "task", task.Content)
		return
	case <-timer.C:
	}

	err := s.notifier.Notify(ctx, notify.Notification{
		Summary:  task.Content,
		Body:     s.opts.Message,
		Icon:     s.opts.Icon,
		Priority: task.Priority,
	})
	if err != nil {
		s.logger.Error("notification failed", "task", task.Content, "error", err)
		c.fail(fmt.Errorf("notify %q: %w", task.Content, err))
		return
	}
	s.store.MarkNotified(task.ID)
	s.logger.Info("notified", "task", task.Content)
}
