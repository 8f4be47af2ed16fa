// Package lifecycle drives one run of nudge: load the tasks, optionally add
// one, arm the countdowns, wait for the user or an interrupt, then save.
package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/harrisonrobin/nudge/pkg/model"
	"github.com/harrisonrobin/nudge/pkg/notify"
	"github.com/harrisonrobin/nudge/pkg/scheduler"
	"github.com/harrisonrobin/nudge/pkg/storage"
	"github.com/harrisonrobin/nudge/pkg/store"
)

type State int32

const (
	Start State = iota
	Load
	AddTask
	Schedule
	Running
	ShutdownRequested
	Persist
	Exit
)

func (s State) String() string {
	switch s {
	case Start:
		return "start"
	case Load:
		return "load"
	case AddTask:
		return "add-task"
	case Schedule:
		return "schedule"
	case Running:
		return "running"
	case ShutdownRequested:
		return "shutdown-requested"
	case Persist:
		return "persist"
	case Exit:
		return "exit"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// TaskSource supplies a task to add before scheduling. A nil task adds
// nothing; an error aborts the run before anything is saved.
type TaskSource func(ctx context.Context) (*model.Task, error)

// Mirror copies pending tasks somewhere else, e.g. a calendar.
type Mirror interface {
	MirrorAll(ctx context.Context, tasks []model.Task) error
}

// View occupies the Running state. When it returns, shutdown begins.
type View func(ctx context.Context, st *store.Store) error

type Options struct {
	TasksPath string
	// Notifier defaults to logging the notification.
	Notifier  notify.Notifier
	Scheduler scheduler.Options

	AddTask TaskSource
	Mirror  Mirror
	// View is optional; without one Running lasts until ctx is done.
	View View

	Logger *slog.Logger
}

type Controller struct {
	opts   Options
	file   *storage.File
	logger *slog.Logger

	state atomic.Int32
	store atomic.Pointer[store.Store]
}

func New(opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.Log{Logger: logger}
	}
	return &Controller{
		opts:   opts,
		file:   storage.NewFile(opts.TasksPath, logger),
		logger: logger,
	}
}

// State is safe to call from any goroutine.
func (c *Controller) State() State {
	return State(c.state.Load())
}

// Store is nil until the tasks have been loaded.
func (c *Controller) Store() *store.Store {
	return c.store.Load()
}

func (c *Controller) enter(s State) {
	c.state.Store(int32(s))
	c.logger.Debug("lifecycle", "state", s.String())
}

// Run executes one run. Cancelling ctx (an interrupt) ends Running; pending
// countdowns are abandoned, deliveries in progress are waited for, and the
// store is saved before Run returns. A save
// failure is logged and returned, but never keeps Run from returning.
func (c *Controller) Run(ctx context.Context) error {
	c.enter(Load)
	tasks, err := c.file.Load()
	if err != nil {
		c.enter(Exit)
		return fmt.Errorf("load tasks: %w", err)
	}
	st := store.New(tasks)
	c.store.Store(st)
	c.logger.Info("loaded tasks", "count", len(tasks), "path", c.opts.TasksPath)
	for _, t := range st.Snapshot() {
		c.logger.Debug("loaded task", "task", t.Content, "deadline", t.DeadlineTime(), "priority", t.Priority, "notified", t.Notified)
	}

	if c.opts.AddTask != nil {
		c.enter(AddTask)
		task, err := c.opts.AddTask(ctx)
		if err != nil {
			c.enter(Exit)
			return fmt.Errorf("add task: %w", err)
		}
		if task != nil {
			added := st.Add(*task)
			c.logger.Info("added task", "task", added.Content, "deadline", added.DeadlineTime(), "priority", added.Priority)
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.enter(Schedule)
	cohort := scheduler.New(st, c.opts.Notifier, c.opts.Scheduler, c.logger).Start(runCtx)
	c.logger.Info("countdowns started", "count", cohort.Len())

	// The mirror talks to the network, so it runs beside the countdowns.
	mirrored := make(chan struct{})
	go func() {
		defer close(mirrored)
		if c.opts.Mirror == nil {
			return
		}
		if err := c.opts.Mirror.MirrorAll(runCtx, st.Pending()); err != nil {
			c.logger.Warn("calendar mirror failed", "error", err)
		}
	}()

	c.enter(Running)
	if c.opts.View != nil {
		if err := c.opts.View(ctx, st); err != nil {
			c.logger.Error("view failed", "error", err)
		}
	} else {
		<-ctx.Done()
	}

	c.enter(ShutdownRequested)
	c.logger.Info("exiting")
	cancel()
	// Unfired timers return at once; a delivery already under way finishes
	// so its notified flag is part of the saved snapshot.
	if err := cohort.Wait(); err != nil {
		c.logger.Debug("countdowns ended with failures", "error", err)
	}
	<-mirrored

	c.enter(Persist)
	err = c.file.Save(st)
	c.enter(Exit)
	if err != nil {
		c.logger.Error("could not save tasks", "path", c.opts.TasksPath, "error", err)
		return fmt.Errorf("save tasks: %w", err)
	}
	return nil
}
