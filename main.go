package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/harrisonrobin/nudge/pkg/auth"
	"github.com/harrisonrobin/nudge/pkg/config"
	"github.com/harrisonrobin/nudge/pkg/deadline"
	"github.com/harrisonrobin/nudge/pkg/google"
	"github.com/harrisonrobin/nudge/pkg/lifecycle"
	"github.com/harrisonrobin/nudge/pkg/logging"
	"github.com/harrisonrobin/nudge/pkg/model"
	"github.com/harrisonrobin/nudge/pkg/notify"
	"github.com/harrisonrobin/nudge/pkg/scheduler"
	"github.com/harrisonrobin/nudge/pkg/storage"
	"github.com/harrisonrobin/nudge/pkg/store"
	"github.com/harrisonrobin/nudge/pkg/tui"
)

func main() {
	// 1. Parse Flags
	configPath := flag.String("config", "", "Path to config.yaml (default ~/.config/nudge/config.yaml)")
	taskName := flag.String("task", "", "Add a task with this name")
	due := flag.String("due", "", "Deadline for -task, dd/mm/yyyy [HH:MM]")
	priority := flag.String("priority", "", "Priority for the new task: Low, Medium or High")
	interactive := flag.Bool("add", false, "Add a task with the interactive form")
	list := flag.Bool("list", false, "Print the saved tasks and exit")
	headless := flag.Bool("headless", false, "Do not show the task list; wait for an interrupt")
	doAuth := flag.Bool("auth", false, "Authenticate with Google Calendar")
	flag.Parse()

	// 2. Load Config
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.NewLogger(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	slog.SetDefault(logger)

	ctx, stop := lifecycle.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Handle Authentication
	if *doAuth {
		if err := authenticate(ctx, logger); err != nil {
			logger.Error("authentication failed", "error", err)
			os.Exit(1)
		}
		return
	}

	// 4. Handle List
	if *list {
		tasks, err := storage.Load(cfg.TasksPath)
		if err != nil {
			logger.Error("could not load tasks", "path", cfg.TasksPath, "error", err)
			os.Exit(1)
		}
		printTasks(os.Stdout, tasks)
		return
	}

	// 5. Resolve the new task, if any
	defaultPriority := cfg.DefaultPriority
	if *priority != "" {
		defaultPriority = *priority
	}
	prio, err := model.ParsePriority(defaultPriority)
	if err != nil {
		logger.Error("invalid priority", "priority", defaultPriority, "error", err)
		os.Exit(1)
	}

	var addTask lifecycle.TaskSource
	switch {
	case *taskName != "":
		if *due == "" {
			logger.Error("-task needs -due")
			os.Exit(1)
		}
		addTask = flagTask(*taskName, *due, prio)
	case *interactive:
		addTask = func(ctx context.Context) (*model.Task, error) {
			task, err := tui.PromptTask(ctx, tui.PromptOptions{Priority: prio, Input: os.Stdin, Output: os.Stdout})
			if errors.Is(err, tui.ErrCanceled) {
				logger.Info("no task added")
				return nil, nil
			}
			return task, err
		}
	}

	// 6. Notifier and optional calendar mirror
	opts := lifecycle.Options{
		TasksPath: cfg.TasksPath,
		Notifier:  newNotifier(cfg, logger),
		Scheduler: scheduler.Options{Message: cfg.Message, Icon: checkIcon(cfg.IconPath, logger)},
		AddTask:   addTask,
		Logger:    logger,
	}
	if cfg.Calendar.Enabled {
		if mirror := newMirror(ctx, cfg.Calendar.Name, logger); mirror != nil {
			opts.Mirror = mirror
		}
	}
	if !*headless {
		opts.View = func(ctx context.Context, st *store.Store) error {
			return tui.RunList(ctx, st.Snapshot, os.Stdin, os.Stdout)
		}
	}

	// 7. Run until the list is closed or an interrupt arrives
	if err := lifecycle.New(opts).Run(ctx); err != nil {
		logger.Error("nudge failed", "error", err)
		os.Exit(1)
	}
}

func authenticate(ctx context.Context, logger *slog.Logger) error {
	dir, err := config.Dir()
	if err != nil {
		return fmt.Errorf("could not find path to configuration directory: %w", err)
	}
	if err := auth.Reset(dir); err != nil {
		return err
	}
	if _, err := auth.GetCalendarService(ctx, dir); err != nil {
		return err
	}
	logger.Info("authentication successful", "path", dir)
	return nil
}

func flagTask(name, due string, prio model.Priority) lifecycle.TaskSource {
	return func(context.Context) (*model.Task, error) {
		ts, err := deadline.Parse(due, time.Now())
		if err != nil {
			return nil, err
		}
		return &model.Task{Content: name, Deadline: ts, Priority: prio}, nil
	}
}

func newNotifier(cfg *config.Config, logger *slog.Logger) notify.Notifier {
	switch cfg.Notifier {
	case "ntfy":
		return notify.Fanout{notify.NewNtfy(cfg.Ntfy.ServerURL, cfg.Ntfy.Topic), notify.Log{Logger: logger}}
	case "log":
		return notify.Log{Logger: logger}
	}
	return notify.NewDesktop()
}

// checkIcon returns the icon to send, or "" when the file is missing.
func checkIcon(path string, logger *slog.Logger) string {
	if path == "" {
		logger.Warn("icon not set")
		return ""
	}
	if _, err := os.Stat(path); err != nil {
		logger.Warn("icon not set", "path", path, "error", err)
		return ""
	}
	return path
}

func newMirror(ctx context.Context, calendarName string, logger *slog.Logger) *google.Mirror {
	dir, err := config.Dir()
	if err != nil {
		logger.Warn("calendar mirror disabled", "error", err)
		return nil
	}
	mirror, err := google.NewClient(ctx, dir, calendarName, logger)
	if err != nil {
		logger.Warn("calendar mirror disabled", "calendar", calendarName, "error", err)
		return nil
	}
	return mirror
}

func printTasks(w io.Writer, tasks []model.Task) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DEADLINE\tPRIORITY\tSTATUS\tTASK")
	for _, t := range tasks {
		status := "pending"
		switch {
		case t.Completed:
			status = "done"
		case t.Notified:
			status = "notified"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", t.DeadlineTime().Format(deadline.Layout), t.Priority, status, t.Content)
	}
	tw.Flush()
}
