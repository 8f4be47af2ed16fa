package notify

import (
	"context"
	"errors"
	"fmt"
	"os/exec"

	"github.com/harrisonrobin/nudge/pkg/model"
)

// Desktop shows notifications through notify-send (libnotify).
type Desktop struct {
	// Command defaults to "notify-send".
	Command string
	run     func(ctx context.Context, name string, args ...string) ([]byte, error)
}

func NewDesktop() *Desktop {
	return &Desktop{Command: "notify-send", run: runCommand}
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

func (d *Desktop) Notify(ctx context.Context, n Notification) error {
	args := []string{"--app-name=nudge", "--urgency=" + urgency(n.Priority)}
	if n.Icon != "" {
		args = append(args, "--icon="+n.Icon)
	}
	args = append(args, "--", n.Summary, n.Body)

	run := d.run
	if run == nil {
		run = runCommand
	}
	command := d.Command
	if command == "" {
		command = "notify-send"
	}

	if _, err := run(ctx, command, args...); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("%s failed: exit code %d, stderr: %s", command, exitErr.ExitCode(), exitErr.Stderr)
		}
		return fmt.Errorf("%s failed: %w", command, err)
	}
	return nil
}

func urgency(p model.Priority) string {
	switch p {
	case model.Low:
		return "low"
	case model.High:
		return "critical"
	}
	return "normal"
}
