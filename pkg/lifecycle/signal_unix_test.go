//go:build unix

package lifecycle

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrisonrobin/nudge/pkg/logging"
	"github.com/harrisonrobin/nudge/pkg/model"
	"github.com/harrisonrobin/nudge/pkg/storage"
)

func TestInterruptDuringCountdownSavesAndExits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	writeTasks(t, path, model.Task{ID: "a", Content: "stretch", Deadline: future(60 * time.Second), Priority: model.Medium})

	ctx, stop := NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rec := &recorder{}
	c := New(Options{TasksPath: path, Notifier: rec, Logger: logging.Discard()})

	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()
	require.Eventually(t, func() bool { return c.State() == Running }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGINT))

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after SIGINT")
	}
	assert.Zero(t, rec.count())

	saved, err := storage.Load(path)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, "stretch", saved[0].Content)
	assert.False(t, saved[0].Notified)
}

func TestNotifyContextReleasesSignalsAfterFirst(t *testing.T) {
	ctx, stop := NotifyContext(context.Background(), syscall.SIGUSR1)
	defer stop()

	// Keeps the process alive once NotifyContext lets go of SIGUSR1.
	caught := make(chan os.Signal, 2)
	signal.Notify(caught, syscall.SIGUSR1)
	defer signal.Stop(caught)

	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGUSR1))
	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("context not cancelled by the first signal")
	}
	<-caught

	// After release the context is unaffected by anything further and stop
	// stays safe to call.
	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGUSR1))
	select {
	case <-caught:
	case <-time.After(2 * time.Second):
		t.Fatal("second signal not delivered")
	}
	stop()
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}
