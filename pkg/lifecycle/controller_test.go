package lifecycle

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrisonrobin/nudge/pkg/logging"
	"github.com/harrisonrobin/nudge/pkg/model"
	"github.com/harrisonrobin/nudge/pkg/notify"
	"github.com/harrisonrobin/nudge/pkg/storage"
	"github.com/harrisonrobin/nudge/pkg/store"
)

type recorder struct {
	mu    sync.Mutex
	fired []string
}

func (r *recorder) Notify(_ context.Context, n notify.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fired = append(r.fired, n.Summary)
	return nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.fired)
}

type mirrorSpy struct {
	got []model.Task
}

func (m *mirrorSpy) MirrorAll(_ context.Context, tasks []model.Task) error {
	m.got = tasks
	return errors.New("calendar unreachable")
}

func future(d time.Duration) uint64 {
	return uint64(time.Now().Add(d).Unix())
}

func writeTasks(t *testing.T, path string, tasks ...model.Task) {
	t.Helper()
	require.NoError(t, storage.Save(store.New(tasks), path))
}

func TestCancelPersistsWithoutWaitingForTimers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todo", "tasks.json")
	writeTasks(t, path, model.Task{ID: "a", Content: "existing", Deadline: future(time.Hour), Priority: model.Low})

	rec := &recorder{}
	c := New(Options{
		TasksPath: path,
		Notifier:  rec,
		AddTask: func(ctx context.Context) (*model.Task, error) {
			return &model.Task{Content: "added", Deadline: future(60 * time.Second), Priority: model.High}, nil
		},
		Logger: logging.Discard(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	require.Eventually(t, func() bool { return c.State() == Running }, 2*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, Exit, c.State())
	assert.Zero(t, rec.count())

	saved, err := storage.Load(path)
	require.NoError(t, err)
	require.Len(t, saved, 2)
	assert.Equal(t, "existing", saved[0].Content)
	assert.Equal(t, "added", saved[1].Content)
	assert.NotEmpty(t, saved[1].ID)
	assert.False(t, saved[1].Notified)
}

func TestViewReturnTriggersShutdownAndNotifiedIsSaved(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	writeTasks(t, path,
		model.Task{ID: "due", Content: "overdue", Deadline: future(-time.Minute), Priority: model.Medium},
		model.Task{ID: "later", Content: "later", Deadline: future(time.Hour), Priority: model.Medium},
	)

	rec := &recorder{}
	var viewed []model.Task
	c := New(Options{
		TasksPath: path,
		Notifier:  rec,
		View: func(ctx context.Context, st *store.Store) error {
			require.Eventually(t, func() bool { return rec.count() == 1 }, 2*time.Second, 10*time.Millisecond)
			require.Eventually(t, func() bool { return len(st.Pending()) == 1 }, time.Second, 10*time.Millisecond)
			viewed = st.Snapshot()
			return nil
		},
		Logger: logging.Discard(),
	})

	require.NoError(t, c.Run(context.Background()))
	assert.Len(t, viewed, 2)

	saved, err := storage.Load(path)
	require.NoError(t, err)
	require.Len(t, saved, 2)
	assert.True(t, saved[0].Notified)
	assert.False(t, saved[1].Notified)
}

func TestNotifiedTasksDoNotFireAgain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	writeTasks(t, path, model.Task{ID: "a", Content: "already", Deadline: future(-time.Hour), Priority: model.Low, Notified: true})

	rec := &recorder{}
	c := New(Options{
		TasksPath: path,
		Notifier:  rec,
		View: func(ctx context.Context, st *store.Store) error {
			time.Sleep(100 * time.Millisecond)
			return nil
		},
		Logger: logging.Discard(),
	})

	require.NoError(t, c.Run(context.Background()))
	assert.Zero(t, rec.count())
}

func TestLoadFailureAbortsStartup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	content := []byte("not json")
	require.NoError(t, os.WriteFile(path, content, 0600))

	c := New(Options{TasksPath: path, Logger: logging.Discard()})
	err := c.Run(context.Background())

	var loadErr *storage.LoadError
	require.True(t, errors.As(err, &loadErr), "got %v", err)
	assert.Equal(t, Exit, c.State())
	assert.Nil(t, c.Store())

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, content, after)
}

func TestAddTaskFailureAbortsWithoutSaving(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")

	c := New(Options{
		TasksPath: path,
		AddTask: func(ctx context.Context) (*model.Task, error) {
			return nil, errors.New("deadline must be in the future")
		},
		Logger: logging.Discard(),
	})
	err := c.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "add task")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Zero(t, info.Size())
}

func TestSaveFailureIsReportedButRunReturns(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "todo")
	path := filepath.Join(dir, "tasks.json")

	c := New(Options{
		TasksPath: path,
		View: func(ctx context.Context, st *store.Store) error {
			// Replace the directory with a plain file so the write cannot succeed.
			require.NoError(t, os.RemoveAll(dir))
			require.NoError(t, os.WriteFile(dir, nil, 0600))
			return nil
		},
		Logger: logging.Discard(),
	})

	err := c.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save tasks")
	assert.Equal(t, Exit, c.State())
}

func TestMirrorFailureIsNotFatal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	writeTasks(t, path,
		model.Task{ID: "a", Content: "pending", Deadline: future(time.Hour), Priority: model.Low},
		model.Task{ID: "b", Content: "sent", Deadline: future(-time.Hour), Priority: model.Low, Notified: true},
	)

	spy := &mirrorSpy{}
	c := New(Options{
		TasksPath: path,
		Mirror:    spy,
		View:      func(ctx context.Context, st *store.Store) error { return nil },
		Logger:    logging.Discard(),
	})

	require.NoError(t, c.Run(context.Background()))
	require.Len(t, spy.got, 1)
	assert.Equal(t, "a", spy.got[0].ID)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "shutdown-requested", ShutdownRequested.String())
	assert.Equal(t, "state(42)", State(42).String())
}

func TestShutdownWaitsForDeliveryInProgress(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	writeTasks(t, path, model.Task{ID: "a", Content: "overdue", Deadline: future(-time.Minute), Priority: model.High})

	entered := make(chan struct{})
	var once sync.Once
	delivered := make(chan struct{})
	slow := notify.Func(func(ctx context.Context, n notify.Notification) error {
		once.Do(func() { close(entered) })
		time.Sleep(200 * time.Millisecond)
		close(delivered)
		return nil
	})

	c := New(Options{
		TasksPath: path,
		Notifier:  slow,
		View: func(ctx context.Context, st *store.Store) error {
			<-entered
			return nil
		},
		Logger: logging.Discard(),
	})

	require.NoError(t, c.Run(context.Background()))
	select {
	case <-delivered:
	default:
		t.Fatal("Run returned before the delivery finished")
	}

	saved, err := storage.Load(path)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.True(t, saved[0].Notified)
}

type blockingMirror struct {
	called chan struct{}
	ended  chan struct{}
}

func (m *blockingMirror) MirrorAll(ctx context.Context, tasks []model.Task) error {
	close(m.called)
	<-ctx.Done()
	close(m.ended)
	return ctx.Err()
}

func TestSlowMirrorDoesNotDelayCountdowns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	writeTasks(t, path, model.Task{ID: "a", Content: "overdue", Deadline: future(-time.Minute), Priority: model.Medium})

	rec := &recorder{}
	mirror := &blockingMirror{called: make(chan struct{}), ended: make(chan struct{})}
	c := New(Options{
		TasksPath: path,
		Notifier:  rec,
		Mirror:    mirror,
		View: func(ctx context.Context, st *store.Store) error {
			<-mirror.called
			require.Eventually(t, func() bool { return rec.count() == 1 }, 2*time.Second, 10*time.Millisecond)
			return nil
		},
		Logger: logging.Discard(),
	})

	require.NoError(t, c.Run(context.Background()))
	select {
	case <-mirror.ended:
	default:
		t.Fatal("Run returned before the mirror stopped")
	}
}
