// Package store holds the in-memory task list shared by the scheduler, the
// list view and the shutdown path. Every method takes the lock for the
// minimum time needed and never blocks while holding it.
package store

import (
	"sync"

	"github.com/google/uuid"

	"github.com/harrisonrobin/nudge/pkg/model"
)

type Store struct {
	mu    sync.Mutex
	tasks []model.Task
}

// New takes ownership of tasks. Tasks without an ID get one and an empty
// priority becomes Medium.
func New(tasks []model.Task) *Store {
	s := &Store{tasks: make([]model.Task, 0, len(tasks))}
	for _, t := range tasks {
		s.tasks = append(s.tasks, normalize(t))
	}
	return s
}

func normalize(t model.Task) model.Task {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Priority == "" {
		t.Priority = model.Medium
	}
	return t
}

// Add appends t and returns the stored copy.
func (s *Store) Add(t model.Task) model.Task {
	t = normalize(t)
	s.mu.Lock()
	s.tasks = append(s.tasks, t)
	s.mu.Unlock()
	return t
}

// Snapshot returns a copy of the tasks in insertion order.
func (s *Store) Snapshot() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// Pending returns the tasks that are neither completed nor notified.
func (s *Store) Pending() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Task
	for _, t := range s.tasks {
		if t.Pending() {
			out = append(out, t)
		}
	}
	return out
}

// MarkNotified flags the task with the given ID. It reports false when no
// such task exists.
func (s *Store) MarkNotified(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			s.tasks[i].Notified = true
			return true
		}
	}
	return false
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}
