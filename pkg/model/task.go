package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Priority is informational only; it never changes scheduling order.
type Priority string

const (
	Low    Priority = "Low"
	Medium Priority = "Medium"
	High   Priority = "High"
)

// ParsePriority accepts the persisted tag or its lowercase form.
func ParsePriority(s string) (Priority, error) {
	switch s {
	case "Low", "low":
		return Low, nil
	case "Medium", "medium":
		return Medium, nil
	case "High", "high":
		return High, nil
	}
	return "", fmt.Errorf("unknown priority %q (want Low, Medium or High)", s)
}

// UnmarshalJSON rejects any tag other than Low, Medium or High.
func (p *Priority) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("priority must be a string: %w", err)
	}
	switch Priority(s) {
	case Low, Medium, High:
		*p = Priority(s)
		return nil
	}
	return fmt.Errorf("unknown priority %q", s)
}

// Task is one reminder as it is stored in tasks.json.
type Task struct {
	ID        string   `json:"id,omitempty"`
	Content   string   `json:"content"`
	Deadline  uint64   `json:"deadline"` // seconds since the epoch
	Priority  Priority `json:"priority"`
	Completed bool     `json:"completed"`
	// Notified is set once a notification has been delivered, so a restart
	// does not fire past-due tasks again.
	Notified bool `json:"notified,omitempty"`
}

// DeadlineTime returns the deadline in local time.
func (t Task) DeadlineTime() time.Time {
	return time.Unix(int64(t.Deadline), 0)
}

// Pending reports whether the task still needs a notification.
func (t Task) Pending() bool {
	return !t.Completed && !t.Notified
}
