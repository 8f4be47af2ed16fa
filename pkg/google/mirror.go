package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"

	"github.com/harrisonrobin/nudge/pkg/index"
	"github.com/harrisonrobin/nudge/pkg/model"
)

// taskIDProperty tags mirrored events so they can be found without the index.
const taskIDProperty = "nudge_id"

const eventLength = 15 * time.Minute

// Mirror copies pending tasks into a Google Calendar as events with a popup
// reminder at the deadline, so the reminder also reaches other devices.
type Mirror struct {
	srv        *calendar.Service
	calendarID string
	index      *index.EventIndex
	logger     *slog.Logger
}

func NewMirror(srv *calendar.Service, calendarID string, idx *index.EventIndex, logger *slog.Logger) *Mirror {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mirror{srv: srv, calendarID: calendarID, index: idx, logger: logger}
}

// MirrorTask inserts an event for task unless one already exists. It returns
// the event ID. An indexed event that was deleted from the calendar is
// forgotten and inserted again.
func (m *Mirror) MirrorTask(ctx context.Context, task model.Task) (string, error) {
	if m.index != nil {
		if eventID := m.index.Get(task.ID); eventID != "" {
			live, err := m.eventExists(ctx, eventID)
			if err != nil {
				return "", fmt.Errorf("error checking event %s: %w", eventID, err)
			}
			if live {
				return eventID, nil
			}
			m.logger.Info("mirrored event was deleted, inserting again", "task", task.Content, "event_id", eventID)
			m.index.Remove(task.ID)
		}
	}

	existing, err := m.srv.Events.List(m.calendarID).
		PrivateExtendedProperty(fmt.Sprintf("%s=%s", taskIDProperty, task.ID)).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("error searching for event: %w", err)
	}
	if len(existing.Items) > 0 {
		eventID := existing.Items[0].Id
		m.remember(task.ID, eventID)
		return eventID, nil
	}

	created, err := m.srv.Events.Insert(m.calendarID, eventFor(task)).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("error inserting event: %w", err)
	}
	m.remember(task.ID, created.Id)
	m.logger.Info("mirrored task to calendar", "task", task.Content, "event_id", created.Id)
	return created.Id, nil
}

// MirrorAll mirrors every task, logging failures instead of stopping, then
// saves the index.
func (m *Mirror) MirrorAll(ctx context.Context, tasks []model.Task) error {
	for _, task := range tasks {
		if _, err := m.MirrorTask(ctx, task); err != nil {
			m.logger.Error("could not mirror task", "task", task.Content, "error", err)
		}
	}
	if m.index == nil {
		return nil
	}
	return m.index.Save()
}

func (m *Mirror) eventExists(ctx context.Context, eventID string) (bool, error) {
	event, err := m.srv.Events.Get(m.calendarID, eventID).Context(ctx).Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && (apiErr.Code == http.StatusNotFound || apiErr.Code == http.StatusGone) {
			return false, nil
		}
		return false, err
	}
	return event.Status != "cancelled", nil
}

func (m *Mirror) remember(taskID, eventID string) {
	if m.index != nil {
		m.index.Set(taskID, eventID)
	}
}

func eventFor(task model.Task) *calendar.Event {
	start := task.DeadlineTime().UTC()
	return &calendar.Event{
		Summary:     task.Content,
		Description: fmt.Sprintf("Priority: %s\nID: %s", task.Priority, task.ID),
		ColorId:     colorID(task.Priority),
		Start:       &calendar.EventDateTime{DateTime: start.Format(time.RFC3339)},
		End:         &calendar.EventDateTime{DateTime: start.Add(eventLength).Format(time.RFC3339)},
		Reminders: &calendar.EventReminders{
			UseDefault:      false,
			Overrides:       []*calendar.EventReminder{{Method: "popup", Minutes: 0, ForceSendFields: []string{"Minutes"}}},
			ForceSendFields: []string{"UseDefault"},
		},
		ExtendedProperties: &calendar.EventExtendedProperties{
			Private: map[string]string{taskIDProperty: task.ID},
		},
	}
}

// colorID maps priority onto Calendar event colours: sage, banana, tomato.
func colorID(p model.Priority) string {
	switch p {
	case model.Low:
		return "2"
	case model.High:
		return "11"
	}
	return "5"
}
