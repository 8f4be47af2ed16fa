package google

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"google.golang.org/api/calendar/v3"

	"github.com/harrisonrobin/nudge/pkg/auth"
	"github.com/harrisonrobin/nudge/pkg/index"
)

// NewClient authenticates with the credentials in configDir and returns a
// Mirror writing to the calendar whose name is calendarName.
func NewClient(ctx context.Context, configDir, calendarName string, logger *slog.Logger) (*Mirror, error) {
	srv, err := auth.GetCalendarService(ctx, configDir)
	if err != nil {
		return nil, err
	}

	calendarID, err := FindCalendar(ctx, srv, calendarName)
	if err != nil {
		return nil, err
	}

	idx, err := index.Open(filepath.Join(configDir, index.FileName))
	if err != nil {
		return nil, fmt.Errorf("could not open event index: %w", err)
	}
	return NewMirror(srv, calendarID, idx, logger), nil
}

// FindCalendar returns the ID of the calendar with the given name.
func FindCalendar(ctx context.Context, srv *calendar.Service, name string) (string, error) {
	calendarList, err := srv.CalendarList.List().Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to retrieve calendar list: %w", err)
	}
	for _, item := range calendarList.Items {
		if item.Summary == name {
			return item.Id, nil
		}
	}
	return "", fmt.Errorf("calendar '%s' not found", name)
}
