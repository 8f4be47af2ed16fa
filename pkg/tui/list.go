package tui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harrisonrobin/nudge/pkg/deadline"
	"github.com/harrisonrobin/nudge/pkg/model"
)

const refreshInterval = time.Second

type refreshMsg time.Time

func refresh() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return refreshMsg(t) })
}

// ListModel shows the task list and re-reads it every second so fired
// reminders show up as notified.
type ListModel struct {
	source   func() []model.Task
	tasks    []model.Task
	now      func() time.Time
	quitting bool
}

func NewListModel(source func() []model.Task, now func() time.Time) ListModel {
	if now == nil {
		now = time.Now
	}
	return ListModel{source: source, tasks: source(), now: now}
}

func (m ListModel) Init() tea.Cmd {
	return refresh()
}

func (m ListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		}
	case refreshMsg:
		m.tasks = m.source()
		return m, refresh()
	}
	return m, nil
}

func (m ListModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("nudge: %d task(s)", len(m.tasks))))
	b.WriteString("\n")

	if len(m.tasks) == 0 {
		b.WriteString(dimStyle.Render("No tasks yet. Add one with nudge -add."))
		b.WriteString("\n")
	}
	now := m.now()
	for _, task := range m.tasks {
		b.WriteString(m.row(task, now))
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("Press q to quit and save."))
	return appStyle.Render(b.String())
}

func (m ListModel) row(task model.Task, now time.Time) string {
	var status string
	switch {
	case task.Completed:
		status = doneStyle.Render("✓ done")
	case task.Notified:
		status = dimStyle.Render("● sent")
	default:
		status = remaining(task.DeadlineTime().Sub(now))
	}

	priority := string(task.Priority)
	if style, ok := priorityStyles[priority]; ok {
		priority = style.Render(priority)
	}

	return lipgloss.JoinHorizontal(lipgloss.Top,
		cellStyle.Width(18).Render(task.DeadlineTime().Format(deadline.Layout)),
		cellStyle.Width(8).Render(priority),
		cellStyle.Width(12).Render(status),
		task.Content,
	)
}

func remaining(d time.Duration) string {
	if d <= 0 {
		return "due"
	}
	if d >= 48*time.Hour {
		return fmt.Sprintf("in %dd", int(d/(24*time.Hour)))
	}
	if d < time.Minute {
		return "in <1m"
	}
	s := strings.TrimSuffix(d.Truncate(time.Minute).String(), "0s")
	if strings.HasSuffix(s, "h0m") {
		s = strings.TrimSuffix(s, "0m")
	}
	return "in " + s
}

// RunList shows the list until the user quits or ctx is done.
func RunList(ctx context.Context, source func() []model.Task, in io.Reader, out io.Writer) error {
	p := tea.NewProgram(NewListModel(source, nil),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
		tea.WithAltScreen(),
	)
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
