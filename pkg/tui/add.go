package tui

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harrisonrobin/nudge/pkg/deadline"
	"github.com/harrisonrobin/nudge/pkg/model"
)

// ErrCanceled is returned by PromptTask when the user leaves the form.
var ErrCanceled = errors.New("add task canceled")

const (
	nameField = iota
	deadlineField
)

// AddModel asks for a task name and a deadline. A deadline that does not
// parse is reported under the form and asked for again.
type AddModel struct {
	inputs   [2]textinput.Model
	focus    int
	priority model.Priority
	now      func() time.Time

	task     *model.Task
	err      error
	canceled bool
}

func NewAddModel(priority model.Priority, now func() time.Time) AddModel {
	if now == nil {
		now = time.Now
	}

	name := textinput.New()
	name.Placeholder = "Water the plants"
	name.CharLimit = 200
	name.Width = 50
	name.Focus()

	due := textinput.New()
	due.Placeholder = "dd/mm/yyyy HH:MM"
	due.CharLimit = 16
	due.Width = 20

	return AddModel{
		inputs:   [2]textinput.Model{name, due},
		priority: priority,
		now:      now,
	}
}

func (m AddModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m AddModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.canceled = true
			return m, tea.Quit
		case tea.KeyTab, tea.KeyShiftTab, tea.KeyUp, tea.KeyDown:
			return m, m.setFocus(1 - m.focus)
		case tea.KeyEnter:
			if m.focus == nameField {
				return m, m.setFocus(deadlineField)
			}
			return m.submit()
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m *AddModel) setFocus(i int) tea.Cmd {
	m.inputs[m.focus].Blur()
	m.focus = i
	return m.inputs[i].Focus()
}

func (m AddModel) submit() (tea.Model, tea.Cmd) {
	ts, err := deadline.Parse(m.inputs[deadlineField].Value(), m.now())
	if err != nil {
		m.err = err
		return m, nil
	}
	m.err = nil
	m.task = &model.Task{
		Content:  strings.TrimSpace(m.inputs[nameField].Value()),
		Deadline: ts,
		Priority: m.priority,
	}
	return m, tea.Quit
}

// Task is the submitted task, nil until the form is complete.
func (m AddModel) Task() *model.Task { return m.task }

// Err is the last deadline error shown to the user.
func (m AddModel) Err() error { return m.err }

func (m AddModel) View() string {
	if m.task != nil || m.canceled {
		return ""
	}

	rows := []string{
		titleStyle.Render("New reminder"),
		lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render("Task"), m.inputs[nameField].View()),
		lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render("Deadline"), m.inputs[deadlineField].View()),
	}
	if m.err != nil {
		rows = append(rows, errorStyle.Render(m.err.Error()))
	}
	rows = append(rows, helpStyle.Render("tab: switch field • enter: save • esc: cancel"))
	return appStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

type PromptOptions struct {
	Priority model.Priority
	Now      func() time.Time
	Input    io.Reader
	Output   io.Writer
}

// PromptTask runs the form until a valid task is entered or the user
// cancels.
func PromptTask(ctx context.Context, opts PromptOptions) (*model.Task, error) {
	p := tea.NewProgram(NewAddModel(opts.Priority, opts.Now),
		tea.WithContext(ctx),
		tea.WithInput(opts.Input),
		tea.WithOutput(opts.Output),
	)
	final, err := p.Run()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ErrCanceled
		}
		return nil, err
	}

	m, ok := final.(AddModel)
	if !ok || m.task == nil {
		return nil, ErrCanceled
	}
	return m.task, nil
}
