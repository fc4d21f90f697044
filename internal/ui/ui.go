package ui

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spotsync/internal/models"
	"github.com/desertthunder/spotsync/internal/shared"
	"github.com/dustin/go-humanize"
)

// DefaultPollInterval matches the polling cadence of the mobile and web clients.
const DefaultPollInterval = 2 * time.Second

// StatusFetcher polls one task. [services.JobClient] implements it.
type StatusFetcher interface {
	Status(ctx context.Context, taskID string) (*models.Task, error)
}

// Model polls a task until it finishes and renders its status, stats and output.
type Model struct {
	ctx      context.Context
	client   StatusFetcher
	taskID   string
	interval time.Duration
	now      func() time.Time

	task     *models.Task
	err      error
	polls    int
	width    int
	height   int
	spinner  spinner.Model
	output   viewport.Model
	help     help.Model
	keys     keyMap
	quitting bool
}

// NewModel creates a monitor for taskID. A non-positive interval uses [DefaultPollInterval].
func NewModel(ctx context.Context, client StatusFetcher, taskID string, interval time.Duration) *Model {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.success

	return &Model{
		ctx:      ctx,
		client:   client,
		taskID:   taskID,
		interval: interval,
		now:      time.Now,
		spinner:  sp,
		output:   viewport.New(80, 12),
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// Task returns the last polled task, or nil before the first response.
func (m *Model) Task() *models.Task { return m.task }

// Err returns the last polling error.
func (m *Model) Err() error { return m.err }

// Init starts the spinner and the first poll.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetch())
}

// Update handles polling results, ticks, resizes and keys.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.output.Width = max(msg.Width-4, 20)
		m.output.Height = max(msg.Height-14, 5)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.refresh):
			return m, m.fetch()
		}
		var cmd tea.Cmd
		m.output, cmd = m.output.Update(msg)
		return m, cmd

	case statusMsg:
		m.polls++
		if msg.err != nil {
			m.err = msg.err
			if errors.Is(msg.err, shared.ErrTaskNotFound) {
				return m, nil
			}
			return m, m.tick()
		}
		m.err = nil
		m.setTask(msg.task)
		if m.done() {
			return m, nil
		}
		return m, m.tick()

	case tickMsg:
		if m.done() {
			return m, nil
		}
		return m, m.fetch()

	case spinner.TickMsg:
		if m.done() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) setTask(task *models.Task) {
	atBottom := m.output.AtBottom() || m.task == nil
	m.task = task
	m.output.SetContent(strings.Join(task.Output, "\n"))
	if atBottom {
		m.output.GotoBottom()
	}
}

func (m *Model) done() bool {
	return m.task != nil && m.task.Status.Done()
}

func (m *Model) fetch() tea.Cmd {
	return func() tea.Msg {
		task, err := m.client.Status(m.ctx, m.taskID)
		return statusMsg{task: task, err: err}
	}
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(time.Time) tea.Msg { return tickMsg{} })
}

// View renders the monitor.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(styles.title.Render("spotsync · " + m.taskID))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(styles.error.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n\n")
	}

	if m.task == nil {
		if m.err == nil {
			b.WriteString(m.spinner.View() + " waiting for server...\n\n")
		}
		b.WriteString(m.help.View(m.keys))
		return b.String()
	}

	b.WriteString(styles.label.Render("Status") + m.statusLine() + "\n")
	b.WriteString(styles.label.Render("Kind") + m.task.Kind + "\n")
	b.WriteString(styles.label.Render("Started") + m.task.StartedAt.Local().Format(time.DateTime) +
		styles.muted.Render(" ("+humanize.RelTime(m.task.StartedAt, m.now(), "ago", "from now")+")") + "\n")
	if m.task.CompletedAt != nil {
		elapsed := m.task.CompletedAt.Sub(m.task.StartedAt).Round(time.Second)
		b.WriteString(styles.label.Render("Duration") + elapsed.String() + "\n")
	}
	if m.task.Error != "" {
		b.WriteString(styles.label.Render("Error") + styles.error.Render(m.task.Error) + "\n")
	}

	if stats := renderStats(m.task.Stats); stats != "" {
		b.WriteString("\n" + stats + "\n")
	}

	b.WriteString("\n" + styles.box.Render(m.output.View()) + "\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *Model) statusLine() string {
	switch m.task.Status {
	case models.TaskCompleted:
		return styles.success.Render("✓ completed")
	case models.TaskFailed:
		code := ""
		if m.task.ReturnCode != nil {
			code = fmt.Sprintf(" (exit %d)", *m.task.ReturnCode)
		}
		return styles.error.Render("✗ failed" + code)
	case models.TaskError:
		return styles.error.Render("✗ error")
	default:
		return m.spinner.View() + " " + string(m.task.Status) + styles.muted.Render(fmt.Sprintf(" · poll %d", m.polls))
	}
}

func renderStats(stats map[string]string) string {
	if len(stats) == 0 {
		return ""
	}
	keys := make([]string, 0, len(stats))
	for k := range stats {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(styles.label.Render(strings.ReplaceAll(k, "_", " ")) + stats[k] + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
