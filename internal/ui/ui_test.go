package ui

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spotsync/internal/models"
	"github.com/desertthunder/spotsync/internal/shared"
)

type fakeFetcher struct {
	tasks []*models.Task
	err   error
	calls int
}

func (f *fakeFetcher) Status(ctx context.Context, id string) (*models.Task, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	t := f.tasks[min(f.calls, len(f.tasks))-1]
	return t, nil
}

func runCmd(cmd tea.Cmd) tea.Msg {
	if cmd == nil {
		return nil
	}
	return cmd()
}

func TestModel(t *testing.T) {
	started := time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC)
	running := &models.Task{ID: "sync_1", Kind: "sync", Status: models.TaskRunning, StartedAt: started, Output: []string{"fetching playlists"}}
	done := started.Add(90 * time.Second)
	code := 0
	completed := &models.Task{
		ID: "sync_1", Kind: "sync", Status: models.TaskCompleted, StartedAt: started, CompletedAt: &done,
		Output: []string{"fetching playlists", "sync finished"}, Stats: map[string]string{"tracks_added": "12"}, ReturnCode: &code,
	}

	t.Run("Polls Until Done", func(t *testing.T) {
		f := &fakeFetcher{tasks: []*models.Task{running, completed}}
		m := NewModel(context.Background(), f, "sync_1", time.Millisecond)
		m.now = func() time.Time { return started.Add(time.Minute) }

		msg := runCmd(m.fetch())
		_, cmd := m.Update(msg)
		if cmd == nil {
			t.Fatal("expected another poll while running")
		}
		if !strings.Contains(m.View(), "running") {
			t.Errorf("expected running status, got:\n%s", m.View())
		}

		_, cmd = m.Update(tickMsg{})
		_, cmd = m.Update(runCmd(cmd))
		if cmd != nil {
			t.Error("expected polling to stop once completed")
		}

		view := m.View()
		for _, want := range []string{"✓ completed", "1m30s", "tracks added", "12", "sync finished"} {
			if !strings.Contains(view, want) {
				t.Errorf("view missing %q:\n%s", want, view)
			}
		}
		if f.calls != 2 {
			t.Errorf("expected 2 polls, got %d", f.calls)
		}
	})

	t.Run("Not Found Stops", func(t *testing.T) {
		f := &fakeFetcher{err: fmt.Errorf("%w: nope", shared.ErrTaskNotFound)}
		m := NewModel(context.Background(), f, "nope", time.Millisecond)

		_, cmd := m.Update(runCmd(m.fetch()))
		if cmd != nil {
			t.Error("expected no retry for unknown task")
		}
		if !strings.Contains(m.View(), "task not found") {
			t.Errorf("expected error in view, got:\n%s", m.View())
		}
	})

	t.Run("Transient Error Retries", func(t *testing.T) {
		f := &fakeFetcher{err: shared.ErrServiceUnavailable}
		m := NewModel(context.Background(), f, "sync_1", time.Millisecond)
		if _, cmd := m.Update(runCmd(m.fetch())); cmd == nil {
			t.Error("expected retry after transient error")
		}
	})

	t.Run("Quit", func(t *testing.T) {
		m := NewModel(context.Background(), &fakeFetcher{}, "x", 0)
		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
		if _, ok := runCmd(cmd).(tea.QuitMsg); !ok {
			t.Error("expected quit")
		}
		if m.View() != "" {
			t.Error("expected empty view after quit")
		}
	})

	t.Run("Failed Status", func(t *testing.T) {
		one := 1
		failed := &models.Task{ID: "a", Status: models.TaskFailed, StartedAt: started, ReturnCode: &one, Error: "boom"}
		m := NewModel(context.Background(), &fakeFetcher{tasks: []*models.Task{failed}}, "a", 0)
		m.Update(runCmd(m.fetch()))
		if v := m.View(); !strings.Contains(v, "failed (exit 1)") || !strings.Contains(v, "boom") {
			t.Errorf("unexpected view:\n%s", v)
		}
	})
}
