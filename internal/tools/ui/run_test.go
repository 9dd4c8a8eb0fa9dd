package ui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func TestModelRunsActionAndQuits(t *testing.T) {
	m := model{
		title:   "seed apply",
		timeout: time.Second,
		action: func(ctx context.Context) ([]string, error) {
			if _, ok := ctx.Deadline(); !ok {
				t.Fatal("expected deadline on action context")
			}
			return []string{"admin promoted"}, nil
		},
	}
	if !strings.Contains(m.View(), "Running...") {
		t.Fatalf("expected running view, got %q", m.View())
	}

	msg := m.Init()()
	next, cmd := m.Update(msg)
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	view := next.View()
	if !strings.Contains(view, "OK") || !strings.Contains(view, "- admin promoted") {
		t.Fatalf("unexpected view: %q", view)
	}
}

func TestModelRendersFailure(t *testing.T) {
	m := model{title: "migrate up"}
	next, _ := m.Update(actionMsg{err: errors.New("db down"), details: []string{"driver: postgres"}})
	view := next.View()
	if !strings.Contains(view, "FAILED") || !strings.Contains(view, "db down") {
		t.Fatalf("unexpected view: %q", view)
	}
}

func TestModelCtrlCCancels(t *testing.T) {
	m := model{title: "loadgen run"}
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if !errors.Is(next.(model).err, context.Canceled) {
		t.Fatalf("expected canceled, got %v", next.(model).err)
	}
}
