package cli

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/felixgeelhaar/teampulse/pkg/application"
	"github.com/felixgeelhaar/teampulse/pkg/domain/dashboard"
)

func loadedModel(t *testing.T, org string) model {
	t.Helper()
	svc, err := application.NewAnalyticsService(demoRepo(t))
	if err != nil {
		t.Fatal(err)
	}
	m, err := initialModel(context.Background(), svc, org)
	if err != nil {
		t.Fatal(err)
	}
	if m.lifecycle.Status() != dashboard.StatusIdle {
		t.Fatalf("new model should be idle, got %s", m.lifecycle.Status())
	}

	cmd := m.load()
	if cmd == nil {
		t.Fatal("load returned no command")
	}
	if m.lifecycle.Status() != dashboard.StatusLoading {
		t.Fatalf("expected loading, got %s", m.lifecycle.Status())
	}
	if !strings.Contains(m.View(), "Loading") {
		t.Error("loading view should show the spinner")
	}

	updated, _ := m.Update(cmd())
	return updated.(model)
}

func TestDashboardModel_Ready(t *testing.T) {
	m := loadedModel(t, "club")
	if m.lifecycle.Status() != dashboard.StatusReady {
		t.Fatalf("status = %s, want ready", m.lifecycle.Status())
	}

	view := m.View()
	for _, want := range []string{"Luis Ortega", "18 tasks", "[tab] Team/Flow"} {
		if !strings.Contains(view, want) {
			t.Errorf("team view missing %q", want)
		}
	}

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = next.(model)
	if m.tab != tabFlow || !strings.Contains(m.View(), "Flow health") {
		t.Errorf("tab should switch to the flow view:\n%s", m.View())
	}
	if rows := m.table.Rows(); len(rows) != 4 {
		t.Errorf("flow table should have 4 weeks, got %d", len(rows))
	}
}

func TestDashboardModel_Unavailable(t *testing.T) {
	m := loadedModel(t, "")
	if m.lifecycle.Status() != dashboard.StatusUnavailable {
		t.Fatalf("status = %s, want unavailable", m.lifecycle.Status())
	}
	if !strings.Contains(m.View(), dashboard.UnavailableMessage) {
		t.Errorf("view should explain the missing organization:\n%s", m.View())
	}
}

func TestDashboardModel_Refresh(t *testing.T) {
	m := loadedModel(t, "club")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	if cmd == nil {
		t.Fatal("refresh from a finished state should start a load")
	}
	if m.lifecycle.Status() != dashboard.StatusLoading {
		t.Errorf("status = %s, want loading", m.lifecycle.Status())
	}

	// A second refresh while loading is ignored.
	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")}); cmd != nil {
		t.Error("refresh while loading should be a no-op")
	}

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should produce a quit message")
	}
}
