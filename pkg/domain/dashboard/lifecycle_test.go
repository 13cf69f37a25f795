package dashboard_test

import (
	"testing"

	"github.com/felixgeelhaar/teampulse/pkg/domain/dashboard"
)

func TestLifecycle_Transitions(t *testing.T) {
	l, err := dashboard.NewLifecycle()
	if err != nil {
		t.Fatalf("NewLifecycle failed: %v", err)
	}
	if l.Status() != dashboard.StatusIdle {
		t.Fatalf("expected idle, got %s", l.Status())
	}

	steps := []struct {
		event string
		want  dashboard.Status
	}{
		{dashboard.EventFetch, dashboard.StatusLoading},
		{dashboard.EventLoaded, dashboard.StatusReady},
		{dashboard.EventRefresh, dashboard.StatusLoading},
		{dashboard.EventFail, dashboard.StatusFailed},
		{dashboard.EventRefresh, dashboard.StatusLoading},
		{dashboard.EventUnavailable, dashboard.StatusUnavailable},
		{dashboard.EventRefresh, dashboard.StatusLoading},
	}
	for _, s := range steps {
		if err := l.Send(s.event); err != nil {
			t.Fatalf("Send(%s): %v", s.event, err)
		}
		if l.Status() != s.want {
			t.Fatalf("after %s: got %s, want %s", s.event, l.Status(), s.want)
		}
	}
}

func TestLifecycle_RejectsInvalidEvents(t *testing.T) {
	l, _ := dashboard.NewLifecycle()

	if err := l.Send(dashboard.EventLoaded); err == nil {
		t.Error("expected error for loaded while idle")
	}
	if err := l.Send(dashboard.EventRefresh); err == nil {
		t.Error("expected error for refresh while idle")
	}
	if l.Status() != dashboard.StatusIdle {
		t.Errorf("state changed to %s", l.Status())
	}
}

func TestLifecycle_Begin(t *testing.T) {
	l, _ := dashboard.NewLifecycle()

	if err := l.Begin(); err != nil {
		t.Fatal(err)
	}
	if err := l.Begin(); err != nil {
		t.Fatalf("Begin while loading should be a no-op: %v", err)
	}
	_ = l.Send(dashboard.EventLoaded)
	if err := l.Begin(); err != nil {
		t.Fatal(err)
	}
	if l.Status() != dashboard.StatusLoading {
		t.Errorf("expected loading, got %s", l.Status())
	}
}

func TestStatus_Message(t *testing.T) {
	if dashboard.StatusReady.Message() != "" {
		t.Error("ready has no message")
	}
	if dashboard.StatusFailed.Message() != dashboard.FailureMessage {
		t.Error("failed should carry the retry message")
	}
	if !dashboard.StatusUnavailable.IsTerminal() || dashboard.StatusLoading.IsTerminal() {
		t.Error("unexpected IsTerminal result")
	}
}

func TestOutcomeEvent(t *testing.T) {
	for _, want := range []dashboard.Status{dashboard.StatusReady, dashboard.StatusFailed, dashboard.StatusUnavailable} {
		l, _ := dashboard.NewLifecycle()
		_ = l.Begin()
		if err := l.Send(dashboard.OutcomeEvent(want)); err != nil {
			t.Fatalf("OutcomeEvent(%s): %v", want, err)
		}
		if l.Status() != want {
			t.Errorf("got %s, want %s", l.Status(), want)
		}
	}
}
