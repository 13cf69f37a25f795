// Package dashboard models the load lifecycle shared by the team and flow
// dashboards.
package dashboard

import (
	"fmt"
	"sync"

	"github.com/felixgeelhaar/statekit"
)

// Status is the externally visible state of a dashboard.
type Status string

// Status values double as statekit state ids.
const (
	StatusIdle        Status = "idle"
	StatusLoading     Status = "loading"
	StatusReady       Status = "ready"
	StatusFailed      Status = "failed"
	StatusUnavailable Status = "unavailable"
)

// Lifecycle events.
const (
	EventFetch       = "fetch"
	EventLoaded      = "loaded"
	EventFail        = "fail"
	EventUnavailable = "unavailable"
	EventRefresh     = "refresh"
)

// FailureMessage is shown to users when a fetch fails. Details stay in logs.
const FailureMessage = "Could not load the dashboard. Please try again."

// UnavailableMessage is shown when the caller has no organization.
const UnavailableMessage = "No organization is associated with this account."

// IsTerminal reports whether a load attempt has finished.
func (s Status) IsTerminal() bool {
	return s == StatusReady || s == StatusFailed || s == StatusUnavailable
}

// Message returns the user-facing text for a status, empty when none applies.
func (s Status) Message() string {
	switch s {
	case StatusFailed:
		return FailureMessage
	case StatusUnavailable:
		return UnavailableMessage
	}
	return ""
}

type lifecycleContext struct{}

// Lifecycle tracks one dashboard instance:
//
//	idle -> loading (fetch)
//	loading -> ready | failed | unavailable
//	ready | failed | unavailable -> loading (refresh)
type Lifecycle struct {
	mu          sync.Mutex
	interpreter *statekit.Interpreter[lifecycleContext]
}

// NewLifecycle builds a lifecycle in the idle state.
func NewLifecycle() (*Lifecycle, error) {
	builder := statekit.NewMachine[lifecycleContext]("dashboard").
		WithInitial(statekit.StateID(StatusIdle)).
		WithContext(lifecycleContext{})

	builder.State(statekit.StateID(StatusIdle)).
		On(EventFetch).Target(statekit.StateID(StatusLoading)).
		Done()

	builder.State(statekit.StateID(StatusLoading)).
		On(EventLoaded).Target(statekit.StateID(StatusReady)).
		On(EventFail).Target(statekit.StateID(StatusFailed)).
		On(EventUnavailable).Target(statekit.StateID(StatusUnavailable)).
		Done()

	for _, s := range []Status{StatusReady, StatusFailed, StatusUnavailable} {
		builder.State(statekit.StateID(s)).
			On(EventRefresh).Target(statekit.StateID(StatusLoading)).
			Done()
	}

	machine, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build dashboard lifecycle: %w", err)
	}

	interpreter := statekit.NewInterpreter(machine)
	interpreter.Start()
	return &Lifecycle{interpreter: interpreter}, nil
}

// Status returns the current state.
func (l *Lifecycle) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Status(l.interpreter.State().Value)
}

// Send applies an event. Events that are not valid in the current state
// leave it unchanged and return an error.
func (l *Lifecycle) Send(event string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	before := Status(l.interpreter.State().Value)
	l.interpreter.Send(statekit.Event{Type: statekit.EventType(event)})
	if Status(l.interpreter.State().Value) != before {
		return nil
	}
	return fmt.Errorf("event %q is not allowed while the dashboard is %s", event, before)
}

// Begin moves the lifecycle into loading, from idle or from any finished
// state.
func (l *Lifecycle) Begin() error {
	switch l.Status() {
	case StatusIdle:
		return l.Send(EventFetch)
	case StatusLoading:
		return nil
	default:
		return l.Send(EventRefresh)
	}
}

// OutcomeEvent maps the status a load finished in to the event that moves a
// loading lifecycle there.
func OutcomeEvent(s Status) string {
	switch s {
	case StatusReady:
		return EventLoaded
	case StatusUnavailable:
		return EventUnavailable
	default:
		return EventFail
	}
}
