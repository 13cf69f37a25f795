package tasks

import (
	"encoding/json"
	"sort"
)

// TaskState is the canonical workflow state of a task.
type TaskState string

const (
	StatePending    TaskState = "pending"
	StateInProgress TaskState = "in_progress"
	StateBlocked    TaskState = "blocked"
	StateDone       TaskState = "done"
	StateCancelled  TaskState = "cancelled"
)

// stateLabels maps every label observed in source data to its canonical state.
// Matching is exact; both "En Progreso" and "En progreso" occur in practice.
var stateLabels = map[string]TaskState{
	"pending":     StatePending,
	"Pendiente":   StatePending,
	"in_progress": StateInProgress,
	"En Progreso": StateInProgress,
	"En progreso": StateInProgress,
	"blocked":     StateBlocked,
	"Bloqueada":   StateBlocked,
	"Bloqueado":   StateBlocked,
	"done":        StateDone,
	"Completada":  StateDone,
	"Hecha":       StateDone,
	"cancelled":   StateCancelled,
	"Cancelada":   StateCancelled,
}

// AllStates returns all canonical task states in workflow order.
func AllStates() []TaskState {
	return []TaskState{
		StatePending,
		StateInProgress,
		StateBlocked,
		StateDone,
		StateCancelled,
	}
}

// ParseStateLabel normalizes a source label. Unknown labels fall back to pending.
func ParseStateLabel(label string) TaskState {
	if s, ok := stateLabels[label]; ok {
		return s
	}
	return StatePending
}

// LabelsFor returns every source label that normalizes to s, sorted.
func LabelsFor(s TaskState) []string {
	var out []string
	for label, state := range stateLabels {
		if state == s {
			out = append(out, label)
		}
	}
	sort.Strings(out)
	return out
}

// IsKnownLabel reports whether label is one of the recognised source labels.
func IsKnownLabel(label string) bool {
	_, ok := stateLabels[label]
	return ok
}

// IsValid returns true if the state is canonical.
func (s TaskState) IsValid() bool {
	switch s {
	case StatePending, StateInProgress, StateBlocked, StateDone, StateCancelled:
		return true
	default:
		return false
	}
}

func (s TaskState) String() string {
	return string(s)
}

// Order returns the workflow position of the state, used for stable ordering.
func (s TaskState) Order() int {
	for i, st := range AllStates() {
		if st == s {
			return i
		}
	}
	return len(AllStates())
}

// IsDone returns true if the task has been completed.
func (s TaskState) IsDone() bool {
	return s == StateDone
}

// IsTerminal returns true for states where no further work is expected.
func (s TaskState) IsTerminal() bool {
	return s == StateDone || s == StateCancelled
}

// IsInProgress returns true if the task is being worked on.
func (s TaskState) IsInProgress() bool {
	return s == StateInProgress
}

// DisplayName returns a human-readable name for the state.
func (s TaskState) DisplayName() string {
	switch s {
	case StatePending:
		return "Pending"
	case StateInProgress:
		return "In Progress"
	case StateBlocked:
		return "Blocked"
	case StateDone:
		return "Done"
	case StateCancelled:
		return "Cancelled"
	default:
		return string(s)
	}
}

// MarshalJSON implements json.Marshaler.
func (s TaskState) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(s))
}

// UnmarshalJSON accepts canonical values as well as any source label.
func (s *TaskState) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	*s = ParseStateLabel(str)
	return nil
}

// UnmarshalYAML mirrors UnmarshalJSON for YAML fixtures.
func (s *TaskState) UnmarshalYAML(unmarshal func(any) error) error {
	var str string
	if err := unmarshal(&str); err != nil {
		return err
	}
	*s = ParseStateLabel(str)
	return nil
}
