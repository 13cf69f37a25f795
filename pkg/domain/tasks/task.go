// Package tasks holds the task record consumed by the team analytics.
package tasks

import (
	"time"
)

// Task is a single task record as fetched for one organization.
type Task struct {
	ID             string       `json:"id" yaml:"id"`
	Title          string       `json:"title" yaml:"title"`
	State          TaskState    `json:"state" yaml:"state"`
	Priority       TaskPriority `json:"priority" yaml:"priority"`
	DueDate        *time.Time   `json:"due_date,omitempty" yaml:"due_date,omitempty"`
	AssigneeID     string       `json:"assignee_id,omitempty" yaml:"assignee_id,omitempty"`
	AssigneeName   string       `json:"assignee_name,omitempty" yaml:"-"`
	OrganizationID string       `json:"organization_id" yaml:"organization_id"`
	CreatedAt      time.Time    `json:"created_at" yaml:"created_at"`
	UpdatedAt      *time.Time   `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
	DeletedAt      *time.Time   `json:"deleted_at,omitempty" yaml:"deleted_at,omitempty"`
	Tags           []string     `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// Normalize replaces missing or unknown state and priority values with the
// pending and medium fallbacks.
func (t *Task) Normalize() {
	if !t.State.IsValid() {
		t.State = ParseStateLabel(string(t.State))
	}
	if !t.Priority.IsValid() {
		t.Priority = ParsePriorityLabel(string(t.Priority))
	}
}

// LastChange approximates the last state change: updated_at, or created_at
// when the task was never updated.
func (t Task) LastChange() time.Time {
	if t.UpdatedAt != nil && !t.UpdatedAt.IsZero() {
		return *t.UpdatedAt
	}
	return t.CreatedAt
}

// CompletedAt returns the completion instant of a done task.
func (t Task) CompletedAt() (time.Time, bool) {
	if !t.State.IsDone() {
		return time.Time{}, false
	}
	return t.LastChange(), true
}

// IsOverdue reports whether the due date has passed for unfinished work.
func (t Task) IsOverdue(now time.Time) bool {
	if t.DueDate == nil || t.State.IsTerminal() {
		return false
	}
	return t.DueDate.Before(now)
}

// IsDeleted reports whether the task was soft-deleted.
func (t Task) IsDeleted() bool {
	return t.DeletedAt != nil && !t.DeletedAt.IsZero()
}

// IsAssigned reports whether the task resolved to a known assignee.
func (t Task) IsAssigned() bool {
	return t.AssigneeID != "" && t.AssigneeName != ""
}

// ExcludedByCutoff reports whether a done task was completed before cutoff.
func (t Task) ExcludedByCutoff(cutoff time.Time) bool {
	completed, ok := t.CompletedAt()
	return ok && completed.Before(cutoff)
}

// MergeAssignees returns a copy of list with display names resolved from
// names (user id -> display name). Ids without a match get an empty name.
// State and priority are normalized on the way.
func MergeAssignees(list []Task, names map[string]string) []Task {
	out := make([]Task, len(list))
	for i, t := range list {
		t.Normalize()
		t.AssigneeName = ""
		if t.AssigneeID != "" {
			t.AssigneeName = names[t.AssigneeID]
		}
		out[i] = t
	}
	return out
}

// ReassignResult is the outcome of a bulk reassignment.
type ReassignResult struct {
	OperationID string `json:"operation_id"`
	Success     bool   `json:"success"`
	Count       int    `json:"count"`
	Message     string `json:"message,omitempty"`
}
