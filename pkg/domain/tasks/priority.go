package tasks

import (
	"encoding/json"
)

// TaskPriority is the canonical priority of a task.
type TaskPriority string

const (
	PriorityLow      TaskPriority = "low"
	PriorityMedium   TaskPriority = "medium"
	PriorityHigh     TaskPriority = "high"
	PriorityCritical TaskPriority = "critical"
	PriorityUrgent   TaskPriority = "urgent"
)

// priorityOrder defines the ordering of priorities (higher order = higher priority)
var priorityOrder = map[TaskPriority]int{
	PriorityLow:      1,
	PriorityMedium:   2,
	PriorityHigh:     3,
	PriorityCritical: 4,
	PriorityUrgent:   5,
}

var priorityLabels = map[string]TaskPriority{
	"low":      PriorityLow,
	"Baja":     PriorityLow,
	"medium":   PriorityMedium,
	"Media":    PriorityMedium,
	"high":     PriorityHigh,
	"Alta":     PriorityHigh,
	"critical": PriorityCritical,
	"Crítica":  PriorityCritical,
	"Critica":  PriorityCritical,
	"urgent":   PriorityUrgent,
	"Urgente":  PriorityUrgent,
}

// AllPriorities returns all priorities from lowest to highest.
func AllPriorities() []TaskPriority {
	return []TaskPriority{
		PriorityLow,
		PriorityMedium,
		PriorityHigh,
		PriorityCritical,
		PriorityUrgent,
	}
}

// DefaultPriority is used when the source carries no recognised priority.
func DefaultPriority() TaskPriority {
	return PriorityMedium
}

// ParsePriorityLabel normalizes a source label, defaulting to medium.
func ParsePriorityLabel(label string) TaskPriority {
	if p, ok := priorityLabels[label]; ok {
		return p
	}
	return DefaultPriority()
}

// IsValid returns true if the priority is canonical.
func (p TaskPriority) IsValid() bool {
	_, ok := priorityOrder[p]
	return ok
}

func (p TaskPriority) String() string {
	return string(p)
}

// Order returns the numeric order of the priority (higher = more important).
func (p TaskPriority) Order() int {
	if order, ok := priorityOrder[p]; ok {
		return order
	}
	return 0
}

// Compare returns -1 if p < other, 0 if equal, 1 if p > other.
func (p TaskPriority) Compare(other TaskPriority) int {
	switch a, b := p.Order(), other.Order(); {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// IsHigherThan returns true if this priority is higher than the other.
func (p TaskPriority) IsHigherThan(other TaskPriority) bool {
	return p.Compare(other) > 0
}

// DisplayName returns a human-readable display name for the priority.
func (p TaskPriority) DisplayName() string {
	switch p {
	case PriorityLow:
		return "Low"
	case PriorityMedium:
		return "Medium"
	case PriorityHigh:
		return "High"
	case PriorityCritical:
		return "Critical"
	case PriorityUrgent:
		return "Urgent"
	default:
		return string(p)
	}
}

// MarshalJSON implements json.Marshaler.
func (p TaskPriority) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(p))
}

// UnmarshalJSON accepts canonical values and source labels.
func (p *TaskPriority) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	*p = ParsePriorityLabel(str)
	return nil
}

// UnmarshalYAML mirrors UnmarshalJSON for YAML fixtures.
func (p *TaskPriority) UnmarshalYAML(unmarshal func(any) error) error {
	var str string
	if err := unmarshal(&str); err != nil {
		return err
	}
	*p = ParsePriorityLabel(str)
	return nil
}
