// Package reassign tracks which of a source assignee's pending tasks are
// selected for bulk reassignment.
package reassign

import "github.com/felixgeelhaar/teampulse/pkg/domain/tasks"

// Selection is a set of task ids drawn from a fixed source list. Ids outside
// the source list are ignored.
type Selection struct {
	sourceID string
	order    []string
	known    map[string]struct{}
	selected map[string]struct{}
}

// NewSelection starts an empty selection over the pending tasks of
// sourceAssigneeID.
func NewSelection(sourceAssigneeID string, pending []tasks.Task) *Selection {
	s := &Selection{
		sourceID: sourceAssigneeID,
		order:    make([]string, 0, len(pending)),
		known:    make(map[string]struct{}, len(pending)),
		selected: make(map[string]struct{}),
	}
	for _, t := range pending {
		if _, dup := s.known[t.ID]; dup || t.ID == "" {
			continue
		}
		s.known[t.ID] = struct{}{}
		s.order = append(s.order, t.ID)
	}
	return s
}

// SourceAssigneeID returns the assignee whose tasks are being moved.
func (s *Selection) SourceAssigneeID() string { return s.sourceID }

// Toggle flips the selection of one task.
func (s *Selection) Toggle(id string) {
	if _, ok := s.known[id]; !ok {
		return
	}
	if _, ok := s.selected[id]; ok {
		delete(s.selected, id)
		return
	}
	s.selected[id] = struct{}{}
}

// Select adds a task to the selection.
func (s *Selection) Select(id string) {
	if _, ok := s.known[id]; ok {
		s.selected[id] = struct{}{}
	}
}

// SelectAll selects every source task.
func (s *Selection) SelectAll() {
	for _, id := range s.order {
		s.selected[id] = struct{}{}
	}
}

// SelectNone clears the selection.
func (s *Selection) SelectNone() {
	s.selected = make(map[string]struct{})
}

func (s *Selection) IsSelected(id string) bool {
	_, ok := s.selected[id]
	return ok
}

// AllSelected reports whether every source task is selected. An empty
// source list is never fully selected.
func (s *Selection) AllSelected() bool {
	return len(s.order) > 0 && len(s.selected) == len(s.order)
}

// IDs returns the selected ids in source order.
func (s *Selection) IDs() []string {
	out := make([]string, 0, len(s.selected))
	for _, id := range s.order {
		if _, ok := s.selected[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

func (s *Selection) Count() int { return len(s.selected) }

// Len returns the number of tasks available for selection.
func (s *Selection) Len() int { return len(s.order) }
