package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"github.com/felixgeelhaar/teampulse/pkg/domain"
	"github.com/felixgeelhaar/teampulse/pkg/domain/tasks"
)

const tasksSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["id", "title", "state", "organization_id", "created_at"],
    "properties": {
      "id": { "type": "string", "minLength": 1 },
      "title": { "type": "string" },
      "state": { "type": "string" },
      "priority": { "type": "string" },
      "due_date": { "type": ["string", "null"], "format": "date-time" },
      "assignee_id": { "type": ["string", "null"] },
      "organization_id": { "type": "string", "minLength": 1 },
      "created_at": { "type": "string", "format": "date-time" },
      "updated_at": { "type": ["string", "null"], "format": "date-time" },
      "deleted_at": { "type": ["string", "null"], "format": "date-time" },
      "tags": { "type": ["array", "null"], "items": { "type": "string" } }
    }
  }
}`

var tasksSchemaLoader = gojsonschema.NewStringLoader(tasksSchemaJSON)

// ValidateTasksJSON checks a tasks.json document against its schema.
func ValidateTasksJSON(data []byte) error {
	result, err := gojsonschema.Validate(tasksSchemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("validate tasks: %w", err)
	}
	if !result.Valid() {
		issues := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			issues = append(issues, desc.String())
		}
		return fmt.Errorf("invalid %s: %s", TasksFile, strings.Join(issues, "; "))
	}
	return nil
}

// LoadTasks reads every task record, including deleted ones.
func (r *FilesystemRepository) LoadTasks() ([]tasks.Task, error) {
	path, err := r.ResolvePath(TasksFile)
	if err != nil {
		return nil, err
	}

	// #nosec G304 -- Path is resolved and validated via ResolvePath
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []tasks.Task{}, nil
		}
		return nil, fmt.Errorf("failed to read tasks file: %w", err)
	}

	if err := ValidateTasksJSON(data); err != nil {
		return nil, err
	}

	var list []tasks.Task
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tasks: %w", err)
	}
	for i := range list {
		list[i].Normalize()
	}
	return list, nil
}

func (r *FilesystemRepository) SaveTasks(list []tasks.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saveTasks(list)
}

// saveTasks writes list; the caller holds r.mu.
func (r *FilesystemRepository) saveTasks(list []tasks.Task) error {
	path, err := r.ResolvePath(TasksFile)
	if err != nil {
		return err
	}

	// Display names are resolved at read time and never stored.
	stored := make([]tasks.Task, len(list))
	for i, t := range list {
		t.AssigneeName = ""
		stored[i] = t
	}

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal tasks: %w", err)
	}
	return writeAtomic(path, data)
}

// FetchTasks implements domain.TaskSource.
func (r *FilesystemRepository) FetchTasks(_ context.Context, orgID string, completedCutoff time.Time) ([]tasks.Task, error) {
	all, err := r.LoadTasks()
	if err != nil {
		return nil, err
	}
	out := make([]tasks.Task, 0, len(all))
	for _, t := range all {
		if t.OrganizationID != orgID || t.IsDeleted() || t.ExcludedByCutoff(completedCutoff) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// ReassignTasks implements domain.TaskSource. All ids must belong to orgID;
// nothing is written otherwise.
func (r *FilesystemRepository) ReassignTasks(_ context.Context, orgID string, taskIDs []string, newAssigneeID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	all, err := r.LoadTasks()
	if err != nil {
		return 0, err
	}

	index := make(map[string]int, len(all))
	for i, t := range all {
		if t.OrganizationID == orgID && !t.IsDeleted() {
			index[t.ID] = i
		}
	}

	now := r.clock().UTC()
	changed := 0
	seen := make(map[string]struct{}, len(taskIDs))
	for _, id := range taskIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		i, ok := index[id]
		if !ok {
			return 0, fmt.Errorf("%w: %s", domain.ErrTaskNotFound, id)
		}
		all[i].AssigneeID = newAssigneeID
		all[i].UpdatedAt = &now
		changed++
	}

	if changed == 0 {
		return 0, nil
	}
	if err := r.saveTasks(all); err != nil {
		return 0, err
	}
	return changed, nil
}
