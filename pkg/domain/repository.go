package domain

import (
	"context"
	"errors"
	"time"

	"github.com/felixgeelhaar/teampulse/pkg/domain/tasks"
	"github.com/felixgeelhaar/teampulse/pkg/domain/team"
)

var (
	// ErrNoOrganization is returned when a member belongs to no organization.
	ErrNoOrganization = errors.New("no organization associated with member")
	// ErrTaskNotFound is returned when a reassignment names an unknown task.
	ErrTaskNotFound = errors.New("task not found")
)

// TaskSource is the store the dashboards read from. Implementations exclude
// soft-deleted tasks and done tasks completed before completedCutoff.
type TaskSource interface {
	FetchTasks(ctx context.Context, orgID string, completedCutoff time.Time) ([]tasks.Task, error)
	// FetchAssigneeNames returns user id -> display name for non-deleted
	// members of the organization.
	FetchAssigneeNames(ctx context.Context, orgID string) (map[string]string, error)
	// ReassignTasks sets the assignee of every listed task in one call and
	// returns the number of tasks changed.
	ReassignTasks(ctx context.Context, orgID string, taskIDs []string, newAssigneeID string) (int, error)
	ResolveOrganization(ctx context.Context, memberID string) (string, error)
}

// MemberSource lists organization members with their roles.
type MemberSource interface {
	ListMembers(ctx context.Context, orgID string) ([]team.Member, error)
}

// WorkspaceRepository handles the .teampulse/ directory of a local project.
type WorkspaceRepository interface {
	Initialize() error
	IsInitialized() bool
	LoadTasks() ([]tasks.Task, error)
	SaveTasks(list []tasks.Task) error
	LoadDirectory() (*team.Directory, error)
	SaveDirectory(d *team.Directory) error
}
