package application

import (
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/teampulse/pkg/domain"
	"github.com/felixgeelhaar/teampulse/pkg/domain/tasks"
	"github.com/felixgeelhaar/teampulse/pkg/domain/team"
)

var ErrAlreadyInitialized = errors.New("workspace already initialized")

// InitService creates the .teampulse workspace of a project.
type InitService struct {
	repo  domain.WorkspaceRepository
	audit domain.AuditLogger
	clock func() time.Time
}

func NewInitService(repo domain.WorkspaceRepository, audit domain.AuditLogger) *InitService {
	return &InitService{repo: repo, audit: audit, clock: time.Now}
}

// Initialize creates an empty workspace for orgID, or one seeded with the
// demo team when demo is set.
func (s *InitService) Initialize(orgID string, demo bool) error {
	if orgID == "" {
		return fmt.Errorf("organization id is required")
	}
	if s.repo.IsInitialized() {
		return ErrAlreadyInitialized
	}
	if err := s.repo.Initialize(); err != nil {
		return err
	}

	list := []tasks.Task{}
	dir := &team.Directory{Members: []team.Member{}}
	if demo {
		list, dir.Members = DemoDataset(orgID, s.clock())
	}

	if err := s.repo.SaveTasks(list); err != nil {
		return fmt.Errorf("save tasks: %w", err)
	}
	if err := s.repo.SaveDirectory(dir); err != nil {
		return fmt.Errorf("save members: %w", err)
	}

	if s.audit != nil {
		return s.audit.Log(domain.ActionWorkspaceInitialized, "cli", map[string]any{
			"organization_id": orgID,
			"demo":            demo,
			"tasks":           len(list),
		})
	}
	return nil
}
