package storage

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/teampulse/pkg/domain"
	"github.com/felixgeelhaar/teampulse/pkg/domain/team"
)

func (r *FilesystemRepository) LoadDirectory() (*team.Directory, error) {
	path, err := r.ResolvePath(MembersFile)
	if err != nil {
		return nil, err
	}

	// #nosec G304 -- Path is resolved and validated via ResolvePath
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &team.Directory{}, nil
		}
		return nil, fmt.Errorf("failed to read members file: %w", err)
	}

	var d team.Directory
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to unmarshal members: %w", err)
	}
	return &d, nil
}

func (r *FilesystemRepository) SaveDirectory(d *team.Directory) error {
	path, err := r.ResolvePath(MembersFile)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to marshal members: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return writeAtomic(path, data)
}

// FetchAssigneeNames implements domain.TaskSource.
func (r *FilesystemRepository) FetchAssigneeNames(_ context.Context, orgID string) (map[string]string, error) {
	d, err := r.LoadDirectory()
	if err != nil {
		return nil, err
	}
	return d.Names(orgID), nil
}

// ListMembers implements domain.MemberSource.
func (r *FilesystemRepository) ListMembers(_ context.Context, orgID string) ([]team.Member, error) {
	d, err := r.LoadDirectory()
	if err != nil {
		return nil, err
	}
	return d.InOrganization(orgID), nil
}

// ResolveOrganization implements domain.TaskSource.
func (r *FilesystemRepository) ResolveOrganization(_ context.Context, memberID string) (string, error) {
	d, err := r.LoadDirectory()
	if err != nil {
		return "", err
	}
	m := d.Find(memberID)
	if m == nil || m.OrganizationID == "" {
		return "", domain.ErrNoOrganization
	}
	return m.OrganizationID, nil
}

var (
	_ domain.TaskSource          = (*FilesystemRepository)(nil)
	_ domain.MemberSource        = (*FilesystemRepository)(nil)
	_ domain.WorkspaceRepository = (*FilesystemRepository)(nil)
	_ domain.AuditRepository     = (*FilesystemRepository)(nil)
)
