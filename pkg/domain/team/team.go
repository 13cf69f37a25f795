package team

import "fmt"

// Role defines the access level of an organization member.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
	RoleViewer Role = "viewer"
)

// ValidRoles returns all valid role values.
func ValidRoles() []Role {
	return []Role{RoleAdmin, RoleMember, RoleViewer}
}

// IsValid checks if the role is a recognized value.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleMember, RoleViewer:
		return true
	}
	return false
}

// CanReceiveTasks returns true if tasks may be assigned to this role.
func (r Role) CanReceiveTasks() bool {
	return r == RoleAdmin || r == RoleMember
}

// Member is a non-deleted member of an organization.
type Member struct {
	ID             string `yaml:"id" json:"id" db:"user_id"`
	Name           string `yaml:"name" json:"name" db:"display_name"`
	OrganizationID string `yaml:"organization_id" json:"organization_id" db:"organization_id"`
	Role           Role   `yaml:"role" json:"role" db:"role"`
}

// Directory is the member list stored in .teampulse/members.yaml.
type Directory struct {
	Members []Member `yaml:"members" json:"members"`
}

// Find returns the member with the given id, or nil if not found.
func (d *Directory) Find(id string) *Member {
	for i := range d.Members {
		if d.Members[i].ID == id {
			return &d.Members[i]
		}
	}
	return nil
}

// InOrganization returns the members belonging to orgID, in stored order.
func (d *Directory) InOrganization(orgID string) []Member {
	var out []Member
	for _, m := range d.Members {
		if m.OrganizationID == orgID {
			out = append(out, m)
		}
	}
	return out
}

// Names returns the id -> display name lookup for one organization.
func (d *Directory) Names(orgID string) map[string]string {
	names := make(map[string]string)
	for _, m := range d.InOrganization(orgID) {
		names[m.ID] = m.Name
	}
	return names
}

// AddMember adds a member or updates name and role if the id already exists.
func (d *Directory) AddMember(m Member) error {
	if m.ID == "" {
		return fmt.Errorf("member id cannot be empty")
	}
	if m.Role == "" {
		m.Role = RoleMember
	}
	if !m.Role.IsValid() {
		return fmt.Errorf("invalid role: %s", m.Role)
	}
	for i := range d.Members {
		if d.Members[i].ID == m.ID {
			d.Members[i] = m
			return nil
		}
	}
	d.Members = append(d.Members, m)
	return nil
}

// RemoveMember removes a member by id. Returns error if not found.
func (d *Directory) RemoveMember(id string) error {
	for i := range d.Members {
		if d.Members[i].ID == id {
			d.Members = append(d.Members[:i], d.Members[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("member not found: %s", id)
}

// CanReceiveTasks reports whether id is a member whose role allows task
// assignment.
func (d *Directory) CanReceiveTasks(id string) bool {
	m := d.Find(id)
	return m != nil && m.Role.CanReceiveTasks()
}
