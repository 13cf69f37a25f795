// Package sqlite keeps an organization's tasks and members in a local SQLite
// database. It serves as an offline snapshot of the hosted store.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"github.com/felixgeelhaar/teampulse/pkg/domain"
	"github.com/felixgeelhaar/teampulse/pkg/domain/tasks"
	"github.com/felixgeelhaar/teampulse/pkg/domain/team"
)

// timeLayout has fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const schema = `
CREATE TABLE IF NOT EXISTS tasks (
	id              TEXT PRIMARY KEY,
	title           TEXT NOT NULL,
	state           TEXT NOT NULL,
	priority        TEXT,
	due_date        TEXT,
	assignee_id     TEXT,
	organization_id TEXT NOT NULL,
	created_at      TEXT NOT NULL,
	updated_at      TEXT,
	deleted_at      TEXT,
	tags            TEXT
);
CREATE INDEX IF NOT EXISTS tasks_org_idx ON tasks (organization_id);
CREATE TABLE IF NOT EXISTS organization_members (
	user_id         TEXT NOT NULL,
	organization_id TEXT NOT NULL,
	display_name    TEXT NOT NULL,
	role            TEXT NOT NULL,
	created_at      TEXT NOT NULL,
	deleted_at      TEXT,
	PRIMARY KEY (user_id, organization_id)
);`

// Source implements domain.TaskSource and domain.MemberSource on SQLite.
type Source struct {
	mu    sync.RWMutex
	db    *sql.DB
	clock func() time.Time
}

var (
	_ domain.TaskSource   = (*Source)(nil)
	_ domain.MemberSource = (*Source)(nil)
)

// Open opens (or creates) the database at path. Use ":memory:" for an
// in-memory database.
func Open(path string) (*Source, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}
	// One connection keeps ":memory:" databases shared and writes serialized.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Source{db: db, clock: time.Now}, nil
}

func (s *Source) Close() error {
	return s.db.Close()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatTimePtr(t *time.Time) any {
	if t == nil || t.IsZero() {
		return nil
	}
	return formatTime(*t)
}

func parseTimePtr(v sql.NullString) (*time.Time, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	t, err := time.Parse(timeLayout, v.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ImportTasks upserts tasks by id.
func (s *Source) ImportTasks(ctx context.Context, list []tasks.Task) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin import: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, t := range list {
		tags, err := json.Marshal(t.Tags)
		if err != nil {
			return 0, fmt.Errorf("encode tags for %s: %w", t.ID, err)
		}
		var assignee any
		if t.AssigneeID != "" {
			assignee = t.AssigneeID
		}
		query, args, err := squirrel.Insert("tasks").
			Columns("id", "title", "state", "priority", "due_date", "assignee_id",
				"organization_id", "created_at", "updated_at", "deleted_at", "tags").
			Values(t.ID, t.Title, string(t.State), string(t.Priority), formatTimePtr(t.DueDate), assignee,
				t.OrganizationID, formatTime(t.CreatedAt), formatTimePtr(t.UpdatedAt), formatTimePtr(t.DeletedAt), string(tags)).
			Suffix(`ON CONFLICT(id) DO UPDATE SET
				title = excluded.title, state = excluded.state, priority = excluded.priority,
				due_date = excluded.due_date, assignee_id = excluded.assignee_id,
				organization_id = excluded.organization_id, created_at = excluded.created_at,
				updated_at = excluded.updated_at, deleted_at = excluded.deleted_at, tags = excluded.tags`).
			ToSql()
		if err != nil {
			return 0, fmt.Errorf("building insert query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return 0, fmt.Errorf("insert task %s: %w", t.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}
	return len(list), nil
}

// ImportMembers upserts members by (user, organization).
func (s *Source) ImportMembers(ctx context.Context, members []team.Member) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin import: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := formatTime(s.clock())
	for _, m := range members {
		role := m.Role
		if role == "" {
			role = team.RoleMember
		}
		query, args, err := squirrel.Insert("organization_members").
			Columns("user_id", "organization_id", "display_name", "role", "created_at").
			Values(m.ID, m.OrganizationID, m.Name, string(role), now).
			Suffix(`ON CONFLICT(user_id, organization_id) DO UPDATE SET
				display_name = excluded.display_name, role = excluded.role, deleted_at = NULL`).
			ToSql()
		if err != nil {
			return 0, fmt.Errorf("building insert query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return 0, fmt.Errorf("insert member %s: %w", m.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}
	return len(members), nil
}

// FetchTasks returns the organization's non-deleted tasks, leaving out done
// tasks whose last change predates completedCutoff.
func (s *Source) FetchTasks(ctx context.Context, orgID string, completedCutoff time.Time) ([]tasks.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query, args, err := squirrel.Select("id", "title", "state", "priority", "due_date", "assignee_id",
		"organization_id", "created_at", "updated_at", "tags").
		From("tasks").
		Where(squirrel.Eq{"organization_id": orgID}).
		Where(squirrel.Eq{"deleted_at": nil}).
		Where(squirrel.Or{
			squirrel.NotEq{"state": tasks.LabelsFor(tasks.StateDone)},
			squirrel.GtOrEq{"COALESCE(updated_at, created_at)": formatTime(completedCutoff)},
		}).
		OrderBy("created_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	out := make([]tasks.Task, 0)
	for rows.Next() {
		var (
			t                          tasks.Task
			state, createdAt           string
			priority, assignee, tagsJS sql.NullString
			due, updated               sql.NullString
		)
		if err := rows.Scan(&t.ID, &t.Title, &state, &priority, &due, &assignee,
			&t.OrganizationID, &createdAt, &updated, &tagsJS); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		t.State = tasks.ParseStateLabel(state)
		t.Priority = tasks.ParsePriorityLabel(priority.String)
		t.AssigneeID = assignee.String
		if t.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at of %s: %w", t.ID, err)
		}
		if t.DueDate, err = parseTimePtr(due); err != nil {
			return nil, fmt.Errorf("parse due_date of %s: %w", t.ID, err)
		}
		if t.UpdatedAt, err = parseTimePtr(updated); err != nil {
			return nil, fmt.Errorf("parse updated_at of %s: %w", t.ID, err)
		}
		if tagsJS.Valid && tagsJS.String != "" {
			if err := json.Unmarshal([]byte(tagsJS.String), &t.Tags); err != nil {
				return nil, fmt.Errorf("decode tags of %s: %w", t.ID, err)
			}
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return out, nil
}

func (s *Source) ListMembers(ctx context.Context, orgID string) ([]team.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query, args, err := squirrel.Select("user_id", "display_name", "organization_id", "role").
		From("organization_members").
		Where(squirrel.Eq{"organization_id": orgID}).
		Where(squirrel.Eq{"deleted_at": nil}).
		OrderBy("display_name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	defer rows.Close()

	var members []team.Member
	for rows.Next() {
		var m team.Member
		var role string
		if err := rows.Scan(&m.ID, &m.Name, &m.OrganizationID, &role); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		m.Role = team.Role(role)
		members = append(members, m)
	}
	return members, rows.Err()
}

func (s *Source) FetchAssigneeNames(ctx context.Context, orgID string) (map[string]string, error) {
	members, err := s.ListMembers(ctx, orgID)
	if err != nil {
		return nil, err
	}
	dir := team.Directory{Members: members}
	return dir.Names(orgID), nil
}

func (s *Source) ResolveOrganization(ctx context.Context, memberID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query, args, err := squirrel.Select("organization_id").
		From("organization_members").
		Where(squirrel.Eq{"user_id": memberID}).
		Where(squirrel.Eq{"deleted_at": nil}).
		OrderBy("created_at ASC").
		Limit(1).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("building select query: %w", err)
	}

	var orgID string
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&orgID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrNoOrganization
	}
	if err != nil {
		return "", fmt.Errorf("resolve organization: %w", err)
	}
	return orgID, nil
}

// ReassignTasks moves every listed task to newAssigneeID in one UPDATE,
// rolled back unless every id matched.
func (s *Source) ReassignTasks(ctx context.Context, orgID string, taskIDs []string, newAssigneeID string) (int, error) {
	ids := make([]string, 0, len(taskIDs))
	seen := make(map[string]struct{}, len(taskIDs))
	for _, id := range taskIDs {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query, args, err := squirrel.Update("tasks").
		Set("assignee_id", newAssigneeID).
		Set("updated_at", formatTime(s.clock())).
		Where(squirrel.Eq{"organization_id": orgID}).
		Where(squirrel.Eq{"id": ids}).
		Where(squirrel.Eq{"deleted_at": nil}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("building update query: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin reassign: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("updating tasks: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	if affected != int64(len(ids)) {
		return 0, fmt.Errorf("%w: %d of %d tasks matched", domain.ErrTaskNotFound, affected, len(ids))
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit reassign: %w", err)
	}
	return int(affected), nil
}
