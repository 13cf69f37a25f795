package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"github.com/felixgeelhaar/teampulse/pkg/domain"
	"github.com/felixgeelhaar/teampulse/pkg/domain/tasks"
	"github.com/felixgeelhaar/teampulse/pkg/domain/team"
)

const (
	tasksTable   = "tasks"
	membersTable = "organization_members"
)

var taskColumns = []string{
	"id", "title", "state", "priority", "due_date", "assignee_id",
	"organization_id", "created_at", "updated_at", "tags",
}

var memberColumns = []string{"user_id", "display_name", "organization_id", "role"}

// taskRow mirrors one row of the tasks table.
type taskRow struct {
	ID             string     `db:"id"`
	Title          string     `db:"title"`
	State          string     `db:"state"`
	Priority       *string    `db:"priority"`
	DueDate        *time.Time `db:"due_date"`
	AssigneeID     *string    `db:"assignee_id"`
	OrganizationID string     `db:"organization_id"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      *time.Time `db:"updated_at"`
	Tags           []string   `db:"tags"`
}

func (r taskRow) toTask() tasks.Task {
	t := tasks.Task{
		ID:             r.ID,
		Title:          r.Title,
		State:          tasks.ParseStateLabel(r.State),
		Priority:       tasks.DefaultPriority(),
		DueDate:        r.DueDate,
		OrganizationID: r.OrganizationID,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
		Tags:           r.Tags,
	}
	if r.Priority != nil {
		t.Priority = tasks.ParsePriorityLabel(*r.Priority)
	}
	if r.AssigneeID != nil {
		t.AssigneeID = *r.AssigneeID
	}
	return t
}

// Source implements domain.TaskSource and domain.MemberSource over PostgreSQL.
type Source struct {
	db    DBInterface
	clock func() time.Time
}

func NewSource(db DBInterface) *Source {
	return &Source{db: db, clock: time.Now}
}

var (
	_ domain.TaskSource   = (*Source)(nil)
	_ domain.MemberSource = (*Source)(nil)
)

// FetchTasks returns the organization's non-deleted tasks, leaving out done
// tasks whose last change predates completedCutoff.
func (s *Source) FetchTasks(ctx context.Context, orgID string, completedCutoff time.Time) ([]tasks.Task, error) {
	query, args, err := squirrel.Select(taskColumns...).
		From(tasksTable).
		Where(squirrel.Eq{"organization_id": orgID}).
		Where(squirrel.Eq{"deleted_at": nil}).
		Where(squirrel.Or{
			squirrel.NotEq{"state": tasks.LabelsFor(tasks.StateDone)},
			squirrel.GtOrEq{"COALESCE(updated_at, created_at)": completedCutoff},
		}).
		OrderBy("created_at ASC", "id ASC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}

	var rows []taskRow
	if err := pgxscan.Select(ctx, s.db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("scanning tasks: %w", err)
	}

	out := make([]tasks.Task, len(rows))
	for i, r := range rows {
		out[i] = r.toTask()
	}
	return out, nil
}

// ListMembers returns the organization's non-deleted members.
func (s *Source) ListMembers(ctx context.Context, orgID string) ([]team.Member, error) {
	query, args, err := squirrel.Select(memberColumns...).
		From(membersTable).
		Where(squirrel.Eq{"organization_id": orgID}).
		Where(squirrel.Eq{"deleted_at": nil}).
		OrderBy("display_name ASC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}

	var members []team.Member
	if err := pgxscan.Select(ctx, s.db, &members, query, args...); err != nil {
		return nil, fmt.Errorf("scanning members: %w", err)
	}
	return members, nil
}

func (s *Source) FetchAssigneeNames(ctx context.Context, orgID string) (map[string]string, error) {
	members, err := s.ListMembers(ctx, orgID)
	if err != nil {
		return nil, err
	}
	dir := team.Directory{Members: members}
	return dir.Names(orgID), nil
}

// ResolveOrganization returns the first organization the member joined.
func (s *Source) ResolveOrganization(ctx context.Context, memberID string) (string, error) {
	query, args, err := squirrel.Select("organization_id").
		From(membersTable).
		Where(squirrel.Eq{"user_id": memberID}).
		Where(squirrel.Eq{"deleted_at": nil}).
		OrderBy("created_at ASC").
		Limit(1).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("building select query: %w", err)
	}

	var orgID string
	if err := pgxscan.Get(ctx, s.db, &orgID, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return "", domain.ErrNoOrganization
		}
		return "", fmt.Errorf("scanning organization: %w", err)
	}
	return orgID, nil
}

// ReassignTasks moves every listed task to newAssigneeID in one UPDATE. The
// transaction is rolled back unless every id matched.
func (s *Source) ReassignTasks(ctx context.Context, orgID string, taskIDs []string, newAssigneeID string) (int, error) {
	ids := unique(taskIDs)
	if len(ids) == 0 {
		return 0, nil
	}

	query, args, err := squirrel.Update(tasksTable).
		Set("assignee_id", newAssigneeID).
		Set("updated_at", s.clock().UTC()).
		Where(squirrel.Eq{"organization_id": orgID}).
		Where(squirrel.Eq{"id": ids}).
		Where(squirrel.Eq{"deleted_at": nil}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("building update query: %w", err)
	}

	var affected int64
	err = pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("updating tasks: %w", err)
		}
		affected = tag.RowsAffected()
		if affected != int64(len(ids)) {
			return fmt.Errorf("%w: %d of %d tasks matched", domain.ErrTaskNotFound, affected, len(ids))
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

func unique(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
