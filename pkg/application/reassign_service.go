package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/teampulse/pkg/domain"
	"github.com/felixgeelhaar/teampulse/pkg/domain/analytics"
	"github.com/felixgeelhaar/teampulse/pkg/domain/reassign"
	"github.com/felixgeelhaar/teampulse/pkg/domain/tasks"
	"github.com/felixgeelhaar/teampulse/pkg/domain/team"
)

// Validation failures reported back to the caller.
var (
	ErrEmptySelection   = errors.New("no tasks selected")
	ErrNoTarget         = errors.New("no target member selected")
	ErrSameAssignee     = errors.New("tasks already belong to that member")
	ErrUnassignedSource = errors.New("unassigned tasks cannot be bulk reassigned")
	ErrTargetNotAllowed = errors.New("target member cannot receive tasks")
)

const failureMessage = "Could not reassign the tasks. Please try again."

// rejected reports whether err is a validation failure whose text may be
// shown to the caller.
func rejected(err error) bool {
	for _, v := range []error{ErrEmptySelection, ErrNoTarget, ErrSameAssignee, ErrUnassignedSource, ErrTargetNotAllowed} {
		if errors.Is(err, v) {
			return true
		}
	}
	return false
}

// ReassignRequest moves the selected tasks of one assignee to another.
type ReassignRequest struct {
	OrganizationID string
	ActorID        string
	Selection      *reassign.Selection
	TargetID       string
}

// Notifier forwards reassignment outcomes to external receivers.
type Notifier interface {
	Notify(ctx context.Context, action string, data map[string]any)
}

// ReassignService performs bulk reassignment through the task source.
type ReassignService struct {
	source   domain.TaskSource
	members  domain.MemberSource
	audit    domain.AuditLogger
	notifier Notifier
	logger   *slog.Logger
	recorder Recorder
}

func NewReassignService(source domain.TaskSource, members domain.MemberSource, audit domain.AuditLogger, logger *slog.Logger, recorder Recorder) *ReassignService {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = NopRecorder{}
	}
	return &ReassignService{
		source:   source,
		members:  members,
		audit:    audit,
		logger:   logger,
		recorder: recorder,
	}
}

// WithNotifier attaches a notifier that receives every attempted
// reassignment after validation.
func (s *ReassignService) WithNotifier(n Notifier) *ReassignService {
	s.notifier = n
	return s
}

// Reassign validates the request and issues one ReassignTasks call. It does
// not return an error; failures come back as Success=false with a message.
func (s *ReassignService) Reassign(ctx context.Context, req ReassignRequest) tasks.ReassignResult {
	result := tasks.ReassignResult{OperationID: uuid.New().String()}

	target, err := s.validate(ctx, req)
	if err != nil && !rejected(err) {
		ids := req.Selection.IDs()
		from := req.Selection.SourceAssigneeID()
		s.logger.Error("reassignment failed", "operation", result.OperationID, "org", req.OrganizationID,
			"from", from, "to", req.TargetID, "tasks", len(ids), "error", err)
		result.Message = failureMessage
		s.recorder.Reassigned(false, 0)
		s.record(ctx, domain.ActionReassignFailed, req, result.OperationID, from, req.TargetID, ids, 0)
		return result
	}
	if err != nil {
		result.Message = err.Error()
		s.logger.Warn("reassignment rejected", "operation", result.OperationID, "org", req.OrganizationID, "error", err)
		s.recorder.Reassigned(false, 0)
		return result
	}

	ids := req.Selection.IDs()
	from := req.Selection.SourceAssigneeID()

	count, err := s.source.ReassignTasks(ctx, req.OrganizationID, ids, target.ID)
	if err != nil {
		s.logger.Error("reassignment failed", "operation", result.OperationID, "org", req.OrganizationID,
			"from", from, "to", target.ID, "tasks", len(ids), "error", err)
		result.Message = failureMessage
		s.recorder.Reassigned(false, 0)
		s.record(ctx, domain.ActionReassignFailed, req, result.OperationID, from, target.ID, ids, 0)
		return result
	}

	result.Success = true
	result.Count = count
	result.Message = fmt.Sprintf("Reassigned %d %s to %s", count, plural(count, "task", "tasks"), displayName(target))
	s.logger.Info("tasks reassigned", "operation", result.OperationID, "org", req.OrganizationID,
		"from", from, "to", target.ID, "count", count)
	s.recorder.Reassigned(true, count)
	s.record(ctx, domain.ActionTasksReassigned, req, result.OperationID, from, target.ID, ids, count)
	return result
}

func (s *ReassignService) validate(ctx context.Context, req ReassignRequest) (*team.Member, error) {
	if req.Selection == nil {
		return nil, ErrEmptySelection
	}
	from := req.Selection.SourceAssigneeID()
	if from == "" {
		return nil, ErrUnassignedSource
	}
	if req.Selection.Count() == 0 {
		return nil, ErrEmptySelection
	}
	if req.TargetID == "" {
		return nil, ErrNoTarget
	}
	if req.TargetID == from {
		return nil, ErrSameAssignee
	}

	list, err := s.members.ListMembers(ctx, req.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("load members: %w", err)
	}
	dir := team.Directory{Members: list}
	if !dir.CanReceiveTasks(req.TargetID) {
		return nil, fmt.Errorf("%w: %s", ErrTargetNotAllowed, req.TargetID)
	}
	return dir.Find(req.TargetID), nil
}

func (s *ReassignService) record(ctx context.Context, action string, req ReassignRequest, opID, from, to string, ids []string, count int) {
	actor := req.ActorID
	if actor == "" {
		actor = "system"
	}
	data := map[string]any{
		"operation_id":    opID,
		"organization_id": req.OrganizationID,
		"from":            from,
		"to":              to,
		"task_ids":        ids,
		"count":           count,
	}
	if s.audit != nil {
		if err := s.audit.Log(action, actor, data); err != nil {
			s.logger.Warn("audit log failed", "operation", opID, "error", err)
		}
	}
	if s.notifier != nil {
		s.notifier.Notify(ctx, action, data)
	}
}

// SelectPending builds a selection over the pending tasks of from as shown in
// report. With all set every pending task is selected; otherwise only the
// listed ids are, and ids outside the pending list are ignored.
func SelectPending(report analytics.TeamReport, from string, ids []string, all bool) *reassign.Selection {
	var pending []tasks.Task
	if w, ok := analytics.FindWorkload(report.Workload, from); ok && from != "" {
		pending = w.PendingTasks
	}
	sel := reassign.NewSelection(from, pending)
	if all {
		sel.SelectAll()
		return sel
	}
	for _, id := range ids {
		sel.Select(id)
	}
	return sel
}

func displayName(m *team.Member) string {
	if m.Name != "" {
		return m.Name
	}
	return m.ID
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
