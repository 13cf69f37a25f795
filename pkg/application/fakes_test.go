package application_test

import (
	"context"
	"sync"
	"time"

	"github.com/felixgeelhaar/teampulse/pkg/domain"
	"github.com/felixgeelhaar/teampulse/pkg/domain/tasks"
	"github.com/felixgeelhaar/teampulse/pkg/domain/team"
)

// fakeSource is an in-memory TaskSource and MemberSource.
type fakeSource struct {
	mu sync.Mutex

	Tasks   []tasks.Task
	Members []team.Member
	Orgs    map[string]string

	FetchErr    error
	NamesErr    error
	MembersErr  error
	ReassignErr error
	Delay       time.Duration

	FetchCalls    int
	ReassignCalls int
	LastCutoff    time.Time
	LastReassign  []string
	LastTarget    string
}

func (f *fakeSource) FetchTasks(ctx context.Context, orgID string, cutoff time.Time) ([]tasks.Task, error) {
	if f.Delay > 0 {
		select {
		case <-time.After(f.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.FetchCalls++
	f.LastCutoff = cutoff
	if f.FetchErr != nil {
		return nil, f.FetchErr
	}
	var out []tasks.Task
	for _, t := range f.Tasks {
		if t.OrganizationID == orgID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeSource) FetchAssigneeNames(_ context.Context, orgID string) (map[string]string, error) {
	if f.NamesErr != nil {
		return nil, f.NamesErr
	}
	dir := team.Directory{Members: f.Members}
	return dir.Names(orgID), nil
}

func (f *fakeSource) ReassignTasks(_ context.Context, orgID string, ids []string, to string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ReassignCalls++
	f.LastReassign = ids
	f.LastTarget = to
	if f.ReassignErr != nil {
		return 0, f.ReassignErr
	}
	n := 0
	for i := range f.Tasks {
		for _, id := range ids {
			if f.Tasks[i].ID == id && f.Tasks[i].OrganizationID == orgID {
				f.Tasks[i].AssigneeID = to
				n++
			}
		}
	}
	return n, nil
}

func (f *fakeSource) ResolveOrganization(_ context.Context, memberID string) (string, error) {
	org, ok := f.Orgs[memberID]
	if !ok {
		return "", domain.ErrNoOrganization
	}
	return org, nil
}

func (f *fakeSource) ListMembers(_ context.Context, orgID string) ([]team.Member, error) {
	if f.MembersErr != nil {
		return nil, f.MembersErr
	}
	dir := team.Directory{Members: f.Members}
	return dir.InOrganization(orgID), nil
}

// countingRecorder tallies Recorder calls.
type countingRecorder struct {
	mu          sync.Mutex
	fetchFailed int
	aggregated  int
	reassigned  []bool
}

func (r *countingRecorder) FetchFailed(string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fetchFailed++
}

func (r *countingRecorder) Aggregated(string, time.Duration, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aggregated++
}

func (r *countingRecorder) Reassigned(ok bool, _ int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reassigned = append(r.reassigned, ok)
}

// memoryAudit is an in-memory AuditRepository.
type memoryAudit struct {
	Events  []domain.Event
	SaveErr error
	LoadErr error
}

func (m *memoryAudit) RecordEvent(e domain.Event) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.Events = append(m.Events, e)
	return nil
}

func (m *memoryAudit) LoadEvents() ([]domain.Event, error) {
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	return m.Events, nil
}

var fixedNow = time.Date(2025, 3, 12, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func sampleSource() *fakeSource {
	updated := fixedNow.Add(-24 * time.Hour)
	deleted := fixedNow.Add(-time.Hour)
	return &fakeSource{
		Orgs: map[string]string{"u-admin": "org-1"},
		Members: []team.Member{
			{ID: "u-admin", Name: "Ana", OrganizationID: "org-1", Role: team.RoleAdmin},
			{ID: "u-1", Name: "Luis", OrganizationID: "org-1", Role: team.RoleMember},
			{ID: "u-viewer", Name: "Vera", OrganizationID: "org-1", Role: team.RoleViewer},
		},
		Tasks: []tasks.Task{
			{ID: "t1", OrganizationID: "org-1", AssigneeID: "u-1", State: tasks.StatePending, CreatedAt: fixedNow.Add(-48 * time.Hour)},
			{ID: "t2", OrganizationID: "org-1", AssigneeID: "u-1", State: tasks.StateInProgress, CreatedAt: fixedNow.Add(-72 * time.Hour)},
			{ID: "t3", OrganizationID: "org-1", AssigneeID: "u-admin", State: tasks.StateDone, CreatedAt: fixedNow.Add(-96 * time.Hour), UpdatedAt: &updated},
			{ID: "t4", OrganizationID: "org-1", AssigneeID: "ghost", State: tasks.StatePending, CreatedAt: fixedNow.Add(-time.Hour)},
			{ID: "t5", OrganizationID: "org-1", AssigneeID: "u-1", State: tasks.StatePending, CreatedAt: fixedNow.Add(-time.Hour), DeletedAt: &deleted},
			{ID: "x1", OrganizationID: "org-2", AssigneeID: "u-1", State: tasks.StatePending, CreatedAt: fixedNow},
		},
	}
}
