package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/fortify/timeout"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/felixgeelhaar/teampulse/pkg/domain"
	"github.com/felixgeelhaar/teampulse/pkg/domain/analytics"
	"github.com/felixgeelhaar/teampulse/pkg/domain/dashboard"
	"github.com/felixgeelhaar/teampulse/pkg/domain/tasks"
)

const (
	// DefaultFetchTimeout bounds each call to the task source.
	DefaultFetchTimeout = 10 * time.Second
	// DefaultMemoSize is the number of aggregated reports kept in memory.
	DefaultMemoSize = 64
)

// TeamView is what the team dashboard renders.
type TeamView struct {
	Status         dashboard.Status     `json:"status"`
	Message        string               `json:"message,omitempty"`
	OrganizationID string               `json:"organization_id,omitempty"`
	Report         analytics.TeamReport `json:"report"`
}

// FlowView is what the flow-health dashboard renders.
type FlowView struct {
	Status         dashboard.Status     `json:"status"`
	Message        string               `json:"message,omitempty"`
	OrganizationID string               `json:"organization_id,omitempty"`
	Report         analytics.FlowReport `json:"report"`
}

type memoKey struct {
	variant string
	org     string
	digest  string
	now     int64
}

// AnalyticsService fetches an organization's tasks and turns them into
// dashboard views. It never returns an error: failures become a view with
// StatusFailed and an empty report.
type AnalyticsService struct {
	source       domain.TaskSource
	logger       *slog.Logger
	clock        func() time.Time
	options      analytics.Options
	fetchTimeout time.Duration
	memoSize     int
	memo         *lru.Cache[memoKey, any]
	recorder     Recorder
}

// AnalyticsOption configures an AnalyticsService.
type AnalyticsOption func(*AnalyticsService)

// WithLogger sets the logger. A nil logger falls back to slog.Default().
func WithLogger(logger *slog.Logger) AnalyticsOption {
	return func(s *AnalyticsService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock replaces time.Now.
func WithClock(clock func() time.Time) AnalyticsOption {
	return func(s *AnalyticsService) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithAnalyticsOptions sets the classification thresholds.
func WithAnalyticsOptions(opts analytics.Options) AnalyticsOption {
	return func(s *AnalyticsService) { s.options = opts }
}

// WithFetchTimeout bounds each source call. Non-positive values keep the default.
func WithFetchTimeout(d time.Duration) AnalyticsOption {
	return func(s *AnalyticsService) {
		if d > 0 {
			s.fetchTimeout = d
		}
	}
}

// WithMemoSize sets the report cache size. Zero disables memoization.
func WithMemoSize(n int) AnalyticsOption {
	return func(s *AnalyticsService) { s.memoSize = n }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) AnalyticsOption {
	return func(s *AnalyticsService) {
		if r != nil {
			s.recorder = r
		}
	}
}

func NewAnalyticsService(source domain.TaskSource, opts ...AnalyticsOption) (*AnalyticsService, error) {
	s := &AnalyticsService{
		source:       source,
		logger:       slog.Default(),
		clock:        time.Now,
		options:      analytics.DefaultOptions(),
		fetchTimeout: DefaultFetchTimeout,
		memoSize:     DefaultMemoSize,
		recorder:     NopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.memoSize > 0 {
		cache, err := lru.New[memoKey, any](s.memoSize)
		if err != nil {
			return nil, fmt.Errorf("create report cache: %w", err)
		}
		s.memo = cache
	}
	return s, nil
}

// Options returns the classification thresholds in use.
func (s *AnalyticsService) Options() analytics.Options {
	return s.options
}

// ResolveOrganization returns the organization a member belongs to.
func (s *AnalyticsService) ResolveOrganization(ctx context.Context, memberID string) (string, error) {
	org, err := s.source.ResolveOrganization(ctx, memberID)
	if err != nil {
		return "", fmt.Errorf("resolve organization for %s: %w", memberID, err)
	}
	if org == "" {
		return "", domain.ErrNoOrganization
	}
	return org, nil
}

// TeamDashboard builds the standard team view for orgID.
func (s *AnalyticsService) TeamDashboard(ctx context.Context, orgID string) *TeamView {
	now := s.now()
	view := &TeamView{OrganizationID: orgID}

	list, status := s.load(ctx, VariantTeam, orgID, now)
	view.Status = status
	view.Message = status.Message()
	if status != dashboard.StatusReady {
		view.Report = analytics.Aggregate(nil, now, s.options)
		return view
	}

	key := memoKey{variant: VariantTeam, org: orgID, digest: digest(list), now: now.Unix()}
	if cached, ok := s.lookup(key); ok {
		view.Report = cached.(analytics.TeamReport)
		return view
	}

	start := time.Now()
	view.Report = analytics.Aggregate(list, now, s.options)
	s.recorder.Aggregated(VariantTeam, time.Since(start), len(list))
	s.store(key, view.Report)
	return view
}

// FlowDashboard builds the flow-health view for orgID.
func (s *AnalyticsService) FlowDashboard(ctx context.Context, orgID string) *FlowView {
	now := s.now()
	view := &FlowView{OrganizationID: orgID}

	list, status := s.load(ctx, VariantFlow, orgID, now)
	view.Status = status
	view.Message = status.Message()
	if status != dashboard.StatusReady {
		view.Report = analytics.AggregateFlow(nil, now, s.options)
		return view
	}

	key := memoKey{variant: VariantFlow, org: orgID, digest: digest(list), now: now.Unix()}
	if cached, ok := s.lookup(key); ok {
		view.Report = cached.(analytics.FlowReport)
		return view
	}

	start := time.Now()
	view.Report = analytics.AggregateFlow(list, now, s.options)
	s.recorder.Aggregated(VariantFlow, time.Since(start), len(list))
	s.store(key, view.Report)
	return view
}

// now is captured once per request and truncated so memo keys and week
// boundaries agree.
func (s *AnalyticsService) now() time.Time {
	return s.clock().Truncate(time.Second)
}

// load fetches tasks and the assignee lookup and merges them.
func (s *AnalyticsService) load(ctx context.Context, variant, orgID string, now time.Time) ([]tasks.Task, dashboard.Status) {
	if orgID == "" {
		return nil, dashboard.StatusUnavailable
	}

	cutoff := now.AddDate(0, -s.resolutionMonths(), 0)
	var (
		list  []tasks.Task
		names map[string]string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t := timeout.New[[]tasks.Task](timeout.Config{DefaultTimeout: s.fetchTimeout})
		res, err := t.Execute(gctx, s.fetchTimeout, func(ctx context.Context) ([]tasks.Task, error) {
			return s.source.FetchTasks(ctx, orgID, cutoff)
		})
		if err != nil {
			return fmt.Errorf("fetch tasks: %w", err)
		}
		list = res
		return nil
	})
	g.Go(func() error {
		t := timeout.New[map[string]string](timeout.Config{DefaultTimeout: s.fetchTimeout})
		res, err := t.Execute(gctx, s.fetchTimeout, func(ctx context.Context) (map[string]string, error) {
			return s.source.FetchAssigneeNames(ctx, orgID)
		})
		if err != nil {
			return fmt.Errorf("fetch assignee names: %w", err)
		}
		names = res
		return nil
	})

	if err := g.Wait(); err != nil {
		if errors.Is(err, domain.ErrNoOrganization) {
			s.logger.Info("dashboard unavailable", "variant", variant, "org", orgID)
			return nil, dashboard.StatusUnavailable
		}
		s.logger.Error("dashboard fetch failed", "variant", variant, "org", orgID, "error", err)
		s.recorder.FetchFailed(variant)
		return nil, dashboard.StatusFailed
	}

	live := make([]tasks.Task, 0, len(list))
	for _, t := range list {
		if t.IsDeleted() || t.ExcludedByCutoff(cutoff) {
			continue
		}
		live = append(live, t)
	}
	s.logger.Debug("dashboard data loaded", "variant", variant, "org", orgID, "tasks", len(live), "members", len(names))
	return tasks.MergeAssignees(live, names), dashboard.StatusReady
}

func (s *AnalyticsService) resolutionMonths() int {
	if s.options.ResolutionWindowMonths > 0 {
		return s.options.ResolutionWindowMonths
	}
	return analytics.DefaultResolutionWindowMonths
}

func (s *AnalyticsService) lookup(key memoKey) (any, bool) {
	if s.memo == nil {
		return nil, false
	}
	return s.memo.Get(key)
}

func (s *AnalyticsService) store(key memoKey, report any) {
	if s.memo != nil {
		s.memo.Add(key, report)
	}
}

// digest fingerprints the merged task list for memoization.
func digest(list []tasks.Task) string {
	data, err := json.Marshal(list)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
