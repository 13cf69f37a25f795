package wiring

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/felixgeelhaar/teampulse/internal/infrastructure/config"
	"github.com/felixgeelhaar/teampulse/internal/infrastructure/logging"
	"github.com/felixgeelhaar/teampulse/internal/infrastructure/metrics"
	"github.com/felixgeelhaar/teampulse/pkg/application"
	"github.com/felixgeelhaar/teampulse/pkg/domain"
	"github.com/felixgeelhaar/teampulse/pkg/storage/postgres"
	"github.com/felixgeelhaar/teampulse/pkg/storage/sqlite"
)

// Source is what every backend provides.
type Source interface {
	domain.TaskSource
	domain.MemberSource
}

// AppServices exposes the application services wired to the configured source.
type AppServices struct {
	Root      string
	Config    *config.Config
	Logger    *slog.Logger
	Workspace *Workspace
	Source    Source
	Metrics   *metrics.Recorder
	Analytics *application.AnalyticsService
	Reassign  *application.ReassignService

	closers []io.Closer
}

// Option adjusts how BuildAppServices assembles the services.
type Option func(*buildOptions)

type buildOptions struct {
	logger *slog.Logger
	source Source
}

// WithLogger overrides the logger derived from the configuration.
func WithLogger(logger *slog.Logger) Option {
	return func(o *buildOptions) { o.logger = logger }
}

// WithSource bypasses the configured backend. Used by tests.
func WithSource(src Source) Option {
	return func(o *buildOptions) { o.source = src }
}

// BuildAppServices loads the workspace configuration under root and wires
// the source, metrics, audit trail, webhooks and services.
func BuildAppServices(ctx context.Context, root string, opts ...Option) (*AppServices, error) {
	var o buildOptions
	for _, opt := range opts {
		opt(&o)
	}

	cfg, err := config.Load(root)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger := o.logger
	if logger == nil {
		logger = logging.New(cfg.LogLevel, cfg.LogFormat)
	}

	s := &AppServices{
		Root:      root,
		Config:    cfg,
		Logger:    logger,
		Workspace: NewWorkspace(root, cfg, logger),
		Metrics:   metrics.NewRecorder(),
	}

	s.Source = o.source
	if s.Source == nil {
		if s.Source, err = s.openSource(ctx); err != nil {
			return nil, err
		}
	}

	s.Analytics, err = application.NewAnalyticsService(s.Source,
		application.WithLogger(logger.With("component", "analytics")),
		application.WithAnalyticsOptions(cfg.AnalyticsOptions()),
		application.WithFetchTimeout(cfg.FetchTimeout),
		application.WithMemoSize(cfg.CacheSize),
		application.WithRecorder(s.Metrics),
	)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("build analytics service: %w", err)
	}

	s.Reassign = application.NewReassignService(s.Source, s.Source, s.Workspace.Audit,
		logger.With("component", "reassign"), s.Metrics)
	if s.Workspace.Notifier != nil {
		s.Reassign.WithNotifier(s.Workspace.Notifier)
	}
	return s, nil
}

func (s *AppServices) openSource(ctx context.Context) (Source, error) {
	switch s.Config.Source {
	case "", config.SourceFilesystem:
		return s.Workspace.Repo, nil
	case config.SourcePostgres:
		pool, err := postgres.Connect(ctx, s.Config.DatabaseURL)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, closerFunc(pool.Close))
		return postgres.NewSource(pool), nil
	case config.SourceSQLite:
		src, err := sqlite.Open(s.Config.ResolveSQLitePath(s.Root))
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, src)
		return src, nil
	default:
		return nil, fmt.Errorf("unknown source %q", s.Config.Source)
	}
}

// OrganizationID returns the configured organization, or resolves it from
// the configured member. Returns domain.ErrNoOrganization when neither works.
func (s *AppServices) OrganizationID(ctx context.Context) (string, error) {
	if s.Config.OrganizationID != "" {
		return s.Config.OrganizationID, nil
	}
	if s.Config.MemberID == "" {
		return "", domain.ErrNoOrganization
	}
	org, err := s.Analytics.ResolveOrganization(ctx, s.Config.MemberID)
	if err != nil {
		if errors.Is(err, domain.ErrNoOrganization) {
			return "", domain.ErrNoOrganization
		}
		return "", err
	}
	return org, nil
}

// Close waits for pending webhook deliveries and releases the source.
func (s *AppServices) Close() {
	if s.Workspace != nil && s.Workspace.Notifier != nil {
		s.Workspace.Notifier.Wait()
	}
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			s.Logger.Warn("close source", "error", err)
		}
	}
	s.closers = nil
}

type closerFunc func()

func (f closerFunc) Close() error {
	f()
	return nil
}
