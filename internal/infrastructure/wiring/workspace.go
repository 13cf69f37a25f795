package wiring

import (
	"log/slog"
	"path/filepath"

	"github.com/felixgeelhaar/teampulse/internal/infrastructure/config"
	"github.com/felixgeelhaar/teampulse/internal/infrastructure/webhook"
	"github.com/felixgeelhaar/teampulse/pkg/application"
	"github.com/felixgeelhaar/teampulse/pkg/storage"
)

// Workspace bundles the filesystem pieces every command needs regardless of
// the configured task source: the .teampulse directory, its audit trail and
// the outgoing webhooks.
type Workspace struct {
	Repo     *storage.FilesystemRepository
	Audit    *application.AuditService
	Notifier *webhook.Notifier
}

func NewWorkspace(root string, cfg *config.Config, logger *slog.Logger) *Workspace {
	repo := storage.NewFilesystemRepository(root)

	var notifier *webhook.Notifier
	if cfg != nil && len(cfg.Webhooks) > 0 {
		dlPath := filepath.Join(root, storage.WorkspaceDir, webhook.DeadLetterFile)
		notifier = webhook.NewNotifier(cfg.Webhooks, webhook.NewDeadLetterStore(dlPath), logger)
	}

	return &Workspace{
		Repo:     repo,
		Audit:    application.NewAuditService(repo),
		Notifier: notifier,
	}
}
