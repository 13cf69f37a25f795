package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/felixgeelhaar/teampulse/internal/infrastructure/config"
	"github.com/felixgeelhaar/teampulse/internal/infrastructure/logging"
	"github.com/felixgeelhaar/teampulse/internal/infrastructure/wiring"
)

func loadServices(ctx context.Context, root string) (*wiring.AppServices, error) {
	var opts []wiring.Option
	if logLevel != "" {
		opts = append(opts, wiring.WithLogger(logging.New(logLevel, "text")))
	}
	services, err := wiring.BuildAppServices(ctx, root, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build services: %w", err)
	}
	if services.Config.Source == config.SourceFilesystem && !services.Workspace.Repo.IsInitialized() {
		services.Close()
		return nil, ErrNotInitialized
	}
	return services, nil
}

func getProjectRoot() (string, error) {
	if projectPath != "" {
		abs, err := filepath.Abs(projectPath)
		if err != nil {
			return "", fmt.Errorf("invalid project path %q: %w", projectPath, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return "", fmt.Errorf("project path %q: %w", abs, err)
		}
		if !info.IsDir() {
			return "", fmt.Errorf("project path %q is not a directory", abs)
		}
		return abs, nil
	}
	return os.Getwd()
}

func loadServicesForCurrentDir(ctx context.Context) (*wiring.AppServices, error) {
	root, err := getProjectRoot()
	if err != nil {
		return nil, err
	}
	return loadServices(ctx, root)
}

// resolveOrg picks the --org flag over the configured organization.
func resolveOrg(ctx context.Context, services *wiring.AppServices, flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	return services.OrganizationID(ctx)
}
