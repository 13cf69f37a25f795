package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/felixgeelhaar/teampulse/internal/infrastructure/config"
	"github.com/felixgeelhaar/teampulse/internal/infrastructure/watch"
	"github.com/felixgeelhaar/teampulse/pkg/infrastructure/dashboard"
)

var (
	serveAddr    string
	serveNoWatch bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the web dashboards, live updates and metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		services, err := loadServicesForCurrentDir(ctx)
		if err != nil {
			return MapError(err)
		}
		defer services.Close()

		addr := serveAddr
		if addr == "" {
			addr = services.Config.ServeAddr
		}
		srv, err := dashboard.NewServer(dashboard.Config{
			Addr:      addr,
			Analytics: services.Analytics,
			Reassign:  services.Reassign,
			Org:       services.OrganizationID,
			Metrics:   services.Metrics.Handler(),
			Logger:    services.Logger.With("component", "dashboard"),
		})
		if err != nil {
			return err
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(srv.Start)
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})

		// Only the filesystem source lives in the workspace directory.
		if !serveNoWatch && services.Config.Source == config.SourceFilesystem {
			w, err := watch.New(services.Root, watch.DefaultWindow, watch.DefaultFilter(),
				services.Logger.With("component", "watch"),
				func(c watch.Change) {
					services.Logger.Info("workspace changed, refreshing dashboards", "files", c.Files)
					srv.Refresh(gctx)
				})
			if err != nil {
				return fmt.Errorf("start watcher: %w", err)
			}
			g.Go(func() error {
				if err := w.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
					return err
				}
				return nil
			})
		}

		fmt.Fprintf(cmd.OutOrStdout(), "teampulse dashboard on http://%s (Ctrl+C to stop)\n", addr)
		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (defaults to serve_addr from config)")
	serveCmd.Flags().BoolVar(&serveNoWatch, "no-watch", false, "Do not refresh when workspace files change")
	RootCmd.AddCommand(serveCmd)
}
