package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/teampulse/internal/infrastructure/config"
	"github.com/felixgeelhaar/teampulse/internal/infrastructure/webhook"
	"github.com/felixgeelhaar/teampulse/internal/infrastructure/wiring"
	"github.com/felixgeelhaar/teampulse/pkg/storage"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the health of the teampulse workspace",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Running teampulse doctor...")

		root, err := getProjectRoot()
		if err != nil {
			return err
		}
		workspace := wiring.NewWorkspace(root, nil, nil)
		repo := workspace.Repo

		hasIssues := false
		check := func(name string, fn func() error) {
			fmt.Fprintf(out, "Checking %s... ", name)
			if err := fn(); err != nil {
				fmt.Fprintf(out, "%s\n  Error: %v\n", statusErr.Render("FAIL"), err)
				hasIssues = true
			} else {
				fmt.Fprintln(out, statusOK.Render("PASS"))
			}
		}

		check("Initialization", func() error {
			if !repo.IsInitialized() {
				return fmt.Errorf(".teampulse directory not found (run 'teampulse init')")
			}
			return nil
		})

		var cfg *config.Config
		check("Configuration", func() error {
			cfg, err = config.Load(root)
			return err
		})

		check("Tasks File", func() error {
			_, err := repo.LoadTasks()
			return err
		})

		check("Members File", func() error {
			_, err := repo.LoadDirectory()
			return err
		})

		if cfg != nil {
			check("Task Source ("+cfg.Source+")", func() error {
				ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
				defer cancel()
				services, err := loadServices(ctx, root)
				if err != nil {
					return err
				}
				defer services.Close()
				org, err := services.OrganizationID(ctx)
				if err != nil {
					return err
				}
				list, err := services.Source.FetchTasks(ctx, org, time.Now().AddDate(0, -cfg.AnalyticsOptions().ResolutionWindowMonths, 0))
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "(%d tasks in %s) ", len(list), org)
				return nil
			})
		}

		check("Audit Integrity", func() error {
			violations, err := workspace.Audit.VerifyIntegrity()
			if err != nil {
				return err
			}
			if len(violations) > 0 {
				return fmt.Errorf("%d integrity violations found (run 'teampulse audit verify')", len(violations))
			}
			return nil
		})

		check("Webhook Deliveries", func() error {
			store := webhook.NewDeadLetterStore(filepath.Join(root, storage.WorkspaceDir, webhook.DeadLetterFile))
			letters, err := store.ReadAll()
			if err != nil {
				return err
			}
			if len(letters) > 0 {
				return fmt.Errorf("%d undelivered webhook notifications in %s", len(letters), webhook.DeadLetterFile)
			}
			return nil
		})

		if hasIssues {
			fmt.Fprintln(out, "\nIssues found! Please fix them before continuing.")
			return NewCLIError("doctor found issues", "", nil)
		}
		fmt.Fprintln(out, "\nEverything looks good!")
		return nil
	},
}

func init() {
	RootCmd.AddCommand(doctorCmd)
}
