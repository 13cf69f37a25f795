package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/teampulse/internal/infrastructure/config"
	"github.com/felixgeelhaar/teampulse/internal/infrastructure/wiring"
	"github.com/felixgeelhaar/teampulse/pkg/domain"
	"github.com/felixgeelhaar/teampulse/pkg/storage/sqlite"
)

var importSwitch bool

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Copy workspace data into another task source",
}

var importSQLiteCmd = &cobra.Command{
	Use:   "sqlite",
	Short: "Copy .teampulse tasks and members into the SQLite database",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := getProjectRoot()
		if err != nil {
			return err
		}
		cfg, err := config.Load(root)
		if err != nil {
			return err
		}
		workspace := wiring.NewWorkspace(root, cfg, nil)
		if !workspace.Repo.IsInitialized() {
			return MapError(ErrNotInitialized)
		}

		list, err := workspace.Repo.LoadTasks()
		if err != nil {
			return err
		}
		dir, err := workspace.Repo.LoadDirectory()
		if err != nil {
			return err
		}

		path := cfg.ResolveSQLitePath(root)
		db, err := sqlite.Open(path)
		if err != nil {
			return err
		}
		defer db.Close()

		members, err := db.ImportMembers(cmd.Context(), dir.Members)
		if err != nil {
			return err
		}
		count, err := db.ImportTasks(cmd.Context(), list)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d tasks and %d members into %s\n", count, members, path)

		if importSwitch {
			cfg.Source = config.SourceSQLite
			if err := config.Save(root, cfg); err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Workspace now reads from SQLite.")
		}
		return workspace.Audit.Log(domain.ActionWorkspaceImported, "cli", map[string]any{
			"target":  config.SourceSQLite,
			"tasks":   count,
			"members": members,
		})
	},
}

func init() {
	importSQLiteCmd.Flags().BoolVar(&importSwitch, "switch", false, "Set source: sqlite in config.yaml after importing")
	importCmd.AddCommand(importSQLiteCmd)
	RootCmd.AddCommand(importCmd)
}
