package cli

import (
	"fmt"

	"github.com/felixgeelhaar/teampulse/internal/infrastructure/config"
	"github.com/felixgeelhaar/teampulse/internal/infrastructure/wiring"
	"github.com/felixgeelhaar/teampulse/pkg/application"
	"github.com/spf13/cobra"
)

var (
	initOrg    string
	initMember string
	initDemo   bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a teampulse workspace in the current directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := getProjectRoot()
		if err != nil {
			return err
		}
		if initOrg == "" {
			return NewCLIError("organization is required", "Pass --org <id>", nil)
		}

		workspace := wiring.NewWorkspace(root, nil, nil)
		service := application.NewInitService(workspace.Repo, workspace.Audit)
		if err := service.Initialize(initOrg, initDemo); err != nil {
			return MapError(err)
		}

		cfg := config.Default()
		cfg.OrganizationID = initOrg
		cfg.MemberID = initMember
		if err := config.Save(root, cfg); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Initialized teampulse workspace for organization %s\n", initOrg)
		if initDemo {
			fmt.Fprintln(cmd.OutOrStdout(), "Seeded demo team. Try 'teampulse analytics team'.")
		}
		return nil
	},
}

func init() {
	initCmd.Flags().StringVar(&initOrg, "org", "", "Organization id the workspace reports on")
	initCmd.Flags().StringVar(&initMember, "member", "", "Member id used to resolve the organization")
	initCmd.Flags().BoolVar(&initDemo, "demo", false, "Seed the workspace with a demo team")
	RootCmd.AddCommand(initCmd)
}
