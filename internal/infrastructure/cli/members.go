package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var membersJSON bool

var membersCmd = &cobra.Command{
	Use:   "members",
	Short: "Inspect organization members",
}

var membersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List members and whether they can receive tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServicesForCurrentDir(cmd.Context())
		if err != nil {
			return MapError(err)
		}
		defer services.Close()

		org, err := resolveOrg(cmd.Context(), services, analyticsOrg)
		if err != nil {
			return MapError(err)
		}
		members, err := services.Source.ListMembers(cmd.Context(), org)
		if err != nil {
			return fmt.Errorf("list members: %w", err)
		}
		if membersJSON {
			return writeJSON(cmd.OutOrStdout(), members)
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 2, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tROLE\tASSIGNABLE")
		for _, m := range members {
			assignable := "yes"
			if !m.Role.CanReceiveTasks() {
				assignable = "no"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", m.ID, m.Name, m.Role, assignable)
		}
		return tw.Flush()
	},
}

func init() {
	membersListCmd.Flags().BoolVar(&membersJSON, "json", false, "Output as JSON")
	membersListCmd.Flags().StringVar(&analyticsOrg, "org", "", "Organization id (defaults to the configured one)")
	membersCmd.AddCommand(membersListCmd)
	RootCmd.AddCommand(membersCmd)
}
