package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/teampulse/pkg/application"
	"github.com/felixgeelhaar/teampulse/pkg/domain/dashboard"
)

var (
	reassignFrom  string
	reassignTo    string
	reassignTasks []string
	reassignAll   bool
	reassignActor string
	reassignJSON  bool
)

var reassignCmd = &cobra.Command{
	Use:   "reassign",
	Short: "Move pending tasks from one member to another",
	Long: `Move pending tasks from one member to another in a single operation.
Either every listed task moves or none does. Unknown or completed task ids are ignored.`,
	Example: `  teampulse reassign --from u-luis --to u-vera --task demo-05 --task demo-08
  teampulse reassign --from u-luis --to u-vera --all`,
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServicesForCurrentDir(cmd.Context())
		if err != nil {
			return MapError(err)
		}
		defer services.Close()

		org, err := services.OrganizationID(cmd.Context())
		if err != nil {
			return MapError(err)
		}
		view := services.Analytics.TeamDashboard(cmd.Context(), org)
		if view.Status != dashboard.StatusReady {
			return NewCLIError(view.Message, "Check the source configuration with 'teampulse doctor'", nil)
		}

		actor := reassignActor
		if actor == "" {
			actor = services.Config.MemberID
		}
		if actor == "" {
			actor = "cli"
		}
		res := services.Reassign.Reassign(cmd.Context(), application.ReassignRequest{
			OrganizationID: org,
			ActorID:        actor,
			Selection:      application.SelectPending(view.Report, reassignFrom, reassignTasks, reassignAll),
			TargetID:       reassignTo,
		})
		if reassignJSON {
			if err := writeJSON(cmd.OutOrStdout(), res); err != nil {
				return err
			}
		}
		if !res.Success {
			return NewCLIError(res.Message, "Run 'teampulse members list' and 'teampulse analytics team' to check ids", nil)
		}
		if !reassignJSON {
			fmt.Fprintln(cmd.OutOrStdout(), statusOK.Render(res.Message))
			fmt.Fprintln(cmd.OutOrStdout(), dimStyle.Render("operation "+res.OperationID))
		}
		return nil
	},
}

func init() {
	reassignCmd.Flags().StringVar(&reassignFrom, "from", "", "Member whose pending tasks are moved")
	reassignCmd.Flags().StringVar(&reassignTo, "to", "", "Member receiving the tasks")
	reassignCmd.Flags().StringArrayVar(&reassignTasks, "task", nil, "Task id to move (repeatable)")
	reassignCmd.Flags().BoolVar(&reassignAll, "all", false, "Move every pending task of --from")
	reassignCmd.Flags().StringVar(&reassignActor, "actor", "", "Member recorded as performing the change")
	reassignCmd.Flags().BoolVar(&reassignJSON, "json", false, "Output the result as JSON")
	_ = reassignCmd.MarkFlagRequired("from")
	_ = reassignCmd.MarkFlagRequired("to")
	RootCmd.AddCommand(reassignCmd)
}
