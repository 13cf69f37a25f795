package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/teampulse/internal/infrastructure/wiring"
)

var timelineLimit int

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect and verify the workspace audit trail",
}

var auditTimelineCmd = &cobra.Command{
	Use:   "timeline",
	Short: "Show recorded events, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := getProjectRoot()
		if err != nil {
			return fmt.Errorf("resolve project path: %w", err)
		}
		workspace := wiring.NewWorkspace(root, nil, nil)
		if !workspace.Repo.IsInitialized() {
			return MapError(ErrNotInitialized)
		}

		events, err := workspace.Audit.GetTimeline()
		if err != nil {
			return fmt.Errorf("failed to load timeline: %w", err)
		}

		out := cmd.OutOrStdout()
		shown := 0
		for i := len(events) - 1; i >= 0; i-- {
			if timelineLimit > 0 && shown == timelineLimit {
				break
			}
			e := events[i]
			ts := e.Timestamp.Format(time.RFC822)
			fmt.Fprintf(out, "[%s] %-15s | %-22s", ts, e.Actor, e.Action)
			if len(e.Metadata) > 0 {
				fmt.Fprintf(out, " %s", dimStyle.Render(fmt.Sprintf("%v", e.Metadata)))
			}
			fmt.Fprintln(out)
			shown++
		}
		if shown == 0 {
			fmt.Fprintln(out, "No events recorded.")
		}
		return nil
	},
}

var auditVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the integrity of the audit trail",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := getProjectRoot()
		if err != nil {
			return fmt.Errorf("resolve project path: %w", err)
		}
		workspace := wiring.NewWorkspace(root, nil, nil)

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Verifying audit trail integrity...")
		violations, err := workspace.Audit.VerifyIntegrity()
		if err != nil {
			return fmt.Errorf("verification failed: %w", err)
		}

		if len(violations) == 0 {
			fmt.Fprintln(out, statusOK.Render("Audit trail is intact and verified."))
			return nil
		}

		fmt.Fprintf(out, "Found %d integrity violations:\n", len(violations))
		for _, v := range violations {
			fmt.Fprintf(out, "  - %s\n", v)
		}
		return NewCLIError("audit trail integrity check failed", "Restore .teampulse/events.jsonl from a backup", nil)
	},
}

func init() {
	auditTimelineCmd.Flags().IntVarP(&timelineLimit, "limit", "n", 0, "Show at most N events")
	auditCmd.AddCommand(auditTimelineCmd)
	auditCmd.AddCommand(auditVerifyCmd)
	RootCmd.AddCommand(auditCmd)
}
