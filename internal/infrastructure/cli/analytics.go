package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/teampulse/pkg/application"
	"github.com/felixgeelhaar/teampulse/pkg/domain"
	"github.com/felixgeelhaar/teampulse/pkg/domain/analytics"
	"github.com/felixgeelhaar/teampulse/pkg/domain/dashboard"
)

var (
	analyticsJSON bool
	analyticsOrg  string
)

var analyticsCmd = &cobra.Command{
	Use:     "analytics",
	Aliases: []string{"report"},
	Short:   "Print the team and flow-health dashboards",
}

var analyticsTeamCmd = &cobra.Command{
	Use:   "team",
	Short: "Workload, weekly trend, stagnation alerts and leaderboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServicesForCurrentDir(cmd.Context())
		if err != nil {
			return MapError(err)
		}
		defer services.Close()

		org, err := resolveOrg(cmd.Context(), services, analyticsOrg)
		if err != nil && !errors.Is(err, domain.ErrNoOrganization) {
			return MapError(err)
		}
		view := services.Analytics.TeamDashboard(cmd.Context(), org)
		if analyticsJSON {
			return writeJSON(cmd.OutOrStdout(), view)
		}
		renderTeam(cmd.OutOrStdout(), view)
		return viewError(view.Status)
	},
}

var analyticsFlowCmd = &cobra.Command{
	Use:   "flow",
	Short: "Throughput, cycle time, bottlenecks and flow-health score",
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServicesForCurrentDir(cmd.Context())
		if err != nil {
			return MapError(err)
		}
		defer services.Close()

		org, err := resolveOrg(cmd.Context(), services, analyticsOrg)
		if err != nil && !errors.Is(err, domain.ErrNoOrganization) {
			return MapError(err)
		}
		view := services.Analytics.FlowDashboard(cmd.Context(), org)
		if analyticsJSON {
			return writeJSON(cmd.OutOrStdout(), view)
		}
		renderFlow(cmd.OutOrStdout(), view)
		return viewError(view.Status)
	},
}

func init() {
	analyticsCmd.PersistentFlags().BoolVar(&analyticsJSON, "json", false, "Output as JSON")
	analyticsCmd.PersistentFlags().StringVar(&analyticsOrg, "org", "", "Organization id (defaults to the configured one)")
	analyticsCmd.AddCommand(analyticsTeamCmd)
	analyticsCmd.AddCommand(analyticsFlowCmd)
	RootCmd.AddCommand(analyticsCmd)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// viewError turns a failed dashboard into a non-zero exit.
func viewError(status dashboard.Status) error {
	if status == dashboard.StatusFailed {
		return NewCLIError(dashboard.FailureMessage, "Check the source configuration with 'teampulse doctor'", nil)
	}
	return nil
}

func renderTeam(w io.Writer, view *application.TeamView) {
	fmt.Fprintln(w, headerStyle.Render("Team dashboard "+view.OrganizationID))
	if view.Status != dashboard.StatusReady {
		fmt.Fprintln(w, statusWarn.Render(view.Message))
		return
	}
	r := view.Report
	renderStats(w, r.Stats)
	renderWorkload(w, r.Workload, r.Unassigned)

	fmt.Fprintln(w, sectionStyle.Render("Last weeks"))
	tw := tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)
	fmt.Fprintln(tw, "WEEK\tCREATED\tCOMPLETED")
	for _, b := range r.WeeklyTrend {
		fmt.Fprintf(tw, "%s\t%d\t%d\n", b.Label, b.Created, b.Completed)
	}
	_ = tw.Flush()

	renderAlerts(w, r.StagnationThresholdDays, r.StagnationAlerts)

	if len(r.Leaderboard) > 0 {
		fmt.Fprintln(w, sectionStyle.Render("Leaderboard"))
		for i, e := range r.Leaderboard {
			streak := ""
			if e.Streak > 1 {
				streak = dimStyle.Render(fmt.Sprintf(" %d-week streak", e.Streak))
			}
			fmt.Fprintf(w, "%d. %s (%d)%s\n", i+1, e.Name, e.Completed, streak)
		}
	}
}

func renderFlow(w io.Writer, view *application.FlowView) {
	fmt.Fprintln(w, headerStyle.Render("Flow health "+view.OrganizationID))
	if view.Status != dashboard.StatusReady {
		fmt.Fprintln(w, statusWarn.Render(view.Message))
		return
	}
	r := view.Report
	fmt.Fprintf(w, "Score %s\n", flowStyle(r.FlowHealth.Status).Render(fmt.Sprintf("%d (%s)", r.FlowHealth.Score, r.FlowHealth.Status)))
	renderStats(w, r.Stats)

	fmt.Fprintln(w, sectionStyle.Render("Throughput"))
	tw := tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)
	fmt.Fprintln(tw, "WEEK\tCREATED\tCOMPLETED\tNET\t")
	for _, wk := range r.Weeks {
		mark := statusOK.Render("sustainable")
		if !wk.Sustainable {
			mark = statusWarn.Render("growing")
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%+d\t%s\n", wk.Label, wk.Created, wk.Completed, wk.Net, mark)
	}
	_ = tw.Flush()

	fmt.Fprintln(w, sectionStyle.Render("Cycle time"))
	if r.Resolution.Samples == 0 {
		fmt.Fprintln(w, dimStyle.Render("No completed tasks in range"))
	} else {
		fmt.Fprintf(w, "mean %.1fd, median %.1fd over %d tasks\n", r.Resolution.MeanDays, r.Resolution.MedianDays, r.Resolution.Samples)
		for _, p := range r.Resolution.ByPriority {
			fmt.Fprintf(w, "  %-8s %.1fd (%d)\n", p.Priority, p.MeanDays, p.Samples)
		}
	}

	if len(r.Bottlenecks) > 0 {
		fmt.Fprintln(w, sectionStyle.Render("Aging work"))
		for _, b := range r.Bottlenecks {
			fmt.Fprintf(w, "  %-12s %d tasks, mean %.1fd %s\n", b.State, b.Count, b.MeanAgeDays,
				severityStyle(b.Severity).Render(string(b.Severity)))
		}
	}

	renderAlerts(w, r.StagnationThresholdDays, r.StagnationAlerts)
	renderTags(w, r.TagFocus)
}

func renderStats(w io.Writer, s analytics.Stats) {
	fmt.Fprintf(w, "Total %d | Pending %d | In progress %d | Blocked %d | Completed %d (%.0f%%) | Overdue %d | Done this week %d\n",
		s.Total, s.Pending, s.InProgress, s.Blocked, s.Completed, s.CompletionRate(), s.Overdue, s.CompletedThisWeek)
}

func renderWorkload(w io.Writer, rows []analytics.Workload, unassigned analytics.UnassignedSummary) {
	fmt.Fprintln(w, sectionStyle.Render("Workload"))
	tw := tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)
	fmt.Fprintln(tw, "MEMBER\tPENDING\tIN PROGRESS\tCOMPLETED\tSTALE\tLOAD")
	for _, row := range rows {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%.0f%%\t%s\n", row.Name, row.Pending, row.InProgress, row.Completed,
			row.StalePercent, loadStyle(row.Load).Render(string(row.Load)))
	}
	if unassigned.Total > 0 {
		fmt.Fprintf(tw, "%s\t%d\t\t%d\t\t\n", dimStyle.Render("unassigned"), unassigned.Pending, unassigned.Completed)
	}
	_ = tw.Flush()
}

func renderAlerts(w io.Writer, threshold float64, alerts []analytics.StagnationAlert) {
	if len(alerts) == 0 {
		return
	}
	fmt.Fprintln(w, sectionStyle.Render(fmt.Sprintf("Stalled (> %.1f days without update)", threshold)))
	for _, a := range alerts {
		who := a.AssigneeName
		if who == "" {
			who = "unassigned"
		}
		fmt.Fprintf(w, "  %s %s %s\n", statusErr.Render(fmt.Sprintf("%.1fd", a.DaysStale)), a.Title, dimStyle.Render("("+who+")"))
	}
}

func renderTags(w io.Writer, focus analytics.TagFocus) {
	if len(focus.Tags) == 0 {
		return
	}
	fmt.Fprintln(w, sectionStyle.Render("Focus"))
	parts := make([]string, 0, len(focus.Tags))
	for _, t := range focus.Tags {
		parts = append(parts, fmt.Sprintf("%s %.0f%%", t.Tag, t.Percent))
	}
	fmt.Fprintln(w, strings.Join(parts, ", "))
	if focus.UntaggedTasks > 0 {
		fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("%.0f%% untagged", focus.UntaggedPercent)))
	}
}
