package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/teampulse/pkg/application"
	"github.com/felixgeelhaar/teampulse/pkg/domain/dashboard"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Interactive TUI dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServicesForCurrentDir(cmd.Context())
		if err != nil {
			return MapError(err)
		}
		defer services.Close()

		org, err := resolveOrg(cmd.Context(), services, analyticsOrg)
		if err != nil {
			org = ""
		}
		m, err := initialModel(cmd.Context(), services.Analytics, org)
		if err != nil {
			return err
		}
		if os.Getenv("TEAMPULSE_SKIP_DASHBOARD_RUN") == "true" {
			return nil
		}
		p := tea.NewProgram(m)
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("dashboard run failed: %w", err)
		}
		return nil
	},
}

func init() {
	dashboardCmd.Flags().StringVar(&analyticsOrg, "org", "", "Organization id (defaults to the configured one)")
	RootCmd.AddCommand(dashboardCmd)
}

// dashboardSource is the part of the analytics service the TUI reads.
type dashboardSource interface {
	TeamDashboard(ctx context.Context, orgID string) *application.TeamView
	FlowDashboard(ctx context.Context, orgID string) *application.FlowView
}

type tab int

const (
	tabTeam tab = iota
	tabFlow
)

type loadedMsg struct {
	team *application.TeamView
	flow *application.FlowView
}

type model struct {
	ctx       context.Context
	source    dashboardSource
	org       string
	lifecycle *dashboard.Lifecycle

	spinner spinner.Model
	table   table.Model
	tab     tab
	team    *application.TeamView
	flow    *application.FlowView
	err     error
}

func initialModel(ctx context.Context, source dashboardSource, org string) (model, error) {
	lc, err := dashboard.NewLifecycle()
	if err != nil {
		return model{}, err
	}

	t := table.New(
		table.WithFocused(true),
		table.WithHeight(10),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240"))
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229"))
	t.SetStyles(s)

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return model{
		ctx:       ctx,
		source:    source,
		org:       org,
		lifecycle: lc,
		spinner:   sp,
		table:     t,
	}, nil
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.load())
}

// load starts a fetch of both dashboards. Returns nil while one is running.
func (m model) load() tea.Cmd {
	if err := m.lifecycle.Begin(); err != nil {
		return nil
	}
	source, org, ctx := m.source, m.org, m.ctx
	return func() tea.Msg {
		return loadedMsg{
			team: source.TeamDashboard(ctx, org),
			flow: source.FlowDashboard(ctx, org),
		}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			if m.lifecycle.Status().IsTerminal() {
				return m, tea.Batch(m.spinner.Tick, m.load())
			}
			return m, nil
		case "tab":
			m.tab = (m.tab + 1) % 2
			m.fillTable()
			return m, nil
		}
	case loadedMsg:
		m.team, m.flow = msg.team, msg.flow
		outcome := msg.team.Status
		if msg.flow.Status == dashboard.StatusFailed {
			outcome = dashboard.StatusFailed
		}
		m.err = m.lifecycle.Send(dashboard.OutcomeEvent(outcome))
		m.fillTable()
		return m, nil
	case spinner.TickMsg:
		if m.lifecycle.Status() != dashboard.StatusLoading {
			return m, nil
		}
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *model) fillTable() {
	var columns []table.Column
	var rows []table.Row

	switch m.tab {
	case tabTeam:
		columns = []table.Column{
			{Title: "Member", Width: 18},
			{Title: "Pending", Width: 8},
			{Title: "In prog.", Width: 8},
			{Title: "Done", Width: 6},
			{Title: "Stale", Width: 6},
			{Title: "Load", Width: 11},
		}
		if m.team != nil {
			for _, w := range m.team.Report.Workload {
				rows = append(rows, table.Row{
					w.Name,
					fmt.Sprint(w.Pending),
					fmt.Sprint(w.InProgress),
					fmt.Sprint(w.Completed),
					fmt.Sprintf("%.0f%%", w.StalePercent),
					string(w.Load),
				})
			}
		}
	case tabFlow:
		columns = []table.Column{
			{Title: "Week", Width: 10},
			{Title: "Created", Width: 8},
			{Title: "Done", Width: 6},
			{Title: "Net", Width: 5},
			{Title: "Backlog", Width: 12},
		}
		if m.flow != nil {
			for _, wk := range m.flow.Report.Weeks {
				backlog := "sustainable"
				if !wk.Sustainable {
					backlog = "growing"
				}
				rows = append(rows, table.Row{
					wk.Label,
					fmt.Sprint(wk.Created),
					fmt.Sprint(wk.Completed),
					fmt.Sprintf("%+d", wk.Net),
					backlog,
				})
			}
		}
	}

	// Rows must be cleared before the column count changes.
	m.table.SetRows(nil)
	m.table.SetColumns(columns)
	m.table.SetRows(rows)
}

func (m model) View() string {
	if m.err != nil {
		return fmt.Sprintf("Error loading dashboard: %v\nPress q to quit.", m.err)
	}

	title := "Team"
	if m.tab == tabFlow {
		title = "Flow"
	}
	header := headerStyle.Render(fmt.Sprintf("teampulse %s | %s", m.org, title))

	var body string
	switch status := m.lifecycle.Status(); status {
	case dashboard.StatusIdle, dashboard.StatusLoading:
		body = m.spinner.View() + " Loading..."
	case dashboard.StatusReady:
		body = lipgloss.JoinVertical(lipgloss.Left, m.summary(), m.table.View(), m.alerts())
	default:
		body = statusErr.Render(m.message(status))
	}

	return baseStyle.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header,
			body,
			dimStyle.Render("\n[q] Quit  [r] Refresh  [tab] Team/Flow  [Up/Down] Navigate"),
		),
	) + "\n"
}

func (m model) message(status dashboard.Status) string {
	if m.team != nil && m.team.Message != "" {
		return m.team.Message
	}
	return status.Message()
}

func (m model) summary() string {
	if m.tab == tabFlow && m.flow != nil {
		h := m.flow.Report.FlowHealth
		res := m.flow.Report.Resolution
		return fmt.Sprintf("Flow health %s  cycle time %.1fd (median %.1fd)",
			flowStyle(h.Status).Render(fmt.Sprintf("%d %s", h.Score, h.Status)), res.MeanDays, res.MedianDays)
	}
	if m.team == nil {
		return ""
	}
	s := m.team.Report.Stats
	return fmt.Sprintf("%d tasks  %d pending  %d done (%.0f%%)  %d overdue  %d unassigned",
		s.Total, s.Pending, s.Completed, s.CompletionRate(), s.Overdue, m.team.Report.Unassigned.Pending)
}

func (m model) alerts() string {
	if m.team == nil || len(m.team.Report.StagnationAlerts) == 0 {
		return statusOK.Render("No stalled work")
	}
	var b strings.Builder
	b.WriteString(statusErr.Render("Stalled:"))
	for i, a := range m.team.Report.StagnationAlerts {
		if i == 3 {
			fmt.Fprintf(&b, "\n  ... %d more", len(m.team.Report.StagnationAlerts)-i)
			break
		}
		fmt.Fprintf(&b, "\n  %.0fd %s", a.DaysStale, a.Title)
	}
	return b.String()
}
