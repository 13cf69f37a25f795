package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/teampulse/internal/infrastructure/wiring"
	"github.com/felixgeelhaar/teampulse/pkg/application"
	"github.com/felixgeelhaar/teampulse/pkg/domain"
	"github.com/felixgeelhaar/teampulse/pkg/domain/dashboard"
	"github.com/felixgeelhaar/teampulse/pkg/domain/tasks"
)

type Server struct {
	mcpServer *mcp.Server
	services  *wiring.AppServices
}

var (
	Version     = "dev"
	BuildCommit = "unknown"
	BuildDate   = "unknown"
)

// mcpErr returns a user-friendly error for MCP clients.
// Internal details are omitted, only the friendly message is returned.
func mcpErr(friendly string) error {
	return fmt.Errorf("%s", friendly)
}

// NewServer wires the workspace under root and registers the teampulse tools.
func NewServer(ctx context.Context, root string, opts ...wiring.Option) (*Server, error) {
	services, err := wiring.BuildAppServices(ctx, root, opts...)
	if err != nil {
		return nil, fmt.Errorf("build services: %w", err)
	}
	return newServer(services), nil
}

func newServer(services *wiring.AppServices) *Server {
	info := mcp.ServerInfo{
		Name:    "teampulse",
		Version: Version,
	}

	s := &Server{
		mcpServer: mcp.NewServer(info,
			mcp.WithTitle("teampulse MCP Server"),
			mcp.WithDescription("teampulse exposes team workload and flow-health analytics to MCP clients."),
			mcp.WithWebsiteURL("https://github.com/felixgeelhaar/teampulse"),
			mcp.WithBuildInfo(BuildCommit, BuildDate),
			mcp.WithInstructions("Use the report tools to inspect workload and flow. Reassign only pending tasks of one member at a time."),
		),
		services: services,
	}

	s.registerTools()
	s.registerSchemaResource()
	return s
}

// Close releases the underlying task source.
func (s *Server) Close() {
	s.services.Close()
}

type ReportArgs struct {
	OrganizationID string `json:"organization_id,omitempty" jsonschema:"description=Organization to report on. Defaults to the configured organization"`
}

type MembersArgs struct {
	OrganizationID string `json:"organization_id,omitempty" jsonschema:"description=Organization whose members to list"`
}

type ReassignArgs struct {
	From    string   `json:"from" jsonschema:"required,description=Member whose pending tasks are moved"`
	To      string   `json:"to" jsonschema:"required,description=Member receiving the tasks"`
	TaskIDs []string `json:"task_ids,omitempty" jsonschema:"description=Pending task ids to move"`
	All     bool     `json:"all,omitempty" jsonschema:"description=Move every pending task of the source member"`
	Actor   string   `json:"actor,omitempty" jsonschema:"description=Member performing the reassignment, recorded in the audit trail"`
}

type TimelineArgs struct {
	Limit int `json:"limit,omitempty" jsonschema:"description=Return only the most recent N events"`
}

func (s *Server) registerTools() {
	s.mcpServer.Tool("teampulse_team_report").
		Description("Team dashboard: task statistics, per-member workload, weekly trend, stagnation alerts and leaderboard").
		Handler(s.handleTeamReport)

	s.mcpServer.Tool("teampulse_flow_report").
		Description("Flow-health dashboard: weekly throughput, cycle time and aging work in progress").
		Handler(s.handleFlowReport)

	s.mcpServer.Tool("teampulse_members").
		Description("List the members of the organization with their roles").
		Handler(s.handleMembers)

	s.mcpServer.Tool("teampulse_reassign").
		Description("Move pending tasks from one member to another in a single operation").
		Handler(s.handleReassign)

	s.mcpServer.Tool("teampulse_audit_timeline").
		Description("Retrieve the workspace audit trail").
		Handler(s.handleAuditTimeline)
}

// organization returns the explicit organization or the configured one.
// An empty result with a nil error means no organization is known.
func (s *Server) organization(ctx context.Context, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	org, err := s.services.OrganizationID(ctx)
	if errors.Is(err, domain.ErrNoOrganization) {
		return "", nil
	}
	return org, err
}

func (s *Server) handleTeamReport(ctx context.Context, args ReportArgs) (any, error) {
	org, err := s.organization(ctx, args.OrganizationID)
	if err != nil {
		return nil, mcpErr(dashboard.FailureMessage)
	}
	view := s.services.Analytics.TeamDashboard(ctx, org)
	if view.Status == dashboard.StatusFailed {
		return nil, mcpErr(view.Message)
	}
	return view, nil
}

func (s *Server) handleFlowReport(ctx context.Context, args ReportArgs) (any, error) {
	org, err := s.organization(ctx, args.OrganizationID)
	if err != nil {
		return nil, mcpErr(dashboard.FailureMessage)
	}
	view := s.services.Analytics.FlowDashboard(ctx, org)
	if view.Status == dashboard.StatusFailed {
		return nil, mcpErr(view.Message)
	}
	return view, nil
}

func (s *Server) handleMembers(ctx context.Context, args MembersArgs) (any, error) {
	org, err := s.organization(ctx, args.OrganizationID)
	if err != nil || org == "" {
		return nil, mcpErr("No organization configured. Set organization_id in .teampulse/config.yaml or pass one.")
	}
	members, err := s.services.Source.ListMembers(ctx, org)
	if err != nil {
		return nil, mcpErr("Failed to list members.")
	}
	return members, nil
}

func (s *Server) handleReassign(ctx context.Context, args ReassignArgs) (*tasks.ReassignResult, error) {
	org, err := s.organization(ctx, "")
	if err != nil || org == "" {
		return nil, mcpErr("No organization configured. Set organization_id in .teampulse/config.yaml.")
	}
	view := s.services.Analytics.TeamDashboard(ctx, org)
	if view.Status != dashboard.StatusReady {
		return nil, mcpErr(dashboard.FailureMessage)
	}

	actor := args.Actor
	if actor == "" {
		actor = "mcp"
	}
	res := s.services.Reassign.Reassign(ctx, application.ReassignRequest{
		OrganizationID: org,
		ActorID:        actor,
		Selection:      application.SelectPending(view.Report, args.From, args.TaskIDs, args.All),
		TargetID:       args.To,
	})
	if !res.Success {
		return nil, mcpErr(res.Message)
	}
	return &res, nil
}

func (s *Server) handleAuditTimeline(ctx context.Context, args TimelineArgs) (any, error) {
	events, err := s.services.Workspace.Audit.GetTimeline()
	if err != nil {
		return nil, mcpErr("Failed to load the audit trail.")
	}
	if args.Limit > 0 && len(events) > args.Limit {
		events = events[len(events)-args.Limit:]
	}
	return events, nil
}

func (s *Server) ServeStdio(ctx context.Context) error {
	return mcp.ServeStdio(ctx, s.mcpServer)
}

func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	return mcp.ServeHTTP(ctx, s.mcpServer, addr, mcp.WithDefaultCORS())
}
