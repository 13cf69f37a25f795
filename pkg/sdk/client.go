package sdk

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"github.com/felixgeelhaar/mcp-go/client"

	"github.com/felixgeelhaar/teampulse/pkg/application"
	"github.com/felixgeelhaar/teampulse/pkg/domain"
	"github.com/felixgeelhaar/teampulse/pkg/domain/tasks"
	"github.com/felixgeelhaar/teampulse/pkg/domain/team"
)

// SupportedSchemaMajor is the major schema version this SDK supports.
const SupportedSchemaMajor = "1"

// Client is a typed Go client for the teampulse MCP server.
type Client struct {
	mcp      *client.Client
	retryCfg retry.Config
}

type options struct {
	timeout      time.Duration
	maxAttempts  int
	initialDelay time.Duration
}

// Option configures the SDK client.
type Option func(*options)

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithRetry configures retry behaviour. maxAttempts of 1 disables retries.
func WithRetry(maxAttempts int, initialDelay time.Duration) Option {
	return func(o *options) {
		o.maxAttempts = maxAttempts
		o.initialDelay = initialDelay
	}
}

// NewClient creates a new SDK client wrapping the given MCP transport.
func NewClient(transport client.Transport, opts ...Option) *Client {
	o := options{
		timeout:      30 * time.Second,
		maxAttempts:  3,
		initialDelay: 500 * time.Millisecond,
	}
	for _, fn := range opts {
		fn(&o)
	}
	return &Client{
		mcp: client.New(transport, client.WithTimeout(o.timeout)),
		retryCfg: retry.Config{
			MaxAttempts:   o.maxAttempts,
			InitialDelay:  o.initialDelay,
			BackoffPolicy: retry.BackoffExponential,
		},
	}
}

// Initialize performs the MCP initialize handshake.
func (c *Client) Initialize(ctx context.Context) (*client.ServerInfo, error) {
	return c.mcp.Initialize(ctx)
}

// Close closes the underlying transport.
func (c *Client) Close() error {
	return c.mcp.Close()
}

// call invokes a tool, retrying transport failures only. Error results
// come back from the server as content and are not retried.
func (c *Client) call(ctx context.Context, tool string, args map[string]any) (*client.ToolResult, error) {
	r := retry.New[*client.ToolResult](c.retryCfg)
	result, err := r.Do(ctx, func(ctx context.Context) (*client.ToolResult, error) {
		return c.mcp.CallTool(ctx, tool, args)
	})
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", tool, err)
	}
	if result.IsError {
		msg := ""
		if len(result.Content) > 0 {
			msg = result.Content[0].Text
		}
		return nil, &ToolError{Tool: tool, Message: msg}
	}
	return result, nil
}

// unmarshalText extracts Content[0].Text from a tool result and unmarshals it as JSON.
func unmarshalText[T any](result *client.ToolResult) (*T, error) {
	text, err := textResult(result)
	if err != nil {
		return nil, err
	}
	var v T
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	return &v, nil
}

// textResult extracts Content[0].Text from a tool result.
func textResult(result *client.ToolResult) (string, error) {
	if len(result.Content) == 0 {
		return "", ErrNoContent
	}
	return result.Content[0].Text, nil
}

// SchemaInfo is the content of the teampulse://schema resource.
type SchemaInfo struct {
	SchemaVersion string `json:"schema_version"`
	ServerVersion string `json:"server_version"`
	Tools         []struct {
		Name     string `json:"name"`
		ReadOnly bool   `json:"read_only"`
	} `json:"tools"`
}

// GetSchema reads the teampulse://schema resource from the server.
func (c *Client) GetSchema(ctx context.Context) (*SchemaInfo, error) {
	rc, err := c.mcp.ReadResource(ctx, "teampulse://schema")
	if err != nil {
		return nil, fmt.Errorf("read schema resource: %w", err)
	}
	var info SchemaInfo
	if err := json.Unmarshal([]byte(rc.Text), &info); err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}
	return &info, nil
}

// Compatible checks if the server schema is compatible with this SDK version.
func (c *Client) Compatible(ctx context.Context) error {
	info, err := c.GetSchema(ctx)
	if err != nil {
		return fmt.Errorf("check compatibility: %w", err)
	}
	serverMajor := majorVersion(info.SchemaVersion)
	if serverMajor != SupportedSchemaMajor {
		return fmt.Errorf("incompatible schema: server=%s (major %s), sdk supports major %s",
			info.SchemaVersion, serverMajor, SupportedSchemaMajor)
	}
	return nil
}

func majorVersion(v string) string {
	for i, ch := range v {
		if ch == '.' {
			return v[:i]
		}
	}
	return v
}

func orgArgs(orgID string) map[string]any {
	if orgID == "" {
		return nil
	}
	return map[string]any{"organization_id": orgID}
}

// TeamReport returns the team dashboard. An empty orgID uses the server's
// configured organization.
func (c *Client) TeamReport(ctx context.Context, orgID string) (*application.TeamView, error) {
	res, err := c.call(ctx, "teampulse_team_report", orgArgs(orgID))
	if err != nil {
		return nil, err
	}
	return unmarshalText[application.TeamView](res)
}

// FlowReport returns the flow-health dashboard.
func (c *Client) FlowReport(ctx context.Context, orgID string) (*application.FlowView, error) {
	res, err := c.call(ctx, "teampulse_flow_report", orgArgs(orgID))
	if err != nil {
		return nil, err
	}
	return unmarshalText[application.FlowView](res)
}

// Members lists the organization's members.
func (c *Client) Members(ctx context.Context, orgID string) ([]team.Member, error) {
	res, err := c.call(ctx, "teampulse_members", orgArgs(orgID))
	if err != nil {
		return nil, err
	}
	members, err := unmarshalText[[]team.Member](res)
	if err != nil {
		return nil, err
	}
	return *members, nil
}

// ReassignRequest selects the pending tasks to move.
type ReassignRequest struct {
	From    string
	To      string
	TaskIDs []string
	All     bool
	Actor   string
}

// Reassign moves pending tasks between members. A rejected request is
// returned as a *ToolError carrying the server's message.
func (c *Client) Reassign(ctx context.Context, req ReassignRequest) (*tasks.ReassignResult, error) {
	args := map[string]any{"from": req.From, "to": req.To}
	if len(req.TaskIDs) > 0 {
		args["task_ids"] = req.TaskIDs
	}
	if req.All {
		args["all"] = true
	}
	if req.Actor != "" {
		args["actor"] = req.Actor
	}
	res, err := c.call(ctx, "teampulse_reassign", args)
	if err != nil {
		return nil, err
	}
	return unmarshalText[tasks.ReassignResult](res)
}

// AuditTimeline returns the most recent limit audit events, all when limit is 0.
func (c *Client) AuditTimeline(ctx context.Context, limit int) ([]domain.Event, error) {
	var args map[string]any
	if limit > 0 {
		args = map[string]any{"limit": limit}
	}
	res, err := c.call(ctx, "teampulse_audit_timeline", args)
	if err != nil {
		return nil, err
	}
	events, err := unmarshalText[[]domain.Event](res)
	if err != nil {
		return nil, err
	}
	return *events, nil
}
