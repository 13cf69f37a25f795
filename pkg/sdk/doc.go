// Package sdk provides a typed Go client for the teampulse MCP server.
//
// The client wraps mcp-go/client.CallTool with one method per tool and
// retries transport failures via fortify. Tool errors (a rejected
// reassignment, a missing organization) are returned as *ToolError and are
// never retried.
//
// Usage:
//
//	transport, _ := client.NewStdioTransport("teampulse", "mcp")
//	c := sdk.NewClient(transport)
//	defer c.Close()
//
//	_, _ = c.Initialize(ctx)
//	view, _ := c.TeamReport(ctx, "")
//	fmt.Println(view.Report.Stats.Total)
package sdk
