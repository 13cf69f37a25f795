package mcp

import (
	"context"
	"encoding/json"

	mcplib "github.com/felixgeelhaar/mcp-go"
)

// SchemaVersion is the current MCP tool schema version (semver).
const SchemaVersion = "1.0.0"

const schemaURI = "teampulse://schema"

// ToolInfo describes a registered tool in the schema resource.
type ToolInfo struct {
	Name     string `json:"name"`
	ReadOnly bool   `json:"read_only"`
}

func tools() []ToolInfo {
	return []ToolInfo{
		{Name: "teampulse_team_report", ReadOnly: true},
		{Name: "teampulse_flow_report", ReadOnly: true},
		{Name: "teampulse_members", ReadOnly: true},
		{Name: "teampulse_reassign"},
		{Name: "teampulse_audit_timeline", ReadOnly: true},
	}
}

type schemaResponse struct {
	SchemaVersion string     `json:"schema_version"`
	ServerVersion string     `json:"server_version"`
	Tools         []ToolInfo `json:"tools"`
}

func (s *Server) registerSchemaResource() {
	s.mcpServer.Resource(schemaURI).
		Name(schemaURI).
		Description("MCP tool schema version and the tools that modify data").
		MimeType("application/json").
		Handler(s.handleSchema)
}

func (s *Server) handleSchema(_ context.Context, _ string, _ map[string]string) (*mcplib.ResourceContent, error) {
	data, err := json.Marshal(schemaResponse{
		SchemaVersion: SchemaVersion,
		ServerVersion: Version,
		Tools:         tools(),
	})
	if err != nil {
		return nil, err
	}
	return &mcplib.ResourceContent{
		URI:      schemaURI,
		MimeType: "application/json",
		Text:     string(data),
	}, nil
}
