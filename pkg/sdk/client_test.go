package sdk

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/felixgeelhaar/mcp-go/client"
	"github.com/felixgeelhaar/mcp-go/protocol"

	"github.com/felixgeelhaar/teampulse/pkg/domain/dashboard"
)

// mockTransport implements client.Transport and returns canned responses
// based on the method name in the request.
type mockTransport struct {
	closed    bool
	responses map[string]any
	lastArgs  map[string]any
	toolCalls int
}

func newMockTransport() *mockTransport {
	return &mockTransport{responses: make(map[string]any)}
}

func (m *mockTransport) setToolResponse(text string, isError bool) {
	result := map[string]any{
		"content": []any{map[string]any{"type": "text", "text": text}},
	}
	if isError {
		result["isError"] = true
	}
	m.responses["tools/call"] = result
}

func (m *mockTransport) setResourceResponse(text string) {
	m.responses["resources/read"] = map[string]any{
		"contents": []any{
			map[string]any{"uri": "teampulse://schema", "text": text},
		},
	}
}

func (m *mockTransport) Send(_ context.Context, req *protocol.Request) (*protocol.Response, error) {
	if req.Method == "tools/call" {
		m.toolCalls++
		var params struct {
			Arguments map[string]any `json:"arguments"`
		}
		if raw, err := json.Marshal(req.Params); err == nil {
			_ = json.Unmarshal(raw, &params)
		}
		m.lastArgs = params.Arguments
	}
	result, ok := m.responses[req.Method]
	if !ok {
		if req.Method == "initialize" {
			return protocol.NewResponse(req.ID, map[string]any{
				"serverInfo":      map[string]any{"name": "mock", "version": "1.0.0"},
				"protocolVersion": "2024-11-05",
				"capabilities":    map[string]any{"tools": map[string]any{}},
			}), nil
		}
		if req.IsNotification() {
			return nil, nil
		}
		return protocol.NewResponse(req.ID, map[string]any{
			"content": []any{map[string]any{"type": "text", "text": "ok"}},
		}), nil
	}
	return protocol.NewResponse(req.ID, result), nil
}

func (m *mockTransport) Close() error {
	m.closed = true
	return nil
}

func newTestClient(t *testing.T, mt *mockTransport) *Client {
	t.Helper()
	c := NewClient(mt, WithRetry(1, 0))
	if _, err := c.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	return c
}

func TestTextResult(t *testing.T) {
	got, err := textResult(&client.ToolResult{Content: []client.ContentItem{{Type: "text", Text: "hello"}}})
	if err != nil || got != "hello" {
		t.Fatalf("got %q, %v", got, err)
	}
	if _, err := textResult(&client.ToolResult{}); err != ErrNoContent {
		t.Fatalf("got %v, want ErrNoContent", err)
	}
}

func TestUnmarshalText_Invalid(t *testing.T) {
	r := &client.ToolResult{Content: []client.ContentItem{{Type: "text", Text: "not json"}}}
	if _, err := unmarshalText[SchemaInfo](r); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestMajorVersion(t *testing.T) {
	tests := []struct{ input, want string }{
		{"1.0.0", "1"},
		{"10.0.1", "10"},
		{"2", "2"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := majorVersion(tt.input); got != tt.want {
			t.Errorf("majorVersion(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestClient_TeamReport(t *testing.T) {
	mt := newMockTransport()
	mt.setToolResponse(`{"status":"ready","organization_id":"club","report":{"stats":{"total":18}}}`, false)
	c := newTestClient(t, mt)

	view, err := c.TeamReport(context.Background(), "club")
	if err != nil {
		t.Fatalf("TeamReport: %v", err)
	}
	if view.Status != dashboard.StatusReady || view.Report.Stats.Total != 18 {
		t.Errorf("unexpected view %+v", view)
	}
	if mt.lastArgs["organization_id"] != "club" {
		t.Errorf("organization not forwarded: %v", mt.lastArgs)
	}
}

func TestClient_FlowReport_DefaultOrganization(t *testing.T) {
	mt := newMockTransport()
	mt.setToolResponse(`{"status":"unavailable","message":"No organization"}`, false)
	c := newTestClient(t, mt)

	view, err := c.FlowReport(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if view.Status != dashboard.StatusUnavailable {
		t.Errorf("status = %s", view.Status)
	}
	if _, ok := mt.lastArgs["organization_id"]; ok {
		t.Error("empty organization should not be sent")
	}
}

func TestClient_Members(t *testing.T) {
	mt := newMockTransport()
	mt.setToolResponse(`[{"id":"u-ana","name":"Ana","role":"admin"},{"id":"u-tom","name":"Tom","role":"viewer"}]`, false)
	c := newTestClient(t, mt)

	members, err := c.Members(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if len(members) != 2 || members[1].Role.CanReceiveTasks() {
		t.Errorf("unexpected members %+v", members)
	}
}

func TestClient_Reassign(t *testing.T) {
	mt := newMockTransport()
	mt.setToolResponse(`{"operation_id":"op-1","success":true,"count":2,"message":"Reassigned 2 tasks to Vera"}`, false)
	c := newTestClient(t, mt)

	res, err := c.Reassign(context.Background(), ReassignRequest{From: "u-luis", To: "u-vera", TaskIDs: []string{"a", "b"}})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Success || res.Count != 2 || res.OperationID != "op-1" {
		t.Errorf("unexpected result %+v", res)
	}
	if mt.lastArgs["from"] != "u-luis" || mt.lastArgs["all"] != nil {
		t.Errorf("unexpected arguments %v", mt.lastArgs)
	}
}

func TestClient_ToolError(t *testing.T) {
	mt := newMockTransport()
	mt.setToolResponse("target member cannot receive tasks: u-tom", true)
	c := NewClient(mt, WithRetry(3, 0))
	if _, err := c.Initialize(context.Background()); err != nil {
		t.Fatal(err)
	}

	_, err := c.Reassign(context.Background(), ReassignRequest{From: "u-luis", To: "u-tom", All: true})
	var toolErr *ToolError
	if !errors.As(err, &toolErr) {
		t.Fatalf("expected ToolError, got %v", err)
	}
	if toolErr.Tool != "teampulse_reassign" || toolErr.Message != "target member cannot receive tasks: u-tom" {
		t.Errorf("unexpected tool error %+v", toolErr)
	}
	if mt.toolCalls != 1 {
		t.Errorf("tool errors must not be retried, got %d calls", mt.toolCalls)
	}
}

func TestClient_AuditTimeline(t *testing.T) {
	mt := newMockTransport()
	mt.setToolResponse(`[{"id":"e1","action":"tasks.reassigned","actor":"mcp"}]`, false)
	c := newTestClient(t, mt)

	events, err := c.AuditTimeline(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].Action != "tasks.reassigned" {
		t.Errorf("unexpected events %+v", events)
	}
	if mt.lastArgs["limit"] != float64(1) {
		t.Errorf("limit not forwarded: %v", mt.lastArgs)
	}
}

func TestClient_Compatible(t *testing.T) {
	mt := newMockTransport()
	mt.setResourceResponse(`{"schema_version":"1.2.0","server_version":"dev","tools":[{"name":"teampulse_reassign"}]}`)
	c := newTestClient(t, mt)
	if err := c.Compatible(context.Background()); err != nil {
		t.Fatalf("Compatible: %v", err)
	}

	mt.setResourceResponse(`{"schema_version":"2.0.0"}`)
	if err := c.Compatible(context.Background()); err == nil {
		t.Error("major version mismatch should be incompatible")
	}
}

func TestClient_Close(t *testing.T) {
	mt := newMockTransport()
	c := newTestClient(t, mt)
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	if !mt.closed {
		t.Error("transport not closed")
	}
}
