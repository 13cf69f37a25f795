// Package dashboard serves the team and flow dashboards over HTTP, with
// live updates over websocket and Server-Sent Events.
package dashboard

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/felixgeelhaar/teampulse/pkg/application"
	"github.com/felixgeelhaar/teampulse/pkg/domain"
	"github.com/felixgeelhaar/teampulse/pkg/domain/dashboard"
	"github.com/felixgeelhaar/teampulse/pkg/domain/tasks"
)

//go:embed templates/*
var templatesFS embed.FS

// Analytics produces the dashboard views.
type Analytics interface {
	TeamDashboard(ctx context.Context, orgID string) *application.TeamView
	FlowDashboard(ctx context.Context, orgID string) *application.FlowView
}

// Reassigner performs bulk reassignment.
type Reassigner interface {
	Reassign(ctx context.Context, req application.ReassignRequest) tasks.ReassignResult
}

// OrgResolver returns the organization the server reports on.
type OrgResolver func(ctx context.Context) (string, error)

// Config holds the server dependencies. Metrics may be nil.
type Config struct {
	Addr      string
	Analytics Analytics
	Reassign  Reassigner
	Org       OrgResolver
	Metrics   http.Handler
	Logger    *slog.Logger
}

// Server is the dashboard HTTP server.
type Server struct {
	addr      string
	analytics Analytics
	reassign  Reassigner
	org       OrgResolver
	metrics   http.Handler
	logger    *slog.Logger
	tmpl      *template.Template
	hub       *Hub
	upgrader  websocket.Upgrader

	teamMu   sync.Mutex
	team     *dashboard.Lifecycle
	flowMu   sync.Mutex
	flow     *dashboard.Lifecycle
	server   *http.Server
	serverMu sync.Mutex
}

func NewServer(cfg Config) (*Server, error) {
	if cfg.Analytics == nil || cfg.Org == nil {
		return nil, fmt.Errorf("dashboard server needs analytics and an organization resolver")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	tmpl, err := template.New("").Funcs(template.FuncMap{
		"pct":        func(v float64) string { return fmt.Sprintf("%.0f%%", v) },
		"days":       func(v float64) string { return fmt.Sprintf("%.1fd", v) },
		"formatTime": formatTime,
	}).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	team, err := dashboard.NewLifecycle()
	if err != nil {
		return nil, err
	}
	flow, err := dashboard.NewLifecycle()
	if err != nil {
		return nil, err
	}

	return &Server{
		addr:      cfg.Addr,
		analytics: cfg.Analytics,
		reassign:  cfg.Reassign,
		org:       cfg.Org,
		metrics:   cfg.Metrics,
		logger:    logger,
		tmpl:      tmpl,
		hub:       NewHub(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		team: team,
		flow: flow,
	}, nil
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /api/team", s.handleTeam)
	mux.HandleFunc("GET /api/flow", s.handleFlow)
	mux.HandleFunc("POST /api/reassign", s.handleReassign)
	mux.HandleFunc("GET /api/events", s.handleEvents)
	mux.HandleFunc("GET /ws", s.handleWS)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}
	return mux
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.serverMu.Lock()
	s.server = srv
	s.serverMu.Unlock()

	s.logger.Info("dashboard server starting", "addr", s.addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.serverMu.Lock()
	srv := s.server
	s.serverMu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// Hub exposes the update fan-out.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Status returns the lifecycle state of both dashboards.
func (s *Server) Status() (team, flow dashboard.Status) {
	return s.team.Status(), s.flow.Status()
}

// Refresh reloads both dashboards and pushes them to live clients.
func (s *Server) Refresh(ctx context.Context) {
	if _, err := s.loadTeam(ctx); err != nil {
		s.logger.Warn("team refresh failed", "error", err)
	}
	if _, err := s.loadFlow(ctx); err != nil {
		s.logger.Warn("flow refresh failed", "error", err)
	}
}

// errOrgLookup marks a resolver failure other than a missing organization.
var errOrgLookup = errors.New("organization lookup failed")

func (s *Server) resolveOrg(ctx context.Context) (string, error) {
	org, err := s.org(ctx)
	if err == nil {
		return org, nil
	}
	if errors.Is(err, domain.ErrNoOrganization) {
		return "", nil
	}
	s.logger.Error("resolve organization", "error", err)
	return "", errOrgLookup
}

func (s *Server) loadTeam(ctx context.Context) (*application.TeamView, error) {
	s.teamMu.Lock()
	defer s.teamMu.Unlock()

	if err := s.team.Begin(); err != nil {
		return nil, err
	}
	org, err := s.resolveOrg(ctx)
	if err != nil {
		_ = s.team.Send(dashboard.EventFail)
		return nil, err
	}
	view := s.analytics.TeamDashboard(ctx, org)
	if err := s.team.Send(dashboard.OutcomeEvent(view.Status)); err != nil {
		return nil, err
	}
	s.publish(application.VariantTeam, view.Status, view.Report.GeneratedAt, view)
	return view, nil
}

func (s *Server) loadFlow(ctx context.Context) (*application.FlowView, error) {
	s.flowMu.Lock()
	defer s.flowMu.Unlock()

	if err := s.flow.Begin(); err != nil {
		return nil, err
	}
	org, err := s.resolveOrg(ctx)
	if err != nil {
		_ = s.flow.Send(dashboard.EventFail)
		return nil, err
	}
	view := s.analytics.FlowDashboard(ctx, org)
	if err := s.flow.Send(dashboard.OutcomeEvent(view.Status)); err != nil {
		return nil, err
	}
	s.publish(application.VariantFlow, view.Status, view.Report.GeneratedAt, view)
	return view, nil
}

type wsMessage struct {
	Type string `json:"type"`
	View any    `json:"view"`
}

func (s *Server) publish(variant string, status dashboard.Status, generated time.Time, view any) {
	payload, err := json.Marshal(wsMessage{Type: variant, View: view})
	if err != nil {
		s.logger.Error("encode dashboard update", "variant", variant, "error", err)
		return
	}
	s.hub.Publish(Update{Variant: variant, Status: status, GeneratedAt: generated, Payload: payload})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	view, err := s.loadTeam(r.Context())
	if err != nil {
		s.render(w, http.StatusServiceUnavailable, "index.html", pageData{Message: dashboard.FailureMessage})
		return
	}
	s.render(w, http.StatusOK, "index.html", pageData{View: view, Message: view.Message})
}

func (s *Server) handleTeam(w http.ResponseWriter, r *http.Request) {
	view, err := s.loadTeam(r.Context())
	if err != nil {
		writeFailure(w)
		return
	}
	writeJSON(w, viewCode(view.Status), view)
}

func (s *Server) handleFlow(w http.ResponseWriter, r *http.Request) {
	view, err := s.loadFlow(r.Context())
	if err != nil {
		writeFailure(w)
		return
	}
	writeJSON(w, viewCode(view.Status), view)
}

// ReassignBody is the JSON body of POST /api/reassign.
type ReassignBody struct {
	From    string   `json:"from"`
	To      string   `json:"to"`
	TaskIDs []string `json:"task_ids"`
	All     bool     `json:"all"`
	Actor   string   `json:"actor"`
}

func (s *Server) handleReassign(w http.ResponseWriter, r *http.Request) {
	if s.reassign == nil {
		http.Error(w, "reassignment is disabled", http.StatusNotImplemented)
		return
	}

	var body ReassignBody
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, tasks.ReassignResult{Message: "invalid request body"})
		return
	}

	view, err := s.loadTeam(r.Context())
	if err != nil || view.Status != dashboard.StatusReady {
		writeFailure(w)
		return
	}

	result := s.reassign.Reassign(r.Context(), application.ReassignRequest{
		OrganizationID: view.OrganizationID,
		ActorID:        body.Actor,
		Selection:      application.SelectPending(view.Report, body.From, body.TaskIDs, body.All),
		TargetID:       body.To,
	})
	if !result.Success {
		writeJSON(w, http.StatusUnprocessableEntity, result)
		return
	}

	s.Refresh(r.Context())
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	team, flow := s.Status()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"team":    team,
		"flow":    flow,
		"clients": s.hub.Subscribers(),
	})
}

type pageData struct {
	View    *application.TeamView
	Message string
}

func (s *Server) render(w http.ResponseWriter, code int, name string, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	if err := s.tmpl.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error("template error", "template", name, "error", err)
	}
}

// viewCode maps a finished view to its HTTP status. Unavailable is a valid
// answer for the caller, a failed fetch is not.
func viewCode(status dashboard.Status) int {
	if status == dashboard.StatusFailed {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}

func writeFailure(w http.ResponseWriter) {
	writeJSON(w, http.StatusServiceUnavailable, map[string]string{
		"status":  string(dashboard.StatusFailed),
		"message": dashboard.FailureMessage,
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04")
}
