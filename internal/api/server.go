// Package api provides the planner's JSON HTTP API.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/agb-planner/planner/internal/config"
	"github.com/agb-planner/planner/internal/planner"
)

// Server is the planner API server.
type Server struct {
	addr    string
	mux     *http.ServeMux
	handler http.Handler
	logger  *slog.Logger
	svc     *planner.Service
	auth    *Authenticator
	now     func() time.Time
}

// Config holds server configuration.
type Config struct {
	Addr   string
	Auth   config.AuthConfig
	Logger *slog.Logger
}

// DefaultConfig returns the default server configuration.
func DefaultConfig() *Config {
	return &Config{
		Addr:   config.Default().Server.Addr,
		Logger: slog.Default(),
	}
}

// New creates a server over svc.
func New(svc *planner.Service, cfg *Config) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		addr:   cfg.Addr,
		mux:    http.NewServeMux(),
		logger: logger,
		svc:    svc,
		auth:   NewAuthenticator(cfg.Auth),
		now:    time.Now,
	}
	s.registerRoutes()
	s.handler = requestLogger(logger, s.auth.Middleware(s.mux))
	return s
}

// Handler returns the server's root handler with auth and request logging.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// registerRoutes sets up all API routes.
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /api/health", CORS(s.handleHealth))

	// Teams
	s.mux.HandleFunc("GET /api/teams", CORS(s.handleListTeams))
	s.mux.HandleFunc("POST /api/teams", CORS(s.handleCreateTeam))
	s.mux.HandleFunc("GET /api/teams/public", CORS(s.handlePublicTeams))
	s.mux.HandleFunc("GET /api/teams/mine", CORS(s.handleMyTeams))
	s.mux.HandleFunc("GET /api/teams/{id}", CORS(s.handleGetTeam))
	s.mux.HandleFunc("PUT /api/teams/{id}", CORS(s.handleUpdateTeam))
	s.mux.HandleFunc("DELETE /api/teams/{id}", CORS(s.handleDeleteTeam))
	s.mux.HandleFunc("POST /api/teams/{id}/members", CORS(s.handleAddTeamMember))
	s.mux.HandleFunc("DELETE /api/teams/{id}/members", CORS(s.handleRemoveTeamMember))

	// Projects
	s.mux.HandleFunc("GET /api/projects", CORS(s.handleListProjects))
	s.mux.HandleFunc("POST /api/projects", CORS(s.handleCreateProject))
	s.mux.HandleFunc("GET /api/projects/{id}", CORS(s.handleGetProject))
	s.mux.HandleFunc("PUT /api/projects/{id}", CORS(s.handleUpdateProject))
	s.mux.HandleFunc("DELETE /api/projects/{id}", CORS(s.handleDeleteProject))
	s.mux.HandleFunc("GET /api/projects/{id}/stats", CORS(s.handleProjectStats))
	s.mux.HandleFunc("GET /api/projects/{id}/tasks", CORS(s.handleProjectBoard))

	// Tasks
	s.mux.HandleFunc("GET /api/tasks", CORS(s.handleListTasks))
	s.mux.HandleFunc("POST /api/tasks", CORS(s.handleCreateTask))
	s.mux.HandleFunc("GET /api/tasks/{id}", CORS(s.handleGetTask))
	s.mux.HandleFunc("PUT /api/tasks/{id}", CORS(s.handleUpdateTask))
	s.mux.HandleFunc("DELETE /api/tasks/{id}", CORS(s.handleDeleteTask))
	s.mux.HandleFunc("PATCH /api/tasks/{id}/complete", CORS(s.handleCompleteTask))
	s.mux.HandleFunc("PATCH /api/tasks/{id}/status", CORS(s.handleUpdateTaskStatus))
	s.mux.HandleFunc("PATCH /api/tasks/{id}/assign", CORS(s.handleAssignTask))
	s.mux.HandleFunc("POST /api/tasks/{id}/comments", CORS(s.handleAddComment))
	s.mux.HandleFunc("POST /api/tasks/{id}/attachments", CORS(s.handleAddAttachment))
	s.mux.HandleFunc("GET /api/tasks/{id}/notifications", CORS(s.handleTaskNotifications))

	// Milestones
	s.mux.HandleFunc("GET /api/milestones", CORS(s.handleListMilestones))
	s.mux.HandleFunc("POST /api/milestones", CORS(s.handleCreateMilestone))
	s.mux.HandleFunc("GET /api/milestones/timeline", CORS(s.handleTimeline))
	s.mux.HandleFunc("GET /api/milestones/{id}", CORS(s.handleGetMilestone))
	s.mux.HandleFunc("PUT /api/milestones/{id}", CORS(s.handleUpdateMilestone))
	s.mux.HandleFunc("DELETE /api/milestones/{id}", CORS(s.handleDeleteMilestone))
	s.mux.HandleFunc("POST /api/milestones/{id}/progress", CORS(s.handleRecalculateProgress))

	// Notification log
	s.mux.HandleFunc("GET /api/notifications", CORS(s.handleListNotifications))
	s.mux.HandleFunc("GET /api/reminders", CORS(s.handleReminders))

	// Preflight for every API path, then the JSON 404 for anything else
	s.mux.HandleFunc("OPTIONS /api/", CORS(s.handleNotFound))
	s.mux.HandleFunc("/", CORS(s.handleNotFound))
}

// StartContext serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) StartContext(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("server shutdown", "error", err)
		}
	}()

	s.logger.Info("starting API server", "addr", s.addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type healthResponse struct {
	Status    string                `json:"status"`
	Storage   planner.StorageStatus `json:"storage"`
	Timestamp time.Time             `json:"timestamp"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	JSONResponse(w, healthResponse{
		Status:    "ok",
		Storage:   s.svc.StorageStatus(),
		Timestamp: s.now().UTC(),
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	JSONError(w, "API endpoint not found", http.StatusNotFound)
}

// fail writes err and logs it when it is not a caller mistake.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	HandleError(w, err)
	if status := statusOf(err); status >= http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
}
