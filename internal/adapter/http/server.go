package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/couchcryptid/weathernow-service/internal/assignment"
	"github.com/couchcryptid/weathernow-service/internal/display"
	"github.com/couchcryptid/weathernow-service/internal/domain"
	"github.com/couchcryptid/weathernow-service/internal/search"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SearchController is the search state machine the API drives.
type SearchController interface {
	State() search.State
	SetQuery(q string)
	Submit(ctx context.Context) search.State
	Retry(ctx context.Context) search.State
	Reset() search.State
}

// AssignmentStore is the category to photo mapping the API reads and edits.
type AssignmentStore interface {
	Summary() assignment.Summary
	IsComplete() bool
	Missing() []domain.WeatherCategory
	Assign(ctx context.Context, c domain.WeatherCategory, photoID uuid.UUID) (assignment.Summary, error)
	ResetAll(ctx context.Context) (assignment.Summary, error)
}

// Composer joins a search result with its category photo.
type Composer interface {
	Compose(ctx context.Context, result domain.WeatherQueryResult) display.View
}

// Deps are the collaborators behind the API routes. Photos may be nil when no
// photo catalog is configured.
type Deps struct {
	Search      SearchController
	Assignments AssignmentStore
	Display     Composer
	Photos      domain.PhotoCatalog
	Ready       sharedobs.ReadinessChecker
}

// Server exposes health, readiness, metrics and the weather search API.
type Server struct {
	httpServer *http.Server
	deps       Deps
	validate   *validator.Validate
	logger     *slog.Logger
}

// NewServer creates an HTTP server with the operational routes and the /api routes.
func NewServer(addr string, deps Deps, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:    addr,
			Handler: mux,
			// Searches wait on two sequential provider calls.
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		deps:     deps,
		validate: validator.New(),
		logger:   logger.With("component", "http"),
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(deps.Ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("POST /api/search", s.handleSearch)
	mux.HandleFunc("POST /api/retry", s.handleRetry)
	mux.HandleFunc("POST /api/reset", s.handleReset)
	mux.HandleFunc("GET /api/display", s.handleDisplay)
	mux.HandleFunc("GET /api/assignments", s.handleListAssignments)
	mux.HandleFunc("PUT /api/assignments/{category}", s.handleAssign)
	mux.HandleFunc("DELETE /api/assignments", s.handleResetAssignments)
	mux.HandleFunc("GET /api/photos", s.handleListPhotos)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client may have gone away
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
