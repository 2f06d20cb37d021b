package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/couchcryptid/weathernow-service/internal/domain"
	"github.com/couchcryptid/weathernow-service/internal/search"
	"github.com/google/uuid"
)

const maxRequestBody = 64 << 10

type searchRequest struct {
	Query string `json:"query" validate:"max=200"`
}

type assignRequest struct {
	PhotoID string `json:"photo_id" validate:"required,uuid"`
}

type incompleteResponse struct {
	Error   string                   `json:"error"`
	Missing []domain.WeatherCategory `json:"missing"`
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Search.State())
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !s.requireComplete(w) {
		return
	}

	s.deps.Search.SetQuery(req.Query)
	// Searches run to completion even if the client disconnects.
	st := s.deps.Search.Submit(context.WithoutCancel(r.Context()))
	writeJSON(w, stateStatus(st), st)
}

func (s *Server) handleRetry(w http.ResponseWriter, r *http.Request) {
	if !s.requireComplete(w) {
		return
	}
	st := s.deps.Search.Retry(context.WithoutCancel(r.Context()))
	writeJSON(w, stateStatus(st), st)
}

func (s *Server) handleReset(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Search.Reset())
}

func (s *Server) handleDisplay(w http.ResponseWriter, r *http.Request) {
	st := s.deps.Search.State()
	if st.Phase != search.PhaseResult || st.Result == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no search result to display (phase %s)", st.Phase))
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Display.Compose(r.Context(), *st.Result))
}

func (s *Server) handleListAssignments(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Assignments.Summary())
}

func (s *Server) handleAssign(w http.ResponseWriter, r *http.Request) {
	category, err := domain.ParseCategory(r.PathValue("category"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req assignRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	photoID, err := uuid.Parse(req.PhotoID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "photo_id must be a UUID")
		return
	}

	summary, err := s.deps.Assignments.Assign(r.Context(), category, photoID)
	if err != nil {
		s.logger.Error("assign photo failed", "category", category, "error", err)
		writeError(w, http.StatusInternalServerError, "could not save assignment")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleResetAssignments(w http.ResponseWriter, r *http.Request) {
	summary, err := s.deps.Assignments.ResetAll(r.Context())
	if err != nil {
		s.logger.Error("reset assignments failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not reset assignments")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleListPhotos(w http.ResponseWriter, r *http.Request) {
	if s.deps.Photos == nil {
		writeError(w, http.StatusNotImplemented, "photo catalog is not configured")
		return
	}
	photos, err := s.deps.Photos.ListPhotos(r.Context())
	if err != nil {
		s.logger.Error("list photos failed", "error", err)
		writeError(w, http.StatusBadGateway, "photo catalog unavailable")
		return
	}
	if photos == nil {
		photos = []domain.Photo{}
	}
	writeJSON(w, http.StatusOK, photos)
}

// requireComplete rejects searches until every category has a photo.
func (s *Server) requireComplete(w http.ResponseWriter) bool {
	if s.deps.Assignments.IsComplete() {
		return true
	}
	writeJSON(w, http.StatusPreconditionFailed, incompleteResponse{
		Error:   "assign a photo to every weather category before searching",
		Missing: s.deps.Assignments.Missing(),
	})
	return false
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	if err := s.validate.Struct(dst); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}
	return nil
}

// stateStatus maps a search state to the response status code.
func stateStatus(st search.State) int {
	switch st.Phase {
	case search.PhaseLoading:
		return http.StatusAccepted
	case search.PhaseError:
		return errorStatus(st.Err)
	default:
		return http.StatusOK
	}
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrMalformedResponse):
		return http.StatusBadGateway
	default:
		return http.StatusServiceUnavailable
	}
}
