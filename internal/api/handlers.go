package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mattjoyce/crewtool/internal/crew"
	"github.com/mattjoyce/crewtool/internal/history"
)

const (
	invocationHeader = "X-Invocation-ID"
	maxBodyBytes     = 1 << 20
	maxHistoryLimit  = 500
)

// handleHealthz handles GET /healthz (no auth).
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, HealthzResponse{
		Status:         "ok",
		UptimeSeconds:  int64(time.Since(s.startedAt).Seconds()),
		MaxConcurrent:  s.config.MaxConcurrent,
		HistoryEnabled: s.journal != nil,
	})
}

// handleListCrews handles GET /crews.
func (s *Server) handleListCrews(w http.ResponseWriter, r *http.Request) {
	crews, err := s.invoker.ListCrews(r.Context())
	if err != nil {
		s.writeCrewError(w, err)
		return
	}
	if crews == nil {
		crews = []crew.Info{}
	}
	respondJSON(w, http.StatusOK, CrewListResponse{Crews: crews})
}

// handleCrewInfo handles GET /crews/{package}/{crew}.
func (s *Server) handleCrewInfo(w http.ResponseWriter, r *http.Request) {
	info, err := s.invoker.CrewInfo(r.Context(), chi.URLParam(r, "package"), chi.URLParam(r, "crew"))
	if err != nil {
		s.writeCrewError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, info)
}

// handleInvoke handles POST /crews/{package}/{crew}/invoke.
// A crew that ran and failed is still a 200: failure is part of the result.
func (s *Server) handleInvoke(w http.ResponseWriter, r *http.Request) {
	packageName := chi.URLParam(r, "package")
	crewName := chi.URLParam(r, "crew")

	if err := crew.Validate(packageName, crewName); err != nil {
		respondJSON(w, http.StatusBadRequest, InvokeResponse{Result: crew.Result{
			Error:    err.Error(),
			Category: crew.CategoryValidation,
		}})
		return
	}

	var body InvokeRequest
	if err := decodeOptionalJSON(w, r, &body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.TimeoutMs < 0 {
		s.writeError(w, http.StatusBadRequest, "timeout_ms must not be negative")
		return
	}
	if body.TimeoutMs > s.config.MaxTimeout.Milliseconds() {
		s.writeError(w, http.StatusBadRequest,
			fmt.Sprintf("timeout_ms must not exceed %d", s.config.MaxTimeout.Milliseconds()))
		return
	}

	if !s.slots.TryAcquire(1) {
		s.logger.Warn("too many concurrent invocations", "package", packageName, "crew", crewName)
		s.writeError(w, http.StatusServiceUnavailable, "too many concurrent invocations, please try again later")
		return
	}
	defer s.slots.Release(1)
	s.clearWriteDeadline(w)

	req := crew.Request{
		ID:      uuid.NewString(),
		Package: packageName,
		Crew:    crewName,
		Input:   body.Input,
		Timeout: time.Duration(body.TimeoutMs) * time.Millisecond,
		Env:     body.Env,
	}
	s.events.publish("invocation.started", invocationEvent{ID: req.ID, Package: req.Package, Crew: req.Crew, At: time.Now().UTC()})

	res := s.invoker.Invoke(r.Context(), req)

	if s.journal != nil {
		// Record even if the client went away mid-run.
		if _, err := s.journal.Record(context.WithoutCancel(r.Context()), req, res); err != nil {
			s.logger.Error("failed to record invocation", "invocation_id", req.ID, "error", err)
		}
	}
	success := res.Success
	s.events.publish("invocation.finished", invocationEvent{
		ID:         req.ID,
		Package:    req.Package,
		Crew:       req.Crew,
		Success:    &success,
		Category:   res.Category,
		DurationMs: res.DurationMs,
		At:         time.Now().UTC(),
	})

	status := http.StatusOK
	if res.Category == crew.CategoryValidation {
		status = http.StatusBadRequest
	}
	w.Header().Set(invocationHeader, req.ID)
	respondJSON(w, status, InvokeResponse{ID: req.ID, Result: res})
}

// handleListHistory handles GET /history?limit=N.
func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		s.writeError(w, http.StatusNotFound, "history is disabled")
		return
	}

	limit := history.DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	entries, err := s.journal.Recent(r.Context(), limit)
	if err != nil {
		s.logger.Error("failed to read history", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to read history")
		return
	}
	respondJSON(w, http.StatusOK, HistoryResponse{Entries: entries})
}

// handleGetHistory handles GET /history/{id}.
func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		s.writeError(w, http.StatusNotFound, "history is disabled")
		return
	}

	entry, err := s.journal.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, history.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "invocation not found")
		return
	}
	if err != nil {
		s.logger.Error("failed to read history entry", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to read history")
		return
	}
	respondJSON(w, http.StatusOK, entry)
}

// handleOpenAPI handles GET /openapi.json, describing one invoke path per crew.
func (s *Server) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	crews, err := s.invoker.ListCrews(r.Context())
	if err != nil {
		s.writeCrewError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, buildOpenAPIDoc(crews))
}

// decodeOptionalJSON decodes the body into v; an empty body leaves v untouched.
func decodeOptionalJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// statusForCategory maps a failure category onto an HTTP status for routes
// whose failure is not a crew result.
func statusForCategory(cat crew.Category) int {
	switch cat {
	case crew.CategoryValidation:
		return http.StatusBadRequest
	case crew.CategoryNotInstalled:
		return http.StatusServiceUnavailable
	case crew.CategoryCrew, crew.CategorySubprocess:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeCrewError(w http.ResponseWriter, err error) {
	cat, ok := crew.CategoryOf(err)
	if !ok {
		s.logger.Error("unclassified crew error", "error", err)
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, statusForCategory(cat), ErrorResponse{Error: err.Error(), Category: cat})
}

// clearWriteDeadline lifts the server's WriteTimeout for a response whose
// length is bounded by the crew deadline or the client, not the server.
func (s *Server) clearWriteDeadline(w http.ResponseWriter) {
	err := http.NewResponseController(w).SetWriteDeadline(time.Time{})
	if err != nil && !errors.Is(err, http.ErrNotSupported) {
		s.logger.Warn("failed to clear write deadline", "error", err)
	}
}

// respondJSON is a helper to write JSON responses
func respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response
func (s *Server) writeError(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, ErrorResponse{Error: message})
}
