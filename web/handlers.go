package web

import (
	"encoding/json"
	"net/http"
	"strconv"

	"f0oster/schemadesk/operation"
	"f0oster/schemadesk/plan"
)

// PlanRequest is the execute-plan request body. Operations use the flat wire
// shape with a kind discriminator.
type PlanRequest struct {
	Operations []json.RawMessage `json:"operations"`
	Apply      bool              `json:"apply,omitempty"`
}

// Helper functions

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// Handlers

func (s *Server) handleGetSchema(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Summary())
}

func (s *Server) handleGetDigest(w http.ResponseWriter, r *http.Request) {
	maxRows := 5
	if v := r.URL.Query().Get("rows"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			maxRows = parsed
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(s.engine.PromptDigest(maxRows)))
}

func (s *Server) handleExecutePlan(w http.ResponseWriter, r *http.Request) {
	var req PlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body: "+err.Error())
		return
	}
	if len(req.Operations) == 0 {
		writeError(w, http.StatusBadRequest, "plan carries no operations")
		return
	}

	ops := make([]operation.Operation, 0, len(req.Operations))
	for i, raw := range req.Operations {
		op, err := operation.Decode(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "operation "+strconv.Itoa(i)+": "+err.Error())
			return
		}
		ops = append(ops, op)
	}

	executor := plan.NewExecutor(s.engine, s.remote, s.logger)
	report, err := executor.Run(r.Context(), ops, req.Apply)
	if err != nil {
		s.logger.Error("plan execution failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusNotFound, "history store not configured")
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 && parsed <= 500 {
			limit = parsed
		}
	}
	entries, err := s.history.Recent(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries, "limit": limit})
}
