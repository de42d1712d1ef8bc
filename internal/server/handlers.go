package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Malikxolo/Customer-Support-agent/internal/agent"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"error": code, "message": message})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.startTime).String(),
	}
	if r.URL.Query().Get("detail") == "true" {
		components := map[string]string{"cache": "ok"}
		if s.historyStore == nil {
			components["history"] = "disabled"
		} else {
			components["history"] = "ok"
		}
		resp["components"] = components
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleTurn runs one conversation turn.
func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	var req agent.TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid JSON body")
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Owner == "" || req.Message == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "conversation_id and message are required")
		return
	}

	resp := s.orchestrator.ProcessTurn(r.Context(), req)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCacheStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Stats())
}

func (s *Server) handleCacheClear(w http.ResponseWriter, _ *http.Request) {
	cleared := s.store.Clear()
	s.logger.Info().Str("event", "cache_cleared").Int("entries", cleared).Msg("cache cleared via api")
	writeJSON(w, http.StatusOK, map[string]int{"cleared": cleared})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	turns, err := s.historyStore.Recent(r.Context(), owner, limit)
	if err != nil {
		s.logger.Error().Str("event", "history_read_failed").Err(err).Msg("history query failed")
		writeError(w, http.StatusInternalServerError, "internal", "Could not read history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"owner": owner, "turns": turns})
}
