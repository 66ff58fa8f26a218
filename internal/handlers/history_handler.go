package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"speechcoach/internal/models"
)

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		respondWithError(w, s.logger, "Invalid session query", err)
		return
	}
	var profileID int64
	if raw := r.URL.Query().Get("profile_id"); raw != "" {
		profileID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil || profileID <= 0 {
			respondWithError(w, s.logger, "Invalid session query", fmt.Errorf("%w: invalid profile_id", models.ErrValidation))
			return
		}
	}

	sessions, err := s.deps.History.History(r.Context(), profileID, limit)
	if err != nil {
		respondWithError(w, s.logger, "Failed to list sessions", err)
		return
	}
	respondJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondWithError(w, s.logger, "Invalid session id", err)
		return
	}
	rec, err := s.deps.History.Get(r.Context(), id)
	if err != nil {
		respondWithError(w, s.logger, "Failed to get session", err)
		return
	}
	respondJSON(w, http.StatusOK, rec)
}
