package handlers

import (
	"net/http"

	"speechcoach/internal/models"
	"speechcoach/internal/repository"
)

func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptions(r)
	if err != nil {
		respondWithError(w, s.logger, "Invalid profile query", err)
		return
	}
	profiles, err := s.deps.Profiles.List(r.Context(), opts)
	if err != nil {
		respondWithError(w, s.logger, "Failed to list profiles", err)
		return
	}
	respondJSON(w, http.StatusOK, profiles)
}

func (s *Server) handleCreateProfile(w http.ResponseWriter, r *http.Request) {
	var req models.ChildProfile
	if err := s.decodeJSON(w, r, &req); err != nil {
		respondWithError(w, s.logger, "Invalid profile", err)
		return
	}
	profile, err := s.deps.Profiles.Create(r.Context(), &req)
	if err != nil {
		respondWithError(w, s.logger, "Failed to create profile", err)
		return
	}
	respondJSON(w, http.StatusCreated, profile)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondWithError(w, s.logger, "Invalid profile id", err)
		return
	}
	profile, err := s.deps.Profiles.Get(r.Context(), id)
	if err != nil {
		respondWithError(w, s.logger, "Failed to get profile", err)
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondWithError(w, s.logger, "Invalid profile id", err)
		return
	}
	var patch repository.ProfilePatch
	if err := s.decodeJSON(w, r, &patch); err != nil {
		respondWithError(w, s.logger, "Invalid profile update", err)
		return
	}
	profile, err := s.deps.Profiles.Update(r.Context(), id, patch)
	if err != nil {
		respondWithError(w, s.logger, "Failed to update profile", err)
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

func (s *Server) handleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondWithError(w, s.logger, "Invalid profile id", err)
		return
	}
	if err := s.deps.Profiles.Delete(r.Context(), id); err != nil {
		respondWithError(w, s.logger, "Failed to delete profile", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondWithError(w, s.logger, "Invalid profile id", err)
		return
	}
	stats, err := s.deps.History.Progress(r.Context(), id)
	if err != nil {
		respondWithError(w, s.logger, "Failed to compute progress", err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}
