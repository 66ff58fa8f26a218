package handlers

import (
	"net/http"

	"speechcoach/internal/models"
	"speechcoach/internal/repository"
)

func (s *Server) handleListExercises(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptions(r)
	if err != nil {
		respondWithError(w, s.logger, "Invalid exercise query", err)
		return
	}
	exercises, err := s.deps.Exercises.List(r.Context(), r.URL.Query().Get("language"), opts)
	if err != nil {
		respondWithError(w, s.logger, "Failed to list exercises", err)
		return
	}
	respondJSON(w, http.StatusOK, exercises)
}

func (s *Server) handleCreateExercise(w http.ResponseWriter, r *http.Request) {
	var req models.Exercise
	if err := s.decodeJSON(w, r, &req); err != nil {
		respondWithError(w, s.logger, "Invalid exercise", err)
		return
	}
	exercise, err := s.deps.Exercises.Create(r.Context(), &req)
	if err != nil {
		respondWithError(w, s.logger, "Failed to create exercise", err)
		return
	}
	respondJSON(w, http.StatusCreated, exercise)
}

func (s *Server) handleGetExercise(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondWithError(w, s.logger, "Invalid exercise id", err)
		return
	}
	exercise, err := s.deps.Exercises.Get(r.Context(), id)
	if err != nil {
		respondWithError(w, s.logger, "Failed to get exercise", err)
		return
	}
	respondJSON(w, http.StatusOK, exercise)
}

func (s *Server) handleUpdateExercise(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondWithError(w, s.logger, "Invalid exercise id", err)
		return
	}
	var patch repository.ExercisePatch
	if err := s.decodeJSON(w, r, &patch); err != nil {
		respondWithError(w, s.logger, "Invalid exercise update", err)
		return
	}
	exercise, err := s.deps.Exercises.Update(r.Context(), id, patch)
	if err != nil {
		respondWithError(w, s.logger, "Failed to update exercise", err)
		return
	}
	respondJSON(w, http.StatusOK, exercise)
}

func (s *Server) handleDeleteExercise(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondWithError(w, s.logger, "Invalid exercise id", err)
		return
	}
	if err := s.deps.Exercises.Delete(r.Context(), id); err != nil {
		respondWithError(w, s.logger, "Failed to delete exercise", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
