package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"speechcoach/internal/models"
	"speechcoach/internal/session"
)

// devicesRequest toggles the availability of a draft's capture devices
type devicesRequest struct {
	Microphone *bool `json:"microphone"`
	Camera     *bool `json:"camera"`
}

// recordingResponse describes a finished word capture
type recordingResponse struct {
	Index      int       `json:"index"`
	Word       string    `json:"word"`
	Bytes      int       `json:"bytes"`
	CapturedAt time.Time `json:"captured_at"`
}

// draftEntry resolves the {id} URL parameter to a registered draft
func (s *Server) draftEntry(w http.ResponseWriter, r *http.Request) (*session.Entry, logrus.FieldLogger, bool) {
	id := chi.URLParam(r, "id")
	entry, err := s.deps.Drafts.Get(id)
	if err != nil {
		respondWithError(w, s.logger, "Unknown draft", err)
		return nil, nil, false
	}
	return entry, s.logger.WithField("draft_id", id), true
}

func (s *Server) handleCreateDraft(w http.ResponseWriter, r *http.Request) {
	entry := s.deps.Drafts.Create()
	respondJSON(w, http.StatusCreated, entry.Controller.Snapshot())
}

func (s *Server) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	entry, _, ok := s.draftEntry(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, entry.Controller.Snapshot())
}

func (s *Server) handleDeleteDraft(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Drafts.Delete(chi.URLParam(r, "id")); err != nil {
		respondWithError(w, s.logger, "Failed to delete draft", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetDevices(w http.ResponseWriter, r *http.Request) {
	entry, _, ok := s.draftEntry(w, r)
	if !ok {
		return
	}
	var req devicesRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		respondWithError(w, s.logger, "Invalid device request", err)
		return
	}
	if req.Microphone != nil {
		entry.Microphone.SetAvailable(*req.Microphone)
	}
	if req.Camera != nil {
		entry.Camera.SetAvailable(*req.Camera)
	}
	respondJSON(w, http.StatusOK, entry.Controller.Snapshot())
}

func (s *Server) handleStartDraft(w http.ResponseWriter, r *http.Request) {
	entry, logger, ok := s.draftEntry(w, r)
	if !ok {
		return
	}
	var req session.StartRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		respondWithError(w, logger, "Invalid start request", err)
		return
	}
	if err := entry.Controller.Start(r.Context(), req); err != nil {
		respondWithError(w, logger, "Failed to start session", err)
		return
	}
	respondJSON(w, http.StatusOK, entry.Controller.Snapshot())
}

func (s *Server) handleBeginRecording(w http.ResponseWriter, r *http.Request) {
	entry, logger, ok := s.draftEntry(w, r)
	if !ok {
		return
	}
	if err := entry.Controller.BeginRecording(r.Context()); err != nil {
		respondWithError(w, logger, "Failed to begin recording", err)
		return
	}
	respondJSON(w, http.StatusOK, entry.Controller.Snapshot())
}

func (s *Server) handleRecordingChunk(w http.ResponseWriter, r *http.Request) {
	entry, logger, ok := s.draftEntry(w, r)
	if !ok {
		return
	}
	chunk, err := s.readBody(w, r)
	if err != nil {
		respondWithError(w, logger, "Invalid audio chunk", err)
		return
	}
	accepted, err := entry.Microphone.Write(chunk)
	if err != nil {
		respondWithError(w, logger, "Failed to buffer audio", err)
		return
	}
	entry.Controller.Touch()
	respondJSON(w, http.StatusAccepted, map[string]int{"accepted": accepted})
}

func (s *Server) handleEndRecording(w http.ResponseWriter, r *http.Request) {
	entry, logger, ok := s.draftEntry(w, r)
	if !ok {
		return
	}
	rec, err := entry.Controller.EndRecording()
	if err != nil {
		respondWithError(w, logger, "Failed to end recording", err)
		return
	}
	respondJSON(w, http.StatusOK, recordingResponse{
		Index:      rec.Index,
		Word:       rec.Word,
		Bytes:      len(rec.Audio),
		CapturedAt: rec.CapturedAt,
	})
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	entry, logger, ok := s.draftEntry(w, r)
	if !ok {
		return
	}
	frame, err := s.readBody(w, r)
	if err != nil {
		respondWithError(w, logger, "Invalid frame", err)
		return
	}
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(frame)
	}
	entry.Camera.Push(frame, contentType)
	entry.Controller.Touch()
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleObserveEmotion(w http.ResponseWriter, r *http.Request) {
	entry, logger, ok := s.draftEntry(w, r)
	if !ok {
		return
	}
	var sample models.EmotionSample
	if err := s.decodeJSON(w, r, &sample); err != nil {
		respondWithError(w, logger, "Invalid emotion sample", err)
		return
	}
	if err := entry.Controller.ObserveEmotion(sample); err != nil {
		respondWithError(w, logger, "Failed to record emotion", err)
		return
	}
	respondJSON(w, http.StatusOK, entry.Controller.Snapshot())
}

// handleAdvance blocks while the last word's advance synthesizes the result
func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	entry, logger, ok := s.draftEntry(w, r)
	if !ok {
		return
	}
	if err := entry.Controller.Advance(r.Context()); err != nil {
		respondWithError(w, logger, "Failed to advance", err)
		return
	}
	respondJSON(w, http.StatusOK, entry.Controller.Snapshot())
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	entry, _, ok := s.draftEntry(w, r)
	if !ok {
		return
	}
	entry.Controller.Reset()
	respondJSON(w, http.StatusOK, entry.Controller.Snapshot())
}

func (s *Server) handleRetrySave(w http.ResponseWriter, r *http.Request) {
	entry, logger, ok := s.draftEntry(w, r)
	if !ok {
		return
	}
	rec, err := entry.Controller.RetrySave(r.Context())
	if err != nil {
		respondWithError(w, logger, "Retrying save failed", err)
		return
	}
	respondJSON(w, http.StatusOK, rec)
}
