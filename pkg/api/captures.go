package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/greenwave-dev/greenwave/pkg/isotime"
	"github.com/greenwave-dev/greenwave/pkg/store"
)

// captureRequest is the POST body for recording one observed green phase.
type captureRequest struct {
	GreenStart string `json:"green_start"`
	GreenEnd   string `json:"green_end"`
}

func (s *Server) handleListCaptures(w http.ResponseWriter, r *http.Request) {
	lightID := mux.Vars(r)["id"]

	captures, err := s.store.Captures(r.Context(), lightID)
	if err != nil {
		s.logger.Error("Failed to list captures", "light_id", lightID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "Failed to list captures")
		return
	}
	s.writeJSON(w, http.StatusOK, captures)
}

func (s *Server) handleCreateCapture(w http.ResponseWriter, r *http.Request) {
	lightID := mux.Vars(r)["id"]

	var req captureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	greenStart, err := isotime.Parse(req.GreenStart)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid green_start timestamp")
		return
	}
	greenEnd, err := isotime.Parse(req.GreenEnd)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid green_end timestamp")
		return
	}

	capture, err := s.store.CreateCapture(r.Context(), lightID, greenStart, greenEnd)
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.writeError(w, http.StatusNotFound, "Traffic light not found")
		return
	case errors.Is(err, store.ErrInvalidInterval):
		s.writeError(w, http.StatusBadRequest, "green_end must be after green_start")
		return
	case err != nil:
		s.logger.Error("Failed to record capture", "light_id", lightID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "Failed to record capture")
		return
	}

	if s.cache != nil {
		s.cache.Invalidate(r.Context(), lightID)
	}
	capturesRecordedTotal.WithLabelValues(lightID).Inc()

	s.logger.Info("Recorded capture",
		"light_id", lightID,
		"capture_id", capture.ID,
		"duration_ms", capture.DurationMS)
	s.writeJSON(w, http.StatusCreated, capture)
}

func (s *Server) handleDeleteCapture(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	lightID, err := s.store.DeleteCapture(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "Capture not found")
		return
	}
	if err != nil {
		s.logger.Error("Failed to delete capture", "id", id, "error", err)
		s.writeError(w, http.StatusInternalServerError, "Failed to delete capture")
		return
	}

	if s.cache != nil {
		s.cache.Invalidate(r.Context(), lightID)
	}
	s.logger.Info("Deleted capture", "id", id, "light_id", lightID)
	s.writeJSON(w, http.StatusOK, map[string]string{
		"message": "Capture " + id + " deleted successfully",
	})
}
