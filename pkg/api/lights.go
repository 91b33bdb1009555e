package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/greenwave-dev/greenwave/pkg/store"
)

func (s *Server) handleListLights(w http.ResponseWriter, r *http.Request) {
	lights, err := s.store.Lights(r.Context())
	if err != nil {
		s.logger.Error("Failed to list traffic lights", "error", err)
		s.writeError(w, http.StatusInternalServerError, "Failed to list traffic lights")
		return
	}
	s.writeJSON(w, http.StatusOK, lights)
}

func (s *Server) handleCreateLight(w http.ResponseWriter, r *http.Request) {
	var params store.LightParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(params.Location) == "" {
		s.writeError(w, http.StatusBadRequest, "location is required")
		return
	}

	light, err := s.store.CreateLight(r.Context(), params)
	if err != nil {
		s.logger.Error("Failed to create traffic light", "error", err)
		s.writeError(w, http.StatusInternalServerError, "Failed to create traffic light")
		return
	}

	s.logger.Info("Created traffic light", "id", light.ID, "location", light.Location)
	s.writeJSON(w, http.StatusCreated, light)
}

func (s *Server) handleGetLight(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	light, err := s.store.Light(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "Traffic light not found")
		return
	}
	if err != nil {
		s.logger.Error("Failed to fetch traffic light", "id", id, "error", err)
		s.writeError(w, http.StatusInternalServerError, "Failed to fetch traffic light")
		return
	}
	s.writeJSON(w, http.StatusOK, light)
}

func (s *Server) handleUpdateLight(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var patch store.LightPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	light, err := s.store.UpdateLight(r.Context(), id, patch)
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "Traffic light not found")
		return
	}
	if err != nil {
		s.logger.Error("Failed to update traffic light", "id", id, "error", err)
		s.writeError(w, http.StatusInternalServerError, "Failed to update traffic light")
		return
	}

	s.logger.Info("Updated traffic light", "id", id)
	s.writeJSON(w, http.StatusOK, light)
}

func (s *Server) handleDeleteLight(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	err := s.store.DeleteLight(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "Traffic light not found")
		return
	}
	if err != nil {
		s.logger.Error("Failed to delete traffic light", "id", id, "error", err)
		s.writeError(w, http.StatusInternalServerError, "Failed to delete traffic light")
		return
	}

	if s.cache != nil {
		s.cache.Invalidate(r.Context(), id)
	}
	s.logger.Info("Deleted traffic light", "id", id)
	s.writeJSON(w, http.StatusOK, map[string]string{
		"message": "Traffic light " + id + " deleted successfully",
	})
}

func (s *Server) handleDeleteAllLights(w http.ResponseWriter, r *http.Request) {
	// Snapshot IDs first so cached analyses can be dropped after the wipe.
	var ids []string
	if s.cache != nil {
		if lights, err := s.store.Lights(r.Context()); err == nil {
			for _, l := range lights {
				ids = append(ids, l.ID)
			}
		}
	}

	deleted, err := s.store.DeleteAllLights(r.Context())
	if err != nil {
		s.logger.Error("Failed to delete traffic lights", "error", err)
		s.writeError(w, http.StatusInternalServerError, "Failed to delete traffic lights")
		return
	}

	for _, id := range ids {
		s.cache.Invalidate(r.Context(), id)
	}

	s.logger.Info("Deleted all traffic lights", "count", deleted)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"message": "All traffic lights deleted successfully",
		"deleted": deleted,
	})
}
