package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/greenwave-dev/greenwave/pkg/isotime"
	"github.com/greenwave-dev/greenwave/pkg/pattern"
	"github.com/greenwave-dev/greenwave/pkg/store"
)

// maxAnalysisCaptures bounds how many rows one analysis will read. A light
// captured every two minutes for two weeks stays well under this.
const maxAnalysisCaptures = 10000

// timelineResponse frames a generated day of phase intervals.
type timelineResponse struct {
	Date      string                  `json:"date"`
	Hours     int                     `json:"hours"`
	Intervals []pattern.PhaseInterval `json:"intervals"`
}

// analyzerForLight loads a light's captures oldest first and builds the
// pattern engine over them.
func (s *Server) analyzerForLight(ctx context.Context, lightID string) (*pattern.Analyzer, error) {
	captures, err := s.store.CapturesChrono(ctx, lightID, maxAnalysisCaptures)
	if err != nil {
		return nil, fmt.Errorf("loading captures: %w", err)
	}

	starts := make([]time.Time, len(captures))
	durations := make([]int64, len(captures))
	for i, c := range captures {
		start, err := isotime.Parse(c.GreenStart)
		if err != nil {
			return nil, fmt.Errorf("capture %s: %w", c.ID, err)
		}
		starts[i] = start
		durations[i] = c.DurationMS
	}
	return pattern.New(starts, durations)
}

// requireLight resolves the route's light ID and writes the error response
// itself when the light is unknown or the lookup fails.
func (s *Server) requireLight(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := mux.Vars(r)["id"]

	_, err := s.store.Light(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "Traffic light not found")
		return "", false
	}
	if err != nil {
		s.logger.Error("Failed to fetch traffic light", "id", id, "error", err)
		s.writeError(w, http.StatusInternalServerError, "Failed to fetch traffic light")
		return "", false
	}
	return id, true
}

func (s *Server) handlePattern(w http.ResponseWriter, r *http.Request) {
	lightID, ok := s.requireLight(w, r)
	if !ok {
		return
	}

	if s.cache != nil {
		if cached := s.cache.Analysis(r.Context(), lightID); cached != nil {
			patternCacheHitsTotal.Inc()
			w.Header().Set("X-Cache", "redis-hit")
			s.writeJSON(w, http.StatusOK, cached)
			return
		}
		patternCacheMissesTotal.Inc()
	}

	analyzer, err := s.analyzerForLight(r.Context(), lightID)
	if err != nil {
		s.logger.Error("Failed to analyze captures", "light_id", lightID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "Failed to analyze captures")
		return
	}

	analysis := analyzer.Analyze(time.Now())
	if s.cache != nil {
		if err := s.cache.SaveAnalysis(r.Context(), lightID, analysis); err != nil {
			s.logger.Warn("Failed to cache analysis", "light_id", lightID, "error", err)
		}
	}
	s.writeJSON(w, http.StatusOK, analysis)
}

func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	lightID, ok := s.requireLight(w, r)
	if !ok {
		return
	}

	hours := 24
	if raw := r.URL.Query().Get("hours"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "Invalid hours parameter")
			return
		}
		hours = parsed
	}
	if hours < 1 {
		hours = 1
	}
	if hours > 24 {
		hours = 24
	}

	analyzer, err := s.analyzerForLight(r.Context(), lightID)
	if err != nil {
		s.logger.Error("Failed to analyze captures", "light_id", lightID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "Failed to analyze captures")
		return
	}

	// Default to today as seen in the zone the captures were recorded in.
	refDate := time.Now().In(analyzer.Location())
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := isotime.ParseDate(raw)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "Invalid date parameter, expected YYYY-MM-DD")
			return
		}
		refDate = parsed
	}

	intervals := analyzer.DailyTimeline(refDate, hours)
	if intervals == nil {
		intervals = []pattern.PhaseInterval{}
	}
	s.writeJSON(w, http.StatusOK, timelineResponse{
		Date:      refDate.Format("2006-01-02"),
		Hours:     hours,
		Intervals: intervals,
	})
}

func (s *Server) handleValidation(w http.ResponseWriter, r *http.Request) {
	lightID, ok := s.requireLight(w, r)
	if !ok {
		return
	}

	tolerance := int64(pattern.DefaultToleranceMS)
	if raw := r.URL.Query().Get("tolerance_ms"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 0 {
			s.writeError(w, http.StatusBadRequest, "Invalid tolerance_ms parameter")
			return
		}
		tolerance = parsed
	}

	analyzer, err := s.analyzerForLight(r.Context(), lightID)
	if err != nil {
		s.logger.Error("Failed to analyze captures", "light_id", lightID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "Failed to analyze captures")
		return
	}

	s.writeJSON(w, http.StatusOK, analyzer.ValidatePattern(tolerance))
}
