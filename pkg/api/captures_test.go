package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/greenwave-dev/greenwave/pkg/store"
)

func TestCaptureLifecycle(t *testing.T) {
	e := newTestEnv(t)
	light := e.createLight(t, "Main St")

	first := e.addCapture(t, light.ID, "2025-12-01T08:00:00Z", "2025-12-01T08:00:30Z")
	if first.DurationMS != 30000 {
		t.Errorf("Expected computed duration 30000, got %d", first.DurationMS)
	}
	if first.LightID != light.ID {
		t.Errorf("Expected capture bound to light %s, got %s", light.ID, first.LightID)
	}
	if first.CreatedAt == "" {
		t.Error("Expected a created_at timestamp")
	}

	second := e.addCapture(t, light.ID, "2025-12-01T08:02:00Z", "2025-12-01T08:02:30Z")

	rec := e.do(t, http.MethodGet, "/api/traffic-lights/"+light.ID+"/captures", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 listing captures, got %d", rec.Code)
	}
	captures := decodeBody[[]store.Capture](t, rec)
	if len(captures) != 2 {
		t.Fatalf("Expected 2 captures, got %d", len(captures))
	}
	if captures[0].ID != second.ID {
		t.Errorf("Expected newest capture first, got %s", captures[0].ID)
	}

	rec = e.do(t, http.MethodDelete, "/api/captures/"+first.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 deleting capture, got %d (%s)", rec.Code, rec.Body.String())
	}
	body := decodeBody[map[string]string](t, rec)
	if !strings.Contains(body["message"], first.ID) {
		t.Errorf("Expected deletion message naming the capture, got %q", body["message"])
	}

	rec = e.do(t, http.MethodGet, "/api/traffic-lights/"+light.ID+"/captures", nil)
	if captures := decodeBody[[]store.Capture](t, rec); len(captures) != 1 {
		t.Errorf("Expected 1 capture left, got %d", len(captures))
	}
}

func TestListCapturesEmptyIsArray(t *testing.T) {
	e := newTestEnv(t)
	light := e.createLight(t, "Quiet Corner")

	rec := e.do(t, http.MethodGet, "/api/traffic-lights/"+light.ID+"/captures", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if !strings.HasPrefix(rec.Body.String(), "[") {
		t.Errorf("Expected a JSON array, got %q", rec.Body.String())
	}
	if captures := decodeBody[[]store.Capture](t, rec); len(captures) != 0 {
		t.Errorf("Expected no captures, got %d", len(captures))
	}
}

func TestCreateCaptureValidation(t *testing.T) {
	e := newTestEnv(t)
	light := e.createLight(t, "Main St")
	path := "/api/traffic-lights/" + light.ID + "/captures"

	tests := []struct {
		name string
		body map[string]string
	}{
		{"unparseable start", map[string]string{
			"green_start": "yesterday", "green_end": "2025-12-01T08:00:30Z"}},
		{"unparseable end", map[string]string{
			"green_start": "2025-12-01T08:00:00Z", "green_end": "later"}},
		{"end equals start", map[string]string{
			"green_start": "2025-12-01T08:00:00Z", "green_end": "2025-12-01T08:00:00Z"}},
		{"end before start", map[string]string{
			"green_start": "2025-12-01T08:00:30Z", "green_end": "2025-12-01T08:00:00Z"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.do(t, http.MethodPost, path, tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d (%s)", rec.Code, rec.Body.String())
			}
		})
	}

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for malformed JSON, got %d", rec.Code)
	}
}

func TestCaptureAcceptsOffsetTimestamps(t *testing.T) {
	e := newTestEnv(t)
	light := e.createLight(t, "Brivibas iela")

	// Offset-bearing input is accepted; storage normalizes to UTC.
	capture := e.addCapture(t, light.ID, "2025-12-01T10:00:00+02:00", "2025-12-01T10:00:30+02:00")
	if capture.DurationMS != 30000 {
		t.Errorf("Expected duration 30000, got %d", capture.DurationMS)
	}
	if !strings.HasPrefix(capture.GreenStart, "2025-12-01T08:00:00") {
		t.Errorf("Expected UTC-normalized start, got %q", capture.GreenStart)
	}
}
