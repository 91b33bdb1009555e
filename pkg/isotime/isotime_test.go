package isotime

import (
	"testing"
	"time"
)

func TestParseOffsetAware(t *testing.T) {
	got, err := Parse("2025-12-01T08:30:00+02:00")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	_, offset := got.Zone()
	if offset != 2*3600 {
		t.Errorf("expected +02:00 offset preserved, got %d seconds", offset)
	}
	if Format(got) != "2025-12-01T08:30:00+02:00" {
		t.Errorf("round trip lost the offset: %s", Format(got))
	}
}

func TestParseZulu(t *testing.T) {
	got, err := Parse("2025-12-01T08:30:00Z")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	want := time.Date(2025, 12, 1, 8, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestParseNaiveIsUTC(t *testing.T) {
	got, err := Parse("2025-12-01T08:30:00")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	want := time.Date(2025, 12, 1, 8, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("naive timestamp should be UTC: expected %v, got %v", want, got)
	}
}

func TestParseFractionalSeconds(t *testing.T) {
	got, err := Parse("2025-12-01T08:30:00.250Z")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if got.Nanosecond() != 250_000_000 {
		t.Errorf("expected 250ms fraction, got %d ns", got.Nanosecond())
	}
}

func TestParseSpaceSeparated(t *testing.T) {
	got, err := Parse("2025-12-01 08:30:00")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if got.Hour() != 8 || got.Minute() != 30 {
		t.Errorf("unexpected time: %v", got)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, s := range []string{"", "not a time", "2025-13-45T99:00:00Z"} {
		if _, err := Parse(s); err == nil {
			t.Errorf("Parse(%q) should fail", s)
		}
	}
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2025-12-01")
	if err != nil {
		t.Fatalf("ParseDate returned error: %v", err)
	}
	want := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	if _, err := ParseDate("12/01/2025"); err == nil {
		t.Error("ParseDate should reject non-ISO dates")
	}
}
