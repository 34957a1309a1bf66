package ingest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/firstissue/pulse/pkg/models"
)

func TestObservationLog_AppendAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traffic.jsonl")
	log, err := NewJSONLObservationLog(path)
	if err != nil {
		t.Fatalf("creating observation log: %v", err)
	}
	defer log.Close()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	observations := []models.RequestObservation{
		{Path: "/api/issues", Method: "GET", StatusCode: 200, DurationMs: 42, Timestamp: base},
		{Path: "/api/match", Method: "POST", StatusCode: 500, DurationMs: 900, Timestamp: base.Add(time.Minute), ErrorMessage: "matcher crashed"},
		{Path: "/api/issues", Method: "GET", StatusCode: 404, DurationMs: 8, Timestamp: base.Add(2 * time.Minute), UserID: "user-1"},
	}
	for _, obs := range observations {
		if err := log.Append(obs); err != nil {
			t.Fatalf("appending observation: %v", err)
		}
	}

	got, err := log.Read(ObservationFilter{})
	if err != nil {
		t.Fatalf("reading observations: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 observations, got %d", len(got))
	}
	if got[1].ErrorMessage != "matcher crashed" {
		t.Errorf("expected error message preserved, got %q", got[1].ErrorMessage)
	}
	if !got[0].Timestamp.Equal(base) {
		t.Errorf("expected timestamp %v, got %v", base, got[0].Timestamp)
	}
}

func TestObservationLog_Filters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traffic.jsonl")
	log, err := NewJSONLObservationLog(path)
	if err != nil {
		t.Fatalf("creating observation log: %v", err)
	}
	defer log.Close()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, obs := range []models.RequestObservation{
		{Path: "/api/issues", Method: "GET", StatusCode: 200},
		{Path: "/api/match", Method: "POST", StatusCode: 200},
		{Path: "/api/issues", Method: "GET", StatusCode: 500},
	} {
		obs.Timestamp = base.Add(time.Duration(i) * time.Hour)
		if err := log.Append(obs); err != nil {
			t.Fatalf("appending observation: %v", err)
		}
	}

	byMethod, err := log.Read(ObservationFilter{Method: "POST"})
	if err != nil {
		t.Fatalf("reading by method: %v", err)
	}
	if len(byMethod) != 1 || byMethod[0].Path != "/api/match" {
		t.Errorf("unexpected method filter result %+v", byMethod)
	}

	byPath, err := log.Read(ObservationFilter{Path: "/api/issues"})
	if err != nil {
		t.Fatalf("reading by path: %v", err)
	}
	if len(byPath) != 2 {
		t.Errorf("expected 2 issue observations, got %d", len(byPath))
	}

	since := base.Add(90 * time.Minute)
	recent, err := log.Read(ObservationFilter{Since: &since})
	if err != nil {
		t.Fatalf("reading since: %v", err)
	}
	if len(recent) != 1 || recent[0].StatusCode != 500 {
		t.Errorf("unexpected since filter result %+v", recent)
	}

	until := base.Add(30 * time.Minute)
	early, err := log.Read(ObservationFilter{Until: &until})
	if err != nil {
		t.Fatalf("reading until: %v", err)
	}
	if len(early) != 1 || early[0].Method != "GET" {
		t.Errorf("unexpected until filter result %+v", early)
	}
}

func TestReadObservations_SkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traffic.jsonl")
	content := `{"path":"/api/issues","method":"GET","status_code":200,"duration_ms":10,"timestamp":"2026-03-01T12:00:00Z"}
not json at all
{"path":"/api/match","method":"POST","status_code":500,"duration_ms":90,"timestamp":"2026-03-01T12:01:00Z"}

{broken json
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing traffic file: %v", err)
	}

	got, err := ReadObservations(path, ObservationFilter{})
	if err != nil {
		t.Fatalf("reading observations: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 valid observations, got %d", len(got))
	}
	if got[0].Path != "/api/issues" || got[1].Path != "/api/match" {
		t.Errorf("unexpected observations %+v", got)
	}
}

func TestReadObservations_MissingFile(t *testing.T) {
	got, err := ReadObservations(filepath.Join(t.TempDir(), "nope.jsonl"), ObservationFilter{})
	if err != nil {
		t.Fatalf("expected missing file tolerated, got %v", err)
	}
	if got != nil {
		t.Errorf("expected nil result, got %v", got)
	}
}
