package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/firstissue/pulse/internal/observability"
	"github.com/firstissue/pulse/pkg/models"
)

func withTestMonitor(t *testing.T) *observability.Monitor {
	t.Helper()
	orig := Monitor
	m := observability.NewMonitor(models.DefaultMonitorConfig(), nil)
	Monitor = m
	t.Cleanup(func() {
		m.Close()
		Monitor = orig
	})
	return m
}

func writeTrafficFile(t *testing.T, lines string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "traffic.jsonl")
	if err := os.WriteFile(path, []byte(lines), 0o644); err != nil {
		t.Fatalf("writing traffic file: %v", err)
	}
	return path
}

func TestReplayTraffic(t *testing.T) {
	m := withTestMonitor(t)

	path := writeTrafficFile(t, `{"path":"/api/issues","method":"GET","status_code":200,"duration_ms":40}
{"path":"/api/issues","method":"GET","status_code":500,"duration_ms":120,"error_message":"boom","user_id":"user-1"}
garbage line
`)

	n, err := replayTraffic(path)
	if err != nil {
		t.Fatalf("replaying traffic: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 observations replayed, got %d", n)
	}

	report := m.GetMetrics(0)
	if report.Overview.TotalRequests != 2 {
		t.Errorf("expected 2 tracked requests, got %d", report.Overview.TotalRequests)
	}
	if report.Overview.TotalErrors != 1 {
		t.Errorf("expected 1 tracked error, got %d", report.Overview.TotalErrors)
	}

	summary := m.GetErrorSummary()
	if summary.TotalErrors != 1 {
		t.Fatalf("expected error ledger fed by replay, got %d entries", summary.TotalErrors)
	}
	if summary.RecentErrors[0].Message != "boom" {
		t.Errorf("expected recorded error message carried through, got %q", summary.RecentErrors[0].Message)
	}
}

func TestReplayTraffic_EmptyPathIsNoOp(t *testing.T) {
	withTestMonitor(t)

	n, err := replayTraffic("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 0 {
		t.Errorf("expected 0 observations, got %d", n)
	}
}

func TestReplayCmd_NilMonitor(t *testing.T) {
	orig := Monitor
	defer func() { Monitor = orig }()
	Monitor = nil

	err := replayCmd.RunE(replayCmd, []string{"whatever.jsonl"})
	if err == nil {
		t.Fatal("expected error when Monitor is nil")
	}
	if !strings.Contains(err.Error(), "not initialized") {
		t.Errorf("unexpected error: %v", err)
	}
}
