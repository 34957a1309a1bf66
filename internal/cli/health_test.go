package cli

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPProbe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			w.WriteHeader(http.StatusOK)
		case "/redirect-target":
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	defer srv.Close()

	ctx := context.Background()

	if err := httpProbe(srv.URL + "/ok")(ctx); err != nil {
		t.Errorf("expected 200 probe to pass, got %v", err)
	}
	if err := httpProbe(srv.URL + "/down")(ctx); err == nil {
		t.Error("expected 503 probe to fail")
	}
	if err := httpProbe("http://127.0.0.1:1/unreachable")(ctx); err == nil {
		t.Error("expected unreachable probe to fail")
	}
}

func TestHealthCmd_RegistersProbesAndReports(t *testing.T) {
	m := withTestMonitor(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m.RegisterHealthCheck("api", httpProbe(srv.URL))
	states := m.CheckHealth(context.Background())
	if len(states) != 1 {
		t.Fatalf("expected 1 health state, got %d", len(states))
	}
	if states[0].ConsecutiveFailures != 0 {
		t.Errorf("expected passing probe, got %d failures", states[0].ConsecutiveFailures)
	}
}
