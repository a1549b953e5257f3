package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"coverletter-backend/internal/services/health"
	"coverletter-backend/internal/shared/config"
	"coverletter-backend/internal/usage"
)

func newTestRouter(deps RouterDeps) http.Handler {
	deps.Config.CORSAllowOrigin = []string{"http://localhost:5173"}
	return NewRouter(deps)
}

func get(h http.Handler, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	return resp
}

func TestHealthReflectsChecks(t *testing.T) {
	healthy := newTestRouter(RouterDeps{})
	if resp := get(healthy, "/api/v1/health", nil); resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	failing := health.NewService().Add("database", func(context.Context) error { return errors.New("down") })
	resp := get(newTestRouter(RouterDeps{Health: failing}), "/api/v1/health", nil)
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), `"database":"down"`) {
		t.Fatalf("unexpected body %s", resp.Body.String())
	}
}

func TestMetricsIsPublic(t *testing.T) {
	resp := get(newTestRouter(RouterDeps{}), "/metrics", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "exports_started_total") {
		t.Fatalf("expected export counters, got %s", resp.Body.String())
	}
}

func TestAPIRequiresIdentity(t *testing.T) {
	router := newTestRouter(RouterDeps{UsageHandler: usage.NewHandler(usage.NewService(usage.DefaultPolicy(5)))})

	if resp := get(router, "/api/v1/usage", nil); resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without identity, got %d", resp.Code)
	}
	resp := get(router, "/api/v1/usage", map[string]string{"X-Guest-Id": "55555555-5555-5555-5555-555555555555"})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for guest, got %d", resp.Code)
	}
}

func TestDevRoutesOnlyInDev(t *testing.T) {
	usageHandler := usage.NewHandler(usage.NewService(usage.DefaultPolicy(5)))
	guest := map[string]string{"X-Guest-Id": "66666666-6666-6666-6666-666666666666"}

	prod := newTestRouter(RouterDeps{Config: config.Config{Env: "production"}, UsageHandler: usageHandler})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/dev/usage/reset", nil)
	req.Header.Set("X-Guest-Id", guest["X-Guest-Id"])
	resp := httptest.NewRecorder()
	prod.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 outside dev, got %d", resp.Code)
	}
}

func TestAddr(t *testing.T) {
	for in, want := range map[string]string{"": ":8080", "9000": ":9000", ":7000": ":7000"} {
		if got := Addr(in); got != want {
			t.Fatalf("Addr(%q) = %q, want %q", in, got, want)
		}
	}
}
