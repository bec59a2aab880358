package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func ok(context.Context) error { return nil }

func failing(msg string) CheckFunc {
	return func(context.Context) error { return errors.New(msg) }
}

func decode(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()
	var response Response
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return response
}

func TestHealthHandler(t *testing.T) {
	handler := NewHandler("v1.0.0")
	handler.Register("storage", true, ok)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	response := decode(t, w)
	if response.Status != StatusHealthy {
		t.Errorf("expected status healthy, got %s", response.Status)
	}
	if response.Version != "v1.0.0" {
		t.Errorf("expected version v1.0.0, got %s", response.Version)
	}
	if len(response.Checks) != 1 || response.Checks[0].Name != "storage" {
		t.Errorf("unexpected checks: %+v", response.Checks)
	}
}

func TestHealthHandler_StatusAggregation(t *testing.T) {
	cases := []struct {
		name     string
		critical bool
		fn       CheckFunc
		want     Status
		wantCode int
	}{
		{"critical failure", true, failing("postgres down"), StatusUnhealthy, http.StatusServiceUnavailable},
		{"optional failure", false, failing("kafka down"), StatusDegraded, http.StatusOK},
		{"all healthy", false, ok, StatusHealthy, http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := NewHandler("test")
			handler.Register("base", true, ok)
			handler.Register("dep", tc.critical, tc.fn)

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			if w.Code != tc.wantCode {
				t.Fatalf("expected code %d, got %d", tc.wantCode, w.Code)
			}
			if got := decode(t, w).Status; got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestRegister_ReplacesByName(t *testing.T) {
	handler := NewHandler("test")
	handler.Register("storage", true, failing("down"))
	handler.Register("storage", true, ok)

	status, checks := handler.Run(context.Background())
	if status != StatusHealthy || len(checks) != 1 {
		t.Fatalf("expected single healthy check, got %s %+v", status, checks)
	}
}

func TestRun_CheckTimeout(t *testing.T) {
	handler := NewHandler("test")
	handler.timeout = 20 * time.Millisecond
	handler.Register("slow", true, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	status, checks := handler.Run(context.Background())
	if status != StatusUnhealthy {
		t.Fatalf("expected unhealthy, got %s", status)
	}
	if checks[0].Message == "" {
		t.Fatal("expected timeout message")
	}
}

func TestLivenessHandler(t *testing.T) {
	w := httptest.NewRecorder()
	LivenessHandler(w, httptest.NewRequest(http.MethodGet, "/livez", nil))

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	if w.Body.String() != "ok" {
		t.Errorf("expected body 'ok', got %s", w.Body.String())
	}
}

func TestReadinessHandler(t *testing.T) {
	cases := []struct {
		name     string
		critical bool
		fn       CheckFunc
		wantCode int
		wantBody string
	}{
		{"ready", true, ok, http.StatusOK, "ready"},
		{"critical down", true, failing("not ready"), http.StatusServiceUnavailable, "not ready"},
		{"optional down", false, failing("redis down"), http.StatusOK, "ready"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := NewHandler("v1.0.0")
			handler.Register("dep", tc.critical, tc.fn)

			w := httptest.NewRecorder()
			handler.ReadinessHandler(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			if w.Code != tc.wantCode {
				t.Errorf("expected status %d, got %d", tc.wantCode, w.Code)
			}
			if w.Body.String() != tc.wantBody {
				t.Errorf("expected body %q, got %q", tc.wantBody, w.Body.String())
			}
		})
	}
}
