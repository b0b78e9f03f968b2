package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/newthinker/macrolens/internal/api/response"
	"github.com/newthinker/macrolens/internal/app"
	"github.com/newthinker/macrolens/internal/config"
	"github.com/newthinker/macrolens/internal/metrics"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T, cfg Config, withMetrics bool) *Server {
	t.Helper()
	a, err := app.New(config.Defaults(), zap.NewNop())
	if err != nil {
		t.Fatalf("failed to create app: %v", err)
	}
	deps := Dependencies{App: a}
	if withMetrics {
		deps.Metrics = metrics.NewRegistry()
		a.SetMetrics(deps.Metrics)
	}

	srv, err := NewServer(cfg, deps, zap.NewNop())
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}
	return srv
}

func TestNewServer_RequiresApp(t *testing.T) {
	if _, err := NewServer(Config{}, Dependencies{}, nil); err == nil {
		t.Error("expected error without app")
	}
}

func TestServer_Health(t *testing.T) {
	srv := newTestServer(t, Config{Host: "localhost", APIKey: "test-key"}, false)

	req := httptest.NewRequest("GET", "/api/health", nil)
	w := httptest.NewRecorder()

	srv.mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200 without key on health, got %d", w.Code)
	}
}

func TestServer_APIAuth_Required(t *testing.T) {
	srv := newTestServer(t, Config{Host: "localhost", APIKey: "test-key"}, false)

	req := httptest.NewRequest("GET", "/api/v1/reports", nil)
	w := httptest.NewRecorder()
	srv.mux.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without key, got %d", w.Code)
	}
}

func TestServer_APIAuth_ValidKey(t *testing.T) {
	srv := newTestServer(t, Config{Host: "localhost", APIKey: "test-key"}, false)

	req := httptest.NewRequest("GET", "/api/v1/reports", nil)
	req.Header.Set("X-API-Key", "test-key")
	w := httptest.NewRecorder()
	srv.mux.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 with key, got %d", w.Code)
	}
}

func TestServer_APIAuth_Disabled(t *testing.T) {
	srv := newTestServer(t, Config{Host: "localhost"}, false)

	req := httptest.NewRequest("GET", "/api/v1/reports", nil)
	w := httptest.NewRecorder()
	srv.mux.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 with disabled auth, got %d", w.Code)
	}
}

func TestServer_AnalyzeThenFetch(t *testing.T) {
	srv := newTestServer(t, Config{Host: "localhost", MaxBodyBytes: 1 << 20}, false)
	h := srv.Handler()

	req := httptest.NewRequest("POST", "/api/v1/analyze", strings.NewReader(`{"observations": [], "bars": []}`))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if w.Header().Get(metrics.RequestIDHeader) == "" {
		t.Error("expected request ID header")
	}

	var resp response.SuccessResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	id, _ := resp.Data.(map[string]any)["id"].(string)
	if id == "" {
		t.Fatal("expected report ID")
	}

	req = httptest.NewRequest("GET", "/api/v1/reports/"+id, nil)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 fetching report, got %d", w.Code)
	}

	req = httptest.NewRequest("GET", "/api/v1/reports/unknown", nil)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown report, got %d", w.Code)
	}
}

func TestServer_MethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, Config{Host: "localhost"}, false)

	req := httptest.NewRequest("GET", "/api/v1/analyze", nil)
	w := httptest.NewRecorder()
	srv.mux.ServeHTTP(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", w.Code)
	}
}

func TestServer_Metrics(t *testing.T) {
	srv := newTestServer(t, Config{Host: "localhost", MetricsPath: "/metrics"}, true)
	h := srv.Handler()

	req := httptest.NewRequest("POST", "/api/v1/analyze", strings.NewReader(`{}`))
	h.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	for _, name := range []string{"http_requests_total", "macrolens_analyses_total"} {
		if !strings.Contains(body, name) {
			t.Errorf("expected %s in metrics output", name)
		}
	}
}

func TestServer_MetricsDisabled(t *testing.T) {
	srv := newTestServer(t, Config{Host: "localhost", MetricsPath: "/metrics"}, false)

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	srv.mux.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 without metrics, got %d", w.Code)
	}
}
