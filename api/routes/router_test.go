package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/posterops/poster-bridge/api/controllers"
	"github.com/posterops/poster-bridge/internal/catalog"
	"github.com/posterops/poster-bridge/internal/transactions"
	posterwebhook "github.com/posterops/poster-bridge/internal/webhooks/poster"
	"github.com/posterops/poster-bridge/pkg/config"
	"github.com/posterops/poster-bridge/pkg/logger"
	"github.com/posterops/poster-bridge/pkg/metrics"
	"github.com/posterops/poster-bridge/pkg/secrets"
	"github.com/posterops/poster-bridge/pkg/store"
	"github.com/prometheus/client_golang/prometheus"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubWebhookPipeline struct {
	calls  int
	bodies [][]byte
}

func (s *stubWebhookPipeline) Process(_ context.Context, body []byte) (*posterwebhook.Result, error) {
	s.calls++
	s.bodies = append(s.bodies, body)
	return &posterwebhook.Result{Success: true, ObjectID: 1, Action: "closed"}, nil
}

type stubTransactionsService struct{}

func (stubTransactionsService) List(context.Context, transactions.ListParams) ([]store.Document, error) {
	return []store.Document{}, nil
}

func (stubTransactionsService) Sync(context.Context, transactions.SyncParams) (transactions.SyncResult, error) {
	return transactions.SyncResult{}, nil
}

type stubCatalogService struct{}

func (stubCatalogService) GetCatalog(context.Context, string) ([]catalog.Item, error) {
	return []catalog.Item{}, nil
}

func (stubCatalogService) RefreshCatalog(context.Context, string) ([]catalog.Item, error) {
	return []catalog.Item{}, nil
}

func (stubCatalogService) GetItem(context.Context, string, catalog.ItemType) (*catalog.Item, error) {
	return nil, nil
}

func (stubCatalogService) GetItemName(context.Context, string, catalog.ItemType) string {
	return catalog.UnknownName
}

func (stubCatalogService) LastSyncedAt(context.Context) (time.Time, bool) {
	return time.Time{}, false
}

func testConfig() *config.Config {
	return &config.Config{App: config.AppConfig{Env: "test"}}
}

func testBundle() *secrets.Bundle {
	return &secrets.Bundle{WebhookAPIKey: "hook-key", QueryToken: "query-token"}
}

func newTestRouter(webhook *stubWebhookPipeline, registry *prometheus.Registry) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Output: io.Discard})
	return NewRouter(
		testConfig(),
		logg,
		testBundle(),
		webhook,
		stubTransactionsService{},
		stubCatalogService{},
		metrics.NewHTTPMetrics(registry),
		registry,
		map[string]controllers.Pinger{"store": stubPinger{}},
	)
}

func TestWebhookRouteRequiresAPIKey(t *testing.T) {
	webhook := &stubWebhookPipeline{}
	router := newTestRouter(webhook, prometheus.NewRegistry())

	body := []byte(`{"object":"transaction","object_id":1,"action":"closed"}`)

	missing := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/poster", bytes.NewReader(body))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, missing)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without key got %d", resp.Code)
	}

	wrong := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/poster?api-key=nope", bytes.NewReader(body))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, wrong)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong key got %d", resp.Code)
	}
	if webhook.calls != 0 {
		t.Fatalf("pipeline must not run for rejected deliveries, got %d calls", webhook.calls)
	}

	ok := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/poster?api-key=hook-key", bytes.NewReader(body))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, ok)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 with valid key got %d", resp.Code)
	}
	if webhook.calls != 1 {
		t.Fatalf("expected exactly one pipeline call got %d", webhook.calls)
	}
	if !bytes.Equal(webhook.bodies[0], body) {
		t.Fatalf("pipeline received altered body: %s", webhook.bodies[0])
	}
}

func TestQueryRoutesRequireToken(t *testing.T) {
	router := newTestRouter(&stubWebhookPipeline{}, prometheus.NewRegistry())

	paths := []string{
		"/api/v1/transactions",
		"/api/v1/transactions/sync",
		"/api/v1/catalog",
	}
	for _, path := range paths {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusUnauthorized {
			t.Errorf("expected 401 for %s without token got %d", path, resp.Code)
		}
	}
}

func TestQueryRoutesServeWithToken(t *testing.T) {
	router := newTestRouter(&stubWebhookPipeline{}, prometheus.NewRegistry())

	paths := []string{
		"/api/v1/transactions?auth-token=query-token",
		"/api/v1/transactions/sync?auth-token=query-token&dateFrom=2025-03-01",
		"/api/v1/catalog?auth-token=query-token",
	}
	for _, path := range paths {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Errorf("expected 200 for %s got %d (%s)", path, resp.Code, resp.Body.String())
		}
	}
}

func TestHealthRoutesAreOpen(t *testing.T) {
	router := newTestRouter(&stubWebhookPipeline{}, prometheus.NewRegistry())

	for _, path := range []string{"/health/live", "/health/ready"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Errorf("expected 200 for %s got %d", path, resp.Code)
		}
	}
}

func TestMetricsEndpointExportsRequestSeries(t *testing.T) {
	router := newTestRouter(&stubWebhookPipeline{}, prometheus.NewRegistry())

	warm := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	router.ServeHTTP(httptest.NewRecorder(), warm)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for metrics got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "http_requests_total") {
		t.Errorf("expected request counter in exposition, got:\n%s", resp.Body.String())
	}
}

func TestUnknownRouteReturnsJSONError(t *testing.T) {
	router := newTestRouter(&stubWebhookPipeline{}, prometheus.NewRegistry())

	req := httptest.NewRequest(http.MethodGet, "/definitely-not-here", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
	var payload map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("expected JSON error body: %v", err)
	}
	if payload["error"] != "Not found" {
		t.Errorf("unexpected error field: %v", payload["error"])
	}
}

func TestWrongMethodReturnsJSONError(t *testing.T) {
	router := newTestRouter(&stubWebhookPipeline{}, prometheus.NewRegistry())

	req := httptest.NewRequest(http.MethodPut, "/api/v1/catalog", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 got %d", resp.Code)
	}
	var payload map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("expected JSON error body: %v", err)
	}
	if payload["error"] != "Method not allowed" {
		t.Errorf("unexpected error field: %v", payload["error"])
	}
}
