package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kirillkom/notes-transformer/internal/core/domain"
)

func scrape(t *testing.T, m *HTTPServerMetrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	return string(body)
}

func TestMiddlewareCountsRequests(t *testing.T) {
	m := NewHTTPServerMetrics("api")
	handler := m.Middleware("api", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/transform", nil))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/random/123", nil))

	out := scrape(t, m)
	for _, want := range []string{
		`notes_transformer_http_requests_total{method="POST",path="/api/transform",service="api",status="400"} 1`,
		`notes_transformer_http_requests_total{method="GET",path="other",service="api",status="400"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in metrics output:\n%s", want, out)
		}
	}
}

func TestTransformObserverRecordsPassesAndTokens(t *testing.T) {
	m := NewHTTPServerMetrics("api")
	observer := m.TransformObserver("api")

	observer.ObservePass(domain.PassPrimary, "gpt-4o-mini", "ok", 120, 80)
	observer.ObservePass(domain.PassRestyle, "gpt-4o-mini", "malformed_output", 0, 0)
	observer.ObserveRestyle(false)
	observer.ObserveDroppedNextActions(2)
	m.RecordRejected("api", "rate_limited")

	out := scrape(t, m)
	for _, want := range []string{
		`notes_transformer_transform_passes_total{outcome="ok",pass="primary",service="api"} 1`,
		`notes_transformer_transform_passes_total{outcome="malformed_output",pass="restyle",service="api"} 1`,
		`notes_transformer_llm_tokens_total{direction="in",model="gpt-4o-mini",pass="primary",service="api"} 120`,
		`notes_transformer_transform_restyle_total{result="fallback",service="api"} 1`,
		`notes_transformer_transform_dropped_next_actions_total{service="api"} 2`,
		`notes_transformer_http_rejected_total{reason="rate_limited",service="api"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in metrics output:\n%s", want, out)
		}
	}
}
