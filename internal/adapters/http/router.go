package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/kirillkom/notes-transformer/internal/config"
	"github.com/kirillkom/notes-transformer/internal/core/domain"
	"github.com/kirillkom/notes-transformer/internal/core/ports"
	"github.com/kirillkom/notes-transformer/internal/observability/metrics"
)

const (
	serviceName      = "api"
	backpressureWait = 250 * time.Millisecond
)

type Router struct {
	cfg         config.Config
	limits      domain.Limits
	transformer ports.Transformer
	metrics     *metrics.HTTPServerMetrics
}

func NewRouter(cfg config.Config, transformer ports.Transformer, httpMetrics *metrics.HTTPServerMetrics) *Router {
	limits := domain.Limits{
		MaxInputChars: cfg.MaxInputChars,
		MaxFileBytes:  cfg.MaxFileBytes,
		MaxNotesChars: cfg.MaxNotesChars,
	}
	if limits == (domain.Limits{}) {
		limits = domain.DefaultLimits()
	}
	return &Router{
		cfg:         cfg,
		limits:      limits,
		transformer: transformer,
		metrics:     httpMetrics,
	}
}

func (rt *Router) Handler() http.Handler {
	var onReject func(string)
	if rt.metrics != nil {
		onReject = func(reason string) { rt.metrics.RecordRejected(serviceName, reason) }
	}

	transform := http.Handler(http.HandlerFunc(rt.transform))
	transform = backpressureMiddleware(transform, rt.cfg.APIMaxInFlight, backpressureWait, onReject)
	transform = rateLimitMiddleware(transform, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst, onReject)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/openapi.json", rt.openAPI)
	mux.Handle("/api/transform", transform)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) openAPI(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	doc, err := OpenAPIDocument()
	if err != nil {
		slog.Error("openapi_document_failed", "error", err)
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
