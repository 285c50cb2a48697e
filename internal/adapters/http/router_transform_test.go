package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/kirillkom/notes-transformer/internal/config"
	"github.com/kirillkom/notes-transformer/internal/core/domain"
)

type transformerFake struct {
	result *domain.TransformResult
	err    error
	got    []domain.TransformRequest
}

func (f *transformerFake) Transform(_ context.Context, req domain.TransformRequest) (*domain.TransformResult, error) {
	f.got = append(f.got, req)
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &domain.TransformResult{Response: domain.TransformResponse{
		Title:       "Brief",
		Summary:     "Summary",
		Sections:    []domain.Section{},
		NextActions: []domain.NextAction{},
	}}, nil
}

func testConfig() config.Config {
	return config.Config{
		MaxInputChars: 20,
		MaxFileBytes:  16,
		MaxNotesChars: 10,
	}
}

func newTestHandler(cfg config.Config, transformer *transformerFake) http.Handler {
	return NewRouter(cfg, transformer, nil).Handler()
}

func postJSON(t *testing.T, handler http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/transform", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	return res
}

func multipartBody(t *testing.T, filename, contentType string, data []byte, notes string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if filename != "" {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
		header.Set("Content-Type", contentType)
		part, err := writer.CreatePart(header)
		if err != nil {
			t.Fatalf("CreatePart() error = %v", err)
		}
		if _, err := part.Write(data); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}
	if notes != "" {
		if err := writer.WriteField("notes", notes); err != nil {
			t.Fatalf("WriteField() error = %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	return &body, writer.FormDataContentType()
}

func decodeError(t *testing.T, res *httptest.ResponseRecorder) string {
	t.Helper()
	var payload map[string]string
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return payload["error"]
}

func TestHealthzEndpoint(t *testing.T) {
	handler := newTestHandler(testConfig(), &transformerFake{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if res.Header().Get(requestIDHeader) == "" {
		t.Fatalf("expected request id header")
	}
}

func TestTransformJSONSuccess(t *testing.T) {
	fake := &transformerFake{result: &domain.TransformResult{
		Response: domain.TransformResponse{
			Title:   "Launch",
			Summary: "March 15",
			Sections: []domain.Section{
				{Heading: "Timeline", Bullets: []string{"March 15"}},
			},
			NextActions: []domain.NextAction{},
		},
		RestyleAttempted: true,
		Restyled:         true,
	}}
	handler := newTestHandler(testConfig(), fake)

	res := postJSON(t, handler, `{"text":"launch march 15","notes":"as a poem"}`)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	if res.Header().Get("X-Transform-Restyled") != "true" {
		t.Fatalf("expected restyled header")
	}

	var body map[string]any
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	for _, key := range []string{"title", "summary", "sections", "next_actions"} {
		if _, ok := body[key]; !ok {
			t.Fatalf("response missing %q: %v", key, body)
		}
	}
	if len(fake.got) != 1 || fake.got[0].Kind != domain.PayloadText || fake.got[0].Notes != "as a poem" {
		t.Fatalf("unexpected decoded request: %+v", fake.got)
	}
}

func TestTransformJSONValidation(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantInMsg  string
	}{
		{name: "invalid json", body: `{"text":`, wantStatus: http.StatusBadRequest, wantInMsg: "JSON object"},
		{name: "wrong type", body: `{"text":5}`, wantStatus: http.StatusBadRequest, wantInMsg: "JSON object"},
		{name: "missing text", body: `{"notes":"x"}`, wantStatus: http.StatusBadRequest, wantInMsg: "text is required"},
		{name: "empty text", body: `{"text":""}`, wantStatus: http.StatusBadRequest, wantInMsg: "text is required"},
		{name: "text too long", body: `{"text":"` + strings.Repeat("a", 21) + `"}`, wantStatus: http.StatusRequestEntityTooLarge, wantInMsg: "20 characters"},
		{name: "notes too long", body: `{"text":"a","notes":"` + strings.Repeat("n", 11) + `"}`, wantStatus: http.StatusBadRequest, wantInMsg: "notes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &transformerFake{}
			res := postJSON(t, newTestHandler(testConfig(), fake), tt.body)
			if res.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, res.Code)
			}
			if msg := decodeError(t, res); !strings.Contains(msg, tt.wantInMsg) {
				t.Fatalf("expected %q in error message, got %q", tt.wantInMsg, msg)
			}
			if len(fake.got) != 0 {
				t.Fatalf("transformer must not be called for invalid input")
			}
		})
	}
}

func TestTransformJSONBodyOverCapReportsBodySize(t *testing.T) {
	body := `{"text":"` + strings.Repeat("a", 200<<10) + `"}`
	res := postJSON(t, newTestHandler(testConfig(), &transformerFake{}), body)
	if res.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", res.Code)
	}
	msg := decodeError(t, res)
	want := fmt.Sprintf("request body is %d bytes", len(body))
	if !strings.Contains(msg, "20 characters") || !strings.Contains(msg, want) {
		t.Fatalf("expected limit and body size in message, got %q", msg)
	}
}

func TestTransformMultipartSuccess(t *testing.T) {
	fake := &transformerFake{}
	handler := newTestHandler(testConfig(), fake)

	body, contentType := multipartBody(t, "results.csv", "text/csv", []byte("a,b\n1,2"), "short")
	req := httptest.NewRequest(http.MethodPost, "/api/transform", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	got := fake.got[0]
	if got.Kind != domain.PayloadFile || got.File.Filename != "results.csv" || got.File.ContentType != "text/csv" || got.Notes != "short" {
		t.Fatalf("unexpected decoded request: %+v", got)
	}
	if string(got.File.Data) != "a,b\n1,2" {
		t.Fatalf("unexpected file data: %q", got.File.Data)
	}
}

func TestTransformMultipartMissingFile(t *testing.T) {
	body, contentType := multipartBody(t, "", "", nil, "notes")
	req := httptest.NewRequest(http.MethodPost, "/api/transform", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	newTestHandler(testConfig(), &transformerFake{}).ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
	if msg := decodeError(t, res); msg != "multipart field 'file' is required" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestTransformMultipartFileTooLargeReportsSizes(t *testing.T) {
	body, contentType := multipartBody(t, "big.txt", "text/plain", bytes.Repeat([]byte("x"), 17), "")
	req := httptest.NewRequest(http.MethodPost, "/api/transform", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	newTestHandler(testConfig(), &transformerFake{}).ServeHTTP(res, req)

	if res.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", res.Code)
	}
	msg := decodeError(t, res)
	if !strings.Contains(msg, "16 bytes") || !strings.Contains(msg, "got 17 bytes") {
		t.Fatalf("expected limit and actual size in message, got %q", msg)
	}
}

func TestTransformMultipartOverCapReportsDeclaredSize(t *testing.T) {
	body, contentType := multipartBody(t, "big.bin", "application/octet-stream", bytes.Repeat([]byte("x"), 2<<20), "")
	size := body.Len()
	req := httptest.NewRequest(http.MethodPost, "/api/transform", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	newTestHandler(testConfig(), &transformerFake{}).ServeHTTP(res, req)

	if res.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", res.Code)
	}
	msg := decodeError(t, res)
	if !strings.Contains(msg, "16 bytes") || !strings.Contains(msg, fmt.Sprintf("got %d bytes", size)) {
		t.Fatalf("expected limit and actual size in message, got %q", msg)
	}
}

func TestTransformMultipartOverCapWithoutLengthReportsLimit(t *testing.T) {
	body, contentType := multipartBody(t, "big.bin", "application/octet-stream", bytes.Repeat([]byte("x"), 2<<20), "")
	req := httptest.NewRequest(http.MethodPost, "/api/transform", body)
	req.Header.Set("Content-Type", contentType)
	req.ContentLength = -1
	res := httptest.NewRecorder()
	newTestHandler(testConfig(), &transformerFake{}).ServeHTTP(res, req)

	if res.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", res.Code)
	}
	if msg := decodeError(t, res); msg != "file exceeds the limit of 16 bytes" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestTransformMultipartIgnoresQueryNotes(t *testing.T) {
	fake := &transformerFake{}
	body, contentType := multipartBody(t, "results.csv", "text/csv", []byte("a,b"), "")
	req := httptest.NewRequest(http.MethodPost, "/api/transform?notes=poem", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	newTestHandler(testConfig(), fake).ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	if notes := fake.got[0].Notes; notes != "" {
		t.Fatalf("notes must come from the form body only, got %q", notes)
	}
}

func TestTransformMapsUseCaseErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "not configured",
			err:        domain.WrapError(domain.ErrNotConfigured, "transform", errors.New("no provider")),
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "server is missing model configuration",
		},
		{
			name:       "upstream status passthrough",
			err:        domain.NewUpstreamError(http.StatusTooManyRequests, "Rate limit reached", errors.New("raw provider body")),
			wantStatus: http.StatusTooManyRequests,
			wantMsg:    "Rate limit reached",
		},
		{
			name:       "unclassified upstream",
			err:        domain.NewUpstreamError(0, "", errors.New("connection reset")),
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "Internal Server Error",
		},
		{
			name:       "malformed output",
			err:        domain.WrapError(domain.ErrMalformedOutput, "parse model output", errors.New("invalid character 'R'")),
			wantStatus: http.StatusBadGateway,
			wantMsg:    msgMalformedOutput,
		},
		{
			name:       "unexpected schema",
			err:        domain.WrapError(domain.ErrUnexpectedSchema, "validate model output", errors.New("missing properties: 'summary'")),
			wantStatus: http.StatusBadGateway,
			wantMsg:    msgUnexpectedSchema,
		},
		{
			name:       "unsupported file",
			err:        domain.WrapError(domain.ErrUnsupportedFile, "extract", errors.New("board.png is an image")),
			wantStatus: http.StatusBadRequest,
			wantMsg:    "board.png is an image",
		},
		{
			name:       "unknown error",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantMsg:    msgInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := postJSON(t, newTestHandler(testConfig(), &transformerFake{err: tt.err}), `{"text":"hello"}`)
			if res.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, res.Code)
			}
			if msg := decodeError(t, res); msg != tt.wantMsg {
				t.Fatalf("expected message %q, got %q", tt.wantMsg, msg)
			}
		})
	}
}

func TestTransformRejectsGet(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/transform", nil)
	res := httptest.NewRecorder()
	newTestHandler(testConfig(), &transformerFake{}).ServeHTTP(res, req)
	if res.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", res.Code)
	}
}

func TestOpenAPIDocumentIsServed(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/openapi.json", nil)
	res := httptest.NewRecorder()
	newTestHandler(testConfig(), &transformerFake{}).ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	var doc map[string]any
	if err := json.NewDecoder(res.Body).Decode(&doc); err != nil {
		t.Fatalf("decode openapi document: %v", err)
	}
	paths, _ := doc["paths"].(map[string]any)
	if _, ok := paths["/api/transform"]; !ok {
		t.Fatalf("expected /api/transform in openapi paths")
	}
}
