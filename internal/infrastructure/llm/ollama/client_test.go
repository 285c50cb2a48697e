package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kirillkom/notes-transformer/internal/core/domain"
)

func TestGenerateSendsJSONModeRequest(t *testing.T) {
	var payload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"model":"llama3","response":" {\"title\":\"t\"} ","prompt_eval_count":12,"eval_count":7}`))
	}))
	defer server.Close()

	client := New(server.URL + "/")
	gen, err := client.Generate(context.Background(), domain.GenerationRequest{
		Pass:        domain.PassPrimary,
		Model:       "llama3",
		System:      "system JSON",
		User:        "user input",
		Temperature: 0.1,
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if payload["format"] != "json" || payload["stream"] != false {
		t.Fatalf("unexpected request flags: %v", payload)
	}
	if payload["system"] != "system JSON" || payload["prompt"] != "user input" {
		t.Fatalf("unexpected prompts: %v", payload)
	}
	options, _ := payload["options"].(map[string]any)
	if options["temperature"] != 0.1 {
		t.Fatalf("unexpected temperature: %v", options)
	}
	if gen.Text != `{"title":"t"}` || gen.PromptTokens != 12 || gen.CompletionTokens != 7 || gen.Model != "llama3" {
		t.Fatalf("unexpected generation: %+v", gen)
	}
}

func TestGenerateNormalizesErrorPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model \"llama9\" not found, try pulling it first"}`))
	}))
	defer server.Close()

	_, err := New(server.URL).Generate(context.Background(), domain.GenerationRequest{Model: "llama9"})
	var upstream *domain.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if upstream.Status != http.StatusNotFound || upstream.Message != `model "llama9" not found, try pulling it first` {
		t.Fatalf("unexpected upstream error: %+v", upstream)
	}
}

func TestGenerateKeepsPlainTextErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := New(server.URL).Generate(context.Background(), domain.GenerationRequest{Model: "m"})
	var upstream *domain.UpstreamError
	if !errors.As(err, &upstream) || upstream.Message != "model unavailable" || upstream.Status != http.StatusBadGateway {
		t.Fatalf("expected 502 with body message, got %v", err)
	}
}

func TestGenerateRejectsAttachments(t *testing.T) {
	_, err := New("http://localhost:1").Generate(context.Background(), domain.GenerationRequest{
		Attachment: &domain.AttachmentRef{Kind: domain.AttachmentFile, ID: "x"},
	})
	if !errors.Is(err, domain.ErrUnsupportedFile) {
		t.Fatalf("expected unsupported file, got %v", err)
	}
}
