package ollama

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/notes-transformer/internal/core/domain"
)

// Client talks to a local Ollama server. Files always reach it as extracted
// text; it never receives native attachments.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

type generateRequest struct {
	Model   string          `json:"model"`
	System  string          `json:"system,omitempty"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Format  string          `json:"format"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
}

type generateResponse struct {
	Model           string `json:"model"`
	Response        string `json:"response"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
}

func (c *Client) Generate(ctx context.Context, req domain.GenerationRequest) (*domain.Generation, error) {
	if req.Attachment != nil {
		return nil, domain.WrapError(domain.ErrUnsupportedFile, "ollama generate", errAttachmentsUnsupported)
	}

	payload := generateRequest{
		Model:   req.Model,
		System:  req.System,
		Prompt:  req.User,
		Stream:  false,
		Format:  "json",
		Options: generateOptions{Temperature: req.Temperature},
	}

	var response generateResponse
	if err := c.postJSON(ctx, "/api/generate", payload, &response, "generate"); err != nil {
		return nil, err
	}

	model := response.Model
	if model == "" {
		model = req.Model
	}
	return &domain.Generation{
		Text:             strings.TrimSpace(response.Response),
		Model:            model,
		PromptTokens:     response.PromptEvalCount,
		CompletionTokens: response.EvalCount,
	}, nil
}
