package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/kirillkom/notes-transformer/internal/core/domain"
)

var imageContentTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
}

// OpenAIClient generates briefs through chat completions in JSON mode. PDFs
// are uploaded and referenced as file parts, images are sent inline as data
// URLs; every other file goes through text extraction.
type OpenAIClient struct {
	client *openai.Client
}

func NewOpenAIClient(apiKey, baseURL string, httpClient *http.Client) *OpenAIClient {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if strings.TrimSpace(baseURL) != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimRight(baseURL, "/")+"/"))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	client := openai.NewClient(opts...)
	return &OpenAIClient{client: &client}
}

func (c *OpenAIClient) Generate(ctx context.Context, req domain.GenerationRequest) (*domain.Generation, error) {
	user, err := userMessage(req)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(req.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.System),
			user,
		},
		Temperature: openai.Float(req.Temperature),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	})
	if err != nil {
		return nil, openAIError("chat completion", err)
	}
	if len(resp.Choices) == 0 {
		return nil, domain.NewUpstreamError(http.StatusBadGateway, "no response from openai", nil)
	}

	model := resp.Model
	if model == "" {
		model = req.Model
	}
	return &domain.Generation{
		Text:             resp.Choices[0].Message.Content,
		Model:            model,
		PromptTokens:     int(resp.Usage.PromptTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
	}, nil
}

func userMessage(req domain.GenerationRequest) (openai.ChatCompletionMessageParamUnion, error) {
	ref := req.Attachment
	if ref == nil {
		return openai.UserMessage(req.User), nil
	}

	parts := []openai.ChatCompletionContentPartUnionParam{openai.TextContentPart(req.User)}
	switch ref.Kind {
	case domain.AttachmentFile:
		parts = append(parts, openai.FileContentPart(openai.ChatCompletionContentPartFileFileParam{
			FileID: openai.String(ref.ID),
		}))
	case domain.AttachmentImage:
		parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
			URL: ref.DataURL,
		}))
	default:
		return openai.ChatCompletionMessageParamUnion{}, domain.WrapError(domain.ErrUnsupportedFile, "openai user message", fmt.Errorf("attachment kind %q", ref.Kind))
	}
	return openai.UserMessage(parts), nil
}

func (c *OpenAIClient) Supports(file *domain.Attachment) bool {
	return isPDF(file) || isImage(file)
}

func (c *OpenAIClient) Upload(ctx context.Context, file *domain.Attachment) (*domain.AttachmentRef, error) {
	if isImage(file) {
		return &domain.AttachmentRef{
			Kind:     domain.AttachmentImage,
			Filename: file.Filename,
			DataURL:  "data:" + normalizedContentType(file) + ";base64," + base64.StdEncoding.EncodeToString(file.Data),
		}, nil
	}
	if !isPDF(file) {
		return nil, domain.WrapError(domain.ErrUnsupportedFile, "openai upload", fmt.Errorf("%s cannot be attached", file.Filename))
	}

	uploaded, err := c.client.Files.New(ctx, openai.FileNewParams{
		File:    openai.File(bytes.NewReader(file.Data), file.Filename, "application/pdf"),
		Purpose: openai.FilePurposeUserData,
	})
	if err != nil {
		return nil, openAIError("file upload", err)
	}
	return &domain.AttachmentRef{Kind: domain.AttachmentFile, ID: uploaded.ID, Filename: file.Filename}, nil
}

func (c *OpenAIClient) Release(ctx context.Context, ref *domain.AttachmentRef) error {
	if ref == nil || ref.Kind != domain.AttachmentFile || ref.ID == "" {
		return nil
	}
	if _, err := c.client.Files.Delete(ctx, ref.ID); err != nil {
		return openAIError("file delete", err)
	}
	return nil
}

func openAIError(operation string, err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return domain.NewUpstreamError(apiErr.StatusCode, apiErr.Message, fmt.Errorf("openai %s: %w", operation, err))
	}
	return fmt.Errorf("openai %s: %w", operation, err)
}

func isPDF(file *domain.Attachment) bool {
	if file == nil {
		return false
	}
	return normalizedContentType(file) == "application/pdf"
}

func isImage(file *domain.Attachment) bool {
	if file == nil {
		return false
	}
	return imageContentTypes[normalizedContentType(file)]
}

// normalizedContentType trusts the declared type first and falls back to the
// file extension for generic uploads.
func normalizedContentType(file *domain.Attachment) string {
	ct := strings.ToLower(strings.TrimSpace(file.ContentType))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if ct != "" && ct != "application/octet-stream" {
		return ct
	}
	switch strings.ToLower(filepath.Ext(file.Filename)) {
	case ".pdf":
		return "application/pdf"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	}
	return ct
}
