// Package mcpadapter exposes the transform use case as an MCP tool.
package mcpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/notes-transformer/internal/core/domain"
	"github.com/kirillkom/notes-transformer/internal/core/ports"
)

const ToolTransformNotes = "transform_notes"

type Handler struct {
	transformer ports.Transformer
}

func NewServer(name, version string, transformer ports.Transformer) *server.MCPServer {
	h := &Handler{transformer: transformer}

	s := server.NewMCPServer(name, version, server.WithToolCapabilities(false))
	s.AddTool(mcp.NewTool(ToolTransformNotes,
		mcp.WithDescription("Turn messy notes into a structured brief with a title, summary, sections and next actions. Returns the brief as JSON."),
		mcp.WithString("text", mcp.Required(), mcp.Description("The raw notes, document text or data to transform.")),
		mcp.WithString("notes", mcp.Description("Optional style instructions (tone, format, language). Never used as facts.")),
	), h.TransformNotes)
	return s
}

func (h *Handler) TransformNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	notes := req.GetString("notes", "")

	result, err := h.transformer.Transform(ctx, domain.NewTextRequest(text, notes))
	if err != nil {
		slog.Warn("mcp_transform_failed", "tool", ToolTransformNotes, "error", err)
		return mcp.NewToolResultError(toolErrorMessage(err)), nil
	}

	raw, err := json.Marshal(result.Response)
	if err != nil {
		return nil, fmt.Errorf("encode transform response: %w", err)
	}
	return mcp.NewToolResultText(string(raw)), nil
}

func toolErrorMessage(err error) string {
	var sizeErr *domain.SizeLimitError
	var upstream *domain.UpstreamError

	switch {
	case errors.As(err, &sizeErr):
		return sizeErr.Error()
	case domain.IsKind(err, domain.ErrInvalidInput):
		return domain.Detail(err, domain.ErrInvalidInput)
	case domain.IsKind(err, domain.ErrNotConfigured):
		return domain.ErrNotConfigured.Error()
	case errors.As(err, &upstream):
		return fmt.Sprintf("model provider error (status %d): %s", upstream.Status, upstream.Message)
	case domain.IsKind(err, domain.ErrMalformedOutput), domain.IsKind(err, domain.ErrUnexpectedSchema):
		return "the model returned invalid output, please try again"
	default:
		return "internal error"
	}
}
