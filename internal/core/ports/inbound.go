package ports

import (
	"context"

	"github.com/kirillkom/notes-transformer/internal/core/domain"
)

// Transformer is the inbound contract for turning messy input into a structured document.
type Transformer interface {
	Transform(ctx context.Context, req domain.TransformRequest) (*domain.TransformResult, error)
}
