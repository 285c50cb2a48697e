package ports

import (
	"context"

	"github.com/kirillkom/notes-transformer/internal/core/domain"
)

// StructuredGenerator runs one model call in structured JSON output mode and
// returns the raw text the model produced.
type StructuredGenerator interface {
	Generate(ctx context.Context, req domain.GenerationRequest) (*domain.Generation, error)
}

// AttachmentUploader is implemented by generators that accept files natively.
// Supports reports whether the attachment can be handed over as-is; otherwise
// the caller falls back to text extraction.
type AttachmentUploader interface {
	Supports(file *domain.Attachment) bool
	Upload(ctx context.Context, file *domain.Attachment) (*domain.AttachmentRef, error)
	Release(ctx context.Context, ref *domain.AttachmentRef) error
}

// TextExtractor converts an uploaded file into plain text.
type TextExtractor interface {
	Extract(ctx context.Context, file *domain.Attachment) (string, error)
}

// TransformObserver receives pipeline outcomes for metrics.
type TransformObserver interface {
	ObservePass(pass domain.Pass, model string, outcome string, promptTokens, completionTokens int)
	ObserveRestyle(applied bool)
	ObserveDroppedNextActions(count int)
}
