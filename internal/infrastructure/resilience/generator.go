package resilience

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/kirillkom/notes-transformer/internal/core/domain"
	"github.com/kirillkom/notes-transformer/internal/core/ports"
)

// Guard wraps a provider so every model call runs through the executor.
// Providers that accept native attachments keep that capability.
func Guard(inner ports.StructuredGenerator, exec *Executor) ports.StructuredGenerator {
	if inner == nil {
		return nil
	}
	g := &guardedGenerator{inner: inner, exec: exec}
	if uploader, ok := inner.(ports.AttachmentUploader); ok {
		return &guardedUploader{guardedGenerator: g, uploader: uploader}
	}
	return g
}

type guardedGenerator struct {
	inner ports.StructuredGenerator
	exec  *Executor
}

func (g *guardedGenerator) Generate(ctx context.Context, req domain.GenerationRequest) (*domain.Generation, error) {
	gen, err := Call(ctx, g.exec, "llm_generate", func(ctx context.Context) (*domain.Generation, error) {
		return g.inner.Generate(ctx, req)
	}, ClassifyUpstream)
	if err != nil {
		return nil, NormalizeUpstream(err)
	}
	return gen, nil
}

type guardedUploader struct {
	*guardedGenerator
	uploader ports.AttachmentUploader
}

func (g *guardedUploader) Supports(file *domain.Attachment) bool {
	return g.uploader.Supports(file)
}

func (g *guardedUploader) Upload(ctx context.Context, file *domain.Attachment) (*domain.AttachmentRef, error) {
	ref, err := Call(ctx, g.exec, "llm_upload", func(ctx context.Context) (*domain.AttachmentRef, error) {
		return g.uploader.Upload(ctx, file)
	}, ClassifyUpstream)
	if err != nil {
		return nil, NormalizeUpstream(err)
	}
	return ref, nil
}

func (g *guardedUploader) Release(ctx context.Context, ref *domain.AttachmentRef) error {
	return g.uploader.Release(ctx, ref)
}

// ClassifyUpstream decides retry and breaker accounting for provider errors.
func ClassifyUpstream(err error) ErrorClassification {
	if err == nil {
		return ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || domain.IsKind(err, domain.ErrNotConfigured) {
		return ErrorClassification{Retryable: false, RecordFailure: false}
	}
	if errors.Is(err, ErrAttemptTimeout) {
		return ErrorClassification{Retryable: true, RecordFailure: true}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorClassification{Retryable: false, RecordFailure: false}
	}

	var upstream *domain.UpstreamError
	if errors.As(err, &upstream) {
		if isRetryableStatus(upstream.Status) {
			return ErrorClassification{Retryable: true, RecordFailure: true}
		}
		return ErrorClassification{Retryable: false, RecordFailure: false}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return ErrorClassification{Retryable: true, RecordFailure: true}
	}

	return ErrorClassification{Retryable: false, RecordFailure: true}
}

// NormalizeUpstream turns executor failures into UpstreamError values with
// a status the HTTP layer can forward.
func NormalizeUpstream(err error) error {
	if err == nil {
		return nil
	}
	if IsCircuitOpen(err) {
		return domain.NewUpstreamError(http.StatusServiceUnavailable, "model provider is temporarily unavailable", err)
	}
	if errors.Is(err, ErrAttemptTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return domain.NewUpstreamError(http.StatusGatewayTimeout, "model request timed out", err)
	}
	return err
}

func isRetryableStatus(status int) bool {
	switch status {
	case http.StatusRequestTimeout, http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
