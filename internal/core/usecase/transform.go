package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kirillkom/notes-transformer/internal/core/domain"
	"github.com/kirillkom/notes-transformer/internal/core/ports"
	"github.com/kirillkom/notes-transformer/internal/core/prompt"
	"github.com/kirillkom/notes-transformer/internal/core/validation"
)

const truncationMarker = "\n[... input truncated ...]"

type TransformOptions struct {
	Limits             domain.Limits
	TextModel          string
	FileModel          string
	PrimaryTemperature float64
	RestyleTemperature float64
}

func (o TransformOptions) normalize() TransformOptions {
	out := o
	if out.Limits == (domain.Limits{}) {
		out.Limits = domain.DefaultLimits()
	}
	if out.FileModel == "" {
		out.FileModel = out.TextModel
	}
	if out.PrimaryTemperature <= 0 {
		out.PrimaryTemperature = 0.1
	}
	if out.RestyleTemperature <= 0 {
		out.RestyleTemperature = 0.4
	}
	return out
}

type TransformUseCase struct {
	generator ports.StructuredGenerator
	extractor ports.TextExtractor
	observer  ports.TransformObserver
	opts      TransformOptions
}

func NewTransformUseCase(
	generator ports.StructuredGenerator,
	extractor ports.TextExtractor,
	observer ports.TransformObserver,
	opts TransformOptions,
) *TransformUseCase {
	if observer == nil {
		observer = noopObserver{}
	}
	return &TransformUseCase{
		generator: generator,
		extractor: extractor,
		observer:  observer,
		opts:      opts.normalize(),
	}
}

// Transform validates the request, runs the primary pass and, when notes are
// present, a best-effort restyle pass. A failed restyle never fails the
// request: the sanitized primary result is delivered instead.
func (uc *TransformUseCase) Transform(ctx context.Context, req domain.TransformRequest) (*domain.TransformResult, error) {
	if err := req.Validate(uc.opts.Limits); err != nil {
		return nil, err
	}
	if uc.generator == nil {
		return nil, domain.WrapError(domain.ErrNotConfigured, "transform", errors.New("no model provider configured"))
	}

	src, model, ref, release, err := uc.prepareSource(ctx, req)
	if err != nil {
		return nil, err
	}
	defer release()

	primary, err := uc.runPass(ctx, domain.GenerationRequest{
		Pass:        domain.PassPrimary,
		Model:       model,
		System:      prompt.SystemInstruction(),
		User:        prompt.UserInstruction(src, req.Notes),
		Temperature: uc.opts.PrimaryTemperature,
		Attachment:  ref,
	})
	if err != nil {
		return nil, err
	}

	result := &domain.TransformResult{
		Response: primary.response,
		Model:    primary.model,
	}

	if req.HasNotes() {
		result.RestyleAttempted = true
		restyled, err := uc.restyle(ctx, primary.response, req.Notes)
		if err != nil {
			slog.Warn("restyle_fallback", "model", uc.opts.TextModel, "error", err)
		} else {
			result.Response = restyled.response
			result.Restyled = true
		}
		uc.observer.ObserveRestyle(result.Restyled)
	}

	sanitized, dropped := validation.Sanitize(result.Response)
	result.Response = sanitized
	result.DroppedNextActions = dropped
	if dropped > 0 {
		slog.Warn("next_actions_dropped", "count", dropped)
		uc.observer.ObserveDroppedNextActions(dropped)
	}
	return result, nil
}

type passOutput struct {
	response domain.TransformResponse
	model    string
}

func (uc *TransformUseCase) restyle(ctx context.Context, brief domain.TransformResponse, notes string) (*passOutput, error) {
	clean, _ := validation.Sanitize(brief)
	raw, err := json.Marshal(clean)
	if err != nil {
		return nil, fmt.Errorf("encode brief for restyle: %w", err)
	}
	system, user := prompt.RestyleInstruction(string(raw), notes)
	return uc.runPass(ctx, domain.GenerationRequest{
		Pass:        domain.PassRestyle,
		Model:       uc.opts.TextModel,
		System:      system,
		User:        user,
		Temperature: uc.opts.RestyleTemperature,
	})
}

func (uc *TransformUseCase) runPass(ctx context.Context, req domain.GenerationRequest) (*passOutput, error) {
	start := time.Now()

	gen, err := uc.generator.Generate(ctx, req)
	if err != nil {
		err = normalizeUpstreamError(err)
		uc.observer.ObservePass(req.Pass, req.Model, "upstream_error", 0, 0)
		slog.Error("transform_pass",
			"pass", req.Pass,
			"model", req.Model,
			"outcome", "upstream_error",
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err,
		)
		return nil, err
	}

	model := gen.Model
	if model == "" {
		model = req.Model
	}

	response, err := validation.Parse(gen.Text)
	outcome := "ok"
	switch {
	case domain.IsKind(err, domain.ErrMalformedOutput):
		outcome = "malformed_output"
	case domain.IsKind(err, domain.ErrUnexpectedSchema):
		outcome = "unexpected_schema"
	case err != nil:
		outcome = "error"
	}
	uc.observer.ObservePass(req.Pass, model, outcome, gen.PromptTokens, gen.CompletionTokens)

	logAttrs := []any{
		"pass", req.Pass,
		"model", model,
		"outcome", outcome,
		"duration_ms", time.Since(start).Milliseconds(),
		"prompt_tokens", gen.PromptTokens,
		"completion_tokens", gen.CompletionTokens,
	}
	if err != nil {
		slog.Warn("transform_pass", append(logAttrs, "error", err, "raw_bytes", len(gen.Text))...)
		return nil, err
	}
	slog.Info("transform_pass", logAttrs...)

	return &passOutput{response: response, model: model}, nil
}

func (uc *TransformUseCase) prepareSource(
	ctx context.Context,
	req domain.TransformRequest,
) (prompt.Source, string, *domain.AttachmentRef, func(), error) {
	noop := func() {}

	switch req.Kind {
	case domain.PayloadText:
		return prompt.TextSource(req.Text), uc.opts.TextModel, nil, noop, nil
	case domain.PayloadFile:
		file := req.File
		if uploader, ok := uc.generator.(ports.AttachmentUploader); ok && uploader.Supports(file) {
			ref, err := uploader.Upload(ctx, file)
			if err != nil {
				return prompt.Source{}, "", nil, noop, normalizeUpstreamError(err)
			}
			release := func() {
				if err := uploader.Release(context.WithoutCancel(ctx), ref); err != nil {
					slog.Warn("attachment_release_failed", "attachment_id", ref.ID, "error", err)
				}
			}
			return prompt.AttachedFileSource(file.Filename, file.ContentType), uc.opts.FileModel, ref, release, nil
		}

		if uc.extractor == nil {
			return prompt.Source{}, "", nil, noop, domain.WrapError(domain.ErrUnsupportedFile, "prepare source", fmt.Errorf("%s cannot be read by the configured provider", file.Filename))
		}
		text, err := uc.extractor.Extract(ctx, file)
		if err != nil {
			return prompt.Source{}, "", nil, noop, fmt.Errorf("extract file text: %w", err)
		}
		if strings.TrimSpace(text) == "" {
			return prompt.Source{}, "", nil, noop, domain.WrapError(domain.ErrInvalidInput, "prepare source", fmt.Errorf("%s contains no extractable text", file.Filename))
		}
		text = truncateRunes(text, uc.opts.Limits.MaxInputChars)
		return prompt.ExtractedFileSource(file.Filename, file.ContentType, text), uc.opts.FileModel, nil, noop, nil
	default:
		return prompt.Source{}, "", nil, noop, domain.WrapError(domain.ErrInvalidInput, "prepare source", fmt.Errorf("unknown payload kind %q", req.Kind))
	}
}

func normalizeUpstreamError(err error) error {
	var upstream *domain.UpstreamError
	if errors.As(err, &upstream) || domain.IsKind(err, domain.ErrNotConfigured) {
		return err
	}
	return domain.NewUpstreamError(0, "model request failed", err)
}

func truncateRunes(text string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	return string(runes[:limit]) + truncationMarker
}

type noopObserver struct{}

func (noopObserver) ObservePass(domain.Pass, string, string, int, int) {}
func (noopObserver) ObserveRestyle(bool)                               {}
func (noopObserver) ObserveDroppedNextActions(int)                     {}
