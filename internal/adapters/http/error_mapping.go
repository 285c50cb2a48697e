package httpadapter

import (
	"errors"
	"net/http"

	"github.com/kirillkom/notes-transformer/internal/core/domain"
)

const (
	msgMalformedOutput  = "the model returned malformed output, please try again"
	msgUnexpectedSchema = "the model returned an unexpected response shape, please try again"
	msgRateLimited      = "too many requests, retry later"
	msgOverloaded       = "server is overloaded, retry later"
	msgInternal         = "internal server error"
)

// mapError turns a use case error into a status and a public message.
// Provider internals and raw model output never reach the client.
func mapError(err error) (int, string) {
	var sizeErr *domain.SizeLimitError
	var upstream *domain.UpstreamError

	switch {
	case errors.As(err, &sizeErr):
		return http.StatusRequestEntityTooLarge, sizeErr.Error()
	case domain.IsKind(err, domain.ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge, domain.ErrPayloadTooLarge.Error()
	case domain.IsKind(err, domain.ErrMissingFile):
		return http.StatusBadRequest, domain.Detail(err, domain.ErrMissingFile)
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, domain.Detail(err, domain.ErrInvalidInput)
	case domain.IsKind(err, domain.ErrUnsupportedFile):
		return http.StatusBadRequest, domain.Detail(err, domain.ErrUnsupportedFile)
	case domain.IsKind(err, domain.ErrNotConfigured):
		return http.StatusInternalServerError, domain.ErrNotConfigured.Error()
	case errors.As(err, &upstream):
		return upstream.Status, upstream.Message
	case domain.IsKind(err, domain.ErrMalformedOutput):
		return http.StatusBadGateway, msgMalformedOutput
	case domain.IsKind(err, domain.ErrUnexpectedSchema):
		return http.StatusBadGateway, msgUnexpectedSchema
	case domain.IsKind(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests, msgRateLimited
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable, msgOverloaded
	default:
		return http.StatusInternalServerError, msgInternal
	}
}
