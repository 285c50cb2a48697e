package domain

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrMissingFile      = errors.New("missing file")
	ErrPayloadTooLarge  = errors.New("payload too large")
	ErrNotConfigured    = errors.New("server is missing model configuration")
	ErrUpstream         = errors.New("upstream failure")
	ErrMalformedOutput  = errors.New("malformed model output")
	ErrUnexpectedSchema = errors.New("unexpected model output schema")
	ErrUnsupportedFile  = errors.New("unsupported file type")
	ErrRateLimited      = errors.New("rate limited")
	ErrTemporary        = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// Detail returns the cause WrapError attached to kind, or the kind itself.
func Detail(err error, kind error) string {
	for err != nil {
		if multi, ok := err.(interface{ Unwrap() []error }); ok {
			errs := multi.Unwrap()
			if len(errs) == 2 && errs[0] == kind && errs[1] != nil {
				return errs[1].Error()
			}
			var next error
			for _, e := range errs {
				if errors.Is(e, kind) {
					next = e
					break
				}
			}
			err = next
			continue
		}
		err = errors.Unwrap(err)
	}
	return kind.Error()
}

// SizeLimitError reports an input that exceeds a configured ceiling.
// Actual is negative when the real size could not be determined; BodyBytes,
// when positive, is the declared size of the request that carried it.
type SizeLimitError struct {
	Subject   string
	Unit      string
	Limit     int64
	Actual    int64
	BodyBytes int64
}

func (e *SizeLimitError) Error() string {
	switch {
	case e.Actual >= 0:
		return fmt.Sprintf("%s exceeds the limit of %d %s (got %d %s)", e.Subject, e.Limit, e.Unit, e.Actual, e.Unit)
	case e.BodyBytes > 0:
		return fmt.Sprintf("%s exceeds the limit of %d %s (request body is %d bytes)", e.Subject, e.Limit, e.Unit, e.BodyBytes)
	default:
		return fmt.Sprintf("%s exceeds the limit of %d %s", e.Subject, e.Limit, e.Unit)
	}
}

func (e *SizeLimitError) Unwrap() error {
	return ErrPayloadTooLarge
}

// UpstreamError is a provider failure normalized to an HTTP-like status and a
// message taken from the provider's error payload.
type UpstreamError struct {
	Status  int
	Message string
	Err     error
}

func NewUpstreamError(status int, message string, err error) *UpstreamError {
	if status < 400 || status > 599 {
		status = http.StatusInternalServerError
	}
	message = strings.TrimSpace(message)
	if message == "" {
		message = http.StatusText(status)
	}
	return &UpstreamError{Status: status, Message: message, Err: err}
}

func (e *UpstreamError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("upstream status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("upstream status %d: %s: %v", e.Status, e.Message, e.Err)
}

func (e *UpstreamError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrUpstream}
	}
	return []error{ErrUpstream, e.Err}
}
