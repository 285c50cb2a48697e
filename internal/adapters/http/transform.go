package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/kirillkom/notes-transformer/internal/core/domain"
)

const (
	multipartMemory   = 32 << 20
	multipartOverhead = 1 << 20
	jsonOverhead      = 64 << 10
)

func (rt *Router) transform(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	req, err := rt.decodeTransformRequest(w, r)
	if err != nil {
		rt.writeTransformError(w, r, err)
		return
	}

	result, err := rt.transformer.Transform(r.Context(), req)
	if err != nil {
		rt.writeTransformError(w, r, err)
		return
	}

	if result.RestyleAttempted {
		w.Header().Set("X-Transform-Restyled", strconv.FormatBool(result.Restyled))
	}
	writeJSON(w, http.StatusOK, result.Response)
}

// decodeTransformRequest reads the body once and yields either a text or a
// file request. Multipart bodies carry a file; anything else is JSON.
func (rt *Router) decodeTransformRequest(w http.ResponseWriter, r *http.Request) (domain.TransformRequest, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		return rt.decodeMultipart(w, r)
	}
	return rt.decodeJSON(w, r)
}

func (rt *Router) decodeJSON(w http.ResponseWriter, r *http.Request) (domain.TransformRequest, error) {
	limit := int64(rt.limits.MaxInputChars+rt.limits.MaxNotesChars)*4 + jsonOverhead
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	var body struct {
		Text  *string `json:"text"`
		Notes *string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return domain.TransformRequest{}, &domain.SizeLimitError{
				Subject:   "text",
				Unit:      "characters",
				Limit:     int64(rt.limits.MaxInputChars),
				Actual:    -1,
				BodyBytes: declaredLength(r),
			}
		}
		return domain.TransformRequest{}, domain.WrapError(domain.ErrInvalidInput, "decode json", errors.New("request body must be a JSON object with a string field 'text'"))
	}

	req := domain.NewTextRequest(deref(body.Text), deref(body.Notes))
	return req, req.Validate(rt.limits)
}

func (rt *Router) decodeMultipart(w http.ResponseWriter, r *http.Request) (domain.TransformRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, rt.limits.MaxFileBytes+int64(rt.limits.MaxNotesChars)*4+multipartOverhead)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return domain.TransformRequest{}, &domain.SizeLimitError{
				Subject: "file",
				Unit:    "bytes",
				Limit:   rt.limits.MaxFileBytes,
				Actual:  declaredLength(r),
			}
		}
		return domain.TransformRequest{}, domain.WrapError(domain.ErrInvalidInput, "parse multipart", errors.New("malformed multipart body"))
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	notes := r.PostFormValue("notes")
	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return domain.TransformRequest{}, domain.WrapError(domain.ErrMissingFile, "parse multipart", errors.New("multipart field 'file' is required"))
		}
		return domain.TransformRequest{}, domain.WrapError(domain.ErrInvalidInput, "parse multipart", fmt.Errorf("read field 'file': %w", err))
	}
	defer file.Close()

	if header.Size > rt.limits.MaxFileBytes {
		return domain.TransformRequest{}, &domain.SizeLimitError{
			Subject: "file",
			Unit:    "bytes",
			Limit:   rt.limits.MaxFileBytes,
			Actual:  header.Size,
		}
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return domain.TransformRequest{}, fmt.Errorf("read uploaded file: %w", err)
	}

	req := domain.NewFileRequest(&domain.Attachment{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, notes)
	return req, req.Validate(rt.limits)
}

func (rt *Router) writeTransformError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := mapError(err)
	attrs := []any{
		"request_id", requestIDFromContext(r.Context()),
		"status", status,
		"error", err,
	}
	if status >= 500 {
		slog.Error("transform_failed", attrs...)
	} else {
		slog.Warn("transform_rejected", attrs...)
	}
	writeError(w, status, message)
}

// declaredLength is the Content-Length of r, or -1 for chunked bodies.
func declaredLength(r *http.Request) int64 {
	if r.ContentLength > 0 {
		return r.ContentLength
	}
	return -1
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
