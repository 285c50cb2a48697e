package domain

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

type PayloadKind string

const (
	PayloadText PayloadKind = "text"
	PayloadFile PayloadKind = "file"
)

// Limits are the configured input ceilings enforced before any model call.
type Limits struct {
	MaxInputChars int
	MaxFileBytes  int64
	MaxNotesChars int
}

func DefaultLimits() Limits {
	return Limits{
		MaxInputChars: 100_000,
		MaxFileBytes:  10 << 20,
		MaxNotesChars: 10_000,
	}
}

// Attachment is an uploaded file held in memory for one request.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

func (a *Attachment) Size() int64 {
	if a == nil {
		return 0
	}
	return int64(len(a.Data))
}

// TransformRequest carries exactly one primary payload selected by Kind.
type TransformRequest struct {
	Kind  PayloadKind
	Text  string
	File  *Attachment
	Notes string
}

func NewTextRequest(text, notes string) TransformRequest {
	return TransformRequest{Kind: PayloadText, Text: text, Notes: notes}
}

func NewFileRequest(file *Attachment, notes string) TransformRequest {
	return TransformRequest{Kind: PayloadFile, File: file, Notes: notes}
}

// HasNotes reports whether the request carries style notes worth a restyle pass.
func (r TransformRequest) HasNotes() bool {
	return strings.TrimSpace(r.Notes) != ""
}

func (r TransformRequest) Validate(limits Limits) error {
	if n := utf8.RuneCountInString(r.Notes); limits.MaxNotesChars > 0 && n > limits.MaxNotesChars {
		return WrapError(ErrInvalidInput, "validate request", fmt.Errorf("notes must be at most %d characters", limits.MaxNotesChars))
	}

	switch r.Kind {
	case PayloadText:
		n := utf8.RuneCountInString(r.Text)
		if n == 0 {
			return WrapError(ErrInvalidInput, "validate request", errors.New("text is required"))
		}
		if limits.MaxInputChars > 0 && n > limits.MaxInputChars {
			return &SizeLimitError{Subject: "text", Unit: "characters", Limit: int64(limits.MaxInputChars), Actual: int64(n)}
		}
		return nil
	case PayloadFile:
		if r.File == nil {
			return WrapError(ErrMissingFile, "validate request", errors.New("multipart field 'file' is required"))
		}
		if limits.MaxFileBytes > 0 && r.File.Size() > limits.MaxFileBytes {
			return &SizeLimitError{Subject: "file", Unit: "bytes", Limit: limits.MaxFileBytes, Actual: r.File.Size()}
		}
		return nil
	default:
		return WrapError(ErrInvalidInput, "validate request", fmt.Errorf("unknown payload kind %q", r.Kind))
	}
}

type Section struct {
	Heading string   `json:"heading"`
	Bullets []string `json:"bullets"`
}

type NextAction struct {
	Action    string `json:"action"`
	FirstStep string `json:"first_step"`
}

// TransformResponse is the structured document returned to the caller.
type TransformResponse struct {
	Title       string       `json:"title"`
	Summary     string       `json:"summary"`
	Sections    []Section    `json:"sections"`
	NextActions []NextAction `json:"next_actions"`
}

// TransformResult is the pipeline outcome; only Response leaves the process.
type TransformResult struct {
	Response           TransformResponse
	Model              string
	RestyleAttempted   bool
	Restyled           bool
	DroppedNextActions int
}
