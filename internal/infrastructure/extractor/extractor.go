// Package extractor turns uploaded files into plain text for providers that
// cannot read the file natively.
package extractor

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kirillkom/notes-transformer/internal/core/domain"
)

type format int

const (
	formatUnknown format = iota
	formatText
	formatPDF
	formatXLSX
	formatCSV
	formatImage
)

type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Extract(ctx context.Context, file *domain.Attachment) (string, error) {
	if file == nil {
		return "", domain.WrapError(domain.ErrMissingFile, "extract", fmt.Errorf("no file"))
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	switch detect(file) {
	case formatPDF:
		return extractPDF(file)
	case formatXLSX:
		return extractXLSX(file)
	case formatCSV:
		return extractCSV(file)
	case formatText:
		return extractPlainText(file)
	case formatImage:
		return "", domain.WrapError(domain.ErrUnsupportedFile, "extract", fmt.Errorf("%s is an image and the configured provider cannot read images", file.Filename))
	default:
		// Unknown types are accepted when they decode as UTF-8 text.
		return extractPlainText(file)
	}
}

func detect(file *domain.Attachment) format {
	ct := strings.ToLower(strings.TrimSpace(file.ContentType))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}

	switch {
	case ct == "application/pdf":
		return formatPDF
	case ct == "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		return formatXLSX
	case ct == "text/csv" || ct == "application/csv":
		return formatCSV
	case strings.HasPrefix(ct, "image/"):
		return formatImage
	}

	switch strings.ToLower(filepath.Ext(file.Filename)) {
	case ".pdf":
		return formatPDF
	case ".xlsx", ".xlsm":
		return formatXLSX
	case ".csv":
		return formatCSV
	case ".png", ".jpg", ".jpeg", ".gif", ".webp":
		return formatImage
	case ".txt", ".md", ".markdown", ".json", ".log", ".tsv":
		return formatText
	}

	if strings.HasPrefix(ct, "text/") || ct == "application/json" {
		return formatText
	}
	if strings.HasPrefix(string(file.Data), "%PDF-") {
		return formatPDF
	}
	return formatUnknown
}
