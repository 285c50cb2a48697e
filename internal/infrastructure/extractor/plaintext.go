package extractor

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kirillkom/notes-transformer/internal/core/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func extractPlainText(file *domain.Attachment) (string, error) {
	raw := bytes.TrimPrefix(file.Data, utf8BOM)
	if !utf8.Valid(raw) {
		return "", domain.WrapError(domain.ErrUnsupportedFile, "extract text", fmt.Errorf("unsupported binary format: %s", file.Filename))
	}
	return strings.TrimSpace(string(raw)), nil
}
