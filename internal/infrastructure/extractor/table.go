package extractor

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/notes-transformer/internal/core/domain"
)

const maxTableRows = 5000

func extractCSV(file *domain.Attachment) (string, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(file.Data, utf8BOM)))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	var rows [][]string
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", domain.WrapError(domain.ErrInvalidInput, "extract csv", fmt.Errorf("parse %s: %w", file.Filename, err))
		}
		rows = append(rows, record)
	}
	return renderTable(rows), nil
}

func extractXLSX(file *domain.Attachment) (string, error) {
	book, err := excelize.OpenReader(bytes.NewReader(file.Data))
	if err != nil {
		return "", domain.WrapError(domain.ErrInvalidInput, "extract xlsx", fmt.Errorf("open %s: %w", file.Filename, err))
	}
	defer book.Close()

	var b strings.Builder
	for _, sheet := range book.GetSheetList() {
		rows, err := book.GetRows(sheet)
		if err != nil {
			return "", domain.WrapError(domain.ErrInvalidInput, "extract xlsx", fmt.Errorf("read sheet %q: %w", sheet, err))
		}
		table := renderTable(rows)
		if table == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "Sheet: %s\n", sheet)
		b.WriteString(table)
	}
	return b.String(), nil
}

// renderTable prints rows as a pipe-separated preview. Blank rows are
// skipped and trailing empty cells are trimmed.
func renderTable(rows [][]string) string {
	var b strings.Builder
	written := 0
	for _, row := range rows {
		cells := trimTrailingEmpty(row)
		if len(cells) == 0 {
			continue
		}
		if written == maxTableRows {
			fmt.Fprintf(&b, "\n[... %d more rows ...]", countNonEmpty(rows)-written)
			break
		}
		if written > 0 {
			b.WriteByte('\n')
		}
		for i, cell := range cells {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(strings.TrimSpace(cell))
		}
		written++
	}
	return b.String()
}

func trimTrailingEmpty(row []string) []string {
	end := len(row)
	for end > 0 && strings.TrimSpace(row[end-1]) == "" {
		end--
	}
	return row[:end]
}

func countNonEmpty(rows [][]string) int {
	n := 0
	for _, row := range rows {
		if len(trimTrailingEmpty(row)) > 0 {
			n++
		}
	}
	return n
}
