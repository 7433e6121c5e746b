// Package inspect builds a short local preview of a file before it is sent
// for analysis.
package inspect

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/ledongthuc/pdf"

	"github.com/csheth/datachat/internal/backend"
)

const (
	maxPreviewColumns = 6
	maxExcerptRunes   = 160
)

// Kind classifies a previewed file.
type Kind string

const (
	KindCSV   Kind = "csv"
	KindPDF   Kind = "pdf"
	KindOther Kind = "file"
)

// Preview summarizes a file in a few display lines. Warning is set when the
// content could not be parsed as its extension suggests; the file can still
// be uploaded.
type Preview struct {
	Kind    Kind
	Lines   []string
	Warning string
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// Describe inspects the file by extension.
func Describe(file backend.File) Preview {
	size := humanize.Bytes(uint64(file.Size()))
	switch strings.ToLower(filepath.Ext(file.Name)) {
	case ".csv":
		lines, err := describeCSV(file.Data)
		if err != nil {
			return Preview{Kind: KindCSV, Lines: []string{size}, Warning: fmt.Sprintf("not a readable CSV table: %v", err)}
		}
		return Preview{Kind: KindCSV, Lines: append(lines, size)}
	case ".pdf":
		lines, err := describePDF(file.Data)
		if err != nil {
			return Preview{Kind: KindPDF, Lines: []string{size}, Warning: fmt.Sprintf("not a readable PDF: %v", err)}
		}
		return Preview{Kind: KindPDF, Lines: append(lines, size)}
	default:
		contentType := http.DetectContentType(file.Data)
		return Preview{Kind: KindOther, Lines: []string{fmt.Sprintf("%s, %s", contentType, size)}}
	}
}

func describeCSV(data []byte) ([]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errors.New("file is empty")
	}
	header := make([]string, 0, len(records[0]))
	for _, column := range records[0] {
		header = append(header, strings.TrimSpace(column))
	}
	rows := len(records) - 1
	lines := []string{
		fmt.Sprintf("CSV table: %d %s × %d %s", rows, plural(rows, "row", "rows"), len(header), plural(len(header), "column", "columns")),
		"Columns: " + shortenList(header, maxPreviewColumns),
	}
	return lines, nil
}

func describePDF(data []byte) (lines []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			lines = nil
			err = fmt.Errorf("malformed document: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	pages := reader.NumPage()
	lines = []string{fmt.Sprintf("PDF document: %d %s", pages, plural(pages, "page", "pages"))}

	content, err := reader.GetPlainText()
	if err != nil {
		return lines, nil
	}
	var builder strings.Builder
	if _, err := io.Copy(&builder, io.LimitReader(content, 4*maxExcerptRunes)); err != nil {
		return lines, nil
	}
	if text := excerpt(builder.String(), maxExcerptRunes); text != "" {
		lines = append(lines, "Excerpt: "+text)
	}
	return lines, nil
}

func excerpt(text string, limit int) string {
	text = whitespaceRe.ReplaceAllString(strings.TrimSpace(text), " ")
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return strings.TrimSpace(string(runes[:limit])) + "…"
}

func shortenList(items []string, limit int) string {
	if len(items) <= limit {
		return strings.Join(items, ", ")
	}
	return fmt.Sprintf("%s, … (+%d)", strings.Join(items[:limit], ", "), len(items)-limit)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
