// Package ingest reads source data files into the shape the rest of
// the system consumes: a small Source interface yielding headers,
// optional per-column labels, raw rows, and derived ColumnHints, plus
// a ToFrame helper to materialize those rows as a frame.Frame once a
// domain mapping is ready to run. CSV/TSV parsing is grounded on the
// teacher's internal/converter/paste_parser.go, XLSX on
// internal/converter/xlsx_parser.go, and cell sanitization on
// internal/converter/sanitizer.go.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/rubentalstra/trial-submission-studio/internal/frame"
	"github.com/rubentalstra/trial-submission-studio/internal/scoring"
)

// MaxCellLength is the rune count past which a cell is truncated: only
// its first MaxCellLength runes are kept, followed by "...", matching the
// teacher's sanitizer.MaxCellLength guard against pathological input.
const MaxCellLength = 1000

// Source is implemented by every ingestion adapter (delimited, XLSX,
// Google Sheets): it yields column headers, an optional parallel label
// row (blank entries when the source carries none), the data rows, and
// the derived per-column hints scoring uses.
type Source interface {
	Load() (headers []string, labels []string, rows [][]string, hints map[string]scoring.ColumnHint, err error)
}

// DelimitedSource reads CSV or TSV text, detecting the delimiter by tab
// presence exactly as the teacher's paste parser does.
type DelimitedSource struct {
	r io.Reader
}

// NewDelimitedSource wraps r for CSV/TSV ingestion.
func NewDelimitedSource(r io.Reader) *DelimitedSource {
	return &DelimitedSource{r: r}
}

func (s *DelimitedSource) Load() ([]string, []string, [][]string, map[string]scoring.ColumnHint, error) {
	buf, err := io.ReadAll(s.r)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("ingest: read source: %w", err)
	}
	text := string(buf)

	comma := ','
	if strings.Contains(text, "\t") {
		comma = '\t'
	}
	headers, rows, err := parseDelimited(strings.NewReader(text), comma)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	labels := make([]string, len(headers))
	hints := ComputeHints(headers, labels, rows)
	return headers, labels, rows, hints, nil
}

// ReadCSV parses comma-separated source data directly into a Frame,
// for callers that already know their delimiter and don't need hints.
func ReadCSV(r io.Reader) (*frame.Frame, error) {
	headers, rows, err := parseDelimited(r, ',')
	if err != nil {
		return nil, err
	}
	return ToFrame(headers, rows), nil
}

// ReadTSV parses tab-separated source data directly into a Frame.
func ReadTSV(r io.Reader) (*frame.Frame, error) {
	headers, rows, err := parseDelimited(r, '\t')
	if err != nil {
		return nil, err
	}
	return ToFrame(headers, rows), nil
}

func parseDelimited(r io.Reader, comma rune) ([]string, [][]string, error) {
	reader := csv.NewReader(r)
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("ingest: read records: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, nil
	}

	headers := dedupeHeaders(sanitizeRow(records[0]))
	rows := make([][]string, len(records)-1)
	for i, row := range records[1:] {
		rows[i] = sanitizeRow(row)
	}
	return headers, rows, nil
}

// ToFrame materializes parsed headers/rows as a row-aligned Frame named
// "source", the shape the normalization pipeline and mapping scorer
// both expect as input.
func ToFrame(headers []string, rows [][]string) *frame.Frame {
	f := frame.New("source", headers, len(rows))
	for colIdx, h := range headers {
		values := make([]string, len(rows))
		for r, row := range rows {
			if colIdx < len(row) {
				values[r] = row[colIdx]
			} else {
				values[r] = frame.Missing
			}
		}
		f.SetColumn(h, values)
	}
	return f
}

func sanitizeRow(row []string) []string {
	out := make([]string, len(row))
	for i, c := range row {
		out[i] = sanitizeCell(c)
	}
	return out
}

// sanitizeCell applies NFKC normalization and trims surrounding
// whitespace, truncating runaway cell content the same way the teacher
// guards against pathological paste input.
func sanitizeCell(s string) string {
	s = norm.NFKC.String(s)
	s = strings.TrimSpace(s)
	if n := len([]rune(s)); n > MaxCellLength {
		runes := []rune(s)
		s = string(runes[:MaxCellLength]) + "..."
	}
	return s
}

func dedupeHeaders(headers []string) []string {
	seen := make(map[string]int, len(headers))
	out := make([]string, len(headers))
	for i, h := range headers {
		if h == "" {
			h = fmt.Sprintf("column_%d", i+1)
		}
		n := seen[h]
		seen[h] = n + 1
		if n == 0 {
			out[i] = h
		} else {
			out[i] = fmt.Sprintf("%s_%d", h, n+1)
		}
	}
	return out
}
