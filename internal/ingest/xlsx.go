package ingest

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/rubentalstra/trial-submission-studio/internal/frame"
	"github.com/rubentalstra/trial-submission-studio/internal/scoring"
)

// XLSXSource reads one sheet of an Excel workbook, grounded on the
// teacher's converter.XLSXParser (excelize.OpenReader + GetRows).
type XLSXSource struct {
	r         io.Reader
	sheetName string
}

// NewXLSXSource wraps r for XLSX ingestion. An empty sheetName reads
// the workbook's first sheet.
func NewXLSXSource(r io.Reader, sheetName string) *XLSXSource {
	return &XLSXSource{r: r, sheetName: sheetName}
}

func (s *XLSXSource) Load() ([]string, []string, [][]string, map[string]scoring.ColumnHint, error) {
	f, err := excelize.OpenReader(s.r)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("ingest: open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, nil, nil, fmt.Errorf("ingest: workbook has no sheets")
	}
	sheetName := s.sheetName
	if sheetName == "" {
		sheetName = sheets[0]
	}

	allRows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("ingest: read sheet %q: %w", sheetName, err)
	}
	if len(allRows) == 0 {
		return nil, nil, nil, nil, nil
	}

	headers := dedupeHeaders(sanitizeRow(allRows[0]))
	rows := make([][]string, len(allRows)-1)
	for i, row := range allRows[1:] {
		rows[i] = sanitizeRow(row)
	}
	labels := make([]string, len(headers))
	hints := ComputeHints(headers, labels, rows)
	return headers, labels, rows, hints, nil
}

// ReadXLSX parses the first sheet of an Excel workbook directly into a
// Frame.
func ReadXLSX(r io.Reader) (*frame.Frame, error) {
	headers, _, rows, _, err := NewXLSXSource(r, "").Load()
	if err != nil {
		return nil, err
	}
	return ToFrame(headers, rows), nil
}

// SheetNames lists every sheet in the workbook without parsing rows,
// letting a caller prompt for which sheet to ingest.
func SheetNames(r io.Reader) ([]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("ingest: open xlsx: %w", err)
	}
	defer f.Close()
	return f.GetSheetList(), nil
}
