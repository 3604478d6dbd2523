package ingest

import (
	"strconv"
	"strings"

	"github.com/rubentalstra/trial-submission-studio/internal/frame"
	"github.com/rubentalstra/trial-submission-studio/internal/scoring"
)

// ComputeHints derives a scoring.ColumnHint per header from the raw rows
// plus the (possibly blank) label row, grounded on the numeric/shape
// heuristics in the teacher's converter/header_detect.go: a column is
// "numeric" when every non-empty cell parses as a number, its
// unique_ratio/null_ratio are plain set-cardinality and emptiness
// fractions, and its label is the caller-supplied label row entry, or
// the header itself when that entry is blank (adapters without a true
// label row pass blank labels).
func ComputeHints(headers, labels []string, rows [][]string) map[string]scoring.ColumnHint {
	hints := make(map[string]scoring.ColumnHint, len(headers))
	for col, h := range headers {
		seen := make(map[string]struct{})
		numeric := true
		nonEmpty := 0
		nullCount := 0
		for _, row := range rows {
			var v string
			if col < len(row) {
				v = row[col]
			}
			if strings.TrimSpace(v) == "" || v == frame.Missing {
				nullCount++
				continue
			}
			nonEmpty++
			seen[v] = struct{}{}
			if numeric && !looksNumeric(v) {
				numeric = false
			}
		}
		total := len(rows)
		label := ""
		if col < len(labels) {
			label = labels[col]
		}
		if label == "" {
			label = h
		}

		hint := scoring.ColumnHint{Label: label}
		if total > 0 {
			hint.NullRatio = float64(nullCount) / float64(total)
		}
		if nonEmpty > 0 {
			hint.UniqueRatio = float64(len(seen)) / float64(nonEmpty)
			hint.IsNumeric = numeric
		}
		hints[h] = hint
	}
	return hints
}

// looksNumeric accepts the same lenient numeric surface as
// pipeline.NumericConversion: internal whitespace, thousands
// separators, scientific notation, and the nan/inf tokens.
func looksNumeric(v string) bool {
	trimmed := strings.TrimSpace(v)
	lower := strings.ToLower(trimmed)
	switch lower {
	case "nan", "inf", "-inf", "+inf":
		return true
	}
	cleaned := strings.ReplaceAll(trimmed, ",", "")
	cleaned = strings.Join(strings.Fields(cleaned), "")
	_, err := strconv.ParseFloat(cleaned, 64)
	return err == nil
}
