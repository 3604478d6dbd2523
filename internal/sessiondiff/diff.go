// Package sessiondiff renders the change between two mapping-session
// snapshots as a unified diff, so a restore that re-scores stale
// bindings can show the user exactly what moved instead of silently
// mutating their mapping (spec SPEC_FULL.md §4.12).
package sessiondiff

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/rubentalstra/trial-submission-studio/internal/mapping"
)

// Line is one line of a unified diff hunk.
type Line struct {
	Type    string `json:"type"` // "add", "remove", "context"
	Content string `json:"content"`
}

// Hunk groups contiguous changed (plus surrounding context) lines.
type Hunk struct {
	OldStart int    `json:"old_start"`
	NewStart int    `json:"new_start"`
	Lines    []Line `json:"lines"`
}

// Diff is the full rendering of a restore's effect on a mapping.
type Diff struct {
	Hunks   []Hunk `json:"hunks"`
	Added   int    `json:"added_lines"`
	Removed int    `json:"removed_lines"`
}

const contextLines = 3

// Render computes the unified diff between two persisted binding sets,
// one line per variable in the form "VARIABLE: status source_column".
func Render(oldBindings, newBindings map[string]mapping.PersistedBinding) *Diff {
	oldLines := renderLines(oldBindings)
	newLines := renderLines(newBindings)

	matcher := difflib.NewMatcher(oldLines, newLines)
	opcodes := matcher.GetOpCodes()

	var hunks []Hunk
	added, removed := 0, 0

	for _, op := range opcodes {
		if op.Tag == 'e' {
			continue
		}
		hunk := Hunk{
			OldStart: op.I1 + 1,
			NewStart: op.J1 + 1,
		}
		ctxStart := op.I1 - contextLines
		if ctxStart < 0 {
			ctxStart = 0
		}
		for i := ctxStart; i < op.I1; i++ {
			hunk.Lines = append(hunk.Lines, Line{Type: "context", Content: oldLines[i]})
		}
		switch op.Tag {
		case 'd':
			for i := op.I1; i < op.I2; i++ {
				hunk.Lines = append(hunk.Lines, Line{Type: "remove", Content: oldLines[i]})
				removed++
			}
		case 'i':
			for j := op.J1; j < op.J2; j++ {
				hunk.Lines = append(hunk.Lines, Line{Type: "add", Content: newLines[j]})
				added++
			}
		case 'r':
			for i := op.I1; i < op.I2; i++ {
				hunk.Lines = append(hunk.Lines, Line{Type: "remove", Content: oldLines[i]})
				removed++
			}
			for j := op.J1; j < op.J2; j++ {
				hunk.Lines = append(hunk.Lines, Line{Type: "add", Content: newLines[j]})
				added++
			}
		}
		ctxEnd := op.I2 + contextLines
		if ctxEnd > len(oldLines) {
			ctxEnd = len(oldLines)
		}
		for i := op.I2; i < ctxEnd; i++ {
			hunk.Lines = append(hunk.Lines, Line{Type: "context", Content: oldLines[i]})
		}
		hunks = append(hunks, hunk)
	}

	return &Diff{Hunks: hunks, Added: added, Removed: removed}
}

func renderLines(bindings map[string]mapping.PersistedBinding) []string {
	names := make([]string, 0, len(bindings))
	for name := range bindings {
		names = append(names, name)
	}
	sort.Strings(names)

	lines := make([]string, 0, len(names))
	for _, name := range names {
		b := bindings[name]
		lines = append(lines, fmt.Sprintf("%s: %s %s", name, b.Status, b.SourceColumn))
	}
	return lines
}

// String renders a Diff the way a CLI would print it.
func (d *Diff) String() string {
	var b strings.Builder
	for _, h := range d.Hunks {
		fmt.Fprintf(&b, "@@ -%d +%d @@\n", h.OldStart, h.NewStart)
		for _, l := range h.Lines {
			switch l.Type {
			case "add":
				b.WriteString("+ " + l.Content + "\n")
			case "remove":
				b.WriteString("- " + l.Content + "\n")
			default:
				b.WriteString("  " + l.Content + "\n")
			}
		}
	}
	return b.String()
}
