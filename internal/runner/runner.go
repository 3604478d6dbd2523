// Package runner is the thin glue shared by the CLI (A6) and HTTP API
// (A7): given a catalog domain, a source, and a study id, it builds
// mapping state (C3), the standardized frame (C4/C7), a validation
// report (C6), and the SUPP sidecar (C5). It holds no business logic
// of its own — every decision it makes calls straight into C1-C7.
package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rubentalstra/trial-submission-studio/internal/aisuggest"
	"github.com/rubentalstra/trial-submission-studio/internal/catalog"
	"github.com/rubentalstra/trial-submission-studio/internal/frame"
	"github.com/rubentalstra/trial-submission-studio/internal/ingest"
	"github.com/rubentalstra/trial-submission-studio/internal/mapping"
	"github.com/rubentalstra/trial-submission-studio/internal/pipeline"
	"github.com/rubentalstra/trial-submission-studio/internal/preview"
	"github.com/rubentalstra/trial-submission-studio/internal/scoring"
	"github.com/rubentalstra/trial-submission-studio/internal/supp"
	"github.com/rubentalstra/trial-submission-studio/internal/validate"
)

// SourceByExtension picks the ingestion adapter (A2) for a local file
// path by extension: .xlsx/.xls use the spreadsheet adapter, everything
// else is treated as delimited text (CSV/TSV auto-detected by tab
// presence).
func SourceByExtension(path string, sheet string) (ingest.Source, func() error, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("runner: open %q: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xls":
		return ingest.NewXLSXSource(f, sheet), f.Close, nil
	default:
		return ingest.NewDelimitedSource(f), f.Close, nil
	}
}

// Loaded holds one ingestion's output, the shape both mapping.New and
// supp.Build consume.
type Loaded struct {
	Headers []string
	Labels  []string
	Rows    [][]string
	Hints   map[string]scoring.ColumnHint
}

// Load runs a Source and wraps its result.
func Load(src ingest.Source) (*Loaded, error) {
	headers, labels, rows, hints, err := src.Load()
	if err != nil {
		return nil, err
	}
	return &Loaded{Headers: headers, Labels: labels, Rows: rows, Hints: hints}, nil
}

// SourceFrame materializes the loaded rows as a frame.Frame, the input
// shape the normalization pipeline expects.
func (l *Loaded) SourceFrame() *frame.Frame {
	return ingest.ToFrame(l.Headers, l.Rows)
}

// LabelMap returns source-column -> label, used by the SUPP builder's
// QLABEL derivation.
func (l *Loaded) LabelMap() map[string]string {
	out := make(map[string]string, len(l.Headers))
	for i, h := range l.Headers {
		if i < len(l.Labels) && l.Labels[i] != "" {
			out[h] = l.Labels[i]
		} else {
			out[h] = h
		}
	}
	return out
}

// Session bundles a domain's mapping state with the loaded source, the
// unit A6/A7 operate on for one domain-edit turn.
type Session struct {
	Catalog *catalog.Catalog
	Domain  catalog.Domain
	StudyID string
	Loaded  *Loaded
	State   *mapping.State
}

// NewSession builds mapping state for domain from loaded, running C2's
// scoring and C3's initial suggestion pass.
func NewSession(cat *catalog.Catalog, domain catalog.Domain, studyID string, loaded *Loaded, threshold float64) *Session {
	state := mapping.New(domain, studyID, loaded.Headers, loaded.Hints, threshold)
	return &Session{Catalog: cat, Domain: domain, StudyID: studyID, Loaded: loaded, State: state}
}

// Build assembles and executes the domain's pipeline (C4/C7) against
// the current mapping state, returning the standardized frame.
func (s *Session) Build(opts pipeline.Options, referenceStarts map[string]string) (*frame.Frame, error) {
	return preview.Build(
		s.Loaded.SourceFrame(),
		s.State.Mappings(),
		s.State.OmittedSet(),
		s.Domain,
		s.StudyID,
		s.Catalog,
		referenceStarts,
		opts,
	)
}

// Suggest consults the AI-assisted suggester (A3) for every variable
// C2's own bipartite pass left Unmapped, offering it only the source
// columns no Accepted binding currently holds. A no-op when client
// isn't configured (spec SPEC_FULL.md §4.10); a per-variable Suggest
// failure leaves that variable Unmapped and does not stop the others.
func (s *Session) Suggest(ctx context.Context, client *aisuggest.Client) error {
	if !client.IsConfigured() {
		return nil
	}
	used := s.State.UsedColumns()
	var candidates []aisuggest.Candidate
	labels := s.Loaded.LabelMap()
	for _, col := range s.State.UnmappedColumns() {
		if used[col] {
			continue
		}
		candidates = append(candidates, aisuggest.Candidate{Column: col, Label: labels[col]})
	}
	if len(candidates) == 0 {
		return nil
	}

	for _, v := range s.Domain.Variables {
		b, err := s.State.Status(v.Name)
		if err != nil || b.Kind != mapping.Unmapped {
			continue
		}
		suggestion, err := client.Suggest(ctx, v.Name, v.Label, candidates)
		if err != nil {
			continue
		}
		if suggestion.Column == "" {
			continue
		}
		if err := s.State.SetAISuggestion(v.Name, suggestion.Column, suggestion.Confidence, nil); err != nil {
			return err
		}
	}
	return nil
}

// Validate runs the validator (C6) over a standardized frame already
// produced by Build.
func (s *Session) Validate(std *frame.Frame) *validate.Report {
	return validate.ValidateDomainWithNotCollected(s.Domain, std, s.Catalog, s.State.NotCollectedSet())
}

// Supp builds the SUPP sidecar (C5) from a standardized frame's
// USUBJID column (and, when configured, the domain's identifying
// variable) plus the session's unmapped source columns.
func (s *Session) Supp(std *frame.Frame, idVar string, overrides map[string]supp.Override) ([]supp.Row, error) {
	usubjidCol, ok := std.Column("USUBJID")
	if !ok {
		return nil, fmt.Errorf("runner: standardized frame has no USUBJID column")
	}

	var idVarVal []string
	if idVar != "" {
		col, ok := std.Column(idVar)
		if !ok {
			return nil, fmt.Errorf("runner: idvar %q not present in standardized frame", idVar)
		}
		idVarVal = col.Values
	}

	unmapped := make(map[string]supp.Override, len(overrides))
	for _, col := range s.State.UnmappedColumns() {
		if ov, ok := overrides[col]; ok {
			unmapped[col] = ov
		}
	}

	return supp.Build(
		s.StudyID,
		s.Domain.Name,
		s.Loaded.SourceFrame(),
		usubjidCol.Values,
		s.Loaded.LabelMap(),
		idVar,
		idVarVal,
		unmapped,
	), nil
}
