// Package mapping implements the per-domain mapping state machine (spec
// §4.3 "Mapping State"): for each domain variable, exactly one of
// {Unmapped, Suggested, Accepted, NotCollected, Omitted}.
package mapping

import (
	"sort"

	"github.com/rubentalstra/trial-submission-studio/internal/catalog"
	"github.com/rubentalstra/trial-submission-studio/internal/scoring"
)

// StatusKind is the tagged-union discriminant for a variable's binding.
type StatusKind string

const (
	Unmapped     StatusKind = "unmapped"
	Suggested    StatusKind = "suggested"
	Accepted     StatusKind = "accepted"
	NotCollected StatusKind = "not_collected"
	Omitted      StatusKind = "omitted"
)

// Binding is the full state for one domain variable.
type Binding struct {
	Kind         StatusKind
	SourceColumn string             // set for Suggested/Accepted
	Confidence   float64            // set for Suggested/Accepted
	Components   []scoring.Component // present for Suggested, explains the score
}

// manualConfidence is the fixed confidence recorded for an explicit
// accept_manual binding, which by construction carries no score.
const manualConfidence = 1.0

// State is the mapping state machine for one domain-edit session.
type State struct {
	domain    catalog.Domain
	studyID   string
	columns   []string
	hints     map[string]scoring.ColumnHint
	threshold float64
	bindings  map[string]*Binding
}

// New builds mapping state for a domain, producing the initial
// suggestions from the column-scoring bipartite assignment (spec §4.2
// "Suggestion policy").
func New(domain catalog.Domain, studyID string, columns []string, hints map[string]scoring.ColumnHint, threshold float64) *State {
	s := &State{
		domain:    domain,
		studyID:   studyID,
		columns:   append([]string(nil), columns...),
		hints:     hints,
		threshold: threshold,
		bindings:  make(map[string]*Binding, len(domain.Variables)),
	}
	for _, v := range domain.Variables {
		s.bindings[v.Name] = &Binding{Kind: Unmapped}
	}
	s.suggestAll()
	return s
}

// suggestAll runs the greedy bipartite assignment described in spec
// §4.2: variables are processed in order of their best full-pool score
// descending, each claiming its top-ranked still-available column if
// that column's score clears the acceptance threshold.
func (s *State) suggestAll() {
	type candidate struct {
		variable  catalog.Variable
		bestScore float64
	}
	candidates := make([]candidate, 0, len(s.domain.Variables))
	for _, v := range s.domain.Variables {
		ranked := scoring.ScoreAllForVariable(s.domain.Name, v, s.columns, s.hints)
		best := 0.0
		if len(ranked) > 0 {
			best = ranked[0].Total
		}
		candidates = append(candidates, candidate{variable: v, bestScore: best})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].bestScore != candidates[j].bestScore {
			return candidates[i].bestScore > candidates[j].bestScore
		}
		return candidates[i].variable.Order < candidates[j].variable.Order
	})

	available := make(map[string]bool, len(s.columns))
	for _, c := range s.columns {
		available[c] = true
	}

	for _, cand := range candidates {
		pool := s.availableColumns(available)
		ranked := scoring.ScoreAllForVariable(s.domain.Name, cand.variable, pool, s.hints)
		if len(ranked) == 0 {
			continue
		}
		top := ranked[0]
		if top.Total >= s.threshold {
			s.bindings[cand.variable.Name] = &Binding{
				Kind:         Suggested,
				SourceColumn: top.SourceColumn,
				Confidence:   top.Total,
				Components:   top.Components,
			}
			delete(available, top.SourceColumn)
		}
	}
}

func (s *State) availableColumns(available map[string]bool) []string {
	out := make([]string, 0, len(available))
	for _, c := range s.columns {
		if available[c] {
			out = append(out, c)
		}
	}
	return out
}

// Status returns the current binding for a variable.
func (s *State) Status(variable string) (Binding, error) {
	b, ok := s.bindings[variable]
	if !ok {
		return Binding{}, &VariableNotFoundError{Variable: variable}
	}
	return *b, nil
}

// SetAISuggestion records an externally-sourced suggestion (A3) for a
// variable C2's own bipartite pass left Unmapped. It never overwrites
// a Suggested, Accepted, NotCollected, or Omitted binding — the
// AI-assisted suggester only fills gaps C2 couldn't, and still leaves
// the result in the ordinary Suggested state for the caller to accept
// or reject like any other suggestion.
func (s *State) SetAISuggestion(variable, sourceColumn string, confidence float64, components []scoring.Component) error {
	b, ok := s.bindings[variable]
	if !ok {
		return &VariableNotFoundError{Variable: variable}
	}
	if b.Kind != Unmapped {
		return nil
	}
	if !s.hasColumn(sourceColumn) {
		return &ColumnNotFoundError{Column: sourceColumn}
	}
	if _, held := s.holderOf(sourceColumn, variable); held {
		return nil
	}
	b.Kind = Suggested
	b.SourceColumn = sourceColumn
	b.Confidence = confidence
	b.Components = components
	return nil
}

// AcceptSuggestion promotes a Suggested binding to Accepted, releasing
// any other variable that stale-holds the same column (spec §4.3).
func (s *State) AcceptSuggestion(variable string) error {
	b, ok := s.bindings[variable]
	if !ok {
		return &VariableNotFoundError{Variable: variable}
	}
	if b.Kind != Suggested {
		return nil
	}
	column := b.SourceColumn
	b.Kind = Accepted
	s.releaseColumnExcept(column, variable)
	return nil
}

// AcceptManual binds variable to sourceColumn directly, without going
// through a suggestion (spec §4.3).
func (s *State) AcceptManual(variable, sourceColumn string) error {
	b, ok := s.bindings[variable]
	if !ok {
		return &VariableNotFoundError{Variable: variable}
	}
	if !s.hasColumn(sourceColumn) {
		return &ColumnNotFoundError{Column: sourceColumn}
	}
	if holder, held := s.holderOf(sourceColumn, variable); held {
		return &ColumnAlreadyUsedError{Column: sourceColumn, Variable: holder}
	}
	b.Kind = Accepted
	b.SourceColumn = sourceColumn
	b.Confidence = manualConfidence
	b.Components = nil
	return nil
}

// Clear resets a variable to Unmapped, releasing any source column it
// held.
func (s *State) Clear(variable string) error {
	b, ok := s.bindings[variable]
	if !ok {
		return &VariableNotFoundError{Variable: variable}
	}
	*b = Binding{Kind: Unmapped}
	return nil
}

// SetNotCollected marks a variable as acknowledged-unpopulated. Forbidden
// for Required variables (spec §8 invariant 2).
func (s *State) SetNotCollected(variable string) error {
	v, b, err := s.lookup(variable)
	if err != nil {
		return err
	}
	if v.HasCore && v.Core == catalog.Required {
		return &CannotSetNullOnRequiredError{Variable: variable}
	}
	*b = Binding{Kind: NotCollected}
	return nil
}

// SetOmitted marks a variable as intentionally dropped. Only valid for
// Permissible variables.
func (s *State) SetOmitted(variable string) error {
	v, b, err := s.lookup(variable)
	if err != nil {
		return err
	}
	if !v.HasCore || v.Core != catalog.Permissible {
		return &CannotOmitNonPermissibleError{Variable: variable}
	}
	*b = Binding{Kind: Omitted}
	return nil
}

// UsedColumns returns the set of source columns bound by an Accepted
// variable.
func (s *State) UsedColumns() map[string]bool {
	out := make(map[string]bool)
	for _, b := range s.bindings {
		if b.Kind == Accepted {
			out[b.SourceColumn] = true
		}
	}
	return out
}

// UnmappedColumns returns the complement of UsedColumns within the
// session's source column list.
func (s *State) UnmappedColumns() []string {
	used := s.UsedColumns()
	out := make([]string, 0, len(s.columns))
	for _, c := range s.columns {
		if !used[c] {
			out = append(out, c)
		}
	}
	return out
}

// Summary returns the count of variables in each status.
func (s *State) Summary() map[StatusKind]int {
	out := map[StatusKind]int{
		Unmapped: 0, Suggested: 0, Accepted: 0, NotCollected: 0, Omitted: 0,
	}
	for _, b := range s.bindings {
		out[b.Kind]++
	}
	return out
}

// PersistedBinding is the plain, serialization-friendly projection of a
// Binding, used by ToConfig and by the session-persistence adapter.
type PersistedBinding struct {
	Status       StatusKind `json:"status"`
	SourceColumn string     `json:"source_column,omitempty"`
	Confidence   float64    `json:"confidence,omitempty"`
}

// Restore rebuilds mapping state for a domain from a previously
// persisted projection, re-scoring against the current columns/hints
// (spec §6 "Project persistence → core", A4): an Accepted binding whose
// source column is no longer present downgrades to Unmapped, while an
// Accepted binding whose column still exists is reinstated, releasing
// any fresh suggestion that holds that column. Persisted Suggested
// bindings are not reinstated; those variables keep whatever New's
// scoring produces. NotCollected and Omitted never depend on a source
// column and always survive restore.
func Restore(domain catalog.Domain, studyID string, columns []string, hints map[string]scoring.ColumnHint, threshold float64, persisted map[string]PersistedBinding) *State {
	s := New(domain, studyID, columns, hints, threshold)
	for _, v := range domain.Variables {
		p, ok := persisted[v.Name]
		if !ok {
			continue
		}
		switch p.Status {
		case Accepted:
			if !s.hasColumn(p.SourceColumn) {
				_ = s.Clear(v.Name)
				continue
			}
			s.releaseColumnExcept(p.SourceColumn, v.Name)
			_ = s.AcceptManual(v.Name, p.SourceColumn)
		case NotCollected:
			_ = s.SetNotCollected(v.Name)
		case Omitted:
			_ = s.SetOmitted(v.Name)
		}
	}
	return s
}

// ToConfig returns the persistable projection of the whole mapping
// state (spec §6 "Project persistence").
func (s *State) ToConfig() map[string]PersistedBinding {
	out := make(map[string]PersistedBinding, len(s.bindings))
	for name, b := range s.bindings {
		out[name] = PersistedBinding{
			Status:       b.Kind,
			SourceColumn: b.SourceColumn,
			Confidence:   b.Confidence,
		}
	}
	return out
}

// Mappings returns the current variable -> accepted source column map,
// the shape the normalization pipeline (C4) consumes as its Context.
func (s *State) Mappings() map[string]string {
	out := make(map[string]string)
	for name, b := range s.bindings {
		if b.Kind == Accepted {
			out[name] = b.SourceColumn
		}
	}
	return out
}

// NotCollectedSet returns the variable names currently NotCollected, the
// shape the validator (C6) needs to suppress ExpectedMissing issues.
func (s *State) NotCollectedSet() map[string]bool {
	out := make(map[string]bool)
	for name, b := range s.bindings {
		if b.Kind == NotCollected {
			out[name] = true
		}
	}
	return out
}

// OmittedSet returns the variable names currently Omitted, the shape the
// preview composer (C7) needs to skip their pipeline rules.
func (s *State) OmittedSet() map[string]bool {
	out := make(map[string]bool)
	for name, b := range s.bindings {
		if b.Kind == Omitted {
			out[name] = true
		}
	}
	return out
}

func (s *State) lookup(variable string) (catalog.Variable, *Binding, error) {
	b, ok := s.bindings[variable]
	if !ok {
		return catalog.Variable{}, nil, &VariableNotFoundError{Variable: variable}
	}
	v, ok := s.domain.Variable(variable)
	if !ok {
		return catalog.Variable{}, nil, &VariableNotFoundError{Variable: variable}
	}
	return v, b, nil
}

func (s *State) hasColumn(column string) bool {
	for _, c := range s.columns {
		if c == column {
			return true
		}
	}
	return false
}

// holderOf reports whether some variable other than exclude holds
// column as Accepted or Suggested.
func (s *State) holderOf(column, exclude string) (string, bool) {
	for name, b := range s.bindings {
		if name == exclude {
			continue
		}
		if (b.Kind == Accepted || b.Kind == Suggested) && b.SourceColumn == column {
			return name, true
		}
	}
	return "", false
}

func (s *State) releaseColumnExcept(column, exclude string) {
	for name, b := range s.bindings {
		if name == exclude {
			continue
		}
		if (b.Kind == Accepted || b.Kind == Suggested) && b.SourceColumn == column {
			*b = Binding{Kind: Unmapped}
		}
	}
}
