package pipeline

import "github.com/rubentalstra/trial-submission-studio/internal/catalog"

// Options are the execution-time configuration knobs enumerated in
// spec §6.
type Options struct {
	// CTMatching toggles punctuation/whitespace-insensitive codelist
	// lookup; defaults to catalog.Lenient.
	CTMatching catalog.MatchMode
	// OtherFallback maps invalid values to a non-extensible codelist's
	// OTHER term, when one exists.
	OtherFallback bool
	// UnknownFallback maps unknown-like synonyms (UNK, Unknown, U) to
	// a codelist's UNKNOWN/U term, when one exists. Defaults to true.
	UnknownFallback bool
	// CustomMaps are highest-priority raw->submission overrides applied
	// before codelist lookup.
	CustomMaps map[string]string
	// PreserveOnError keeps the raw value on a rule failure instead of
	// emitting missing. Defaults to true.
	PreserveOnError bool
}

// DefaultOptions matches the spec's stated defaults.
func DefaultOptions() Options {
	return Options{
		CTMatching:      catalog.Lenient,
		UnknownFallback: true,
		PreserveOnError: true,
	}
}

// Context carries everything a pipeline execution needs beyond the
// source frame itself (spec §4.4 "Context").
type Context struct {
	StudyID    string
	DomainName string
	// Mappings is variable name -> source column name.
	Mappings map[string]string
	// ReferenceStarts is subject (post-prefix USUBJID) -> RFSTDTC ISO
	// date, supplied by the orchestrator for non-DM domains' StudyDay
	// rule. DM supplies its own RFSTDTC from within the same frame.
	ReferenceStarts map[string]string
	Terminology     *catalog.Catalog
	Options         Options
}
