// Package pipeline implements the per-domain normalization pipeline
// (spec §4.4): a closed set of rule types is inferred from a domain's
// variables, then executed over a source frame to produce a
// standardized frame.
package pipeline

// Kind is the closed tagged-union discriminant for a Rule.
type Kind string

const (
	CopyDirect        Kind = "copy_direct"
	Constant          Kind = "constant"
	StudyIDPrefix     Kind = "study_id_prefix"
	SequenceNumber    Kind = "sequence_number"
	CtNormalization   Kind = "ct_normalization"
	Iso8601Date       Kind = "iso8601_date"
	Iso8601DateTime   Kind = "iso8601_datetime"
	Iso8601Duration   Kind = "iso8601_duration"
	StudyDay          Kind = "study_day"
	NumericConversion Kind = "numeric_conversion"
)

// Rule is one step of a Pipeline. Only the fields relevant to Kind are
// populated; this mirrors a tagged union without resorting to an
// interface per variant, keeping rule dispatch a plain switch.
type Rule struct {
	TargetVariable string
	Kind           Kind

	// ConstantValue is used by Constant when TargetVariable isn't
	// STUDYID (no other variable currently triggers Constant via
	// inference, but the field exists so the variant is honored).
	ConstantValue string

	// CodelistCode is used by CtNormalization; may carry a sub-code
	// suffix ("VSTESTCD;SYSBP").
	CodelistCode string

	// ReferenceVar is used by StudyDay; always "RFSTDTC" per inference
	// rule 7, kept as a field rather than a constant for clarity at
	// call sites and to mirror the spec's rule literal.
	ReferenceVar string
}

// Pipeline is an ordered sequence of rules, one (at most) per domain
// variable, in the domain's declared variable order.
type Pipeline struct {
	DomainName string
	Rules      []Rule
}
