package pipeline

import (
	"strings"

	"github.com/rubentalstra/trial-submission-studio/internal/catalog"
)

// foldsToUnknown reports whether raw, trimmed and upper-cased, is one
// of the "unknown-like" tokens UNK, UNKNOWN or U, regardless of the
// configured match mode.
func foldsToUnknown(raw string) bool {
	s := strings.ToUpper(strings.TrimSpace(raw))
	switch s {
	case "UNK", "UNKNOWN", "U":
		return true
	default:
		return false
	}
}

// ctNormalize applies CtNormalization for a single value per spec §4.4
// and the options in §6: custom_maps first, then the codelist lookup,
// then unknown/other fallbacks, finally preserving the raw value.
func ctNormalize(raw string, resolved catalog.ResolvedCodelist, opts Options) string {
	if mapped, ok := opts.CustomMaps[raw]; ok {
		return mapped
	}
	if sv, ok := resolved.FindSubmissionValue(raw, opts.CTMatching); ok {
		return sv
	}
	if opts.UnknownFallback && foldsToUnknown(raw) {
		if sv, ok := findTermNamed(resolved.Terms, "UNKNOWN", "U"); ok {
			return sv
		}
	}
	if opts.OtherFallback && !resolved.Extensible {
		if sv, ok := findTermNamed(resolved.Terms, "OTHER"); ok {
			return sv
		}
	}
	return raw
}

func findTermNamed(terms []catalog.Term, names ...string) (string, bool) {
	for _, t := range terms {
		for _, n := range names {
			if strings.EqualFold(t.SubmissionValue, n) {
				return t.SubmissionValue, true
			}
		}
	}
	return "", false
}
