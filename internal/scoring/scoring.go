// Package scoring ranks source columns against a domain variable using
// fixed-weight, explainable similarity components (spec §4.2 "Column
// Scoring"). It never errors: empty input yields empty output.
package scoring

import (
	"sort"
	"strings"

	"github.com/xrash/smetrics"

	"github.com/rubentalstra/trial-submission-studio/internal/catalog"
)

// ColumnHint is the per-source-column shape summary the ingestion
// collaborator supplies (spec §3 "Column hint").
type ColumnHint struct {
	IsNumeric   bool
	UniqueRatio float64
	NullRatio   float64
	Label       string
}

const (
	weightName   = 0.55
	weightLabel  = 0.25
	weightSuffix = 0.10
	weightType   = 0.10

	// jaroWinklerBoostThreshold/PrefixSize match smetrics' documented
	// defaults for the Winkler prefix bonus.
	jaroWinklerBoostThreshold = 0.7
	jaroWinklerPrefixSize     = 4
)

// Component is one labeled, weighted contribution to a ColumnScore.
type Component struct {
	Label  string
	Weight float64
	Value  float64
}

// ColumnScore is the result of scoring one (variable, source column)
// pair.
type ColumnScore struct {
	SourceColumn string
	Total        float64
	Components   []Component
}

// Score computes the explainable similarity between a domain's variable
// and a single source column/hint pair (spec §4.2). domainCode is the
// owning domain's name (e.g. "AE"), used only for the "starts with the
// domain code" suffix-pattern bonus.
func Score(domainCode string, variable catalog.Variable, sourceColumn string, hint ColumnHint) ColumnScore {
	nameSim := jaroWinkler(normalize(variable.Name), normalize(sourceColumn))

	gloss := variable.Label
	if gloss == "" {
		gloss = variable.Name
	}
	labelSim := 0.0
	if hint.Label != "" {
		labelSim = jaroWinkler(normalize(gloss), normalize(hint.Label))
	}

	suffixBonus := suffixPatternBonus(domainCode, variable, sourceColumn)
	typeScore := typeCompatibility(variable, hint)

	total := weightName*nameSim + weightLabel*labelSim + weightSuffix*suffixBonus + weightType*typeScore
	if total > 1 {
		total = 1
	}

	return ColumnScore{
		SourceColumn: sourceColumn,
		Total:        total,
		Components: []Component{
			{Label: "name_similarity", Weight: weightName, Value: nameSim},
			{Label: "label_similarity", Weight: weightLabel, Value: labelSim},
			{Label: "suffix_pattern", Weight: weightSuffix, Value: suffixBonus},
			{Label: "type_compatibility", Weight: weightType, Value: typeScore},
		},
	}
}

// ScoreAllForVariable ranks every source column for one variable,
// highest score first; ties break by ascending column name (spec §4.2
// determinism requirement).
func ScoreAllForVariable(domainCode string, variable catalog.Variable, columns []string, hints map[string]ColumnHint) []ColumnScore {
	out := make([]ColumnScore, 0, len(columns))
	for _, col := range columns {
		out = append(out, Score(domainCode, variable, col, hints[col]))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].SourceColumn < out[j].SourceColumn
	})
	return out
}

func jaroWinkler(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	return smetrics.JaroWinkler(a, b, jaroWinklerBoostThreshold, jaroWinklerPrefixSize)
}

func suffixPatternBonus(domainCode string, variable catalog.Variable, sourceColumn string) float64 {
	name := strings.ToUpper(variable.Name)
	col := strings.ToUpper(strings.TrimSpace(sourceColumn))

	bonus := 0.0
	switch {
	case hasAnySuffix(name, "DTC", "DATE", "DT"):
		if hasAnySuffix(col, "DTC", "DATE", "DT") {
			bonus += 0.5
		}
	case strings.HasSuffix(name, "SEQ"):
		if strings.HasSuffix(col, "SEQ") {
			bonus += 0.5
		}
	}

	if domainCode != "" && strings.HasPrefix(col, strings.ToUpper(domainCode)) {
		bonus += 0.5
	}

	if bonus > 1 {
		bonus = 1
	}
	return bonus
}

func hasAnySuffix(s string, suffixes ...string) bool {
	for _, suf := range suffixes {
		if strings.HasSuffix(s, suf) {
			return true
		}
	}
	return false
}

func typeCompatibility(variable catalog.Variable, hint ColumnHint) float64 {
	wantNumeric := variable.DataType == catalog.Numeric
	if wantNumeric == hint.IsNumeric {
		return 1
	}
	return 0
}
