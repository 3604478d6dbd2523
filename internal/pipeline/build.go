package pipeline

import (
	"strings"

	"github.com/rubentalstra/trial-submission-studio/internal/catalog"
)

// Build infers a Pipeline from a domain's variables using the
// first-match dispatch in spec §4.4. Exactly one rule is emitted per
// variable, in declared order.
func Build(domain catalog.Domain) Pipeline {
	rules := make([]Rule, 0, len(domain.Variables))
	for _, v := range domain.Variables {
		rules = append(rules, inferRule(domain, v))
	}
	return Pipeline{DomainName: domain.Name, Rules: rules}
}

func inferRule(domain catalog.Domain, v catalog.Variable) Rule {
	name := strings.ToUpper(v.Name)

	switch {
	case name == strings.ToUpper(domain.Name)+"SEQ":
		return Rule{TargetVariable: v.Name, Kind: SequenceNumber}
	case name == "USUBJID":
		return Rule{TargetVariable: v.Name, Kind: StudyIDPrefix}
	case name == "STUDYID":
		return Rule{TargetVariable: v.Name, Kind: Constant}
	case strings.HasSuffix(name, "DTC") || name == "DTC":
		return Rule{TargetVariable: v.Name, Kind: Iso8601DateTime}
	case strings.HasSuffix(name, "DT"):
		return Rule{TargetVariable: v.Name, Kind: Iso8601Date}
	case strings.HasSuffix(name, "DUR"):
		return Rule{TargetVariable: v.Name, Kind: Iso8601Duration}
	case strings.HasSuffix(name, "DY"):
		return Rule{TargetVariable: v.Name, Kind: StudyDay, ReferenceVar: "RFSTDTC"}
	case v.DataType == catalog.Numeric:
		return Rule{TargetVariable: v.Name, Kind: NumericConversion}
	case v.CodelistCode != "":
		return Rule{TargetVariable: v.Name, Kind: CtNormalization, CodelistCode: v.CodelistCode}
	default:
		return Rule{TargetVariable: v.Name, Kind: CopyDirect}
	}
}
