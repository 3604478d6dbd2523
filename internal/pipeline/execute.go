package pipeline

import (
	"strconv"
	"strings"

	"github.com/rubentalstra/trial-submission-studio/internal/frame"
)

// Execute runs a Pipeline over a source frame under ctx, producing a
// standardized frame whose columns equal the pipeline's target
// variables in order (spec §4.4 "Execution semantics").
//
// Rules execute in three passes because StudyDay and SequenceNumber
// both depend on another rule's output within the same run:
// StudyIDPrefix/Constant/CopyDirect/CtNormalization/numeric/date rules
// first, then StudyDay (needs the subject id and the sibling --DTC
// column), then SequenceNumber (needs the subject id) last, matching
// "SequenceNumber is computed after all other rules".
func Execute(source *frame.Frame, p Pipeline, ctx Context) (*frame.Frame, error) {
	names := make([]string, len(p.Rules))
	for i, r := range p.Rules {
		names[i] = r.TargetVariable
	}
	out := frame.New(p.DomainName, names, source.RowCount)

	values := make(map[string][]string, len(p.Rules))

	var studyDayRules, seqRules []Rule
	for _, rule := range p.Rules {
		switch rule.Kind {
		case StudyDay:
			studyDayRules = append(studyDayRules, rule)
			continue
		case SequenceNumber:
			seqRules = append(seqRules, rule)
			continue
		}
		col, err := executeRule(rule, source, ctx)
		if err != nil {
			return nil, err
		}
		values[rule.TargetVariable] = col
		out.SetColumn(rule.TargetVariable, col)
	}

	for _, rule := range studyDayRules {
		col := executeStudyDay(rule, source.RowCount, values, ctx)
		values[rule.TargetVariable] = col
		out.SetColumn(rule.TargetVariable, col)
	}

	for _, rule := range seqRules {
		col := executeSequenceNumber(values["USUBJID"], source.RowCount)
		values[rule.TargetVariable] = col
		out.SetColumn(rule.TargetVariable, col)
	}

	return out, nil
}

// mappedColumn resolves the raw input values for a rule's target
// variable, or nil if the variable carries no accepted mapping.
func mappedColumn(rule Rule, source *frame.Frame, ctx Context) ([]string, error) {
	sourceName, mapped := ctx.Mappings[rule.TargetVariable]
	if !mapped {
		return nil, nil
	}
	col, ok := source.Column(sourceName)
	if !ok {
		return nil, &ColumnNotFoundError{Variable: rule.TargetVariable, Column: sourceName}
	}
	return col.Values, nil
}

func executeRule(rule Rule, source *frame.Frame, ctx Context) ([]string, error) {
	switch rule.Kind {
	case Constant:
		return executeConstant(rule, source.RowCount, ctx), nil
	case StudyIDPrefix:
		return executeStudyIDPrefix(rule, source, ctx)
	case CtNormalization:
		return executeCtNormalization(rule, source, ctx)
	case NumericConversion:
		return executeNumericConversion(rule, source, ctx)
	case Iso8601Date, Iso8601DateTime, Iso8601Duration, CopyDirect:
		return executeCopy(rule, source, ctx)
	default:
		return executeCopy(rule, source, ctx)
	}
}

func executeConstant(rule Rule, rowCount int, ctx Context) []string {
	value := rule.ConstantValue
	if strings.EqualFold(rule.TargetVariable, "STUDYID") {
		value = ctx.StudyID
	}
	out := make([]string, rowCount)
	for i := range out {
		out[i] = value
	}
	return out
}

func executeCopy(rule Rule, source *frame.Frame, ctx Context) ([]string, error) {
	raw, err := mappedColumn(rule, source, ctx)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return missingColumn(source.RowCount), nil
	}
	out := make([]string, len(raw))
	for i, v := range raw {
		if frame.IsMissing(v) {
			out[i] = frame.Missing
			continue
		}
		out[i] = v
	}
	return out, nil
}

// executeStudyIDPrefix implements the StudyIdPrefix rule: its input is
// the mapped source column, or a raw column literally named USUBJID
// when the variable itself carries no accepted mapping.
func executeStudyIDPrefix(rule Rule, source *frame.Frame, ctx Context) ([]string, error) {
	raw, err := mappedColumn(rule, source, ctx)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		if col, ok := source.Column("USUBJID"); ok {
			raw = col.Values
		}
	}
	if raw == nil {
		return missingColumn(source.RowCount), nil
	}

	prefix := ctx.StudyID + "-"
	out := make([]string, len(raw))
	for i, v := range raw {
		if frame.IsMissing(v) {
			out[i] = frame.Missing
			continue
		}
		if strings.HasPrefix(v, prefix) {
			out[i] = v
			continue
		}
		out[i] = prefix + v
	}
	return out, nil
}

func executeNumericConversion(rule Rule, source *frame.Frame, ctx Context) ([]string, error) {
	raw, err := mappedColumn(rule, source, ctx)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return missingColumn(source.RowCount), nil
	}
	out := make([]string, len(raw))
	for i, v := range raw {
		if frame.IsMissing(v) {
			out[i] = frame.Missing
			continue
		}
		rendered, ok := parseNumeric(v)
		if !ok {
			if ctx.Options.PreserveOnError {
				out[i] = v
				continue
			}
			out[i] = frame.Missing
			continue
		}
		out[i] = rendered
	}
	return out, nil
}

func executeCtNormalization(rule Rule, source *frame.Frame, ctx Context) ([]string, error) {
	raw, err := mappedColumn(rule, source, ctx)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return missingColumn(source.RowCount), nil
	}
	if ctx.Terminology == nil || rule.CodelistCode == "" {
		return append([]string(nil), raw...), nil
	}
	resolved, rerr := ctx.Terminology.ResolveCodelist(rule.CodelistCode)
	if rerr != nil {
		return append([]string(nil), raw...), nil
	}

	out := make([]string, len(raw))
	for i, v := range raw {
		if frame.IsMissing(v) {
			out[i] = frame.Missing
			continue
		}
		out[i] = ctNormalize(v, resolved, ctx.Options)
	}
	return out, nil
}

// executeStudyDay implements the StudyDay rule. The target date is
// read from the sibling --DTC column already computed in this run
// (e.g. VSDY reads VSDTC); the reference date comes from ctx's
// per-subject reference-start map, or, within DM itself, the frame's
// own RFSTDTC column at the same row.
func executeStudyDay(rule Rule, rowCount int, values map[string][]string, ctx Context) []string {
	out := make([]string, rowCount)
	for i := range out {
		out[i] = frame.Missing
	}

	domainPrefix := strings.TrimSuffix(strings.ToUpper(rule.TargetVariable), "DY")
	dateCol := values[domainPrefix+"DTC"]
	usubjid := values["USUBJID"]
	selfRef := values["RFSTDTC"]

	for i := 0; i < rowCount; i++ {
		if dateCol == nil || i >= len(dateCol) {
			continue
		}
		dateRaw := dateCol[i]
		if frame.IsMissing(dateRaw) {
			continue
		}
		date, ok := completeDate(dateRaw)
		if !ok {
			continue
		}

		refRaw := ""
		if ctx.DomainName == "DM" && selfRef != nil && i < len(selfRef) {
			refRaw = selfRef[i]
		} else if usubjid != nil && i < len(usubjid) && !frame.IsMissing(usubjid[i]) {
			refRaw = ctx.ReferenceStarts[usubjid[i]]
		}
		if refRaw == "" || frame.IsMissing(refRaw) {
			continue
		}
		ref, ok := completeDate(refRaw)
		if !ok {
			continue
		}
		out[i] = strconv.Itoa(studyDayOffset(ref, date))
	}
	return out
}

// executeSequenceNumber groups rows by subject (first-appearance
// order) and assigns dense 1..N sequence numbers (spec §4.4).
func executeSequenceNumber(usubjid []string, rowCount int) []string {
	out := make([]string, rowCount)
	counts := make(map[string]int)
	for i := 0; i < rowCount; i++ {
		if usubjid == nil || i >= len(usubjid) || frame.IsMissing(usubjid[i]) {
			out[i] = frame.Missing
			continue
		}
		subject := usubjid[i]
		counts[subject]++
		out[i] = strconv.Itoa(counts[subject])
	}
	return out
}

func missingColumn(rowCount int) []string {
	out := make([]string, rowCount)
	for i := range out {
		out[i] = frame.Missing
	}
	return out
}
