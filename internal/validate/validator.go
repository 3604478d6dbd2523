package validate

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/rubentalstra/trial-submission-studio/internal/catalog"
	"github.com/rubentalstra/trial-submission-studio/internal/frame"
)

// partialISO accepts a year, optionally narrowed by month, day, and a
// time-of-day component, matching SDTM's partial-date convention.
var partialISO = regexp.MustCompile(`^\d{4}(-\d{2}(-\d{2}(T\d{2}:\d{2}(:\d{2}(\.\d+)?)?)?)?)?$`)

var timeEndings = []string{"STDTC", "ENDTC", "DTC", "STDT", "ENDT", "DTM", "DT", "TM"}

// ValidateDomain runs every structural/terminology check over a
// standardized frame (spec §4.6).
func ValidateDomain(domain catalog.Domain, f *frame.Frame, terminology *catalog.Catalog) *Report {
	return ValidateDomainWithNotCollected(domain, f, terminology, nil)
}

// ValidateDomainWithNotCollected is ValidateDomain, additionally
// suppressing ExpectedMissing for variables the caller has recorded as
// not_collected.
func ValidateDomainWithNotCollected(domain catalog.Domain, f *frame.Frame, terminology *catalog.Catalog, notCollected map[string]bool) *Report {
	report := &Report{Domain: domain.Name}

	for _, v := range domain.Variables {
		checkRequiredAndExpected(report, v, f, notCollected)
		checkDataType(report, v, f)
		checkInvalidDate(report, v, f)
		checkTextLength(report, v, f)
		checkIdentifierNull(report, v, f)
		checkCtViolation(report, v, f, terminology)
	}
	checkDuplicateSequence(report, domain, f)

	return report
}

func columnOf(f *frame.Frame, name string) (frame.Column, bool) {
	return f.Column(name)
}

func nonMissingValues(col frame.Column) []string {
	out := make([]string, 0, len(col.Values))
	for _, v := range col.Values {
		if !frame.IsMissing(v) {
			out = append(out, v)
		}
	}
	return out
}

func sortedSample(values []string) ([]string, int) {
	uniq := make(map[string]bool, len(values))
	for _, v := range values {
		uniq[v] = true
	}
	all := make([]string, 0, len(uniq))
	for v := range uniq {
		all = append(all, v)
	}
	sort.Strings(all)
	return capSamples(all)
}

func checkRequiredAndExpected(report *Report, v catalog.Variable, f *frame.Frame, notCollected map[string]bool) {
	if !v.HasCore {
		return
	}
	col, present := columnOf(f, v.Name)
	allMissing := !present
	nullCount := 0
	if present {
		allMissing = true
		for _, val := range col.Values {
			if frame.IsMissing(val) {
				nullCount++
			} else {
				allMissing = false
			}
		}
	}

	switch v.Core {
	case catalog.Required:
		if allMissing {
			report.add(Issue{
				Category: RequiredMissing,
				Severity: SeverityError,
				Variable: v.Name,
				Message:  "required variable " + v.Name + " is absent or entirely missing",
			})
			return
		}
		if nullCount > 0 {
			report.add(Issue{
				Category:  RequiredEmpty,
				Severity:  SeverityError,
				Variable:  v.Name,
				NullCount: nullCount,
				Message:   "required variable " + v.Name + " has missing values",
			})
		}
	case catalog.Expected:
		if allMissing && !notCollected[v.Name] {
			report.add(Issue{
				Category: ExpectedMissing,
				Severity: SeverityWarning,
				Variable: v.Name,
				Message:  "expected variable " + v.Name + " is absent or entirely missing",
			})
		}
	}
}

func checkDataType(report *Report, v catalog.Variable, f *frame.Frame) {
	if v.DataType != catalog.Numeric {
		return
	}
	col, ok := columnOf(f, v.Name)
	if !ok {
		return
	}
	var bad []string
	for _, val := range col.Values {
		if frame.IsMissing(val) {
			continue
		}
		if !parseNumericLoose(val) {
			bad = append(bad, val)
		}
	}
	if len(bad) == 0 {
		return
	}
	samples, total := sortedSample(bad)
	report.add(Issue{
		Category:     DataTypeMismatch,
		Severity:     SeverityError,
		Variable:     v.Name,
		InvalidCount: total,
		Samples:      samples,
		Message:      "numeric variable " + v.Name + " has unparsable values",
	})
}

func isTimingName(name string) bool {
	upper := strings.ToUpper(name)
	for _, suf := range timeEndings {
		if strings.HasSuffix(upper, suf) {
			return true
		}
	}
	return false
}

func checkInvalidDate(report *Report, v catalog.Variable, f *frame.Frame) {
	if !isTimingName(v.Name) {
		return
	}
	col, ok := columnOf(f, v.Name)
	if !ok {
		return
	}
	var bad []string
	for _, val := range col.Values {
		if frame.IsMissing(val) {
			continue
		}
		if !partialISO.MatchString(val) {
			bad = append(bad, val)
		}
	}
	if len(bad) == 0 {
		return
	}
	samples, total := sortedSample(bad)
	report.add(Issue{
		Category:     InvalidDate,
		Severity:     SeverityError,
		Variable:     v.Name,
		InvalidCount: total,
		Samples:      samples,
		Message:      "variable " + v.Name + " has values that are not valid (partial) ISO 8601",
	})
}

func checkTextLength(report *Report, v catalog.Variable, f *frame.Frame) {
	if v.DataType != catalog.Character || v.Length <= 0 {
		return
	}
	col, ok := columnOf(f, v.Name)
	if !ok {
		return
	}
	maxFound := 0
	for _, val := range col.Values {
		if frame.IsMissing(val) {
			continue
		}
		if n := len(val); n > maxFound {
			maxFound = n
		}
	}
	if maxFound > v.Length {
		report.add(Issue{
			Category:   TextTooLong,
			Severity:   SeverityWarning,
			Variable:   v.Name,
			MaxFound:   maxFound,
			MaxAllowed: v.Length,
			Message:    "variable " + v.Name + " exceeds its declared length",
		})
	}
}

func checkIdentifierNull(report *Report, v catalog.Variable, f *frame.Frame) {
	if !v.HasRole || v.Role != catalog.RoleIdentifier {
		return
	}
	col, ok := columnOf(f, v.Name)
	if !ok {
		return
	}
	nullCount := 0
	for _, val := range col.Values {
		if frame.IsMissing(val) {
			nullCount++
		}
	}
	if nullCount > 0 {
		report.add(Issue{
			Category:  IdentifierNull,
			Severity:  SeverityError,
			Variable:  v.Name,
			NullCount: nullCount,
			Message:   "identifier variable " + v.Name + " has missing values",
		})
	}
}

func checkCtViolation(report *Report, v catalog.Variable, f *frame.Frame, terminology *catalog.Catalog) {
	if v.CodelistCode == "" || terminology == nil {
		return
	}
	col, ok := columnOf(f, v.Name)
	if !ok {
		return
	}
	resolved, err := terminology.ResolveCodelist(v.CodelistCode)
	if err != nil {
		return
	}

	var bad []string
	for _, val := range col.Values {
		if frame.IsMissing(val) {
			continue
		}
		if _, found := resolved.FindSubmissionValue(val, catalog.Lenient); !found {
			bad = append(bad, val)
		}
	}
	if len(bad) == 0 {
		return
	}
	severity := SeverityError
	if resolved.Extensible {
		severity = SeverityWarning
	}
	samples, total := sortedSample(bad)
	report.add(Issue{
		Category:     CtViolation,
		Severity:     severity,
		Variable:     v.Name,
		InvalidCount: total,
		Samples:      samples,
		Message:      "variable " + v.Name + " has values outside its codelist",
	})
}

func checkDuplicateSequence(report *Report, domain catalog.Domain, f *frame.Frame) {
	seqVar, ok := domain.SeqVariable()
	if !ok {
		return
	}
	seqCol, ok := columnOf(f, seqVar.Name)
	if !ok {
		return
	}
	usubjidCol, ok := columnOf(f, "USUBJID")
	if !ok {
		return
	}

	seen := make(map[string]bool)
	var dupes []string
	n := len(seqCol.Values)
	if len(usubjidCol.Values) < n {
		n = len(usubjidCol.Values)
	}
	for i := 0; i < n; i++ {
		u, s := usubjidCol.Values[i], seqCol.Values[i]
		if frame.IsMissing(u) || frame.IsMissing(s) {
			continue
		}
		key := u + "\x1f" + s
		if seen[key] {
			dupes = append(dupes, key)
		}
		seen[key] = true
	}
	if len(dupes) == 0 {
		return
	}
	samples, total := sortedSample(dupes)
	report.add(Issue{
		Category:     DuplicateSequence,
		Severity:     SeverityError,
		Variable:     seqVar.Name,
		InvalidCount: total,
		Samples:      samples,
		Message:      "USUBJID/" + seqVar.Name + " pairs are not unique",
	})
}

// CheckUsubjidNotInDm is the cross-domain check (spec §4.6): known is the
// set of subject identifiers the orchestrator has already established
// from DM. The component itself never fetches that set.
func CheckUsubjidNotInDm(domain catalog.Domain, f *frame.Frame, known map[string]bool) *Report {
	report := &Report{Domain: domain.Name}
	col, ok := columnOf(f, "USUBJID")
	if !ok {
		return report
	}
	var bad []string
	for _, v := range col.Values {
		if frame.IsMissing(v) {
			continue
		}
		if !known[v] {
			bad = append(bad, v)
		}
	}
	if len(bad) == 0 {
		return report
	}
	samples, total := sortedSample(bad)
	report.add(Issue{
		Category:     UsubjidNotInDm,
		Severity:     SeverityError,
		Variable:     "USUBJID",
		InvalidCount: total,
		Samples:      samples,
		Message:      "USUBJID values not present in DM",
	})
	return report
}

func parseNumericLoose(raw string) bool {
	s := strings.TrimSpace(raw)
	switch strings.ToLower(s) {
	case "nan", "inf", "+inf", "-inf":
		return true
	}
	cleaned := strings.Map(func(r rune) rune {
		if r == ' ' || r == '\t' || r == ',' {
			return -1
		}
		return r
	}, s)
	_, err := strconv.ParseFloat(cleaned, 64)
	return err == nil
}
