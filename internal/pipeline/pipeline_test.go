package pipeline

import (
	"testing"

	"github.com/rubentalstra/trial-submission-studio/internal/catalog"
	"github.com/rubentalstra/trial-submission-studio/internal/frame"
)

func sourceFrame(headers []string, rows [][]string) *frame.Frame {
	f := frame.New("source", headers, len(rows))
	for colIdx, h := range headers {
		values := make([]string, len(rows))
		for r := range rows {
			values[r] = rows[r][colIdx]
		}
		f.SetColumn(h, values)
	}
	return f
}

func dmDomain() catalog.Domain {
	return catalog.Domain{
		Name: "DM",
		Variables: []catalog.Variable{
			{Name: "STUDYID", DataType: catalog.Character, HasCore: true, Core: catalog.Required, Order: 1},
			{Name: "USUBJID", DataType: catalog.Character, HasCore: true, Core: catalog.Required, Order: 2},
			{Name: "SEX", DataType: catalog.Character, HasCore: true, Core: catalog.Required, CodelistCode: "C66731", Order: 3},
			{Name: "RFSTDTC", DataType: catalog.Character, Order: 4},
		},
	}
}

func sexCodelist() catalog.Codelist {
	return catalog.Codelist{
		Code: "C66731",
		Name: "Sex",
		Terms: []catalog.Term{
			{SubmissionValue: "F", Synonyms: []string{"Female", "female"}},
			{SubmissionValue: "M", Synonyms: []string{"m", "Male"}},
		},
	}
}

// TestScenarioA reproduces spec.md's minimal-DM scenario end to end.
func TestScenarioA(t *testing.T) {
	domain := dmDomain()
	src := sourceFrame(
		[]string{"subject", "gender", "start"},
		[][]string{
			{"001", "Female", "2024-01-15"},
			{"002", "m", "2024-01"},
		},
	)
	cat := &catalogStub{codelists: map[string]catalog.Codelist{"C66731": sexCodelist()}}
	p := Build(domain)
	ctx := Context{
		StudyID:    "STUDY1",
		DomainName: "DM",
		Mappings: map[string]string{
			"USUBJID": "subject",
			"SEX":     "gender",
			"RFSTDTC": "start",
		},
		Terminology: cat.asCatalog(),
		Options:     DefaultOptions(),
	}

	out, err := Execute(src, p, ctx)
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}

	studyid, _ := out.Column("STUDYID")
	usubjid, _ := out.Column("USUBJID")
	sex, _ := out.Column("SEX")
	rfstdtc, _ := out.Column("RFSTDTC")

	for i, want := range []string{"STUDY1", "STUDY1"} {
		if studyid.Values[i] != want {
			t.Errorf("STUDYID[%d] = %q, want %q", i, studyid.Values[i], want)
		}
	}
	wantUsubjid := []string{"STUDY1-001", "STUDY1-002"}
	for i, want := range wantUsubjid {
		if usubjid.Values[i] != want {
			t.Errorf("USUBJID[%d] = %q, want %q", i, usubjid.Values[i], want)
		}
	}
	if sex.Values[0] != "F" || sex.Values[1] != "M" {
		t.Errorf("SEX = %v, want [F M]", sex.Values)
	}
	if rfstdtc.Values[0] != "2024-01-15" || rfstdtc.Values[1] != "2024-01" {
		t.Errorf("RFSTDTC = %v, want partial date preserved verbatim", rfstdtc.Values)
	}
}

// TestScenarioB reproduces the dense per-subject sequence assignment.
func TestScenarioB(t *testing.T) {
	domain := catalog.Domain{
		Name: "AE",
		Variables: []catalog.Variable{
			{Name: "USUBJID", DataType: catalog.Character, Order: 1},
			{Name: "AESEQ", DataType: catalog.Numeric, Order: 2},
			{Name: "AETERM", DataType: catalog.Character, Order: 3},
		},
	}
	src := sourceFrame(
		[]string{"subj", "term"},
		[][]string{
			{"A", "x1"}, {"A", "x2"}, {"B", "x3"}, {"A", "x4"}, {"B", "x5"},
		},
	)
	p := Build(domain)
	ctx := Context{
		StudyID:    "STUDY1",
		DomainName: "AE",
		Mappings: map[string]string{
			"USUBJID": "subj",
			"AETERM":  "term",
		},
		Options: DefaultOptions(),
	}
	out, err := Execute(src, p, ctx)
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	aeseq, _ := out.Column("AESEQ")
	want := []string{"1", "2", "1", "3", "2"}
	for i, w := range want {
		if aeseq.Values[i] != w {
			t.Errorf("AESEQ[%d] = %q, want %q", i, aeseq.Values[i], w)
		}
	}
}

// TestScenarioC reproduces the CT synonym scenario under Lenient
// matching.
func TestScenarioC(t *testing.T) {
	domain := catalog.Domain{
		Name: "TS",
		Variables: []catalog.Variable{
			{Name: "FLAG", DataType: catalog.Character, CodelistCode: "NY", Order: 1},
		},
	}
	ny := catalog.Codelist{
		Code: "NY",
		Name: "No Yes Response",
		Terms: []catalog.Term{
			{SubmissionValue: "Y", Synonyms: []string{"Yes", "YES", "1", "TRUE"}},
		},
	}
	cat := &catalogStub{codelists: map[string]catalog.Codelist{"NY": ny}}
	src := sourceFrame([]string{"raw"}, [][]string{
		{"Yes"}, {"no"}, {"1"}, {"TRUE"}, {"maybe"},
	})
	p := Build(domain)
	ctx := Context{
		DomainName:  "TS",
		Mappings:    map[string]string{"FLAG": "raw"},
		Terminology: cat.asCatalog(),
		Options:     DefaultOptions(),
	}
	out, err := Execute(src, p, ctx)
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	flag, _ := out.Column("FLAG")
	want := []string{"Y", "no", "Y", "Y", "maybe"}
	for i, w := range want {
		if flag.Values[i] != w {
			t.Errorf("FLAG[%d] = %q, want %q", i, flag.Values[i], w)
		}
	}
}

// TestScenarioE reproduces the study-day computation, including the
// no-zero boundary.
func TestScenarioE(t *testing.T) {
	domain := catalog.Domain{
		Name: "VS",
		Variables: []catalog.Variable{
			{Name: "USUBJID", DataType: catalog.Character, Order: 1},
			{Name: "VSDTC", DataType: catalog.Character, Order: 2},
			{Name: "VSDY", DataType: catalog.Numeric, Order: 3},
		},
	}
	src := sourceFrame(
		[]string{"subj", "dtc"},
		[][]string{{"STUDY1-001", "2024-01-12"}, {"STUDY1-001", "2024-01-09"}},
	)
	p := Build(domain)
	ctx := Context{
		DomainName: "VS",
		StudyID:    "STUDY1",
		Mappings:   map[string]string{"USUBJID": "subj", "VSDTC": "dtc"},
		ReferenceStarts: map[string]string{
			"STUDY1-001": "2024-01-10",
		},
		Options: DefaultOptions(),
	}
	out, err := Execute(src, p, ctx)
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	vsdy, _ := out.Column("VSDY")
	if vsdy.Values[0] != "3" {
		t.Errorf("VSDY[0] = %q, want 3", vsdy.Values[0])
	}
	if vsdy.Values[1] != "-1" {
		t.Errorf("VSDY[1] = %q, want -1", vsdy.Values[1])
	}
}

// TestStudyIDPrefixIdempotent covers invariant 3.
func TestStudyIDPrefixIdempotent(t *testing.T) {
	rule := Rule{TargetVariable: "USUBJID", Kind: StudyIDPrefix}
	src := sourceFrame([]string{"subj"}, [][]string{{"001"}})
	ctx := Context{StudyID: "STUDY1", Mappings: map[string]string{"USUBJID": "subj"}}

	once, err := executeStudyIDPrefix(rule, src, ctx)
	if err != nil {
		t.Fatalf("first pass error: %v", err)
	}
	src2 := sourceFrame([]string{"subj"}, [][]string{{once[0]}})
	twice, err := executeStudyIDPrefix(rule, src2, ctx)
	if err != nil {
		t.Fatalf("second pass error: %v", err)
	}
	if once[0] != twice[0] {
		t.Errorf("StudyIdPrefix not idempotent: %q then %q", once[0], twice[0])
	}
}

// TestCtNormalizationNoOpOnSubmissionValue covers invariant 4.
func TestCtNormalizationNoOpOnSubmissionValue(t *testing.T) {
	cl := sexCodelist()
	resolved := catalog.ResolvedCodelist{Codelist: cl}
	opts := DefaultOptions()

	if got := ctNormalize("F", resolved, opts); got != "F" {
		t.Errorf("no-op on submission value: got %q", got)
	}
	if got := ctNormalize("Female", resolved, opts); got != "F" {
		t.Errorf("synonym should resolve to submission value: got %q", got)
	}
}

// catalogStub builds a minimal *catalog.Catalog for tests that need
// ResolveCodelist without going through the embedded loader.
type catalogStub struct {
	codelists map[string]catalog.Codelist
}

func (c *catalogStub) asCatalog() *catalog.Catalog {
	cls := make([]catalog.Codelist, 0, len(c.codelists))
	for _, cl := range c.codelists {
		cls = append(cls, cl)
	}
	return catalog.New(nil, cls)
}
