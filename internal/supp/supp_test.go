package supp

import (
	"testing"

	"github.com/rubentalstra/trial-submission-studio/internal/frame"
)

// TestScenarioD reproduces spec.md's SUPP-build scenario.
func TestScenarioD(t *testing.T) {
	src := frame.New("source", []string{"investigator_note"}, 2)
	src.SetColumn("investigator_note", []string{"fatigue", frame.Missing})

	usubjid := []string{"STUDY1-001", "STUDY1-002"}
	labels := map[string]string{"investigator_note": "Investigator Note"}
	overrides := map[string]Override{
		"investigator_note": {Column: "investigator_note", Action: Include},
	}

	rows := Build("STUDY1", "AE", src, usubjid, labels, "", nil, overrides)

	if len(rows) != 1 {
		t.Fatalf("expected 1 row (empty value suppressed), got %d", len(rows))
	}
	r := rows[0]
	if r.QNAM != "INVESTIG" {
		t.Errorf("QNAM = %q, want INVESTIG", r.QNAM)
	}
	if r.QLABEL != "Investigator Note" {
		t.Errorf("QLABEL = %q, want %q", r.QLABEL, "Investigator Note")
	}
	if r.QVAL != "fatigue" {
		t.Errorf("QVAL = %q, want fatigue", r.QVAL)
	}
	if r.QORIG != "CRF" {
		t.Errorf("QORIG = %q, want CRF", r.QORIG)
	}
	if r.USUBJID != "STUDY1-001" {
		t.Errorf("USUBJID = %q, want STUDY1-001", r.USUBJID)
	}
}

func TestSanitizeQNAM(t *testing.T) {
	cases := map[string]string{
		"investigator_note": "INVESTIG",
		"1badstart":         "Q1BADSTA",
		"___":                "QVAL",
		"a__b":               "AB",
	}
	for input, want := range cases {
		if got := SanitizeQNAM(input); got != want {
			t.Errorf("SanitizeQNAM(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestBuildDeduplicatesByUniquenessKey(t *testing.T) {
	src := frame.New("source", []string{"note"}, 2)
	src.SetColumn("note", []string{"dup", "dup"})
	usubjid := []string{"S-1", "S-1"}
	overrides := map[string]Override{"note": {Action: Include}}

	rows := Build("STUDY1", "AE", src, usubjid, nil, "", nil, overrides)
	if len(rows) != 1 {
		t.Fatalf("expected duplicates collapsed to 1 row, got %d", len(rows))
	}
}

func TestBuildSkipsNonIncludedColumns(t *testing.T) {
	src := frame.New("source", []string{"note"}, 1)
	src.SetColumn("note", []string{"x"})
	usubjid := []string{"S-1"}
	overrides := map[string]Override{"note": {Action: Pending}}

	rows := Build("STUDY1", "AE", src, usubjid, nil, "", nil, overrides)
	if len(rows) != 0 {
		t.Errorf("expected 0 rows for a Pending (non-Include) column, got %d", len(rows))
	}
}
