package catalog

import "testing"

func mustLoad(t *testing.T) *Catalog {
	t.Helper()
	cat, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return cat
}

func TestLoadEmbedsCoreDomains(t *testing.T) {
	cat := mustLoad(t)
	for _, name := range []string{"DM", "AE", "VS", "LB"} {
		if _, err := cat.GetDomain(name); err != nil {
			t.Errorf("GetDomain(%q) error = %v", name, err)
		}
	}
	if _, err := cat.GetDomain("zz"); err == nil {
		t.Errorf("GetDomain(zz) expected error")
	}
}

func TestDomainVariableCaseInsensitive(t *testing.T) {
	cat := mustLoad(t)
	dm, err := cat.GetDomain("dm")
	if err != nil {
		t.Fatalf("GetDomain error = %v", err)
	}
	v, ok := dm.Variable("usubjid")
	if !ok || v.Name != "USUBJID" {
		t.Fatalf("Variable(usubjid) = %+v, %v", v, ok)
	}
	if !v.HasCore || v.Core != Required {
		t.Errorf("USUBJID expected Required core, got %+v", v)
	}
}

func TestSeqVariable(t *testing.T) {
	cat := mustLoad(t)
	ae, _ := cat.GetDomain("AE")
	seq, ok := ae.SeqVariable()
	if !ok || seq.Name != "AESEQ" {
		t.Fatalf("SeqVariable() = %+v, %v", seq, ok)
	}
}

func TestFindSubmissionValueExactAndSynonym(t *testing.T) {
	cat := mustLoad(t)
	cl, err := cat.GetCodelist("C66731")
	if err != nil {
		t.Fatalf("GetCodelist error = %v", err)
	}

	cases := map[string]string{
		"M":      "M",
		"m":      "M",
		"Male":   "M",
		" male ": "M",
		"Female": "F",
		"UNK":    "U",
	}
	for raw, want := range cases {
		got, ok := cl.FindSubmissionValue(raw, Lenient)
		if !ok || got != want {
			t.Errorf("FindSubmissionValue(%q) = %q, %v; want %q", raw, got, ok, want)
		}
	}

	if _, ok := cl.FindSubmissionValue("nonbinary", Lenient); ok {
		t.Errorf("FindSubmissionValue(nonbinary) unexpectedly matched")
	}
}

func TestResolveCodelistSubCode(t *testing.T) {
	cat := mustLoad(t)
	resolved, err := cat.ResolveCodelist("VSTESTCD;SYSBP")
	if err != nil {
		t.Fatalf("ResolveCodelist error = %v", err)
	}
	if len(resolved.Terms) != 1 || resolved.Terms[0].SubmissionValue != "SYSBP" {
		t.Fatalf("ResolveCodelist narrowed terms = %+v", resolved.Terms)
	}
	if resolved.SubCode != "SYSBP" {
		t.Errorf("SubCode = %q", resolved.SubCode)
	}
}

func TestNormalizationStrictVsLenient(t *testing.T) {
	cat := mustLoad(t)
	cl, _ := cat.GetCodelist("C66731")

	// "Male" normalizes to "male" under both modes (letters only, no
	// punctuation), so it should match under both.
	if _, ok := cl.FindSubmissionValue("Male", Strict); !ok {
		t.Errorf("Strict mode should still match pure alphabetic synonyms")
	}

	// Introduce punctuation: lenient strips it, strict does not.
	if _, ok := cl.FindSubmissionValue("M-A-L-E", Lenient); !ok {
		t.Errorf("Lenient mode expected to match punctuation-laden synonym")
	}
	if _, ok := cl.FindSubmissionValue("M-A-L-E", Strict); ok {
		t.Errorf("Strict mode unexpectedly matched punctuation-laden synonym")
	}
}
