package gsheetutils

import "testing"

func TestParseGoogleSheetURL(t *testing.T) {
	cases := []struct {
		name       string
		url        string
		wantID     string
		wantGID    string
		wantParsed bool
	}{
		{"edit with gid fragment", "https://docs.google.com/spreadsheets/d/abc123/edit#gid=456", "abc123", "456", true},
		{"edit without gid", "https://docs.google.com/spreadsheets/d/abc123/edit", "abc123", "", true},
		{"bare id", "https://docs.google.com/spreadsheets/d/abc123", "abc123", "", true},
		{"gid in query", "https://docs.google.com/spreadsheets/d/abc123?gid=789", "abc123", "789", true},
		{"non-sheets host", "https://example.com/spreadsheets/d/abc123", "", "", false},
		{"not a sheets path", "https://docs.google.com/document/d/abc123", "", "", false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			id, gid, ok := ParseGoogleSheetURL(c.url)
			if ok != c.wantParsed {
				t.Fatalf("ok = %v, want %v", ok, c.wantParsed)
			}
			if id != c.wantID || gid != c.wantGID {
				t.Errorf("got (%q, %q), want (%q, %q)", id, gid, c.wantID, c.wantGID)
			}
		})
	}
}

func TestSelectGID(t *testing.T) {
	if got := SelectGID("1", "2"); got != "1" {
		t.Errorf("request GID should win, got %q", got)
	}
	if got := SelectGID("", "2"); got != "2" {
		t.Errorf("url GID should be used when request GID is empty, got %q", got)
	}
	if got := SelectGID("  ", "2"); got != "2" {
		t.Errorf("whitespace-only request GID should fall back, got %q", got)
	}
}

func TestValidateGID(t *testing.T) {
	if err := ValidateGID(""); err != nil {
		t.Errorf("empty gid should be valid, got %v", err)
	}
	if err := ValidateGID("123"); err != nil {
		t.Errorf("numeric gid should be valid, got %v", err)
	}
	if err := ValidateGID("abc"); err == nil {
		t.Error("expected error for non-numeric gid")
	}
}
