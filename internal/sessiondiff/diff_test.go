package sessiondiff

import (
	"strings"
	"testing"

	"github.com/rubentalstra/trial-submission-studio/internal/mapping"
)

func TestRenderNoChangesProducesNoHunks(t *testing.T) {
	b := map[string]mapping.PersistedBinding{
		"USUBJID": {Status: mapping.Accepted, SourceColumn: "subject"},
	}
	d := Render(b, b)
	if len(d.Hunks) != 0 {
		t.Fatalf("expected no hunks for identical bindings, got %+v", d.Hunks)
	}
}

func TestRenderDowngradeShowsRemoveAndAdd(t *testing.T) {
	old := map[string]mapping.PersistedBinding{
		"USUBJID": {Status: mapping.Accepted, SourceColumn: "subject"},
	}
	updated := map[string]mapping.PersistedBinding{
		"USUBJID": {Status: mapping.Unmapped},
	}
	d := Render(old, updated)
	if d.Removed != 1 || d.Added != 1 {
		t.Fatalf("expected one removed and one added line, got added=%d removed=%d", d.Added, d.Removed)
	}
	rendered := d.String()
	if !strings.Contains(rendered, "- USUBJID: accepted subject") {
		t.Errorf("diff missing removed line: %s", rendered)
	}
	if !strings.Contains(rendered, "+ USUBJID: unmapped ") {
		t.Errorf("diff missing added line: %s", rendered)
	}
}

func TestRenderNewVariableIsAddOnly(t *testing.T) {
	old := map[string]mapping.PersistedBinding{}
	updated := map[string]mapping.PersistedBinding{
		"RACE": {Status: mapping.NotCollected},
	}
	d := Render(old, updated)
	if d.Added != 1 || d.Removed != 0 {
		t.Fatalf("expected one added line only, got added=%d removed=%d", d.Added, d.Removed)
	}
}
