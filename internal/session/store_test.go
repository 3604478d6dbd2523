package session

import (
	"testing"

	"github.com/rubentalstra/trial-submission-studio/internal/catalog"
	"github.com/rubentalstra/trial-submission-studio/internal/mapping"
	"github.com/rubentalstra/trial-submission-studio/internal/scoring"
	"github.com/rubentalstra/trial-submission-studio/internal/supp"
)

func testDomain() catalog.Domain {
	return catalog.Domain{
		Name: "DM",
		Variables: []catalog.Variable{
			{Name: "STUDYID", DataType: catalog.Character, HasCore: true, Core: catalog.Required, Order: 1},
			{Name: "USUBJID", DataType: catalog.Character, HasCore: true, Core: catalog.Required, Order: 2},
		},
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	store, err := Open("")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	snap := Snapshot{
		StudyID:           "STUDY1",
		DomainName:        "DM",
		SourceContentHash: "abc123",
		Bindings: map[string]mapping.PersistedBinding{
			"USUBJID": {Status: mapping.Accepted, SourceColumn: "subject", Confidence: 1},
		},
		SuppOverrides: map[string]supp.Override{
			"notes": {Column: "notes", Action: supp.Include, QNAM: "NOTES"},
		},
	}
	if err := store.Save(snap); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := store.Load("STUDY1", "DM")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded == nil {
		t.Fatalf("expected a snapshot, got nil")
	}
	if loaded.SourceContentHash != "abc123" {
		t.Errorf("SourceContentHash = %q, want abc123", loaded.SourceContentHash)
	}
	if got := loaded.Bindings["USUBJID"]; got.SourceColumn != "subject" {
		t.Errorf("USUBJID binding = %+v", got)
	}
	if got := loaded.SuppOverrides["notes"]; got.QNAM != "NOTES" {
		t.Errorf("notes override = %+v", got)
	}
}

func TestLoadMissingReturnsNil(t *testing.T) {
	store, err := Open("")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	loaded, err := store.Load("NOPE", "DM")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded != nil {
		t.Errorf("expected nil for an unknown key, got %+v", loaded)
	}
}

func TestSaveUpsertsExistingKey(t *testing.T) {
	store, err := Open("")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	base := Snapshot{StudyID: "S1", DomainName: "DM", SourceContentHash: "h1", Bindings: map[string]mapping.PersistedBinding{}}
	if err := store.Save(base); err != nil {
		t.Fatalf("Save: %v", err)
	}
	base.SourceContentHash = "h2"
	if err := store.Save(base); err != nil {
		t.Fatalf("Save (update): %v", err)
	}

	loaded, err := store.Load("S1", "DM")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.SourceContentHash != "h2" {
		t.Errorf("SourceContentHash = %q, want h2 after update", loaded.SourceContentHash)
	}
}

func TestRestoreUnchangedHashProducesNoDiff(t *testing.T) {
	store, err := Open("")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	domain := testDomain()
	columns := []string{"subject", "study"}
	hints := map[string]scoring.ColumnHint{}

	hash := HashSource([]byte("col1,col2\n"))
	snap := Snapshot{
		StudyID:           "S1",
		DomainName:        "DM",
		SourceContentHash: hash,
		Bindings: map[string]mapping.PersistedBinding{
			"USUBJID": {Status: mapping.Accepted, SourceColumn: "subject", Confidence: 1},
		},
	}
	if err := store.Save(snap); err != nil {
		t.Fatalf("Save: %v", err)
	}

	result, err := store.Restore("S1", "DM", domain, columns, hints, 0.5, hash)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if result == nil {
		t.Fatalf("expected a RestoreResult")
	}
	if result.Diff != nil {
		t.Errorf("expected no diff when the content hash is unchanged, got %+v", result.Diff)
	}
	b, _ := result.State.Status("USUBJID")
	if b.Kind != mapping.Accepted || b.SourceColumn != "subject" {
		t.Errorf("USUBJID binding = %+v, want Accepted/subject", b)
	}
}

func TestRestoreChangedHashDowngradesMissingColumnAndProducesDiff(t *testing.T) {
	store, err := Open("")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	domain := testDomain()
	hints := map[string]scoring.ColumnHint{}

	snap := Snapshot{
		StudyID:           "S1",
		DomainName:        "DM",
		SourceContentHash: "old-hash",
		Bindings: map[string]mapping.PersistedBinding{
			"USUBJID": {Status: mapping.Accepted, SourceColumn: "subject", Confidence: 1},
		},
	}
	if err := store.Save(snap); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// The source no longer has a "subject" column.
	columns := []string{"id", "study"}
	result, err := store.Restore("S1", "DM", domain, columns, hints, 0.5, "new-hash")
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if result.Diff == nil {
		t.Fatalf("expected a diff when the content hash changed")
	}
	b, _ := result.State.Status("USUBJID")
	if b.Kind == mapping.Accepted {
		t.Errorf("expected USUBJID to downgrade once its source column disappeared, got %+v", b)
	}
}

func TestRestoreMissingSnapshotReturnsNil(t *testing.T) {
	store, err := Open("")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	result, err := store.Restore("NOPE", "DM", testDomain(), nil, nil, 0.5, "hash")
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if result != nil {
		t.Errorf("expected nil result for an unsaved key, got %+v", result)
	}
}
