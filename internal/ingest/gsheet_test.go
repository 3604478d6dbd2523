package ingest

import "testing"

func TestResolveSheetRangeNoNetworkHelpers(t *testing.T) {
	// sheetsService and resolveSheetRange both require live network
	// access; this only exercises the pure row-padding helper padRow
	// used to assemble rows fetched from the Sheets API.
	row := []string{"a", "b"}
	padded := padRow(row, 4)
	if len(padded) != 4 {
		t.Fatalf("padRow length = %d, want 4", len(padded))
	}
	if padded[2] != "" || padded[3] != "" {
		t.Fatalf("padRow did not zero-fill: %+v", padded)
	}
}

func TestToStrings(t *testing.T) {
	out := toStrings([]interface{}{"x", 1, 2.5, nil})
	want := []string{"x", "1", "2.5", "<nil>"}
	for i, w := range want {
		if out[i] != w {
			t.Errorf("toStrings[%d] = %q, want %q", i, out[i], w)
		}
	}
}
