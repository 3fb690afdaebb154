package catalog

import (
	"testing"

	"fitquote/internal"
)

func TestBuildIndexLookup(t *testing.T) {
	snapshot := map[string]internal.CatalogueEntry{
		"FLX 4P":  {Code: "FLX 4P", InstallTimeHours: 1.5},
		"DESK-16": {Code: "DESK-16", InstallTimeHours: 0.75, Aliases: []string{"DESK 1600"}},
	}
	idx := BuildIndex(snapshot)

	cases := []struct {
		probe string
		key   string
		ok    bool
	}{
		{probe: "FLX 4P", key: "FLX 4P", ok: true},
		{probe: "flx-4p", key: "FLX 4P", ok: true},
		{probe: "FLX_4P", key: "FLX 4P", ok: true},
		{probe: "DESK 1600", key: "DESK-16", ok: true},
		{probe: "desk(1600)", key: "DESK-16", ok: true},
		{probe: "UNKNOWN", ok: false},
	}
	for _, tc := range cases {
		key, ok := idx.Lookup(tc.probe)
		if ok != tc.ok || key != tc.key {
			t.Fatalf("Lookup(%q) = %q, %v; want %q, %v", tc.probe, key, ok, tc.key, tc.ok)
		}
	}
}

func TestBuildIndexAliasNeverShadowsKey(t *testing.T) {
	// The alias "FLX-4P" normalizes to the same string as the canonical
	// key "FLX 4P"; the canonical entry must win.
	snapshot := map[string]internal.CatalogueEntry{
		"FLX 4P": {Code: "FLX 4P", InstallTimeHours: 1.5},
		"OTHER":  {Code: "OTHER", InstallTimeHours: 9, Aliases: []string{"FLX-4P"}},
	}
	idx := BuildIndex(snapshot)

	key, ok := idx.Lookup("FLX4P")
	if !ok || key != "FLX 4P" {
		t.Fatalf("Lookup(FLX4P) = %q, %v; want FLX 4P", key, ok)
	}
}
