package pipeline

import (
	"math"
	"testing"

	"fitquote/internal"
	"fitquote/internal/rules"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestResolvePartitionsCompletely(t *testing.T) {
	snapshot := map[string]internal.CatalogueEntry{
		"FLX 4P": {Code: "FLX 4P", InstallTimeHours: 1.5, WasteVolumeM3: 0.5},
	}
	resolver := NewResolver(snapshot, rules.Defaults())

	lines := []internal.RawLineItem{
		{LineNumber: 1, ProductCode: "FLX-4P-2816-A", Description: "Booth", Quantity: 3},
		{LineNumber: 2, ProductCode: "MYSTERY-1", Quantity: 2},
		{LineNumber: 3, ProductCode: "mystery 1", Quantity: 4},
		{LineNumber: 4, ProductCode: "MYSTERY-2", Quantity: 1},
	}

	result := resolver.Resolve(lines, nil, nil)

	if len(result.Resolved) != 1 {
		t.Fatalf("resolved = %+v", result.Resolved)
	}
	if len(result.Unresolved) != 2 {
		t.Fatalf("unresolved = %+v", result.Unresolved)
	}

	// Duplicate spellings of MYSTERY-1 aggregate into one entry keyed by
	// the normalized code, quantities summed.
	first := result.Unresolved[0]
	if first.NormalizedCode != "MYSTERY1" || first.Quantity != 6 || first.LineNumber != 2 {
		t.Fatalf("aggregated unresolved = %+v", first)
	}

	// Every input quantity lands on exactly one side.
	total := 0
	for _, p := range result.Resolved {
		total += p.Quantity
	}
	for _, u := range result.Unresolved {
		total += u.Quantity
	}
	if total != 10 {
		t.Fatalf("total quantity across partition = %d, want 10", total)
	}
}

func TestResolveEditPrecedence(t *testing.T) {
	snapshot := map[string]internal.CatalogueEntry{
		"FLX 4P": {Code: "FLX 4P", InstallTimeHours: 1.5},
	}
	resolver := NewResolver(snapshot, rules.Defaults())

	lines := []internal.RawLineItem{
		{LineNumber: 1, ProductCode: "FLX 4P", Quantity: 1},
	}
	sessionEdits := map[string]internal.CatalogueEntry{
		"FLX4P": {Code: "FLX 4P", InstallTimeHours: 2},
	}
	manualEdits := map[string]internal.CatalogueEntry{
		"FLX4P": {Code: "FLX 4P", InstallTimeHours: 3},
	}

	result := resolver.Resolve(lines, sessionEdits, manualEdits)
	if len(result.Resolved) != 1 {
		t.Fatalf("resolved = %+v", result.Resolved)
	}
	got := result.Resolved[0]
	if got.TimePerUnit != 3 || got.Source != internal.SourceUserInputted || !got.IsManuallyEdited {
		t.Fatalf("manual edit did not win: %+v", got)
	}

	result = resolver.Resolve(lines, sessionEdits, nil)
	got = result.Resolved[0]
	if got.TimePerUnit != 2 || got.Source != internal.SourceLearned {
		t.Fatalf("session edit did not beat catalogue: %+v", got)
	}

	result = resolver.Resolve(lines, nil, nil)
	got = result.Resolved[0]
	if got.TimePerUnit != 1.5 || got.Source != internal.SourceCatalogue {
		t.Fatalf("catalogue resolution: %+v", got)
	}
}

func TestResolveQuoteScenario(t *testing.T) {
	snapshot := map[string]internal.CatalogueEntry{
		"FLX 4P":       {Code: "FLX 4P", InstallTimeHours: 1.5, WasteVolumeM3: 0.5},
		"POWER-MODULE": {Code: "POWER-MODULE", InstallTimeHours: 1, WasteVolumeM3: 0.05},
	}
	resolver := NewResolver(snapshot, rules.Defaults())

	lines := []internal.RawLineItem{
		{LineNumber: 1, ProductCode: "FLX-4P-2816-A", Description: "4 Person Booth", Quantity: 3},
		{LineNumber: 2, ProductCode: "PWR-A", Description: "Power module twin", Quantity: 2},
		{LineNumber: 3, ProductCode: "PWR-B", Description: "Power module single", Quantity: 1},
	}

	result := resolver.Resolve(lines, nil, nil)

	if len(result.Unresolved) != 0 {
		t.Fatalf("unresolved = %+v", result.Unresolved)
	}
	if len(result.Resolved) != 2 {
		t.Fatalf("resolved = %+v", result.Resolved)
	}

	booth := result.Resolved[0]
	if booth.ProductCode != "FLX 4P" || !almostEqual(booth.TotalTime, 4.5) {
		t.Fatalf("booth = %+v", booth)
	}
	if !almostEqual(booth.TotalWaste, 1.5) {
		t.Fatalf("booth waste = %g", booth.TotalWaste)
	}

	power := result.Resolved[1]
	if power.LineNumber != internal.LineNumberConsolidated {
		t.Fatalf("consolidated line not last: %+v", result.Resolved)
	}
	if power.ProductCode != "POWER-MODULE" || power.Quantity != 3 {
		t.Fatalf("power = %+v", power)
	}
	// The fixed per-unit time wins over the catalogue's figure; waste
	// still comes from the catalogue entry.
	if !almostEqual(power.TimePerUnit, 0.2) || !almostEqual(power.TotalTime, 0.6) {
		t.Fatalf("power time = %+v", power)
	}
	if !almostEqual(power.TotalWaste, 0.15) {
		t.Fatalf("power waste = %g", power.TotalWaste)
	}
}

func TestResolveConsolidatedUnknownCode(t *testing.T) {
	// No POWER-MODULE catalogue entry: the synthetic line still resolves
	// with the fixed time and zero waste.
	resolver := NewResolver(map[string]internal.CatalogueEntry{}, rules.Defaults())

	lines := []internal.RawLineItem{
		{LineNumber: 1, ProductCode: "PWR-A", Description: "Power module", Quantity: 4},
	}
	result := resolver.Resolve(lines, nil, nil)

	if len(result.Resolved) != 1 || len(result.Unresolved) != 0 {
		t.Fatalf("result = %+v", result)
	}
	power := result.Resolved[0]
	if !almostEqual(power.TotalTime, 0.8) || power.TotalWaste != 0 {
		t.Fatalf("power = %+v", power)
	}
}

func TestMergeResolvedKeepsOrder(t *testing.T) {
	existing := []internal.ResolvedProduct{
		{LineNumber: 1, ProductCode: "A"},
		{LineNumber: internal.LineNumberConsolidated, ProductCode: "POWER-MODULE"},
	}
	late := []internal.ResolvedProduct{
		{LineNumber: 2, ProductCode: "B"},
	}

	merged := MergeResolved(existing, late)
	if len(merged) != 3 {
		t.Fatalf("merged = %+v", merged)
	}
	if merged[0].LineNumber != 1 || merged[1].LineNumber != 2 {
		t.Fatalf("merged order = %+v", merged)
	}
	if merged[2].LineNumber != internal.LineNumberConsolidated {
		t.Fatalf("consolidated line not pinned last: %+v", merged)
	}
}

func TestLineLabel(t *testing.T) {
	regular := internal.ResolvedProduct{LineNumber: 7, Description: "4 Person Booth"}
	if got := LineLabel(regular); got != "Line 7 – 4 Person Booth" {
		t.Fatalf("got %q", got)
	}

	power := internal.ResolvedProduct{LineNumber: internal.LineNumberConsolidated, Description: "Power modules (consolidated)"}
	if got := LineLabel(power); got != "Power modules (consolidated)" {
		t.Fatalf("got %q", got)
	}
}
