package quote

import (
	"math"
	"testing"

	"fitquote/internal"
	"fitquote/internal/catalog"
	"fitquote/internal/rules"
)

func newTestSession(t *testing.T) (*Session, *catalog.Service) {
	t.Helper()
	catalogue, err := catalog.NewService(nil)
	if err != nil {
		t.Fatalf("catalog.NewService: %v", err)
	}
	catalogue.Upsert(internal.CatalogueEntry{Code: "FLX 4P", InstallTimeHours: 1.5, WasteVolumeM3: 0.5})

	rulesService, err := rules.NewService(nil)
	if err != nil {
		t.Fatalf("rules.NewService: %v", err)
	}
	return NewSession(catalogue, rulesService), catalogue
}

func testLines() []internal.RawLineItem {
	return []internal.RawLineItem{
		{LineNumber: 1, ProductCode: "FLX-4P-2816-A", Description: "4 Person Booth", Quantity: 3},
		{LineNumber: 2, ProductCode: "WIDGET-9", Description: "Monitor arm", Quantity: 2},
		{LineNumber: 3, ProductCode: "PWR-A", Description: "Power module", Quantity: 2},
	}
}

func TestSessionProvideTimeClosesUnresolved(t *testing.T) {
	session, catalogue := newTestSession(t)

	result := session.LoadLines(testLines())
	if len(result.Resolved) != 2 || len(result.Unresolved) != 1 {
		t.Fatalf("initial result = %+v", result)
	}
	if result.Unresolved[0].NormalizedCode != "WIDGET9" {
		t.Fatalf("unresolved = %+v", result.Unresolved)
	}

	result, err := session.ProvideTime("WIDGET-9", 2, 0.25, false, true)
	if err != nil {
		t.Fatalf("ProvideTime: %v", err)
	}
	if len(result.Unresolved) != 0 {
		t.Fatalf("unresolved after learn = %+v", result.Unresolved)
	}
	if len(result.Resolved) != 3 {
		t.Fatalf("resolved after learn = %+v", result.Resolved)
	}

	var widget *internal.ResolvedProduct
	for i := range result.Resolved {
		if result.Resolved[i].LineNumber == 2 {
			widget = &result.Resolved[i]
		}
	}
	if widget == nil || widget.Source != internal.SourceLearned || widget.TotalTime != 4 {
		t.Fatalf("widget = %+v", widget)
	}

	// Learning taught the catalogue durably for the next quote.
	if _, ok := catalogue.Get("widget 9"); !ok {
		t.Fatalf("catalogue did not learn WIDGET-9")
	}

	// The consolidated line stays pinned last through the merge.
	if result.Resolved[len(result.Resolved)-1].LineNumber != internal.LineNumberConsolidated {
		t.Fatalf("resolved order = %+v", result.Resolved)
	}
}

func TestSessionProvideTimeSessionOnly(t *testing.T) {
	session, catalogue := newTestSession(t)
	session.LoadLines(testLines())

	result, err := session.ProvideTime("WIDGET-9", 1.25, 0, false, false)
	if err != nil {
		t.Fatalf("ProvideTime: %v", err)
	}
	if len(result.Unresolved) != 0 {
		t.Fatalf("unresolved = %+v", result.Unresolved)
	}

	var widget internal.ResolvedProduct
	for _, p := range result.Resolved {
		if p.LineNumber == 2 {
			widget = p
		}
	}
	if widget.Source != internal.SourceUserInputted || !widget.IsManuallyEdited {
		t.Fatalf("widget = %+v", widget)
	}

	// Quote-only resolution never touches the catalogue.
	if _, ok := catalogue.Get("WIDGET-9"); ok {
		t.Fatalf("session-only edit leaked into the catalogue")
	}
}

func TestSessionProvideTimeRejectsNonPositive(t *testing.T) {
	session, _ := newTestSession(t)
	session.LoadLines(testLines())

	if _, err := session.ProvideTime("WIDGET-9", 0, 0, false, true); err == nil {
		t.Fatalf("expected error for zero install time")
	}
}

func TestSessionAttachAlias(t *testing.T) {
	session, _ := newTestSession(t)
	session.LoadLines(testLines())

	result, err := session.AttachAlias("WIDGET-9", "FLX 4P")
	if err != nil {
		t.Fatalf("AttachAlias: %v", err)
	}
	if len(result.Unresolved) != 0 {
		t.Fatalf("unresolved = %+v", result.Unresolved)
	}

	var widget internal.ResolvedProduct
	for _, p := range result.Resolved {
		if p.LineNumber == 2 {
			widget = p
		}
	}
	if widget.ProductCode != "FLX 4P" || widget.Source != internal.SourceCatalogue {
		t.Fatalf("widget = %+v", widget)
	}
}

func TestSessionOverrideProduct(t *testing.T) {
	session, catalogue := newTestSession(t)
	session.LoadLines(testLines())

	if err := session.OverrideProduct(1, 2.5, 0.75); err != nil {
		t.Fatalf("OverrideProduct: %v", err)
	}

	var booth internal.ResolvedProduct
	for _, p := range session.Products() {
		if p.LineNumber == 1 {
			booth = p
		}
	}
	if booth.TimePerUnit != 2.5 || booth.TotalTime != 7.5 || booth.TotalWaste != 2.25 {
		t.Fatalf("booth = %+v", booth)
	}
	if booth.Source != internal.SourceUserInputted || !booth.IsManuallyEdited {
		t.Fatalf("booth = %+v", booth)
	}

	// The edit re-teaches the catalogue.
	catalogue.Flush()
	entry, ok := catalogue.Get("FLX 4P")
	if !ok || entry.InstallTimeHours != 2.5 {
		t.Fatalf("catalogue entry = %+v, %v", entry, ok)
	}

	if err := session.OverrideProduct(99, 1, 0); err == nil {
		t.Fatalf("expected error for unknown line number")
	}
}

func TestSessionOverrideConsolidatedDoesNotLearn(t *testing.T) {
	session, catalogue := newTestSession(t)
	session.LoadLines(testLines())

	if err := session.OverrideProduct(internal.LineNumberConsolidated, 0.5, 0); err != nil {
		t.Fatalf("OverrideProduct: %v", err)
	}
	if _, ok := catalogue.Get("POWER-MODULE"); ok {
		t.Fatalf("consolidated override must not create a catalogue entry")
	}
}

func TestSessionCalculate(t *testing.T) {
	session, _ := newTestSession(t)
	session.LoadLines(testLines())
	if _, err := session.ProvideTime("WIDGET-9", 2, 0.25, false, false); err != nil {
		t.Fatalf("ProvideTime: %v", err)
	}
	session.SetDetails(internal.QuoteDetails{ClientName: "Acme Interiors"})

	results := session.Calculate()

	// Booth 4.5h, widgets 4h, consolidated power 0.4h.
	if math.Abs(results.TotalHours-8.9) > 1e-9 {
		t.Fatalf("TotalHours = %g", results.TotalHours)
	}
	if results.TotalDays != 2 {
		t.Fatalf("TotalDays = %d", results.TotalDays)
	}
}
