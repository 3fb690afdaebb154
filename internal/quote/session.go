// Package quote ties the resolution pipeline, the catalogue service and
// the calculation engine into one editing session: resolve a batch, let
// the user close the unresolved set (teaching the catalogue as a side
// effect), override resolved figures, and recalculate on every change.
package quote

import (
	"fmt"
	"sync"

	"fitquote/internal"
	"fitquote/internal/calc"
	"fitquote/internal/catalog"
	"fitquote/internal/pipeline"
	"fitquote/internal/rules"
	"fitquote/internal/util"
)

// Session is a single-user quote editing session. The core stays pure;
// all mutable state lives here, and catalogue writes are serialized by
// the catalogue service.
type Session struct {
	catalogue *catalog.Service
	rules     *rules.Service

	mu           sync.Mutex
	details      internal.QuoteDetails
	resolved     []internal.ResolvedProduct
	unresolved   []internal.UnresolvedProduct
	sessionEdits map[string]internal.CatalogueEntry
	manualEdits  map[string]internal.CatalogueEntry
}

func NewSession(catalogue *catalog.Service, rulesService *rules.Service) *Session {
	return &Session{
		catalogue:    catalogue,
		rules:        rulesService,
		sessionEdits: map[string]internal.CatalogueEntry{},
		manualEdits:  map[string]internal.CatalogueEntry{},
	}
}

// LoadLines resolves a fresh batch, replacing any previous state.
func (s *Session) LoadLines(lines []internal.RawLineItem) pipeline.ResolveResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	resolver := pipeline.NewResolver(s.catalogue.Snapshot(), s.rules.Current())
	result := resolver.Resolve(lines, s.sessionEdits, s.manualEdits)
	s.resolved = result.Resolved
	s.unresolved = result.Unresolved
	return result
}

// ProvideTime closes one unresolved code with a user-supplied install
// profile. When learn is true the catalogue is taught durably; otherwise
// the entry applies to this quote only. The residual unresolved set is
// re-resolved and the results merged.
func (s *Session) ProvideTime(code string, timeHours, wasteM3 float64, heavy, learn bool) (pipeline.ResolveResult, error) {
	if timeHours <= 0 {
		return pipeline.ResolveResult{}, fmt.Errorf("install time must be positive, got %g", timeHours)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	norm := util.NormalizeCode(code)
	if learn {
		entry := s.catalogue.Learn(internal.LearnEvent{
			Code:             code,
			InstallTimeHours: timeHours,
			WasteVolumeM3:    wasteM3,
			IsHeavy:          heavy,
			Source:           internal.SourceUserInputted,
		})
		s.sessionEdits[norm] = entry
	} else {
		s.manualEdits[norm] = internal.CatalogueEntry{
			Code:             code,
			InstallTimeHours: timeHours,
			WasteVolumeM3:    wasteM3,
			IsHeavy:          heavy,
		}
	}

	return s.reresolveResidualLocked(), nil
}

// AttachAlias resolves an unknown code by declaring it an alternate
// spelling of an existing catalogue entry.
func (s *Session) AttachAlias(code, canonicalKey string) (pipeline.ResolveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.catalogue.AttachAlias(code, canonicalKey); err != nil {
		return pipeline.ResolveResult{}, err
	}
	return s.reresolveResidualLocked(), nil
}

// OverrideProduct replaces the time and waste figures of a resolved
// line. The edit teaches the catalogue the new figures, so the next
// quote starts from them.
func (s *Session) OverrideProduct(lineNumber int, timeHours, wasteM3 float64) error {
	if timeHours <= 0 {
		return fmt.Errorf("install time must be positive, got %g", timeHours)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.resolved {
		if s.resolved[i].LineNumber != lineNumber {
			continue
		}
		product := &s.resolved[i]
		product.TimePerUnit = timeHours
		product.TotalTime = float64(product.Quantity) * timeHours
		product.WastePerUnit = wasteM3
		product.TotalWaste = float64(product.Quantity) * wasteM3
		product.IsManuallyEdited = true
		product.Source = internal.SourceUserInputted

		if lineNumber != internal.LineNumberConsolidated {
			s.catalogue.Learn(internal.LearnEvent{
				Code:             product.ProductCode,
				InstallTimeHours: timeHours,
				WasteVolumeM3:    wasteM3,
				IsHeavy:          product.IsHeavy,
				Source:           internal.SourceUserInputted,
			})
		}
		return nil
	}
	return fmt.Errorf("no resolved product with line number %d", lineNumber)
}

// reresolveResidualLocked re-runs resolution for the unresolved set only
// and merges newly resolved products into the session.
func (s *Session) reresolveResidualLocked() pipeline.ResolveResult {
	if len(s.unresolved) == 0 {
		return pipeline.ResolveResult{Resolved: s.resolved, Unresolved: s.unresolved}
	}

	residual := make([]internal.RawLineItem, 0, len(s.unresolved))
	for _, u := range s.unresolved {
		residual = append(residual, internal.RawLineItem{
			LineNumber:     u.LineNumber,
			ProductCode:    u.ProductCode,
			Description:    u.Description,
			RawDescription: u.RawDescription,
			Quantity:       u.Quantity,
		})
	}

	resolver := pipeline.NewResolver(s.catalogue.Snapshot(), s.rules.Current())
	result := resolver.Resolve(residual, s.sessionEdits, s.manualEdits)

	s.resolved = pipeline.MergeResolved(s.resolved, result.Resolved)
	s.unresolved = result.Unresolved
	return pipeline.ResolveResult{Resolved: s.resolved, Unresolved: s.unresolved}
}

// SetDetails replaces the quote details.
func (s *Session) SetDetails(details internal.QuoteDetails) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.details = details
}

func (s *Session) Details() internal.QuoteDetails {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.details
}

func (s *Session) Products() []internal.ResolvedProduct {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]internal.ResolvedProduct(nil), s.resolved...)
}

func (s *Session) Unresolved() []internal.UnresolvedProduct {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]internal.UnresolvedProduct(nil), s.unresolved...)
}

// Calculate recomputes results from the session's current state.
func (s *Session) Calculate() internal.CalculationResults {
	s.mu.Lock()
	defer s.mu.Unlock()
	return calc.CalculateAll(s.resolved, s.details, s.rules.Current())
}
