package pipeline

import (
	"sort"

	"fitquote/internal"
	"fitquote/internal/rules"
	"fitquote/internal/util"
)

// ResolveResult partitions a batch exactly: every input line's quantity
// is accounted for in the resolved set or, aggregated by normalized
// code, in the unresolved set.
type ResolveResult struct {
	Resolved   []internal.ResolvedProduct   `json:"resolved"`
	Unresolved []internal.UnresolvedProduct `json:"unresolved"`
}

// Resolver runs the line pipeline (consolidate, standardize, match)
// over one catalogue snapshot. A Resolver holds no mutable state;
// resolution is a pure function of the batch and the snapshot.
type Resolver struct {
	matcher *Matcher
	cfg     rules.Config
}

func NewResolver(snapshot map[string]internal.CatalogueEntry, cfg rules.Config) *Resolver {
	return &Resolver{matcher: NewMatcher(snapshot), cfg: cfg}
}

// Resolve partitions lines into resolved and unresolved products.
// sessionEdits and manualEdits are keyed by normalized code: manual
// edits win outright, then entries learned this session, then the
// catalogue matcher. Duplicate unresolved codes are merged so the user
// is asked once per distinct code.
func (r *Resolver) Resolve(lines []internal.RawLineItem, sessionEdits, manualEdits map[string]internal.CatalogueEntry) ResolveResult {
	grouped, consolidated := Consolidate(lines, r.cfg.Consolidation)

	result := ResolveResult{
		Resolved:   []internal.ResolvedProduct{},
		Unresolved: []internal.UnresolvedProduct{},
	}
	unresolvedIndex := map[string]int{}

	for _, line := range grouped {
		norm := util.NormalizeCode(line.ProductCode)
		desc := StandardizeDescription(line)

		if entry, ok := manualEdits[norm]; ok {
			result.Resolved = append(result.Resolved, buildResolved(line, desc, entry, internal.SourceUserInputted, true))
			continue
		}

		if entry, ok := sessionEdits[norm]; ok {
			result.Resolved = append(result.Resolved, buildResolved(line, desc, entry, internal.SourceLearned, false))
			continue
		}

		if key, ok := r.matcher.Match(line.ProductCode); ok {
			entry, _ := r.matcher.Entry(key)
			product := buildResolved(line, desc, entry, internal.SourceCatalogue, false)
			product.ProductCode = key
			result.Resolved = append(result.Resolved, product)
			continue
		}

		if at, seen := unresolvedIndex[norm]; seen {
			result.Unresolved[at].Quantity += line.Quantity
			continue
		}
		unresolvedIndex[norm] = len(result.Unresolved)
		result.Unresolved = append(result.Unresolved, internal.UnresolvedProduct{
			LineNumber:     line.LineNumber,
			ProductCode:    line.ProductCode,
			NormalizedCode: norm,
			Description:    desc,
			RawDescription: line.RawDescription,
			Quantity:       line.Quantity,
		})
	}

	if consolidated != nil {
		result.Resolved = append(result.Resolved, r.resolveConsolidated(*consolidated))
	}

	SortResolved(result.Resolved)
	return result
}

// resolveConsolidated prices the synthetic power line. The per-unit
// time is the configured constant regardless of any catalogue entry;
// waste and handling come from the catalogue when the consolidated code
// is known there.
func (r *Resolver) resolveConsolidated(line internal.RawLineItem) internal.ResolvedProduct {
	entry := internal.CatalogueEntry{}
	if key, ok := r.matcher.Match(line.ProductCode); ok {
		entry, _ = r.matcher.Entry(key)
		line.ProductCode = key
	}
	entry.InstallTimeHours = r.cfg.Consolidation.TimePerUnitHours
	return buildResolved(line, StandardizeDescription(line), entry, internal.SourceCatalogue, false)
}

func buildResolved(line internal.RawLineItem, description string, entry internal.CatalogueEntry, source internal.ProductSource, edited bool) internal.ResolvedProduct {
	qty := float64(line.Quantity)
	return internal.ResolvedProduct{
		LineNumber:       line.LineNumber,
		ProductCode:      line.ProductCode,
		Description:      description,
		Quantity:         line.Quantity,
		TimePerUnit:      entry.InstallTimeHours,
		TotalTime:        qty * entry.InstallTimeHours,
		WastePerUnit:     entry.WasteVolumeM3,
		TotalWaste:       qty * entry.WasteVolumeM3,
		IsHeavy:          entry.IsHeavy,
		Source:           source,
		IsManuallyEdited: edited,
	}
}

// MergeResolved folds late-resolved products (manual entry or catalogue
// learning closing the unresolved set) into an existing resolved set.
func MergeResolved(existing, late []internal.ResolvedProduct) []internal.ResolvedProduct {
	merged := make([]internal.ResolvedProduct, 0, len(existing)+len(late))
	merged = append(merged, existing...)
	merged = append(merged, late...)
	SortResolved(merged)
	return merged
}

// SortResolved orders products by line number with the consolidated
// sentinel pinned last regardless of value. Stable, so equal line
// numbers keep input order.
func SortResolved(products []internal.ResolvedProduct) {
	sort.SliceStable(products, func(i, j int) bool {
		a, b := products[i].LineNumber, products[j].LineNumber
		if a == internal.LineNumberConsolidated {
			return false
		}
		if b == internal.LineNumberConsolidated {
			return true
		}
		return a < b
	})
}
