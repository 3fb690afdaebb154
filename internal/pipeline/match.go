package pipeline

import (
	"fitquote/internal"
	"fitquote/internal/catalog"
	"fitquote/internal/util"
)

// Matcher resolves raw product codes against one catalogue snapshot.
// Two tiers, first hit wins: an exact normalized lookup, then the
// registered family recognizers generating candidate keys in order.
// Every tier demands an exact hit on a real catalogue key; a wrong
// labour time on a quote costs more than a manual resolution, so no
// similarity scoring is used.
type Matcher struct {
	index *catalog.Index
}

func NewMatcher(snapshot map[string]internal.CatalogueEntry) *Matcher {
	return &Matcher{index: catalog.BuildIndex(snapshot)}
}

// Match returns the canonical catalogue key for a raw code.
func (m *Matcher) Match(rawCode string) (string, bool) {
	normalized := util.NormalizeCode(rawCode)
	if normalized == "" {
		return "", false
	}

	if key, ok := m.index.ByNormalized[normalized]; ok {
		return key, true
	}

	for _, family := range catalog.Families() {
		match, ok := family.Recognize(normalized)
		if !ok {
			continue
		}
		if match.Size != "" && match.Capacity != family.SmallestCapacity {
			if key, ok := m.index.Lookup(family.SpecificCandidate(match)); ok {
				return key, true
			}
		}
		for _, candidate := range family.GenericCandidates(match) {
			if key, ok := m.index.Lookup(candidate); ok {
				return key, true
			}
		}
	}

	return "", false
}

// Entry returns the snapshot entry behind a matched key.
func (m *Matcher) Entry(key string) (internal.CatalogueEntry, bool) {
	return m.index.Entry(key)
}
