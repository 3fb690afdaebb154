package catalog

import (
	"fitquote/internal"
	"fitquote/internal/util"
)

// Index precomputes normalized-key lookups over a catalogue snapshot.
// Canonical keys are added before aliases, so an alias can never shadow
// a real catalogue key that normalizes to the same string.
type Index struct {
	ByNormalized map[string]string
	Entries      map[string]internal.CatalogueEntry
}

func BuildIndex(entries map[string]internal.CatalogueEntry) *Index {
	idx := &Index{
		ByNormalized: map[string]string{},
		Entries:      entries,
	}

	for key := range entries {
		norm := util.NormalizeCode(key)
		if norm == "" {
			continue
		}
		idx.ByNormalized[norm] = key
	}

	for key, entry := range entries {
		for _, alias := range entry.Aliases {
			norm := util.NormalizeCode(alias)
			if norm == "" {
				continue
			}
			if _, taken := idx.ByNormalized[norm]; !taken {
				idx.ByNormalized[norm] = key
			}
		}
	}

	return idx
}

// Lookup resolves any raw code spelling to its canonical catalogue key.
func (i *Index) Lookup(code string) (string, bool) {
	key, ok := i.ByNormalized[util.NormalizeCode(code)]
	return key, ok
}

// Entry returns the catalogue entry behind a canonical key.
func (i *Index) Entry(key string) (internal.CatalogueEntry, bool) {
	entry, ok := i.Entries[key]
	return entry, ok
}
