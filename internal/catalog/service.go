package catalog

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"fitquote/internal"
	"fitquote/internal/logging"
	"fitquote/internal/util"
)

// Store is the slice of the storage layer the catalogue service needs.
type Store interface {
	ListCatalogueEntries() ([]internal.CatalogueEntry, error)
	ListCatalogueAliases() (map[string]string, error)
	UpsertCatalogueEntry(entry internal.CatalogueEntry) error
	AttachCatalogueAlias(alias, code string) error
	InsertLearnEvent(event internal.LearnEvent) error
}

// Service owns the session's catalogue mirror. The resolver and matcher
// only ever see immutable snapshots; all mutation goes through here, and
// durable writes are fire-and-forget with the mirror updated first. A
// failed write degrades to session-only persistence, never a rollback.
type Service struct {
	mu      sync.Mutex
	store   Store
	entries map[string]internal.CatalogueEntry
	aliases map[string]string

	writes sync.WaitGroup
}

// NewService loads the durable catalogue into the in-memory mirror.
// A nil store yields a session-only catalogue.
func NewService(store Store) (*Service, error) {
	s := &Service{
		store:   store,
		entries: map[string]internal.CatalogueEntry{},
		aliases: map[string]string{},
	}
	if store == nil {
		return s, nil
	}

	entries, err := store.ListCatalogueEntries()
	if err != nil {
		return nil, fmt.Errorf("load catalogue: %w", err)
	}
	for _, entry := range entries {
		s.entries[entry.Code] = entry
	}

	aliases, err := store.ListCatalogueAliases()
	if err != nil {
		return nil, fmt.Errorf("load catalogue aliases: %w", err)
	}
	s.aliases = aliases

	return s, nil
}

// Snapshot returns an immutable copy of the catalogue with aliases
// folded into each entry, ready for BuildIndex.
func (s *Service) Snapshot() map[string]internal.CatalogueEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]internal.CatalogueEntry, len(s.entries))
	for code, entry := range s.entries {
		copied := entry
		copied.Aliases = append([]string(nil), entry.Aliases...)
		out[code] = copied
	}
	for alias, code := range s.aliases {
		entry, ok := out[code]
		if !ok {
			continue
		}
		entry.Aliases = append(entry.Aliases, alias)
		out[code] = entry
	}
	return out
}

// Get looks up an entry by code, via normalization.
func (s *Service) Get(code string) (internal.CatalogueEntry, bool) {
	snapshot := s.Snapshot()
	index := BuildIndex(snapshot)
	key, ok := index.Lookup(code)
	if !ok {
		return internal.CatalogueEntry{}, false
	}
	return snapshot[key], true
}

// Upsert replaces or creates an entry in the mirror and the store.
func (s *Service) Upsert(entry internal.CatalogueEntry) {
	entry.Code = strings.TrimSpace(entry.Code)

	s.mu.Lock()
	s.entries[entry.Code] = entry
	s.mu.Unlock()

	s.persist(func(store Store) error {
		return store.UpsertCatalogueEntry(entry)
	})
}

// AttachAlias maps an alternate raw code onto an existing entry. The
// canonical key must already exist; aliasing to nowhere would create
// lines that resolve to nothing.
func (s *Service) AttachAlias(alias, canonicalKey string) error {
	alias = strings.TrimSpace(alias)
	if alias == "" {
		return fmt.Errorf("alias is empty")
	}

	s.mu.Lock()
	if _, ok := s.entries[canonicalKey]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("unknown catalogue key: %s", canonicalKey)
	}
	s.aliases[alias] = canonicalKey
	s.mu.Unlock()

	s.persist(func(store Store) error {
		return store.AttachCatalogueAlias(alias, canonicalKey)
	})
	return nil
}

// Learn records a user-supplied install profile for a code, growing the
// catalogue. Returns the entry now visible to resolution.
func (s *Service) Learn(event internal.LearnEvent) internal.CatalogueEntry {
	entry := internal.CatalogueEntry{
		Code:             strings.TrimSpace(event.Code),
		InstallTimeHours: event.InstallTimeHours,
		WasteVolumeM3:    event.WasteVolumeM3,
		IsHeavy:          event.IsHeavy,
	}

	s.mu.Lock()
	if existing, ok := s.entries[entry.Code]; ok {
		entry.Aliases = existing.Aliases
	}
	s.entries[entry.Code] = entry
	s.mu.Unlock()

	s.persist(func(store Store) error {
		if err := store.UpsertCatalogueEntry(entry); err != nil {
			return err
		}
		return store.InsertLearnEvent(event)
	})
	return entry
}

// ResolveKey maps any spelling of a code to its canonical key using the
// same normalization as the matcher.
func (s *Service) ResolveKey(code string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	norm := util.NormalizeCode(code)
	for key := range s.entries {
		if util.NormalizeCode(key) == norm {
			return key, true
		}
	}
	for alias, key := range s.aliases {
		if util.NormalizeCode(alias) == norm {
			return key, true
		}
	}
	return "", false
}

// Flush waits for in-flight durable writes. Call before process exit.
func (s *Service) Flush() {
	s.writes.Wait()
}

func (s *Service) persist(write func(Store) error) {
	if s.store == nil {
		return
	}
	store := s.store
	s.writes.Add(1)
	go func() {
		defer s.writes.Done()
		if err := write(store); err != nil {
			logging.Logger.Warn("catalogue write failed, change kept for this session only", zap.Error(err))
		}
	}()
}
