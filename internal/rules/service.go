package rules

import (
	"sync"

	"go.uber.org/zap"

	"fitquote/internal/logging"
)

// Store is the slice of the storage layer the rules service needs.
type Store interface {
	LoadRulesDocument() (*string, error)
	SaveRulesDocument(document string) error
}

// Service owns the current rule set for a session. Reads hand out value
// copies, so callers can never observe a half-applied reload.
type Service struct {
	mu      sync.RWMutex
	store   Store
	current Config
}

// NewService loads the persisted rules document, falling back to the
// shipped defaults when none exists.
func NewService(store Store) (*Service, error) {
	s := &Service{store: store, current: Defaults()}
	if store == nil {
		return s, nil
	}

	document, err := store.LoadRulesDocument()
	if err != nil {
		return nil, err
	}
	if document != nil {
		cfg, err := Decode(*document)
		if err != nil {
			logging.Logger.Warn("stored rules document is invalid, keeping defaults", zap.Error(err))
			return s, nil
		}
		s.current = cfg
	}
	return s, nil
}

// Current returns the active rule set.
func (s *Service) Current() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Update swaps in a new rule set and persists it.
func (s *Service) Update(cfg Config) error {
	document, err := Encode(cfg)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.current = cfg
	s.mu.Unlock()

	if s.store == nil {
		return nil
	}
	return s.store.SaveRulesDocument(document)
}

// Reload re-reads the persisted document mid-session. A missing or
// undecodable document keeps the active rules unchanged.
func (s *Service) Reload() error {
	if s.store == nil {
		return nil
	}
	document, err := s.store.LoadRulesDocument()
	if err != nil {
		return err
	}
	if document == nil {
		return nil
	}
	cfg, err := Decode(*document)
	if err != nil {
		logging.Logger.Warn("rules reload failed, keeping previous rules", zap.Error(err))
		return nil
	}

	s.mu.Lock()
	s.current = cfg
	s.mu.Unlock()
	return nil
}
