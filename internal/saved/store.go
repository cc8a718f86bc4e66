// Package saved keeps the liked-cafes list and its durable record.
package saved

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"cafe_finder/internal/adapters/observability"
	"cafe_finder/internal/domain"
)

// DefaultRecord is the record name the list is stored under.
const DefaultRecord = "savedCafes"

// Store is the SavedList. The in-memory list is authoritative for the
// session; every successful Add overwrites the durable record.
//
// Until the durable record has been read once, Add never writes: a list
// built from a failed read would replace what is stored.
type Store struct {
	mu      sync.Mutex
	rs      domain.RecordStore
	record  string
	backend string
	log     zerolog.Logger
	items   []domain.Cafe
	index   map[string]struct{}
	loaded  bool
}

func New(rs domain.RecordStore, record, backend string, log zerolog.Logger) *Store {
	if record == "" {
		record = DefaultRecord
	}
	return &Store{rs: rs, record: record, backend: backend, log: log, index: map[string]struct{}{}}
}

// Load reads the durable record into memory. A missing or malformed record
// yields an empty list; malformed data is logged and never returned as an
// error. Only a backend read failure is reported, wrapped in ErrStorage; the
// in-memory list is left as it was and the store stays unloaded.
// Cafes added in memory but not in the record are kept after it.
func (s *Store) Load(ctx context.Context) ([]domain.Cafe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	durable, err := s.read(ctx)
	if err != nil {
		return s.copyItems(), err
	}
	s.merge(durable)
	return s.copyItems(), nil
}

func (s *Store) read(ctx context.Context) ([]domain.Cafe, error) {
	raw, ok, err := s.rs.Get(ctx, s.record)
	if err != nil {
		s.log.Error().Err(err).Str("record", s.record).Msg("saved list read failed")
		return nil, fmt.Errorf("load %s: %v: %w", s.record, err, domain.ErrStorage)
	}
	if !ok || len(raw) == 0 {
		return nil, nil
	}
	items, err := decode(raw)
	if err != nil {
		observability.ObserveRecord(s.backend, "corrupt")
		s.log.Warn().Err(err).Str("record", s.record).Msg("saved list malformed, starting empty")
		return nil, nil
	}
	return items, nil
}

// merge puts the durable items first and keeps pending in-memory ones after.
func (s *Store) merge(durable []domain.Cafe) {
	pending := s.items
	s.items, s.index = nil, map[string]struct{}{}
	for _, group := range [][]domain.Cafe{durable, pending} {
		for _, c := range group {
			if c.ID == "" {
				continue
			}
			if _, dup := s.index[c.ID]; dup {
				continue
			}
			s.index[c.ID] = struct{}{}
			s.items = append(s.items, c)
		}
	}
	s.loaded = true
}

func decode(raw []byte) ([]domain.Cafe, error) {
	var items []domain.Cafe
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrStorageCorruption)
	}
	return items, nil
}

// Add appends c when its id is not saved yet and persists the list. It
// reports whether c was inserted. A persist failure keeps the insertion in
// memory and returns an ErrStorage error.
//
// When the record has not been read yet Add reads and merges it first. If
// that read fails the insertion stays in memory only.
func (s *Store) Add(ctx context.Context, c domain.Cafe) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == "" {
		return false, fmt.Errorf("saved add: empty id: %w", domain.ErrValidation)
	}

	var readErr error
	if !s.loaded {
		durable, err := s.read(ctx)
		if err != nil {
			readErr = err
		} else {
			s.merge(durable)
		}
	}

	if _, dup := s.index[c.ID]; dup {
		return false, nil
	}
	s.index[c.ID] = struct{}{}
	s.items = append(s.items, c)

	if readErr != nil {
		s.log.Warn().Str("id", c.ID).Msg("saved list not loaded, keeping cafe in memory")
		return true, fmt.Errorf("persist %s: record not loaded: %w", s.record, readErr)
	}

	body, err := json.Marshal(s.items)
	if err != nil {
		return true, fmt.Errorf("encode %s: %v: %w", s.record, err, domain.ErrStorage)
	}
	if err := s.rs.Put(ctx, s.record, body); err != nil {
		s.log.Error().Err(err).Str("id", c.ID).Msg("saved list write failed")
		return true, fmt.Errorf("persist %s: %v: %w", s.record, err, domain.ErrStorage)
	}
	s.log.Debug().Str("id", c.ID).Int("count", len(s.items)).Msg("cafe saved")
	return true, nil
}

func (s *Store) Items() []domain.Cafe {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyItems()
}

func (s *Store) Contains(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.index[id]
	return ok
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *Store) copyItems() []domain.Cafe {
	out := make([]domain.Cafe, len(s.items))
	copy(out, s.items)
	return out
}
