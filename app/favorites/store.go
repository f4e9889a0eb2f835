// Package favorites keeps the set of favorite article GUIDs in memory and
// mirrors every change to persistent storage before returning.
package favorites

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/lysyi3m/rss-desk/app/database"
)

type Store struct {
	kv  database.Store
	key string

	mu    sync.RWMutex
	order []string
	set   map[string]struct{}
}

func NewStore(kv database.Store) *Store {
	return &Store{
		kv:  kv,
		key: database.KeyFavorites,
		set: make(map[string]struct{}),
	}
}

// Load replaces the in-memory set with the persisted one. Missing or
// malformed data yields an empty set; Load never fails.
func (s *Store) Load(ctx context.Context) []string {
	guids := s.read(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.order = make([]string, 0, len(guids))
	s.set = make(map[string]struct{}, len(guids))
	for _, guid := range guids {
		if _, ok := s.set[guid]; ok {
			continue
		}
		s.set[guid] = struct{}{}
		s.order = append(s.order, guid)
	}

	slog.Debug("Favorites loaded", "count", len(s.order))

	return slices.Clone(s.order)
}

func (s *Store) read(ctx context.Context) []string {
	raw, found, err := s.kv.Get(ctx, s.key)
	if err != nil {
		slog.Warn("Failed to read favorites, starting empty", "error", err)
		return nil
	}
	if !found {
		return nil
	}

	var guids []string
	if err := json.Unmarshal([]byte(raw), &guids); err != nil {
		slog.Warn("Malformed favorites data, starting empty", "error", err)
		return nil
	}

	return guids
}

// Toggle flips membership of guid and persists the result. It reports the
// new membership. On a persistence error the in-memory set is left unchanged.
func (s *Store) Toggle(ctx context.Context, guid string) (bool, error) {
	if guid == "" {
		return false, fmt.Errorf("guid is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, wasFavorite := s.set[guid]

	next := slices.Clone(s.order)
	if wasFavorite {
		next = slices.DeleteFunc(next, func(g string) bool { return g == guid })
	} else {
		next = append(next, guid)
	}

	if err := s.persist(ctx, next); err != nil {
		return wasFavorite, err
	}

	s.order = next
	if wasFavorite {
		delete(s.set, guid)
	} else {
		s.set[guid] = struct{}{}
	}

	slog.Debug("Favorite toggled", "guid", guid, "favorite", !wasFavorite)

	return !wasFavorite, nil
}

func (s *Store) persist(ctx context.Context, guids []string) error {
	if guids == nil {
		guids = []string{}
	}

	data, err := json.Marshal(guids)
	if err != nil {
		return fmt.Errorf("failed to encode favorites: %w", err)
	}

	if err := s.kv.Set(ctx, s.key, string(data)); err != nil {
		return fmt.Errorf("failed to persist favorites: %w", err)
	}

	return nil
}

func (s *Store) Has(guid string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.set[guid]
	return ok
}

// List returns favorite GUIDs in the order they were added.
func (s *Store) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.order)
}

func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.order)
}

// Snapshot returns an immutable copy of the current set.
func (s *Store) Snapshot() Set {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := make(Set, len(s.set))
	for guid := range s.set {
		snapshot[guid] = struct{}{}
	}
	return snapshot
}

// Set is a point-in-time copy of the favorites.
type Set map[string]struct{}

func (s Set) Has(guid string) bool {
	_, ok := s[guid]
	return ok
}
