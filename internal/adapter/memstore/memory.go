package memstore

import (
	"context"
	"sort"
	"sync"

	"yada/internal/domain"
	"yada/internal/port"
)

var _ port.Store = (*MemoryStore)(nil)

// MemoryStore keeps everything in maps. Values are copied on the way in and
// out so callers never share slices with the store.
type MemoryStore struct {
	mu       sync.RWMutex
	foods    []domain.Food
	ledgers  map[string]domain.LedgerState
	profiles map[string]domain.ProfileState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		ledgers:  make(map[string]domain.LedgerState),
		profiles: make(map[string]domain.ProfileState),
	}
}

func (s *MemoryStore) SaveFoods(ctx context.Context, foods []domain.Food) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.foods = cloneFoods(foods)
	return nil
}

func (s *MemoryStore) LoadFoods(ctx context.Context) ([]domain.Food, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneFoods(s.foods), nil
}

func (s *MemoryStore) SaveLedger(ctx context.Context, user string, state domain.LedgerState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledgers[user] = cloneLedger(state)
	return nil
}

func (s *MemoryStore) LoadLedger(ctx context.Context, user string) (domain.LedgerState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneLedger(s.ledgers[user]), nil
}

func (s *MemoryStore) SaveProfile(ctx context.Context, user string, state domain.ProfileState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[user] = cloneProfile(state)
	return nil
}

func (s *MemoryStore) LoadProfile(ctx context.Context, user string) (domain.ProfileState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneProfile(s.profiles[user]), nil
}

func (s *MemoryStore) Close() error {
	return nil
}

func (s *MemoryStore) Users(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]struct{})
	for u := range s.ledgers {
		seen[u] = struct{}{}
	}
	for u := range s.profiles {
		seen[u] = struct{}{}
	}
	users := make([]string, 0, len(seen))
	for u := range seen {
		users = append(users, u)
	}
	sort.Strings(users)
	return users, nil
}

func cloneFoods(foods []domain.Food) []domain.Food {
	if foods == nil {
		return nil
	}
	out := make([]domain.Food, len(foods))
	for i, f := range foods {
		out[i] = f.Clone()
	}
	return out
}

func cloneLedger(state domain.LedgerState) domain.LedgerState {
	return domain.LedgerState{
		Entries: append([]domain.DatedEntry(nil), state.Entries...),
		History: append([]domain.Command(nil), state.History...),
	}
}

func cloneProfile(state domain.ProfileState) domain.ProfileState {
	out := domain.ProfileState{History: append([]domain.Profile(nil), state.History...)}
	if state.Active != nil {
		p := *state.Active
		out.Active = &p
	}
	return out
}
