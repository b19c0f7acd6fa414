package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"yada/internal/adapter/cache"
	"yada/internal/domain"
	"yada/internal/port"
)

// ErrNoProfile is returned when an edit needs a profile and none is set.
var ErrNoProfile = errors.New("no profile")

// SessionOptions configures a Session. The zero value is usable.
type SessionOptions struct {
	Resolution      ResolutionMode
	SearchCacheSize int
	SearchCacheTTL  time.Duration
	HistoryLimit    int

	// Seed is ingested by Load when the store holds no foods.
	Seed port.FoodSource

	Clock func() time.Time
}

// Session ties together one user's catalog, ledger and profile and moves
// them in and out of a store.
type Session struct {
	user        string
	seed        port.FoodSource
	catalogOpts []CatalogOption
	catalog     *Catalog
	ledger      *Ledger
	history     *ProfileHistory
	profile     *domain.Profile
}

func NewSession(user string, opts SessionOptions) *Session {
	catalogOpts := []CatalogOption{WithResolution(opts.Resolution)}
	if opts.SearchCacheSize > 0 {
		catalogOpts = append(catalogOpts, WithSearchCache(cache.NewSearchCache(opts.SearchCacheSize, opts.SearchCacheTTL)))
	}

	var ledgerOpts []LedgerOption
	if opts.Clock != nil {
		ledgerOpts = append(ledgerOpts, WithClock(opts.Clock))
	}

	return &Session{
		user:        user,
		seed:        opts.Seed,
		catalogOpts: catalogOpts,
		catalog:     NewCatalog(catalogOpts...),
		ledger:      NewLedger(ledgerOpts...),
		history:     NewProfileHistory(opts.HistoryLimit),
	}
}

func (s *Session) User() string { return s.user }
func (s *Session) Catalog() *Catalog { return s.catalog }
func (s *Session) Ledger() *Ledger { return s.ledger }
func (s *Session) ProfileHistory() *ProfileHistory { return s.history }

// Load replaces the catalog, ledger and profile with what the store holds
// for the user.
// Composite cycles are logged and tolerated.
func (s *Session) Load(ctx context.Context, store port.Store) error {
	foods, err := store.LoadFoods(ctx)
	if err != nil {
		return fmt.Errorf("failed to load foods: %w", err)
	}

	s.catalog = NewCatalog(s.catalogOpts...)
	switch {
	case len(foods) > 0:
		for _, f := range foods {
			s.catalog.Add(f)
		}
		if err := s.catalog.ResolveAll(); err != nil && !errors.Is(err, ErrCycle) {
			return err
		}
	case s.seed != nil:
		n, err := s.catalog.IngestFrom(ctx, s.seed)
		if err != nil && !errors.Is(err, ErrCycle) {
			return fmt.Errorf("failed to seed catalog: %w", err)
		}
		slog.Info("seeded empty catalog", "foods", n)
	}

	ledger, err := store.LoadLedger(ctx, s.user)
	if err != nil {
		return fmt.Errorf("failed to load ledger: %w", err)
	}
	s.ledger.Restore(ledger)

	profile, err := store.LoadProfile(ctx, s.user)
	if err != nil {
		return fmt.Errorf("failed to load profile: %w", err)
	}
	s.profile = nil
	if profile.Active != nil {
		p := *profile.Active
		s.profile = &p
	}
	s.history.Restore(profile.History)

	slog.Debug("session loaded",
		"user", s.user,
		"foods", s.catalog.Len(),
		"dates", len(s.ledger.Dates()),
		"undo", len(ledger.History),
		"profile", s.profile != nil)
	return nil
}

// Save writes the catalog and the user's ledger and profile.
func (s *Session) Save(ctx context.Context, store port.Store) error {
	if err := store.SaveFoods(ctx, s.catalog.All()); err != nil {
		return fmt.Errorf("failed to save foods: %w", err)
	}
	if err := store.SaveLedger(ctx, s.user, s.ledger.State()); err != nil {
		return fmt.Errorf("failed to save ledger: %w", err)
	}

	state := domain.ProfileState{History: s.history.Snapshots()}
	if s.profile != nil {
		p := *s.profile
		state.Active = &p
	}
	if err := store.SaveProfile(ctx, s.user, state); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

// Profile returns the active profile.
func (s *Session) Profile() (domain.Profile, bool) {
	if s.profile == nil {
		return domain.Profile{}, false
	}
	return *s.profile, true
}

// SetProfile installs p as the active profile without a checkpoint.
func (s *Session) SetProfile(p domain.Profile) {
	if p.Username == "" {
		p.Username = s.user
	}
	s.profile = &p
}

// UpdateProfile checkpoints the active profile and then applies edit to it.
func (s *Session) UpdateProfile(edit func(p *domain.Profile)) error {
	if s.profile == nil {
		return ErrNoProfile
	}
	s.history.Checkpoint(*s.profile)
	p := *s.profile
	edit(&p)
	s.profile = &p
	return nil
}

// SetMethod switches the calorie calculation method. Unregistered names are
// accepted; the target then falls back to the default.
func (s *Session) SetMethod(name string) error {
	if _, ok := domain.LookupCalculator(name); !ok {
		slog.Info("unknown calorie method, target will use default", "method", name)
	}
	return s.UpdateProfile(func(p *domain.Profile) { p.Method = name })
}

// UndoProfile restores the most recent profile snapshot.
func (s *Session) UndoProfile() bool {
	p, ok := s.history.Undo()
	if !ok {
		return false
	}
	s.profile = &p
	return true
}

// SummaryLine is one entry of a day summary.
type SummaryLine struct {
	Index     int       `json:"index"`
	FoodID    string    `json:"food_id"`
	Name      string    `json:"name"`
	Servings  int       `json:"servings"`
	Calories  int       `json:"calories"`
	Timestamp time.Time `json:"timestamp"`
}

// DaySummary is what one date looks like against the active profile.
type DaySummary struct {
	Date       string        `json:"date"`
	Lines      []SummaryLine `json:"lines"`
	Total      int           `json:"total"`
	HasTarget  bool          `json:"has_target"`
	Target     int           `json:"target,omitempty"`
	Difference int           `json:"difference,omitempty"`
}

// Summary lists date's entries with their calories. Unknown foods are named
// "?<id>" and count as zero. Difference is consumed minus target.
func (s *Session) Summary(date string) DaySummary {
	sum := DaySummary{Date: date, Lines: []SummaryLine{}}

	for i, entry := range s.ledger.EntriesFor(date) {
		line := SummaryLine{
			Index:     i + 1,
			FoodID:    entry.FoodID,
			Name:      "?" + entry.FoodID,
			Servings:  entry.Servings,
			Timestamp: entry.Timestamp,
		}
		if food, ok := s.catalog.Get(entry.FoodID); ok {
			line.Name = food.Name
			line.Calories = food.Calories * entry.Servings
		}
		sum.Lines = append(sum.Lines, line)
	}
	sum.Total = s.ledger.TotalCalories(date, s.catalog)

	if p, ok := s.Profile(); ok {
		sum.HasTarget = true
		sum.Target = p.DailyTargetCalories()
		sum.Difference = sum.Total - sum.Target
	}
	return sum
}
