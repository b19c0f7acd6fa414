package port

import (
	"context"

	"yada/internal/domain"
)

// Store persists catalogs, logs and profiles between sessions.
// Save methods replace whatever was stored before for the same scope.
type Store interface {
	// SaveFoods replaces the shared food catalog.
	SaveFoods(ctx context.Context, foods []domain.Food) error

	// LoadFoods returns the stored catalog; an empty store yields no foods
	// and no error.
	LoadFoods(ctx context.Context) ([]domain.Food, error)

	// SaveLedger replaces the user's entries and undo history.
	SaveLedger(ctx context.Context, user string, state domain.LedgerState) error

	// LoadLedger returns entries ordered by date then insertion, and
	// history oldest first.
	LoadLedger(ctx context.Context, user string) (domain.LedgerState, error)

	// SaveProfile replaces the user's active profile and snapshots.
	SaveProfile(ctx context.Context, user string, state domain.ProfileState) error

	// LoadProfile returns a nil Active profile when none is stored.
	LoadProfile(ctx context.Context, user string) (domain.ProfileState, error)

	// Users lists, sorted, every user with a stored ledger or profile.
	Users(ctx context.Context) ([]string, error)

	Close() error
}
