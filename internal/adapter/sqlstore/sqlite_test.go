package sqlstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yada/internal/domain"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "nested", "yada.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("empty store loads nothing", func(t *testing.T) {
		foods, err := store.LoadFoods(ctx)
		require.NoError(t, err)
		assert.Empty(t, foods)

		ledger, err := store.LoadLedger(ctx, "alice")
		require.NoError(t, err)
		assert.Empty(t, ledger.Entries)

		profile, err := store.LoadProfile(ctx, "alice")
		require.NoError(t, err)
		assert.Nil(t, profile.Active)
	})

	t.Run("foods round trip with components in order", func(t *testing.T) {
		in := []domain.Food{
			domain.NewBasicFood("banana", "Banana", []string{"banana", "fruit"}, 105),
			domain.NewCompositeFood("bshake", "Banana Shake", []string{"shake"},
				[]domain.Component{{FoodID: "milk", Servings: 2}, {FoodID: "banana", Servings: 2}}),
			domain.NewBasicFood("milk", "Milk", []string{"milk"}, 149),
		}
		in[1].Calories = 508
		require.NoError(t, store.SaveFoods(ctx, in))

		out, err := store.LoadFoods(ctx)
		require.NoError(t, err)
		assert.Equal(t, in, out)

		require.NoError(t, store.SaveFoods(ctx, in[:1]))
		out, err = store.LoadFoods(ctx)
		require.NoError(t, err)
		assert.Len(t, out, 1)
	})

	t.Run("ledger round trip per user", func(t *testing.T) {
		ts := time.Date(2024, 3, 1, 8, 30, 0, 123, time.UTC)
		e1 := domain.FoodEntry{FoodID: "banana", Servings: 1, Timestamp: ts}
		e2 := domain.FoodEntry{FoodID: "milk", Servings: 2, Timestamp: ts.Add(time.Minute)}
		state := domain.LedgerState{
			Entries: []domain.DatedEntry{
				{Date: "2024-03-01", Entry: e1},
				{Date: "2024-03-01", Entry: e2},
				{Date: "2024-03-02", Entry: e1},
			},
			History: []domain.Command{
				{Kind: domain.CommandAdded, Date: "2024-03-01", Entry: e2},
				{Kind: domain.CommandRemoved, Date: "2024-03-05", Entry: e1},
			},
		}
		require.NoError(t, store.SaveLedger(ctx, "alice", state))
		require.NoError(t, store.SaveLedger(ctx, "bob", domain.LedgerState{
			Entries: []domain.DatedEntry{{Date: "2024-03-01", Entry: e1}},
		}))

		got, err := store.LoadLedger(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, state, got)

		bob, err := store.LoadLedger(ctx, "bob")
		require.NoError(t, err)
		assert.Len(t, bob.Entries, 1)
		assert.Empty(t, bob.History)
	})

	t.Run("profile round trip", func(t *testing.T) {
		active := domain.NewProfile("carol", domain.GenderOther, 170.5, 44, 70.25, domain.ExtremelyActive)
		active.Method = "mifflin-st-jeor"
		snap := active
		snap.Method = domain.DefaultMethod

		require.NoError(t, store.SaveProfile(ctx, "carol", domain.ProfileState{
			Active:  &active,
			History: []domain.Profile{snap, snap},
		}))

		got, err := store.LoadProfile(ctx, "carol")
		require.NoError(t, err)
		require.NotNil(t, got.Active)
		assert.Equal(t, active, *got.Active)
		assert.Equal(t, []domain.Profile{snap, snap}, got.History)

		require.NoError(t, store.SaveProfile(ctx, "carol", domain.ProfileState{}))
		got, err = store.LoadProfile(ctx, "carol")
		require.NoError(t, err)
		assert.Nil(t, got.Active)
		assert.Empty(t, got.History)
	})

	t.Run("users", func(t *testing.T) {
		users, err := store.Users(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"alice", "bob"}, users)
	})
}

func TestSQLiteStore_SaveFoodsTwiceOnSecondConnection(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	foods := []domain.Food{
		domain.NewBasicFood("bread", "Bread", []string{"bread"}, 80),
		domain.NewCompositeFood("toast", "Toast", []string{"toast"},
			[]domain.Component{{FoodID: "bread", Servings: 2}}),
	}
	require.NoError(t, store.SaveFoods(ctx, foods))

	// Pin the idle pooled connection so the next save opens another.
	conn, err := store.db.Conn(ctx)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, store.SaveFoods(ctx, foods))
	require.NoError(t, conn.Close())

	loaded, err := store.LoadFoods(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, []domain.Component{{FoodID: "bread", Servings: 2}}, loaded[1].Components)
}
