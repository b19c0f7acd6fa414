package store

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"yada/internal/domain"
)

func openTestStore(t *testing.T) (*BoltStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "yada.db")
	s, err := NewBoltStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, path
}

func TestBoltStore_Foods(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	foods, err := s.LoadFoods(ctx)
	require.NoError(t, err)
	assert.Empty(t, foods)

	in := []domain.Food{
		domain.NewBasicFood("pb", "Peanut Butter", []string{"peanut"}, 190),
		domain.NewBasicFood("bread", "Bread", []string{"bread"}, 80),
		domain.NewCompositeFood("sandwich", "Sandwich", []string{"sandwich"},
			[]domain.Component{{FoodID: "bread", Servings: 2}, {FoodID: "pb", Servings: 1}}),
	}
	require.NoError(t, s.SaveFoods(ctx, in))

	out, err := s.LoadFoods(ctx)
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, "bread", out[0].ID)
	assert.Equal(t, in[2], out[2])

	require.NoError(t, s.SaveFoods(ctx, in[:1]))
	out, err = s.LoadFoods(ctx)
	require.NoError(t, err)
	assert.Len(t, out, 1, "save replaces the catalog")
}

func TestBoltStore_Ledger(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	ts := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	apple := domain.FoodEntry{FoodID: "apple", Servings: 1, Timestamp: ts}
	milk := domain.FoodEntry{FoodID: "milk", Servings: 2, Timestamp: ts.Add(time.Hour)}
	egg := domain.FoodEntry{FoodID: "egg", Servings: 3, Timestamp: ts.Add(2 * time.Hour)}

	state := domain.LedgerState{
		Entries: []domain.DatedEntry{
			{Date: "2024-03-01", Entry: apple},
			{Date: "2024-03-01", Entry: milk},
			{Date: "2024-03-02", Entry: egg},
		},
	}
	for i := 0; i < 300; i++ {
		state.History = append(state.History, domain.Command{Kind: domain.CommandAdded, Date: "2024-03-01", Entry: apple})
	}
	state.History = append(state.History, domain.Command{Kind: domain.CommandRemoved, Date: "2024-03-02", Entry: egg})
	require.NoError(t, s.SaveLedger(ctx, "alice", state))

	got, err := s.LoadLedger(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, state.Entries, got.Entries)
	require.Len(t, got.History, 301)
	assert.Equal(t, domain.CommandRemoved, got.History[300].Kind, "history order survives")

	other, err := s.LoadLedger(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, other.Entries)
	assert.Empty(t, other.History)

	require.NoError(t, s.SaveLedger(ctx, "alice", domain.LedgerState{}))
	got, err = s.LoadLedger(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, got.Entries)
	assert.Empty(t, got.History)
}

func TestBoltStore_Profile(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	empty, err := s.LoadProfile(ctx, "alice")
	require.NoError(t, err)
	assert.Nil(t, empty.Active)

	active := domain.NewProfile("alice", domain.GenderFemale, 165, 31, 60, domain.ModeratelyActive)
	older := active
	older.Age = 30
	require.NoError(t, s.SaveProfile(ctx, "alice", domain.ProfileState{
		Active:  &active,
		History: []domain.Profile{older},
	}))

	got, err := s.LoadProfile(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, got.Active)
	assert.Equal(t, active, *got.Active)
	assert.Equal(t, []domain.Profile{older}, got.History)

	users, err := s.Users(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, users)
}

func TestBoltStore_EmptyUserRejected(t *testing.T) {
	s, _ := openTestStore(t)
	assert.Error(t, s.SaveLedger(context.Background(), "", domain.LedgerState{}))
}

func TestBoltStore_Reopen(t *testing.T) {
	s, path := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveFoods(ctx, []domain.Food{domain.NewBasicFood("egg", "Egg", nil, 78)}))
	require.NoError(t, s.Close())

	again, err := NewBoltStore(path)
	require.NoError(t, err)
	defer again.Close()

	foods, err := again.LoadFoods(ctx)
	require.NoError(t, err)
	assert.Len(t, foods, 1)

	info, err := again.GetSchemaInfo()
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, info.Version)
}

func TestBoltStore_MigratesV1(t *testing.T) {
	s, path := openTestStore(t)

	// Rewind to a v1 layout: a user bucket without profile snapshots.
	require.NoError(t, s.db.Update(func(tx *bbolt.Tx) error {
		ub, err := tx.Bucket(bucketUsers).CreateBucket([]byte("legacy"))
		if err != nil {
			return err
		}
		if _, err := ub.CreateBucket(bucketProfile); err != nil {
			return err
		}
		data, _ := json.Marshal(1)
		return tx.Bucket(bucketMeta).Put(keySchemaVersion, data)
	}))

	check, err := s.CheckMigration()
	require.NoError(t, err)
	assert.True(t, check.NeedsMigration)
	assert.Equal(t, 1, check.OldVersion)
	require.NoError(t, s.Close())

	again, err := NewBoltStore(path)
	require.NoError(t, err)
	defer again.Close()

	require.NoError(t, again.db.View(func(tx *bbolt.Tx) error {
		assert.NotNil(t, tx.Bucket(bucketUsers).Bucket([]byte("legacy")).Bucket(bucketProfileHistory))
		return nil
	}))
	check, err = again.CheckMigration()
	require.NoError(t, err)
	assert.False(t, check.NeedsMigration)
}

func TestBoltStore_RejectsNewerSchema(t *testing.T) {
	s, path := openTestStore(t)
	require.NoError(t, s.SetSchemaInfo(&SchemaInfo{Version: CurrentSchemaVersion + 1}))
	require.NoError(t, s.Close())

	_, err := NewBoltStore(path)
	assert.ErrorContains(t, err, "newer version")
}
