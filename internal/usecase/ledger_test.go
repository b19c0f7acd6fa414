package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yada/internal/domain"
)

const (
	day1 = "2024-03-01"
	day2 = "2024-03-02"
)

// fakeClock ticks one minute per call.
func fakeClock() func() time.Time {
	t := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Minute)
		return t
	}
}

func foodIDs(entries []domain.FoodEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.FoodID
	}
	return out
}

func TestLedger_LogAndUndoExample(t *testing.T) {
	c := sandwichCatalog()
	require.NoError(t, c.ResolveAll())
	l := NewLedger()

	l.LogFood(day1, "sandwich", 2)
	assert.Equal(t, 700, l.TotalCalories(day1, c))

	require.True(t, l.Undo())
	assert.Equal(t, 0, l.TotalCalories(day1, c))
	assert.Empty(t, l.EntriesFor(day1))
	assert.False(t, l.CanUndo())
}

func TestLedger_LogFoodCapturesTimestamp(t *testing.T) {
	l := NewLedger(WithClock(fakeClock()))

	first := l.LogFood(day1, "apple", 1)
	second := l.LogFood(day1, "apple", 1)

	assert.True(t, second.Timestamp.After(first.Timestamp))
	assert.Equal(t, []domain.FoodEntry{first, second}, l.EntriesFor(day1))
}

func TestLedger_UndoAddIsKeyedToCommandDate(t *testing.T) {
	l := NewLedger()

	l.LogFood(day1, "apple", 1)
	l.LogFood(day1, "bread", 1)
	l.LogFood(day2, "milk", 1)

	// Undo the day2 add, then the last day1 add.
	require.True(t, l.Undo())
	assert.Empty(t, l.EntriesFor(day2))
	assert.Equal(t, []string{"apple", "bread"}, foodIDs(l.EntriesFor(day1)))

	require.True(t, l.Undo())
	assert.Equal(t, []string{"apple"}, foodIDs(l.EntriesFor(day1)))
}

func TestLedger_UndoAddRemovesLastEntryNotTheAddedOne(t *testing.T) {
	l := NewLedger()

	l.LogFood(day1, "apple", 1)
	l.LogFood(day1, "bread", 1)
	l.LogFood(day1, "milk", 1)
	require.True(t, l.DeleteFood(day1, 0))
	// day1 is now [bread, milk]; undoing the delete appends apple.
	require.True(t, l.Undo())
	assert.Equal(t, []string{"bread", "milk", "apple"}, foodIDs(l.EntriesFor(day1)))

	// The next command is the "milk" add, but the last entry is apple.
	require.True(t, l.Undo())
	assert.Equal(t, []string{"bread", "milk"}, foodIDs(l.EntriesFor(day1)))
}

func TestLedger_UndoDeleteAppendsToEnd(t *testing.T) {
	l := NewLedger()
	l.LogFood(day1, "apple", 1)
	l.LogFood(day1, "bread", 2)
	l.LogFood(day1, "milk", 3)

	require.True(t, l.DeleteFood(day1, 1))
	assert.Equal(t, []string{"apple", "milk"}, foodIDs(l.EntriesFor(day1)))

	require.True(t, l.Undo())
	entries := l.EntriesFor(day1)
	assert.Equal(t, []string{"apple", "milk", "bread"}, foodIDs(entries))
	assert.Equal(t, 2, entries[2].Servings)
}

func TestLedger_DeleteOutOfRange(t *testing.T) {
	l := NewLedger()
	l.LogFood(day1, "apple", 1)

	for _, idx := range []int{-1, 1, 5} {
		assert.False(t, l.DeleteFood(day1, idx), "index %d", idx)
	}
	assert.False(t, l.DeleteFood(day2, 0))
	assert.Len(t, l.History(), 1, "failed deletes record nothing")
}

func TestLedger_UndoEmpty(t *testing.T) {
	l := NewLedger()
	assert.False(t, l.Undo())
	assert.False(t, l.CanUndo())
}

func TestLedger_UndoAddOnEmptiedDateConsumesCommand(t *testing.T) {
	l := NewLedger()
	l.LogFood(day1, "apple", 1)
	require.True(t, l.DeleteFood(day1, 0))

	// Restore the ledger with the delete dropped from history so the add's
	// date is empty when it is undone.
	state := l.State()
	state.History = state.History[:1]
	l.Restore(state)

	assert.False(t, l.Undo())
	assert.False(t, l.CanUndo())
}

func TestLedger_TotalCaloriesSkipsUnknownFoods(t *testing.T) {
	c := sandwichCatalog()
	require.NoError(t, c.ResolveAll())
	l := NewLedger()

	l.LogFood(day1, "bread", 3)
	l.LogFood(day1, "ghost", 10)
	l.LogFood(day2, "pb", 1)

	assert.Equal(t, 240, l.TotalCalories(day1, c))
	assert.Equal(t, 190, l.TotalCalories(day2, c))
	assert.Equal(t, 0, l.TotalCalories("2000-01-01", c))
}

func TestLedger_EntriesForReturnsCopy(t *testing.T) {
	l := NewLedger()
	l.LogFood(day1, "apple", 1)

	entries := l.EntriesFor(day1)
	entries[0].FoodID = "mutated"
	assert.Equal(t, "apple", l.EntriesFor(day1)[0].FoodID)

	none := l.EntriesFor(day2)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestLedger_DatesAndAllEntries(t *testing.T) {
	l := NewLedger()
	l.LogFood(day2, "milk", 1)
	l.LogFood(day1, "apple", 1)
	l.LogFood(day1, "bread", 1)
	l.LogFood("2024-03-03", "egg", 1)
	require.True(t, l.DeleteFood("2024-03-03", 0))

	assert.Equal(t, []string{day1, day2}, l.Dates())

	all := l.AllEntries()
	require.Len(t, all, 3)
	assert.Equal(t, day1, all[0].Date)
	assert.Equal(t, "apple", all[0].Entry.FoodID)
	assert.Equal(t, "bread", all[1].Entry.FoodID)
	assert.Equal(t, day2, all[2].Date)
}

func TestLedger_StateRestoreRoundTrip(t *testing.T) {
	l := NewLedger(WithClock(fakeClock()))
	l.LogFood(day1, "apple", 1)
	l.LogFood(day2, "milk", 2)
	require.True(t, l.DeleteFood(day1, 0))

	restored := NewLedger()
	restored.Restore(l.State())

	assert.Equal(t, l.AllEntries(), restored.AllEntries())
	assert.Equal(t, l.History(), restored.History())

	// Undo continues where the original left off.
	require.True(t, restored.Undo())
	assert.Equal(t, []string{"apple"}, foodIDs(restored.EntriesFor(day1)))
	require.True(t, restored.Undo())
	assert.Empty(t, restored.EntriesFor(day2))
}
