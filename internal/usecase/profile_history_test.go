package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yada/internal/domain"
)

func profileAged(age int) domain.Profile {
	return domain.NewProfile("alice", domain.GenderFemale, 165, age, 60, domain.LightlyActive)
}

func TestProfileHistory_LIFO(t *testing.T) {
	h := NewProfileHistory(0)
	h.Checkpoint(profileAged(20))
	h.Checkpoint(profileAged(21))

	p, ok := h.Undo()
	require.True(t, ok)
	assert.Equal(t, 21, p.Age)

	p, ok = h.Undo()
	require.True(t, ok)
	assert.Equal(t, 20, p.Age)

	_, ok = h.Undo()
	assert.False(t, ok)
}

func TestProfileHistory_CheckpointCopies(t *testing.T) {
	h := NewProfileHistory(0)
	p := profileAged(30)
	h.Checkpoint(p)
	p.Age = 99

	got, ok := h.Undo()
	require.True(t, ok)
	assert.Equal(t, 30, got.Age)
}

func TestProfileHistory_LimitDropsOldest(t *testing.T) {
	h := NewProfileHistory(2)
	for age := 1; age <= 5; age++ {
		h.Checkpoint(profileAged(age))
	}
	assert.Equal(t, 2, h.Len())

	snaps := h.Snapshots()
	require.Len(t, snaps, 2)
	assert.Equal(t, 4, snaps[0].Age)
	assert.Equal(t, 5, snaps[1].Age)
}

func TestProfileHistory_Unbounded(t *testing.T) {
	h := NewProfileHistory(0)
	for age := 0; age < 100; age++ {
		h.Checkpoint(profileAged(age))
	}
	assert.Equal(t, 100, h.Len())
}

func TestProfileHistory_RestoreTrimsToLimit(t *testing.T) {
	h := NewProfileHistory(1)
	h.Restore([]domain.Profile{profileAged(1), profileAged(2)})

	p, ok := h.Undo()
	require.True(t, ok)
	assert.Equal(t, 2, p.Age)
	assert.Equal(t, 0, h.Len())
}
