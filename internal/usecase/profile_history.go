package usecase

import "yada/internal/domain"

// ProfileHistory is a bounded LIFO of profile snapshots taken before edits.
type ProfileHistory struct {
	snapshots []domain.Profile
	limit     int
}

// NewProfileHistory keeps at most limit snapshots, dropping the oldest when
// full. A limit of zero or less means unbounded.
func NewProfileHistory(limit int) *ProfileHistory {
	return &ProfileHistory{limit: limit}
}

// Checkpoint pushes a copy of p.
func (h *ProfileHistory) Checkpoint(p domain.Profile) {
	h.snapshots = append(h.snapshots, p)
	if h.limit > 0 && len(h.snapshots) > h.limit {
		h.snapshots = append([]domain.Profile(nil), h.snapshots[len(h.snapshots)-h.limit:]...)
	}
}

// Undo pops the most recent snapshot. The caller installs it as the active
// profile.
func (h *ProfileHistory) Undo() (domain.Profile, bool) {
	if len(h.snapshots) == 0 {
		return domain.Profile{}, false
	}
	p := h.snapshots[len(h.snapshots)-1]
	h.snapshots = h.snapshots[:len(h.snapshots)-1]
	return p, true
}

func (h *ProfileHistory) Len() int {
	return len(h.snapshots)
}

// Snapshots returns the stack oldest first.
func (h *ProfileHistory) Snapshots() []domain.Profile {
	return append([]domain.Profile(nil), h.snapshots...)
}

// Restore replaces the stack, trimming to the limit.
func (h *ProfileHistory) Restore(snapshots []domain.Profile) {
	h.snapshots = nil
	for _, p := range snapshots {
		h.Checkpoint(p)
	}
}
