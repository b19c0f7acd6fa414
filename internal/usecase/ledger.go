package usecase

import (
	"log/slog"
	"sort"
	"time"

	"yada/internal/domain"
)

// FoodLookup resolves food IDs for calorie totals. *Catalog satisfies it.
type FoodLookup interface {
	Get(id string) (domain.Food, bool)
}

// Ledger is the per-date consumption log. Every mutation pushes a command on
// one history shared by all dates, and Undo pops the most recent one.
//
// Undo is not positional: undoing an add drops the last entry
// of the command's date, and undoing a delete appends the entry to the end
// of its date.
type Ledger struct {
	entries map[string][]domain.FoodEntry
	history []domain.Command
	now     func() time.Time
}

// LedgerOption configures a Ledger.
type LedgerOption func(*Ledger)

// WithClock overrides the timestamp source for new entries.
func WithClock(now func() time.Time) LedgerOption {
	return func(l *Ledger) { l.now = now }
}

func NewLedger(opts ...LedgerOption) *Ledger {
	l := &Ledger{
		entries: make(map[string][]domain.FoodEntry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LogFood appends an entry for date. servings is assumed positive; the
// caller validates input.
func (l *Ledger) LogFood(date, foodID string, servings int) domain.FoodEntry {
	entry := domain.FoodEntry{
		FoodID:    foodID,
		Servings:  servings,
		Timestamp: l.now(),
	}
	l.entries[date] = append(l.entries[date], entry)
	l.history = append(l.history, domain.Command{
		Kind:  domain.CommandAdded,
		Date:  date,
		Entry: entry,
	})
	return entry
}

// DeleteFood removes the entry at the 0-based index of date's current
// sequence. It reports false, and records nothing, when index is out of
// range.
func (l *Ledger) DeleteFood(date string, index int) bool {
	seq := l.entries[date]
	if index < 0 || index >= len(seq) {
		return false
	}

	entry := seq[index]
	l.setEntries(date, append(seq[:index:index], seq[index+1:]...))
	l.history = append(l.history, domain.Command{
		Kind:  domain.CommandRemoved,
		Date:  date,
		Entry: entry,
	})
	return true
}

// Undo reverts the most recent command of any date. It returns false when
// there is nothing to undo, or when an add is undone for a date that no
// longer has entries; the command is consumed either way.
func (l *Ledger) Undo() bool {
	if len(l.history) == 0 {
		return false
	}

	cmd := l.history[len(l.history)-1]
	l.history = l.history[:len(l.history)-1]

	switch cmd.Kind {
	case domain.CommandAdded:
		seq := l.entries[cmd.Date]
		if len(seq) == 0 {
			slog.Debug("ledger: undo add found no entries", "date", cmd.Date)
			return false
		}
		l.setEntries(cmd.Date, seq[:len(seq)-1])
	case domain.CommandRemoved:
		l.entries[cmd.Date] = append(l.entries[cmd.Date], cmd.Entry)
	default:
		slog.Warn("ledger: dropping unknown command", "kind", cmd.Kind)
		return false
	}

	slog.Debug("ledger: undone", "kind", cmd.Kind, "date", cmd.Date, "food_id", cmd.Entry.FoodID)
	return true
}

// CanUndo reports whether the history holds any command.
func (l *Ledger) CanUndo() bool {
	return len(l.history) > 0
}

// EntriesFor returns a copy of date's entries in insertion order.
func (l *Ledger) EntriesFor(date string) []domain.FoodEntry {
	return append([]domain.FoodEntry{}, l.entries[date]...)
}

// TotalCalories sums calories × servings for date. Entries whose food is
// unknown contribute zero.
func (l *Ledger) TotalCalories(date string, foods FoodLookup) int {
	total := 0
	for _, entry := range l.entries[date] {
		if food, ok := foods.Get(entry.FoodID); ok {
			total += food.Calories * entry.Servings
		}
	}
	return total
}

// Dates lists dates with at least one entry, sorted.
func (l *Ledger) Dates() []string {
	dates := make([]string, 0, len(l.entries))
	for date, seq := range l.entries {
		if len(seq) > 0 {
			dates = append(dates, date)
		}
	}
	sort.Strings(dates)
	return dates
}

// AllEntries flattens the ledger ordered by date, then insertion.
func (l *Ledger) AllEntries() []domain.DatedEntry {
	var out []domain.DatedEntry
	for _, date := range l.Dates() {
		for _, entry := range l.entries[date] {
			out = append(out, domain.DatedEntry{Date: date, Entry: entry})
		}
	}
	return out
}

// History returns the undo stack oldest first.
func (l *Ledger) History() []domain.Command {
	return append([]domain.Command(nil), l.history...)
}

// State captures entries and history for persistence.
func (l *Ledger) State() domain.LedgerState {
	return domain.LedgerState{
		Entries: l.AllEntries(),
		History: l.History(),
	}
}

// Restore replaces the ledger contents with a persisted state without
// recording any commands.
func (l *Ledger) Restore(state domain.LedgerState) {
	l.entries = make(map[string][]domain.FoodEntry)
	for _, de := range state.Entries {
		l.entries[de.Date] = append(l.entries[de.Date], de.Entry)
	}
	l.history = append([]domain.Command(nil), state.History...)
}

func (l *Ledger) setEntries(date string, seq []domain.FoodEntry) {
	if len(seq) == 0 {
		delete(l.entries, date)
		return
	}
	l.entries[date] = seq
}
