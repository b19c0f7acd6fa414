package domain

import (
	"fmt"
	"time"
)

// DateLayout is the canonical format of ledger date keys.
const DateLayout = "2006-01-02"

// Food is a catalog item. Basic foods carry a fixed calorie value; composite
// foods derive theirs from Components during resolution.
type Food struct {
	ID         string      `json:"id" yaml:"id"`
	Name       string      `json:"name" yaml:"name"`
	Keywords   []string    `json:"keywords" yaml:"keywords"`
	Composite  bool        `json:"composite" yaml:"composite"`
	Calories   int         `json:"calories" yaml:"calories"`
	Components []Component `json:"components,omitempty" yaml:"components,omitempty"`
}

// Component is one weighted reference from a composite food to another food.
// FoodID is not checked against the catalog.
type Component struct {
	FoodID   string `json:"id" yaml:"id"`
	Servings int    `json:"servings" yaml:"servings"`
}

// NewBasicFood builds a food with a fixed calorie value.
func NewBasicFood(id, name string, keywords []string, calories int) Food {
	return Food{
		ID:       id,
		Name:     name,
		Keywords: keywords,
		Calories: calories,
	}
}

// NewCompositeFood builds a food whose calories are derived from components.
// Calories stay zero until the catalog resolves it.
func NewCompositeFood(id, name string, keywords []string, components []Component) Food {
	return Food{
		ID:         id,
		Name:       name,
		Keywords:   keywords,
		Composite:  true,
		Components: components,
	}
}

// Clone returns a copy that shares no slices with f.
func (f Food) Clone() Food {
	out := f
	if f.Keywords != nil {
		out.Keywords = append([]string(nil), f.Keywords...)
	}
	if f.Components != nil {
		out.Components = append([]Component(nil), f.Components...)
	}
	return out
}

// FoodEntry is one consumption line in the daily log.
type FoodEntry struct {
	FoodID    string    `json:"food_id"`
	Servings  int       `json:"servings"`
	Timestamp time.Time `json:"timestamp"`
}

// DatedEntry pairs an entry with the date key it was logged under.
type DatedEntry struct {
	Date  string    `json:"date"`
	Entry FoodEntry `json:"entry"`
}

// CommandKind tags a reversible ledger mutation.
type CommandKind int

const (
	CommandAdded CommandKind = iota + 1
	CommandRemoved
)

func (k CommandKind) String() string {
	switch k {
	case CommandAdded:
		return "added"
	case CommandRemoved:
		return "removed"
	default:
		return fmt.Sprintf("CommandKind(%d)", int(k))
	}
}

// ParseCommandKind is the inverse of CommandKind.String.
func ParseCommandKind(s string) (CommandKind, error) {
	switch s {
	case "added":
		return CommandAdded, nil
	case "removed":
		return CommandRemoved, nil
	default:
		return 0, fmt.Errorf("unknown command kind: %q", s)
	}
}

func (k CommandKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *CommandKind) UnmarshalText(b []byte) error {
	v, err := ParseCommandKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// Command records one ledger mutation so it can be undone.
type Command struct {
	Kind  CommandKind `json:"kind"`
	Date  string      `json:"date"`
	Entry FoodEntry   `json:"entry"`
}

// LedgerState is everything a store needs to persist for one user's log.
type LedgerState struct {
	Entries []DatedEntry
	History []Command
}

// ProfileState is the active profile plus its undo snapshots, oldest first.
type ProfileState struct {
	Active  *Profile
	History []Profile
}

// DateKey formats t as a ledger date key.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDateKey validates s and returns it in canonical form.
func ParseDateKey(s string) (string, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return "", fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", s, err)
	}
	return DateKey(t), nil
}
