package usecase

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"yada/internal/domain"
)

// ResolutionMode selects how composite calorie values are recomputed.
type ResolutionMode int

const (
	// ResolveSinglePass computes every composite from the values stored
	// before the pass. A composite built on a composite that was itself
	// stale is one generation behind until the next pass. Cycles cannot
	// loop because nothing recurses.
	ResolveSinglePass ResolutionMode = iota

	// ResolveDeep evaluates components depth-first with memoisation, so
	// chains of any depth are exact after one call. Cycles are reported as
	// a *CycleError.
	ResolveDeep
)

func (m ResolutionMode) String() string {
	switch m {
	case ResolveSinglePass:
		return "single-pass"
	case ResolveDeep:
		return "deep"
	default:
		return fmt.Sprintf("ResolutionMode(%d)", int(m))
	}
}

// ParseResolutionMode accepts "single-pass" (or "") and "deep".
func ParseResolutionMode(s string) (ResolutionMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "single-pass", "singlepass", "single":
		return ResolveSinglePass, nil
	case "deep":
		return ResolveDeep, nil
	default:
		return 0, fmt.Errorf("unknown resolution mode: %q", s)
	}
}

// ErrCycle matches any *CycleError via errors.Is.
var ErrCycle = errors.New("composite food cycle")

// CycleError lists the composite cycles found by a deep resolution and the
// composites left at their previous value because they sit on or depend on
// a cycle.
type CycleError struct {
	Cycles     [][]string
	Unresolved []string
}

func (e *CycleError) Error() string {
	parts := make([]string, len(e.Cycles))
	for i, cycle := range e.Cycles {
		parts[i] = strings.Join(cycle, " -> ")
	}
	return fmt.Sprintf("%s: %s (%d foods unresolved)", ErrCycle, strings.Join(parts, "; "), len(e.Unresolved))
}

func (e *CycleError) Is(target error) bool {
	return target == ErrCycle
}

// ResolveAll recomputes the calorie value of every composite food. Missing
// components contribute zero. Basic foods are never touched.
func (c *Catalog) ResolveAll() error {
	defer c.invalidate()

	if c.mode == ResolveDeep {
		return c.resolveDeep()
	}
	n := c.resolveSinglePass()
	slog.Debug("catalog: resolved", "mode", c.mode, "composites", n)
	return nil
}

func (c *Catalog) resolveSinglePass() int {
	updates := make(map[string]int)
	for id, food := range c.foods {
		if !food.Composite {
			continue
		}
		total := 0
		for _, comp := range food.Components {
			if component, ok := c.foods[comp.FoodID]; ok {
				total += component.Calories * comp.Servings
			}
		}
		updates[id] = total
	}

	for id, calories := range updates {
		food := c.foods[id]
		food.Calories = calories
		c.foods[id] = food
	}
	return len(updates)
}

type visitState int

const (
	unvisited visitState = iota
	visiting
	resolved
	unresolvable
)

type deepResolver struct {
	foods  map[string]domain.Food
	state  map[string]visitState
	values map[string]int
	stack  []string
	cycles [][]string
}

func (c *Catalog) resolveDeep() error {
	r := &deepResolver{
		foods:  c.foods,
		state:  make(map[string]visitState),
		values: make(map[string]int),
	}

	ids := make([]string, 0, len(c.foods))
	for id, food := range c.foods {
		if food.Composite {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	var unresolved []string
	for _, id := range ids {
		if _, ok := r.resolve(id); !ok {
			unresolved = append(unresolved, id)
		}
	}

	for id, calories := range r.values {
		food := c.foods[id]
		food.Calories = calories
		c.foods[id] = food
	}

	slog.Debug("catalog: resolved", "mode", c.mode, "composites", len(r.values))
	if len(r.cycles) == 0 {
		return nil
	}

	err := &CycleError{Cycles: r.cycles, Unresolved: unresolved}
	slog.Warn("catalog: composite cycle", "error", err)
	return err
}

// resolve returns the calorie value of id and whether it could be computed.
func (r *deepResolver) resolve(id string) (int, bool) {
	food, ok := r.foods[id]
	if !ok {
		return 0, true
	}
	if !food.Composite {
		return food.Calories, true
	}

	switch r.state[id] {
	case resolved:
		return r.values[id], true
	case unresolvable:
		return 0, false
	case visiting:
		r.recordCycle(id)
		return 0, false
	}

	r.state[id] = visiting
	r.stack = append(r.stack, id)

	total, ok := 0, true
	for _, comp := range food.Components {
		v, compOK := r.resolve(comp.FoodID)
		if !compOK {
			ok = false
			continue
		}
		total += v * comp.Servings
	}

	r.stack = r.stack[:len(r.stack)-1]
	if !ok {
		r.state[id] = unresolvable
		return 0, false
	}
	r.state[id] = resolved
	r.values[id] = total
	return total, true
}

func (r *deepResolver) recordCycle(id string) {
	for i := len(r.stack) - 1; i >= 0; i-- {
		if r.stack[i] == id {
			cycle := append([]string(nil), r.stack[i:]...)
			r.cycles = append(r.cycles, append(cycle, id))
			return
		}
	}
}
