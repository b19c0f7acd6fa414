package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"yada/internal/adapter/analyzer"
	"yada/internal/adapter/cache"
	"yada/internal/domain"
	"yada/internal/port"
)

// Catalog owns the set of known foods and keeps composite calorie values
// derived from their components.
//
// Foods are stored by value; Get, Search and All hand out copies, so the only
// way to change a stored food is Add or ResolveAll.
type Catalog struct {
	foods map[string]domain.Food
	mode  ResolutionMode
	cache *cache.SearchCache
}

// CatalogOption configures a Catalog.
type CatalogOption func(*Catalog)

// WithResolution selects how ResolveAll evaluates composites.
func WithResolution(mode ResolutionMode) CatalogOption {
	return func(c *Catalog) { c.mode = mode }
}

// WithSearchCache memoises Search results. A nil cache disables caching.
func WithSearchCache(sc *cache.SearchCache) CatalogOption {
	return func(c *Catalog) { c.cache = sc }
}

// NewCatalog creates an empty catalog using single-pass resolution.
func NewCatalog(opts ...CatalogOption) *Catalog {
	c := &Catalog{
		foods: make(map[string]domain.Food),
		mode:  ResolveSinglePass,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Mode reports the resolution mode in use.
func (c *Catalog) Mode() ResolutionMode {
	return c.mode
}

// Add inserts food, silently replacing any food with the same ID.
// Keywords are lowercased and deduplicated. Composite values are not
// recomputed until the next ResolveAll.
func (c *Catalog) Add(food domain.Food) {
	food = food.Clone()
	food.Keywords = analyzer.Normalize(food.Keywords)
	if _, exists := c.foods[food.ID]; exists {
		slog.Debug("catalog: replacing food", "id", food.ID)
	}
	c.foods[food.ID] = food
	c.invalidate()
}

// Get looks a food up by exact ID.
func (c *Catalog) Get(id string) (domain.Food, bool) {
	food, ok := c.foods[id]
	if !ok {
		return domain.Food{}, false
	}
	return food.Clone(), true
}

// Len returns the number of foods in the catalog.
func (c *Catalog) Len() int {
	return len(c.foods)
}

// All returns every food ordered by ID.
func (c *Catalog) All() []domain.Food {
	ids := make([]string, 0, len(c.foods))
	for id := range c.foods {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return c.lookup(ids)
}

// Search returns foods, ordered by ID, whose keywords match the query.
// A query keyword matches a food when it is a case-insensitive substring of
// any of the food's keywords. With matchAll every query keyword must match;
// otherwise one is enough. An empty query matches every food.
func (c *Catalog) Search(keywords []string, matchAll bool) []domain.Food {
	query := make([]string, len(keywords))
	for i, k := range keywords {
		query[i] = strings.ToLower(k)
	}

	if c.cache != nil {
		if ids, hit := c.cache.Get(query, matchAll); hit {
			return c.lookup(ids)
		}
	}

	var ids []string
	for id, food := range c.foods {
		if matchesKeywords(food, query, matchAll) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	if c.cache != nil {
		c.cache.Put(query, matchAll, ids)
	}
	return c.lookup(ids)
}

// IngestFrom adds every food the source produces and then resolves the
// catalog. It returns the number of foods added. Nothing is added when the
// source fails; a resolution error is returned after the foods are in.
func (c *Catalog) IngestFrom(ctx context.Context, source port.FoodSource) (int, error) {
	foods, err := source.FetchFoodData(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch food data: %w", err)
	}
	for _, food := range foods {
		c.Add(food)
	}
	slog.Debug("catalog: ingested foods", "count", len(foods), "total", len(c.foods))
	return len(foods), c.ResolveAll()
}

func (c *Catalog) lookup(ids []string) []domain.Food {
	foods := make([]domain.Food, 0, len(ids))
	for _, id := range ids {
		if food, ok := c.foods[id]; ok {
			foods = append(foods, food.Clone())
		}
	}
	return foods
}

func (c *Catalog) invalidate() {
	if c.cache != nil {
		c.cache.Invalidate()
	}
}

// matchesKeywords expects an already lowercased query. Stored keywords are
// lowercased again so foods built outside Add still match.
func matchesKeywords(food domain.Food, query []string, matchAll bool) bool {
	if len(query) == 0 {
		return true
	}

	matchOne := func(q string) bool {
		for _, k := range food.Keywords {
			if strings.Contains(strings.ToLower(k), q) {
				return true
			}
		}
		return false
	}

	if matchAll {
		for _, q := range query {
			if !matchOne(q) {
				return false
			}
		}
		return true
	}

	for _, q := range query {
		if matchOne(q) {
			return true
		}
	}
	return false
}
