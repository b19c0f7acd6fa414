package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yada/internal/adapter/cache"
	"yada/internal/domain"
	"yada/internal/port"
)

func comp(id string, servings int) domain.Component {
	return domain.Component{FoodID: id, Servings: servings}
}

func sandwichCatalog(opts ...CatalogOption) *Catalog {
	c := NewCatalog(opts...)
	c.Add(domain.NewBasicFood("bread", "Bread Slice", []string{"bread", "grain"}, 80))
	c.Add(domain.NewBasicFood("pb", "Peanut Butter", []string{"peanut", "butter"}, 190))
	c.Add(domain.NewCompositeFood("sandwich", "PB Sandwich", []string{"sandwich"},
		[]domain.Component{comp("bread", 2), comp("pb", 1)}))
	return c
}

func calories(t *testing.T, c *Catalog, id string) int {
	t.Helper()
	f, ok := c.Get(id)
	require.True(t, ok, "food %q not found", id)
	return f.Calories
}

func TestCatalog_ResolveSandwich(t *testing.T) {
	c := sandwichCatalog()

	assert.Equal(t, 0, calories(t, c, "sandwich"), "composites are zero until resolved")
	require.NoError(t, c.ResolveAll())
	assert.Equal(t, 350, calories(t, c, "sandwich"))
}

func TestCatalog_ResolveLeavesBasicFoodsAlone(t *testing.T) {
	for _, mode := range []ResolutionMode{ResolveSinglePass, ResolveDeep} {
		t.Run(mode.String(), func(t *testing.T) {
			c := sandwichCatalog(WithResolution(mode))
			c.Add(domain.NewCompositeFood("ghost", "Ghost", nil, []domain.Component{comp("missing", 3)}))

			for i := 0; i < 3; i++ {
				require.NoError(t, c.ResolveAll())
				assert.Equal(t, 80, calories(t, c, "bread"))
				assert.Equal(t, 190, calories(t, c, "pb"))
			}
		})
	}
}

func TestCatalog_MissingComponentsContributeZero(t *testing.T) {
	c := NewCatalog()
	c.Add(domain.NewBasicFood("egg", "Egg", nil, 78))
	c.Add(domain.NewCompositeFood("omelette", "Omelette", nil,
		[]domain.Component{comp("egg", 3), comp("unicorn", 5)}))

	require.NoError(t, c.ResolveAll())
	assert.Equal(t, 234, calories(t, c, "omelette"))
}

func chainCatalog(mode ResolutionMode) *Catalog {
	c := NewCatalog(WithResolution(mode))
	c.Add(domain.NewBasicFood("c", "C", nil, 10))
	c.Add(domain.NewCompositeFood("b", "B", nil, []domain.Component{comp("c", 2)}))
	c.Add(domain.NewCompositeFood("a", "A", nil, []domain.Component{comp("b", 3)}))
	return c
}

func TestCatalog_SinglePassChainIsOneGenerationStale(t *testing.T) {
	c := chainCatalog(ResolveSinglePass)

	require.NoError(t, c.ResolveAll())
	assert.Equal(t, 20, calories(t, c, "b"))
	assert.Equal(t, 0, calories(t, c, "a"), "first pass sees b's stored value of zero")

	require.NoError(t, c.ResolveAll())
	assert.Equal(t, 20, calories(t, c, "b"))
	assert.Equal(t, 60, calories(t, c, "a"), "second pass converges")
}

func TestCatalog_DeepChainConvergesInOnePass(t *testing.T) {
	c := chainCatalog(ResolveDeep)

	require.NoError(t, c.ResolveAll())
	assert.Equal(t, 20, calories(t, c, "b"))
	assert.Equal(t, 60, calories(t, c, "a"))
}

func TestCatalog_ChangingComponentNeedsResolve(t *testing.T) {
	c := sandwichCatalog()
	require.NoError(t, c.ResolveAll())

	c.Add(domain.NewBasicFood("bread", "Bread Slice", []string{"bread"}, 100))
	assert.Equal(t, 350, calories(t, c, "sandwich"))

	require.NoError(t, c.ResolveAll())
	assert.Equal(t, 390, calories(t, c, "sandwich"))
}

func TestCatalog_DeepDetectsCycles(t *testing.T) {
	c := NewCatalog(WithResolution(ResolveDeep))
	c.Add(domain.NewBasicFood("salt", "Salt", nil, 1))
	c.Add(domain.NewCompositeFood("x", "X", nil, []domain.Component{comp("y", 1)}))
	c.Add(domain.NewCompositeFood("y", "Y", nil, []domain.Component{comp("x", 1), comp("salt", 1)}))
	c.Add(domain.NewCompositeFood("z", "Z", nil, []domain.Component{comp("x", 1)}))
	c.Add(domain.NewCompositeFood("ok", "OK", nil, []domain.Component{comp("salt", 4)}))

	err := c.ResolveAll()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCycle))

	var cycleErr *CycleError
	require.True(t, errors.As(err, &cycleErr))
	require.Len(t, cycleErr.Cycles, 1)
	assert.Equal(t, []string{"x", "y", "x"}, cycleErr.Cycles[0])
	assert.Equal(t, []string{"x", "y", "z"}, cycleErr.Unresolved)

	assert.Equal(t, 4, calories(t, c, "ok"), "foods off the cycle still resolve")
	assert.Equal(t, 0, calories(t, c, "z"), "foods on or above the cycle keep their value")
}

func TestCatalog_DeepSelfReference(t *testing.T) {
	c := NewCatalog(WithResolution(ResolveDeep))
	c.Add(domain.NewCompositeFood("loop", "Loop", nil, []domain.Component{comp("loop", 1)}))

	err := c.ResolveAll()
	var cycleErr *CycleError
	require.ErrorAs(t, err, &cycleErr)
	assert.Equal(t, [][]string{{"loop", "loop"}}, cycleErr.Cycles)
}

func TestCatalog_SinglePassTerminatesOnCycles(t *testing.T) {
	c := NewCatalog()
	c.Add(domain.NewBasicFood("salt", "Salt", nil, 1))
	c.Add(domain.NewCompositeFood("x", "X", nil, []domain.Component{comp("y", 1), comp("salt", 1)}))
	c.Add(domain.NewCompositeFood("y", "Y", nil, []domain.Component{comp("x", 1)}))

	require.NoError(t, c.ResolveAll())
	assert.Equal(t, 1, calories(t, c, "x"))
	assert.Equal(t, 0, calories(t, c, "y"))

	require.NoError(t, c.ResolveAll())
	assert.Equal(t, 1, calories(t, c, "x"))
	assert.Equal(t, 1, calories(t, c, "y"))
}

func TestCatalog_AddReplacesSilently(t *testing.T) {
	c := NewCatalog()
	c.Add(domain.NewBasicFood("apple", "Apple", []string{"fruit"}, 95))
	c.Add(domain.NewBasicFood("apple", "Green Apple", []string{"Fruit", "GREEN", "fruit"}, 80))

	assert.Equal(t, 1, c.Len())
	f, ok := c.Get("apple")
	require.True(t, ok)
	assert.Equal(t, "Green Apple", f.Name)
	assert.Equal(t, []string{"fruit", "green"}, f.Keywords)
}

func TestCatalog_GetReturnsCopy(t *testing.T) {
	c := sandwichCatalog()

	f, _ := c.Get("sandwich")
	f.Components[0].Servings = 100
	f.Keywords[0] = "mutated"

	again, _ := c.Get("sandwich")
	assert.Equal(t, 2, again.Components[0].Servings)
	assert.Equal(t, "sandwich", again.Keywords[0])

	_, ok := c.Get("nope")
	assert.False(t, ok)
}

func ids(foods []domain.Food) []string {
	out := make([]string, len(foods))
	for i, f := range foods {
		out[i] = f.ID
	}
	return out
}

func searchCatalog(opts ...CatalogOption) *Catalog {
	c := NewCatalog(opts...)
	c.Add(domain.NewBasicFood("apple", "Apple", []string{"apple", "fruit"}, 95))
	c.Add(domain.NewBasicFood("banana", "Banana", []string{"banana", "Fruit"}, 105))
	c.Add(domain.NewBasicFood("grapefruit", "Grapefruit", []string{"grapefruit", "citrus"}, 52))
	c.Add(domain.NewBasicFood("milk", "Milk", []string{"milk", "dairy"}, 149))
	c.Add(domain.NewCompositeFood("bshake", "Banana Shake", []string{"shake", "banana"},
		[]domain.Component{comp("banana", 2), comp("milk", 2)}))
	return c
}

func TestCatalog_Search(t *testing.T) {
	tests := []struct {
		name     string
		keywords []string
		matchAll bool
		expected []string
	}{
		{"substring any", []string{"fruit"}, false, []string{"apple", "banana", "grapefruit"}},
		{"case insensitive", []string{"FRUIT"}, false, []string{"apple", "banana", "grapefruit"}},
		{"partial keyword", []string{"ban"}, false, []string{"banana", "bshake"}},
		{"or semantics", []string{"dairy", "citrus"}, false, []string{"grapefruit", "milk"}},
		{"and semantics", []string{"banana", "fruit"}, true, []string{"banana"}},
		{"and with no match", []string{"milk", "fruit"}, true, []string{}},
		{"no match", []string{"pizza"}, false, []string{}},
		{"empty query any", nil, false, []string{"apple", "banana", "bshake", "grapefruit", "milk"}},
		{"empty query all", []string{}, true, []string{"apple", "banana", "bshake", "grapefruit", "milk"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := searchCatalog()
			assert.Equal(t, tt.expected, ids(c.Search(tt.keywords, tt.matchAll)))
		})
	}
}

func TestCatalog_SearchCacheInvalidatedByAdd(t *testing.T) {
	sc := cache.NewSearchCache(10, time.Minute)
	c := searchCatalog(WithSearchCache(sc))

	first := c.Search([]string{"fruit"}, false)
	assert.Len(t, first, 3)
	assert.Equal(t, 1, sc.Size())

	gen := sc.Generation()
	c.Add(domain.NewBasicFood("kiwi", "Kiwi", []string{"fruit"}, 42))
	assert.Greater(t, sc.Generation(), gen)

	second := c.Search([]string{"fruit"}, false)
	assert.Equal(t, []string{"apple", "banana", "grapefruit", "kiwi"}, ids(second))
}

func TestCatalog_SearchCacheSeesResolvedValues(t *testing.T) {
	sc := cache.NewSearchCache(10, time.Minute)
	c := sandwichCatalog(WithSearchCache(sc))

	before := c.Search([]string{"sandwich"}, false)
	require.Len(t, before, 1)
	assert.Equal(t, 0, before[0].Calories)

	require.NoError(t, c.ResolveAll())
	after := c.Search([]string{"sandwich"}, false)
	require.Len(t, after, 1)
	assert.Equal(t, 350, after[0].Calories)
}

func TestCatalog_All(t *testing.T) {
	c := searchCatalog()
	assert.Equal(t, []string{"apple", "banana", "bshake", "grapefruit", "milk"}, ids(c.All()))
	assert.Empty(t, NewCatalog().All())
}

func TestCatalog_IngestFrom(t *testing.T) {
	c := NewCatalog()
	src := port.FoodSourceFunc(func(ctx context.Context) ([]domain.Food, error) {
		return []domain.Food{
			domain.NewBasicFood("bread", "Bread", nil, 80),
			domain.NewBasicFood("pb", "PB", nil, 190),
			domain.NewCompositeFood("sandwich", "Sandwich", nil, []domain.Component{comp("bread", 2), comp("pb", 1)}),
		}, nil
	})

	n, err := c.IngestFrom(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 350, calories(t, c, "sandwich"), "ingest resolves")
}

func TestCatalog_IngestFromFailingSourceAddsNothing(t *testing.T) {
	c := NewCatalog()
	boom := errors.New("boom")
	src := port.FoodSourceFunc(func(ctx context.Context) ([]domain.Food, error) {
		return nil, boom
	})

	n, err := c.IngestFrom(context.Background(), src)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, n)
	assert.Equal(t, 0, c.Len())
}

func TestParseResolutionMode(t *testing.T) {
	tests := []struct {
		input   string
		want    ResolutionMode
		wantErr bool
	}{
		{"", ResolveSinglePass, false},
		{"single-pass", ResolveSinglePass, false},
		{"Deep", ResolveDeep, false},
		{"topological", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseResolutionMode(tt.input)
		if tt.wantErr {
			assert.Error(t, err, tt.input)
			continue
		}
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, got)
	}
}
