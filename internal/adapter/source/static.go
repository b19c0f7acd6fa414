package source

import (
	"context"

	"yada/internal/domain"
	"yada/internal/port"
)

var _ port.FoodSource = (*StaticSource)(nil)

// StaticSource serves a fixed batch of foods.
type StaticSource struct {
	foods []domain.Food
}

func NewStaticSource(foods ...domain.Food) *StaticSource {
	return &StaticSource{foods: foods}
}

func (s *StaticSource) FetchFoodData(ctx context.Context) ([]domain.Food, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]domain.Food, len(s.foods))
	for i, f := range s.foods {
		out[i] = f.Clone()
	}
	return out, nil
}

func kw(words ...string) []string { return words }

// Sample is the starter catalog installed into an empty store.
func Sample() *StaticSource {
	return NewStaticSource(
		domain.NewBasicFood("chicken", "Chicken Breast", kw("chicken", "meat", "protein"), 165),
		domain.NewBasicFood("apple", "Apple", kw("apple", "fruit"), 95),
		domain.NewBasicFood("pb", "Peanut Butter", kw("peanut", "butter"), 190),
		domain.NewBasicFood("rice", "White Rice", kw("rice", "grain"), 206),
		domain.NewBasicFood("butter", "Butter", kw("butter", "fat"), 102),
		domain.NewBasicFood("bread", "Bread Slice", kw("bread", "grain"), 80),
		domain.NewBasicFood("egg", "Egg", kw("egg", "protein"), 78),
		domain.NewBasicFood("banana", "Banana", kw("banana", "fruit"), 105),
		domain.NewBasicFood("seeds", "Seeds", kw("seed", "seeds"), 300),
		domain.NewBasicFood("milk", "Whole Milk", kw("milk", "dairy"), 149),
		domain.NewBasicFood("sprout", "Sprouts", kw("sprout", "sprouts"), 250),
		domain.NewBasicFood("cheese", "Cheddar Cheese", kw("cheese", "dairy"), 113),

		domain.NewCompositeFood("pb_sandwich", "Peanut Butter Sandwich", kw("sandwich", "peanut"),
			[]domain.Component{{FoodID: "bread", Servings: 2}, {FoodID: "pb", Servings: 1}}),
		domain.NewCompositeFood("csalad", "Chicken Salad", kw("salad", "chicken", "greens"),
			[]domain.Component{{FoodID: "chicken", Servings: 2}, {FoodID: "sprout", Servings: 1}}),
		domain.NewCompositeFood("vada", "Medhu Vada", kw("medhu", "vada"),
			[]domain.Component{{FoodID: "rice", Servings: 2}, {FoodID: "sprout", Servings: 2}}),
		domain.NewCompositeFood("bshake", "Banana Shake", kw("shake", "banana", "bananashake"),
			[]domain.Component{{FoodID: "banana", Servings: 2}, {FoodID: "milk", Servings: 2}}),
	)
}

// Dummy stands in for a remote nutrition database.
func Dummy() *StaticSource {
	return NewStaticSource(
		domain.NewBasicFood("dummy_apple", "Dummy Apple", kw("apple", "fruit"), 90),
	)
}
