package port

import (
	"context"

	"yada/internal/domain"
)

// FoodSource produces fully formed foods for the catalog to ingest.
// Source-specific parsing happens behind this interface.
type FoodSource interface {
	FetchFoodData(ctx context.Context) ([]domain.Food, error)
}

// FoodSourceFunc adapts a function to FoodSource.
type FoodSourceFunc func(ctx context.Context) ([]domain.Food, error)

func (f FoodSourceFunc) FetchFoodData(ctx context.Context) ([]domain.Food, error) {
	return f(ctx)
}
