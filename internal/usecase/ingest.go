package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"yada/internal/port"
)

// IngestUseCase loads food batches from one or more sources into a catalog.
type IngestUseCase struct {
	catalog    *Catalog
	onProgress func(done, total int)
}

// NewIngestUseCase creates an ingest use case for catalog.
func NewIngestUseCase(catalog *Catalog) *IngestUseCase {
	return &IngestUseCase{catalog: catalog}
}

// OnProgress registers a callback run after each source.
func (u *IngestUseCase) OnProgress(fn func(done, total int)) *IngestUseCase {
	u.onProgress = fn
	return u
}

// IngestResult contains the results of an ingest run.
type IngestResult struct {
	Sources    int
	FoodsAdded int
	Cycles     *CycleError
	Errors     []string
}

// Ingest runs every source in order. A failing source is recorded and the
// rest still run. A resolution cycle is reported in the result rather than
// as an error, so the foods that did load are kept.
func (u *IngestUseCase) Ingest(ctx context.Context, sources ...port.FoodSource) (*IngestResult, error) {
	result := &IngestResult{}

	for i, src := range sources {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		n, err := u.catalog.IngestFrom(ctx, src)
		result.FoodsAdded += n
		switch {
		case err == nil:
			result.Sources++
		case errors.Is(err, ErrCycle):
			result.Sources++
			errors.As(err, &result.Cycles)
		default:
			slog.Warn("ingest: source failed", "source", i, "error", err)
			result.Errors = append(result.Errors, fmt.Sprintf("source %d: %v", i+1, err))
		}

		if u.onProgress != nil {
			u.onProgress(i+1, len(sources))
		}
	}

	slog.Info("ingest complete",
		"sources", result.Sources,
		"foods", result.FoodsAdded,
		"catalog", u.catalog.Len(),
		"errors", len(result.Errors))

	if result.Sources == 0 && len(result.Errors) > 0 {
		return result, fmt.Errorf("all %d sources failed: %s", len(sources), result.Errors[0])
	}
	return result, nil
}
