package source

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"yada/internal/domain"
	"yada/internal/port"
)

var _ port.FoodSource = (*FileSource)(nil)

// ProgressFunc is called after each file with the number processed so far.
type ProgressFunc func(processed, total int, path string)

// FileSource reads food documents from every file the walker finds under
// root.
type FileSource struct {
	root       string
	walker     port.FileWalker
	onProgress ProgressFunc
}

func NewFileSource(root string, walker port.FileWalker) *FileSource {
	return &FileSource{root: root, walker: walker}
}

// OnProgress registers a per-file callback.
func (s *FileSource) OnProgress(fn ProgressFunc) *FileSource {
	s.onProgress = fn
	return s
}

// FetchFoodData fails on the first unreadable or malformed file so a batch
// is never half ingested.
func (s *FileSource) FetchFoodData(ctx context.Context) ([]domain.Food, error) {
	files, err := s.walker.Walk(s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", s.root, err)
	}
	if len(files) == 0 {
		slog.Warn("no food files matched", "root", s.root)
	}

	var foods []domain.Food
	for i, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data, err := os.ReadFile(file.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", file.Path, err)
		}
		batch, err := Decode(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", file.Path, err)
		}
		slog.Debug("read food file", "path", file.Path, "foods", len(batch))
		foods = append(foods, batch...)

		if s.onProgress != nil {
			s.onProgress(i+1, len(files), file.Path)
		}
	}
	return foods, nil
}
