package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrSnakeDoc/jobscout/internal/domain"
	"github.com/MrSnakeDoc/jobscout/internal/logger"
)

// SourceWriter is the part of store.Store an import needs.
type SourceWriter interface {
	UpsertSource(ctx context.Context, in domain.SourceInput) (domain.Source, error)
	SetSourceEnabled(ctx context.Context, id int64, enabled bool) error
}

// Result counts what an import did. Toggled counts sources whose stored
// enabled flag differed from the seed file.
type Result struct {
	Saved   int
	Toggled int
	Invalid int
}

// Import upserts every entry of f. Invalid entries are logged and skipped;
// storage errors stop the import.
func Import(ctx context.Context, w SourceWriter, f File, log logger.Logger) (Result, error) {
	var res Result
	for i, e := range f.Sources {
		src, err := w.UpsertSource(ctx, domain.SourceInput{
			SourceID: e.SourceID,
			Name:     e.Name,
			Provider: e.Provider,
		})
		if err != nil {
			if errors.Is(err, domain.ErrValidation) {
				log.Warn("⚠️ skipping invalid seed entry",
					logger.Int("index", i),
					logger.String("source_id", e.SourceID),
					logger.Error(err))
				res.Invalid++
				continue
			}
			return res, fmt.Errorf("import %q: %w", e.SourceID, err)
		}
		res.Saved++

		if e.Enabled != nil && *e.Enabled != src.Enabled {
			if err := w.SetSourceEnabled(ctx, src.ID, *e.Enabled); err != nil {
				return res, fmt.Errorf("set enabled %q: %w", src.SourceID, err)
			}
			res.Toggled++
		}
	}

	log.Info("🌱 sources imported",
		logger.Int("saved", res.Saved),
		logger.Int("toggled", res.Toggled),
		logger.Int("invalid", res.Invalid))
	return res, nil
}
