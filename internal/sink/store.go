package sink

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrSnakeDoc/jobscout/internal/domain"
	"github.com/MrSnakeDoc/jobscout/internal/logger"
)

// JobWriter is the part of store.Store the sink needs.
type JobWriter interface {
	InsertJob(ctx context.Context, item domain.AcceptedItem) (domain.SubmitStatus, error)
}

// StoreSink writes straight to the database.
type StoreSink struct {
	store    JobWriter
	notifier Notifier
	logger   logger.Logger
}

// NewStoreSink creates a direct sink; notifier may be nil.
func NewStoreSink(store JobWriter, notifier Notifier, log logger.Logger) *StoreSink {
	return &StoreSink{store: store, notifier: notifier, logger: log}
}

func (s *StoreSink) Submit(ctx context.Context, item domain.AcceptedItem) (domain.SubmitStatus, error) {
	if err := item.Validate(); err != nil {
		return 0, err
	}

	status, err := s.store.InsertJob(ctx, item)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) || errors.Is(err, domain.ErrStorage) {
			return 0, err
		}
		return 0, fmt.Errorf("%w: %w", domain.ErrStorage, err)
	}

	if status == domain.SubmitOK {
		s.logger.Info("🎯 new job stored",
			logger.String("source", item.SourceName),
			logger.String("content_hash", item.ContentHash))
		if s.notifier != nil {
			s.notifier.Notify(item)
		}
	}
	return status, nil
}
