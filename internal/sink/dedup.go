package sink

import (
	"context"

	"github.com/MrSnakeDoc/jobscout/internal/domain"
	"github.com/MrSnakeDoc/jobscout/internal/logger"
)

// SeenSet remembers fingerprints that were recently handed to a sink.
type SeenSet interface {
	MarkIfNew(ctx context.Context, fingerprint string) (bool, error)
	Forget(ctx context.Context, fingerprint string) error
}

// Deduped skips items whose fingerprint was submitted recently. It only saves
// round trips: the wrapped sink still decides what is a duplicate.
type Deduped struct {
	next   Sink
	seen   SeenSet
	logger logger.Logger
}

func NewDeduped(next Sink, seen SeenSet, log logger.Logger) *Deduped {
	return &Deduped{next: next, seen: seen, logger: log}
}

func (d *Deduped) Submit(ctx context.Context, item domain.AcceptedItem) (domain.SubmitStatus, error) {
	fresh, err := d.seen.MarkIfNew(ctx, item.ContentHash)
	if err != nil {
		// Cache trouble must not stop ingestion.
		d.logger.Warn("seen cache unavailable, submitting anyway", logger.Error(err))
		return d.next.Submit(ctx, item)
	}
	if !fresh {
		return domain.SubmitDuplicate, nil
	}

	status, err := d.next.Submit(ctx, item)
	if err != nil {
		if ferr := d.seen.Forget(context.WithoutCancel(ctx), item.ContentHash); ferr != nil {
			d.logger.Warn("failed to forget fingerprint", logger.String("content_hash", item.ContentHash), logger.Error(ferr))
		}
		return 0, err
	}
	return status, nil
}
