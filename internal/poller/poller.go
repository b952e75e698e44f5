// Package poller runs one bounded fetch against a single source.
package poller

import (
	"context"
	"errors"
	"time"

	"github.com/MrSnakeDoc/jobscout/internal/domain"
	"github.com/MrSnakeDoc/jobscout/internal/logger"
	"github.com/MrSnakeDoc/jobscout/internal/provider"
)

const (
	DefaultMaxItems = 50
	DefaultTimeout  = 2 * time.Minute
)

type Options struct {
	MaxItems int           // candidates kept per poll
	Timeout  time.Duration // upper bound for one poll
}

// Poller picks the provider for a source and bounds its fetch.
// It never retries: a failed source is simply tried again next cycle.
type Poller struct {
	providers provider.Registry
	maxItems  int
	timeout   time.Duration
	logger    logger.Logger
	now       func() time.Time
}

func New(providers provider.Registry, opts Options, log logger.Logger) *Poller {
	if opts.MaxItems <= 0 {
		opts.MaxItems = DefaultMaxItems
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Poller{
		providers: providers,
		maxItems:  opts.MaxItems,
		timeout:   opts.Timeout,
		logger:    log,
		now:       time.Now,
	}
}

// Poll returns up to MaxItems candidates from src. Every error is a
// *domain.ProviderError naming the source.
func (p *Poller) Poll(ctx context.Context, src domain.Source) ([]domain.Candidate, error) {
	prov, err := p.providers.Get(src.Provider)
	if err != nil {
		return nil, domain.NewProviderError(src.Name, domain.ProviderErrUnknown, err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := p.now()
	raw, err := prov.Fetch(ctx, src, p.maxItems)
	if err != nil {
		kind := domain.ProviderErrUnknown
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			kind = domain.ProviderErrNetwork
		}
		return nil, domain.NewProviderError(src.Name, kind, err)
	}

	out := make([]domain.Candidate, 0, min(len(raw), p.maxItems))
	dropped := 0
	for _, c := range raw {
		if len(out) >= p.maxItems {
			break
		}
		c.Text = domain.NormalizeText(c.Text)
		if c.Text == "" {
			dropped++
			continue
		}
		if c.SourceName == "" {
			c.SourceName = src.Name
		}
		if c.FetchedAt.IsZero() {
			c.FetchedAt = start
		}
		out = append(out, c)
	}

	p.logger.Debug("source polled",
		logger.String("source", src.Name),
		logger.String("provider", src.Provider),
		logger.Int("candidates", len(out)),
		logger.Int("empty_dropped", dropped),
		logger.Duration("took", p.now().Sub(start)))

	return out, nil
}
