package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrSnakeDoc/jobscout/internal/domain"
	"github.com/MrSnakeDoc/jobscout/internal/logger"
	"github.com/MrSnakeDoc/jobscout/internal/sink"
)

// SourceLister returns the sources that should be polled.
type SourceLister interface {
	ListEnabledSources(ctx context.Context) ([]domain.Source, error)
}

// Poller fetches candidates from one source.
type Poller interface {
	Poll(ctx context.Context, src domain.Source) ([]domain.Candidate, error)
}

// Lease keeps several instances from polling at the same time.
type Lease interface {
	Acquire(ctx context.Context, ttl time.Duration) (func(context.Context) error, bool, error)
}

type Options struct {
	Interval    time.Duration // sleep between the end of a cycle and the next one
	SourcePause time.Duration // pause between two sources
	LeaseTTL    time.Duration // defaults to Interval
	RunOnStart  bool          // poll right away instead of waiting one interval
}

// Scheduler runs polling cycles: IDLE -> POLLING(source) -> IDLE.
// Sources are re-read at the top of every cycle, so toggles and deletions
// take effect on the next one.
type Scheduler struct {
	sources SourceLister
	poller  Poller
	filter  *domain.KeywordFilter
	sink    sink.Sink
	lease   Lease
	logger  logger.Logger

	interval   time.Duration
	pause      time.Duration
	leaseTTL   time.Duration
	runOnStart bool

	manualTrigger chan struct{}
	stopCh        chan struct{}
	stopOnce      sync.Once
	done          chan struct{}
	started       atomic.Bool

	mu    sync.Mutex
	abort context.CancelFunc
	last  CycleReport

	now func() time.Time
}

// New creates a scheduler. lease may be nil; manualTrigger may be nil when
// nothing can request an immediate cycle.
func New(
	sources SourceLister,
	poller Poller,
	filter *domain.KeywordFilter,
	out sink.Sink,
	lease Lease,
	log logger.Logger,
	opts Options,
	manualTrigger chan struct{},
) *Scheduler {
	if opts.Interval <= 0 {
		opts.Interval = 5 * time.Minute
	}
	if opts.LeaseTTL <= 0 {
		opts.LeaseTTL = opts.Interval
	}
	return &Scheduler{
		sources:       sources,
		poller:        poller,
		filter:        filter,
		sink:          out,
		lease:         lease,
		logger:        log,
		interval:      opts.Interval,
		pause:         opts.SourcePause,
		leaseTTL:      opts.LeaseTTL,
		runOnStart:    opts.RunOnStart,
		manualTrigger: manualTrigger,
		stopCh:        make(chan struct{}),
		done:          make(chan struct{}),
		now:           time.Now,
	}
}

// Start begins the periodic polling loop.
func (s *Scheduler) Start(ctx context.Context) {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	s.logger.Info("🚀 scheduler started",
		logger.Duration("interval", s.interval),
		logger.Duration("source_pause", s.pause))
	go s.loop(ctx)
}

// Stop ends the loop between two sources. A poll still running after grace
// gets its context cancelled.
func (s *Scheduler) Stop(grace time.Duration) {
	s.stopOnce.Do(func() { close(s.stopCh) })
	if !s.started.Load() {
		return
	}

	timer := time.NewTimer(grace)
	defer timer.Stop()
	select {
	case <-s.done:
	case <-timer.C:
		s.logger.Warn("poll still running after grace period, aborting", logger.Duration("grace", grace))
		s.abortInFlight()
		<-s.done
	}
	s.logger.Info("✅ scheduler stopped cleanly")
}

// Done is closed once the loop has returned.
func (s *Scheduler) Done() <-chan struct{} { return s.done }

// LastReport returns the most recent finished cycle.
func (s *Scheduler) LastReport() CycleReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)

	if s.runOnStart {
		s.cycle(ctx)
	}

	timer := time.NewTimer(s.interval)
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			s.cycle(ctx)
			timer.Reset(s.interval)
		case <-s.manualTrigger:
			s.logger.Info("manual poll triggered")
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			s.cycle(ctx)
			timer.Reset(s.interval)
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// cycle runs one pass whose polls outlive ctx cancellation until Stop's
// grace period runs out.
func (s *Scheduler) cycle(ctx context.Context) {
	if s.stopping(ctx) {
		return
	}
	pollCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.mu.Lock()
	s.abort = cancel
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.abort = nil
		s.mu.Unlock()
		cancel()
	}()

	s.runCycle(ctx, pollCtx)
}

func (s *Scheduler) abortInFlight() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.abort != nil {
		s.abort()
	}
}

// RunCycle polls every enabled source once and submits what passes the filter.
func (s *Scheduler) RunCycle(ctx context.Context) CycleReport {
	return s.runCycle(ctx, ctx)
}

// runCycle checks ctx between sources and runs polls and submissions on pollCtx.
func (s *Scheduler) runCycle(ctx, pollCtx context.Context) CycleReport {
	report := CycleReport{StartedAt: s.now()}
	defer func() {
		report.FinishedAt = s.now()
		s.mu.Lock()
		s.last = report
		s.mu.Unlock()
	}()

	if s.lease != nil {
		release, ok, err := s.lease.Acquire(pollCtx, s.leaseTTL)
		switch {
		case err != nil:
			// Without the lease every instance polls; the sink still dedups.
			s.logger.Warn("cycle lease unavailable, polling anyway", logger.Error(err))
		case !ok:
			s.logger.Info("another instance holds the cycle lease, skipping cycle")
			report.LeaseSkipped = true
			return report
		default:
			defer func() {
				if err := release(context.WithoutCancel(pollCtx)); err != nil {
					s.logger.Warn("failed to release cycle lease", logger.Error(err))
				}
			}()
		}
	}

	s.logger.Info("🔄 starting poll cycle")

	sources, err := s.sources.ListEnabledSources(pollCtx)
	if err != nil {
		s.logger.Error("failed to list enabled sources", logger.Error(err))
		report.Error = err.Error()
		return report
	}
	if len(sources) == 0 {
		s.logger.Warn("⚠️ no enabled sources")
	}

	for i, src := range sources {
		if i > 0 && !s.sleep(ctx, s.pause) {
			report.Interrupted = true
			break
		}
		if s.stopping(ctx) || pollCtx.Err() != nil {
			report.Interrupted = true
			break
		}

		report.Sources++
		s.pollSource(pollCtx, src, &report)
	}

	s.logger.Info("✅ poll cycle finished",
		logger.Int("sources", report.Sources),
		logger.Int("failed", report.Failed),
		logger.Int("candidates", report.Candidates),
		logger.Int("accepted", report.Accepted),
		logger.Int("inserted", report.Inserted),
		logger.Int("duplicates", report.Duplicates),
		logger.Int("submit_errors", report.SubmitErrors),
		logger.Bool("interrupted", report.Interrupted),
		logger.Duration("took", s.now().Sub(report.StartedAt)))

	return report
}

func (s *Scheduler) pollSource(ctx context.Context, src domain.Source, report *CycleReport) {
	log := s.logger.With(logger.String("source", src.Name), logger.String("provider", src.Provider))

	candidates, err := s.poller.Poll(ctx, src)
	if err != nil {
		report.Failed++
		var pe *domain.ProviderError
		if errors.As(err, &pe) {
			log.Warn("source poll failed", logger.String("kind", string(pe.Kind)), logger.Error(err))
		} else {
			log.Warn("source poll failed", logger.Error(err))
		}
		return
	}

	now := s.now()
	for _, c := range candidates {
		if ctx.Err() != nil {
			return
		}
		report.Candidates++
		if !s.filter.Accept(c, now) {
			report.Skipped++
			continue
		}

		item := domain.Accept(c, src.Provider)
		report.Accepted++

		status, err := s.sink.Submit(ctx, item)
		if err != nil {
			report.SubmitErrors++
			if errors.Is(err, domain.ErrValidation) {
				log.Warn("item rejected by sink", logger.String("content_hash", item.ContentHash), logger.Error(err))
			} else {
				log.Error("failed to submit item", logger.String("content_hash", item.ContentHash), logger.Error(err))
			}
			continue
		}

		switch status {
		case domain.SubmitOK:
			report.Inserted++
			log.Debug("job accepted", logger.String("preview", preview(item.Text, 80)))
		case domain.SubmitDuplicate:
			report.Duplicates++
		}
	}
}

func (s *Scheduler) stopping(ctx context.Context) bool {
	select {
	case <-s.stopCh:
		return true
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// sleep waits d and reports false when interrupted by Stop or ctx.
func (s *Scheduler) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return !s.stopping(ctx)
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-s.stopCh:
		return false
	case <-ctx.Done():
		return false
	}
}

func preview(text string, n int) string {
	r := []rune(text)
	if len(r) <= n {
		return text
	}
	return string(r[:n]) + "…"
}
