package scheduler

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/MrSnakeDoc/jobscout/internal/domain"
	"github.com/MrSnakeDoc/jobscout/internal/index"
	"github.com/MrSnakeDoc/jobscout/internal/logger"
	"github.com/MrSnakeDoc/jobscout/internal/poller"
	"github.com/MrSnakeDoc/jobscout/internal/provider"
	"github.com/MrSnakeDoc/jobscout/internal/sink"
	"github.com/MrSnakeDoc/jobscout/internal/store/sqlite"
)

// fakeProvider answers per source id and records what it was asked for.
type fakeProvider struct {
	mu     sync.Mutex
	items  map[string][]domain.Candidate
	errs   map[string]error
	block  bool
	polled []string
}

func (f *fakeProvider) Fetch(ctx context.Context, src domain.Source, _ int) ([]domain.Candidate, error) {
	f.mu.Lock()
	f.polled = append(f.polled, src.SourceID)
	block := f.block
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err := f.errs[src.SourceID]; err != nil {
		return nil, err
	}
	return f.items[src.SourceID], nil
}

func (f *fakeProvider) Polled() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.polled...)
}

type fixture struct {
	store    *sqlite.Store
	provider *fakeProvider
	sched    *Scheduler
	trigger  chan struct{}
	logs     *observer.ObservedLogs
}

func newFixture(t *testing.T, keywords []string, opts Options) *fixture {
	t.Helper()
	st, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "jobs.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	fp := &fakeProvider{items: map[string][]domain.Candidate{}, errs: map[string]error{}}
	p := poller.New(provider.Registry{domain.ProviderFacebook: fp}, poller.Options{MaxItems: 10, Timeout: 5 * time.Second}, logger.Nop())
	trigger := make(chan struct{}, 1)
	core, logs := observer.New(zapcore.DebugLevel)
	sched := New(st, p, domain.NewKeywordFilter(keywords, 0), sink.NewStoreSink(st, nil, logger.Nop()), nil, logger.NewWithCore(core), opts, trigger)

	return &fixture{store: st, provider: fp, sched: sched, trigger: trigger, logs: logs}
}

func (f *fixture) addSource(t *testing.T, id string) domain.Source {
	t.Helper()
	src, err := f.store.UpsertSource(context.Background(), domain.SourceInput{SourceID: id})
	if err != nil {
		t.Fatalf("UpsertSource(%s): %v", id, err)
	}
	return src
}

func (f *fixture) jobCount(t *testing.T) int {
	t.Helper()
	jobs, err := f.store.ListJobs(context.Background(), 200)
	if err != nil {
		t.Fatalf("ListJobs: %v", err)
	}
	return len(jobs)
}

func TestRunCycleProviderFailureDoesNotBlockLaterSources(t *testing.T) {
	f := newFixture(t, []string{"hiring"}, Options{})
	f.addSource(t, "broken")
	f.addSource(t, "healthy")

	f.provider.errs["broken"] = domain.NewProviderError("", domain.ProviderErrAuth, errors.New("login required"))
	f.provider.items["healthy"] = []domain.Candidate{
		{Text: "We are hiring a Go engineer", Link: "https://facebook.com/groups/healthy/posts/1"},
		{Text: "Selling a bike"},
	}

	report := f.sched.RunCycle(context.Background())

	if report.Sources != 2 || report.Failed != 1 {
		t.Fatalf("sources=%d failed=%d, want 2 and 1", report.Sources, report.Failed)
	}
	if report.Candidates != 2 || report.Accepted != 1 || report.Skipped != 1 {
		t.Errorf("candidates=%d accepted=%d skipped=%d", report.Candidates, report.Accepted, report.Skipped)
	}
	if report.Inserted != 1 {
		t.Errorf("inserted=%d, want 1", report.Inserted)
	}
	if n := f.jobCount(t); n != 1 {
		t.Errorf("stored %d jobs, want 1", n)
	}

	failures := f.logs.FilterMessage("source poll failed").All()
	if len(failures) != 1 {
		t.Fatalf("logged %d poll failures, want 1", len(failures))
	}
	entry := failures[0]
	if entry.Level != zapcore.WarnLevel {
		t.Errorf("level = %s, want warn", entry.Level)
	}
	fields := entry.ContextMap()
	if fields["kind"] != "auth" || fields["source"] != "broken" {
		t.Errorf("fields = %v, want kind=auth source=broken", fields)
	}
}

func TestRunCycleIsIdempotent(t *testing.T) {
	f := newFixture(t, []string{"job"}, Options{})
	f.addSource(t, "group")
	f.provider.items["group"] = []domain.Candidate{{Text: "Remote job offer"}}

	first := f.sched.RunCycle(context.Background())
	second := f.sched.RunCycle(context.Background())

	if first.Inserted != 1 || second.Inserted != 0 || second.Duplicates != 1 {
		t.Fatalf("first=%+v second=%+v", first, second)
	}
	if n := f.jobCount(t); n != 1 {
		t.Errorf("stored %d jobs, want 1", n)
	}
}

func TestRunCycleSkipsDisabledSourceKeepsJobs(t *testing.T) {
	f := newFixture(t, []string{"hiring"}, Options{})
	a := f.addSource(t, "group-a")
	f.addSource(t, "group-b")
	f.provider.items["group-a"] = []domain.Candidate{{Text: "hiring at A"}}
	f.provider.items["group-b"] = []domain.Candidate{{Text: "hiring at B"}}

	f.sched.RunCycle(context.Background())
	if n := f.jobCount(t); n != 2 {
		t.Fatalf("stored %d jobs after first cycle, want 2", n)
	}

	if enabled, err := f.store.ToggleSource(context.Background(), a.ID); err != nil || enabled {
		t.Fatalf("ToggleSource = %v, %v", enabled, err)
	}
	f.provider.mu.Lock()
	f.provider.polled = nil
	f.provider.mu.Unlock()

	report := f.sched.RunCycle(context.Background())

	polled := f.provider.Polled()
	if len(polled) != 1 || polled[0] != "group-b" {
		t.Fatalf("second cycle polled %v, want only group-b", polled)
	}
	if report.Sources != 1 {
		t.Errorf("report.Sources = %d, want 1", report.Sources)
	}
	if n := f.jobCount(t); n != 2 {
		t.Errorf("disabling a source removed jobs: %d left", n)
	}
}

func TestRunCycleEmptyKeywordsAcceptNothing(t *testing.T) {
	f := newFixture(t, nil, Options{})
	f.addSource(t, "group")
	f.provider.items["group"] = []domain.Candidate{{Text: "hiring"}, {Text: "job"}}

	report := f.sched.RunCycle(context.Background())
	if report.Accepted != 0 || report.Skipped != 2 {
		t.Fatalf("accepted=%d skipped=%d, want 0 and 2", report.Accepted, report.Skipped)
	}
	if n := f.jobCount(t); n != 0 {
		t.Errorf("stored %d jobs, want 0", n)
	}
}

type heldLease struct{}

func (heldLease) Acquire(context.Context, time.Duration) (func(context.Context) error, bool, error) {
	return nil, false, nil
}

func TestRunCycleSkipsWithoutLease(t *testing.T) {
	f := newFixture(t, []string{"hiring"}, Options{})
	f.addSource(t, "group")
	f.sched.lease = heldLease{}

	report := f.sched.RunCycle(context.Background())
	if !report.LeaseSkipped {
		t.Fatal("cycle should be skipped when the lease is held elsewhere")
	}
	if len(f.provider.Polled()) != 0 {
		t.Error("no source should be polled without the lease")
	}
}

func TestRunCycleReleasesLease(t *testing.T) {
	f := newFixture(t, []string{"hiring"}, Options{})
	f.addSource(t, "group")
	lease := &index.MemoryLease{}
	f.sched.lease = lease

	f.sched.RunCycle(context.Background())

	release, ok, _ := lease.Acquire(context.Background(), time.Minute)
	if !ok {
		t.Fatal("lease was not released after the cycle")
	}
	_ = release(context.Background())
}

func TestStartRunsOnTrigger(t *testing.T) {
	f := newFixture(t, []string{"hiring"}, Options{Interval: time.Hour})
	f.addSource(t, "group")
	f.provider.items["group"] = []domain.Candidate{{Text: "hiring now"}}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.sched.Start(ctx)
	f.trigger <- struct{}{}

	deadline := time.Now().Add(5 * time.Second)
	for f.sched.LastReport().FinishedAt.IsZero() {
		if time.Now().After(deadline) {
			t.Fatal("manual trigger did not run a cycle")
		}
		time.Sleep(10 * time.Millisecond)
	}

	f.sched.Stop(time.Second)
	select {
	case <-f.sched.Done():
	default:
		t.Fatal("Stop returned before the loop exited")
	}
	if got := f.sched.LastReport().Inserted; got != 1 {
		t.Errorf("inserted = %d, want 1", got)
	}
}

func TestStopAbortsInFlightPollAfterGrace(t *testing.T) {
	f := newFixture(t, []string{"hiring"}, Options{Interval: time.Hour, RunOnStart: true})
	f.addSource(t, "slow")
	f.provider.block = true

	f.sched.Start(context.Background())

	deadline := time.Now().Add(5 * time.Second)
	for len(f.provider.Polled()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("poll never started")
		}
		time.Sleep(5 * time.Millisecond)
	}

	start := time.Now()
	f.sched.Stop(50 * time.Millisecond)
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Fatalf("Stop took %v, want roughly the grace period", elapsed)
	}
	if report := f.sched.LastReport(); report.Failed != 1 {
		t.Errorf("aborted poll should count as failed, report = %+v", report)
	}
}

func TestStopBetweenSources(t *testing.T) {
	f := newFixture(t, []string{"hiring"}, Options{Interval: time.Hour, SourcePause: time.Hour})
	f.addSource(t, "first")
	f.addSource(t, "second")

	done := make(chan CycleReport)
	go func() { done <- f.sched.RunCycle(context.Background()) }()

	deadline := time.Now().Add(5 * time.Second)
	for len(f.provider.Polled()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("first source never polled")
		}
		time.Sleep(5 * time.Millisecond)
	}
	f.sched.Stop(time.Second)

	select {
	case report := <-done:
		if !report.Interrupted || report.Sources != 1 {
			t.Errorf("report = %+v, want interrupted after one source", report)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("cycle kept sleeping after Stop")
	}
}
