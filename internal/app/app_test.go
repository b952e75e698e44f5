package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/MrSnakeDoc/jobscout/internal/config"
	"github.com/MrSnakeDoc/jobscout/internal/domain"
	"github.com/MrSnakeDoc/jobscout/internal/logger"
)

const feed = `<?xml version="1.0"?>
<rss version="2.0"><channel><title>jobs</title>
<item><title>Hiring a Go developer</title><link>https://example.com/1</link><description>Remote, full time</description></item>
<item><title>Selling a bike</title><link>https://example.com/2</link><description>Barely used</description></item>
<item><title>Job: Kotlin engineer</title><link>https://example.com/3</link><description>Paris</description></item>
</channel></rss>`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		ListenPort:      "127.0.0.1:0",
		ShutdownTimeout: time.Second,
		DatabaseURL:     "sqlite:" + filepath.Join(t.TempDir(), "jobs.db"),
		PollInterval:    time.Hour,
		PollTimeout:     5 * time.Second,
		PageLimit:       1,
		MaxItems:        50,
		Keywords:        []string{"hiring", "job"},
		FBCollector:     "true",
		SeenTTL:         time.Hour,
		SharedSecret:    "s3cret",
		RateLimit:       10,
		RateBurst:       10,
	}
}

// TestPipelineScenario covers source -> poll -> filter -> dedup -> store, twice.
func TestPipelineScenario(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(feed))
	}))
	defer srv.Close()

	ctx := context.Background()
	a, err := New(ctx, testConfig(t), logger.Nop(), Options{Scheduler: true})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close()

	if _, err := a.store.UpsertSource(ctx, domain.SourceInput{SourceID: srv.URL, Name: "feed", Provider: domain.ProviderRSS}); err != nil {
		t.Fatalf("add source: %v", err)
	}

	tests := []struct {
		name           string
		wantInserted   int
		wantDuplicates int
	}{
		{name: "first cycle stores matching posts", wantInserted: 2},
		{name: "second cycle stores nothing new", wantDuplicates: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := a.PollOnce(ctx)
			if err != nil {
				t.Fatalf("PollOnce() error = %v", err)
			}
			if report.Candidates != 3 || report.Accepted != 2 {
				t.Errorf("candidates/accepted = %d/%d, want 3/2", report.Candidates, report.Accepted)
			}
			if report.Inserted != tt.wantInserted || report.Duplicates != tt.wantDuplicates {
				t.Errorf("inserted/duplicates = %d/%d, want %d/%d",
					report.Inserted, report.Duplicates, tt.wantInserted, tt.wantDuplicates)
			}
		})
	}

	jobs, err := a.store.ListJobs(ctx, 10)
	if err != nil {
		t.Fatalf("list jobs: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("stored %d jobs, want 2", len(jobs))
	}
	for _, j := range jobs {
		if j.SourceType != domain.ProviderRSS {
			t.Errorf("job %d source_type = %q, want rss", j.ID, j.SourceType)
		}
	}
}

func TestNewRequiresSecretForAPI(t *testing.T) {
	cfg := testConfig(t)
	cfg.SharedSecret = ""
	if _, err := New(context.Background(), cfg, logger.Nop(), Options{API: true}); err == nil {
		t.Error("New() should refuse to serve the API without a shared secret")
	}
}

func TestNewImportsSourcesFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.SourcesFile = filepath.Join(t.TempDir(), "sources.yaml")
	if err := os.WriteFile(cfg.SourcesFile, []byte("sources:\n  - source_id: golangjobs\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	a, err := New(context.Background(), cfg, logger.Nop(), Options{Scheduler: true})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close()

	list, err := a.store.ListSources(context.Background())
	if err != nil || len(list) != 1 {
		t.Fatalf("sources = %v (%v), want the seeded one", list, err)
	}
}

func TestPollOnceWithoutScheduler(t *testing.T) {
	a, err := New(context.Background(), testConfig(t), logger.Nop(), Options{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close()

	if _, err := a.PollOnce(context.Background()); err == nil {
		t.Error("PollOnce() without a scheduler should fail")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	a, err := New(context.Background(), testConfig(t), logger.Nop(), Options{API: true, Scheduler: true})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}

func TestLogStartupListsProviders(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	a, err := New(context.Background(), testConfig(t), logger.NewWithCore(core), Options{Scheduler: true})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close()

	a.logStartup()

	entries := logs.FilterMessage("poller enabled").All()
	if len(entries) != 1 {
		t.Fatalf("logged %d poller lines, want 1", len(entries))
	}
	got, _ := entries[0].ContextMap()["providers"].([]interface{})
	if len(got) != 2 || got[0] != "facebook" || got[1] != "rss" {
		t.Errorf("providers = %v, want [facebook rss]", entries[0].ContextMap()["providers"])
	}
}

func TestAPIURL(t *testing.T) {
	tests := map[string]string{
		":8080":          "http://localhost:8080",
		"127.0.0.1:9000": "http://127.0.0.1:9000",
	}
	for in, want := range tests {
		if got := apiURL(in); got != want {
			t.Errorf("apiURL(%q) = %q, want %q", in, got, want)
		}
	}
}
