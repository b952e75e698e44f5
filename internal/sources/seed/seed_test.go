package seed

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/MrSnakeDoc/jobscout/internal/domain"

	"github.com/MrSnakeDoc/jobscout/internal/logger"
	"github.com/MrSnakeDoc/jobscout/internal/store/sqlite"
)

func writeSeed(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sources.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to create test YAML file: %v", err)
	}
	return path
}

func TestLoaderLoad(t *testing.T) {
	path := writeSeed(t, `
sources:
  - source_id: https://www.facebook.com/groups/golangjobs/
    name: Go Jobs
  - source_id: https://example.com/jobs.rss
    provider: rss
    enabled: false
`)

	f, err := NewLoader(path).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(f.Sources) != 2 {
		t.Fatalf("Load() returned %d sources, want 2", len(f.Sources))
	}
	if f.Sources[0].Enabled != nil {
		t.Error("unset enabled should stay nil")
	}
	if f.Sources[1].Enabled == nil || *f.Sources[1].Enabled {
		t.Error("enabled: false should be kept")
	}
}

func TestLoaderLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "empty", content: "sources: []\n"},
		{name: "unknown key", content: "sources:\n  - source_id: x\n    url: y\n"},
		{name: "not yaml", content: "sources: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewLoader(writeSeed(t, tt.content)).Load(); err == nil {
				t.Error("Load() should have failed")
			}
		})
	}

	if _, err := NewLoader("/nonexistent/path/sources.yaml").Load(); err == nil {
		t.Error("Load() with non-existent file should return error")
	}
}

func TestExpandTemplateVariables(t *testing.T) {
	env := map[string]string{"GROUP": "golangjobs"}
	lookup := func(k string) string { return env[k] }

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "single variable", input: "source_id: {{GROUP}}", expected: "source_id: golangjobs"},
		{name: "spaces inside braces", input: "source_id: {{ GROUP }}", expected: "source_id: golangjobs"},
		{name: "unset variable", input: "name: {{MISSING}}", expected: "name: "},
		{name: "no template variables", input: "plain text", expected: "plain text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := string(expandTemplateVariables([]byte(tt.input), lookup)); got != tt.expected {
				t.Errorf("expandTemplateVariables() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestImport(t *testing.T) {
	ctx := context.Background()
	st, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "jobs.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer func() { _ = st.Close() }()

	off := false
	f := File{Sources: []Entry{
		{SourceID: "https://www.facebook.com/groups/golangjobs/", Name: "Go Jobs"},
		{SourceID: "https://example.com/jobs.rss", Provider: "rss", Enabled: &off},
		{SourceID: "   "},
	}}

	res, err := Import(ctx, st, f, logger.Nop())
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if res.Saved != 2 || res.Toggled != 1 || res.Invalid != 1 {
		t.Errorf("Import() = %+v, want 2 saved, 1 toggled, 1 invalid", res)
	}

	// a second run changes nothing
	res, err = Import(ctx, st, f, logger.Nop())
	if err != nil {
		t.Fatalf("second Import() error = %v", err)
	}
	if res.Toggled != 0 {
		t.Errorf("second import toggled %d sources, want 0", res.Toggled)
	}

	enabled, err := st.ListEnabledSources(ctx)
	if err != nil {
		t.Fatalf("list enabled: %v", err)
	}
	if len(enabled) != 1 || enabled[0].SourceID != "golangjobs" {
		t.Errorf("enabled sources = %+v, want only golangjobs", enabled)
	}
}

// upsertBarrier holds every import after its upsert until all of them
// have read the stored row.
type upsertBarrier struct {
	SourceWriter
	wg *sync.WaitGroup
}

func (b upsertBarrier) UpsertSource(ctx context.Context, in domain.SourceInput) (domain.Source, error) {
	src, err := b.SourceWriter.UpsertSource(ctx, in)
	b.wg.Done()
	b.wg.Wait()
	return src, err
}

func TestImportConcurrentDisable(t *testing.T) {
	ctx := context.Background()
	st, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "jobs.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer func() { _ = st.Close() }()

	off := false
	f := File{Sources: []Entry{{SourceID: "golangjobs", Enabled: &off}}}

	const importers = 2
	var barrier sync.WaitGroup
	barrier.Add(importers)
	w := upsertBarrier{SourceWriter: st, wg: &barrier}

	var wg sync.WaitGroup
	for range importers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := Import(ctx, w, f, logger.Nop()); err != nil {
				t.Errorf("Import() error = %v", err)
			}
		}()
	}
	wg.Wait()

	enabled, err := st.ListEnabledSources(ctx)
	if err != nil {
		t.Fatalf("list enabled: %v", err)
	}
	if len(enabled) != 0 {
		t.Errorf("enabled sources = %+v, want none after concurrent disable", enabled)
	}
}
