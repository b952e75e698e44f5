package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MrSnakeDoc/jobscout/internal/domain"
	"github.com/MrSnakeDoc/jobscout/internal/version"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func useTempDatabase(t *testing.T) {
	t.Helper()
	t.Setenv("JOBSCOUT_DATABASE_URL", "sqlite:"+filepath.Join(t.TempDir(), "jobs.db"))
	t.Setenv("JOBSCOUT_SINK_URL", "")
	t.Setenv("JOBSCOUT_LOG_LEVEL", "error")
	t.Setenv("JOBSCOUT_PRETTY_LOG", "false")
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if strings.TrimSpace(out) != version.String() {
		t.Errorf("version printed %q", out)
	}
}

func TestSourcesImportAndList(t *testing.T) {
	useTempDatabase(t)

	seedPath := filepath.Join(t.TempDir(), "sources.yaml")
	content := `
sources:
  - source_id: https://www.facebook.com/groups/golangjobs/
    name: Go Jobs
  - source_id: https://example.com/jobs.rss
    provider: rss
    enabled: false
`
	if err := os.WriteFile(seedPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "sources", "import", seedPath)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if !strings.Contains(out, "2 saved, 1 toggled, 0 invalid") {
		t.Errorf("import printed %q", out)
	}

	out, err = run(t, "sources", "list", "--format", "json")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var list []domain.Source
	if err := json.Unmarshal([]byte(out), &list); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(list) != 2 {
		t.Fatalf("listed %d sources, want 2", len(list))
	}

	out, err = run(t, "sources", "list", "--format", "terminal")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "golangjobs") || !strings.Contains(out, "PROVIDER") {
		t.Errorf("table output %q", out)
	}
}

func TestSourcesImportNeedsFile(t *testing.T) {
	if _, err := run(t, "sources", "import"); err == nil {
		t.Error("import without a file should fail")
	}
	if _, err := run(t, "sources", "import", "/nonexistent/sources.yaml"); err == nil {
		t.Error("import of a missing file should fail")
	}
}

func TestPollWithoutSources(t *testing.T) {
	useTempDatabase(t)
	t.Setenv("JOBSCOUT_FB_COLLECTOR", "true")

	out, err := run(t, "poll", "--format", "json")
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	var report struct {
		Sources int `json:"sources"`
	}
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if report.Sources != 0 {
		t.Errorf("sources = %d, want 0", report.Sources)
	}
}

func TestServeRejectsEverythingDisabled(t *testing.T) {
	_, err := run(t, "serve", "--no-api", "--no-scheduler", "--no-bot")
	serveNoAPI, serveNoScheduler, serveNoBot = false, false, false
	if err == nil {
		t.Error("serve with every component disabled should fail")
	}
}
