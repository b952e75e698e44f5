package provider

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/MrSnakeDoc/jobscout/internal/domain"
)

// writeCollector drops a shell script standing in for the real collector.
func writeCollector(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "collector.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write collector: %v", err)
	}
	return "sh " + path
}

func TestFacebookFetch(t *testing.T) {
	cmd := writeCollector(t, `
echo '{"text":"Hiring Go developer","post_url":"https://facebook.com/groups/g/posts/1","time":"2024-05-01T10:00:00Z"}'
echo ''
echo "{\"text\":\"cookies=$FB_COOKIES args=$*\",\"link\":\"https://example.com/2\"}"
`)
	fb, err := NewFacebook(FacebookOptions{Command: cmd, Pages: 3, Cookies: "c_user=42"})
	if err != nil {
		t.Fatalf("NewFacebook() error = %v", err)
	}

	src := domain.Source{SourceID: "https://www.facebook.com/groups/devjobs/", Name: "Dev Jobs"}
	got, err := fb.Fetch(context.Background(), src, 10)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Fetch() returned %d candidates, want 2", len(got))
	}

	first := got[0]
	if first.SourceName != "Dev Jobs" || first.Link != "https://facebook.com/groups/g/posts/1" {
		t.Errorf("first candidate = %+v", first)
	}
	if want := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC); !first.PostedAt.Equal(want) {
		t.Errorf("PostedAt = %v, want %v", first.PostedAt, want)
	}
	if first.FetchedAt.IsZero() {
		t.Error("FetchedAt should be set")
	}

	second := got[1]
	if second.Link != "https://example.com/2" {
		t.Errorf("link fallback = %q, want the link field", second.Link)
	}
	if !second.PostedAt.IsZero() {
		t.Errorf("missing time should stay zero, got %v", second.PostedAt)
	}
	if !strings.HasPrefix(second.Text, "cookies=c_user=42 args=") {
		t.Errorf("collector did not receive FB_COOKIES: %q", second.Text)
	}
	args := strings.TrimPrefix(second.Text, "cookies=c_user=42 args=")
	if args != "--group devjobs --pages 3 --limit 10" {
		t.Errorf("collector args = %q", args)
	}
}

func TestFacebookFetchLimit(t *testing.T) {
	cmd := writeCollector(t, `
for i in 1 2 3 4 5; do
  echo "{\"text\":\"job $i\"}"
done
`)
	fb, _ := NewFacebook(FacebookOptions{Command: cmd})

	got, err := fb.Fetch(context.Background(), domain.Source{SourceID: "g", Name: "g"}, 2)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(got) != 2 || got[0].Text != "job 1" {
		t.Fatalf("Fetch() = %+v, want the first two posts", got)
	}
}

func TestFacebookFetchErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		kind domain.ProviderErrorKind
	}{
		{name: "auth", body: "echo 'login required' >&2\nexit 77\n", kind: domain.ProviderErrAuth},
		{name: "rate limit", body: "exit 75\n", kind: domain.ProviderErrRateLimit},
		{name: "crash", body: "exit 1\n", kind: domain.ProviderErrUnknown},
		{name: "garbage output", body: "echo 'not json'\n", kind: domain.ProviderErrUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb, _ := NewFacebook(FacebookOptions{Command: writeCollector(t, tt.body)})
			_, err := fb.Fetch(context.Background(), domain.Source{SourceID: "g", Name: "group"}, 5)

			var pe *domain.ProviderError
			if !errors.As(err, &pe) {
				t.Fatalf("Fetch() error = %v, want *ProviderError", err)
			}
			if pe.Kind != tt.kind {
				t.Errorf("kind = %s, want %s", pe.Kind, tt.kind)
			}
			if pe.Source != "group" {
				t.Errorf("source = %q, want group", pe.Source)
			}
		})
	}
}

func TestFacebookFetchStderrInError(t *testing.T) {
	fb, _ := NewFacebook(FacebookOptions{Command: writeCollector(t, "echo 'checkpoint required' >&2\nexit 77\n")})
	_, err := fb.Fetch(context.Background(), domain.Source{SourceID: "g", Name: "g"}, 5)
	if err == nil || !strings.Contains(err.Error(), "checkpoint required") {
		t.Fatalf("error should carry collector stderr, got %v", err)
	}
}

func TestFacebookFetchTimeout(t *testing.T) {
	fb, _ := NewFacebook(FacebookOptions{Command: writeCollector(t, "exec sleep 5\n")})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := fb.Fetch(ctx, domain.Source{SourceID: "g", Name: "g"}, 5)
	var pe *domain.ProviderError
	if !errors.As(err, &pe) || pe.Kind != domain.ProviderErrNetwork {
		t.Fatalf("Fetch() error = %v, want network ProviderError", err)
	}
	if time.Since(start) > 4*time.Second {
		t.Error("Fetch() did not stop at the context deadline")
	}
}

func TestNewFacebookRequiresCommand(t *testing.T) {
	if _, err := NewFacebook(FacebookOptions{Command: "   "}); err == nil {
		t.Fatal("NewFacebook() should reject an empty command")
	}
}

func TestRegistry(t *testing.T) {
	fb, _ := NewFacebook(FacebookOptions{Command: "true"})
	reg := Registry{domain.ProviderRSS: NewRSS(nil), domain.ProviderFacebook: fb}

	if _, err := reg.Get(domain.ProviderFacebook); err != nil {
		t.Errorf("Get(facebook) error = %v", err)
	}
	if _, err := reg.Get("mastodon"); err == nil {
		t.Error("Get(mastodon) should fail")
	}
	if got := strings.Join(reg.Kinds(), ","); got != "facebook,rss" {
		t.Errorf("Kinds() = %q", got)
	}
}
