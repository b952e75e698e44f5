package provider

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/MrSnakeDoc/jobscout/internal/domain"
)

const (
	maxLineLength = 1 << 20  // 1 MiB per JSONL line
	maxOutput     = 32 << 20 // collector stdout kept in memory
	maxStderr     = 4 << 10

	// Exit codes the collector uses to describe why it failed.
	ExitAuth      = 77
	ExitRateLimit = 75
)

// FacebookOptions configures the external collector.
type FacebookOptions struct {
	Command string // ex: "python3 fb_collector.py"
	Pages   int    // pages the collector walks per group
	Cookies string // exported to the child as FB_COOKIES
}

// Facebook delegates scraping to an external collector process that prints
// one JSON object per post on stdout.
type Facebook struct {
	argv    []string
	pages   int
	cookies string
}

// NewFacebook creates the collector-backed provider.
func NewFacebook(opts FacebookOptions) (*Facebook, error) {
	argv := strings.Fields(opts.Command)
	if len(argv) == 0 {
		return nil, errors.New("facebook: collector command is required")
	}
	pages := opts.Pages
	if pages <= 0 {
		pages = 1
	}
	return &Facebook{argv: argv, pages: pages, cookies: opts.Cookies}, nil
}

// collectorPost is the JSONL schema emitted by the collector.
type collectorPost struct {
	Text    string `json:"text"`
	PostURL string `json:"post_url"`
	Link    string `json:"link"`
	Time    string `json:"time"`
}

// Fetch runs the collector for src and parses its output.
func (f *Facebook) Fetch(ctx context.Context, src domain.Source, limit int) ([]domain.Candidate, error) {
	group := domain.ExtractSourceID(src.SourceID)

	args := append([]string{}, f.argv[1:]...)
	args = append(args,
		"--group", group,
		"--pages", strconv.Itoa(f.pages),
	)
	if limit > 0 {
		args = append(args, "--limit", strconv.Itoa(limit))
	}

	cmd := exec.CommandContext(ctx, f.argv[0], args...)
	// Cookies go through the environment so they never show up in ps output.
	cmd.Env = append(os.Environ(), "FB_COOKIES="+f.cookies)
	cmd.WaitDelay = 2 * time.Second

	stdout := &limitedBuffer{max: maxOutput}
	stderr := &limitedBuffer{max: maxStderr}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	fetchedAt := time.Now()
	if err := cmd.Run(); err != nil {
		return nil, classifyCollectorError(ctx, src.Name, err, strings.TrimSpace(stderr.String()))
	}

	candidates, err := parseCollectorOutput(bytes.NewReader(stdout.Bytes()), src.Name, fetchedAt, limit)
	if err != nil {
		return nil, domain.NewProviderError(src.Name, domain.ProviderErrUnknown, fmt.Errorf("parse output: %w", err))
	}
	return candidates, nil
}

func parseCollectorOutput(r io.Reader, sourceName string, fetchedAt time.Time, limit int) ([]domain.Candidate, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)

	var out []domain.Candidate
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if limit > 0 && len(out) >= limit {
			continue
		}

		var post collectorPost
		if err := json.Unmarshal(line, &post); err != nil {
			return nil, fmt.Errorf("line %d: invalid json: %w", lineNum, err)
		}

		link := post.PostURL
		if link == "" {
			link = post.Link
		}

		var postedAt time.Time
		if post.Time != "" {
			if t, err := time.Parse(time.RFC3339, post.Time); err == nil {
				postedAt = t
			}
		}

		out = append(out, domain.Candidate{
			SourceName: sourceName,
			Text:       post.Text,
			Link:       link,
			PostedAt:   postedAt,
			FetchedAt:  fetchedAt,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read jsonl: %w", err)
	}
	return out, nil
}

func classifyCollectorError(ctx context.Context, source string, err error, stderr string) error {
	detail := err
	if stderr != "" {
		detail = fmt.Errorf("%w: %s", err, stderr)
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return domain.NewProviderError(source, domain.ProviderErrNetwork, fmt.Errorf("collector interrupted: %w", ctxErr))
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		switch exitErr.ExitCode() {
		case ExitAuth:
			return domain.NewProviderError(source, domain.ProviderErrAuth, detail)
		case ExitRateLimit:
			return domain.NewProviderError(source, domain.ProviderErrRateLimit, detail)
		}
	}
	return domain.NewProviderError(source, domain.ProviderErrUnknown, detail)
}

// limitedBuffer keeps the first max bytes written to it.
type limitedBuffer struct {
	buf bytes.Buffer
	max int
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	if room := b.max - b.buf.Len(); room > 0 {
		if len(p) > room {
			b.buf.Write(p[:room])
		} else {
			b.buf.Write(p)
		}
	}
	return len(p), nil
}

func (b *limitedBuffer) Bytes() []byte  { return b.buf.Bytes() }
func (b *limitedBuffer) String() string { return b.buf.String() }
