package connect

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/MrSnakeDoc/jobscout/internal/logger"
	"github.com/MrSnakeDoc/jobscout/internal/store"
	"github.com/MrSnakeDoc/jobscout/internal/store/postgres"
	"github.com/MrSnakeDoc/jobscout/internal/store/sqlite"
)

// DatabaseOptions selects and tunes the store backend.
type DatabaseOptions struct {
	// URL is "postgres://...", "postgresql://..." or "sqlite:<path>".
	URL            string
	MaxConns       int
	SimpleProtocol bool
	Retry          RetryOptions
}

// Backend names the store implementation a database URL maps to.
func Backend(rawURL string) (string, error) {
	switch {
	case strings.HasPrefix(rawURL, "postgres://"), strings.HasPrefix(rawURL, "postgresql://"):
		return "postgres", nil
	case strings.HasPrefix(rawURL, "sqlite:"):
		return "sqlite", nil
	default:
		return "", fmt.Errorf("unsupported database url %q: want postgres:// or sqlite:<path>", redactURL(rawURL))
	}
}

// Database opens the store described by opts. Postgres is retried until
// reachable; SQLite opens the local file directly.
func Database(ctx context.Context, opts DatabaseOptions, log logger.Logger) (store.Store, error) {
	backend, err := Backend(opts.URL)
	if err != nil {
		return nil, err
	}

	switch backend {
	case "sqlite":
		path := sqlitePath(opts.URL)
		st, err := sqlite.Open(ctx, path)
		if err != nil {
			return nil, err
		}
		log.Info("opened sqlite store", logger.String("path", path))
		return st, nil

	default:
		maxConns := opts.MaxConns
		if maxConns < 0 {
			maxConns = 0
		}
		pool, err := postgres.NewPool(ctx, opts.URL, postgres.PoolOptions{
			MaxConns:       int32(maxConns),
			SimpleProtocol: opts.SimpleProtocol,
		})
		if err != nil {
			return nil, err
		}
		if err := WithRetry(ctx, "postgres", redactURL(opts.URL), opts.Retry, pool.Ping, log); err != nil {
			pool.Close()
			return nil, err
		}
		st, err := postgres.New(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, err
		}
		return st, nil
	}
}

// sqlitePath strips the scheme: "sqlite:data/jobs.db" and
// "sqlite://data/jobs.db" both give "data/jobs.db".
func sqlitePath(rawURL string) string {
	p := strings.TrimPrefix(rawURL, "sqlite:")
	return strings.TrimPrefix(p, "//")
}

// redactURL keeps scheme, host and path so credentials never reach the logs.
func redactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		if i := strings.Index(rawURL, "@"); i >= 0 {
			return "***@" + rawURL[i+1:]
		}
		return rawURL
	}
	u.User = nil
	u.RawQuery = ""
	return u.String()
}
