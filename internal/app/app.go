// Package app wires the store, the poller pipeline, the HTTP API and the
// Telegram bot together and supervises them until shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/MrSnakeDoc/jobscout/internal/config"
	"github.com/MrSnakeDoc/jobscout/internal/connect"
	"github.com/MrSnakeDoc/jobscout/internal/domain"
	"github.com/MrSnakeDoc/jobscout/internal/httpserver"
	"github.com/MrSnakeDoc/jobscout/internal/httpserver/deps"
	"github.com/MrSnakeDoc/jobscout/internal/index"
	"github.com/MrSnakeDoc/jobscout/internal/logger"
	"github.com/MrSnakeDoc/jobscout/internal/notify"
	"github.com/MrSnakeDoc/jobscout/internal/poller"
	"github.com/MrSnakeDoc/jobscout/internal/provider"
	"github.com/MrSnakeDoc/jobscout/internal/scheduler"
	"github.com/MrSnakeDoc/jobscout/internal/sink"
	"github.com/MrSnakeDoc/jobscout/internal/sources/seed"
	"github.com/MrSnakeDoc/jobscout/internal/store"
	redisstore "github.com/MrSnakeDoc/jobscout/internal/store/redis"
	"github.com/MrSnakeDoc/jobscout/internal/version"
)

// seenSweepInterval is how often the in-process seen cache drops expired entries.
const seenSweepInterval = 10 * time.Minute

// Options selects which components run.
type Options struct {
	API       bool
	Scheduler bool
	Bot       bool
}

// App owns every long-lived component.
type App struct {
	cfg    *config.Config
	opts   Options
	logger logger.Logger

	store       store.Store
	redisClient *goredis.Client
	memSeen     *index.MemorySeen

	filter    *domain.KeywordFilter
	providers []string
	scheduler *scheduler.Scheduler
	server    *httpserver.Server
	notifier  *notify.Notifier
	bot       *notify.Bot
}

// New connects the backing services and builds the components named in opts.
func New(ctx context.Context, cfg *config.Config, log logger.Logger, opts Options) (*App, error) {
	if opts.API && cfg.SharedSecret == "" {
		return nil, errors.New("JOBSCOUT_SHARED_SECRET is required to serve the API")
	}

	st, err := OpenStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	a := &App{cfg: cfg, opts: opts, logger: log, store: st}

	if cfg.SourcesFile != "" {
		f, err := seed.NewLoader(cfg.SourcesFile).Load()
		if err != nil {
			a.Close()
			return nil, err
		}
		if _, err := seed.Import(ctx, st, f, log); err != nil {
			a.Close()
			return nil, err
		}
	}

	var lease scheduler.Lease = &index.MemoryLease{}
	var seen sink.SeenSet
	if cfg.RedisEnabled() {
		client, err := connect.Redis(ctx, connect.RedisOptions{
			Addr:         cfg.RedisAddr,
			User:         cfg.RedisUser,
			Password:     cfg.RedisPassword,
			DB:           cfg.RedisDB,
			DialTimeout:  cfg.RedisDT,
			ReadTimeout:  cfg.RedisRT,
			WriteTimeout: cfg.RedisWT,
			PoolSize:     cfg.RedisPoolSize,
			Retry: connect.RetryOptions{
				ConnectTimeout: cfg.RedisConnectTimeout,
				RetryInterval:  cfg.RedisRetryInterval,
				MaxWait:        cfg.RedisMaxWait,
				PingTimeout:    cfg.RedisPingTimeout,
				WarnThreshold:  cfg.RedisWarnThreshold,
			},
		}, log)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("redis: %w", err)
		}
		a.redisClient = client
		lease = redisstore.NewLease(client, redisstore.LeaseCycle)
		seen = redisstore.NewSeenSet(client, cfg.SeenTTL)
	} else {
		a.memSeen = index.NewMemorySeen(cfg.SeenTTL)
		seen = a.memSeen
	}

	if opts.Bot && cfg.BotEnabled() {
		api, err := notify.NewAPI(cfg.BotToken, "")
		if err != nil {
			a.Close()
			return nil, err
		}
		a.bot = notify.NewBot(api, cfg.WebAppURL, log)
		if cfg.ManagerChatID != 0 {
			a.notifier = notify.NewNotifier(api, cfg.ManagerChatID, cfg.NotifyInterval, log)
		} else {
			log.Warn("JOBSCOUT_MANAGER_CHAT_ID not set, job notifications disabled")
		}
	}

	var notifier sink.Notifier
	if a.notifier != nil {
		notifier = a.notifier
	}
	storeSink := sink.NewStoreSink(st, notifier, log)

	var trigger chan struct{}
	if opts.Scheduler {
		registry, err := newProviders(cfg)
		if err != nil {
			a.Close()
			return nil, err
		}

		var out sink.Sink = storeSink
		if cfg.SinkURL != "" {
			out = sink.NewHTTPSink(cfg.SinkURL, cfg.SharedSecret, nil)
		}

		a.providers = registry.Kinds()
		a.filter = domain.NewKeywordFilter(cfg.Keywords, cfg.MaxItemAge)
		trigger = make(chan struct{}, 1)
		a.scheduler = scheduler.New(
			st,
			poller.New(registry, poller.Options{MaxItems: cfg.MaxItems, Timeout: cfg.PollTimeout}, log),
			a.filter,
			sink.NewDeduped(out, seen, log),
			lease,
			log,
			scheduler.Options{
				Interval:    cfg.PollInterval,
				SourcePause: cfg.SourcePause,
				RunOnStart:  true,
			},
			trigger,
		)
	}

	if opts.API {
		d := deps.Deps{
			Logger:       log,
			StartTime:    time.Now(),
			Version:      version.Version,
			Commit:       version.Commit,
			BuildDate:    version.BuildDate,
			GoVersion:    version.GoVersion,
			TimeNow:      time.Now,
			AllowedCIDRS: cfg.AllowedCIDRS,
			TrustProxy:   cfg.TrustProxy,
			SharedSecret: cfg.SharedSecret,
			RateLimit:    cfg.RateLimit,
			RateBurst:    cfg.RateBurst,
			Store:        st,
			Sink:         storeSink,
			RedisClient:  a.redisClient,
			PollTrigger:  trigger,
			StaticDir:    cfg.StaticDir,
		}
		if a.scheduler != nil {
			d.LastCycle = a.scheduler.LastReport
		}
		if a.notifier != nil {
			d.NotificationsDropped = a.notifier.Dropped
		}
		a.server = httpserver.New(cfg, log, d)
	}

	return a, nil
}

// OpenStore connects the database named by the configuration.
func OpenStore(ctx context.Context, cfg *config.Config, log logger.Logger) (store.Store, error) {
	st, err := connect.Database(ctx, connect.DatabaseOptions{
		URL:            cfg.DatabaseURL,
		MaxConns:       cfg.DBMaxConns,
		SimpleProtocol: cfg.DBSimpleProtocol,
		Retry: connect.RetryOptions{
			ConnectTimeout: cfg.DBConnectTimeout,
			RetryInterval:  cfg.DBRetryInterval,
			MaxWait:        cfg.DBMaxWait,
			PingTimeout:    cfg.DBPingTimeout,
			WarnThreshold:  cfg.DBWarnThreshold,
		},
	}, log)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	return st, nil
}

func newProviders(cfg *config.Config) (provider.Registry, error) {
	fb, err := provider.NewFacebook(provider.FacebookOptions{
		Command: cfg.FBCollector,
		Pages:   cfg.PageLimit,
		Cookies: cfg.FBCookies,
	})
	if err != nil {
		return nil, err
	}
	return provider.Registry{
		domain.ProviderFacebook: fb,
		domain.ProviderRSS:      provider.NewRSS(&http.Client{Timeout: cfg.PollTimeout}),
	}, nil
}

// Run starts every component and blocks until SIGINT/SIGTERM or a fatal error.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.logStartup()

	g, gctx := errgroup.WithContext(ctx)

	if a.scheduler != nil {
		a.scheduler.Start(gctx)
	}
	if a.server != nil {
		g.Go(func() error {
			if err := a.server.Start(); err != nil {
				return fmt.Errorf("http server error: %w", err)
			}
			return nil
		})
	}
	if a.notifier != nil {
		g.Go(func() error { return a.notifier.Run(gctx) })
	}
	if a.bot != nil {
		g.Go(func() error { return a.bot.Run(gctx) })
	}
	if a.memSeen != nil {
		g.Go(func() error {
			a.sweepSeen(gctx)
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("⏳ Shutting down gracefully...")
		return a.shutdown()
	})

	err := g.Wait()
	a.Close()
	if err != nil {
		return err
	}
	a.logger.Info("✅ jobscout stopped cleanly")
	return nil
}

// PollOnce runs a single cycle and returns its report.
func (a *App) PollOnce(ctx context.Context) (scheduler.CycleReport, error) {
	if a.scheduler == nil {
		return scheduler.CycleReport{}, errors.New("scheduler is not enabled")
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.logStartup()
	report := a.scheduler.RunCycle(ctx)
	if report.Error != "" {
		return report, errors.New(report.Error)
	}
	return report, nil
}

func (a *App) shutdown() error {
	if a.scheduler != nil {
		a.scheduler.Stop(a.cfg.ShutdownTimeout)
	}
	if a.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(ctx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}
	return nil
}

func (a *App) sweepSeen(ctx context.Context) {
	ticker := time.NewTicker(seenSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := a.memSeen.Sweep(); n > 0 {
				a.logger.Debug("seen cache swept", logger.Int("expired", n), logger.Int("remaining", a.memSeen.Count()))
			}
		}
	}
}

// Close releases Redis and the store. Safe to call more than once.
func (a *App) Close() {
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
		a.redisClient = nil
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warnf("failed to close store: %v", err)
		}
		a.store = nil
	}
}

func (a *App) logStartup() {
	a.logger.Infof("🚀 Starting %s", version.String())

	if a.server != nil {
		a.logger.Info("API enabled", logger.String("url", apiURL(a.cfg.ListenPort)))
	}
	if a.scheduler != nil {
		a.logger.Info("poller enabled",
			logger.Strings("providers", a.providers),
			logger.Strings("keywords", a.filter.Keywords()),
			logger.Bool("fb_cookies_set", a.cfg.FBCookies != ""),
			logger.Duration("interval", a.cfg.PollInterval),
			logger.String("sink", sinkName(a.cfg.SinkURL)))
		if a.filter.Empty() {
			a.logger.Warn("⚠️ keyword list is empty, every post will be rejected")
		}
	}
	if a.bot != nil {
		a.logger.Info("telegram bot enabled", logger.Bool("notifications", a.notifier != nil))
	}
	if a.redisClient == nil {
		a.logger.Info("redis not configured, using in-process lease and seen cache")
	}
}

func apiURL(listen string) string {
	if strings.HasPrefix(listen, ":") {
		return "http://localhost" + listen
	}
	return "http://" + listen
}

func sinkName(url string) string {
	if url == "" {
		return "store"
	}
	return url
}
