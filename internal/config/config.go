package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultKeywords is the keyword list used when JOBSCOUT_KEYWORDS is unset.
const DefaultKeywords = "вакансия,работа,job,hiring,remote,developer,программист,amazon"

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // grace for the HTTP server and an in-flight poll

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Database: "postgres://..." / "postgresql://..." or "sqlite:<path>"
	DatabaseURL      string
	DBMaxConns       int           // postgres pool size
	DBSimpleProtocol bool          // disable prepared statements (pgbouncer)
	DBConnectTimeout time.Duration // total time to retry connecting (ex: 30s)
	DBRetryInterval  time.Duration // initial wait between retries, grows exponentially
	DBMaxWait        time.Duration // max wait between retries
	DBPingTimeout    time.Duration // timeout for each ping attempt
	DBWarnThreshold  int           // warn after this many attempts

	// Polling
	PollInterval time.Duration // time between cycles (ex: 5m)
	SourcePause  time.Duration // pause between two sources of the same cycle
	PollTimeout  time.Duration // upper bound for a single source poll
	PageLimit    int           // pages requested from the collector
	MaxItems     int           // candidates kept per poll
	MaxItemAge   time.Duration // 0 disables the age filter
	Keywords     []string      // lowercase match list, empty = reject everything

	FBCollector string // collector command line
	FBCookies   string // handed to the collector through its environment

	// Sink
	SinkURL      string // remote /post endpoint, empty = write to the store directly
	SharedSecret string // X-Shared-Secret expected on /post

	// Redis (optional, empty address = disabled)
	RedisAddr           string
	RedisUser           string
	RedisPassword       string
	RedisDB             int
	RedisDT             time.Duration // dial timeout
	RedisRT             time.Duration // read timeout
	RedisWT             time.Duration // write timeout
	RedisMaxWait        time.Duration
	RedisPingTimeout    time.Duration
	RedisPoolSize       int
	RedisConnectTimeout time.Duration
	RedisRetryInterval  time.Duration
	RedisWarnThreshold  int
	SeenTTL             time.Duration // how long a fingerprint is remembered before re-submitting

	// Telegram (empty token = bot disabled)
	BotToken       string
	ManagerChatID  int64
	WebAppURL      string
	NotifyInterval time.Duration // minimum gap between two notifications

	StaticDir    string   // front end served at "/"
	AllowedCIDRS []string // optional, restrict the admin API to these networks
	TrustProxy   bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)
	RateLimit    float64  // admin requests per second per client
	RateBurst    int
	CORSOrigins  []string // origins allowed to call the API from a browser

	SourcesFile string // optional YAML file imported at startup
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      listenAddr(),
		ShutdownTimeout: mustDuration("JOBSCOUT_SHUTDOWN_TIMEOUT", 10*time.Second),

		// Logging
		LogLevel:  getenv("JOBSCOUT_LOG_LEVEL", "info"),
		PrettyLog: mustBool("JOBSCOUT_PRETTY_LOG", true),

		// Database
		DatabaseURL:      requireFirst("JOBSCOUT_DATABASE_URL", "DATABASE_URL", "DATABASE_PUBLIC_URL"),
		DBMaxConns:       getenvInt("JOBSCOUT_DB_MAX_CONNS", 5),
		DBSimpleProtocol: mustBool("JOBSCOUT_DB_SIMPLE_PROTOCOL", false),
		DBConnectTimeout: mustDuration("JOBSCOUT_DB_CONNECT_TIMEOUT", 30*time.Second),
		DBRetryInterval:  mustDuration("JOBSCOUT_DB_RETRY_INTERVAL", 2*time.Second),
		DBMaxWait:        mustDuration("JOBSCOUT_DB_MAX_WAIT", 10*time.Second),
		DBPingTimeout:    mustDuration("JOBSCOUT_DB_PING_TIMEOUT", 5*time.Second),
		DBWarnThreshold:  getenvInt("JOBSCOUT_DB_WARN_THRESHOLD", 3),

		// Polling
		PollInterval: durationOrMinutes("JOBSCOUT_POLL_INTERVAL", "CHECK_INTERVAL_MINUTES", 5*time.Minute),
		SourcePause:  mustDuration("JOBSCOUT_SOURCE_PAUSE", 2*time.Second),
		PollTimeout:  mustDuration("JOBSCOUT_POLL_TIMEOUT", 2*time.Minute),
		PageLimit:    getenvIntFirst(5, "JOBSCOUT_PAGE_LIMIT", "FB_PAGE_LIMIT"),
		MaxItems:     getenvInt("JOBSCOUT_MAX_ITEMS", 50),
		MaxItemAge:   mustDuration("JOBSCOUT_MAX_ITEM_AGE", 0),
		Keywords:     keywords(DefaultKeywords, "JOBSCOUT_KEYWORDS", "JOB_KEYWORDS"),

		FBCollector: getenv("JOBSCOUT_FB_COLLECTOR", "python3 fb_collector.py"),
		FBCookies:   getenvFirst("", "JOBSCOUT_FB_COOKIES", "FB_COOKIES"),

		// Sink
		SinkURL:      getenvFirst("", "JOBSCOUT_SINK_URL", "BOT_API", "PARSER_API_URL"),
		SharedSecret: getenvFirst("", "JOBSCOUT_SHARED_SECRET", "SHARED_SECRET"),

		// Redis settings
		RedisAddr:           getenv("JOBSCOUT_REDIS_ADDR", ""),
		RedisUser:           getenv("JOBSCOUT_REDIS_USERNAME", ""),
		RedisPassword:       getenv("JOBSCOUT_REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("JOBSCOUT_REDIS_DB", 0),
		RedisDT:             mustDuration("JOBSCOUT_REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             mustDuration("JOBSCOUT_REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             mustDuration("JOBSCOUT_REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:        mustDuration("JOBSCOUT_REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("JOBSCOUT_REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:       getenvInt("JOBSCOUT_REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: mustDuration("JOBSCOUT_REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("JOBSCOUT_REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:  getenvInt("JOBSCOUT_REDIS_WARN_THRESHOLD", 3),
		SeenTTL:             mustDuration("JOBSCOUT_SEEN_TTL", 24*time.Hour),

		// Telegram
		BotToken:       getenvFirst("", "JOBSCOUT_BOT_TOKEN", "BOT_TOKEN"),
		ManagerChatID:  getenvInt64First(0, "JOBSCOUT_MANAGER_CHAT_ID", "MANAGER_CHAT_ID"),
		WebAppURL:      getenvFirst("", "JOBSCOUT_WEB_APP_URL", "WEB_APP_URL"),
		NotifyInterval: mustDuration("JOBSCOUT_NOTIFY_INTERVAL", time.Second),

		// Access restrictions
		StaticDir:    getenv("JOBSCOUT_STATIC_DIR", "static"),
		AllowedCIDRS: parseAllowedIPs(getenv("JOBSCOUT_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("JOBSCOUT_TRUST_PROXY", true),
		RateLimit:    mustFloat("JOBSCOUT_RATE_LIMIT", 5),
		RateBurst:    getenvInt("JOBSCOUT_RATE_BURST", 10),
		CORSOrigins:  splitAndTrim(getenv("JOBSCOUT_CORS_ORIGINS", "*")),

		SourcesFile: getenv("JOBSCOUT_SOURCES_FILE", ""),
	}

	if cfg.SinkURL != "" && cfg.SharedSecret == "" {
		panic("❌ FATAL: JOBSCOUT_SHARED_SECRET is required when JOBSCOUT_SINK_URL is set")
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		log.Printf("[DEBUG] cfg: %+v\n", cfg.Redacted())
	}

	return cfg
}

// Redacted returns a copy safe to print.
func (c Config) Redacted() Config {
	const mask = "***REDACTED***"
	if c.DatabaseURL != "" {
		c.DatabaseURL = mask
	}
	if c.RedisPassword != "" {
		c.RedisPassword = mask
	}
	if c.RedisUser != "" {
		c.RedisUser = mask
	}
	if c.SharedSecret != "" {
		c.SharedSecret = mask
	}
	if c.FBCookies != "" {
		c.FBCookies = mask
	}
	if c.BotToken != "" {
		c.BotToken = mask
	}
	return c
}

// RedisEnabled reports whether a Redis address was configured.
func (c *Config) RedisEnabled() bool { return c.RedisAddr != "" }

// BotEnabled reports whether the Telegram bot should run.
func (c *Config) BotEnabled() bool { return c.BotToken != "" }

// listenAddr honours the platform PORT variable when JOBSCOUT_LISTEN_PORT is unset.
func listenAddr() string {
	if v := os.Getenv("JOBSCOUT_LISTEN_PORT"); v != "" {
		return v
	}
	if p := os.Getenv("PORT"); p != "" {
		return ":" + strings.TrimPrefix(p, ":")
	}
	return ":8080"
}

// keywords splits the first set variable among keys as a comma separated
// list. None set falls back to def, while a variable set to an empty string
// yields an empty list.
func keywords(def string, keys ...string) []string {
	v := def
	for _, key := range keys {
		if found, ok := os.LookupEnv(key); ok {
			v = found
			break
		}
	}
	out := splitAndTrim(v)
	for i, kw := range out {
		out[i] = strings.ToLower(kw)
	}
	if out == nil {
		return []string{}
	}
	return out
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getenvFirst returns the first non-empty variable among keys.
func getenvFirst(def string, keys ...string) string {
	for _, key := range keys {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func requireFirst(keys ...string) string {
	if v := getenvFirst("", keys...); v != "" {
		return v
	}
	panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", strings.Join(keys, " / ")))
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getenvIntFirst(def int, keys ...string) int {
	for _, key := range keys {
		if os.Getenv(key) != "" {
			return getenvInt(key, def)
		}
	}
	return def
}

func getenvInt64First(def int64, keys ...string) int64 {
	if v := getenvFirst("", keys...); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// durationOrMinutes reads key as a Go duration, then minutesKey as a whole
// number of minutes.
func durationOrMinutes(key, minutesKey string, def time.Duration) time.Duration {
	if os.Getenv(key) != "" {
		return mustDuration(key, def)
	}
	if m := getenvInt(minutesKey, 0); m > 0 {
		return time.Duration(m) * time.Minute
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
