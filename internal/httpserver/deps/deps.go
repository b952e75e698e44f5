package deps

import (
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/jobscout/internal/logger"
	"github.com/MrSnakeDoc/jobscout/internal/scheduler"
	"github.com/MrSnakeDoc/jobscout/internal/sink"
	"github.com/MrSnakeDoc/jobscout/internal/store"
)

type Deps struct {
	Logger       logger.Logger
	StartTime    time.Time
	Version      string
	Commit       string
	BuildDate    string
	GoVersion    string
	TimeNow      func() time.Time // for testing, defaults to time.Now
	AllowedCIDRS []string         // IPs allowed to reach the admin API and readyz
	TrustProxy   bool             // true if running behind a trusted reverse proxy (e.g., cloudflared)
	SharedSecret string           // expected X-Shared-Secret on POST /post
	RateLimit    float64          // admin requests per second per client IP
	RateBurst    int

	Store       store.Store   // sources and jobs
	Sink        sink.Sink     // receives items posted to /post
	RedisClient *redis.Client // nil when Redis is not configured

	PollTrigger chan struct{}                // manual cycle trigger (nil if the scheduler is off)
	LastCycle   func() scheduler.CycleReport // nil if the scheduler is off

	NotificationsDropped func() int64 // nil if manager notifications are off

	StaticDir string // front end served at "/" (empty or missing = not served)
}

// Now returns d.TimeNow() or time.Now().
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
