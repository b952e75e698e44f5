package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/jobscout/internal/httpserver/deps"
	"github.com/MrSnakeDoc/jobscout/internal/scheduler"
)

type componentStatus struct {
	OK     bool   `json:"ok"`
	Mode   string `json:"mode,omitempty"`
	Impact string `json:"impact,omitempty"`
	Error  string `json:"error,omitempty"`

	Dropped *int64 `json:"dropped,omitempty"`
}

type statusPayload struct {
	Mode       string                     `json:"mode"`
	Components map[string]componentStatus `json:"components"`
	LastCycle  *scheduler.CycleReport     `json:"last_cycle,omitempty"`
}

// Status reports the health of every backing component and the last cycle.
func Status(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		components := map[string]componentStatus{
			"store":     checkStore(r.Context(), d),
			"redis":     checkRedis(r.Context(), d),
			"scheduler": checkScheduler(d),
			"notifier":  checkNotifier(d),
		}

		resp := statusPayload{
			Mode:       determineMode(components),
			Components: components,
		}
		if d.LastCycle != nil {
			if last := d.LastCycle(); !last.FinishedAt.IsZero() {
				resp.LastCycle = &last
			}
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func determineMode(components map[string]componentStatus) string {
	if st, ok := components["store"]; ok && !st.OK {
		return "critical" // nothing can be stored
	}
	if rd, ok := components["redis"]; ok && !rd.OK {
		return "degraded"
	}
	return "ok"
}

func checkStore(parent context.Context, d deps.Deps) componentStatus {
	ctx, cancel := context.WithTimeout(parent, 2*time.Second)
	defer cancel()

	if err := d.Store.Ping(ctx); err != nil {
		return componentStatus{OK: false, Impact: "ingestion-stopped", Error: err.Error()}
	}
	return componentStatus{OK: true}
}

func checkRedis(parent context.Context, d deps.Deps) componentStatus {
	if d.RedisClient == nil {
		return componentStatus{OK: true, Mode: "disabled", Impact: "local-lease-and-seen-cache"}
	}

	ctx, cancel := context.WithTimeout(parent, 2*time.Second)
	defer cancel()

	if err := d.RedisClient.Ping(ctx).Err(); err != nil {
		return componentStatus{
			OK:     false,
			Mode:   "degraded",
			Impact: "instances-may-poll-concurrently",
			Error:  "timeout",
		}
	}
	return componentStatus{OK: true, Mode: "shared"}
}

func checkScheduler(d deps.Deps) componentStatus {
	if d.PollTrigger == nil {
		return componentStatus{OK: true, Mode: "disabled"}
	}
	return componentStatus{OK: true, Mode: "running"}
}

func checkNotifier(d deps.Deps) componentStatus {
	if d.NotificationsDropped == nil {
		return componentStatus{OK: true, Mode: "disabled"}
	}
	dropped := d.NotificationsDropped()
	return componentStatus{OK: true, Mode: "enabled", Dropped: &dropped}
}
