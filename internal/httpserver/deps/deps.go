package deps

import (
	"time"

	"github.com/MrSnakeDoc/itour/internal/logger"
	"github.com/MrSnakeDoc/itour/internal/metrics"
	"github.com/MrSnakeDoc/itour/internal/planner"
)

type Deps struct {
	Logger          logger.Logger
	StartTime       time.Time
	Version         string
	Commit          string
	BuildDate       string
	GoVersion       string
	TimeNow         func() time.Time // for testing, defaults to time.Now
	AllowedHosts    []string         // Host headers allowed to access the API
	AllowedCIDRS    []string         // IPs allowed on /api/persist, /metrics and /infra
	TrustProxy      bool             // true if running behind a trusted reverse proxy (e.g., cloudflared)
	RateLimitPerMin int              // per client IP on /api, 0 disables
	RequestTimeout  time.Duration    // per-request timeout outside event streams (default 5s)
	SSEHeartbeat    time.Duration    // comment line interval on event streams (default 15s)
	Closing         <-chan struct{}  // closed when the server stops; ends event streams
	Planner         *planner.Planner // mutation façade over the entity store
	Metrics         *metrics.Metrics // nil disables /metrics
}
