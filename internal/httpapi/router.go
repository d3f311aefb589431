package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/zortex-io/zortex-core/internal/config"
	"github.com/zortex-io/zortex-core/internal/metrics"
	"github.com/zortex-io/zortex-core/internal/notify"
	"github.com/zortex-io/zortex-core/internal/xp"
)

// NewRouter builds the read-only inspection API: health, current XP
// aggregates, pending notifications, and the metrics snapshot. Middleware
// chain: security headers -> request id -> recoverer -> logger -> rate
// limit.
func NewRouter(cfg *config.Config, log zerolog.Logger, xpStore *xp.Store, calc *xp.Calculator, notifyMgr *notify.Manager, registry *metrics.Registry) http.Handler {
	r := chi.NewRouter()

	r.Use(securityHeaders)
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(requestLogger(log))
	r.Use(NewRateLimiter(log, cfg.Server.RateLimitRPM, cfg.Server.RateLimitBurst).Handler)

	r.Get("/healthz", handleHealthz)
	r.Get("/xp/season", handleSeason(xpStore, calc))
	r.Get("/xp/areas", handleAreas(xpStore, calc))
	r.Get("/xp/history", handleSeasonHistory(xpStore))
	r.Get("/notifications/pending", handlePending(notifyMgr))
	r.Get("/metrics.json", handleMetrics(registry))

	return r
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "zortex-core",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}
