package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/zortex-io/zortex-core/internal/metrics"
	"github.com/zortex-io/zortex-core/internal/notify"
	"github.com/zortex-io/zortex-core/internal/xp"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type seasonView struct {
	Season   *xp.SeasonInfo `json:"season"`
	XP       int            `json:"xp"`
	Level    int            `json:"level"`
	Progress float64        `json:"progress"`
	Tier     string         `json:"tier,omitempty"`
	NextTier string         `json:"next_tier,omitempty"`
}

func handleSeason(store *xp.Store, calc *xp.Calculator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		xpTotal := store.SeasonXP()
		level := calc.SeasonLevel(xpTotal)
		tier := calc.SeasonTier(level.Level)

		view := seasonView{
			Season:   store.CurrentSeason(),
			XP:       xpTotal,
			Level:    level.Level,
			Progress: level.Progress,
		}
		if tier.Current != nil {
			view.Tier = tier.Current.Name
		}
		if tier.Next != nil {
			view.NextTier = tier.Next.Name
		}
		writeJSON(w, http.StatusOK, view)
	}
}

type areaView struct {
	Path     string  `json:"path"`
	XP       int     `json:"xp"`
	Level    int     `json:"level"`
	Progress float64 `json:"progress"`
}

func handleAreas(store *xp.Store, calc *xp.Calculator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		all := store.AllAreaXP()
		views := make([]areaView, 0, len(all))
		for path, total := range all {
			level := calc.AreaLevel(total)
			views = append(views, areaView{Path: path, XP: total, Level: level.Level, Progress: level.Progress})
		}
		writeJSON(w, http.StatusOK, views)
	}
}

func handleSeasonHistory(store *xp.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, store.SeasonHistory())
	}
}

func handlePending(mgr *notify.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, mgr.Pending())
	}
}

func handleMetrics(registry *metrics.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, registry.Snapshot())
	}
}
