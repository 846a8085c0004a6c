package api

import (
	"context"
	"net/http"
	"time"

	"github.com/revittco/storeadmin/internal/cache"
	"github.com/revittco/storeadmin/internal/dashboard"
)

var startTime = time.Now()

type healthResponse struct {
	Status        string              `json:"status"`
	Version       string              `json:"version"`
	UptimeSeconds int                 `json:"uptime_seconds"`
	Resources     []dashboard.Summary `json:"resources"`
	SessionCache  *cache.Stats        `json:"session_cache,omitempty"`
	Database      string              `json:"database,omitempty"`
}

type healthHandler struct {
	version string
	dash    *dashboard.Dashboard
	stats   func() cache.Stats
	ping    func(ctx context.Context) error
}

func (h *healthHandler) check(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:        "ok",
		Version:       h.version,
		UptimeSeconds: int(time.Since(startTime).Seconds()),
		Resources:     h.dash.Summaries(),
	}
	if h.stats != nil {
		s := h.stats()
		resp.SessionCache = &s
	}
	status := http.StatusOK
	if h.ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.ping(ctx); err != nil {
			resp.Status = "degraded"
			resp.Database = err.Error()
			status = http.StatusServiceUnavailable
		} else {
			resp.Database = "ok"
		}
	}
	writeJSON(w, status, resp)
}
