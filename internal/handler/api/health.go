// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/olegiv/vitrine/internal/cache"
)

// HealthStatus represents the overall health status.
type HealthStatus struct {
	Status  string           `json:"status"`
	Version string           `json:"version,omitempty"`
	Uptime  string           `json:"uptime"`
	Checks  map[string]Check `json:"checks"`
}

// Check represents a single health check result.
type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// Health handles GET /health. It answers 503 when the database is unreachable.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	db := h.checkDatabase(r.Context())

	status := HealthStatus{
		Status:  "healthy",
		Version: h.Version,
		Uptime:  time.Since(startTime).Round(time.Second).String(),
		Checks:  map[string]Check{"database": db},
	}
	if h.Cache != nil {
		c := h.checkCache(r.Context())
		status.Checks["cache"] = c
		if c.Status != "healthy" {
			status.Status = "degraded"
		}
	}

	code := http.StatusOK
	if db.Status != "healthy" {
		status.Status = "unhealthy"
		code = http.StatusServiceUnavailable
	}
	WriteJSON(w, code, status)
}

var startTime = time.Now()

func (h *Handler) checkDatabase(ctx context.Context) Check {
	if h.DB == nil {
		return Check{Status: "unhealthy", Message: "no database configured"}
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	err := h.DB.PingContext(ctx)
	latency := time.Since(start)

	if err != nil {
		h.Logger.Warn("health check database ping failed", "error", err)
		return Check{Status: "unhealthy", Message: "database unreachable", Latency: latency.String()}
	}
	return Check{Status: "healthy", Latency: latency.String()}
}

// checkCache pings backends that support it and reports hit statistics.
// A failing cache degrades the service but does not make it unhealthy.
func (h *Handler) checkCache(ctx context.Context) Check {
	check := Check{Status: "healthy"}

	if p, ok := h.Cache.(cache.Pinger); ok {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()

		start := time.Now()
		err := p.Ping(ctx)
		check.Latency = time.Since(start).String()
		if err != nil {
			h.Logger.Warn("health check cache ping failed", "error", err)
			check.Status = "unhealthy"
			check.Message = "cache unreachable"
			return check
		}
	}

	if sp, ok := h.Cache.(cache.StatsProvider); ok {
		st := sp.Stats()
		check.Message = fmt.Sprintf("hit rate %.1f%%", st.HitRate)
		if st.Items >= 0 {
			check.Message = fmt.Sprintf("%d items, %s", st.Items, check.Message)
		}
	}
	return check
}
