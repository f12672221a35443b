// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"syscall"
	"time"

	"github.com/cohesion-education/api/internal/auth"
	"github.com/cohesion-education/api/internal/cache"
	"github.com/cohesion-education/api/internal/middleware"
	"github.com/cohesion-education/api/internal/model"
	"github.com/cohesion-education/api/internal/version"
)

// Health states.
const (
	healthOK       = "ok"
	healthDegraded = "degraded"
	healthDown     = "unhealthy"
)

// minDiskSpace is the free space below which the uploads disk is degraded.
const minDiskSpace = 100 << 20

// HealthHandler handles health check requests.
type HealthHandler struct {
	db         *sql.DB
	cache      cache.Cache
	uploadsDir string
	apiToken   string
	startTime  time.Time
}

// NewHealthHandler creates a new health handler. c may be nil.
func NewHealthHandler(db *sql.DB, c cache.Cache, uploadsDir, apiToken string) *HealthHandler {
	return &HealthHandler{
		db:         db,
		cache:      c,
		uploadsDir: uploadsDir,
		apiToken:   apiToken,
		startTime:  time.Now(),
	}
}

// HealthStatus is the detailed health response.
type HealthStatus struct {
	Status    string           `json:"status"`
	Timestamp time.Time        `json:"timestamp,omitzero"`
	Uptime    string           `json:"uptime,omitempty"`
	Version   *version.Info    `json:"version,omitempty"`
	Checks    map[string]Check `json:"checks,omitempty"`
	System    *SystemInfo      `json:"system,omitempty"`
}

// Check represents a single health check result.
type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// SystemInfo contains runtime figures shown with ?verbose=true.
type SystemInfo struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutines"`
	NumCPU       int    `json:"num_cpus"`
	MemAlloc     string `json:"mem_alloc"`
	MemSys       string `json:"mem_sys"`
}

// Health handles GET /health. Anonymous callers get {"status": ...} only;
// editors and API token holders also get the individual checks.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	checks := map[string]Check{
		"database": h.checkDatabase(r.Context()),
		"disk":     h.checkDiskSpace(),
	}
	if h.cache != nil {
		checks["cache"] = h.checkCache(r.Context())
	}

	overall := healthOK
	for _, c := range checks {
		switch c.Status {
		case healthDown:
			overall = healthDown
		case healthDegraded:
			if overall == healthOK {
				overall = healthDegraded
			}
		}
	}

	status := http.StatusOK
	if overall == healthDown {
		status = http.StatusServiceUnavailable
	}

	if !h.isPrivileged(r) {
		writeJSON(w, status, HealthStatus{Status: overall})
		return
	}

	v := version.Get()
	resp := HealthStatus{
		Status:    overall,
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Version:   &v,
		Checks:    checks,
	}
	if r.URL.Query().Get("verbose") == "true" {
		resp.System = systemInfo()
	}
	writeJSON(w, status, resp)
}

// Liveness handles GET /health/live.
func (h *HealthHandler) Liveness(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// Readiness handles GET /health/ready: ready once the database answers.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	db := h.checkDatabase(r.Context())
	if db.Status != healthOK {
		resp := map[string]string{"status": "not_ready"}
		if h.isPrivileged(r) {
			resp["message"] = db.Message
		}
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (h *HealthHandler) isPrivileged(r *http.Request) bool {
	if token, ok := middleware.BearerToken(r); ok {
		return auth.TokenEqual(token, h.apiToken)
	}
	user := middleware.GetUser(r)
	return user != nil && model.CanEdit(user.Role)
}

func (h *HealthHandler) checkDatabase(ctx context.Context) Check {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	err := h.db.PingContext(ctx)
	latency := time.Since(start).String()
	if err != nil {
		return Check{Status: healthDown, Message: err.Error(), Latency: latency}
	}
	return Check{Status: healthOK, Message: "Connected", Latency: latency}
}

func (h *HealthHandler) checkCache(ctx context.Context) Check {
	const checkKey = "health:check"
	start := time.Now()
	if err := h.cache.Set(ctx, checkKey, []byte("1"), time.Minute); err != nil {
		return Check{Status: healthDegraded, Message: err.Error(), Latency: time.Since(start).String()}
	}
	stats := h.cache.Stats()
	return Check{
		Status:  healthOK,
		Message: fmt.Sprintf("%s: %d items, %.0f%% hit rate", stats.Backend, stats.Items, stats.HitRate),
		Latency: time.Since(start).String(),
	}
}

func (h *HealthHandler) checkDiskSpace() Check {
	if _, err := os.Stat(h.uploadsDir); os.IsNotExist(err) {
		return Check{Status: healthOK, Message: "Uploads directory does not exist yet"}
	}

	var stat syscall.Statfs_t
	if err := syscall.Statfs(h.uploadsDir, &stat); err != nil {
		return Check{Status: healthDown, Message: "Failed to check disk space: " + err.Error()}
	}

	available := stat.Bavail * uint64(stat.Bsize) //nolint:gosec // block size is positive
	if available < minDiskSpace {
		return Check{Status: healthDegraded, Message: "Low disk space: " + formatBytes(available) + " available"}
	}
	return Check{Status: healthOK, Message: formatBytes(available) + " available"}
}

func systemInfo() *SystemInfo {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return &SystemInfo{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
		MemAlloc:     formatBytes(m.Alloc),
		MemSys:       formatBytes(m.Sys),
	}
}

func formatBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}
