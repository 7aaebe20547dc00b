package health

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"runtime/debug"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"lv-tradedesk/internal/httputil"
)

type Handler struct {
	pool      *pgxpool.Pool
	startedAt time.Time
	httpAddr  string
	appMode   string
}

func NewHandler(pool *pgxpool.Pool, startedAt time.Time, httpAddr, appMode string) *Handler {
	start := startedAt.UTC()
	if start.IsZero() {
		start = time.Now().UTC()
	}
	return &Handler{
		pool:      pool,
		startedAt: start,
		httpAddr:  strings.TrimSpace(httpAddr),
		appMode:   strings.TrimSpace(appMode),
	}
}

type liveResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	UptimeSec int64  `json:"uptime_sec"`
	Uptime    string `json:"uptime"`
}

type readinessResponse struct {
	Status    string          `json:"status"`
	Timestamp string          `json:"timestamp"`
	UptimeSec int64           `json:"uptime_sec"`
	Uptime    string          `json:"uptime"`
	Database  readinessDBStat `json:"database"`
}

type readinessDBStat struct {
	Reachable  bool   `json:"reachable"`
	PingMs     int64  `json:"ping_ms"`
	Error      string `json:"error,omitempty"`
	CheckedAt  string `json:"checked_at"`
	TimeoutSec int    `json:"timeout_sec"`
}

type fullResponse struct {
	Status    string        `json:"status"`
	Timestamp string        `json:"timestamp"`
	UptimeSec int64         `json:"uptime_sec"`
	Uptime    string        `json:"uptime"`
	App       appStats      `json:"app"`
	Process   processStats  `json:"process"`
	Runtime   runtimeStats  `json:"runtime"`
	Memory    memoryStats   `json:"memory"`
	Database  databaseStats `json:"database"`
	Build     buildStats    `json:"build"`
}

type appStats struct {
	HTTPAddr string `json:"http_addr"`
	AppMode  string `json:"app_mode"`
}

type processStats struct {
	PID      int    `json:"pid"`
	Hostname string `json:"hostname"`
	GoOS     string `json:"go_os"`
	GoArch   string `json:"go_arch"`
}

type runtimeStats struct {
	GoVersion  string `json:"go_version"`
	Goroutines int    `json:"goroutines"`
	GoMaxProcs int    `json:"gomaxprocs"`
	CPUCount   int    `json:"cpu_count"`
	NumGC      uint32 `json:"num_gc"`
}

type memoryStats struct {
	AllocBytes     uint64 `json:"alloc_bytes"`
	HeapAllocBytes uint64 `json:"heap_alloc_bytes"`
	HeapInuseBytes uint64 `json:"heap_inuse_bytes"`
	SysBytes       uint64 `json:"sys_bytes"`
	HeapObjects    uint64 `json:"heap_objects"`
}

type databaseStats struct {
	Reachable  bool      `json:"reachable"`
	PingMs     int64     `json:"ping_ms"`
	Error      string    `json:"error,omitempty"`
	CheckedAt  string    `json:"checked_at"`
	Pool       poolStats `json:"pool"`
	TimeoutSec int       `json:"timeout_sec"`
}

type poolStats struct {
	TotalConns    int32 `json:"total_conns"`
	IdleConns     int32 `json:"idle_conns"`
	AcquiredConns int32 `json:"acquired_conns"`
	MaxConns      int32 `json:"max_conns"`
	AcquireCount  int64 `json:"acquire_count"`
}

type buildStats struct {
	MainPath string `json:"main_path"`
	Version  string `json:"version"`
}

func (h *Handler) uptime(now time.Time) time.Duration {
	uptime := now.Sub(h.startedAt)
	if uptime < 0 {
		return 0
	}
	return uptime
}

func (h *Handler) collectDB(ctx context.Context, includePool bool) databaseStats {
	const dbTimeoutSec = 1
	out := databaseStats{
		CheckedAt:  time.Now().UTC().Format(time.RFC3339),
		TimeoutSec: dbTimeoutSec,
	}
	if h.pool == nil {
		out.Error = "pool is not configured"
		return out
	}
	if includePool {
		stat := h.pool.Stat()
		out.Pool = poolStats{
			TotalConns:    stat.TotalConns(),
			IdleConns:     stat.IdleConns(),
			AcquiredConns: stat.AcquiredConns(),
			MaxConns:      stat.MaxConns(),
			AcquireCount:  stat.AcquireCount(),
		}
	}
	pingStart := time.Now()
	pingCtx, cancel := context.WithTimeout(ctx, dbTimeoutSec*time.Second)
	pingErr := h.pool.Ping(pingCtx)
	cancel()
	out.PingMs = time.Since(pingStart).Milliseconds()
	out.CheckedAt = time.Now().UTC().Format(time.RFC3339)
	if pingErr != nil {
		out.Error = pingErr.Error()
	} else {
		out.Reachable = true
	}
	return out
}

// Live does not touch the database.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	uptime := h.uptime(now)
	httputil.WriteJSON(w, http.StatusOK, liveResponse{
		Status:    "ok",
		Timestamp: now.Format(time.RFC3339),
		UptimeSec: int64(uptime.Seconds()),
		Uptime:    uptime.String(),
	})
}

// Ready checks the database and returns 503 when it is not reachable.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	uptime := h.uptime(now)
	db := h.collectDB(r.Context(), false)
	status := "ok"
	httpStatus := http.StatusOK
	if !db.Reachable {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}
	httputil.WriteJSON(w, httpStatus, readinessResponse{
		Status:    status,
		Timestamp: now.Format(time.RFC3339),
		UptimeSec: int64(uptime.Seconds()),
		Uptime:    uptime.String(),
		Database: readinessDBStat{
			Reachable:  db.Reachable,
			PingMs:     db.PingMs,
			Error:      db.Error,
			CheckedAt:  db.CheckedAt,
			TimeoutSec: db.TimeoutSec,
		},
	})
}

// Full returns process and pool diagnostics. The router mounts it behind
// admin auth.
func (h *Handler) Full(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	uptime := h.uptime(now)

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	db := h.collectDB(r.Context(), true)

	build := buildStats{}
	if info, ok := debug.ReadBuildInfo(); ok && info != nil {
		build.MainPath = strings.TrimSpace(info.Main.Path)
		build.Version = strings.TrimSpace(info.Main.Version)
	}

	host := ""
	if hn, err := os.Hostname(); err == nil {
		host = hn
	}

	status := "ok"
	httpStatus := http.StatusOK
	if !db.Reachable {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	httputil.WriteJSON(w, httpStatus, fullResponse{
		Status:    status,
		Timestamp: now.Format(time.RFC3339),
		UptimeSec: int64(uptime.Seconds()),
		Uptime:    uptime.String(),
		App: appStats{
			HTTPAddr: h.httpAddr,
			AppMode:  h.appMode,
		},
		Process: processStats{
			PID:      os.Getpid(),
			Hostname: host,
			GoOS:     runtime.GOOS,
			GoArch:   runtime.GOARCH,
		},
		Runtime: runtimeStats{
			GoVersion:  runtime.Version(),
			Goroutines: runtime.NumGoroutine(),
			GoMaxProcs: runtime.GOMAXPROCS(0),
			CPUCount:   runtime.NumCPU(),
			NumGC:      mem.NumGC,
		},
		Memory: memoryStats{
			AllocBytes:     mem.Alloc,
			HeapAllocBytes: mem.HeapAlloc,
			HeapInuseBytes: mem.HeapInuse,
			SysBytes:       mem.Sys,
			HeapObjects:    mem.HeapObjects,
		},
		Database: db,
		Build:    build,
	})
}

// Metrics exposes basic Prometheus-compatible gauges. The router mounts it
// behind admin auth.
func (h *Handler) Metrics(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	uptime := h.uptime(now)
	db := h.collectDB(r.Context(), true)
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	dbUp := 0
	if db.Reachable {
		dbUp = 1
	}

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "# HELP tradedesk_up Service process is running.\n")
	_, _ = fmt.Fprintf(w, "# TYPE tradedesk_up gauge\n")
	_, _ = fmt.Fprintf(w, "tradedesk_up 1\n")

	_, _ = fmt.Fprintf(w, "# HELP tradedesk_uptime_seconds Service uptime in seconds.\n")
	_, _ = fmt.Fprintf(w, "# TYPE tradedesk_uptime_seconds gauge\n")
	_, _ = fmt.Fprintf(w, "tradedesk_uptime_seconds %d\n", int64(uptime.Seconds()))

	_, _ = fmt.Fprintf(w, "# HELP tradedesk_db_up Database ping status (1=ok,0=down).\n")
	_, _ = fmt.Fprintf(w, "# TYPE tradedesk_db_up gauge\n")
	_, _ = fmt.Fprintf(w, "tradedesk_db_up %d\n", dbUp)
	_, _ = fmt.Fprintf(w, "tradedesk_db_ping_milliseconds %d\n", db.PingMs)

	_, _ = fmt.Fprintf(w, "# HELP tradedesk_go_goroutines Number of goroutines.\n")
	_, _ = fmt.Fprintf(w, "# TYPE tradedesk_go_goroutines gauge\n")
	_, _ = fmt.Fprintf(w, "tradedesk_go_goroutines %d\n", runtime.NumGoroutine())
	_, _ = fmt.Fprintf(w, "tradedesk_go_mem_alloc_bytes %d\n", mem.Alloc)
	_, _ = fmt.Fprintf(w, "tradedesk_go_mem_heap_inuse_bytes %d\n", mem.HeapInuse)
	_, _ = fmt.Fprintf(w, "tradedesk_go_gc_count %d\n", mem.NumGC)

	_, _ = fmt.Fprintf(w, "tradedesk_db_pool_total_conns %d\n", db.Pool.TotalConns)
	_, _ = fmt.Fprintf(w, "tradedesk_db_pool_idle_conns %d\n", db.Pool.IdleConns)
	_, _ = fmt.Fprintf(w, "tradedesk_db_pool_acquired_conns %d\n", db.Pool.AcquiredConns)
	_, _ = fmt.Fprintf(w, "tradedesk_db_pool_max_conns %d\n", db.Pool.MaxConns)
	_, _ = fmt.Fprintf(w, "tradedesk_db_pool_acquire_count %d\n", db.Pool.AcquireCount)
}
