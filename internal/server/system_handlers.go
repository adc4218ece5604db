package server

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/callwriter/internal/database"
	"github.com/aristath/callwriter/internal/scheduler"
)

// SystemHandlers contains HTTP handlers for system endpoints
type SystemHandlers struct {
	log       zerolog.Logger
	cacheDB   *database.DB
	scheduler *scheduler.Scheduler
	startedAt time.Time
}

// NewSystemHandlers creates a new system handlers instance. Both
// dependencies may be nil; the status then omits their sections.
func NewSystemHandlers(log zerolog.Logger, cacheDB *database.DB, sched *scheduler.Scheduler) *SystemHandlers {
	return &SystemHandlers{
		log:       log.With().Str("handler", "system").Logger(),
		cacheDB:   cacheDB,
		scheduler: sched,
		startedAt: time.Now(),
	}
}

// CacheStatus describes the cache database
type CacheStatus struct {
	Name    string          `json:"name"`
	Healthy bool            `json:"healthy"`
	Stats   *database.Stats `json:"stats,omitempty"`
}

// SystemStatusResponse represents system status
type SystemStatusResponse struct {
	Status        string       `json:"status"`
	CPUPercent    float64      `json:"cpu_percent"`
	MemoryPercent float64      `json:"memory_percent"`
	Goroutines    int          `json:"goroutines"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	ScheduledJobs int          `json:"scheduled_jobs"`
	Cache         *CacheStatus `json:"cache,omitempty"`
	LastChecked   string       `json:"last_checked"`
}

// HandleSystemStatus handles GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuPercent, memPercent := h.getSystemStats()

	response := SystemStatusResponse{
		Status:        "healthy",
		CPUPercent:    cpuPercent,
		MemoryPercent: memPercent,
		Goroutines:    runtime.NumGoroutine(),
		UptimeSeconds: int64(time.Since(h.startedAt).Seconds()),
		LastChecked:   time.Now().Format(time.RFC3339),
	}

	if h.scheduler != nil {
		response.ScheduledJobs = h.scheduler.Entries()
	}

	if h.cacheDB != nil {
		cache := &CacheStatus{Name: h.cacheDB.Name(), Healthy: true}
		if err := h.cacheDB.QuickCheck(r.Context()); err != nil {
			h.log.Warn().Err(err).Msg("Cache database integrity check failed")
			cache.Healthy = false
			response.Status = "degraded"
		}
		if stats, err := h.cacheDB.GetStats(); err == nil {
			cache.Stats = stats
		} else {
			h.log.Warn().Err(err).Msg("Failed to get cache database stats")
		}
		response.Cache = cache
	}

	h.writeJSON(w, response)
}

// getSystemStats calculates CPU and RAM usage percentages
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	// 100ms sample keeps the endpoint responsive
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
