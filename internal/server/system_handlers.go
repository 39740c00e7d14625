package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/neoyipeng2018/central-bank-tracker/internal/database"
	"github.com/neoyipeng2018/central-bank-tracker/internal/di"
	"github.com/neoyipeng2018/central-bank-tracker/internal/reliability"
	"github.com/neoyipeng2018/central-bank-tracker/internal/scheduler"
	"github.com/neoyipeng2018/central-bank-tracker/internal/stance"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// SystemHandlers serves process and storage status
type SystemHandlers struct {
	container *di.Container
	version   string
	startedAt time.Time
	log       zerolog.Logger
}

// NewSystemHandlers creates system handlers. Uptime counts from this call.
func NewSystemHandlers(container *di.Container, version string, log zerolog.Logger) *SystemHandlers {
	return &SystemHandlers{
		container: container,
		version:   version,
		startedAt: time.Now(),
		log:       log.With().Str("handler", "system").Logger(),
	}
}

// SystemStatusResponse represents system status
type SystemStatusResponse struct {
	Status        string                     `json:"status"`
	Version       string                     `json:"version"`
	UptimeSeconds float64                    `json:"uptime_seconds"`
	CPUPercent    float64                    `json:"cpu_percent"`
	RAMPercent    float64                    `json:"ram_percent"`
	Goroutines    int                        `json:"goroutines"`
	Committee     string                     `json:"committee"`
	Participants  int                        `json:"participants"`
	Scale         float64                    `json:"scale"`
	Databases     map[string]*database.Stats `json:"databases"`
	Jobs          []scheduler.JobStatus      `json:"jobs"`
	Scorers       map[string]bool            `json:"scorer_backends"`
}

// JobsStatusResponse lists the scheduled jobs
type JobsStatusResponse struct {
	Jobs []scheduler.JobStatus `json:"jobs"`
}

// HandleSystemStatus returns comprehensive system status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting system status")

	cpuPercent, ramPercent := h.getSystemStats()
	c := h.container

	response := SystemStatusResponse{
		Status:        "healthy",
		Version:       h.version,
		UptimeSeconds: time.Since(h.startedAt).Seconds(),
		CPUPercent:    cpuPercent,
		RAMPercent:    ramPercent,
		Goroutines:    runtime.NumGoroutine(),
		Committee:     string(c.Roster.Committee()),
		Participants:  len(c.Roster.All()),
		Scale:         c.Scale.Bound(),
		Databases:     make(map[string]*database.Stats),
		Jobs:          h.jobs(),
		Scorers:       h.scorers(),
	}

	for _, db := range []*database.DB{c.SnippetsDB, c.HistoryDB} {
		if db == nil {
			continue
		}
		stats, err := db.GetStats()
		if err != nil {
			h.log.Warn().Err(err).Str("database", db.Name()).Msg("Failed to get database stats")
			response.Status = "degraded"
			continue
		}
		response.Databases[db.Name()] = stats
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleJobsStatus returns the scheduled jobs and their last outcome
func (h *SystemHandlers) HandleJobsStatus(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, JobsStatusResponse{Jobs: h.jobs()})
}

// HandleRunJob runs a registered job immediately
// POST /api/system/jobs/{name}/run
func (h *SystemHandlers) HandleRunJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if h.container.Scheduler == nil {
		h.writeError(w, http.StatusServiceUnavailable, "scheduler not available")
		return
	}

	if err := h.container.Scheduler.RunByName(name); err != nil {
		if errors.Is(err, scheduler.ErrJobNotFound) {
			h.writeError(w, http.StatusNotFound, err.Error())
			return
		}
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"job":    name,
		"status": "completed",
	})
}

// HandleListBackups lists stored backups, newest first
// GET /api/system/backups
func (h *SystemHandlers) HandleListBackups(w http.ResponseWriter, r *http.Request) {
	if h.container.BackupService == nil {
		h.writeJSON(w, http.StatusOK, map[string]interface{}{"backups": []reliability.BackupInfo{}})
		return
	}

	backups, err := h.container.BackupService.ListBackups(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list backups")
		h.writeError(w, http.StatusBadGateway, "failed to list backups")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"backups": backups,
		"count":   len(backups),
	})
}

// HandleListScorers lists the scorer chain backends and whether each is
// enabled. Keyword scoring is the fallback and is not listed.
// GET /api/system/scorers
func (h *SystemHandlers) HandleListScorers(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"scorers": h.scorers()})
}

// HandleToggleScorer enables or disables one scorer backend
// POST /api/system/scorers/{name} with {"enabled": bool}
func (h *SystemHandlers) HandleToggleScorer(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if h.container.Scorer == nil {
		h.writeError(w, http.StatusServiceUnavailable, "scorer chain not available")
		return
	}

	var req struct {
		Enabled *bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Enabled == nil {
		h.writeError(w, http.StatusBadRequest, `body must be {"enabled": true|false}`)
		return
	}

	if err := h.container.Scorer.SetEnabled(name, *req.Enabled); err != nil {
		if errors.Is(err, stance.ErrUnknownBackend) {
			h.writeError(w, http.StatusNotFound, err.Error())
			return
		}
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.log.Info().Str("backend", name).Bool("enabled", *req.Enabled).Msg("Scorer backend toggled")
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"scorers": h.scorers()})
}

func (h *SystemHandlers) scorers() map[string]bool {
	if h.container.Scorer == nil {
		return map[string]bool{}
	}
	return h.container.Scorer.Backends()
}

func (h *SystemHandlers) jobs() []scheduler.JobStatus {
	if h.container.Scheduler == nil {
		return []scheduler.JobStatus{}
	}
	return h.container.Scheduler.Status()
}

// getSystemStats returns CPU and RAM usage percentages. The CPU sample
// blocks for 100ms.
func (h *SystemHandlers) getSystemStats() (float64, float64) {
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

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *SystemHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
