package api

import (
	"net/http"
	"strconv"

	"cs2panel/internal/config"
	"cs2panel/internal/domain"
)

func (api *Server) handleMetricsStart(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := api.Manager.StartMetrics(id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (api *Server) handleMetricsStop(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	api.Manager.StopMetrics(id)
	w.WriteHeader(http.StatusNoContent)
}

func (api *Server) handleMetricsHistory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	minutes := 60
	if v := r.URL.Query().Get("minutes"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			minutes = n
		}
	}
	history, err := api.Manager.GetMetricsHistory(id, minutes)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (api *Server) handleRunBenchmark(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		MaxBots         int `json:"max_bots"`
		StepSize        int `json:"step_size"`
		StepDurationSec int `json:"step_duration_sec"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := api.Manager.RunBenchmark(id, req.MaxBots, req.StepSize, req.StepDurationSec); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (api *Server) handleStopBenchmark(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	api.Manager.StopBenchmark(id)
	w.WriteHeader(http.StatusNoContent)
}

func (api *Server) handleBenchmarkResults(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	results, err := api.Manager.GetBenchmarkResults(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (api *Server) handleListBackups(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	backups, err := api.Manager.GetBackups(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, backups)
}

func (api *Server) handleCreateBackup(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		Type string `json:"type"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	backup, err := api.Manager.CreateBackup(id, req.Type)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, backup)
}

func (api *Server) handleRestoreBackup(w http.ResponseWriter, r *http.Request) {
	backupID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := api.Manager.RestoreBackup(backupID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (api *Server) handleDeleteBackup(w http.ResponseWriter, r *http.Request) {
	backupID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := api.Manager.DeleteBackup(backupID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (api *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	tasks, err := api.Manager.GetScheduledTasks(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (api *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		Name     string `json:"name"`
		CronExpr string `json:"cron_expr"`
		Action   string `json:"action"`
		Payload  string `json:"payload"`
		Enabled  *bool  `json:"enabled"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	task := &domain.ScheduledTask{
		InstanceID: id,
		Name:       req.Name,
		CronExpr:   req.CronExpr,
		Action:     req.Action,
		Payload:    req.Payload,
		Enabled:    enabled,
	}
	if err := api.Manager.CreateScheduledTask(task); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (api *Server) handleToggleTask(w http.ResponseWriter, r *http.Request) {
	taskID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := api.Manager.SetTaskEnabled(taskID, req.Enabled); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (api *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	taskID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := api.Manager.DeleteScheduledTask(taskID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (api *Server) handleGetAppConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, api.Manager.GetAppConfig())
}

func (api *Server) handlePutAppConfig(w http.ResponseWriter, r *http.Request) {
	var cfg config.AppConfig
	if err := decode(r, &cfg); err != nil {
		writeError(w, err)
		return
	}
	if err := api.Manager.UpdateAppConfig(cfg); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.Manager.GetAppConfig())
}

func (api *Server) handleAppLog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, api.Manager.GetAppLog())
}

func (api *Server) handleAuditLog(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	entries, err := api.Manager.GetAuditLog(limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
