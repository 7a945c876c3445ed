package api

import (
	"net/http"

	"cs2panel/internal/manager"
	"cs2panel/internal/pkg/logger"
	"cs2panel/internal/ws"
)

// Server exposes every manager operation over HTTP and hands the
// WebSocket endpoints to the ws package.
type Server struct {
	Manager *manager.Manager
	Streams *ws.Streams
}

func NewServer(m *manager.Manager, streams *ws.Streams) *Server {
	return &Server{Manager: m, Streams: streams}
}

func (api *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Instances
	mux.HandleFunc("GET /instances", api.handleListInstances)
	mux.HandleFunc("POST /instances", api.handleCreateInstance)
	mux.HandleFunc("GET /instances/{id}", api.handleGetInstance)
	mux.HandleFunc("PUT /instances/{id}", api.handleUpdateInstance)
	mux.HandleFunc("DELETE /instances/{id}", api.handleDeleteInstance)
	mux.HandleFunc("POST /instances/{id}/start", api.handleStart)
	mux.HandleFunc("POST /instances/{id}/stop", api.handleStop)
	mux.HandleFunc("POST /instances/{id}/restart", api.handleRestart)
	mux.HandleFunc("POST /instances/{id}/install", api.handleInstall)
	mux.HandleFunc("POST /instances/{id}/update", api.handleUpdateFiles)
	mux.HandleFunc("GET /instances/{id}/console", api.handleConsole)
	mux.HandleFunc("POST /instances/{id}/rcon", api.handleRcon)

	// Configuration
	mux.HandleFunc("GET /instances/{id}/config", api.handleGetConfig)
	mux.HandleFunc("PUT /instances/{id}/config", api.handlePutConfig)
	mux.HandleFunc("GET /cvars", api.handleCvars)
	mux.HandleFunc("GET /presets", api.handlePresets)
	mux.HandleFunc("POST /instances/{id}/presets/{name}", api.handleApplyPreset)
	mux.HandleFunc("GET /lan-cvars", api.handleLANCvars)
	mux.HandleFunc("GET /instances/{id}/profiles", api.handleListProfiles)
	mux.HandleFunc("POST /instances/{id}/profiles", api.handleSaveProfile)
	mux.HandleFunc("GET /profiles/{id}", api.handleLoadProfile)
	mux.HandleFunc("POST /profiles/{id}/apply", api.handleApplyProfile)
	mux.HandleFunc("DELETE /profiles/{id}", api.handleDeleteProfile)

	// Maps and workshop
	mux.HandleFunc("GET /instances/{id}/maps", api.handleMaps)
	mux.HandleFunc("GET /instances/{id}/mapcycle", api.handleGetMapcycle)
	mux.HandleFunc("PUT /instances/{id}/mapcycle", api.handlePutMapcycle)
	mux.HandleFunc("POST /instances/{id}/map", api.handleChangeMap)
	mux.HandleFunc("GET /instances/{id}/workshop", api.handleListWorkshop)
	mux.HandleFunc("POST /instances/{id}/workshop", api.handleDownloadWorkshop)

	// Players, bans, bots
	mux.HandleFunc("GET /instances/{id}/players", api.handlePlayers)
	mux.HandleFunc("POST /instances/{id}/players/kick", api.handleKick)
	mux.HandleFunc("POST /instances/{id}/players/ban", api.handleBan)
	mux.HandleFunc("POST /instances/{id}/players/mute", api.handleMute)
	mux.HandleFunc("GET /instances/{id}/bans", api.handleBans)
	mux.HandleFunc("DELETE /bans/{id}", api.handleUnban)
	mux.HandleFunc("GET /instances/{id}/bots", api.handleGetBots)
	mux.HandleFunc("PUT /instances/{id}/bots", api.handlePutBots)

	// Monitoring and benchmarks
	mux.HandleFunc("POST /instances/{id}/metrics/start", api.handleMetricsStart)
	mux.HandleFunc("POST /instances/{id}/metrics/stop", api.handleMetricsStop)
	mux.HandleFunc("GET /instances/{id}/metrics", api.handleMetricsHistory)
	mux.HandleFunc("POST /instances/{id}/benchmark", api.handleRunBenchmark)
	mux.HandleFunc("DELETE /instances/{id}/benchmark", api.handleStopBenchmark)
	mux.HandleFunc("GET /instances/{id}/benchmarks", api.handleBenchmarkResults)

	// Backups
	mux.HandleFunc("GET /instances/{id}/backups", api.handleListBackups)
	mux.HandleFunc("POST /instances/{id}/backups", api.handleCreateBackup)
	mux.HandleFunc("POST /backups/{id}/restore", api.handleRestoreBackup)
	mux.HandleFunc("DELETE /backups/{id}", api.handleDeleteBackup)

	// Scheduled tasks
	mux.HandleFunc("GET /instances/{id}/tasks", api.handleListTasks)
	mux.HandleFunc("POST /instances/{id}/tasks", api.handleCreateTask)
	mux.HandleFunc("PUT /tasks/{id}/enabled", api.handleToggleTask)
	mux.HandleFunc("DELETE /tasks/{id}", api.handleDeleteTask)

	// Plugins and side files
	mux.HandleFunc("GET /instances/{id}/plugins", api.handleListPlugins)
	mux.HandleFunc("POST /instances/{id}/plugins", api.handleInstallPlugin)
	mux.HandleFunc("GET /instances/{id}/sidefiles/{name}", api.handleGetSideFile)
	mux.HandleFunc("PUT /instances/{id}/sidefiles/{name}", api.handlePutSideFile)
	mux.HandleFunc("GET /instances/{id}/matches", api.handleListMatches)
	mux.HandleFunc("GET /instances/{id}/matches/{name}", api.handleGetMatch)

	// Files
	mux.HandleFunc("GET /instances/{id}/files", api.handleListFiles)
	mux.HandleFunc("GET /instances/{id}/files/content", api.handleReadFile)
	mux.HandleFunc("PUT /instances/{id}/files/content", api.handleWriteFile)
	mux.HandleFunc("DELETE /instances/{id}/files", api.handleDeleteFile)

	// App
	mux.HandleFunc("GET /config", api.handleGetAppConfig)
	mux.HandleFunc("PUT /config", api.handlePutAppConfig)
	mux.HandleFunc("GET /log", api.handleAppLog)
	mux.HandleFunc("GET /audit", api.handleAuditLog)

	// WebSocket streams
	mux.HandleFunc("GET /ws/events", api.Streams.HandleEvents)
	mux.HandleFunc("GET /ws/instances/{id}/console", api.Streams.HandleConsole)

	return api.corsMiddleware(mux)
}

func (api *Server) Start(listenAddr string) error {
	logger.Log.Info().Str("addr", listenAddr).Msg("api listening")
	return http.ListenAndServe(listenAddr, api.Handler())
}

func (api *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
