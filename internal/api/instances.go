package api

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"cs2panel/internal/manager"
)

func (api *Server) handleListInstances(w http.ResponseWriter, r *http.Request) {
	instances, err := api.Manager.GetInstances()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, instances)
}

func (api *Server) handleCreateInstance(w http.ResponseWriter, r *http.Request) {
	var cfg manager.InstanceConfig
	if err := decode(r, &cfg); err != nil {
		writeError(w, err)
		return
	}
	inst, err := api.Manager.CreateInstance(cfg)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, inst)
}

func (api *Server) handleGetInstance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	inst, err := api.Manager.GetInstance(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inst)
}

func (api *Server) handleUpdateInstance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var cfg manager.InstanceConfig
	if err := decode(r, &cfg); err != nil {
		writeError(w, err)
		return
	}
	if err := api.Manager.UpdateInstance(id, cfg); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (api *Server) handleDeleteInstance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := api.Manager.DeleteInstance(id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (api *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	api.lifecycle(w, r, api.Manager.StartInstance)
}

func (api *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	api.lifecycle(w, r, api.Manager.StopInstance)
}

func (api *Server) handleRestart(w http.ResponseWriter, r *http.Request) {
	api.lifecycle(w, r, api.Manager.RestartInstance)
}

func (api *Server) handleInstall(w http.ResponseWriter, r *http.Request) {
	api.lifecycle(w, r, api.Manager.InstallServer)
}

func (api *Server) handleUpdateFiles(w http.ResponseWriter, r *http.Request) {
	api.lifecycle(w, r, api.Manager.UpdateServer)
}

func (api *Server) lifecycle(w http.ResponseWriter, r *http.Request, op func(id uuid.UUID) error) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := op(id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "ok"})
}

func (api *Server) handleConsole(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	lines := 200
	if v := r.URL.Query().Get("lines"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			lines = n
		}
	}
	writeJSON(w, http.StatusOK, api.Manager.GetConsole(id, lines))
}

func (api *Server) handleRcon(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		Command string `json:"command"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	out, err := api.Manager.SendRCON(id, req.Command)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"response": out})
}
