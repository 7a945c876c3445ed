package api

import "net/http"

func (api *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	cvars, err := api.Manager.GetServerConfig(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cvars)
}

func (api *Server) handlePutConfig(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var cvars map[string]string
	if err := decode(r, &cvars); err != nil {
		writeError(w, err)
		return
	}
	result, err := api.Manager.UpdateServerConfig(id, cvars)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (api *Server) handleCvars(w http.ResponseWriter, r *http.Request) {
	if q := r.URL.Query().Get("q"); q != "" {
		writeJSON(w, http.StatusOK, api.Manager.SearchCvars(q))
		return
	}
	writeJSON(w, http.StatusOK, api.Manager.GetCvarDatabase())
}

func (api *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, api.Manager.GetGameModePresets())
}

func (api *Server) handleApplyPreset(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	result, err := api.Manager.ApplyGameModePreset(id, r.PathValue("name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (api *Server) handleLANCvars(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, api.Manager.GetLANOptimizedCvars())
}

func (api *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	profiles, err := api.Manager.GetConfigProfiles(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profiles)
}

func (api *Server) handleSaveProfile(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		Name  string            `json:"name"`
		Cvars map[string]string `json:"cvars"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	profile, err := api.Manager.SaveConfigProfile(id, req.Name, req.Cvars)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, profile)
}

func (api *Server) handleLoadProfile(w http.ResponseWriter, r *http.Request) {
	profileID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	cvars, err := api.Manager.LoadConfigProfile(profileID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cvars)
}

func (api *Server) handleApplyProfile(w http.ResponseWriter, r *http.Request) {
	profileID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	result, err := api.Manager.ApplyConfigProfile(profileID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (api *Server) handleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	profileID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := api.Manager.DeleteConfigProfile(profileID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
