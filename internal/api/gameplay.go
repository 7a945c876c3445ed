package api

import (
	"net/http"

	"cs2panel/internal/manager"
)

func (api *Server) handleMaps(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	maps, err := api.Manager.GetInstalledMaps(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, maps)
}

func (api *Server) handleGetMapcycle(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	rotation, err := api.Manager.GetMapRotation(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rotation)
}

func (api *Server) handlePutMapcycle(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var maps []string
	if err := decode(r, &maps); err != nil {
		writeError(w, err)
		return
	}
	if err := api.Manager.SetMapRotation(id, maps); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (api *Server) handleChangeMap(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		Map string `json:"map"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := api.Manager.ChangeMap(id, req.Map); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"map": req.Map})
}

func (api *Server) handleListWorkshop(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	items, err := api.Manager.GetWorkshopItems(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (api *Server) handleDownloadWorkshop(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		WorkshopID int64 `json:"workshop_id"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := api.Manager.DownloadWorkshopMap(id, req.WorkshopID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (api *Server) handlePlayers(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	players, err := api.Manager.GetPlayers(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, players)
}

func (api *Server) handleKick(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		UserID int    `json:"user_id"`
		Reason string `json:"reason"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := api.Manager.KickPlayer(id, req.UserID, req.Reason); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (api *Server) handleBan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		SteamID         string `json:"steam_id"`
		DurationMinutes int    `json:"duration_minutes"`
		Reason          string `json:"reason"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := api.Manager.BanPlayer(id, req.SteamID, req.DurationMinutes, req.Reason); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (api *Server) handleMute(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		SteamID string `json:"steam_id"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := api.Manager.MutePlayer(id, req.SteamID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (api *Server) handleBans(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	bans, err := api.Manager.GetBanList(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bans)
}

func (api *Server) handleUnban(w http.ResponseWriter, r *http.Request) {
	banID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := api.Manager.UnbanPlayer(banID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (api *Server) handleGetBots(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	cfg, err := api.Manager.GetBotConfig(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (api *Server) handlePutBots(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var cfg manager.BotConfig
	if err := decode(r, &cfg); err != nil {
		writeError(w, err)
		return
	}
	if err := api.Manager.UpdateBotConfig(id, cfg); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
