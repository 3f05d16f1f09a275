package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/susu3304/pokerledger/internal/ledger"
	"github.com/susu3304/pokerledger/internal/poker"
)

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Players

func (a *API) handleListPlayers(w http.ResponseWriter, r *http.Request) {
	players, err := a.svc.ListPlayers(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, players)
}

type playerRequest struct {
	Name string `json:"name"`
}

func (a *API) handleCreatePlayer(w http.ResponseWriter, r *http.Request) {
	var req playerRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	player, err := a.svc.CreatePlayer(r.Context(), req.Name)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, player)
}

func (a *API) handleRenamePlayer(w http.ResponseWriter, r *http.Request) {
	var req playerRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	player, err := a.svc.RenamePlayer(r.Context(), mux.Vars(r)["id"], req.Name)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, player)
}

func (a *API) handleDeletePlayer(w http.ResponseWriter, r *http.Request) {
	if err := a.svc.DeletePlayer(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleResetBalances(w http.ResponseWriter, r *http.Request) {
	if err := a.svc.ResetBalances(r.Context()); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "balances reset"})
}

// Sessions

func (a *API) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := a.svc.ListSessions(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (a *API) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := a.svc.GetSession(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (a *API) handleSessionResults(w http.ResponseWriter, r *http.Request) {
	deltas, err := a.svc.SessionResults(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, deltas)
}

func (a *API) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req ledger.StartSessionRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sess, err := a.svc.StartSession(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (a *API) handleSetPlayerChips(w http.ResponseWriter, r *http.Request) {
	var req ledger.PlayerChipsRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	vars := mux.Vars(r)
	sess, err := a.svc.SetPlayerChips(r.Context(), vars["id"], vars["player_id"], req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (a *API) handleAddLoan(w http.ResponseWriter, r *http.Request) {
	var req ledger.LoanRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sess, err := a.svc.AddLoan(r.Context(), mux.Vars(r)["id"], req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (a *API) handleRemoveLoan(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	sess, err := a.svc.RemoveLoan(r.Context(), vars["id"], vars["loan_id"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (a *API) handleCompleteSession(w http.ResponseWriter, r *http.Request) {
	var req ledger.CompleteRequest
	if err := decodeJSON(r, &req, true); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sess, err := a.svc.CompleteSession(r.Context(), mux.Vars(r)["id"], req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (a *API) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := a.svc.DeleteSession(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Settlement and statistics

func (a *API) handleSettlement(w http.ResponseWriter, r *http.Request) {
	settlement, err := a.svc.Settlement(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settlement)
}

func (a *API) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.svc.Stats(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Settings and presets

func (a *API) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := a.svc.GetSettings(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (a *API) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req poker.Settings
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	settings, err := a.svc.UpdateSettings(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (a *API) handleListPresets(w http.ResponseWriter, r *http.Request) {
	presets, err := a.svc.ListPresets(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, presets)
}

type presetRequest struct {
	Name  *string      `json:"name,omitempty"`
	Chips []poker.Chip `json:"chips,omitempty"`
}

func (a *API) handleCreatePreset(w http.ResponseWriter, r *http.Request) {
	var req presetRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	name := ""
	if req.Name != nil {
		name = *req.Name
	}
	preset, err := a.svc.CreatePreset(r.Context(), name, req.Chips)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, preset)
}

func (a *API) handleUpdatePreset(w http.ResponseWriter, r *http.Request) {
	var req presetRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	preset, err := a.svc.UpdatePreset(r.Context(), mux.Vars(r)["id"], req.Name, req.Chips)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, preset)
}

func (a *API) handleDeletePreset(w http.ResponseWriter, r *http.Request) {
	if err := a.svc.DeletePreset(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleSetDefaultPreset(w http.ResponseWriter, r *http.Request) {
	preset, err := a.svc.SetDefaultPreset(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, preset)
}

func (a *API) handleClearAll(w http.ResponseWriter, r *http.Request) {
	if err := a.svc.ClearAll(r.Context()); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "all data cleared"})
}
