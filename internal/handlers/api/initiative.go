package api

import (
	"net/http"

	"github.com/greyhelm/tablekeep/internal/services/encounter"
)

type rollInitiativeRequest struct {
	Mode   string         `json:"mode"`
	Scores map[string]int `json:"scores"`
}

func (h *Handler) handleRollInitiative(w http.ResponseWriter, r *http.Request) {
	var req rollInitiativeRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	order, err := h.encounters.RollInitiative(r.Context(), r.PathValue("encounterID"), userID(r), &encounter.RollInitiativeInput{
		Mode:   req.Mode,
		Scores: req.Scores,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, order)
}

type reorderRequest struct {
	Order []string `json:"order"`
}

func (h *Handler) handleReorderInitiative(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	order, err := h.encounters.ReorderInitiative(r.Context(), r.PathValue("encounterID"), userID(r), req.Order)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, order)
}

func (h *Handler) handleAdvanceTurn(w http.ResponseWriter, r *http.Request) {
	state, err := h.encounters.AdvanceTurn(r.Context(), r.PathValue("encounterID"), userID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, state)
}

type setTurnRequest struct {
	CombatantID string `json:"combatant_id"`
}

func (h *Handler) handleSetActiveTurn(w http.ResponseWriter, r *http.Request) {
	var req setTurnRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	state, err := h.encounters.SetActiveTurn(r.Context(), r.PathValue("encounterID"), req.CombatantID, userID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, state)
}
