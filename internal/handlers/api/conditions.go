package api

import (
	"net/http"

	"github.com/greyhelm/tablekeep/internal/services/encounter"
)

type conditionRequest struct {
	Label          string `json:"label"`
	DurationRounds *int   `json:"duration_rounds"`
}

func (h *Handler) handleAddCondition(w http.ResponseWriter, r *http.Request) {
	var req conditionRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	condition, err := h.encounters.AddCondition(r.Context(), r.PathValue("encounterID"), r.PathValue("combatantID"), userID(r), &encounter.ConditionInput{
		Label:          req.Label,
		DurationRounds: req.DurationRounds,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, condition)
}

type updateConditionRequest struct {
	Label          *string `json:"label"`
	DurationRounds *int    `json:"duration_rounds"`
	ClearDuration  bool    `json:"clear_duration"`
}

func (h *Handler) handleUpdateCondition(w http.ResponseWriter, r *http.Request) {
	var req updateConditionRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	condition, err := h.encounters.UpdateCondition(r.Context(), r.PathValue("encounterID"), r.PathValue("combatantID"), r.PathValue("conditionID"), userID(r), &encounter.UpdateConditionInput{
		Label:          req.Label,
		DurationRounds: req.DurationRounds,
		ClearDuration:  req.ClearDuration,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, condition)
}

func (h *Handler) handleRemoveCondition(w http.ResponseWriter, r *http.Request) {
	err := h.encounters.RemoveCondition(r.Context(), r.PathValue("encounterID"), r.PathValue("combatantID"), r.PathValue("conditionID"), userID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
