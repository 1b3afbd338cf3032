package api

import (
	"net/http"

	"github.com/greyhelm/tablekeep/internal/domain/combat"
	"github.com/greyhelm/tablekeep/internal/services/encounter"
)

type addCombatantRequest struct {
	Name               string `json:"name"`
	Kind               string `json:"kind"`
	MaxHP              int    `json:"max_hp"`
	TempHP             int    `json:"temp_hp"`
	InitiativeTiebreak int    `json:"initiative_tiebreak"`
	MonsterRef         string `json:"monster_ref"`
}

func (h *Handler) handleAddCombatant(w http.ResponseWriter, r *http.Request) {
	var req addCombatantRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	combatant, err := h.encounters.AddCombatant(r.Context(), r.PathValue("encounterID"), userID(r), &encounter.AddCombatantInput{
		Name:               req.Name,
		Kind:               combat.CombatantKind(req.Kind),
		MaxHP:              req.MaxHP,
		TempHP:             req.TempHP,
		InitiativeTiebreak: req.InitiativeTiebreak,
		MonsterRef:         req.MonsterRef,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, combatant)
}

type updateCombatantRequest struct {
	Name *string `json:"name"`
	Kind *string `json:"kind"`
}

func (h *Handler) handleUpdateCombatant(w http.ResponseWriter, r *http.Request) {
	var req updateCombatantRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	input := &encounter.UpdateCombatantInput{Name: req.Name}
	if req.Kind != nil {
		kind := combat.CombatantKind(*req.Kind)
		input.Kind = &kind
	}

	combatant, err := h.encounters.UpdateCombatant(r.Context(), r.PathValue("encounterID"), r.PathValue("combatantID"), userID(r), input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, combatant)
}

func (h *Handler) handleRemoveCombatant(w http.ResponseWriter, r *http.Request) {
	err := h.encounters.RemoveCombatant(r.Context(), r.PathValue("encounterID"), r.PathValue("combatantID"), userID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type vitalityRequest struct {
	Amount int            `json:"amount"`
	Meta   map[string]any `json:"meta"`
}

func (h *Handler) handleApplyDamage(w http.ResponseWriter, r *http.Request) {
	var req vitalityRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	combatant, err := h.encounters.ApplyDamage(r.Context(), r.PathValue("encounterID"), r.PathValue("combatantID"), userID(r), &encounter.VitalityInput{
		Amount: req.Amount,
		Meta:   req.Meta,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, combatant)
}

func (h *Handler) handleApplyHeal(w http.ResponseWriter, r *http.Request) {
	var req vitalityRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	combatant, err := h.encounters.ApplyHeal(r.Context(), r.PathValue("encounterID"), r.PathValue("combatantID"), userID(r), &encounter.VitalityInput{
		Amount: req.Amount,
		Meta:   req.Meta,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, combatant)
}
