package api

import (
	"net/http"

	"github.com/greyhelm/tablekeep/internal/services/encounter"
)

type createEncounterRequest struct {
	CampaignID string `json:"campaign_id"`
	Name       string `json:"name"`
}

func (h *Handler) handleCreateEncounter(w http.ResponseWriter, r *http.Request) {
	var req createEncounterRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	enc, err := h.encounters.CreateEncounter(r.Context(), &encounter.CreateEncounterInput{
		CampaignID: req.CampaignID,
		Name:       req.Name,
		UserID:     userID(r),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, enc)
}

func (h *Handler) handleGetEncounter(w http.ResponseWriter, r *http.Request) {
	enc, err := h.encounters.GetEncounter(r.Context(), r.PathValue("encounterID"), userID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, enc)
}

func (h *Handler) handleListEncounters(w http.ResponseWriter, r *http.Request) {
	list, err := h.encounters.ListEncounters(r.Context(), r.PathValue("campaignID"), userID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, list)
}

func (h *Handler) handleDeleteEncounter(w http.ResponseWriter, r *http.Request) {
	if err := h.encounters.DeleteEncounter(r.Context(), r.PathValue("encounterID"), userID(r)); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) handleEndEncounter(w http.ResponseWriter, r *http.Request) {
	enc, err := h.encounters.EndEncounter(r.Context(), r.PathValue("encounterID"), userID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, enc)
}

func (h *Handler) handleGetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.encounters.GetSummary(r.Context(), r.PathValue("encounterID"), userID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, summary)
}

type addNoteRequest struct {
	Text string `json:"text"`
}

func (h *Handler) handleAddNote(w http.ResponseWriter, r *http.Request) {
	var req addNoteRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	event, err := h.encounters.AddNote(r.Context(), r.PathValue("encounterID"), userID(r), req.Text)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, event)
}
