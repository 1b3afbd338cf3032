package api

import (
	"net/http"

	"github.com/greyhelm/tablekeep/internal/repositories/campaigns"
)

type setMemberRequest struct {
	Role campaigns.Role `json:"role"`
}

func (h *Handler) handleSetMember(w http.ResponseWriter, r *http.Request) {
	var req setMemberRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	member, err := h.members.SetMember(r.Context(),
		r.PathValue("campaignID"), userID(r), r.PathValue("memberID"), req.Role)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, member)
}

func (h *Handler) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	err := h.members.RemoveMember(r.Context(),
		r.PathValue("campaignID"), userID(r), r.PathValue("memberID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) handleListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.members.ListMembers(r.Context(), r.PathValue("campaignID"), userID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, members)
}
