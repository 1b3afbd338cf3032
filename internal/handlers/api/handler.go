package api

import (
	"log/slog"
	"net/http"

	"github.com/greyhelm/tablekeep/internal/services/campaign"
	"github.com/greyhelm/tablekeep/internal/services/encounter"
)

// Handler wires the encounter runtime to HTTP. Handlers stay thin: decode,
// call the service, map the error code to a status.
type Handler struct {
	log        *slog.Logger
	encounters encounter.Service
	members    campaign.Service
}

// NewHandler creates a new API handler
func NewHandler(log *slog.Logger, encounters encounter.Service, members campaign.Service) *Handler {
	return &Handler{
		log:        log,
		encounters: encounters,
		members:    members,
	}
}

// Routes registers every runtime operation on a fresh mux
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", h.handleHealth)

	mux.HandleFunc("GET /v1/campaigns/{campaignID}/members", h.handleListMembers)
	mux.HandleFunc("PUT /v1/campaigns/{campaignID}/members/{memberID}", h.handleSetMember)
	mux.HandleFunc("DELETE /v1/campaigns/{campaignID}/members/{memberID}", h.handleRemoveMember)

	mux.HandleFunc("POST /v1/encounters", h.handleCreateEncounter)
	mux.HandleFunc("GET /v1/campaigns/{campaignID}/encounters", h.handleListEncounters)
	mux.HandleFunc("GET /v1/encounters/{encounterID}", h.handleGetEncounter)
	mux.HandleFunc("DELETE /v1/encounters/{encounterID}", h.handleDeleteEncounter)
	mux.HandleFunc("POST /v1/encounters/{encounterID}/end", h.handleEndEncounter)
	mux.HandleFunc("GET /v1/encounters/{encounterID}/summary", h.handleGetSummary)
	mux.HandleFunc("POST /v1/encounters/{encounterID}/notes", h.handleAddNote)

	mux.HandleFunc("POST /v1/encounters/{encounterID}/combatants", h.handleAddCombatant)
	mux.HandleFunc("PATCH /v1/encounters/{encounterID}/combatants/{combatantID}", h.handleUpdateCombatant)
	mux.HandleFunc("DELETE /v1/encounters/{encounterID}/combatants/{combatantID}", h.handleRemoveCombatant)
	mux.HandleFunc("POST /v1/encounters/{encounterID}/combatants/{combatantID}/damage", h.handleApplyDamage)
	mux.HandleFunc("POST /v1/encounters/{encounterID}/combatants/{combatantID}/heal", h.handleApplyHeal)

	mux.HandleFunc("POST /v1/encounters/{encounterID}/combatants/{combatantID}/conditions", h.handleAddCondition)
	mux.HandleFunc("PATCH /v1/encounters/{encounterID}/combatants/{combatantID}/conditions/{conditionID}", h.handleUpdateCondition)
	mux.HandleFunc("DELETE /v1/encounters/{encounterID}/combatants/{combatantID}/conditions/{conditionID}", h.handleRemoveCondition)

	mux.HandleFunc("POST /v1/encounters/{encounterID}/initiative/roll", h.handleRollInitiative)
	mux.HandleFunc("POST /v1/encounters/{encounterID}/initiative/reorder", h.handleReorderInitiative)
	mux.HandleFunc("POST /v1/encounters/{encounterID}/turn/advance", h.handleAdvanceTurn)
	mux.HandleFunc("POST /v1/encounters/{encounterID}/turn/set", h.handleSetActiveTurn)

	return mux
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
