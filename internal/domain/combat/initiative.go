package combat

import (
	"sort"

	apperr "github.com/greyhelm/tablekeep/internal/errors"
)

// TurnState reports the turn pointer after a sequencer operation
type TurnState struct {
	PreviousCombatantID string       `json:"previous_combatant_id,omitempty"`
	ActiveCombatantID   string       `json:"active_combatant_id,omitempty"`
	Round               int          `json:"round"`
	RoundAdvanced       bool         `json:"round_advanced,omitempty"`
	ExpiredConditions   []*Condition `json:"expired_conditions,omitempty"`
}

// ApplyInitiative writes a full set of initiative scores, sorts the turn
// order, and starts combat: round 1, first-ranked combatant active, status
// ACTIVE. Order sorts by score descending, ties by tiebreak descending, then
// combatant id ascending so the result is deterministic.
func (e *Encounter) ApplyInitiative(ids IDSource, mode string, scores map[string]int) ([]*Combatant, error) {
	if e.Status == EncounterStatusCompleted {
		return nil, apperr.Conflictf("encounter '%s' is completed", e.ID)
	}

	active := e.ActiveCombatants()
	if len(active) == 0 {
		return nil, apperr.Validation("encounter has no active combatants")
	}
	for _, c := range active {
		if _, ok := scores[c.ID]; !ok {
			return nil, apperr.Validationf("missing initiative score for combatant '%s'", c.ID)
		}
	}

	for _, c := range active {
		score := scores[c.ID]
		c.Initiative = &score
	}

	sort.Slice(active, func(i, j int) bool {
		a, b := active[i], active[j]
		if *a.Initiative != *b.Initiative {
			return *a.Initiative > *b.Initiative
		}
		if a.InitiativeTiebreak != b.InitiativeTiebreak {
			return a.InitiativeTiebreak > b.InitiativeTiebreak
		}
		return a.ID < b.ID
	})

	entries := make([]InitiativeEntry, len(active))
	for i, c := range active {
		c.TurnOrder = i + 1
		entries[i] = InitiativeEntry{
			CombatantID: c.ID,
			Name:        c.Name,
			Score:       *c.Initiative,
			TurnOrder:   c.TurnOrder,
		}
	}

	e.Round = 1
	e.ActiveCombatantID = active[0].ID
	e.Status = EncounterStatusActive

	if _, err := e.AppendEvent(ids, EventInitiativeRoll, InitiativePayload{
		Mode:  mode,
		Order: entries,
	}); err != nil {
		return nil, err
	}
	return active, nil
}

// Reorder rewrites the turn order from an explicit permutation of the active
// combatant ids. The active-turn pointer is left untouched; callers that also
// want to reset it use SetActiveTurn.
func (e *Encounter) Reorder(ids IDSource, orderedIDs []string) ([]*Combatant, error) {
	active := e.ActiveCombatants()
	if len(orderedIDs) != len(active) {
		return nil, apperr.Validationf("order must list all %d active combatants, got %d", len(active), len(orderedIDs))
	}

	byID := make(map[string]*Combatant, len(active))
	for _, c := range active {
		byID[c.ID] = c
	}

	seen := make(map[string]bool, len(orderedIDs))
	for _, id := range orderedIDs {
		if _, ok := byID[id]; !ok {
			return nil, apperr.Validationf("combatant '%s' is not an active combatant of this encounter", id)
		}
		if seen[id] {
			return nil, apperr.Validationf("combatant '%s' appears more than once in the order", id)
		}
		seen[id] = true
	}

	result := make([]*Combatant, len(orderedIDs))
	for i, id := range orderedIDs {
		c := byID[id]
		c.TurnOrder = i + 1
		result[i] = c
	}

	if _, err := e.AppendEvent(ids, EventInitiativeReorder, ReorderPayload{
		Order: orderedIDs,
	}); err != nil {
		return nil, err
	}
	return result, nil
}

// AdvanceTurn moves the active-turn pointer to the next combatant in turn
// order. Wrapping past the end increments the round and sweeps expired
// conditions for the new round value.
func (e *Encounter) AdvanceTurn(ids IDSource) (*TurnState, error) {
	if e.Status != EncounterStatusActive {
		return nil, apperr.Conflictf("encounter '%s' is not active", e.ID)
	}

	order := e.ActiveCombatants()
	if len(order) == 0 {
		return nil, apperr.Conflict("encounter has no active combatants")
	}

	idx := -1
	for i, c := range order {
		if c.ID == e.ActiveCombatantID {
			idx = i
			break
		}
	}

	nextIdx := (idx + 1) % len(order)
	wrapped := idx >= 0 && nextIdx == 0

	prev := e.ActiveCombatantID
	e.ActiveCombatantID = order[nextIdx].ID
	if wrapped {
		e.Round++
	}

	if _, err := e.AppendEvent(ids, EventTurnAdvance, TurnAdvancePayload{
		PreviousCombatantID: prev,
		ActiveCombatantID:   e.ActiveCombatantID,
		Round:               e.Round,
		RoundAdvanced:       wrapped,
	}); err != nil {
		return nil, err
	}

	var expired []*Condition
	if wrapped {
		var err error
		expired, err = e.sweepExpiredConditions(ids)
		if err != nil {
			return nil, err
		}
	}

	return &TurnState{
		PreviousCombatantID: prev,
		ActiveCombatantID:   e.ActiveCombatantID,
		Round:               e.Round,
		RoundAdvanced:       wrapped,
		ExpiredConditions:   expired,
	}, nil
}

// SetActiveTurn force-sets the active-turn pointer without touching the round
func (e *Encounter) SetActiveTurn(ids IDSource, combatantID string) (*TurnState, error) {
	c := e.CombatantByID(combatantID)
	if c == nil || c.IsRemoved {
		return nil, apperr.NotFoundf("combatant '%s' not found in encounter '%s'", combatantID, e.ID)
	}

	prev := e.ActiveCombatantID
	e.ActiveCombatantID = combatantID

	if _, err := e.AppendEvent(ids, EventTurnSet, TurnSetPayload{
		PreviousCombatantID: prev,
		ActiveCombatantID:   combatantID,
	}); err != nil {
		return nil, err
	}

	return &TurnState{
		PreviousCombatantID: prev,
		ActiveCombatantID:   combatantID,
		Round:               e.Round,
	}, nil
}
