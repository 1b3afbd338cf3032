package combat

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventAction tags an encounter event
type EventAction string

const (
	EventCombatantAdd      EventAction = "combatant.add"
	EventCombatantUpdate   EventAction = "combatant.update"
	EventCombatantRemove   EventAction = "combatant.remove"
	EventDamage            EventAction = "hp.damage"
	EventHeal              EventAction = "hp.heal"
	EventConditionAdd      EventAction = "condition.add"
	EventConditionUpdate   EventAction = "condition.update"
	EventConditionRemove   EventAction = "condition.remove"
	EventConditionExpire   EventAction = "condition.expire"
	EventInitiativeRoll    EventAction = "initiative.roll"
	EventInitiativeReorder EventAction = "initiative.reorder"
	EventTurnAdvance       EventAction = "turn.advance"
	EventTurnSet           EventAction = "turn.set"
	EventEncounterEnd      EventAction = "encounter.end"
	EventNote              EventAction = "note"
)

// Event is an immutable, append-only record of one runtime mutation.
// Seq is strictly increasing per encounter and is the ordering key.
type Event struct {
	ID          string          `json:"id"`
	EncounterID string          `json:"encounter_id"`
	Seq         int             `json:"seq"`
	Action      EventAction     `json:"action"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// DecodePayload unmarshals the event payload into v
func (ev *Event) DecodePayload(v any) error {
	if len(ev.Payload) == 0 {
		return fmt.Errorf("event %s has no payload", ev.ID)
	}
	return json.Unmarshal(ev.Payload, v)
}

// DamagePayload records a hp.damage event
type DamagePayload struct {
	CombatantID string         `json:"combatant_id"`
	Amount      int            `json:"amount"`
	Absorbed    int            `json:"absorbed"`
	Remainder   int            `json:"remainder"`
	HP          int            `json:"hp"`
	TempHP      int            `json:"temp_hp"`
	Defeated    bool           `json:"defeated,omitempty"`
	Meta        map[string]any `json:"meta,omitempty"`
}

// HealPayload records a hp.heal event
type HealPayload struct {
	CombatantID string         `json:"combatant_id"`
	Amount      int            `json:"amount"`
	Healed      int            `json:"healed"`
	HP          int            `json:"hp"`
	Meta        map[string]any `json:"meta,omitempty"`
}

// ConditionPayload records condition.add/update/remove/expire events
type ConditionPayload struct {
	CombatantID    string `json:"combatant_id"`
	ConditionID    string `json:"condition_id"`
	Label          string `json:"label"`
	DurationRounds *int   `json:"duration_rounds,omitempty"`
	AppliedAtRound int    `json:"applied_at_round"`
	ExpiresAtRound *int   `json:"expires_at_round,omitempty"`
}

// InitiativeEntry is one combatant's place in a rolled order
type InitiativeEntry struct {
	CombatantID string `json:"combatant_id"`
	Name        string `json:"name"`
	Score       int    `json:"score"`
	TurnOrder   int    `json:"turn_order"`
}

// InitiativePayload records an initiative.roll event with the full order
type InitiativePayload struct {
	Mode  string            `json:"mode"`
	Order []InitiativeEntry `json:"order"`
}

// ReorderPayload records an initiative.reorder event
type ReorderPayload struct {
	Order []string `json:"order"`
}

// TurnAdvancePayload records turn.advance events
type TurnAdvancePayload struct {
	PreviousCombatantID string `json:"previous_combatant_id,omitempty"`
	ActiveCombatantID   string `json:"active_combatant_id,omitempty"`
	Round               int    `json:"round"`
	RoundAdvanced       bool   `json:"round_advanced,omitempty"`
}

// TurnSetPayload records turn.set events
type TurnSetPayload struct {
	PreviousCombatantID string `json:"previous_combatant_id,omitempty"`
	ActiveCombatantID   string `json:"active_combatant_id"`
}

// CombatantPayload records combatant.add/update/remove events
type CombatantPayload struct {
	CombatantID string        `json:"combatant_id"`
	Name        string        `json:"name"`
	Kind        CombatantKind `json:"kind"`
}

// EncounterEndPayload records encounter.end events
type EncounterEndPayload struct {
	Round         int `json:"round"`
	DefeatedCount int `json:"defeated_count"`
}

// NotePayload records free-form note events
type NotePayload struct {
	Text string `json:"text"`
}
