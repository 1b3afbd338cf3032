package combat

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	apperr "github.com/greyhelm/tablekeep/internal/errors"
)

// EncounterStatus represents the lifecycle state of an encounter
type EncounterStatus string

const (
	EncounterStatusDraft     EncounterStatus = "draft"     // Set up, initiative not yet rolled
	EncounterStatusActive    EncounterStatus = "active"    // Combat in progress
	EncounterStatusCompleted EncounterStatus = "completed" // Encounter finished
)

// IDSource supplies ids for entities created inside aggregate operations.
// uuid.Generator satisfies it.
type IDSource interface {
	New() string
}

// Encounter is the root aggregate of the combat runtime. It exclusively owns
// its combatants, their conditions, and its event log; all mutations go
// through one load-mutate-persist cycle scoped to a single encounter.
//
// Invariants:
//   - ActiveCombatantID, when set, references a non-removed combatant
//   - Round is 0 before combat starts and >= 1 once initiative is rolled
//   - event Seq values are strictly increasing, assigned at append
type Encounter struct {
	ID         string          `json:"id"`
	CampaignID string          `json:"campaign_id"`
	Name       string          `json:"name"`
	Status     EncounterStatus `json:"status"`
	Round      int             `json:"round"`

	// ActiveCombatantID identifies whose turn it is; empty means none
	ActiveCombatantID string `json:"active_combatant_id,omitempty"`

	Combatants []*Combatant `json:"combatants"`
	Events     []*Event     `json:"events"`

	// Version backs the optimistic conflict check in the persistence port
	Version int `json:"version"`

	CreatedBy string     `json:"created_by"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

// NewEncounter creates a draft encounter with no combatants
func NewEncounter(id, campaignID, name, createdBy string) *Encounter {
	now := time.Now().UTC()
	return &Encounter{
		ID:         id,
		CampaignID: campaignID,
		Name:       name,
		Status:     EncounterStatusDraft,
		Round:      0,
		Combatants: []*Combatant{},
		Events:     []*Event{},
		CreatedBy:  createdBy,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// End concludes the encounter: status COMPLETED, active turn cleared, the end
// time recorded, one encounter.end event appended. A draft can be ended too;
// only ending twice conflicts.
func (e *Encounter) End(ids IDSource) error {
	if e.Status == EncounterStatusCompleted {
		return apperr.Conflictf("encounter '%s' is already completed", e.ID)
	}

	now := time.Now().UTC()
	e.Status = EncounterStatusCompleted
	e.EndedAt = &now
	e.ActiveCombatantID = ""

	_, err := e.AppendEvent(ids, EventEncounterEnd, EncounterEndPayload{
		Round:         e.Round,
		DefeatedCount: e.DefeatedCount(),
	})
	return err
}

// CombatantByID finds a combatant, removed or not
func (e *Encounter) CombatantByID(id string) *Combatant {
	for _, c := range e.Combatants {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// ActiveCombatants returns the non-removed combatants sorted by turn order
func (e *Encounter) ActiveCombatants() []*Combatant {
	active := make([]*Combatant, 0, len(e.Combatants))
	for _, c := range e.Combatants {
		if !c.IsRemoved {
			active = append(active, c)
		}
	}
	sort.Slice(active, func(i, j int) bool {
		return active[i].TurnOrder < active[j].TurnOrder
	})
	return active
}

// ActiveCombatant returns the combatant whose turn it is, or nil
func (e *Encounter) ActiveCombatant() *Combatant {
	if e.ActiveCombatantID == "" {
		return nil
	}
	c := e.CombatantByID(e.ActiveCombatantID)
	if c == nil || c.IsRemoved {
		return nil
	}
	return c
}

// DefeatedCount counts combatants at zero hit points, removed ones included
func (e *Encounter) DefeatedCount() int {
	n := 0
	for _, c := range e.Combatants {
		if c.IsDefeated() {
			n++
		}
	}
	return n
}

func (e *Encounter) nextSeq() int {
	if len(e.Events) == 0 {
		return 1
	}
	return e.Events[len(e.Events)-1].Seq + 1
}

// AppendEvent appends one immutable event to the log and returns it
func (e *Encounter) AppendEvent(ids IDSource, action EventAction, payload any) (*Event, error) {
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, apperr.Wrap(err, "failed to marshal event payload")
		}
		raw = data
	}

	ev := &Event{
		ID:          ids.New(),
		EncounterID: e.ID,
		Seq:         e.nextSeq(),
		Action:      action,
		Payload:     raw,
		CreatedAt:   time.Now().UTC(),
	}
	e.Events = append(e.Events, ev)
	return ev, nil
}

// AddCombatant inserts a combatant at full hit points, ranked after the
// current maximum turn order
func (e *Encounter) AddCombatant(ids IDSource, c *Combatant) error {
	if strings.TrimSpace(c.Name) == "" {
		return apperr.Validation("combatant name is required")
	}
	if c.MaxHP < 0 {
		return apperr.Validationf("max hp cannot be negative, got %d", c.MaxHP)
	}
	if !c.Kind.Valid() {
		return apperr.Validationf("unknown combatant kind %q", c.Kind)
	}

	c.EncounterID = e.ID
	c.CurrentHP = c.MaxHP
	c.IsRemoved = false

	maxOrder := 0
	for _, existing := range e.Combatants {
		if !existing.IsRemoved && existing.TurnOrder > maxOrder {
			maxOrder = existing.TurnOrder
		}
	}
	c.TurnOrder = maxOrder + 1

	e.Combatants = append(e.Combatants, c)
	_, err := e.AppendEvent(ids, EventCombatantAdd, CombatantPayload{
		CombatantID: c.ID,
		Name:        c.Name,
		Kind:        c.Kind,
	})
	return err
}

// UpdateCombatant edits display fields. Hit points and turn order are never
// changed here; those mutations go through the vitality and initiative
// operations so the event log stays complete.
func (e *Encounter) UpdateCombatant(ids IDSource, combatantID string, name *string, kind *CombatantKind) (*Combatant, error) {
	c := e.CombatantByID(combatantID)
	if c == nil || c.IsRemoved {
		return nil, apperr.NotFoundf("combatant '%s' not found in encounter '%s'", combatantID, e.ID)
	}

	if name != nil {
		if strings.TrimSpace(*name) == "" {
			return nil, apperr.Validation("combatant name is required")
		}
		c.Name = *name
	}
	if kind != nil {
		if !kind.Valid() {
			return nil, apperr.Validationf("unknown combatant kind %q", *kind)
		}
		c.Kind = *kind
	}

	_, err := e.AppendEvent(ids, EventCombatantUpdate, CombatantPayload{
		CombatantID: c.ID,
		Name:        c.Name,
		Kind:        c.Kind,
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// RemoveCombatant soft-deletes a combatant, compacts the remaining turn order
// ranks, and advances the turn if the removed combatant was active, so the
// aggregate never points its active turn at a removed entity.
func (e *Encounter) RemoveCombatant(ids IDSource, combatantID string) error {
	c := e.CombatantByID(combatantID)
	if c == nil || c.IsRemoved {
		return apperr.NotFoundf("combatant '%s' not found in encounter '%s'", combatantID, e.ID)
	}

	wasActive := e.ActiveCombatantID == combatantID
	removedIdx := -1
	for i, cc := range e.ActiveCombatants() {
		if cc.ID == combatantID {
			removedIdx = i
			break
		}
	}

	c.IsRemoved = true
	for i, cc := range e.ActiveCombatants() {
		cc.TurnOrder = i + 1
	}

	if _, err := e.AppendEvent(ids, EventCombatantRemove, CombatantPayload{
		CombatantID: c.ID,
		Name:        c.Name,
		Kind:        c.Kind,
	}); err != nil {
		return err
	}

	if !wasActive {
		return nil
	}

	remaining := e.ActiveCombatants()
	if len(remaining) == 0 {
		e.ActiveCombatantID = ""
		return nil
	}

	// The combatant that followed the removed one now occupies its index;
	// removing the last in order wraps to a new round, exactly as a normal
	// turn advance would.
	nextIdx := removedIdx
	wrapped := false
	if nextIdx >= len(remaining) {
		nextIdx = 0
		wrapped = true
	}

	e.ActiveCombatantID = remaining[nextIdx].ID
	if wrapped {
		e.Round++
	}

	if _, err := e.AppendEvent(ids, EventTurnAdvance, TurnAdvancePayload{
		PreviousCombatantID: combatantID,
		ActiveCombatantID:   e.ActiveCombatantID,
		Round:               e.Round,
		RoundAdvanced:       wrapped,
	}); err != nil {
		return err
	}

	if wrapped {
		if _, err := e.sweepExpiredConditions(ids); err != nil {
			return err
		}
	}
	return nil
}

// ApplyDamage routes damage through temp HP, clamps at zero, and records the
// split in an hp.damage event
func (e *Encounter) ApplyDamage(ids IDSource, combatantID string, amount int, meta map[string]any) (*Combatant, error) {
	if amount < 0 {
		return nil, apperr.Validationf("damage amount cannot be negative, got %d", amount)
	}
	if e.Status != EncounterStatusActive {
		return nil, apperr.Conflictf("encounter '%s' is not active", e.ID)
	}

	c := e.CombatantByID(combatantID)
	if c == nil || c.IsRemoved {
		return nil, apperr.NotFoundf("combatant '%s' not found in encounter '%s'", combatantID, e.ID)
	}

	absorbed, remainder := c.ApplyDamage(amount)
	_, err := e.AppendEvent(ids, EventDamage, DamagePayload{
		CombatantID: c.ID,
		Amount:      amount,
		Absorbed:    absorbed,
		Remainder:   remainder,
		HP:          c.CurrentHP,
		TempHP:      c.TempHP,
		Defeated:    c.IsDefeated(),
		Meta:        meta,
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ApplyHeal raises hit points, clamped at the maximum, and records an
// hp.heal event
func (e *Encounter) ApplyHeal(ids IDSource, combatantID string, amount int, meta map[string]any) (*Combatant, error) {
	if amount < 0 {
		return nil, apperr.Validationf("heal amount cannot be negative, got %d", amount)
	}
	if e.Status != EncounterStatusActive {
		return nil, apperr.Conflictf("encounter '%s' is not active", e.ID)
	}

	c := e.CombatantByID(combatantID)
	if c == nil || c.IsRemoved {
		return nil, apperr.NotFoundf("combatant '%s' not found in encounter '%s'", combatantID, e.ID)
	}

	healed := c.ApplyHeal(amount)
	_, err := e.AppendEvent(ids, EventHeal, HealPayload{
		CombatantID: c.ID,
		Amount:      amount,
		Healed:      healed,
		HP:          c.CurrentHP,
		Meta:        meta,
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// AddCondition attaches a timed status effect to a combatant. A nil duration
// means the condition lasts until removed.
func (e *Encounter) AddCondition(ids IDSource, combatantID, label string, durationRounds *int) (*Condition, error) {
	if strings.TrimSpace(label) == "" {
		return nil, apperr.Validation("condition label is required")
	}
	if durationRounds != nil && *durationRounds < 0 {
		return nil, apperr.Validationf("condition duration cannot be negative, got %d", *durationRounds)
	}

	c := e.CombatantByID(combatantID)
	if c == nil || c.IsRemoved {
		return nil, apperr.NotFoundf("combatant '%s' not found in encounter '%s'", combatantID, e.ID)
	}

	cond := &Condition{
		ID:             ids.New(),
		CombatantID:    c.ID,
		Label:          label,
		DurationRounds: durationRounds,
		AppliedAtRound: e.Round,
	}
	cond.recomputeExpiry()
	c.Conditions = append(c.Conditions, cond)

	if _, err := e.AppendEvent(ids, EventConditionAdd, cond.payload()); err != nil {
		return nil, err
	}
	return cond, nil
}

// UpdateCondition changes a condition's label or duration. Expiry is
// recomputed from the round the condition was originally applied at.
func (e *Encounter) UpdateCondition(ids IDSource, combatantID, conditionID string, label *string, durationRounds *int, clearDuration bool) (*Condition, error) {
	c := e.CombatantByID(combatantID)
	if c == nil || c.IsRemoved {
		return nil, apperr.NotFoundf("combatant '%s' not found in encounter '%s'", combatantID, e.ID)
	}
	cond := c.ConditionByID(conditionID)
	if cond == nil {
		return nil, apperr.NotFoundf("condition '%s' not found on combatant '%s'", conditionID, combatantID)
	}

	if label != nil {
		if strings.TrimSpace(*label) == "" {
			return nil, apperr.Validation("condition label is required")
		}
		cond.Label = *label
	}
	if clearDuration {
		cond.DurationRounds = nil
	} else if durationRounds != nil {
		if *durationRounds < 0 {
			return nil, apperr.Validationf("condition duration cannot be negative, got %d", *durationRounds)
		}
		cond.DurationRounds = durationRounds
	}
	cond.recomputeExpiry()

	if _, err := e.AppendEvent(ids, EventConditionUpdate, cond.payload()); err != nil {
		return nil, err
	}
	return cond, nil
}

// RemoveCondition deletes a condition and records condition.remove
func (e *Encounter) RemoveCondition(ids IDSource, combatantID, conditionID string) error {
	c := e.CombatantByID(combatantID)
	if c == nil || c.IsRemoved {
		return apperr.NotFoundf("combatant '%s' not found in encounter '%s'", combatantID, e.ID)
	}
	cond := c.ConditionByID(conditionID)
	if cond == nil {
		return apperr.NotFoundf("condition '%s' not found on combatant '%s'", conditionID, combatantID)
	}

	c.removeCondition(conditionID)
	_, err := e.AppendEvent(ids, EventConditionRemove, cond.payload())
	return err
}

// sweepExpiredConditions removes every condition whose expiry round has been
// reached, in ascending condition id order for determinism, appending one
// condition.expire event each. Removed combatants are swept too so a timed
// effect never outlives its duration.
func (e *Encounter) sweepExpiredConditions(ids IDSource) ([]*Condition, error) {
	type holder struct {
		combatant *Combatant
		cond      *Condition
	}

	var expired []holder
	for _, c := range e.Combatants {
		for _, cond := range c.Conditions {
			if cond.expired(e.Round) {
				expired = append(expired, holder{combatant: c, cond: cond})
			}
		}
	}
	sort.Slice(expired, func(i, j int) bool {
		return expired[i].cond.ID < expired[j].cond.ID
	})

	removed := make([]*Condition, 0, len(expired))
	for _, h := range expired {
		h.combatant.removeCondition(h.cond.ID)
		if _, err := e.AppendEvent(ids, EventConditionExpire, h.cond.payload()); err != nil {
			return nil, err
		}
		removed = append(removed, h.cond)
	}
	return removed, nil
}
