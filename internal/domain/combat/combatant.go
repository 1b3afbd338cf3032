package combat

// CombatantKind represents the type of combatant
type CombatantKind string

const (
	CombatantKindPC      CombatantKind = "pc"
	CombatantKindNPC     CombatantKind = "npc"
	CombatantKindMonster CombatantKind = "monster"
)

// Valid reports whether k is a known combatant kind
func (k CombatantKind) Valid() bool {
	switch k {
	case CombatantKindPC, CombatantKindNPC, CombatantKindMonster:
		return true
	}
	return false
}

// Combatant is a participant in an encounter.
// Invariant: 0 <= CurrentHP <= MaxHP. TurnOrder ranks are dense and unique
// among non-removed combatants of the same encounter.
type Combatant struct {
	ID          string        `json:"id"`
	EncounterID string        `json:"encounter_id"`
	Name        string        `json:"name"`
	Kind        CombatantKind `json:"kind"`
	MaxHP       int           `json:"max_hp"`
	CurrentHP   int           `json:"current_hp"`
	TempHP      int           `json:"temp_hp"`

	// Initiative is nil until initiative has been rolled or set
	Initiative         *int `json:"initiative,omitempty"`
	InitiativeTiebreak int  `json:"initiative_tiebreak"`
	TurnOrder          int  `json:"turn_order"`

	// IsRemoved soft-deletes the combatant: excluded from turn order,
	// retained for event history
	IsRemoved bool `json:"is_removed,omitempty"`

	// MonsterRef points at the SRD monster template this combatant was
	// created from, when any
	MonsterRef string `json:"monster_ref,omitempty"`

	Conditions []*Condition `json:"conditions,omitempty"`
}

// IsDefeated reports whether the combatant is at zero hit points
func (c *Combatant) IsDefeated() bool {
	return c.CurrentHP == 0
}

// ApplyDamage absorbs damage with temporary hit points first, then reduces
// current HP with a floor of zero. Returns the absorbed/remainder split.
// Excess beyond current HP is discarded, never carried over.
func (c *Combatant) ApplyDamage(amount int) (absorbed, remainder int) {
	absorbed = amount
	if c.TempHP < absorbed {
		absorbed = c.TempHP
	}
	c.TempHP -= absorbed

	remainder = amount - absorbed
	c.CurrentHP -= remainder
	if c.CurrentHP < 0 {
		c.CurrentHP = 0
	}
	return absorbed, remainder
}

// ApplyHeal raises current HP, clamped at MaxHP. Returns the effective amount
// restored. Healing above zero clears the defeated state by construction.
func (c *Combatant) ApplyHeal(amount int) (healed int) {
	before := c.CurrentHP
	c.CurrentHP += amount
	if c.CurrentHP > c.MaxHP {
		c.CurrentHP = c.MaxHP
	}
	return c.CurrentHP - before
}

// ConditionByID finds a condition attached to this combatant
func (c *Combatant) ConditionByID(conditionID string) *Condition {
	for _, cond := range c.Conditions {
		if cond.ID == conditionID {
			return cond
		}
	}
	return nil
}

func (c *Combatant) removeCondition(conditionID string) bool {
	for i, cond := range c.Conditions {
		if cond.ID == conditionID {
			c.Conditions = append(c.Conditions[:i], c.Conditions[i+1:]...)
			return true
		}
	}
	return false
}
