package combat

// Condition is a timed status effect attached to a combatant.
// A nil DurationRounds means the condition is indefinite; otherwise
// ExpiresAtRound = AppliedAtRound + DurationRounds and the condition is
// swept once the encounter round reaches that value.
type Condition struct {
	ID             string `json:"id"`
	CombatantID    string `json:"combatant_id"`
	Label          string `json:"label"`
	DurationRounds *int   `json:"duration_rounds,omitempty"`
	AppliedAtRound int    `json:"applied_at_round"`
	ExpiresAtRound *int   `json:"expires_at_round,omitempty"`
}

// expired reports whether the condition should be swept at the given round
func (c *Condition) expired(round int) bool {
	return c.ExpiresAtRound != nil && *c.ExpiresAtRound <= round
}

// recomputeExpiry derives ExpiresAtRound from the original applied round
func (c *Condition) recomputeExpiry() {
	if c.DurationRounds == nil {
		c.ExpiresAtRound = nil
		return
	}
	expires := c.AppliedAtRound + *c.DurationRounds
	c.ExpiresAtRound = &expires
}

func (c *Condition) payload() ConditionPayload {
	return ConditionPayload{
		CombatantID:    c.CombatantID,
		ConditionID:    c.ID,
		Label:          c.Label,
		DurationRounds: c.DurationRounds,
		AppliedAtRound: c.AppliedAtRound,
		ExpiresAtRound: c.ExpiresAtRound,
	}
}
