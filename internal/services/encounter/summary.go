package encounter

import (
	"context"

	"github.com/greyhelm/tablekeep/internal/domain/combat"
	apperr "github.com/greyhelm/tablekeep/internal/errors"
)

// Summary is a pure read-side aggregation of an encounter's event log.
// Calling it twice with no intervening mutation returns identical values.
type Summary struct {
	EncounterID   string                 `json:"encounter_id"`
	Status        combat.EncounterStatus `json:"status"`
	Round         int                    `json:"round"`
	EventCount    int                    `json:"event_count"`
	TotalDamage   int                    `json:"total_damage"`
	TotalHealing  int                    `json:"total_healing"`
	DefeatedCount int                    `json:"defeated_count"`
}

// GetSummary scans the event log and reports totals. It never mutates state;
// removed combatants keep their contribution because events are immutable
// history.
func (s *service) GetSummary(ctx context.Context, encounterID, userID string) (*Summary, error) {
	encounter, err := s.load(ctx, encounterID, userID)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		EncounterID:   encounter.ID,
		Status:        encounter.Status,
		Round:         encounter.Round,
		EventCount:    len(encounter.Events),
		DefeatedCount: encounter.DefeatedCount(),
	}

	for _, ev := range encounter.Events {
		switch ev.Action {
		case combat.EventDamage:
			var payload combat.DamagePayload
			if err := ev.DecodePayload(&payload); err != nil {
				return nil, apperr.Wrapf(err, "failed to decode event %d", ev.Seq)
			}
			summary.TotalDamage += payload.Amount
		case combat.EventHeal:
			var payload combat.HealPayload
			if err := ev.DecodePayload(&payload); err != nil {
				return nil, apperr.Wrapf(err, "failed to decode event %d", ev.Seq)
			}
			summary.TotalHealing += payload.Amount
		}
	}

	return summary, nil
}
