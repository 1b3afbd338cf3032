package encounter_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greyhelm/tablekeep/internal/domain/combat"
	apperr "github.com/greyhelm/tablekeep/internal/errors"
	"github.com/greyhelm/tablekeep/internal/repositories/campaigns"
	"github.com/greyhelm/tablekeep/internal/repositories/encounters"
	"github.com/greyhelm/tablekeep/internal/services/campaign"
	"github.com/greyhelm/tablekeep/internal/services/encounter"
)

// newCombatTable wires the service onto in-memory stores with a GM and a
// player already enrolled in camp-1
func newCombatTable(t *testing.T) encounter.Service {
	t.Helper()
	ctx := context.Background()

	campaignRepo := campaigns.NewInMemoryRepository()
	require.NoError(t, campaignRepo.SetMember(ctx, &campaigns.Member{
		CampaignID: "camp-1", UserID: "gm-1", Role: campaigns.RoleGM,
	}))
	require.NoError(t, campaignRepo.SetMember(ctx, &campaigns.Member{
		CampaignID: "camp-1", UserID: "player-1", Role: campaigns.RolePlayer,
	}))

	return encounter.NewService(&encounter.ServiceConfig{
		Repository: encounters.NewInMemoryRepository(),
		Resolver:   campaign.NewResolver(&campaign.ResolverConfig{Repository: campaignRepo}),
	})
}

func TestCombatFlow_FullEncounter(t *testing.T) {
	ctx := context.Background()
	svc := newCombatTable(t)

	enc, err := svc.CreateEncounter(ctx, &encounter.CreateEncounterInput{
		CampaignID: "camp-1",
		Name:       "Bridge Skirmish",
		UserID:     "gm-1",
	})
	require.NoError(t, err)

	a, err := svc.AddCombatant(ctx, enc.ID, "gm-1", &encounter.AddCombatantInput{
		Name: "Aria", Kind: combat.CombatantKindPC, MaxHP: 12,
	})
	require.NoError(t, err)
	b, err := svc.AddCombatant(ctx, enc.ID, "gm-1", &encounter.AddCombatantInput{
		Name: "Brute", Kind: combat.CombatantKindMonster, MaxHP: 30,
	})
	require.NoError(t, err)

	// Manual initiative: Aria 15, Brute 10
	order, err := svc.RollInitiative(ctx, enc.ID, "gm-1", &encounter.RollInitiativeInput{
		Mode:   encounter.InitiativeModeManual,
		Scores: map[string]int{a.ID: 15, b.ID: 10},
	})
	require.NoError(t, err)
	require.Len(t, order, 2)
	assert.Equal(t, a.ID, order[0].ID)
	assert.Equal(t, b.ID, order[1].ID)

	loaded, err := svc.GetEncounter(ctx, enc.ID, "player-1")
	require.NoError(t, err)
	assert.Equal(t, combat.EncounterStatusActive, loaded.Status)
	assert.Equal(t, 1, loaded.Round)
	assert.Equal(t, a.ID, loaded.ActiveCombatantID)

	// Aria takes 12 damage and drops
	hit, err := svc.ApplyDamage(ctx, enc.ID, a.ID, "gm-1", &encounter.VitalityInput{Amount: 12})
	require.NoError(t, err)
	assert.Equal(t, 0, hit.CurrentHP)
	assert.True(t, hit.IsDefeated())

	// Turn passes to Brute, then wraps back to Aria in round 2
	state, err := svc.AdvanceTurn(ctx, enc.ID, "gm-1")
	require.NoError(t, err)
	assert.Equal(t, b.ID, state.ActiveCombatantID)
	assert.Equal(t, 1, state.Round)

	state, err = svc.AdvanceTurn(ctx, enc.ID, "gm-1")
	require.NoError(t, err)
	assert.Equal(t, a.ID, state.ActiveCombatantID)
	assert.Equal(t, 2, state.Round)
	assert.True(t, state.RoundAdvanced)

	// Healing 5 brings Aria back up
	healed, err := svc.ApplyHeal(ctx, enc.ID, a.ID, "gm-1", &encounter.VitalityInput{Amount: 5})
	require.NoError(t, err)
	assert.Equal(t, 5, healed.CurrentHP)
	assert.False(t, healed.IsDefeated())

	summary, err := svc.GetSummary(ctx, enc.ID, "player-1")
	require.NoError(t, err)
	assert.Equal(t, combat.EncounterStatusActive, summary.Status)
	assert.Equal(t, 2, summary.Round)
	assert.Equal(t, 12, summary.TotalDamage)
	assert.Equal(t, 5, summary.TotalHealing)
	assert.Equal(t, 0, summary.DefeatedCount)

	// Reading the summary again reports identical totals
	again, err := svc.GetSummary(ctx, enc.ID, "player-1")
	require.NoError(t, err)
	assert.Equal(t, summary, again)
}

func TestCombatFlow_ConditionExpiresAcrossRounds(t *testing.T) {
	ctx := context.Background()
	svc := newCombatTable(t)

	enc, err := svc.CreateEncounter(ctx, &encounter.CreateEncounterInput{
		CampaignID: "camp-1", Name: "Swamp Fight", UserID: "gm-1",
	})
	require.NoError(t, err)

	a, err := svc.AddCombatant(ctx, enc.ID, "gm-1", &encounter.AddCombatantInput{
		Name: "Aria", Kind: combat.CombatantKindPC, MaxHP: 12,
	})
	require.NoError(t, err)

	_, err = svc.RollInitiative(ctx, enc.ID, "gm-1", &encounter.RollInitiativeInput{
		Mode:   encounter.InitiativeModeManual,
		Scores: map[string]int{a.ID: 10},
	})
	require.NoError(t, err)

	duration := 2
	cond, err := svc.AddCondition(ctx, enc.ID, a.ID, "gm-1", &encounter.ConditionInput{
		Label:          "Poisoned",
		DurationRounds: &duration,
	})
	require.NoError(t, err)
	require.NotNil(t, cond.ExpiresAtRound)
	assert.Equal(t, 3, *cond.ExpiresAtRound)

	// One combatant wraps every advance: rounds 2 then 3
	state, err := svc.AdvanceTurn(ctx, enc.ID, "gm-1")
	require.NoError(t, err)
	require.Equal(t, 2, state.Round)
	assert.Empty(t, state.ExpiredConditions)

	state, err = svc.AdvanceTurn(ctx, enc.ID, "gm-1")
	require.NoError(t, err)
	require.Equal(t, 3, state.Round)
	require.Len(t, state.ExpiredConditions, 1)
	assert.Equal(t, "Poisoned", state.ExpiredConditions[0].Label)

	loaded, err := svc.GetEncounter(ctx, enc.ID, "gm-1")
	require.NoError(t, err)
	assert.Empty(t, loaded.CombatantByID(a.ID).Conditions)
	assert.Equal(t, combat.EventConditionExpire, loaded.Events[len(loaded.Events)-1].Action)
}

func TestCombatFlow_PlayerCannotManage(t *testing.T) {
	ctx := context.Background()
	svc := newCombatTable(t)

	enc, err := svc.CreateEncounter(ctx, &encounter.CreateEncounterInput{
		CampaignID: "camp-1", Name: "Bridge Skirmish", UserID: "gm-1",
	})
	require.NoError(t, err)

	_, err = svc.AddCombatant(ctx, enc.ID, "player-1", &encounter.AddCombatantInput{
		Name: "Sneaky", Kind: combat.CombatantKindPC, MaxHP: 10,
	})
	assert.True(t, apperr.IsPermissionDenied(err))

	_, err = svc.AdvanceTurn(ctx, enc.ID, "player-1")
	assert.True(t, apperr.IsPermissionDenied(err))

	err = svc.DeleteEncounter(ctx, enc.ID, "player-1")
	assert.True(t, apperr.IsPermissionDenied(err))
}

func TestCombatFlow_StrangerCannotView(t *testing.T) {
	ctx := context.Background()
	svc := newCombatTable(t)

	enc, err := svc.CreateEncounter(ctx, &encounter.CreateEncounterInput{
		CampaignID: "camp-1", Name: "Bridge Skirmish", UserID: "gm-1",
	})
	require.NoError(t, err)

	_, err = svc.GetEncounter(ctx, enc.ID, "stranger")
	assert.True(t, apperr.IsPermissionDenied(err))

	_, err = svc.ListEncounters(ctx, "camp-1", "stranger")
	assert.True(t, apperr.IsPermissionDenied(err))
}

func TestCombatFlow_RemovingActiveCombatantAdvancesTurn(t *testing.T) {
	ctx := context.Background()
	svc := newCombatTable(t)

	enc, err := svc.CreateEncounter(ctx, &encounter.CreateEncounterInput{
		CampaignID: "camp-1", Name: "Bridge Skirmish", UserID: "gm-1",
	})
	require.NoError(t, err)

	a, err := svc.AddCombatant(ctx, enc.ID, "gm-1", &encounter.AddCombatantInput{
		Name: "Aria", Kind: combat.CombatantKindPC, MaxHP: 12,
	})
	require.NoError(t, err)
	b, err := svc.AddCombatant(ctx, enc.ID, "gm-1", &encounter.AddCombatantInput{
		Name: "Brute", Kind: combat.CombatantKindMonster, MaxHP: 30,
	})
	require.NoError(t, err)

	_, err = svc.RollInitiative(ctx, enc.ID, "gm-1", &encounter.RollInitiativeInput{
		Mode:   encounter.InitiativeModeManual,
		Scores: map[string]int{a.ID: 15, b.ID: 10},
	})
	require.NoError(t, err)

	require.NoError(t, svc.RemoveCombatant(ctx, enc.ID, a.ID, "gm-1"))

	loaded, err := svc.GetEncounter(ctx, enc.ID, "gm-1")
	require.NoError(t, err)
	assert.Equal(t, b.ID, loaded.ActiveCombatantID)
	assert.Equal(t, 1, loaded.Round)
	assert.True(t, loaded.CombatantByID(a.ID).IsRemoved)
}

func TestCombatFlow_EndingFreezesTheEncounter(t *testing.T) {
	ctx := context.Background()
	svc := newCombatTable(t)

	enc, err := svc.CreateEncounter(ctx, &encounter.CreateEncounterInput{
		CampaignID: "camp-1", Name: "Bridge Skirmish", UserID: "gm-1",
	})
	require.NoError(t, err)

	a, err := svc.AddCombatant(ctx, enc.ID, "gm-1", &encounter.AddCombatantInput{
		Name: "Aria", Kind: combat.CombatantKindPC, MaxHP: 12,
	})
	require.NoError(t, err)

	_, err = svc.RollInitiative(ctx, enc.ID, "gm-1", &encounter.RollInitiativeInput{
		Mode:   encounter.InitiativeModeManual,
		Scores: map[string]int{a.ID: 15},
	})
	require.NoError(t, err)

	_, err = svc.ApplyDamage(ctx, enc.ID, a.ID, "gm-1", &encounter.VitalityInput{Amount: 4})
	require.NoError(t, err)

	// Players cannot end the encounter
	_, err = svc.EndEncounter(ctx, enc.ID, "player-1")
	assert.True(t, apperr.IsPermissionDenied(err))

	ended, err := svc.EndEncounter(ctx, enc.ID, "gm-1")
	require.NoError(t, err)
	assert.Equal(t, combat.EncounterStatusCompleted, ended.Status)
	assert.Empty(t, ended.ActiveCombatantID)

	// Completed encounters reject further combat mutations
	_, err = svc.ApplyDamage(ctx, enc.ID, a.ID, "gm-1", &encounter.VitalityInput{Amount: 1})
	assert.True(t, apperr.IsConflict(err))
	_, err = svc.RollInitiative(ctx, enc.ID, "gm-1", &encounter.RollInitiativeInput{
		Mode:   encounter.InitiativeModeManual,
		Scores: map[string]int{a.ID: 9},
	})
	assert.True(t, apperr.IsConflict(err))
	_, err = svc.EndEncounter(ctx, enc.ID, "gm-1")
	assert.True(t, apperr.IsConflict(err))

	// The log and summary stay readable
	summary, err := svc.GetSummary(ctx, enc.ID, "player-1")
	require.NoError(t, err)
	assert.Equal(t, combat.EncounterStatusCompleted, summary.Status)
	assert.Equal(t, 4, summary.TotalDamage)
}

func TestCombatFlow_SummaryCountsRemovedCombatantEvents(t *testing.T) {
	ctx := context.Background()
	svc := newCombatTable(t)

	enc, err := svc.CreateEncounter(ctx, &encounter.CreateEncounterInput{
		CampaignID: "camp-1", Name: "Bridge Skirmish", UserID: "gm-1",
	})
	require.NoError(t, err)

	a, err := svc.AddCombatant(ctx, enc.ID, "gm-1", &encounter.AddCombatantInput{
		Name: "Aria", Kind: combat.CombatantKindPC, MaxHP: 12,
	})
	require.NoError(t, err)
	b, err := svc.AddCombatant(ctx, enc.ID, "gm-1", &encounter.AddCombatantInput{
		Name: "Brute", Kind: combat.CombatantKindMonster, MaxHP: 30,
	})
	require.NoError(t, err)

	_, err = svc.RollInitiative(ctx, enc.ID, "gm-1", &encounter.RollInitiativeInput{
		Mode:   encounter.InitiativeModeManual,
		Scores: map[string]int{a.ID: 15, b.ID: 10},
	})
	require.NoError(t, err)

	_, err = svc.ApplyDamage(ctx, enc.ID, b.ID, "gm-1", &encounter.VitalityInput{Amount: 9})
	require.NoError(t, err)
	require.NoError(t, svc.RemoveCombatant(ctx, enc.ID, b.ID, "gm-1"))

	summary, err := svc.GetSummary(ctx, enc.ID, "gm-1")
	require.NoError(t, err)
	assert.Equal(t, 9, summary.TotalDamage, "events from removed combatants stay in the totals")
}
