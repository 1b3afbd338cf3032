package combat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/greyhelm/tablekeep/internal/domain/combat"
)

func TestApplyDamage_TempHPAbsorbsFirst(t *testing.T) {
	c := &combat.Combatant{
		ID:        "goblin-1",
		Name:      "Goblin",
		Kind:      combat.CombatantKindMonster,
		MaxHP:     10,
		CurrentHP: 10,
		TempHP:    5,
	}

	absorbed, remainder := c.ApplyDamage(7)

	assert.Equal(t, 5, absorbed)
	assert.Equal(t, 2, remainder)
	assert.Equal(t, 0, c.TempHP)
	assert.Equal(t, 8, c.CurrentHP)
	assert.False(t, c.IsDefeated())
}

func TestApplyDamage_FullyAbsorbedByTempHP(t *testing.T) {
	c := &combat.Combatant{
		ID:        "pc-1",
		Name:      "Thorin",
		Kind:      combat.CombatantKindPC,
		MaxHP:     20,
		CurrentHP: 20,
		TempHP:    8,
	}

	absorbed, remainder := c.ApplyDamage(3)

	assert.Equal(t, 3, absorbed)
	assert.Equal(t, 0, remainder)
	assert.Equal(t, 5, c.TempHP)
	assert.Equal(t, 20, c.CurrentHP)
}

func TestApplyDamage_ClampsAtZero(t *testing.T) {
	c := &combat.Combatant{
		ID:        "pc-1",
		Name:      "Thorin",
		Kind:      combat.CombatantKindPC,
		MaxHP:     12,
		CurrentHP: 4,
	}

	absorbed, remainder := c.ApplyDamage(100)

	assert.Equal(t, 0, absorbed)
	assert.Equal(t, 100, remainder)
	assert.Equal(t, 0, c.CurrentHP)
	assert.True(t, c.IsDefeated())
}

func TestApplyDamage_ZeroAmountIsNoop(t *testing.T) {
	c := &combat.Combatant{
		ID:        "pc-1",
		Name:      "Thorin",
		Kind:      combat.CombatantKindPC,
		MaxHP:     12,
		CurrentHP: 7,
		TempHP:    2,
	}

	absorbed, remainder := c.ApplyDamage(0)

	assert.Equal(t, 0, absorbed)
	assert.Equal(t, 0, remainder)
	assert.Equal(t, 7, c.CurrentHP)
	assert.Equal(t, 2, c.TempHP)
}

func TestApplyHeal_ClampsAtMaxHP(t *testing.T) {
	c := &combat.Combatant{
		ID:        "pc-1",
		Name:      "Mira",
		Kind:      combat.CombatantKindPC,
		MaxHP:     15,
		CurrentHP: 12,
	}

	healed := c.ApplyHeal(10)

	assert.Equal(t, 3, healed)
	assert.Equal(t, 15, c.CurrentHP)
}

func TestApplyHeal_ClearsDefeatedState(t *testing.T) {
	c := &combat.Combatant{
		ID:        "pc-1",
		Name:      "Mira",
		Kind:      combat.CombatantKindPC,
		MaxHP:     15,
		CurrentHP: 0,
	}

	assert.True(t, c.IsDefeated())

	healed := c.ApplyHeal(5)

	assert.Equal(t, 5, healed)
	assert.Equal(t, 5, c.CurrentHP)
	assert.False(t, c.IsDefeated())
}

func TestApplyHeal_DoesNotRestoreTempHP(t *testing.T) {
	c := &combat.Combatant{
		ID:        "pc-1",
		Name:      "Mira",
		Kind:      combat.CombatantKindPC,
		MaxHP:     15,
		CurrentHP: 10,
		TempHP:    0,
	}

	c.ApplyHeal(2)

	assert.Equal(t, 12, c.CurrentHP)
	assert.Equal(t, 0, c.TempHP)
}

func TestCombatantKind_Valid(t *testing.T) {
	assert.True(t, combat.CombatantKindPC.Valid())
	assert.True(t, combat.CombatantKindNPC.Valid())
	assert.True(t, combat.CombatantKindMonster.Valid())
	assert.False(t, combat.CombatantKind("dragon").Valid())
	assert.False(t, combat.CombatantKind("").Valid())
}
