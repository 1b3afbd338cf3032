package encounter

//go:generate mockgen -destination=mock/mock_service.go -package=mockencounter -source=service.go

import (
	"context"
	"strings"

	"github.com/greyhelm/tablekeep/internal/clients/dnd5e"
	"github.com/greyhelm/tablekeep/internal/dice"
	"github.com/greyhelm/tablekeep/internal/domain/combat"
	apperr "github.com/greyhelm/tablekeep/internal/errors"
	"github.com/greyhelm/tablekeep/internal/repositories/encounters"
	"github.com/greyhelm/tablekeep/internal/services/campaign"
	"github.com/greyhelm/tablekeep/internal/uuid"
)

// Initiative modes accepted by RollInitiative
const (
	InitiativeModeRandom = "random"
	InitiativeModeManual = "manual"
)

const initiativeDieSides = 20

// Service is the encounter runtime facade. Every operation runs as one
// load-mutate-persist cycle against a single encounter aggregate; a
// concurrent conflicting write surfaces as a CONFLICT error and is never
// retried here.
type Service interface {
	// CreateEncounter creates a draft encounter in a campaign
	CreateEncounter(ctx context.Context, input *CreateEncounterInput) (*combat.Encounter, error)

	// GetEncounter retrieves an encounter by ID
	GetEncounter(ctx context.Context, encounterID, userID string) (*combat.Encounter, error)

	// ListEncounters retrieves all encounters of a campaign
	ListEncounters(ctx context.Context, campaignID, userID string) ([]*combat.Encounter, error)

	// DeleteEncounter removes an encounter entirely
	DeleteEncounter(ctx context.Context, encounterID, userID string) error

	// AddCombatant inserts a combatant at full hit points
	AddCombatant(ctx context.Context, encounterID, userID string, input *AddCombatantInput) (*combat.Combatant, error)

	// UpdateCombatant edits a combatant's display fields
	UpdateCombatant(ctx context.Context, encounterID, combatantID, userID string, input *UpdateCombatantInput) (*combat.Combatant, error)

	// RemoveCombatant soft-deletes a combatant, advancing the turn if needed
	RemoveCombatant(ctx context.Context, encounterID, combatantID, userID string) error

	// ApplyDamage deals damage to a combatant, temp HP first
	ApplyDamage(ctx context.Context, encounterID, combatantID, userID string, input *VitalityInput) (*combat.Combatant, error)

	// ApplyHeal restores hit points, clamped at the maximum
	ApplyHeal(ctx context.Context, encounterID, combatantID, userID string, input *VitalityInput) (*combat.Combatant, error)

	// AddCondition attaches a timed status effect to a combatant
	AddCondition(ctx context.Context, encounterID, combatantID, userID string, input *ConditionInput) (*combat.Condition, error)

	// UpdateCondition edits a condition's label or duration
	UpdateCondition(ctx context.Context, encounterID, combatantID, conditionID, userID string, input *UpdateConditionInput) (*combat.Condition, error)

	// RemoveCondition deletes a condition
	RemoveCondition(ctx context.Context, encounterID, combatantID, conditionID, userID string) error

	// RollInitiative rolls or accepts initiative scores and starts combat
	RollInitiative(ctx context.Context, encounterID, userID string, input *RollInitiativeInput) ([]*combat.Combatant, error)

	// ReorderInitiative rewrites the turn order from an explicit permutation
	ReorderInitiative(ctx context.Context, encounterID, userID string, orderedIDs []string) ([]*combat.Combatant, error)

	// AdvanceTurn moves the active turn to the next combatant
	AdvanceTurn(ctx context.Context, encounterID, userID string) (*combat.TurnState, error)

	// SetActiveTurn force-sets the active turn pointer
	SetActiveTurn(ctx context.Context, encounterID, combatantID, userID string) (*combat.TurnState, error)

	// EndEncounter concludes an encounter, freezing it as COMPLETED
	EndEncounter(ctx context.Context, encounterID, userID string) (*combat.Encounter, error)

	// GetSummary aggregates the encounter's event log into a report
	GetSummary(ctx context.Context, encounterID, userID string) (*Summary, error)

	// AddNote appends a free-form note event
	AddNote(ctx context.Context, encounterID, userID, text string) (*combat.Event, error)
}

// CreateEncounterInput contains data for creating an encounter
type CreateEncounterInput struct {
	CampaignID string
	Name       string
	UserID     string
}

// AddCombatantInput contains data for adding a combatant
type AddCombatantInput struct {
	Name               string
	Kind               combat.CombatantKind
	MaxHP              int
	TempHP             int
	InitiativeTiebreak int

	// MonsterRef optionally names an SRD monster template; when set and no
	// explicit MaxHP is given, name and hit points come from the library
	MonsterRef string
}

// UpdateCombatantInput contains the editable combatant fields
type UpdateCombatantInput struct {
	Name *string
	Kind *combat.CombatantKind
}

// VitalityInput carries a damage or heal amount plus opaque ruleset metadata
type VitalityInput struct {
	Amount int
	Meta   map[string]any
}

// ConditionInput contains data for adding a condition
type ConditionInput struct {
	Label          string
	DurationRounds *int
}

// UpdateConditionInput contains the editable condition fields. ClearDuration
// makes the condition indefinite regardless of DurationRounds.
type UpdateConditionInput struct {
	Label          *string
	DurationRounds *int
	ClearDuration  bool
}

// RollInitiativeInput selects the initiative mode; Scores is required for
// manual mode and ignored otherwise
type RollInitiativeInput struct {
	Mode   string
	Scores map[string]int
}

type service struct {
	repository    encounters.Repository
	resolver      campaign.Resolver
	monsters      dnd5e.Client
	uuidGenerator uuid.Generator
	roller        dice.Roller
}

// ServiceConfig holds configuration for the service
type ServiceConfig struct {
	Repository encounters.Repository
	Resolver   campaign.Resolver

	// Monsters is optional; without it monster_ref lookups fail validation
	Monsters dnd5e.Client

	UUIDGenerator uuid.Generator
	Roller        dice.Roller
}

// NewService creates a new encounter runtime service
func NewService(cfg *ServiceConfig) Service {
	if cfg.Repository == nil {
		panic("repository is required")
	}
	if cfg.Resolver == nil {
		panic("permission resolver is required")
	}

	svc := &service{
		repository:    cfg.Repository,
		resolver:      cfg.Resolver,
		monsters:      cfg.Monsters,
		uuidGenerator: cfg.UUIDGenerator,
		roller:        cfg.Roller,
	}

	if svc.uuidGenerator == nil {
		svc.uuidGenerator = uuid.NewGoogleUUIDGenerator()
	}
	if svc.roller == nil {
		svc.roller = dice.NewRandomRoller()
	}

	return svc
}

// authorize resolves a permission for the user within a campaign
func (s *service) authorize(ctx context.Context, campaignID, userID, permission string) error {
	if strings.TrimSpace(userID) == "" {
		return apperr.Validation("user ID is required")
	}

	allowed, err := s.resolver.Allowed(ctx, campaignID, userID, permission)
	if err != nil {
		return apperr.Wrap(err, "failed to resolve permission")
	}
	if !allowed {
		return apperr.PermissionDenied("user lacks permission " + permission).
			WithMeta("campaign_id", campaignID).
			WithMeta("permission", permission)
	}
	return nil
}

// mutate runs one load-mutate-persist cycle against a single encounter
func (s *service) mutate(ctx context.Context, encounterID, userID string, fn func(e *combat.Encounter) error) (*combat.Encounter, error) {
	if strings.TrimSpace(encounterID) == "" {
		return nil, apperr.Validation("encounter ID is required")
	}

	encounter, err := s.repository.Get(ctx, encounterID)
	if err != nil {
		return nil, err
	}

	if err := s.authorize(ctx, encounter.CampaignID, userID, campaign.PermissionEncounterManage); err != nil {
		return nil, err
	}

	if err := fn(encounter); err != nil {
		return nil, err
	}

	if err := s.repository.Save(ctx, encounter); err != nil {
		return nil, err
	}
	return encounter, nil
}

// load fetches an encounter for a read-side operation
func (s *service) load(ctx context.Context, encounterID, userID string) (*combat.Encounter, error) {
	if strings.TrimSpace(encounterID) == "" {
		return nil, apperr.Validation("encounter ID is required")
	}

	encounter, err := s.repository.Get(ctx, encounterID)
	if err != nil {
		return nil, err
	}

	if err := s.authorize(ctx, encounter.CampaignID, userID, campaign.PermissionEncounterView); err != nil {
		return nil, err
	}
	return encounter, nil
}

// CreateEncounter creates a draft encounter in a campaign
func (s *service) CreateEncounter(ctx context.Context, input *CreateEncounterInput) (*combat.Encounter, error) {
	if input == nil {
		return nil, apperr.Validation("input cannot be nil")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, apperr.Validation("encounter name is required")
	}
	if strings.TrimSpace(input.CampaignID) == "" {
		return nil, apperr.Validation("campaign ID is required")
	}

	if err := s.authorize(ctx, input.CampaignID, input.UserID, campaign.PermissionEncounterManage); err != nil {
		return nil, err
	}

	encounter := combat.NewEncounter(s.uuidGenerator.New(), input.CampaignID, input.Name, input.UserID)
	if err := s.repository.Create(ctx, encounter); err != nil {
		return nil, apperr.Wrap(err, "failed to create encounter")
	}
	return encounter, nil
}

// GetEncounter retrieves an encounter by ID
func (s *service) GetEncounter(ctx context.Context, encounterID, userID string) (*combat.Encounter, error) {
	return s.load(ctx, encounterID, userID)
}

// ListEncounters retrieves all encounters of a campaign
func (s *service) ListEncounters(ctx context.Context, campaignID, userID string) ([]*combat.Encounter, error) {
	if strings.TrimSpace(campaignID) == "" {
		return nil, apperr.Validation("campaign ID is required")
	}

	if err := s.authorize(ctx, campaignID, userID, campaign.PermissionEncounterView); err != nil {
		return nil, err
	}
	return s.repository.ListByCampaign(ctx, campaignID)
}

// DeleteEncounter removes an encounter entirely
func (s *service) DeleteEncounter(ctx context.Context, encounterID, userID string) error {
	encounter, err := s.repository.Get(ctx, encounterID)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, encounter.CampaignID, userID, campaign.PermissionEncounterManage); err != nil {
		return err
	}
	return s.repository.Delete(ctx, encounterID)
}

// AddCombatant inserts a combatant at full hit points. A monster_ref with no
// explicit max HP fills the stats from the monster library; the lookup runs
// inside the mutation, after the permission check, so unauthorized callers
// never reach the library.
func (s *service) AddCombatant(ctx context.Context, encounterID, userID string, input *AddCombatantInput) (*combat.Combatant, error) {
	if input == nil {
		return nil, apperr.Validation("input cannot be nil")
	}

	var combatant *combat.Combatant
	_, err := s.mutate(ctx, encounterID, userID, func(e *combat.Encounter) error {
		name := input.Name
		maxHP := input.MaxHP
		kind := input.Kind

		if input.MonsterRef != "" && maxHP == 0 {
			if s.monsters == nil {
				return apperr.Validation("monster lookups are not configured")
			}
			template, err := s.monsters.GetMonster(input.MonsterRef)
			if err != nil {
				return apperr.Wrapf(err, "failed to look up monster '%s'", input.MonsterRef)
			}
			maxHP = template.HitPoints
			if name == "" {
				name = template.Name
			}
			if kind == "" {
				kind = combat.CombatantKindMonster
			}
		}

		combatant = &combat.Combatant{
			ID:                 s.uuidGenerator.New(),
			Name:               name,
			Kind:               kind,
			MaxHP:              maxHP,
			TempHP:             input.TempHP,
			InitiativeTiebreak: input.InitiativeTiebreak,
			MonsterRef:         input.MonsterRef,
		}
		return e.AddCombatant(s.uuidGenerator, combatant)
	})
	if err != nil {
		return nil, err
	}
	return combatant, nil
}

// UpdateCombatant edits a combatant's display fields
func (s *service) UpdateCombatant(ctx context.Context, encounterID, combatantID, userID string, input *UpdateCombatantInput) (*combat.Combatant, error) {
	if input == nil {
		return nil, apperr.Validation("input cannot be nil")
	}

	var combatant *combat.Combatant
	_, err := s.mutate(ctx, encounterID, userID, func(e *combat.Encounter) error {
		var err error
		combatant, err = e.UpdateCombatant(s.uuidGenerator, combatantID, input.Name, input.Kind)
		return err
	})
	if err != nil {
		return nil, err
	}
	return combatant, nil
}

// RemoveCombatant soft-deletes a combatant, advancing the turn if it was active
func (s *service) RemoveCombatant(ctx context.Context, encounterID, combatantID, userID string) error {
	_, err := s.mutate(ctx, encounterID, userID, func(e *combat.Encounter) error {
		return e.RemoveCombatant(s.uuidGenerator, combatantID)
	})
	return err
}

// ApplyDamage deals damage to a combatant, temp HP first
func (s *service) ApplyDamage(ctx context.Context, encounterID, combatantID, userID string, input *VitalityInput) (*combat.Combatant, error) {
	if input == nil {
		return nil, apperr.Validation("input cannot be nil")
	}

	var combatant *combat.Combatant
	_, err := s.mutate(ctx, encounterID, userID, func(e *combat.Encounter) error {
		var err error
		combatant, err = e.ApplyDamage(s.uuidGenerator, combatantID, input.Amount, input.Meta)
		return err
	})
	if err != nil {
		return nil, err
	}
	return combatant, nil
}

// ApplyHeal restores hit points, clamped at the maximum
func (s *service) ApplyHeal(ctx context.Context, encounterID, combatantID, userID string, input *VitalityInput) (*combat.Combatant, error) {
	if input == nil {
		return nil, apperr.Validation("input cannot be nil")
	}

	var combatant *combat.Combatant
	_, err := s.mutate(ctx, encounterID, userID, func(e *combat.Encounter) error {
		var err error
		combatant, err = e.ApplyHeal(s.uuidGenerator, combatantID, input.Amount, input.Meta)
		return err
	})
	if err != nil {
		return nil, err
	}
	return combatant, nil
}

// AddCondition attaches a timed status effect to a combatant
func (s *service) AddCondition(ctx context.Context, encounterID, combatantID, userID string, input *ConditionInput) (*combat.Condition, error) {
	if input == nil {
		return nil, apperr.Validation("input cannot be nil")
	}

	var condition *combat.Condition
	_, err := s.mutate(ctx, encounterID, userID, func(e *combat.Encounter) error {
		var err error
		condition, err = e.AddCondition(s.uuidGenerator, combatantID, input.Label, input.DurationRounds)
		return err
	})
	if err != nil {
		return nil, err
	}
	return condition, nil
}

// UpdateCondition edits a condition's label or duration
func (s *service) UpdateCondition(ctx context.Context, encounterID, combatantID, conditionID, userID string, input *UpdateConditionInput) (*combat.Condition, error) {
	if input == nil {
		return nil, apperr.Validation("input cannot be nil")
	}

	var condition *combat.Condition
	_, err := s.mutate(ctx, encounterID, userID, func(e *combat.Encounter) error {
		var err error
		condition, err = e.UpdateCondition(s.uuidGenerator, combatantID, conditionID, input.Label, input.DurationRounds, input.ClearDuration)
		return err
	})
	if err != nil {
		return nil, err
	}
	return condition, nil
}

// RemoveCondition deletes a condition
func (s *service) RemoveCondition(ctx context.Context, encounterID, combatantID, conditionID, userID string) error {
	_, err := s.mutate(ctx, encounterID, userID, func(e *combat.Encounter) error {
		return e.RemoveCondition(s.uuidGenerator, combatantID, conditionID)
	})
	return err
}

// RollInitiative rolls or accepts initiative scores, sorts the turn order,
// and starts combat
func (s *service) RollInitiative(ctx context.Context, encounterID, userID string, input *RollInitiativeInput) ([]*combat.Combatant, error) {
	if input == nil {
		return nil, apperr.Validation("input cannot be nil")
	}
	if input.Mode != InitiativeModeRandom && input.Mode != InitiativeModeManual {
		return nil, apperr.Validationf("unknown initiative mode %q", input.Mode)
	}

	var ordered []*combat.Combatant
	_, err := s.mutate(ctx, encounterID, userID, func(e *combat.Encounter) error {
		scores, err := s.initiativeScores(e, input)
		if err != nil {
			return err
		}
		ordered, err = e.ApplyInitiative(s.uuidGenerator, input.Mode, scores)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ordered, nil
}

// initiativeScores resolves the per-combatant scores for the requested mode
func (s *service) initiativeScores(e *combat.Encounter, input *RollInitiativeInput) (map[string]int, error) {
	active := e.ActiveCombatants()

	if input.Mode == InitiativeModeManual {
		if len(input.Scores) == 0 {
			return nil, apperr.Validation("manual initiative requires scores")
		}
		byID := make(map[string]bool, len(active))
		for _, c := range active {
			byID[c.ID] = true
		}
		for id := range input.Scores {
			if !byID[id] {
				return nil, apperr.Validationf("combatant '%s' is not an active combatant of this encounter", id)
			}
		}
		return input.Scores, nil
	}

	scores := make(map[string]int, len(active))
	for _, c := range active {
		result, err := s.roller.Roll(1, initiativeDieSides, c.InitiativeTiebreak)
		if err != nil {
			return nil, apperr.Wrap(err, "failed to roll initiative")
		}
		scores[c.ID] = result.Total
	}
	return scores, nil
}

// ReorderInitiative rewrites the turn order from an explicit permutation of
// the active combatant ids. The active-turn pointer is left untouched.
func (s *service) ReorderInitiative(ctx context.Context, encounterID, userID string, orderedIDs []string) ([]*combat.Combatant, error) {
	if len(orderedIDs) == 0 {
		return nil, apperr.Validation("order cannot be empty")
	}

	var ordered []*combat.Combatant
	_, err := s.mutate(ctx, encounterID, userID, func(e *combat.Encounter) error {
		var err error
		ordered, err = e.Reorder(s.uuidGenerator, orderedIDs)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ordered, nil
}

// AdvanceTurn moves the active turn to the next combatant in order
func (s *service) AdvanceTurn(ctx context.Context, encounterID, userID string) (*combat.TurnState, error) {
	var state *combat.TurnState
	_, err := s.mutate(ctx, encounterID, userID, func(e *combat.Encounter) error {
		var err error
		state, err = e.AdvanceTurn(s.uuidGenerator)
		return err
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

// SetActiveTurn force-sets the active turn pointer without touching the round
func (s *service) SetActiveTurn(ctx context.Context, encounterID, combatantID, userID string) (*combat.TurnState, error) {
	var state *combat.TurnState
	_, err := s.mutate(ctx, encounterID, userID, func(e *combat.Encounter) error {
		var err error
		state, err = e.SetActiveTurn(s.uuidGenerator, combatantID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

// EndEncounter concludes an encounter, freezing it as COMPLETED
func (s *service) EndEncounter(ctx context.Context, encounterID, userID string) (*combat.Encounter, error) {
	return s.mutate(ctx, encounterID, userID, func(e *combat.Encounter) error {
		return e.End(s.uuidGenerator)
	})
}

// AddNote appends a free-form note event to the log
func (s *service) AddNote(ctx context.Context, encounterID, userID, text string) (*combat.Event, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperr.Validation("note text is required")
	}

	var event *combat.Event
	_, err := s.mutate(ctx, encounterID, userID, func(e *combat.Encounter) error {
		var err error
		event, err = e.AppendEvent(s.uuidGenerator, combat.EventNote, combat.NotePayload{Text: text})
		return err
	})
	if err != nil {
		return nil, err
	}
	return event, nil
}
