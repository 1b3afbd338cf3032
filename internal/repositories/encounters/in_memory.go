package encounters

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/greyhelm/tablekeep/internal/domain/combat"
	apperr "github.com/greyhelm/tablekeep/internal/errors"
)

type inMemoryRepository struct {
	mu         sync.RWMutex
	encounters map[string][]byte   // id -> serialized aggregate
	byCampaign map[string][]string // campaignID -> encounter IDs
}

// NewInMemoryRepository creates a new in-memory encounter repository.
// Aggregates are stored serialized so callers never share state with the
// store, which keeps the optimistic version check honest.
func NewInMemoryRepository() Repository {
	return &inMemoryRepository{
		encounters: make(map[string][]byte),
		byCampaign: make(map[string][]string),
	}
}

func encode(encounter *combat.Encounter) ([]byte, error) {
	data, err := json.Marshal(encounter)
	if err != nil {
		return nil, apperr.Wrap(err, "failed to marshal encounter")
	}
	return data, nil
}

func decode(data []byte) (*combat.Encounter, error) {
	var encounter combat.Encounter
	if err := json.Unmarshal(data, &encounter); err != nil {
		return nil, apperr.Wrap(err, "failed to unmarshal encounter")
	}
	return &encounter, nil
}

// Create stores a new encounter
func (r *inMemoryRepository) Create(ctx context.Context, encounter *combat.Encounter) error {
	if encounter == nil {
		return apperr.Validation("encounter cannot be nil")
	}
	if encounter.ID == "" {
		return apperr.Validation("encounter ID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.encounters[encounter.ID]; exists {
		return apperr.AlreadyExistsf("encounter with ID '%s' already exists", encounter.ID)
	}

	encounter.Version = 1
	data, err := encode(encounter)
	if err != nil {
		return err
	}

	r.encounters[encounter.ID] = data
	r.byCampaign[encounter.CampaignID] = append(r.byCampaign[encounter.CampaignID], encounter.ID)
	return nil
}

// Get retrieves an encounter by ID
func (r *inMemoryRepository) Get(ctx context.Context, id string) (*combat.Encounter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	data, exists := r.encounters[id]
	if !exists {
		return nil, apperr.NotFoundf("encounter '%s' not found", id)
	}
	return decode(data)
}

// Save persists a mutated aggregate if the stored version still matches
func (r *inMemoryRepository) Save(ctx context.Context, encounter *combat.Encounter) error {
	if encounter == nil {
		return apperr.Validation("encounter cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	data, exists := r.encounters[encounter.ID]
	if !exists {
		return apperr.NotFoundf("encounter '%s' not found", encounter.ID)
	}

	stored, err := decode(data)
	if err != nil {
		return err
	}
	if stored.Version != encounter.Version {
		return apperr.Conflictf("encounter '%s' was modified concurrently (version %d, expected %d)",
			encounter.ID, stored.Version, encounter.Version)
	}

	encounter.Version++
	encounter.UpdatedAt = time.Now().UTC()

	updated, err := encode(encounter)
	if err != nil {
		encounter.Version--
		return err
	}
	r.encounters[encounter.ID] = updated
	return nil
}

// Delete removes an encounter
func (r *inMemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, exists := r.encounters[id]
	if !exists {
		return apperr.NotFoundf("encounter '%s' not found", id)
	}

	encounter, err := decode(data)
	if err != nil {
		return err
	}

	delete(r.encounters, id)

	campaignEncounters := r.byCampaign[encounter.CampaignID]
	for i, eid := range campaignEncounters {
		if eid == id {
			r.byCampaign[encounter.CampaignID] = append(campaignEncounters[:i], campaignEncounters[i+1:]...)
			break
		}
	}
	return nil
}

// ListByCampaign retrieves all encounters for a campaign
func (r *inMemoryRepository) ListByCampaign(ctx context.Context, campaignID string) ([]*combat.Encounter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.byCampaign[campaignID]
	result := make([]*combat.Encounter, 0, len(ids))
	for _, id := range ids {
		data, exists := r.encounters[id]
		if !exists {
			continue
		}
		encounter, err := decode(data)
		if err != nil {
			return nil, err
		}
		result = append(result, encounter)
	}
	return result, nil
}
