package encounters

//go:generate mockgen -destination=mock/mock_repository.go -package=mockencrepo -source=repository.go

import (
	"context"

	"github.com/greyhelm/tablekeep/internal/domain/combat"
)

// Repository is the persistence port for encounter aggregates. Each aggregate
// is loaded and saved whole: combatants, conditions, and events travel with
// the encounter.
//
// Save performs an optimistic version check: it succeeds only if the stored
// aggregate still carries the version the caller loaded, and bumps the
// version on success. A lost race surfaces as a CONFLICT error; the runtime
// never retries on its own.
type Repository interface {
	// Create stores a new encounter
	Create(ctx context.Context, encounter *combat.Encounter) error

	// Get retrieves an encounter by ID
	Get(ctx context.Context, id string) (*combat.Encounter, error)

	// Save persists a mutated aggregate, enforcing the optimistic version check
	Save(ctx context.Context, encounter *combat.Encounter) error

	// Delete removes an encounter
	Delete(ctx context.Context, id string) error

	// ListByCampaign retrieves all encounters belonging to a campaign
	ListByCampaign(ctx context.Context, campaignID string) ([]*combat.Encounter, error)
}
