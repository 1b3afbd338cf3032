package campaign

//go:generate mockgen -destination=mock/mock_resolver.go -package=mockcampaign -source=resolver.go

import (
	"context"

	apperr "github.com/greyhelm/tablekeep/internal/errors"
	"github.com/greyhelm/tablekeep/internal/repositories/campaigns"
)

// Permission strings checked by the encounter runtime
const (
	PermissionEncounterView   = "encounter.view"
	PermissionEncounterManage = "encounter.manage"
)

// Resolver answers allow/deny for a campaign, user, and permission string
type Resolver interface {
	Allowed(ctx context.Context, campaignID, userID, permission string) (bool, error)
}

type resolver struct {
	repository campaigns.Repository
}

// ResolverConfig holds configuration for the resolver
type ResolverConfig struct {
	Repository campaigns.Repository
}

// NewResolver creates a membership-backed permission resolver
func NewResolver(cfg *ResolverConfig) Resolver {
	if cfg == nil || cfg.Repository == nil {
		panic("campaign repository is required")
	}
	return &resolver{repository: cfg.Repository}
}

// Allowed resolves a permission from the member's campaign role: owners and
// GMs manage encounters, every member may view them. Non-members are denied
// rather than erroring.
func (r *resolver) Allowed(ctx context.Context, campaignID, userID, permission string) (bool, error) {
	if campaignID == "" || userID == "" {
		return false, apperr.Validation("campaign ID and user ID are required")
	}

	member, err := r.repository.GetMember(ctx, campaignID, userID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return false, nil
		}
		return false, apperr.Wrap(err, "failed to resolve campaign membership")
	}

	switch permission {
	case PermissionEncounterManage:
		return member.Role == campaigns.RoleOwner || member.Role == campaigns.RoleGM, nil
	case PermissionEncounterView:
		return true, nil
	default:
		return false, nil
	}
}
