package campaign

import (
	"context"
	"strings"
	"time"

	apperr "github.com/greyhelm/tablekeep/internal/errors"
	"github.com/greyhelm/tablekeep/internal/repositories/campaigns"
)

// Service manages campaign memberships, the role assignments the permission
// resolver reads. An empty campaign is claimed by its first member, who must
// enroll themselves as owner; after that only owners change the roster.
type Service interface {
	// SetMember creates or replaces a membership
	SetMember(ctx context.Context, campaignID, actorID, userID string, role campaigns.Role) (*campaigns.Member, error)

	// RemoveMember deletes a membership
	RemoveMember(ctx context.Context, campaignID, actorID, userID string) error

	// ListMembers retrieves the campaign roster
	ListMembers(ctx context.Context, campaignID, actorID string) ([]*campaigns.Member, error)
}

type service struct {
	repository campaigns.Repository
}

// ServiceConfig holds configuration for the service
type ServiceConfig struct {
	Repository campaigns.Repository
}

// NewService creates a new campaign membership service
func NewService(cfg *ServiceConfig) Service {
	if cfg == nil || cfg.Repository == nil {
		panic("campaign repository is required")
	}
	return &service{repository: cfg.Repository}
}

// actorRole resolves the acting user's role, or nil for a non-member
func (s *service) actorRole(members []*campaigns.Member, actorID string) *campaigns.Role {
	for _, m := range members {
		if m.UserID == actorID {
			role := m.Role
			return &role
		}
	}
	return nil
}

func ownerCount(members []*campaigns.Member) int {
	n := 0
	for _, m := range members {
		if m.Role == campaigns.RoleOwner {
			n++
		}
	}
	return n
}

// SetMember creates or replaces a membership. The first member of an empty
// campaign must be the actor enrolling themselves as owner.
func (s *service) SetMember(ctx context.Context, campaignID, actorID, userID string, role campaigns.Role) (*campaigns.Member, error) {
	if strings.TrimSpace(campaignID) == "" || strings.TrimSpace(actorID) == "" || strings.TrimSpace(userID) == "" {
		return nil, apperr.Validation("campaign ID, actor ID, and user ID are required")
	}
	if !role.Valid() {
		return nil, apperr.Validationf("unknown role %q", role)
	}

	members, err := s.repository.ListMembers(ctx, campaignID)
	if err != nil {
		return nil, apperr.Wrap(err, "failed to list campaign members")
	}

	if len(members) == 0 {
		if actorID != userID || role != campaigns.RoleOwner {
			return nil, apperr.PermissionDenied("an empty campaign is claimed by enrolling yourself as owner").
				WithMeta("campaign_id", campaignID)
		}
	} else {
		actor := s.actorRole(members, actorID)
		if actor == nil || *actor != campaigns.RoleOwner {
			return nil, apperr.PermissionDenied("only a campaign owner can change the roster").
				WithMeta("campaign_id", campaignID)
		}
		if role != campaigns.RoleOwner && s.isSoleOwner(members, userID) {
			return nil, apperr.Conflictf("cannot demote the only owner of campaign '%s'", campaignID)
		}
	}

	member := &campaigns.Member{
		CampaignID: campaignID,
		UserID:     userID,
		Role:       role,
		JoinedAt:   time.Now().UTC(),
	}
	if existing, getErr := s.repository.GetMember(ctx, campaignID, userID); getErr == nil {
		member.JoinedAt = existing.JoinedAt
	}

	if err := s.repository.SetMember(ctx, member); err != nil {
		return nil, apperr.Wrap(err, "failed to store campaign membership")
	}
	return member, nil
}

// RemoveMember deletes a membership. Only owners remove members, and the
// last owner cannot be removed.
func (s *service) RemoveMember(ctx context.Context, campaignID, actorID, userID string) error {
	if strings.TrimSpace(campaignID) == "" || strings.TrimSpace(actorID) == "" || strings.TrimSpace(userID) == "" {
		return apperr.Validation("campaign ID, actor ID, and user ID are required")
	}

	members, err := s.repository.ListMembers(ctx, campaignID)
	if err != nil {
		return apperr.Wrap(err, "failed to list campaign members")
	}

	actor := s.actorRole(members, actorID)
	if actor == nil || *actor != campaigns.RoleOwner {
		return apperr.PermissionDenied("only a campaign owner can change the roster").
			WithMeta("campaign_id", campaignID)
	}
	if s.isSoleOwner(members, userID) {
		return apperr.Conflictf("cannot remove the only owner of campaign '%s'", campaignID)
	}

	return s.repository.RemoveMember(ctx, campaignID, userID)
}

// ListMembers retrieves the campaign roster. Any member may read it.
func (s *service) ListMembers(ctx context.Context, campaignID, actorID string) ([]*campaigns.Member, error) {
	if strings.TrimSpace(campaignID) == "" || strings.TrimSpace(actorID) == "" {
		return nil, apperr.Validation("campaign ID and actor ID are required")
	}

	members, err := s.repository.ListMembers(ctx, campaignID)
	if err != nil {
		return nil, apperr.Wrap(err, "failed to list campaign members")
	}
	if s.actorRole(members, actorID) == nil {
		return nil, apperr.PermissionDenied("only campaign members can view the roster").
			WithMeta("campaign_id", campaignID)
	}
	return members, nil
}

// isSoleOwner reports whether userID holds the campaign's only owner seat
func (s *service) isSoleOwner(members []*campaigns.Member, userID string) bool {
	if ownerCount(members) != 1 {
		return false
	}
	for _, m := range members {
		if m.UserID == userID && m.Role == campaigns.RoleOwner {
			return true
		}
	}
	return false
}
