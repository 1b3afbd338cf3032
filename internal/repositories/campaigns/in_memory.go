package campaigns

import (
	"context"
	"sync"

	apperr "github.com/greyhelm/tablekeep/internal/errors"
)

type inMemoryRepository struct {
	mu      sync.RWMutex
	members map[string]map[string]*Member // campaignID -> userID -> member
}

// NewInMemoryRepository creates a new in-memory membership repository
func NewInMemoryRepository() Repository {
	return &inMemoryRepository{
		members: make(map[string]map[string]*Member),
	}
}

// SetMember creates or replaces a membership
func (r *inMemoryRepository) SetMember(ctx context.Context, member *Member) error {
	if member == nil {
		return apperr.Validation("member cannot be nil")
	}
	if member.CampaignID == "" || member.UserID == "" {
		return apperr.Validation("campaign ID and user ID are required")
	}
	if !member.Role.Valid() {
		return apperr.Validationf("unknown role %q", member.Role)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.members[member.CampaignID] == nil {
		r.members[member.CampaignID] = make(map[string]*Member)
	}
	copied := *member
	r.members[member.CampaignID][member.UserID] = &copied
	return nil
}

// GetMember retrieves one membership
func (r *inMemoryRepository) GetMember(ctx context.Context, campaignID, userID string) (*Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	member, exists := r.members[campaignID][userID]
	if !exists {
		return nil, apperr.NotFoundf("user '%s' is not a member of campaign '%s'", userID, campaignID)
	}
	copied := *member
	return &copied, nil
}

// RemoveMember deletes a membership
func (r *inMemoryRepository) RemoveMember(ctx context.Context, campaignID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.members[campaignID][userID]; !exists {
		return apperr.NotFoundf("user '%s' is not a member of campaign '%s'", userID, campaignID)
	}
	delete(r.members[campaignID], userID)
	return nil
}

// ListMembers retrieves all members of a campaign
func (r *inMemoryRepository) ListMembers(ctx context.Context, campaignID string) ([]*Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Member, 0, len(r.members[campaignID]))
	for _, member := range r.members[campaignID] {
		copied := *member
		result = append(result, &copied)
	}
	return result, nil
}
