package campaigns

//go:generate mockgen -destination=mock/mock_repository.go -package=mockcamprepo -source=repository.go

import (
	"context"
	"time"
)

// Role is a member's role within a campaign
type Role string

const (
	RoleOwner  Role = "owner"
	RoleGM     Role = "gm"
	RolePlayer Role = "player"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleGM, RolePlayer:
		return true
	}
	return false
}

// Member is one user's membership in a campaign
type Member struct {
	CampaignID string    `json:"campaign_id"`
	UserID     string    `json:"user_id"`
	Role       Role      `json:"role"`
	JoinedAt   time.Time `json:"joined_at"`
}

// Repository stores campaign memberships
type Repository interface {
	// SetMember creates or replaces a membership
	SetMember(ctx context.Context, member *Member) error

	// GetMember retrieves one membership
	GetMember(ctx context.Context, campaignID, userID string) (*Member, error)

	// RemoveMember deletes a membership
	RemoveMember(ctx context.Context, campaignID, userID string) error

	// ListMembers retrieves all members of a campaign
	ListMembers(ctx context.Context, campaignID string) ([]*Member, error)
}
