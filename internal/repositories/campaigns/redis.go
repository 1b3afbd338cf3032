package campaigns

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	apperr "github.com/greyhelm/tablekeep/internal/errors"
)

// redisRepo stores memberships in one hash per campaign, field per user
type redisRepo struct {
	client redis.UniversalClient
}

// NewRedisRepository creates a new Redis-backed membership repository
func NewRedisRepository(client redis.UniversalClient) Repository {
	if client == nil {
		panic("Redis client cannot be nil")
	}
	return &redisRepo{client: client}
}

func (r *redisRepo) key(campaignID string) string {
	return fmt.Sprintf("campaign:%s:members", campaignID)
}

// SetMember creates or replaces a membership
func (r *redisRepo) SetMember(ctx context.Context, member *Member) error {
	if member == nil {
		return apperr.Validation("member cannot be nil")
	}
	if member.CampaignID == "" || member.UserID == "" {
		return apperr.Validation("campaign ID and user ID are required")
	}
	if !member.Role.Valid() {
		return apperr.Validationf("unknown role %q", member.Role)
	}

	data, err := json.Marshal(member)
	if err != nil {
		return apperr.Wrap(err, "failed to marshal member")
	}

	if err := r.client.HSet(ctx, r.key(member.CampaignID), member.UserID, data).Err(); err != nil {
		return apperr.Wrap(err, "failed to set campaign member")
	}
	return nil
}

// GetMember retrieves one membership
func (r *redisRepo) GetMember(ctx context.Context, campaignID, userID string) (*Member, error) {
	data, err := r.client.HGet(ctx, r.key(campaignID), userID).Bytes()
	if err == redis.Nil {
		return nil, apperr.NotFoundf("user '%s' is not a member of campaign '%s'", userID, campaignID)
	}
	if err != nil {
		return nil, apperr.Wrap(err, "failed to get campaign member")
	}

	var member Member
	if err := json.Unmarshal(data, &member); err != nil {
		return nil, apperr.Wrap(err, "failed to unmarshal member")
	}
	return &member, nil
}

// RemoveMember deletes a membership
func (r *redisRepo) RemoveMember(ctx context.Context, campaignID, userID string) error {
	removed, err := r.client.HDel(ctx, r.key(campaignID), userID).Result()
	if err != nil {
		return apperr.Wrap(err, "failed to remove campaign member")
	}
	if removed == 0 {
		return apperr.NotFoundf("user '%s' is not a member of campaign '%s'", userID, campaignID)
	}
	return nil
}

// ListMembers retrieves all members of a campaign
func (r *redisRepo) ListMembers(ctx context.Context, campaignID string) ([]*Member, error) {
	entries, err := r.client.HGetAll(ctx, r.key(campaignID)).Result()
	if err != nil {
		return nil, apperr.Wrap(err, "failed to list campaign members")
	}

	result := make([]*Member, 0, len(entries))
	for _, data := range entries {
		var member Member
		if err := json.Unmarshal([]byte(data), &member); err != nil {
			return nil, apperr.Wrap(err, "failed to unmarshal member")
		}
		result = append(result, &member)
	}
	return result, nil
}
