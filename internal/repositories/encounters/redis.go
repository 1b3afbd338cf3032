package encounters

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/greyhelm/tablekeep/internal/domain/combat"
	apperr "github.com/greyhelm/tablekeep/internal/errors"
)

// redisRepo implements Repository on Redis. Each aggregate lives in one JSON
// value; concurrent writers are serialized with a WATCH-based
// check-and-set keyed on the aggregate version.
type redisRepo struct {
	client redis.UniversalClient
}

// RedisRepoConfig holds configuration for the Redis repository
type RedisRepoConfig struct {
	Client redis.UniversalClient
}

// NewRedisRepository creates a new Redis-backed encounter repository
func NewRedisRepository(cfg *RedisRepoConfig) Repository {
	if cfg == nil {
		panic("RedisRepoConfig cannot be nil")
	}
	if cfg.Client == nil {
		panic("Redis client cannot be nil")
	}

	return &redisRepo{
		client: cfg.Client,
	}
}

// key generates the Redis key for an encounter aggregate
func (r *redisRepo) key(id string) string {
	return fmt.Sprintf("encounter:%s", id)
}

// campaignEncountersKey generates the Redis key for a campaign's encounter set
func (r *redisRepo) campaignEncountersKey(campaignID string) string {
	return fmt.Sprintf("campaign:%s:encounters", campaignID)
}

// Create stores a new encounter
func (r *redisRepo) Create(ctx context.Context, encounter *combat.Encounter) error {
	if encounter == nil {
		return apperr.Validation("encounter cannot be nil")
	}
	if encounter.ID == "" {
		return apperr.Validation("encounter ID is required")
	}
	if encounter.CampaignID == "" {
		return apperr.Validation("encounter campaign ID is required")
	}

	exists, err := r.client.Exists(ctx, r.key(encounter.ID)).Result()
	if err != nil {
		return apperr.Wrap(err, "failed to check encounter existence")
	}
	if exists > 0 {
		return apperr.AlreadyExistsf("encounter with ID '%s' already exists", encounter.ID).
			WithMeta("encounter_id", encounter.ID)
	}

	encounter.Version = 1
	data, err := json.Marshal(encounter)
	if err != nil {
		return apperr.Wrap(err, "failed to marshal encounter")
	}

	pipe := r.client.Pipeline()
	pipe.Set(ctx, r.key(encounter.ID), data, 0)
	pipe.SAdd(ctx, r.campaignEncountersKey(encounter.CampaignID), encounter.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return apperr.Wrap(err, "failed to create encounter")
	}
	return nil
}

// Get retrieves an encounter by ID
func (r *redisRepo) Get(ctx context.Context, id string) (*combat.Encounter, error) {
	if id == "" {
		return nil, apperr.Validation("encounter ID is required")
	}

	data, err := r.client.Get(ctx, r.key(id)).Bytes()
	if err == redis.Nil {
		return nil, apperr.NotFoundf("encounter '%s' not found", id)
	}
	if err != nil {
		return nil, apperr.Wrapf(err, "failed to get encounter '%s'", id)
	}

	var encounter combat.Encounter
	if err := json.Unmarshal(data, &encounter); err != nil {
		return nil, apperr.Wrap(err, "failed to unmarshal encounter")
	}
	return &encounter, nil
}

// Save persists a mutated aggregate behind a WATCH so a concurrent writer
// fails the transaction instead of silently losing events
func (r *redisRepo) Save(ctx context.Context, encounter *combat.Encounter) error {
	if encounter == nil {
		return apperr.Validation("encounter cannot be nil")
	}

	key := r.key(encounter.ID)

	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return apperr.NotFoundf("encounter '%s' not found", encounter.ID)
		}
		if err != nil {
			return apperr.Wrapf(err, "failed to get encounter '%s'", encounter.ID)
		}

		var stored combat.Encounter
		if err := json.Unmarshal(data, &stored); err != nil {
			return apperr.Wrap(err, "failed to unmarshal stored encounter")
		}
		if stored.Version != encounter.Version {
			return apperr.Conflictf("encounter '%s' was modified concurrently (version %d, expected %d)",
				encounter.ID, stored.Version, encounter.Version)
		}

		encounter.Version++
		encounter.UpdatedAt = time.Now().UTC()

		updated, err := json.Marshal(encounter)
		if err != nil {
			encounter.Version--
			return apperr.Wrap(err, "failed to marshal encounter")
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, updated, 0)
			return nil
		})
		if err != nil {
			encounter.Version--
		}
		return err
	}, key)

	if err == redis.TxFailedErr {
		return apperr.Conflictf("encounter '%s' was modified concurrently", encounter.ID)
	}
	return err
}

// Delete removes an encounter and its campaign index entry
func (r *redisRepo) Delete(ctx context.Context, id string) error {
	encounter, err := r.Get(ctx, id)
	if err != nil {
		return err
	}

	pipe := r.client.Pipeline()
	pipe.Del(ctx, r.key(id))
	pipe.SRem(ctx, r.campaignEncountersKey(encounter.CampaignID), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return apperr.Wrap(err, "failed to delete encounter")
	}
	return nil
}

// ListByCampaign retrieves all encounters for a campaign, fetching the
// aggregates in parallel
func (r *redisRepo) ListByCampaign(ctx context.Context, campaignID string) ([]*combat.Encounter, error) {
	if campaignID == "" {
		return nil, apperr.Validation("campaign ID is required")
	}

	ids, err := r.client.SMembers(ctx, r.campaignEncountersKey(campaignID)).Result()
	if err != nil {
		return nil, apperr.Wrap(err, "failed to list campaign encounters")
	}

	encounters := make([]*combat.Encounter, len(ids))
	g, ctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		g.Go(func() error {
			encounter, err := r.Get(ctx, id)
			if err != nil {
				// A stale index entry is not fatal to the listing
				if apperr.IsNotFound(err) {
					return nil
				}
				return err
			}
			encounters[i] = encounter
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := make([]*combat.Encounter, 0, len(encounters))
	for _, encounter := range encounters {
		if encounter != nil {
			result = append(result, encounter)
		}
	}
	return result, nil
}
