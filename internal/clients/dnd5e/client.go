package dnd5e

import (
	"net/http"

	"github.com/fadedpez/dnd5e-api/clients/dnd5e"
	apiEntities "github.com/fadedpez/dnd5e-api/entities"

	apperr "github.com/greyhelm/tablekeep/internal/errors"
)

type client struct {
	client dnd5e.Interface
}

// Config holds configuration for the client
type Config struct {
	HttpClient *http.Client
}

// New creates a client backed by the public D&D 5e API
func New(cfg *Config) (Client, error) {
	if cfg == nil {
		return nil, apperr.Validation("cfg cannot be nil")
	}

	apiClient, err := dnd5e.NewDND5eAPI(&dnd5e.DND5eAPIConfig{
		Client: cfg.HttpClient,
	})
	if err != nil {
		return nil, err
	}

	return &client{
		client: apiClient,
	}, nil
}

// GetMonster fetches a monster template by its SRD key
func (c *client) GetMonster(key string) (*MonsterTemplate, error) {
	if key == "" {
		return nil, apperr.Validation("monster key is required")
	}

	monster, err := c.client.GetMonster(key)
	if err != nil {
		return nil, apperr.Wrapf(err, "failed to get monster '%s'", key)
	}

	return apiToMonsterTemplate(monster), nil
}

func apiToMonsterTemplate(input *apiEntities.Monster) *MonsterTemplate {
	if input == nil {
		return nil
	}

	return &MonsterTemplate{
		Key:             input.Key,
		Name:            input.Name,
		Type:            input.Type,
		ArmorClass:      input.ArmorClass,
		HitPoints:       input.HitPoints,
		ChallengeRating: float64(input.ChallengeRating),
	}
}
