package dnd5e

//go:generate mockgen -destination=mock/mock_client.go -package=mockdnd5e -source=interface.go

// MonsterTemplate is the slice of an SRD monster the combat runtime cares
// about; everything rules-specific stays behind the API.
type MonsterTemplate struct {
	Key             string  `json:"key"`
	Name            string  `json:"name"`
	Type            string  `json:"type"`
	ArmorClass      int     `json:"armor_class"`
	HitPoints       int     `json:"hit_points"`
	ChallengeRating float64 `json:"challenge_rating"`
}

// Client looks up monster templates by SRD key
type Client interface {
	GetMonster(key string) (*MonsterTemplate, error)
}
