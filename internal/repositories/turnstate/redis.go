package turnstate

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/aequall/aequall-api/internal/entities"
	"github.com/aequall/aequall-api/internal/errors"
	"github.com/aequall/aequall-api/internal/pkg/clock"
	redisclient "github.com/aequall/aequall-api/internal/redis"
)

const (
	// Key pattern: combat:{combat_id}:turn:{combatant_id}
	turnKeyPrefix = "combat:"

	// Combat encounters rarely outlive a session; stale flags expire on
	// their own.
	defaultTTL = 6 * time.Hour

	errCombatIDEmpty    = "combat ID cannot be empty"
	errCombatantIDEmpty = "combatant ID cannot be empty"
)

// stored is the persisted document shape
type stored struct {
	State     entities.TurnState `json:"state"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// Config holds the configuration for the Redis repository
type Config struct {
	Client redisclient.Client
	Clock  clock.Clock
}

// Validate ensures all required dependencies are provided
func (c *Config) Validate() error {
	if c.Client == nil {
		return errors.InvalidArgument("redis client is required")
	}
	if c.Clock == nil {
		return errors.InvalidArgument("clock is required")
	}
	return nil
}

type redisRepository struct {
	client redisclient.Client
	clock  clock.Clock
}

// NewRedisRepository creates a new Redis repository for turn state
func NewRedisRepository(cfg *Config) (Repository, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	return &redisRepository{
		client: cfg.Client,
		clock:  cfg.Clock,
	}, nil
}

// Ensure redisRepository implements Repository
var _ Repository = (*redisRepository)(nil)

// Set replaces the stored state wholesale
func (r *redisRepository) Set(ctx context.Context, input SetInput) error {
	if input.CombatID == "" {
		return errors.InvalidArgument(errCombatIDEmpty)
	}
	if input.CombatantID == "" {
		return errors.InvalidArgument(errCombatantIDEmpty)
	}

	ttl := input.TTL
	if ttl == 0 {
		ttl = defaultTTL
	}

	doc := stored{
		State:     input.State,
		UpdatedAt: r.clock.Now(),
	}

	docJSON, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrapf(err, "failed to marshal turn state")
	}

	key := buildKey(input.CombatID, input.CombatantID)
	if err := r.client.Set(ctx, key, docJSON, ttl).Err(); err != nil {
		return errors.Wrapf(err, "failed to store turn state in Redis")
	}

	return nil
}

// Get retrieves the current state for a combatant
func (r *redisRepository) Get(ctx context.Context, input GetInput) (*GetOutput, error) {
	if input.CombatID == "" {
		return nil, errors.InvalidArgument(errCombatIDEmpty)
	}
	if input.CombatantID == "" {
		return nil, errors.InvalidArgument(errCombatantIDEmpty)
	}

	key := buildKey(input.CombatID, input.CombatantID)
	docJSON, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, errors.NotFound("turn state not found")
		}
		return nil, errors.Wrapf(err, "failed to get turn state from Redis")
	}

	var doc stored
	if err := json.Unmarshal([]byte(docJSON), &doc); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal turn state")
	}

	return &GetOutput{
		State:     &doc.State,
		UpdatedAt: doc.UpdatedAt,
	}, nil
}

// Clear removes the state for a combatant
func (r *redisRepository) Clear(ctx context.Context, input ClearInput) error {
	if input.CombatID == "" {
		return errors.InvalidArgument(errCombatIDEmpty)
	}
	if input.CombatantID == "" {
		return errors.InvalidArgument(errCombatantIDEmpty)
	}

	key := buildKey(input.CombatID, input.CombatantID)
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return errors.Wrapf(err, "failed to delete turn state from Redis")
	}

	return nil
}

// buildKey creates the Redis key for a combatant's turn state
func buildKey(combatID, combatantID string) string {
	return fmt.Sprintf("%s%s:turn:%s", turnKeyPrefix, combatID, combatantID)
}
