package actors

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	redis "github.com/redis/go-redis/v9"

	"github.com/aequall/aequall-api/internal/entities"
	"github.com/aequall/aequall-api/internal/errors"
	redisclient "github.com/aequall/aequall-api/internal/redis"
)

const (
	// Key pattern: actor:{actor_id}
	actorKeyPrefix = "actor:"

	errActorNil     = "actor cannot be nil"
	errActorIDEmpty = "actor ID cannot be empty"
)

// Config holds the configuration for the Redis repository
type Config struct {
	Client redisclient.Client
}

// Validate ensures all required dependencies are provided
func (c *Config) Validate() error {
	if c.Client == nil {
		return errors.InvalidArgument("redis client is required")
	}
	return nil
}

type redisRepository struct {
	client redisclient.Client
}

// NewRedisRepository creates a new Redis repository for actor documents
func NewRedisRepository(cfg *Config) (Repository, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	return &redisRepository{
		client: cfg.Client,
	}, nil
}

// Ensure redisRepository implements Repository
var _ Repository = (*redisRepository)(nil)

// Get retrieves an actor by ID
func (r *redisRepository) Get(ctx context.Context, input GetInput) (*GetOutput, error) {
	if input.ActorID == "" {
		return nil, errors.InvalidArgument(errActorIDEmpty)
	}

	actorJSON, err := r.client.Get(ctx, buildKey(input.ActorID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, errors.NotFoundf("actor not found: %s", input.ActorID)
		}
		return nil, errors.Wrapf(err, "failed to get actor from Redis")
	}

	var actor entities.Actor
	if err := json.Unmarshal([]byte(actorJSON), &actor); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal actor")
	}

	return &GetOutput{
		Actor: &actor,
	}, nil
}

// Save stores a single actor, replacing any previous document
func (r *redisRepository) Save(ctx context.Context, actor *entities.Actor) error {
	if actor == nil {
		return errors.InvalidArgument(errActorNil)
	}
	if actor.ID == "" {
		return errors.InvalidArgument(errActorIDEmpty)
	}

	actorJSON, err := json.Marshal(actor)
	if err != nil {
		return errors.Wrapf(err, "failed to marshal actor")
	}

	if err := r.client.Set(ctx, buildKey(actor.ID), actorJSON, 0).Err(); err != nil {
		return errors.Wrapf(err, "failed to store actor in Redis")
	}

	return nil
}

// SaveAll stores every given actor in one atomic commit. The keys are
// watched for the duration of the commit, so a write racing the batch
// itself aborts with an Aborted error instead of producing a half-applied
// ledger. Reads performed before this call are outside the watch; the
// single-writer model is what keeps the read-validate-write window safe.
func (r *redisRepository) SaveAll(ctx context.Context, actorsToSave ...*entities.Actor) error {
	if len(actorsToSave) == 0 {
		return nil
	}

	keys := make([]string, 0, len(actorsToSave))
	payloads := make(map[string][]byte, len(actorsToSave))
	for _, actor := range actorsToSave {
		if actor == nil {
			return errors.InvalidArgument(errActorNil)
		}
		if actor.ID == "" {
			return errors.InvalidArgument(errActorIDEmpty)
		}

		actorJSON, err := json.Marshal(actor)
		if err != nil {
			return errors.Wrapf(err, "failed to marshal actor %s", actor.ID)
		}

		key := buildKey(actor.ID)
		keys = append(keys, key)
		payloads[key] = actorJSON
	}

	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, key := range keys {
				pipe.Set(ctx, key, payloads[key], 0)
			}
			return nil
		})
		return err
	}, keys...)

	if err == redis.TxFailedErr {
		return errors.Aborted("concurrent modification, transaction aborted")
	}
	if err != nil {
		return errors.Wrapf(err, "failed to commit actor batch")
	}

	return nil
}

// List returns every stored actor, ordered by ID
func (r *redisRepository) List(ctx context.Context, input ListInput) (*ListOutput, error) {
	var found []*entities.Actor

	iter := r.client.Scan(ctx, 0, actorKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		actorJSON, err := r.client.Get(ctx, iter.Val()).Result()
		if err == redis.Nil {
			// Deleted between scan and read
			continue
		}
		if err != nil {
			return nil, errors.Wrapf(err, "failed to get actor from Redis")
		}

		var actor entities.Actor
		if err := json.Unmarshal([]byte(actorJSON), &actor); err != nil {
			return nil, errors.Wrapf(err, "failed to unmarshal actor")
		}
		found = append(found, &actor)
	}
	if err := iter.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to scan actors")
	}

	sort.Slice(found, func(i, j int) bool { return found[i].ID < found[j].ID })

	return &ListOutput{Actors: found}, nil
}

// Delete removes an actor document
func (r *redisRepository) Delete(ctx context.Context, input DeleteInput) error {
	if input.ActorID == "" {
		return errors.InvalidArgument(errActorIDEmpty)
	}

	if err := r.client.Del(ctx, buildKey(input.ActorID)).Err(); err != nil {
		return errors.Wrapf(err, "failed to delete actor from Redis")
	}

	return nil
}

// buildKey creates the Redis key for an actor document
func buildKey(actorID string) string {
	return fmt.Sprintf("%s%s", actorKeyPrefix, actorID)
}
