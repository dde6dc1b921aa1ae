package redis

import (
	"github.com/redis/go-redis/v9"
)

// Client wraps redis.UniversalClient so repositories and the messaging
// channel depend on a local name rather than the driver directly.
type Client interface {
	redis.UniversalClient
}

// Pipeliner wraps redis.Pipeliner for batched transactional writes
type Pipeliner interface {
	redis.Pipeliner
}
