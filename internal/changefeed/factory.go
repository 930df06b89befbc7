package changefeed

import (
	"fmt"
	"log"

	"github.com/rzpsarthak13/mgmt-repository/internal/core"
	"github.com/rzpsarthak13/mgmt-repository/internal/kvstore"
	"github.com/rzpsarthak13/mgmt-repository/internal/registry"
)

// NewQueue creates the queue selected by changefeed.queue_type. The redis
// queue connects with the cache.redis_config section.
func NewQueue(config *registry.InternalConfig) (core.ChangeQueue, error) {
	cf := config.ChangeFeed
	switch cf.QueueType {
	case "memory":
		log.Printf("[CHANGEFEED] Using in-memory queue (buffer %d)", cf.QueueBufferSize)
		return NewMemoryQueue(cf.QueueBufferSize), nil

	case "redis":
		storeConfig := kvstore.ConfigFromCache(config.Cache)
		storeConfig.Type = "redis"
		store, err := kvstore.NewRedisKVStore(storeConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to create redis change queue: %w", err)
		}
		log.Printf("[CHANGEFEED] Using redis queue on list %s", cf.RedisKey)
		q := NewRedisQueue(store, cf.RedisKey)
		q.owned = store
		return q, nil

	case "kafka":
		kafkaConfig := cf.KafkaConfig
		kafkaConfig.GroupID = config.KafkaGroupID()
		q, err := NewKafkaQueue(kafkaConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to create kafka change queue: %w", err)
		}
		return q, nil

	default:
		return nil, fmt.Errorf("unsupported change queue type: %s", cf.QueueType)
	}
}
