// Package management is the entry point of the management repository: it
// opens the database and hands out the API and identity provider
// repositories, with the optional entity cache and change feed in front of
// them.
//
// Typical usage:
//
//	cfg, _ := management.LoadConfig("config.yaml")
//	client, _ := management.NewClient(ctx, cfg)
//	defer client.Close()
//
//	client.Start(ctx) // deliver change events
//	api, _ := client.Apis().FindByID(ctx, "a1")
package management

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/rzpsarthak13/mgmt-repository/internal/cache"
	"github.com/rzpsarthak13/mgmt-repository/internal/changefeed"
	"github.com/rzpsarthak13/mgmt-repository/internal/core"
	"github.com/rzpsarthak13/mgmt-repository/internal/database"
	"github.com/rzpsarthak13/mgmt-repository/internal/kvstore"
	"github.com/rzpsarthak13/mgmt-repository/internal/registry"
	"github.com/rzpsarthak13/mgmt-repository/internal/repository"
)

// Client owns the connections used by the repositories.
type Client struct {
	mu     sync.Mutex
	closed bool

	config     *Config
	db         core.Database
	store      core.KVStore
	queue      core.ChangeQueue
	dispatcher *Dispatcher
	mappings   *registry.MappingRegistry

	apis repository.ApiRepository
	idps repository.IdentityProviderRepository
}

// NewClient validates config, connects to MySQL and builds the repositories.
// When config.SchemaCheck is enabled the mappings are compared with the live
// tables and a mismatch fails the call.
func NewClient(ctx context.Context, config *Config) (*Client, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if err := registry.ValidateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	core.SetDebug(config.Logging.Debug)

	db, err := database.NewMySQLDatabase(ctx, config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %w", err)
	}

	c, err := NewClientWithDatabase(ctx, config, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// NewClientWithDatabase builds a client on an open database. The client
// closes db on Close.
func NewClientWithDatabase(ctx context.Context, config *Config, db core.Database) (*Client, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	core.SetDebug(config.Logging.Debug)

	c := &Client{
		config:   config,
		db:       db,
		mappings: registry.NewMappingRegistry(),
	}
	for _, m := range repository.Mappings() {
		if err := c.mappings.Register(m); err != nil {
			return nil, err
		}
	}
	if config.SchemaCheck.Enabled {
		if err := c.mappings.Check(ctx, db); err != nil {
			return nil, fmt.Errorf("schema check failed: %w", err)
		}
	}

	var apis repository.ApiRepository = repository.NewApiRepository(db)
	var idps repository.IdentityProviderRepository = repository.NewIdentityProviderRepository(db)

	var invalidator *cache.Invalidator
	if config.Cache.Enabled {
		store, err := kvstore.Create(kvstore.ConfigFromCache(config.Cache))
		if err != nil {
			return nil, fmt.Errorf("failed to create cache store: %w", err)
		}
		c.store = store
		invalidator = cache.NewInvalidator(store, config.Cache.Namespace)
		apis = cache.NewApiRepository(apis, invalidator, config.Cache.TTL)
		idps = cache.NewIdentityProviderRepository(idps, invalidator, config.Cache.TTL)
		log.Printf("[CLIENT] Entity cache enabled (%s, TTL %v)", config.Cache.Type, config.Cache.TTL)
	}

	if config.ChangeFeed.Enabled {
		queue, err := changefeed.NewQueue(config)
		if err != nil {
			if c.store != nil {
				c.store.Close()
			}
			return nil, err
		}
		c.queue = queue
		publisher := changefeed.NewPublisher(queue)
		apis = changefeed.NewApiRepository(apis, publisher)
		idps = changefeed.NewIdentityProviderRepository(idps, publisher)

		c.dispatcher = NewDispatcher(queue, DispatcherConfig{
			Rate:         config.ChangeFeed.DispatchRate,
			BatchSize:    config.ChangeFeed.BatchSize,
			PollInterval: config.ChangeFeed.PollInterval,
		})
		if invalidator != nil {
			c.dispatcher.AddListener(CacheInvalidationListener(invalidator))
		}
		log.Printf("[CLIENT] Change feed enabled (%s queue)", config.ChangeFeed.QueueType)
	}

	c.apis = apis
	c.idps = idps
	return c, nil
}

// Apis returns the API repository.
func (c *Client) Apis() ApiRepository {
	return c.apis
}

// IdentityProviders returns the identity provider repository.
func (c *Client) IdentityProviders() IdentityProviderRepository {
	return c.idps
}

// Mappings returns the registry of mapped tables.
func (c *Client) Mappings() *registry.MappingRegistry {
	return c.mappings
}

// AddListener registers l for change events. It fails when the change feed
// is disabled.
func (c *Client) AddListener(l Listener) error {
	if c.dispatcher == nil {
		return fmt.Errorf("change feed is disabled")
	}
	c.dispatcher.AddListener(l)
	return nil
}

// Start starts delivering change events. It does nothing when the change
// feed is disabled.
func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return fmt.Errorf("client is closed")
	}
	if c.dispatcher == nil {
		return nil
	}
	return c.dispatcher.Start(ctx)
}

// Stop stops delivering change events.
func (c *Client) Stop() error {
	if c.dispatcher == nil {
		return nil
	}
	return c.dispatcher.Stop()
}

// IsRunning returns whether change events are being delivered.
func (c *Client) IsRunning() bool {
	return c.dispatcher != nil && c.dispatcher.IsRunning()
}

// Close stops the dispatcher and closes the queue, the cache store and the
// database.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true

	if err := c.Stop(); err != nil {
		log.Printf("[CLIENT] ERROR: Failed to stop dispatcher: %v", err)
	}
	return c.closeResources()
}

func (c *Client) closeResources() error {
	var errs []error
	if c.queue != nil {
		errs = append(errs, c.queue.Close())
	}
	if c.store != nil {
		errs = append(errs, c.store.Close())
	}
	if c.db != nil {
		errs = append(errs, c.db.Close())
	}
	return errors.Join(errs...)
}
