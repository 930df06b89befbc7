package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment variable read by LoadFromEnv.
const EnvPrefix = "MGMT_REPOSITORY_"

// DefaultKafkaGroupID is the consumer group used when none is configured and
// events need not reach every process.
const DefaultKafkaGroupID = "mgmt-repository"

// ConfigValidator is the Strategy interface for validating configuration.
// Each cache backend (memory, Redis, DynamoDB) provides its own validator for
// its backend-specific section.
type ConfigValidator interface {
	// Validate validates the cache backend section of the configuration.
	Validate(config *InternalConfig) error

	// Type returns the type identifier for this validator (e.g., "redis", "dynamodb").
	Type() string
}

var (
	// validatorRegistry stores all registered config validators.
	validatorRegistry = make(map[string]ConfigValidator)

	// validatorRegistryMutex protects the validator registry from concurrent access.
	validatorRegistryMutex sync.RWMutex
)

// ValidationStrategyRegistry provides methods to register and retrieve config validators.
type ValidationStrategyRegistry struct{}

// Register registers a config validator.
// This is called automatically by each implementation's init() function.
// Panics if validator is nil, type is empty, or type is already registered.
func (r *ValidationStrategyRegistry) Register(validator ConfigValidator) {
	if validator == nil {
		panic("validator cannot be nil")
	}
	if validator.Type() == "" {
		panic("validator type cannot be empty")
	}

	validatorRegistryMutex.Lock()
	defer validatorRegistryMutex.Unlock()

	if _, exists := validatorRegistry[validator.Type()]; exists {
		panic(fmt.Sprintf("validator for type %q is already registered", validator.Type()))
	}

	validatorRegistry[validator.Type()] = validator
}

// Get retrieves a validator by type.
func (r *ValidationStrategyRegistry) Get(validatorType string) (ConfigValidator, bool) {
	validatorRegistryMutex.RLock()
	defer validatorRegistryMutex.RUnlock()

	validator, exists := validatorRegistry[validatorType]
	return validator, exists
}

// RegisterValidator registers a validator with the default registry.
// This is the preferred way to register validators from init() functions.
func RegisterValidator(validator ConfigValidator) {
	defaultValidationRegistry.Register(validator)
}

// GetValidator retrieves a validator by type from the default registry.
func GetValidator(validatorType string) (ConfigValidator, bool) {
	return defaultValidationRegistry.Get(validatorType)
}

var defaultValidationRegistry = &ValidationStrategyRegistry{}

// ConfigManager handles loading and managing configuration from various sources.
type ConfigManager struct {
	config *InternalConfig
}

// NewConfigManager creates a new configuration manager with default configuration.
func NewConfigManager() *ConfigManager {
	return &ConfigManager{
		config: DefaultConfig(),
	}
}

// DefaultConfig returns a configuration with sensible defaults. Cache and
// change feed are disabled.
func DefaultConfig() *InternalConfig {
	return &InternalConfig{
		Database: InternalDatabaseConfig{
			Type:              "mysql",
			Host:              "localhost",
			Port:              3306,
			MaxOpenConns:      25,
			MaxIdleConns:      5,
			ConnMaxLifetime:   5 * time.Minute,
			ConnMaxIdleTime:   10 * time.Minute,
			ConnectionTimeout: 10 * time.Second,
		},
		Cache: InternalCacheConfig{
			Enabled:    false,
			Type:       "memory",
			Namespace:  "mgmt",
			TTL:        10 * time.Minute,
			MaxEntries: 10000,
			RedisConfig: InternalRedisConfig{
				Endpoints:    []string{"localhost:6379"},
				DB:           0,
				PoolSize:     10,
				MinIdleConns: 2,
			},
			MaxRetries:   3,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		ChangeFeed: InternalChangeFeedConfig{
			Enabled:         false,
			QueueType:       "memory",
			QueueBufferSize: 10000,
			RedisKey:        "mgmt:changefeed",
			BatchSize:       100,
			DispatchRate:    200,
			PollInterval:    500 * time.Millisecond,
			KafkaConfig: InternalKafkaConfig{
				Brokers:         []string{"localhost:9092"},
				Topic:           "mgmt-repository-changes",
				GroupID:         "", // see KafkaGroupID
				BatchSize:       100,
				BatchTimeout:    10 * time.Millisecond,
				WriteTimeout:    10 * time.Second,
				ReadTimeout:     10 * time.Second,
				RequiredAcks:    -1,      // All replicas
				MaxMessageBytes: 1000000, // 1MB
				MinBytes:        1,
				MaxBytes:        10 * 1024 * 1024, // 10MB
				MaxWait:         100 * time.Millisecond,
			},
		},
	}
}

// LoadFromFile loads configuration from a YAML or JSON file.
// The file format is determined by the file extension (.yaml, .yml, or .json).
func (cm *ConfigManager) LoadFromFile(filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(filePath))
	switch ext {
	case ".yaml", ".yml":
		return cm.LoadFromYAML(data)
	case ".json":
		return cm.LoadFromJSON(data)
	default:
		return fmt.Errorf("unsupported config file format: %s (supported: .yaml, .yml, .json)", ext)
	}
}

// LoadFromYAML loads configuration from YAML data. Values absent from data keep
// their defaults.
func (cm *ConfigManager) LoadFromYAML(data []byte) error {
	config := DefaultConfig()
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, config); err != nil {
			return fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}
	return cm.apply(config)
}

// LoadFromJSON loads configuration from JSON data.
func (cm *ConfigManager) LoadFromJSON(data []byte) error {
	config := DefaultConfig()
	if len(data) > 0 {
		if err := json.Unmarshal(data, config); err != nil {
			return fmt.Errorf("failed to parse JSON config: %w", err)
		}
	}
	return cm.apply(config)
}

// LoadFromEnv applies environment overrides on top of the current
// configuration (defaults, or what a previous Load call read).
// Environment variables follow the pattern MGMT_REPOSITORY_<SECTION>_<KEY>.
// Examples:
//   - MGMT_REPOSITORY_DATABASE_HOST=db.internal
//   - MGMT_REPOSITORY_DATABASE_PORT=3306
//   - MGMT_REPOSITORY_CACHE_ENABLED=true
//   - MGMT_REPOSITORY_CACHE_ENDPOINTS=localhost:6379,localhost:6380
//   - MGMT_REPOSITORY_CHANGEFEED_QUEUE_TYPE=kafka
func (cm *ConfigManager) LoadFromEnv() error {
	config := *cm.config

	// Database configuration
	envString("DATABASE_TYPE", &config.Database.Type)
	envString("DATABASE_HOST", &config.Database.Host)
	envInt("DATABASE_PORT", &config.Database.Port)
	envString("DATABASE_DATABASE", &config.Database.Database)
	envString("DATABASE_USERNAME", &config.Database.Username)
	envString("DATABASE_PASSWORD", &config.Database.Password)
	envInt("DATABASE_MAX_OPEN_CONNS", &config.Database.MaxOpenConns)
	envInt("DATABASE_MAX_IDLE_CONNS", &config.Database.MaxIdleConns)
	envDuration("DATABASE_CONN_MAX_LIFETIME", &config.Database.ConnMaxLifetime)
	envDuration("DATABASE_CONNECTION_TIMEOUT", &config.Database.ConnectionTimeout)

	// Cache configuration
	envBool("CACHE_ENABLED", &config.Cache.Enabled)
	envString("CACHE_TYPE", &config.Cache.Type)
	envString("CACHE_NAMESPACE", &config.Cache.Namespace)
	envDuration("CACHE_TTL", &config.Cache.TTL)
	envInt("CACHE_MAX_ENTRIES", &config.Cache.MaxEntries)
	if val := os.Getenv(EnvPrefix + "CACHE_ENDPOINTS"); val != "" {
		config.Cache.RedisConfig.Endpoints = strings.Split(val, ",")
	}
	envString("CACHE_PASSWORD", &config.Cache.RedisConfig.Password)
	envInt("CACHE_DB", &config.Cache.RedisConfig.DB)
	envInt("CACHE_POOL_SIZE", &config.Cache.RedisConfig.PoolSize)
	envString("CACHE_DYNAMODB_REGION", &config.Cache.DynamoDBConfig.Region)
	envString("CACHE_DYNAMODB_TABLE_NAME", &config.Cache.DynamoDBConfig.TableName)
	envString("CACHE_DYNAMODB_ENDPOINT", &config.Cache.DynamoDBConfig.Endpoint)

	// Change feed configuration
	envBool("CHANGEFEED_ENABLED", &config.ChangeFeed.Enabled)
	envString("CHANGEFEED_QUEUE_TYPE", &config.ChangeFeed.QueueType)
	envInt("CHANGEFEED_BATCH_SIZE", &config.ChangeFeed.BatchSize)
	envInt("CHANGEFEED_DISPATCH_RATE", &config.ChangeFeed.DispatchRate)
	if val := os.Getenv(EnvPrefix + "CHANGEFEED_KAFKA_BROKERS"); val != "" {
		config.ChangeFeed.KafkaConfig.Brokers = strings.Split(val, ",")
	}
	envString("CHANGEFEED_KAFKA_TOPIC", &config.ChangeFeed.KafkaConfig.Topic)
	envString("CHANGEFEED_KAFKA_GROUP_ID", &config.ChangeFeed.KafkaConfig.GroupID)

	envBool("LOGGING_DEBUG", &config.Logging.Debug)
	envBool("SCHEMA_CHECK_ENABLED", &config.SchemaCheck.Enabled)

	return cm.apply(&config)
}

func envString(key string, dst *string) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		*dst = val
	}
}

func envInt(key string, dst *int) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		var n int
		if _, err := fmt.Sscanf(val, "%d", &n); err == nil {
			*dst = n
		}
	}
}

func envBool(key string, dst *bool) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		*dst = val == "true" || val == "1"
	}
}

func envDuration(key string, dst *time.Duration) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}

func (cm *ConfigManager) apply(config *InternalConfig) error {
	if err := ValidateConfig(config); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	cm.config = config
	return nil
}

// KafkaGroupID returns the consumer group for the Kafka change queue. An
// explicit group_id wins. Otherwise a process with the cache enabled gets a
// group of its own, so that every process sees every event and evicts its
// cached copies; without the cache all processes share DefaultKafkaGroupID.
// Each call without an explicit group_id and with the cache enabled returns
// a new group.
func (c *InternalConfig) KafkaGroupID() string {
	if id := c.ChangeFeed.KafkaConfig.GroupID; id != "" {
		return id
	}
	if c.Cache.Enabled {
		return DefaultKafkaGroupID + "-" + uuid.NewString()
	}
	return DefaultKafkaGroupID
}

// GetConfig returns the current internal configuration.
func (cm *ConfigManager) GetConfig() *InternalConfig {
	return cm.config
}

// ValidateConfig validates the configuration and returns an error if invalid.
// Cache backends are validated by the strategy registered for their type.
func ValidateConfig(config *InternalConfig) error {
	if config == nil {
		return fmt.Errorf("config cannot be nil")
	}

	// Validate Database configuration
	if config.Database.Type == "" {
		return fmt.Errorf("database.type is required")
	}
	if config.Database.Type != "mysql" {
		return fmt.Errorf("database.type must be 'mysql'")
	}
	if config.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if config.Database.Port <= 0 || config.Database.Port > 65535 {
		return fmt.Errorf("database.port must be between 1 and 65535")
	}
	if config.Database.MaxOpenConns < 0 {
		return fmt.Errorf("database.max_open_conns must be non-negative")
	}
	if config.Database.ConnectionTimeout <= 0 {
		return fmt.Errorf("database.connection_timeout must be greater than 0")
	}

	// Validate Cache configuration using Strategy pattern
	if config.Cache.Enabled {
		if config.Cache.Type == "" {
			return fmt.Errorf("cache.type is required")
		}
		validator, exists := GetValidator(config.Cache.Type)
		if !exists {
			return fmt.Errorf("unsupported cache type: %s", config.Cache.Type)
		}
		if err := validator.Validate(config); err != nil {
			return fmt.Errorf("cache validation failed: %w", err)
		}
		if config.Cache.TTL < 0 {
			return fmt.Errorf("cache.ttl must be non-negative")
		}
	}

	// Validate Change feed configuration
	if config.ChangeFeed.Enabled {
		cf := config.ChangeFeed
		switch cf.QueueType {
		case "memory":
			if cf.QueueBufferSize <= 0 {
				return fmt.Errorf("changefeed.queue_buffer_size must be greater than 0")
			}
		case "redis":
			if len(config.Cache.RedisConfig.Endpoints) == 0 {
				return fmt.Errorf("cache.redis_config.endpoints is required when changefeed.queue_type is 'redis'")
			}
			if cf.RedisKey == "" {
				return fmt.Errorf("changefeed.redis_key is required when queue_type is 'redis'")
			}
		case "kafka":
			if len(cf.KafkaConfig.Brokers) == 0 {
				return fmt.Errorf("kafka_config.brokers is required when queue_type is 'kafka'")
			}
			if cf.KafkaConfig.Topic == "" {
				return fmt.Errorf("kafka_config.topic is required when queue_type is 'kafka'")
			}
		default:
			return fmt.Errorf("changefeed.queue_type must be 'memory', 'redis', or 'kafka'")
		}
		if cf.BatchSize <= 0 {
			return fmt.Errorf("changefeed.batch_size must be greater than 0")
		}
		if cf.DispatchRate <= 0 {
			return fmt.Errorf("changefeed.dispatch_rate must be greater than 0")
		}
		if cf.PollInterval <= 0 {
			return fmt.Errorf("changefeed.poll_interval must be greater than 0")
		}
	}

	return nil
}
