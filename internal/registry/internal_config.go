package registry

import (
	"time"
)

// InternalConfig represents the internal configuration structure.
// The public Config in pkg/management is an alias of this type.
type InternalConfig struct {
	Database    InternalDatabaseConfig    `yaml:"database" json:"database"`
	Cache       InternalCacheConfig       `yaml:"cache" json:"cache"`
	ChangeFeed  InternalChangeFeedConfig  `yaml:"changefeed" json:"changefeed"`
	Logging     InternalLoggingConfig     `yaml:"logging" json:"logging"`
	SchemaCheck InternalSchemaCheckConfig `yaml:"schema_check" json:"schema_check"`
}

// InternalDatabaseConfig contains configuration for the relational database.
// Pool knobs are handed to database/sql as they are.
type InternalDatabaseConfig struct {
	Type              string            `yaml:"type" json:"type"`
	Host              string            `yaml:"host" json:"host"`
	Port              int               `yaml:"port" json:"port"`
	Database          string            `yaml:"database" json:"database"`
	Username          string            `yaml:"username" json:"username"`
	Password          string            `yaml:"password" json:"password"`
	Params            map[string]string `yaml:"params,omitempty" json:"params,omitempty"`
	MaxOpenConns      int               `yaml:"max_open_conns" json:"max_open_conns"`
	MaxIdleConns      int               `yaml:"max_idle_conns" json:"max_idle_conns"`
	ConnMaxLifetime   time.Duration     `yaml:"conn_max_lifetime" json:"conn_max_lifetime"`
	ConnMaxIdleTime   time.Duration     `yaml:"conn_max_idle_time" json:"conn_max_idle_time"`
	ConnectionTimeout time.Duration     `yaml:"connection_timeout" json:"connection_timeout"`
}

// InternalCacheConfig contains configuration for the entity cache.
// Supports several key-value backends (memory, Redis, DynamoDB) through the
// kvstore factory registry.
type InternalCacheConfig struct {
	Enabled        bool                   `yaml:"enabled" json:"enabled"`
	Type           string                 `yaml:"type" json:"type"`
	Namespace      string                 `yaml:"namespace" json:"namespace"`
	TTL            time.Duration          `yaml:"ttl" json:"ttl"`
	MaxEntries     int                    `yaml:"max_entries,omitempty" json:"max_entries,omitempty"` // memory backend only
	RedisConfig    InternalRedisConfig    `yaml:"redis_config,omitempty" json:"redis_config,omitempty"`
	DynamoDBConfig InternalDynamoDBConfig `yaml:"dynamodb_config,omitempty" json:"dynamodb_config,omitempty"`
	MaxRetries     int                    `yaml:"max_retries,omitempty" json:"max_retries,omitempty"`
	DialTimeout    time.Duration          `yaml:"dial_timeout,omitempty" json:"dial_timeout,omitempty"`
	ReadTimeout    time.Duration          `yaml:"read_timeout,omitempty" json:"read_timeout,omitempty"`
	WriteTimeout   time.Duration          `yaml:"write_timeout,omitempty" json:"write_timeout,omitempty"`
}

// InternalRedisConfig contains Redis-specific configuration.
type InternalRedisConfig struct {
	Endpoints    []string `yaml:"endpoints" json:"endpoints"`
	Password     string   `yaml:"password,omitempty" json:"password,omitempty"`
	DB           int      `yaml:"db" json:"db"`
	PoolSize     int      `yaml:"pool_size" json:"pool_size"`
	MinIdleConns int      `yaml:"min_idle_conns" json:"min_idle_conns"`
}

// InternalDynamoDBConfig contains DynamoDB-specific configuration.
type InternalDynamoDBConfig struct {
	Region          string `yaml:"region" json:"region"`
	TableName       string `yaml:"table_name" json:"table_name"`
	Endpoint        string `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
	AccessKeyID     string `yaml:"access_key_id,omitempty" json:"access_key_id,omitempty"`
	SecretAccessKey string `yaml:"secret_access_key,omitempty" json:"secret_access_key,omitempty"`
}

// InternalChangeFeedConfig contains configuration for change event publishing
// and dispatching.
type InternalChangeFeedConfig struct {
	Enabled         bool                `yaml:"enabled" json:"enabled"`
	QueueType       string              `yaml:"queue_type" json:"queue_type"`
	QueueBufferSize int                 `yaml:"queue_buffer_size" json:"queue_buffer_size"`
	RedisKey        string              `yaml:"redis_key" json:"redis_key"`
	BatchSize       int                 `yaml:"batch_size" json:"batch_size"`
	DispatchRate    int                 `yaml:"dispatch_rate" json:"dispatch_rate"` // events per second delivered to listeners
	PollInterval    time.Duration       `yaml:"poll_interval" json:"poll_interval"`
	KafkaConfig     InternalKafkaConfig `yaml:"kafka_config" json:"kafka_config"`
}

// InternalKafkaConfig contains Kafka-specific configuration.
type InternalKafkaConfig struct {
	Brokers         []string      `yaml:"brokers" json:"brokers"`
	Topic           string        `yaml:"topic" json:"topic"`
	GroupID         string        `yaml:"group_id" json:"group_id"`
	BatchSize       int           `yaml:"batch_size" json:"batch_size"`
	BatchTimeout    time.Duration `yaml:"batch_timeout" json:"batch_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" json:"write_timeout"`
	ReadTimeout     time.Duration `yaml:"read_timeout" json:"read_timeout"`
	RequiredAcks    int           `yaml:"required_acks" json:"required_acks"`
	MaxMessageBytes int           `yaml:"max_message_bytes" json:"max_message_bytes"`
	MinBytes        int           `yaml:"min_bytes" json:"min_bytes"`
	MaxBytes        int           `yaml:"max_bytes" json:"max_bytes"`
	MaxWait         time.Duration `yaml:"max_wait" json:"max_wait"`
}

// InternalLoggingConfig controls log verbosity.
type InternalLoggingConfig struct {
	Debug bool `yaml:"debug" json:"debug"`
}

// InternalSchemaCheckConfig controls the startup comparison of mappings with
// the live tables.
type InternalSchemaCheckConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
}
