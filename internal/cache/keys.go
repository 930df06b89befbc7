package cache

import "fmt"

// KeyBuilder builds cache keys in the format: {namespace}:{table}:{id}
type KeyBuilder struct {
	namespace string
}

// NewKeyBuilder creates a new key builder.
func NewKeyBuilder(namespace string) *KeyBuilder {
	return &KeyBuilder{namespace: namespace}
}

// BuildKey constructs a cache key for the given table and primary key value.
func (kb *KeyBuilder) BuildKey(tableName, id string) string {
	if kb.namespace != "" {
		return fmt.Sprintf("%s:%s:%s", kb.namespace, tableName, id)
	}
	return fmt.Sprintf("%s:%s", tableName, id)
}
