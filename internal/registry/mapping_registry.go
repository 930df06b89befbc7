package registry

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/rzpsarthak13/mgmt-repository/internal/core"
	"github.com/rzpsarthak13/mgmt-repository/internal/orm"
)

// SchemaReader reads the live layout of a table.
type SchemaReader interface {
	GetSchema(ctx context.Context, tableName string) (*core.Schema, error)
}

// MappingMetadata contains what the registry knows about one mapped table.
type MappingMetadata struct {
	// TableName is the name of the table.
	TableName string

	// Mapping is the entity mapping for the table.
	Mapping orm.Mapping

	// Schema is the live table layout, set by the last successful Check.
	Schema *core.Schema

	// CheckedAt is the timestamp of the last successful Check.
	CheckedAt *time.Time

	// CreatedAt is the timestamp when the mapping was registered.
	CreatedAt time.Time
}

// MappingRegistry keeps the entity mappings used by the repositories so they
// can be compared with the live database at startup.
type MappingRegistry struct {
	mu       sync.RWMutex
	mappings map[string]*MappingMetadata
}

// NewMappingRegistry creates an empty registry.
func NewMappingRegistry() *MappingRegistry {
	return &MappingRegistry{
		mappings: make(map[string]*MappingMetadata),
	}
}

// Register adds a mapping. Registering a second mapping for the same table
// fails.
func (mr *MappingRegistry) Register(mapping orm.Mapping) error {
	if mapping == nil {
		return fmt.Errorf("mapping cannot be nil")
	}
	tableName := mapping.Table()
	if tableName == "" {
		return fmt.Errorf("table name cannot be empty")
	}

	mr.mu.Lock()
	defer mr.mu.Unlock()

	if _, exists := mr.mappings[tableName]; exists {
		return fmt.Errorf("table %q is already registered", tableName)
	}

	mr.mappings[tableName] = &MappingMetadata{
		TableName: tableName,
		Mapping:   mapping,
		CreatedAt: time.Now(),
	}
	return nil
}

// GetMetadata returns a copy of the metadata of a registered table.
func (mr *MappingRegistry) GetMetadata(tableName string) (*MappingMetadata, error) {
	mr.mu.RLock()
	defer mr.mu.RUnlock()

	metadata, exists := mr.mappings[tableName]
	if !exists {
		return nil, fmt.Errorf("table %q is not registered", tableName)
	}

	copied := *metadata
	return &copied, nil
}

// List returns the registered table names in lexical order.
func (mr *MappingRegistry) List() []string {
	mr.mu.RLock()
	defer mr.mu.RUnlock()

	names := make([]string, 0, len(mr.mappings))
	for name := range mr.mappings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the total number of registered tables.
func (mr *MappingRegistry) Count() int {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	return len(mr.mappings)
}

// Check reads the layout of every registered table and validates the mapping
// against it. All mismatches are reported together.
func (mr *MappingRegistry) Check(ctx context.Context, reader SchemaReader) error {
	var errs []error
	for _, tableName := range mr.List() {
		mr.mu.RLock()
		metadata := mr.mappings[tableName]
		mr.mu.RUnlock()

		schema, err := reader.GetSchema(ctx, tableName)
		if err != nil {
			errs = append(errs, fmt.Errorf("table %q: %w", tableName, err))
			continue
		}
		if err := metadata.Mapping.Validate(schema); err != nil {
			errs = append(errs, err)
			continue
		}

		now := time.Now()
		mr.mu.Lock()
		metadata.Schema = schema
		metadata.CheckedAt = &now
		mr.mu.Unlock()
		log.Printf("[REGISTRY] Mapping for table %s matches the database (%d columns)", tableName, len(metadata.Mapping.ColumnNames()))
	}
	return errors.Join(errs...)
}
