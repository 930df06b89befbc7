package repository

import (
	"context"
	"fmt"

	"github.com/rzpsarthak13/mgmt-repository/internal/core"
	"github.com/rzpsarthak13/mgmt-repository/internal/orm"
)

// CrudRepository implements find, create, update and delete for an entity
// stored in a single table.
type CrudRepository[T any] struct {
	db     core.Database
	mapper *orm.ObjectMapper[T]
	id     func(*T) string
	prefix string
	name   string
}

// NewCrudRepository creates a repository for the entities mapped by mapper.
// id returns the primary key of an entity; name is used in logs and errors.
func NewCrudRepository[T any](db core.Database, mapper *orm.ObjectMapper[T], id func(*T) string, name, logPrefix string) *CrudRepository[T] {
	return &CrudRepository[T]{
		db:     db,
		mapper: mapper,
		id:     id,
		prefix: logPrefix,
		name:   name,
	}
}

// FindByID returns the entity with the given id, or nil when there is none.
func (r *CrudRepository[T]) FindByID(ctx context.Context, id string) (*T, error) {
	debugf(r.prefix, "Find %s by id [%s]", r.name, id)

	entities, err := r.query(ctx, r.mapper.SelectByIDSQL(), id)
	if err != nil {
		return nil, technical(r.prefix, fmt.Sprintf("find %s by id", r.name), err)
	}
	if len(entities) == 0 {
		return nil, nil
	}
	return entities[0], nil
}

// FindAll returns every entity of the table.
func (r *CrudRepository[T]) FindAll(ctx context.Context) ([]*T, error) {
	debugf(r.prefix, "Find all %s", r.name)

	entities, err := r.query(ctx, r.mapper.SelectAllSQL())
	if err != nil {
		return nil, technical(r.prefix, fmt.Sprintf("find all %s", r.name), err)
	}
	return entities, nil
}

// Create inserts e and returns the stored entity.
func (r *CrudRepository[T]) Create(ctx context.Context, e *T) (*T, error) {
	if e == nil {
		return nil, fmt.Errorf("%w: %s is nil", core.ErrInvalidEntity, r.name)
	}
	id := r.id(e)
	debugf(r.prefix, "Create %s [%s]", r.name, id)

	op := fmt.Sprintf("create %s", r.name)
	stmt, err := r.mapper.InsertStatement(e)
	if err != nil {
		return nil, technical(r.prefix, op, err)
	}
	if _, err := r.db.Exec(ctx, stmt.SQL, stmt.Args...); err != nil {
		return nil, technical(r.prefix, op, err)
	}
	return r.FindByID(ctx, id)
}

// Update overwrites every column of the stored entity with the values of e.
// It returns core.ErrNotFound when no entity has e's id.
func (r *CrudRepository[T]) Update(ctx context.Context, e *T) (*T, error) {
	if e == nil {
		return nil, fmt.Errorf("%w: %s is nil", core.ErrInvalidEntity, r.name)
	}
	id := r.id(e)
	if id == "" {
		return nil, fmt.Errorf("%w: %s has no id", core.ErrInvalidEntity, r.name)
	}
	debugf(r.prefix, "Update %s [%s]", r.name, id)

	op := fmt.Sprintf("update %s", r.name)
	stmt, err := r.mapper.UpdateStatement(e, id)
	if err != nil {
		return nil, technical(r.prefix, op, err)
	}
	result, err := r.db.Exec(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, technical(r.prefix, op, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, technical(r.prefix, op, err)
	}
	if affected == 0 {
		// MySQL reports unchanged rows as not affected.
		found, err := exists(ctx, r.db, r.mapper.Table(), r.mapper.IDColumn(), id)
		if err != nil {
			return nil, technical(r.prefix, op, err)
		}
		if !found {
			return nil, notFound(r.name, id)
		}
	}
	return r.FindByID(ctx, id)
}

// Delete removes the entity with the given id. Deleting a missing entity is
// not an error.
func (r *CrudRepository[T]) Delete(ctx context.Context, id string) error {
	debugf(r.prefix, "Delete %s [%s]", r.name, id)

	if _, err := r.db.Exec(ctx, r.mapper.DeleteSQL(), id); err != nil {
		return technical(r.prefix, fmt.Sprintf("delete %s", r.name), err)
	}
	return nil
}

func (r *CrudRepository[T]) query(ctx context.Context, query string, args ...interface{}) ([]*T, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	mapRow := r.mapper.RowMapper()
	entities := []*T{}
	err = orm.ScanRecords(rows, func(rec orm.Record) error {
		e, err := mapRow(rec)
		if err != nil {
			return err
		}
		entities = append(entities, e)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entities, nil
}
