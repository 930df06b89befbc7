// Package repository persists the management entities in MySQL.
//
// Every operation is a single statement, or a short sequence of statements
// without a surrounding transaction. Failures of the database are returned as
// *core.TechnicalError; lookups of missing entities return nil without error.
package repository

import (
	"context"
	"fmt"
	"log"

	"github.com/rzpsarthak13/mgmt-repository/internal/core"
	"github.com/rzpsarthak13/mgmt-repository/internal/database"
	"github.com/rzpsarthak13/mgmt-repository/internal/orm"
	"github.com/rzpsarthak13/mgmt-repository/pkg/model"
)

// Tables holding the root row of each entity. Change events and cache keys
// use them as entity names.
const (
	ApiTable              = "apis"
	IdentityProviderTable = "identity_providers"
)

// ApiRepository stores APIs together with their labels, groups and views.
type ApiRepository interface {
	FindByID(ctx context.Context, id string) (*model.Api, error)
	FindAll(ctx context.Context) ([]*model.Api, error)
	FindByVisibility(ctx context.Context, visibility model.Visibility) ([]*model.Api, error)
	FindByIDs(ctx context.Context, ids []string) ([]*model.Api, error)
	FindByGroups(ctx context.Context, groupIDs []string) ([]*model.Api, error)
	Create(ctx context.Context, api *model.Api) (*model.Api, error)
	Update(ctx context.Context, api *model.Api) (*model.Api, error)
	Delete(ctx context.Context, id string) error
}

// IdentityProviderRepository stores identity providers.
type IdentityProviderRepository interface {
	FindByID(ctx context.Context, id string) (*model.IdentityProvider, error)
	FindAll(ctx context.Context) ([]*model.IdentityProvider, error)
	Create(ctx context.Context, idp *model.IdentityProvider) (*model.IdentityProvider, error)
	Update(ctx context.Context, idp *model.IdentityProvider) (*model.IdentityProvider, error)
	Delete(ctx context.Context, id string) error
}

// Mappings returns the mappings of every table written by the repositories.
func Mappings() []orm.Mapping {
	return []orm.Mapping{apiMapper, apiLabelsMapper, apiGroupsMapper, apiViewsMapper, identityProviderMapper}
}

func debugf(prefix, format string, args ...interface{}) {
	core.Debugf(prefix+" "+format, args...)
}

// technical logs err and wraps it into a TechnicalError for op.
func technical(prefix, op string, err error) error {
	kind := database.Classify(err)
	log.Printf("%s ERROR: %s failed (%s): %v", prefix, op, kind, err)
	return &core.TechnicalError{Op: op, Kind: kind, Err: err}
}

func notFound(table, id string) error {
	return fmt.Errorf("%w: %s '%s'", core.ErrNotFound, table, id)
}

// exists reports whether a row with the given id is present in table.
func exists(ctx context.Context, db core.Database, table, idColumn, id string) (bool, error) {
	query := fmt.Sprintf("select 1 from %s where %s = ?", orm.EscapeReservedWord(table), orm.EscapeReservedWord(idColumn))
	rows, err := db.Query(ctx, query, id)
	if err != nil {
		return false, err
	}
	defer rows.Close()

	found := rows.Next()
	return found, rows.Err()
}
