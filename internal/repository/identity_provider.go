package repository

import (
	"time"

	"github.com/rzpsarthak13/mgmt-repository/internal/core"
	"github.com/rzpsarthak13/mgmt-repository/internal/orm"
	"github.com/rzpsarthak13/mgmt-repository/pkg/model"
)

const idpLogPrefix = "[IDP-REPOSITORY]"

type idp = model.IdentityProvider

var identityProviderMapper = orm.NewBuilder[idp](IdentityProviderTable, "id").
	AddColumn(orm.Text("id", func(e *idp) string { return e.ID }, func(e *idp, v string) { e.ID = v })).
	AddColumn(orm.Text("name", func(e *idp) string { return e.Name }, func(e *idp, v string) { e.Name = v })).
	AddColumn(orm.Text("description", func(e *idp) string { return e.Description }, func(e *idp, v string) { e.Description = v })).
	AddColumn(orm.Enum("type", model.IdentityProviderTypes,
		func(e *idp) model.IdentityProviderType { return e.Type },
		func(e *idp, v model.IdentityProviderType) { e.Type = v })).
	AddColumn(orm.Boolean("enabled", func(e *idp) bool { return e.Enabled }, func(e *idp, v bool) { e.Enabled = v })).
	AddColumn(orm.Timestamp("created_at", func(e *idp) time.Time { return e.CreatedAt }, func(e *idp, v time.Time) { e.CreatedAt = v })).
	AddColumn(orm.Timestamp("updated_at", func(e *idp) time.Time { return e.UpdatedAt }, func(e *idp, v time.Time) { e.UpdatedAt = v })).
	AddColumn(orm.JSON("configuration",
		func(e *idp) map[string]any { return e.Configuration },
		func(e *idp, v map[string]any) { e.Configuration = v })).
	AddColumn(orm.JSON("group_mappings",
		func(e *idp) map[string][]string { return e.GroupMappings },
		func(e *idp, v map[string][]string) { e.GroupMappings = v })).
	AddColumn(orm.JSON("role_mappings",
		func(e *idp) map[string][]string { return e.RoleMappings },
		func(e *idp, v map[string][]string) { e.RoleMappings = v })).
	AddColumn(orm.JSON("user_profile_mapping",
		func(e *idp) map[string]string { return e.UserProfileMapping },
		func(e *idp, v map[string]string) { e.UserProfileMapping = v })).
	MustBuild()

// NewIdentityProviderRepository returns the identity provider repository.
func NewIdentityProviderRepository(db core.Database) *CrudRepository[model.IdentityProvider] {
	return NewCrudRepository(db, identityProviderMapper,
		func(e *model.IdentityProvider) string { return e.ID },
		"identity provider", idpLogPrefix)
}

var _ IdentityProviderRepository = (*CrudRepository[model.IdentityProvider])(nil)
