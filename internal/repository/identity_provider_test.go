package repository_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/rzpsarthak13/mgmt-repository/internal/core"
	"github.com/rzpsarthak13/mgmt-repository/internal/orm"
	"github.com/rzpsarthak13/mgmt-repository/internal/repository"
	"github.com/rzpsarthak13/mgmt-repository/pkg/model"
)

const (
	selectIdpByID = "select * from identity_providers where id = ?"
	selectIdps    = "select * from identity_providers"
	insertIdp     = "insert into identity_providers (id, name, description, `type`, enabled, created_at, updated_at, configuration, group_mappings, role_mappings, user_profile_mapping) values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"
	updateIdp     = "update identity_providers set id = ?, name = ?, description = ?, `type` = ?, enabled = ?, created_at = ?, updated_at = ?, configuration = ?, group_mappings = ?, role_mappings = ?, user_profile_mapping = ? where id = ?"
	deleteIdp     = "delete from identity_providers where id = ?"
	idpExists     = "select 1 from identity_providers where id = ?"
)

var idpColumns = []string{
	"id", "name", "description", "type", "enabled", "created_at", "updated_at",
	"configuration", "group_mappings", "role_mappings", "user_profile_mapping",
}

func idpRow(configuration interface{}) *sqlmock.Rows {
	return sqlmock.NewRows(idpColumns).AddRow(
		"google", "Google", "corporate sso", "GOOGLE", int64(1), createdAt, nil,
		configuration, []byte(`{"admins":["g1","g2"]}`), nil, `{"email":"mail"}`)
}

func TestIdentityProviderRepository_CreateRoundTrip(t *testing.T) {
	t.Parallel()

	db, mock := newMock(t)
	mock.ExpectExec(insertIdp).
		WithArgs("google", "Google", "corporate sso", "GOOGLE", true, createdAt, nil,
			`{"clientId":"abc"}`, `{"admins":["g1","g2"]}`, nil, `{"email":"mail"}`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(selectIdpByID).WithArgs("google").WillReturnRows(idpRow(`{"clientId":"abc"}`))

	in := &model.IdentityProvider{
		ID:                 "google",
		Name:               "Google",
		Description:        "corporate sso",
		Type:               model.IdentityProviderGoogle,
		Enabled:            true,
		CreatedAt:          createdAt,
		Configuration:      map[string]any{"clientId": "abc"},
		GroupMappings:      map[string][]string{"admins": {"g1", "g2"}},
		UserProfileMapping: map[string]string{"email": "mail"},
	}

	got, err := repository.NewIdentityProviderRepository(db).Create(context.Background(), in)

	require.NoError(t, err)
	require.Equal(t, in, got)
	require.Nil(t, got.RoleMappings)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIdentityProviderRepository_MalformedJSON_IsSerializationFailure(t *testing.T) {
	t.Parallel()

	db, mock := newMock(t)
	mock.ExpectQuery(selectIdpByID).WithArgs("google").WillReturnRows(idpRow(`{"clientId":`))

	got, err := repository.NewIdentityProviderRepository(db).FindByID(context.Background(), "google")

	require.Nil(t, got)
	require.ErrorIs(t, err, core.ErrTechnical)
	require.Equal(t, core.KindSerialization, core.KindOf(err))
}

func TestIdentityProviderRepository_FindAll(t *testing.T) {
	t.Parallel()

	db, mock := newMock(t)
	rows := idpRow(nil).AddRow("gh", "GitHub", nil, "GITHUB", int64(0), nil, nil, nil, nil, nil, nil)
	mock.ExpectQuery(selectIdps).WillReturnRows(rows)

	got, err := repository.NewIdentityProviderRepository(db).FindAll(context.Background())

	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Nil(t, got[0].Configuration)
	require.Equal(t, model.IdentityProviderGitHub, got[1].Type)
	require.False(t, got[1].Enabled)
}

func TestIdentityProviderRepository_Update_Missing_ReturnsNotFound(t *testing.T) {
	t.Parallel()

	db, mock := newMock(t)
	mock.ExpectExec(updateIdp).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(idpExists).WithArgs("ghost").WillReturnRows(sqlmock.NewRows([]string{"1"}))

	_, err := repository.NewIdentityProviderRepository(db).Update(context.Background(), &model.IdentityProvider{ID: "ghost"})

	require.ErrorIs(t, err, core.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIdentityProviderRepository_Update(t *testing.T) {
	t.Parallel()

	db, mock := newMock(t)
	mock.ExpectExec(updateIdp).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(selectIdpByID).WithArgs("google").WillReturnRows(idpRow(nil))

	got, err := repository.NewIdentityProviderRepository(db).Update(context.Background(), &model.IdentityProvider{ID: "google", Name: "Google"})

	require.NoError(t, err)
	require.Equal(t, "google", got.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIdentityProviderRepository_Update_Nil_IsInvalid(t *testing.T) {
	t.Parallel()

	db, _ := newMock(t)

	_, err := repository.NewIdentityProviderRepository(db).Update(context.Background(), nil)

	require.ErrorIs(t, err, core.ErrInvalidEntity)
}

func TestIdentityProviderRepository_Delete_Missing_IsNoop(t *testing.T) {
	t.Parallel()

	db, mock := newMock(t)
	mock.ExpectExec(deleteIdp).WithArgs("ghost").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repository.NewIdentityProviderRepository(db).Delete(context.Background(), "ghost"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMappings_CoverRepositoryTables(t *testing.T) {
	t.Parallel()

	var tables []string
	for _, m := range repository.Mappings() {
		tables = append(tables, m.Table())
	}

	require.Equal(t, []string{"apis", "api_labels", "api_groups", "api_views", "identity_providers"}, tables)
}

func TestMappings_ChildTablesAgainstSchema(t *testing.T) {
	t.Parallel()

	var labels orm.Mapping
	for _, m := range repository.Mappings() {
		if m.Table() == "api_labels" {
			labels = m
		}
	}
	require.NotNil(t, labels)
	require.Equal(t, []string{"api_id", "label"}, labels.ColumnNames())

	require.NoError(t, labels.Validate(&core.Schema{
		TableName:  "api_labels",
		PrimaryKey: "api_id",
		Columns: []core.Column{
			{Name: "api_id", Type: "varchar"},
			{Name: "label", Type: "varchar"},
		},
	}))

	err := labels.Validate(&core.Schema{
		TableName: "api_labels",
		Columns:   []core.Column{{Name: "api_id", Type: "varchar"}},
	})
	require.ErrorIs(t, err, orm.ErrSchemaMismatch)
	require.ErrorContains(t, err, "column 'label' is missing")
}
