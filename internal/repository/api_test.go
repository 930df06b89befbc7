package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/require"

	"github.com/rzpsarthak13/mgmt-repository/internal/core"
	"github.com/rzpsarthak13/mgmt-repository/internal/database"
	"github.com/rzpsarthak13/mgmt-repository/internal/repository"
	"github.com/rzpsarthak13/mgmt-repository/pkg/model"
)

const (
	selectApiByID  = "select * from apis a left join api_views av on a.id = av.api_id where a.id = ?"
	selectLabels   = "select label from api_labels where api_id = ?"
	selectGroups   = "select group_id from api_groups where api_id = ?"
	insertApi      = "insert into apis (id, name, description, version, definition, deployed_at, created_at, updated_at, visibility, lifecycle_state, picture) values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"
	updateApi      = "update apis set id = ?, name = ?, description = ?, version = ?, definition = ?, deployed_at = ?, created_at = ?, updated_at = ?, visibility = ?, lifecycle_state = ?, picture = ? where id = ?"
	deleteLabels   = "delete from api_labels where api_id = ?"
	deleteGroups   = "delete from api_groups where api_id = ?"
	deleteViews    = "delete from api_views where api_id = ?"
	deleteApi      = "delete from apis where id = ?"
	apiExists      = "select 1 from apis where id = ?"
	insertOneView  = "insert into api_views (api_id, `view`) values (?, ?)"
	insertTwoLabel = "insert into api_labels (api_id, label) values (?, ?), (?, ?)"
)

var apiColumns = []string{
	"id", "name", "description", "version", "definition", "deployed_at", "created_at", "updated_at",
	"visibility", "lifecycle_state", "picture", "api_id", "view",
}

var createdAt = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func newMock(t *testing.T) (core.Database, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return database.NewFromDB(db), mock
}

func apiRow(rows *sqlmock.Rows, id, name string, view interface{}) *sqlmock.Rows {
	var apiID interface{}
	if view != nil {
		apiID = id
	}
	return rows.AddRow(id, name, "", "1.0", nil, nil, createdAt, nil, "PUBLIC", "STARTED", nil, apiID, view)
}

func expectChildren(mock sqlmock.Sqlmock, id string, labels, groups []string) {
	labelRows := sqlmock.NewRows([]string{"label"})
	for _, l := range labels {
		labelRows.AddRow(l)
	}
	groupRows := sqlmock.NewRows([]string{"group_id"})
	for _, g := range groups {
		groupRows.AddRow(g)
	}
	mock.ExpectQuery(selectLabels).WithArgs(id).WillReturnRows(labelRows)
	mock.ExpectQuery(selectGroups).WithArgs(id).WillReturnRows(groupRows)
}

func TestApiRepository_FindByID(t *testing.T) {
	t.Parallel()

	db, mock := newMock(t)
	rows := sqlmock.NewRows(apiColumns)
	apiRow(rows, "a1", "Foo", "v1")
	apiRow(rows, "a1", "Foo", "v2")
	mock.ExpectQuery(selectApiByID).WithArgs("a1").WillReturnRows(rows)
	expectChildren(mock, "a1", []string{"x"}, []string{"g1"})

	got, err := repository.NewApiRepository(db).FindByID(context.Background(), "a1")

	require.NoError(t, err)
	require.Equal(t, &model.Api{
		ID:             "a1",
		Name:           "Foo",
		Version:        "1.0",
		CreatedAt:      createdAt,
		Visibility:     model.VisibilityPublic,
		LifecycleState: model.LifecycleStarted,
		Labels:         []string{"x"},
		Groups:         []string{"g1"},
		Views:          []string{"v1", "v2"},
	}, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApiRepository_FindByID_Missing_ReturnsNil(t *testing.T) {
	t.Parallel()

	db, mock := newMock(t)
	mock.ExpectQuery(selectApiByID).WithArgs("nope").WillReturnRows(sqlmock.NewRows(apiColumns))

	got, err := repository.NewApiRepository(db).FindByID(context.Background(), "nope")

	require.NoError(t, err)
	require.Nil(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApiRepository_CreateThenUpdate_ClearsLabels(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db, mock := newMock(t)
	repo := repository.NewApiRepository(db)

	// create
	mock.ExpectExec(insertApi).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(insertTwoLabel).WithArgs("a1", "x", "a1", "y").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(insertOneView).WithArgs("a1", "v1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(selectApiByID).WithArgs("a1").WillReturnRows(apiRow(sqlmock.NewRows(apiColumns), "a1", "Foo", "v1"))
	expectChildren(mock, "a1", []string{"x", "y"}, nil)

	created, err := repo.Create(ctx, &model.Api{
		ID:     "a1",
		Name:   "Foo",
		Labels: []string{"x", " ", "y", ""},
		Views:  []string{"v1"},
	})
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"x", "y"}, created.Labels)
	require.Equal(t, []string{"v1"}, created.Views)

	// update with no labels
	mock.ExpectExec(updateApi).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(deleteLabels).WithArgs("a1").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(deleteGroups).WithArgs("a1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(deleteViews).WithArgs("a1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(insertOneView).WithArgs("a1", "v1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(selectApiByID).WithArgs("a1").WillReturnRows(apiRow(sqlmock.NewRows(apiColumns), "a1", "Foo", "v1"))
	expectChildren(mock, "a1", nil, nil)

	created.Labels = []string{}
	updated, err := repo.Update(ctx, created)
	require.NoError(t, err)
	require.Empty(t, updated.Labels)
	require.Equal(t, []string{"v1"}, updated.Views)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApiRepository_Create_BindsColumnsInOrder(t *testing.T) {
	t.Parallel()

	db, mock := newMock(t)
	deployed := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(insertApi).
		WithArgs("a1", "Foo", "desc", "2", "{}", deployed, createdAt, nil, "PRIVATE", "STOPPED", "pic").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(selectApiByID).WithArgs("a1").WillReturnRows(apiRow(sqlmock.NewRows(apiColumns), "a1", "Foo", nil))
	expectChildren(mock, "a1", nil, nil)

	_, err := repository.NewApiRepository(db).Create(context.Background(), &model.Api{
		ID: "a1", Name: "Foo", Description: "desc", Version: "2", Definition: "{}",
		DeployedAt: deployed, CreatedAt: createdAt,
		Visibility: model.VisibilityPrivate, LifecycleState: model.LifecycleStopped, Picture: "pic",
	})

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApiRepository_Update_Missing_ReturnsNotFoundWithoutTouchingChildren(t *testing.T) {
	t.Parallel()

	db, mock := newMock(t)
	mock.ExpectExec(updateApi).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(apiExists).WithArgs("ghost").WillReturnRows(sqlmock.NewRows([]string{"1"}))

	_, err := repository.NewApiRepository(db).Update(context.Background(), &model.Api{ID: "ghost", Labels: []string{"x"}})

	require.ErrorIs(t, err, core.ErrNotFound)
	require.False(t, errors.Is(err, core.ErrTechnical))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApiRepository_Update_UnchangedRow_StillReplacesChildren(t *testing.T) {
	t.Parallel()

	db, mock := newMock(t)
	mock.ExpectExec(updateApi).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(apiExists).WithArgs("a1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectExec(deleteLabels).WithArgs("a1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(deleteGroups).WithArgs("a1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(deleteViews).WithArgs("a1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("insert into api_groups (api_id, group_id) values (?, ?)").WithArgs("a1", "g1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(selectApiByID).WithArgs("a1").WillReturnRows(apiRow(sqlmock.NewRows(apiColumns), "a1", "Foo", nil))
	expectChildren(mock, "a1", nil, []string{"g1"})

	got, err := repository.NewApiRepository(db).Update(context.Background(), &model.Api{ID: "a1", Groups: []string{"g1", "g1"}})

	require.NoError(t, err)
	require.Equal(t, []string{"g1"}, got.Groups)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApiRepository_Update_Nil_IsInvalid(t *testing.T) {
	t.Parallel()

	db, _ := newMock(t)

	_, err := repository.NewApiRepository(db).Update(context.Background(), nil)

	require.ErrorIs(t, err, core.ErrInvalidEntity)
}

func TestApiRepository_Delete_Missing_IsNoop(t *testing.T) {
	t.Parallel()

	db, mock := newMock(t)
	mock.ExpectExec(deleteLabels).WithArgs("ghost").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(deleteGroups).WithArgs("ghost").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(deleteViews).WithArgs("ghost").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(deleteApi).WithArgs("ghost").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repository.NewApiRepository(db).Delete(context.Background(), "ghost")

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApiRepository_EmptyIDLists_NoQuery(t *testing.T) {
	t.Parallel()

	db, mock := newMock(t)
	repo := repository.NewApiRepository(db)

	byIDs, err := repo.FindByIDs(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, byIDs)

	byGroups, err := repo.FindByGroups(context.Background(), []string{})
	require.NoError(t, err)
	require.Empty(t, byGroups)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApiRepository_FindByIDs(t *testing.T) {
	t.Parallel()

	db, mock := newMock(t)
	rows := sqlmock.NewRows(apiColumns)
	apiRow(rows, "a1", "Foo", nil)
	apiRow(rows, "a2", "Bar", nil)
	mock.ExpectQuery("select * from apis a left join api_views av on a.id = av.api_id where a.id in (?, ?)").
		WithArgs("a1", "a2").
		WillReturnRows(rows)
	expectChildren(mock, "a1", nil, nil)
	expectChildren(mock, "a2", nil, nil)

	got, err := repository.NewApiRepository(db).FindByIDs(context.Background(), []string{"a1", "a2"})

	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Empty(t, got[0].Views)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApiRepository_FindByGroups_InterleavedRows_DistinctApis(t *testing.T) {
	t.Parallel()

	db, mock := newMock(t)
	rows := sqlmock.NewRows(apiColumns)
	apiRow(rows, "a1", "Foo", "v1")
	apiRow(rows, "a2", "Bar", "w1")
	apiRow(rows, "a1", "Foo", "v1") // a1 is in both requested groups
	mock.ExpectQuery("select a.*, av.* from apis a join api_groups ag on a.id = ag.api_id left join api_views av on a.id = av.api_id where ag.group_id in (?, ?)").
		WithArgs("g1", "g2").
		WillReturnRows(rows)
	expectChildren(mock, "a1", nil, []string{"g1", "g2"})
	expectChildren(mock, "a2", nil, []string{"g2"})

	got, err := repository.NewApiRepository(db).FindByGroups(context.Background(), []string{"g1", "g2"})

	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "a1", got[0].ID)
	require.Equal(t, []string{"v1"}, got[0].Views)
	require.Equal(t, "a2", got[1].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApiRepository_FindByVisibility(t *testing.T) {
	t.Parallel()

	db, mock := newMock(t)
	mock.ExpectQuery("select * from apis a left join api_views av on a.id = av.api_id where a.visibility = ?").
		WithArgs("PUBLIC").
		WillReturnRows(apiRow(sqlmock.NewRows(apiColumns), "a1", "Foo", nil))
	expectChildren(mock, "a1", nil, nil)

	got, err := repository.NewApiRepository(db).FindByVisibility(context.Background(), model.VisibilityPublic)

	require.NoError(t, err)
	require.Len(t, got, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApiRepository_DatabaseFailure_IsTechnical(t *testing.T) {
	t.Parallel()

	db, mock := newMock(t)
	mock.ExpectQuery(selectApiByID).WithArgs("a1").WillReturnError(&mysql.MySQLError{Number: 1146, Message: "Table 'apis' doesn't exist"})
	mock.ExpectExec(insertApi).WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'a1'"})
	mock.ExpectExec(deleteLabels).WillReturnError(mysql.ErrInvalidConn)

	repo := repository.NewApiRepository(db)

	_, err := repo.FindByID(context.Background(), "a1")
	require.ErrorIs(t, err, core.ErrTechnical)
	require.Equal(t, core.KindStatement, core.KindOf(err))

	_, err = repo.Create(context.Background(), &model.Api{ID: "a1"})
	require.ErrorIs(t, err, core.ErrTechnical)
	require.Equal(t, core.KindConstraint, core.KindOf(err))

	err = repo.Delete(context.Background(), "a1")
	require.ErrorIs(t, err, core.ErrTechnical)
	require.Equal(t, core.KindConnectivity, core.KindOf(err))
}

func TestApiRepository_UnknownEnumValue_IsMappingFailure(t *testing.T) {
	t.Parallel()

	db, mock := newMock(t)
	rows := sqlmock.NewRows(apiColumns).
		AddRow("a1", "Foo", nil, nil, nil, nil, nil, nil, "SECRET", nil, nil, nil, nil)
	mock.ExpectQuery(selectApiByID).WithArgs("a1").WillReturnRows(rows)

	_, err := repository.NewApiRepository(db).FindByID(context.Background(), "a1")

	require.ErrorIs(t, err, core.ErrTechnical)
	require.Equal(t, core.KindMapping, core.KindOf(err))
}
