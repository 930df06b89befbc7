package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/rzpsarthak13/mgmt-repository/internal/core"
	"github.com/rzpsarthak13/mgmt-repository/internal/orm"
	"github.com/rzpsarthak13/mgmt-repository/pkg/model"
)

const apiLogPrefix = "[API-REPOSITORY]"

const (
	apiLabelsTable = "api_labels"
	apiGroupsTable = "api_groups"
	apiViewsTable  = "api_views"

	selectApis         = "select * from apis a left join api_views av on a.id = av.api_id"
	selectApisByGroups = "select a.*, av.* from apis a join api_groups ag on a.id = ag.api_id left join api_views av on a.id = av.api_id where ag.group_id in "
)

type api = model.Api

var apiMapper = orm.NewBuilder[api](ApiTable, "id").
	AddColumn(orm.Text("id", func(e *api) string { return e.ID }, func(e *api, v string) { e.ID = v })).
	AddColumn(orm.Text("name", func(e *api) string { return e.Name }, func(e *api, v string) { e.Name = v })).
	AddColumn(orm.Text("description", func(e *api) string { return e.Description }, func(e *api, v string) { e.Description = v })).
	AddColumn(orm.Text("version", func(e *api) string { return e.Version }, func(e *api, v string) { e.Version = v })).
	AddColumn(orm.Text("definition", func(e *api) string { return e.Definition }, func(e *api, v string) { e.Definition = v })).
	AddColumn(orm.Timestamp("deployed_at", func(e *api) time.Time { return e.DeployedAt }, func(e *api, v time.Time) { e.DeployedAt = v })).
	AddColumn(orm.Timestamp("created_at", func(e *api) time.Time { return e.CreatedAt }, func(e *api, v time.Time) { e.CreatedAt = v })).
	AddColumn(orm.Timestamp("updated_at", func(e *api) time.Time { return e.UpdatedAt }, func(e *api, v time.Time) { e.UpdatedAt = v })).
	AddColumn(orm.Enum("visibility", model.Visibilities,
		func(e *api) model.Visibility { return e.Visibility },
		func(e *api, v model.Visibility) { e.Visibility = v })).
	AddColumn(orm.Enum("lifecycle_state", model.LifecycleStates,
		func(e *api) model.LifecycleState { return e.LifecycleState },
		func(e *api, v model.LifecycleState) { e.LifecycleState = v })).
	AddColumn(orm.Text("picture", func(e *api) string { return e.Picture }, func(e *api, v string) { e.Picture = v })).
	MustBuild()

// apiChild is one row of a child table: a single value owned by an API.
type apiChild struct {
	apiID, value string
}

func childMapper(table, column string) *orm.ObjectMapper[apiChild] {
	return orm.NewBuilder[apiChild](table, "api_id").
		AddColumn(orm.Text("api_id", func(c *apiChild) string { return c.apiID }, func(c *apiChild, v string) { c.apiID = v })).
		AddColumn(orm.Text(column, func(c *apiChild) string { return c.value }, func(c *apiChild, v string) { c.value = v })).
		MustBuild()
}

// Child tables are written with batch inserts; their mappings exist for the
// schema check.
var (
	apiLabelsMapper = childMapper(apiLabelsTable, "label")
	apiGroupsMapper = childMapper(apiGroupsTable, "group_id")
	apiViewsMapper  = childMapper(apiViewsTable, "view")
)

// MySQLApiRepository stores APIs in the apis table and their labels, groups
// and views in child tables keyed by api_id.
type MySQLApiRepository struct {
	db core.Database
}

var _ ApiRepository = (*MySQLApiRepository)(nil)

// NewApiRepository returns the API repository on db.
func NewApiRepository(db core.Database) *MySQLApiRepository {
	return &MySQLApiRepository{db: db}
}

// FindByID returns the API with the given id, or nil when there is none.
func (r *MySQLApiRepository) FindByID(ctx context.Context, id string) (*model.Api, error) {
	debugf(apiLogPrefix, "Find api by id [%s]", id)

	apis, err := r.find(ctx, selectApis+" where a.id = ?", id)
	if err != nil {
		return nil, technical(apiLogPrefix, "find api by id", err)
	}
	if len(apis) == 0 {
		return nil, nil
	}
	return apis[0], nil
}

// FindAll returns every API.
func (r *MySQLApiRepository) FindAll(ctx context.Context) ([]*model.Api, error) {
	debugf(apiLogPrefix, "Find all apis")

	apis, err := r.find(ctx, selectApis)
	if err != nil {
		return nil, technical(apiLogPrefix, "find all apis", err)
	}
	return apis, nil
}

// FindByVisibility returns the APIs with the given visibility.
func (r *MySQLApiRepository) FindByVisibility(ctx context.Context, visibility model.Visibility) ([]*model.Api, error) {
	debugf(apiLogPrefix, "Find apis by visibility [%s]", visibility)

	apis, err := r.find(ctx, selectApis+" where a.visibility = ?", string(visibility))
	if err != nil {
		return nil, technical(apiLogPrefix, "find apis by visibility", err)
	}
	return apis, nil
}

// FindByIDs returns the APIs whose id is in ids. An empty ids returns an
// empty result without querying.
func (r *MySQLApiRepository) FindByIDs(ctx context.Context, ids []string) ([]*model.Api, error) {
	debugf(apiLogPrefix, "Find apis by ids %v", ids)

	if len(ids) == 0 {
		return []*model.Api{}, nil
	}
	clause, args, err := orm.InClause(ids)
	if err != nil {
		return nil, technical(apiLogPrefix, "find apis by ids", err)
	}
	apis, err := r.find(ctx, selectApis+" where a.id in "+clause, args...)
	if err != nil {
		return nil, technical(apiLogPrefix, "find apis by ids", err)
	}
	return apis, nil
}

// FindByGroups returns the APIs belonging to at least one of groupIDs. An
// API member of several groups is returned once.
func (r *MySQLApiRepository) FindByGroups(ctx context.Context, groupIDs []string) ([]*model.Api, error) {
	debugf(apiLogPrefix, "Find apis by groups %v", groupIDs)

	if len(groupIDs) == 0 {
		return []*model.Api{}, nil
	}
	clause, args, err := orm.InClause(groupIDs)
	if err != nil {
		return nil, technical(apiLogPrefix, "find apis by groups", err)
	}
	apis, err := r.find(ctx, selectApisByGroups+clause, args...)
	if err != nil {
		return nil, technical(apiLogPrefix, "find apis by groups", err)
	}
	return apis, nil
}

// Create inserts the API and its children, then returns the stored API.
func (r *MySQLApiRepository) Create(ctx context.Context, a *model.Api) (*model.Api, error) {
	if a == nil {
		return nil, fmt.Errorf("%w: api is nil", core.ErrInvalidEntity)
	}
	debugf(apiLogPrefix, "Create api %s [%s]", a.Name, a.ID)

	stmt, err := apiMapper.InsertStatement(a)
	if err != nil {
		return nil, technical(apiLogPrefix, "create api", err)
	}
	if _, err := r.db.Exec(ctx, stmt.SQL, stmt.Args...); err != nil {
		return nil, technical(apiLogPrefix, "create api", err)
	}
	if err := r.storeChildren(ctx, a); err != nil {
		return nil, technical(apiLogPrefix, "create api", err)
	}
	return r.FindByID(ctx, a.ID)
}

// Update overwrites the API row and replaces its labels, groups and views.
// It returns core.ErrNotFound, leaving every table untouched, when no API has
// the given id.
func (r *MySQLApiRepository) Update(ctx context.Context, a *model.Api) (*model.Api, error) {
	if a == nil {
		return nil, fmt.Errorf("%w: api is nil", core.ErrInvalidEntity)
	}
	if a.ID == "" {
		return nil, fmt.Errorf("%w: api has no id", core.ErrInvalidEntity)
	}
	debugf(apiLogPrefix, "Update api %s [%s]", a.Name, a.ID)

	stmt, err := apiMapper.UpdateStatement(a, a.ID)
	if err != nil {
		return nil, technical(apiLogPrefix, "update api", err)
	}
	result, err := r.db.Exec(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, technical(apiLogPrefix, "update api", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, technical(apiLogPrefix, "update api", err)
	}
	if affected == 0 {
		found, err := exists(ctx, r.db, apiMapper.Table(), apiMapper.IDColumn(), a.ID)
		if err != nil {
			return nil, technical(apiLogPrefix, "update api", err)
		}
		if !found {
			return nil, notFound("api", a.ID)
		}
	}

	if err := r.deleteChildren(ctx, a.ID); err != nil {
		return nil, technical(apiLogPrefix, "update api", err)
	}
	if err := r.storeChildren(ctx, a); err != nil {
		return nil, technical(apiLogPrefix, "update api", err)
	}
	return r.FindByID(ctx, a.ID)
}

// Delete removes the API and its children. Deleting a missing API is not an
// error.
func (r *MySQLApiRepository) Delete(ctx context.Context, id string) error {
	debugf(apiLogPrefix, "Delete api [%s]", id)

	if err := r.deleteChildren(ctx, id); err != nil {
		return technical(apiLogPrefix, "delete api", err)
	}
	if _, err := r.db.Exec(ctx, apiMapper.DeleteSQL(), id); err != nil {
		return technical(apiLogPrefix, "delete api", err)
	}
	return nil
}

// find runs a query over apis left joined with api_views, collates the rows
// per API, then loads labels and groups of each API.
func (r *MySQLApiRepository) find(ctx context.Context, query string, args ...interface{}) ([]*model.Api, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	collator := orm.NewCollatingRowMapper(apiMapper.RowMapper(), addView, apiMapper.IDColumn())
	if err := orm.ScanRecords(rows, collator.MapRow); err != nil {
		return nil, err
	}

	apis := collator.Rows()
	for _, a := range apis {
		if a.Labels, err = r.db.SelectStrings(ctx, "select label from api_labels where api_id = ?", a.ID); err != nil {
			return nil, err
		}
		if a.Groups, err = r.db.SelectStrings(ctx, "select group_id from api_groups where api_id = ?", a.ID); err != nil {
			return nil, err
		}
	}
	if apis == nil {
		apis = []*model.Api{}
	}
	return apis, nil
}

func addView(a *model.Api, rec orm.Record) error {
	view, ok, err := rec.String("view")
	if err != nil {
		return err
	}
	if ok {
		a.AddView(view)
	}
	return nil
}

func (r *MySQLApiRepository) storeChildren(ctx context.Context, a *model.Api) error {
	children := []struct {
		table, column string
		values        []string
	}{
		{apiLabelsMapper.Table(), "label", a.Labels},
		{apiGroupsMapper.Table(), "group_id", distinct(a.Groups)},
		{apiViewsMapper.Table(), "view", distinct(a.Views)},
	}
	for _, child := range children {
		stmt, ok := orm.BatchInsertStatement(child.table, "api_id", child.column, a.ID, orm.FilterStrings(child.values))
		if !ok {
			continue
		}
		if _, err := r.db.Exec(ctx, stmt.SQL, stmt.Args...); err != nil {
			return err
		}
	}
	return nil
}

// distinct drops repeated values, keeping the first occurrence.
func distinct(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}
	return result
}

func (r *MySQLApiRepository) deleteChildren(ctx context.Context, id string) error {
	for _, table := range []string{apiLabelsTable, apiGroupsTable, apiViewsTable} {
		if _, err := r.db.Exec(ctx, "delete from "+table+" where api_id = ?", id); err != nil {
			return err
		}
	}
	return nil
}
