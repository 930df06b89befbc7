package orm_test

import (
	"errors"
	"testing"

	"github.com/rzpsarthak13/mgmt-repository/internal/orm"
	"github.com/stretchr/testify/require"
)

type parent struct {
	ID       string
	Children []string
}

func parentMapper() orm.RowMapper[parent] {
	return orm.NewBuilder[parent]("parents", "id").
		AddColumn(orm.Text("id", func(p *parent) string { return p.ID }, func(p *parent, v string) { p.ID = v })).
		MustBuild().
		RowMapper()
}

func addChild(p *parent, r orm.Record) error {
	raw, _ := r.Get("child")
	if raw == nil {
		return nil
	}
	p.Children = append(p.Children, raw.(string))
	return nil
}

func collate(t *testing.T, c *orm.CollatingRowMapper[parent], rows ...[2]interface{}) {
	t.Helper()
	for _, row := range rows {
		require.NoError(t, c.MapRow(orm.NewRecord([]string{"id", "child"}, []interface{}{row[0], row[1]})))
	}
}

func TestCollatingRowMapper_GroupsRowsByKey(t *testing.T) {
	t.Parallel()

	c := orm.NewCollatingRowMapper(parentMapper(), addChild, "id")
	collate(t, c,
		[2]interface{}{"a1", "v1"},
		[2]interface{}{"a1", "v2"},
		[2]interface{}{"a2", nil},
	)

	rows := c.Rows()
	require.Len(t, rows, 2)
	require.Equal(t, &parent{ID: "a1", Children: []string{"v1", "v2"}}, rows[0])
	require.Equal(t, &parent{ID: "a2"}, rows[1])
}

func TestCollatingRowMapper_NonContiguousRows_NoDuplicates(t *testing.T) {
	t.Parallel()

	c := orm.NewCollatingRowMapper(parentMapper(), addChild, "id")
	collate(t, c,
		[2]interface{}{"a1", "v1"},
		[2]interface{}{"a2", "w1"},
		[2]interface{}{"a1", "v2"},
	)

	rows := c.Rows()
	require.Len(t, rows, 2)
	require.Equal(t, "a1", rows[0].ID)
	require.Equal(t, []string{"v1", "v2"}, rows[0].Children)
	require.Equal(t, []string{"w1"}, rows[1].Children)
}

func TestCollatingRowMapper_NoRows_Empty(t *testing.T) {
	t.Parallel()

	c := orm.NewCollatingRowMapper(parentMapper(), addChild, "id")

	require.Empty(t, c.Rows())
}

func TestCollatingRowMapper_ChildAdderError_Aborts(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	c := orm.NewCollatingRowMapper(parentMapper(), func(*parent, orm.Record) error { return boom }, "id")

	err := c.MapRow(orm.NewRecord([]string{"id"}, []interface{}{"a1"}))

	require.ErrorIs(t, err, boom)
}

func TestCollatingRowMapper_MissingKeyColumn_Fails(t *testing.T) {
	t.Parallel()

	c := orm.NewCollatingRowMapper(parentMapper(), addChild, "uuid")

	err := c.MapRow(orm.NewRecord([]string{"id"}, []interface{}{"a1"}))

	require.ErrorIs(t, err, orm.ErrMissingColumn)
}
