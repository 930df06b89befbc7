package orm_test

import (
	"errors"
	"testing"

	"github.com/rzpsarthak13/mgmt-repository/internal/orm"
	"github.com/stretchr/testify/require"
)

type sliceRows struct {
	columns []string
	rows    [][]interface{}
	pos     int
	closed  bool
}

func (r *sliceRows) Columns() ([]string, error) { return r.columns, nil }

func (r *sliceRows) Next() bool {
	if r.pos >= len(r.rows) {
		return false
	}
	r.pos++
	return true
}

func (r *sliceRows) Scan(dest ...interface{}) error {
	for i, v := range r.rows[r.pos-1] {
		*dest[i].(*interface{}) = v
	}
	return nil
}

func (r *sliceRows) Close() error {
	r.closed = true
	return nil
}

func (r *sliceRows) Err() error { return nil }

func TestScanRecords(t *testing.T) {
	t.Parallel()

	rows := &sliceRows{
		columns: []string{"ID", "id", "view"},
		rows: [][]interface{}{
			{"a1", "shadowed", "v1"},
			{"a2", "shadowed", nil},
		},
	}

	var ids, views []interface{}
	err := orm.ScanRecords(rows, func(r orm.Record) error {
		id, ok := r.Get("id")
		require.True(t, ok)
		view, _ := r.Get("VIEW")
		ids = append(ids, id)
		views = append(views, view)
		return nil
	})

	require.NoError(t, err)
	require.True(t, rows.closed)
	require.Equal(t, []interface{}{"a1", "a2"}, ids)
	require.Equal(t, []interface{}{"v1", nil}, views)
}

func TestScanRecords_CallbackErrorStops(t *testing.T) {
	t.Parallel()

	rows := &sliceRows{columns: []string{"id"}, rows: [][]interface{}{{"a1"}, {"a2"}}}
	boom := errors.New("boom")
	calls := 0

	err := orm.ScanRecords(rows, func(orm.Record) error {
		calls++
		return boom
	})

	require.ErrorIs(t, err, boom)
	require.Equal(t, 1, calls)
	require.True(t, rows.closed)
}
