package orm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rzpsarthak13/mgmt-repository/internal/core"
)

// ErrMissingColumn is returned when a result set lacks a mapped column.
var ErrMissingColumn = errors.New("column missing from result set")

// Record is one scanned result row, addressed by column name.
type Record struct {
	columns []string
	values  []interface{}
}

// NewRecord builds a record from parallel column and value slices.
func NewRecord(columns []string, values []interface{}) Record {
	return Record{columns: columns, values: values}
}

// Get returns the raw value of the named column. Names are compared without
// case; with duplicate names (joins) the first occurrence wins.
func (r Record) Get(column string) (interface{}, bool) {
	for i, name := range r.columns {
		if strings.EqualFold(name, column) {
			return r.values[i], true
		}
	}
	return nil, false
}

// String returns the named column as a string. ok is false when the column is
// absent or NULL.
func (r Record) String(column string) (value string, ok bool, err error) {
	raw, found := r.Get(column)
	if !found || raw == nil {
		return "", false, nil
	}
	value, err = asString(raw)
	if err != nil {
		return "", false, fmt.Errorf("column '%s': %w", column, err)
	}
	return value, true, nil
}

// Columns returns the column names of the record.
func (r Record) Columns() []string {
	return r.columns
}

// ScanRecords iterates rows, scanning each into a Record and handing it to fn.
// Rows are closed on return. An error from fn stops the iteration.
func ScanRecords(rows core.Rows, fn func(Record) error) error {
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("failed to read columns: %w", err)
	}

	for rows.Next() {
		values := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return fmt.Errorf("failed to scan row: %w", err)
		}
		if err := fn(NewRecord(columns, values)); err != nil {
			return err
		}
	}

	return rows.Err()
}
