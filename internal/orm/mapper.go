package orm

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rzpsarthak13/mgmt-repository/internal/core"
)

var (
	// ErrDuplicateColumn is returned by Build when a column name is declared twice.
	ErrDuplicateColumn = errors.New("duplicate column")

	// ErrInvalidMapping is returned by Build for a mapping that cannot produce SQL.
	ErrInvalidMapping = errors.New("invalid mapping")
)

// Statement is a SQL text together with its positional arguments.
type Statement struct {
	SQL  string
	Args []interface{}
}

// RowMapper builds an entity from one record.
type RowMapper[T any] func(Record) (*T, error)

// Mapping is the type independent view of an ObjectMapper, used to register
// and check mappings without knowing the entity type.
type Mapping interface {
	Table() string
	IDColumn() string
	ColumnNames() []string
	Validate(schema *core.Schema) error
}

// Builder collects column declarations for an ObjectMapper.
type Builder[T any] struct {
	table    string
	idColumn string
	columns  []Column[T]
}

// NewBuilder starts a mapping of T onto table, keyed by idColumn.
func NewBuilder[T any](table, idColumn string) *Builder[T] {
	return &Builder[T]{table: table, idColumn: idColumn}
}

// AddColumn appends a column. Declaration order is the order of fields in
// generated statements.
func (b *Builder[T]) AddColumn(column Column[T]) *Builder[T] {
	b.columns = append(b.columns, column)
	return b
}

// Build validates the declarations and returns the immutable mapper.
func (b *Builder[T]) Build() (*ObjectMapper[T], error) {
	if b.table == "" {
		return nil, fmt.Errorf("%w: table name is required", ErrInvalidMapping)
	}
	if len(b.columns) == 0 {
		return nil, fmt.Errorf("%w: table '%s' has no columns", ErrInvalidMapping, b.table)
	}

	seen := make(map[string]struct{}, len(b.columns))
	hasID := false
	for _, col := range b.columns {
		if col.Name == "" || col.value == nil || col.assign == nil {
			return nil, fmt.Errorf("%w: table '%s' has an incomplete column", ErrInvalidMapping, b.table)
		}
		key := strings.ToLower(col.Name)
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("%w: '%s' in table '%s'", ErrDuplicateColumn, col.Name, b.table)
		}
		seen[key] = struct{}{}
		if strings.EqualFold(col.Name, b.idColumn) {
			hasID = true
		}
	}
	if !hasID {
		return nil, fmt.Errorf("%w: id column '%s' is not mapped in table '%s'", ErrInvalidMapping, b.idColumn, b.table)
	}

	columns := make([]Column[T], len(b.columns))
	copy(columns, b.columns)

	return &ObjectMapper[T]{
		table:    b.table,
		idColumn: b.idColumn,
		columns:  columns,
	}, nil
}

// MustBuild is Build for package-level mappings; it panics on an invalid mapping.
func (b *Builder[T]) MustBuild() *ObjectMapper[T] {
	m, err := b.Build()
	if err != nil {
		panic(err)
	}
	return m
}

// ObjectMapper maps T to a single table. It is read-only after Build and safe
// for concurrent use.
type ObjectMapper[T any] struct {
	table    string
	idColumn string
	columns  []Column[T]

	insertOnce sync.Once
	insertSQL  string
	updateOnce sync.Once
	updateSQL  string
}

// Table returns the mapped table name.
func (m *ObjectMapper[T]) Table() string {
	return m.table
}

// IDColumn returns the primary key column.
func (m *ObjectMapper[T]) IDColumn() string {
	return m.idColumn
}

// Columns returns a copy of the column declarations.
func (m *ObjectMapper[T]) Columns() []Column[T] {
	columns := make([]Column[T], len(m.columns))
	copy(columns, m.columns)
	return columns
}

// ColumnNames returns the mapped column names in declaration order.
func (m *ObjectMapper[T]) ColumnNames() []string {
	names := make([]string, len(m.columns))
	for i, col := range m.columns {
		names[i] = col.Name
	}
	return names
}

// RowMapper returns a mapper building a fresh T from each record.
func (m *ObjectMapper[T]) RowMapper() RowMapper[T] {
	return func(r Record) (*T, error) {
		e := new(T)
		if err := m.MapRecord(e, r); err != nil {
			return nil, err
		}
		return e, nil
	}
}

// MapRecord populates e from r, one column at a time in declaration order.
func (m *ObjectMapper[T]) MapRecord(e *T, r Record) error {
	for _, col := range m.columns {
		raw, ok := r.Get(col.Name)
		if !ok {
			return fmt.Errorf("%w: '%s' (table '%s')", ErrMissingColumn, col.Name, m.table)
		}
		if err := col.Assign(e, raw); err != nil {
			return err
		}
	}
	return nil
}

// Values returns the statement arguments of e in declaration order.
func (m *ObjectMapper[T]) Values(e *T) ([]interface{}, error) {
	args := make([]interface{}, 0, len(m.columns)+1)
	for _, col := range m.columns {
		v, err := col.Value(e)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	return args, nil
}

// InsertStatement builds the INSERT for e.
func (m *ObjectMapper[T]) InsertStatement(e *T) (Statement, error) {
	m.insertOnce.Do(func() {
		names := make([]string, len(m.columns))
		for i, col := range m.columns {
			names[i] = EscapeReservedWord(col.Name)
		}
		m.insertSQL = fmt.Sprintf("insert into %s (%s) values (%s)",
			EscapeReservedWord(m.table), strings.Join(names, ", "), Placeholders(len(m.columns)))
	})

	args, err := m.Values(e)
	if err != nil {
		return Statement{}, err
	}
	return Statement{SQL: m.insertSQL, Args: args}, nil
}

// UpdateStatement builds the UPDATE of every column of e, targeting the row
// whose id is key.
func (m *ObjectMapper[T]) UpdateStatement(e *T, key interface{}) (Statement, error) {
	m.updateOnce.Do(func() {
		sets := make([]string, len(m.columns))
		for i, col := range m.columns {
			sets[i] = EscapeReservedWord(col.Name) + " = ?"
		}
		m.updateSQL = fmt.Sprintf("update %s set %s where %s = ?",
			EscapeReservedWord(m.table), strings.Join(sets, ", "), EscapeReservedWord(m.idColumn))
	})

	args, err := m.Values(e)
	if err != nil {
		return Statement{}, err
	}
	return Statement{SQL: m.updateSQL, Args: append(args, key)}, nil
}

// DeleteSQL returns the statement deleting one row by id.
func (m *ObjectMapper[T]) DeleteSQL() string {
	return fmt.Sprintf("delete from %s where %s = ?", EscapeReservedWord(m.table), EscapeReservedWord(m.idColumn))
}

// SelectByIDSQL returns the query selecting one row by id.
func (m *ObjectMapper[T]) SelectByIDSQL() string {
	return fmt.Sprintf("select * from %s where %s = ?", EscapeReservedWord(m.table), EscapeReservedWord(m.idColumn))
}

// SelectAllSQL returns the query selecting every row.
func (m *ObjectMapper[T]) SelectAllSQL() string {
	return "select * from " + EscapeReservedWord(m.table)
}
