package core

import "strings"

// Schema represents the live structure of a database table as reported by the server.
type Schema struct {
	// TableName is the name of the table.
	TableName string

	// PrimaryKey is the name of the primary key column.
	PrimaryKey string

	// Columns contains all column definitions for the table.
	Columns []Column

	// Indexes contains all index definitions for the table.
	Indexes []Index
}

// Column represents a single column in a database table.
type Column struct {
	// Name is the column name.
	Name string

	// Type is the database type (e.g., "varchar", "datetime", "tinyint").
	Type string

	// Nullable indicates whether the column can contain NULL values.
	Nullable bool
}

// Index represents a database index.
type Index struct {
	Name    string
	Columns []string
	Unique  bool
	Primary bool
}

// Column looks a column up by name, ignoring case.
func (s *Schema) Column(name string) (Column, bool) {
	for _, col := range s.Columns {
		if strings.EqualFold(col.Name, name) {
			return col, true
		}
	}
	return Column{}, false
}
