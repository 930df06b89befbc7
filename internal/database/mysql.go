package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync/atomic"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/rzpsarthak13/mgmt-repository/internal/core"
	"github.com/rzpsarthak13/mgmt-repository/internal/registry"
)

// ErrClosed is returned by every operation after Close.
var ErrClosed = errors.New("database is closed")

// MySQLDatabase implements the core.Database interface using MySQL.
type MySQLDatabase struct {
	db     *sqlx.DB
	closed atomic.Bool
}

var _ core.Database = (*MySQLDatabase)(nil)

// DSN builds the driver connection string for config.
func DSN(config registry.InternalDatabaseConfig) string {
	cfg := mysql.NewConfig()
	cfg.User = config.Username
	cfg.Passwd = config.Password
	cfg.Net = "tcp"
	cfg.Addr = config.Host + ":" + strconv.Itoa(config.Port)
	cfg.DBName = config.Database
	cfg.ParseTime = true
	cfg.Timeout = config.ConnectionTimeout
	if len(config.Params) > 0 {
		cfg.Params = make(map[string]string, len(config.Params))
		for k, v := range config.Params {
			cfg.Params[k] = v
		}
	}
	return cfg.FormatDSN()
}

// NewMySQLDatabase opens the pool described by config and checks connectivity.
func NewMySQLDatabase(ctx context.Context, config registry.InternalDatabaseConfig) (*MySQLDatabase, error) {
	db, err := sqlx.Open("mysql", DSN(config))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)
	db.SetConnMaxIdleTime(config.ConnMaxIdleTime)

	// Test connection
	pingCtx, cancel := context.WithTimeout(ctx, config.ConnectionTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Printf("[MYSQL] Connected to %s:%d/%s", config.Host, config.Port, config.Database)
	return &MySQLDatabase{db: db}, nil
}

// NewFromDB wraps an already opened pool.
func NewFromDB(db *sql.DB) *MySQLDatabase {
	return &MySQLDatabase{db: sqlx.NewDb(db, "mysql")}
}

// Query executes a SELECT query and returns rows.
func (m *MySQLDatabase) Query(ctx context.Context, query string, args ...interface{}) (core.Rows, error) {
	if m.closed.Load() {
		return nil, ErrClosed
	}
	core.Debugf("[MYSQL] Executing query: %s with args: %v", query, args)
	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Printf("[MYSQL] ERROR: Query failed: %v", err)
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	return rows, nil
}

// Exec executes a non-query statement and returns a result.
func (m *MySQLDatabase) Exec(ctx context.Context, query string, args ...interface{}) (core.Result, error) {
	if m.closed.Load() {
		return nil, ErrClosed
	}
	core.Debugf("[MYSQL] Executing statement: %s with args: %v", query, args)
	result, err := m.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Printf("[MYSQL] ERROR: Exec failed: %v", err)
		return nil, fmt.Errorf("failed to execute statement: %w", err)
	}
	if core.DebugEnabled() {
		rowsAffected, _ := result.RowsAffected()
		log.Printf("[MYSQL] Statement executed successfully (rows affected: %d)", rowsAffected)
	}
	return result, nil
}

// SelectStrings executes a single-column query and collects the non-NULL values.
func (m *MySQLDatabase) SelectStrings(ctx context.Context, query string, args ...interface{}) ([]string, error) {
	if m.closed.Load() {
		return nil, ErrClosed
	}
	core.Debugf("[MYSQL] Selecting values: %s with args: %v", query, args)
	var values []sql.NullString
	if err := m.db.SelectContext(ctx, &values, query, args...); err != nil {
		log.Printf("[MYSQL] ERROR: Select failed: %v", err)
		return nil, fmt.Errorf("failed to select values: %w", err)
	}

	result := make([]string, 0, len(values))
	for _, v := range values {
		if v.Valid {
			result = append(result, v.String)
		}
	}
	return result, nil
}

// GetSchema retrieves the schema information for a specific table.
func (m *MySQLDatabase) GetSchema(ctx context.Context, tableName string) (*core.Schema, error) {
	if m.closed.Load() {
		return nil, ErrClosed
	}

	schema := &core.Schema{
		TableName: tableName,
		Columns:   []core.Column{},
		Indexes:   []core.Index{},
	}

	var columns []struct {
		Name      string `db:"COLUMN_NAME"`
		DataType  string `db:"DATA_TYPE"`
		Nullable  string `db:"IS_NULLABLE"`
		ColumnKey string `db:"COLUMN_KEY"`
	}
	query := `
		SELECT COLUMN_NAME, DATA_TYPE, IS_NULLABLE, COLUMN_KEY
		FROM INFORMATION_SCHEMA.COLUMNS
		WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?
		ORDER BY ORDINAL_POSITION
	`
	if err := m.db.SelectContext(ctx, &columns, query, tableName); err != nil {
		return nil, fmt.Errorf("failed to query columns: %w", err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s does not exist", tableName)
	}

	for _, c := range columns {
		if c.ColumnKey == "PRI" && schema.PrimaryKey == "" {
			schema.PrimaryKey = c.Name
		}
		schema.Columns = append(schema.Columns, core.Column{
			Name:     c.Name,
			Type:     c.DataType,
			Nullable: c.Nullable == "YES",
		})
	}

	var indexRows []struct {
		IndexName  string `db:"INDEX_NAME"`
		ColumnName string `db:"COLUMN_NAME"`
		NonUnique  int    `db:"NON_UNIQUE"`
	}
	indexQuery := `
		SELECT INDEX_NAME, COLUMN_NAME, NON_UNIQUE
		FROM INFORMATION_SCHEMA.STATISTICS
		WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?
		ORDER BY INDEX_NAME, SEQ_IN_INDEX
	`
	if err := m.db.SelectContext(ctx, &indexRows, indexQuery, tableName); err != nil {
		return nil, fmt.Errorf("failed to query indexes: %w", err)
	}

	positions := make(map[string]int)
	for _, r := range indexRows {
		if i, exists := positions[r.IndexName]; exists {
			schema.Indexes[i].Columns = append(schema.Indexes[i].Columns, r.ColumnName)
			continue
		}
		positions[r.IndexName] = len(schema.Indexes)
		schema.Indexes = append(schema.Indexes, core.Index{
			Name:    r.IndexName,
			Columns: []string{r.ColumnName},
			Unique:  r.NonUnique == 0,
			Primary: r.IndexName == "PRIMARY",
		})
	}

	return schema, nil
}

// Close closes the database connection pool.
func (m *MySQLDatabase) Close() error {
	if !m.closed.CompareAndSwap(false, true) {
		return nil
	}
	return m.db.Close()
}
