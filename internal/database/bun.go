package database

import (
	"database/sql"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
)

const (
	maxOpenConns = 25
	maxIdleConns = 5
)

// Connect opens the Postgres connection pool, verifies it and wraps it with
// bun's Postgres dialect.
func Connect(connString string) (*bun.DB, error) {
	sqlDB, err := sql.Open("postgres", connString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)

	return bun.NewDB(sqlDB, pgdialect.New()), nil
}
