package database

import (
	"context"
	"database/sql"
	"fmt"

	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// DB is a SQLite-backed alert state store
type DB struct {
	conn *sql.DB
}

// Open connects to the SQLite file at dbPath and creates the schema
func Open(ctx context.Context, dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	createStateTable := `
	CREATE TABLE IF NOT EXISTS alert_state (
		symbol TEXT PRIMARY KEY,
		last_alert INTEGER NOT NULL
	);`
	if _, err = conn.ExecContext(ctx, createStateTable); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create alert_state table: %w", err)
	}

	log.Debugf("Database %s initialized successfully.", dbPath)
	return &DB{conn: conn}, nil
}

func (db *DB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}
