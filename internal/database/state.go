package database

import (
	"context"
	"fmt"

	"oi-monitor/internal/types"

	log "github.com/sirupsen/logrus"
)

// Load reads every symbol's last alert time. A failed query yields an empty state.
func (db *DB) Load(ctx context.Context) (types.AlertState, error) {
	query := `SELECT symbol, last_alert FROM alert_state;`

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		log.Warnf("⚠️ Failed to query alert state, starting empty: %v", err)
		return types.AlertState{}, nil
	}
	defer rows.Close()

	st := types.AlertState{}
	for rows.Next() {
		var symbol string
		var lastAlert int64
		if err := rows.Scan(&symbol, &lastAlert); err != nil {
			log.Warnf("⚠️ Failed to scan alert state, starting empty: %v", err)
			return types.AlertState{}, nil
		}
		st[symbol] = lastAlert
	}
	if err := rows.Err(); err != nil {
		log.Warnf("⚠️ Failed to read alert state, starting empty: %v", err)
		return types.AlertState{}, nil
	}
	return st, nil
}

// Save replaces the stored state with st in a single transaction
func (db *DB) Save(ctx context.Context, st types.AlertState) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return types.E(types.KindState, "save state", fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM alert_state;`); err != nil {
		return types.E(types.KindState, "save state", fmt.Errorf("failed to clear alert state: %w", err))
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO alert_state (symbol, last_alert) VALUES (?, ?);`)
	if err != nil {
		return types.E(types.KindState, "save state", fmt.Errorf("failed to prepare insert: %w", err))
	}
	defer stmt.Close()

	for symbol, lastAlert := range st {
		if _, err := stmt.ExecContext(ctx, symbol, lastAlert); err != nil {
			return types.E(types.KindState, "save state", fmt.Errorf("failed to insert %s: %w", symbol, err))
		}
	}

	if err := tx.Commit(); err != nil {
		return types.E(types.KindState, "save state", fmt.Errorf("failed to commit alert state: %w", err))
	}

	log.Debugf("Alert state saved: %d symbols", len(st))
	return nil
}
