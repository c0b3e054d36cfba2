package repository

import (
	"context"
	"database/sql"
	"encoding/json"
)

// SettingRepo stores admin-managed key/value settings.  Values are JSON
// scalars so booleans and numbers survive the round trip.
type SettingRepo struct {
	db *sql.DB
}

func NewSettingRepo(db *sql.DB) *SettingRepo { return &SettingRepo{db: db} }

// All returns every setting keyed by name.
func (r *SettingRepo) All(ctx context.Context) (map[string]json.RawMessage, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT setting_key, value FROM settings")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]json.RawMessage{}
	for rows.Next() {
		var (
			k   string
			raw []byte
		)
		if err := rows.Scan(&k, &raw); err != nil {
			return nil, err
		}
		out[k] = json.RawMessage(raw)
	}
	return out, rows.Err()
}

// UpsertMany writes every pair in one transaction.
func (r *SettingRepo) UpsertMany(ctx context.Context, values map[string]json.RawMessage) error {
	if len(values) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer rollback(tx, &committed)

	for k, v := range values {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO settings (setting_key, value) VALUES (?, ?) ON DUPLICATE KEY UPDATE value = VALUES(value)",
			k, []byte(v)); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
