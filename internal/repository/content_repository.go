package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/iliyamo/travel-agency-booking/internal/model"
)

var ErrContentNotFound = errors.New("content not found")

// ContentRepo stores homepage blocks as opaque JSON keyed by name.
type ContentRepo struct {
	db *sql.DB
}

func NewContentRepo(db *sql.DB) *ContentRepo { return &ContentRepo{db: db} }

func (r *ContentRepo) Get(ctx context.Context, key string) (*model.HomepageContent, error) {
	var (
		c   model.HomepageContent
		raw []byte
	)
	err := r.db.QueryRowContext(ctx,
		"SELECT content_key, content, updated_at FROM homepage_content WHERE content_key = ?", key).
		Scan(&c.Key, &raw, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrContentNotFound
	}
	if err != nil {
		return nil, err
	}
	c.Content = json.RawMessage(raw)
	return &c, nil
}

func (r *ContentRepo) List(ctx context.Context) ([]model.HomepageContent, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT content_key, content, updated_at FROM homepage_content ORDER BY content_key")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.HomepageContent{}
	for rows.Next() {
		var (
			c   model.HomepageContent
			raw []byte
		)
		if err := rows.Scan(&c.Key, &raw, &c.UpdatedAt); err != nil {
			return nil, err
		}
		c.Content = json.RawMessage(raw)
		out = append(out, c)
	}
	return out, rows.Err()
}

// Upsert replaces the block stored under key.
func (r *ContentRepo) Upsert(ctx context.Context, key string, content json.RawMessage) (*model.HomepageContent, error) {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO homepage_content (content_key, content) VALUES (?, ?) ON DUPLICATE KEY UPDATE content = VALUES(content)",
		key, []byte(content))
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, key)
}
