package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/travel-agency-booking/internal/model"
)

var ErrMessageNotFound = errors.New("contact message not found")

type ContactRepo struct {
	db *sql.DB
}

func NewContactRepo(db *sql.DB) *ContactRepo { return &ContactRepo{db: db} }

const contactColumns = "id, name, email, message, status, created_at, updated_at"

func scanContact(s scanner) (model.ContactMessage, error) {
	var m model.ContactMessage
	err := s.Scan(&m.ID, &m.Name, &m.Email, &m.Message, &m.Status, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

// Create stores a NEW message.
func (r *ContactRepo) Create(ctx context.Context, name, email, message string) (*model.ContactMessage, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO contact_messages (name, email, message, status) VALUES (?,?,?,?)",
		name, email, message, model.MessageNew)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, uint64(id))
}

func (r *ContactRepo) GetByID(ctx context.Context, id uint64) (*model.ContactMessage, error) {
	m, err := scanContact(r.db.QueryRowContext(ctx,
		"SELECT "+contactColumns+" FROM contact_messages WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMessageNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// List returns messages newest first; status filters when non-empty.
func (r *ContactRepo) List(ctx context.Context, status string) ([]model.ContactMessage, error) {
	q := "SELECT " + contactColumns + " FROM contact_messages"
	args := []any{}
	if status != "" {
		q += " WHERE status = ?"
		args = append(args, status)
	}
	rows, err := r.db.QueryContext(ctx, q+" ORDER BY created_at DESC, id DESC", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.ContactMessage{}
	for rows.Next() {
		m, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *ContactRepo) UpdateStatus(ctx context.Context, id uint64, status string) (*model.ContactMessage, error) {
	if _, err := r.db.ExecContext(ctx, "UPDATE contact_messages SET status = ? WHERE id = ?", status, id); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *ContactRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM contact_messages WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrMessageNotFound
	}
	return nil
}
