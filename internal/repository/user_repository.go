package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/travel-agency-booking/internal/model"
)

type UserRepo struct{ db *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

var (
	ErrEmailExists  = errors.New("email already exists")
	ErrUserNotFound = errors.New("user not found")
)

// NewUser is the input for Create.  PasswordHash is already bcrypt-hashed.
type NewUser struct {
	Name         string
	Email        string
	PasswordHash string
	Phone        *string
	Role         string
}

const userColumns = "id, name, email, password_hash, phone, role, is_active, created_at, updated_at"

func scanUser(s scanner) (model.User, error) {
	var (
		u     model.User
		phone sql.NullString
	)
	err := s.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &phone, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	u.Phone = strPtr(phone)
	return u, err
}

// Create inserts a user with a normalized email and returns its ID.
func (r *UserRepo) Create(ctx context.Context, in NewUser) (uint64, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	role := in.Role
	if role == "" {
		role = model.RoleCustomer
	}
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO users (name, email, password_hash, phone, role) VALUES (?,?,?,?,?)",
		strings.TrimSpace(in.Name), email, in.PasswordHash, nullString(in.Phone), role)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := scanUser(r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrUserNotFound
	}
	return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrUserNotFound
	}
	return u, err
}

// UpdateProfile changes the editable profile fields.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, name string, phone *string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE users SET name=?, phone=? WHERE id=?", strings.TrimSpace(name), nullString(phone), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// MySQL reports 0 affected rows when values are unchanged; confirm existence.
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// UpdatePassword stores a new bcrypt hash.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uint64, hash string) error {
	_, err := r.db.ExecContext(ctx, "UPDATE users SET password_hash=? WHERE id=?", hash, id)
	return err
}

// ListCustomers returns CUSTOMER accounts newest first with their booking counts.
func (r *UserRepo) ListCustomers(ctx context.Context) ([]model.UserWithBookingCount, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT u.id, u.name, u.email, u.password_hash, u.phone, u.role, u.is_active, u.created_at, u.updated_at,
		       (SELECT COUNT(*) FROM bookings b WHERE b.user_id = u.id) AS booking_count
		FROM users u
		WHERE u.role = ?
		ORDER BY u.created_at DESC`, model.RoleCustomer)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.UserWithBookingCount{}
	for rows.Next() {
		var (
			row   model.UserWithBookingCount
			phone sql.NullString
		)
		if err := rows.Scan(&row.ID, &row.Name, &row.Email, &row.PasswordHash, &phone, &row.Role,
			&row.IsActive, &row.CreatedAt, &row.UpdatedAt, &row.BookingCount); err != nil {
			return nil, err
		}
		row.Phone = strPtr(phone)
		out = append(out, row)
	}
	return out, rows.Err()
}
