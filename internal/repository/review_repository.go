package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/travel-agency-booking/internal/model"
)

var (
	ErrReviewNotFound = errors.New("review not found")
	ErrReviewExists   = errors.New("review already exists")
)

type ReviewRepo struct {
	db *sql.DB
}

func NewReviewRepo(db *sql.DB) *ReviewRepo { return &ReviewRepo{db: db} }

const reviewColumns = "r.id, r.tour_id, r.user_id, r.rating, r.comment, r.is_approved, r.created_at, r.updated_at"

func scanReviewWithUser(s scanner) (model.ReviewWithUser, error) {
	var rv model.ReviewWithUser
	err := s.Scan(&rv.ID, &rv.TourID, &rv.UserID, &rv.Rating, &rv.Comment, &rv.IsApproved,
		&rv.CreatedAt, &rv.UpdatedAt, &rv.UserName, &rv.TourTitle)
	return rv, err
}

// Create inserts an unapproved review.  The (tour_id, user_id) unique key
// decides duplicates; the existing row is never touched.
func (r *ReviewRepo) Create(ctx context.Context, rv *model.Review) error {
	rv.IsApproved = false
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO reviews (tour_id, user_id, rating, comment, is_approved) VALUES (?,?,?,?,0)",
		rv.TourID, rv.UserID, rv.Rating, rv.Comment)
	if err != nil {
		if isDuplicate(err) {
			return ErrReviewExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rv.ID = uint64(id)
	return r.db.QueryRowContext(ctx, "SELECT created_at, updated_at FROM reviews WHERE id = ?", rv.ID).
		Scan(&rv.CreatedAt, &rv.UpdatedAt)
}

// ListApprovedByTour returns approved reviews with reviewer names, newest
// first.
func (r *ReviewRepo) ListApprovedByTour(ctx context.Context, tourID uint64) ([]model.ReviewWithUser, error) {
	return r.list(ctx, " WHERE r.tour_id = ? AND r.is_approved = 1 ORDER BY r.created_at DESC, r.id DESC", tourID)
}

// ListAdmin lists every review; approved filters when non-nil.
func (r *ReviewRepo) ListAdmin(ctx context.Context, approved *bool) ([]model.ReviewWithUser, error) {
	if approved != nil {
		return r.list(ctx, " WHERE r.is_approved = ? ORDER BY r.created_at DESC, r.id DESC", *approved)
	}
	return r.list(ctx, " ORDER BY r.created_at DESC, r.id DESC")
}

func (r *ReviewRepo) list(ctx context.Context, suffix string, args ...any) ([]model.ReviewWithUser, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+reviewColumns+`, u.name, t.title
		FROM reviews r
		JOIN users u ON u.id = r.user_id
		JOIN tours t ON t.id = r.tour_id`+suffix, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.ReviewWithUser{}
	for rows.Next() {
		rv, err := scanReviewWithUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}

// RatingSummary computes the approved average and count for one tour.
func (r *ReviewRepo) RatingSummary(ctx context.Context, tourID uint64) (float64, int64, error) {
	var (
		avg   float64
		count int64
	)
	err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(AVG(rating), 0), COUNT(*) FROM reviews WHERE tour_id = ? AND is_approved = 1", tourID).
		Scan(&avg, &count)
	return avg, count, err
}

// SetApproved toggles moderation state.
func (r *ReviewRepo) SetApproved(ctx context.Context, id uint64, approved bool) (*model.ReviewWithUser, error) {
	res, err := r.db.ExecContext(ctx, "UPDATE reviews SET is_approved = ? WHERE id = ?", approved, id)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// MySQL reports 0 affected rows when the value is unchanged.
		if _, err := r.GetByID(ctx, id); err != nil {
			return nil, err
		}
	}
	return r.GetByID(ctx, id)
}

func (r *ReviewRepo) GetByID(ctx context.Context, id uint64) (*model.ReviewWithUser, error) {
	rv, err := scanReviewWithUser(r.db.QueryRowContext(ctx, "SELECT "+reviewColumns+`, u.name, t.title
		FROM reviews r
		JOIN users u ON u.id = r.user_id
		JOIN tours t ON t.id = r.tour_id
		WHERE r.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReviewNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rv, nil
}

func (r *ReviewRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM reviews WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrReviewNotFound
	}
	return nil
}
