package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/iliyamo/travel-agency-booking/internal/model"
)

var (
	ErrTourNotFound = errors.New("tour not found")
	ErrSlugExists   = errors.New("slug already exists")
)

// TourRepo stores tours and their ordered images.
type TourRepo struct {
	db *sql.DB
}

func NewTourRepo(db *sql.DB) *TourRepo { return &TourRepo{db: db} }

// DB exposes the pool for callers that need a transaction spanning repos.
func (r *TourRepo) DB() *sql.DB { return r.db }

// TourSearchQuery holds the public catalog filters.  Zero values disable a
// filter.  Prices are minor units compared against base_price.
type TourSearchQuery struct {
	Country     string
	City        string
	Category    string
	MinPrice    int64
	MaxPrice    int64
	MinDuration int
	MaxDuration int
	Search      string
	Page        int
	Limit       int
}

// AdminTourQuery filters the back-office tour list.
type AdminTourQuery struct {
	Search      string
	IsPublished *bool
	Page        int
	Limit       int
}

const tourColumns = `t.id, t.title, t.slug, t.description, t.highlights, t.itinerary,
	t.location_country, t.location_city, t.category, t.duration_days, t.base_price,
	t.discount_price, t.max_group_size, t.is_published, t.seo_title, t.seo_description,
	t.created_at, t.updated_at`

// approvedRatings aggregates approved reviews per tour; averages are always
// computed on read.
const approvedRatings = `LEFT JOIN (
		SELECT tour_id, AVG(rating) AS avg_rating, COUNT(*) AS review_count
		FROM reviews WHERE is_approved = 1 GROUP BY tour_id
	) rr ON rr.tour_id = t.id`

func scanTour(s scanner, extra ...any) (model.Tour, error) {
	var (
		t                 model.Tour
		highlights, itin  []byte
		discount          sql.NullInt64
		seoTitle, seoDesc sql.NullString
	)
	dest := []any{&t.ID, &t.Title, &t.Slug, &t.Description, &highlights, &itin,
		&t.LocationCountry, &t.LocationCity, &t.Category, &t.DurationDays, &t.BasePrice,
		&discount, &t.MaxGroupSize, &t.IsPublished, &seoTitle, &seoDesc,
		&t.CreatedAt, &t.UpdatedAt}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return t, err
	}
	t.DiscountPrice = int64Ptr(discount)
	t.SEOTitle = strPtr(seoTitle)
	t.SEODescription = strPtr(seoDesc)
	t.Highlights = []string{}
	t.Itinerary = []model.ItineraryDay{}
	if len(highlights) > 0 {
		if err := json.Unmarshal(highlights, &t.Highlights); err != nil {
			return t, err
		}
	}
	if len(itin) > 0 {
		if err := json.Unmarshal(itin, &t.Itinerary); err != nil {
			return t, err
		}
	}
	return t, nil
}

func encodeTourJSON(t *model.Tour) ([]byte, []byte, error) {
	if t.Highlights == nil {
		t.Highlights = []string{}
	}
	if t.Itinerary == nil {
		t.Itinerary = []model.ItineraryDay{}
	}
	h, err := json.Marshal(t.Highlights)
	if err != nil {
		return nil, nil, err
	}
	i, err := json.Marshal(t.Itinerary)
	if err != nil {
		return nil, nil, err
	}
	return h, i, nil
}

// SlugExists reports whether slug is taken by a tour other than excludeID.
func (r *TourRepo) SlugExists(ctx context.Context, slug string, excludeID uint64) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM tours WHERE slug = ? AND id <> ?", slug, excludeID).Scan(&n)
	return n > 0, err
}

// Create inserts the tour and its images in one transaction and reloads the
// row to pick up defaults.
func (r *TourRepo) Create(ctx context.Context, t *model.Tour, images []model.TourImage) error {
	highlights, itinerary, err := encodeTourJSON(t)
	if err != nil {
		return err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer rollback(tx, &committed)

	res, err := tx.ExecContext(ctx, `INSERT INTO tours
		(title, slug, description, highlights, itinerary, location_country, location_city, category,
		 duration_days, base_price, discount_price, max_group_size, is_published, seo_title, seo_description)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		t.Title, t.Slug, t.Description, highlights, itinerary, t.LocationCountry, t.LocationCity, t.Category,
		t.DurationDays, t.BasePrice, nullInt64(t.DiscountPrice), t.MaxGroupSize, t.IsPublished,
		nullString(t.SEOTitle), nullString(t.SEODescription))
	if err != nil {
		if isDuplicate(err) {
			return ErrSlugExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	if err := replaceImagesTx(ctx, tx, t.ID, images); err != nil {
		return err
	}
	loaded, err := getTour(ctx, tx, "t.id = ?", t.ID)
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	*t = loaded
	t.Images = images
	return nil
}

// Update writes every column of t.  When images is non-nil the image set is
// replaced as well.
func (r *TourRepo) Update(ctx context.Context, t *model.Tour, images []model.TourImage) error {
	highlights, itinerary, err := encodeTourJSON(t)
	if err != nil {
		return err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer rollback(tx, &committed)

	_, err = tx.ExecContext(ctx, `UPDATE tours SET
		title=?, slug=?, description=?, highlights=?, itinerary=?, location_country=?, location_city=?,
		category=?, duration_days=?, base_price=?, discount_price=?, max_group_size=?, is_published=?,
		seo_title=?, seo_description=?
		WHERE id=?`,
		t.Title, t.Slug, t.Description, highlights, itinerary, t.LocationCountry, t.LocationCity,
		t.Category, t.DurationDays, t.BasePrice, nullInt64(t.DiscountPrice), t.MaxGroupSize, t.IsPublished,
		nullString(t.SEOTitle), nullString(t.SEODescription), t.ID)
	if err != nil {
		if isDuplicate(err) {
			return ErrSlugExists
		}
		return err
	}
	if images != nil {
		if err := replaceImagesTx(ctx, tx, t.ID, images); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

func replaceImagesTx(ctx context.Context, tx *sql.Tx, tourID uint64, images []model.TourImage) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM tour_images WHERE tour_id = ?", tourID); err != nil {
		return err
	}
	if len(images) == 0 {
		return nil
	}
	query := "INSERT INTO tour_images (tour_id, url, public_id, alt_text, sort_order) VALUES "
	args := make([]any, 0, len(images)*5)
	for i := range images {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?)"
		images[i].TourID = tourID
		images[i].SortOrder = i
		args = append(args, tourID, images[i].URL, nullString(images[i].PublicID), nullString(images[i].AltText), i)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

func getTour(ctx context.Context, q querier, cond string, args ...any) (model.Tour, error) {
	t, err := scanTour(q.QueryRowContext(ctx, "SELECT "+tourColumns+" FROM tours t WHERE "+cond+" LIMIT 1", args...))
	if errors.Is(err, sql.ErrNoRows) {
		return t, ErrTourNotFound
	}
	return t, err
}

// GetByID loads a tour with its images regardless of publish state.
func (r *TourRepo) GetByID(ctx context.Context, id uint64) (*model.Tour, error) {
	t, err := getTour(ctx, r.db, "t.id = ?", id)
	if err != nil {
		return nil, err
	}
	if t.Images, err = r.ListImages(ctx, id); err != nil {
		return nil, err
	}
	return &t, nil
}

// GetPublishedByID loads a published tour without images; used by booking
// and review checks.
func (r *TourRepo) GetPublishedByID(ctx context.Context, id uint64) (*model.Tour, error) {
	t, err := getTour(ctx, r.db, "t.id = ? AND t.is_published = 1", id)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetPublishedBySlug loads a published tour with images and its approved
// rating aggregate.
func (r *TourRepo) GetPublishedBySlug(ctx context.Context, slug string) (*model.TourSummary, error) {
	var (
		s   model.TourSummary
		err error
	)
	s.Tour, err = scanTour(r.db.QueryRowContext(ctx, "SELECT "+tourColumns+`,
		COALESCE(rr.avg_rating, 0), COALESCE(rr.review_count, 0)
		FROM tours t `+approvedRatings+`
		WHERE t.slug = ? AND t.is_published = 1 LIMIT 1`, slug), &s.AverageRating, &s.ReviewCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTourNotFound
	}
	if err != nil {
		return nil, err
	}
	if s.Images, err = r.ListImages(ctx, s.ID); err != nil {
		return nil, err
	}
	return &s, nil
}

// ListImages returns a tour's images in display order.
func (r *TourRepo) ListImages(ctx context.Context, tourID uint64) ([]model.TourImage, error) {
	m, err := r.imagesFor(ctx, []uint64{tourID})
	if err != nil {
		return nil, err
	}
	if imgs := m[tourID]; imgs != nil {
		return imgs, nil
	}
	return []model.TourImage{}, nil
}

func (r *TourRepo) imagesFor(ctx context.Context, ids []uint64) (map[uint64][]model.TourImage, error) {
	out := make(map[uint64][]model.TourImage, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := r.db.QueryContext(ctx, `SELECT id, tour_id, url, public_id, alt_text, sort_order, created_at
		FROM tour_images WHERE tour_id IN (`+placeholders(len(ids))+`)
		ORDER BY tour_id, sort_order`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			img      model.TourImage
			pid, alt sql.NullString
		)
		if err := rows.Scan(&img.ID, &img.TourID, &img.URL, &pid, &alt, &img.SortOrder, &img.CreatedAt); err != nil {
			return nil, err
		}
		img.PublicID = strPtr(pid)
		img.AltText = strPtr(alt)
		out[img.TourID] = append(out[img.TourID], img)
	}
	return out, rows.Err()
}

// SearchPublished lists published tours newest first with rating aggregates
// and images.  It returns the page and the total match count.
func (r *TourRepo) SearchPublished(ctx context.Context, q TourSearchQuery) ([]model.TourSummary, int64, error) {
	where := []string{"t.is_published = 1"}
	args := []any{}

	if q.Country != "" {
		where = append(where, "t.location_country = ?")
		args = append(args, q.Country)
	}
	if q.City != "" {
		where = append(where, "t.location_city = ?")
		args = append(args, q.City)
	}
	if q.Category != "" {
		where = append(where, "t.category = ?")
		args = append(args, strings.ToUpper(q.Category))
	}
	if q.MinPrice > 0 {
		where = append(where, "t.base_price >= ?")
		args = append(args, q.MinPrice)
	}
	if q.MaxPrice > 0 {
		where = append(where, "t.base_price <= ?")
		args = append(args, q.MaxPrice)
	}
	if q.MinDuration > 0 {
		where = append(where, "t.duration_days >= ?")
		args = append(args, q.MinDuration)
	}
	if q.MaxDuration > 0 {
		where = append(where, "t.duration_days <= ?")
		args = append(args, q.MaxDuration)
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		where = append(where, "(LOWER(t.title) LIKE ? OR LOWER(t.description) LIKE ? OR LOWER(t.location_city) LIKE ? OR LOWER(t.location_country) LIKE ?)")
		args = append(args, like, like, like, like)
	}
	return r.list(ctx, strings.Join(where, " AND "), args, q.Page, q.Limit)
}

// SearchAdmin lists all tours for the back office.
func (r *TourRepo) SearchAdmin(ctx context.Context, q AdminTourQuery) ([]model.TourSummary, int64, error) {
	where := []string{"1=1"}
	args := []any{}
	if s := strings.TrimSpace(q.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		where = append(where, "(LOWER(t.title) LIKE ? OR LOWER(t.location_city) LIKE ? OR LOWER(t.location_country) LIKE ?)")
		args = append(args, like, like, like)
	}
	if q.IsPublished != nil {
		where = append(where, "t.is_published = ?")
		args = append(args, *q.IsPublished)
	}
	return r.list(ctx, strings.Join(where, " AND "), args, q.Page, q.Limit)
}

func (r *TourRepo) list(ctx context.Context, cond string, args []any, page, limit int) ([]model.TourSummary, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM tours t WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dataSQL := "SELECT " + tourColumns + `,
		COALESCE(rr.avg_rating, 0), COALESCE(rr.review_count, 0),
		(SELECT COUNT(*) FROM bookings b WHERE b.tour_id = t.id) AS booking_count
		FROM tours t ` + approvedRatings + `
		WHERE ` + cond + `
		ORDER BY t.created_at DESC, t.id DESC
		LIMIT ? OFFSET ?`
	argsData := append(append([]any{}, args...), limit, (page-1)*limit)

	rows, err := r.db.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.TourSummary, 0, limit)
	ids := []uint64{}
	for rows.Next() {
		var s model.TourSummary
		if s.Tour, err = scanTour(rows, &s.AverageRating, &s.ReviewCount, &s.BookingCount); err != nil {
			return nil, 0, err
		}
		out = append(out, s)
		ids = append(ids, s.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	images, err := r.imagesFor(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range out {
		out[i].Images = images[out[i].ID]
		if out[i].Images == nil {
			out[i].Images = []model.TourImage{}
		}
	}
	return out, total, nil
}

// ListPublishedForChat returns up to limit published tours, newest first,
// without images.
func (r *TourRepo) ListPublishedForChat(ctx context.Context, limit int) ([]model.Tour, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+tourColumns+`
		FROM tours t WHERE t.is_published = 1 ORDER BY t.created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Tour{}
	for rows.Next() {
		t, err := scanTour(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Delete removes the tour (images cascade) and returns the image rows that
// were attached so the caller can clean up the image host.  Tours that have
// bookings cannot be deleted.
func (r *TourRepo) Delete(ctx context.Context, id uint64) ([]model.TourImage, error) {
	images, err := r.ListImages(ctx, id)
	if err != nil {
		return nil, err
	}
	var bookings int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM bookings WHERE tour_id = ?", id).Scan(&bookings); err != nil {
		return nil, err
	}
	if bookings > 0 {
		return nil, ErrConflict
	}
	res, err := r.db.ExecContext(ctx, "DELETE FROM tours WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrTourNotFound
	}
	return images, nil
}

// CountPublished is used by the admin dashboard.
func (r *TourRepo) CountPublished(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM tours WHERE is_published = 1").Scan(&n)
	return n, err
}
