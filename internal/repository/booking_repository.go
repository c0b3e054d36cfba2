package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/travel-agency-booking/internal/model"
)

var ErrBookingNotFound = errors.New("booking not found")

// BookingRepo persists bookings.  Methods ending in Tx run on a caller-owned
// transaction so the payment flow can lock and update in one unit.
type BookingRepo struct {
	db *sql.DB
}

func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

func (r *BookingRepo) DB() *sql.DB { return r.db }

// AdminBookingQuery filters the back-office booking list.
type AdminBookingQuery struct {
	BookingStatus string
	PaymentStatus string
	TourID        uint64
	Page          int
	Limit         int
}

// BookingPatch carries an admin edit.  Nil fields are left untouched.
type BookingPatch struct {
	BookingStatus   *string
	PaymentStatus   *string
	StartDate       *time.Time
	EndDate         *time.Time
	Adults          *int
	Children        *int
	TotalAmount     *int64
	SpecialRequests *string
}

// HasDetails reports whether the patch touches fields that are frozen once a
// booking leaves PENDING/PENDING.
func (p BookingPatch) HasDetails() bool {
	return p.StartDate != nil || p.EndDate != nil || p.Adults != nil ||
		p.Children != nil || p.TotalAmount != nil || p.SpecialRequests != nil
}

const bookingColumns = `b.id, b.user_id, b.tour_id, b.start_date, b.end_date, b.adults, b.children,
	b.total_amount, b.currency, b.booking_status, b.payment_status, b.special_requests,
	b.gateway_order_id, b.created_at, b.updated_at`

const bookingDetailColumns = bookingColumns + `, t.title, t.slug, u.name, u.email, u.phone`

const bookingDetailFrom = ` FROM bookings b
	JOIN tours t ON t.id = b.tour_id
	JOIN users u ON u.id = b.user_id`

func scanBooking(s scanner, extra ...any) (model.Booking, error) {
	var (
		b            model.Booking
		special, oid sql.NullString
	)
	dest := []any{&b.ID, &b.UserID, &b.TourID, &b.StartDate, &b.EndDate, &b.Adults, &b.Children,
		&b.TotalAmount, &b.Currency, &b.BookingStatus, &b.PaymentStatus, &special,
		&oid, &b.CreatedAt, &b.UpdatedAt}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return b, err
	}
	b.SpecialRequests = strPtr(special)
	b.GatewayOrderID = strPtr(oid)
	return b, nil
}

func scanBookingDetail(s scanner) (model.BookingDetail, error) {
	var (
		d     model.BookingDetail
		phone sql.NullString
		err   error
	)
	d.Booking, err = scanBooking(s, &d.TourTitle, &d.TourSlug, &d.UserName, &d.UserEmail, &phone)
	d.UserPhone = strPtr(phone)
	return d, err
}

// Create inserts a PENDING/PENDING booking and fills in its ID and
// timestamps.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
	b.BookingStatus = model.BookingPending
	b.PaymentStatus = model.PaymentPending
	res, err := r.db.ExecContext(ctx, `INSERT INTO bookings
		(user_id, tour_id, start_date, end_date, adults, children, total_amount, currency,
		 booking_status, payment_status, special_requests)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		b.UserID, b.TourID, b.StartDate, b.EndDate, b.Adults, b.Children, b.TotalAmount, b.Currency,
		b.BookingStatus, b.PaymentStatus, nullString(b.SpecialRequests))
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	created, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*b = *created
	return nil
}

func getBooking(ctx context.Context, q querier, suffix string, args ...any) (*model.Booking, error) {
	b, err := scanBooking(q.QueryRowContext(ctx, "SELECT "+bookingColumns+" FROM bookings b "+suffix, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	return getBooking(ctx, r.db, "WHERE b.id = ?", id)
}

// GetForUpdateTx locks the booking row until tx ends.
func (r *BookingRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Booking, error) {
	return getBooking(ctx, tx, "WHERE b.id = ? FOR UPDATE", id)
}

// FindByGatewayOrderTx locks the booking that carries the gateway order id.
func (r *BookingRepo) FindByGatewayOrderTx(ctx context.Context, tx *sql.Tx, orderID string) (*model.Booking, error) {
	return getBooking(ctx, tx, "WHERE b.gateway_order_id = ? LIMIT 1 FOR UPDATE", orderID)
}

// GetDetail loads a booking joined with tour, user and payment rows.
func (r *BookingRepo) GetDetail(ctx context.Context, id uint64) (*model.BookingDetail, error) {
	d, err := scanBookingDetail(r.db.QueryRowContext(ctx,
		"SELECT "+bookingDetailColumns+bookingDetailFrom+" WHERE b.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	p, err := getPayment(ctx, r.db, "booking_id = ?", id)
	switch {
	case err == nil:
		d.Payment = p
	case !errors.Is(err, ErrPaymentNotFound):
		return nil, err
	}
	return &d, nil
}

// ListByUser returns the user's bookings newest first.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]model.BookingDetail, error) {
	return r.listDetails(ctx, " WHERE b.user_id = ? ORDER BY b.created_at DESC, b.id DESC", userID)
}

// Recent returns the n most recent bookings across all users.
func (r *BookingRepo) Recent(ctx context.Context, n int) ([]model.BookingDetail, error) {
	return r.listDetails(ctx, " ORDER BY b.created_at DESC, b.id DESC LIMIT ?", n)
}

func (r *BookingRepo) listDetails(ctx context.Context, suffix string, args ...any) ([]model.BookingDetail, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+bookingDetailColumns+bookingDetailFrom+suffix, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.BookingDetail{}
	for rows.Next() {
		d, err := scanBookingDetail(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// ListAdmin returns one page of bookings plus the total match count.
func (r *BookingRepo) ListAdmin(ctx context.Context, q AdminBookingQuery) ([]model.BookingDetail, int64, error) {
	where := " WHERE 1=1"
	args := []any{}
	if q.BookingStatus != "" {
		where += " AND b.booking_status = ?"
		args = append(args, q.BookingStatus)
	}
	if q.PaymentStatus != "" {
		where += " AND b.payment_status = ?"
		args = append(args, q.PaymentStatus)
	}
	if q.TourID != 0 {
		where += " AND b.tour_id = ?"
		args = append(args, q.TourID)
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM bookings b"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	args = append(args, q.Limit, (q.Page-1)*q.Limit)
	list, err := r.listDetails(ctx, where+" ORDER BY b.created_at DESC, b.id DESC LIMIT ? OFFSET ?", args...)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// SetGatewayOrder records the order opened at the gateway for this booking.
func (r *BookingRepo) SetGatewayOrder(ctx context.Context, id uint64, orderID string) error {
	_, err := r.db.ExecContext(ctx, "UPDATE bookings SET gateway_order_id = ? WHERE id = ?", orderID, id)
	return err
}

// UpdateStatusTx sets both status columns inside tx.
func (r *BookingRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, bookingStatus, paymentStatus string) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE bookings SET booking_status = ?, payment_status = ? WHERE id = ?",
		bookingStatus, paymentStatus, id)
	return err
}

// MarkPaymentFailedByOrder flips a live, still-unpaid booking to FAILED.
// Paid, refunded and cancelled bookings are left alone.
func (r *BookingRepo) MarkPaymentFailedByOrder(ctx context.Context, orderID string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE bookings SET payment_status = ? WHERE gateway_order_id = ? AND payment_status IN (?, ?) AND booking_status <> ?",
		model.PaymentFailed, orderID, model.PaymentPending, model.PaymentFailed, model.BookingCancelled)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ApplyPatch writes the non-nil fields of p.  Callers enforce the
// editability rule before calling.
func (r *BookingRepo) ApplyPatch(ctx context.Context, id uint64, p BookingPatch) error {
	sets := ""
	args := []any{}
	add := func(col string, v any) {
		if sets != "" {
			sets += ", "
		}
		sets += col + " = ?"
		args = append(args, v)
	}
	if p.BookingStatus != nil {
		add("booking_status", *p.BookingStatus)
	}
	if p.PaymentStatus != nil {
		add("payment_status", *p.PaymentStatus)
	}
	if p.StartDate != nil {
		add("start_date", *p.StartDate)
	}
	if p.EndDate != nil {
		add("end_date", *p.EndDate)
	}
	if p.Adults != nil {
		add("adults", *p.Adults)
	}
	if p.Children != nil {
		add("children", *p.Children)
	}
	if p.TotalAmount != nil {
		add("total_amount", *p.TotalAmount)
	}
	if p.SpecialRequests != nil {
		add("special_requests", *p.SpecialRequests)
	}
	if sets == "" {
		return nil
	}
	args = append(args, id)
	_, err := r.db.ExecContext(ctx, "UPDATE bookings SET "+sets+" WHERE id = ?", args...)
	return err
}

// DeletePending removes a booking only while both statuses are PENDING.  It
// returns ErrConflict when the row exists but is no longer deletable.
func (r *BookingRepo) DeletePending(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM bookings WHERE id = ? AND booking_status = ? AND payment_status = ?",
		id, model.BookingPending, model.PaymentPending)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrConflict
	}
	return nil
}

// HasPaidBooking reports whether the user holds a PAID booking for the tour.
func (r *BookingRepo) HasPaidBooking(ctx context.Context, userID, tourID uint64) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM bookings WHERE user_id = ? AND tour_id = ? AND payment_status = ?",
		userID, tourID, model.PaymentPaid).Scan(&n)
	return n > 0, err
}

// Stats aggregates the dashboard counters.  today bounds upcoming trips.
func (r *BookingRepo) Stats(ctx context.Context, today time.Time) (*model.DashboardStats, error) {
	s := &model.DashboardStats{
		ByBookingStatus: map[string]int64{},
		ByPaymentStatus: map[string]int64{},
	}
	err := r.db.QueryRowContext(ctx, `SELECT
		COUNT(*),
		COALESCE(SUM(CASE WHEN booking_status = ? AND start_date >= ? THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN payment_status = ? THEN total_amount ELSE 0 END), 0)
		FROM bookings`,
		model.BookingConfirmed, today.Format("2006-01-02"), model.PaymentPaid).
		Scan(&s.TotalBookings, &s.UpcomingTrips, &s.TotalRevenue)
	if err != nil {
		return nil, err
	}
	if err := r.countBy(ctx, "booking_status", s.ByBookingStatus); err != nil {
		return nil, err
	}
	if err := r.countBy(ctx, "payment_status", s.ByPaymentStatus); err != nil {
		return nil, err
	}
	return s, nil
}

// countBy groups bookings by a fixed status column.
func (r *BookingRepo) countBy(ctx context.Context, col string, into map[string]int64) error {
	rows, err := r.db.QueryContext(ctx, "SELECT "+col+", COUNT(*) FROM bookings GROUP BY "+col)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			k string
			n int64
		)
		if err := rows.Scan(&k, &n); err != nil {
			return err
		}
		into[k] = n
	}
	return rows.Err()
}
