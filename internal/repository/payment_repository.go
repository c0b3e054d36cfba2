package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/travel-agency-booking/internal/model"
)

var ErrPaymentNotFound = errors.New("payment not found")

type PaymentRepo struct {
	db *sql.DB
}

func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

const paymentColumns = "id, booking_id, provider, provider_payment_id, amount, currency, status, created_at, updated_at"

func getPayment(ctx context.Context, q querier, cond string, args ...any) (*model.Payment, error) {
	var p model.Payment
	err := q.QueryRowContext(ctx, "SELECT "+paymentColumns+" FROM payments WHERE "+cond+" LIMIT 1", args...).
		Scan(&p.ID, &p.BookingID, &p.Provider, &p.ProviderPaymentID, &p.Amount, &p.Currency, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateTx inserts the payment inside tx.  A second payment for the same
// booking violates UNIQUE(booking_id) and yields ErrDuplicate.
func (r *PaymentRepo) CreateTx(ctx context.Context, tx *sql.Tx, p *model.Payment) error {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO payments (booking_id, provider, provider_payment_id, amount, currency, status) VALUES (?,?,?,?,?,?)",
		p.BookingID, p.Provider, p.ProviderPaymentID, p.Amount, p.Currency, p.Status)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

func (r *PaymentRepo) GetByBooking(ctx context.Context, bookingID uint64) (*model.Payment, error) {
	return getPayment(ctx, r.db, "booking_id = ?", bookingID)
}

func (r *PaymentRepo) GetByProviderPaymentID(ctx context.Context, providerPaymentID string) (*model.Payment, error) {
	return getPayment(ctx, r.db, "provider_payment_id = ?", providerPaymentID)
}

// UpdateStatus records a refund or other provider-side status change.
func (r *PaymentRepo) UpdateStatus(ctx context.Context, id uint64, status string) error {
	_, err := r.db.ExecContext(ctx, "UPDATE payments SET status = ? WHERE id = ?", status, id)
	return err
}
