// Package service holds the workflows that span several repositories or an
// external gateway: booking and payment, cancellation and refunds, webhook
// completion, review gating and password resets.  Handlers stay thin and
// render whatever apperror kind a service returns.
package service

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/iliyamo/travel-agency-booking/internal/model"
	"github.com/iliyamo/travel-agency-booking/internal/payment"
	"github.com/iliyamo/travel-agency-booking/internal/repository"
)

// BookingStore is the subset of the booking repository the workflows use.
type BookingStore interface {
	Create(ctx context.Context, b *model.Booking) error
	GetByID(ctx context.Context, id uint64) (*model.Booking, error)
	GetDetail(ctx context.Context, id uint64) (*model.BookingDetail, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.BookingDetail, error)
	GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Booking, error)
	FindByGatewayOrderTx(ctx context.Context, tx *sql.Tx, orderID string) (*model.Booking, error)
	UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, bookingStatus, paymentStatus string) error
	SetGatewayOrder(ctx context.Context, id uint64, orderID string) error
	MarkPaymentFailedByOrder(ctx context.Context, orderID string) (int64, error)
	ApplyPatch(ctx context.Context, id uint64, p repository.BookingPatch) error
	DeletePending(ctx context.Context, id uint64) error
}

type PaymentStore interface {
	CreateTx(ctx context.Context, tx *sql.Tx, p *model.Payment) error
	GetByBooking(ctx context.Context, bookingID uint64) (*model.Payment, error)
	GetByProviderPaymentID(ctx context.Context, providerPaymentID string) (*model.Payment, error)
	UpdateStatus(ctx context.Context, id uint64, status string) error
}

type TourStore interface {
	GetByID(ctx context.Context, id uint64) (*model.Tour, error)
	GetPublishedByID(ctx context.Context, id uint64) (*model.Tour, error)
}

// Gateways resolves the payment provider for a call.
type Gateways interface {
	Active(ctx context.Context) (payment.Gateway, error)
	For(ctx context.Context, provider string) (payment.Gateway, error)
	Webhook(ctx context.Context, header http.Header) (payment.WebhookParser, error)
}

// BookingNotifier receives post-commit booking events.  Implementations
// must not fail the caller.
type BookingNotifier interface {
	BookingPaid(ctx context.Context, d *model.BookingDetail)
	BookingCancelled(ctx context.Context, d *model.BookingDetail, refundID string)
}

// CurrencySource supplies the currency new bookings are priced in.
type CurrencySource interface {
	Currency(ctx context.Context) string
}

// TxBeginner opens the transaction payment completion runs in; *sql.DB
// satisfies it.
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

type clock func() time.Time
