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

type fakeBookings struct {
	byID      map[uint64]*model.Booking
	byOrder   map[string]uint64
	created   []*model.Booking
	statuses  []string
	patches   []repository.BookingPatch
	failed    []string
	deleteErr error
	onLock    func(id uint64)
}

func newFakeBookings(bs ...*model.Booking) *fakeBookings {
	f := &fakeBookings{byID: map[uint64]*model.Booking{}, byOrder: map[string]uint64{}}
	for _, b := range bs {
		f.byID[b.ID] = b
		if b.GatewayOrderID != nil {
			f.byOrder[*b.GatewayOrderID] = b.ID
		}
	}
	return f
}

func (f *fakeBookings) Create(_ context.Context, b *model.Booking) error {
	b.ID = uint64(100 + len(f.created))
	b.BookingStatus, b.PaymentStatus = model.BookingPending, model.PaymentPending
	f.created = append(f.created, b)
	f.byID[b.ID] = b
	return nil
}

func (f *fakeBookings) GetByID(_ context.Context, id uint64) (*model.Booking, error) {
	b, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrBookingNotFound
	}
	cp := *b
	return &cp, nil
}

func (f *fakeBookings) GetDetail(ctx context.Context, id uint64) (*model.BookingDetail, error) {
	b, err := f.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &model.BookingDetail{Booking: *b, TourTitle: "Goa Beaches", UserEmail: "ana@example.com"}, nil
}

func (f *fakeBookings) ListByUser(_ context.Context, userID uint64) ([]model.BookingDetail, error) {
	out := []model.BookingDetail{}
	for _, b := range f.byID {
		if b.UserID == userID {
			out = append(out, model.BookingDetail{Booking: *b})
		}
	}
	return out, nil
}

func (f *fakeBookings) GetForUpdateTx(ctx context.Context, _ *sql.Tx, id uint64) (*model.Booking, error) {
	if f.onLock != nil {
		f.onLock(id)
	}
	return f.GetByID(ctx, id)
}

func (f *fakeBookings) FindByGatewayOrderTx(ctx context.Context, _ *sql.Tx, orderID string) (*model.Booking, error) {
	id, ok := f.byOrder[orderID]
	if !ok {
		return nil, repository.ErrBookingNotFound
	}
	return f.GetByID(ctx, id)
}

func (f *fakeBookings) UpdateStatusTx(_ context.Context, _ *sql.Tx, id uint64, bs, ps string) error {
	f.byID[id].BookingStatus, f.byID[id].PaymentStatus = bs, ps
	f.statuses = append(f.statuses, bs+"/"+ps)
	return nil
}

func (f *fakeBookings) SetGatewayOrder(_ context.Context, id uint64, orderID string) error {
	f.byID[id].GatewayOrderID = &orderID
	f.byOrder[orderID] = id
	return nil
}

func (f *fakeBookings) MarkPaymentFailedByOrder(_ context.Context, orderID string) (int64, error) {
	f.failed = append(f.failed, orderID)
	id, ok := f.byOrder[orderID]
	if !ok {
		return 0, nil
	}
	b := f.byID[id]
	if b.BookingStatus == model.BookingCancelled ||
		(b.PaymentStatus != model.PaymentPending && b.PaymentStatus != model.PaymentFailed) {
		return 0, nil
	}
	f.byID[id].PaymentStatus = model.PaymentFailed
	return 1, nil
}

func (f *fakeBookings) ApplyPatch(_ context.Context, id uint64, p repository.BookingPatch) error {
	f.patches = append(f.patches, p)
	if p.BookingStatus != nil {
		f.byID[id].BookingStatus = *p.BookingStatus
	}
	if p.Adults != nil {
		f.byID[id].Adults = *p.Adults
	}
	return nil
}

func (f *fakeBookings) DeletePending(_ context.Context, id uint64) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.byID[id]; !ok {
		return repository.ErrBookingNotFound
	}
	delete(f.byID, id)
	return nil
}

type fakePayments struct {
	rows     []*model.Payment
	statuses map[uint64]string
}

func (f *fakePayments) CreateTx(_ context.Context, _ *sql.Tx, p *model.Payment) error {
	for _, r := range f.rows {
		if r.BookingID == p.BookingID {
			return repository.ErrDuplicate
		}
	}
	p.ID = uint64(len(f.rows) + 1)
	f.rows = append(f.rows, p)
	return nil
}

func (f *fakePayments) GetByBooking(_ context.Context, bookingID uint64) (*model.Payment, error) {
	for _, r := range f.rows {
		if r.BookingID == bookingID {
			return r, nil
		}
	}
	return nil, repository.ErrPaymentNotFound
}

func (f *fakePayments) GetByProviderPaymentID(_ context.Context, id string) (*model.Payment, error) {
	for _, r := range f.rows {
		if r.ProviderPaymentID == id {
			return r, nil
		}
	}
	return nil, repository.ErrPaymentNotFound
}

func (f *fakePayments) UpdateStatus(_ context.Context, id uint64, status string) error {
	if f.statuses == nil {
		f.statuses = map[uint64]string{}
	}
	f.statuses[id] = status
	return nil
}

type fakeTours struct {
	tours map[uint64]*model.Tour
}

func (f *fakeTours) GetByID(_ context.Context, id uint64) (*model.Tour, error) {
	t, ok := f.tours[id]
	if !ok {
		return nil, repository.ErrTourNotFound
	}
	return t, nil
}

func (f *fakeTours) GetPublishedByID(ctx context.Context, id uint64) (*model.Tour, error) {
	t, err := f.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !t.IsPublished {
		return nil, repository.ErrTourNotFound
	}
	return t, nil
}

// fakeGateway is a Func-field payment.Gateway.
type fakeGateway struct {
	CreateOrderFunc  func(amount int64, currency, receipt string) (*payment.Order, error)
	VerifyFunc       func(v payment.Verification) error
	FetchPaymentFunc func(id string) (*payment.Info, error)
	RefundFunc       func(id string, amount int64) (*payment.Refund, error)
	ParseWebhookFunc func(payload []byte, header http.Header) (*payment.Event, error)
}

func (g *fakeGateway) Name() string { return payment.ProviderRazorpay }

func (g *fakeGateway) CreateOrder(_ context.Context, amount int64, currency, receipt string) (*payment.Order, error) {
	return g.CreateOrderFunc(amount, currency, receipt)
}

func (g *fakeGateway) Verify(_ context.Context, v payment.Verification) error { return g.VerifyFunc(v) }

func (g *fakeGateway) FetchPayment(_ context.Context, id string) (*payment.Info, error) {
	if g.FetchPaymentFunc == nil {
		return &payment.Info{ID: id}, nil
	}
	return g.FetchPaymentFunc(id)
}

func (g *fakeGateway) Refund(_ context.Context, id string, amount int64) (*payment.Refund, error) {
	return g.RefundFunc(id, amount)
}

func (g *fakeGateway) ParseWebhook(payload []byte, header http.Header) (*payment.Event, error) {
	return g.ParseWebhookFunc(payload, header)
}

type fakeGateways struct {
	gw  *fakeGateway
	err error
}

func (f *fakeGateways) Active(context.Context) (payment.Gateway, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.gw, nil
}

func (f *fakeGateways) For(ctx context.Context, _ string) (payment.Gateway, error) { return f.Active(ctx) }

func (f *fakeGateways) Webhook(context.Context, http.Header) (payment.WebhookParser, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.gw, nil
}

type fakeNotifier struct {
	paid      []uint64
	cancelled []string
	resets    []string
}

func (n *fakeNotifier) BookingPaid(_ context.Context, d *model.BookingDetail) {
	n.paid = append(n.paid, d.ID)
}

func (n *fakeNotifier) BookingCancelled(_ context.Context, _ *model.BookingDetail, refundID string) {
	n.cancelled = append(n.cancelled, refundID)
}

func (n *fakeNotifier) PasswordReset(_ context.Context, _ model.User, link string) {
	n.resets = append(n.resets, link)
}

type fixedCurrency string

func (c fixedCurrency) Currency(context.Context) string { return string(c) }

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func strp(s string) *string { return &s }
