// Package notify is the best-effort notification policy.  Every email is
// rendered, then queued on RabbitMQ, or sent inline when queueing is off or
// the broker is unreachable.  Failures are logged and counted, never
// returned: a lost email must not undo a payment or a booking change.
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/travel-agency-booking/internal/mailer"
	"github.com/iliyamo/travel-agency-booking/internal/metrics"
	"github.com/iliyamo/travel-agency-booking/internal/model"
	"github.com/iliyamo/travel-agency-booking/internal/queue"
	"github.com/iliyamo/travel-agency-booking/internal/settings"
	"github.com/iliyamo/travel-agency-booking/internal/utils"
)

// Publisher enqueues rendered emails.
type Publisher interface {
	PublishEmail(ctx context.Context, job queue.EmailJob) error
}

// Notifier implements the policy.  pub may be nil for direct delivery.
type Notifier struct {
	renderer *mailer.Renderer
	sender   mailer.Sender
	pub      Publisher
	settings *settings.Resolver
	baseURL  string
}

func New(renderer *mailer.Renderer, sender mailer.Sender, pub Publisher, s *settings.Resolver, baseURL string) *Notifier {
	if renderer == nil || sender == nil || s == nil {
		panic("notify: nil dependency")
	}
	return &Notifier{renderer: renderer, sender: sender, pub: pub, settings: s, baseURL: baseURL}
}

// Send renders kind for to and hands it off.  It never fails.
func (n *Notifier) Send(ctx context.Context, kind, to string, v mailer.View, bookingID uint64) {
	if to == "" {
		return
	}
	smtp := n.settings.SMTP(ctx)
	if !smtp.Enabled {
		metrics.Notifications.WithLabelValues(kind, "disabled").Inc()
		return
	}
	v.Brand = smtp.FromName
	v.BaseURL = n.baseURL
	v.SupportEmail = n.settings.SupportEmail(ctx)

	msg, err := n.renderer.Render(kind, to, v)
	if err != nil {
		log.Error().Err(err).Str("kind", kind).Msg("notify: render failed")
		metrics.Notifications.WithLabelValues(kind, "failed").Inc()
		return
	}

	if n.pub != nil {
		job := queue.EmailJob{ID: uuid.NewString(), Message: msg, BookingID: bookingID, CreatedAt: time.Now().UTC()}
		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		err := n.pub.PublishEmail(pubCtx, job)
		cancel()
		if err == nil {
			metrics.Notifications.WithLabelValues(kind, "queued").Inc()
			return
		}
		log.Warn().Err(err).Str("kind", kind).Msg("notify: queue unavailable, sending directly")
	}

	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 20*time.Second)
	defer cancel()
	if err := n.sender.Send(sendCtx, msg); err != nil {
		log.Error().Err(err).Str("kind", kind).Uint64("booking_id", bookingID).Msg("notify: email failed")
		metrics.Notifications.WithLabelValues(kind, "failed").Inc()
		metrics.IntegrationFailed("smtp")
		return
	}
	metrics.Notifications.WithLabelValues(kind, "sent").Inc()
}

// BookingView flattens a booking detail for templates.
func BookingView(d *model.BookingDetail) mailer.BookingView {
	v := mailer.BookingView{
		ID:            d.ID,
		TourTitle:     d.TourTitle,
		StartDate:     d.StartDate.Format("2006-01-02"),
		EndDate:       d.EndDate.Format("2006-01-02"),
		Adults:        d.Adults,
		Children:      d.Children,
		Amount:        utils.FormatMoney(d.TotalAmount, d.Currency),
		CustomerName:  d.UserName,
		CustomerEmail: d.UserEmail,
		WasPaid:       d.PaymentStatus == model.PaymentPaid || d.PaymentStatus == model.PaymentRefunded,
	}
	if d.SpecialRequests != nil {
		v.SpecialRequests = *d.SpecialRequests
	}
	if d.UserPhone != nil {
		v.CustomerPhone = *d.UserPhone
	}
	if d.Payment != nil {
		v.PaymentID = d.Payment.ProviderPaymentID
	}
	return v
}

// Welcome greets a new account.
func (n *Notifier) Welcome(ctx context.Context, u model.User) {
	n.Send(ctx, mailer.KindWelcome, u.Email, mailer.View{Name: u.Name}, 0)
}

// PasswordReset mails the single-use reset link.
func (n *Notifier) PasswordReset(ctx context.Context, u model.User, link string) {
	n.Send(ctx, mailer.KindPasswordReset, u.Email, mailer.View{Name: u.Name, Link: link}, 0)
}

// BookingPaid sends the receipt and confirmation to the customer and a
// notice to the support inbox.  Each email is independent.
func (n *Notifier) BookingPaid(ctx context.Context, d *model.BookingDetail) {
	v := mailer.View{Name: d.UserName, Booking: BookingView(d)}
	n.Send(ctx, mailer.KindPaymentReceipt, d.UserEmail, v, d.ID)
	n.Send(ctx, mailer.KindBookingConfirmation, d.UserEmail, v, d.ID)
	n.Send(ctx, mailer.KindAdminBooking, n.settings.SupportEmail(ctx), v, d.ID)
}

// BookingCancelled tells the customer about the cancellation and refund.
func (n *Notifier) BookingCancelled(ctx context.Context, d *model.BookingDetail, refundID string) {
	bv := BookingView(d)
	bv.RefundID = refundID
	n.Send(ctx, mailer.KindCancellation, d.UserEmail, mailer.View{Name: d.UserName, Booking: bv}, d.ID)
}

// ContactReceived forwards a contact form message to the support inbox.
func (n *Notifier) ContactReceived(ctx context.Context, m *model.ContactMessage) {
	n.Send(ctx, mailer.KindContactNotice, n.settings.SupportEmail(ctx),
		mailer.View{Name: m.Name, Email: m.Email, Message: m.Message}, 0)
}
