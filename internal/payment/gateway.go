// Package payment talks to the payment gateways.  The active provider is
// read from settings on every call so an admin can switch providers or
// rotate keys without a restart.
package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v82"

	"github.com/iliyamo/travel-agency-booking/internal/settings"
)

// Provider names as stored in payments.provider.
const (
	ProviderRazorpay = "RAZORPAY"
	ProviderStripe   = "STRIPE"
)

// Normalized webhook event kinds.
const (
	EventCaptured = "captured"
	EventFailed   = "failed"
	EventOther    = "other"
)

var (
	ErrNotConfigured    = errors.New("payment gateway not configured")
	ErrInvalidSignature = errors.New("invalid payment signature")
	ErrUnknownProvider  = errors.New("unknown payment provider")
)

// Order is an amount reserved at the gateway for one booking.
type Order struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
	Status       string `json:"status"`
	Key          string `json:"key"`
	Provider     string `json:"provider"`
}

// Verification is what the client returns after checkout.
type Verification struct {
	OrderID   string
	PaymentID string
	Signature string
}

// Info describes a captured payment as reported by the gateway.
type Info struct {
	ID       string
	OrderID  string
	Amount   int64
	Currency string
	Status   string
}

type Refund struct {
	ID     string
	Amount int64
	Status string
}

// Event is a verified webhook delivery.
type Event struct {
	Kind      string
	Raw       string
	PaymentID string
	OrderID   string
	Amount    int64
	Currency  string
}

// Gateway is implemented by each provider.  Amounts are minor units.
type Gateway interface {
	Name() string
	CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*Order, error)
	Verify(ctx context.Context, v Verification) error
	FetchPayment(ctx context.Context, paymentID string) (*Info, error)
	// Refund refunds amount, or the full payment when amount is 0.
	Refund(ctx context.Context, paymentID string, amount int64) (*Refund, error)
}

// WebhookParser verifies and decodes a provider webhook.
type WebhookParser interface {
	Name() string
	ParseWebhook(payload []byte, header http.Header) (*Event, error)
}

// Factory builds gateways from the current settings.
type Factory struct {
	settings       *settings.Resolver
	client         *http.Client
	razorpayBase   string
	stripeBackends *stripe.Backends
}

func NewFactory(s *settings.Resolver) *Factory {
	return &Factory{
		settings:     s,
		client:       &http.Client{Timeout: 10 * time.Second},
		razorpayBase: razorpayAPI,
	}
}

// WithRazorpayBase points Razorpay calls elsewhere; used by tests.
func (f *Factory) WithRazorpayBase(base string) *Factory {
	f.razorpayBase = strings.TrimRight(base, "/")
	return f
}

// WithStripeURL points Stripe calls elsewhere; used by tests.
func (f *Factory) WithStripeURL(url string) *Factory {
	f.stripeBackends = stripe.NewBackendsWithConfig(&stripe.BackendConfig{
		URL:               stripe.String(strings.TrimRight(url, "/")),
		HTTPClient:        f.client,
		MaxNetworkRetries: stripe.Int64(0),
	})
	return f
}

// Active returns the gateway named by the PAYMENT_PROVIDER setting.
func (f *Factory) Active(ctx context.Context) (Gateway, error) {
	return f.For(ctx, f.settings.Provider(ctx))
}

// For returns the gateway for a stored provider name.
func (f *Factory) For(ctx context.Context, provider string) (Gateway, error) {
	switch strings.ToUpper(provider) {
	case ProviderRazorpay:
		cfg := f.settings.Razorpay(ctx)
		if !cfg.Configured() {
			return nil, fmt.Errorf("%w: razorpay keys missing", ErrNotConfigured)
		}
		return newRazorpay(cfg, f.client, f.razorpayBase), nil
	case ProviderStripe:
		cfg := f.settings.Stripe(ctx)
		if !cfg.Configured() {
			return nil, fmt.Errorf("%w: stripe secret key missing", ErrNotConfigured)
		}
		return newStripe(cfg, f.stripeBackends), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
}

// Webhook picks the parser matching the signature header present.
func (f *Factory) Webhook(ctx context.Context, header http.Header) (WebhookParser, error) {
	switch {
	case header.Get(razorpaySignatureHeader) != "":
		cfg := f.settings.Razorpay(ctx)
		if cfg.WebhookSecret == "" {
			return nil, fmt.Errorf("%w: razorpay webhook secret missing", ErrNotConfigured)
		}
		return newRazorpay(cfg, f.client, f.razorpayBase), nil
	case header.Get(stripeSignatureHeader) != "":
		cfg := f.settings.Stripe(ctx)
		if cfg.WebhookSecret == "" {
			return nil, fmt.Errorf("%w: stripe webhook secret missing", ErrNotConfigured)
		}
		return newStripe(cfg, f.stripeBackends), nil
	}
	return nil, ErrInvalidSignature
}
