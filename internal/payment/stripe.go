package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/iliyamo/travel-agency-booking/internal/settings"
)

const stripeSignatureHeader = "Stripe-Signature"

// stripeGateway carries its own client so keys resolved for one call never
// touch the package-level stripe.Key.
type stripeGateway struct {
	cfg settings.Stripe
	sc  *stripe.Client
}

func newStripe(cfg settings.Stripe, backends *stripe.Backends) *stripeGateway {
	var opts []stripe.ClientOption
	if backends != nil {
		opts = append(opts, stripe.WithBackends(backends))
	}
	return &stripeGateway{cfg: cfg, sc: stripe.NewClient(cfg.SecretKey, opts...)}
}

func (g *stripeGateway) Name() string { return ProviderStripe }

func (g *stripeGateway) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*Order, error) {
	params := &stripe.PaymentIntentCreateParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(strings.ToLower(currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentCreateAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Metadata: map[string]string{"receipt": receipt},
	}
	pi, err := g.sc.V1PaymentIntents.Create(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("stripe create payment intent: %w", err)
	}
	return &Order{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       pi.Amount,
		Currency:     strings.ToUpper(string(pi.Currency)),
		Status:       "requires_confirmation",
		Key:          g.cfg.PublishableKey,
		Provider:     ProviderStripe,
	}, nil
}

func (g *stripeGateway) get(ctx context.Context, id string) (*stripe.PaymentIntent, error) {
	return g.sc.V1PaymentIntents.Retrieve(ctx, id, &stripe.PaymentIntentRetrieveParams{})
}

// Verify asks Stripe whether the intent succeeded.  Stripe has no client
// side signature, so the intent id doubles as order and payment id.
func (g *stripeGateway) Verify(ctx context.Context, v Verification) error {
	id := v.PaymentID
	if id == "" {
		id = v.OrderID
	}
	if id == "" || (v.OrderID != "" && v.OrderID != id) {
		return ErrInvalidSignature
	}
	pi, err := g.get(ctx, id)
	if err != nil {
		return fmt.Errorf("stripe get payment intent: %w", err)
	}
	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		return ErrInvalidSignature
	}
	return nil
}

func (g *stripeGateway) FetchPayment(ctx context.Context, paymentID string) (*Info, error) {
	pi, err := g.get(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("stripe get payment intent: %w", err)
	}
	return &Info{
		ID:       pi.ID,
		OrderID:  pi.ID,
		Amount:   pi.Amount,
		Currency: strings.ToUpper(string(pi.Currency)),
		Status:   string(pi.Status),
	}, nil
}

func (g *stripeGateway) Refund(ctx context.Context, paymentID string, amount int64) (*Refund, error) {
	params := &stripe.RefundCreateParams{PaymentIntent: stripe.String(paymentID)}
	if amount > 0 {
		params.Amount = stripe.Int64(amount)
	}
	rf, err := g.sc.V1Refunds.Create(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("stripe refund: %w", err)
	}
	return &Refund{ID: rf.ID, Amount: rf.Amount, Status: string(rf.Status)}, nil
}

func (g *stripeGateway) ParseWebhook(payload []byte, header http.Header) (*Event, error) {
	evt, err := webhook.ConstructEventWithOptions(payload, header.Get(stripeSignatureHeader), g.cfg.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, ErrInvalidSignature
	}
	ev := &Event{Raw: string(evt.Type), Kind: EventOther}
	switch evt.Type {
	case "payment_intent.succeeded":
		ev.Kind = EventCaptured
	case "payment_intent.payment_failed":
		ev.Kind = EventFailed
	default:
		return ev, nil
	}
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(evt.Data.Raw, &pi); err != nil {
		return nil, fmt.Errorf("decode stripe payment intent: %w", err)
	}
	ev.PaymentID = pi.ID
	ev.OrderID = pi.ID
	ev.Amount = pi.Amount
	ev.Currency = strings.ToUpper(string(pi.Currency))
	return ev, nil
}
