package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/iliyamo/travel-agency-booking/internal/settings"
)

func newFactory(t *testing.T, seed map[string]any, base string) *Factory {
	t.Helper()
	r := settings.NewResolver(settings.NewMemoryStore(seed), nil, 0)
	f := NewFactory(r)
	if base != "" {
		f.WithRazorpayBase(base)
	}
	return f
}

var razorpayKeys = map[string]any{
	settings.PaymentProvider:   "razorpay",
	settings.RazorpayKeyID:     "rzp_test_key",
	settings.RazorpaySecretKey: "secret",
}

func TestRazorpay_CreateOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/orders", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "rzp_test_key", user)
		assert.Equal(t, "secret", pass)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(250000), body["amount"])
		assert.Equal(t, "INR", body["currency"])
		assert.Equal(t, "receipt_4_1700000000", body["receipt"])

		_ = json.NewEncoder(w).Encode(map[string]any{"id": "order_9", "amount": 250000, "currency": "INR", "status": "created"})
	}))
	defer srv.Close()

	gw, err := newFactory(t, razorpayKeys, srv.URL).Active(context.Background())
	require.NoError(t, err)

	o, err := gw.CreateOrder(context.Background(), 250000, "INR", "receipt_4_1700000000")
	require.NoError(t, err)
	assert.Equal(t, "order_9", o.ID)
	assert.Equal(t, "requires_confirmation", o.Status)
	assert.Equal(t, "rzp_test_key", o.Key)
	assert.Equal(t, ProviderRazorpay, o.Provider)
}

func TestRazorpay_Verify(t *testing.T) {
	gw, err := newFactory(t, razorpayKeys, "").Active(context.Background())
	require.NoError(t, err)
	ctx := context.Background()

	good := Sign("secret", "order_9|pay_1")
	assert.NoError(t, gw.Verify(ctx, Verification{OrderID: "order_9", PaymentID: "pay_1", Signature: good}))
	assert.ErrorIs(t, gw.Verify(ctx, Verification{OrderID: "order_9", PaymentID: "pay_2", Signature: good}), ErrInvalidSignature)
	assert.ErrorIs(t, gw.Verify(ctx, Verification{OrderID: "order_9", PaymentID: "pay_1", Signature: "deadbeef"}), ErrInvalidSignature)
	assert.ErrorIs(t, gw.Verify(ctx, Verification{OrderID: "order_9", PaymentID: "pay_1"}), ErrInvalidSignature)
}

func TestRazorpay_RefundFullAndPartial(t *testing.T) {
	var bodies []map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/payments/pay_1/refund", r.URL.Path)
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		bodies = append(bodies, body)
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "rfnd_1", "amount": 100, "status": "processed"})
	}))
	defer srv.Close()

	gw, err := newFactory(t, razorpayKeys, srv.URL).Active(context.Background())
	require.NoError(t, err)

	_, err = gw.Refund(context.Background(), "pay_1", 0)
	require.NoError(t, err)
	rf, err := gw.Refund(context.Background(), "pay_1", 100)
	require.NoError(t, err)
	assert.Equal(t, "rfnd_1", rf.ID)

	require.Len(t, bodies, 2)
	assert.NotContains(t, bodies[0], "amount")
	assert.Equal(t, float64(100), bodies[1]["amount"])
}

func TestRazorpay_GatewayErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"description":"The id provided does not exist"}}`))
	}))
	defer srv.Close()

	gw, err := newFactory(t, razorpayKeys, srv.URL).Active(context.Background())
	require.NoError(t, err)
	_, err = gw.FetchPayment(context.Background(), "pay_x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestRazorpay_Webhook(t *testing.T) {
	f := newFactory(t, map[string]any{
		settings.RazorpayKeyID:         "k",
		settings.RazorpaySecretKey:     "secret",
		settings.RazorpayWebhookSecret: "hooksecret",
	}, "")
	payload := []byte(`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_1","order_id":"order_9","amount":2500,"currency":"INR","status":"captured"}}}}`)

	h := http.Header{}
	h.Set("X-Razorpay-Signature", Sign("hooksecret", string(payload)))
	p, err := f.Webhook(context.Background(), h)
	require.NoError(t, err)
	ev, err := p.ParseWebhook(payload, h)
	require.NoError(t, err)
	assert.Equal(t, EventCaptured, ev.Kind)
	assert.Equal(t, "pay_1", ev.PaymentID)
	assert.Equal(t, "order_9", ev.OrderID)

	h.Set("X-Razorpay-Signature", Sign("secret", string(payload)))
	_, err = p.ParseWebhook(payload, h)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestStripe_Webhook(t *testing.T) {
	f := newFactory(t, map[string]any{
		settings.StripeSecretKey:     "sk_test_x",
		settings.StripeWebhookSecret: "whsec_test",
	}, "")
	payload := []byte(`{"id":"evt_1","object":"event","type":"payment_intent.payment_failed",
		"data":{"object":{"id":"pi_1","object":"payment_intent","amount":2500,"currency":"inr","status":"requires_payment_method"}}}`)
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    "whsec_test",
		Timestamp: time.Now(),
	})

	h := http.Header{}
	h.Set("Stripe-Signature", signed.Header)
	p, err := f.Webhook(context.Background(), h)
	require.NoError(t, err)
	ev, err := p.ParseWebhook(payload, h)
	require.NoError(t, err)
	assert.Equal(t, EventFailed, ev.Kind)
	assert.Equal(t, "pi_1", ev.OrderID)
	assert.Equal(t, "INR", ev.Currency)

	h.Set("Stripe-Signature", "t=1,v1=bad")
	_, err = p.ParseWebhook(payload, h)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestStripe_ClientPerGateway(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payment_intents/pi_ok", r.URL.Path)
		status := "processing"
		if r.Header.Get("Authorization") == "Bearer sk_test_b" {
			status = "succeeded"
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": "pi_ok", "object": "payment_intent", "amount": 2500, "currency": "inr", "status": status,
		})
	}))
	defer srv.Close()

	gateway := func(key string) Gateway {
		f := newFactory(t, map[string]any{
			settings.PaymentProvider: "stripe",
			settings.StripeSecretKey: key,
		}, "").WithStripeURL(srv.URL)
		gw, err := f.Active(context.Background())
		require.NoError(t, err)
		return gw
	}
	a, b := gateway("sk_test_a"), gateway("sk_test_b")

	assert.ErrorIs(t, a.Verify(context.Background(), Verification{PaymentID: "pi_ok"}), ErrInvalidSignature)
	require.NoError(t, b.Verify(context.Background(), Verification{OrderID: "pi_ok", PaymentID: "pi_ok"}))
	assert.ErrorIs(t, b.Verify(context.Background(), Verification{OrderID: "pi_other", PaymentID: "pi_ok"}), ErrInvalidSignature)

	info, err := b.FetchPayment(context.Background(), "pi_ok")
	require.NoError(t, err)
	assert.Equal(t, int64(2500), info.Amount)
	assert.Equal(t, "INR", info.Currency)
}

func TestFactory_NotConfigured(t *testing.T) {
	f := newFactory(t, map[string]any{
		settings.PaymentProvider:   "stripe",
		settings.StripeSecretKey:   "",
		settings.RazorpayKeyID:     "",
		settings.RazorpaySecretKey: "",
	}, "")
	t.Setenv("STRIPE_SECRET_KEY", "")
	_, err := f.Active(context.Background())
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = f.For(context.Background(), "paypal")
	assert.ErrorIs(t, err, ErrUnknownProvider)

	_, err = f.Webhook(context.Background(), http.Header{})
	assert.ErrorIs(t, err, ErrInvalidSignature)
}
