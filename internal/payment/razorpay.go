package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/iliyamo/travel-agency-booking/internal/settings"
)

const (
	razorpayAPI             = "https://api.razorpay.com/v1"
	razorpaySignatureHeader = "X-Razorpay-Signature"
)

type razorpay struct {
	cfg    settings.Razorpay
	client *http.Client
	base   string
}

func newRazorpay(cfg settings.Razorpay, client *http.Client, base string) *razorpay {
	return &razorpay{cfg: cfg, client: client, base: base}
}

func (r *razorpay) Name() string { return ProviderRazorpay }

// Sign returns the hex HMAC-SHA256 of msg under secret.
func Sign(secret, msg string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(msg))
	return hex.EncodeToString(mac.Sum(nil))
}

func validSignature(secret, msg, sig string) bool {
	return hmac.Equal([]byte(Sign(secret, msg)), []byte(strings.ToLower(strings.TrimSpace(sig))))
}

func (r *razorpay) do(ctx context.Context, method, path string, body any, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, r.base+path, rd)
	if err != nil {
		return err
	}
	req.SetBasicAuth(r.cfg.KeyID, r.cfg.SecretKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("razorpay %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode >= 300 {
		var e struct {
			Error struct {
				Description string `json:"description"`
			} `json:"error"`
		}
		_ = json.Unmarshal(raw, &e)
		return fmt.Errorf("razorpay %s %s: status %d: %s", method, path, resp.StatusCode, e.Error.Description)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}

func (r *razorpay) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*Order, error) {
	var out struct {
		ID       string `json:"id"`
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
		Status   string `json:"status"`
	}
	err := r.do(ctx, http.MethodPost, "/orders", map[string]any{
		"amount":   amount,
		"currency": currency,
		"receipt":  receipt,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &Order{
		ID:           out.ID,
		ClientSecret: out.ID,
		Amount:       out.Amount,
		Currency:     out.Currency,
		Status:       "requires_confirmation",
		Key:          r.cfg.KeyID,
		Provider:     ProviderRazorpay,
	}, nil
}

// Verify checks the checkout signature, HMAC over "order_id|payment_id".
func (r *razorpay) Verify(_ context.Context, v Verification) error {
	if v.OrderID == "" || v.PaymentID == "" || v.Signature == "" {
		return ErrInvalidSignature
	}
	if !validSignature(r.cfg.SecretKey, v.OrderID+"|"+v.PaymentID, v.Signature) {
		return ErrInvalidSignature
	}
	return nil
}

type razorpayPayment struct {
	ID       string `json:"id"`
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

func (p razorpayPayment) info() *Info {
	return &Info{ID: p.ID, OrderID: p.OrderID, Amount: p.Amount, Currency: p.Currency, Status: p.Status}
}

func (r *razorpay) FetchPayment(ctx context.Context, paymentID string) (*Info, error) {
	var p razorpayPayment
	if err := r.do(ctx, http.MethodGet, "/payments/"+paymentID, nil, &p); err != nil {
		return nil, err
	}
	return p.info(), nil
}

func (r *razorpay) Refund(ctx context.Context, paymentID string, amount int64) (*Refund, error) {
	body := map[string]any{}
	if amount > 0 {
		body["amount"] = amount
	}
	var out struct {
		ID     string `json:"id"`
		Amount int64  `json:"amount"`
		Status string `json:"status"`
	}
	if err := r.do(ctx, http.MethodPost, "/payments/"+paymentID+"/refund", body, &out); err != nil {
		return nil, err
	}
	return &Refund{ID: out.ID, Amount: out.Amount, Status: out.Status}, nil
}

// ParseWebhook verifies X-Razorpay-Signature over the raw body.
func (r *razorpay) ParseWebhook(payload []byte, header http.Header) (*Event, error) {
	if !validSignature(r.cfg.WebhookSecret, string(payload), header.Get(razorpaySignatureHeader)) {
		return nil, ErrInvalidSignature
	}
	var body struct {
		Event   string `json:"event"`
		Payload struct {
			Payment struct {
				Entity razorpayPayment `json:"entity"`
			} `json:"payment"`
		} `json:"payload"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, fmt.Errorf("decode razorpay webhook: %w", err)
	}
	p := body.Payload.Payment.Entity
	ev := &Event{Raw: body.Event, Kind: EventOther, PaymentID: p.ID, OrderID: p.OrderID, Amount: p.Amount, Currency: p.Currency}
	switch body.Event {
	case "payment.captured":
		ev.Kind = EventCaptured
	case "payment.failed":
		ev.Kind = EventFailed
	}
	return ev, nil
}
