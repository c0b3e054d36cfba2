package settings

import (
	"context"
	"strconv"
	"strings"
)

type Razorpay struct {
	KeyID         string
	SecretKey     string
	WebhookSecret string
}

// Configured reports whether orders can be created and verified.
func (c Razorpay) Configured() bool { return c.KeyID != "" && c.SecretKey != "" }

type Stripe struct {
	SecretKey      string
	PublishableKey string
	WebhookSecret  string
}

func (c Stripe) Configured() bool { return c.SecretKey != "" }

type SMTP struct {
	Host     string
	Port     int
	Email    string
	Password string
	FromName string
	Enabled  bool
}

// Usable reports whether mail can be sent at all.
func (c SMTP) Usable() bool { return c.Enabled && c.Host != "" && c.Email != "" && c.Password != "" }

type Cloudinary struct {
	CloudName string
	APIKey    string
	APISecret string
}

func (c Cloudinary) Configured() bool {
	return c.CloudName != "" && c.APIKey != "" && c.APISecret != ""
}

type Recaptcha struct {
	SiteKey   string
	SecretKey string
}

// Provider returns the lower-cased active payment provider name.
func (r *Resolver) Provider(ctx context.Context) string {
	return strings.ToLower(strings.TrimSpace(r.String(ctx, PaymentProvider)))
}

func (r *Resolver) Currency(ctx context.Context) string {
	return strings.ToUpper(r.String(ctx, Currency))
}

func (r *Resolver) SupportEmail(ctx context.Context) string {
	return r.String(ctx, SupportEmail)
}

// Razorpay resolves gateway credentials.  The webhook secret falls back to
// the API secret.
func (r *Resolver) Razorpay(ctx context.Context) Razorpay {
	m := r.load(ctx)
	c := Razorpay{
		KeyID:         r.lookup(m, RazorpayKeyID),
		SecretKey:     r.lookup(m, RazorpaySecretKey),
		WebhookSecret: r.lookup(m, RazorpayWebhookSecret),
	}
	if c.WebhookSecret == "" {
		c.WebhookSecret = c.SecretKey
	}
	return c
}

func (r *Resolver) Stripe(ctx context.Context) Stripe {
	m := r.load(ctx)
	return Stripe{
		SecretKey:      r.lookup(m, StripeSecretKey),
		PublishableKey: r.lookup(m, StripePublishableKey),
		WebhookSecret:  r.lookup(m, StripeWebhookSecret),
	}
}

func (r *Resolver) SMTP(ctx context.Context) SMTP {
	m := r.load(ctx)
	c := SMTP{
		Host:     r.lookup(m, SMTPHost),
		Email:    r.lookup(m, SMTPEmail),
		Password: r.lookup(m, SMTPPassword),
		FromName: r.lookup(m, SMTPFromName),
		Enabled:  r.lookup(m, SMTPEnabled) != "false",
		Port:     587,
	}
	if p, err := strconv.Atoi(r.lookup(m, SMTPPort)); err == nil && p > 0 {
		c.Port = p
	}
	return c
}

func (r *Resolver) Cloudinary(ctx context.Context) Cloudinary {
	m := r.load(ctx)
	return Cloudinary{
		CloudName: r.lookup(m, CloudinaryCloudName),
		APIKey:    r.lookup(m, CloudinaryAPIKey),
		APISecret: r.lookup(m, CloudinaryAPISecret),
	}
}

func (r *Resolver) Recaptcha(ctx context.Context) Recaptcha {
	m := r.load(ctx)
	return Recaptcha{
		SiteKey:   r.lookup(m, RecaptchaSiteKey),
		SecretKey: r.lookup(m, RecaptchaSecretKey),
	}
}

func (r *Resolver) GeminiKey(ctx context.Context) string {
	return r.String(ctx, GeminiAPIKey)
}
