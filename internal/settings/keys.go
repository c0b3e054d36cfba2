package settings

// Setting keys.  The mixed naming mirrors what the admin panel stores.
const (
	PaymentProvider       = "PAYMENT_PROVIDER"
	RazorpayKeyID         = "RAZORPAY_KEY_ID"
	RazorpaySecretKey     = "RAZORPAY_SECRET_KEY"
	RazorpayWebhookSecret = "RAZORPAY_WEBHOOK_SECRET"
	StripeSecretKey       = "STRIPE_SECRET_KEY"
	StripePublishableKey  = "STRIPE_PUBLISHABLE_KEY"
	StripeWebhookSecret   = "STRIPE_WEBHOOK_SECRET"
	Currency              = "CURRENCY"
	CloudinaryCloudName   = "cloudinaryCloudName"
	CloudinaryAPIKey      = "cloudinaryApiKey"
	CloudinaryAPISecret   = "cloudinaryApiSecret"
	SMTPHost              = "SMTP_HOST"
	SMTPPort              = "SMTP_PORT"
	SMTPEmail             = "SMTP_EMAIL"
	SMTPPassword          = "SMTP_PASSWORD"
	SMTPEnabled           = "SMTP_ENABLED"
	SMTPFromName          = "SMTP_FROM_NAME"
	SupportEmail          = "supportEmail"
	RecaptchaSiteKey      = "recaptchaSiteKey"
	RecaptchaSecretKey    = "recaptchaSecretKey"
	GeminiAPIKey          = "geminiApiKey"
)

// spec describes where a key falls back to when no row is stored.
type spec struct {
	env    string
	def    string
	secret bool
}

var known = map[string]spec{
	PaymentProvider:       {env: "PAYMENT_PROVIDER", def: "razorpay"},
	RazorpayKeyID:         {env: "RAZORPAY_KEY_ID"},
	RazorpaySecretKey:     {env: "RAZORPAY_SECRET_KEY", secret: true},
	RazorpayWebhookSecret: {env: "RAZORPAY_WEBHOOK_SECRET", secret: true},
	StripeSecretKey:       {env: "STRIPE_SECRET_KEY", secret: true},
	StripePublishableKey:  {env: "STRIPE_PUBLISHABLE_KEY"},
	StripeWebhookSecret:   {env: "STRIPE_WEBHOOK_SECRET", secret: true},
	Currency:              {env: "CURRENCY", def: "INR"},
	CloudinaryCloudName:   {env: "CLOUDINARY_CLOUD_NAME"},
	CloudinaryAPIKey:      {env: "CLOUDINARY_API_KEY"},
	CloudinaryAPISecret:   {env: "CLOUDINARY_API_SECRET", secret: true},
	SMTPHost:              {env: "SMTP_HOST", def: "smtp.gmail.com"},
	SMTPPort:              {env: "SMTP_PORT", def: "587"},
	SMTPEmail:             {env: "SMTP_EMAIL"},
	SMTPPassword:          {env: "SMTP_PASSWORD", secret: true},
	SMTPEnabled:           {env: "SMTP_ENABLED", def: "true"},
	SMTPFromName:          {env: "SMTP_FROM_NAME", def: "GoFly Travel Agency"},
	SupportEmail:          {env: "SUPPORT_EMAIL", def: "admin@gofly.com"},
	RecaptchaSiteKey:      {env: "RECAPTCHA_SITE_KEY"},
	RecaptchaSecretKey:    {env: "RECAPTCHA_SECRET_KEY", secret: true},
	GeminiAPIKey:          {env: "GEMINI_API_KEY", secret: true},
}

// IsSecret reports whether the admin view masks key by default.
func IsSecret(key string) bool { return known[key].secret }
