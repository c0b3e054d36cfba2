package settings

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, rdb
}

func TestResolver_Precedence(t *testing.T) {
	store := NewMemoryStore(map[string]any{
		Currency:     "usd",
		SupportEmail: "",
	})
	r := NewResolver(store, nil, time.Minute)
	r.getenv = func(k string) string {
		switch k {
		case "CURRENCY":
			return "EUR"
		case "SUPPORT_EMAIL":
			return "ops@example.com"
		}
		return ""
	}
	ctx := context.Background()

	assert.Equal(t, "USD", r.Currency(ctx), "row wins over env")
	assert.Equal(t, "ops@example.com", r.SupportEmail(ctx), "empty row falls back to env")
	assert.Equal(t, "razorpay", r.Provider(ctx), "default when neither is set")
}

func TestResolver_RazorpayWebhookSecretFallsBack(t *testing.T) {
	r := NewResolver(NewMemoryStore(map[string]any{
		RazorpayKeyID:     "rzp_test",
		RazorpaySecretKey: "shh",
	}), nil, 0)
	r.getenv = func(string) string { return "" }

	c := r.Razorpay(context.Background())
	assert.True(t, c.Configured())
	assert.Equal(t, "shh", c.WebhookSecret)
}

func TestResolver_SMTPTyped(t *testing.T) {
	r := NewResolver(NewMemoryStore(map[string]any{
		SMTPPort:    465,
		SMTPEnabled: false,
	}), nil, 0)
	r.getenv = func(string) string { return "" }

	c := r.SMTP(context.Background())
	assert.Equal(t, 465, c.Port)
	assert.False(t, c.Enabled)
	assert.Equal(t, "smtp.gmail.com", c.Host)
	assert.Equal(t, "GoFly Travel Agency", c.FromName)
}

func TestResolver_CachesAndInvalidates(t *testing.T) {
	mr, rdb := newRedis(t)
	store := NewMemoryStore(map[string]any{Currency: "INR"})
	r := NewResolver(store, rdb, time.Minute)
	r.getenv = func(string) string { return "" }
	ctx := context.Background()

	assert.Equal(t, "INR", r.Currency(ctx))
	assert.Equal(t, "INR", r.Currency(ctx))
	assert.Equal(t, 1, store.Reads, "second lookup is served from redis")
	assert.True(t, mr.Exists(CacheKey))

	require.NoError(t, r.Save(ctx, map[string]any{Currency: "USD"}))
	assert.False(t, mr.Exists(CacheKey), "write drops the cache")
	assert.Equal(t, "USD", r.Currency(ctx))

	mr.FastForward(2 * time.Minute)
	assert.False(t, mr.Exists(CacheKey))
}

func TestResolver_SaveCoercesTypes(t *testing.T) {
	store := NewMemoryStore(nil)
	r := NewResolver(store, nil, 0)
	ctx := context.Background()

	require.NoError(t, r.Save(ctx, map[string]any{
		SMTPEnabled: "false",
		SMTPPort:    "2525",
		"featureX":  "true",
	}))
	stored, err := r.Stored(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, false, stored[SMTPEnabled])
	assert.Equal(t, float64(2525), stored[SMTPPort])
	assert.Equal(t, true, stored["featureX"])

	assert.ErrorIs(t, r.Save(ctx, map[string]any{SMTPPort: "abc"}), ErrInvalidValue)
}

func TestResolver_StoredMasksSecrets(t *testing.T) {
	r := NewResolver(NewMemoryStore(map[string]any{
		RazorpaySecretKey: "abcdefgh1234",
		RazorpayKeyID:     "rzp_live_x",
	}), nil, 0)

	masked, err := r.Stored(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, "********1234", masked[RazorpaySecretKey])
	assert.Equal(t, "rzp_live_x", masked[RazorpayKeyID])

	revealed, err := r.Stored(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, "abcdefgh1234", revealed[RazorpaySecretKey])
}

func TestResolver_SaveKeepsSecretsPostedBackMasked(t *testing.T) {
	r := NewResolver(NewMemoryStore(map[string]any{
		RazorpaySecretKey:   "abcdefghijklmn1234",
		StripeSecretKey:     "sk_live_old",
		CloudinaryAPISecret: "cloud_secret",
	}), nil, 0)
	ctx := context.Background()

	shown, err := r.Stored(ctx, false)
	require.NoError(t, err)
	shown[StripeSecretKey] = "sk_live_new"
	shown[Currency] = "usd"
	require.NoError(t, r.Save(ctx, shown))

	got, err := r.Stored(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, "abcdefghijklmn1234", got[RazorpaySecretKey])
	assert.Equal(t, "cloud_secret", got[CloudinaryAPISecret])
	assert.Equal(t, "sk_live_new", got[StripeSecretKey])
	assert.Equal(t, "usd", got[Currency])
}
