package recaptcha

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/travel-agency-booking/internal/settings"
)

func verifier(t *testing.T, body string) *Verifier {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "server-secret", r.PostForm.Get("secret"))
		assert.Equal(t, "tok", r.PostForm.Get("response"))
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	s := settings.NewResolver(settings.NewMemoryStore(map[string]any{
		settings.RecaptchaSecretKey: "server-secret",
		settings.RecaptchaSiteKey:   "site",
	}), nil, 0)
	return NewVerifier(s).WithEndpoint(srv.URL)
}

func TestVerify_Scores(t *testing.T) {
	cases := []struct {
		name  string
		body  string
		human bool
	}{
		{"high score", `{"success":true,"score":0.9,"action":"contact"}`, true},
		{"threshold", `{"success":true,"score":0.5}`, true},
		{"low score", `{"success":true,"score":0.3}`, false},
		{"failed", `{"success":false,"error-codes":["invalid-input-response"]}`, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := verifier(t, tc.body).Verify(context.Background(), "tok", "")
			require.NoError(t, err)
			assert.Equal(t, tc.human, res.Human())
		})
	}
}

func TestVerify_NotConfigured(t *testing.T) {
	t.Setenv("RECAPTCHA_SECRET_KEY", "")
	v := NewVerifier(settings.NewResolver(settings.NewMemoryStore(nil), nil, 0))
	assert.False(t, v.Configured(context.Background()))
	_, err := v.Verify(context.Background(), "tok", "")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestVerify_TransportError(t *testing.T) {
	v := verifier(t, "")
	v.WithEndpoint("http://127.0.0.1:1/siteverify")
	_, err := v.Verify(context.Background(), "tok", "")
	assert.Error(t, err)
}
