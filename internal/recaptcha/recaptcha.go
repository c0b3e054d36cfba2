// Package recaptcha verifies reCAPTCHA v3 tokens.
package recaptcha

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/iliyamo/travel-agency-booking/internal/settings"
)

const verifyURL = "https://www.google.com/recaptcha/api/siteverify"

// MinScore is the lowest v3 score accepted as human.
const MinScore = 0.5

var ErrNotConfigured = errors.New("recaptcha not configured")

// Result is the siteverify answer.
type Result struct {
	Success    bool     `json:"success"`
	Score      float64  `json:"score"`
	Action     string   `json:"action"`
	ErrorCodes []string `json:"error-codes,omitempty"`
}

// Human reports whether the token passed and scored at least MinScore.
func (r Result) Human() bool { return r.Success && r.Score >= MinScore }

type Verifier struct {
	settings *settings.Resolver
	client   *http.Client
	endpoint string
}

func NewVerifier(s *settings.Resolver) *Verifier {
	return &Verifier{settings: s, client: &http.Client{Timeout: 10 * time.Second}, endpoint: verifyURL}
}

// WithEndpoint overrides the siteverify URL; used by tests.
func (v *Verifier) WithEndpoint(u string) *Verifier {
	v.endpoint = u
	return v
}

// SiteKey is the public key the frontend renders the widget with.
func (v *Verifier) SiteKey(ctx context.Context) string {
	return v.settings.Recaptcha(ctx).SiteKey
}

// Configured reports whether a secret key is available.
func (v *Verifier) Configured(ctx context.Context) bool {
	return v.settings.Recaptcha(ctx).SecretKey != ""
}

// Verify posts token to siteverify.  Transport failures are returned as
// errors; a rejected token is a Result with Success false.
func (v *Verifier) Verify(ctx context.Context, token, remoteIP string) (*Result, error) {
	secret := v.settings.Recaptcha(ctx).SecretKey
	if secret == "" {
		return nil, ErrNotConfigured
	}
	form := url.Values{"secret": {secret}, "response": {token}}
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("siteverify: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("siteverify: status %d", resp.StatusCode)
	}
	var res Result
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, fmt.Errorf("siteverify decode: %w", err)
	}
	return &res, nil
}
