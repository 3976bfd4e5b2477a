// Package captcha verifies reCAPTCHA response tokens server-side.
package captcha

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// VerifyURL is the reCAPTCHA siteverify endpoint.
	VerifyURL     = "https://www.google.com/recaptcha/api/siteverify"
	verifyTimeout = 10 * time.Second
)

var (
	// ErrMissing is returned when no response token was submitted.
	ErrMissing = errors.New("captcha response missing")
	// ErrRejected is returned when the provider did not accept the token.
	ErrRejected = errors.New("captcha rejected")
)

// Verifier checks a captcha response token.
type Verifier interface {
	Verify(ctx context.Context, token, remoteIP string) error
}

// VerifyResponse is the siteverify reply.
type VerifyResponse struct {
	Success     bool     `json:"success"`
	ChallengeTS string   `json:"challenge_ts"`
	Hostname    string   `json:"hostname"`
	ErrorCodes  []string `json:"error-codes"`
}

// Recaptcha verifies tokens against the siteverify API.
type Recaptcha struct {
	secret   string
	endpoint string
	client   *http.Client
}

// NewRecaptcha returns a verifier for secret. An empty endpoint uses VerifyURL.
func NewRecaptcha(secret, endpoint string, client *http.Client) *Recaptcha {
	if endpoint == "" {
		endpoint = VerifyURL
	}
	if client == nil {
		client = &http.Client{Timeout: verifyTimeout}
	}
	return &Recaptcha{secret: secret, endpoint: endpoint, client: client}
}

func (r *Recaptcha) Verify(ctx context.Context, token, remoteIP string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrMissing
	}

	form := url.Values{}
	form.Set("secret", r.secret)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("captcha verification request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("captcha verification returned status %d", resp.StatusCode)
	}

	var result VerifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to parse captcha response: %w", err)
	}
	if !result.Success {
		return fmt.Errorf("%w: %s", ErrRejected, strings.Join(result.ErrorCodes, ","))
	}
	return nil
}
