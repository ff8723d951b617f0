// Package auth verifies Google sign-in tokens and issues the service's own
// session JWTs.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const googleTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"

var (
	ErrInvalidIDToken   = errors.New("invalid ID token")
	ErrAudienceMismatch = errors.New("token audience does not match client ID")
)

// GoogleClaims is the identity asserted by a verified Google ID token.
type GoogleClaims struct {
	Sub     string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// GoogleVerifier checks ID tokens against Google's tokeninfo endpoint. The
// identity provider is an external collaborator; this adapter only covers its
// interface boundary. Endpoint is overridable for tests.
type GoogleVerifier struct {
	ClientID string
	Endpoint string
	Client   *http.Client
}

// NewGoogleVerifier creates a verifier for the given OAuth client ID.
func NewGoogleVerifier(clientID string) *GoogleVerifier {
	return &GoogleVerifier{
		ClientID: clientID,
		Endpoint: googleTokenInfoURL,
		Client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Verify validates an ID token and returns the identity it asserts. Any
// failure (network, non-200, audience mismatch) yields an error; callers map
// it to 401.
func (v *GoogleVerifier) Verify(ctx context.Context, idToken string) (GoogleClaims, error) {
	if idToken == "" {
		return GoogleClaims{}, ErrInvalidIDToken
	}

	u, err := url.Parse(v.Endpoint)
	if err != nil {
		return GoogleClaims{}, fmt.Errorf("token verification endpoint: %w", err)
	}
	q := u.Query()
	q.Set("id_token", idToken)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return GoogleClaims{}, fmt.Errorf("create verification request: %w", err)
	}

	resp, err := v.Client.Do(req)
	if err != nil {
		return GoogleClaims{}, fmt.Errorf("token verification request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return GoogleClaims{}, fmt.Errorf("%w: HTTP %d", ErrInvalidIDToken, resp.StatusCode)
	}

	var payload struct {
		Aud     string `json:"aud"`
		Sub     string `json:"sub"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return GoogleClaims{}, fmt.Errorf("parse verification response: %w", err)
	}
	if payload.Aud != v.ClientID {
		return GoogleClaims{}, ErrAudienceMismatch
	}
	if payload.Sub == "" {
		return GoogleClaims{}, ErrInvalidIDToken
	}

	return GoogleClaims{
		Sub:     payload.Sub,
		Email:   payload.Email,
		Name:    payload.Name,
		Picture: payload.Picture,
	}, nil
}
