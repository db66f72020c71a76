// Package oauth verifies third-party identity tokens.
package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// DefaultTokenInfoURL is Google's ID token introspection endpoint.
const DefaultTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"

// ErrInvalidCredential is returned for every rejected credential, whatever the cause.
var ErrInvalidCredential = errors.New("invalid google credential")

// Identity is the verified subset of a Google ID token.
type Identity struct {
	Email      string
	Name       string
	ExternalID string
}

type tokenInfo struct {
	Aud   string `json:"aud"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Sub   string `json:"sub"`
}

// GoogleVerifier validates Google ID tokens against the tokeninfo endpoint and
// checks that they were issued for this application's client ID.
type GoogleVerifier struct {
	clientID     string
	tokenInfoURL string
	client       *http.Client
}

// NewGoogleVerifier creates a GoogleVerifier. An empty clientID disables
// verification: every credential is rejected.
func NewGoogleVerifier(clientID, tokenInfoURL string, client *http.Client) *GoogleVerifier {
	if tokenInfoURL == "" {
		tokenInfoURL = DefaultTokenInfoURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &GoogleVerifier{
		clientID:     clientID,
		tokenInfoURL: tokenInfoURL,
		client:       client,
	}
}

// Enabled reports whether a client ID is configured.
func (v *GoogleVerifier) Enabled() bool {
	return v.clientID != ""
}

// Verify introspects credential. Network failures, timeouts, non-200 responses,
// undecodable bodies and audience mismatches all yield ErrInvalidCredential.
func (v *GoogleVerifier) Verify(ctx context.Context, credential string) (Identity, error) {
	if !v.Enabled() || credential == "" {
		return Identity{}, ErrInvalidCredential
	}

	endpoint, err := url.Parse(v.tokenInfoURL)
	if err != nil {
		slog.ErrorContext(ctx, "invalid tokeninfo url", "error", err)
		return Identity{}, ErrInvalidCredential
	}
	q := endpoint.Query()
	q.Set("id_token", credential)
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return Identity{}, ErrInvalidCredential
	}

	resp, err := v.client.Do(req)
	if err != nil {
		slog.WarnContext(ctx, "tokeninfo request failed", "error", err)
		return Identity{}, ErrInvalidCredential
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return Identity{}, ErrInvalidCredential
	}

	var info tokenInfo
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&info); err != nil {
		return Identity{}, ErrInvalidCredential
	}

	// A token minted for another application must not log anyone in here.
	if info.Aud != v.clientID {
		return Identity{}, ErrInvalidCredential
	}
	if info.Sub == "" || info.Email == "" {
		return Identity{}, ErrInvalidCredential
	}

	name := strings.TrimSpace(info.Name)
	if name == "" {
		name = info.Email
	}

	return Identity{
		Email:      info.Email,
		Name:       name,
		ExternalID: info.Sub,
	}, nil
}
