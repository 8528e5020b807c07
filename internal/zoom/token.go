package zoom

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// DefaultTokenURL is the Zoom OAuth token endpoint.
const DefaultTokenURL = "https://zoom.us/oauth/token"

// Credentials holds the server-to-server OAuth credential triple for a
// Zoom account.
type Credentials struct {
	// ClientID is the OAuth client id
	ClientID string

	// ClientSecret is the OAuth client secret
	ClientSecret string

	// AccountID is the Zoom account id for the account_credentials grant
	AccountID string

	// TokenURL overrides the token endpoint. Empty means DefaultTokenURL.
	TokenURL string
}

// NewTokenSource returns a caching token source for the Zoom
// account_credentials grant. The token is fetched on first use and re-fetched
// only once the cached one expires, so a run performs a single token exchange
// instead of one per API call.
//
// Zoom's account_credentials grant is not expressible with
// oauth2/clientcredentials (the grant_type cannot be overridden), so the
// exchange is implemented directly and wrapped in oauth2.ReuseTokenSource
// for the expiry-based caching.
func NewTokenSource(ctx context.Context, creds Credentials) oauth2.TokenSource {
	return oauth2.ReuseTokenSource(nil, &accountTokenSource{
		ctx:   ctx,
		creds: creds,
	})
}

// accountTokenSource performs the account_credentials token exchange.
type accountTokenSource struct {
	ctx   context.Context
	creds Credentials
}

// tokenResponse is the Zoom token endpoint response body.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Token implements oauth2.TokenSource. Failures are reported as *AuthError.
func (s *accountTokenSource) Token() (*oauth2.Token, error) {
	endpoint := s.creds.TokenURL
	if endpoint == "" {
		endpoint = DefaultTokenURL
	}

	form := url.Values{
		"grant_type": {"account_credentials"},
		"account_id": {s.creds.AccountID},
	}

	req, err := http.NewRequestWithContext(s.ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &AuthError{Err: fmt.Errorf("failed to build token request: %w", err)}
	}
	req.SetBasicAuth(s.creds.ClientID, s.creds.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, &AuthError{Err: fmt.Errorf("token request failed: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &AuthError{Err: fmt.Errorf("token endpoint returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))}
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, &AuthError{Err: fmt.Errorf("failed to decode token response: %w", err)}
	}
	if tr.AccessToken == "" {
		return nil, &AuthError{Err: fmt.Errorf("token endpoint returned an empty access token")}
	}

	token := &oauth2.Token{
		AccessToken: tr.AccessToken,
		TokenType:   tr.TokenType,
	}
	if token.TokenType == "" {
		token.TokenType = "Bearer"
	}
	if tr.ExpiresIn > 0 {
		token.Expiry = time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	}

	return token, nil
}
