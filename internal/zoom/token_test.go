package zoom

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTokenServer(t *testing.T, calls *int32) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)

		user, pass, ok := r.BasicAuth()
		if !ok || user != "cid" || pass != "csecret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if err := r.ParseForm(); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if r.Form.Get("grant_type") != "account_credentials" || r.Form.Get("account_id") != "acct" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok-1","token_type":"bearer","expires_in":3600}`))
	}))
}

func TestTokenSourceExchange(t *testing.T) {
	var calls int32
	server := newTokenServer(t, &calls)
	defer server.Close()

	ts := NewTokenSource(context.Background(), Credentials{
		ClientID:     "cid",
		ClientSecret: "csecret",
		AccountID:    "acct",
		TokenURL:     server.URL,
	})

	token, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token.AccessToken)
	assert.True(t, token.Valid())
}

func TestTokenSourceCachesUntilExpiry(t *testing.T) {
	var calls int32
	server := newTokenServer(t, &calls)
	defer server.Close()

	ts := NewTokenSource(context.Background(), Credentials{
		ClientID:     "cid",
		ClientSecret: "csecret",
		AccountID:    "acct",
		TokenURL:     server.URL,
	})

	for i := 0; i < 5; i++ {
		_, err := ts.Token()
		require.NoError(t, err)
	}

	// One exchange per run, not one per call.
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestTokenSourceBadCredentials(t *testing.T) {
	var calls int32
	server := newTokenServer(t, &calls)
	defer server.Close()

	ts := NewTokenSource(context.Background(), Credentials{
		ClientID:     "cid",
		ClientSecret: "wrong",
		AccountID:    "acct",
		TokenURL:     server.URL,
	})

	_, err := ts.Token()
	require.Error(t, err)

	var authErr *AuthError
	assert.True(t, errors.As(err, &authErr), "expected *AuthError, got %T", err)
}

func TestTokenSourceUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	ts := NewTokenSource(context.Background(), Credentials{
		ClientID:     "cid",
		ClientSecret: "csecret",
		AccountID:    "acct",
		TokenURL:     url,
	})

	_, err := ts.Token()
	var authErr *AuthError
	assert.True(t, errors.As(err, &authErr), "expected *AuthError, got %T", err)
}

func TestTokenSourceEmptyToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token_type":"bearer","expires_in":3600}`))
	}))
	defer server.Close()

	ts := NewTokenSource(context.Background(), Credentials{
		ClientID:     "cid",
		ClientSecret: "csecret",
		AccountID:    "acct",
		TokenURL:     server.URL,
	})

	_, err := ts.Token()
	var authErr *AuthError
	assert.True(t, errors.As(err, &authErr), "expected *AuthError, got %T", err)
}
