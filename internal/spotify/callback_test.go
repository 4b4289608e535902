package spotify

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestCallbackHandler(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		exchErr    error
		wantStatus int
		wantErr    string
		wantToken  bool
	}{
		{
			name:       "successful exchange",
			query:      "?state=expected&code=abc",
			wantStatus: http.StatusOK,
			wantToken:  true,
		},
		{
			name:       "state mismatch",
			query:      "?state=forged&code=abc",
			wantStatus: http.StatusBadRequest,
			wantErr:    "invalid state parameter",
		},
		{
			name:       "authorization denied",
			query:      "?error=access_denied&state=expected",
			wantStatus: http.StatusBadRequest,
			wantErr:    "access_denied",
		},
		{
			name:       "missing code",
			query:      "?state=expected",
			wantStatus: http.StatusBadRequest,
			wantErr:    "no authorization code",
		},
		{
			name:       "exchange failure",
			query:      "?state=expected&code=abc",
			exchErr:    errors.New("invalid_client"),
			wantStatus: http.StatusInternalServerError,
			wantErr:    "invalid_client",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := &fakeAuth{exchanged: &oauth2.Token{AccessToken: "granted"}, exchErr: tt.exchErr}
			client, err := NewClient(testConfig(t), quietLogger(), WithAuthenticator(auth))
			require.NoError(t, err)

			results := make(chan callbackResult, 1)
			handler := client.callbackHandler("expected", results)

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback"+tt.query, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)

			require.Len(t, results, 1)
			res := <-results
			if tt.wantToken {
				require.NoError(t, res.err)
				assert.Equal(t, "granted", res.token.AccessToken)
				assert.Equal(t, "abc", auth.lastCode)
				assert.Contains(t, rec.Body.String(), "Authentication Successful")
				return
			}
			require.Error(t, res.err)
			assert.Contains(t, res.err.Error(), tt.wantErr)
			assert.Nil(t, res.token)
		})
	}
}

func TestCallbackHandlerDeliversOnce(t *testing.T) {
	auth := &fakeAuth{exchanged: &oauth2.Token{AccessToken: "first"}}
	client, err := NewClient(testConfig(t), quietLogger(), WithAuthenticator(auth))
	require.NoError(t, err)

	results := make(chan callbackResult, 1)
	handler := client.callbackHandler("s", results)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/callback?state=s&code=1", nil))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/callback?state=bad", nil))

	require.Len(t, results, 1)
	res := <-results
	assert.NoError(t, res.err)
	assert.Equal(t, "first", res.token.AccessToken)
}

func TestCallbackPath(t *testing.T) {
	assert.Equal(t, "/callback", callbackPath("http://127.0.0.1:8080/callback"))
	assert.Equal(t, "/oauth/done", callbackPath("http://localhost:9000/oauth/done"))
	assert.Equal(t, "/callback", callbackPath("http://localhost:9000"))
	assert.Equal(t, "/callback", callbackPath("://bad"))
}
