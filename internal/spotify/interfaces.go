package spotify

import (
	"context"
	"errors"
	"net/http"

	"golang.org/x/oauth2"
)

var (
	// ErrCredential marks failures to obtain or validate an access token.
	ErrCredential = errors.New("spotify credential error")

	// ErrNotConnected is returned when the library is read before Connect.
	ErrNotConnected = errors.New("spotify client not connected")
)

// Authenticator is the OAuth surface the client needs. It is satisfied by
// *spotifyauth.Authenticator.
type Authenticator interface {
	AuthURL(state string, opts ...oauth2.AuthCodeOption) string
	Exchange(ctx context.Context, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error)
	RefreshToken(ctx context.Context, token *oauth2.Token) (*oauth2.Token, error)
	Client(ctx context.Context, token *oauth2.Token) *http.Client
}

// User is the authenticated Spotify account.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}
