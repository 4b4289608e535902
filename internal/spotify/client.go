// Package spotify reads a user's playlists and saved tracks from the Spotify
// Web API.
//
// Client owns the whole credential lifecycle (cached token refresh or the
// interactive authorization code flow, token persistence, validation against
// the current-user endpoint) and the paginated collection fetch that fills
// playlist.Playlist models.
package spotify

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/toozej/playlist2git/pkg/config"
)

const defaultAuthTimeout = 5 * time.Minute

// Client wraps the Spotify client with authentication and configuration
type Client struct {
	api          *spotify.Client
	apiOptions   []spotify.ClientOption
	auth         Authenticator
	config       config.SpotifyConfig
	logger       *logrus.Logger
	limiter      *rate.Limiter
	tokenFile    string
	callbackAddr string
	authTimeout  time.Duration
	authorize    func(ctx context.Context) (*oauth2.Token, error)
	user         *User
}

// Option customizes a Client.
type Option func(*Client)

// WithAuthenticator replaces the spotifyauth authenticator.
func WithAuthenticator(auth Authenticator) Option {
	return func(c *Client) { c.auth = auth }
}

// WithAPIOptions passes options to the underlying spotify.Client, such as
// spotify.WithBaseURL.
func WithAPIOptions(opts ...spotify.ClientOption) Option {
	return func(c *Client) { c.apiOptions = append(c.apiOptions, opts...) }
}

// WithCallbackAddress sets the listen address of the temporary OAuth callback server.
func WithCallbackAddress(addr string) Option {
	return func(c *Client) { c.callbackAddr = addr }
}

// WithAuthTimeout bounds how long the interactive flow waits for the callback.
func WithAuthTimeout(d time.Duration) Option {
	return func(c *Client) { c.authTimeout = d }
}

// WithAuthorizer replaces the interactive authorization code flow.
func WithAuthorizer(authorize func(ctx context.Context) (*oauth2.Token, error)) Option {
	return func(c *Client) { c.authorize = authorize }
}

// NewClient creates a new Spotify client. No network call is made until Connect.
func NewClient(cfg config.SpotifyConfig, logger *logrus.Logger, opts ...Option) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("%w: spotify client ID and secret are required", ErrCredential)
	}

	tokenFile, err := cfg.GetTokenFilePath()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCredential, err)
	}

	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}

	c := &Client{
		config:       cfg,
		logger:       logger,
		limiter:      rate.NewLimiter(rate.Limit(rps), 1),
		tokenFile:    tokenFile,
		callbackAddr: "127.0.0.1:8080",
		authTimeout:  defaultAuthTimeout,
	}
	c.authorize = c.authorizeInteractive

	for _, opt := range opts {
		opt(c)
	}

	if c.auth == nil {
		c.auth = spotifyauth.New(
			spotifyauth.WithRedirectURL(cfg.RedirectURL),
			spotifyauth.WithScopes(
				spotifyauth.ScopePlaylistReadPrivate,
				spotifyauth.ScopePlaylistReadCollaborative,
				spotifyauth.ScopeUserLibraryRead,
			),
			spotifyauth.WithClientID(cfg.ClientID),
			spotifyauth.WithClientSecret(cfg.ClientSecret),
		)
	}

	return c, nil
}

// Connect acquires an access token and confirms it by fetching the current
// user. A cached token is refreshed with its refresh token; without a cache
// the interactive authorization flow runs. The resulting token is persisted
// for the next run. Every failure wraps ErrCredential.
func (c *Client) Connect(ctx context.Context) (*User, error) {
	log := c.logger.WithFields(logrus.Fields{
		"component": "spotify",
		"operation": "connect",
	})
	log.Info("Authenticating via OAuth")

	cached, err := c.loadToken()
	if err != nil {
		log.WithError(err).Error("Could not read cached token")
		return nil, fmt.Errorf("%w: %w", ErrCredential, err)
	}

	var token *oauth2.Token
	if cached != nil {
		log.WithField("token_file", c.tokenFile).Debug("Refreshing cached token")
		token, err = c.refresh(ctx, cached)
		if err != nil {
			log.WithError(err).Error("Could not refresh access token")
			return nil, fmt.Errorf("%w: refreshing cached token: %w", ErrCredential, err)
		}
	} else {
		log.WithField("token_file", c.tokenFile).Info("No cached token, starting authorization flow")
		token, err = c.authorize(ctx)
		if err != nil {
			log.WithError(err).Error("Could not get access token")
			return nil, fmt.Errorf("%w: authorizing: %w", ErrCredential, err)
		}
	}

	if err := c.saveToken(token); err != nil {
		log.WithError(err).Warn("Failed to save authentication token, will require re-authentication next time")
	} else {
		log.WithField("token_file", c.tokenFile).Debug("💾 Authentication token saved")
	}

	c.api = spotify.New(c.auth.Client(ctx, token), c.apiOptions...)

	current, err := c.api.CurrentUser(ctx)
	if err != nil {
		log.WithError(err).Error("Could not retrieve current user")
		return nil, fmt.Errorf("%w: fetching current user: %w", ErrCredential, err)
	}

	c.user = &User{ID: current.ID, DisplayName: current.DisplayName}

	if c.config.Username != "" && c.config.Username != c.user.ID {
		log.WithFields(logrus.Fields{
			"expected_user": c.config.Username,
			"user_id":       c.user.ID,
		}).Warn("Authenticated account differs from configured username")
	}

	log.WithFields(logrus.Fields{
		"user_id":           c.user.ID,
		"user_display_name": c.user.DisplayName,
	}).Info("Authentication verified successfully")

	return c.user, nil
}

// User returns the account resolved by Connect, or nil before it.
func (c *Client) User() *User {
	return c.user
}

// refresh exchanges the refresh token of cached for a new access token.
// The cached expiry is ignored so the refresh token is always exercised.
func (c *Client) refresh(ctx context.Context, cached *oauth2.Token) (*oauth2.Token, error) {
	if cached.RefreshToken == "" {
		return nil, fmt.Errorf("cached token has no refresh token")
	}
	expired := *cached
	expired.Expiry = time.Now().Add(-time.Minute)

	refreshed, err := c.auth.RefreshToken(ctx, &expired)
	if err != nil {
		return nil, err
	}
	token := *refreshed
	if token.RefreshToken == "" {
		// Spotify may omit the refresh token when it is unchanged.
		token.RefreshToken = cached.RefreshToken
	}
	return &token, nil
}
