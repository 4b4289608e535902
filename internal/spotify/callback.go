package spotify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

type callbackResult struct {
	token *oauth2.Token
	err   error
}

// authorizeInteractive runs the authorization code flow: it prints the
// authorization URL and waits for Spotify to redirect back to a temporary
// local server.
func (c *Client) authorizeInteractive(ctx context.Context) (*oauth2.Token, error) {
	state := uuid.NewString()
	authURL := c.auth.AuthURL(state)

	c.logger.WithField("auth_url", authURL).Info("Please visit this URL to authenticate with Spotify")
	fmt.Printf("\n🔐 Spotify Authentication Required\n")
	fmt.Printf("Please visit this URL to authenticate:\n%s\n\n", authURL)
	fmt.Printf("Waiting for authentication... (Press Ctrl+C to cancel)\n")

	results := make(chan callbackResult, 1)

	mux := http.NewServeMux()
	mux.Handle(callbackPath(c.config.RedirectURL), c.callbackHandler(state, results))

	server := &http.Server{
		Addr:              c.callbackAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second, // Prevent Slowloris attacks
	}

	go func() {
		c.logger.WithField("address", c.callbackAddr).Info("Starting temporary server for OAuth callback")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			deliver(results, callbackResult{err: fmt.Errorf("callback server error: %w", err)})
		}
	}()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			c.logger.WithError(err).Warn("Error shutting down authentication server")
		}
	}()

	select {
	case res := <-results:
		return res.token, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(c.authTimeout):
		return nil, fmt.Errorf("authentication timeout after %s", c.authTimeout)
	}
}

// callbackHandler handles the OAuth redirect from Spotify and exchanges the
// authorization code. Only the first outcome is delivered.
func (c *Client) callbackHandler(state string, results chan<- callbackResult) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		if errorParam := query.Get("error"); errorParam != "" {
			c.logger.WithField("error", errorParam).Error("Spotify authentication error")
			http.Error(w, "Authentication failed: "+errorParam, http.StatusBadRequest)
			deliver(results, callbackResult{err: fmt.Errorf("spotify authentication error: %s", errorParam)})
			return
		}

		if query.Get("state") != state {
			c.logger.Error("OAuth state mismatch")
			http.Error(w, "State mismatch", http.StatusBadRequest)
			deliver(results, callbackResult{err: fmt.Errorf("invalid state parameter")})
			return
		}

		code := query.Get("code")
		if code == "" {
			c.logger.Error("No authorization code received")
			http.Error(w, "No authorization code received", http.StatusBadRequest)
			deliver(results, callbackResult{err: fmt.Errorf("no authorization code received")})
			return
		}

		token, err := c.auth.Exchange(r.Context(), code)
		if err != nil {
			c.logger.WithError(err).Error("Failed to exchange authorization code")
			http.Error(w, "Authentication failed", http.StatusInternalServerError)
			deliver(results, callbackResult{err: fmt.Errorf("failed to exchange code for token: %w", err)})
			return
		}

		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(successHTML)); err != nil {
			c.logger.WithError(err).Warn("Failed to write success response")
		}

		c.logger.WithFields(logrus.Fields{"component": "spotify"}).Info("Spotify authentication completed successfully via callback")
		deliver(results, callbackResult{token: token})
	})
}

// deliver sends res unless a result is already pending.
func deliver(results chan<- callbackResult, res callbackResult) {
	select {
	case results <- res:
	default:
	}
}

// callbackPath extracts the path Spotify redirects to.
func callbackPath(redirectURL string) string {
	u, err := url.Parse(redirectURL)
	if err != nil || u.Path == "" {
		return "/callback"
	}
	return u.Path
}

const successHTML = `
<!DOCTYPE html>
<html>
<head>
	<title>Authentication Successful</title>
	<style>
		body { font-family: Arial, sans-serif; text-align: center; padding: 50px; }
		.success { color: #28a745; font-size: 24px; margin-bottom: 20px; }
		.message { color: #6c757d; font-size: 16px; }
	</style>
</head>
<body>
	<div class="success">✅ Authentication Successful!</div>
	<div class="message">You can now close this window and return to the terminal.</div>
</body>
</html>
`
