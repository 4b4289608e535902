// Package config provides secure configuration management for the playlist2git application.
//
// This package handles loading configuration from environment variables and .env files
// with built-in security measures to prevent path traversal attacks. It uses the
// github.com/caarlos0/env library for environment variable parsing and
// github.com/joho/godotenv for .env file loading.
//
// The configuration loading follows a priority order:
//  1. Environment variables (highest priority)
//  2. .env file in current working directory
//  3. Default values (if any)
//
// Example usage:
//
//	import "github.com/toozej/playlist2git/pkg/config"
//
//	func main() {
//		conf := config.GetEnvVars()
//		fmt.Printf("Repository: %s\n", conf.Repo.Dir)
//	}
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Batch granularities accepted by RepoConfig.BatchGranularity.
const (
	// GranularityDaily names batches after the current date, one branch per day.
	GranularityDaily = "daily"
	// GranularityRun names batches after the current date and time, one branch per run.
	GranularityRun = "run"
)

// Config represents the main application configuration with nested service configurations.
type Config struct {
	Spotify SpotifyConfig `envPrefix:"SPOTIFY_"`
	GitHub  GitHubConfig  `envPrefix:"GITHUB_"`
	Repo    RepoConfig    `envPrefix:"PLAYLIST_REPO_"`
	Server  ServerConfig  `envPrefix:"SERVER_"`
	Sentry  SentryConfig  `envPrefix:"SENTRY_"`
	Log     LogConfig     `envPrefix:"LOG_"`
}

// SpotifyConfig represents the configuration for Spotify API integration.
//
// This struct contains all the necessary configuration parameters for
// authenticating and reading the user's library from the Spotify API.
type SpotifyConfig struct {
	// ClientID is the Spotify application client ID.
	ClientID string `env:"CLIENT_ID"`

	// ClientSecret is the Spotify application client secret.
	ClientSecret string `env:"CLIENT_SECRET"` // #nosec G117 -- OAuth client secret, expected in config

	// RedirectURL is the callback URL for OAuth authentication.
	RedirectURL string `env:"REDIRECT_URI" envDefault:"http://127.0.0.1:8080/callback"`

	// Username is the Spotify account id the snapshot is expected to belong to.
	// When set, a mismatch with the authenticated account is logged as a warning.
	Username string `env:"USERNAME"`

	// TokenFilePath is the path where the Spotify authentication token is stored.
	// If not specified, defaults to ~/.config/playlist2git/token-info.json
	TokenFilePath string `env:"TOKEN_FILE_PATH" envDefault:"~/.config/playlist2git/token-info.json"`

	// PageSize is the number of items requested per page (Spotify caps this at 50).
	PageSize int `env:"PAGE_SIZE" envDefault:"50"`

	// RequestsPerSecond paces page requests on the client side.
	RequestsPerSecond float64 `env:"REQUESTS_PER_SECOND" envDefault:"5"`

	// SkipInvalidItems logs and skips malformed track items instead of aborting the run.
	SkipInvalidItems bool `env:"SKIP_INVALID_ITEMS" envDefault:"false"`
}

// GitHubConfig represents the configuration for the code-hosting side.
type GitHubConfig struct {
	// AccessToken authenticates pull request calls and HTTPS pushes.
	AccessToken string `env:"ACCESS_TOKEN"` // #nosec G117 -- API token, expected in config

	// RepoID identifies the target repository as "owner/name" or as a numeric id.
	RepoID string `env:"PLAYLIST_REPO_ID"`

	// BaseBranch is the stable integration branch pull requests target.
	BaseBranch string `env:"BASE_BRANCH" envDefault:"master"`

	// APIURL overrides the GitHub API base URL (GitHub Enterprise).
	APIURL string `env:"API_URL"`
}

// RepoConfig represents the local working copy and its origin.
type RepoConfig struct {
	// Dir is the local repository directory the playlist logs are written to.
	Dir string `env:"DIR"`

	// RemoteURL is the URL the origin remote is created with when missing.
	RemoteURL string `env:"REMOTE_URL"`

	// BatchGranularity is either "daily" or "run".
	BatchGranularity string `env:"BATCH_GRANULARITY" envDefault:"daily"`

	// AuthorName and AuthorEmail sign snapshot commits.
	AuthorName  string `env:"AUTHOR_NAME" envDefault:"playlist2git"`
	AuthorEmail string `env:"AUTHOR_EMAIL" envDefault:"playlist2git@users.noreply.github.com"`
}

// ServerConfig represents the temporary OAuth callback server configuration.
type ServerConfig struct {
	Host string `env:"HOST" envDefault:"127.0.0.1"`
	Port int    `env:"PORT" envDefault:"8080"`
}

// SentryConfig represents the optional error-reporting endpoint.
type SentryConfig struct {
	DSN         string `env:"DSN"`
	Environment string `env:"ENVIRONMENT" envDefault:"production"`
}

// LogConfig represents logging output settings.
type LogConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"text"`
}

// GetEnvVars loads and returns the application configuration from environment
// variables and .env files.
//
// The function will terminate the program with os.Exit(1) if any critical
// errors occur during configuration loading, such as:
//   - Current directory access failures
//   - Path traversal attempts detected
//   - .env file parsing errors
//   - Environment variable parsing failures
//   - Configuration validation errors
//
// Example:
//
//	conf := config.GetEnvVars()
//	fmt.Printf("Spotify Client ID: %s\n", conf.Spotify.ClientID)
func GetEnvVars() Config {
	conf, err := Load()
	if err != nil {
		fmt.Printf("Configuration error: %s\n", err)
		fmt.Println("Please check your configuration and try again.")
		os.Exit(1)
	}
	return conf
}

// Load reads the .env file in the current working directory (if any) and parses
// the environment into a Config. Unlike GetEnvVars it only loads and parses;
// commands call Validate once they know which settings they need.
func Load() (Config, error) {
	// Get current working directory for secure file operations
	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, fmt.Errorf("getting current working directory: %w", err)
	}

	// Construct secure path for .env file within current directory
	envPath := filepath.Join(cwd, ".env")

	// Ensure the path is within our expected directory (prevent traversal)
	cleanEnvPath, err := filepath.Abs(envPath)
	if err != nil {
		return Config{}, fmt.Errorf("resolving .env file path: %w", err)
	}
	cleanCwd, err := filepath.Abs(cwd)
	if err != nil {
		return Config{}, fmt.Errorf("resolving current directory: %w", err)
	}
	relPath, err := filepath.Rel(cleanCwd, cleanEnvPath)
	if err != nil || strings.Contains(relPath, "..") {
		return Config{}, ErrEnvPathTraversal
	}

	// Load .env file if it exists
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			return Config{}, fmt.Errorf("loading .env file: %w", err)
		}
	}

	// Parse environment variables into config struct
	var conf Config
	if err := env.Parse(&conf); err != nil {
		return Config{}, fmt.Errorf("parsing configuration from environment: %w", err)
	}

	return conf, nil
}

// Validate checks every setting the sync command depends on and reports all
// problems at once.
func (c Config) Validate() error {
	var problems []string

	if c.Spotify.ClientID == "" {
		problems = append(problems, ErrMissingSpotifyClientID.Error())
	}
	if c.Spotify.ClientSecret == "" {
		problems = append(problems, ErrMissingSpotifyClientSecret.Error())
	}
	if c.Spotify.PageSize < 1 || c.Spotify.PageSize > 50 {
		problems = append(problems, "spotify page size must be between 1 and 50")
	}
	if c.Spotify.RequestsPerSecond <= 0 {
		problems = append(problems, "spotify requests per second must be greater than 0")
	}
	if c.GitHub.AccessToken == "" {
		problems = append(problems, ErrMissingGitHubToken.Error())
	}
	if c.GitHub.RepoID == "" {
		problems = append(problems, ErrMissingGitHubRepo.Error())
	}
	if c.Repo.Dir == "" {
		problems = append(problems, ErrMissingRepoDir.Error())
	}
	if c.Repo.RemoteURL == "" {
		problems = append(problems, ErrMissingRemoteURL.Error())
	}
	switch c.Repo.BatchGranularity {
	case GranularityDaily, GranularityRun:
	default:
		problems = append(problems, fmt.Sprintf("batch granularity must be %q or %q, got %q", GranularityDaily, GranularityRun, c.Repo.BatchGranularity))
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		problems = append(problems, "server port must be between 1 and 65535")
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration errors:\n- %s", strings.Join(problems, "\n- "))
	}

	return nil
}

// Address returns the server address
func (s ServerConfig) Address() string {
	if s.Host == "" {
		s.Host = "127.0.0.1"
	}
	if s.Port == 0 {
		s.Port = 8080
	}
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// GetTokenFilePath returns the resolved token file path, handling tilde expansion
// and ensuring the directory exists.
func (s SpotifyConfig) GetTokenFilePath() (string, error) {
	tokenPath := s.TokenFilePath
	if tokenPath == "" {
		return "", ErrMissingTokenFilePath
	}

	// Handle tilde expansion
	if strings.HasPrefix(tokenPath, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get user home directory: %w", err)
		}
		tokenPath = filepath.Join(homeDir, tokenPath[2:])
	}

	// Convert to absolute path
	absPath, err := filepath.Abs(tokenPath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	// Ensure the directory exists
	tokenDir := filepath.Dir(absPath)
	if err := os.MkdirAll(tokenDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create token directory %s: %w", tokenDir, err)
	}

	return absPath, nil
}
