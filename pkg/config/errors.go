// Package config provides error definitions for configuration-related errors.
package config

import "errors"

// Configuration validation errors
var (
	// ErrMissingSpotifyClientID is returned when Spotify Client ID is not provided
	ErrMissingSpotifyClientID = errors.New("spotify client ID is required")

	// ErrMissingSpotifyClientSecret is returned when Spotify Client Secret is not provided
	ErrMissingSpotifyClientSecret = errors.New("spotify client secret is required")

	// ErrMissingTokenFilePath is returned when no token cache location is configured
	ErrMissingTokenFilePath = errors.New("spotify token file path is required")

	// ErrMissingGitHubToken is returned when the GitHub access token is not provided
	ErrMissingGitHubToken = errors.New("github access token is required")

	// ErrMissingGitHubRepo is returned when the target GitHub repository is not provided
	ErrMissingGitHubRepo = errors.New("github playlist repository id is required")

	// ErrMissingRepoDir is returned when the local repository directory is not provided
	ErrMissingRepoDir = errors.New("playlist repository directory is required")

	// ErrMissingRemoteURL is returned when the origin remote URL is not provided
	ErrMissingRemoteURL = errors.New("playlist repository remote URL is required")

	// ErrEnvPathTraversal is returned when the .env path escapes the working directory
	ErrEnvPathTraversal = errors.New(".env file path traversal detected")
)
