// Package main provides the entry point for the playlist2git application.
//
// playlist2git snapshots a Spotify account's playlists into a git repository
// and publishes each batch through an automatically merged pull request.
package main

import cmd "github.com/toozej/playlist2git/cmd/playlist2git"

// main is the entry point of the playlist2git application.
// It delegates execution to the cmd package which handles all
// command-line interface functionality.
func main() {
	cmd.Execute()
}
