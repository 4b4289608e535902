// Package cmd provides the search command implementation for playlist2git.
package cmd

import (
	"fmt"
	"io"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/toozej/playlist2git/internal/search"
)

// newSearchCmd creates the search command for finding tracks in the playlist logs.
func newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search for tracks in the playlist logs",
		Long: `Search the playlist logs of the local playlist repository using fuzzy matching.
Matches are ranked by fuzzy score and show the playlist each track belongs to.`,
		Args: cobra.ExactArgs(1),
		Run:  runSearch,
	}

	cmd.Flags().IntP("limit", "n", 10, "Maximum number of matches to show (0 for all)")
	cmd.Flags().String("dir", "", "Directory holding the playlist logs (defaults to PLAYLIST_REPO_DIR)")

	return cmd
}

// runSearch executes the search command.
func runSearch(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")
	dir, _ := cmd.Flags().GetString("dir")
	if dir == "" {
		dir = conf.Repo.Dir
	}

	if err := searchLogs(cmd.OutOrStdout(), dir, args[0], limit); err != nil {
		log.WithError(err).Error("Search failed")
	}
}

// searchLogs loads the logs in dir and prints the matches for query.
func searchLogs(w io.Writer, dir, query string, limit int) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return fmt.Errorf("search query cannot be empty")
	}
	if dir == "" {
		return fmt.Errorf("no playlist repository directory configured")
	}

	log.WithField("query", query).Info("Searching playlist logs")

	ix, err := search.Load(dir, log.StandardLogger())
	if err != nil {
		return fmt.Errorf("loading playlist logs: %w", err)
	}
	if ix.Len() == 0 {
		log.WithField("dir", dir).Warn("No playlist logs found")
	}

	matches, err := ix.Find(query, limit)
	if err != nil {
		return err
	}

	displaySearchResults(w, matches, query)
	return nil
}

// displaySearchResults displays the search results in a formatted way
func displaySearchResults(w io.Writer, matches []search.Match, query string) {
	if len(matches) == 0 {
		_, _ = fmt.Fprintf(w, "No tracks found matching '%s'\n", query)
		return
	}

	_, _ = fmt.Fprintf(w, "\nFound %d track(s) matching '%s':\n\n", len(matches), query)

	for i, m := range matches {
		marker := " "
		if m.IsHighConfidence() {
			marker = "*"
		}
		_, _ = fmt.Fprintf(w, "%s%2d. %s - %s\n", marker, i+1, m.Artists, m.TrackName)
		_, _ = fmt.Fprintf(w, "     in %s by %s (%s)\n", m.PlaylistName, m.Owner, m.File)
	}
	_, _ = fmt.Fprintln(w)
}
