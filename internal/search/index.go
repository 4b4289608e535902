// Package search finds tracks across the playlist logs of a snapshot
// repository with fuzzy matching.
package search

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// ErrMalformedLog is returned for a log whose header cannot be parsed.
var ErrMalformedLog = errors.New("malformed playlist log")

// Entry is one track line of a playlist log.
type Entry struct {
	File         string `json:"file"`
	PlaylistID   string `json:"playlist_id"`
	PlaylistName string `json:"playlist_name"`
	Owner        string `json:"owner"`
	TrackID      string `json:"track_id"`
	TrackName    string `json:"track_name"`
	Artists      string `json:"artists"`
}

// Index holds every track entry of a repository checkout.
type Index struct {
	entries []Entry
	logger  *logrus.Logger
}

// Load parses every *.txt log in dir. Files that are not playlist logs are
// skipped with a warning.
func Load(dir string, logger *logrus.Logger) (*Index, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.txt"))
	if err != nil {
		return nil, err
	}

	log := logger.WithFields(logrus.Fields{
		"component": "search",
		"operation": "load",
		"dir":       dir,
	})

	ix := &Index{logger: logger}
	for _, file := range files {
		entries, err := parseLog(file)
		if err != nil {
			log.WithError(err).WithField("file", filepath.Base(file)).Warn("Skipping unreadable log")
			continue
		}
		ix.entries = append(ix.entries, entries...)
	}

	log.WithFields(logrus.Fields{
		"files":   len(files),
		"entries": len(ix.entries),
	}).Debug("Loaded playlist logs")
	return ix, nil
}

// Len returns the number of indexed tracks.
func (ix *Index) Len() int { return len(ix.entries) }

func parseLog(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: empty file", ErrMalformedLog)
	}
	id, name, owner, ok := splitLine(scanner.Text())
	if !ok {
		return nil, fmt.Errorf("%w: header %q", ErrMalformedLog, scanner.Text())
	}

	var entries []Entry
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		trackID, trackName, artists, ok := splitLine(line)
		if !ok {
			continue
		}
		entries = append(entries, Entry{
			File:         filepath.Base(path),
			PlaylistID:   id,
			PlaylistName: name,
			Owner:        owner,
			TrackID:      trackID,
			TrackName:    trackName,
			Artists:      artists,
		})
	}
	return entries, scanner.Err()
}

// splitLine parses "{id} - {name} by {rest}". The name may itself contain
// " by ", so the last occurrence separates it from rest.
func splitLine(line string) (id, name, rest string, ok bool) {
	id, tail, found := strings.Cut(line, " - ")
	if !found {
		return "", "", "", false
	}
	i := strings.LastIndex(tail, " by ")
	if i < 0 {
		return "", "", "", false
	}
	return id, tail[:i], tail[i+len(" by "):], true
}
