// Package playlist holds the in-memory model of a Spotify collection and
// renders it into the diff-friendly text logs committed to the snapshot
// repository.
//
// A log looks like:
//
//	{id} - {name} by {owner}
//
//	{track_id} - {track_name} by {artist1, artist2, ...}
//	...
//
// Track lines are sorted by track name so that the git history only shows
// real additions, removals and renames, never reordering noise.
package playlist

import (
	"bufio"
	"cmp"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"slices"
)

// LikedSongsName is the display name of the user's saved-tracks collection.
const LikedSongsName = "Liked Songs"

// Playlist is one collection: a playlist or the synthesized Liked Songs.
//
// It is filled by a single pagination loop and read-only afterwards.
type Playlist struct {
	id     string
	name   string
	owner  string
	tracks []Track
}

// New creates an empty playlist from its metadata.
func New(id, name, owner string) *Playlist {
	return &Playlist{id: id, name: name, owner: owner}
}

// LikedSongs creates the personal collection of userID, which doubles as
// its id and owner.
func LikedSongs(userID string) *Playlist {
	return New(userID, LikedSongsName, userID)
}

// ID returns the remote identifier.
func (p *Playlist) ID() string { return p.id }

// Name returns the display name.
func (p *Playlist) Name() string { return p.name }

// Owner returns the id of the owning account.
func (p *Playlist) Owner() string { return p.owner }

// Append adds tracks in fetch order.
func (p *Playlist) Append(tracks ...Track) {
	p.tracks = append(p.tracks, tracks...)
}

// Tracks returns a copy of the tracks in fetch order.
func (p *Playlist) Tracks() []Track {
	return slices.Clone(p.tracks)
}

// Len returns the number of tracks.
func (p *Playlist) Len() int { return len(p.tracks) }

// Logfile returns the log path of the playlist inside dir. It depends on
// the name and id only.
func (p *Playlist) Logfile(dir string) string {
	stem := Normalize(p.name)
	if stem == "" {
		return filepath.Join(dir, p.id+".txt")
	}
	return filepath.Join(dir, stem+"_"+p.id+".txt")
}

// LogHeader renders "{id} - {name} by {owner}".
func (p *Playlist) LogHeader() string {
	return fmt.Sprintf("%s - %s by %s", p.id, p.name, p.owner)
}

// LogTracks yields one rendered line per track, sorted by track name.
// Tracks sharing a name keep their fetch order. Every range over the
// sequence starts from the beginning.
func (p *Playlist) LogTracks() iter.Seq[string] {
	return func(yield func(string) bool) {
		sorted := slices.Clone(p.tracks)
		slices.SortStableFunc(sorted, func(a, b Track) int {
			return cmp.Compare(a.Name, b.Name)
		})
		for _, track := range sorted {
			if !yield(track.LogLine()) {
				return
			}
		}
	}
}

// WriteLog writes the header, a blank line and the sorted track lines to w.
func (p *Playlist) WriteLog(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "%s\n\n", p.LogHeader()); err != nil {
		return err
	}
	for line := range p.LogTracks() {
		if _, err := fmt.Fprintln(bw, line); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteLogFile writes the log to Logfile(dir), replacing any previous
// content, and returns the path written.
func (p *Playlist) WriteLogFile(dir string) (string, error) {
	path := p.Logfile(dir)
	f, err := os.Create(path) // #nosec G304 -- path is built from dir and a normalized name
	if err != nil {
		return "", fmt.Errorf("creating log %s: %w", path, err)
	}
	if err := p.WriteLog(f); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("writing log %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing log %s: %w", path, err)
	}
	return path, nil
}
