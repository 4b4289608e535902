package playlist

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidTrack is returned when a track record lacks a required field.
var ErrInvalidTrack = errors.New("invalid track record")

// Artist represents a Spotify artist
type Artist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Album represents a Spotify album
type Album struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Artists []Artist `json:"artists"`
}

// Track represents a Spotify track as it is rendered into a log.
type Track struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Album Album  `json:"album"`
}

// Validate reports ErrInvalidTrack when the track cannot be rendered.
// Local files carry no id, so only the name is required.
func (t Track) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("%w: track %q has no name", ErrInvalidTrack, t.ID)
	}
	return nil
}

// ArtistNames joins the album artists in album order.
func (t Track) ArtistNames() string {
	names := make([]string, len(t.Album.Artists))
	for i, artist := range t.Album.Artists {
		names[i] = artist.Name
	}
	return strings.Join(names, ", ")
}

// LogLine renders the track as "{id} - {name} by {artists}".
func (t Track) LogLine() string {
	return fmt.Sprintf("%s - %s by %s", t.ID, t.Name, t.ArtistNames())
}
