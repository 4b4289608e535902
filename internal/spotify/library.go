package spotify

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/zmb3/spotify/v2"

	"github.com/toozej/playlist2git/internal/pager"
	"github.com/toozej/playlist2git/internal/playlist"
)

// Page adapters: the zmb3 pages expose their cursor as a Next URL.

type playlistPage struct{ *spotify.SimplePlaylistPage }

func (p playlistPage) HasNext() bool { return p.Next != "" }

type itemPage struct{ *spotify.PlaylistItemPage }

func (p itemPage) HasNext() bool { return p.Next != "" }

type savedPage struct{ *spotify.SavedTrackPage }

func (p savedPage) HasNext() bool { return p.Next != "" }

// Collections fetches every playlist of the current user with all of its
// tracks, followed by the Liked Songs collection. Any page failure aborts
// the whole fetch.
func (c *Client) Collections(ctx context.Context) ([]*playlist.Playlist, error) {
	if c.api == nil || c.user == nil {
		return nil, ErrNotConnected
	}

	playlists, err := c.Playlists(ctx)
	if err != nil {
		return nil, err
	}

	for _, p := range playlists {
		if err := c.FillPlaylist(ctx, p); err != nil {
			return nil, err
		}
	}

	liked := playlist.LikedSongs(c.user.ID)
	if err := c.FillLikedSongs(ctx, liked); err != nil {
		return nil, err
	}

	return append(playlists, liked), nil
}

// Playlists lists the current user's playlists, without tracks.
func (c *Client) Playlists(ctx context.Context) ([]*playlist.Playlist, error) {
	if c.api == nil {
		return nil, ErrNotConnected
	}

	pages := pager.Pages(ctx,
		func(ctx context.Context) (playlistPage, error) {
			page, err := c.api.CurrentUsersPlaylists(ctx, spotify.Limit(c.pageSize()))
			return playlistPage{page}, err
		},
		func(ctx context.Context, prev playlistPage) (playlistPage, error) {
			next := &spotify.SimplePlaylistPage{}
			next.Next = prev.Next
			err := c.api.NextPage(ctx, next)
			return playlistPage{next}, err
		},
		c.pagerOptions("playlists")...,
	)

	playlists, err := pager.Collect(pages, func(p playlistPage) []*playlist.Playlist {
		out := make([]*playlist.Playlist, 0, len(p.Playlists))
		for _, sp := range p.Playlists {
			out = append(out, playlist.New(string(sp.ID), sp.Name, sp.Owner.ID))
		}
		return out
	})
	if err != nil {
		return nil, fmt.Errorf("listing playlists: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"component":      "spotify",
		"operation":      "list_playlists",
		"playlist_count": len(playlists),
	}).Info("Retrieved user playlists")

	return playlists, nil
}

// FillPlaylist appends every track of the remote playlist to p.
func (c *Client) FillPlaylist(ctx context.Context, p *playlist.Playlist) error {
	if c.api == nil {
		return ErrNotConnected
	}

	log := c.logger.WithFields(logrus.Fields{
		"component":   "spotify",
		"operation":   "fetch_tracks",
		"playlist_id": p.ID(),
	})
	log.Infof("Fetching %s by %s", p.Name(), p.Owner())

	pages := pager.Pages(ctx,
		func(ctx context.Context) (itemPage, error) {
			page, err := c.api.GetPlaylistItems(ctx, spotify.ID(p.ID()), spotify.Limit(c.pageSize()))
			return itemPage{page}, err
		},
		func(ctx context.Context, prev itemPage) (itemPage, error) {
			next := &spotify.PlaylistItemPage{}
			next.Next = prev.Next
			err := c.api.NextPage(ctx, next)
			return itemPage{next}, err
		},
		c.pagerOptions("playlist_items")...,
	)

	for page, err := range pages {
		if err != nil {
			return fmt.Errorf("fetching tracks of %q: %w", p.Name(), err)
		}
		for _, item := range page.Items {
			if item.Track.Track == nil {
				// episodes and items unavailable in the user's market
				log.Debug("Skipping item without track payload")
				continue
			}
			track, err := c.accept(log, item.Track.Track)
			if err != nil {
				return fmt.Errorf("fetching tracks of %q: %w", p.Name(), err)
			}
			if track == nil {
				continue
			}
			p.Append(*track)
			log.Debugf("\tAdding:  %s - %s", track.ID, track.Name)
		}
	}

	return nil
}

// FillLikedSongs appends the user's saved tracks to p.
func (c *Client) FillLikedSongs(ctx context.Context, p *playlist.Playlist) error {
	if c.api == nil {
		return ErrNotConnected
	}

	log := c.logger.WithFields(logrus.Fields{
		"component":   "spotify",
		"operation":   "fetch_saved_tracks",
		"playlist_id": p.ID(),
	})
	log.Infof("Downloading %s", p.Name())

	pages := pager.Pages(ctx,
		func(ctx context.Context) (savedPage, error) {
			page, err := c.api.CurrentUsersTracks(ctx, spotify.Limit(c.pageSize()))
			return savedPage{page}, err
		},
		func(ctx context.Context, prev savedPage) (savedPage, error) {
			next := &spotify.SavedTrackPage{}
			next.Next = prev.Next
			err := c.api.NextPage(ctx, next)
			return savedPage{next}, err
		},
		c.pagerOptions("saved_tracks")...,
	)

	for page, err := range pages {
		if err != nil {
			return fmt.Errorf("fetching %s: %w", p.Name(), err)
		}
		for i := range page.Tracks {
			track, err := c.accept(log, &page.Tracks[i].FullTrack)
			if err != nil {
				return fmt.Errorf("fetching %s: %w", p.Name(), err)
			}
			if track == nil {
				continue
			}
			p.Append(*track)
		}
	}

	return nil
}

// accept converts and validates a remote track. Invalid tracks fail the fetch
// unless SkipInvalidItems is set, in which case they are logged and dropped
// (nil, nil).
func (c *Client) accept(log *logrus.Entry, ft *spotify.FullTrack) (*playlist.Track, error) {
	track := convertTrack(ft)
	err := track.Validate()
	if err == nil {
		return &track, nil
	}
	if c.config.SkipInvalidItems {
		log.WithError(err).Warn("Skipping invalid item")
		return nil, nil
	}
	log.WithError(err).Error("Invalid item")
	return nil, err
}

func convertTrack(ft *spotify.FullTrack) playlist.Track {
	artists := make([]playlist.Artist, len(ft.Album.Artists))
	for i, a := range ft.Album.Artists {
		artists[i] = playlist.Artist{ID: string(a.ID), Name: a.Name}
	}
	return playlist.Track{
		ID:   string(ft.ID),
		Name: ft.Name,
		Album: playlist.Album{
			ID:      string(ft.Album.ID),
			Name:    ft.Album.Name,
			Artists: artists,
		},
	}
}

func (c *Client) pageSize() int {
	if c.config.PageSize < 1 || c.config.PageSize > 50 {
		return 50
	}
	return c.config.PageSize
}

func (c *Client) pagerOptions(name string) []pager.Option {
	return []pager.Option{
		pager.WithLogger(c.logger.WithField("component", "spotify")),
		pager.WithLimiter(c.limiter),
		pager.WithName(name),
	}
}
