package spotify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zmb3/spotify/v2"
	"golang.org/x/oauth2"

	"github.com/toozej/playlist2git/internal/playlist"
)

func trackJSON(id, name, artist string) string {
	return fmt.Sprintf(`{"type":"track","id":%q,"name":%q,"album":{"id":"al-%s","name":"Album %s","artists":[{"id":"ar-%s","name":%q}]}}`,
		id, name, id, id, id, artist)
}

const episodeJSON = `{"type":"episode","id":"ep1","name":"Some Podcast"}`

// library is a fake Spotify Web API. Pages are keyed by the "page" query
// parameter; a page number missing from failPages is served normally.
type library struct {
	srv *httptest.Server

	mu        sync.Mutex
	requests  map[string]int
	failPages map[string]bool

	playlists [][]string
	items     map[string][][]string
	saved     [][]string
}

func (l *library) next(path string, pages, current int) string {
	if current+1 >= pages {
		return ""
	}
	return fmt.Sprintf("%s%s?page=%d", l.srv.URL, path, current+1)
}

func (l *library) serve(w http.ResponseWriter, r *http.Request, path string, pages [][]string, wrap func(string) string) {
	page := 0
	if p := r.URL.Query().Get("page"); p != "" {
		_, _ = fmt.Sscanf(p, "%d", &page)
	}

	l.mu.Lock()
	l.requests[path]++
	fail := l.failPages[fmt.Sprintf("%s#%d", path, page)]
	l.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if fail || page >= len(pages) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error":{"status":500,"message":"upstream failure"}}`)
		return
	}

	entries := make([]string, len(pages[page]))
	for i, e := range pages[page] {
		entries[i] = wrap(e)
	}
	_, _ = fmt.Fprintf(w, `{"items":[%s],"next":%q}`, strings.Join(entries, ","), l.next(path, len(pages), page))
}

func newLibrary(t *testing.T) *library {
	t.Helper()
	l := &library{
		requests:  map[string]int{},
		failPages: map[string]bool{},
		items:     map[string][][]string{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/me", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"alice","display_name":"Alice"}`)
	})
	mux.HandleFunc("/me/playlists", func(w http.ResponseWriter, r *http.Request) {
		l.serve(w, r, "/me/playlists", l.playlists, func(e string) string { return e })
	})
	mux.HandleFunc("/me/tracks", func(w http.ResponseWriter, r *http.Request) {
		l.serve(w, r, "/me/tracks", l.saved, func(e string) string {
			return `{"added_at":"2024-01-01T00:00:00Z","track":` + e + `}`
		})
	})
	mux.HandleFunc("/playlists/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.Split(strings.TrimPrefix(r.URL.Path, "/playlists/"), "/")[0]
		l.serve(w, r, "/playlists/"+id, l.items[id], func(e string) string {
			return `{"added_at":"2024-01-01T00:00:00Z","track":` + e + `}`
		})
	})

	l.srv = httptest.NewServer(mux)
	t.Cleanup(l.srv.Close)
	return l
}

func (l *library) count(path string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.requests[path]
}

func playlistJSON(id, name, owner string) string {
	return fmt.Sprintf(`{"id":%q,"name":%q,"owner":{"id":%q}}`, id, name, owner)
}

func connectedClient(t *testing.T, l *library, skipInvalid bool) *Client {
	t.Helper()
	cfg := testConfig(t)
	cfg.SkipInvalidItems = skipInvalid

	client, err := NewClient(cfg, quietLogger(),
		WithAuthenticator(&fakeAuth{}),
		WithAPIOptions(spotify.WithBaseURL(l.srv.URL+"/")),
		WithAuthorizer(func(context.Context) (*oauth2.Token, error) {
			return &oauth2.Token{AccessToken: "granted", RefreshToken: "r"}, nil
		}),
	)
	require.NoError(t, err)

	_, err = client.Connect(context.Background())
	require.NoError(t, err)
	return client
}

func names(p *playlist.Playlist) []string {
	var out []string
	for _, tr := range p.Tracks() {
		out = append(out, tr.Name)
	}
	return out
}

func TestCollections(t *testing.T) {
	l := newLibrary(t)
	l.playlists = [][]string{
		{playlistJSON("p1", "Road Trip!", "alice")},
		{playlistJSON("p2", "Focus", "bob")},
	}
	l.items["p1"] = [][]string{
		{trackJSON("t2", "Zebra", "Artist Z")},
		{trackJSON("t1", "Apple", "Artist A")},
	}
	l.items["p2"] = [][]string{
		{trackJSON("t3", "Calm", "Artist C"), episodeJSON, "null"},
	}
	l.saved = [][]string{
		{trackJSON("t4", "Liked One", "Artist L")},
	}

	client := connectedClient(t, l, false)

	collections, err := client.Collections(context.Background())
	require.NoError(t, err)
	require.Len(t, collections, 3)

	assert.Equal(t, "p1", collections[0].ID())
	assert.Equal(t, "Road Trip!", collections[0].Name())
	assert.Equal(t, "alice", collections[0].Owner())
	assert.Equal(t, []string{"Zebra", "Apple"}, names(collections[0]), "fetch order is kept")

	assert.Equal(t, "bob", collections[1].Owner())
	assert.Equal(t, []string{"Calm"}, names(collections[1]), "items without a track are skipped")

	liked := collections[2]
	assert.Equal(t, playlist.LikedSongsName, liked.Name())
	assert.Equal(t, "alice", liked.ID())
	assert.Equal(t, "alice", liked.Owner())
	assert.Equal(t, []string{"Liked One"}, names(liked))

	first := collections[0].Tracks()[0]
	assert.Equal(t, "t2", first.ID)
	assert.Equal(t, "al-t2", first.Album.ID)
	assert.Equal(t, []playlist.Artist{{ID: "ar-t2", Name: "Artist Z"}}, first.Album.Artists)

	assert.Equal(t, 2, l.count("/me/playlists"))
	assert.Equal(t, 1, l.count("/me/tracks"))
}

func TestCollectionsInvalidItems(t *testing.T) {
	setup := func(t *testing.T) *library {
		l := newLibrary(t)
		l.playlists = [][]string{{playlistJSON("p1", "Mix", "alice")}}
		l.items["p1"] = [][]string{{
			trackJSON("t1", "Good", "Artist"),
			trackJSON("t2", "", "Artist"),
		}}
		l.saved = [][]string{{}}
		return l
	}

	t.Run("strict mode aborts", func(t *testing.T) {
		l := setup(t)
		client := connectedClient(t, l, false)

		_, err := client.Collections(context.Background())
		require.Error(t, err)
		assert.ErrorIs(t, err, playlist.ErrInvalidTrack)
		assert.Zero(t, l.count("/me/tracks"))
	})

	t.Run("lenient mode skips", func(t *testing.T) {
		l := setup(t)
		client := connectedClient(t, l, true)

		collections, err := client.Collections(context.Background())
		require.NoError(t, err)
		require.Len(t, collections, 2)
		assert.Equal(t, []string{"Good"}, names(collections[0]))
		assert.Zero(t, collections[1].Len())
	})
}

func TestCollectionsPageFailure(t *testing.T) {
	tests := []struct {
		name     string
		failPage string
		want     string
	}{
		{name: "playlist listing continuation", failPage: "/me/playlists#1", want: "listing playlists"},
		{name: "playlist items first page", failPage: "/playlists/p1#0", want: `fetching tracks of "Mix"`},
		{name: "saved tracks", failPage: "/me/tracks#0", want: "fetching Liked Songs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newLibrary(t)
			l.playlists = [][]string{
				{playlistJSON("p1", "Mix", "alice")},
				{playlistJSON("p2", "Other", "alice")},
			}
			l.items["p1"] = [][]string{{trackJSON("t1", "Song", "Artist")}}
			l.items["p2"] = [][]string{{trackJSON("t2", "Tune", "Artist")}}
			l.saved = [][]string{{trackJSON("t3", "Liked", "Artist")}}
			l.failPages[tt.failPage] = true

			client := connectedClient(t, l, true)

			collections, err := client.Collections(context.Background())
			require.Error(t, err)
			assert.Nil(t, collections)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestCollectionsRequiresConnect(t *testing.T) {
	client, err := NewClient(testConfig(t), quietLogger(), WithAuthenticator(&fakeAuth{}))
	require.NoError(t, err)

	_, err = client.Collections(context.Background())
	assert.ErrorIs(t, err, ErrNotConnected)

	_, err = client.Playlists(context.Background())
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestPageSize(t *testing.T) {
	tests := []struct {
		configured int
		want       int
	}{
		{configured: 0, want: 50},
		{configured: 20, want: 20},
		{configured: 51, want: 50},
	}
	for _, tt := range tests {
		c := &Client{}
		c.config.PageSize = tt.configured
		assert.Equal(t, tt.want, c.pageSize())
	}
}
