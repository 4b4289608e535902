package search

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func writeLogs(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"road_trip_p1.txt": "p1 - Road Trip! by alice\n\nt1 - Alpha by Art1\nt2 - Zed by Art2\n",
		"liked_songs_alice.txt": "alice - Liked Songs by alice\n\n" +
			"t3 - Stand by Me by Ben E. King\n" +
			"t4 - Alphabet Street by Prince\n",
		"notes.txt": "not a playlist log\n",
		".init":     "",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestLoad(t *testing.T) {
	ix, err := Load(writeLogs(t), quietLogger())
	require.NoError(t, err)
	assert.Equal(t, 4, ix.Len())
}

func TestLoadEmptyDir(t *testing.T) {
	ix, err := Load(t.TempDir(), quietLogger())
	require.NoError(t, err)
	assert.Zero(t, ix.Len())
}

func TestSplitLine(t *testing.T) {
	tests := []struct {
		line   string
		id     string
		name   string
		rest   string
		wantOK bool
	}{
		{line: "t1 - Alpha by Art1", id: "t1", name: "Alpha", rest: "Art1", wantOK: true},
		{line: "t3 - Stand by Me by Ben E. King", id: "t3", name: "Stand by Me", rest: "Ben E. King", wantOK: true},
		{line: "t5 - Duet by A, B", id: "t5", name: "Duet", rest: "A, B", wantOK: true},
		{line: "no separator", wantOK: false},
		{line: "t6 - missing artists", wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			id, name, rest, ok := splitLine(tt.line)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.id, id)
				assert.Equal(t, tt.name, name)
				assert.Equal(t, tt.rest, rest)
			}
		})
	}
}

func TestFind(t *testing.T) {
	ix, err := Load(writeLogs(t), quietLogger())
	require.NoError(t, err)

	matches, err := ix.Find("stand by me", 0)
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	assert.Equal(t, "t3", matches[0].TrackID)
	assert.Equal(t, "Liked Songs", matches[0].PlaylistName)
	assert.Equal(t, "liked_songs_alice.txt", matches[0].File)
	assert.Equal(t, 1.0, matches[0].Confidence)
	assert.True(t, matches[0].IsHighConfidence())

	matches, err = ix.Find("alpha", 0)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	ids := []string{matches[0].TrackID, matches[1].TrackID}
	assert.ElementsMatch(t, []string{"t1", "t4"}, ids)
	for _, m := range matches {
		if m.TrackID == "t1" {
			assert.Equal(t, "Road Trip!", m.PlaylistName)
			assert.Equal(t, "alice", m.Owner)
		}
	}

	matches, err = ix.Find("alpha", 1)
	require.NoError(t, err)
	assert.Len(t, matches, 1)

	matches, err = ix.Find("qqqq", 0)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestFindRejectsEmptyQuery(t *testing.T) {
	ix, err := Load(t.TempDir(), quietLogger())
	require.NoError(t, err)

	_, err = ix.Find("   ", 5)
	assert.Error(t, err)
}

func TestMatchConfidence(t *testing.T) {
	assert.Equal(t, 1.0, matchConfidence("Alpha", "alpha"))
	assert.InDelta(t, 0.8+0.2*5.0/15.0, matchConfidence("alpha", "Alphabet Street"), 0.0001)
	assert.InDelta(t, 0.7+0.2*3.0/8.0, matchConfidence("zed song", "Zed"), 0.0001)
	assert.Equal(t, 0.1, matchConfidence("qqqq", "Alpha"))

	c := matchConfidence("alp st", "Alphabet Street")
	assert.GreaterOrEqual(t, c, 0.1)
	assert.LessOrEqual(t, c, 0.7)
}
