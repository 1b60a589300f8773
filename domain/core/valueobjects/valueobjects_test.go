package valueobjects

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectLinkKind(t *testing.T) {
	tests := []struct {
		url  string
		want LinkKind
	}{
		{"https://www.youtube.com/watch?v=abc", LinkYouTube},
		{"https://youtu.be/abc", LinkYouTube},
		{"https://cdn.example.com/clip.MP4", LinkVideo},
		{"https://vimeo.com/123", LinkVideo},
		{"https://example.com/sound.ogg", LinkVideo},
		{"https://example.com/song.mp3", LinkAudio},
		{"https://open.spotify.com/track/1", LinkAudio},
		{"https://example.com/article", LinkOther},
		{"", LinkOther},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectLinkKind(tt.url))
		})
	}
}

func TestNewMedia(t *testing.T) {
	info := MediaInfo{ID: "m1", Name: "clip", Source: "https://x/video.webm"}

	m, err := NewMedia(MediaLink, info, "")
	require.NoError(t, err)
	link, ok := m.(Link)
	require.True(t, ok)
	assert.Equal(t, LinkVideo, link.LinkKind)
	assert.Equal(t, MediaLink, m.Kind())
	assert.Equal(t, "clip", m.Info().Name)

	m, err = NewMedia(MediaLink, info, LinkOther)
	require.NoError(t, err)
	assert.Equal(t, LinkOther, m.(Link).LinkKind, "explicit kind wins")

	m, err = NewMedia(MediaImage, info, "")
	require.NoError(t, err)
	assert.IsType(t, Image{}, m)

	_, err = NewMedia("video", info, "")
	assert.Error(t, err)

	_, err = NewMedia(MediaDocument, MediaInfo{Name: "no id"}, "")
	assert.Error(t, err)
}

func TestFormatting_NormalizeAndToggle(t *testing.T) {
	f := Formatting{Highlight: "neon", TextColor: TextRed, FontSize: "huge"}.Normalize()
	assert.Equal(t, HighlightNone, f.Highlight)
	assert.Equal(t, TextRed, f.TextColor)
	assert.Equal(t, FontMedium, f.FontSize)
	assert.Equal(t, FontSans, f.FontFamily)
	assert.Equal(t, AlignLeft, f.Alignment)

	f, err := f.Toggle(FlagStrikethrough)
	require.NoError(t, err)
	assert.True(t, f.Strikethrough)
	f, err = f.Toggle(FlagStrikethrough)
	require.NoError(t, err)
	assert.False(t, f.Strikethrough)

	_, err = f.Toggle("shadow")
	assert.Error(t, err)
}

func TestIDGenerators(t *testing.T) {
	t.Run("sequence is deterministic", func(t *testing.T) {
		g := NewSequenceGenerator("node-")
		assert.Equal(t, "node-1", g.NextID().String())
		assert.Equal(t, "node-2", g.NextID().String())
	})

	t.Run("uuid", func(t *testing.T) {
		id := NewUUIDGenerator().NextID()
		_, err := uuid.Parse(id.String())
		assert.NoError(t, err)
	})

	t.Run("timestamp prefix and unique suffix", func(t *testing.T) {
		fixed := time.UnixMilli(1700000000000)
		g := &TimestampGenerator{now: func() time.Time { return fixed }}
		a, b := g.NextID(), g.NextID()
		assert.True(t, strings.HasPrefix(a.String(), "1700000000000"))
		assert.Len(t, a.String(), len("1700000000000")+9)
		assert.NotEqual(t, a, b)
	})

	t.Run("by name", func(t *testing.T) {
		for _, kind := range []string{"", "timestamp", "uuid", "sequence"} {
			g, err := NewIDGenerator(kind)
			require.NoError(t, err)
			assert.False(t, g.NextID().IsZero())
		}
		_, err := NewIDGenerator("snowflake")
		assert.Error(t, err)
	})
}

func TestNodeID_JSON(t *testing.T) {
	id := MustNodeID(`we"ird`)
	data, err := json.Marshal(id)
	require.NoError(t, err)

	var back NodeID
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, id, back)

	_, err = NewNodeIDFromString("")
	assert.Error(t, err)
	assert.Panics(t, func() { MustNodeID("") })
}

func TestPointAndSize(t *testing.T) {
	p := NewPoint(1, 2).Add(NewPoint(3, 4)).Sub(NewPoint(1, 1)).Scale(2)
	assert.Equal(t, NewPoint(6, 10), p)
	assert.True(t, p.ApproxEqual(NewPoint(6.0000001, 10), 1e-6))

	assert.Equal(t, NewSize(200, 180), NewSize(10, 180).Clamp(NewSize(200, 150)))
}
