package sources

import (
	"encoding/json"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsYouTubeURL(t *testing.T) {
	tests := []struct {
		name string
		cell string
		want bool
	}{
		{"watch url", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", true},
		{"short host", "https://youtu.be/dQw4w9WgXcQ", true},
		{"no scheme", "www.youtube.com/watch?v=dQw4w9WgXcQ", true},
		{"nocookie", "https://www.youtube-nocookie.com/embed/dQw4w9WgXcQ", true},
		{"shorts", "https://youtube.com/shorts/dQw4w9WgXcQ", true},
		{"whitespace padded", "  https://youtu.be/dQw4w9WgXcQ  ", true},
		{"playlist param excluded", "https://www.youtube.com/watch?v=dQw4w9WgXcQ&list=PL123", false},
		{"playlist path excluded", "https://www.youtube.com/playlist?list=PL123", false},
		{"other site", "https://vimeo.com/12345", false},
		{"bare text", "morning yoga", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsYouTubeURL(tt.cell))
		})
	}
}

func TestIsHydrowMeta(t *testing.T) {
	assert.True(t, IsHydrowMeta(`{"id":"42","image":{"bucket":"hydrow-images","key":"a.jpg"}}`))
	assert.False(t, IsHydrowMeta(`{"image":{"bucket":"peloton-images"}}`))
	assert.False(t, IsHydrowMeta(`{"image":{}}`))
	assert.False(t, IsHydrowMeta(`not json`))
	assert.False(t, IsHydrowMeta(""))
}

func TestIsSpotifyMeta(t *testing.T) {
	assert.True(t, IsSpotifyMeta(`{"playlist":{"external_urls":{"spotify":"https://open.spotify.com/playlist/xyz"}}}`))
	assert.False(t, IsSpotifyMeta(`{"playlist":{"external_urls":{"spotify":"https://example.com/playlist"}}}`))
	assert.False(t, IsSpotifyMeta(`{"playlist":{}}`))
	assert.False(t, IsSpotifyMeta(`https://open.spotify.com/playlist/xyz`))
}

func TestDetect(t *testing.T) {
	adapter, ok := Detect("https://youtu.be/dQw4w9WgXcQ")
	require.True(t, ok)
	assert.Equal(t, SourceYouTube, adapter.Name())

	adapter, ok = Detect(`{"id":"42","image":{"bucket":"hydrow-images","key":"a.jpg"}}`)
	require.True(t, ok)
	assert.Equal(t, SourceHydrow, adapter.Name())

	adapter, ok = Detect(`{"playlist":{"id":"p1","external_urls":{"spotify":"https://open.spotify.com/playlist/p1"}}}`)
	require.True(t, ok)
	assert.Equal(t, SourceSpotify, adapter.Name())

	_, ok = Detect("just a title column")
	assert.False(t, ok)
}

func TestStripMarketKeys(t *testing.T) {
	raw := `{
		"name": "x",
		"available_markets": ["US", "GB"],
		"nested": {"Market": "US", "keep": 1},
		"list": [{"availableMarkets": [], "ok": true}]
	}`
	var v any
	require.NoError(t, json.Unmarshal([]byte(raw), &v))

	cleaned, err := json.Marshal(stripMarketKeys(v))
	require.NoError(t, err)

	s := string(cleaned)
	assert.NotContains(t, s, "available_markets")
	assert.NotContains(t, s, "Market")
	assert.NotContains(t, s, "availableMarkets")
	assert.Contains(t, s, `"keep":1`)
	assert.Contains(t, s, `"ok":true`)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "abcde", truncate("abcde", 5))
	assert.Equal(t, "abcde...", truncate("abcdefgh", 5))
}

func TestTruncateRuneBoundary(t *testing.T) {
	// The cut backs off rather than splitting a multibyte rune.
	assert.Equal(t, "h...", truncate("héllo", 2))
	assert.Equal(t, "日...", truncate("日本語", 4))
	assert.Equal(t, "日本...", truncate("日本語", 6))
	assert.True(t, utf8.ValidString(truncate(strings.Repeat("é", 100), 101)))
}
