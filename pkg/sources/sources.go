// Package sources normalizes raw workout records from heterogeneous origins
// (YouTube videos, Hydrow catalog entries, Spotify playlists) into the
// ContextBundle consumed by every classifier stage.
package sources

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/nnatashok/vsp-poc-1-sub000/pkg/bootstrap"
)

// Source type names. These also select the per-source rule overlays.
const (
	SourceYouTube = "youtube"
	SourceHydrow  = "hydrow"
	SourceSpotify = "spotify"
)

// Hints carries source-specific fields the rule overlay acts on.
type Hints struct {
	WorkoutType  string // hydrow workoutTypes[0], lowercased
	CategoryName string // hydrow category.name
	IsPlaylist   bool   // spotify playlist source
}

// Track is one playlist entry, used by the track enricher.
type Track struct {
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	Album       string `json:"album"`
	ReleaseYear int    `json:"releaseYear"`
	DurationMs  int    `json:"durationMs"`
	Explicit    bool   `json:"explicit"`
	Popularity  int    `json:"popularity"`
}

// ContextBundle is the normalized per-workout input shared across all
// classifier stages.
type ContextBundle struct {
	ID              string  `json:"id"`
	SourceURL       string  `json:"source_url"`
	Title           string  `json:"title"`
	ChannelOrOwner  string  `json:"channel_or_owner"`
	DurationSeconds int     `json:"duration_seconds"`
	TextSummary     string  `json:"text_summary"`
	ImageURL        string  `json:"image_url,omitempty"`
	SourceType      string  `json:"source_type"`
	SourceHints     Hints   `json:"source_hints"`
	Tracks          []Track `json:"tracks,omitempty"`
}

// Adapter converts a raw source record (a CSV cell) into a ContextBundle.
// Adapters never contact the LLM.
type Adapter interface {
	Name() string
	// SetService injects shared clients after registration.
	SetService(service *bootstrap.Service)
	// Matches reports whether the raw cell belongs to this source.
	Matches(raw string) bool
	// WorkoutID extracts the stable workout id from the raw cell. Empty
	// return means the driver assigns a manual id.
	WorkoutID(raw string) string
	// BuildContext fetches/parses metadata and renders the text summary.
	BuildContext(ctx context.Context, raw, workoutID string) (*ContextBundle, error)
}

var registry []Adapter

// Register adds an adapter to the lookup order. Called from adapter init().
func Register(a Adapter) {
	registry = append(registry, a)
}

// All returns the registered adapters in registration order.
func All() []Adapter {
	return registry
}

// Detect returns the first adapter whose predicate matches the cell.
func Detect(raw string) (Adapter, bool) {
	for _, a := range registry {
		if a.Matches(raw) {
			return a, true
		}
	}
	return nil, false
}

var youtubeURLPattern = regexp.MustCompile(`(?i)^(https?://)?(www\.)?(youtube|youtu|youtube-nocookie)\.(com|be)/.+`)

// IsYouTubeURL reports whether the cell is a single-video YouTube URL.
// Playlist URLs are excluded.
func IsYouTubeURL(cell string) bool {
	cell = strings.TrimSpace(cell)
	if !youtubeURLPattern.MatchString(cell) {
		return false
	}
	lower := strings.ToLower(cell)
	return !strings.Contains(lower, "list=") && !strings.Contains(lower, "playlist")
}

// IsHydrowMeta reports whether the cell is a Hydrow catalog JSON record.
func IsHydrowMeta(cell string) bool {
	var rec struct {
		Image struct {
			Bucket string `json:"bucket"`
		} `json:"image"`
	}
	if err := json.Unmarshal([]byte(cell), &rec); err != nil {
		return false
	}
	return strings.HasPrefix(rec.Image.Bucket, "hydrow")
}

// IsSpotifyMeta reports whether the cell is a Spotify playlist JSON record.
func IsSpotifyMeta(cell string) bool {
	var rec struct {
		Playlist struct {
			ExternalURLs struct {
				Spotify string `json:"spotify"`
			} `json:"external_urls"`
		} `json:"playlist"`
	}
	if err := json.Unmarshal([]byte(cell), &rec); err != nil {
		return false
	}
	return strings.HasPrefix(rec.Playlist.ExternalURLs.Spotify, "https://open.spotify.com/")
}

// stripMarketKeys removes every field whose key contains "market"
// (case-insensitive) from a decoded JSON value, recursively. Market
// availability lists bloat cached artifacts and never inform classification.
func stripMarketKeys(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			if strings.Contains(strings.ToLower(k), "market") {
				delete(t, k)
				continue
			}
			t[k] = stripMarketKeys(val)
		}
		return t
	case []any:
		for i, val := range t {
			t[i] = stripMarketKeys(val)
		}
		return t
	default:
		return v
	}
}

// truncate clips s to at most n bytes without splitting a rune, appending an
// ellipsis marker when clipped.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
