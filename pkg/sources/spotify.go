package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/oauth2/clientcredentials"

	"github.com/nnatashok/vsp-poc-1-sub000/pkg/bootstrap"
)

const (
	maxSummaryTracks = 100
	spotifyTokenURL  = "https://accounts.spotify.com/api/token"
	spotifyAPIBase   = "https://api.spotify.com/v1"
)

type spotifyTrack struct {
	Name    string `json:"name"`
	Artists []struct {
		Name string `json:"name"`
	} `json:"artists"`
	Album struct {
		Name        string `json:"name"`
		ReleaseDate string `json:"release_date"`
	} `json:"album"`
	DurationMs int  `json:"duration_ms"`
	Explicit   bool `json:"explicit"`
	Popularity int  `json:"popularity"`
}

type spotifyTrackItem struct {
	Track spotifyTrack `json:"track"`
}

// spotifyRecord mirrors the relevant fields of a playlist JSON record.
type spotifyRecord struct {
	Playlist struct {
		ID           string `json:"id"`
		Name         string `json:"name"`
		Description  string `json:"description"`
		ExternalURLs struct {
			Spotify string `json:"spotify"`
		} `json:"external_urls"`
		Images []struct {
			URL string `json:"url"`
		} `json:"images"`
		Tracks struct {
			Total int                `json:"total"`
			Items []spotifyTrackItem `json:"items"`
		} `json:"tracks"`
	} `json:"playlist"`
	Query string `json:"query"`
	Rank  int    `json:"rank"`
}

// SpotifyAdapter normalizes streaming-playlist JSON records. The raw record is
// embedded in the CSV cell; when it carries fewer track items than the
// playlist total, the adapter tops the list up through the Web API using a
// client-credentials token.
type SpotifyAdapter struct {
	Service *bootstrap.Service

	// httpFor builds the token-bearing client; swappable for tests.
	httpFor func(ctx context.Context) *http.Client
}

func init() {
	Register(NewSpotifyAdapter())
}

func NewSpotifyAdapter() *SpotifyAdapter {
	a := &SpotifyAdapter{}
	a.httpFor = a.credentialsClient
	return a
}

func (a *SpotifyAdapter) SetService(service *bootstrap.Service) {
	a.Service = service
}

func (a *SpotifyAdapter) Name() string { return SourceSpotify }

func (a *SpotifyAdapter) Matches(raw string) bool { return IsSpotifyMeta(raw) }

func (a *SpotifyAdapter) WorkoutID(raw string) string {
	var rec spotifyRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return ""
	}
	if rec.Playlist.ID == "" {
		return ""
	}
	return "spotify_" + rec.Playlist.ID
}

func (a *SpotifyAdapter) BuildContext(ctx context.Context, raw, workoutID string) (*ContextBundle, error) {
	var generic any
	if err := json.Unmarshal([]byte(raw), &generic); err != nil {
		return nil, fmt.Errorf("parse playlist record: %w", err)
	}
	cleaned, err := json.Marshal(stripMarketKeys(generic))
	if err != nil {
		return nil, fmt.Errorf("re-encode playlist record: %w", err)
	}

	var rec spotifyRecord
	if err := json.Unmarshal(cleaned, &rec); err != nil {
		return nil, fmt.Errorf("decode playlist record: %w", err)
	}
	if !strings.HasPrefix(rec.Playlist.ExternalURLs.Spotify, "https://open.spotify.com/") {
		return nil, fmt.Errorf("record is not a spotify playlist")
	}

	items := rec.Playlist.Tracks.Items
	if len(items) < rec.Playlist.Tracks.Total && len(items) < maxSummaryTracks {
		if more, err := a.fetchTracks(ctx, rec.Playlist.ID, len(items)); err != nil {
			slog.With("component", "sources").Warn("Playlist track top-up failed", "playlist_id", rec.Playlist.ID, "error", err)
		} else {
			items = append(items, more...)
		}
	}

	tracks := make([]Track, 0, len(items))
	totalMs := 0
	for _, it := range items {
		t := it.Track
		artist := ""
		if len(t.Artists) > 0 {
			artist = t.Artists[0].Name
		}
		tracks = append(tracks, Track{
			Title:       t.Name,
			Artist:      artist,
			Album:       t.Album.Name,
			ReleaseYear: releaseYear(t.Album.ReleaseDate),
			DurationMs:  t.DurationMs,
			Explicit:    t.Explicit,
			Popularity:  t.Popularity,
		})
		totalMs += t.DurationMs
	}

	imageURL := ""
	if len(rec.Playlist.Images) > 0 {
		imageURL = rec.Playlist.Images[0].URL
	}

	return &ContextBundle{
		ID:              workoutID,
		SourceURL:       rec.Playlist.ExternalURLs.Spotify,
		Title:           rec.Playlist.Name,
		ChannelOrOwner:  "Spotify",
		DurationSeconds: totalMs / 1000,
		TextSummary:     playlistSummary(&rec, tracks),
		ImageURL:        imageURL,
		SourceType:      SourceSpotify,
		SourceHints:     Hints{IsPlaylist: true},
		Tracks:          tracks,
	}, nil
}

func playlistSummary(rec *spotifyRecord, tracks []Track) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Playlist: %s\n", rec.Playlist.Name)
	if rec.Playlist.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", rec.Playlist.Description)
	}
	if rec.Query != "" {
		fmt.Fprintf(&b, "Search query: %s (rank %d)\n", rec.Query, rec.Rank)
	}
	fmt.Fprintf(&b, "Total tracks: %d\n", rec.Playlist.Tracks.Total)
	if len(tracks) > 0 {
		b.WriteString("Tracks:\n")
		for i, t := range tracks {
			if i >= maxSummaryTracks {
				break
			}
			fmt.Fprintf(&b, "- %q by %q, album %q", t.Title, t.Artist, t.Album)
			if t.ReleaseYear > 0 {
				fmt.Fprintf(&b, " (%d)", t.ReleaseYear)
			}
			fmt.Fprintf(&b, ", %s", formatTrackDuration(t.DurationMs))
			if t.Explicit {
				b.WriteString(", explicit")
			}
			fmt.Fprintf(&b, ", popularity %d\n", t.Popularity)
		}
	}
	return b.String()
}

func (a *SpotifyAdapter) credentialsClient(ctx context.Context) *http.Client {
	cfg := a.Service.Config
	if cfg.SpotifyClientID == "" || cfg.SpotifyClientSecret == "" {
		return nil
	}
	cc := &clientcredentials.Config{
		ClientID:     cfg.SpotifyClientID,
		ClientSecret: cfg.SpotifyClientSecret,
		TokenURL:     spotifyTokenURL,
	}
	return cc.Client(ctx)
}

// fetchTracks pages /playlists/{id}/tracks starting at offset, up to the
// summary cap.
func (a *SpotifyAdapter) fetchTracks(ctx context.Context, playlistID string, offset int) ([]spotifyTrackItem, error) {
	client := a.httpFor(ctx)
	if client == nil {
		return nil, fmt.Errorf("spotify credentials not configured")
	}

	var out []spotifyTrackItem
	for offset+len(out) < maxSummaryTracks {
		url := fmt.Sprintf("%s/playlists/%s/tracks?offset=%d&limit=50", spotifyAPIBase, playlistID, offset+len(out))
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("playlist tracks request: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return nil, fmt.Errorf("playlist tracks error %d: %s", resp.StatusCode, string(body))
		}
		var page struct {
			Items []spotifyTrackItem `json:"items"`
			Next  string             `json:"next"`
		}
		err = json.NewDecoder(resp.Body).Decode(&page)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("decode playlist tracks: %w", err)
		}
		out = append(out, page.Items...)
		if page.Next == "" || len(page.Items) == 0 {
			break
		}
	}
	return out, nil
}

func releaseYear(releaseDate string) int {
	if len(releaseDate) < 4 {
		return 0
	}
	y, err := strconv.Atoi(releaseDate[:4])
	if err != nil {
		return 0
	}
	return y
}

// formatTrackDuration renders milliseconds as m:ss.
func formatTrackDuration(ms int) string {
	secs := ms / 1000
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}
