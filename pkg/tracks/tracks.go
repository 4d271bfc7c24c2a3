// Package tracks performs per-track secondary LLM analysis for playlist
// sources, optionally augmented with public web search snippets.
package tracks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nnatashok/vsp-poc-1-sub000/pkg/bootstrap"
	"github.com/nnatashok/vsp-poc-1-sub000/pkg/llm"
	"github.com/nnatashok/vsp-poc-1-sub000/pkg/sources"
	"github.com/nnatashok/vsp-poc-1-sub000/pkg/taxonomy"
)

// maxTracksAnalyzed caps per-workout LLM spend on track lookups.
const maxTracksAnalyzed = 5

// SnippetFetcher returns public search result snippets for a query. Fetchers
// are best-effort: an error falls back to metadata-only prompts.
type SnippetFetcher interface {
	Fetch(ctx context.Context, query string) ([]string, error)
}

// Enricher analyzes the first few tracks of a playlist workout. Results are
// cached as a single per-workout artifact.
type Enricher struct {
	Service  *bootstrap.Service
	Snippets SnippetFetcher // nil disables web-snippet enrichment

	log *slog.Logger
}

func NewEnricher(service *bootstrap.Service, snippets SnippetFetcher) *Enricher {
	return &Enricher{
		Service:  service,
		Snippets: snippets,
		log:      slog.With("component", "tracks"),
	}
}

// Enrich returns per-track analyses keyed by `"<title>" by "<artist>"`.
// Individual track failures do not abort the workout; the failed key caches
// an empty analysis.
func (e *Enricher) Enrich(ctx context.Context, bundle *sources.ContextBundle) map[string]taxonomy.TrackAnalysis {
	analyses := map[string]taxonomy.TrackAnalysis{}
	if e.Service.Cache.Get(taxonomy.StageTracks, bundle.ID, &analyses) {
		return analyses
	}

	for i, track := range bundle.Tracks {
		if i >= maxTracksAnalyzed {
			break
		}
		key := trackKey(track)
		analysis, err := e.analyzeTrack(ctx, track)
		if err != nil {
			e.log.Warn("Track analysis failed", "workout_id", bundle.ID, "track", key, "error", err)
			analyses[key] = taxonomy.TrackAnalysis{}
			continue
		}
		analyses[key] = *analysis
	}

	e.Service.Cache.Put(taxonomy.StageTracks, bundle.ID, analyses)
	return analyses
}

// Summary renders the track analyses as labeled lines for appending to the
// workout text summary.
func Summary(analyses map[string]taxonomy.TrackAnalysis, bundle *sources.ContextBundle) string {
	if len(analyses) == 0 {
		return ""
	}
	out := "Track analysis:\n"
	for i, track := range bundle.Tracks {
		if i >= maxTracksAnalyzed {
			break
		}
		key := trackKey(track)
		a, ok := analyses[key]
		if !ok || a == (taxonomy.TrackAnalysis{}) {
			continue
		}
		out += fmt.Sprintf("- %s: genre %s, %d bpm, energy %s, danceability %s, valence %s, %s mode",
			key, a.Genre, a.BPM, a.MusicEnergy, a.MusicDanceability, a.Valence, a.Mode)
		if a.LyricsSummary != "" {
			out += fmt.Sprintf(", lyrics: %s (%s)", a.LyricsSummary, a.LyricsSentiment)
		}
		out += "\n"
	}
	return out
}

func (e *Enricher) analyzeTrack(ctx context.Context, track sources.Track) (*taxonomy.TrackAnalysis, error) {
	var snippets []string
	if e.Snippets != nil {
		query := searchQuery(track)
		found, err := e.Snippets.Fetch(ctx, query)
		if err != nil {
			e.log.Debug("Snippet fetch failed, using metadata only", "query", query, "error", err)
		} else {
			snippets = found
		}
	}

	schema, err := taxonomy.SchemaFor(taxonomy.StageTracks)
	if err != nil {
		return nil, err
	}
	systemPrompt, err := taxonomy.SystemPromptFor(taxonomy.StageTracks)
	if err != nil {
		return nil, err
	}

	raw, stageErr := e.Service.Executor.Run(ctx, llm.Request{
		Stage:        taxonomy.StageTracks,
		SystemPrompt: systemPrompt,
		UserPrompt:   taxonomy.TrackUserPrompt(track.Title, track.Artist, track.ReleaseYear, snippets),
		TextSummary:  trackMetadata(track),
		Schema:       schema,
		SchemaName:   taxonomy.SchemaNameFor(taxonomy.StageTracks),
		Validate:     func(b []byte) error { return taxonomy.ValidateStage(taxonomy.StageTracks, b) },
	})
	if stageErr != nil {
		return nil, stageErr
	}

	var analysis taxonomy.TrackAnalysis
	if err := json.Unmarshal(raw, &analysis); err != nil {
		return nil, fmt.Errorf("decode track analysis: %w", err)
	}
	return &analysis, nil
}

func trackKey(t sources.Track) string {
	return fmt.Sprintf("%q by %q", t.Title, t.Artist)
}

func searchQuery(t sources.Track) string {
	q := fmt.Sprintf("%s by %s", t.Title, t.Artist)
	if t.ReleaseYear > 0 {
		q += fmt.Sprintf(" %d", t.ReleaseYear)
	}
	return q + " lyrics meaning genre bpm mood"
}

func trackMetadata(t sources.Track) string {
	meta := fmt.Sprintf("Track: %s\nArtist: %s\nAlbum: %s", t.Title, t.Artist, t.Album)
	if t.ReleaseYear > 0 {
		meta += fmt.Sprintf("\nRelease year: %d", t.ReleaseYear)
	}
	meta += fmt.Sprintf("\nDuration: %d ms\nPopularity: %d", t.DurationMs, t.Popularity)
	if t.Explicit {
		meta += "\nExplicit: yes"
	}
	return meta
}
