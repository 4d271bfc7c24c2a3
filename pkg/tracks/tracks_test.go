package tracks

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nnatashok/vsp-poc-1-sub000/pkg/sources"
	"github.com/nnatashok/vsp-poc-1-sub000/pkg/taxonomy"
)

func TestTrackKey(t *testing.T) {
	key := trackKey(sources.Track{Title: "Run It", Artist: "DJ Example"})
	assert.Equal(t, `"Run It" by "DJ Example"`, key)
}

func TestSearchQuery(t *testing.T) {
	q := searchQuery(sources.Track{Title: "Run It", Artist: "DJ Example", ReleaseYear: 2021})
	assert.Equal(t, "Run It by DJ Example 2021 lyrics meaning genre bpm mood", q)

	q = searchQuery(sources.Track{Title: "Pace", Artist: "Runner"})
	assert.Equal(t, "Pace by Runner lyrics meaning genre bpm mood", q)
}

func TestTrackMetadata(t *testing.T) {
	meta := trackMetadata(sources.Track{
		Title: "Run It", Artist: "DJ Example", Album: "Heat",
		ReleaseYear: 2021, DurationMs: 201000, Explicit: true, Popularity: 77,
	})
	assert.Contains(t, meta, "Track: Run It")
	assert.Contains(t, meta, "Artist: DJ Example")
	assert.Contains(t, meta, "Release year: 2021")
	assert.Contains(t, meta, "Explicit: yes")
}

func TestSummary(t *testing.T) {
	bundle := &sources.ContextBundle{
		Tracks: []sources.Track{
			{Title: "Run It", Artist: "DJ Example"},
			{Title: "Silent", Artist: "Nobody"},
		},
	}
	analyses := map[string]taxonomy.TrackAnalysis{
		`"Run It" by "DJ Example"`: {
			Genre: "hip hop", BPM: 96, MusicEnergy: "High", MusicDanceability: "High",
			Valence: "Medium", Mode: "Minor",
			LyricsSummary: "pushing through", LyricsSentiment: "positive",
		},
		// Failed analysis cached as the zero value: excluded from summary.
		`"Silent" by "Nobody"`: {},
	}

	out := Summary(analyses, bundle)
	assert.Contains(t, out, "Track analysis:")
	assert.Contains(t, out, `"Run It" by "DJ Example": genre hip hop, 96 bpm, energy High`)
	assert.Contains(t, out, "lyrics: pushing through (positive)")
	assert.NotContains(t, out, "Silent")
}

func TestSummaryEmpty(t *testing.T) {
	assert.Equal(t, "", Summary(nil, &sources.ContextBundle{}))
	assert.Equal(t, "", Summary(map[string]taxonomy.TrackAnalysis{}, &sources.ContextBundle{}))
}
