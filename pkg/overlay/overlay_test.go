package overlay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nnatashok/vsp-poc-1-sub000/pkg/sources"
	"github.com/nnatashok/vsp-poc-1-sub000/pkg/taxonomy"
)

func hydrowBundle(workoutType, categoryName, summary string) *sources.ContextBundle {
	return &sources.ContextBundle{
		ID:          "hydrow_1",
		SourceType:  sources.SourceHydrow,
		TextSummary: summary,
		SourceHints: sources.Hints{WorkoutType: workoutType, CategoryName: categoryName},
	}
}

func TestCategoryOverride(t *testing.T) {
	tests := []struct {
		workoutType string
		want        string
	}{
		{"drive", "Indoor rowing"},
		{"sweat", "Indoor rowing"},
		{"breathe", "Indoor rowing"},
		{"journey", "Indoor rowing"},
		{"cool down", "Cool-down"},
		{"warm-up", "Warm-up"},
		{"strength", "Body weight"},
		{"stretching", "Stretching"},
		{"mobility", "Stretching"},
		{"flow", "Yoga"},
		{"restore", "Yoga"},
		{"align", "Yoga"},
		{"pilates", "Pilates"},
		{"circuit", "Calisthenics"},
	}
	for _, tt := range tests {
		t.Run(tt.workoutType, func(t *testing.T) {
			result, ok, err := CategoryOverride(hydrowBundle(tt.workoutType, "", ""))
			require.True(t, ok)
			require.NoError(t, err)
			require.Len(t, result.Categories, 1)
			assert.Equal(t, tt.want, result.Categories[0].Label)
			assert.Equal(t, 1.0, result.Categories[0].Score)
			assert.True(t, taxonomy.IsSubcategory(result.Categories[0].Label))
		})
	}
}

func TestCategoryOverrideUnknownTypeIsFatal(t *testing.T) {
	_, ok, err := CategoryOverride(hydrowBundle("underwater basket weaving", "", ""))
	require.True(t, ok)
	assert.Error(t, err)
}

func TestCategoryOverrideNonHydrow(t *testing.T) {
	_, ok, _ := CategoryOverride(&sources.ContextBundle{SourceType: sources.SourceYouTube})
	assert.False(t, ok)
}

func TestDefaultPlaylistFitness(t *testing.T) {
	d := DefaultPlaylistFitness()
	assert.Equal(t, [3]string{"Beginner", "Intermediate", "Advanced"}, d.FitnessLevels)
	assert.Equal(t, [3]string{"Beginner", "Intermediate", "Advanced"}, d.TechniqueLevels)
	assert.Equal(t, [3]string{"Light", "Moderate", "Challenging"}, d.EffortLevels)
}

func TestVibeOverride(t *testing.T) {
	result, ok := VibeOverride(hydrowBundle("journey", "Journeys", ""))
	require.True(t, ok)
	require.Len(t, result.Vibes, 2)
	assert.Equal(t, "The Nature Flow", result.Vibes[0].Label)
	assert.Equal(t, "The Mindful Walk", result.Vibes[1].Label)

	_, ok = VibeOverride(hydrowBundle("drive", "Rowing", ""))
	assert.False(t, ok)

	_, ok = VibeOverride(&sources.ContextBundle{SourceType: sources.SourceSpotify})
	assert.False(t, ok)
}

func TestSkipEquipment(t *testing.T) {
	assert.True(t, SkipEquipment(&sources.ContextBundle{SourceHints: sources.Hints{IsPlaylist: true}}))
	assert.False(t, SkipEquipment(hydrowBundle("drive", "", "")))
}

func TestFitnessPrefillRatedTypes(t *testing.T) {
	tests := []struct {
		workoutType string
		want        string
	}{
		{"breathe", "Beginner"},
		{"sweat", "Intermediate"},
		{"drive", "Advanced"},
	}
	for _, tt := range tests {
		t.Run(tt.workoutType, func(t *testing.T) {
			skeleton, ok := FitnessPrefill(hydrowBundle(tt.workoutType, "", ""))
			require.True(t, ok)
			require.Len(t, skeleton.RequiredFitnessLevel, 1)
			assert.Equal(t, tt.want, skeleton.RequiredFitnessLevel[0].Label)
			assert.False(t, skeleton.SuitableForAll())
			assert.Contains(t, skeleton.LevelHint(), tt.want)
		})
	}
}

func TestFitnessPrefillDistance(t *testing.T) {
	skeleton, ok := FitnessPrefill(hydrowBundle("distance", "", ""))
	require.True(t, ok)
	assert.Empty(t, skeleton.RequiredFitnessLevel)
	assert.False(t, skeleton.SuitableForAll())
	assert.Equal(t, "", skeleton.LevelHint())
}

func TestFitnessPrefillGenericType(t *testing.T) {
	skeleton, ok := FitnessPrefill(hydrowBundle("flow", "", "A relaxing session for everyone."))
	require.True(t, ok)
	require.Len(t, skeleton.RequiredFitnessLevel, 3)
	assert.True(t, skeleton.SuitableForAll())
	assert.Len(t, skeleton.TechniqueDifficulty, 2)
}

func TestFitnessPrefillBeginnerMention(t *testing.T) {
	skeleton, ok := FitnessPrefill(hydrowBundle("flow", "", "A Beginner friendly yoga flow."))
	require.True(t, ok)
	require.Len(t, skeleton.RequiredFitnessLevel, 2)
	assert.Equal(t, "Beginner", skeleton.RequiredFitnessLevel[0].Label)
	assert.Equal(t, "Intermediate", skeleton.RequiredFitnessLevel[1].Label)
	assert.False(t, skeleton.SuitableForAll())
}

func TestFitnessPrefillNonHydrow(t *testing.T) {
	_, ok := FitnessPrefill(&sources.ContextBundle{SourceType: sources.SourceYouTube})
	assert.False(t, ok)
}

func TestMergeFitness(t *testing.T) {
	llmResult := &taxonomy.FitnessResult{
		RequiredFitnessLevel: []taxonomy.LabelScore{{Label: "Elite", Score: 0.9}},
		TechniqueDifficulty:  []taxonomy.LabelScore{{Label: "Expert", Score: 0.9}},
		EffortDifficulty:     []taxonomy.LabelScore{{Label: "Extreme", Score: 0.9}},
		Confidence:           0.8,
	}

	// Single-level skeleton: only required fitness is overwritten.
	skeleton := &FitnessSkeleton{
		RequiredFitnessLevel: []taxonomy.LabelScore{{Label: "Advanced", Score: 1.0}},
		Explanation:          "rated type",
	}
	merged := MergeFitness(skeleton, llmResult)
	assert.Equal(t, "Advanced", merged.RequiredFitnessLevel[0].Label)
	assert.Equal(t, "Expert", merged.TechniqueDifficulty[0].Label)
	assert.Equal(t, "Extreme", merged.EffortDifficulty[0].Label)
	assert.Equal(t, "rated type", merged.Explanation)
	// Input untouched.
	assert.Equal(t, "Elite", llmResult.RequiredFitnessLevel[0].Label)

	// Suitable-for-all skeleton overwrites technique too.
	all := &FitnessSkeleton{
		RequiredFitnessLevel: []taxonomy.LabelScore{
			{Label: "Beginner", Score: 1.0}, {Label: "Intermediate", Score: 1.0}, {Label: "Advanced", Score: 1.0},
		},
		TechniqueDifficulty: []taxonomy.LabelScore{
			{Label: "Beginner", Score: 1.0}, {Label: "Intermediate", Score: 1.0},
		},
	}
	merged = MergeFitness(all, llmResult)
	assert.Len(t, merged.RequiredFitnessLevel, 3)
	assert.Len(t, merged.TechniqueDifficulty, 2)

	assert.Nil(t, MergeFitness(skeleton, nil))
	assert.Equal(t, llmResult, MergeFitness(nil, llmResult))
}
