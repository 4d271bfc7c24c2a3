// Package overlay implements the deterministic source-specific rules that win
// over any LLM output. The orchestrator consults it around every stage call so
// cached artifacts already reflect the authoritative values.
package overlay

import (
	"fmt"
	"strings"

	"github.com/nnatashok/vsp-poc-1-sub000/pkg/sources"
	"github.com/nnatashok/vsp-poc-1-sub000/pkg/taxonomy"
)

// subcategoryByWorkoutType is the fixed Hydrow workout-type mapping. The
// category stage is skipped entirely for Hydrow workouts.
var subcategoryByWorkoutType = map[string]string{
	"cool down":  "Cool-down",
	"strength":   "Body weight",
	"stretching": "Stretching",
	"warm-up":    "Warm-up",
	"drive":      "Indoor rowing",
	"sweat":      "Indoor rowing",
	"flow":       "Yoga",
	"breathe":    "Indoor rowing",
	"pilates":    "Pilates",
	"restore":    "Yoga",
	"align":      "Yoga",
	"mobility":   "Stretching",
	"circuit":    "Calisthenics",
	"journey":    "Indoor rowing",
}

// fitnessLevelByWorkoutType drives the single-level Hydrow prefills.
var fitnessLevelByWorkoutType = map[string]string{
	"breathe": "Beginner",
	"sweat":   "Intermediate",
	"drive":   "Advanced",
}

// CategoryOverride returns a fully determined category result for sources
// whose category never goes through the LLM. An unknown Hydrow workout type is
// a fatal error for the workout.
func CategoryOverride(bundle *sources.ContextBundle) (*taxonomy.CategoryResult, bool, error) {
	if bundle.SourceType != sources.SourceHydrow {
		return nil, false, nil
	}
	wt := bundle.SourceHints.WorkoutType
	sub, ok := subcategoryByWorkoutType[wt]
	if !ok {
		return nil, true, fmt.Errorf("unknown hydrow workout type %q", wt)
	}
	return &taxonomy.CategoryResult{
		Categories:  []taxonomy.LabelScore{{Label: sub, Score: 1.0}},
		Confidence:  1.0,
		Explanation: fmt.Sprintf("Hydrow workout type %q maps directly to %q.", wt, sub),
	}, true, nil
}

// VibeOverride replaces the vibe stage for Hydrow Journey workouts with a
// fixed pair.
func VibeOverride(bundle *sources.ContextBundle) (*taxonomy.VibeResult, bool) {
	if bundle.SourceType != sources.SourceHydrow {
		return nil, false
	}
	if !strings.Contains(bundle.SourceHints.CategoryName, "Journey") {
		return nil, false
	}
	return &taxonomy.VibeResult{
		Vibes: []taxonomy.LabelScore{
			{Label: "The Nature Flow", Score: 1.0},
			{Label: "The Mindful Walk", Score: 1.0},
		},
		Confidence:  1.0,
		Explanation: "Hydrow Journey workouts are scenic rows; the vibe is fixed by policy.",
	}, true
}

// SkipEquipment reports whether the equipment stage is skipped for the
// workout. Playlist workouts derive equipment from the final subcategory
// during transformation instead.
func SkipEquipment(bundle *sources.ContextBundle) bool {
	return bundle.SourceHints.IsPlaylist
}

// FitnessSkeleton is a precomputed fitness prefill. Its RequiredFitnessLevel
// always overwrites the LLM's; TechniqueDifficulty overwrites too when the
// workout is suitable for all levels.
type FitnessSkeleton struct {
	RequiredFitnessLevel []taxonomy.LabelScore
	TechniqueDifficulty  []taxonomy.LabelScore
	Explanation          string
}

// SuitableForAll reports whether the skeleton carries all three ranked levels.
func (s *FitnessSkeleton) SuitableForAll() bool {
	return len(s.RequiredFitnessLevel) == 3
}

// LevelHint renders the prefilled levels for appending to the fitness user
// prompt.
func (s *FitnessSkeleton) LevelHint() string {
	if len(s.RequiredFitnessLevel) == 0 {
		return ""
	}
	levels := make([]string, len(s.RequiredFitnessLevel))
	for i, l := range s.RequiredFitnessLevel {
		levels[i] = l.Label
	}
	return "\n\nKnown required fitness levels for this workout: " + strings.Join(levels, ", ")
}

// FitnessPrefill computes the Hydrow fitness skeleton. The second return is
// false for non-Hydrow sources.
func FitnessPrefill(bundle *sources.ContextBundle) (*FitnessSkeleton, bool) {
	if bundle.SourceType != sources.SourceHydrow {
		return nil, false
	}

	wt := bundle.SourceHints.WorkoutType
	if wt == "distance" {
		return &FitnessSkeleton{
			Explanation: "Distance workouts are self-paced and are not classified by required fitness level.",
		}, true
	}

	if level, ok := fitnessLevelByWorkoutType[wt]; ok {
		return &FitnessSkeleton{
			RequiredFitnessLevel: []taxonomy.LabelScore{{Label: level, Score: 1.0}},
			Explanation:          fmt.Sprintf("Hydrow %q workouts require %s fitness by policy.", wt, level),
		}, true
	}

	levels := []taxonomy.LabelScore{
		{Label: "Beginner", Score: 1.0},
		{Label: "Intermediate", Score: 1.0},
		{Label: "Advanced", Score: 1.0},
	}
	if strings.Contains(strings.ToLower(bundle.TextSummary), "beginner") {
		levels = levels[:2]
	}
	return &FitnessSkeleton{
		RequiredFitnessLevel: levels,
		TechniqueDifficulty: []taxonomy.LabelScore{
			{Label: "Beginner", Score: 1.0},
			{Label: "Intermediate", Score: 1.0},
		},
		Explanation: "Hydrow workouts outside the rated types are suitable across fitness levels.",
	}, true
}

// MergeFitness overwrites the LLM fitness result with the skeleton's
// authoritative fields.
func MergeFitness(skeleton *FitnessSkeleton, result *taxonomy.FitnessResult) *taxonomy.FitnessResult {
	if skeleton == nil || result == nil {
		return result
	}
	merged := *result
	merged.RequiredFitnessLevel = skeleton.RequiredFitnessLevel
	if skeleton.SuitableForAll() {
		merged.TechniqueDifficulty = skeleton.TechniqueDifficulty
	}
	if skeleton.Explanation != "" {
		merged.Explanation = skeleton.Explanation
	}
	return &merged
}

// PlaylistFitnessDefaults are the slots used when the fitness stage is
// disabled for playlist sources.
type PlaylistFitnessDefaults struct {
	FitnessLevels   [3]string
	TechniqueLevels [3]string
	EffortLevels    [3]string
}

// DefaultPlaylistFitness returns the fixed playlist fallback rankings.
func DefaultPlaylistFitness() PlaylistFitnessDefaults {
	return PlaylistFitnessDefaults{
		FitnessLevels:   [3]string{"Beginner", "Intermediate", "Advanced"},
		TechniqueLevels: [3]string{"Beginner", "Intermediate", "Advanced"},
		EffortLevels:    [3]string{"Light", "Moderate", "Challenging"},
	}
}
