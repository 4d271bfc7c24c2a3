package taxonomy

import (
	"fmt"
	"strings"
)

// Prompts follow a fixed two-message shape: a system message describing the
// classification task and a short user instruction. The workout's text summary
// is appended to the user message by the executor.

const categorySystemPrompt = `You are a fitness content classifier. Given the metadata of a workout
(video description, tags, comments, playlist or catalog details), classify the workout into one or
more subcategories from the closed list below. Rank subcategories by how well they describe the
workout, with scores between 0 and 1. Only include subcategories that genuinely apply.

Subcategories: %s`

const fitnessSystemPrompt = `You are a fitness content classifier. Given the metadata of a workout,
rate three dimensions:
- requiredFitnessLevel: the fitness levels a participant needs (%s)
- techniqueDifficulty: how technically demanding the movements are (%s)
- effortDifficulty: how physically taxing the session is (%s)
Each dimension is a ranked list with scores between 0 and 1. Include a level only when it genuinely
applies. A workout suitable for everyone should list multiple fitness levels.`

const equipmentSystemPrompt = `You are a fitness content classifier. Given the metadata of a workout,
list every piece of equipment the workout requires, each with a confidence between 0 and 1. Use only
labels from the closed list. Body-weight-only workouts need no entries.

Equipment: %s`

const spiritSystemPrompt = `You are a fitness content classifier. Every workout has a "spirit": its
fundamental energetic quality. Given the metadata of a workout, rank up to three spirits from the
closed list below with scores between 0 and 1.

Spirits: %s`

const vibeSystemPrompt = `You are a fitness content classifier. A workout "vibe" captures the
experiential feel of a session. Given the metadata of a workout, rank up to three vibes from the
catalog below with scores between 0 and 1. Pick only vibes that genuinely match.

Vibe catalog:
%s`

const trackSystemPrompt = `You are a music analyst. Given the metadata of a single track (and web
search snippets when provided), describe its genre, tempo, lyrical content and musical character.
If you are unsure of a value, give your best estimate.`

// SystemPromptFor returns the system prompt body for a stage.
func SystemPromptFor(stage string) (string, error) {
	switch stage {
	case StageCategory:
		return fmt.Sprintf(categorySystemPrompt, strings.Join(Subcategories, ", ")), nil
	case StageFitness:
		return fmt.Sprintf(fitnessSystemPrompt,
			strings.Join(FitnessLevels, ", "),
			strings.Join(TechniqueLevels, ", "),
			strings.Join(EffortLevels, ", ")), nil
	case StageEquipment:
		return fmt.Sprintf(equipmentSystemPrompt, strings.Join(Equipment, ", ")), nil
	case StageSpirit:
		return fmt.Sprintf(spiritSystemPrompt, strings.Join(Spirits, ", ")), nil
	case StageVibe:
		var b strings.Builder
		for _, v := range Vibes {
			fmt.Fprintf(&b, "- %s: %s\n", v, VibeGlossary[v])
		}
		return fmt.Sprintf(vibeSystemPrompt, b.String()), nil
	case StageTracks:
		return trackSystemPrompt, nil
	default:
		return "", fmt.Errorf("no system prompt for stage %q", stage)
	}
}

// UserPromptFor returns the user instruction for a stage. The executor appends
// the workout text summary below it.
func UserPromptFor(stage string) string {
	switch stage {
	case StageCategory:
		return "Classify the following workout into subcategories."
	case StageFitness:
		return "Rate the required fitness level, technique difficulty and effort difficulty of the following workout."
	case StageEquipment:
		return "List the equipment required by the following workout."
	case StageSpirit:
		return "Identify the spirit of the following workout."
	case StageVibe:
		return "Identify the vibes of the following workout."
	default:
		return "Analyze the following workout."
	}
}

// TrackUserPrompt renders the per-track instruction for the track enricher.
func TrackUserPrompt(title, artist string, year int, snippets []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyze the track %q by %q", title, artist)
	if year > 0 {
		fmt.Fprintf(&b, " (%d)", year)
	}
	b.WriteString(".")
	if len(snippets) > 0 {
		b.WriteString("\n\nWeb search snippets:\n")
		for _, s := range snippets {
			fmt.Fprintf(&b, "- %s\n", s)
		}
	}
	return b.String()
}
