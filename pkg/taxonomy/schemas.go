package taxonomy

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Response schemas are strict: additionalProperties is false everywhere, every
// field is required, labels are enum-constrained and scores are bounded to
// [0,1]. The marshaled schema is handed to the LLM verbatim.

var stageSchemas = map[string]json.RawMessage{}

func init() {
	stageSchemas[StageCategory] = mustMarshal(objectSchema(map[string]any{
		"categories": scoredArraySchema("Workout subcategories ranked by score", Subcategories, 3),
		"confidence": scoreSchema("Overall classification confidence"),
		"explanation": map[string]any{
			"type":        "string",
			"description": "Short free-text rationale for the classification",
		},
	}))

	stageSchemas[StageFitness] = mustMarshal(objectSchema(map[string]any{
		"requiredFitnessLevel": scoredArraySchema("Fitness levels a participant needs, ranked by score", FitnessLevels, 4),
		"techniqueDifficulty":  scoredArraySchema("Technique difficulty ratings ranked by score", TechniqueLevels, 4),
		"effortDifficulty":     scoredArraySchema("Effort difficulty ratings ranked by score", EffortLevels, 4),
		"confidence":           scoreSchema("Overall classification confidence"),
		"explanation": map[string]any{
			"type":        "string",
			"description": "Short free-text rationale for the classification",
		},
	}))

	stageSchemas[StageEquipment] = mustMarshal(objectSchema(map[string]any{
		"requiredEquipment": map[string]any{
			"type":        "array",
			"description": "Equipment the workout requires, with per-item confidence",
			"items": objectSchema(map[string]any{
				"equipment": map[string]any{
					"type": "string",
					"enum": Equipment,
				},
				"confidence": scoreSchema("Confidence that this equipment is required"),
			}),
		},
		"confidence": scoreSchema("Overall classification confidence"),
		"explanation": map[string]any{
			"type":        "string",
			"description": "Short free-text rationale for the classification",
		},
	}))

	stageSchemas[StageSpirit] = mustMarshal(objectSchema(map[string]any{
		"spirits":    scoredArraySchema("Workout spirits ranked by score", Spirits, 3),
		"confidence": scoreSchema("Overall classification confidence"),
		"explanation": map[string]any{
			"type":        "string",
			"description": "Short free-text rationale for the classification",
		},
	}))

	stageSchemas[StageVibe] = mustMarshal(objectSchema(map[string]any{
		"vibes":      scoredArraySchema("Workout vibes ranked by score", Vibes, 3),
		"confidence": scoreSchema("Overall classification confidence"),
		"explanation": map[string]any{
			"type":        "string",
			"description": "Short free-text rationale for the classification",
		},
	}))

	levelEnum := []string{"Low", "Medium", "High"}
	stageSchemas[StageTracks] = mustMarshal(objectSchema(map[string]any{
		"genre": map[string]any{"type": "string", "description": "Primary music genre"},
		"bpm":   map[string]any{"type": "integer", "minimum": 0, "maximum": 300, "description": "Approximate tempo in beats per minute"},
		"lyricsSummary": map[string]any{
			"type":        "string",
			"description": "One-sentence summary of the lyrics, empty if instrumental",
		},
		"lyricsSentiment":   map[string]any{"type": "string", "description": "Overall lyrical sentiment"},
		"musicEnergy":       map[string]any{"type": "string", "enum": levelEnum},
		"musicDanceability": map[string]any{"type": "string", "enum": levelEnum},
		"valence":           map[string]any{"type": "string", "enum": levelEnum},
		"mode":              map[string]any{"type": "string", "enum": []string{"Major", "Minor"}},
	}))
}

// SchemaFor returns the JSON response schema for a stage.
func SchemaFor(stage string) (json.RawMessage, error) {
	s, ok := stageSchemas[stage]
	if !ok {
		return nil, fmt.Errorf("no response schema for stage %q", stage)
	}
	return s, nil
}

// SchemaNameFor returns the schema name advertised to the LLM for a stage.
func SchemaNameFor(stage string) string {
	return "workout_" + stage + "_classification"
}

func objectSchema(props map[string]any) map[string]any {
	required := make([]string, 0, len(props))
	for name := range props {
		required = append(required, name)
	}
	// Stable order for verbatim schema transmission.
	sort.Strings(required)
	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"required":             required,
		"additionalProperties": false,
	}
}

func scoredArraySchema(description string, enum []string, maxItems int) map[string]any {
	return map[string]any{
		"type":        "array",
		"description": description + ". Omit any label that does not apply with score above zero.",
		"minItems":    0,
		"maxItems":    maxItems,
		"items": objectSchema(map[string]any{
			"label": map[string]any{"type": "string", "enum": enum},
			"score": scoreSchema("Relevance score"),
		}),
	}
}

func scoreSchema(description string) map[string]any {
	return map[string]any{
		"type":        "number",
		"minimum":     0,
		"maximum":     1,
		"description": description,
	}
}

func mustMarshal(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
