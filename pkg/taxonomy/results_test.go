package taxonomy

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateStage(t *testing.T) {
	tests := []struct {
		name    string
		stage   string
		raw     string
		wantErr string
	}{
		{
			name:  "valid category",
			stage: StageCategory,
			raw:   `{"categories":[{"label":"Yoga","score":0.9},{"label":"Stretching","score":0.4}],"confidence":0.85,"explanation":"x"}`,
		},
		{
			name:    "category unknown label",
			stage:   StageCategory,
			raw:     `{"categories":[{"label":"Zumba","score":0.9}],"confidence":0.8,"explanation":"x"}`,
			wantErr: `unknown label "Zumba"`,
		},
		{
			name:    "category over cap",
			stage:   StageCategory,
			raw:     `{"categories":[{"label":"Yoga","score":0.9},{"label":"Mat","score":0.8},{"label":"HIIT","score":0.7},{"label":"Running","score":0.6}],"confidence":0.8,"explanation":"x"}`,
			wantErr: "exceeds cap of 3",
		},
		{
			name:    "score out of range",
			stage:   StageCategory,
			raw:     `{"categories":[{"label":"Yoga","score":1.2}],"confidence":0.8,"explanation":"x"}`,
			wantErr: "outside [0,1]",
		},
		{
			name:  "valid fitness",
			stage: StageFitness,
			raw:   `{"requiredFitnessLevel":[{"label":"Beginner","score":1}],"techniqueDifficulty":[{"label":"Beginner","score":0.7}],"effortDifficulty":[{"label":"Moderate","score":0.8}],"confidence":0.9,"explanation":"x"}`,
		},
		{
			name:    "fitness wrong dimension label",
			stage:   StageFitness,
			raw:     `{"requiredFitnessLevel":[{"label":"Expert","score":1}],"techniqueDifficulty":[],"effortDifficulty":[],"confidence":0.9,"explanation":"x"}`,
			wantErr: `unknown label "Expert"`,
		},
		{
			name:  "valid equipment",
			stage: StageEquipment,
			raw:   `{"requiredEquipment":[{"equipment":"Rowing machine","confidence":0.95},{"equipment":"Yoga mat","confidence":0.3}],"confidence":0.9,"explanation":"x"}`,
		},
		{
			name:    "equipment unknown label",
			stage:   StageEquipment,
			raw:     `{"requiredEquipment":[{"equipment":"Rower","confidence":0.95}],"confidence":0.9,"explanation":"x"}`,
			wantErr: `unknown label "Rower"`,
		},
		{
			name:  "valid spirit",
			stage: StageSpirit,
			raw:   `{"spirits":[{"label":"Flow & Rhythm","score":0.8}],"confidence":0.7,"explanation":"x"}`,
		},
		{
			name:  "valid vibe",
			stage: StageVibe,
			raw:   `{"vibes":[{"label":"The Zen Flow","score":0.9},{"label":"The Deep Recharge","score":0.6}],"confidence":0.8,"explanation":"x"}`,
		},
		{
			name:    "vibe confidence out of range",
			stage:   StageVibe,
			raw:     `{"vibes":[{"label":"The Zen Flow","score":0.9}],"confidence":-0.1,"explanation":"x"}`,
			wantErr: "outside [0,1]",
		},
		{
			name:  "valid track analysis",
			stage: StageTracks,
			raw:   `{"genre":"pop","bpm":120,"lyricsSummary":"","lyricsSentiment":"","musicEnergy":"High","musicDanceability":"Medium","valence":"High","mode":"Major"}`,
		},
		{
			name:    "unknown stage",
			stage:   "nonsense",
			raw:     `{}`,
			wantErr: "unknown stage",
		},
		{
			name:    "not json",
			stage:   StageCategory,
			raw:     `not json`,
			wantErr: "decode category result",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStage(tt.stage, []byte(tt.raw))
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestSchemaForAllStages(t *testing.T) {
	for _, stage := range append(append([]string{}, ClassifierStages...), StageTracks) {
		schema, err := SchemaFor(stage)
		require.NoError(t, err, "stage %s", stage)

		var parsed map[string]any
		require.NoError(t, json.Unmarshal(schema, &parsed), "stage %s", stage)
		assert.Equal(t, "object", parsed["type"], "stage %s", stage)
		assert.Equal(t, false, parsed["additionalProperties"], "stage %s", stage)
		assert.NotEmpty(t, parsed["required"], "stage %s", stage)
		assert.NotEmpty(t, SchemaNameFor(stage), "stage %s", stage)
	}
}

func TestSchemaForUnknownStage(t *testing.T) {
	_, err := SchemaFor("metadata")
	assert.Error(t, err)
}
