package taxonomy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryFor(t *testing.T) {
	tests := []struct {
		subcategory string
		want        string
	}{
		{"Indoor rowing", "Cardio"},
		{"HIIT", "Cardio"},
		{"Mat", "Cardio"},
		{"Yoga", "Flexibility"},
		{"Pilates", "Flexibility"},
		{"Meditation", "Rest"},
		{"Breathing exercises", "Rest"},
		{"Body weight", "Strength"},
		{"Weight workout", "Strength"},
		{"Cool-down", "Other"},
		{"Warm-up", "Other"},
		{"Not a subcategory", "Other"},
		{"", "Other"},
	}
	for _, tt := range tests {
		t.Run(tt.subcategory, func(t *testing.T) {
			assert.Equal(t, tt.want, CategoryFor(tt.subcategory))
		})
	}
}

func TestCategoryForCoversEverySubcategory(t *testing.T) {
	// Every member of the closed set must roll up to one of the five
	// categories; nothing may fall through by accident.
	known := map[string]bool{"Cardio": true, "Flexibility": true, "Rest": true, "Strength": true, "Other": true}
	for _, sub := range Subcategories {
		assert.True(t, known[CategoryFor(sub)], "subcategory %q", sub)
	}
}

func TestEquipmentFamilyFor(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"Dumbbells", "Weights"},
		{"Barbell", "Weights"},
		{"Kettlebell", "Weights"},
		{"Weight bench", "Weights"},
		{"Rowing machine", "Rower"},
		{"Treadmill", "Treadmill"},
		{"Exercise bike", "Exercise Bike"},
		{"Yoga mat", "Other"},
		{"Jump rope", "Other"},
		{"unknown thing", "Other"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, EquipmentFamilyFor(tt.raw))
		})
	}
}

func TestVibeGlossaryMatchesCatalog(t *testing.T) {
	require.Len(t, VibeGlossary, len(Vibes))
	for _, v := range Vibes {
		gloss, ok := VibeGlossary[v]
		require.True(t, ok, "vibe %q has no glossary entry", v)
		assert.NotEmpty(t, gloss)
	}
}

func TestMembershipHelpers(t *testing.T) {
	assert.True(t, IsSubcategory("Yoga"))
	assert.False(t, IsSubcategory("yoga"))
	assert.True(t, IsFitnessLevel("Elite"))
	assert.False(t, IsFitnessLevel("Expert"))
	assert.True(t, IsTechniqueLevel("Expert"))
	assert.False(t, IsTechniqueLevel("Elite"))
	assert.True(t, IsEffortLevel("Extreme"))
	assert.True(t, IsSpirit("Flow & Rhythm"))
	assert.True(t, IsVibe("The Nature Flow"))
	assert.False(t, IsVibe("Nature Flow"))
	assert.True(t, IsEquipment("Other"))
	assert.False(t, IsEquipment("Rower"))
}
