// Package taxonomy holds the closed enumerations, roll-up tables and JSON
// response schemas shared by every classifier stage. All labels emitted by the
// pipeline are validated against these sets.
package taxonomy

// Stage names. These double as cache artifact suffixes.
const (
	StageMetadata  = "metadata"
	StageCategory  = "category"
	StageFitness   = "fitness_level"
	StageEquipment = "equipment"
	StageSpirit    = "spirit"
	StageVibe      = "vibe"
	StageTracks    = "tracks"
	StageEmbedding = "embedding"
)

// ClassifierStages is the fixed orchestration order.
var ClassifierStages = []string{StageCategory, StageFitness, StageEquipment, StageSpirit, StageVibe}

// Subcategories is the closed set of workout subcategories.
var Subcategories = []string{
	"Elliptical",
	"HIIT",
	"Indoor biking",
	"Indoor rowing",
	"Mat",
	"Running",
	"Treadmill",
	"Walking",
	"Pilates",
	"Stretching",
	"Yoga",
	"Breathing exercises",
	"Meditation",
	"Body weight",
	"Calisthenics",
	"Weight workout",
	"Cool-down",
	"Warm-up",
}

// categoryBySubcategory rolls a subcategory up to its coarse category.
var categoryBySubcategory = map[string]string{
	"Elliptical":          "Cardio",
	"HIIT":                "Cardio",
	"Indoor biking":       "Cardio",
	"Indoor rowing":       "Cardio",
	"Mat":                 "Cardio",
	"Running":             "Cardio",
	"Treadmill":           "Cardio",
	"Walking":             "Cardio",
	"Pilates":             "Flexibility",
	"Stretching":          "Flexibility",
	"Yoga":                "Flexibility",
	"Breathing exercises": "Rest",
	"Meditation":          "Rest",
	"Body weight":         "Strength",
	"Calisthenics":        "Strength",
	"Weight workout":      "Strength",
}

// CategoryFor returns the coarse category for a subcategory. Unknown
// subcategories map to "Other".
func CategoryFor(subcategory string) string {
	if c, ok := categoryBySubcategory[subcategory]; ok {
		return c
	}
	return "Other"
}

// FitnessLevels includes Elite, which is rewritten to Advanced on emission.
var FitnessLevels = []string{"Beginner", "Intermediate", "Advanced", "Elite"}

var TechniqueLevels = []string{"Beginner", "Intermediate", "Advanced", "Expert"}

var EffortLevels = []string{"Light", "Moderate", "Challenging", "Extreme"}

// Spirits is the closed set of six workout spirits.
var Spirits = []string{
	"High-Energy & Intense",
	"Flow & Rhythm",
	"Structured & Disciplined",
	"Soothing & Restorative",
	"Sport & Agility",
	"Outdoor & Adventure",
}

// Equipment is the raw 21-item equipment enumeration.
var Equipment = []string{
	"Dumbbells",
	"Barbell",
	"Kettlebell",
	"Medicine ball",
	"Resistance bands",
	"Ankle weights",
	"Jump rope",
	"Pull-up bar",
	"Weight bench",
	"Stability ball",
	"Yoga mat",
	"Yoga blocks",
	"Foam roller",
	"Suspension trainer",
	"Sliders",
	"Rowing machine",
	"Treadmill",
	"Exercise bike",
	"Elliptical machine",
	"Stair climber",
	"Other",
}

// equipmentFamily collapses raw equipment labels into the coarse families the
// flat record exposes. Anything unlisted is "Other".
var equipmentFamily = map[string]string{
	"Dumbbells":      "Weights",
	"Barbell":        "Weights",
	"Kettlebell":     "Weights",
	"Medicine ball":  "Weights",
	"Ankle weights":  "Weights",
	"Weight bench":   "Weights",
	"Rowing machine": "Rower",
	"Treadmill":      "Treadmill",
	"Exercise bike":  "Exercise Bike",
}

// EquipmentFamilyFor maps a raw equipment label to its coarse family.
func EquipmentFamilyFor(raw string) string {
	if f, ok := equipmentFamily[raw]; ok {
		return f
	}
	return "Other"
}

// Vibes is the closed 26-label vibe catalog.
var Vibes = []string{
	"The Warrior Workout",
	"The Firestarter",
	"The Nightclub Workout",
	"The Competitor",
	"The Adrenaline Rush",
	"The Groove Session",
	"The Meditative Grind",
	"The Zen Flow",
	"The Rhythmic Powerhouse",
	"The Endorphin Wave",
	"The Progression Quest",
	"The Masterclass Workout",
	"The Disciplined Grind",
	"The Tactical Athlete",
	"The Foundation Builder",
	"The Reboot Workout",
	"The Comfort Moves",
	"The Mindful Walk",
	"The Deep Recharge",
	"The Sleep Prep",
	"The Athlete's Circuit",
	"The Speed & Power Sprint",
	"The Fight Camp",
	"The Explorer's Workout",
	"The Ruck Challenge",
	"The Nature Flow",
}

// VibeGlossary gives each vibe a fixed one-sentence description. The embedding
// description embeds these verbatim; cache validity checks depend on the exact
// wording, so treat changes as cache-busting.
var VibeGlossary = map[string]string{
	"The Warrior Workout":      "an all-out battle against your own limits, built on grit, sweat and raw intensity",
	"The Firestarter":          "a short, explosive session that ignites energy fast and leaves you buzzing",
	"The Nightclub Workout":    "a party-atmosphere session driven by loud beats, flashing energy and dance-floor moves",
	"The Competitor":           "a score-chasing, leaderboard-minded session that turns effort into a contest",
	"The Adrenaline Rush":      "a thrill-seeking session of fast transitions and heart-pounding peaks",
	"The Groove Session":       "a rhythm-led, feel-good flow where the music carries the movement",
	"The Meditative Grind":     "a long, steady effort that becomes a moving meditation through repetition",
	"The Zen Flow":             "a calm, centering practice linking breath and slow deliberate movement",
	"The Rhythmic Powerhouse":  "a strong, beat-synced session where power moves land on the music",
	"The Endorphin Wave":       "a mood-lifting cardio ride that builds to a euphoric finish",
	"The Progression Quest":    "a skill-building journey with clear levels, milestones and measurable gains",
	"The Masterclass Workout":  "a technique-first session led like a clinic, heavy on cues and form detail",
	"The Disciplined Grind":    "a no-frills, structured session built on consistency and hard work",
	"The Tactical Athlete":     "a mission-style functional session inspired by military and first-responder training",
	"The Foundation Builder":   "a fundamentals-focused session laying safe groundwork for harder training",
	"The Reboot Workout":       "a gentle reset for body and mind after stress, travel or time off",
	"The Comfort Moves":        "an easy, familiar, low-pressure session for moving without strain",
	"The Mindful Walk":         "a relaxed walking session that clears the head and keeps the body loose",
	"The Deep Recharge":        "a deeply restorative session of long holds, slow breath and full release",
	"The Sleep Prep":           "a wind-down practice that downshifts the nervous system before bed",
	"The Athlete's Circuit":    "a performance-oriented circuit mixing strength, power and conditioning",
	"The Speed & Power Sprint": "a maximal-output interval session built on short sprints and explosive reps",
	"The Fight Camp":           "a combat-sports session of strikes, footwork and fight conditioning",
	"The Explorer's Workout":   "an adventurous session that turns terrain and surroundings into the gym",
	"The Ruck Challenge":       "a loaded-carry endurance challenge of weighted walking and grit",
	"The Nature Flow":          "an outdoor-spirited session moving with scenery, fresh air and open space",
}

// IsSubcategory reports whether label is a member of the subcategory enum.
func IsSubcategory(label string) bool { return contains(Subcategories, label) }

func IsFitnessLevel(label string) bool { return contains(FitnessLevels, label) }

func IsTechniqueLevel(label string) bool { return contains(TechniqueLevels, label) }

func IsEffortLevel(label string) bool { return contains(EffortLevels, label) }

func IsSpirit(label string) bool { return contains(Spirits, label) }

func IsVibe(label string) bool { return contains(Vibes, label) }

func IsEquipment(label string) bool { return contains(Equipment, label) }

func contains(set []string, label string) bool {
	for _, s := range set {
		if s == label {
			return true
		}
	}
	return false
}
