package pipeline

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/nnatashok/vsp-poc-1-sub000/pkg/overlay"
	"github.com/nnatashok/vsp-poc-1-sub000/pkg/taxonomy"
)

// Slot thresholds. Secondary and tertiary slots must strictly exceed 0.5 for
// most dimensions, matching the equipment confidence cutoff; fitness levels
// qualify at 0.4 exactly. An unfilled slot is never backfilled from a
// lower-ranked candidate.
const (
	slotThreshold        = 0.5
	fitnessSlotThreshold = 0.4
)

func exceedsSlot(score float64) bool { return score > slotThreshold }

func meetsFitnessSlot(score float64) bool { return score >= fitnessSlotThreshold }

// Missing-tag review comments.
const (
	missingCategory     = "missing_category"
	missingSubcategory  = "missing_subcategory"
	missingFitnessLevel = "missing_fitness_level"
	missingPrimaryVibe  = "missing_primary_vibe"
)

// FlatRecord is the denormalized emission row. Empty strings are null slots.
type FlatRecord struct {
	VideoID                      string
	VideoURL                     string
	VideoTitle                   string
	ChannelTitle                 string
	Duration                     string // hh:mm:ss
	DurationMinutes              int
	PosterURI                    string
	Category                     string
	Subcategory                  string
	SecondaryCategory            string
	SecondarySubcategory         string
	FitnessLevel                 string
	SecondaryFitnessLevel        string
	TertiaryFitnessLevel         string
	PrimaryEquipment             string
	SecondaryEquipment           string
	TertiaryEquipment            string
	PrimarySpirit                string
	SecondarySpirit              string
	PrimaryVibe                  string
	SecondaryVibe                string
	PrimaryTechniqueDifficulty   string
	SecondaryTechniqueDifficulty string
	TertiaryTechniqueDifficulty  string
	PrimaryEffortDifficulty      string
	SecondaryEffortDifficulty    string
	TertiaryEffortDifficulty     string
	Reviewable                   bool
	ReviewComment                string
	FullAnalysisJSON             string
	Embedding                    string
}

// Header is the fixed output CSV column order.
var Header = []string{
	"video_id", "video_url", "video_title", "channel_title",
	"duration", "duration_minutes", "poster_uri",
	"category", "subcategory", "secondary_category", "secondary_subcategory",
	"fitness_level", "secondary_fitness_level", "tertiary_fitness_level",
	"primary_equipment", "secondary_equipment", "tertiary_equipment",
	"primary_spirit", "secondary_spirit",
	"primary_vibe", "secondary_vibe",
	"primary_technique_difficulty", "secondary_technique_difficulty", "tertiary_technique_difficulty",
	"primary_effort_difficulty", "secondary_effort_difficulty", "tertiary_effort_difficulty",
	"reviewable", "review_comment", "full_analysis_json", "embedding",
}

// Row renders the record in Header order.
func (r *FlatRecord) Row() []string {
	return []string{
		r.VideoID, r.VideoURL, r.VideoTitle, r.ChannelTitle,
		r.Duration, fmt.Sprintf("%d", r.DurationMinutes), r.PosterURI,
		r.Category, r.Subcategory, r.SecondaryCategory, r.SecondarySubcategory,
		r.FitnessLevel, r.SecondaryFitnessLevel, r.TertiaryFitnessLevel,
		r.PrimaryEquipment, r.SecondaryEquipment, r.TertiaryEquipment,
		r.PrimarySpirit, r.SecondarySpirit,
		r.PrimaryVibe, r.SecondaryVibe,
		r.PrimaryTechniqueDifficulty, r.SecondaryTechniqueDifficulty, r.TertiaryTechniqueDifficulty,
		r.PrimaryEffortDifficulty, r.SecondaryEffortDifficulty, r.TertiaryEffortDifficulty,
		fmt.Sprintf("%t", r.Reviewable), r.ReviewComment, r.FullAnalysisJSON, r.Embedding,
	}
}

// Transform collapses an aggregated result into the flat emission row. It is
// a pure function: same input, same output, byte for byte.
func Transform(agg *Aggregated) *FlatRecord {
	rec := &FlatRecord{
		VideoID:         agg.ID,
		VideoURL:        agg.URL,
		VideoTitle:      agg.Title,
		ChannelTitle:    agg.Channel,
		Duration:        formatHMS(agg.DurationSeconds),
		DurationMinutes: int(math.Round(float64(agg.DurationSeconds) / 60)),
		PosterURI:       agg.PosterURI,
	}

	applyCategory(rec, agg.Category)
	applyFitness(rec, agg)
	applyEquipment(rec, agg)
	applySpirit(rec, agg.Spirit)
	applyVibe(rec, agg.Vibe)
	applyReviewability(rec, agg)

	if full, err := json.Marshal(agg); err == nil {
		rec.FullAnalysisJSON = string(full)
	}

	return rec
}

func applyCategory(rec *FlatRecord, result *taxonomy.CategoryResult) {
	if result == nil || len(result.Categories) == 0 {
		return
	}
	ranked := sortedByScore(result.Categories)

	rec.Subcategory = ranked[0].Label
	rec.Category = taxonomy.CategoryFor(rec.Subcategory)
	if len(ranked) > 1 && exceedsSlot(ranked[1].Score) {
		rec.SecondarySubcategory = ranked[1].Label
		rec.SecondaryCategory = taxonomy.CategoryFor(rec.SecondarySubcategory)
	}
}

func applyFitness(rec *FlatRecord, agg *Aggregated) {
	result := agg.Fitness
	if result == nil {
		if agg.IsPlaylist {
			applyPlaylistFitnessDefaults(rec)
		}
		return
	}

	fitness := slots3(result.RequiredFitnessLevel, meetsFitnessSlot)
	rec.FitnessLevel = rewriteElite(fitness[0])
	rec.SecondaryFitnessLevel = rewriteElite(fitness[1])
	rec.TertiaryFitnessLevel = rewriteElite(fitness[2])

	technique := slots3(result.TechniqueDifficulty, exceedsSlot)
	rec.PrimaryTechniqueDifficulty = technique[0]
	rec.SecondaryTechniqueDifficulty = technique[1]
	rec.TertiaryTechniqueDifficulty = technique[2]

	effort := slots3(result.EffortDifficulty, exceedsSlot)
	rec.PrimaryEffortDifficulty = effort[0]
	rec.SecondaryEffortDifficulty = effort[1]
	rec.TertiaryEffortDifficulty = effort[2]
}

func applyPlaylistFitnessDefaults(rec *FlatRecord) {
	d := overlay.DefaultPlaylistFitness()
	rec.FitnessLevel, rec.SecondaryFitnessLevel, rec.TertiaryFitnessLevel = d.FitnessLevels[0], d.FitnessLevels[1], d.FitnessLevels[2]
	rec.PrimaryTechniqueDifficulty, rec.SecondaryTechniqueDifficulty, rec.TertiaryTechniqueDifficulty = d.TechniqueLevels[0], d.TechniqueLevels[1], d.TechniqueLevels[2]
	rec.PrimaryEffortDifficulty, rec.SecondaryEffortDifficulty, rec.TertiaryEffortDifficulty = d.EffortLevels[0], d.EffortLevels[1], d.EffortLevels[2]
}

func applyEquipment(rec *FlatRecord, agg *Aggregated) {
	if agg.IsPlaylist {
		// Playlist workouts skip the equipment stage; a treadmill
		// subcategory implies the only equipment we can assert.
		if rec.Subcategory == "Treadmill" || rec.SecondarySubcategory == "Treadmill" {
			rec.PrimaryEquipment = "Treadmill"
		}
		return
	}
	if agg.Equipment == nil {
		return
	}

	kept := make([]taxonomy.EquipmentConfidence, 0, len(agg.Equipment.RequiredEquipment))
	for _, e := range agg.Equipment.RequiredEquipment {
		if e.Confidence > slotThreshold {
			kept = append(kept, e)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Confidence > kept[j].Confidence })

	// Collapse to coarse families, first occurrence wins.
	var families []string
	seen := map[string]bool{}
	for _, e := range kept {
		f := taxonomy.EquipmentFamilyFor(e.Equipment)
		if seen[f] {
			continue
		}
		seen[f] = true
		families = append(families, f)
	}

	slots := [3]*string{&rec.PrimaryEquipment, &rec.SecondaryEquipment, &rec.TertiaryEquipment}
	for i, f := range families {
		if i >= len(slots) {
			break
		}
		*slots[i] = f
	}
}

func applySpirit(rec *FlatRecord, result *taxonomy.SpiritResult) {
	if result == nil || len(result.Spirits) == 0 {
		return
	}
	ranked := sortedByScore(result.Spirits)
	rec.PrimarySpirit = ranked[0].Label
	if len(ranked) > 1 && exceedsSlot(ranked[1].Score) {
		rec.SecondarySpirit = ranked[1].Label
	}
}

func applyVibe(rec *FlatRecord, result *taxonomy.VibeResult) {
	if result == nil || len(result.Vibes) == 0 {
		return
	}
	ranked := sortedByScore(result.Vibes)
	rec.PrimaryVibe = ranked[0].Label
	if len(ranked) > 1 && exceedsSlot(ranked[1].Score) {
		rec.SecondaryVibe = ranked[1].Label
	}
}

func applyReviewability(rec *FlatRecord, agg *Aggregated) {
	if len(agg.StageErrors) > 0 {
		rec.Reviewable = false
		tags := make([]string, 0, len(agg.StageErrors))
		for _, stage := range taxonomy.ClassifierStages {
			if se, ok := agg.StageErrors[stage]; ok {
				tags = append(tags, se.ReviewComment)
			}
		}
		rec.ReviewComment = strings.Join(dedupe(tags), "; ")
		return
	}

	var missing []string
	if rec.Category == "" {
		missing = append(missing, missingCategory)
	}
	if rec.Subcategory == "" {
		missing = append(missing, missingSubcategory)
	}
	if rec.FitnessLevel == "" {
		missing = append(missing, missingFitnessLevel)
	}
	if rec.PrimaryVibe == "" {
		missing = append(missing, missingPrimaryVibe)
	}

	if agg.IsPlaylist {
		// Playlist rows are always reviewable by policy.
		rec.Reviewable = true
	} else {
		rec.Reviewable = len(missing) == 0
	}

	if len(missing) > 0 {
		if tags, err := json.Marshal(missing); err == nil {
			rec.ReviewComment = string(tags)
		}
	}
}

// slots3 returns the primary/secondary/tertiary labels for a ranked list. The
// primary slot is filled unconditionally; lower slots must qualify.
func slots3(labels []taxonomy.LabelScore, qualifies func(float64) bool) [3]string {
	var out [3]string
	if len(labels) == 0 {
		return out
	}
	ranked := sortedByScore(labels)
	out[0] = ranked[0].Label
	if len(ranked) > 1 && qualifies(ranked[1].Score) {
		out[1] = ranked[1].Label
		if len(ranked) > 2 && qualifies(ranked[2].Score) {
			out[2] = ranked[2].Label
		}
	}
	return out
}

func dedupe(tags []string) []string {
	var out []string
	seen := map[string]bool{}
	for _, t := range tags {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func sortedByScore(labels []taxonomy.LabelScore) []taxonomy.LabelScore {
	ranked := make([]taxonomy.LabelScore, len(labels))
	copy(ranked, labels)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	return ranked
}

func rewriteElite(level string) string {
	if level == "Elite" {
		return "Advanced"
	}
	return level
}

// formatHMS renders seconds as zero-padded hh:mm:ss.
func formatHMS(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, (seconds%3600)/60, seconds%60)
}
