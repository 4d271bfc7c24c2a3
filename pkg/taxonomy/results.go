package taxonomy

import (
	"encoding/json"
	"fmt"
)

// LabelScore is one ranked entry of a classifier output array.
type LabelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// EquipmentConfidence is one entry of the equipment classifier output.
type EquipmentConfidence struct {
	Equipment  string  `json:"equipment"`
	Confidence float64 `json:"confidence"`
}

// CategoryResult is the category stage output.
type CategoryResult struct {
	Categories  []LabelScore `json:"categories"`
	Confidence  float64      `json:"confidence"`
	Explanation string       `json:"explanation"`
}

// FitnessResult is the fitness stage output. It carries the three difficulty
// dimensions in one call.
type FitnessResult struct {
	RequiredFitnessLevel []LabelScore `json:"requiredFitnessLevel"`
	TechniqueDifficulty  []LabelScore `json:"techniqueDifficulty"`
	EffortDifficulty     []LabelScore `json:"effortDifficulty"`
	Confidence           float64      `json:"confidence"`
	Explanation          string       `json:"explanation"`
}

// EquipmentResult is the equipment stage output.
type EquipmentResult struct {
	RequiredEquipment []EquipmentConfidence `json:"requiredEquipment"`
	Confidence        float64               `json:"confidence"`
	Explanation       string                `json:"explanation"`
}

// SpiritResult is the spirit stage output.
type SpiritResult struct {
	Spirits     []LabelScore `json:"spirits"`
	Confidence  float64      `json:"confidence"`
	Explanation string       `json:"explanation"`
}

// VibeResult is the vibe stage output.
type VibeResult struct {
	Vibes       []LabelScore `json:"vibes"`
	Confidence  float64      `json:"confidence"`
	Explanation string       `json:"explanation"`
}

// TrackAnalysis is the per-track enrichment record produced for playlist
// sources.
type TrackAnalysis struct {
	Genre             string `json:"genre"`
	BPM               int    `json:"bpm"`
	LyricsSummary     string `json:"lyricsSummary"`
	LyricsSentiment   string `json:"lyricsSentiment"`
	MusicEnergy       string `json:"musicEnergy"`
	MusicDanceability string `json:"musicDanceability"`
	Valence           string `json:"valence"`
	Mode              string `json:"mode"`
}

// ValidateStage checks a raw classifier response against the closed
// enumerations and caps for the given stage. The LLM is asked for schema
// adherence, but responses are re-validated here; a failure is treated as a
// parsing error by the executor.
func ValidateStage(stage string, raw []byte) error {
	switch stage {
	case StageCategory:
		var r CategoryResult
		if err := json.Unmarshal(raw, &r); err != nil {
			return fmt.Errorf("decode %s result: %w", stage, err)
		}
		if err := validateLabels(r.Categories, 3, IsSubcategory, "categories"); err != nil {
			return err
		}
		return validateScore(r.Confidence, "confidence")
	case StageFitness:
		var r FitnessResult
		if err := json.Unmarshal(raw, &r); err != nil {
			return fmt.Errorf("decode %s result: %w", stage, err)
		}
		if err := validateLabels(r.RequiredFitnessLevel, 4, IsFitnessLevel, "requiredFitnessLevel"); err != nil {
			return err
		}
		if err := validateLabels(r.TechniqueDifficulty, 4, IsTechniqueLevel, "techniqueDifficulty"); err != nil {
			return err
		}
		if err := validateLabels(r.EffortDifficulty, 4, IsEffortLevel, "effortDifficulty"); err != nil {
			return err
		}
		return validateScore(r.Confidence, "confidence")
	case StageEquipment:
		var r EquipmentResult
		if err := json.Unmarshal(raw, &r); err != nil {
			return fmt.Errorf("decode %s result: %w", stage, err)
		}
		for _, e := range r.RequiredEquipment {
			if !IsEquipment(e.Equipment) {
				return fmt.Errorf("requiredEquipment: unknown label %q", e.Equipment)
			}
			if err := validateScore(e.Confidence, "requiredEquipment confidence"); err != nil {
				return err
			}
		}
		return validateScore(r.Confidence, "confidence")
	case StageSpirit:
		var r SpiritResult
		if err := json.Unmarshal(raw, &r); err != nil {
			return fmt.Errorf("decode %s result: %w", stage, err)
		}
		if err := validateLabels(r.Spirits, 3, IsSpirit, "spirits"); err != nil {
			return err
		}
		return validateScore(r.Confidence, "confidence")
	case StageVibe:
		var r VibeResult
		if err := json.Unmarshal(raw, &r); err != nil {
			return fmt.Errorf("decode %s result: %w", stage, err)
		}
		if err := validateLabels(r.Vibes, 3, IsVibe, "vibes"); err != nil {
			return err
		}
		return validateScore(r.Confidence, "confidence")
	case StageTracks:
		var r TrackAnalysis
		if err := json.Unmarshal(raw, &r); err != nil {
			return fmt.Errorf("decode %s result: %w", stage, err)
		}
		return nil
	default:
		return fmt.Errorf("unknown stage %q", stage)
	}
}

func validateLabels(labels []LabelScore, maxItems int, member func(string) bool, field string) error {
	if len(labels) > maxItems {
		return fmt.Errorf("%s: %d entries exceeds cap of %d", field, len(labels), maxItems)
	}
	for _, l := range labels {
		if !member(l.Label) {
			return fmt.Errorf("%s: unknown label %q", field, l.Label)
		}
		if err := validateScore(l.Score, field+" score"); err != nil {
			return err
		}
	}
	return nil
}

func validateScore(s float64, field string) error {
	if s < 0 || s > 1 {
		return fmt.Errorf("%s: %v outside [0,1]", field, s)
	}
	return nil
}
