// Package pipeline runs the ordered classifier stages for one workout and
// flattens the aggregated result into the emission row.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nnatashok/vsp-poc-1-sub000/pkg/bootstrap"
	"github.com/nnatashok/vsp-poc-1-sub000/pkg/llm"
	"github.com/nnatashok/vsp-poc-1-sub000/pkg/overlay"
	"github.com/nnatashok/vsp-poc-1-sub000/pkg/sources"
	"github.com/nnatashok/vsp-poc-1-sub000/pkg/taxonomy"
	"github.com/nnatashok/vsp-poc-1-sub000/pkg/tracks"
)

// CleanedText wraps the normalized text summary inside the aggregated output.
type CleanedText struct {
	Text string `json:"text"`
}

// Aggregated is the per-workout result of all enabled stages. Field order is
// the serialization order of full_analysis_json.
type Aggregated struct {
	ID                   string                             `json:"id"`
	URL                  string                             `json:"url"`
	Title                string                             `json:"title"`
	Channel              string                             `json:"channel"`
	DurationSeconds      int                                `json:"duration_seconds"`
	SourceType           string                             `json:"source_type"`
	PosterURI            string                             `json:"poster_uri,omitempty"`
	VideoMetadataCleaned CleanedText                        `json:"video_metadata_cleaned"`
	Category             *taxonomy.CategoryResult           `json:"category,omitempty"`
	Fitness              *taxonomy.FitnessResult            `json:"fitness_level,omitempty"`
	Equipment            *taxonomy.EquipmentResult          `json:"equipment,omitempty"`
	Spirit               *taxonomy.SpiritResult             `json:"spirit,omitempty"`
	Vibe                 *taxonomy.VibeResult               `json:"vibe,omitempty"`
	TrackAnalyses        map[string]taxonomy.TrackAnalysis  `json:"track_analysis,omitempty"`
	StageErrors          map[string]*llm.StageError         `json:"stage_errors,omitempty"`
	Reviewable           bool                               `json:"reviewable"`
	IsPlaylist           bool                               `json:"is_playlist,omitempty"`
}

// Orchestrator invokes the classifier stages in their fixed order for a
// single workout, consulting the cache and the rule overlay around each call.
type Orchestrator struct {
	Service  *bootstrap.Service
	Enricher *tracks.Enricher // nil disables track enrichment

	log *slog.Logger
}

func NewOrchestrator(service *bootstrap.Service, enricher *tracks.Enricher) *Orchestrator {
	return &Orchestrator{
		Service:  service,
		Enricher: enricher,
		log:      slog.With("component", "pipeline"),
	}
}

// Process runs every enabled stage for the workout. Stage failures are
// captured inside the aggregated result and never abort the remaining stages;
// a returned error means the workout is dropped (fatal overlay errors only).
func (o *Orchestrator) Process(ctx context.Context, bundle *sources.ContextBundle, toggles bootstrap.Toggles) (*Aggregated, error) {
	agg := &Aggregated{
		ID:              bundle.ID,
		URL:             bundle.SourceURL,
		Title:           bundle.Title,
		Channel:         bundle.ChannelOrOwner,
		DurationSeconds: bundle.DurationSeconds,
		SourceType:      bundle.SourceType,
		PosterURI:       bundle.ImageURL,
		Reviewable:      true,
		IsPlaylist:      bundle.SourceHints.IsPlaylist,
		StageErrors:     map[string]*llm.StageError{},
	}

	// Track enrichment feeds the classifiers, so it runs before any stage.
	if bundle.SourceHints.IsPlaylist && o.Enricher != nil && len(bundle.Tracks) > 0 {
		agg.TrackAnalyses = o.Enricher.Enrich(ctx, bundle)
		if extra := tracks.Summary(agg.TrackAnalyses, bundle); extra != "" {
			bundle.TextSummary += "\n" + extra
		}
	}
	agg.VideoMetadataCleaned = CleanedText{Text: bundle.TextSummary}

	for _, stage := range taxonomy.ClassifierStages {
		if !stageEnabled(stage, toggles) {
			continue
		}
		if err := o.runStage(ctx, stage, bundle, agg); err != nil {
			return nil, err
		}
	}

	if len(agg.StageErrors) == 0 {
		agg.StageErrors = nil
	}
	return agg, nil
}

func (o *Orchestrator) runStage(ctx context.Context, stage string, bundle *sources.ContextBundle, agg *Aggregated) error {
	switch stage {
	case taxonomy.StageCategory:
		return o.runCategory(ctx, bundle, agg)
	case taxonomy.StageFitness:
		return o.runFitness(ctx, bundle, agg)
	case taxonomy.StageEquipment:
		return o.runEquipment(ctx, bundle, agg)
	case taxonomy.StageSpirit:
		result := &taxonomy.SpiritResult{}
		if o.runGeneric(ctx, taxonomy.StageSpirit, bundle, agg, "", result) {
			agg.Spirit = result
		}
		return nil
	case taxonomy.StageVibe:
		return o.runVibe(ctx, bundle, agg)
	default:
		return fmt.Errorf("unknown stage %q", stage)
	}
}

func (o *Orchestrator) runCategory(ctx context.Context, bundle *sources.ContextBundle, agg *Aggregated) error {
	result := &taxonomy.CategoryResult{}
	if o.Service.Cache.Get(taxonomy.StageCategory, bundle.ID, result) {
		agg.Category = result
		return nil
	}

	if override, ok, err := overlay.CategoryOverride(bundle); ok {
		if err != nil {
			// Unknown workout type is fatal for the workout.
			return fmt.Errorf("category overlay: %w", err)
		}
		o.Service.Cache.Put(taxonomy.StageCategory, bundle.ID, override)
		agg.Category = override
		return nil
	}

	if o.runGeneric(ctx, taxonomy.StageCategory, bundle, agg, "", result) {
		agg.Category = result
	}
	return nil
}

func (o *Orchestrator) runFitness(ctx context.Context, bundle *sources.ContextBundle, agg *Aggregated) error {
	result := &taxonomy.FitnessResult{}
	if o.Service.Cache.Get(taxonomy.StageFitness, bundle.ID, result) {
		agg.Fitness = result
		return nil
	}

	skeleton, hasSkeleton := overlay.FitnessPrefill(bundle)
	promptSuffix := ""
	if hasSkeleton {
		promptSuffix = skeleton.LevelHint()
	}

	if !o.runGeneric(ctx, taxonomy.StageFitness, bundle, agg, promptSuffix, result) {
		return nil
	}
	if hasSkeleton {
		result = overlay.MergeFitness(skeleton, result)
		o.Service.Cache.Put(taxonomy.StageFitness, bundle.ID, result)
	}
	agg.Fitness = result
	return nil
}

func (o *Orchestrator) runEquipment(ctx context.Context, bundle *sources.ContextBundle, agg *Aggregated) error {
	if overlay.SkipEquipment(bundle) {
		o.log.Debug("Equipment stage skipped for playlist source", "workout_id", bundle.ID)
		return nil
	}
	result := &taxonomy.EquipmentResult{}
	if o.runGeneric(ctx, taxonomy.StageEquipment, bundle, agg, "", result) {
		agg.Equipment = result
	}
	return nil
}

func (o *Orchestrator) runVibe(ctx context.Context, bundle *sources.ContextBundle, agg *Aggregated) error {
	result := &taxonomy.VibeResult{}
	if o.Service.Cache.Get(taxonomy.StageVibe, bundle.ID, result) {
		agg.Vibe = result
		return nil
	}

	if override, ok := overlay.VibeOverride(bundle); ok {
		o.Service.Cache.Put(taxonomy.StageVibe, bundle.ID, override)
		agg.Vibe = override
		return nil
	}

	if o.runGeneric(ctx, taxonomy.StageVibe, bundle, agg, "", result) {
		agg.Vibe = result
	}
	return nil
}

// runGeneric performs cache lookup, the executor call and result caching for
// a stage whose output decodes into result. It returns false when the stage
// failed; the failure is already recorded on the aggregate.
func (o *Orchestrator) runGeneric(ctx context.Context, stage string, bundle *sources.ContextBundle, agg *Aggregated, promptSuffix string, result any) bool {
	if o.Service.Cache.Get(stage, bundle.ID, result) {
		return true
	}

	schema, err := taxonomy.SchemaFor(stage)
	if err != nil {
		o.recordStageError(agg, stage, &llm.StageError{Message: err.Error(), ReviewComment: llm.TagProcessing})
		return false
	}
	systemPrompt, err := taxonomy.SystemPromptFor(stage)
	if err != nil {
		o.recordStageError(agg, stage, &llm.StageError{Message: err.Error(), ReviewComment: llm.TagProcessing})
		return false
	}

	imageURL := ""
	if o.Service.Config.IncludeImage {
		imageURL = bundle.ImageURL
	}

	raw, stageErr := o.Service.Executor.Run(ctx, llm.Request{
		Stage:        stage,
		SystemPrompt: systemPrompt,
		UserPrompt:   taxonomy.UserPromptFor(stage) + promptSuffix,
		TextSummary:  bundle.TextSummary,
		ImageURL:     imageURL,
		Schema:       schema,
		SchemaName:   taxonomy.SchemaNameFor(stage),
		Validate:     func(b []byte) error { return taxonomy.ValidateStage(stage, b) },
	})
	if stageErr != nil {
		o.recordStageError(agg, stage, stageErr)
		return false
	}

	if err := json.Unmarshal(raw, result); err != nil {
		o.recordStageError(agg, stage, &llm.StageError{Message: err.Error(), ReviewComment: llm.TagJSONParsing})
		return false
	}

	o.Service.Cache.Put(stage, bundle.ID, result)
	return true
}

func (o *Orchestrator) recordStageError(agg *Aggregated, stage string, stageErr *llm.StageError) {
	o.log.Error("Stage failed", "workout_id", agg.ID, "stage", stage, "tag", stageErr.ReviewComment, "error", stageErr.Message)
	agg.StageErrors[stage] = stageErr
	agg.Reviewable = false
}

func stageEnabled(stage string, t bootstrap.Toggles) bool {
	switch stage {
	case taxonomy.StageCategory:
		return t.Category
	case taxonomy.StageFitness:
		return t.FitnessLevel
	case taxonomy.StageEquipment:
		return t.Equipment
	case taxonomy.StageSpirit:
		return t.Spirit
	case taxonomy.StageVibe:
		return t.Vibe
	default:
		return false
	}
}
