// Package batch enumerates workouts from an input CSV, runs them through the
// pipeline on a worker pool and writes the flat catalog CSV.
package batch

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"

	"github.com/nnatashok/vsp-poc-1-sub000/pkg/bootstrap"
	infrasentry "github.com/nnatashok/vsp-poc-1-sub000/pkg/infrastructure/sentry"
	"github.com/nnatashok/vsp-poc-1-sub000/pkg/llm"
	"github.com/nnatashok/vsp-poc-1-sub000/pkg/pipeline"
	"github.com/nnatashok/vsp-poc-1-sub000/pkg/sources"
)

// task is one deduplicated workout pulled from the input CSV.
type task struct {
	adapter   sources.Adapter
	raw       string
	workoutID string
}

// Summary reports what a run did. All counters are per-run, not cumulative.
type Summary struct {
	Total         int
	Unique        int
	Skipped       int // duplicate ids in the input
	Successful    int
	Reviewable    int
	NonReviewable int
	Dropped       int // metadata or overlay failures, no row emitted
	Elapsed       time.Duration
}

// Driver owns the scatter/gather around the per-workout pipeline.
type Driver struct {
	Service      *bootstrap.Service
	Orchestrator *pipeline.Orchestrator

	runID string
	log   *slog.Logger
}

func NewDriver(service *bootstrap.Service, orch *pipeline.Orchestrator) *Driver {
	return &Driver{
		Service:      service,
		Orchestrator: orch,
		log:          slog.With("component", "batch"),
	}
}

// Run executes the full batch pass and writes the output CSV.
func (d *Driver) Run(ctx context.Context) (*Summary, error) {
	started := time.Now()
	cfg := d.Service.Config
	d.runID = uuid.NewString()

	tasks, total, skipped, err := d.enumerate(cfg.InputPath)
	if err != nil {
		return nil, err
	}
	if cfg.MaxWorkouts > 0 && len(tasks) > cfg.MaxWorkouts {
		tasks = tasks[:cfg.MaxWorkouts]
	}

	workers := cfg.NumProcesses
	if workers > len(tasks) {
		workers = len(tasks)
	}
	if workers < 1 {
		workers = 1
	}
	d.log.Info("Batch starting", "run_id", d.runID, "workouts", len(tasks), "workers", workers)

	bar := progressbar.Default(int64(len(tasks)), "classifying")

	var mu sync.Mutex
	var records []*pipeline.FlatRecord

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, t := range tasks {
		t := t
		g.Go(func() error {
			rec := d.processOne(gctx, t)
			mu.Lock()
			if rec != nil {
				records = append(records, rec)
			}
			mu.Unlock()
			_ = bar.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := writeCatalog(cfg.OutputPath, records); err != nil {
		return nil, err
	}

	sum := &Summary{
		Total:   total,
		Unique:  len(tasks),
		Skipped: skipped,
		Dropped: len(tasks) - len(records),
		Elapsed: time.Since(started),
	}
	for _, rec := range records {
		sum.Successful++
		if rec.Reviewable {
			sum.Reviewable++
		} else {
			sum.NonReviewable++
		}
	}
	d.logSummary(sum)
	return sum, nil
}

// enumerate scans every cell of the input CSV for source records and
// deduplicates them by workout id, first occurrence winning.
func (d *Driver) enumerate(path string) ([]task, int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, 0, 0, fmt.Errorf("read input: %w", err)
	}

	var tasks []task
	seen := map[string]bool{}
	total, skipped, manual := 0, 0, 0
	for _, row := range rows {
		for _, cell := range row {
			adapter, ok := sources.Detect(cell)
			if !ok {
				continue
			}
			total++
			id := adapter.WorkoutID(cell)
			if id == "" {
				manual++
				id = fmt.Sprintf("manual_%d", manual)
			}
			if seen[id] {
				skipped++
				continue
			}
			seen[id] = true
			tasks = append(tasks, task{adapter: adapter, raw: cell, workoutID: id})
		}
	}
	return tasks, total, skipped, nil
}

// processOne runs a single workout end to end. A nil return means the workout
// was dropped; panics surface as processing_error rows so the pool keeps going.
func (d *Driver) processOne(ctx context.Context, t task) (rec *pipeline.FlatRecord) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("worker panic: %v", r)
			infrasentry.CaptureException(err, map[string]interface{}{
				"run_id":     d.runID,
				"workout_id": t.workoutID,
				"source":     t.adapter.Name(),
			}, d.log)
			d.log.Error("Workout processing panicked", "workout_id", t.workoutID, "error", err)
			rec = errorRecord(t.workoutID, llm.TagProcessing)
		}
	}()

	bundle, err := t.adapter.BuildContext(ctx, t.raw, t.workoutID)
	if err != nil {
		d.log.Error("Metadata fetch failed, workout dropped",
			"workout_id", t.workoutID, "source", t.adapter.Name(), "tag", "metadata_error", "error", err)
		return nil
	}

	agg, err := d.Orchestrator.Process(ctx, bundle, d.Service.Config.Stages)
	if err != nil {
		d.log.Error("Workout dropped", "workout_id", t.workoutID, "error", err)
		return nil
	}
	return pipeline.Transform(agg)
}

// errorRecord is the row emitted for failures outside any classifier stage.
func errorRecord(workoutID, tag string) *pipeline.FlatRecord {
	return &pipeline.FlatRecord{
		VideoID:       workoutID,
		Duration:      "00:00:00",
		Reviewable:    false,
		ReviewComment: tag,
	}
}

func writeCatalog(path string, records []*pipeline.FlatRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(pipeline.Header); err != nil {
		f.Close()
		return fmt.Errorf("write header: %w", err)
	}
	for _, rec := range records {
		if err := w.Write(rec.Row()); err != nil {
			f.Close()
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("flush output: %w", err)
	}
	return f.Close()
}

func (d *Driver) logSummary(s *Summary) {
	avg := time.Duration(0)
	if s.Unique > 0 {
		avg = s.Elapsed / time.Duration(s.Unique)
	}
	d.log.Info("Batch complete",
		"total", s.Total,
		"unique", s.Unique,
		"skipped_duplicates", s.Skipped,
		"successful", s.Successful,
		"reviewable", s.Reviewable,
		"non_reviewable", s.NonReviewable,
		"dropped", s.Dropped,
		"elapsed", s.Elapsed.Round(time.Millisecond).String(),
		"avg_per_workout", avg.Round(time.Millisecond).String(),
	)
}
