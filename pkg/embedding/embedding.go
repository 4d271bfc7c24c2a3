// Package embedding runs the second pass over an emitted catalog CSV,
// composing a canonical description per row and attaching a dense vector.
package embedding

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/schollz/progressbar/v3"

	"github.com/nnatashok/vsp-poc-1-sub000/pkg/taxonomy"
)

// descriptionTextLimit caps how much of the cleaned source text feeds the
// description.
const descriptionTextLimit = 1000

// VectorSource produces a dense vector for a text. Satisfied by llm.Executor.
type VectorSource interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type cacheEntry struct {
	WorkoutID   string    `json:"workout_id"`
	Description string    `json:"description"`
	Embedding   []float32 `json:"embedding"`
}

// Generator composes descriptions and embeds them, caching one artifact per
// workout under <dir>/<workout_id>.json.
type Generator struct {
	Vectors      VectorSource
	Dir          string
	ForceRefresh bool

	log *slog.Logger
}

func NewGenerator(vectors VectorSource, dir string, forceRefresh bool) (*Generator, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("embedding cache dir: %w", err)
	}
	return &Generator{
		Vectors:      vectors,
		Dir:          dir,
		ForceRefresh: forceRefresh,
		log:          slog.With("component", "embedding"),
	}, nil
}

// Run reads the catalog CSV at inputPath, fills the embedding column for every
// row and writes the result to outputPath. Rows whose embedding fails keep an
// empty cell and the pass continues.
func (g *Generator) Run(ctx context.Context, inputPath, outputPath string) error {
	in, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	rows, err := csv.NewReader(in).ReadAll()
	in.Close()
	if err != nil {
		return fmt.Errorf("read catalog: %w", err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("catalog %s is empty", inputPath)
	}

	header := rows[0]
	col := map[string]int{}
	for i, name := range header {
		col[name] = i
	}
	for _, required := range []string{"video_id", "embedding"} {
		if _, ok := col[required]; !ok {
			return fmt.Errorf("catalog missing %q column", required)
		}
	}

	bar := progressbar.Default(int64(len(rows)-1), "embedding")
	embedded, failed := 0, 0
	for _, row := range rows[1:] {
		if err := g.embedRow(ctx, header, col, row); err != nil {
			failed++
			g.log.Warn("Embedding failed", "workout_id", cell(row, col, "video_id"), "error", err)
		} else {
			embedded++
		}
		_ = bar.Add(1)
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create catalog: %w", err)
	}
	w := csv.NewWriter(out)
	if err := w.WriteAll(rows); err != nil {
		out.Close()
		return fmt.Errorf("write catalog: %w", err)
	}
	w.Flush()
	if err := out.Close(); err != nil {
		return fmt.Errorf("close catalog: %w", err)
	}

	g.log.Info("Embedding pass complete", "embedded", embedded, "failed", failed)
	return nil
}

func (g *Generator) embedRow(ctx context.Context, header []string, col map[string]int, row []string) error {
	workoutID := cell(row, col, "video_id")
	if workoutID == "" {
		return fmt.Errorf("row has no workout id")
	}

	description := Describe(func(name string) string { return cell(row, col, name) })

	vector, ok := g.cached(workoutID, cell(row, col, "primary_vibe"))
	if !ok {
		var err error
		vector, err = g.Vectors.Embed(ctx, description)
		if err != nil {
			return err
		}
		g.put(workoutID, description, vector)
	}

	encoded, err := json.Marshal(vector)
	if err != nil {
		return fmt.Errorf("encode vector: %w", err)
	}
	row[col["embedding"]] = string(encoded)
	return nil
}

// cached returns a valid cached vector. An entry is valid when it carries a
// description and, if the row has a primary vibe, the vibe's glossary sentence
// appears verbatim inside that description.
func (g *Generator) cached(workoutID, primaryVibe string) ([]float32, bool) {
	if g.ForceRefresh {
		return nil, false
	}
	data, err := os.ReadFile(g.path(workoutID))
	if err != nil {
		return nil, false
	}
	var entry cacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		g.log.Warn("Corrupt embedding cache entry, regenerating", "workout_id", workoutID, "error", err)
		return nil, false
	}
	if entry.Description == "" || len(entry.Embedding) == 0 {
		return nil, false
	}
	if primaryVibe != "" {
		gloss, ok := taxonomy.VibeGlossary[primaryVibe]
		if ok && !strings.Contains(entry.Description, gloss) {
			return nil, false
		}
	}
	return entry.Embedding, true
}

func (g *Generator) put(workoutID, description string, vector []float32) {
	data, err := json.MarshalIndent(cacheEntry{
		WorkoutID:   workoutID,
		Description: description,
		Embedding:   vector,
	}, "", "  ")
	if err != nil {
		g.log.Warn("Embedding cache encode failed", "workout_id", workoutID, "error", err)
		return
	}
	if err := os.WriteFile(g.path(workoutID), data, 0o644); err != nil {
		g.log.Warn("Embedding cache write failed", "workout_id", workoutID, "error", err)
	}
}

func (g *Generator) path(workoutID string) string {
	return filepath.Join(g.Dir, workoutID+".json")
}

// Describe composes the canonical description from flat record columns. The
// order and phrasing are fixed; cache validation relies on the vibe glossary
// sentences appearing verbatim.
func Describe(get func(name string) string) string {
	var b strings.Builder

	if minutes := get("duration_minutes"); minutes != "" && minutes != "0" {
		fmt.Fprintf(&b, "This is a %s-minute workout", minutes)
	} else {
		b.WriteString("This is a workout")
	}
	if title := get("video_title"); title != "" {
		fmt.Fprintf(&b, " titled %q", title)
	}
	if channel := get("channel_title"); channel != "" {
		fmt.Fprintf(&b, " from %q", channel)
	}
	b.WriteString(".")

	if category := get("category"); category != "" {
		fmt.Fprintf(&b, " Category: %s (%s).", category, get("subcategory"))
	}
	if secondary := get("secondary_category"); secondary != "" {
		fmt.Fprintf(&b, " Secondary category: %s (%s).", secondary, get("secondary_subcategory"))
	}

	if levels := joined(get, "fitness_level", "secondary_fitness_level", "tertiary_fitness_level"); levels != "" {
		fmt.Fprintf(&b, " Suitable fitness levels: %s.", levels)
	}

	if equipment := joined(get, "primary_equipment", "secondary_equipment", "tertiary_equipment"); equipment != "" {
		fmt.Fprintf(&b, " Equipment: %s.", equipment)
	}

	for _, name := range []string{"primary_vibe", "secondary_vibe"} {
		vibe := get(name)
		if vibe == "" {
			continue
		}
		if gloss, ok := taxonomy.VibeGlossary[vibe]; ok {
			fmt.Fprintf(&b, " Vibe: %s. %s", vibe, gloss)
		} else {
			fmt.Fprintf(&b, " Vibe: %s.", vibe)
		}
	}

	if technique := joined(get, "primary_technique_difficulty", "secondary_technique_difficulty", "tertiary_technique_difficulty"); technique != "" {
		fmt.Fprintf(&b, " Technique difficulty: %s.", technique)
	}
	if effort := joined(get, "primary_effort_difficulty", "secondary_effort_difficulty", "tertiary_effort_difficulty"); effort != "" {
		fmt.Fprintf(&b, " Effort difficulty: %s.", effort)
	}

	if text := cleanedText(get("full_analysis_json")); text != "" {
		fmt.Fprintf(&b, " Description: %s", text)
	}

	return b.String()
}

func joined(get func(string) string, names ...string) string {
	var parts []string
	for _, name := range names {
		if v := get(name); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, ", ")
}

func cleanedText(fullAnalysis string) string {
	if fullAnalysis == "" {
		return ""
	}
	var parsed struct {
		VideoMetadataCleaned struct {
			Text string `json:"text"`
		} `json:"video_metadata_cleaned"`
	}
	if err := json.Unmarshal([]byte(fullAnalysis), &parsed); err != nil {
		return ""
	}
	text := parsed.VideoMetadataCleaned.Text
	if len(text) > descriptionTextLimit {
		cut := descriptionTextLimit
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}
	return text
}

func cell(row []string, col map[string]int, name string) string {
	i, ok := col[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}
