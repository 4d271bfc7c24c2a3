package sources

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/nnatashok/vsp-poc-1-sub000/pkg/bootstrap"
)

// hydrowRecord mirrors the relevant fields of a Hydrow catalog JSON entry.
type hydrowRecord struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	WorkoutTypes []string `json:"workoutTypes"`
	Category     struct {
		Name string `json:"name"`
		Type string `json:"type"`
	} `json:"category"`
	Duration   float64 `json:"duration"` // seconds
	Instructor struct {
		Name string `json:"name"`
	} `json:"instructor"`
	IntensityLevel int    `json:"intensityLevel"` // 1..3
	MusicGenre     string `json:"musicGenre"`
	RadioStations  []struct {
		Name string `json:"name"`
	} `json:"radioStations"`
	Tracklist []struct {
		Title  string `json:"title"`
		Artist string `json:"artist"`
	} `json:"tracklist"`
	Image struct {
		Bucket string `json:"bucket"`
		Key    string `json:"key"`
	} `json:"image"`
	ShareURL string `json:"shareUrl"`
}

// HydrowAdapter normalizes rowing-catalog JSON records. The raw record is
// embedded in the CSV cell, so no network fetch is needed.
type HydrowAdapter struct {
	Service *bootstrap.Service

	bioOnce sync.Once
	bios    map[string]string
}

func init() {
	Register(NewHydrowAdapter())
}

func NewHydrowAdapter() *HydrowAdapter {
	return &HydrowAdapter{}
}

func (a *HydrowAdapter) SetService(service *bootstrap.Service) {
	a.Service = service
}

func (a *HydrowAdapter) Name() string { return SourceHydrow }

func (a *HydrowAdapter) Matches(raw string) bool { return IsHydrowMeta(raw) }

func (a *HydrowAdapter) WorkoutID(raw string) string {
	var rec hydrowRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return ""
	}
	if rec.ID == "" {
		return ""
	}
	return "hydrow_" + rec.ID
}

func (a *HydrowAdapter) BuildContext(ctx context.Context, raw, workoutID string) (*ContextBundle, error) {
	var generic any
	if err := json.Unmarshal([]byte(raw), &generic); err != nil {
		return nil, fmt.Errorf("parse hydrow record: %w", err)
	}
	cleaned, err := json.Marshal(stripMarketKeys(generic))
	if err != nil {
		return nil, fmt.Errorf("re-encode hydrow record: %w", err)
	}

	var rec hydrowRecord
	if err := json.Unmarshal(cleaned, &rec); err != nil {
		return nil, fmt.Errorf("decode hydrow record: %w", err)
	}

	hints := Hints{CategoryName: rec.Category.Name}
	if len(rec.WorkoutTypes) > 0 {
		hints.WorkoutType = strings.ToLower(rec.WorkoutTypes[0])
	}

	imageURL := ""
	if rec.Image.Bucket != "" && rec.Image.Key != "" {
		imageURL = fmt.Sprintf("https://%s.s3.amazonaws.com/%s", rec.Image.Bucket, rec.Image.Key)
	}

	return &ContextBundle{
		ID:              workoutID,
		SourceURL:       rec.ShareURL,
		Title:           rec.Name,
		ChannelOrOwner:  rec.Instructor.Name,
		DurationSeconds: int(rec.Duration),
		TextSummary:     a.summary(&rec),
		ImageURL:        imageURL,
		SourceType:      SourceHydrow,
		SourceHints:     hints,
	}, nil
}

func (a *HydrowAdapter) summary(rec *hydrowRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Workout: %s\n", rec.Name)
	if rec.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", rec.Description)
	}
	if len(rec.WorkoutTypes) > 0 {
		fmt.Fprintf(&b, "Workout types: %s\n", strings.Join(rec.WorkoutTypes, ", "))
	}
	if rec.Category.Name != "" {
		fmt.Fprintf(&b, "Category: %s (%s)\n", rec.Category.Name, rec.Category.Type)
	}
	fmt.Fprintf(&b, "Duration: %s\n", formatDuration(int(rec.Duration)))
	if rec.Instructor.Name != "" {
		fmt.Fprintf(&b, "Instructor: %s\n", rec.Instructor.Name)
		if bio := a.instructorBio(rec.Instructor.Name); bio != "" {
			fmt.Fprintf(&b, "Instructor bio: %s\n", bio)
		}
	}
	if rec.IntensityLevel > 0 {
		fmt.Fprintf(&b, "Intensity: %d out of 3\n", rec.IntensityLevel)
	}
	switch {
	case rec.MusicGenre != "":
		fmt.Fprintf(&b, "Music genre: %s\n", rec.MusicGenre)
	case len(rec.RadioStations) > 0:
		names := make([]string, 0, len(rec.RadioStations))
		for _, s := range rec.RadioStations {
			names = append(names, s.Name)
		}
		fmt.Fprintf(&b, "Radio stations: %s\n", strings.Join(names, ", "))
	}
	if len(rec.Tracklist) > 0 {
		b.WriteString("Tracklist:\n")
		for _, t := range rec.Tracklist {
			fmt.Fprintf(&b, "- %q by %q\n", t.Title, t.Artist)
		}
	}
	return b.String()
}

// instructorBio looks up the instructor in an optional instructors.csv
// (name,bio) co-located with the input CSV.
func (a *HydrowAdapter) instructorBio(name string) string {
	a.bioOnce.Do(func() {
		a.bios = map[string]string{}
		if a.Service == nil || a.Service.Config == nil || a.Service.Config.InputPath == "" {
			return
		}
		path := filepath.Join(filepath.Dir(a.Service.Config.InputPath), "instructors.csv")
		f, err := os.Open(path)
		if err != nil {
			return // optional file
		}
		defer f.Close()
		rows, err := csv.NewReader(f).ReadAll()
		if err != nil {
			slog.With("component", "sources").Warn("Instructor bios unreadable", "path", path, "error", err)
			return
		}
		for _, row := range rows {
			if len(row) >= 2 {
				a.bios[strings.TrimSpace(row[0])] = strings.TrimSpace(row[1])
			}
		}
	})
	return a.bios[name]
}

// formatDuration renders seconds as zero-padded hh:mm:ss.
func formatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
