package sources

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"watch param", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"watch param with extras", "https://www.youtube.com/watch?t=30&v=dQw4w9WgXcQ&feature=share", "dQw4w9WgXcQ"},
		{"short host", "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"short host with query", "https://youtu.be/dQw4w9WgXcQ?t=10", "dQw4w9WgXcQ"},
		{"embed", "https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"shorts", "https://www.youtube.com/shorts/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"legacy v path", "https://www.youtube.com/v/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"bare path", "https://youtube.com/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"no id", "https://www.youtube.com/feed/subscriptions", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractVideoID(tt.url))
		})
	}
}

func TestParseISODuration(t *testing.T) {
	tests := []struct {
		iso  string
		want int
	}{
		{"PT45M12S", 2712},
		{"PT1H", 3600},
		{"PT1H2M3S", 3723},
		{"PT30S", 30},
		{"PT0S", 0},
		{"P1DT1H", 90000},
		{"garbage", 0},
		{"", 0},
	}
	for _, tt := range tests {
		t.Run(tt.iso, func(t *testing.T) {
			assert.Equal(t, tt.want, parseISODuration(tt.iso))
		})
	}
}

func TestYouTubeAdapterWorkoutID(t *testing.T) {
	a := NewYouTubeAdapter()
	assert.Equal(t, "dQw4w9WgXcQ", a.WorkoutID(" https://youtu.be/dQw4w9WgXcQ "))
	assert.Equal(t, "", a.WorkoutID("https://www.youtube.com/feed/subscriptions"))
}
