package batch

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nnatashok/vsp-poc-1-sub000/pkg/pipeline"
)

func writeInput(t *testing.T, rows [][]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.csv")
	f, err := os.Create(path)
	require.NoError(t, err)
	w := csv.NewWriter(f)
	require.NoError(t, w.WriteAll(rows))
	w.Flush()
	require.NoError(t, f.Close())
	return path
}

func TestEnumerate(t *testing.T) {
	hydrowNoID := `{"name":"Mystery Row","image":{"bucket":"hydrow-images","key":"x.jpg"}}`
	path := writeInput(t, [][]string{
		{"title", "url", "notes"},
		{"Morning HIIT", "https://youtu.be/dQw4w9WgXcQ", "great"},
		{"Morning HIIT again", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "duplicate id"},
		{"Row", hydrowNoID, ""},
		{"Not a workout", "just text", ""},
	})

	d := &Driver{}
	tasks, total, skipped, err := d.enumerate(path)
	require.NoError(t, err)

	assert.Equal(t, 3, total)
	assert.Equal(t, 1, skipped)
	require.Len(t, tasks, 2)
	assert.Equal(t, "dQw4w9WgXcQ", tasks[0].workoutID)
	// Records without an intrinsic id get a manual ordinal.
	assert.Equal(t, "manual_1", tasks[1].workoutID)
}

func TestEnumerateRaggedRows(t *testing.T) {
	path := writeInput(t, [][]string{
		{"https://youtu.be/dQw4w9WgXcQ"},
		{"a", "b", "https://youtu.be/aaaaaaaaaaa", "d"},
	})

	d := &Driver{}
	tasks, total, skipped, err := d.enumerate(path)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, 0, skipped)
	assert.Len(t, tasks, 2)
}

func TestEnumerateMissingFile(t *testing.T) {
	d := &Driver{}
	_, _, _, err := d.enumerate(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestErrorRecord(t *testing.T) {
	rec := errorRecord("w1", "processing_error")
	assert.Equal(t, "w1", rec.VideoID)
	assert.False(t, rec.Reviewable)
	assert.Equal(t, "processing_error", rec.ReviewComment)
	assert.Len(t, rec.Row(), len(pipeline.Header))
}

func TestWriteCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	records := []*pipeline.FlatRecord{
		{VideoID: "w1", VideoTitle: "First", Duration: "00:10:00", Reviewable: true},
		{VideoID: "w2", ReviewComment: "processing_error"},
	}
	require.NoError(t, writeCatalog(path, records))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, rows, 3)
	assert.Equal(t, pipeline.Header, rows[0])
	assert.Equal(t, "w1", rows[1][0])
	assert.Equal(t, "true", rows[1][27])
	assert.Equal(t, "false", rows[2][27])
}
