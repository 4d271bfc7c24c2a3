package bootstrap

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnvDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_MODEL", "")
	t.Setenv("NUM_PROCESSES", "")

	cfg := &Config{}
	cfg.LoadEnv()

	assert.Equal(t, "sk-test", cfg.OpenAIAPIKey)
	assert.Equal(t, openai.GPT4o, cfg.Model)
	assert.Equal(t, 4, cfg.NumProcesses)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("OPENAI_MODEL", "gpt-4o-mini")
	t.Setenv("NUM_PROCESSES", "8")

	cfg := &Config{}
	cfg.LoadEnv()
	assert.Equal(t, "gpt-4o-mini", cfg.Model)
	assert.Equal(t, 8, cfg.NumProcesses)

	// Flag-set values win over the environment.
	cfg = &Config{Model: "gpt-4.1", NumProcesses: 2}
	cfg.LoadEnv()
	assert.Equal(t, "gpt-4.1", cfg.Model)
	assert.Equal(t, 2, cfg.NumProcesses)
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.csv")
	require.NoError(t, os.WriteFile(input, []byte("a,b\n"), 0o644))

	valid := Config{
		InputPath:    input,
		OutputPath:   filepath.Join(dir, "out.csv"),
		CacheDir:     filepath.Join(dir, "cache"),
		OpenAIAPIKey: "sk-test",
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing input path", func(c *Config) { c.InputPath = "" }, "input path"},
		{"missing output path", func(c *Config) { c.OutputPath = "" }, "output path"},
		{"missing cache dir", func(c *Config) { c.CacheDir = "" }, "cache dir"},
		{"missing api key", func(c *Config) { c.OpenAIAPIKey = "" }, "OPENAI_API_KEY"},
		{"unreadable input", func(c *Config) { c.InputPath = filepath.Join(dir, "nope.csv") }, "input not readable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestComponentHandlerPrefixesMessages(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, GetSlogHandlerOptions(slog.LevelInfo))
	logger := slog.New(&ComponentHandler{Handler: handler}).With("component", "batch")

	logger.Info("Batch starting", "workouts", 3)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "[batch] Batch starting", entry["msg"])
	assert.Equal(t, float64(3), entry["workouts"])
}

func TestComponentHandlerWithoutComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(&ComponentHandler{Handler: slog.NewJSONHandler(&buf, nil)})

	logger.Info("Service initialized")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "Service initialized", entry["msg"])
}

func TestEnvInt(t *testing.T) {
	t.Setenv("SOME_INT", "12")
	assert.Equal(t, 12, envInt("SOME_INT", 4))
	t.Setenv("SOME_INT", "not a number")
	assert.Equal(t, 4, envInt("SOME_INT", 4))
	assert.Equal(t, 4, envInt("UNSET_INT_VAR", 4))
}
