package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/nnatashok/vsp-poc-1-sub000/pkg/batch"
	"github.com/nnatashok/vsp-poc-1-sub000/pkg/bootstrap"
	"github.com/nnatashok/vsp-poc-1-sub000/pkg/embedding"
	infrasentry "github.com/nnatashok/vsp-poc-1-sub000/pkg/infrastructure/sentry"
	"github.com/nnatashok/vsp-poc-1-sub000/pkg/pipeline"
	"github.com/nnatashok/vsp-poc-1-sub000/pkg/sources"
	"github.com/nnatashok/vsp-poc-1-sub000/pkg/tracks"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "classify",
		Short:         "Batch workout classification and embedding",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd(), newEmbedCmd())
	return root
}

func newRunCmd() *cobra.Command {
	cfg := &bootstrap.Config{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Classify every workout in the input CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.LoadEnv()
			if err := cfg.Validate(); err != nil {
				return err
			}

			service, err := bootstrap.NewService(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer infrasentry.Flush(2 * time.Second)

			for _, adapter := range sources.All() {
				adapter.SetService(service)
			}

			var enricher *tracks.Enricher
			if cfg.EnableWebSearch {
				snippets := tracks.NewChromeSnippets()
				defer snippets.Close()
				enricher = tracks.NewEnricher(service, snippets)
			} else {
				enricher = tracks.NewEnricher(service, nil)
			}

			driver := batch.NewDriver(service, pipeline.NewOrchestrator(service, enricher))
			if _, err := driver.Run(cmd.Context()); err != nil {
				return err
			}

			if cfg.SkipEmbeddings {
				return nil
			}
			if cfg.EmbeddingCacheDir == "" {
				slog.Info("No embedding cache dir configured, skipping embedding pass")
				return nil
			}
			gen, err := embedding.NewGenerator(service.Executor, cfg.EmbeddingCacheDir, cfg.ForceRefresh)
			if err != nil {
				return err
			}
			return gen.Run(cmd.Context(), cfg.OutputPath, cfg.OutputPath)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfg.InputPath, "input", "", "path to source CSV (required)")
	flags.StringVar(&cfg.OutputPath, "output", "", "path to destination CSV (required)")
	flags.StringVar(&cfg.CacheDir, "cache-dir", "", "per-stage cache directory (required)")
	flags.StringVar(&cfg.EmbeddingCacheDir, "embedding-cache-dir", "", "embedding cache directory")
	flags.IntVar(&cfg.MaxWorkouts, "max-workouts", 0, "cap on workouts processed, 0 for all")
	flags.IntVar(&cfg.NumProcesses, "processes", 0, "parallel workers, default NUM_PROCESSES or 4")
	flags.BoolVar(&cfg.Stages.Category, "enable-category", true, "run the category stage")
	flags.BoolVar(&cfg.Stages.FitnessLevel, "enable-fitness-level", true, "run the fitness level stage")
	flags.BoolVar(&cfg.Stages.Equipment, "enable-equipment", true, "run the equipment stage")
	flags.BoolVar(&cfg.Stages.Spirit, "enable-spirit", true, "run the spirit stage")
	flags.BoolVar(&cfg.Stages.Vibe, "enable-vibe", true, "run the vibe stage")
	flags.BoolVar(&cfg.IncludeImage, "include-image", false, "send the poster image to the classifiers")
	flags.BoolVar(&cfg.EnableWebSearch, "enable-web-search", false, "enrich playlist tracks with web snippets")
	flags.BoolVar(&cfg.ForceRefresh, "force-refresh", false, "ignore cached stage artifacts")
	flags.BoolVar(&cfg.SkipEmbeddings, "skip-embeddings", false, "skip the embedding second pass")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")
	_ = cmd.MarkFlagRequired("cache-dir")

	return cmd
}

func newEmbedCmd() *cobra.Command {
	cfg := &bootstrap.Config{}

	cmd := &cobra.Command{
		Use:   "embed",
		Short: "Run the embedding pass over an emitted catalog CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.LoadEnv()
			if cfg.InputPath == "" || cfg.OutputPath == "" {
				return fmt.Errorf("input and output paths are required")
			}
			if cfg.EmbeddingCacheDir == "" {
				return fmt.Errorf("embedding cache dir is required")
			}
			if cfg.OpenAIAPIKey == "" {
				return fmt.Errorf("OPENAI_API_KEY is not set")
			}

			// The embed pass needs only the executor; the stage cache dir is
			// unused, so point it at the embedding cache.
			cfg.CacheDir = cfg.EmbeddingCacheDir
			service, err := bootstrap.NewService(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer infrasentry.Flush(2 * time.Second)

			gen, err := embedding.NewGenerator(service.Executor, cfg.EmbeddingCacheDir, cfg.ForceRefresh)
			if err != nil {
				return err
			}
			return gen.Run(cmd.Context(), cfg.InputPath, cfg.OutputPath)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfg.InputPath, "input", "", "path to catalog CSV (required)")
	flags.StringVar(&cfg.OutputPath, "output", "", "path to destination CSV (required)")
	flags.StringVar(&cfg.EmbeddingCacheDir, "embedding-cache-dir", "", "embedding cache directory (required)")
	flags.BoolVar(&cfg.ForceRefresh, "force-refresh", false, "regenerate cached embeddings")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")
	_ = cmd.MarkFlagRequired("embedding-cache-dir")

	return cmd
}
