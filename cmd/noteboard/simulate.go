package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/samejima-ai/minute-board-app/domain/core/entities"
	"github.com/samejima-ai/minute-board-app/domain/layout"
	"github.com/samejima-ai/minute-board-app/infrastructure/observability"
	pkgerrors "github.com/samejima-ai/minute-board-app/pkg/errors"
)

// fallback viewport when neither flags, fixture nor config name one
const (
	defaultSimWidth  = 1280
	defaultSimHeight = 800
)

var (
	simNotes  string
	simTicks  int
	simSeed   int64
	simWidth  float64
	simHeight float64
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the layout headless and print the final positions as JSON",
	Example: `  noteboard simulate --notes notes.yaml --ticks 300 --seed 7
  noteboard simulate --notes notes.yaml --width 1920 --height 1080`,
	RunE: runSimulate,
}

func init() {
	simulateCmd.Flags().StringVarP(&simNotes, "notes", "n", "", "YAML file with a notes list (required)")
	simulateCmd.Flags().IntVarP(&simTicks, "ticks", "t", 300, "maximum number of ticks to run")
	simulateCmd.Flags().Int64VarP(&simSeed, "seed", "s", 1, "random seed for initial placement")
	simulateCmd.Flags().Float64Var(&simWidth, "width", 0, "viewport width")
	simulateCmd.Flags().Float64Var(&simHeight, "height", 0, "viewport height")
	_ = simulateCmd.MarkFlagRequired("notes")
	rootCmd.AddCommand(simulateCmd)
}

// simulationFixture is the notes file format
type simulationFixture struct {
	Viewport struct {
		Width  float64 `yaml:"width"`
		Height float64 `yaml:"height"`
	} `yaml:"viewport"`
	Notes []entities.Note `yaml:"notes"`
}

type simulationResult struct {
	Settled  bool         `json:"settled"`
	Rejected string       `json:"rejected,omitempty"`
	Stats    layout.Stats `json:"stats"`
	Frame    layout.Frame `json:"frame"`
}

func runSimulate(cmd *cobra.Command, args []string) error {
	if simTicks < 0 {
		return fmt.Errorf("--ticks must not be negative")
	}
	l, err := loader()
	if err != nil {
		return err
	}
	cfg, err := l.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger, err := observability.NewLogger(string(cfg.Environment), cfg.Logging.Level)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	data, err := os.ReadFile(simNotes)
	if err != nil {
		return fmt.Errorf("failed to read notes: %w", err)
	}
	var fixture simulationFixture
	if err := yaml.Unmarshal(data, &fixture); err != nil {
		return fmt.Errorf("failed to parse %s: %w", simNotes, err)
	}

	params := cfg.Layout.Parameters()
	width, height := params.ViewportWidth, params.ViewportHeight
	if fixture.Viewport.Width > 0 && fixture.Viewport.Height > 0 {
		width, height = fixture.Viewport.Width, fixture.Viewport.Height
	}
	if simWidth > 0 && simHeight > 0 {
		width, height = simWidth, simHeight
	}
	if width == 0 && height == 0 {
		width, height = defaultSimWidth, defaultSimHeight
	}

	engine, err := layout.NewEngine(params.WithViewport(width, height),
		layout.WithSeed(simSeed),
		layout.WithLogger(logger.Named("layout")),
	)
	if err != nil {
		return err
	}
	defer engine.Dispose()

	result := simulationResult{}
	if err := engine.Reconcile(fixture.Notes); err != nil {
		if !pkgerrors.IsValidation(err) {
			return err
		}
		// partially valid input still lays out what it can
		result.Rejected = err.Error()
		logger.Warn("some notes were rejected", zap.Error(err))
	}

	for i := 0; i < simTicks; i++ {
		if !engine.Tick() {
			break
		}
	}

	result.Stats = engine.Stats()
	result.Settled = result.Stats.Alpha < layout.AlphaMin
	result.Frame = engine.Snapshot()

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
