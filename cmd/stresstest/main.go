// Command stresstest runs the planning pipeline concurrently over a grid of inputs and checks that repeated runs
// produce byte-identical plans that honour the structural invariants.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/myrjola/yogaflow/internal/envstruct"
	"github.com/myrjola/yogaflow/internal/errors"
	"github.com/myrjola/yogaflow/internal/flightrecorder"
	"github.com/myrjola/yogaflow/internal/flow"
	"github.com/myrjola/yogaflow/internal/logging"
	"github.com/myrjola/yogaflow/internal/testhelpers"
	"golang.org/x/sync/errgroup"
)

const (
	scenarioTimeout = 5 * time.Second
	levels          = 5
)

var (
	errMismatch      = errors.NewSentinel("scenario invariant violated")
	errInvalidConfig = errors.NewSentinel("invalid config")
)

type config struct {
	// Concurrency limits the number of scenarios in flight.
	Concurrency int `env:"STRESSTEST_CONCURRENCY" envDefault:"20"`
	// Repeats is how many times each scenario is planned and compared.
	Repeats int `env:"STRESSTEST_REPEATS" envDefault:"3"`
	// CycleDays limits how many days of the cycle are covered.
	CycleDays int `env:"STRESSTEST_CYCLE_DAYS" envDefault:"28"`
	// Durations are the session lengths in minutes tried for each combination.
	Durations string `env:"STRESSTEST_DURATIONS" envDefault:"4,10,20,31,60,90"`
	// TracesDirectory enables the flight recorder. A trace is written there when a scenario fails.
	TracesDirectory string `env:"STRESSTEST_TRACES_DIRECTORY" envDefault:""`
}

func (c config) validate() error {
	if c.Concurrency < 1 {
		return errors.Wrap(errInvalidConfig, "concurrency must be at least 1", slog.Int("concurrency", c.Concurrency))
	}
	if c.Repeats < 1 {
		return errors.Wrap(errInvalidConfig, "repeats must be at least 1", slog.Int("repeats", c.Repeats))
	}
	return nil
}

// scenario is a single input combination of the grid.
type scenario struct {
	index int
	input flow.Input
}

// cycleStart anchors the grid; the as-of date moves through the cycle.
var cycleStart = time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC)

func buildScenarios(cycleDays int, durations []int) []scenario {
	var scenarios []scenario
	for day := range cycleDays {
		for energy := 1; energy <= levels; energy++ {
			for pain := 1; pain <= levels; pain++ {
				for _, duration := range durations {
					scenarios = append(scenarios, scenario{
						index: len(scenarios),
						input: flow.Input{
							CycleStartDate:  cycleStart.Format(time.DateOnly),
							CycleLengthDays: nil,
							Energy:          &energy,
							Pain:            &pain,
							DurationMinutes: &duration,
							FocusCategories: nil,
							AsOf:            cycleStart.AddDate(0, 0, day),
						},
					})
				}
			}
		}
	}
	return scenarios
}

func parseDurations(s string) ([]int, error) {
	var durations []int
	for _, field := range strings.Split(s, ",") {
		minutes, err := flow.ParseDuration(field)
		if err != nil {
			return nil, errors.Wrap(err, "parse duration", slog.String("value", field))
		}
		durations = append(durations, minutes)
	}
	return durations, nil
}

// checkPlan verifies the invariants that must hold for every plan.
func checkPlan(plan flow.Plan) error {
	state := plan.BodyState
	if state.Allowed.Overlaps(state.Forbidden) || state.Allowed.Union(state.Forbidden) != flow.UniverseSet {
		return errors.Wrap(errMismatch, "allowed and forbidden do not partition the categories")
	}
	if state.Allowed.IsEmpty() {
		return errors.Wrap(errMismatch, "no allowed categories")
	}
	sum := 0
	for _, sec := range plan.Structure.Sections {
		if sec.Minutes < 0 {
			return errors.Wrap(errMismatch, "negative section budget", slog.String("section", string(sec.Name)))
		}
		sum += sec.Minutes
	}
	if sum != state.DurationMinutes {
		return errors.Wrap(errMismatch, "sections do not sum to duration",
			slog.Int("sum", sum), slog.Int("duration_minutes", state.DurationMinutes))
	}
	if len(plan.Sequence.Sections) != len(plan.Structure.Sections) {
		return errors.Wrap(errMismatch, "sequence and structure differ in length")
	}
	cool := plan.Sequence.Sections[len(plan.Sequence.Sections)-1]
	if cool.Section != flow.SectionCoolDown || len(cool.Picks) == 0 {
		return errors.Wrap(errMismatch, "cool-down without poses")
	}
	return nil
}

// runScenario plans s repeats times and compares the JSON encodings.
func runScenario(ctx context.Context, engine *flow.Engine, s scenario, repeats int) error {
	var first []byte
	for i := range repeats {
		plan, err := engine.Plan(ctx, s.input)
		if err != nil {
			return errors.Wrap(err, "plan")
		}
		if err = checkPlan(plan); err != nil {
			return err
		}
		encoded, err := json.Marshal(plan)
		if err != nil {
			return errors.Wrap(err, "marshal plan")
		}
		if i == 0 {
			first = encoded
			continue
		}
		if !bytes.Equal(first, encoded) {
			return errors.Wrap(errMismatch, "repeated plan differs", slog.Int("repeat", i))
		}
	}
	return nil
}

// stressTest runs every scenario concurrently and reports how many failed.
func stressTest(
	ctx context.Context,
	engine *flow.Engine,
	scenarios []scenario,
	cfg config,
	recorder *flightrecorder.Service,
	logger *slog.Logger,
) (int64, error) {
	logger.LogAttrs(ctx, slog.LevelInfo, "Starting stress test",
		slog.Int("scenarios", len(scenarios)),
		slog.Int("concurrency", cfg.Concurrency),
		slog.Int("repeats", cfg.Repeats))

	var successCount, failureCount atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Concurrency)

	for _, s := range scenarios {
		g.Go(func() error {
			scenarioCtx, cancel := context.WithTimeout(ctx, scenarioTimeout)
			defer cancel()
			scenarioCtx = logging.WithAttrs(scenarioCtx, slog.Int("scenario", s.index))

			if err := runScenario(scenarioCtx, engine, s, cfg.Repeats); err != nil {
				failureCount.Add(1)
				logger.LogAttrs(scenarioCtx, slog.LevelWarn, "Scenario failed",
					slog.Time("as_of", s.input.AsOf),
					slog.Int("energy", *s.input.Energy),
					slog.Int("pain", *s.input.Pain),
					slog.Int("duration_minutes", *s.input.DurationMinutes),
					errors.SlogError(err))
				if recorder != nil {
					recorder.Capture(scenarioCtx, fmt.Sprintf("scenario-%d", s.index))
				}
				return nil
			}
			successCount.Add(1)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return failureCount.Load(), fmt.Errorf("stress test failed: %w", err)
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "Stress test completed",
		slog.Int64("successful", successCount.Load()),
		slog.Int64("failed", failureCount.Load()))

	return failureCount.Load(), nil
}

func run(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error {
	var cfg config
	if err := envstruct.Populate(&cfg, lookupEnv); err != nil {
		return errors.Wrap(err, "populate config")
	}
	if err := cfg.validate(); err != nil {
		return err
	}
	durations, err := parseDurations(cfg.Durations)
	if err != nil {
		return err
	}

	catalogue, err := flow.DefaultCatalogue()
	if err != nil {
		return errors.Wrap(err, "load catalogue")
	}
	// Short sessions warn on every plan; only engine errors are shown.
	engineLogger := slog.New(logging.NewContextHandler(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		AddSource:   false,
		Level:       slog.LevelError,
		ReplaceAttr: nil,
	})))
	engine := flow.NewEngine(engineLogger, catalogue, nil)

	var recorder *flightrecorder.Service
	if cfg.TracesDirectory != "" {
		if recorder, err = flightrecorder.New(flightrecorder.Config{
			Logger:          logger,
			MinAge:          0,
			MaxBytes:        0,
			TracesDirectory: cfg.TracesDirectory,
			Cooldown:        0,
		}); err != nil {
			return errors.Wrap(err, "new flight recorder")
		}
		if err = recorder.Start(ctx); err != nil {
			return err
		}
		defer recorder.Stop(ctx)
	}

	start := time.Now()
	failed, err := stressTest(ctx, engine, buildScenarios(cfg.CycleDays, durations), cfg, recorder, logger)
	if err != nil {
		return err
	}
	if failed > 0 {
		return errors.Wrap(errMismatch, "scenarios failed", slog.Int64("failed", failed))
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "All scenarios deterministic",
		slog.Duration("total_duration", time.Since(start)))
	return nil
}

func main() {
	logger := testhelpers.NewLogger(os.Stdout)
	ctx := context.Background()

	if err := run(ctx, logger, os.LookupEnv); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "stress test failed", errors.SlogError(err))
		os.Exit(1)
	}
}
