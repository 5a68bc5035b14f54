// Command flowplan runs the planning pipeline once and prints the plan.
//
// Usage:
//
//	flowplan <cycle-start-date>
//
// The remaining inputs are read from FLOWPLAN_* environment variables, see [config].
package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/myrjola/yogaflow/internal/envstruct"
	"github.com/myrjola/yogaflow/internal/errors"
	"github.com/myrjola/yogaflow/internal/flow"
	"github.com/myrjola/yogaflow/internal/logging"
)

var (
	errUsage         = errors.NewSentinel("usage: flowplan <cycle-start-date>")
	errUnknownFormat = errors.NewSentinel("unknown output format")
)

type config struct {
	// CycleLength is the cycle length in days.
	CycleLength int `env:"FLOWPLAN_CYCLE_LENGTH" envDefault:"28"`
	// Energy is the self-reported energy level from 1 to 5.
	Energy int `env:"FLOWPLAN_ENERGY" envDefault:"3"`
	// Pain is the self-reported pain level from 1 to 5.
	Pain int `env:"FLOWPLAN_PAIN" envDefault:"1"`
	// Duration is the session length, e.g. "20 min" or "1 hour".
	Duration string `env:"FLOWPLAN_DURATION" envDefault:"20 min"`
	// Focus is a comma separated list of categories. Unknown names are ignored.
	Focus string `env:"FLOWPLAN_FOCUS" envDefault:""`
	// AsOf is the YYYY-MM-DD date to plan for. Empty means today.
	AsOf string `env:"FLOWPLAN_AS_OF" envDefault:""`
	// Format is one of json, markdown or html.
	Format string `env:"FLOWPLAN_FORMAT" envDefault:"json"`
	// ShowCandidates lists the candidate poses below the plan in markdown and html output.
	ShowCandidates bool `env:"FLOWPLAN_SHOW_CANDIDATES" envDefault:"false"`
}

func (cfg config) input(cycleStart string) (flow.Input, error) {
	duration, err := flow.ParseDuration(cfg.Duration)
	if err != nil {
		return flow.Input{}, errors.Wrap(err, "parse duration", slog.String("value", cfg.Duration))
	}

	var asOf time.Time
	if cfg.AsOf != "" {
		if asOf, err = time.Parse(time.DateOnly, cfg.AsOf); err != nil {
			return flow.Input{}, errors.Wrap(err, "parse as-of date", slog.String("value", cfg.AsOf))
		}
	}

	var focus []flow.Category
	if cfg.Focus != "" {
		focus = flow.ParseFocus(strings.Split(cfg.Focus, ","))
	}

	return flow.Input{
		CycleStartDate:  cycleStart,
		CycleLengthDays: &cfg.CycleLength,
		Energy:          &cfg.Energy,
		Pain:            &cfg.Pain,
		DurationMinutes: &duration,
		FocusCategories: focus,
		AsOf:            asOf,
	}, nil
}

func run(
	ctx context.Context,
	stdout io.Writer,
	logger *slog.Logger,
	args []string,
	lookupEnv func(string) (string, bool),
) error {
	var (
		cancel context.CancelFunc
		err    error
	)

	ctx, cancel = signal.NotifyContext(ctx, os.Interrupt)
	defer cancel()

	if len(args) != 2 { //nolint:mnd // program name and cycle start date
		return errUsage
	}

	var cfg config
	if err = envstruct.Populate(&cfg, lookupEnv); err != nil {
		return errors.Wrap(err, "populate config")
	}

	var render renderer
	if render, err = rendererFor(cfg.Format); err != nil {
		return err
	}

	in, err := cfg.input(args[1])
	if err != nil {
		return errors.Wrap(err, "build input")
	}

	catalogue, err := flow.DefaultCatalogue()
	if err != nil {
		return errors.Wrap(err, "load catalogue")
	}
	engine := flow.NewEngine(logger, catalogue, nil)

	ctx = logging.WithAttrs(ctx, slog.String("format", cfg.Format))
	plan, err := engine.Plan(ctx, in)
	if err != nil {
		return errors.Wrap(err, "plan session")
	}

	var candidates []flow.Entry
	if cfg.ShowCandidates {
		candidates = engine.Candidates(plan.BodyState)
	}
	if err = render(stdout, plan, candidates); err != nil {
		return errors.Wrap(err, "render plan", slog.String("format", cfg.Format))
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "plan written",
		slog.String("plan_id", plan.ID.String()),
		slog.String("phase", string(plan.BodyState.Phase)))
	return nil
}

func main() {
	ctx := context.Background()
	loggerHandler := logging.NewContextHandler(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		AddSource:   false,
		Level:       slog.LevelInfo,
		ReplaceAttr: nil,
	}))
	logger := slog.New(loggerHandler)
	if err := run(ctx, os.Stdout, logger, os.Args, os.LookupEnv); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "failure planning session", errors.SlogError(err))
		os.Exit(1)
	}
}
