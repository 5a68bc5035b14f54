// Package flow recommends a time-boxed yoga practice adapted to the menstrual cycle phase, energy and pain.
//
// The pipeline is: [CalculatePhase] → [EvaluateRules] and [NarrowFocus] → [FilterCandidates] → [BuildStructure] →
// [BuildSequence]. Every stage is a pure function over values; [Engine] wires them together with a [Catalogue] and an
// optional generative [Planner].
package flow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/myrjola/yogaflow/internal/errors"
	"github.com/myrjola/yogaflow/internal/logging"
)

// Planner is implemented by the generative layer. Its output replaces the deterministic structure and sequence.
// The engine falls back to [BuildStructure] and [BuildSequence] whenever a Planner call fails.
type Planner interface {
	PlanStructure(ctx context.Context, state BodyState, candidates []Entry) (Structure, error)
	PlanSequence(ctx context.Context, structure Structure, state BodyState, candidates []Entry) (Sequence, error)
}

// planNamespace scopes the name-based plan IDs.
var planNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/myrjola/yogaflow/plan"))

// Engine runs the decision pipeline. It holds no mutable state and is safe for concurrent use.
type Engine struct {
	logger    *slog.Logger
	catalogue *Catalogue
	planner   Planner
	now       func() time.Time
}

// NewEngine creates an engine over catalogue. planner may be nil, in which case only the deterministic planner is
// used.
func NewEngine(logger *slog.Logger, catalogue *Catalogue, planner Planner) *Engine {
	return &Engine{
		logger:    logger,
		catalogue: catalogue,
		planner:   planner,
		now:       time.Now,
	}
}

// Assess validates the input and derives the body state.
func (e *Engine) Assess(_ context.Context, in Input) (BodyState, error) {
	req, err := in.normalize(e.now())
	if err != nil {
		return BodyState{}, errors.Wrap(err, "validate input")
	}
	state, err := assess(req)
	if err != nil {
		return BodyState{}, errors.Wrap(err, "assess body state")
	}
	return state, nil
}

func assess(req request) (BodyState, error) {
	phase, day, err := CalculatePhase(req.start, req.asOf, req.cycleLength)
	if err != nil {
		return BodyState{}, fmt.Errorf("calculate phase: %w", err)
	}

	rules := EvaluateRules(phase, req.energy, req.pain)
	allowed := NarrowFocus(rules.Allowed, req.focus)

	return BodyState{
		Phase:           phase,
		DayInCycle:      day,
		CycleStartDate:  req.start,
		CycleLengthDays: req.cycleLength,
		Energy:          req.energy,
		Pain:            req.pain,
		DurationMinutes: req.duration,
		Intensity:       rules.Intensity,
		Allowed:         allowed,
		Forbidden:       allowed.Complement(),
		Focus:           req.focus,
	}, nil
}

// Candidates returns the catalogue entries matching the allowed categories of state.
func (e *Engine) Candidates(state BodyState) []Entry {
	return e.catalogue.Candidates(state.Allowed)
}

// Plan runs the whole pipeline for one request.
func (e *Engine) Plan(ctx context.Context, in Input) (Plan, error) {
	req, err := in.normalize(e.now())
	if err != nil {
		return Plan{}, errors.Wrap(err, "validate input")
	}
	state, err := assess(req)
	if err != nil {
		return Plan{}, errors.Wrap(err, "assess body state")
	}

	id := planID(req)
	ctx = logging.WithAttrs(ctx,
		slog.String("plan_id", id.String()),
		slog.String("phase", string(state.Phase)),
		slog.String("intensity", string(state.Intensity)))

	candidates := e.Candidates(state)
	plan := Plan{
		ID:              id,
		BodyState:       state,
		Structure:       Structure{},
		Sequence:        Sequence{},
		StructureSource: PlanSourceFallback,
		SequenceSource:  PlanSourceFallback,
	}

	if err = e.planStructure(ctx, &plan, candidates); err != nil {
		return Plan{}, err
	}
	if err = e.planSequence(ctx, &plan, candidates); err != nil {
		return Plan{}, err
	}

	if plan.Structure.Shortfall > 0 {
		e.logger.LogAttrs(ctx, slog.LevelWarn, "session shorter than breathing and cool-down budgets",
			slog.Int("duration_minutes", state.DurationMinutes),
			slog.Int("shortfall_minutes", plan.Structure.Shortfall))
	}
	e.logger.LogAttrs(ctx, slog.LevelDebug, "planned session",
		slog.Int("day_in_cycle", state.DayInCycle),
		slog.Int("candidates", len(candidates)),
		slog.String("allowed", state.Allowed.String()),
		slog.String("structure_source", string(plan.StructureSource)),
		slog.String("sequence_source", string(plan.SequenceSource)))

	return plan, nil
}

func (e *Engine) planStructure(ctx context.Context, plan *Plan, candidates []Entry) error {
	if e.planner != nil {
		structure, err := e.planner.PlanStructure(ctx, plan.BodyState, candidates)
		switch {
		case err == nil && validStructure(structure):
			plan.Structure = structure
			plan.StructureSource = PlanSourcePlanner
			return nil
		case ctx.Err() != nil:
			return errors.Wrap(ctx.Err(), "plan structure")
		case err != nil:
			e.logger.LogAttrs(ctx, slog.LevelWarn, "planner structure failed, using fallback", errors.SlogError(err))
		default:
			e.logger.LogAttrs(ctx, slog.LevelWarn, "planner returned unusable structure, using fallback",
				slog.Int("sections", len(structure.Sections)))
		}
	}
	plan.Structure = BuildStructure(plan.BodyState)
	return nil
}

func (e *Engine) planSequence(ctx context.Context, plan *Plan, candidates []Entry) error {
	if e.planner != nil {
		sequence, err := e.planner.PlanSequence(ctx, plan.Structure, plan.BodyState, candidates)
		switch {
		case err == nil && len(sequence.Sections) > 0:
			plan.Sequence = sequence
			plan.SequenceSource = PlanSourcePlanner
			return nil
		case ctx.Err() != nil:
			return errors.Wrap(ctx.Err(), "plan sequence")
		case err != nil:
			e.logger.LogAttrs(ctx, slog.LevelWarn, "planner sequence failed, using fallback", errors.SlogError(err))
		default:
			e.logger.LogAttrs(ctx, slog.LevelWarn, "planner returned empty sequence, using fallback")
		}
	}
	plan.Sequence = BuildSequence(plan.Structure, plan.BodyState, candidates)
	return nil
}

// planID derives a stable ID from the validated request so that identical requests get identical plans.
func planID(req request) uuid.UUID {
	name := fmt.Sprintf("%s|%s|%d|%d|%d|%d|%s",
		req.start.Format(time.DateOnly), req.asOf.Format(time.DateOnly),
		req.cycleLength, req.energy, req.pain, req.duration, req.focus)
	return uuid.NewSHA1(planNamespace, []byte(name))
}
