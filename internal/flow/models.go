package flow

import (
	"time"

	"github.com/google/uuid"
)

// Phase represents the menstrual cycle phase.
type Phase string

const (
	PhaseMenstrual  Phase = "menstrual"
	PhaseFollicular Phase = "follicular"
	PhaseOvulation  Phase = "ovulation"
	PhaseLuteal     Phase = "luteal"
)

// Intensity is the overall difficulty of a session.
type Intensity string

const (
	IntensityLow      Intensity = "low"
	IntensityModerate Intensity = "moderate"
	IntensityHigh     Intensity = "high"
)

// Difficulty is the tier of a pose. Tiers are totally ordered, see [Difficulty.Rank].
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// Rank orders difficulties from beginner (1) to advanced (3). Unknown tiers rank 0.
func (d Difficulty) Rank() int {
	switch d {
	case DifficultyBeginner:
		return 1
	case DifficultyIntermediate:
		return 2 //nolint:mnd // second tier
	case DifficultyAdvanced:
		return 3 //nolint:mnd // third tier
	default:
		return 0
	}
}

// Entry is a single pose in the catalogue, e.g. child_pose or warrior_ii.
type Entry struct {
	Name               string      `json:"name"`
	Sanskrit           string      `json:"sanskrit"`
	Categories         CategorySet `json:"types"`
	Difficulty         Difficulty  `json:"difficulty"`
	DurationSuggestion string      `json:"duration_suggestion"`
}

// BodyState is the derived state for one request. It is a value and never modified after [Engine.Assess] returns it.
type BodyState struct {
	Phase           Phase       `json:"cycle_phase"`
	DayInCycle      int         `json:"day_in_cycle"`
	CycleStartDate  time.Time   `json:"last_period_date"`
	CycleLengthDays int         `json:"cycle_length"`
	Energy          int         `json:"energy_level"`
	Pain            int         `json:"pain_level"`
	DurationMinutes int         `json:"duration_minutes"`
	Intensity       Intensity   `json:"intensity"`
	Allowed         CategorySet `json:"allowed_pose_types"`
	Forbidden       CategorySet `json:"forbidden_pose_types"`
	Focus           CategorySet `json:"training_focus"`
}

// SectionName names a segment of a session.
type SectionName string

const (
	SectionBreathing    SectionName = "breathing"
	SectionGentleFlow   SectionName = "gentle_flow"
	SectionModerateFlow SectionName = "moderate_flow"
	SectionDynamicFlow  SectionName = "dynamic_flow"
	SectionCoolDown     SectionName = "cool_down"
)

// IsFlow reports whether the section is one of the main flow sections.
func (n SectionName) IsFlow() bool {
	return n == SectionGentleFlow || n == SectionModerateFlow || n == SectionDynamicFlow
}

// Section is a time-budgeted segment of a session.
type Section struct {
	Name        SectionName `json:"section"`
	Minutes     int         `json:"minutes"`
	Description string      `json:"description"`
}

// Structure is the ordered list of sections for a session.
type Structure struct {
	Sections     []Section `json:"structure"`
	TotalMinutes int       `json:"total_minutes"`
	Rationale    string    `json:"rationale"`
	// Shortfall is the number of minutes taken from the breathing and cool-down budgets because the session was
	// shorter than their combined tier budget.
	Shortfall int `json:"shortfall,omitempty"`
}

// Pick is one pose assigned to a section. Either Duration or Reps is set.
type Pick struct {
	Pose     string `json:"pose"`
	Duration string `json:"duration,omitempty"`
	Reps     int    `json:"reps,omitempty"`
	Notes    string `json:"notes"`
}

// SequenceSection is a section populated with picks.
type SequenceSection struct {
	Section SectionName `json:"section"`
	Picks   []Pick      `json:"poses"`
}

// Sequence is the ordered list of populated sections.
type Sequence struct {
	Sections              []SequenceSection `json:"sequence"`
	TotalEstimatedMinutes int               `json:"total_estimated_minutes"`
}

// PlanSource tells which planner produced a stage of a [Plan].
type PlanSource string

const (
	PlanSourceFallback PlanSource = "fallback"
	PlanSourcePlanner  PlanSource = "planner"
)

// Plan is the combined output of one pipeline run. Persistence collaborators treat it as an opaque record.
type Plan struct {
	ID              uuid.UUID  `json:"id"`
	BodyState       BodyState  `json:"body_state"`
	Structure       Structure  `json:"structure"`
	Sequence        Sequence   `json:"sequence"`
	StructureSource PlanSource `json:"structure_source"`
	SequenceSource  PlanSource `json:"sequence_source"`
}
