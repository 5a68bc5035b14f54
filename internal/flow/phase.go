package flow

import "time"

// Phase boundaries in days since cycle start. They are anchored to a 28-day reference cycle and are NOT scaled by the
// actual cycle length: a 14-day cycle never leaves the menstrual and follicular phases and a 40-day cycle spends days
// 17-39 in the luteal phase.
const (
	lastMenstrualDay  = 5
	lastFollicularDay = 13
	lastOvulationDay  = 16
)

// DefaultCycleLengthDays is used when the caller does not provide a cycle length.
const DefaultCycleLengthDays = 28

// CalculatePhase returns the cycle phase and the zero-based day in the cycle on asOf for a cycle that started on start.
//
// Only the calendar dates matter; the time of day and location are ignored. The day index is always in
// [0, cycleLength) even if asOf precedes start, callers that consider that invalid must reject it beforehand.
func CalculatePhase(start, asOf time.Time, cycleLength int) (Phase, int, error) {
	if cycleLength <= 0 {
		return "", 0, ErrInvalidCycleLength
	}

	elapsed := daysBetween(start, asOf)
	day := elapsed % cycleLength
	if day < 0 {
		day += cycleLength
	}

	return phaseForDay(day), day, nil
}

func phaseForDay(day int) Phase {
	switch {
	case day <= lastMenstrualDay:
		return PhaseMenstrual
	case day <= lastFollicularDay:
		return PhaseFollicular
	case day <= lastOvulationDay:
		return PhaseOvulation
	default:
		return PhaseLuteal
	}
}

// daysBetween counts calendar days from a to b.
func daysBetween(a, b time.Time) int {
	const day = 24 * time.Hour
	return int(civilDate(b).Sub(civilDate(a)) / day)
}

// civilDate normalizes t to midnight UTC of its calendar date.
func civilDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Guidance is the general recommendation for a phase, shown next to the derived body state.
type Guidance struct {
	RecommendedIntensity string `json:"recommended_intensity"`
	EnergyTrend          string `json:"energy_level"`
	Focus                string `json:"focus"`
}

var phaseGuidance = map[Phase]Guidance{
	PhaseMenstrual:  {RecommendedIntensity: "low", EnergyTrend: "low", Focus: "restorative"},
	PhaseFollicular: {RecommendedIntensity: "moderate_to_high", EnergyTrend: "increasing", Focus: "strength_building"},
	PhaseOvulation:  {RecommendedIntensity: "high", EnergyTrend: "peak", Focus: "peak_performance"},
	PhaseLuteal:     {RecommendedIntensity: "moderate_to_low", EnergyTrend: "decreasing", Focus: "gentle_movement"},
}

// GuidanceFor returns the guidance for phase. Unknown phases get the menstrual guidance.
func GuidanceFor(phase Phase) Guidance {
	if g, ok := phaseGuidance[phase]; ok {
		return g
	}
	return phaseGuidance[PhaseMenstrual]
}
