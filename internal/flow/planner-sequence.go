package flow

import (
	"fmt"
	"slices"
)

// Sequence stage constants.
const (
	// broadenedCandidates is how many candidates are used when the phase pre-filter leaves nothing.
	broadenedCandidates = 10
	maxMainPicks        = 5
	maxCoolDownPicks    = 3
	warmUpMinutes       = 2
	warmUpReps          = 6
	mainPickMinutes     = 1
	// mainReserveMinutes is left unallocated at the end of the main section.
	mainReserveMinutes = 2

	breathAwarenessPose   = "breath_awareness"
	finalRestingPose      = "child_pose"
	defaultDurationOnPose = "1 min"
)

var (
	menstrualFriendly = NewCategorySet(
		CategoryRestorative, CategoryGentleStretch, CategoryBreathing, CategoryForwardFold,
	)
	coolDownCategories = NewCategorySet(CategoryRestorative, CategoryGentleStretch, CategoryForwardFold)
	warmUpCategories   = NewCategorySet(CategoryGentleStretch)
)

// suitableForPhase is the phase and intensity pre-filter layered on top of the allowed-category filter.
func suitableForPhase(e Entry, phase Phase, intensity Intensity) bool {
	switch phase {
	case PhaseMenstrual:
		return e.Categories.Overlaps(menstrualFriendly) &&
			(intensity == IntensityLow || e.Difficulty == DifficultyBeginner)
	case PhaseOvulation:
		return intensity == IntensityHigh || e.Difficulty != DifficultyAdvanced
	case PhaseFollicular, PhaseLuteal:
		return e.Difficulty != DifficultyAdvanced
	default:
		return e.Difficulty != DifficultyAdvanced
	}
}

// filterForPhase applies the pre-filter. If nothing survives, the first candidates are used so that sections are
// never empty.
func filterForPhase(candidates []Entry, phase Phase, intensity Intensity) []Entry {
	var suitable []Entry
	for _, e := range candidates {
		if suitableForPhase(e, phase, intensity) {
			suitable = append(suitable, e)
		}
	}
	if len(suitable) > 0 {
		return suitable
	}
	return candidates[:min(broadenedCandidates, len(candidates))]
}

// BuildSequence is the deterministic sequence stage. It fills each section of structure with picks from candidates.
//
// Minute budgets are followed loosely: a warm-up is always added when available and picks may overrun a section.
func BuildSequence(structure Structure, state BodyState, candidates []Entry) Sequence {
	suitable := filterForPhase(candidates, state.Phase, state.Intensity)

	sections := make([]SequenceSection, 0, len(structure.Sections))
	for _, sec := range structure.Sections {
		var picks []Pick
		switch {
		case sec.Name == SectionBreathing:
			picks = breathingPicks(sec.Minutes)
		case sec.Name.IsFlow():
			picks = mainPicks(suitable, sec.Minutes)
		case sec.Name == SectionCoolDown:
			picks = coolDownPicks(suitable, sec.Minutes)
		default:
			picks = []Pick{}
		}
		sections = append(sections, SequenceSection{Section: sec.Name, Picks: picks})
	}

	return Sequence{
		Sections:              sections,
		TotalEstimatedMinutes: structure.TotalMinutes,
	}
}

func breathingPicks(minutes int) []Pick {
	return []Pick{{
		Pose:     breathAwarenessPose,
		Duration: FormatDuration(minutes),
		Reps:     0,
		Notes:    "Focus on natural breathing, then deepen gradually",
	}}
}

// mainPicks opens with a gentle warm-up when one is available and then adds up to five distinct poses, one minute
// each, until only the reserve is left of the budget.
func mainPicks(suitable []Entry, minutes int) []Pick {
	var (
		picks  []Pick
		used   int
		warmUp string
	)

	if i := slices.IndexFunc(suitable, func(e Entry) bool { return e.Categories.Overlaps(warmUpCategories) }); i >= 0 {
		warmUp = suitable[i].Name
		picks = append(picks, Pick{
			Pose:     warmUp,
			Duration: "",
			Reps:     warmUpReps,
			Notes:    "Move with breath",
		})
		used += warmUpMinutes
	}

	var main []Entry
	for _, e := range suitable {
		if len(main) == maxMainPicks {
			break
		}
		if e.Name == warmUp {
			continue
		}
		if used >= minutes-mainReserveMinutes {
			break
		}
		main = append(main, e)
		used += mainPickMinutes
	}

	// Progress from gentler to more demanding poses.
	slices.SortStableFunc(main, func(a, b Entry) int {
		return a.Difficulty.Rank() - b.Difficulty.Rank()
	})
	for _, e := range main {
		picks = append(picks, Pick{
			Pose:     e.Name,
			Duration: durationOrDefault(e),
			Reps:     0,
			Notes:    fmt.Sprintf("Hold or flow through %s", e.Name),
		})
	}

	if picks == nil {
		return []Pick{}
	}
	return picks
}

// coolDownPicks takes up to three restful poses. Without any, a single resting pose fills the whole section.
func coolDownPicks(suitable []Entry, minutes int) []Pick {
	var picks []Pick
	for _, e := range suitable {
		if len(picks) == maxCoolDownPicks {
			break
		}
		if !e.Categories.Overlaps(coolDownCategories) {
			continue
		}
		picks = append(picks, Pick{
			Pose:     e.Name,
			Duration: durationOrDefault(e),
			Reps:     0,
			Notes:    "Rest and release",
		})
	}
	if len(picks) > 0 {
		return picks
	}

	return []Pick{{
		Pose:     finalRestingPose,
		Duration: FormatDuration(minutes),
		Reps:     0,
		Notes:    "Final resting pose",
	}}
}

func durationOrDefault(e Entry) string {
	if e.DurationSuggestion == "" {
		return defaultDurationOnPose
	}
	return e.DurationSuggestion
}
