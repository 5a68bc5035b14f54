package flow

import "fmt"

// structureTier holds the fixed breathing and cool-down budgets for sessions up to maxMinutes long.
type structureTier struct {
	maxMinutes       int
	breathingMinutes int
	coolDownMinutes  int
}

// structureTiers are ordered by maxMinutes. Longer sessions than the last tier use the last tier.
var structureTiers = []structureTier{
	{maxMinutes: 15, breathingMinutes: 2, coolDownMinutes: 3},
	{maxMinutes: 30, breathingMinutes: 3, coolDownMinutes: 5},
	{maxMinutes: 0, breathingMinutes: 5, coolDownMinutes: 7},
}

func tierFor(totalMinutes int) structureTier {
	for _, t := range structureTiers[:len(structureTiers)-1] {
		if totalMinutes <= t.maxMinutes {
			return t
		}
	}
	return structureTiers[len(structureTiers)-1]
}

// mainSectionName picks the flow section matching the intensity.
func mainSectionName(intensity Intensity) SectionName {
	switch intensity {
	case IntensityLow:
		return SectionGentleFlow
	case IntensityHigh:
		return SectionDynamicFlow
	case IntensityModerate:
		return SectionModerateFlow
	default:
		return SectionModerateFlow
	}
}

// allocateMinutes splits total into breathing, main and cool-down budgets that sum to total exactly.
//
// When total is smaller than the tier's breathing and cool-down budgets combined, main gets nothing and the deficit is
// taken from breathing first, then from cool-down. The minutes taken are returned as shortfall.
func allocateMinutes(total int) (breathing, main, coolDown, shortfall int) {
	tier := tierFor(total)
	breathing, coolDown = tier.breathingMinutes, tier.coolDownMinutes
	main = total - breathing - coolDown
	if main >= 0 {
		return breathing, main, coolDown, 0
	}

	shortfall = -main
	deficit := shortfall
	take := min(deficit, breathing)
	breathing -= take
	deficit -= take
	coolDown -= min(deficit, coolDown)
	return breathing, 0, coolDown, shortfall
}

// BuildStructure is the deterministic structure stage: it partitions the session into breathing, a main flow and a
// cool-down whose minutes sum to the requested duration.
func BuildStructure(state BodyState) Structure {
	breathing, main, coolDown, shortfall := allocateMinutes(state.DurationMinutes)

	return Structure{
		Sections: []Section{
			{
				Name:        SectionBreathing,
				Minutes:     breathing,
				Description: "Centering and breath awareness to begin the practice",
			},
			{
				Name:    mainSectionName(state.Intensity),
				Minutes: main,
				Description: fmt.Sprintf("Main practice adapted for %s phase with %s intensity",
					state.Phase, state.Intensity),
			},
			{
				Name:        SectionCoolDown,
				Minutes:     coolDown,
				Description: "Restorative poses and gentle release",
			},
		},
		TotalMinutes: state.DurationMinutes,
		Rationale: fmt.Sprintf(
			"Designed for %s phase with %s intensity, respecting energy level %d/5 and pain level %d/5",
			state.Phase, state.Intensity, state.Energy, state.Pain),
		Shortfall: shortfall,
	}
}

// validStructure reports whether a structure from a collaborator planner can be sequenced.
func validStructure(s Structure) bool {
	if len(s.Sections) == 0 {
		return false
	}
	for _, sec := range s.Sections {
		if sec.Minutes < 0 || sec.Name == "" {
			return false
		}
	}
	return true
}
