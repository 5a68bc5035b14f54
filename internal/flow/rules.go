package flow

// Rules is the outcome of evaluating the safety rules for a phase, energy and pain combination.
//
// Allowed and Forbidden always partition the category universe.
type Rules struct {
	Allowed   CategorySet
	Forbidden CategorySet
	Intensity Intensity
}

// phaseRule is the base allow-list of a phase plus one conditional extension.
type phaseRule struct {
	base      CategorySet
	extension CategorySet
	// extend decides whether extension applies at the given energy level.
	extend func(energy int) bool
}

var phaseRules = map[Phase]phaseRule{
	PhaseMenstrual: {
		base: NewCategorySet(
			CategoryRestorative, CategoryGentleStretch, CategoryBreathing, CategoryForwardFold,
			CategorySeated, CategoryYin, CategorySomatic, CategoryMobility,
		),
		extension: NewCategorySet(CategoryHipOpener),
		extend:    func(energy int) bool { return energy <= 2 }, //nolint:mnd // low energy
	},
	PhaseFollicular: {
		base: NewCategorySet(
			CategoryStanding, CategoryBalance, CategoryGentleStretch, CategoryBreathing,
			CategoryHipOpener, CategoryForwardFold, CategoryTwist, CategorySeated,
			CategorySideBend, CategoryYin, CategorySomatic, CategoryMobility,
		),
		extension: NewCategorySet(CategoryBackbend, CategoryArmBalance),
		extend:    func(energy int) bool { return energy >= 3 }, //nolint:mnd // normal energy
	},
	PhaseOvulation: {
		base: NewCategorySet(
			CategoryStanding, CategoryBalance, CategoryBackbend, CategoryForwardFold,
			CategoryTwist, CategoryArmBalance, CategoryStrongCore, CategoryHipOpener,
			CategoryBreathing, CategoryGentleStretch, CategorySeated, CategorySideBend,
			CategoryYin, CategorySomatic, CategoryMobility,
		),
		extension: NewCategorySet(CategoryInversion),
		extend:    func(energy int) bool { return energy >= 4 }, //nolint:mnd // high energy
	},
	PhaseLuteal: {
		base: NewCategorySet(
			CategoryGentleStretch, CategoryBreathing, CategoryForwardFold, CategoryHipOpener,
			CategoryTwist, CategoryRestorative, CategorySeated, CategoryYin,
			CategorySomatic, CategoryMobility,
		),
		extension: NewCategorySet(CategoryStanding, CategoryBalance, CategorySideBend),
		extend:    func(energy int) bool { return energy >= 3 }, //nolint:mnd // normal energy
	},
}

var (
	// veryGentle is all that remains allowed under high pain.
	veryGentle = NewCategorySet(
		CategoryRestorative, CategoryGentleStretch, CategoryBreathing,
		CategoryYin, CategorySomatic, CategoryMobility,
	)
	moderatePainExcluded = NewCategorySet(
		CategoryInversion, CategoryArmBalance, CategoryStrongCore, CategoryBackbend,
	)
	exhausted         = NewCategorySet(CategoryRestorative, CategoryBreathing)
	lowEnergyExcluded = NewCategorySet(CategoryInversion, CategoryArmBalance, CategoryStrongCore)
)

// override transforms the allowed set given the raw inputs. Overrides never mutate; they return a new set.
type override func(allowed CategorySet, energy, pain int) CategorySet

// overrides run in this order. Pain passes come before energy passes.
var overrides = []override{
	painOverride,
	energyOverride,
}

func painOverride(allowed CategorySet, _, pain int) CategorySet {
	switch {
	case pain >= 4: //nolint:mnd // high pain
		return allowed.Intersect(veryGentle)
	case pain >= 3: //nolint:mnd // moderate pain
		return allowed.Without(moderatePainExcluded)
	default:
		return allowed
	}
}

// energyOverride replaces the accumulated set entirely when energy is at its lowest.
func energyOverride(allowed CategorySet, energy, _ int) CategorySet {
	switch {
	case energy <= 1:
		return exhausted
	case energy <= 2: //nolint:mnd // low energy
		return allowed.Without(lowEnergyExcluded)
	default:
		return allowed
	}
}

// baseCategories returns the phase allow-list including its conditional extension.
func baseCategories(phase Phase, energy int) CategorySet {
	rule, ok := phaseRules[phase]
	if !ok {
		return 0
	}
	allowed := rule.base
	if rule.extend(energy) {
		allowed = allowed.Union(rule.extension)
	}
	return allowed
}

// AllowedCategories evaluates the phase table and the override passes.
func AllowedCategories(phase Phase, energy, pain int) CategorySet {
	allowed := baseCategories(phase, energy)
	for _, o := range overrides {
		allowed = o(allowed, energy, pain)
	}
	return allowed
}

// SessionIntensity derives the session intensity. Pain is checked first, then energy, then the phase defaults.
func SessionIntensity(phase Phase, energy, pain int) Intensity {
	switch {
	case pain >= 3: //nolint:mnd // moderate pain
		return IntensityLow
	case energy <= 2: //nolint:mnd // low energy
		return IntensityLow
	}

	switch {
	case phase == PhaseMenstrual:
		return IntensityLow
	case phase == PhaseOvulation && energy >= 4: //nolint:mnd // high energy
		return IntensityHigh
	case phase == PhaseFollicular && energy >= 3: //nolint:mnd // normal energy
		return IntensityModerate
	case phase == PhaseLuteal:
		return IntensityModerate
	default:
		return IntensityModerate
	}
}

// EvaluateRules maps phase, energy (1-5) and pain (1-5) to allowed and forbidden categories and an intensity.
//
// Inputs are expected to be validated; out of range values are not clamped.
func EvaluateRules(phase Phase, energy, pain int) Rules {
	allowed := AllowedCategories(phase, energy, pain)
	return Rules{
		Allowed:   allowed,
		Forbidden: allowed.Complement(),
		Intensity: SessionIntensity(phase, energy, pain),
	}
}

// NarrowFocus restricts allowed to the focus categories. If focus is empty or nothing in focus is allowed, allowed is
// returned unchanged so that a session can always be built.
func NarrowFocus(allowed, focus CategorySet) CategorySet {
	if focus.IsEmpty() {
		return allowed
	}
	if narrowed := allowed.Intersect(focus); !narrowed.IsEmpty() {
		return narrowed
	}
	return allowed
}
