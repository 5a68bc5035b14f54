package flow

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

var allPhases = []Phase{PhaseMenstrual, PhaseFollicular, PhaseOvulation, PhaseLuteal}

func TestEvaluateRules(t *testing.T) {
	testCases := []struct {
		name          string
		phase         Phase
		energy        int
		pain          int
		wantAllowed   []Category
		wantIntensity Intensity
	}{
		{
			name:   "Follicular with low energy and moderate pain",
			phase:  PhaseFollicular,
			energy: 2,
			pain:   3,
			wantAllowed: []Category{
				CategoryGentleStretch, CategoryStanding, CategoryBalance, CategoryForwardFold, CategoryTwist,
				CategoryHipOpener, CategoryBreathing, CategorySeated, CategorySideBend, CategoryYin,
				CategorySomatic, CategoryMobility,
			},
			wantIntensity: IntensityLow,
		},
		{
			name:   "Follicular with normal energy unlocks backbends and arm balances",
			phase:  PhaseFollicular,
			energy: 3,
			pain:   1,
			wantAllowed: []Category{
				CategoryGentleStretch, CategoryStanding, CategoryBalance, CategoryBackbend, CategoryForwardFold,
				CategoryTwist, CategoryArmBalance, CategoryHipOpener, CategoryBreathing, CategorySeated,
				CategorySideBend, CategoryYin, CategorySomatic, CategoryMobility,
			},
			wantIntensity: IntensityModerate,
		},
		{
			name:   "Menstrual with low energy adds hip openers",
			phase:  PhaseMenstrual,
			energy: 2,
			pain:   1,
			wantAllowed: []Category{
				CategoryRestorative, CategoryGentleStretch, CategoryForwardFold, CategoryHipOpener,
				CategoryBreathing, CategorySeated, CategoryYin, CategorySomatic, CategoryMobility,
			},
			wantIntensity: IntensityLow,
		},
		{
			name:   "Menstrual with normal energy",
			phase:  PhaseMenstrual,
			energy: 3,
			pain:   1,
			wantAllowed: []Category{
				CategoryRestorative, CategoryGentleStretch, CategoryForwardFold, CategoryBreathing,
				CategorySeated, CategoryYin, CategorySomatic, CategoryMobility,
			},
			wantIntensity: IntensityLow,
		},
		{
			name:   "Ovulation at peak energy",
			phase:  PhaseOvulation,
			energy: 5,
			pain:   1,
			wantAllowed: []Category{
				CategoryGentleStretch, CategoryStanding, CategoryBalance, CategoryBackbend, CategoryForwardFold,
				CategoryTwist, CategoryInversion, CategoryArmBalance, CategoryStrongCore, CategoryHipOpener,
				CategoryBreathing, CategorySeated, CategorySideBend, CategoryYin, CategorySomatic,
				CategoryMobility,
			},
			wantIntensity: IntensityHigh,
		},
		{
			name:   "Ovulation with normal energy stays moderate",
			phase:  PhaseOvulation,
			energy: 3,
			pain:   2,
			wantAllowed: []Category{
				CategoryGentleStretch, CategoryStanding, CategoryBalance, CategoryBackbend, CategoryForwardFold,
				CategoryTwist, CategoryArmBalance, CategoryStrongCore, CategoryHipOpener, CategoryBreathing,
				CategorySeated, CategorySideBend, CategoryYin, CategorySomatic, CategoryMobility,
			},
			wantIntensity: IntensityModerate,
		},
		{
			name:   "Luteal with high pain keeps only very gentle categories",
			phase:  PhaseLuteal,
			energy: 4,
			pain:   4,
			wantAllowed: []Category{
				CategoryRestorative, CategoryGentleStretch, CategoryBreathing, CategoryYin,
				CategorySomatic, CategoryMobility,
			},
			wantIntensity: IntensityLow,
		},
		{
			name:          "Exhausted replaces everything with rest and breath",
			phase:         PhaseOvulation,
			energy:        1,
			pain:          1,
			wantAllowed:   []Category{CategoryRestorative, CategoryBreathing},
			wantIntensity: IntensityLow,
		},
		{
			name:          "Exhaustion also overrides the high pain narrowing",
			phase:         PhaseFollicular,
			energy:        1,
			pain:          5,
			wantAllowed:   []Category{CategoryRestorative, CategoryBreathing},
			wantIntensity: IntensityLow,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rules := EvaluateRules(tc.phase, tc.energy, tc.pain)
			if diff := cmp.Diff(tc.wantAllowed, rules.Allowed.Slice()); diff != "" {
				t.Errorf("allowed mismatch (-want +got):\n%s", diff)
			}
			if rules.Intensity != tc.wantIntensity {
				t.Errorf("Expected intensity %s, got %s", tc.wantIntensity, rules.Intensity)
			}
		})
	}
}

func TestEvaluateRules_Invariants(t *testing.T) {
	for _, phase := range allPhases {
		for energy := 1; energy <= 5; energy++ {
			for pain := 1; pain <= 5; pain++ {
				t.Run(fmt.Sprintf("%s/energy=%d/pain=%d", phase, energy, pain), func(t *testing.T) {
					rules := EvaluateRules(phase, energy, pain)

					if rules.Allowed.Overlaps(rules.Forbidden) {
						t.Errorf("Allowed and forbidden overlap: %s", rules.Allowed.Intersect(rules.Forbidden))
					}
					if rules.Allowed.Union(rules.Forbidden) != UniverseSet {
						t.Errorf("Allowed and forbidden do not cover the universe")
					}
					if rules.Allowed.IsEmpty() {
						t.Errorf("Expected at least one allowed category")
					}

					if energy == 1 {
						if rules.Allowed != NewCategorySet(CategoryRestorative, CategoryBreathing) {
							t.Errorf("Expected only restorative and breathing when exhausted, got %s", rules.Allowed)
						}
					}
					if pain >= 3 {
						if rules.Allowed.Overlaps(moderatePainExcluded) {
							t.Errorf("Expected no demanding categories at pain %d, got %s", pain, rules.Allowed)
						}
						if rules.Intensity != IntensityLow {
							t.Errorf("Expected low intensity at pain %d, got %s", pain, rules.Intensity)
						}
					}
					if energy <= 2 && rules.Intensity != IntensityLow {
						t.Errorf("Expected low intensity at energy %d, got %s", energy, rules.Intensity)
					}
				})
			}
		}
	}
}

func TestEvaluateRules_PainNeverWidens(t *testing.T) {
	for _, phase := range allPhases {
		for energy := 1; energy <= 5; energy++ {
			for pain := 2; pain <= 4; pain++ {
				more := EvaluateRules(phase, energy, pain+1).Allowed
				less := EvaluateRules(phase, energy, pain).Allowed
				if more.Without(less) != 0 {
					t.Errorf("%s energy=%d: pain %d allows %s that pain %d forbids",
						phase, energy, pain+1, more.Without(less), pain)
				}
			}
		}
	}
}

func TestEvaluateRules_DoesNotMutateTables(t *testing.T) {
	before := phaseRules[PhaseFollicular].base
	_ = EvaluateRules(PhaseFollicular, 1, 5)
	_ = EvaluateRules(PhaseFollicular, 2, 4)
	if after := phaseRules[PhaseFollicular].base; after != before {
		t.Errorf("Expected phase table to stay %s, got %s", before, after)
	}
}

func TestSessionIntensity(t *testing.T) {
	testCases := []struct {
		phase  Phase
		energy int
		pain   int
		want   Intensity
	}{
		{phase: PhaseMenstrual, energy: 5, pain: 1, want: IntensityLow},
		{phase: PhaseFollicular, energy: 3, pain: 1, want: IntensityModerate},
		{phase: PhaseFollicular, energy: 5, pain: 2, want: IntensityModerate},
		{phase: PhaseOvulation, energy: 4, pain: 2, want: IntensityHigh},
		{phase: PhaseOvulation, energy: 3, pain: 1, want: IntensityModerate},
		{phase: PhaseOvulation, energy: 5, pain: 3, want: IntensityLow},
		{phase: PhaseLuteal, energy: 3, pain: 1, want: IntensityModerate},
		{phase: PhaseLuteal, energy: 2, pain: 1, want: IntensityLow},
	}

	for _, tc := range testCases {
		t.Run(fmt.Sprintf("%s/energy=%d/pain=%d", tc.phase, tc.energy, tc.pain), func(t *testing.T) {
			if got := SessionIntensity(tc.phase, tc.energy, tc.pain); got != tc.want {
				t.Errorf("Expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestNarrowFocus(t *testing.T) {
	allowed := NewCategorySet(CategoryRestorative, CategoryBreathing, CategoryHipOpener)

	testCases := []struct {
		name  string
		focus CategorySet
		want  CategorySet
	}{
		{
			name:  "No focus keeps allowed",
			focus: 0,
			want:  allowed,
		},
		{
			name:  "Focus narrows to the intersection",
			focus: NewCategorySet(CategoryHipOpener, CategoryBalance),
			want:  NewCategorySet(CategoryHipOpener),
		},
		{
			name:  "Disjoint focus is ignored",
			focus: NewCategorySet(CategoryInversion),
			want:  allowed,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NarrowFocus(allowed, tc.focus); got != tc.want {
				t.Errorf("Expected %s, got %s", tc.want, got)
			}
		})
	}
}
