package flow_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/myrjola/yogaflow/internal/flow"
)

func defaultCatalogue(t *testing.T) *flow.Catalogue {
	t.Helper()
	c, err := flow.DefaultCatalogue()
	if err != nil {
		t.Fatalf("DefaultCatalogue() error = %v", err)
	}
	return c
}

func TestDefaultCatalogue(t *testing.T) {
	c := defaultCatalogue(t)

	if c.Len() != 149 {
		t.Errorf("Expected 149 entries, got %d", c.Len())
	}

	var covered flow.CategorySet
	for _, e := range c.All() {
		covered = covered.Union(e.Categories)
		if e.Difficulty.Rank() == 0 {
			t.Errorf("Entry %s has unknown difficulty %q", e.Name, e.Difficulty)
		}
		if e.DurationSuggestion == "" {
			t.Errorf("Entry %s has no duration suggestion", e.Name)
		}
	}
	if covered != flow.UniverseSet {
		t.Errorf("Expected every category to be used, missing %s", covered.Complement())
	}
}

func TestCatalogue_Lookup(t *testing.T) {
	c := defaultCatalogue(t)

	got, ok := c.Lookup("crow_pose")
	if !ok {
		t.Fatal("Expected crow_pose to exist")
	}
	want := flow.Entry{
		Name:               "crow_pose",
		Sanskrit:           "Bakasana",
		Categories:         flow.NewCategorySet(flow.CategoryArmBalance, flow.CategoryBalance),
		Difficulty:         flow.DifficultyIntermediate,
		DurationSuggestion: "30 sec",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Lookup() mismatch (-want +got):\n%s", diff)
	}

	if _, ok = c.Lookup("handstand_on_a_unicycle"); ok {
		t.Errorf("Expected lookup of unknown pose to fail")
	}
}

func TestCatalogue_All_ReturnsCopy(t *testing.T) {
	c := defaultCatalogue(t)
	all := c.All()
	all[0].Name = "mutated"
	if c.All()[0].Name != "child_pose" {
		t.Errorf("Expected catalogue to be unaffected by caller mutation")
	}
}

func TestCatalogue_UpTo(t *testing.T) {
	c := defaultCatalogue(t)

	testCases := []struct {
		max  flow.Difficulty
		want int
	}{
		{max: flow.DifficultyBeginner, want: 66},
		{max: flow.DifficultyIntermediate, want: 134},
		{max: flow.DifficultyAdvanced, want: 149},
	}
	for _, tc := range testCases {
		t.Run(string(tc.max), func(t *testing.T) {
			if got := len(c.UpTo(tc.max)); got != tc.want {
				t.Errorf("Expected %d entries, got %d", tc.want, got)
			}
		})
	}
}

func TestFilterCandidates(t *testing.T) {
	entries := []flow.Entry{
		{
			Name:               "legs_up_wall",
			Sanskrit:           "Viparita Karani",
			Categories:         flow.NewCategorySet(flow.CategoryRestorative, flow.CategoryInversion),
			Difficulty:         flow.DifficultyBeginner,
			DurationSuggestion: "5-10 min",
		},
		{
			Name:               "headstand",
			Sanskrit:           "Sirsasana",
			Categories:         flow.NewCategorySet(flow.CategoryInversion, flow.CategoryStrongCore),
			Difficulty:         flow.DifficultyAdvanced,
			DurationSuggestion: "1-3 min",
		},
		{
			Name:               "box_breathing",
			Sanskrit:           "Sama Vritti",
			Categories:         flow.NewCategorySet(flow.CategoryBreathing),
			Difficulty:         flow.DifficultyBeginner,
			DurationSuggestion: "2-5 min",
		},
	}

	got := flow.FilterCandidates(flow.NewCategorySet(flow.CategoryRestorative, flow.CategoryBreathing), entries)

	// legs_up_wall qualifies through restorative even though inversion is not allowed.
	var names []string
	for _, e := range got {
		names = append(names, e.Name)
	}
	if diff := cmp.Diff([]string{"legs_up_wall", "box_breathing"}, names); diff != "" {
		t.Errorf("FilterCandidates() mismatch (-want +got):\n%s", diff)
	}

	if got = flow.FilterCandidates(0, entries); len(got) != 0 {
		t.Errorf("Expected no candidates for the empty set, got %d", len(got))
	}
}

func TestCatalogue_Candidates(t *testing.T) {
	c := defaultCatalogue(t)
	got := c.Candidates(flow.NewCategorySet(flow.CategoryRestorative, flow.CategoryBreathing))
	if len(got) != 24 {
		t.Errorf("Expected 24 candidates, got %d", len(got))
	}
	if got[0].Name != "child_pose" {
		t.Errorf("Expected catalogue order to be kept, first candidate is %s", got[0].Name)
	}
}

func TestNewCatalogue_Invalid(t *testing.T) {
	valid := flow.Entry{
		Name:               "child_pose",
		Sanskrit:           "Balasana",
		Categories:         flow.NewCategorySet(flow.CategoryRestorative),
		Difficulty:         flow.DifficultyBeginner,
		DurationSuggestion: "1-3 min",
	}

	testCases := []struct {
		name    string
		entries func() []flow.Entry
		wantErr string
	}{
		{
			name: "Missing name",
			entries: func() []flow.Entry {
				e := valid
				e.Name = ""
				return []flow.Entry{e}
			},
			wantErr: "entry without name",
		},
		{
			name: "Missing categories",
			entries: func() []flow.Entry {
				e := valid
				e.Categories = 0
				return []flow.Entry{e}
			},
			wantErr: "entry without categories",
		},
		{
			name: "Unknown difficulty",
			entries: func() []flow.Entry {
				e := valid
				e.Difficulty = "expert"
				return []flow.Entry{e}
			},
			wantErr: "entry with unknown difficulty",
		},
		{
			name: "Duplicate name",
			entries: func() []flow.Entry {
				return []flow.Entry{valid, valid}
			},
			wantErr: "duplicate entry",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := flow.NewCatalogue(tc.entries())
			if err == nil {
				t.Fatal("Expected error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("Expected error to contain %q, got %q", tc.wantErr, err.Error())
			}
		})
	}
}

func TestLoadCatalogue(t *testing.T) {
	testCases := []struct {
		name    string
		input   string
		wantErr bool
		wantLen int
	}{
		{
			name: "Valid",
			input: `[{"name":"cat_cow","sanskrit":"Marjaryasana-Bitilasana","types":["gentle_stretch","mobility"],` +
				`"difficulty":"beginner","duration_suggestion":"1-2 min"}]`,
			wantErr: false,
			wantLen: 1,
		},
		{
			name: "Unknown category",
			input: `[{"name":"burpee","sanskrit":"","types":["cardio"],` +
				`"difficulty":"beginner","duration_suggestion":"1 min"}]`,
			wantErr: true,
			wantLen: 0,
		},
		{
			name: "Unknown field",
			input: `[{"name":"cat_cow","sanskrit":"","types":["mobility"],"difficulty":"beginner",` +
				`"duration_suggestion":"1 min","calories":12}]`,
			wantErr: true,
			wantLen: 0,
		},
		{
			name:    "Not JSON",
			input:   `child_pose`,
			wantErr: true,
			wantLen: 0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c, err := flow.LoadCatalogue(strings.NewReader(tc.input))
			if tc.wantErr {
				if err == nil {
					t.Fatal("Expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadCatalogue() error = %v", err)
			}
			if c.Len() != tc.wantLen {
				t.Errorf("Expected %d entries, got %d", tc.wantLen, c.Len())
			}
		})
	}
}
