package flow

import (
	"encoding/json"
	"fmt"
	"math/bits"
	"strings"
)

// Category describes the physical nature of a pose.
type Category string

// The closed category universe. The order of [categoryUniverse] is the order used whenever a set is listed.
const (
	CategoryRestorative   Category = "restorative"
	CategoryGentleStretch Category = "gentle_stretch"
	CategoryStanding      Category = "standing"
	CategoryBalance       Category = "balance"
	CategoryBackbend      Category = "backbend"
	CategoryForwardFold   Category = "forward_fold"
	CategoryTwist         Category = "twist"
	CategoryInversion     Category = "inversion"
	CategoryArmBalance    Category = "arm_balance"
	CategoryStrongCore    Category = "strong_core"
	CategoryHipOpener     Category = "hip_opener"
	CategoryBreathing     Category = "breathing"
	CategorySeated        Category = "seated"
	CategorySideBend      Category = "side_bend"
	CategoryYin           Category = "yin"
	CategorySomatic       Category = "somatic"
	CategoryMobility      Category = "mobility"
)

var categoryUniverse = [...]Category{
	CategoryRestorative,
	CategoryGentleStretch,
	CategoryStanding,
	CategoryBalance,
	CategoryBackbend,
	CategoryForwardFold,
	CategoryTwist,
	CategoryInversion,
	CategoryArmBalance,
	CategoryStrongCore,
	CategoryHipOpener,
	CategoryBreathing,
	CategorySeated,
	CategorySideBend,
	CategoryYin,
	CategorySomatic,
	CategoryMobility,
}

// Categories returns every category in canonical order.
func Categories() []Category {
	out := make([]Category, len(categoryUniverse))
	copy(out, categoryUniverse[:])
	return out
}

// ParseCategory returns the category named s or an error if s is outside the universe.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.TrimSpace(s))
	if c.index() < 0 {
		return "", fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}

func (c Category) index() int {
	for i, u := range categoryUniverse {
		if u == c {
			return i
		}
	}
	return -1
}

// CategorySet is an immutable set of categories. The zero value is the empty set.
type CategorySet uint32

// UniverseSet contains every category.
const UniverseSet = CategorySet(1<<len(categoryUniverse) - 1)

// NewCategorySet builds a set from categories. Unknown categories are ignored.
func NewCategorySet(categories ...Category) CategorySet {
	var s CategorySet
	for _, c := range categories {
		if i := c.index(); i >= 0 {
			s |= 1 << i
		}
	}
	return s
}

func (s CategorySet) Has(c Category) bool {
	i := c.index()
	return i >= 0 && s&(1<<i) != 0
}

func (s CategorySet) Intersect(o CategorySet) CategorySet { return s & o }
func (s CategorySet) Union(o CategorySet) CategorySet     { return s | o }
func (s CategorySet) Without(o CategorySet) CategorySet   { return s &^ o }

// Complement returns the categories of the universe not in s.
func (s CategorySet) Complement() CategorySet { return UniverseSet &^ s }

// Overlaps reports whether the sets share at least one category.
func (s CategorySet) Overlaps(o CategorySet) bool { return s&o != 0 }

func (s CategorySet) IsEmpty() bool { return s == 0 }

func (s CategorySet) Len() int { return bits.OnesCount32(uint32(s & UniverseSet)) }

// Slice lists the set in canonical order.
func (s CategorySet) Slice() []Category {
	out := make([]Category, 0, s.Len())
	for i, c := range categoryUniverse {
		if s&(1<<i) != 0 {
			out = append(out, c)
		}
	}
	return out
}

func (s CategorySet) String() string {
	parts := make([]string, 0, s.Len())
	for _, c := range s.Slice() {
		parts = append(parts, string(c))
	}
	return strings.Join(parts, ", ")
}

func (s CategorySet) MarshalJSON() ([]byte, error) {
	b, err := json.Marshal(s.Slice())
	if err != nil {
		return nil, fmt.Errorf("marshal categories: %w", err)
	}
	return b, nil
}

// UnmarshalJSON rejects categories outside the universe.
func (s *CategorySet) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return fmt.Errorf("unmarshal categories: %w", err)
	}
	var out CategorySet
	for _, n := range names {
		c, err := ParseCategory(n)
		if err != nil {
			return err
		}
		out = out.Union(NewCategorySet(c))
	}
	*s = out
	return nil
}
