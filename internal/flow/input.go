package flow

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/myrjola/yogaflow/internal/errors"
	"github.com/myrjola/yogaflow/internal/ptr"
)

// Input defaults applied when the caller leaves a field unset.
const (
	DefaultEnergy          = 3
	DefaultPain            = 1
	DefaultDurationMinutes = 20

	minLevel = 1
	maxLevel = 5
)

var (
	// ErrInvalidInput is wrapped by every input validation failure.
	ErrInvalidInput       = errors.NewSentinel("invalid input")
	ErrMissingCycleStart  = errors.NewSentinel("cycle start date is required")
	ErrMalformedDate      = errors.NewSentinel("malformed date")
	ErrOutOfRange         = errors.NewSentinel("value out of range")
	ErrCycleStartInFuture = errors.NewSentinel("cycle start date is after the as-of date")
	ErrUnknownCategory    = errors.NewSentinel("unknown category")
	// ErrInvalidCycleLength is returned by [CalculatePhase] for non-positive cycle lengths.
	ErrInvalidCycleLength = errors.NewSentinel("cycle length must be positive")
)

// Input is the raw request as received from the request-handling layer. Nil pointers take the defaults.
type Input struct {
	// CycleStartDate is the first day of the last cycle in YYYY-MM-DD format.
	CycleStartDate  string     `json:"cycle_start_date"`
	CycleLengthDays *int       `json:"cycle_length_days,omitempty"`
	Energy          *int       `json:"energy,omitempty"`
	Pain            *int       `json:"pain,omitempty"`
	DurationMinutes *int       `json:"duration_minutes,omitempty"`
	FocusCategories []Category `json:"focus_categories,omitempty"`
	// AsOf is the date to compute the phase for. The engine clock is used when zero.
	AsOf time.Time `json:"as_of,omitzero"`
}

// request is a validated Input with defaults applied.
type request struct {
	start       time.Time
	asOf        time.Time
	cycleLength int
	energy      int
	pain        int
	duration    int
	focus       CategorySet
}

// Validate reports every problem with the input, joined into one error. now stands in for a zero AsOf.
func (in Input) Validate(now time.Time) error {
	_, err := in.normalize(now)
	return err
}

func (in Input) normalize(now time.Time) (request, error) {
	req := request{
		start:       time.Time{},
		asOf:        civilDate(now),
		cycleLength: ptr.Deref(in.CycleLengthDays, DefaultCycleLengthDays),
		energy:      ptr.Deref(in.Energy, DefaultEnergy),
		pain:        ptr.Deref(in.Pain, DefaultPain),
		duration:    ptr.Deref(in.DurationMinutes, DefaultDurationMinutes),
		focus:       0,
	}
	if !in.AsOf.IsZero() {
		req.asOf = civilDate(in.AsOf)
	}

	var errs []error

	switch raw := strings.TrimSpace(in.CycleStartDate); raw {
	case "":
		errs = append(errs, violation(ErrMissingCycleStart, "cycle_start_date"))
	default:
		start, err := time.Parse(time.DateOnly, raw)
		switch {
		case err != nil:
			errs = append(errs, violation(ErrMalformedDate, "cycle_start_date", slog.String("value", raw)))
		case start.After(req.asOf):
			errs = append(errs, violation(ErrCycleStartInFuture, "cycle_start_date",
				slog.String("value", raw), slog.String("as_of", req.asOf.Format(time.DateOnly))))
		default:
			req.start = start
		}
	}

	if req.cycleLength <= 0 {
		errs = append(errs, violation(ErrOutOfRange, "cycle_length_days", slog.Int("value", req.cycleLength)))
	}
	if req.energy < minLevel || req.energy > maxLevel {
		errs = append(errs, violation(ErrOutOfRange, "energy", slog.Int("value", req.energy)))
	}
	if req.pain < minLevel || req.pain > maxLevel {
		errs = append(errs, violation(ErrOutOfRange, "pain", slog.Int("value", req.pain)))
	}
	if req.duration <= 0 {
		errs = append(errs, violation(ErrOutOfRange, "duration_minutes", slog.Int("value", req.duration)))
	}
	for _, c := range in.FocusCategories {
		if c.index() < 0 {
			errs = append(errs, violation(ErrUnknownCategory, "focus_categories", slog.String("value", string(c))))
			continue
		}
		req.focus = req.focus.Union(NewCategorySet(c))
	}

	if len(errs) > 0 {
		return request{}, errors.Join(errs...)
	}
	return req, nil
}

func violation(kind error, field string, attrs ...slog.Attr) error {
	return errors.Wrap(fmt.Errorf("%w: %w", ErrInvalidInput, kind), field, attrs...)
}

// ParseFocus converts user supplied focus names to categories, silently dropping names outside the universe.
// Duplicates are removed; the result is in canonical order.
func ParseFocus(names []string) []Category {
	var set CategorySet
	for _, n := range names {
		if c, err := ParseCategory(n); err == nil {
			set = set.Union(NewCategorySet(c))
		}
	}
	return set.Slice()
}
