package flow

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/myrjola/yogaflow/internal/errors"
)

const minutesPerHour = 60

// FormatDuration formats minutes for display, e.g. "20 min", "1 hour" or "2 hours 15 min".
func FormatDuration(minutes int) string {
	if minutes < minutesPerHour {
		return fmt.Sprintf("%d min", minutes)
	}
	hours, rest := minutes/minutesPerHour, minutes%minutesPerHour
	unit := "hour"
	if hours > 1 {
		unit = "hours"
	}
	if rest == 0 {
		return fmt.Sprintf("%d %s", hours, unit)
	}
	return fmt.Sprintf("%d %s %d min", hours, unit, rest)
}

// durationUnits maps the accepted unit spellings to minutes.
var durationUnits = map[string]float64{
	"":        1,
	"m":       1,
	"min":     1,
	"mins":    1,
	"minute":  1,
	"minutes": 1,
	"h":       minutesPerHour,
	"hr":      minutesPerHour,
	"hrs":     minutesPerHour,
	"hour":    minutesPerHour,
	"hours":   minutesPerHour,
}

// ParseDuration parses a session length such as "20 min", "1.5 hours", "1 hr", "2 hours 15 min" or a bare "30" into
// whole minutes. Every part must be a number with an optional unit; the parts are added up, so the output of
// [FormatDuration] parses back to the same value.
func ParseDuration(s string) (int, error) {
	fields := strings.Fields(strings.ToLower(s))
	if len(fields) == 0 {
		return 0, errors.New("parse duration: empty string")
	}

	total := 0.0
	for len(fields) > 0 {
		number, unit := splitNumber(fields[0])
		fields = fields[1:]
		if unit == "" && len(fields) > 0 {
			if _, isUnit := durationUnits[fields[0]]; isUnit {
				unit, fields = fields[0], fields[1:]
			}
		}
		v, err := strconv.ParseFloat(number, 64)
		if err != nil {
			return 0, fmt.Errorf("parse duration %q: %w", s, err)
		}
		multiplier, ok := durationUnits[unit]
		if !ok {
			return 0, fmt.Errorf("parse duration %q: unknown unit %q", s, unit)
		}
		total += v * multiplier
	}
	return int(total), nil
}

// splitNumber splits a field like "45min" into its numeric prefix and the rest.
func splitNumber(field string) (string, string) {
	i := strings.IndexFunc(field, func(r rune) bool {
		return (r < '0' || r > '9') && r != '.' && r != '-' && r != '+'
	})
	if i < 0 {
		return field, ""
	}
	return field[:i], field[i:]
}
