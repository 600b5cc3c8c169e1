// Package duration converts between integer microsecond counts and
// human-facing representations. All conversions use a fixed unit table
// (a year is 365.24 days, a month 30.44 days) so results are deterministic
// regardless of calendar context.
package duration

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"timeroll/internal/errors"
)

// Unit sizes in microseconds.
const (
	Microsecond int64 = 1
	Millisecond int64 = 1_000
	Second      int64 = 1_000_000
	Minute      int64 = 60 * Second
	Hour        int64 = 60 * Minute
	Day         int64 = 24 * Hour
	Week        int64 = 7 * Day
	Month       int64 = 2_629_746_000_000  // 30.44 days
	Year        int64 = 31_556_952_000_000 // 365.24 days
)

// Breakdown is a microsecond count decomposed into calendar-ish units.
// Each field holds the remainder after extracting all coarser units, so
// no field ever exceeds its unit's capacity.
type Breakdown struct {
	Years        int64 `json:"years"`
	Months       int64 `json:"months"`
	Weeks        int64 `json:"weeks"`
	Days         int64 `json:"days"`
	Hours        int64 `json:"hours"`
	Minutes      int64 `json:"minutes"`
	Seconds      int64 `json:"seconds"`
	Milliseconds int64 `json:"milliseconds"`
	Microseconds int64 `json:"microseconds"`
}

// Break decomposes a non-negative microsecond count by successive
// integer division, coarsest unit first.
func Break(us int64) Breakdown {
	if us < 0 {
		us = -us
	}

	b := Breakdown{}
	b.Years, us = us/Year, us%Year
	b.Months, us = us/Month, us%Month
	b.Weeks, us = us/Week, us%Week
	b.Days, us = us/Day, us%Day
	b.Hours, us = us/Hour, us%Hour
	b.Minutes, us = us/Minute, us%Minute
	b.Seconds, us = us/Second, us%Second
	b.Milliseconds, us = us/Millisecond, us%Millisecond
	b.Microseconds = us
	return b
}

// Format renders a microsecond count as a short human string using the
// coarsest pair of units that fits the magnitude. The finer unit of the
// pair is omitted when zero. Negative inputs render as the positive form
// prefixed with a minus sign.
func Format(us int64) string {
	return format(us, false)
}

// FormatCompact is Format but allows microseconds as the finest unit for
// sub-millisecond magnitudes.
func FormatCompact(us int64) string {
	return format(us, true)
}

func format(us int64, compact bool) string {
	if us == 0 {
		return "0μs"
	}

	sign := ""
	if us < 0 {
		sign = "-"
		us = -us
	}

	b := Break(us)

	switch {
	case us < Millisecond && compact:
		return sign + fmt.Sprintf("%dμs", b.Microseconds)
	case us < Second:
		if compact {
			return sign + pair(b.Milliseconds, "ms", b.Microseconds, "μs")
		}
		return sign + fmt.Sprintf("%dms", b.Milliseconds)
	case us < Minute:
		// One decimal of sub-second precision, only when non-zero.
		tenths := (us % Second) / (Second / 10)
		if tenths > 0 {
			return sign + fmt.Sprintf("%d.%ds", b.Seconds, tenths)
		}
		return sign + fmt.Sprintf("%ds", b.Seconds)
	case us < Hour:
		return sign + pair(b.Minutes, "m", b.Seconds, "s")
	case us < Day:
		return sign + pair(b.Hours, "h", b.Minutes, "m")
	case us < Week:
		return sign + pair(b.Days, "d", b.Hours, "h")
	case us < Month:
		return sign + pair(b.Weeks, "w", b.Days, "d")
	case us < Year:
		return sign + pair(b.Months, "mo", b.Weeks, "w")
	default:
		return sign + pair(b.Years, "y", b.Months, "mo")
	}
}

// pair renders a coarse/fine unit pair, dropping the fine unit when zero.
func pair(coarse int64, coarseUnit string, fine int64, fineUnit string) string {
	if fine == 0 {
		return fmt.Sprintf("%d%s", coarse, coarseUnit)
	}
	return fmt.Sprintf("%d%s%d%s", coarse, coarseUnit, fine, fineUnit)
}

// unitFactors maps parse suffixes to microsecond factors. Both "us" and
// "μs" are accepted for microseconds.
var unitFactors = map[string]float64{
	"y":  float64(Year),
	"mo": float64(Month),
	"w":  float64(Week),
	"d":  float64(Day),
	"h":  float64(Hour),
	"m":  float64(Minute),
	"s":  float64(Second),
	"ms": float64(Millisecond),
	"us": float64(Microsecond),
	"μs": float64(Microsecond),
}

// Longer suffixes listed first so "mo" and "ms" win over "m", "μs"/"us"
// over "s".
var tokenRegex = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(μs|us|ms|mo|y|w|d|h|m|s)`)

// Parse converts a duration string such as "1h30m", "2w3d12h" or "90.5s"
// into microseconds. The empty string and "0" yield zero without requiring
// a unit. Any text not consumed by a <number><unit> group fails with a
// validation error.
func Parse(input string) (int64, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" || trimmed == "0" {
		return 0, nil
	}

	matches := tokenRegex.FindAllStringSubmatchIndex(trimmed, -1)
	if len(matches) == 0 {
		return 0, errors.NewValidationError(
			fmt.Sprintf("unrecognized duration %q", input), nil)
	}

	// Every character must belong to some token (whitespace between
	// tokens aside); leftover text means an unknown unit or garbage.
	consumed := 0
	var total float64
	for _, m := range matches {
		if strings.TrimSpace(trimmed[consumed:m[0]]) != "" {
			return 0, errors.NewValidationError(
				fmt.Sprintf("unrecognized duration %q", input), nil)
		}
		value, err := strconv.ParseFloat(trimmed[m[2]:m[3]], 64)
		if err != nil {
			return 0, errors.NewValidationError(
				fmt.Sprintf("invalid number in duration %q", input), err)
		}
		unit := trimmed[m[4]:m[5]]
		factor, ok := unitFactors[unit]
		if !ok {
			return 0, errors.NewValidationError(
				fmt.Sprintf("unrecognized duration unit %q", unit), nil)
		}
		total += value * factor
		consumed = m[1]
	}
	if strings.TrimSpace(trimmed[consumed:]) != "" {
		return 0, errors.NewValidationError(
			fmt.Sprintf("unrecognized duration %q", input), nil)
	}

	return int64(total + 0.5), nil
}
