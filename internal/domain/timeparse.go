package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	ErrUnparseableTime = errors.New("unparseable time expression")
	ErrZeroDuration    = errors.New("duration must be positive")
	ErrInvalidDate     = errors.New("invalid calendar date")
)

var (
	exactRe    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}$`)
	dayMonthRe = regexp.MustCompile(`^(\d{1,2}) ([a-z]+)(?: (\d{4}))?$`)
	relRe      = regexp.MustCompile(`^(?:\d+[dhm])+$`)
	relPartRe  = regexp.MustCompile(`(\d+)([dhm])`)
)

// Longhand unit words, longest first so "minutes" is not eaten by "min".
var longhand = strings.NewReplacer(
	"minutes", "m", "minute", "m", "mins", "m", "min", "m",
	"hours", "h", "hour", "h", "hrs", "h", "hr", "h",
	"days", "d", "day", "d",
)

// ParseFlexibleTime turns a free-form due-time expression into an absolute
// time in loc. Three forms are tried in order:
//
//  1. "2006-01-02 15:04" literal, interpreted in loc;
//  2. "<day> <month>[ <year>]" with the month abbreviated or written out,
//     defaulting to now's year at midnight;
//  3. a sum of relative tokens like "10m", "2h30m", "1d12h" (longhand unit
//     words are accepted), added to now.
//
// Anything else is rejected, as are zero-length durations and impossible
// calendar dates.
func ParseFlexibleTime(text string, now time.Time, loc *time.Location) (time.Time, error) {
	text = strings.ToLower(strings.TrimSpace(text))

	if exactRe.MatchString(text) {
		t, err := time.ParseInLocation("2006-01-02 15:04", text, loc)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, text)
		}
		return t, nil
	}

	if m := dayMonthRe.FindStringSubmatch(text); m != nil {
		if month, ok := ParseMonth(m[2]); ok {
			day, _ := strconv.Atoi(m[1])
			year := now.Year()
			if m[3] != "" {
				year, _ = strconv.Atoi(m[3])
			}
			return makeDate(year, month, day, loc)
		}
		// Not a month name; "10 mins" also has this shape, so fall through.
	}

	normalized := strings.Join(strings.Fields(longhand.Replace(text)), "")
	if relRe.MatchString(normalized) {
		var total time.Duration
		for _, p := range relPartRe.FindAllStringSubmatch(normalized, -1) {
			n, _ := strconv.Atoi(p[1])
			switch p[2] {
			case "d":
				total += time.Duration(n) * 24 * time.Hour
			case "h":
				total += time.Duration(n) * time.Hour
			case "m":
				total += time.Duration(n) * time.Minute
			}
		}
		if total <= 0 {
			return time.Time{}, ErrZeroDuration
		}
		return now.Add(total), nil
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrUnparseableTime, text)
}

// ParseMonth matches a case-insensitive English month name or its
// three-letter abbreviation.
func ParseMonth(s string) (time.Month, bool) {
	s = strings.ToLower(s)
	for m := time.January; m <= time.December; m++ {
		name := strings.ToLower(m.String())
		if s == name || s == name[:3] {
			return m, true
		}
	}
	return 0, false
}

// makeDate builds midnight on year/month/day in loc, rejecting combinations
// that time.Date would silently normalize (e.g. 31 February).
func makeDate(year int, month time.Month, day int, loc *time.Location) (time.Time, error) {
	t := time.Date(year, month, day, 0, 0, 0, 0, loc)
	if t.Year() != year || t.Month() != month || t.Day() != day {
		return time.Time{}, fmt.Errorf("%w: %d %s %d", ErrInvalidDate, day, month, year)
	}
	return t, nil
}
