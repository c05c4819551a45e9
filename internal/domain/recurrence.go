package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidWeekday  = errors.New("invalid weekday")
	ErrInvalidMonthDay = errors.New("invalid day of month")
	ErrInvalidMonth    = errors.New("invalid month")
)

// ParseWeekday matches a case-insensitive English weekday name.
func ParseWeekday(s string) (time.Weekday, error) {
	s = strings.ToLower(s)
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		if s == strings.ToLower(wd.String()) {
			return wd, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidWeekday, s)
}

// NextDaily returns the anchor for a daily reminder: the upcoming midnight,
// i.e. now's date plus one day at 00:00 in now's location.
func NextDaily(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())
}

// NextWeekly returns the next occurrence of wd at midnight. When now already
// falls on wd the result is a full week out, never today.
func NextWeekly(now time.Time, wd time.Weekday) time.Time {
	ahead := (int(wd) - int(now.Weekday()) + 7) % 7
	if ahead == 0 {
		ahead = 7
	}
	return time.Date(now.Year(), now.Month(), now.Day()+ahead, 0, 0, 0, 0, now.Location())
}

// NextMonthly returns midnight on the given day in the nearest month where
// that day is still strictly in the future. Today's date never counts, so
// asking for today's day-of-month rolls to next month. Days the target month
// does not have are rejected.
func NextMonthly(now time.Time, day int) (time.Time, error) {
	if day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("%w: %d", ErrInvalidMonthDay, day)
	}
	year, month := now.Year(), now.Month()
	if now.Day() >= day {
		month++
		if month > time.December {
			month = time.January
			year++
		}
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, now.Location())
	if t.Day() != day {
		return time.Time{}, fmt.Errorf("%w: %d has no day %d", ErrInvalidMonthDay, month, day)
	}
	return t, nil
}

// NextYearly returns midnight on day/month this year if that instant is
// still in the future, otherwise the same day/month next year.
func NextYearly(now time.Time, day int, month time.Month) (time.Time, error) {
	if month < time.January || month > time.December {
		return time.Time{}, fmt.Errorf("%w: %d", ErrInvalidMonth, int(month))
	}
	t := time.Date(now.Year(), month, day, 0, 0, 0, 0, now.Location())
	if t.Month() != month || t.Day() != day {
		return time.Time{}, fmt.Errorf("%w: %s has no day %d", ErrInvalidMonthDay, month, day)
	}
	if !t.After(now) {
		t = time.Date(now.Year()+1, month, day, 0, 0, 0, 0, now.Location())
	}
	return t, nil
}

// FiresAt reports whether a recurring reminder with the given anchor fires
// at nowUTC. Both instants are viewed in loc and now is truncated to the
// minute; every kind fires only at local midnight, on the day selected by
// the anchor's calendar fields.
func FiresAt(rec Recurrence, anchorUTC, nowUTC time.Time, loc *time.Location) bool {
	now := nowUTC.Truncate(time.Minute).In(loc)
	if now.Hour() != 0 || now.Minute() != 0 {
		return false
	}
	anchor := anchorUTC.In(loc)
	switch rec {
	case Daily:
		return true
	case Weekly:
		return now.Weekday() == anchor.Weekday()
	case Monthly:
		return now.Day() == anchor.Day()
	case Yearly:
		return now.Month() == anchor.Month() && now.Day() == anchor.Day()
	default:
		return false
	}
}
