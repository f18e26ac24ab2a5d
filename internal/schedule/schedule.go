package schedule

import (
	"fmt"
	"strings"
	"time"
)

const DateFormat = "2006-01-02"

type Kind string

const (
	KindEveryDay Kind = "every_day"
	KindWeekdays Kind = "weekdays"
	KindCustom   Kind = "custom"
)

func (k Kind) IsValid() bool {
	switch k {
	case KindEveryDay, KindWeekdays, KindCustom:
		return true
	default:
		return false
	}
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// Schedule is the parsed form of a habit's due-day pattern. It is built once
// at the request boundary (or when a habit row is loaded) and evaluated many
// times per streak scan, so evaluation does no parsing.
type Schedule struct {
	Kind Kind
	Days map[time.Weekday]bool // populated for KindCustom only
}

// Parse converts the stored habit columns into a Schedule. The kind is
// case-insensitive; custom day names are case-insensitive and unordered.
// Unrecognized names inside a custom list are dropped rather than rejected: a
// custom schedule with no recognized days parses fine and is simply never due.
func Parse(targetDays, customDays string) (Schedule, error) {
	kind := Kind(strings.TrimSpace(strings.ToLower(targetDays)))
	if !kind.IsValid() {
		return Schedule{}, fmt.Errorf("invalid target days: %q", targetDays)
	}

	s := Schedule{Kind: kind}
	if kind == KindCustom {
		s.Days = make(map[time.Weekday]bool)
		for _, name := range strings.Split(customDays, ",") {
			wd, ok := weekdayNames[strings.TrimSpace(strings.ToLower(name))]
			if ok {
				s.Days[wd] = true
			}
		}
	}
	return s, nil
}

// MustParse is for callers that already validated the inputs (habit rows are
// validated on write). It falls back to an empty custom schedule, which is
// never due, rather than panicking on a bad row.
func MustParse(targetDays, customDays string) Schedule {
	s, err := Parse(targetDays, customDays)
	if err != nil {
		return Schedule{Kind: KindCustom, Days: map[time.Weekday]bool{}}
	}
	return s
}

// IsDue reports whether the schedule requires a completion on date. Dates
// before the habit's start date are never due. Pure function: the streak
// calculator calls it once per day of a potentially long backward scan.
func (s Schedule) IsDue(startDate, date time.Time) bool {
	if date.Before(startDate) {
		return false
	}
	switch s.Kind {
	case KindEveryDay:
		return true
	case KindWeekdays:
		wd := date.Weekday()
		return wd >= time.Monday && wd <= time.Friday
	case KindCustom:
		return s.Days[date.Weekday()]
	default:
		return false
	}
}

// ParseDate parses a YYYY-MM-DD calendar date. All due-date logic runs on
// these caller-supplied local dates; the server clock is only used for
// display timestamps.
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(DateFormat, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", value, err)
	}
	return t, nil
}

// FormatDate renders a date back to YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateFormat)
}
