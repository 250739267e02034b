package entity

import (
	"fmt"
	"time"
)

// PeriodType is the granularity of an aggregate bucket.
type PeriodType string

const (
	PeriodDay   PeriodType = "day"
	PeriodWeek  PeriodType = "week"
	PeriodMonth PeriodType = "month"
)

// PeriodTypes lists every granularity, finest first.
var PeriodTypes = []PeriodType{PeriodDay, PeriodWeek, PeriodMonth}

// ParsePeriodType parses a query value; empty means week.
func ParsePeriodType(s string) (PeriodType, error) {
	switch PeriodType(s) {
	case "":
		return PeriodWeek, nil
	case PeriodDay, PeriodWeek, PeriodMonth:
		return PeriodType(s), nil
	}
	return "", fmt.Errorf("invalid period type %q", s)
}

// PeriodStart returns the UTC start of the period containing t. Weeks start on Monday.
func PeriodStart(t time.Time, periodType PeriodType) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)

	switch periodType {
	case PeriodWeek:
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case PeriodMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return day
	}
}

// NextPeriodStart returns the start of the period following the one starting at start.
func NextPeriodStart(start time.Time, periodType PeriodType) time.Time {
	switch periodType {
	case PeriodWeek:
		return start.AddDate(0, 0, 7)
	case PeriodMonth:
		return start.AddDate(0, 1, 0)
	default:
		return start.AddDate(0, 0, 1)
	}
}

// Period is a half-open [Start, End) window.
type Period struct {
	Type  PeriodType
	Start time.Time
	End   time.Time
}

// PeriodsBetween returns every period overlapping [from, until], oldest first.
func PeriodsBetween(from, until time.Time, periodType PeriodType) []Period {
	var periods []Period
	for start := PeriodStart(from, periodType); !start.After(until); {
		end := NextPeriodStart(start, periodType)
		periods = append(periods, Period{Type: periodType, Start: start, End: end})
		start = end
	}
	return periods
}
