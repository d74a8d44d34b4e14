package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidFrequency is returned for unknown cadences or bad intervals.
var ErrInvalidFrequency = errors.New("invalid frequency")

// Cadence is the canonical recurrence bucket.
type Cadence string

// Cadences.
const (
	CadenceDaily     Cadence = "daily"
	CadenceWeekly    Cadence = "weekly"
	CadenceMonthly   Cadence = "monthly"
	CadenceQuarterly Cadence = "quarterly"
	CadenceYearly    Cadence = "yearly"
	CadenceCustom    Cadence = "custom"
)

// Nominal intervals in days for the fixed cadences.
const (
	DailyDays     = 1
	WeeklyDays    = 7
	MonthlyDays   = 30
	QuarterlyDays = 90
	YearlyDays    = 365
)

// Frequency is a cadence together with its nominal interval in days.
// Only custom frequencies carry a free interval; the others are fixed.
type Frequency struct {
	Cadence      Cadence
	IntervalDays int
}

// The fixed frequencies.
var (
	Daily     = Frequency{Cadence: CadenceDaily, IntervalDays: DailyDays}
	Weekly    = Frequency{Cadence: CadenceWeekly, IntervalDays: WeeklyDays}
	Monthly   = Frequency{Cadence: CadenceMonthly, IntervalDays: MonthlyDays}
	Quarterly = Frequency{Cadence: CadenceQuarterly, IntervalDays: QuarterlyDays}
	Yearly    = Frequency{Cadence: CadenceYearly, IntervalDays: YearlyDays}
)

// Custom returns a custom frequency repeating every days days.
func Custom(days int) Frequency {
	return Frequency{Cadence: CadenceCustom, IntervalDays: days}
}

// ParseFrequency resolves a cadence name. days is only consulted for
// custom cadences.
func ParseFrequency(name string, days int) (Frequency, error) {
	var f Frequency
	switch Cadence(strings.ToLower(strings.TrimSpace(name))) {
	case CadenceDaily:
		f = Daily
	case CadenceWeekly:
		f = Weekly
	case CadenceMonthly:
		f = Monthly
	case CadenceQuarterly:
		f = Quarterly
	case CadenceYearly:
		f = Yearly
	case CadenceCustom:
		f = Custom(days)
	default:
		return Frequency{}, fmt.Errorf("%w: unknown cadence %q", ErrInvalidFrequency, name)
	}
	return f, f.Validate()
}

// Validate ensures the cadence is known and its interval consistent.
func (f Frequency) Validate() error {
	switch f.Cadence {
	case CadenceDaily, CadenceWeekly, CadenceMonthly, CadenceQuarterly, CadenceYearly:
		if f.IntervalDays != fixedInterval(f.Cadence) {
			return fmt.Errorf("%w: %s must have interval %d, got %d",
				ErrInvalidFrequency, f.Cadence, fixedInterval(f.Cadence), f.IntervalDays)
		}
	case CadenceCustom:
		if f.IntervalDays < 1 {
			return fmt.Errorf("%w: custom interval must be at least 1 day, got %d", ErrInvalidFrequency, f.IntervalDays)
		}
	default:
		return fmt.Errorf("%w: unknown cadence %q", ErrInvalidFrequency, f.Cadence)
	}
	return nil
}

// Months returns how many calendar months one step spans, or 0 for
// cadences that step by a fixed number of days.
func (f Frequency) Months() int {
	switch f.Cadence {
	case CadenceMonthly:
		return 1
	case CadenceQuarterly:
		return 3
	case CadenceYearly:
		return 12
	default:
		return 0
	}
}

func (f Frequency) String() string {
	if f.Cadence == CadenceCustom {
		return fmt.Sprintf("every %d days", f.IntervalDays)
	}
	return string(f.Cadence)
}

func fixedInterval(c Cadence) int {
	switch c {
	case CadenceDaily:
		return DailyDays
	case CadenceWeekly:
		return WeeklyDays
	case CadenceMonthly:
		return MonthlyDays
	case CadenceQuarterly:
		return QuarterlyDays
	case CadenceYearly:
		return YearlyDays
	default:
		return 0
	}
}
