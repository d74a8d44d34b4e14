package recurring

import (
	"math"
	"time"

	"github.com/Veraticus/spice-recurring/internal/calendar"
	"github.com/Veraticus/spice-recurring/internal/model"
)

// AcceptanceThreshold is the minimum confidence at which a candidate is
// offered as a recurring pattern.
const AcceptanceThreshold = 0.7

// saturatingSamples is the interval count at which the sample term of the
// confidence score reaches 1.
const saturatingSamples = 6

// Intervals returns the whole-day gaps between consecutive entries of a
// date-sorted series.
func Intervals(series []model.Transaction) []int {
	if len(series) < 2 {
		return []int{}
	}

	gaps := make([]int, 0, len(series)-1)
	for i := 1; i < len(series); i++ {
		gaps = append(gaps, calendar.DaysBetween(series[i-1].Date, series[i].Date))
	}
	return gaps
}

// cadenceRange is an inclusive range of mean gaps mapped to a frequency.
type cadenceRange struct {
	freq     model.Frequency
	min, max float64
}

// Checked in order; the first match wins.
var cadenceRanges = []cadenceRange{
	{freq: model.Monthly, min: 28, max: 31},
	{freq: model.Quarterly, min: 84, max: 93},
	{freq: model.Yearly, min: 350, max: 370},
	{freq: model.Weekly, min: 6, max: 8},
	{freq: model.Daily, min: 1, max: 2},
}

// Classify maps the mean gap of intervals to a frequency. With no
// intervals it falls back to monthly.
func Classify(intervals []int) model.Frequency {
	if len(intervals) == 0 {
		return model.Monthly
	}

	avg := mean(intervals)
	for _, r := range cadenceRanges {
		if avg >= r.min && avg <= r.max {
			return r.freq
		}
	}

	days := int(math.Round(avg))
	if days < 1 {
		days = 1
	}
	return model.Custom(days)
}

// Score rates how strongly intervals support freq, from 0 to 1. It blends
// interval consistency (weight 0.7) with sample size (weight 0.3). Fewer
// than two intervals score 0.
func Score(intervals []int, freq model.Frequency) float64 {
	if len(intervals) < 2 || freq.IntervalDays <= 0 {
		return 0
	}

	nominal := float64(freq.IntervalDays)
	deviations := make([]float64, len(intervals))
	for i, gap := range intervals {
		deviations[i] = float64(gap) - nominal
	}

	consistency := math.Max(0, 1-stddev(deviations)/nominal)
	sample := math.Min(1, float64(len(intervals))/saturatingSamples)

	return clamp(0.7*consistency+0.3*sample, 0, 1)
}

// IsAcceptable reports whether a candidate clears the acceptance threshold.
func IsAcceptable(c model.PatternCandidate) bool {
	return c.SampleCount >= 2 && c.Confidence >= AcceptanceThreshold
}

// Predict returns the next occurrence after date. Monthly, quarterly and
// yearly cadences step by calendar months with end-of-month clamping;
// the others step by their interval in days.
func Predict(date time.Time, freq model.Frequency) time.Time {
	if months := freq.Months(); months > 0 {
		return calendar.AddMonths(date, months)
	}

	days := freq.IntervalDays
	if days < 1 {
		days = 1
	}
	return calendar.AddDays(date, days)
}

// RollForward applies Predict to next until it is on or after notBefore.
func RollForward(next time.Time, freq model.Frequency, notBefore time.Time) time.Time {
	next = calendar.Date(next)
	notBefore = calendar.Date(notBefore)
	for next.Before(notBefore) {
		next = Predict(next, freq)
	}
	return next
}

func mean(values []int) float64 {
	sum := 0
	for _, v := range values {
		sum += v
	}
	return float64(sum) / float64(len(values))
}

// stddev is the population standard deviation.
func stddev(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	avg := sum / float64(len(values))

	var sq float64
	for _, v := range values {
		sq += (v - avg) * (v - avg)
	}
	return math.Sqrt(sq / float64(len(values)))
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
