package domain

import "time"

// PeriodFrequency is the unit a recurring schedule advances by.
type PeriodFrequency string

const (
	FrequencyDaily   PeriodFrequency = "DAILY"
	FrequencyWeekly  PeriodFrequency = "WEEKLY"
	FrequencyMonthly PeriodFrequency = "MONTHLY"
	FrequencyYearly  PeriodFrequency = "YEARLY"
)

// IsValid reports whether f is a supported frequency.
func (f PeriodFrequency) IsValid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
		return true
	}
	return false
}

// Cadence decides whether a date lies on a periodic schedule.
type Cadence struct{}

// IsDue reports whether candidate is reachable from anchor by a whole
// multiple of interval frequency units. Month and year steps count complete
// calendar months, so an anchor on the 31st only matches months that have
// a 31st and never fires on the last day of a shorter month.
func (Cadence) IsDue(frequency PeriodFrequency, interval int, anchor, candidate time.Time) bool {
	if interval <= 0 {
		return false
	}

	anchor = DateOf(anchor)
	candidate = DateOf(candidate)
	if candidate.Before(anchor) {
		return false
	}

	switch frequency {
	case FrequencyDaily:
		return daysBetween(anchor, candidate)%interval == 0
	case FrequencyWeekly:
		weeks := daysBetween(anchor, candidate) / 7
		if weeks%interval != 0 {
			return false
		}
		return anchor.AddDate(0, 0, 7*weeks).Equal(candidate)
	case FrequencyMonthly:
		months := monthsBetween(anchor, candidate)
		if months%interval != 0 {
			return false
		}
		return addMonths(anchor, months).Equal(candidate)
	case FrequencyYearly:
		years := monthsBetween(anchor, candidate) / 12
		if years%interval != 0 {
			return false
		}
		return addYears(anchor, years).Equal(candidate)
	default:
		return false
	}
}
