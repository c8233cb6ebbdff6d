package domain

import "time"

// BillingCadence represents how often a contract is billed.
type BillingCadence string

const (
	CadenceMonthly    BillingCadence = "monthly"
	CadenceQuarterly  BillingCadence = "quarterly"
	CadenceSemiannual BillingCadence = "semiannual"
	CadenceAnnual     BillingCadence = "annual"
)

// IsValid checks if the cadence is a known value.
func (c BillingCadence) IsValid() bool {
	switch c {
	case CadenceMonthly, CadenceQuarterly, CadenceSemiannual, CadenceAnnual:
		return true
	default:
		return false
	}
}

// Months returns the cadence step size in whole months.
// Unknown cadences degrade to monthly; dashboards must keep working even
// when contract data carries a value this build doesn't know about.
func (c BillingCadence) Months() int {
	switch c {
	case CadenceMonthly:
		return 1
	case CadenceQuarterly:
		return 3
	case CadenceSemiannual:
		return 6
	case CadenceAnnual:
		return 12
	default:
		return 1
	}
}

// StepDirection is the direction of a cadence step.
type StepDirection int

const (
	StepForward  StepDirection = 1
	StepBackward StepDirection = -1
)

// StepDate adds or subtracts whole calendar months from a date.
// Stepping from the last day of a month lands on the last valid day of the
// target month instead of overflowing into the following one, so a due date
// of Jan 31 steps to Feb 29 in a leap year, not Mar 2.
func StepDate(date time.Time, months int, direction StepDirection) time.Time {
	year, month, day := date.Date()
	firstOfMonth := time.Date(year, month, 1, 0, 0, 0, 0, date.Location())
	shifted := firstOfMonth.AddDate(0, int(direction)*months, 0)

	if last := lastDayOfMonth(shifted.Year(), shifted.Month()); day > last {
		day = last
	}
	return time.Date(shifted.Year(), shifted.Month(), day, 0, 0, 0, 0, date.Location())
}

func lastDayOfMonth(year int, month time.Month) int {
	// Day zero of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
