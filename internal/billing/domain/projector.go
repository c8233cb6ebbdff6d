package domain

import "time"

// anchorSearchBoundYears bounds the two-way search in the anchor-only case.
// One year each way matches the slack the legacy scan allowed; revisit only
// with evidence that a real cadence/anchor combination needs more.
const anchorSearchBoundYears = 1

// MonthWindow is a calendar-month interval a contract is tested against.
type MonthWindow struct {
	Year  int
	Month time.Month
}

// WindowOf returns the month window containing the given date.
func WindowOf(date time.Time) MonthWindow {
	return MonthWindow{Year: date.Year(), Month: date.Month()}
}

// Start returns the first day of the window.
func (w MonthWindow) Start() time.Time {
	return time.Date(w.Year, w.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End returns the last day of the window.
func (w MonthWindow) End() time.Time {
	return time.Date(w.Year, w.Month+1, 0, 0, 0, 0, 0, time.UTC)
}

// Contains reports whether the date falls in the window's calendar month.
func (w MonthWindow) Contains(date time.Time) bool {
	return date.Year() == w.Year && date.Month() == w.Month
}

// Shift returns the window n months away (negative n shifts backwards).
func (w MonthWindow) Shift(n int) MonthWindow {
	shifted := w.Start().AddDate(0, n, 0)
	return MonthWindow{Year: shifted.Year(), Month: shifted.Month()}
}

// HasObligationInWindow decides whether a billing event of the contract falls
// inside the given calendar month. The projector is total: malformed or
// missing date information degrades to "no obligation", never an error.
func HasObligationInWindow(c *Contract, window MonthWindow) bool {
	switch c.ScheduleKind() {
	case ScheduleBounded:
		return boundedObligation(c, window)
	case ScheduleAnchorOnly:
		return anchoredObligation(c, window)
	default:
		return false
	}
}

// boundedObligation walks due dates from the contract start by cadence steps
// while inside the contract interval, looking for a hit in the window.
func boundedObligation(c *Contract, window MonthWindow) bool {
	start, end := *c.StartDate, *c.EndDate
	if start.After(window.End()) || end.Before(window.Start()) {
		return false
	}

	months := c.Cadence.Months()
	for due := start; !due.After(end); due = StepDate(due, months, StepForward) {
		if window.Contains(due) {
			return true
		}
	}
	return false
}

// anchoredObligation projects due dates both ways from the live next_due_date.
// Contracts adjusted by hand drift away from their original start date, so
// anchoring on the current due date is more robust than trusting start_date.
// The search is bounded to a year past either window edge to keep the loop
// finite when cadence and window never align.
func anchoredObligation(c *Contract, window MonthWindow) bool {
	anchor := *c.NextDueDate
	if window.Contains(anchor) {
		return true
	}

	months := c.Cadence.Months()

	forwardBound := window.End().AddDate(anchorSearchBoundYears, 0, 0)
	for due := StepDate(anchor, months, StepForward); !due.After(forwardBound); due = StepDate(due, months, StepForward) {
		if window.Contains(due) {
			return true
		}
	}

	backwardBound := window.Start().AddDate(-anchorSearchBoundYears, 0, 0)
	for due := StepDate(anchor, months, StepBackward); !due.Before(backwardBound); due = StepDate(due, months, StepBackward) {
		if window.Contains(due) {
			return true
		}
	}

	return false
}
