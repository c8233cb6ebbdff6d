package domain

import (
	"time"

	"github.com/google/uuid"
)

// ScheduleKind identifies which date information a contract carries,
// which in turn selects the projection algorithm.
type ScheduleKind int

const (
	// ScheduleBounded means both start and end dates are present.
	ScheduleBounded ScheduleKind = iota
	// ScheduleAnchorOnly means start or end is missing but a next due date
	// exists to anchor projections on.
	ScheduleAnchorOnly
	// ScheduleUnknown means the contract has no usable date information.
	ScheduleUnknown
)

// Contract is a read model of a co-working space rental contract, owned by
// the surrounding CRUD application. This core never mutates it.
type Contract struct {
	ID           uuid.UUID
	BranchID     uuid.UUID
	CustomerID   uuid.UUID
	Name         string
	CustomerName string
	CompanyName  string
	LineUserID   string // empty when the customer has no LINE identity
	StartDate    *time.Time
	EndDate      *time.Time
	SigningDate  *time.Time
	Cadence      BillingCadence
	AnchorDay    int // day of month payment is due, 1-31
	NextDueDate  *time.Time
	LastPaidDate *time.Time
	PeriodAmount int64 // NT$ per billing period, non-negative
	Active       bool
}

// ScheduleKind classifies the contract's date information.
func (c *Contract) ScheduleKind() ScheduleKind {
	if c.StartDate != nil && c.EndDate != nil {
		return ScheduleBounded
	}
	if c.NextDueDate != nil {
		return ScheduleAnchorOnly
	}
	return ScheduleUnknown
}

// HasChannelIdentity reports whether reminders can be delivered to the
// contract's customer.
func (c *Contract) HasChannelIdentity() bool {
	return c.LineUserID != ""
}
