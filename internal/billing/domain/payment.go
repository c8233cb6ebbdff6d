package domain

import (
	"time"

	"github.com/google/uuid"
)

// PaymentRecord is one row of the append-only payment ledger, produced by the
// billing subsystem whenever a payment is recorded.
type PaymentRecord struct {
	ID         uuid.UUID
	ContractID uuid.UUID
	PaidOn     time.Time
	Amount     int64
}
