package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ContractRepository reads contracts from the surrounding application's store.
type ContractRepository interface {
	// FindByScope returns the active contracts visible to the scope.
	FindByScope(ctx context.Context, scope Scope) ([]*Contract, error)
	// FindActive returns all active contracts across every branch.
	FindActive(ctx context.Context) ([]*Contract, error)
}

// PaymentRepository reads the append-only payment ledger.
type PaymentRepository interface {
	// FindByContracts returns payment records for the given contracts with a
	// paid-on date inside [from, to].
	FindByContracts(ctx context.Context, contractIDs []uuid.UUID, from, to time.Time) ([]PaymentRecord, error)
}
