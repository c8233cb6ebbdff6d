// Package persistence provides read-model repositories over the CRM's
// contract and payment tables.
package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hourjungle/billingcore/internal/billing/domain"
)

// PostgresContractRepository implements domain.ContractRepository with
// PostgreSQL. The contract and customer tables are owned by the surrounding
// CRM; this repository only reads them.
type PostgresContractRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresContractRepository creates a new repository.
func NewPostgresContractRepository(pool *pgxpool.Pool) *PostgresContractRepository {
	return &PostgresContractRepository{pool: pool}
}

const contractSelect = `
	SELECT c.id, c.branch_id, c.customer_id, c.name,
	       cu.name, COALESCE(cu.company_name, ''), COALESCE(cu.line_user_id, ''),
	       c.start_date, c.end_date, c.signing_date,
	       c.billing_cadence, c.anchor_day, c.next_due_date, c.last_paid_date,
	       c.period_amount, c.active
	FROM contracts c
	JOIN customers cu ON cu.id = c.customer_id`

// FindByScope returns the active contracts visible to the scope.
func (r *PostgresContractRepository) FindByScope(ctx context.Context, scope domain.Scope) ([]*domain.Contract, error) {
	query := contractSelect + `
		WHERE c.active AND ($1::uuid IS NULL OR c.branch_id = $1)
		ORDER BY c.created_at
	`
	var branchID *uuid.UUID
	if !scope.IsAll() {
		id := scope.BranchID()
		branchID = &id
	}
	rows, err := r.pool.Query(ctx, query, branchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanContracts(rows)
}

// FindActive returns every active contract across branches.
func (r *PostgresContractRepository) FindActive(ctx context.Context) ([]*domain.Contract, error) {
	query := contractSelect + `
		WHERE c.active
		ORDER BY c.created_at
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanContracts(rows)
}

func scanContracts(rows pgx.Rows) ([]*domain.Contract, error) {
	var contracts []*domain.Contract
	for rows.Next() {
		var c domain.Contract
		var cadence string
		err := rows.Scan(
			&c.ID, &c.BranchID, &c.CustomerID, &c.Name,
			&c.CustomerName, &c.CompanyName, &c.LineUserID,
			&c.StartDate, &c.EndDate, &c.SigningDate,
			&cadence, &c.AnchorDay, &c.NextDueDate, &c.LastPaidDate,
			&c.PeriodAmount, &c.Active,
		)
		if err != nil {
			return nil, err
		}
		c.Cadence = domain.BillingCadence(cadence)
		contracts = append(contracts, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return contracts, nil
}

// PostgresPaymentRepository implements domain.PaymentRepository over the
// CRM's append-only payment ledger.
type PostgresPaymentRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresPaymentRepository creates a new repository.
func NewPostgresPaymentRepository(pool *pgxpool.Pool) *PostgresPaymentRepository {
	return &PostgresPaymentRepository{pool: pool}
}

// FindByContracts returns payments recorded for the given contracts with a
// paid-on date inside [from, to].
func (r *PostgresPaymentRepository) FindByContracts(ctx context.Context, contractIDs []uuid.UUID, from, to time.Time) ([]domain.PaymentRecord, error) {
	if len(contractIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, contract_id, paid_on, amount
		FROM payments
		WHERE contract_id = ANY($1) AND paid_on BETWEEN $2 AND $3
		ORDER BY paid_on
	`
	rows, err := r.pool.Query(ctx, query, contractIDs, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []domain.PaymentRecord
	for rows.Next() {
		var p domain.PaymentRecord
		if err := rows.Scan(&p.ID, &p.ContractID, &p.PaidOn, &p.Amount); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return payments, nil
}
