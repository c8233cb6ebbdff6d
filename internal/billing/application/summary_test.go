package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hourjungle/billingcore/internal/billing/domain"
	"github.com/hourjungle/billingcore/internal/shared/infrastructure/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeContractRepo struct {
	contracts []*domain.Contract
	err       error
	calls     int
}

func (r *fakeContractRepo) FindByScope(ctx context.Context, scope domain.Scope) ([]*domain.Contract, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	if scope.IsAll() {
		return r.contracts, nil
	}
	var scoped []*domain.Contract
	for _, c := range r.contracts {
		if c.BranchID == scope.BranchID() {
			scoped = append(scoped, c)
		}
	}
	return scoped, nil
}

func (r *fakeContractRepo) FindActive(ctx context.Context) ([]*domain.Contract, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	var active []*domain.Contract
	for _, c := range r.contracts {
		if c.Active {
			active = append(active, c)
		}
	}
	return active, nil
}

type fakePaymentRepo struct {
	payments []domain.PaymentRecord
	err      error
}

func (r *fakePaymentRepo) FindByContracts(ctx context.Context, contractIDs []uuid.UUID, from, to time.Time) ([]domain.PaymentRecord, error) {
	if r.err != nil {
		return nil, r.err
	}
	ids := make(map[uuid.UUID]bool, len(contractIDs))
	for _, id := range contractIDs {
		ids[id] = true
	}
	var out []domain.PaymentRecord
	for _, p := range r.payments {
		if ids[p.ContractID] && !p.PaidOn.Before(from) && !p.PaidOn.After(to) {
			out = append(out, p)
		}
	}
	return out, nil
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr(t time.Time) *time.Time { return &t }

func monthlyContract(branchID uuid.UUID, start, end time.Time, amount int64) *domain.Contract {
	return &domain.Contract{
		ID:           uuid.New(),
		BranchID:     branchID,
		CustomerID:   uuid.New(),
		StartDate:    ptr(start),
		EndDate:      ptr(end),
		Cadence:      domain.CadenceMonthly,
		NextDueDate:  ptr(start),
		PeriodAmount: amount,
		Active:       true,
	}
}

func TestSummaryService_TrailingMonthsOrderedOldestFirst(t *testing.T) {
	branchID := uuid.New()
	c := monthlyContract(branchID, date(2023, time.January, 1), date(2025, time.December, 31), 10000)
	contracts := &fakeContractRepo{contracts: []*domain.Contract{c}}
	payments := &fakePaymentRepo{}

	svc := NewSummaryService(contracts, payments, cache.NewMemoryStore(), nil)

	summary, err := svc.BuildSummary(context.Background(), domain.AllBranches(), date(2024, time.June, 15))
	require.NoError(t, err)

	require.Len(t, summary.Months, 12)
	assert.Equal(t, time.July, summary.Months[0].Month)
	assert.Equal(t, 2023, summary.Months[0].Year)
	assert.Equal(t, time.June, summary.Months[11].Month)
	assert.Equal(t, 2024, summary.Months[11].Year)

	// Monthly cadence: a receivable in every listed month.
	for _, m := range summary.Months {
		assert.Equal(t, int64(10000), m.Receivable, "month %s %d", m.Month, m.Year)
	}
}

func TestSummaryService_UnpaidIsNotClamped(t *testing.T) {
	branchID := uuid.New()
	c := monthlyContract(branchID, date(2024, time.January, 1), date(2024, time.December, 31), 5000)
	contracts := &fakeContractRepo{contracts: []*domain.Contract{c}}
	// Customer paid twice in June: received exceeds receivable.
	payments := &fakePaymentRepo{payments: []domain.PaymentRecord{
		{ID: uuid.New(), ContractID: c.ID, PaidOn: date(2024, time.June, 5), Amount: 5000},
		{ID: uuid.New(), ContractID: c.ID, PaidOn: date(2024, time.June, 20), Amount: 5000},
	}}

	svc := NewSummaryService(contracts, payments, cache.NewMemoryStore(), nil)

	summary, err := svc.BuildSummary(context.Background(), domain.AllBranches(), date(2024, time.June, 15))
	require.NoError(t, err)

	assert.Equal(t, int64(5000), summary.ThisMonthReceivable)
	assert.Equal(t, int64(10000), summary.ThisMonthReceived)
	assert.Equal(t, int64(-5000), summary.ThisMonthUnpaid)
}

func TestSummaryService_YearScalars(t *testing.T) {
	branchID := uuid.New()
	c := monthlyContract(branchID, date(2024, time.January, 1), date(2024, time.December, 31), 1000)
	contracts := &fakeContractRepo{contracts: []*domain.Contract{c}}
	payments := &fakePaymentRepo{payments: []domain.PaymentRecord{
		{ID: uuid.New(), ContractID: c.ID, PaidOn: date(2024, time.February, 1), Amount: 1000},
		{ID: uuid.New(), ContractID: c.ID, PaidOn: date(2024, time.March, 1), Amount: 1000},
	}}

	svc := NewSummaryService(contracts, payments, cache.NewMemoryStore(), nil)

	summary, err := svc.BuildSummary(context.Background(), domain.AllBranches(), date(2024, time.June, 15))
	require.NoError(t, err)

	// 12 monthly obligations across the calendar year.
	assert.Equal(t, int64(12000), summary.ThisYearReceivable)
	assert.Equal(t, int64(2000), summary.ThisYearReceived)
	assert.Equal(t, int64(10000), summary.ThisYearUnpaid)
}

func TestSummaryService_ServesFromCache(t *testing.T) {
	branchID := uuid.New()
	c := monthlyContract(branchID, date(2024, time.January, 1), date(2024, time.December, 31), 1000)
	contracts := &fakeContractRepo{contracts: []*domain.Contract{c}}
	payments := &fakePaymentRepo{}

	svc := NewSummaryService(contracts, payments, cache.NewMemoryStore(), nil)
	asOf := date(2024, time.June, 15)

	_, err := svc.BuildSummary(context.Background(), domain.AllBranches(), asOf)
	require.NoError(t, err)
	_, err = svc.BuildSummary(context.Background(), domain.AllBranches(), asOf)
	require.NoError(t, err)

	assert.Equal(t, 1, contracts.calls, "second call must be served from cache")
}

func TestSummaryService_ScopesCacheIndependently(t *testing.T) {
	branchA := uuid.New()
	branchB := uuid.New()
	contracts := &fakeContractRepo{contracts: []*domain.Contract{
		monthlyContract(branchA, date(2024, time.January, 1), date(2024, time.December, 31), 1000),
		monthlyContract(branchB, date(2024, time.January, 1), date(2024, time.December, 31), 2000),
	}}
	payments := &fakePaymentRepo{}

	svc := NewSummaryService(contracts, payments, cache.NewMemoryStore(), nil)
	asOf := date(2024, time.June, 15)

	a, err := svc.BuildSummary(context.Background(), domain.BranchScope(branchA), asOf)
	require.NoError(t, err)
	b, err := svc.BuildSummary(context.Background(), domain.BranchScope(branchB), asOf)
	require.NoError(t, err)

	assert.Equal(t, int64(1000), a.ThisMonthReceivable)
	assert.Equal(t, int64(2000), b.ThisMonthReceivable)
}

func TestSummaryService_RefreshInvalidatesAllScopes(t *testing.T) {
	branchID := uuid.New()
	contracts := &fakeContractRepo{contracts: []*domain.Contract{
		monthlyContract(branchID, date(2024, time.January, 1), date(2024, time.December, 31), 1000),
	}}
	payments := &fakePaymentRepo{}
	store := cache.NewMemoryStore()

	svc := NewSummaryService(contracts, payments, store, nil)
	asOf := date(2024, time.June, 15)

	_, err := svc.BuildSummary(context.Background(), domain.AllBranches(), asOf)
	require.NoError(t, err)
	_, err = svc.BuildSummary(context.Background(), domain.BranchScope(branchID), asOf)
	require.NoError(t, err)

	callsBefore := contracts.calls
	_, err = svc.Refresh(context.Background(), domain.AllBranches(), asOf)
	require.NoError(t, err)
	assert.Equal(t, callsBefore+1, contracts.calls, "refresh recomputes its own scope")

	// The branch scope was invalidated too, so the next read recomputes.
	_, err = svc.BuildSummary(context.Background(), domain.BranchScope(branchID), asOf)
	require.NoError(t, err)
	assert.Equal(t, callsBefore+2, contracts.calls)
}

func TestSummaryService_DependencyFailureIsAtomic(t *testing.T) {
	contracts := &fakeContractRepo{err: errors.New("connection refused")}
	payments := &fakePaymentRepo{}

	svc := NewSummaryService(contracts, payments, cache.NewMemoryStore(), nil)

	summary, err := svc.BuildSummary(context.Background(), domain.AllBranches(), date(2024, time.June, 15))
	assert.Nil(t, summary)
	assert.ErrorIs(t, err, ErrDependencyUnavailable)
}

func TestSummaryService_LedgerFailureIsAtomic(t *testing.T) {
	branchID := uuid.New()
	contracts := &fakeContractRepo{contracts: []*domain.Contract{
		monthlyContract(branchID, date(2024, time.January, 1), date(2024, time.December, 31), 1000),
	}}
	payments := &fakePaymentRepo{err: errors.New("timeout")}

	svc := NewSummaryService(contracts, payments, cache.NewMemoryStore(), nil)

	summary, err := svc.BuildSummary(context.Background(), domain.AllBranches(), date(2024, time.June, 15))
	assert.Nil(t, summary)
	assert.ErrorIs(t, err, ErrDependencyUnavailable)
}
