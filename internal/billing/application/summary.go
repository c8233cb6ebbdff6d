package application

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hourjungle/billingcore/internal/billing/domain"
	"github.com/hourjungle/billingcore/internal/shared/infrastructure/cache"
)

const (
	// SummaryCacheTTL is how long a computed summary stays valid.
	SummaryCacheTTL = 30 * time.Minute

	// summaryCachePrefix namespaces every scope's summary entry, so a forced
	// refresh can invalidate all of them in one sweep.
	summaryCachePrefix = "dashboard:"

	trailingMonths = 12
)

// MonthTotals holds one month's financial figures.
type MonthTotals struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Label string     `json:"label"` // short month name for charting, e.g. "Jan"

	// Receivable is the sum of period amounts over contracts with a billing
	// event in this month.
	Receivable int64 `json:"receivable"`
	// Received is the sum of ledger payments recorded in this month.
	Received int64 `json:"received"`
	// Unpaid is the sum of period amounts over contracts whose next due date
	// is on or before this month's end. It is a coarse "potentially
	// outstanding" figure, not an arrears calculation.
	Unpaid int64 `json:"unpaid"`
}

// Summary is the dashboard aggregation for one scope.
type Summary struct {
	// Months lists the trailing 12 calendar months, oldest first, ending at
	// the as-of month.
	Months []MonthTotals `json:"months"`

	ThisMonthReceivable int64 `json:"this_month_receivable"`
	ThisMonthReceived   int64 `json:"this_month_received"`
	// ThisMonthUnpaid is receivable minus received, deliberately unclamped:
	// prepayments make it negative.
	ThisMonthUnpaid int64 `json:"this_month_unpaid"`

	ThisYearReceivable int64 `json:"this_year_receivable"`
	ThisYearReceived   int64 `json:"this_year_received"`
	ThisYearUnpaid     int64 `json:"this_year_unpaid"`

	GeneratedAt time.Time `json:"generated_at"`
}

// SummaryService builds cached dashboard summaries from contracts and the
// payment ledger.
type SummaryService struct {
	contracts domain.ContractRepository
	payments  domain.PaymentRepository
	cache     cache.Store
	logger    *slog.Logger

	// keyLocks serializes recomputation per cache key so concurrent dashboard
	// requests for the same scope don't stampede the stores.
	keyLocks sync.Map // string -> *sync.Mutex
}

// NewSummaryService creates a new summary service.
func NewSummaryService(
	contracts domain.ContractRepository,
	payments domain.PaymentRepository,
	cacheStore cache.Store,
	logger *slog.Logger,
) *SummaryService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SummaryService{
		contracts: contracts,
		payments:  payments,
		cache:     cacheStore,
		logger:    logger,
	}
}

// BuildSummary returns the scope's summary for the month containing asOf,
// serving from cache when a fresh entry exists.
func (s *SummaryService) BuildSummary(ctx context.Context, scope domain.Scope, asOf time.Time) (*Summary, error) {
	key := scope.CacheKey()

	if summary, ok := s.fromCache(ctx, key); ok {
		return summary, nil
	}

	lock := s.lockFor(key)
	lock.Lock()
	defer lock.Unlock()

	// Another request may have finished computing while we waited.
	if summary, ok := s.fromCache(ctx, key); ok {
		return summary, nil
	}

	return s.computeAndStore(ctx, scope, asOf)
}

// Refresh drops every scope's cached summary and synchronously recomputes the
// caller's own scope.
func (s *SummaryService) Refresh(ctx context.Context, scope domain.Scope, asOf time.Time) (*Summary, error) {
	if err := s.cache.DeletePrefix(ctx, summaryCachePrefix); err != nil {
		return nil, dependencyError("cache", err)
	}
	s.logger.Info("dashboard cache invalidated", "scope", scope.CacheKey())

	key := scope.CacheKey()
	lock := s.lockFor(key)
	lock.Lock()
	defer lock.Unlock()

	return s.computeAndStore(ctx, scope, asOf)
}

func (s *SummaryService) lockFor(key string) *sync.Mutex {
	actual, _ := s.keyLocks.LoadOrStore(key, &sync.Mutex{})
	return actual.(*sync.Mutex)
}

func (s *SummaryService) fromCache(ctx context.Context, key string) (*Summary, bool) {
	raw, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		// A broken cache degrades to recomputation; the stores are the source
		// of truth.
		s.logger.Warn("summary cache read failed", "key", key, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var summary Summary
	if err := json.Unmarshal(raw, &summary); err != nil {
		s.logger.Warn("summary cache entry corrupt", "key", key, "error", err)
		return nil, false
	}
	return &summary, true
}

func (s *SummaryService) computeAndStore(ctx context.Context, scope domain.Scope, asOf time.Time) (*Summary, error) {
	start := time.Now()

	summary, err := s.compute(ctx, scope, asOf)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(summary)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, scope.CacheKey(), raw, SummaryCacheTTL); err != nil {
		s.logger.Warn("summary cache write failed", "key", scope.CacheKey(), "error", err)
	}

	s.logger.Info("dashboard summary computed",
		"scope", scope.CacheKey(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return summary, nil
}

func (s *SummaryService) compute(ctx context.Context, scope domain.Scope, asOf time.Time) (*Summary, error) {
	contracts, err := s.contracts.FindByScope(ctx, scope)
	if err != nil {
		return nil, dependencyError("contract store", err)
	}

	currentWindow := domain.WindowOf(asOf)
	oldestWindow := currentWindow.Shift(-(trailingMonths - 1))
	yearStart := time.Date(asOf.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	yearEnd := time.Date(asOf.Year(), time.December, 31, 0, 0, 0, 0, time.UTC)

	// One ledger read covers both the trailing chart and the year scalars.
	ledgerFrom := oldestWindow.Start()
	if yearStart.Before(ledgerFrom) {
		ledgerFrom = yearStart
	}

	contractIDs := make([]uuid.UUID, 0, len(contracts))
	for _, c := range contracts {
		contractIDs = append(contractIDs, c.ID)
	}

	payments, err := s.payments.FindByContracts(ctx, contractIDs, ledgerFrom, yearEnd)
	if err != nil {
		return nil, dependencyError("payment ledger", err)
	}

	receivedByMonth := make(map[domain.MonthWindow]int64)
	var yearReceived int64
	for _, p := range payments {
		receivedByMonth[domain.WindowOf(p.PaidOn)] += p.Amount
		if !p.PaidOn.Before(yearStart) && !p.PaidOn.After(yearEnd) {
			yearReceived += p.Amount
		}
	}

	summary := &Summary{
		Months:      make([]MonthTotals, 0, trailingMonths),
		GeneratedAt: time.Now().UTC(),
	}

	for i := trailingMonths - 1; i >= 0; i-- {
		window := currentWindow.Shift(-i)

		var receivable, unpaid int64
		for _, c := range contracts {
			if domain.HasObligationInWindow(c, window) {
				receivable += c.PeriodAmount
			}
			if c.NextDueDate != nil && !c.NextDueDate.After(window.End()) {
				unpaid += c.PeriodAmount
			}
		}

		summary.Months = append(summary.Months, MonthTotals{
			Year:       window.Year,
			Month:      window.Month,
			Label:      window.Start().Format("Jan"),
			Receivable: receivable,
			Received:   receivedByMonth[window],
			Unpaid:     unpaid,
		})
	}

	for _, c := range contracts {
		if domain.HasObligationInWindow(c, currentWindow) {
			summary.ThisMonthReceivable += c.PeriodAmount
		}
	}
	summary.ThisMonthReceived = receivedByMonth[currentWindow]
	summary.ThisMonthUnpaid = summary.ThisMonthReceivable - summary.ThisMonthReceived

	for month := time.January; month <= time.December; month++ {
		window := domain.MonthWindow{Year: asOf.Year(), Month: month}
		for _, c := range contracts {
			if domain.HasObligationInWindow(c, window) {
				summary.ThisYearReceivable += c.PeriodAmount
			}
		}
	}
	summary.ThisYearReceived = yearReceived
	summary.ThisYearUnpaid = summary.ThisYearReceivable - summary.ThisYearReceived

	return summary, nil
}
