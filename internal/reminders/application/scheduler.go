// Package application orchestrates reminder task scheduling, dispatch, and
// administration on top of the reminders domain.
package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	billing "github.com/hourjungle/billingcore/internal/billing/domain"
	"github.com/hourjungle/billingcore/internal/reminders/domain"
	"github.com/hourjungle/billingcore/internal/shared/infrastructure/eventbus"
)

// Reminder trigger offsets, in days before the target date.
var (
	paymentReminderOffsets = []int{7, 3}
	renewalReminderOffsets = []int{60, 30}
)

// ScanResult counts the tasks a scan actually inserted. Deduplicated
// candidates are not counted, so a second scan on an unchanged contract set
// reports zeros.
type ScanResult struct {
	PaymentReminders int `json:"payment_reminders"`
	RenewalReminders int `json:"renewal_reminders"`
}

// Scheduler scans active contracts and creates reminder tasks on their
// trigger days.
type Scheduler struct {
	contracts billing.ContractRepository
	tasks     domain.Repository
	publisher eventbus.Publisher
	logger    *slog.Logger
}

// NewScheduler creates a new scheduler.
func NewScheduler(
	contracts billing.ContractRepository,
	tasks domain.Repository,
	publisher eventbus.Publisher,
	logger *slog.Logger,
) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if publisher == nil {
		publisher = eventbus.NewNoopPublisher(logger)
	}
	return &Scheduler{
		contracts: contracts,
		tasks:     tasks,
		publisher: publisher,
		logger:    logger,
	}
}

// ScanAndSchedule walks all active contracts and inserts the reminder tasks
// whose trigger day is today. Payment reminders fire 7 and 3 days before the
// next due date, renewal reminders 60 and 30 days before the contract end
// date; a task created ahead of its trigger day would only duplicate what a
// later scan creates, so each offset is handled on its own day. Customers
// without a channel identity are skipped silently. The dedup constraint in
// the task store makes repeated scans on the same day idempotent.
func (s *Scheduler) ScanAndSchedule(ctx context.Context, today time.Time) (ScanResult, error) {
	var result ScanResult

	contracts, err := s.contracts.FindActive(ctx)
	if err != nil {
		return result, fmt.Errorf("load active contracts: %w", err)
	}

	for _, c := range contracts {
		if !c.HasChannelIdentity() {
			continue
		}

		if c.NextDueDate != nil {
			for _, daysBefore := range paymentReminderOffsets {
				trigger := c.NextDueDate.AddDate(0, 0, -daysBefore)
				if !sameDay(trigger, today) {
					continue
				}
				created, err := s.schedulePaymentReminder(ctx, c, trigger, daysBefore)
				if err != nil {
					return result, err
				}
				if created {
					result.PaymentReminders++
				}
			}
		}

		if c.EndDate != nil {
			for _, daysBefore := range renewalReminderOffsets {
				trigger := c.EndDate.AddDate(0, 0, -daysBefore)
				if !sameDay(trigger, today) {
					continue
				}
				created, err := s.scheduleRenewalReminder(ctx, c, trigger, daysBefore)
				if err != nil {
					return result, err
				}
				if created {
					result.RenewalReminders++
				}
			}
		}
	}

	s.logger.Info("reminder scan completed",
		"payment_reminders", result.PaymentReminders,
		"renewal_reminders", result.RenewalReminders,
	)
	return result, nil
}

func (s *Scheduler) schedulePaymentReminder(ctx context.Context, c *billing.Contract, trigger time.Time, daysBefore int) (bool, error) {
	payload := domain.PaymentReminderPayload{
		CustomerName: c.CustomerName,
		CompanyName:  c.CompanyName,
		ContractName: c.Name,
		DueDate:      *c.NextDueDate,
		Amount:       c.PeriodAmount,
		DaysBefore:   daysBefore,
	}

	task, err := domain.NewReminderTask(domain.TypePaymentReminder, c.CustomerID, &c.ID, trigger, domain.ChannelLINE, payload)
	if err != nil {
		return false, fmt.Errorf("build payment reminder: %w", err)
	}
	return s.insert(ctx, task)
}

func (s *Scheduler) scheduleRenewalReminder(ctx context.Context, c *billing.Contract, trigger time.Time, daysBefore int) (bool, error) {
	payload := domain.RenewalReminderPayload{
		CustomerName: c.CustomerName,
		CompanyName:  c.CompanyName,
		ContractName: c.Name,
		EndDate:      *c.EndDate,
		DaysBefore:   daysBefore,
	}

	task, err := domain.NewReminderTask(domain.TypeRenewalReminder, c.CustomerID, &c.ID, trigger, domain.ChannelLINE, payload)
	if err != nil {
		return false, fmt.Errorf("build renewal reminder: %w", err)
	}
	return s.insert(ctx, task)
}

func (s *Scheduler) insert(ctx context.Context, task *domain.ReminderTask) (bool, error) {
	inserted, err := s.tasks.InsertIfAbsent(ctx, task)
	if err != nil {
		return false, fmt.Errorf("insert reminder task: %w", err)
	}
	if !inserted {
		s.logger.Debug("reminder task already scheduled",
			"task_type", task.TaskType(),
			"customer_id", task.CustomerID(),
			"scheduled_on", task.ScheduledOn().Format(time.DateOnly),
		)
		return false, nil
	}

	s.logger.Info("reminder task scheduled",
		"task_type", task.TaskType(),
		"customer_id", task.CustomerID(),
		"scheduled_on", task.ScheduledOn().Format(time.DateOnly),
	)
	publishEvents(ctx, s.publisher, s.logger, task)
	return true, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
