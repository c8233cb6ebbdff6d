package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	billing "github.com/hourjungle/billingcore/internal/billing/domain"
	"github.com/hourjungle/billingcore/internal/reminders/domain"
)

type fakeContractRepo struct {
	contracts []*billing.Contract
	err       error
}

func (r *fakeContractRepo) FindByScope(ctx context.Context, scope billing.Scope) ([]*billing.Contract, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.contracts, nil
}

func (r *fakeContractRepo) FindActive(ctx context.Context) ([]*billing.Contract, error) {
	if r.err != nil {
		return nil, r.err
	}
	var active []*billing.Contract
	for _, c := range r.contracts {
		if c.Active {
			active = append(active, c)
		}
	}
	return active, nil
}

type fakeTaskRepo struct {
	tasks     []*domain.ReminderTask
	insertErr error
	findErr   error
	saveErr   error
}

func (r *fakeTaskRepo) InsertIfAbsent(ctx context.Context, task *domain.ReminderTask) (bool, error) {
	if r.insertErr != nil {
		return false, r.insertErr
	}
	for _, t := range r.tasks {
		if t.Status() != domain.StatusPending && t.Status() != domain.StatusExecuted {
			continue
		}
		if t.DedupKey().String() == task.DedupKey().String() {
			return false, nil
		}
	}
	r.tasks = append(r.tasks, task)
	return true, nil
}

func (r *fakeTaskRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.ReminderTask, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, t := range r.tasks {
		if t.ID() == id {
			return t, nil
		}
	}
	return nil, nil
}

func (r *fakeTaskRepo) Save(ctx context.Context, task *domain.ReminderTask) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	for i, t := range r.tasks {
		if t.ID() == task.ID() {
			r.tasks[i] = task
			return nil
		}
	}
	r.tasks = append(r.tasks, task)
	return nil
}

func (r *fakeTaskRepo) FindDue(ctx context.Context, now time.Time, limit int) ([]*domain.ReminderTask, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	var due []*domain.ReminderTask
	for _, t := range r.tasks {
		if t.IsPending() && !t.ScheduledOn().After(now) {
			due = append(due, t)
		}
		if limit > 0 && len(due) == limit {
			break
		}
	}
	return due, nil
}

func (r *fakeTaskRepo) List(ctx context.Context, filter domain.ListFilter) ([]*domain.ReminderTask, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	var out []*domain.ReminderTask
	for _, t := range r.tasks {
		if filter.Status != nil && t.Status() != *filter.Status {
			continue
		}
		if filter.TaskType != nil && t.TaskType() != *filter.TaskType {
			continue
		}
		if filter.CustomerID != nil && t.CustomerID() != *filter.CustomerID {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *fakeTaskRepo) Stats(ctx context.Context, today time.Time) (domain.TaskStats, error) {
	if r.findErr != nil {
		return domain.TaskStats{}, r.findErr
	}
	var stats domain.TaskStats
	for _, t := range r.tasks {
		if t.IsPending() {
			stats.PendingTotal++
		}
	}
	return stats, nil
}

func (r *fakeTaskRepo) pendingCount() int {
	n := 0
	for _, t := range r.tasks {
		if t.IsPending() {
			n++
		}
	}
	return n
}

type fakeMessenger struct {
	sent []string
	errs []error // consumed per call; nil entry means success
}

func (m *fakeMessenger) Send(ctx context.Context, customerID uuid.UUID, text string) error {
	var err error
	if len(m.errs) > 0 {
		err = m.errs[0]
		m.errs = m.errs[1:]
	}
	if err != nil {
		return err
	}
	m.sent = append(m.sent, text)
	return nil
}
