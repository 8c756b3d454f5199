package services

import (
	"context"
	"fmt"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

func (s *FinanceService) ListPurchases(ctx context.Context, userID string) ([]core.Purchase, error) {
	var out []core.Purchase
	err := s.repo.InTx(ctx, func(q *storage.Queries) error {
		var err error
		if out, err = q.ListPurchases(ctx, userID); err != nil {
			return err
		}
		for i := range out {
			if out[i].InstallmentsList, err = q.ListInstallments(ctx, out[i].ID); err != nil {
				return err
			}
		}
		return nil
	})
	return out, err
}

func (s *FinanceService) GetPurchase(ctx context.Context, userID, id string) (core.Purchase, error) {
	var p core.Purchase
	err := s.repo.InTx(ctx, func(q *storage.Queries) error {
		var err error
		if p, err = q.GetPurchase(ctx, userID, id); err != nil {
			return err
		}
		p.InstallmentsList, err = q.ListInstallments(ctx, id)
		return err
	})
	return p, err
}

// CreatePurchase stores the purchase, its installment schedule and one
// ledger expense per installment, all or nothing.
func (s *FinanceService) CreatePurchase(ctx context.Context, userID string, p core.Purchase) (core.Purchase, error) {
	p.UserID = userID
	if err := p.Validate(); err != nil {
		return core.Purchase{}, err
	}
	schedule, err := ScheduleInstallments(p.TotalAmount, p.Installments, p.PurchaseDate)
	if err != nil {
		return core.Purchase{}, err
	}

	var created core.Purchase
	err = s.repo.InTx(ctx, func(q *storage.Queries) error {
		if err := checkPurchaseRefs(ctx, q, p); err != nil {
			return err
		}
		var err error
		if created, err = q.CreatePurchase(ctx, p); err != nil {
			return err
		}
		created.InstallmentsList, err = writeSchedule(ctx, q, created, schedule)
		return err
	})
	if err != nil {
		return core.Purchase{}, fmt.Errorf("create purchase: %w", err)
	}

	s.changed(ctx, userID, amqp.ReasonPurchase, dueDates(created.InstallmentsList)...)
	return created, nil
}

// UpdatePurchase saves the purchase and regenerates its schedule and ledger
// expenses from scratch.
func (s *FinanceService) UpdatePurchase(ctx context.Context, userID string, p core.Purchase) (core.Purchase, error) {
	p.UserID = userID
	if err := p.Validate(); err != nil {
		return core.Purchase{}, err
	}
	schedule, err := ScheduleInstallments(p.TotalAmount, p.Installments, p.PurchaseDate)
	if err != nil {
		return core.Purchase{}, err
	}

	var updated core.Purchase
	var touched []core.Date
	err = s.repo.InTx(ctx, func(q *storage.Queries) error {
		old, err := q.GetPurchase(ctx, userID, p.ID)
		if err != nil {
			return err
		}
		oldSchedule, err := q.ListInstallments(ctx, p.ID)
		if err != nil {
			return err
		}
		touched = dueDates(oldSchedule)

		if err := checkPurchaseRefs(ctx, q, p); err != nil {
			return err
		}
		if updated, err = q.UpdatePurchase(ctx, p); err != nil {
			return err
		}
		if err := q.DeletePurchaseExpenses(ctx, p.ID); err != nil {
			return err
		}
		if err := q.DeleteInstallments(ctx, p.ID); err != nil {
			return err
		}
		if updated.InstallmentsList, err = writeSchedule(ctx, q, updated, schedule); err != nil {
			return err
		}
		if old.CreditCardID != "" {
			return q.DeleteEmptyBills(ctx, old.CreditCardID)
		}
		return nil
	})
	if err != nil {
		return core.Purchase{}, fmt.Errorf("update purchase: %w", err)
	}

	s.changed(ctx, userID, amqp.ReasonPurchase, append(touched, dueDates(updated.InstallmentsList)...)...)
	return updated, nil
}

// DeletePurchase removes the purchase; installments and their expenses go with it.
func (s *FinanceService) DeletePurchase(ctx context.Context, userID, id string) error {
	var touched []core.Date
	err := s.repo.InTx(ctx, func(q *storage.Queries) error {
		old, err := q.GetPurchase(ctx, userID, id)
		if err != nil {
			return err
		}
		schedule, err := q.ListInstallments(ctx, id)
		if err != nil {
			return err
		}
		touched = dueDates(schedule)
		if err := q.DeletePurchase(ctx, userID, id); err != nil {
			return err
		}
		if old.CreditCardID != "" {
			return q.DeleteEmptyBills(ctx, old.CreditCardID)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete purchase: %w", err)
	}

	s.changed(ctx, userID, amqp.ReasonPurchase, touched...)
	return nil
}

func checkPurchaseRefs(ctx context.Context, q *storage.Queries, p core.Purchase) error {
	if err := requireCategory(ctx, q, p.UserID, p.CategoryID, core.KindExpense); err != nil {
		return err
	}
	if p.CreditCardID != "" {
		if _, err := requireCard(ctx, q, p.UserID, p.CreditCardID); err != nil {
			return err
		}
	}
	return nil
}

// writeSchedule persists the installments of p and their ledger expenses.
func writeSchedule(ctx context.Context, q *storage.Queries, p core.Purchase, schedule []core.Installment) ([]core.Installment, error) {
	out := make([]core.Installment, 0, len(schedule))
	for _, inst := range schedule {
		inst.UserID = p.UserID
		inst.PurchaseID = p.ID
		saved, err := q.CreateInstallment(ctx, inst)
		if err != nil {
			return nil, err
		}
		out = append(out, saved)

		e := core.Expense{
			Meta:              core.Meta{UserID: p.UserID},
			Description:       installmentDescription(p, inst.InstallmentNumber),
			Amount:            inst.Amount,
			Date:              inst.DueDate,
			CategoryID:        p.CategoryID,
			CreditCardID:      p.CreditCardID,
			PurchaseID:        p.ID,
			InstallmentNumber: inst.InstallmentNumber,
		}
		if err := attribute(ctx, q, &e); err != nil {
			return nil, err
		}
		if _, err := q.CreateExpense(ctx, e); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func installmentDescription(p core.Purchase, n int) string {
	if p.Installments == 1 {
		return p.Description
	}
	return fmt.Sprintf("%s (%d/%d)", p.Description, n, p.Installments)
}

func dueDates(schedule []core.Installment) []core.Date {
	out := make([]core.Date, 0, len(schedule))
	for _, inst := range schedule {
		out = append(out, inst.DueDate)
	}
	return out
}
