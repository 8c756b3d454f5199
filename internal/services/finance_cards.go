package services

import (
	"context"
	"fmt"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

func (s *FinanceService) ListCreditCards(ctx context.Context, userID string) ([]core.CreditCard, error) {
	return s.repo.ListCreditCards(ctx, userID)
}

// GetCreditCard returns the card with its bills, totals and due dates derived.
func (s *FinanceService) GetCreditCard(ctx context.Context, userID, id string) (core.CreditCard, error) {
	var card core.CreditCard
	err := s.repo.InTx(ctx, func(q *storage.Queries) error {
		var err error
		if card, err = q.GetCreditCard(ctx, userID, id); err != nil {
			return err
		}
		bills, err := q.ListBillsByCard(ctx, userID, id)
		if err != nil {
			return err
		}
		card.Bills = withDueDates(card, bills)
		return nil
	})
	return card, err
}

// ListBills returns the bills of a card, oldest first.
func (s *FinanceService) ListBills(ctx context.Context, userID, cardID string) ([]core.CreditCardBill, error) {
	card, err := s.GetCreditCard(ctx, userID, cardID)
	if err != nil {
		return nil, err
	}
	return card.Bills, nil
}

// GetBill returns one bill with its attributed expenses.
func (s *FinanceService) GetBill(ctx context.Context, userID, id string) (core.CreditCardBill, error) {
	var bill core.CreditCardBill
	err := s.repo.InTx(ctx, func(q *storage.Queries) error {
		var err error
		if bill, err = q.GetBill(ctx, userID, id); err != nil {
			return err
		}
		card, err := q.GetCreditCard(ctx, userID, bill.CreditCardID)
		if err != nil {
			return err
		}
		bill.DueDate = CycleFor(card, bill.Year, bill.Month).DueDate
		bill.Expenses, err = q.ListExpensesByBill(ctx, bill.ID)
		return err
	})
	return bill, err
}

func (s *FinanceService) CreateCreditCard(ctx context.Context, userID string, c core.CreditCard) (core.CreditCard, error) {
	c.UserID = userID
	c.Bills = nil
	if err := c.Validate(); err != nil {
		return core.CreditCard{}, err
	}
	created, err := s.repo.CreateCreditCard(ctx, c)
	if err != nil {
		return core.CreditCard{}, fmt.Errorf("create credit card: %w", err)
	}
	s.changed(ctx, userID, amqp.ReasonCreditCard)
	return created, nil
}

// UpdateCreditCard saves the card. A new closing day moves every expense of
// the card to the bill of the cycle that now contains it.
func (s *FinanceService) UpdateCreditCard(ctx context.Context, userID string, c core.CreditCard) (core.CreditCard, error) {
	c.UserID = userID
	c.Bills = nil
	if err := c.Validate(); err != nil {
		return core.CreditCard{}, err
	}

	var updated core.CreditCard
	var moved []core.Date
	err := s.repo.InTx(ctx, func(q *storage.Queries) error {
		old, err := q.GetCreditCard(ctx, userID, c.ID)
		if err != nil {
			return err
		}
		if updated, err = q.UpdateCreditCard(ctx, c); err != nil {
			return err
		}
		if old.ClosingDay == updated.ClosingDay {
			return nil
		}
		if moved, err = reattribute(ctx, q, updated); err != nil {
			return err
		}
		return q.DeleteEmptyBills(ctx, updated.ID)
	})
	if err != nil {
		return core.CreditCard{}, fmt.Errorf("update credit card: %w", err)
	}

	s.changed(ctx, userID, amqp.ReasonCreditCard, moved...)
	return updated, nil
}

// reattribute recomputes the bill of every expense of card and returns the
// dates of the expenses that moved.
func reattribute(ctx context.Context, q *storage.Queries, card core.CreditCard) ([]core.Date, error) {
	expenses, err := q.ListExpensesByCard(ctx, card.UserID, card.ID)
	if err != nil {
		return nil, err
	}
	bills := map[[2]int]string{}
	var moved []core.Date
	for _, e := range expenses {
		cycle := CycleContaining(card, e.Date)
		key := [2]int{cycle.Year, cycle.Month}
		billID, ok := bills[key]
		if !ok {
			if billID, err = q.EnsureBill(ctx, card.UserID, card.ID, cycle.Year, cycle.Month); err != nil {
				return nil, fmt.Errorf("ensure bill: %w", err)
			}
			bills[key] = billID
		}
		if billID == e.CreditCardBillID {
			continue
		}
		if err := q.SetExpenseBill(ctx, e.ID, billID); err != nil {
			return nil, err
		}
		moved = append(moved, e.Date)
	}
	return moved, nil
}

// DeleteCreditCard removes the card and its bills. Its expenses stay in the
// ledger without a card.
func (s *FinanceService) DeleteCreditCard(ctx context.Context, userID, id string) error {
	if err := s.repo.DeleteCreditCard(ctx, userID, id); err != nil {
		return fmt.Errorf("delete credit card: %w", err)
	}
	s.changed(ctx, userID, amqp.ReasonCreditCard)
	return nil
}

// SetBillPaid marks a bill paid or unpaid.
func (s *FinanceService) SetBillPaid(ctx context.Context, userID, id string, paid bool) (core.CreditCardBill, error) {
	if err := s.repo.SetBillPaid(ctx, userID, id, paid); err != nil {
		return core.CreditCardBill{}, fmt.Errorf("set bill paid: %w", err)
	}
	bill, err := s.GetBill(ctx, userID, id)
	if err != nil {
		return core.CreditCardBill{}, err
	}
	s.changed(ctx, userID, amqp.ReasonCreditCard, bill.DueDate)
	return bill, nil
}
