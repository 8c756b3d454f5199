package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// RecurringProcessor turns recurrence occurrences into ledger entries. Every
// insert is keyed by (rule, year, month), so running it again for the same
// month writes nothing.
type RecurringProcessor struct {
	storage *storage.SQLiteRepository
	finance *FinanceService
}

// NewRecurringProcessor creates a new recurring processor. finance carries
// the post-commit side effects and may be nil.
func NewRecurringProcessor(storage *storage.SQLiteRepository, finance *FinanceService) *RecurringProcessor {
	return &RecurringProcessor{storage: storage, finance: finance}
}

// MaterializeMonth inserts every occurrence of (year, month) for userID and
// returns how many entries were created.
func (p *RecurringProcessor) MaterializeMonth(ctx context.Context, userID string, year, month int) (int, error) {
	if err := core.ValidateMonth(year, month); err != nil {
		return 0, err
	}
	return p.materialize(ctx, userID, year, month, core.Date{})
}

// ProcessDue materializes, for every user, the occurrences of now's month
// whose date is not after today. Failures of one user do not stop the others.
func (p *RecurringProcessor) ProcessDue(ctx context.Context, now time.Time) (int, error) {
	if p.storage == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}
	userIDs, err := p.storage.ListUserIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}

	today := core.DateOf(now)
	slog.InfoContext(ctx, "Processing recurring occurrences",
		"users", len(userIDs),
		"processing_date", today.String())

	total := 0
	var errs []error
	for _, userID := range userIDs {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		n, err := p.materialize(ctx, userID, today.Year(), today.Month(), today)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to materialize occurrences",
				"user_id", userID,
				"error", err)
			errs = append(errs, fmt.Errorf("user %s: %w", userID, err))
			continue
		}
		total += n
	}

	slog.InfoContext(ctx, "Recurring processing complete",
		"created", total,
		"failed_users", len(errs))
	return total, errors.Join(errs...)
}

// materialize inserts the occurrences of (year, month) dated up to cutoff;
// a zero cutoff takes the whole month.
func (p *RecurringProcessor) materialize(ctx context.Context, userID string, year, month int, cutoff core.Date) (int, error) {
	due := func(occ core.Occurrence) bool {
		return cutoff.IsEmpty() || !occ.Date.After(cutoff)
	}

	created := 0
	err := p.storage.InTx(ctx, func(q *storage.Queries) error {
		created = 0
		fixedExpenses, err := q.ListFixedExpenses(ctx, userID)
		if err != nil {
			return err
		}
		fixedIncomes, err := q.ListFixedIncomes(ctx, userID)
		if err != nil {
			return err
		}

		skippedCards := map[string]bool{}
		for _, f := range fixedExpenses {
			occ, ok := ExpandRule(f.Rule(), year, month)
			if !ok || !due(occ) {
				continue
			}
			e := core.FixedExpenseEntry(f).ProjectedExpense(userID, occ)
			if err := attribute(ctx, q, &e); err != nil {
				return fmt.Errorf("fixed expense %s: %w", f.ID, err)
			}
			inserted, err := q.InsertOccurrenceExpense(ctx, e, year, month)
			if err != nil {
				return fmt.Errorf("fixed expense %s: %w", f.ID, err)
			}
			if !inserted {
				if e.CreditCardID != "" {
					skippedCards[e.CreditCardID] = true
				}
				continue
			}
			created++
			slog.DebugContext(ctx, "Materialized fixed expense",
				"rule_id", f.ID,
				"date", occ.Date.String(),
				"amount_cents", occ.Amount.Cents)
		}
		// EnsureBill may have opened a bill for an occurrence that already existed.
		for cardID := range skippedCards {
			if err := q.DeleteEmptyBills(ctx, cardID); err != nil {
				return err
			}
		}

		for _, f := range fixedIncomes {
			occ, ok := ExpandRule(f.Rule(), year, month)
			if !ok || !due(occ) {
				continue
			}
			inserted, err := q.InsertOccurrenceIncome(ctx, core.FixedIncomeEntry(f).ProjectedIncome(userID, occ), year, month)
			if err != nil {
				return fmt.Errorf("fixed income %s: %w", f.ID, err)
			}
			if inserted {
				created++
				slog.DebugContext(ctx, "Materialized fixed income",
					"rule_id", f.ID,
					"date", occ.Date.String(),
					"amount_cents", occ.Amount.Cents)
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("materialize %d-%02d: %w", year, month, err)
	}

	if created > 0 {
		slog.InfoContext(ctx, "Materialized recurring occurrences",
			"user_id", userID,
			"year", year,
			"month", month,
			"created", created)
		if p.finance != nil {
			p.finance.changed(ctx, userID, amqp.ReasonMaterialized, core.MonthStart(year, month))
		}
	}
	return created, nil
}
