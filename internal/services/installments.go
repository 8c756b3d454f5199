package services

import "fintrack/internal/core"

// ScheduleInstallments splits total into n monthly installments starting on
// the purchase date. Every installment gets floor(total/n) cents and the last
// one absorbs the remainder, so amounts always sum to total. Due dates keep
// the purchase day, clamped to each month's length.
//
// A total of fewer cents than n is rejected with ErrInvalidInstallments:
// each installment becomes a ledger expense, and expenses must be positive.
// 0.02 in 3 installments would otherwise yield 0.00, 0.00, 0.02.
func ScheduleInstallments(total core.Money, n int, purchaseDate core.Date) ([]core.Installment, error) {
	if n < 1 {
		return nil, core.Invalid("installments", core.ErrInvalidInstallments)
	}
	if err := total.Validate(); err != nil {
		return nil, core.Invalid("totalAmount", err)
	}
	if total.Cents < int64(n) {
		return nil, core.Invalid("installments", core.ErrInvalidInstallments)
	}
	if err := purchaseDate.Validate(); err != nil {
		return nil, core.Invalid("purchaseDate", err)
	}

	base := total.Cents / int64(n)
	remainder := total.Cents - base*int64(n)

	out := make([]core.Installment, n)
	for k := 0; k < n; k++ {
		y, m := core.AddMonths(purchaseDate.Year(), purchaseDate.Month(), k)
		amount := base
		if k == n-1 {
			amount += remainder
		}
		out[k] = core.Installment{
			InstallmentNumber: k + 1,
			Amount:            core.Cents(amount),
			DueDate:           core.ResolveDay(y, m, purchaseDate.Day()),
		}
	}
	return out, nil
}
