package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func dashboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show monthly, yearly and per-category summaries",
	}
	cmd.AddCommand(monthlyCmd(), yearlyCmd(), categoryTotalsCmd())
	return cmd
}

func monthlyCmd() *cobra.Command {
	var period string
	cmd := &cobra.Command{
		Use:   "monthly",
		Short: "Totals of one month, projected recurring entries included",
		RunE: func(cmd *cobra.Command, _ []string) error {
			year, month, err := parsePeriod(period, time.Now())
			if err != nil {
				return err
			}
			c, err := authedClient()
			if err != nil {
				return err
			}
			d, err := c.MonthlyDashboard(cmd.Context(), year, month)
			if err != nil {
				return apiError(err)
			}
			if jsonOutput() {
				return printJSON(cmd.OutOrStdout(), d)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %d\n\n", d.Period.MonthName, d.Period.Year)
			tw := newTable(out, "", "AMOUNT")
			row(tw, "Income", d.Summary.TotalIncome)
			row(tw, "Expenses", d.Summary.TotalExpenses)
			row(tw, "Card bills due", d.Summary.TotalCreditCardBills)
			row(tw, "Investments", d.Summary.TotalInvestments)
			row(tw, "Spent", d.Summary.TotalSpent)
			row(tw, "Saved", d.Summary.TotalSaved)
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&period, "month", "", "month (YYYY-MM, default current)")
	return cmd
}

func yearlyCmd() *cobra.Command {
	var year int
	cmd := &cobra.Command{
		Use:   "yearly",
		Short: "Month by month totals of a year",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if year == 0 {
				year = time.Now().Year()
			}
			c, err := authedClient()
			if err != nil {
				return err
			}
			d, err := c.YearlyDashboard(cmd.Context(), year)
			if err != nil {
				return apiError(err)
			}
			if jsonOutput() {
				return printJSON(cmd.OutOrStdout(), d)
			}
			tw := newTable(cmd.OutOrStdout(), "MONTH", "INCOME", "EXPENSES", "SAVED")
			for _, m := range d.MonthlyData {
				row(tw, m.MonthName, m.TotalIncome, m.TotalExpenses, m.TotalSaved)
			}
			row(tw, "TOTAL", d.Summary.TotalIncome, d.Summary.TotalExpenses, d.Summary.TotalSaved)
			row(tw, "AVERAGE", d.Summary.AverageMonthlyIncome, d.Summary.AverageMonthlyExpenses, "")
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "year (default current)")
	return cmd
}

func categoryTotalsCmd() *cobra.Command {
	var period string
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Totals per category of one month",
		RunE: func(cmd *cobra.Command, _ []string) error {
			year, month, err := parsePeriod(period, time.Now())
			if err != nil {
				return err
			}
			c, err := authedClient()
			if err != nil {
				return err
			}
			d, err := c.CategoryDashboard(cmd.Context(), year, month)
			if err != nil {
				return apiError(err)
			}
			if jsonOutput() {
				return printJSON(cmd.OutOrStdout(), d)
			}
			tw := newTable(cmd.OutOrStdout(), "KIND", "CATEGORY", "TOTAL")
			for _, t := range d.Expenses {
				row(tw, "expense", t.CategoryName, t.Total)
			}
			for _, t := range d.Incomes {
				row(tw, "income", t.CategoryName, t.Total)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&period, "month", "", "month (YYYY-MM, default current)")
	return cmd
}

func materializeCmd() *cobra.Command {
	var period string
	cmd := &cobra.Command{
		Use:   "materialize",
		Short: "Write the month's recurring expenses and incomes as real entries",
		RunE: func(cmd *cobra.Command, _ []string) error {
			year, month, err := parsePeriod(period, time.Now())
			if err != nil {
				return err
			}
			c, err := authedClient()
			if err != nil {
				return err
			}
			res, err := c.Materialize(cmd.Context(), year, month)
			if err != nil {
				return apiError(err)
			}
			if jsonOutput() {
				return printJSON(cmd.OutOrStdout(), res)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Materialized %04d-%02d: %d entries created\n", res.Year, res.Month, res.Created)
			return nil
		},
	}
	cmd.Flags().StringVar(&period, "month", "", "month (YYYY-MM, default current)")
	return cmd
}

func portfolioCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "portfolio",
		Short: "Show investments and their overall return",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := authedClient()
			if err != nil {
				return err
			}
			investments, err := c.Investments.List(cmd.Context(), listNone)
			if err != nil {
				return apiError(err)
			}
			p, err := c.Portfolio(cmd.Context())
			if err != nil {
				return apiError(err)
			}
			if jsonOutput() {
				return printJSON(cmd.OutOrStdout(), map[string]any{"investments": investments, "portfolio": p})
			}
			tw := newTable(cmd.OutOrStdout(), "ID", "NAME", "TYPE", "INITIAL", "CURRENT")
			for _, inv := range investments {
				row(tw, inv.ID, inv.Name, inv.Type, inv.InitialAmount, inv.CurrentAmount)
			}
			row(tw, "", "TOTAL", "", p.TotalInitial, p.TotalCurrent)
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\nReturn: %s (%s%%)\n", p.Return.Value, p.Return.Percentage.StringFixed(2))
			return nil
		},
	}
}
