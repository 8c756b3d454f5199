package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"fintrack/internal/core"
)

func expensesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "expenses",
		Aliases: []string{"expense"},
		Short:   "List, add and delete expenses",
	}
	cmd.AddCommand(listExpensesCmd(), addExpenseCmd(), deleteCmd("expense", func(c apiClient) deleter { return c.Expenses }))
	return cmd
}

func listExpensesCmd() *cobra.Command {
	var month string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List expenses, optionally of one month",
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := listOptions(month)
			if err != nil {
				return err
			}
			c, err := authedClient()
			if err != nil {
				return err
			}
			expenses, err := c.Expenses.List(cmd.Context(), opts)
			if err != nil {
				return apiError(err)
			}
			if jsonOutput() {
				return printJSON(cmd.OutOrStdout(), expenses)
			}
			tw := newTable(cmd.OutOrStdout(), "ID", "DATE", "DESCRIPTION", "AMOUNT", "CARD")
			var total core.Money
			for _, e := range expenses {
				row(tw, e.ID, e.Date, e.Description, e.Amount, dash(e.CreditCardID))
				total = total.Add(e.Amount)
			}
			row(tw, "", "", "TOTAL", total, "")
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "only this month (YYYY-MM)")
	return cmd
}

func addExpenseCmd() *cobra.Command {
	var description, amount, date, category, card string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record an expense",
		RunE: func(cmd *cobra.Command, _ []string) error {
			amt, err := parseAmount(amount)
			if err != nil {
				return err
			}
			d, err := parseDate(date, time.Now())
			if err != nil {
				return err
			}
			c, err := authedClient()
			if err != nil {
				return err
			}
			e, err := c.Expenses.Create(cmd.Context(), core.Expense{
				Description:  description,
				Amount:       amt,
				Date:         d,
				CategoryID:   category,
				CreditCardID: card,
			})
			if err != nil {
				return apiError(err)
			}
			if jsonOutput() {
				return printJSON(cmd.OutOrStdout(), e)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created expense %s: %s %s on %s\n", e.ID, e.Description, e.Amount, e.Date)
			if e.CreditCardBillID != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Charged to bill %s\n", e.CreditCardBillID)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "what was bought")
	cmd.Flags().StringVarP(&amount, "amount", "a", "", "amount, e.g. 12.50")
	cmd.Flags().StringVar(&date, "date", "", "date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVarP(&category, "category", "c", "", "expense category id")
	cmd.Flags().StringVar(&card, "card", "", "credit card id")
	_ = cmd.MarkFlagRequired("description")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func incomesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "incomes",
		Aliases: []string{"income"},
		Short:   "List, add and delete incomes",
	}
	cmd.AddCommand(listIncomesCmd(), addIncomeCmd(), deleteCmd("income", func(c apiClient) deleter { return c.Incomes }))
	return cmd
}

func listIncomesCmd() *cobra.Command {
	var month string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List incomes, optionally of one month",
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := listOptions(month)
			if err != nil {
				return err
			}
			c, err := authedClient()
			if err != nil {
				return err
			}
			incomes, err := c.Incomes.List(cmd.Context(), opts)
			if err != nil {
				return apiError(err)
			}
			if jsonOutput() {
				return printJSON(cmd.OutOrStdout(), incomes)
			}
			tw := newTable(cmd.OutOrStdout(), "ID", "DATE", "DESCRIPTION", "AMOUNT")
			var total core.Money
			for _, i := range incomes {
				row(tw, i.ID, i.Date, i.Description, i.Amount)
				total = total.Add(i.Amount)
			}
			row(tw, "", "", "TOTAL", total)
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "only this month (YYYY-MM)")
	return cmd
}

func addIncomeCmd() *cobra.Command {
	var description, amount, date, category string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record an income",
		RunE: func(cmd *cobra.Command, _ []string) error {
			amt, err := parseAmount(amount)
			if err != nil {
				return err
			}
			d, err := parseDate(date, time.Now())
			if err != nil {
				return err
			}
			c, err := authedClient()
			if err != nil {
				return err
			}
			i, err := c.Incomes.Create(cmd.Context(), core.Income{
				Description: description,
				Amount:      amt,
				Date:        d,
				CategoryID:  category,
			})
			if err != nil {
				return apiError(err)
			}
			if jsonOutput() {
				return printJSON(cmd.OutOrStdout(), i)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created income %s: %s %s on %s\n", i.ID, i.Description, i.Amount, i.Date)
			return nil
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "where the money came from")
	cmd.Flags().StringVarP(&amount, "amount", "a", "", "amount, e.g. 1500")
	cmd.Flags().StringVar(&date, "date", "", "date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVarP(&category, "category", "c", "", "income category id")
	_ = cmd.MarkFlagRequired("description")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func categoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "categories [expenses|incomes]",
		Short:     "List categories of one kind",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"expenses", "incomes"},
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := authedClient()
			if err != nil {
				return err
			}
			res := c.ExpenseCategories
			switch args[0] {
			case "expenses":
			case "incomes":
				res = c.IncomeCategories
			default:
				return fmt.Errorf("unknown category kind %q, want expenses or incomes", args[0])
			}
			cats, err := res.List(cmd.Context(), listNone)
			if err != nil {
				return apiError(err)
			}
			if jsonOutput() {
				return printJSON(cmd.OutOrStdout(), cats)
			}
			tw := newTable(cmd.OutOrStdout(), "ID", "NAME", "COLOR")
			for _, cat := range cats {
				row(tw, cat.ID, cat.Name, cat.Color)
			}
			return tw.Flush()
		},
	}
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
