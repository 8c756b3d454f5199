package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"fintrack/internal/core"
)

func cardsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "cards",
		Aliases: []string{"card"},
		Short:   "Manage credit cards and their bills",
	}
	cmd.AddCommand(
		listCardsCmd(),
		addCardCmd(),
		billsCmd(),
		payBillCmd(),
		deleteCmd("credit card", func(c apiClient) deleter { return c.CreditCards }),
	)
	return cmd
}

func listCardsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List credit cards",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := authedClient()
			if err != nil {
				return err
			}
			cards, err := c.CreditCards.List(cmd.Context(), listNone)
			if err != nil {
				return apiError(err)
			}
			if jsonOutput() {
				return printJSON(cmd.OutOrStdout(), cards)
			}
			tw := newTable(cmd.OutOrStdout(), "ID", "NAME", "CLOSING", "DUE", "LIMIT")
			for _, card := range cards {
				row(tw, card.ID, card.Name, card.ClosingDay, card.DueDay, card.Limit)
			}
			return tw.Flush()
		},
	}
}

func addCardCmd() *cobra.Command {
	var name, limit string
	var closingDay, dueDay int
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a credit card",
		RunE: func(cmd *cobra.Command, _ []string) error {
			lim, err := parseAmount(limit)
			if err != nil {
				return err
			}
			c, err := authedClient()
			if err != nil {
				return err
			}
			card, err := c.CreditCards.Create(cmd.Context(), core.CreditCard{
				Name:       name,
				ClosingDay: closingDay,
				DueDay:     dueDay,
				Limit:      lim,
			})
			if err != nil {
				return apiError(err)
			}
			if jsonOutput() {
				return printJSON(cmd.OutOrStdout(), card)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created card %s (%s): closes on day %d, due on day %d\n",
				card.ID, card.Name, card.ClosingDay, card.DueDay)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "card name")
	cmd.Flags().IntVar(&closingDay, "closing-day", 0, "day of month the bill closes (1-31)")
	cmd.Flags().IntVar(&dueDay, "due-day", 0, "day of month the bill is due (1-31)")
	cmd.Flags().StringVar(&limit, "limit", "0", "credit limit")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("closing-day")
	_ = cmd.MarkFlagRequired("due-day")
	return cmd
}

func billsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bills CARD_ID",
		Short: "List the bills of a card",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := authedClient()
			if err != nil {
				return err
			}
			bills, err := c.Bills(cmd.Context(), args[0])
			if err != nil {
				return apiError(err)
			}
			if jsonOutput() {
				return printJSON(cmd.OutOrStdout(), bills)
			}
			tw := newTable(cmd.OutOrStdout(), "ID", "PERIOD", "TOTAL", "DUE", "PAID")
			for _, b := range bills {
				row(tw, dash(b.ID), fmt.Sprintf("%04d-%02d", b.Year, b.Month), b.TotalAmount, b.DueDate, b.IsPaid)
			}
			return tw.Flush()
		},
	}
}

func payBillCmd() *cobra.Command {
	var unpaid bool
	cmd := &cobra.Command{
		Use:   "pay BILL_ID",
		Short: "Mark a bill as paid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := authedClient()
			if err != nil {
				return err
			}
			bill, err := c.SetBillPaid(cmd.Context(), args[0], !unpaid)
			if err != nil {
				return apiError(err)
			}
			if jsonOutput() {
				return printJSON(cmd.OutOrStdout(), bill)
			}
			state := "paid"
			if !bill.IsPaid {
				state = "unpaid"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Bill %s (%04d-%02d, %s) marked %s\n", bill.ID, bill.Year, bill.Month, bill.TotalAmount, state)
			return nil
		},
	}
	cmd.Flags().BoolVar(&unpaid, "unpaid", false, "mark the bill unpaid instead")
	return cmd
}

func purchasesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "purchases",
		Aliases: []string{"purchase"},
		Short:   "Manage purchases paid in installments",
	}
	cmd.AddCommand(
		listPurchasesCmd(),
		addPurchaseCmd(),
		deleteCmd("purchase", func(c apiClient) deleter { return c.Purchases }),
	)
	return cmd
}

func listPurchasesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List purchases",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := authedClient()
			if err != nil {
				return err
			}
			purchases, err := c.Purchases.List(cmd.Context(), listNone)
			if err != nil {
				return apiError(err)
			}
			if jsonOutput() {
				return printJSON(cmd.OutOrStdout(), purchases)
			}
			tw := newTable(cmd.OutOrStdout(), "ID", "DATE", "DESCRIPTION", "TOTAL", "INSTALLMENTS")
			for _, p := range purchases {
				row(tw, p.ID, p.PurchaseDate, p.Description, p.TotalAmount, p.Installments)
			}
			return tw.Flush()
		},
	}
}

func addPurchaseCmd() *cobra.Command {
	var description, amount, date, category, card string
	var installments int
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a purchase split into monthly installments",
		RunE: func(cmd *cobra.Command, _ []string) error {
			total, err := parseAmount(amount)
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
			p, err := c.Purchases.Create(cmd.Context(), core.Purchase{
				Description:  description,
				TotalAmount:  total,
				Installments: installments,
				CategoryID:   category,
				CreditCardID: card,
				PurchaseDate: d,
			})
			if err != nil {
				return apiError(err)
			}
			if jsonOutput() {
				return printJSON(cmd.OutOrStdout(), p)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created purchase %s: %s %s in %d installments\n", p.ID, p.Description, p.TotalAmount, p.Installments)
			tw := newTable(cmd.OutOrStdout(), "#", "DUE", "AMOUNT")
			for _, in := range p.InstallmentsList {
				row(tw, in.InstallmentNumber, in.DueDate, in.Amount)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "what was bought")
	cmd.Flags().StringVarP(&amount, "amount", "a", "", "total amount")
	cmd.Flags().IntVarP(&installments, "installments", "n", 1, "number of monthly installments")
	cmd.Flags().StringVar(&date, "date", "", "purchase date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVarP(&category, "category", "c", "", "expense category id")
	cmd.Flags().StringVar(&card, "card", "", "credit card id")
	_ = cmd.MarkFlagRequired("description")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}
