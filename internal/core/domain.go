package core

import (
	"net/mail"
	"regexp"
	"strings"
	"time"
)

const (
	KindExpense CategoryKind = "expense"
	KindIncome  CategoryKind = "income"
)

const maxTextLength = 200

type (
	CategoryKind string

	// Meta is shared by every persisted entity.
	Meta struct {
		ID        string    `json:"id"`
		UserID    string    `json:"userId,omitempty"`
		CreatedAt time.Time `json:"createdAt"`
		UpdatedAt time.Time `json:"updatedAt"`
	}

	User struct {
		ID           string    `json:"id"`
		Name         string    `json:"name"`
		Email        string    `json:"email"`
		PasswordHash string    `json:"-"`
		CreatedAt    time.Time `json:"createdAt"`
		UpdatedAt    time.Time `json:"updatedAt"`
	}

	Session struct {
		Token     string
		UserID    string
		ExpiresAt time.Time
		CreatedAt time.Time
	}

	Category struct {
		Meta
		Name  string       `json:"name"`
		Color string       `json:"color"`
		Kind  CategoryKind `json:"kind"`
	}

	CreditCard struct {
		Meta
		Name       string           `json:"name"`
		ClosingDay int              `json:"closingDay"`
		DueDay     int              `json:"dueDay"`
		Limit      Money            `json:"limit"`
		Bills      []CreditCardBill `json:"bills,omitempty"`
	}

	// CreditCardBill is keyed by the month of its closing date.
	// TotalAmount and DueDate are derived on read.
	CreditCardBill struct {
		Meta
		CreditCardID string    `json:"creditCardId"`
		Month        int       `json:"month"`
		Year         int       `json:"year"`
		TotalAmount  Money     `json:"totalAmount"`
		DueDate      Date      `json:"dueDate"`
		IsPaid       bool      `json:"isPaid"`
		Expenses     []Expense `json:"expenses,omitempty"`
	}

	FixedExpense struct {
		Meta
		Name         string `json:"name"`
		Amount       Money  `json:"amount"`
		DueDay       int    `json:"dueDay"`
		CategoryID   string `json:"categoryId"`
		CreditCardID string `json:"creditCardId,omitempty"`
		IsActive     bool   `json:"isActive"`
		StartDate    Date   `json:"startDate"`
		EndDate      Date   `json:"endDate"`
	}

	FixedIncome struct {
		Meta
		Name       string `json:"name"`
		Amount     Money  `json:"amount"`
		DayOfMonth int    `json:"dayOfMonth"`
		CategoryID string `json:"categoryId"`
		IsActive   bool   `json:"isActive"`
		StartDate  Date   `json:"startDate"`
		EndDate    Date   `json:"endDate"`
	}

	Expense struct {
		Meta
		Description       string `json:"description"`
		Amount            Money  `json:"amount"`
		Date              Date   `json:"date"`
		CategoryID        string `json:"categoryId"`
		CreditCardID      string `json:"creditCardId,omitempty"`
		CreditCardBillID  string `json:"creditCardBillId,omitempty"`
		FixedExpenseID    string `json:"fixedExpenseId,omitempty"`
		PurchaseID        string `json:"purchaseId,omitempty"`
		InstallmentNumber int    `json:"installmentNumber,omitempty"`

		// OccurrenceYear and OccurrenceMonth record the rule occurrence a
		// materialized expense stands for. They do not follow later date edits.
		OccurrenceYear  int `json:"-"`
		OccurrenceMonth int `json:"-"`
	}

	Income struct {
		Meta
		Description   string `json:"description"`
		Amount        Money  `json:"amount"`
		Date          Date   `json:"date"`
		CategoryID    string `json:"categoryId"`
		FixedIncomeID string `json:"fixedIncomeId,omitempty"`

		// Set only on materialized incomes, like Expense.OccurrenceYear.
		OccurrenceYear  int `json:"-"`
		OccurrenceMonth int `json:"-"`
	}

	Purchase struct {
		Meta
		Description      string        `json:"description"`
		TotalAmount      Money         `json:"totalAmount"`
		Installments     int           `json:"installments"`
		CategoryID       string        `json:"categoryId"`
		CreditCardID     string        `json:"creditCardId,omitempty"`
		PurchaseDate     Date          `json:"purchaseDate"`
		InstallmentsList []Installment `json:"installmentsList,omitempty"`
	}

	Installment struct {
		Meta
		PurchaseID        string `json:"purchaseId"`
		InstallmentNumber int    `json:"installmentNumber"`
		Amount            Money  `json:"amount"`
		DueDate           Date   `json:"dueDate"`
		IsPaid            bool   `json:"isPaid"`
	}
)

var colorPattern = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

func validateText(field, s string, empty error) error {
	if strings.TrimSpace(s) == "" {
		return Invalid(field, empty)
	}
	if len(s) > maxTextLength {
		return Invalid(field, ErrDescriptionLength)
	}
	return nil
}

func validateWindow(start, end Date) error {
	if err := start.Validate(); err != nil {
		return Invalid("startDate", err)
	}
	if !end.IsZero() && end.Before(start) {
		return Invalid("endDate", ErrInvalidDateRange)
	}
	return nil
}

func (k CategoryKind) Validate() error {
	switch k {
	case KindExpense, KindIncome:
		return nil
	default:
		return ErrInvalidKind
	}
}

func (u User) Validate() error {
	if err := validateText("name", u.Name, ErrEmptyName); err != nil {
		return err
	}
	if _, err := mail.ParseAddress(u.Email); err != nil || strings.ContainsAny(u.Email, "<> ") {
		return Invalid("email", ErrInvalidEmail)
	}
	return nil
}

func (c Category) Validate() error {
	if err := validateText("name", c.Name, ErrEmptyName); err != nil {
		return err
	}
	if !colorPattern.MatchString(c.Color) {
		return Invalid("color", ErrInvalidColor)
	}
	if err := c.Kind.Validate(); err != nil {
		return Invalid("kind", err)
	}
	return nil
}

func (c CreditCard) Validate() error {
	if err := validateText("name", c.Name, ErrEmptyName); err != nil {
		return err
	}
	if err := ValidateDayOfMonth(c.ClosingDay); err != nil {
		return Invalid("closingDay", err)
	}
	if err := ValidateDayOfMonth(c.DueDay); err != nil {
		return Invalid("dueDay", err)
	}
	if err := c.Limit.ValidateNonNegative(); err != nil {
		return Invalid("limit", err)
	}
	return nil
}

func (f FixedExpense) Validate() error {
	if err := validateText("name", f.Name, ErrEmptyName); err != nil {
		return err
	}
	if err := f.Amount.Validate(); err != nil {
		return Invalid("amount", err)
	}
	if err := ValidateDayOfMonth(f.DueDay); err != nil {
		return Invalid("dueDay", err)
	}
	if strings.TrimSpace(f.CategoryID) == "" {
		return Invalid("categoryId", ErrMissingCategory)
	}
	return validateWindow(f.StartDate, f.EndDate)
}

func (f FixedIncome) Validate() error {
	if err := validateText("name", f.Name, ErrEmptyName); err != nil {
		return err
	}
	if err := f.Amount.Validate(); err != nil {
		return Invalid("amount", err)
	}
	if err := ValidateDayOfMonth(f.DayOfMonth); err != nil {
		return Invalid("dayOfMonth", err)
	}
	if strings.TrimSpace(f.CategoryID) == "" {
		return Invalid("categoryId", ErrMissingCategory)
	}
	return validateWindow(f.StartDate, f.EndDate)
}

func (e Expense) Validate() error {
	if err := validateText("description", e.Description, ErrEmptyDescription); err != nil {
		return err
	}
	if err := e.Amount.Validate(); err != nil {
		return Invalid("amount", err)
	}
	if err := e.Date.Validate(); err != nil {
		return Invalid("date", err)
	}
	if strings.TrimSpace(e.CategoryID) == "" {
		return Invalid("categoryId", ErrMissingCategory)
	}
	return nil
}

func (i Income) Validate() error {
	if err := validateText("description", i.Description, ErrEmptyDescription); err != nil {
		return err
	}
	if err := i.Amount.Validate(); err != nil {
		return Invalid("amount", err)
	}
	if err := i.Date.Validate(); err != nil {
		return Invalid("date", err)
	}
	if strings.TrimSpace(i.CategoryID) == "" {
		return Invalid("categoryId", ErrMissingCategory)
	}
	return nil
}

func (p Purchase) Validate() error {
	if err := validateText("description", p.Description, ErrEmptyDescription); err != nil {
		return err
	}
	if err := p.TotalAmount.Validate(); err != nil {
		return Invalid("totalAmount", err)
	}
	if p.Installments < 1 {
		return Invalid("installments", ErrInvalidInstallments)
	}
	if err := p.PurchaseDate.Validate(); err != nil {
		return Invalid("purchaseDate", err)
	}
	if strings.TrimSpace(p.CategoryID) == "" {
		return Invalid("categoryId", ErrMissingCategory)
	}
	return nil
}

// Rule returns the recurrence rule of the fixed expense.
func (f FixedExpense) Rule() Rule {
	return Rule{
		ID:         f.ID,
		Amount:     f.Amount,
		DayOfMonth: f.DueDay,
		StartDate:  f.StartDate,
		EndDate:    f.EndDate,
		IsActive:   f.IsActive,
	}
}

// Rule returns the recurrence rule of the fixed income.
func (f FixedIncome) Rule() Rule {
	return Rule{
		ID:         f.ID,
		Amount:     f.Amount,
		DayOfMonth: f.DayOfMonth,
		StartDate:  f.StartDate,
		EndDate:    f.EndDate,
		IsActive:   f.IsActive,
	}
}
