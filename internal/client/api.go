package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"fintrack/internal/auth"
	"fintrack/internal/core"
)

// MaterializeResult reports how many occurrences a materialize run wrote.
type MaterializeResult struct {
	Year    int `json:"year"`
	Month   int `json:"month"`
	Created int `json:"created"`
}

// Register creates an account and keeps the issued token.
func (c *Client) Register(ctx context.Context, name, email, password string) (auth.Result, error) {
	return c.authenticate(ctx, "auth/register", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	})
}

// Login opens a session and keeps the issued token.
func (c *Client) Login(ctx context.Context, email, password string) (auth.Result, error) {
	return c.authenticate(ctx, "auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
}

func (c *Client) authenticate(ctx context.Context, path string, body map[string]string) (auth.Result, error) {
	var res auth.Result
	if err := c.send(ctx, http.MethodPost, path, body, &res); err != nil {
		return auth.Result{}, err
	}
	c.SetToken(res.AccessToken)
	return res, nil
}

// Logout ends the session. The local token is dropped even if the server
// call fails.
func (c *Client) Logout(ctx context.Context) error {
	defer c.SetToken("")
	return c.send(ctx, http.MethodPost, "auth/logout", nil, nil)
}

func (c *Client) Profile(ctx context.Context) (core.User, error) {
	var u core.User
	err := c.get(ctx, "auth", "auth/profile", nil, &u)
	return u, err
}

// Bills lists the bills of one card.
func (c *Client) Bills(ctx context.Context, cardID string) ([]core.CreditCardBill, error) {
	var out []core.CreditCardBill
	err := c.get(ctx, "credit-cards", "credit-cards/"+url.PathEscape(cardID)+"/bills", nil, &out)
	return out, err
}

func (c *Client) Bill(ctx context.Context, billID string) (core.CreditCardBill, error) {
	var out core.CreditCardBill
	err := c.get(ctx, "credit-cards", "credit-card-bills/"+url.PathEscape(billID), nil, &out)
	return out, err
}

// SetBillPaid flips the paid flag of a bill.
func (c *Client) SetBillPaid(ctx context.Context, billID string, paid bool) (core.CreditCardBill, error) {
	var out core.CreditCardBill
	err := c.send(ctx, http.MethodPatch, "credit-card-bills/"+url.PathEscape(billID),
		map[string]bool{"isPaid": paid}, &out, "credit-cards")
	return out, err
}

func (c *Client) Portfolio(ctx context.Context) (core.Portfolio, error) {
	var out core.Portfolio
	err := c.get(ctx, "investments", "investments/portfolio", nil, &out)
	return out, err
}

func (c *Client) MonthlyDashboard(ctx context.Context, year, month int) (core.DashboardMonthly, error) {
	var out core.DashboardMonthly
	err := c.get(ctx, dashboardPath, "dashboard/monthly", monthQuery(year, month), &out)
	return out, err
}

func (c *Client) YearlyDashboard(ctx context.Context, year int) (core.DashboardYearly, error) {
	var out core.DashboardYearly
	err := c.get(ctx, dashboardPath, "dashboard/yearly", url.Values{"year": {strconv.Itoa(year)}}, &out)
	return out, err
}

func (c *Client) CategoryDashboard(ctx context.Context, year, month int) (core.DashboardCategories, error) {
	var out core.DashboardCategories
	err := c.get(ctx, dashboardPath, "dashboard/categories", monthQuery(year, month), &out)
	return out, err
}

// Materialize writes the recurring occurrences of a month as concrete
// expenses and incomes.
func (c *Client) Materialize(ctx context.Context, year, month int) (MaterializeResult, error) {
	var out MaterializeResult
	path := "materialize?" + monthQuery(year, month).Encode()
	err := c.send(ctx, http.MethodPost, path, nil, &out, "expenses", "incomes", "credit-cards")
	return out, err
}

func monthQuery(year, month int) url.Values {
	return url.Values{
		"year":  {strconv.Itoa(year)},
		"month": {strconv.Itoa(month)},
	}
}
