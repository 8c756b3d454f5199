package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

// fakeAPI records hits per "METHOD path" and answers with the handler
// registered for it.
type fakeAPI struct {
	mu       sync.Mutex
	hits     map[string]int
	auth     []string
	handlers map[string]http.HandlerFunc
}

func newFakeAPI(t *testing.T) (*fakeAPI, *httptest.Server) {
	t.Helper()
	f := &fakeAPI{hits: map[string]int{}, handlers: map[string]http.HandlerFunc{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		f.mu.Lock()
		f.hits[key]++
		f.auth = append(f.auth, r.Header.Get("Authorization"))
		h, ok := f.handlers[key]
		f.mu.Unlock()
		if !ok {
			writeEnvelope(w, http.StatusNotFound, "not_found", "route not found", "")
			return
		}
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeAPI) on(key string, h http.HandlerFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[key] = h
}

func (f *fakeAPI) count(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[key]
}

func (f *fakeAPI) lastAuth() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.auth) == 0 {
		return ""
	}
	return f.auth[len(f.auth)-1]
}

func respond(status int, v any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeEnvelope(w http.ResponseWriter, status int, code, msg, field string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Request-ID", "req-1")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"code": code, "message": msg, "field": field},
	})
}

func fail(status int, code string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, status, code, "failed", "")
	}
}

func newTestClient(t *testing.T, srv *httptest.Server, opts Options) *Client {
	t.Helper()
	opts.BaseURL = srv.URL
	opts.RetryWaitMin = time.Millisecond
	opts.RetryWaitMax = 2 * time.Millisecond
	c, err := New(opts)
	require.NoError(t, err)
	return c
}

func TestNewRequiresBaseURL(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)

	_, err = New(Options{BaseURL: "not a url"})
	assert.Error(t, err)
}

func TestLoginStoresToken(t *testing.T) {
	f, srv := newFakeAPI(t)
	f.on("POST /auth/login", respond(http.StatusOK, map[string]any{
		"access_token": "tok-1",
		"user":         map[string]string{"id": "u1", "name": "Ada", "email": "ada@example.com"},
	}))
	f.on("GET /auth/profile", respond(http.StatusOK, map[string]string{"id": "u1", "name": "Ada"}))
	f.on("POST /auth/logout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	c := newTestClient(t, srv, Options{})
	res, err := c.Login(context.Background(), "ada@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", res.AccessToken)
	assert.Equal(t, "u1", res.User.ID)
	assert.Equal(t, "tok-1", c.Token())

	u, err := c.Profile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Ada", u.Name)
	assert.Equal(t, "Bearer tok-1", f.lastAuth())

	require.NoError(t, c.Logout(context.Background()))
	assert.Empty(t, c.Token())
}

func TestReadsAreCachedUntilMutation(t *testing.T) {
	f, srv := newFakeAPI(t)
	f.on("GET /expenses", respond(http.StatusOK, []map[string]any{{"id": "e1", "amount": 12.5}}))
	f.on("POST /expenses", respond(http.StatusCreated, map[string]any{"id": "e2", "amount": 3}))
	f.on("GET /credit-cards", respond(http.StatusOK, []map[string]any{}))
	f.on("GET /incomes", respond(http.StatusOK, []map[string]any{}))
	f.on("GET /dashboard/monthly", respond(http.StatusOK, map[string]any{"period": map[string]any{"year": 2024, "month": 3}}))

	ctx := context.Background()
	c := newTestClient(t, srv, Options{Token: "tok"})

	list, err := c.Expenses.List(ctx, ListOptions{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, int64(1250), list[0].Amount.Cents)

	_, err = c.Expenses.List(ctx, ListOptions{})
	require.NoError(t, err)
	_, err = c.CreditCards.List(ctx, ListOptions{})
	require.NoError(t, err)
	_, err = c.Incomes.List(ctx, ListOptions{})
	require.NoError(t, err)
	_, err = c.MonthlyDashboard(ctx, 2024, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, f.count("GET /expenses"))

	created, err := c.Expenses.Create(ctx, core.Expense{Description: "Coffee", Amount: core.Cents(300)})
	require.NoError(t, err)
	assert.Equal(t, "e2", created.ID)

	_, err = c.Expenses.List(ctx, ListOptions{})
	require.NoError(t, err)
	_, err = c.CreditCards.List(ctx, ListOptions{})
	require.NoError(t, err)
	_, err = c.Incomes.List(ctx, ListOptions{})
	require.NoError(t, err)
	_, err = c.MonthlyDashboard(ctx, 2024, 3)
	require.NoError(t, err)

	assert.Equal(t, 2, f.count("GET /expenses"), "expenses refetched")
	assert.Equal(t, 2, f.count("GET /credit-cards"), "bills depend on expenses")
	assert.Equal(t, 2, f.count("GET /dashboard/monthly"), "dashboards depend on everything")
	assert.Equal(t, 1, f.count("GET /incomes"), "unrelated family kept")
}

func TestReadInFlightDuringMutationIsNotCached(t *testing.T) {
	f, srv := newFakeAPI(t)
	ctx := context.Background()
	c := newTestClient(t, srv, Options{Token: "tok"})

	f.on("POST /expenses", respond(http.StatusCreated, map[string]any{"id": "e2", "amount": 3}))
	f.on("GET /expenses", func(w http.ResponseWriter, r *http.Request) {
		if f.count("GET /expenses") == 1 {
			// the write lands after the server read the old list
			_, err := c.Expenses.Create(ctx, core.Expense{Description: "Coffee", Amount: core.Cents(300)})
			assert.NoError(t, err)
			respond(http.StatusOK, []map[string]any{{"id": "e1", "amount": 12.5}})(w, r)
			return
		}
		respond(http.StatusOK, []map[string]any{{"id": "e1", "amount": 12.5}, {"id": "e2", "amount": 3}})(w, r)
	})

	stale, err := c.Expenses.List(ctx, ListOptions{})
	require.NoError(t, err)
	assert.Len(t, stale, 1)

	fresh, err := c.Expenses.List(ctx, ListOptions{})
	require.NoError(t, err)
	assert.Len(t, fresh, 2, "response read before the mutation must not be cached")
	assert.Equal(t, 2, f.count("GET /expenses"))

	_, err = c.Expenses.List(ctx, ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, f.count("GET /expenses"), "later reads are cached again")
}

func TestMonthFilterIsPartOfCacheKey(t *testing.T) {
	f, srv := newFakeAPI(t)
	var queries []string
	f.on("GET /incomes", func(w http.ResponseWriter, r *http.Request) {
		queries = append(queries, r.URL.RawQuery)
		respond(http.StatusOK, []any{})(w, r)
	})

	ctx := context.Background()
	c := newTestClient(t, srv, Options{})
	_, err := c.Incomes.List(ctx, ListOptions{Year: 2024, Month: 3})
	require.NoError(t, err)
	_, err = c.Incomes.List(ctx, ListOptions{Year: 2024, Month: 4})
	require.NoError(t, err)
	_, err = c.Incomes.List(ctx, ListOptions{Year: 2024, Month: 3})
	require.NoError(t, err)

	assert.Equal(t, []string{"month=3&year=2024", "month=4&year=2024"}, queries)
}

func TestNegativeCacheTTLDisablesCache(t *testing.T) {
	f, srv := newFakeAPI(t)
	f.on("GET /investments/portfolio", respond(http.StatusOK, map[string]any{"totalInitial": 100, "totalCurrent": 110}))

	c := newTestClient(t, srv, Options{CacheTTL: -1})
	for i := 0; i < 3; i++ {
		p, err := c.Portfolio(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(11000), p.TotalCurrent.Cents)
	}
	assert.Equal(t, 3, f.count("GET /investments/portfolio"))
}

func TestUnauthorizedClearsTokenAndCache(t *testing.T) {
	f, srv := newFakeAPI(t)
	f.on("GET /incomes", respond(http.StatusOK, []any{}))
	f.on("GET /auth/profile", fail(http.StatusUnauthorized, "unauthenticated"))

	ctx := context.Background()
	c := newTestClient(t, srv, Options{Token: "stale"})
	_, err := c.Incomes.List(ctx, ListOptions{})
	require.NoError(t, err)

	_, err = c.Profile(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnauthenticated))
	assert.Empty(t, c.Token())

	_, err = c.Incomes.List(ctx, ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, f.count("GET /incomes"))
	assert.Empty(t, f.lastAuth())
}

func TestRetryPolicy(t *testing.T) {
	tests := []struct {
		name  string
		route string
		h     http.HandlerFunc
		call  func(c *Client) error
		hits  int
		is    error
	}{
		{
			name:  "GET retried once on 5xx",
			route: "GET /fixed-incomes",
			h:     fail(http.StatusServiceUnavailable, "internal_error"),
			call: func(c *Client) error {
				_, err := c.FixedIncomes.List(context.Background(), ListOptions{})
				return err
			},
			hits: 2,
			is:   ErrServer,
		},
		{
			name:  "POST not retried on 5xx",
			route: "POST /fixed-incomes",
			h:     fail(http.StatusInternalServerError, "internal_error"),
			call: func(c *Client) error {
				_, err := c.FixedIncomes.Create(context.Background(), core.FixedIncome{Name: "Salary"})
				return err
			},
			hits: 1,
			is:   ErrServer,
		},
		{
			name:  "429 not retried",
			route: "GET /fixed-expenses",
			h:     fail(http.StatusTooManyRequests, "rate_limited"),
			call: func(c *Client) error {
				_, err := c.FixedExpenses.List(context.Background(), ListOptions{})
				return err
			},
			hits: 1,
			is:   ErrRateLimited,
		},
		{
			name:  "4xx not retried",
			route: "GET /purchases/p1",
			h:     fail(http.StatusNotFound, "not_found"),
			call: func(c *Client) error {
				_, err := c.Purchases.Get(context.Background(), "p1")
				return err
			},
			hits: 1,
			is:   core.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, srv := newFakeAPI(t)
			f.on(tt.route, tt.h)
			c := newTestClient(t, srv, Options{})

			err := tt.call(c)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.is), "got %v", err)
			assert.Equal(t, tt.hits, f.count(tt.route))
		})
	}
}

func TestAPIErrorClasses(t *testing.T) {
	tests := []struct {
		name   string
		status int
		code   string
		is     error
		isNot  error
	}{
		{"validation", http.StatusUnprocessableEntity, "validation_error", core.ErrValidation, core.ErrDerivation},
		{"derivation", http.StatusUnprocessableEntity, "derivation_error", core.ErrDerivation, core.ErrValidation},
		{"not found", http.StatusNotFound, "not_found", core.ErrNotFound, core.ErrConflict},
		{"conflict", http.StatusConflict, "conflict", core.ErrConflict, core.ErrNotFound},
		{"server", http.StatusInternalServerError, "internal_error", ErrServer, core.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, srv := newFakeAPI(t)
			f.on("POST /credit-cards", func(w http.ResponseWriter, r *http.Request) {
				writeEnvelope(w, tt.status, tt.code, "bad card", "closingDay")
			})
			c := newTestClient(t, srv, Options{})

			_, err := c.CreditCards.Create(context.Background(), core.CreditCard{Name: "Visa"})
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.is))
			assert.False(t, errors.Is(err, tt.isNot))

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, "closingDay", apiErr.Field)
			assert.Equal(t, "req-1", apiErr.RequestID)
			assert.Contains(t, apiErr.Error(), "req-1")
		})
	}
}

func TestBillsAndMaterialize(t *testing.T) {
	f, srv := newFakeAPI(t)
	f.on("GET /credit-cards/c1/bills", respond(http.StatusOK, []map[string]any{
		{"id": "b1", "creditCardId": "c1", "month": 4, "year": 2024, "totalAmount": 42.5, "dueDate": "2024-05-10"},
	}))
	f.on("PATCH /credit-card-bills/b1", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]bool
		_ = json.NewDecoder(r.Body).Decode(&body)
		respond(http.StatusOK, map[string]any{"id": "b1", "isPaid": body["isPaid"]})(w, r)
	})
	var materializeQuery string
	f.on("POST /materialize", func(w http.ResponseWriter, r *http.Request) {
		materializeQuery = r.URL.RawQuery
		respond(http.StatusOK, map[string]int{"year": 2024, "month": 2, "created": 2})(w, r)
	})

	ctx := context.Background()
	c := newTestClient(t, srv, Options{})

	bills, err := c.Bills(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, bills, 1)
	assert.Equal(t, int64(4250), bills[0].TotalAmount.Cents)
	assert.Equal(t, "2024-05-10", bills[0].DueDate.String())

	bill, err := c.SetBillPaid(ctx, "b1", true)
	require.NoError(t, err)
	assert.True(t, bill.IsPaid)

	_, err = c.Bills(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 2, f.count("GET /credit-cards/c1/bills"), "paying a bill drops cached bills")

	res, err := c.Materialize(ctx, 2024, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)
	assert.Equal(t, "month=2&year=2024", materializeQuery)
}

func TestCanceledContextStopsRetries(t *testing.T) {
	f, srv := newFakeAPI(t)
	f.on("GET /investments", fail(http.StatusBadGateway, "internal_error"))
	c := newTestClient(t, srv, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Investments.List(ctx, ListOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Zero(t, f.count("GET /investments"))
}
