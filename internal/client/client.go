// Package client talks to the fintrack API. It keeps the bearer token,
// retries what is safe to retry and caches reads for a few minutes.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"

	"fintrack/internal/cache"
	"fintrack/internal/core"
)

const (
	// DefaultTimeout is the default HTTP client timeout
	DefaultTimeout = 30 * time.Second

	// DefaultCacheTTL is how long GET responses are reused.
	DefaultCacheTTL = 5 * time.Minute

	// UserAgent is the user agent string
	UserAgent = "finctl/1.0"

	cacheSize     = 500
	maxRetries    = 1
	contentType   = "application/json"
	dashboardPath = "dashboard"
)

// Options configures the client
type Options struct {
	// BaseURL of the API, e.g. http://localhost:8081
	BaseURL string

	// Token is the bearer token of an existing session
	Token string

	// HTTPClient allows using a custom HTTP client
	HTTPClient *http.Client

	// Timeout sets the HTTP client timeout
	Timeout time.Duration

	// CacheTTL overrides DefaultCacheTTL; negative disables the read cache.
	CacheTTL time.Duration

	// RetryWaitMin and RetryWaitMax bound the backoff between attempts.
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration

	// Logger receives retry diagnostics; nil keeps the client quiet.
	Logger *slog.Logger
}

// Client is the fintrack API client. It is safe for concurrent use.
type Client struct {
	Expenses          *Resource[core.Expense]
	Incomes           *Resource[core.Income]
	FixedExpenses     *Resource[core.FixedExpense]
	FixedIncomes      *Resource[core.FixedIncome]
	Purchases         *Resource[core.Purchase]
	Investments       *Resource[core.Investment]
	CreditCards       *Resource[core.CreditCard]
	ExpenseCategories *Resource[core.Category]
	IncomeCategories  *Resource[core.Category]

	baseURL string
	http    *retryablehttp.Client
	cache   *cache.LRUCache[[]byte]

	// cacheMu orders cache writes against invalidations. A read stores its
	// body only if its family's generation did not move while in flight.
	cacheMu sync.Mutex
	gens    map[string]uint64
	epoch   uint64

	mu    sync.RWMutex
	token string
}

type idempotentKey struct{}

// New creates a client. A missing BaseURL is an error.
func New(opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, errors.New("client: missing base URL")
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, errors.Wrap(err, "client: invalid base URL")
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	if opts.Timeout > 0 {
		httpClient.Timeout = opts.Timeout
	}

	rc := retryablehttp.NewClient()
	rc.HTTPClient = httpClient
	rc.RetryMax = maxRetries
	rc.CheckRetry = checkRetry
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	if opts.RetryWaitMin > 0 {
		rc.RetryWaitMin = opts.RetryWaitMin
	}
	if opts.RetryWaitMax > 0 {
		rc.RetryWaitMax = opts.RetryWaitMax
	}
	rc.Logger = nil
	if opts.Logger != nil {
		rc.Logger = opts.Logger
	}

	c := &Client{baseURL: base, http: rc, token: opts.Token, gens: make(map[string]uint64)}

	ttl := opts.CacheTTL
	if ttl == 0 {
		ttl = DefaultCacheTTL
	}
	if ttl > 0 {
		c.cache = cache.NewLRUCache[[]byte](cacheSize, ttl)
	}

	c.Expenses = newResource[core.Expense](c, "expenses", "credit-cards")
	c.Incomes = newResource[core.Income](c, "incomes")
	c.FixedExpenses = newResource[core.FixedExpense](c, "fixed-expenses")
	c.FixedIncomes = newResource[core.FixedIncome](c, "fixed-incomes")
	c.Purchases = newResource[core.Purchase](c, "purchases", "expenses", "credit-cards")
	c.Investments = newResource[core.Investment](c, "investments")
	c.CreditCards = newResource[core.CreditCard](c, "credit-cards", "expenses")
	c.ExpenseCategories = newResource[core.Category](c, "categories/expenses")
	c.IncomeCategories = newResource[core.Category](c, "categories/incomes")
	return c, nil
}

// checkRetry retries idempotent requests once on transport errors and 5xx.
// Other requests are retried only when the connection was refused, so the
// server never saw them.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	idempotent, _ := ctx.Value(idempotentKey{}).(bool)
	if err != nil {
		if errors.Is(err, syscall.ECONNREFUSED) {
			return true, nil
		}
		return idempotent, nil
	}
	if idempotent && resp.StatusCode >= http.StatusInternalServerError && resp.StatusCode != http.StatusNotImplemented {
		return true, nil
	}
	return false, nil
}

// Token returns the current bearer token, empty when logged out.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SetToken replaces the bearer token and drops every cached read.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
	c.clearCache()
}

func (c *Client) clearCache() {
	if c.cache == nil {
		return
	}
	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()
	c.epoch++
	c.cache.Clear()
}

// invalidate drops the cached reads of each family and of the dashboards.
func (c *Client) invalidate(families ...string) {
	if c.cache == nil {
		return
	}
	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()
	for _, f := range append(families, dashboardPath) {
		c.gens[f]++
		c.cache.DeletePrefix(f + "|")
	}
}

// generation changes whenever family is invalidated or the cache cleared.
// c.cacheMu must be held.
func (c *Client) generation(family string) uint64 {
	return c.epoch + c.gens[family]
}

func (c *Client) load(family, key string) ([]byte, uint64, bool) {
	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()
	body, ok := c.cache.Get(key)
	return body, c.generation(family), ok
}

func (c *Client) store(family, key string, gen uint64, body []byte) {
	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()
	if c.generation(family) == gen {
		c.cache.Set(key, body)
	}
}

// get fetches path into out, serving from the cache when possible.
func (c *Client) get(ctx context.Context, family, path string, query url.Values, out any) error {
	target := path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	key := family + "|" + target

	if c.cache == nil {
		body, err := c.do(ctx, http.MethodGet, target, nil)
		if err != nil {
			return err
		}
		return decode(body, out)
	}

	body, gen, ok := c.load(family, key)
	if ok {
		return decode(body, out)
	}
	body, err := c.do(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	c.store(family, key, gen, body)
	return decode(body, out)
}

// send performs a mutation and invalidates the given families on success.
func (c *Client) send(ctx context.Context, method, path string, in, out any, families ...string) error {
	body, err := c.do(ctx, method, path, in)
	if err != nil {
		return err
	}
	c.invalidate(families...)
	if out == nil || len(body) == 0 {
		return nil
	}
	return decode(body, out)
}

func (c *Client) do(ctx context.Context, method, path string, in any) ([]byte, error) {
	var payload []byte
	if in != nil {
		var err error
		if payload, err = json.Marshal(in); err != nil {
			return nil, errors.Wrap(err, "failed to marshal request")
		}
	}

	ctx = context.WithValue(ctx, idempotentKey{}, method == http.MethodGet)
	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.baseURL+"/"+strings.TrimLeft(path, "/"), bodyOf(payload))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Accept", contentType)
	req.Header.Set("User-Agent", UserAgent)
	if payload != nil {
		req.Header.Set("Content-Type", contentType)
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response")
	}

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := parseAPIError(resp, body)
		if resp.StatusCode == http.StatusUnauthorized {
			c.SetToken("")
		}
		return nil, errors.WithStack(apiErr)
	}
	return body, nil
}

func bodyOf(payload []byte) any {
	if payload == nil {
		return nil
	}
	return bytes.NewReader(payload)
}

func decode(body []byte, out any) error {
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrap(err, "failed to parse response")
	}
	return nil
}
