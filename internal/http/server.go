package http

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/services"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services are the application services the API exposes.
type Services struct {
	Finance    *services.FinanceService
	Dashboards *services.DashboardService
	Recurring  *services.RecurringProcessor
	Auth       *auth.Service
	Store      Pinger
}

// Options configure the HTTP server.
type Options struct {
	Addr               string
	RateLimitPerMinute int
	TrustedProxies     []string
	Logger             *log.Logger
}

// Server is the JSON API.
type Server struct {
	http.Server
	svc     Services
	logger  *log.Logger
	limiter *ratelimit.Limiter
	started time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(opts Options, svc Services) (*Server, error) {
	if svc.Finance == nil || svc.Dashboards == nil || svc.Auth == nil {
		return nil, errors.New("http: finance, dashboard and auth services are required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.Config{Component: log.ComponentHTTP})
	}
	resolver, err := security.NewClientIPResolver(opts.TrustedProxies...)
	if err != nil {
		return nil, err
	}

	s := &Server{
		svc:     svc,
		logger:  logger,
		limiter: ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		started: time.Now(),
	}

	mux := http.NewServeMux()
	s.routes(mux)

	var handler http.Handler = mux
	handler = s.limiter.Middleware(resolver.ClientIP, writeRateLimited)(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = recoverer(handler)
	handler = trace.NewMiddleware(logger, resolver.ClientIP).Middleware(handler)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /auth/register", s.public(s.handleRegister))
	mux.HandleFunc("POST /auth/login", s.public(s.handleLogin))
	mux.HandleFunc("POST /auth/logout", s.authed(s.handleLogout))
	mux.HandleFunc("GET /auth/profile", s.authed(s.handleProfile))

	mux.HandleFunc("GET /credit-cards", s.authed(s.handleListCreditCards))
	mux.HandleFunc("POST /credit-cards", s.authed(s.handleCreateCreditCard))
	mux.HandleFunc("GET /credit-cards/{id}", s.authed(s.handleGetCreditCard))
	mux.HandleFunc("PATCH /credit-cards/{id}", s.authed(s.handleUpdateCreditCard))
	mux.HandleFunc("DELETE /credit-cards/{id}", s.authed(s.handleDeleteCreditCard))
	mux.HandleFunc("GET /credit-cards/{id}/bills", s.authed(s.handleListBills))
	mux.HandleFunc("GET /credit-card-bills/{id}", s.authed(s.handleGetBill))
	mux.HandleFunc("PATCH /credit-card-bills/{id}", s.authed(s.handleUpdateBill))

	mux.HandleFunc("GET /fixed-expenses", s.authed(s.handleListFixedExpenses))
	mux.HandleFunc("POST /fixed-expenses", s.authed(s.handleCreateFixedExpense))
	mux.HandleFunc("GET /fixed-expenses/{id}", s.authed(s.handleGetFixedExpense))
	mux.HandleFunc("PATCH /fixed-expenses/{id}", s.authed(s.handleUpdateFixedExpense))
	mux.HandleFunc("DELETE /fixed-expenses/{id}", s.authed(s.handleDeleteFixedExpense))

	mux.HandleFunc("GET /fixed-incomes", s.authed(s.handleListFixedIncomes))
	mux.HandleFunc("POST /fixed-incomes", s.authed(s.handleCreateFixedIncome))
	mux.HandleFunc("GET /fixed-incomes/{id}", s.authed(s.handleGetFixedIncome))
	mux.HandleFunc("PATCH /fixed-incomes/{id}", s.authed(s.handleUpdateFixedIncome))
	mux.HandleFunc("DELETE /fixed-incomes/{id}", s.authed(s.handleDeleteFixedIncome))

	mux.HandleFunc("GET /purchases", s.authed(s.handleListPurchases))
	mux.HandleFunc("POST /purchases", s.authed(s.handleCreatePurchase))
	mux.HandleFunc("GET /purchases/{id}", s.authed(s.handleGetPurchase))
	mux.HandleFunc("PATCH /purchases/{id}", s.authed(s.handleUpdatePurchase))
	mux.HandleFunc("DELETE /purchases/{id}", s.authed(s.handleDeletePurchase))

	mux.HandleFunc("GET /expenses", s.authed(s.handleListExpenses))
	mux.HandleFunc("POST /expenses", s.authed(s.handleCreateExpense))
	mux.HandleFunc("GET /expenses/{id}", s.authed(s.handleGetExpense))
	mux.HandleFunc("PATCH /expenses/{id}", s.authed(s.handleUpdateExpense))
	mux.HandleFunc("DELETE /expenses/{id}", s.authed(s.handleDeleteExpense))

	mux.HandleFunc("GET /incomes", s.authed(s.handleListIncomes))
	mux.HandleFunc("POST /incomes", s.authed(s.handleCreateIncome))
	mux.HandleFunc("GET /incomes/{id}", s.authed(s.handleGetIncome))
	mux.HandleFunc("PATCH /incomes/{id}", s.authed(s.handleUpdateIncome))
	mux.HandleFunc("DELETE /incomes/{id}", s.authed(s.handleDeleteIncome))

	mux.HandleFunc("GET /investments", s.authed(s.handleListInvestments))
	mux.HandleFunc("POST /investments", s.authed(s.handleCreateInvestment))
	mux.HandleFunc("GET /investments/portfolio", s.authed(s.handlePortfolio))
	mux.HandleFunc("GET /investments/{id}", s.authed(s.handleGetInvestment))
	mux.HandleFunc("PATCH /investments/{id}", s.authed(s.handleUpdateInvestment))
	mux.HandleFunc("DELETE /investments/{id}", s.authed(s.handleDeleteInvestment))

	mux.HandleFunc("GET /categories/{kind}", s.authed(s.handleListCategories))
	mux.HandleFunc("POST /categories/{kind}", s.authed(s.handleCreateCategory))
	mux.HandleFunc("PATCH /categories/{kind}/{id}", s.authed(s.handleUpdateCategory))
	mux.HandleFunc("DELETE /categories/{kind}/{id}", s.authed(s.handleDeleteCategory))

	mux.HandleFunc("GET /dashboard/monthly", s.authed(s.handleDashboardMonthly))
	mux.HandleFunc("GET /dashboard/yearly", s.authed(s.handleDashboardYearly))
	mux.HandleFunc("GET /dashboard/categories", s.authed(s.handleDashboardCategories))

	mux.HandleFunc("POST /materialize", s.authed(s.handleMaterialize))

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, errNotFoundRoute)
	})
}

// Shutdown gracefully shuts down the server and its limiter.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
