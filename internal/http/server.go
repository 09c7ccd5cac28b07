package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/middleware/ratelimit"
	"budget/internal/middleware/security"
	"budget/internal/middleware/trace"
	appweb "budget/web"
)

// BudgetService is what the handlers need from the domain layer.
type BudgetService interface {
	Summary(ctx context.Context) (core.Summary, error)
	AddExpense(ctx context.Context, description string, amount decimal.Decimal) (core.Expense, error)
	EditExpense(ctx context.Context, ref, description string, amount decimal.Decimal) (bool, error)
	DeleteExpense(ctx context.Context, ref string) (bool, error)
	SetBudget(ctx context.Context, amount decimal.Decimal) error
}

// ServerConfig holds the optional knobs of NewServer.
type ServerConfig struct {
	Logger            *log.Logger
	Locale            string
	RequestsPerMinute int
}

type Server struct {
	http.Server
	templates *template.Template
	svc       BudgetService
	logger    *log.Logger
	formatter core.AmountFormatter
	locale    string

	rateLimiter     *ratelimit.Limiter
	traceMiddleware *trace.Middleware
	started         time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes, middleware and templates, returning a
// ready-to-run http.Server.
func NewServer(addr string, svc BudgetService, cfg ServerConfig) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	locale := cfg.Locale
	if locale == "" {
		locale = "en"
	}

	s := &Server{
		svc:       svc,
		logger:    logger.WithComponent(log.ComponentHTTP),
		formatter: core.NewAmountFormatter(locale),
		locale:    locale,
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: cfg.RequestsPerMinute,
		}),
		started: time.Now(),
	}

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.WithComponent(log.ComponentTemplate).Warn("Failed parsing templates",
			log.FieldError, err,
			log.FieldOperation, log.OpStartup)
	}
	s.templates = t

	mux := http.NewServeMux()

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /add", s.handleAddExpense)
	mux.HandleFunc("POST /delete/{ref}", s.handleDeleteExpense)
	mux.HandleFunc("POST /edit/{ref}", s.handleEditExpense)
	mux.HandleFunc("POST /budget", s.handleSetBudget)
	mux.HandleFunc("GET /export.xlsx", s.handleExport)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	clientIP := security.NewClientIPExtractor()
	s.traceMiddleware = trace.NewMiddleware(logger.WithComponent(log.ComponentHTTP), clientIP.ClientIP)
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())

	var handler http.Handler = mux
	handler = s.rateLimiter.Middleware(clientIP.ClientIP, http.MethodPost)(handler)
	handler = headers.Middleware(handler)
	handler = s.traceMiddleware.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return s
}

// Shutdown gracefully shuts down the server and its cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
