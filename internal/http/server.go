package http

import (
	"context"
	"errors"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"expensetracker/internal/charts"
	"expensetracker/internal/log"
	"expensetracker/internal/middleware/ratelimit"
	"expensetracker/internal/middleware/security"
	"expensetracker/internal/middleware/trace"
	"expensetracker/internal/session"
	"expensetracker/internal/storage"
	appweb "expensetracker/web"
)

var errBodyTooLarge = errors.New("request body too large")

// FailureLog is the read side of the failure journal.
type FailureLog interface {
	RecentFailures(ctx context.Context, limit int) ([]storage.Failure, error)
	CountSince(ctx context.Context, t time.Time) (int, error)
	Ping(ctx context.Context) error
}

// EventsHealth reports whether change events can be published.
type EventsHealth interface {
	Healthy() bool
}

// Deps are the collaborators of the HTTP server. Journal and Events are
// optional.
type Deps struct {
	Logger     *log.Logger
	Sessions   *session.Store
	Journal    FailureLog
	Events     EventsHealth
	BackendURL string
	Charts     *charts.Generator
	RateLimit  int
	Now        func() time.Time
}

type Server struct {
	http.Server
	templates  *template.Template
	logger     *log.Logger
	sessions   *session.Store
	journal    FailureLog
	events     EventsHealth
	backendURL string
	charts     *charts.Generator
	now        func() time.Time
	started    time.Time

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run
// server. A template parse failure is logged and reported by /readyz.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.Discard()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Charts == nil {
		deps.Charts = charts.NewGenerator()
	}

	s := &Server{
		logger:     logger.WithComponent(log.ComponentHTTP),
		sessions:   deps.Sessions,
		journal:    deps.Journal,
		events:     deps.Events,
		backendURL: deps.BackendURL,
		charts:     deps.Charts,
		now:        deps.Now,
		started:    time.Now(),
		limiter:    ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: deps.RateLimit}),
		detector:   security.NewDetector(logger),
	}
	s.tracer = trace.NewMiddleware(logger, s.detector.ExtractClientIP)

	t, err := parseTemplates(appweb.TemplatesFS)
	if err != nil {
		s.logger.Error("Failed parsing templates", log.FieldError, err)
	}
	s.templates = t

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Page loads wait for the backend, whose own timeout is 30s.
		WriteTimeout: 75 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	app := http.NewServeMux()
	app.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
	})
	app.Handle("GET /dashboard", s.withSession(s.handleDashboard))

	app.Handle("GET /subscriptions", s.withSession(s.handleSubscriptions))
	app.Handle("GET /subscriptions/list", s.withSession(s.handleSubscriptionList))
	app.Handle("GET /subscriptions/new", s.withSession(s.handleSubscriptionNew))
	app.Handle("GET /subscriptions/{id}/edit", s.withSession(s.handleSubscriptionEdit))
	app.Handle("POST /subscriptions/{id}/toggle", s.withSession(s.handleSubscriptionToggle))
	app.Handle("POST /subscriptions/{id}/delete", s.withSession(s.handleSubscriptionDelete))
	app.Handle("POST /subscriptions/form", s.withSession(s.handleSubscriptionSubmit))
	app.Handle("POST /subscriptions/form/cancel", s.withSession(s.handleSubscriptionCancel))

	app.Handle("GET /invoices", s.withSession(s.handleInvoices))
	app.Handle("GET /invoices/list", s.withSession(s.handleInvoiceList))
	app.Handle("POST /invoices/{id}/status", s.withSession(s.handleInvoiceStatus))
	app.Handle("POST /invoices/{id}/attachment", s.withSession(s.handleInvoiceAttachment))
	app.Handle("POST /invoices/{id}/delete", s.withSession(s.handleInvoiceDelete))

	app.Handle("GET /reports", s.withSession(s.handleReports))
	app.Handle("GET /reports/period", s.withSession(s.handleReportsPeriod))
	app.Handle("GET /reports/chart.png", s.withSession(s.handleReportsChart))

	app.HandleFunc("GET /status", s.handleStatus)
	app.HandleFunc("/", s.handleNotFound)

	limited := s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		TooManyRequestsError("Too many requests. Please try again later.").Write(w)
	})
	mux.Handle("/", security.NoStore(limited(app)))

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	return s.tracer.Middleware(s.detector.Middleware(headers.Middleware(mux)))
}

type sessionHandler func(http.ResponseWriter, *http.Request, *session.Session)

// withSession resolves the browser's session before calling h.
func (s *Server) withSession(h sessionHandler) http.Handler {
	return s.sessions.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := session.FromContext(r.Context())
		if !ok {
			InternalServerError("Session unavailable").Write(w)
			return
		}
		h(w, r, sess)
	}))
}

// Shutdown gracefully shuts down the server, its background routines and
// every open session.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
		s.sessions.Close()
	})
	return err
}
