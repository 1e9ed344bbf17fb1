// Package session keeps one set of page views per browser. Sessions are
// identified by a random cookie and live in an LRU cache; a session that
// expires or is pushed out has its views closed so in-flight loads are
// discarded.
package session

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"expensetracker/internal/cache"
	"expensetracker/internal/log"
	"expensetracker/internal/views"
)

const (
	CookieName = "et_session"

	DefaultTTL     = 30 * time.Minute
	DefaultMaxSize = 500
)

// Backend is everything the views need from the data-access layer.
// *api.Service satisfies it.
type Backend interface {
	views.SubscriptionStore
	views.InvoiceStore
	views.SummaryStore
}

// Session is the per-browser view state.
type Session struct {
	ID            string
	Dashboard     *views.DashboardView
	Subscriptions *views.SubscriptionsView
	Invoices      *views.InvoicesView
	Reports       *views.ReportsView
}

func newSession(id string, backend Backend, deps views.Deps) *Session {
	return &Session{
		ID:            id,
		Dashboard:     views.NewDashboardView(backend, deps),
		Subscriptions: views.NewSubscriptionsView(backend, deps),
		Invoices:      views.NewInvoicesView(backend, deps),
		Reports:       views.NewReportsView(backend, deps),
	}
}

// Close cancels any outstanding work of every view.
func (s *Session) Close() {
	s.Dashboard.Close()
	s.Subscriptions.Close()
	s.Invoices.Close()
	s.Reports.Close()
}

type Config struct {
	TTL     time.Duration
	MaxSize int
	// Secure marks the cookie Secure; set it when served over TLS.
	Secure bool
}

type Store struct {
	sessions *cache.LRUCache[*Session]
	backend  Backend
	deps     views.Deps
	logger   *log.Logger
	cfg      Config
}

func NewStore(backend Backend, deps views.Deps, cfg Config) *Store {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = DefaultMaxSize
	}
	logger := deps.Logger
	if logger == nil {
		logger = log.Discard()
	}
	s := &Store{
		sessions: cache.NewLRUCache[*Session](cfg.MaxSize, cfg.TTL),
		backend:  backend,
		deps:     deps,
		logger:   logger.WithComponent(log.ComponentSession),
		cfg:      cfg,
	}
	s.sessions.OnEvict(func(id string, sess *Session) {
		sess.Close()
		s.logger.Debug("Session closed", log.FieldSessionID, id)
	})
	return s
}

// Cache exposes the underlying cache so a cache.Manager can sweep it.
func (s *Store) Cache() cache.Cleaner { return s.sessions }

// Get returns the session for id, creating it when absent.
func (s *Store) Get(id string) (*Session, bool) {
	if id != "" {
		if sess, ok := s.sessions.Get(id); ok {
			return sess, false
		}
	}
	id = uuid.NewString()
	sess := newSession(id, s.backend, s.deps)
	s.sessions.Set(id, sess)
	s.logger.Debug("Session created", log.FieldSessionID, id)
	return sess, true
}

// Resolve finds the session named by r's cookie, creating one (and
// setting the cookie on w) when it is missing, malformed or expired.
func (s *Store) Resolve(w http.ResponseWriter, r *http.Request) *Session {
	var id string
	if c, err := r.Cookie(CookieName); err == nil {
		if _, perr := uuid.Parse(c.Value); perr == nil {
			id = c.Value
		}
	}
	sess, created := s.Get(id)
	if created {
		http.SetCookie(w, &http.Cookie{
			Name:     CookieName,
			Value:    sess.ID,
			Path:     "/",
			HttpOnly: true,
			Secure:   s.cfg.Secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return sess
}

// End discards the session with id.
func (s *Store) End(id string) { s.sessions.Delete(id) }

func (s *Store) Len() int { return s.sessions.Size() }

// Close ends every session.
func (s *Store) Close() { s.sessions.Clear() }

type ctxKey struct{}

// Middleware resolves the session for every request and stores it in the
// request context.
func (s *Store) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := s.Resolve(w, r)
		ctx := context.WithValue(r.Context(), ctxKey{}, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// FromContext returns the session stored by Middleware.
func FromContext(ctx context.Context) (*Session, bool) {
	sess, ok := ctx.Value(ctxKey{}).(*Session)
	return sess, ok
}
