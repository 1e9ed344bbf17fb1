package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"expensetracker/internal/log"
	"expensetracker/internal/session"
	"expensetracker/internal/storage"
)

const recentFailureLimit = 20

type statusState struct {
	BackendURL     string
	JournalEnabled bool
	LastDay        int
	Events         string
	Sessions       int
	Error          string
	Failures       []storage.Failure
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	sess.Dashboard.Load(r.Context())
	name := "dashboard.html"
	if isHTMX(r) {
		name = "dashboard_body"
	}
	s.render(w, r, name, s.page("Dashboard", "dashboard", sess.Dashboard.Snapshot()), nil)
}

func (s *Server) eventsState() string {
	switch {
	case s.events == nil:
		return "disabled"
	case s.events.Healthy():
		return "healthy"
	default:
		return "degraded"
	}
}

// handleStatus shows the backend in use and the failures recorded by the
// journal.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st := statusState{
		BackendURL:     s.backendURL,
		JournalEnabled: s.journal != nil,
		Events:         s.eventsState(),
		Sessions:       s.sessions.Len(),
	}

	if s.journal != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		failures, err := s.journal.RecentFailures(ctx, recentFailureLimit)
		if err == nil {
			st.Failures = failures
			st.LastDay, err = s.journal.CountSince(ctx, s.now().Add(-24*time.Hour))
		}
		if err != nil {
			log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to read failure journal", log.FieldError, err)
			st.Error = "Failure journal unavailable"
		}
	}

	s.render(w, r, "status.html", s.page("Status", "status", st), nil)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "not_found.html", s.page("Not found", "", r.URL.Path), NewHTMXResponse().Status(http.StatusNotFound))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewHTMXResponse().JSON(map[string]any{
		"status": "ok",
		"uptime": time.Since(s.started).Round(time.Second).String(),
	}).Write(w)
}

// handleReady fails when templates did not load or the journal is
// unreachable. An unhealthy event broker only degrades readiness.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"templates": "ok", "journal": "disabled", "events": s.eventsState()}
	ready := true

	if s.templates == nil {
		checks["templates"] = errTemplatesNotLoaded.Error()
		ready = false
	}
	if s.journal != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.journal.Ping(ctx); err != nil {
			checks["journal"] = err.Error()
			ready = false
		} else {
			checks["journal"] = "ok"
		}
	}

	status := "ready"
	code := http.StatusOK
	if !ready {
		status = "not ready"
		code = http.StatusServiceUnavailable
	} else if checks["events"] == "degraded" {
		status = "degraded"
	}

	NewHTMXResponse().Status(code).JSON(map[string]any{
		"status": status,
		"checks": checks,
	}).Write(w)
}

// handleMetrics exposes request, security and rate limit counters in a
// plain key/value text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	tm := s.tracer.GetMetrics()
	dm := s.detector.GetMetrics()
	lm := s.limiter.GetMetrics()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "http_requests_total %d\n", tm.TotalRequests)
	fmt.Fprintf(w, "http_server_errors_total %d\n", tm.ServerErrors)
	fmt.Fprintf(w, "http_last_response_time_us %d\n", tm.LastResponseTimeUs)
	fmt.Fprintf(w, "security_suspicious_requests_total %d\n", dm.SuspiciousRequests)
	fmt.Fprintf(w, "security_blocked_requests_total %d\n", dm.BlockedRequests)
	fmt.Fprintf(w, "ratelimit_hits_total %d\n", lm.TotalHits)
	fmt.Fprintf(w, "ratelimit_clients %d\n", lm.ClientCount)
	fmt.Fprintf(w, "sessions_active %d\n", s.sessions.Len())
}
