package http

import (
	"errors"
	"fmt"
	"net/http"

	"expensetracker/internal/charts"
	"expensetracker/internal/core"
	"expensetracker/internal/log"
	"expensetracker/internal/session"
)

func (s *Server) renderReports(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	name := "reports.html"
	if isHTMX(r) {
		name = "reports_body"
	}
	s.render(w, r, name, s.page("Reports", "reports", sess.Reports.Snapshot()), nil)
}

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	sess.Reports.Load(r.Context())
	s.renderReports(w, r, sess)
}

func (s *Server) handleReportsPeriod(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	p := ParseMonthParams(r.URL.Query(), s.now())
	sess.Reports.SetPeriod(r.Context(), p.Year, p.Month)
	s.renderReports(w, r, sess)
}

// handleReportsChart renders a PNG for the period in the query. The
// session's loaded data is reused when it already covers that period.
func (s *Server) handleReportsChart(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	kind := r.URL.Query().Get("kind")
	if kind != "categories" && kind != "trend" {
		BadRequestError("Unknown chart kind").Write(w)
		return
	}

	p := ParseMonthParams(r.URL.Query(), s.now())
	st := sess.Reports.Snapshot()
	if st.Year != p.Year || st.Month != p.Month || st.Loading {
		sess.Reports.SetPeriod(r.Context(), p.Year, p.Month)
		st = sess.Reports.Snapshot()
	}

	var (
		png []byte
		err error
	)
	switch kind {
	case "categories":
		labels, values := sess.Reports.ChartData()
		png, err = s.charts.CategoryBars(fmt.Sprintf("%s %d by category", st.MonthName, st.Year), labels, values)
	case "trend":
		points := make([]core.TrendPoint, 0, len(st.Trend))
		for _, t := range st.Trend {
			points = append(points, core.TrendPoint{Month: t.Month, Amount: t.Amount})
		}
		png, err = s.charts.Trend(fmt.Sprintf("Spending trend %d", st.Year), points)
	}

	if errors.Is(err, charts.ErrNoData) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Chart rendering failed",
			log.FieldChartKind, kind,
			log.FieldError, err)
		http.Error(w, "chart unavailable", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=60")
	_, _ = w.Write(png)
}
