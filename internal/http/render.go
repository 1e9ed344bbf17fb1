package http

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode"

	"expensetracker/internal/core"
	"expensetracker/internal/listing"
	"expensetracker/internal/log"
)

var errTemplatesNotLoaded = errors.New("templates not loaded")

// pageData is the root value of every template.
type pageData struct {
	Title         string
	Active        string
	Today         time.Time
	ConfirmDelete string
	State         any
}

var templateFuncs = template.FuncMap{
	"currency":    listing.FormatCurrency,
	"date":        listing.FormatDate,
	"percent":     listing.FormatPercentage,
	"daysUntil":   listing.DaysUntil,
	"statusBadge": listing.StatusBadgeClass,
	"activeBadge": listing.ActiveBadgeClass,
	"monthName":   listing.MonthName,
	"pathEscape":  url.PathEscape,
	"label":       label,
	"optDate": func(d *core.Date) string {
		if d == nil {
			return ""
		}
		return d.String()
	},
}

// label turns an enum value such as "monthly" into "Monthly".
func label(v any) string {
	s := fmt.Sprint(v)
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func parseTemplates(fsys fs.FS) (*template.Template, error) {
	return template.New("").Funcs(templateFuncs).ParseFS(fsys, "templates/*.html")
}

func (s *Server) page(title, active string, state any) pageData {
	return pageData{
		Title:  title,
		Active: active,
		Today:  s.now(),
		State:  state,
	}
}

func (s *Server) renderTemplate(name string, data any) ([]byte, error) {
	if s.templates == nil {
		return nil, errTemplatesNotLoaded
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("execute template %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// render executes name into a buffer and writes it through b, so a failing
// template never produces half a page.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data pageData, b *HTMXResponseBuilder) {
	body, err := s.renderTemplate(name, data)
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Template rendering failed",
			log.FieldTemplate, name,
			log.FieldError, err)
		InternalServerError("Failed to render page").Write(w)
		return
	}
	if b == nil {
		b = NewHTMXResponse()
	}
	b.BodyHTML(body).Write(w)
}

func isHTMX(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("HX-Request"), "true")
}
