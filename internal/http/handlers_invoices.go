package http

import (
	"errors"
	"net/http"

	"expensetracker/internal/amqp"
	"expensetracker/internal/core"
	"expensetracker/internal/log"
	"expensetracker/internal/session"
	"expensetracker/internal/views"
)

// maxUploadBytes bounds invoice attachments.
const maxUploadBytes = 10 << 20

func (s *Server) invoicesPage(v *views.InvoicesView) pageData {
	data := s.page("Invoices", "invoices", v.Snapshot())
	data.ConfirmDelete = views.ConfirmDeleteInvoice
	return data
}

func (s *Server) renderInvoices(w http.ResponseWriter, r *http.Request, sess *session.Session, b *HTMXResponseBuilder) {
	name := "invoices.html"
	if isHTMX(r) {
		name = "invoices_body"
	}
	s.render(w, r, name, s.invoicesPage(sess.Invoices), b)
}

func ensureInvoices(r *http.Request, v *views.InvoicesView) {
	if st := v.Snapshot(); st.SourceCount == 0 {
		v.Load(r.Context())
	}
}

// invoiceResult adds the change trigger on success or the view's error
// notification on failure.
func invoiceResult(v *views.InvoicesView, ok bool, action amqp.Action, id, msg string) *HTMXResponseBuilder {
	b := NewHTMXResponse()
	if ok {
		return b.TriggerChanged(string(amqp.EntityInvoice), string(action), id).
			TriggerSuccessNotification(msg)
	}
	return b.TriggerErrorNotification(v.Snapshot().Error)
}

func (s *Server) handleInvoices(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	sess.Invoices.Load(r.Context())
	s.renderInvoices(w, r, sess, nil)
}

func (s *Server) handleInvoiceList(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	ensureInvoices(r, sess.Invoices)
	f := ParseInvoiceFilters(r.URL.Query())
	sess.Invoices.SetFilters(f.Status, f.Category, f.Search)
	s.render(w, r, "invoice_list", s.invoicesPage(sess.Invoices), nil)
}

func (s *Server) handleInvoiceStatus(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	id := r.PathValue("id")
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		s.writeParseError(w, err)
		return
	}
	status := core.PaymentStatus(p.Get("status"))
	if !status.Valid() {
		UnprocessableEntityError("Invalid payment status").Write(w)
		return
	}

	ensureInvoices(r, sess.Invoices)
	ok := sess.Invoices.UpdatePaymentStatus(r.Context(), id, status)
	s.renderInvoices(w, r, sess, invoiceResult(sess.Invoices, ok, amqp.ActionUpdated, id, "Invoice marked "+string(status)))
}

func (s *Server) handleInvoiceAttachment(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	id := r.PathValue("id")
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			ErrorResponse(http.StatusRequestEntityTooLarge, "Attachment exceeds 10 MB").Write(w)
			return
		}
		BadRequestError("Invalid upload").Write(w)
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		BadRequestError("Choose a file to upload").Write(w)
		return
	}
	defer file.Close()

	ensureInvoices(r, sess.Invoices)
	ok := sess.Invoices.AttachFile(r.Context(), id, header.Filename, file)
	if ok {
		log.FromContext(r.Context()).InfoContext(r.Context(), "Invoice attachment uploaded",
			log.FieldEntityID, id,
			log.FieldSize, header.Size)
	}
	s.renderInvoices(w, r, sess, invoiceResult(sess.Invoices, ok, amqp.ActionUpdated, id, "Attachment uploaded"))
}

func (s *Server) handleInvoiceDelete(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	id := r.PathValue("id")
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		s.writeParseError(w, err)
		return
	}
	confirmed := ParseBool(p.Get("confirmed"))
	if !confirmed {
		BadRequestError("Deletion was not confirmed").Write(w)
		return
	}

	ok := sess.Invoices.Delete(r.Context(), id, views.Confirmation(confirmed))
	s.renderInvoices(w, r, sess, invoiceResult(sess.Invoices, ok, amqp.ActionDeleted, id, "Invoice deleted"))
}
