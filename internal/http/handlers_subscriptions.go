package http

import (
	"errors"
	"net/http"

	"expensetracker/internal/amqp"
	"expensetracker/internal/session"
	"expensetracker/internal/views"
)

const (
	msgSubscriptionSaved   = "Subscription saved"
	msgSubscriptionDeleted = "Subscription deleted"
	msgSubscriptionToggled = "Subscription updated"
)

func (s *Server) subscriptionsPage(v *views.SubscriptionsView) pageData {
	data := s.page("Subscriptions", "subscriptions", v.Snapshot())
	data.ConfirmDelete = views.ConfirmDeleteSubscription
	return data
}

// renderSubscriptions writes the full page, or only its body for HTMX
// requests.
func (s *Server) renderSubscriptions(w http.ResponseWriter, r *http.Request, sess *session.Session, b *HTMXResponseBuilder) {
	name := "subscriptions.html"
	if isHTMX(r) {
		name = "subscriptions_body"
	}
	s.render(w, r, name, s.subscriptionsPage(sess.Subscriptions), b)
}

// ensureSubscriptions loads the list once for sessions that have not
// visited the page yet, so row actions can find their subscription.
func ensureSubscriptions(r *http.Request, v *views.SubscriptionsView) {
	if st := v.Snapshot(); st.SourceCount == 0 {
		v.Load(r.Context())
	}
}

func (s *Server) handleSubscriptions(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	sess.Subscriptions.Load(r.Context())
	s.renderSubscriptions(w, r, sess, nil)
}

func (s *Server) handleSubscriptionList(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	ensureSubscriptions(r, sess.Subscriptions)
	f := ParseSubscriptionFilters(r.URL.Query())
	sess.Subscriptions.SetFilters(f.ShowActive, f.ShowInactive, f.Category, f.Search)
	s.render(w, r, "subscription_list", s.subscriptionsPage(sess.Subscriptions), nil)
}

func (s *Server) handleSubscriptionNew(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	ensureSubscriptions(r, sess.Subscriptions)
	sess.Subscriptions.OpenAdd()
	s.renderSubscriptions(w, r, sess, nil)
}

func (s *Server) handleSubscriptionEdit(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	id := r.PathValue("id")
	ensureSubscriptions(r, sess.Subscriptions)
	if !sess.Subscriptions.OpenEdit(id) {
		b := NewHTMXResponse().TriggerErrorNotification(views.ErrSubscriptionMissing)
		if !isHTMX(r) {
			b.Status(http.StatusNotFound)
		}
		s.renderSubscriptions(w, r, sess, b)
		return
	}
	s.renderSubscriptions(w, r, sess, nil)
}

func (s *Server) handleSubscriptionToggle(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	id := r.PathValue("id")
	ensureSubscriptions(r, sess.Subscriptions)

	b := NewHTMXResponse()
	if sess.Subscriptions.ToggleActive(r.Context(), id) {
		b.TriggerChanged(string(amqp.EntitySubscription), string(amqp.ActionUpdated), id).
			TriggerSuccessNotification(msgSubscriptionToggled)
	} else {
		b.TriggerErrorNotification(sess.Subscriptions.Snapshot().Error)
	}
	s.renderSubscriptions(w, r, sess, b)
}

func (s *Server) handleSubscriptionDelete(w http.ResponseWriter, r *http.Request, sess *session.Session) {
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

	b := NewHTMXResponse()
	if sess.Subscriptions.Delete(r.Context(), id, views.Confirmation(confirmed)) {
		b.TriggerChanged(string(amqp.EntitySubscription), string(amqp.ActionDeleted), id).
			TriggerSuccessNotification(msgSubscriptionDeleted)
	} else {
		b.TriggerErrorNotification(sess.Subscriptions.Snapshot().Error)
	}
	s.renderSubscriptions(w, r, sess, b)
}

func (s *Server) handleSubscriptionSubmit(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		s.writeParseError(w, err)
		return
	}

	form := sess.Subscriptions.Form()
	before := form.Snapshot()
	if !before.Visible {
		// The session expired while the form was open.
		form.Open(nil)
		before = form.Snapshot()
	}
	form.SetModel(ParseSubscriptionForm(p, before.Model))

	b := NewHTMXResponse()
	if saved, ok := form.Submit(r.Context()); ok {
		action := amqp.ActionCreated
		if before.IsEdit {
			action = amqp.ActionUpdated
		}
		b.TriggerChanged(string(amqp.EntitySubscription), string(action), saved.ID).
			TriggerSuccessNotification(msgSubscriptionSaved)
	} else {
		b.TriggerErrorNotification(form.Snapshot().Error)
	}
	s.renderSubscriptions(w, r, sess, b)
}

func (s *Server) handleSubscriptionCancel(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	sess.Subscriptions.Form().Cancel()
	s.renderSubscriptions(w, r, sess, nil)
}

func (s *Server) writeParseError(w http.ResponseWriter, err error) {
	if errors.Is(err, errBodyTooLarge) {
		ErrorResponse(http.StatusRequestEntityTooLarge, "Request body too large").Write(w)
		return
	}
	BadRequestError("Invalid request body").Write(w)
}
