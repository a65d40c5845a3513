package httphandler

import (
	"log/slog"
	"net/http"

	"github.com/niksmo/kiksniks/internal/core/domain"
	"github.com/niksmo/kiksniks/internal/core/validate"
)

const contactPath = "/?page=contact"

func (h *Handler) Contact(w http.ResponseWriter, r *http.Request) {
	const op = "Handler.Contact"

	form := domain.ContactMessage{
		Name:    r.PostFormValue("name"),
		Email:   r.PostFormValue("email"),
		Phone:   r.PostFormValue("phone"),
		Subject: r.PostFormValue("subject"),
		Message: r.PostFormValue("message"),
	}

	m, err := h.sf.SubmitContact(r.Context(), form)
	if err == nil {
		slog.Info("contact message submitted", "op", op, "messageID", m.ID)
		h.flash(w, r, domain.NewToast(domain.ToastSuccess,
			"Message sent successfully!", "We'll get back to you within 24 hours."))
		redirect(w, r, contactPath)
		return
	}

	content := contactContent{Form: form}
	if fields := validate.Fields(err); fields != nil {
		content.Errors = fields
		h.render(w, r, http.StatusUnprocessableEntity, "contact", "Contact", content,
			domain.NewToast(domain.ToastError, validate.FormSummary, ""))
		return
	}

	slog.Error("failed to submit contact message", "op", op, "err", err)
	h.render(w, r, http.StatusBadGateway, "contact", "Contact", content,
		domain.NewToast(domain.ToastError, "Failed to send message", "Please try again."))
}

// Newsletter signs the e-mail up and returns to the page holding the
// footer form.
func (h *Handler) Newsletter(w http.ResponseWriter, r *http.Request) {
	const op = "Handler.Newsletter"

	back := returnPath(r, "/")
	s, err := h.sf.SubscribeNewsletter(r.Context(), r.PostFormValue("email"))
	switch {
	case err == nil:
		slog.Info("newsletter signup", "op", op, "signupID", s.ID)
		h.flash(w, r, domain.NewToast(domain.ToastSuccess,
			"Thank you for subscribing!", "Check your email for exclusive deals."))
	case validate.Fields(err) != nil:
		h.flash(w, r, domain.NewToast(domain.ToastError,
			"Please enter a valid email address", ""))
	default:
		slog.Error("failed to subscribe", "op", op, "err", err)
		h.flash(w, r, domain.NewToast(domain.ToastError,
			"Subscription failed", "Please try again."))
	}
	redirect(w, r, back)
}

// limitSubmissions answers a form post over the per-client limit the way
// other posts fail: a toast and a redirect back to the form.
func (h *Handler) limitSubmissions(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		const op = "Handler.limitSubmissions"

		client := clientAddr(r)
		if h.limiter.allow(client) {
			next.ServeHTTP(w, r)
			return
		}
		slog.Warn("too many submissions", "op", op, "client", client, "path", r.URL.Path)

		back := r.URL.Path
		if back == "/newsletter" {
			back = "/"
		}
		h.flash(w, r, domain.NewToast(domain.ToastError,
			"Too many requests", "Please wait a moment and try again."))
		redirect(w, r, returnPath(r, back))
	})
}
