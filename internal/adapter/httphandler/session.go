package httphandler

import (
	"context"
	"encoding/gob"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/niksmo/kiksniks/internal/core/domain"
)

const (
	sessionName   = "kiksniks_session"
	keySessionID  = "sid"
	keyNoticeSeen = "notice_id"
)

func init() {
	gob.Register(domain.Toast{})
}

func newCookieStore(cfg Config) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	store.MaxAge(int(cfg.SessionMaxAge.Seconds()))
	store.Options.Path = "/"
	store.Options.HttpOnly = true
	store.Options.Secure = cfg.SecureCookie
	store.Options.SameSite = http.SameSiteLaxMode
	return store
}

type sessionCtxKey struct{}

// withSession loads the browser session and assigns it an id on the
// first visit. The id keys the cart and the filter state.
func (h *Handler) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		const op = "Handler.withSession"

		sess, err := h.store.Get(r, sessionName)
		if err != nil {
			slog.Debug("reset unreadable session", "op", op, "err", err)
		}
		if id, _ := sess.Values[keySessionID].(string); id == "" {
			sess.Values[keySessionID] = uuid.NewString()
			if err := sess.Save(r, w); err != nil {
				slog.Error("failed to save session", "op", op, "err", err)
			}
		}

		ctx := context.WithValue(r.Context(), sessionCtxKey{}, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionFrom(r *http.Request) *sessions.Session {
	sess, ok := r.Context().Value(sessionCtxKey{}).(*sessions.Session)
	if !ok {
		panic("httphandler: request without session") // develop mistake
	}
	return sess
}

func sessionID(r *http.Request) string {
	id, _ := sessionFrom(r).Values[keySessionID].(string)
	return id
}

// flash queues a toast for the next rendered page.
func (h *Handler) flash(w http.ResponseWriter, r *http.Request, t domain.Toast) {
	const op = "Handler.flash"

	sess := sessionFrom(r)
	sess.AddFlash(t)
	if err := sess.Save(r, w); err != nil {
		slog.Error("failed to save session", "op", op, "err", err)
	}
}

// takeToasts drains the queued toasts. The fallback notice of the current
// snapshot is added once per session and outage.
func (h *Handler) takeToasts(r *http.Request) []domain.Toast {
	sess := sessionFrom(r)

	var toasts []domain.Toast
	for _, f := range sess.Flashes() {
		if t, ok := f.(domain.Toast); ok {
			toasts = append(toasts, t)
		}
	}

	if snap, err := h.sf.Snapshot(); err == nil && snap.Notice != nil {
		seen, _ := sess.Values[keyNoticeSeen].(uint64)
		if seen != snap.NoticeID {
			sess.Values[keyNoticeSeen] = snap.NoticeID
			toasts = append(toasts, *snap.Notice)
		}
	}
	return toasts
}

// redirect answers a form post with 303 See Other.
func redirect(w http.ResponseWriter, r *http.Request, to string) {
	http.Redirect(w, r, to, http.StatusSeeOther)
}
