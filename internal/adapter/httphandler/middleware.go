package httphandler

import (
	"log/slog"
	"mime"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/time/rate"
)

// AllowJSON rejects request bodies that are not application/json.
func AllowJSON(next http.Handler) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength == 0 {
			next.ServeHTTP(w, r)
			return
		}

		mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil || mt != "application/json" {
			http.Error(w, "invalid media type", http.StatusUnsupportedMediaType)
			return
		}

		next.ServeHTTP(w, r)
	}
	return http.HandlerFunc(hf)
}

// RequestLogger logs one line per request.
func RequestLogger(next http.Handler) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		slog.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"requestID", middleware.GetReqID(r.Context()),
			"remote", r.RemoteAddr,
		)
	}
	return http.HandlerFunc(hf)
}

const limiterClients = 4096

// clientLimiter keeps one token bucket per client address. The least
// recently seen clients are forgotten.
type clientLimiter struct {
	limit   rate.Limit
	burst   int
	clients *lru.Cache
}

func newClientLimiter(limit rate.Limit, burst int) (*clientLimiter, error) {
	cache, err := lru.New(limiterClients)
	if err != nil {
		return nil, err
	}
	return &clientLimiter{limit: limit, burst: burst, clients: cache}, nil
}

func (l *clientLimiter) allow(client string) bool {
	if v, ok := l.clients.Get(client); ok {
		return v.(*rate.Limiter).Allow()
	}
	lim := rate.NewLimiter(l.limit, l.burst)
	if prev, ok, _ := l.clients.PeekOrAdd(client, lim); ok {
		lim = prev.(*rate.Limiter)
	}
	return lim.Allow()
}

// Middleware rejects API calls over the limit with a JSON 429.
func (l *clientLimiter) Middleware(next http.Handler) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		const op = "clientLimiter.Middleware"

		client := clientAddr(r)
		if !l.allow(client) {
			slog.Warn("too many requests", "op", op, "client", client, "path", r.URL.Path)
			w.Header().Set("Retry-After", "1")
			writeJSONError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	}
	return http.HandlerFunc(hf)
}

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
