// Package httphandler serves the storefront pages, the form endpoints and
// the JSON API.
package httphandler

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	"github.com/niksmo/kiksniks/internal/core/cart"
	"github.com/niksmo/kiksniks/internal/core/domain"
	"github.com/niksmo/kiksniks/internal/core/port"
	"github.com/niksmo/kiksniks/internal/core/service"
	"golang.org/x/time/rate"
)

// Storefront is the part of [service.Storefront] the handlers use.
type Storefront interface {
	Snapshot() (*service.Snapshot, error)
	Catalog(ctx context.Context, sessionID string, f domain.FilterState, page int) (service.CatalogView, error)
	LastFilters(ctx context.Context, sessionID string) (domain.FilterState, bool, error)
	Product(groupKey string, f domain.FilterState) (domain.ProductGroup, error)
	Featured(n int) ([]domain.Product, error)

	Cart(ctx context.Context, sessionID string) (*cart.Cart, error)
	AddToCart(ctx context.Context, sessionID, productID, size string) (domain.CartItem, error)
	AddSelected(ctx context.Context, sessionID string, productIDs []string) (int, error)
	UpdateQuantity(ctx context.Context, sessionID, itemID string, quantity int) (*cart.Cart, error)
	RemoveFromCart(ctx context.Context, sessionID, itemID string) (*cart.Cart, error)
	ClearCart(ctx context.Context, sessionID string) error

	SubmitInquiry(ctx context.Context, sessionID string, c domain.Customer) (domain.Inquiry, error)
	SubmitContact(ctx context.Context, m domain.ContactMessage) (domain.ContactMessage, error)
	SubscribeNewsletter(ctx context.Context, email string) (domain.NewsletterSignup, error)
}

var _ Storefront = (*service.Storefront)(nil)

const (
	defaultFeatured  = 8
	defaultFormRate  = 1
	defaultFormBurst = 5
	defaultMaxAge    = 30 * 24 * time.Hour
)

type Config struct {
	SessionSecret string
	SecureCookie  bool
	SessionMaxAge time.Duration
	// FormRate is the sustained number of form posts per second allowed
	// for one client. FormBurst posts may arrive at once.
	FormRate  float64
	FormBurst int
	Featured  int
}

type Handler struct {
	sf        Storefront
	pages     port.InfoPages
	store     sessions.Store
	templates map[string]*template.Template
	limiter   *clientLimiter
	featured  int
	now       func() time.Time
}

// New builds the storefront router.
func New(cfg Config, sf Storefront, pages port.InfoPages) (http.Handler, error) {
	const op = "httphandler.New"

	if sf == nil || pages == nil {
		panic(op + ": nil dependency") // develop mistake
	}
	if cfg.SessionSecret == "" {
		return nil, fmt.Errorf("%s: empty session secret", op)
	}
	if cfg.SessionMaxAge <= 0 {
		cfg.SessionMaxAge = defaultMaxAge
	}
	if cfg.FormRate <= 0 {
		cfg.FormRate = defaultFormRate
	}
	if cfg.FormBurst <= 0 {
		cfg.FormBurst = defaultFormBurst
	}
	if cfg.Featured <= 0 {
		cfg.Featured = defaultFeatured
	}

	tmpl, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	limiter, err := newClientLimiter(rate.Limit(cfg.FormRate), cfg.FormBurst)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	h := &Handler{
		sf:        sf,
		pages:     pages,
		store:     newCookieStore(cfg),
		templates: tmpl,
		limiter:   limiter,
		featured:  cfg.Featured,
		now:       time.Now,
	}
	return h.routes(), nil
}

func (h *Handler) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.Health)
	r.Handle("/static/*", staticHandler())

	r.Group(func(r chi.Router) {
		r.Use(h.withSession)

		r.Get("/", h.Index)
		r.Get("/products/{groupKey}", h.ProductDetail)
		r.Get("/cart", h.CartPage)
		r.Get("/checkout", h.CheckoutPage)
		r.Get("/contact", h.ContactPage)
		r.Get("/info/{slug}", h.InfoPage)

		r.Post("/cart/add", h.AddToCart)
		r.Post("/cart/add-selected", h.AddSelected)
		r.Post("/cart/update", h.UpdateCart)
		r.Post("/cart/remove", h.RemoveFromCart)
		r.Post("/cart/clear", h.ClearCart)

		// Submissions reach the remote source and are rate limited.
		r.Group(func(r chi.Router) {
			r.Use(h.limitSubmissions)

			r.Post("/checkout", h.Checkout)
			r.Post("/contact", h.Contact)
			r.Post("/newsletter", h.Newsletter)
		})

		r.Route("/v1", func(r chi.Router) {
			r.Get("/products", h.APIProducts)
			r.Get("/cart", h.APICart)
			r.With(h.limiter.Middleware, AllowJSON).Post("/cart/items", h.APIAddItem)
		})
	})

	r.NotFound(h.withSession(http.HandlerFunc(h.NotFound)).ServeHTTP)
	return r
}

// Health reports whether a product snapshot is being served.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	if _, err := h.sf.Snapshot(); err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}
