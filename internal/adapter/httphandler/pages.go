package httphandler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/niksmo/kiksniks/internal/core/catalog"
	"github.com/niksmo/kiksniks/internal/core/domain"
	"github.com/niksmo/kiksniks/internal/core/port"
	"github.com/niksmo/kiksniks/internal/core/service"
	"github.com/niksmo/kiksniks/internal/core/validate"
	"github.com/niksmo/kiksniks/internal/view"
)

// Views selected by the page parameter of the index.
const (
	pageHome     = "home"
	pageProducts = "products"
	pageContact  = "contact"
)

const faqSlug = "faq"

// Index serves the single-page views: home, the product listing and the
// contact form. Unknown views fall back to home.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Query().Get("page") {
	case pageProducts:
		h.products(w, r)
	case pageContact:
		h.ContactPage(w, r)
	default:
		h.home(w, r)
	}
}

type homeContent struct {
	Loaded      bool
	Featured    []view.Card
	Stats       catalog.Stats
	ContinueURL string
}

func (h *Handler) home(w http.ResponseWriter, r *http.Request) {
	const op = "Handler.home"

	var content homeContent
	var extra []domain.Toast

	if snap, err := h.sf.Snapshot(); err == nil {
		content.Loaded = true
		content.Stats = snap.Stats
	}
	featured, err := h.sf.Featured(h.featured)
	switch {
	case err == nil:
		for _, p := range featured {
			content.Featured = append(content.Featured, view.NewCard(p, domain.NewFilterState()))
		}
	case isNotLoaded(err):
		extra = append(extra, loadingToast)
	default:
		slog.Error("failed to load featured products", "op", op, "err", err)
	}

	f, ok, err := h.sf.LastFilters(r.Context(), sessionID(r))
	if err != nil {
		slog.Warn("failed to load filters", "op", op, "err", err)
	}
	if ok && f.IsActive() {
		content.ContinueURL = view.ListingURL(f, 1)
	}

	h.render(w, r, http.StatusOK, "home", "", content, extra...)
}

type productsContent struct {
	Loaded   bool
	Listing  view.Listing
	ListView bool
}

func (h *Handler) products(w http.ResponseWriter, r *http.Request) {
	const op = "Handler.products"

	q := r.URL.Query()
	f := view.ParseFilter(q)
	content := productsContent{ListView: q.Get("view") == "list"}

	cv, err := h.sf.Catalog(r.Context(), sessionID(r), f, view.ParsePage(q))
	switch {
	case err == nil:
		content.Loaded = true
		content.Listing = view.BuildListing(cv)
	case isNotLoaded(err):
		content.Listing = view.BuildListing(service.CatalogView{
			Page:   catalog.Paginate(nil, 1, 1),
			Filter: f,
		})
		h.render(w, r, http.StatusOK, "products", "Products", content, loadingToast)
		return
	default:
		slog.Error("failed to build catalog", "op", op, "err", err)
		h.renderError(w, r, http.StatusInternalServerError,
			"An error occurred. Please refresh the page.")
		return
	}

	h.render(w, r, http.StatusOK, "products", "Products", content)
}

// ProductDetail shows one product with the color variations matching the
// listing filters. When no variation matches, every variation is shown.
func (h *Handler) ProductDetail(w http.ResponseWriter, r *http.Request) {
	const op = "Handler.ProductDetail"

	key := chi.URLParam(r, "groupKey")
	q := r.URL.Query()
	f := view.ParseFilter(q)

	var extra []domain.Toast
	g, err := h.sf.Product(key, f)
	if errors.Is(err, catalog.ErrNoMatchingVariant) {
		extra = append(extra, domain.NewToast(domain.ToastInfo,
			"No color variations match your current filters", ""))
		g, err = h.sf.Product(key, domain.NewFilterState())
	}
	switch {
	case err == nil:
	case isNotLoaded(err):
		h.renderError(w, r, http.StatusServiceUnavailable, loadingToast.Message)
		return
	case errors.Is(err, catalog.ErrProductNotFound):
		h.renderError(w, r, http.StatusNotFound, "Product not found")
		return
	default:
		slog.Error("failed to load product", "op", op, "groupKey", key, "err", err)
		h.renderError(w, r, http.StatusInternalServerError,
			"An error occurred. Please refresh the page.")
		return
	}

	d := view.BuildDetail(g, q.Get("variant"), f)
	h.render(w, r, http.StatusOK, "detail", d.Product.Name, d, extra...)
}

type contactContent struct {
	Form   domain.ContactMessage
	Errors validate.FieldErrors
}

func (h *Handler) ContactPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "contact", "Contact", contactContent{})
}

// InfoPage serves an informational page. The FAQ page filters its
// entries by the q parameter.
func (h *Handler) InfoPage(w http.ResponseWriter, r *http.Request) {
	const op = "Handler.InfoPage"

	slug := strings.ToLower(chi.URLParam(r, "slug"))
	var (
		page domain.InfoPage
		err  error
	)
	if slug == faqSlug {
		page, err = h.pages.SearchFAQ(r.URL.Query().Get("q"))
	} else {
		page, err = h.pages.Page(slug)
	}
	if err != nil {
		if errors.Is(err, port.ErrNotFound) {
			h.NotFound(w, r)
			return
		}
		slog.Error("failed to load page", "op", op, "slug", slug, "err", err)
		h.renderError(w, r, http.StatusInternalServerError,
			"An error occurred. Please refresh the page.")
		return
	}
	h.render(w, r, http.StatusOK, "info", page.Title, page)
}
