package httphandler

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/niksmo/kiksniks/internal/core/catalog"
	"github.com/niksmo/kiksniks/internal/core/domain"
	"github.com/niksmo/kiksniks/internal/core/service"
	"github.com/niksmo/kiksniks/internal/view"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

var pageTemplates = []string{
	"home", "products", "detail", "cart", "checkout", "contact", "info", "error",
}

var funcs = template.FuncMap{
	"price": view.Price,
	"count": view.Count,
	// sanitized renders HTML that was sanitized when the page was loaded.
	"sanitized": func(s string) template.HTML {
		return template.HTML(s)
	},
	"filterFields": view.FilterFields,
}

// parseTemplates pairs every page with the shared layout.
func parseTemplates() (map[string]*template.Template, error) {
	out := make(map[string]*template.Template, len(pageTemplates))
	for _, name := range pageTemplates {
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS,
			"templates/base.tmpl",
			"templates/partials.tmpl",
			"templates/"+name+".tmpl",
		)
		if err != nil {
			return nil, err
		}
		out[name] = t
	}
	return out, nil
}

// pageData is what the layout renders around a page.
type pageData struct {
	Title     string
	Nav       string
	Path      string
	Menu      []catalog.MenuSection
	CartCount int
	Toasts    []domain.Toast
	Year      int
	Content   any
}

// render executes page inside the layout. Queued toasts are consumed.
func (h *Handler) render(
	w http.ResponseWriter, r *http.Request,
	status int, page, title string, content any, extra ...domain.Toast,
) {
	const op = "Handler.render"
	log := slog.With("op", op, "page", page)

	t, ok := h.templates[page]
	if !ok {
		panic(op + ": unknown page " + page) // develop mistake
	}

	data := pageData{
		Title:   title,
		Nav:     page,
		Path:    r.URL.RequestURI(),
		Toasts:  append(h.takeToasts(r), extra...),
		Year:    h.now().Year(),
		Content: content,
	}
	if snap, err := h.sf.Snapshot(); err == nil {
		data.Menu = snap.Menu
	}
	if c, err := h.sf.Cart(r.Context(), sessionID(r)); err == nil {
		data.CartCount = c.Count()
	} else {
		log.Warn("failed to load cart", "err", err)
	}

	sess := sessionFrom(r)
	if err := sess.Save(r, w); err != nil {
		log.Error("failed to save session", "err", err)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base", data); err != nil {
		log.Error("failed to render", "err", err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		log.Error("failed to write response body", "err", err)
	}
}

type errorContent struct {
	Status  int
	Message string
}

func (h *Handler) renderError(
	w http.ResponseWriter, r *http.Request, status int, msg string,
) {
	h.render(w, r, status, "error", http.StatusText(status),
		errorContent{Status: status, Message: msg},
	)
}

func staticHandler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err) // develop mistake
	}
	return http.StripPrefix("/static/", http.FileServerFS(sub))
}

// NotFound renders the 404 page.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.renderError(w, r, http.StatusNotFound, "Page not found")
}

type apiError struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	const op = "writeJSON"

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response body", "op", op, "err", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, apiError{Error: msg})
}

// loadingToast is shown while no snapshot has been published.
var loadingToast = domain.NewToast(domain.ToastError, "Please wait for products to load", "")

func isNotLoaded(err error) bool {
	return errors.Is(err, service.ErrNotLoaded)
}
