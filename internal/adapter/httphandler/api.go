package httphandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/niksmo/kiksniks/internal/core/catalog"
	"github.com/niksmo/kiksniks/internal/core/service"
	"github.com/niksmo/kiksniks/internal/view"
)

const maxAPIBody = 1 << 16

// APIProducts returns a filtered page of the catalog. It takes the same
// parameters as the listing and does not remember them for the session.
func (h *Handler) APIProducts(w http.ResponseWriter, r *http.Request) {
	const op = "Handler.APIProducts"

	q := r.URL.Query()
	cv, err := h.sf.Catalog(r.Context(), "", view.ParseFilter(q), view.ParsePage(q))
	if err != nil {
		if isNotLoaded(err) {
			writeJSONError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		slog.Error("failed to build catalog", "op", op, "err", err)
		writeJSONError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, view.BuildListing(cv))
}

func (h *Handler) APICart(w http.ResponseWriter, r *http.Request) {
	const op = "Handler.APICart"

	c, err := h.sf.Cart(r.Context(), sessionID(r))
	if err != nil {
		slog.Error("failed to load cart", "op", op, "err", err)
		writeJSONError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, view.BuildCart(c))
}

type addItemRequest struct {
	ProductID string `json:"productId"`
	Size      string `json:"size"`
}

// APIAddItem adds one unit to the session cart and returns the cart.
func (h *Handler) APIAddItem(w http.ResponseWriter, r *http.Request) {
	const op = "Handler.APIAddItem"
	log := slog.With("op", op)

	var req addItemRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAPIBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		log.Warn("failed to parse JSON", "err", err)
		writeJSONError(w, http.StatusBadRequest, "invalid JSON data")
		return
	}

	sid := sessionID(r)
	if _, err := h.sf.AddToCart(r.Context(), sid, req.ProductID, req.Size); err != nil {
		switch {
		case errors.Is(err, service.ErrSizeRequired):
			writeJSONError(w, http.StatusUnprocessableEntity, service.ErrSizeRequired.Error())
		case errors.Is(err, catalog.ErrProductNotFound):
			writeJSONError(w, http.StatusNotFound, catalog.ErrProductNotFound.Error())
		case isNotLoaded(err):
			writeJSONError(w, http.StatusServiceUnavailable, service.ErrNotLoaded.Error())
		default:
			log.Error("failed to add to cart", "err", err)
			writeJSONError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	c, err := h.sf.Cart(r.Context(), sid)
	if err != nil {
		log.Error("failed to load cart", "err", err)
		writeJSONError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusCreated, view.BuildCart(c))
}
