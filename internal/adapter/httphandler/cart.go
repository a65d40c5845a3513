package httphandler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/niksmo/kiksniks/internal/core/catalog"
	"github.com/niksmo/kiksniks/internal/core/domain"
	"github.com/niksmo/kiksniks/internal/core/service"
	"github.com/niksmo/kiksniks/internal/core/validate"
	"github.com/niksmo/kiksniks/internal/view"
)

// Form fields of the cart endpoints.
const (
	fieldProductID = "product_id"
	fieldSize      = "size"
	fieldItemID    = "item_id"
	fieldQuantity  = "quantity"
	fieldReturn    = "return"
)

var (
	toastGenericError = domain.NewToast(domain.ToastError,
		"An error occurred. Please refresh the page.", "")
	toastEmptyCart = domain.NewToast(domain.ToastError, "Your bag is empty", "")
)

// cartErrorToast maps a failed cart operation to the message shown.
func cartErrorToast(err error) domain.Toast {
	switch {
	case errors.Is(err, service.ErrSizeRequired):
		return domain.NewToast(domain.ToastError, "Please select a size", "")
	case errors.Is(err, service.ErrNoSelection):
		return domain.NewToast(domain.ToastError, "Please select products first", "")
	case errors.Is(err, catalog.ErrProductNotFound):
		return domain.NewToast(domain.ToastError, "Product not found", "")
	case isNotLoaded(err):
		return loadingToast
	}
	return toastGenericError
}

func returnPath(r *http.Request, fallback string) string {
	return view.SafeReturnPath(r.PostFormValue(fieldReturn), fallback)
}

func (h *Handler) CartPage(w http.ResponseWriter, r *http.Request) {
	const op = "Handler.CartPage"

	c, err := h.sf.Cart(r.Context(), sessionID(r))
	if err != nil {
		slog.Error("failed to load cart", "op", op, "err", err)
		h.renderError(w, r, http.StatusInternalServerError, toastGenericError.Message)
		return
	}
	h.render(w, r, http.StatusOK, "cart", "Shopping Bag", view.BuildCart(c))
}

func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request) {
	const op = "Handler.AddToCart"

	productID := strings.TrimSpace(r.PostFormValue(fieldProductID))
	size := strings.TrimSpace(r.PostFormValue(fieldSize))
	back := returnPath(r, "/cart")

	item, err := h.sf.AddToCart(r.Context(), sessionID(r), productID, size)
	if err != nil {
		slog.Warn("failed to add to cart", "op", op, "productID", productID, "err", err)
		h.flash(w, r, cartErrorToast(err))
		redirect(w, r, back)
		return
	}

	msg := item.Name + " added"
	if item.Size != "" {
		msg = fmt.Sprintf("%s (%s) added", item.Name, item.Size)
	}
	h.flash(w, r, domain.NewToast(domain.ToastSuccess, msg, ""))
	redirect(w, r, back)
}

// AddSelected adds the products checked on the listing.
func (h *Handler) AddSelected(w http.ResponseWriter, r *http.Request) {
	const op = "Handler.AddSelected"

	back := returnPath(r, view.ListingURL(domain.NewFilterState(), 1))
	if err := r.ParseForm(); err != nil {
		h.flash(w, r, toastGenericError)
		redirect(w, r, back)
		return
	}

	n, err := h.sf.AddSelected(r.Context(), sessionID(r), r.PostForm[fieldProductID])
	if err != nil {
		slog.Warn("failed to add selection", "op", op, "err", err)
		h.flash(w, r, cartErrorToast(err))
		redirect(w, r, back)
		return
	}

	h.flash(w, r, domain.NewToast(domain.ToastSuccess,
		fmt.Sprintf("Added %d items to bag", n), ""))
	redirect(w, r, back)
}

// UpdateCart sets the quantity of a line. Zero or less removes it.
func (h *Handler) UpdateCart(w http.ResponseWriter, r *http.Request) {
	const op = "Handler.UpdateCart"

	itemID := r.PostFormValue(fieldItemID)
	qty, err := strconv.Atoi(strings.TrimSpace(r.PostFormValue(fieldQuantity)))
	if err != nil {
		h.flash(w, r, domain.NewToast(domain.ToastError, "Please enter a valid quantity", ""))
		redirect(w, r, "/cart")
		return
	}

	if _, err := h.sf.UpdateQuantity(r.Context(), sessionID(r), itemID, qty); err != nil {
		slog.Error("failed to update cart", "op", op, "itemID", itemID, "err", err)
		h.flash(w, r, toastGenericError)
	}
	redirect(w, r, returnPath(r, "/cart"))
}

func (h *Handler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	const op = "Handler.RemoveFromCart"

	itemID := r.PostFormValue(fieldItemID)
	if _, err := h.sf.RemoveFromCart(r.Context(), sessionID(r), itemID); err != nil {
		slog.Error("failed to remove from cart", "op", op, "itemID", itemID, "err", err)
		h.flash(w, r, toastGenericError)
	}
	redirect(w, r, returnPath(r, "/cart"))
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	const op = "Handler.ClearCart"

	if err := h.sf.ClearCart(r.Context(), sessionID(r)); err != nil {
		slog.Error("failed to clear cart", "op", op, "err", err)
		h.flash(w, r, toastGenericError)
	}
	redirect(w, r, returnPath(r, "/cart"))
}

type checkoutContent struct {
	Cart   view.CartView
	Form   domain.Customer
	Errors validate.FieldErrors
}

func (h *Handler) CheckoutPage(w http.ResponseWriter, r *http.Request) {
	const op = "Handler.CheckoutPage"

	c, err := h.sf.Cart(r.Context(), sessionID(r))
	if err != nil {
		slog.Error("failed to load cart", "op", op, "err", err)
		h.renderError(w, r, http.StatusInternalServerError, toastGenericError.Message)
		return
	}
	if c.IsEmpty() {
		h.flash(w, r, toastEmptyCart)
		redirect(w, r, "/cart")
		return
	}
	h.render(w, r, http.StatusOK, "checkout", "Checkout",
		checkoutContent{Cart: view.BuildCart(c)})
}

// Checkout submits the cart as an inquiry. A rejected form is rendered
// again with the entered values.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	const op = "Handler.Checkout"

	customer := domain.Customer{
		Name:    r.PostFormValue("name"),
		Email:   r.PostFormValue("email"),
		Phone:   r.PostFormValue("phone"),
		Message: r.PostFormValue("message"),
	}
	sid := sessionID(r)

	in, err := h.sf.SubmitInquiry(r.Context(), sid, customer)
	if err == nil {
		slog.Info("inquiry submitted", "op", op, "inquiryID", in.ID, "items", len(in.Items))
		h.flash(w, r, domain.NewToast(domain.ToastSuccess,
			"Inquiry sent successfully!", "Check your email for confirmation."))
		redirect(w, r, "/")
		return
	}
	if errors.Is(err, service.ErrEmptyCart) {
		h.flash(w, r, toastEmptyCart)
		redirect(w, r, "/cart")
		return
	}

	c, cerr := h.sf.Cart(r.Context(), sid)
	if cerr != nil {
		slog.Error("failed to load cart", "op", op, "err", cerr)
		h.renderError(w, r, http.StatusInternalServerError, toastGenericError.Message)
		return
	}
	content := checkoutContent{Cart: view.BuildCart(c), Form: customer}

	if fields := validate.Fields(err); fields != nil {
		content.Errors = fields
		h.render(w, r, http.StatusUnprocessableEntity, "checkout", "Checkout", content,
			domain.NewToast(domain.ToastError, validate.FormSummary, ""))
		return
	}

	slog.Error("failed to submit inquiry", "op", op, "err", err)
	h.render(w, r, http.StatusBadGateway, "checkout", "Checkout", content,
		domain.NewToast(domain.ToastError, "Failed to send inquiry", "Please try again."))
}
