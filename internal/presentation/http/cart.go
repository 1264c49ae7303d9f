package httppresentation

import (
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/Zhima-Mochi/minishop-checkout/internal/application"
	appcart "github.com/Zhima-Mochi/minishop-checkout/internal/application/cart"
	domcart "github.com/Zhima-Mochi/minishop-checkout/internal/domain/cart"
	dominv "github.com/Zhima-Mochi/minishop-checkout/internal/domain/inventory"
	domorder "github.com/Zhima-Mochi/minishop-checkout/internal/domain/order"
)

// buyerFrom reads the identity the authentication gateway forwards. A missing
// or malformed buyer id is answered with 401.
func buyerFrom(w http.ResponseWriter, r *http.Request) (application.Buyer, bool) {
	id, err := strconv.ParseInt(r.Header.Get(headerBuyerID), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
		return application.Buyer{}, false
	}
	return application.Buyer{ID: id, Email: r.Header.Get(headerBuyerEmail)}, true
}

type positionResponse struct {
	ProductCard int64         `json:"product_card"`
	Quantity    int           `json:"quantity"`
	Price       string        `json:"price"`
	Sum         string        `json:"sum"`
	InStock     int           `json:"in_stock"`
	Status      dominv.Status `json:"status"`
}

type cartResponse struct {
	Available   []positionResponse `json:"available_positions"`
	Unavailable []positionResponse `json:"unavailable_positions"`
	Total       string             `json:"total"`
}

func toPositions(ps []domcart.Position) []positionResponse {
	out := make([]positionResponse, 0, len(ps))
	for _, p := range ps {
		out = append(out, positionResponse{
			ProductCard: p.ProductID,
			Quantity:    p.Quantity,
			Price:       p.Stock.Price.StringFixed(dominv.PricePlaces),
			Sum:         money(p.Subtotal()),
			InStock:     p.Stock.Quantity,
			Status:      p.Stock.Status,
		})
	}
	return out
}

// money renders amounts with the order line precision.
func money(d decimal.Decimal) string {
	return d.StringFixed(domorder.PricePlaces)
}

func (h *Handler) handleReadCart(w http.ResponseWriter, r *http.Request) {
	buyer, ok := buyerFrom(w, r)
	if !ok {
		return
	}
	view, err := h.svc.Cart.ReadView(r.Context(), buyer.ID)
	if err != nil {
		writeDomainError(r.Context(), w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, cartResponse{
		Available:   toPositions(view.Available),
		Unavailable: toPositions(view.Unavailable),
		Total:       money(view.Total),
	})
}

func (h *Handler) handleClearCart(w http.ResponseWriter, r *http.Request) {
	buyer, ok := buyerFrom(w, r)
	if !ok {
		return
	}
	if err := h.svc.Cart.ClearAll(r.Context(), buyer.ID); err != nil {
		writeDomainError(r.Context(), w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type positionRequest struct {
	ProductCard int64 `json:"product_card"`
	Quantity    int   `json:"quantity"`
}

func (h *Handler) handleUpsertPosition(w http.ResponseWriter, r *http.Request) {
	buyer, ok := buyerFrom(w, r)
	if !ok {
		return
	}
	var req positionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Malformed request body.")
		return
	}
	if req.ProductCard <= 0 {
		writeDomainError(r.Context(), w, h.log, application.FieldError("product_card", "This field is required."))
		return
	}

	res, err := h.svc.Cart.UpsertLine(r.Context(), appcart.UpsertLineInput{
		BuyerID:   buyer.ID,
		ProductID: req.ProductCard,
		Quantity:  req.Quantity,
	})
	if err != nil {
		writeDomainError(r.Context(), w, h.log, err)
		return
	}
	if res.Created {
		writeJSON(w, http.StatusCreated, req)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type removePositionRequest struct {
	ProductCard int64 `json:"product_card"`
}

func (h *Handler) handleRemovePosition(w http.ResponseWriter, r *http.Request) {
	buyer, ok := buyerFrom(w, r)
	if !ok {
		return
	}
	var req removePositionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Malformed request body.")
		return
	}
	if err := h.svc.Cart.RemoveLine(r.Context(), buyer.ID, req.ProductCard); err != nil {
		writeDomainError(r.Context(), w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
