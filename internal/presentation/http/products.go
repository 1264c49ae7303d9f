package httppresentation

import (
	"net/http"

	"github.com/shopspring/decimal"

	dominv "github.com/Zhima-Mochi/minishop-checkout/internal/domain/inventory"
)

type stockResponse struct {
	ProductCard int64         `json:"product_card"`
	Price       string        `json:"price"`
	Quantity    int           `json:"quantity"`
	Status      dominv.Status `json:"status"`
}

func toStock(s *dominv.Stock) stockResponse {
	return stockResponse{
		ProductCard: s.ProductID,
		Price:       s.Price.StringFixed(dominv.PricePlaces),
		Quantity:    s.Quantity,
		Status:      s.Status,
	}
}

func (h *Handler) handleGetStock(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, dominv.ErrNotFound.Error())
		return
	}
	stock, err := h.svc.Ledger.Get(r.Context(), id)
	if err != nil {
		writeDomainError(r.Context(), w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toStock(stock))
}

type putStockRequest struct {
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

// handlePutStock seeds or replaces a stock record for the seller side.
func (h *Handler) handlePutStock(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, dominv.ErrNotFound.Error())
		return
	}
	var req putStockRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Malformed request body.")
		return
	}
	stock, err := dominv.NewStock(id, req.Price, req.Quantity)
	if err != nil {
		writeDomainError(r.Context(), w, h.log, err)
		return
	}
	if err := h.svc.Ledger.Put(r.Context(), stock); err != nil {
		writeDomainError(r.Context(), w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toStock(stock))
}

func (h *Handler) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, dominv.ErrNotFound.Error())
		return
	}
	if err := h.svc.Ledger.Withdraw(r.Context(), id); err != nil {
		writeDomainError(r.Context(), w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
