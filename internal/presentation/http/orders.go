package httppresentation

import (
	"net/http"
	"time"

	"github.com/Zhima-Mochi/minishop-checkout/internal/application"
	apporder "github.com/Zhima-Mochi/minishop-checkout/internal/application/order"
	domorder "github.com/Zhima-Mochi/minishop-checkout/internal/domain/order"
)

type recipientBody struct {
	FirstName  string      `json:"first_name"`
	LastName   string      `json:"last_name"`
	MiddleName string      `json:"middle_name"`
	Email      string      `json:"email"`
	Phone      string      `json:"phone"`
	Address    addressBody `json:"address"`
}

type convertResponse struct {
	ID int64 `json:"id"`
}

func (h *Handler) handleConvertCart(w http.ResponseWriter, r *http.Request) {
	buyer, ok := buyerFrom(w, r)
	if !ok {
		return
	}
	var req recipientBody
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Malformed request body.")
		return
	}

	res, err := h.svc.Convert.Execute(r.Context(), apporder.ConvertCartInput{
		Buyer: buyer,
		Recipient: domorder.Recipient{
			FirstName:  req.FirstName,
			LastName:   req.LastName,
			MiddleName: req.MiddleName,
			Email:      req.Email,
			Phone:      req.Phone,
		},
		Address: req.Address.fields(),
	})
	if err != nil {
		writeDomainError(r.Context(), w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, convertResponse{ID: res.OrderID})
}

type orderLineResponse struct {
	ProductCard int64  `json:"product_card"`
	Price       string `json:"price"`
	Quantity    int    `json:"quantity"`
	Sum         string `json:"sum"`
}

type orderResponse struct {
	ID          int64               `json:"id"`
	Status      domorder.Status     `json:"status"`
	FirstName   string              `json:"first_name"`
	LastName    string              `json:"last_name"`
	MiddleName  string              `json:"middle_name"`
	Email       string              `json:"email"`
	Phone       string              `json:"phone"`
	AddressID   int64               `json:"address_id"`
	Address     *addressResponse    `json:"address,omitempty"`
	Positions   []orderLineResponse `json:"positions"`
	Total       string              `json:"total"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
	DeliveredAt *time.Time          `json:"delivered_at"`
}

func toOrder(o *domorder.Order) orderResponse {
	lines := make([]orderLineResponse, 0, len(o.Lines))
	for _, l := range o.Lines {
		lines = append(lines, orderLineResponse{
			ProductCard: l.ProductID,
			Price:       money(l.Price),
			Quantity:    l.Quantity,
			Sum:         money(l.Subtotal()),
		})
	}
	return orderResponse{
		ID:          o.ID,
		Status:      o.Status,
		FirstName:   o.FirstName,
		LastName:    o.LastName,
		MiddleName:  o.MiddleName,
		Email:       o.Email,
		Phone:       o.Phone,
		AddressID:   o.AddressID,
		Positions:   lines,
		Total:       money(o.Total()),
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
		DeliveredAt: o.DeliveredAt,
	}
}

func (h *Handler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	buyer, ok := buyerFrom(w, r)
	if !ok {
		return
	}
	orders, err := h.svc.History.List(r.Context(), buyer.ID, r.URL.Query().Get("date"))
	if err != nil {
		writeDomainError(r.Context(), w, h.log, err)
		return
	}
	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrder(o))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	buyer, ok := buyerFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, domorder.ErrNotFound.Error())
		return
	}
	details, err := h.svc.History.Get(r.Context(), buyer.ID, id)
	if err != nil {
		writeDomainError(r.Context(), w, h.log, err)
		return
	}
	resp := toOrder(details.Order)
	addr := toAddress(details.Address)
	resp.Address = &addr
	writeJSON(w, http.StatusOK, resp)
}

type statusRequest struct {
	Status string `json:"status"`
}

// handleChangeStatus serves the seller side; authorizing the caller is the gateway's job.
func (h *Handler) handleChangeStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, domorder.ErrNotFound.Error())
		return
	}
	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Malformed request body.")
		return
	}
	to, err := domorder.ParseStatus(req.Status)
	if err != nil {
		writeDomainError(r.Context(), w, h.log, application.FieldError("status", err.Error()))
		return
	}
	o, err := h.svc.History.ChangeStatus(r.Context(), id, to)
	if err != nil {
		writeDomainError(r.Context(), w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrder(o))
}
