package httppresentation

import (
	"net/http"

	appaddress "github.com/Zhima-Mochi/minishop-checkout/internal/application/address"
	domaddr "github.com/Zhima-Mochi/minishop-checkout/internal/domain/address"
)

type addressBody struct {
	City      string `json:"city"`
	Street    string `json:"street"`
	House     string `json:"house"`
	Building  string `json:"building"`
	Apartment string `json:"apartment"`
}

func (b addressBody) fields() domaddr.Fields {
	return domaddr.Fields{
		City:      b.City,
		Street:    b.Street,
		House:     b.House,
		Building:  b.Building,
		Apartment: b.Apartment,
	}
}

type addressResponse struct {
	ID int64 `json:"id"`
	addressBody
	IsActive bool `json:"is_active"`
}

func toAddress(a *domaddr.Address) addressResponse {
	return addressResponse{
		ID: a.ID,
		addressBody: addressBody{
			City:      a.City,
			Street:    a.Street,
			House:     a.House,
			Building:  a.Building,
			Apartment: a.Apartment,
		},
		IsActive: a.IsActive,
	}
}

func (h *Handler) handleListAddresses(w http.ResponseWriter, r *http.Request) {
	buyer, ok := buyerFrom(w, r)
	if !ok {
		return
	}
	addrs, err := h.svc.Addresses.ListActive(r.Context(), buyer.ID)
	if err != nil {
		writeDomainError(r.Context(), w, h.log, err)
		return
	}
	out := make([]addressResponse, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, toAddress(a))
	}
	writeJSON(w, http.StatusOK, out)
}

// handleResolveAddress answers 201 when an address was created or reactivated
// and 409 when the same address is already active.
func (h *Handler) handleResolveAddress(w http.ResponseWriter, r *http.Request) {
	buyer, ok := buyerFrom(w, r)
	if !ok {
		return
	}
	var req addressBody
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Malformed request body.")
		return
	}
	addr, outcome, err := h.svc.Addresses.Resolve(r.Context(), buyer.ID, req.fields())
	if err != nil {
		writeDomainError(r.Context(), w, h.log, err)
		return
	}
	if outcome == appaddress.OutcomeExisting {
		writeError(w, http.StatusConflict, "Address already exists and is active.")
		return
	}
	writeJSON(w, http.StatusCreated, toAddress(addr))
}

func (h *Handler) handleGetAddress(w http.ResponseWriter, r *http.Request) {
	buyer, ok := buyerFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, domaddr.ErrNotFound.Error())
		return
	}
	addr, err := h.svc.Addresses.Get(r.Context(), buyer.ID, id)
	if err != nil {
		writeDomainError(r.Context(), w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toAddress(addr))
}

type patchAddressRequest struct {
	City      *string `json:"city"`
	Street    *string `json:"street"`
	House     *string `json:"house"`
	Building  *string `json:"building"`
	Apartment *string `json:"apartment"`
}

func (h *Handler) handlePatchAddress(w http.ResponseWriter, r *http.Request) {
	buyer, ok := buyerFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, domaddr.ErrNotFound.Error())
		return
	}
	var req patchAddressRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Malformed request body.")
		return
	}
	addr, err := h.svc.Addresses.Patch(r.Context(), buyer.ID, id, appaddress.PatchInput{
		City:      req.City,
		Street:    req.Street,
		House:     req.House,
		Building:  req.Building,
		Apartment: req.Apartment,
	})
	if err != nil {
		writeDomainError(r.Context(), w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toAddress(addr))
}

func (h *Handler) handleDeactivateAddress(w http.ResponseWriter, r *http.Request) {
	buyer, ok := buyerFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, domaddr.ErrNotFound.Error())
		return
	}
	if err := h.svc.Addresses.Deactivate(r.Context(), buyer.ID, id); err != nil {
		writeDomainError(r.Context(), w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
