package httppresentation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appaddress "github.com/Zhima-Mochi/minishop-checkout/internal/application/address"
	appcart "github.com/Zhima-Mochi/minishop-checkout/internal/application/cart"
	appinventory "github.com/Zhima-Mochi/minishop-checkout/internal/application/inventory"
	apporder "github.com/Zhima-Mochi/minishop-checkout/internal/application/order"
	domoutbox "github.com/Zhima-Mochi/minishop-checkout/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-checkout/internal/infrastructure/memory"
)

type discardPublisher struct{}

func (discardPublisher) Publish(context.Context, domoutbox.Event) error { return nil }

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	uow := memory.NewStore()
	h := NewHandler(Services{
		Ledger:    appinventory.NewLedger(uow, nil),
		Cart:      appcart.NewStore(uow, nil),
		Addresses: appaddress.NewBook(uow, nil),
		Convert:   apporder.NewConvertCartUseCase(uow, discardPublisher{}, nil),
		History:   apporder.NewHistory(uow, nil),
	}, nil, nil)
	srv := httptest.NewServer(h.Router())
	t.Cleanup(srv.Close)
	return srv
}

func call(t *testing.T, srv *httptest.Server, method, path, buyer, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if buyer != "" {
		req.Header.Set(headerBuyerID, buyer)
		req.Header.Set(headerBuyerEmail, "buyer@example.com")
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func seedStock(t *testing.T, srv *httptest.Server, id, body string) {
	t.Helper()
	resp := call(t, srv, http.MethodPut, "/products/"+id+"/stock", "", body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestBuyerRoutesRequireIdentity(t *testing.T) {
	srv := newTestServer(t)
	for _, tc := range []struct{ method, path, buyer string }{
		{http.MethodGet, "/buyer/cart", ""},
		{http.MethodGet, "/buyer/orders", "abc"},
		{http.MethodGet, "/buyer/addresses", "0"},
	} {
		resp := call(t, srv, tc.method, tc.path, tc.buyer, "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, tc.path)
		assert.Equal(t, "Authentication credentials were not provided.", decode[errorResponse](t, resp).Detail)
	}
}

func TestStockRoutes(t *testing.T) {
	srv := newTestServer(t)
	seedStock(t, srv, "3", `{"price":"12.5","quantity":4}`)

	resp := call(t, srv, http.MethodGet, "/products/3/stock", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	stock := decode[stockResponse](t, resp)
	assert.Equal(t, "12.50", stock.Price)
	assert.Equal(t, 4, stock.Quantity)
	assert.Equal(t, "in_stock", string(stock.Status))

	resp = call(t, srv, http.MethodPut, "/products/3/stock", "", `{"price":"0","quantity":1}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = call(t, srv, http.MethodPost, "/products/3/withdraw", "", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	stock = decode[stockResponse](t, call(t, srv, http.MethodGet, "/products/3/stock", "", ""))
	assert.Equal(t, "withdrawn", string(stock.Status))

	resp = call(t, srv, http.MethodGet, "/products/99/stock", "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCartRoutes(t *testing.T) {
	srv := newTestServer(t)
	seedStock(t, srv, "1", `{"price":"2.5","quantity":10}`)

	resp := call(t, srv, http.MethodPut, "/buyer/cart/position", "5", `{"product_card":1,"quantity":3}`)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp = call(t, srv, http.MethodPut, "/buyer/cart/position", "5", `{"product_card":1,"quantity":4}`)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = call(t, srv, http.MethodPut, "/buyer/cart/position", "5", `{"quantity":4}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decode[errorResponse](t, resp).Fields, "product_card")

	resp = call(t, srv, http.MethodGet, "/buyer/cart", "5", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cart := decode[cartResponse](t, resp)
	require.Len(t, cart.Available, 1)
	assert.Empty(t, cart.Unavailable)
	assert.Equal(t, 4, cart.Available[0].Quantity)
	assert.Equal(t, "10.00000", cart.Available[0].Sum)
	assert.Equal(t, "10.00000", cart.Total)

	resp = call(t, srv, http.MethodDelete, "/buyer/cart/position", "5", `{"product_card":2}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = call(t, srv, http.MethodDelete, "/buyer/cart", "5", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

const recipientJSON = `{
	"first_name": "anna",
	"last_name": "smirnova",
	"email": "anna@example.com",
	"phone": "+79000000000",
	"address": {"city": "Moscow", "street": "Arbat", "house": "1"}
}`

func TestConvertAndReadOrders(t *testing.T) {
	srv := newTestServer(t)
	seedStock(t, srv, "1", `{"price":"2.5","quantity":10}`)

	resp := call(t, srv, http.MethodPost, "/buyer/orders", "5", recipientJSON)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	call(t, srv, http.MethodPut, "/buyer/cart/position", "5", `{"product_card":1,"quantity":2}`)
	resp = call(t, srv, http.MethodPost, "/buyer/orders", "5", recipientJSON)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[convertResponse](t, resp)
	assert.Positive(t, created.ID)

	resp = call(t, srv, http.MethodGet, "/buyer/orders", "5", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	orders := decode[[]orderResponse](t, resp)
	require.Len(t, orders, 1)
	assert.Equal(t, "new", string(orders[0].Status))
	assert.Equal(t, "5.00000", orders[0].Total)
	assert.Nil(t, orders[0].Address)

	resp = call(t, srv, http.MethodGet, "/buyer/orders?date=yesterday", "5", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	path := "/buyer/orders/" + itoa(created.ID)
	resp = call(t, srv, http.MethodGet, path, "5", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	order := decode[orderResponse](t, resp)
	require.NotNil(t, order.Address)
	assert.Equal(t, "Moscow", order.Address.City)
	assert.Equal(t, "Anna", order.FirstName)

	resp = call(t, srv, http.MethodGet, path, "6", "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = call(t, srv, http.MethodPatch, "/orders/"+itoa(created.ID)+"/status", "", `{"status":"lost"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp = call(t, srv, http.MethodPatch, "/orders/"+itoa(created.ID)+"/status", "", `{"status":"delivered"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp = call(t, srv, http.MethodPatch, "/orders/"+itoa(created.ID)+"/status", "", `{"status":"confirmed"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "confirmed", string(decode[orderResponse](t, resp).Status))
}

func TestAddressRoutes(t *testing.T) {
	srv := newTestServer(t)
	body := `{"city":"Moscow","street":"Arbat","house":"1"}`

	resp := call(t, srv, http.MethodPost, "/buyer/addresses", "5", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	addr := decode[addressResponse](t, resp)
	assert.True(t, addr.IsActive)

	resp = call(t, srv, http.MethodPost, "/buyer/addresses", "5", body)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	path := "/buyer/addresses/" + itoa(addr.ID)
	resp = call(t, srv, http.MethodPatch, path, "5", `{"apartment":"12"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "12", decode[addressResponse](t, resp).Apartment)

	resp = call(t, srv, http.MethodGet, path, "6", "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = call(t, srv, http.MethodDelete, path, "5", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	list := decode[[]addressResponse](t, call(t, srv, http.MethodGet, "/buyer/addresses", "5", ""))
	assert.Empty(t, list)
}

func TestRequestIDEcho(t *testing.T) {
	srv := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set(headerRequestID, "req-42")
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "req-42", resp.Header.Get(headerRequestID))

	resp2 := call(t, srv, http.MethodGet, "/health", "", "")
	assert.NotEmpty(t, resp2.Header.Get(headerRequestID))
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }
