package httppresentation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/Zhima-Mochi/minishop-checkout/internal/application"
	appaddress "github.com/Zhima-Mochi/minishop-checkout/internal/application/address"
	appcart "github.com/Zhima-Mochi/minishop-checkout/internal/application/cart"
	appinventory "github.com/Zhima-Mochi/minishop-checkout/internal/application/inventory"
	apporder "github.com/Zhima-Mochi/minishop-checkout/internal/application/order"
	domaddr "github.com/Zhima-Mochi/minishop-checkout/internal/domain/address"
	domcart "github.com/Zhima-Mochi/minishop-checkout/internal/domain/cart"
	dominv "github.com/Zhima-Mochi/minishop-checkout/internal/domain/inventory"
	domorder "github.com/Zhima-Mochi/minishop-checkout/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-checkout/internal/observability"
	"github.com/Zhima-Mochi/minishop-checkout/internal/observability/logctx"
)

// Services are the use cases the HTTP surface drives.
type Services struct {
	Ledger    *appinventory.Ledger
	Cart      *appcart.Store
	Addresses *appaddress.Book
	Convert   *apporder.ConvertCartUseCase
	History   *apporder.History
}

type Handler struct {
	svc Services
	log observability.Logger
	tel observability.Observability

	requests observability.Counter
	duration observability.Histogram
}

const (
	componentHTTPHandler = "http_server"
	headerRequestID      = "X-Request-ID"
	headerBuyerID        = "X-Buyer-ID"
	headerBuyerEmail     = "X-Buyer-Email"
)

func NewHandler(svc Services, logger observability.Logger, tel observability.Observability) *Handler {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = observability.NopLogger()
	}
	metricsProvider := observability.NopMetrics()
	if tel != nil {
		metricsProvider = tel.Metrics()
	}
	return &Handler{
		svc:      svc,
		log:      baseLogger.With(observability.F("component", componentHTTPHandler)),
		tel:      tel,
		requests: metricsProvider.Counter(observability.MHTTPRequests),
		duration: metricsProvider.Histogram(observability.MHTTPRequestDuration),
	}
}

// Router wires every route with Trace → request logger → access log → metrics → handler.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()

	h.muxHandle(r, http.MethodGet, "/buyer/cart", h.handleReadCart)
	h.muxHandle(r, http.MethodDelete, "/buyer/cart", h.handleClearCart)
	h.muxHandle(r, http.MethodPut, "/buyer/cart/position", h.handleUpsertPosition)
	h.muxHandle(r, http.MethodDelete, "/buyer/cart/position", h.handleRemovePosition)

	h.muxHandle(r, http.MethodPost, "/buyer/orders", h.handleConvertCart)
	h.muxHandle(r, http.MethodGet, "/buyer/orders", h.handleListOrders)
	h.muxHandle(r, http.MethodGet, "/buyer/orders/{id:[0-9]+}", h.handleGetOrder)

	h.muxHandle(r, http.MethodGet, "/buyer/addresses", h.handleListAddresses)
	h.muxHandle(r, http.MethodPost, "/buyer/addresses", h.handleResolveAddress)
	h.muxHandle(r, http.MethodGet, "/buyer/addresses/{id:[0-9]+}", h.handleGetAddress)
	h.muxHandle(r, http.MethodPatch, "/buyer/addresses/{id:[0-9]+}", h.handlePatchAddress)
	h.muxHandle(r, http.MethodDelete, "/buyer/addresses/{id:[0-9]+}", h.handleDeactivateAddress)

	h.muxHandle(r, http.MethodPatch, "/orders/{id:[0-9]+}/status", h.handleChangeStatus)

	h.muxHandle(r, http.MethodGet, "/products/{id:[0-9]+}/stock", h.handleGetStock)
	h.muxHandle(r, http.MethodPut, "/products/{id:[0-9]+}/stock", h.handlePutStock)
	h.muxHandle(r, http.MethodPost, "/products/{id:[0-9]+}/withdraw", h.handleWithdraw)

	h.muxHandle(r, http.MethodGet, "/health", h.handleHealth)

	return r
}

func (h *Handler) muxHandle(r *mux.Router, method, route string, handler http.HandlerFunc) {
	template := method + " " + route
	wrapped := h.withTrace(
		ObservabilityMiddleware(
			h.log,
			func(r *http.Request) string {
				return r.Header.Get(headerRequestID)
			},
		)(
			h.withAccessLog(
				h.withHTTPMetrics(handler),
			),
		),
	)
	r.Handle(route, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		// Store stable route template for low-cardinality labels
		wrapped.ServeHTTP(w, req.WithContext(contextWithRoute(req.Context(), template)))
	})).Methods(method)
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// withAccessLog writes a single access log after the handler completes.
// It relies on the request-scoped logger already injected by ObservabilityMiddleware.
func (h *Handler) withAccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(lrw, r)

		logctx.FromOr(r.Context(), h.log).Info("http_access",
			observability.F("method", r.Method),
			observability.F("route", routeFromContext(r.Context())),
			observability.F("path", r.URL.Path),
			observability.F("status", lrw.status),
			observability.F("latency_ms", time.Since(start).Milliseconds()),
		)
	})
}

// withTrace creates a server span for the request using OTel and W3C propagation.
func (h *Handler) withTrace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tracer := otel.Tracer("checkout.http")
		parentCtx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

		route := routeFromContext(parentCtx)
		template := route
		if idx := strings.Index(template, " "); idx >= 0 {
			template = template[idx+1:]
		}

		ctxWithSpan, span := tracer.Start(parentCtx,
			route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.route", template),
				attribute.String("http.target", r.URL.Path),
				attribute.String("http.user_agent", r.UserAgent()),
			),
		)
		defer span.End()

		lrw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(lrw, r.WithContext(ctxWithSpan))

		span.SetAttributes(attribute.Int("http.status_code", lrw.status))
		if lrw.status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(lrw.status))
		}
	})
}

// withHTTPMetrics records RED-ish HTTP metrics using injected vectors.
func (h *Handler) withHTTPMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(lrw, r)

		labels := []observability.Label{
			observability.L("method", r.Method),
			observability.L("route", routeFromContext(r.Context())),
			observability.L("status", strconv.Itoa(lrw.status)),
		}
		h.requests.Add(1, labels...)
		h.duration.Observe(time.Since(start).Seconds(), labels...)
	})
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type errorResponse struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

func writeDomainError(ctx context.Context, w http.ResponseWriter, log observability.Logger, err error) {
	var verr *application.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "Invalid input.", Fields: verr.Fields})
	case errors.Is(err, application.ErrPermissionDenied):
		writeError(w, http.StatusForbidden, "You do not have permission to perform this action.")
	case errors.Is(err, domcart.ErrLineNotFound),
		errors.Is(err, domaddr.ErrNotFound),
		errors.Is(err, domorder.ErrNotFound),
		errors.Is(err, dominv.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domorder.ErrEmptyCart),
		errors.Is(err, domaddr.ErrLimitExceeded),
		errors.Is(err, domaddr.ErrDuplicate),
		errors.Is(err, dominv.ErrInsufficientStock),
		errors.Is(err, domorder.ErrInvalidStateTransition):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, dominv.ErrInvalidQuantity),
		errors.Is(err, dominv.ErrInvalidPrice):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		logctx.FromOr(ctx, log).Error("http_internal_error", observability.F("error", err))
		writeError(w, http.StatusInternalServerError, "Internal server error.")
	}
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id, err == nil && id > 0
}

type routeKey struct{}

// contextWithRoute stores the stable route template in the context so downstream
// metrics/logging can rely on low-cardinality values.
func contextWithRoute(ctx context.Context, route string) context.Context {
	if route == "" {
		return ctx
	}
	return context.WithValue(ctx, routeKey{}, route)
}

func routeFromContext(ctx context.Context) string {
	if ctx == nil {
		return "unknown"
	}
	if route, ok := ctx.Value(routeKey{}).(string); ok && route != "" {
		return route
	}
	return "unknown"
}
