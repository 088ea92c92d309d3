package order

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"canteen-connect/internal/logger"
	"canteen-connect/internal/models"
	"canteen-connect/internal/services/auth"
	"canteen-connect/internal/web"
)

// Handler handles HTTP requests for order placement and lifecycle
type Handler struct {
	service *Service
	auth    *auth.Service
	logger  *logger.Logger
}

func NewHandler(service *Service, authService *auth.Service, log *logger.Logger) *Handler {
	return &Handler{
		service: service,
		auth:    authService,
		logger:  log,
	}
}

// Register wires the order routes into the mux. Lifecycle mutations
// and the day listing are staff operations.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/orders", h.auth.Authenticate(h.PlaceOrder))
	mux.HandleFunc("GET /api/orders/mine", h.auth.Authenticate(h.ListMine))
	mux.HandleFunc("GET /api/orders/all", h.auth.RequireRole(models.RoleAdmin, h.ListToday))
	mux.HandleFunc("PATCH /api/orders/{id}/pay", h.auth.RequireRole(models.RoleAdmin, h.MarkPaid))
	mux.HandleFunc("PATCH /api/orders/{id}/ready", h.auth.RequireRole(models.RoleAdmin, h.MarkReady))
}

// PlaceOrder handles POST /api/orders
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	requestID := web.RequestID(r)
	identity := auth.IdentityFrom(r.Context())

	var req models.PlaceOrderRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		h.logger.Error("validation_failed", "Failed to parse request body", requestID, err, nil)
		web.WriteError(w, http.StatusBadRequest, "Invalid JSON format", requestID)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	resp, err := h.service.PlaceOrder(ctx, identity.UserID, &req, requestID)
	if err != nil {
		h.logger.Error("order_admission_failed", "Failed to admit order", requestID, err, map[string]interface{}{
			"user_id": identity.UserID,
		})
		web.WriteServiceError(w, err, requestID)
		return
	}

	web.WriteJSON(w, http.StatusCreated, resp)
}

// ListMine handles GET /api/orders/mine
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	requestID := web.RequestID(r)
	identity := auth.IdentityFrom(r.Context())

	orders, err := h.service.ListOrdersForUser(r.Context(), identity.UserID)
	if err != nil {
		h.logger.Error("order_listing_failed", "Failed to list user orders", requestID, err, map[string]interface{}{
			"user_id": identity.UserID,
		})
		web.WriteServiceError(w, err, requestID)
		return
	}

	web.WriteJSON(w, http.StatusOK, orders)
}

// ListToday handles GET /api/orders/all
func (h *Handler) ListToday(w http.ResponseWriter, r *http.Request) {
	requestID := web.RequestID(r)

	orders, err := h.service.ListOrdersForToday(r.Context())
	if err != nil {
		h.logger.Error("order_listing_failed", "Failed to list today's orders", requestID, err, nil)
		web.WriteServiceError(w, err, requestID)
		return
	}

	web.WriteJSON(w, http.StatusOK, orders)
}

// MarkPaid handles PATCH /api/orders/{id}/pay
func (h *Handler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.service.MarkPaid)
}

// MarkReady handles PATCH /api/orders/{id}/ready
func (h *Handler) MarkReady(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.service.MarkReady)
}

func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, op func(context.Context, int64, string) (*models.Order, error)) {
	requestID := web.RequestID(r)

	orderID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || orderID <= 0 {
		web.WriteError(w, http.StatusBadRequest, "Invalid order id", requestID)
		return
	}

	o, err := op(r.Context(), orderID, requestID)
	if err != nil {
		web.WriteServiceError(w, err, requestID)
		return
	}

	web.WriteJSON(w, http.StatusOK, o)
}
