package menu

import (
	"encoding/json"
	"net/http"
	"strconv"

	"canteen-connect/internal/logger"
	"canteen-connect/internal/models"
	"canteen-connect/internal/services/auth"
	"canteen-connect/internal/web"
)

// Handler handles HTTP requests for the catalog
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

// Register wires the menu routes into the mux. Mutations are admin
// operations.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/menu", h.auth.Authenticate(h.List))
	mux.HandleFunc("POST /api/menu", h.auth.RequireRole(models.RoleAdmin, h.Create))
	mux.HandleFunc("PUT /api/menu/{id}", h.auth.RequireRole(models.RoleAdmin, h.Update))
	mux.HandleFunc("DELETE /api/menu/{id}", h.auth.RequireRole(models.RoleAdmin, h.Delete))
}

// List handles GET /api/menu
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	requestID := web.RequestID(r)

	items, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("menu_listing_failed", "Failed to list menu items", requestID, err, nil)
		web.WriteServiceError(w, err, requestID)
		return
	}

	web.WriteJSON(w, http.StatusOK, items)
}

// Create handles POST /api/menu
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := web.RequestID(r)

	var req models.UpsertMenuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		web.WriteError(w, http.StatusBadRequest, "Invalid JSON format", requestID)
		return
	}

	item, err := h.service.Create(r.Context(), &req, requestID)
	if err != nil {
		web.WriteServiceError(w, err, requestID)
		return
	}

	web.WriteJSON(w, http.StatusCreated, item)
}

// Update handles PUT /api/menu/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	requestID := web.RequestID(r)

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		web.WriteError(w, http.StatusBadRequest, "Invalid menu item id", requestID)
		return
	}

	var req models.UpsertMenuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		web.WriteError(w, http.StatusBadRequest, "Invalid JSON format", requestID)
		return
	}

	item, err := h.service.Update(r.Context(), id, &req, requestID)
	if err != nil {
		web.WriteServiceError(w, err, requestID)
		return
	}

	web.WriteJSON(w, http.StatusOK, item)
}

// Delete handles DELETE /api/menu/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	requestID := web.RequestID(r)

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		web.WriteError(w, http.StatusBadRequest, "Invalid menu item id", requestID)
		return
	}

	if err := h.service.Delete(r.Context(), id, requestID); err != nil {
		web.WriteServiceError(w, err, requestID)
		return
	}

	web.WriteJSON(w, http.StatusOK, map[string]string{"message": "Menu item deleted"})
}
