package reporting

import (
	"net/http"

	"canteen-connect/internal/logger"
	"canteen-connect/internal/models"
	"canteen-connect/internal/services/auth"
	"canteen-connect/internal/web"
)

// Handler handles HTTP requests for aggregates
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

// Register wires the reporting routes into the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/orders/revenue-stats", h.auth.RequireRole(models.RoleAdmin, h.Revenue))
	mux.HandleFunc("GET /api/orders/ranking", h.auth.RequireRole(models.RoleAdmin, h.Ranking))
	mux.HandleFunc("GET /api/orders/expense-stats", h.auth.Authenticate(h.Expense))
}

// Revenue handles GET /api/orders/revenue-stats
func (h *Handler) Revenue(w http.ResponseWriter, r *http.Request) {
	requestID := web.RequestID(r)

	stats, err := h.service.Revenue(r.Context())
	if err != nil {
		h.logger.Error("reporting_failed", "Failed to compute revenue stats", requestID, err, nil)
		web.WriteServiceError(w, err, requestID)
		return
	}

	web.WriteJSON(w, http.StatusOK, stats)
}

// Ranking handles GET /api/orders/ranking
func (h *Handler) Ranking(w http.ResponseWriter, r *http.Request) {
	requestID := web.RequestID(r)

	ranking, err := h.service.Ranking(r.Context())
	if err != nil {
		h.logger.Error("reporting_failed", "Failed to compute sales ranking", requestID, err, nil)
		web.WriteServiceError(w, err, requestID)
		return
	}

	web.WriteJSON(w, http.StatusOK, ranking)
}

// Expense handles GET /api/orders/expense-stats
func (h *Handler) Expense(w http.ResponseWriter, r *http.Request) {
	requestID := web.RequestID(r)
	identity := auth.IdentityFrom(r.Context())

	stats, err := h.service.Expense(r.Context(), identity.UserID)
	if err != nil {
		h.logger.Error("reporting_failed", "Failed to compute expense stats", requestID, err, nil)
		web.WriteServiceError(w, err, requestID)
		return
	}

	web.WriteJSON(w, http.StatusOK, stats)
}
