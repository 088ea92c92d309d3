package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"canteen-connect/internal/logger"
	"canteen-connect/internal/models"
	"canteen-connect/internal/web"
)

// Handler handles HTTP requests for registration and login
type Handler struct {
	service *Service
	logger  *logger.Logger
}

func NewHandler(service *Service, log *logger.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  log,
	}
}

// Register wires the auth routes into the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/register", h.RegisterUser)
	mux.HandleFunc("POST /api/auth/login", h.Login)
}

// RegisterUser handles POST /api/auth/register
func (h *Handler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	requestID := web.RequestID(r)

	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		web.WriteError(w, http.StatusBadRequest, "Invalid JSON format", requestID)
		return
	}

	if err := h.service.Register(r.Context(), &req, requestID); err != nil {
		web.WriteServiceError(w, err, requestID)
		return
	}

	web.WriteJSON(w, http.StatusCreated, map[string]string{"message": "User registered successfully"})
}

// Login handles POST /api/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	requestID := web.RequestID(r)

	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		web.WriteError(w, http.StatusBadRequest, "Invalid JSON format", requestID)
		return
	}

	resp, err := h.service.Login(r.Context(), &req, requestID)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			web.WriteError(w, http.StatusBadRequest, "Invalid credentials", requestID)
			return
		}
		web.WriteServiceError(w, err, requestID)
		return
	}

	web.WriteJSON(w, http.StatusOK, resp)
}
