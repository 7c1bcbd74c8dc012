// Package httpapi exposes UserService over JSON/HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/parametrik/internal/common"
	"github.com/dmitrijs2005/parametrik/internal/logging"
	"github.com/dmitrijs2005/parametrik/internal/server/models"
)

// maxBodyBytes caps request bodies; credential payloads are tiny.
const maxBodyBytes = 1 << 16

// UserService is the subset of services.UserService used by the handlers.
type UserService interface {
	Register(ctx context.Context, name, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (string, error)
	Authenticate(ctx context.Context, token string) (string, error)
}

type CreateUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type CreateUserTokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type CreateUserTokenResponse struct {
	AccessToken string `json:"accessToken"`
}

type MeResponse struct {
	Email string `json:"email"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type Handler struct {
	users  UserService
	logger logging.Logger
}

func NewHandler(users UserService, logger logging.Logger) *Handler {
	return &Handler{users: users, logger: logger}
}

// CreateUser handles POST /v1/users.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.users.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrorInvalidArgument) {
			h.sendError(w, "email and password are required", http.StatusBadRequest)
			return
		}
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.sendJSON(w, user, http.StatusCreated)
}

// CreateUserToken handles POST /v1/user_tokens.
func (h *Handler) CreateUserToken(w http.ResponseWriter, r *http.Request) {
	var req CreateUserTokenRequest
	if !h.decode(w, r, &req) {
		return
	}

	token, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			h.sendError(w, "invalid credentials", http.StatusForbidden)
			return
		}
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.sendJSON(w, CreateUserTokenResponse{AccessToken: token}, http.StatusOK)
}

// Me handles GET /v1/me. It runs behind RequireBearer.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	subject, ok := SubjectFromContext(r.Context())
	if !ok {
		h.sendError(w, "missing token", http.StatusUnauthorized)
		return
	}
	h.sendJSON(w, MeResponse{Email: subject}, http.StatusOK)
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.sendJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.logger.Warn(r.Context(), "failed to decode request", "path", r.URL.Path, "error", err)
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func (h *Handler) sendJSON(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error(context.Background(), "failed to encode JSON response", "error", err)
	}
}

func (h *Handler) sendError(w http.ResponseWriter, message string, statusCode int) {
	h.sendJSON(w, ErrorResponse{Error: http.StatusText(statusCode), Message: message}, statusCode)
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if len(header) <= len(common.BearerPrefix) || !strings.EqualFold(header[:len(common.BearerPrefix)], common.BearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(common.BearerPrefix):])
	return token, token != ""
}
