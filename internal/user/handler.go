package user

import (
	"context"
	"net/http"
	"strconv"

	apperrors "github.com/frahmantamala/identity-service/internal"
	"github.com/frahmantamala/identity-service/internal/core/identity"
	"github.com/frahmantamala/identity-service/internal/transport"
	"github.com/go-chi/chi"
	"github.com/google/uuid"
)

type ServiceAPI interface {
	GetByID(ctx context.Context, userID string) (*User, error)
	GetAll(ctx context.Context) ([]*User, error)
	GetPaged(ctx context.Context, pageNumber, pageSize int) (*PagedResponse, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(base *transport.BaseHandler, svc ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: base,
		Service:     svc,
	}
}

// GetCurrentUser handles GET /users/me
func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity.FromContext(r.Context())
	if !ok {
		h.HandleError(w, apperrors.ErrAuthenticationReq)
		return
	}

	u, err := h.Service.GetByID(r.Context(), caller.UserID)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, u)
}

// GetUser handles GET /users/{id}
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.HandleError(w, apperrors.ErrUserNotFound)
		return
	}

	u, err := h.Service.GetByID(r.Context(), id.String())
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, u)
}

// GetUsers handles GET /users
func (h *Handler) GetUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.GetAll(r.Context())
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, UsersResponse{Users: users})
}

// GetUsersPaged handles GET /users/paged?pageNumber=&pageSize=
func (h *Handler) GetUsersPaged(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	pageNumber := queryInt(q.Get("pageNumber"), 1)
	pageSize := queryInt(q.Get("pageSize"), DefaultPageSize)

	page, err := h.Service.GetPaged(r.Context(), pageNumber, pageSize)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, page)
}

func queryInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
