package permission

import (
	"context"
	"net/http"

	apperrors "github.com/frahmantamala/identity-service/internal"
	customValidation "github.com/frahmantamala/identity-service/internal/core/common/validation"
	"github.com/frahmantamala/identity-service/internal/transport"
	"github.com/go-chi/chi"
	"github.com/google/uuid"
)

type DirectoryAPI interface {
	Create(ctx context.Context, dto CreatePermissionDTO) (*Permission, error)
	GetAll(ctx context.Context) ([]*Permission, error)
	GetByKey(ctx context.Context, key string) (*Permission, error)
}

type AssignmentAPI interface {
	Assign(ctx context.Context, userID string, keys []string) error
	Revoke(ctx context.Context, userID string, keys []string) error
	UserPermissions(ctx context.Context, userID string) ([]string, error)
}

type Handler struct {
	*transport.BaseHandler
	Directory   DirectoryAPI
	Assignments AssignmentAPI
}

func NewHandler(base *transport.BaseHandler, directory DirectoryAPI, assignments AssignmentAPI) *Handler {
	return &Handler{
		BaseHandler: base,
		Directory:   directory,
		Assignments: assignments,
	}
}

// GetPermissions handles GET /permissions
func (h *Handler) GetPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.Directory.GetAll(r.Context())
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, PermissionsResponse{Permissions: perms})
}

// GetPermission handles GET /permissions/{key}
func (h *Handler) GetPermission(w http.ResponseWriter, r *http.Request) {
	p, err := h.Directory.GetByKey(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, p)
}

// CreatePermission handles POST /permissions
func (h *Handler) CreatePermission(w http.ResponseWriter, r *http.Request) {
	var dto CreatePermissionDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.HandleError(w, appErr)
		return
	}

	p, err := h.Directory.Create(r.Context(), dto)
	if err != nil {
		if appErr, ok := apperrors.IsAppError(err); ok && appErr.Type == apperrors.ErrorTypeConflict {
			h.Logger.WarnContext(r.Context(), "permission create rejected", "key", dto.Key, "reason", appErr.Message)
		}
		h.HandleServiceError(w, r, err)
		return
	}

	w.Header().Set("Location", "/api/v1/permissions/"+p.Key)
	h.WriteJSON(w, http.StatusCreated, p)
}

// GetUserPermissions handles GET /users/{id}/permissions
func (h *Handler) GetUserPermissions(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	keys, err := h.Assignments.UserPermissions(r.Context(), userID)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, UserPermissionsResponse{UserID: userID, Permissions: keys})
}

// AssignUserPermissions handles POST /users/{id}/permissions
func (h *Handler) AssignUserPermissions(w http.ResponseWriter, r *http.Request) {
	h.updateUserPermissions(w, r, h.Assignments.Assign)
}

// RevokeUserPermissions handles DELETE /users/{id}/permissions
func (h *Handler) RevokeUserPermissions(w http.ResponseWriter, r *http.Request) {
	h.updateUserPermissions(w, r, h.Assignments.Revoke)
}

func (h *Handler) updateUserPermissions(w http.ResponseWriter, r *http.Request, apply func(context.Context, string, []string) error) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var dto UpdateUserPermissionsDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.HandleError(w, appErr)
		return
	}
	if err := dto.Validate(); err != nil {
		h.HandleServiceError(w, r, customValidation.WrapValidationError(err))
		return
	}

	if err := apply(r.Context(), userID, dto.Permissions); err != nil {
		h.Logger.WarnContext(r.Context(), "user permission update failed", "user_id", userID, "method", r.Method, "error", err)
		h.HandleServiceError(w, r, err)
		return
	}

	keys, err := h.Assignments.UserPermissions(r.Context(), userID)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, UserPermissionsResponse{UserID: userID, Permissions: keys})
}

func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.HandleError(w, apperrors.ErrUserNotFound)
		return "", false
	}
	return id.String(), true
}
