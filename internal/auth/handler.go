package auth

import (
	"context"
	"net/http"

	"github.com/frahmantamala/identity-service/internal"
	"github.com/frahmantamala/identity-service/internal/core/identity"
	"github.com/frahmantamala/identity-service/internal/transport"
	"github.com/frahmantamala/identity-service/pkg/logger"
)

type ServiceAPI interface {
	Register(ctx context.Context, dto RegisterDTO, ip string) (*AuthResponse, error)
	Login(ctx context.Context, dto LoginDTO, ip string) (*AuthResponse, error)
	Refresh(ctx context.Context, dto RefreshTokenDTO, ip string) (*AuthResponse, error)
}

type AccessTokenParser interface {
	ParseAccessToken(tokenString string) (*Claims, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
	Tokens  AccessTokenParser
}

func NewHandler(base *transport.BaseHandler, svc ServiceAPI, tokens AccessTokenParser) *Handler {
	return &Handler{
		BaseHandler: base,
		Service:     svc,
		Tokens:      tokens,
	}
}

// Register handles POST /auth/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var dto RegisterDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.HandleError(w, appErr)
		return
	}

	resp, err := h.Service.Register(r.Context(), dto, internal.ClientIP(r))
	if err != nil {
		if appErr, ok := internal.IsAppError(err); ok && appErr.Type == internal.ErrorTypeConflict {
			h.Logger.WarnContext(r.Context(), "registration rejected", "reason", appErr.Code)
		}
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

// Login handles POST /auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.HandleError(w, appErr)
		return
	}

	resp, err := h.Service.Login(r.Context(), dto, internal.ClientIP(r))
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

// Refresh handles POST /auth/refresh
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var dto RefreshTokenDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.HandleError(w, appErr)
		return
	}

	resp, err := h.Service.Refresh(r.Context(), dto, internal.ClientIP(r))
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

// Authenticate attaches the bearer's identity when an Authorization header is
// present. Requests without one pass through anonymously; a header carrying
// an invalid token is rejected.
func (h *Handler) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			next.ServeHTTP(w, r)
			return
		}

		token := h.ExtractTokenFromHeader(r)
		if token == "" {
			h.HandleError(w, internal.ErrInvalidToken)
			return
		}

		claims, err := h.Tokens.ParseAccessToken(token)
		if err != nil {
			logger.From(r.Context()).WarnContext(r.Context(), "access token rejected", "error", err)
			h.HandleError(w, internal.ErrInvalidToken)
			return
		}

		ctx := identity.ContextWith(r.Context(), &identity.Identity{
			UserID:      claims.Subject,
			Email:       claims.Email,
			Name:        claims.Name,
			Permissions: claims.Permissions,
		})
		ctx = logger.With(ctx, "user_id", claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAuthentication rejects anonymous requests.
func (h *Handler) RequireAuthentication(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := identity.FromContext(r.Context()); !ok {
			h.HandleError(w, internal.ErrAuthenticationReq)
			return
		}
		next.ServeHTTP(w, r)
	})
}
