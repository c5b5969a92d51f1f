package transport

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	apperrors "github.com/frahmantamala/identity-service/internal"
	"github.com/frahmantamala/identity-service/pkg/logger"
)

const maxBodyBytes = 1 << 20

// BaseHandler provides common functionality for HTTP handlers
type BaseHandler struct {
	Logger *slog.Logger
}

// NewBaseHandler creates a base handler with logger
func NewBaseHandler(lg *slog.Logger) *BaseHandler {
	if lg == nil {
		lg = logger.LoggerWrapper()
		if lg == nil {
			lg = slog.Default()
		}
	}
	return &BaseHandler{Logger: lg}
}

// WriteJSON writes a JSON response
func (h *BaseHandler) WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", "error", err)
	}
}

// HandleError writes an AppError using its own status code.
func (h *BaseHandler) HandleError(w http.ResponseWriter, appErr *apperrors.AppError) {
	status, body := appErr.ToHTTPResponse()
	h.WriteJSON(w, status, body)
}

// HandleServiceError maps a service error to a response. Anything that is not
// an AppError, and every internal AppError, is logged and answered with an
// opaque 500.
func (h *BaseHandler) HandleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := apperrors.IsAppError(err)
	if !ok || appErr.Type == apperrors.ErrorTypeInternal {
		logger.From(r.Context()).ErrorContext(r.Context(), "unhandled service error",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err)
		h.HandleError(w, apperrors.NewInternalError("An unexpected error occurred", nil))
		return
	}

	if appErr.StatusCode >= http.StatusInternalServerError {
		h.HandleError(w, apperrors.NewInternalError("An unexpected error occurred", nil))
		return
	}
	h.HandleError(w, appErr)
}

// DecodeJSON reads a bounded JSON body into dst.
func (h *BaseHandler) DecodeJSON(r *http.Request, dst interface{}) *apperrors.AppError {
	if r.Body == nil {
		return apperrors.NewValidationError("request body is required", apperrors.ErrCodeInvalidRequestBody)
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if err == io.EOF {
			return apperrors.NewValidationError("request body is required", apperrors.ErrCodeInvalidRequestBody)
		}
		return apperrors.NewValidationError("invalid request body", apperrors.ErrCodeInvalidRequestBody)
	}
	return nil
}

// ExtractTokenFromHeader extracts Bearer token from Authorization header
func (h *BaseHandler) ExtractTokenFromHeader(r *http.Request) string {
	return BearerToken(r)
}

func BearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if len(authHeader) < 7 || !strings.EqualFold(authHeader[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(authHeader[7:])
}
