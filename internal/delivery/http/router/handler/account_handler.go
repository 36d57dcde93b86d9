package handler

import (
	"log/slog"
	"net/http"

	"casthub/internal/delivery/http/middleware"
	"casthub/internal/delivery/http/response"
	"casthub/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// AccountHandler holds dependencies for authenticated account handlers.
type AccountHandler struct {
	uc     usecase.AccountUsecase
	logger *slog.Logger
}

// NewAccountHandler is the constructor for AccountHandler, injected by Fx.
func NewAccountHandler(uc usecase.AccountUsecase, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{
		uc:     uc,
		logger: logger,
	}
}

// Me returns the authenticated user's canonical account record.
func (h *AccountHandler) Me(c echo.Context) error {
	claims, ok := middleware.SessionClaims(c)
	if !ok {
		return response.Unauthorized(c, "UNAUTHORIZED", "Missing session claims")
	}

	user, err := h.uc.GetByUUID(c.Request().Context(), claims.UserUUID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, newUserPayload(user), "Profile retrieved successfully")
}

// RotateStreamKey replaces the authenticated user's stream key. Tokens issued
// before the rotation keep carrying the old key until they expire.
func (h *AccountHandler) RotateStreamKey(c echo.Context) error {
	claims, ok := middleware.SessionClaims(c)
	if !ok {
		return response.Unauthorized(c, "UNAUTHORIZED", "Missing session claims")
	}

	user, err := h.uc.RotateStreamKey(c.Request().Context(), claims.UserUUID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]any{
		"streamKey": user.StreamKey,
	}, "Stream key rotated successfully")
}
