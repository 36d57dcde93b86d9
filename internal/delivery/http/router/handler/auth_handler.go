// Package handler contains the HTTP handlers for the application.
package handler

import (
	"log/slog"
	"net/http"

	"casthub/internal/delivery/http/response"
	"casthub/internal/domain/entity"
	domainerrors "casthub/internal/domain/errors"
	"casthub/internal/infra/auth"
	"casthub/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// AuthHandler holds dependencies for login-related handlers.
type AuthHandler struct {
	uc        usecase.AccountUsecase
	providers *auth.ProviderRegistry
	states    *auth.StateStore
	logger    *slog.Logger
}

// NewAuthHandler is the constructor for AuthHandler, injected by Fx.
func NewAuthHandler(uc usecase.AccountUsecase, providers *auth.ProviderRegistry, states *auth.StateStore, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		uc:        uc,
		providers: providers,
		states:    states,
		logger:    logger,
	}
}

// Begin redirects the browser to the provider's consent page.
func (h *AuthHandler) Begin(c echo.Context) error {
	provider, ok := h.providers.Get(entity.ProviderType(c.Param("provider")))
	if !ok {
		return domainerrors.ErrProviderDisabled.WrapMessage("unknown or disabled provider")
	}

	state, err := h.states.Issue()
	if err != nil {
		return errors.WithStack(err)
	}

	return c.Redirect(http.StatusTemporaryRedirect, provider.AuthCodeURL(state))
}

// Callback completes the provider handshake: it validates the anti-forgery
// state, exchanges the code for a profile and reconciles it to an account.
func (h *AuthHandler) Callback(c echo.Context) error {
	provider, ok := h.providers.Get(entity.ProviderType(c.Param("provider")))
	if !ok {
		return domainerrors.ErrProviderDisabled.WrapMessage("unknown or disabled provider")
	}

	// Providers report user denial and their own failures via this parameter.
	if errParam := c.QueryParam("error"); errParam != "" {
		return domainerrors.ErrOAuthFailed.WithDetails(errParam)
	}

	if !h.states.Consume(c.QueryParam("state")) {
		return domainerrors.ErrOAuthStateInvalid.WrapMessage("state missing, expired or replayed")
	}

	code := c.QueryParam("code")
	if code == "" {
		return domainerrors.ErrOAuthCodeInvalid.WrapMessage("authorization code is missing")
	}

	profile, err := provider.Exchange(c.Request().Context(), code)
	if err != nil {
		h.logger.Warn("OAuth exchange failed",
			slog.String("provider", provider.Name().String()),
			slog.Any("error", err),
		)

		return domainerrors.ErrOAuthCodeInvalid.WrapMessage("code exchange failed")
	}

	output, err := h.uc.ReconcileOAuth(c.Request().Context(), profile)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, newSessionPayload(output.User, output.SessionToken, map[string]any{
		"isNewUser":     output.IsNewUser,
		"accountLinked": output.AccountLinked,
	}), "Authentication successful")
}

// Register handles the password registration request.
func (h *AuthHandler) Register(c echo.Context) error {
	var input usecase.RegisterInput
	if err := c.Bind(&input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid registration input")
	}
	if err := c.Validate(&input); err != nil {
		return err
	}

	output, err := h.uc.Register(c.Request().Context(), &input)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, newSessionPayload(output.User, output.SessionToken, nil), "User registered successfully")
}

// Login handles the password login request.
func (h *AuthHandler) Login(c echo.Context) error {
	var input usecase.LoginInput
	if err := c.Bind(&input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid login input")
	}
	if err := c.Validate(&input); err != nil {
		return err
	}

	output, err := h.uc.Login(c.Request().Context(), &input)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, newSessionPayload(output.User, output.SessionToken, nil), "Login successful")
}

// newSessionPayload shapes the authenticated response body. The stream key is
// included, it is the user's own credential.
func newSessionPayload(user *entity.UserIdentity, token string, extra map[string]any) map[string]any {
	payload := map[string]any{
		"sessionToken": token,
		"user":         newUserPayload(user),
	}
	for k, v := range extra {
		payload[k] = v
	}

	return payload
}

func newUserPayload(user *entity.UserIdentity) map[string]any {
	return map[string]any{
		"uuid":          user.UUID.String(),
		"email":         user.Email,
		"displayName":   user.DisplayName,
		"avatarUrl":     user.AvatarURL,
		"streamKey":     user.StreamKey,
		"oauthProvider": user.Provider.String(),
	}
}
