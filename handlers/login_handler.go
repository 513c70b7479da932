package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/gromit-app/gromit/middleware"
	"github.com/gromit-app/gromit/services"
	"github.com/gromit-app/gromit/token"
	"github.com/gromit-app/gromit/utils"
	"go.uber.org/zap"
)

// LoginService is the login logic the handlers depend on
type LoginService interface {
	AppleLogin(ctx context.Context, identityToken string) (*services.AuthResult, error)
	Refresh(ctx context.Context, userID uuid.UUID, presented string) (*services.AuthResult, error)
}

// LoginHandler handles identity-provider login and token rotation
type LoginHandler struct {
	login  LoginService
	logger *zap.Logger
}

// NewLoginHandler creates a new LoginHandler
func NewLoginHandler(login LoginService, logger *zap.Logger) *LoginHandler {
	return &LoginHandler{
		login:  login,
		logger: logger,
	}
}

// HandleAppleLogin handles POST /login/apple
func (h *LoginHandler) HandleAppleLogin(w http.ResponseWriter, r *http.Request) error {
	var req AppleLoginRequest
	if err := decodeAndValidate(r, &req); err != nil {
		return err
	}

	result, err := h.login.AppleLogin(r.Context(), req.IdentityToken)
	if err != nil {
		return err
	}
	return utils.WriteOK(w, newTokenResponse(result))
}

// HandleRefresh handles POST /auth/refresh. A request authenticated by its
// refresh token must present the token most recently issued to the account.
func (h *LoginHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) error {
	principal, err := middleware.RequirePrincipal(r)
	if err != nil {
		return err
	}

	var presented string
	if principal.Source == middleware.SourceRefresh {
		presented, _ = token.ExtractRefreshToken(r)
	}

	result, err := h.login.Refresh(r.Context(), principal.UserID, presented)
	if err != nil {
		return err
	}
	return utils.WriteOK(w, newTokenResponse(result))
}
