package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gromit-app/gromit/github"
	"github.com/gromit-app/gromit/middleware"
	"github.com/gromit-app/gromit/models"
	"github.com/gromit-app/gromit/services"
	"github.com/gromit-app/gromit/utils"
	"go.uber.org/zap"
)

// UserAccountService is the account logic the handlers depend on
type UserAccountService interface {
	SignUp(ctx context.Context, in services.SignUpInput) (*services.AuthResult, error)
	CheckNickname(ctx context.Context, nickname string) error
	GetGithubUser(ctx context.Context, login string) (*github.User, error)
	Delete(ctx context.Context, userID uuid.UUID) error
	ReloadCommits(ctx context.Context, userID uuid.UUID) (*models.CommitRecord, error)
	ChangeNickname(ctx context.Context, userID uuid.UUID, nickname string) (*models.UserAccount, error)
	Me(ctx context.Context, userID uuid.UUID) (*services.Profile, error)
	GetByID(ctx context.Context, userID uuid.UUID) (*models.UserAccount, error)
}

// UserAccountHandler handles the /users endpoints
type UserAccountHandler struct {
	accounts UserAccountService
	logger   *zap.Logger
}

// NewUserAccountHandler creates a new UserAccountHandler
func NewUserAccountHandler(accounts UserAccountService, logger *zap.Logger) *UserAccountHandler {
	return &UserAccountHandler{
		accounts: accounts,
		logger:   logger,
	}
}

// HandleSignUp handles POST /users
func (h *UserAccountHandler) HandleSignUp(w http.ResponseWriter, r *http.Request) error {
	var req SignUpRequest
	if err := decodeAndValidate(r, &req); err != nil {
		return err
	}

	result, err := h.accounts.SignUp(r.Context(), services.SignUpInput{
		IdentityToken:  req.IdentityToken,
		Nickname:       req.Nickname,
		GithubNickname: req.GithubNickname,
	})
	if err != nil {
		return err
	}

	return utils.WriteCreated(w, newTokenResponse(result))
}

// HandleCheckNickname handles GET /users/check/{nickname}
func (h *UserAccountHandler) HandleCheckNickname(w http.ResponseWriter, r *http.Request) error {
	nickname := chi.URLParam(r, "nickname")
	if err := h.accounts.CheckNickname(r.Context(), nickname); err != nil {
		return err
	}
	return utils.WriteOK(w, NicknameResponse{Nickname: nickname})
}

// HandleGithubUser handles GET /users/github/{nickname}
func (h *UserAccountHandler) HandleGithubUser(w http.ResponseWriter, r *http.Request) error {
	user, err := h.accounts.GetGithubUser(r.Context(), chi.URLParam(r, "nickname"))
	if err != nil {
		return err
	}
	return utils.WriteOK(w, newGithubUserResponse(user))
}

// HandleDelete handles DELETE /users
func (h *UserAccountHandler) HandleDelete(w http.ResponseWriter, r *http.Request) error {
	principal, err := middleware.RequirePrincipal(r)
	if err != nil {
		return err
	}

	if err := h.accounts.Delete(r.Context(), principal.UserID); err != nil {
		return err
	}
	return utils.WriteOK(w, MessageResponse{Message: "account deleted"})
}

// HandleReloadCommits handles PATCH /users/reload
func (h *UserAccountHandler) HandleReloadCommits(w http.ResponseWriter, r *http.Request) error {
	principal, err := middleware.RequirePrincipal(r)
	if err != nil {
		return err
	}

	record, err := h.accounts.ReloadCommits(r.Context(), principal.UserID)
	if err != nil {
		return err
	}
	return utils.WriteOK(w, newCommitsResponse(record))
}

// HandleChangeNickname handles PATCH /users/change/nickname
func (h *UserAccountHandler) HandleChangeNickname(w http.ResponseWriter, r *http.Request) error {
	principal, err := middleware.RequirePrincipal(r)
	if err != nil {
		return err
	}

	var req ChangeNicknameRequest
	if err := decodeAndValidate(r, &req); err != nil {
		return err
	}

	account, err := h.accounts.ChangeNickname(r.Context(), principal.UserID, req.Nickname)
	if err != nil {
		return err
	}
	return utils.WriteOK(w, NicknameResponse{Nickname: account.Nickname})
}

// HandleMe handles GET /users/me
func (h *UserAccountHandler) HandleMe(w http.ResponseWriter, r *http.Request) error {
	principal, err := middleware.RequirePrincipal(r)
	if err != nil {
		return err
	}

	profile, err := h.accounts.Me(r.Context(), principal.UserID)
	if err != nil {
		return err
	}
	return utils.WriteOK(w, MeResponse{Account: profile.Account, TodayCommits: profile.TodayCommits})
}

// HandleAdminGetUser handles GET /admin/users/{id}
func (h *UserAccountHandler) HandleAdminGetUser(w http.ResponseWriter, r *http.Request) error {
	userID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return services.ErrUserNotFound
	}

	account, err := h.accounts.GetByID(r.Context(), userID)
	if err != nil {
		return err
	}
	return utils.WriteOK(w, account)
}

// decodeAndValidate decodes the JSON body into dst and runs its validate tags
func decodeAndValidate(r *http.Request, dst interface{}) error {
	if err := utils.DecodeJSON(r, dst); err != nil {
		return services.Wrap(services.ErrMalformedBody, err)
	}
	return utils.ValidateStruct(dst)
}
