package handlers

import (
	"time"

	"github.com/google/uuid"
	"github.com/gromit-app/gromit/github"
	"github.com/gromit-app/gromit/models"
	"github.com/gromit-app/gromit/services"
)

// SignUpRequest is the body of POST /users
type SignUpRequest struct {
	IdentityToken  string `json:"identity_token" validate:"required"`
	Nickname       string `json:"nickname" validate:"required,nickname"`
	GithubNickname string `json:"github_nickname" validate:"required"`
}

// ChangeNicknameRequest is the body of PATCH /users/change/nickname
type ChangeNicknameRequest struct {
	Nickname string `json:"nickname" validate:"required,nickname"`
}

// AppleLoginRequest is the body of POST /login/apple
type AppleLoginRequest struct {
	IdentityToken string `json:"identity_token" validate:"required"`
}

// TokenResponse carries an issued token pair
type TokenResponse struct {
	Registered   bool       `json:"registered"`
	UserID       *uuid.UUID `json:"user_id,omitempty"`
	Nickname     string     `json:"nickname,omitempty"`
	AccessToken  string     `json:"access_token,omitempty"`
	RefreshToken string     `json:"refresh_token,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
}

func newTokenResponse(result *services.AuthResult) TokenResponse {
	if !result.Registered {
		return TokenResponse{Registered: false}
	}
	userID := result.UserID
	expiresAt := result.ExpiresAt
	return TokenResponse{
		Registered:   true,
		UserID:       &userID,
		Nickname:     result.Nickname,
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		ExpiresAt:    &expiresAt,
	}
}

// NicknameResponse echoes an accepted nickname
type NicknameResponse struct {
	Nickname string `json:"nickname"`
}

// GithubUserResponse describes a GitHub account
type GithubUserResponse struct {
	Login     string `json:"login"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
	HTMLURL   string `json:"html_url"`
}

func newGithubUserResponse(u *github.User) GithubUserResponse {
	return GithubUserResponse{
		Login:     u.Login,
		Name:      u.Name,
		AvatarURL: u.AvatarURL,
		HTMLURL:   u.HTMLURL,
	}
}

// CommitsResponse reports a reloaded commit count
type CommitsResponse struct {
	CommitDate  string `json:"commit_date"`
	CommitCount int    `json:"commit_count"`
}

func newCommitsResponse(r *models.CommitRecord) CommitsResponse {
	return CommitsResponse{
		CommitDate:  r.CommitDate.Format(time.DateOnly),
		CommitCount: r.CommitCount,
	}
}

// MeResponse is the profile of the calling user
type MeResponse struct {
	Account      *models.UserAccount `json:"account"`
	TodayCommits int                 `json:"today_commits"`
}

// MessageResponse is a plain confirmation
type MessageResponse struct {
	Message string `json:"message"`
}
