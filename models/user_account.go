package models

import (
	"time"

	"github.com/google/uuid"
)

// Provider identifies the identity provider an account signed up with
type Provider string

const (
	ProviderApple Provider = "apple"
)

// Authorities granted to accounts
const (
	AuthorityUser  = "ROLE_USER"
	AuthorityAdmin = "ROLE_ADMIN"
)

// UserAccount represents a registered gromit user
type UserAccount struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	Nickname        string     `json:"nickname" db:"nickname"`
	GithubNickname  string     `json:"github_nickname" db:"github_nickname"`
	Provider        Provider   `json:"provider" db:"provider"`
	ProviderSubject string     `json:"-" db:"provider_subject"` // Apple "sub" claim
	Admin           bool       `json:"-" db:"admin"`
	RefreshToken    string     `json:"-" db:"refresh_token"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt       *time.Time `json:"-" db:"deleted_at"`
}

// TableName returns the table name for the UserAccount model
func (UserAccount) TableName() string {
	return "user_accounts"
}

// NewUserAccount creates a new UserAccount instance
func NewUserAccount(nickname, githubNickname string, provider Provider, subject string) *UserAccount {
	now := time.Now().UTC()
	return &UserAccount{
		ID:              uuid.New(),
		Nickname:        nickname,
		GithubNickname:  githubNickname,
		Provider:        provider,
		ProviderSubject: subject,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// IsDeleted returns true if the account has been soft deleted
func (u *UserAccount) IsDeleted() bool {
	return u.DeletedAt != nil
}

// Authorities returns the authorities carried in this account's tokens
func (u *UserAccount) Authorities() []string {
	if u.Admin {
		return []string{AuthorityUser, AuthorityAdmin}
	}
	return []string{AuthorityUser}
}
