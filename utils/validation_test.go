package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signUpForm struct {
	IdentityToken  string `json:"identity_token" validate:"required"`
	Nickname       string `json:"nickname" validate:"required,nickname"`
	GithubNickname string `json:"github_nickname" validate:"required,max=39"`
}

func TestValidateStruct(t *testing.T) {
	t.Run("valid struct", func(t *testing.T) {
		err := ValidateStruct(&signUpForm{IdentityToken: "t", Nickname: "그로밋01", GithubNickname: "gromit"})
		assert.NoError(t, err)
	})

	t.Run("first message follows declaration order", func(t *testing.T) {
		err := ValidateStruct(&signUpForm{Nickname: "", GithubNickname: ""})
		require.Error(t, err)
		assert.True(t, IsValidationError(err))

		msg, ok := FirstValidationMessage(err)
		assert.True(t, ok)
		assert.Equal(t, "identity token is required", msg)

		var vErr *ValidationError
		require.True(t, errors.As(err, &vErr))
		require.Len(t, vErr.Fields, 3)
		assert.Equal(t, "nickname", vErr.Fields[1].Field)
		assert.Equal(t, "please enter a nickname", vErr.Fields[1].Message)
		assert.Equal(t, "please enter a github nickname", vErr.Fields[2].Message)
	})

	t.Run("nickname format", func(t *testing.T) {
		err := ValidateStruct(&signUpForm{IdentityToken: "t", Nickname: "way-too-long-name", GithubNickname: "gromit"})
		msg, ok := FirstValidationMessage(err)
		assert.True(t, ok)
		assert.Equal(t, "nickname must be 1-8 letters, digits or Hangul", msg)
	})

	t.Run("generic max message", func(t *testing.T) {
		long := "abcdefghijabcdefghijabcdefghijabcdefghij"
		err := ValidateStruct(&signUpForm{IdentityToken: "t", Nickname: "gromit", GithubNickname: long})
		msg, _ := FirstValidationMessage(err)
		assert.Equal(t, "github_nickname must be at most 39", msg)
	})
}

func TestIsValidNickname(t *testing.T) {
	tests := []struct {
		nickname string
		valid    bool
	}{
		{"gromit", true},
		{"그로밋", true},
		{"abc123", true},
		{"12345678", true},
		{"123456789", false},
		{"", false},
		{"gro mit", false},
		{"gromit!", false},
		{"ㄱㄴㄷ", false},
	}

	for _, tt := range tests {
		t.Run(tt.nickname, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsValidNickname(tt.nickname))
		})
	}
}

func TestFirstValidationMessage_NonValidation(t *testing.T) {
	_, ok := FirstValidationMessage(errors.New("boom"))
	assert.False(t, ok)
}
