package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gromit-app/gromit/github"
	"github.com/gromit-app/gromit/middleware"
	"github.com/gromit-app/gromit/models"
	"github.com/gromit-app/gromit/services"
	"github.com/gromit-app/gromit/utils"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockUserAccountService is a mock implementation of UserAccountService
type MockUserAccountService struct {
	mock.Mock
}

func (m *MockUserAccountService) SignUp(ctx context.Context, in services.SignUpInput) (*services.AuthResult, error) {
	args := m.Called(ctx, in)
	if result := args.Get(0); result != nil {
		return result.(*services.AuthResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserAccountService) CheckNickname(ctx context.Context, nickname string) error {
	return m.Called(ctx, nickname).Error(0)
}

func (m *MockUserAccountService) GetGithubUser(ctx context.Context, login string) (*github.User, error) {
	args := m.Called(ctx, login)
	if user := args.Get(0); user != nil {
		return user.(*github.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserAccountService) Delete(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *MockUserAccountService) ReloadCommits(ctx context.Context, userID uuid.UUID) (*models.CommitRecord, error) {
	args := m.Called(ctx, userID)
	if record := args.Get(0); record != nil {
		return record.(*models.CommitRecord), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserAccountService) ChangeNickname(ctx context.Context, userID uuid.UUID, nickname string) (*models.UserAccount, error) {
	args := m.Called(ctx, userID, nickname)
	if account := args.Get(0); account != nil {
		return account.(*models.UserAccount), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserAccountService) Me(ctx context.Context, userID uuid.UUID) (*services.Profile, error) {
	args := m.Called(ctx, userID)
	if profile := args.Get(0); profile != nil {
		return profile.(*services.Profile), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserAccountService) GetByID(ctx context.Context, userID uuid.UUID) (*models.UserAccount, error) {
	args := m.Called(ctx, userID)
	if account := args.Get(0); account != nil {
		return account.(*models.UserAccount), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockLoginService is a mock implementation of LoginService
type MockLoginService struct {
	mock.Mock
}

func (m *MockLoginService) AppleLogin(ctx context.Context, identityToken string) (*services.AuthResult, error) {
	args := m.Called(ctx, identityToken)
	if result := args.Get(0); result != nil {
		return result.(*services.AuthResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLoginService) Refresh(ctx context.Context, userID uuid.UUID, presented string) (*services.AuthResult, error) {
	args := m.Called(ctx, userID, presented)
	if result := args.Get(0); result != nil {
		return result.(*services.AuthResult), args.Error(1)
	}
	return nil, args.Error(1)
}

// newRequest builds a request with an optional JSON body, principal and chi URL params
func newRequest(method, target, body string, principal *middleware.Principal, params map[string]string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")

	ctx := req.Context()
	if principal != nil {
		ctx = middleware.WithPrincipal(ctx, principal)
	}
	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for k, v := range params {
			rctx.URLParams.Add(k, v)
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	return req.WithContext(ctx)
}

// serve runs fn through middleware.Handle so failures become envelopes
func serve(fn middleware.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	middleware.Handle(fn).ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) (utils.Envelope, map[string]interface{}) {
	t.Helper()
	var raw struct {
		utils.Envelope
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))

	var data map[string]interface{}
	if len(raw.Data) > 0 && string(raw.Data) != "null" {
		require.NoError(t, json.Unmarshal(raw.Data, &data))
	}
	return utils.Envelope{Status: raw.Status, Message: raw.Message}, data
}
