package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"go-auth-api/logger"
	"go-auth-api/model"
	"go-auth-api/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

type mockSessionService struct{ mock.Mock }

func (m *mockSessionService) Login(email, password string) (*model.SessionResponse, error) {
	args := m.Called(email, password)
	session, _ := args.Get(0).(*model.SessionResponse)
	return session, args.Error(1)
}
func (m *mockSessionService) Refresh(refreshToken string) (*model.TokenPair, error) {
	args := m.Called(refreshToken)
	pair, _ := args.Get(0).(*model.TokenPair)
	return pair, args.Error(1)
}
func (m *mockSessionService) Me(userID int) (*model.MeResponse, error) {
	args := m.Called(userID)
	me, _ := args.Get(0).(*model.MeResponse)
	return me, args.Error(1)
}
func (m *mockSessionService) Logout(userID int) error {
	return m.Called(userID).Error(0)
}

type parserFunc func(string) (*model.AppClaims, error)

func (f parserFunc) ParseAccessToken(token string) (*model.AppClaims, error) { return f(token) }

func serve(ctx context.Context, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body)).WithContext(ctx)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestSessionHandler_Create(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc := new(mockSessionService)
		svc.On("Login", "user@example.com", "secret-password").Return(&model.SessionResponse{
			TokenPair:   model.TokenPair{Token: "access", RefreshToken: "refresh"},
			Permissions: []string{"users.list"},
			Roles:       []string{"editor"},
		}, nil).Once()

		rr := serve(context.Background(), ErrorHandlingMiddleware(NewSessionHandler(svc).Create), http.MethodPost, "/sessions",
			`{"email":"user@example.com","password":"secret-password"}`)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"token":"access","refreshToken":"refresh","permissions":["users.list"],"roles":["editor"]}`, rr.Body.String())
		svc.AssertExpectations(t)
	})

	t.Run("invalid credentials", func(t *testing.T) {
		svc := new(mockSessionService)
		svc.On("Login", "user@example.com", "wrong-password").Return(nil, service.ErrInvalidCredentials).Once()

		rr := serve(context.Background(), ErrorHandlingMiddleware(NewSessionHandler(svc).Create), http.MethodPost, "/sessions",
			`{"email":"user@example.com","password":"wrong-password"}`)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Contains(t, rr.Body.String(), model.CodeCredentialsInvalid)
	})

	t.Run("validation error", func(t *testing.T) {
		svc := new(mockSessionService)

		rr := serve(context.Background(), ErrorHandlingMiddleware(NewSessionHandler(svc).Create), http.MethodPost, "/sessions",
			`{"email":"not-an-email","password":"x"}`)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), model.CodeRequestInvalid)
		svc.AssertNotCalled(t, "Login", mock.Anything, mock.Anything)
	})

	t.Run("service failure", func(t *testing.T) {
		svc := new(mockSessionService)
		svc.On("Login", "user@example.com", "secret-password").Return(nil, errors.New("db down")).Once()

		rr := serve(context.Background(), ErrorHandlingMiddleware(NewSessionHandler(svc).Create), http.MethodPost, "/sessions",
			`{"email":"user@example.com","password":"secret-password"}`)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.NotContains(t, rr.Body.String(), "db down")
	})
}

func TestSessionHandler_Refresh(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc := new(mockSessionService)
		svc.On("Refresh", "refresh-1").Return(&model.TokenPair{Token: "access-2", RefreshToken: "refresh-2"}, nil).Once()

		rr := serve(context.Background(), ErrorHandlingMiddleware(NewSessionHandler(svc).Refresh), http.MethodPost, "/refresh",
			`{"refreshToken":"refresh-1"}`)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"token":"access-2","refreshToken":"refresh-2"}`, rr.Body.String())
	})

	t.Run("rejected token", func(t *testing.T) {
		svc := new(mockSessionService)
		svc.On("Refresh", "used").Return(nil, fmt.Errorf("wrapped: %w", service.ErrInvalidRefreshToken)).Once()

		rr := serve(context.Background(), ErrorHandlingMiddleware(NewSessionHandler(svc).Refresh), http.MethodPost, "/refresh",
			`{"refreshToken":"used"}`)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Contains(t, rr.Body.String(), model.CodeTokenInvalid)
		assert.NotContains(t, rr.Body.String(), model.CodeTokenExpired)
	})

	t.Run("missing token", func(t *testing.T) {
		rr := serve(context.Background(), ErrorHandlingMiddleware(NewSessionHandler(new(mockSessionService)).Refresh), http.MethodPost, "/refresh", `{}`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestSessionHandler_MeAndLogout(t *testing.T) {
	svc := new(mockSessionService)
	svc.On("Me", 7).Return(&model.MeResponse{Email: "user@example.com", Permissions: []string{}, Roles: []string{"editor"}}, nil).Once()
	svc.On("Logout", 7).Return(nil).Once()
	h := NewSessionHandler(svc)
	ctx := context.WithValue(context.Background(), UserIDKey, 7)

	rr := serve(ctx, ErrorHandlingMiddleware(h.Me), http.MethodGet, "/me", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"email":"user@example.com","permissions":[],"roles":["editor"]}`, rr.Body.String())

	rr = serve(ctx, ErrorHandlingMiddleware(h.Logout), http.MethodPost, "/logout", "")
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = serve(context.Background(), ErrorHandlingMiddleware(h.Me), http.MethodGet, "/me", "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	svc.AssertExpectations(t)
}

func TestAuthMiddleware(t *testing.T) {
	parser := parserFunc(func(token string) (*model.AppClaims, error) {
		switch token {
		case "good":
			return &model.AppClaims{UserID: 7, Roles: []string{"editor"}}, nil
		case "expired":
			return nil, fmt.Errorf("token has invalid claims: %w", jwt.ErrTokenExpired)
		default:
			return nil, jwt.ErrTokenSignatureInvalid
		}
	})

	var seenID int
	protected := AuthMiddleware(parser)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID, _ = r.Context().Value(UserIDKey).(int)
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name   string
		header string
		status int
		code   string
	}{
		{"valid token", "Bearer good", http.StatusOK, ""},
		{"expired token", "Bearer expired", http.StatusUnauthorized, model.CodeTokenExpired},
		{"bad signature", "Bearer forged", http.StatusUnauthorized, model.CodeTokenInvalid},
		{"missing header", "", http.StatusUnauthorized, model.CodeTokenInvalid},
		{"malformed header", "Token good", http.StatusUnauthorized, model.CodeTokenInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			protected.ServeHTTP(rr, req)

			require.Equal(t, tt.status, rr.Code)
			if tt.code != "" {
				assert.JSONEq(t, fmt.Sprintf(`{"error":true,"code":%q,"message":%q}`, tt.code, messageFor(tt.code, tt.header)), rr.Body.String())
			}
		})
	}
	assert.Equal(t, 7, seenID)
}

func messageFor(code, header string) string {
	switch {
	case code == model.CodeTokenExpired:
		return "Access token expired"
	case header == "":
		return "Authorization header is required"
	case !strings.HasPrefix(header, "Bearer "):
		return "Invalid authorization header format"
	default:
		return "Invalid token"
	}
}
