package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"medintake/internal/auth"
	apperrors "medintake/internal/errors"
	"medintake/internal/model"
	"medintake/internal/service"
)

type echoValidator struct {
	validator *validator.Validate
}

func (v *echoValidator) Validate(i interface{}) error {
	return v.validator.Struct(i)
}

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = &echoValidator{validator: validator.New()}
	return e
}

// fakeAuthService scripts AuthService responses for handler tests.
type fakeAuthService struct {
	registerToken string
	registerUser  *model.User
	registerErr   error
	loginToken    string
	loginUser     *model.User
	loginErr      error
	logoutErr     error
	logoutToken   string
	currentUser   *model.User
	currentErr    error
}

func (f *fakeAuthService) Register(_ context.Context, _ service.RegisterInput) (string, *model.User, error) {
	return f.registerToken, f.registerUser, f.registerErr
}

func (f *fakeAuthService) Login(_ context.Context, _, _ string) (string, *model.User, error) {
	return f.loginToken, f.loginUser, f.loginErr
}

func (f *fakeAuthService) Logout(_ context.Context, token string) error {
	f.logoutToken = token
	return f.logoutErr
}

func (f *fakeAuthService) CurrentUser(_ context.Context, _ uint) (*model.User, error) {
	return f.currentUser, f.currentErr
}

func TestAuthHandler_Register(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		svc            *fakeAuthService
		expectedStatus int
		expectedError  string
	}{
		{
			name: "created",
			body: `{"username":"jdoe","email":"jdoe@example.com","password":"password123","full_name":"Jane Doe","date_of_birth":"1990-05-14"}`,
			svc: &fakeAuthService{
				registerToken: "tok-1",
				registerUser:  &model.User{ID: 1, Username: "jdoe", Role: model.RolePatient},
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "missing required fields",
			body:           `{"username":"jdoe"}`,
			svc:            &fakeAuthService{},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "malformed json",
			body:           `{"username":`,
			svc:            &fakeAuthService{},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "invalid request body",
		},
		{
			name: "duplicate username",
			body: `{"username":"jdoe","email":"jdoe@example.com","password":"password123","full_name":"Jane Doe","date_of_birth":"1990-05-14"}`,
			svc: &fakeAuthService{
				registerErr: apperrors.ErrUsernameExists,
			},
			expectedStatus: http.StatusConflict,
			expectedError:  "username already exists",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEcho()
			req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(tt.body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			h := NewAuthHandler(tt.svc)
			assert.NoError(t, h.Register(c))
			assert.Equal(t, tt.expectedStatus, rec.Code)

			if tt.expectedStatus == http.StatusCreated {
				var resp AuthResponse
				assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				assert.Equal(t, "tok-1", resp.Token)
			} else if tt.expectedError != "" {
				var resp apperrors.ErrorResponse
				assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				assert.Equal(t, tt.expectedError, resp.Error)
			}
		})
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	e := newTestEcho()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"username":"jdoe","password":"wrong"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := NewAuthHandler(&fakeAuthService{loginErr: apperrors.ErrInvalidCredentials})
	assert.NoError(t, h.Login(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var resp apperrors.ErrorResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "invalid credentials", resp.Error)
}

func TestAuthHandler_Login_Success(t *testing.T) {
	e := newTestEcho()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"username":"jdoe","password":"password123"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := NewAuthHandler(&fakeAuthService{
		loginToken: "tok-2",
		loginUser:  &model.User{ID: 1, Username: "jdoe"},
	})
	assert.NoError(t, h.Login(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp AuthResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "tok-2", resp.Token)

	// The password hash never appears in the response body.
	assert.NotContains(t, rec.Body.String(), "password_hash")
}

func TestAuthHandler_Logout_PassesBearerToken(t *testing.T) {
	e := newTestEcho()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer tok-3")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	svc := &fakeAuthService{}
	h := NewAuthHandler(svc)
	assert.NoError(t, h.Logout(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "tok-3", svc.logoutToken)
}

func TestAuthHandler_Me(t *testing.T) {
	e := newTestEcho()
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(PayloadContextKey, &auth.Payload{UserID: 1, Role: model.RolePatient, SessionID: 11})

	h := NewAuthHandler(&fakeAuthService{currentUser: &model.User{ID: 1, Username: "jdoe"}})
	assert.NoError(t, h.Me(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"jdoe"`)
}

func TestAuthHandler_Me_NoPayload(t *testing.T) {
	e := newTestEcho()
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := NewAuthHandler(&fakeAuthService{})
	assert.NoError(t, h.Me(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
