package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "medintake/internal/errors"
	"medintake/internal/service"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// RegisterRequest represents a registration request.
type RegisterRequest struct {
	Username    string `json:"username" validate:"required,min=3,max=64"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=6"`
	FullName    string `json:"full_name" validate:"required"`
	DateOfBirth string `json:"date_of_birth" validate:"required"`
	SSN         string `json:"ssn"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	Role        string `json:"role" validate:"omitempty,oneof=patient staff"`
}

// LoginRequest represents a login request.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse carries the bearer token and the user it authenticates.
type AuthResponse struct {
	Token string      `json:"token"`
	User  interface{} `json:"user"`
}

// Register creates a new account and returns its first token.
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apperrors.ErrorResponse{Error: "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apperrors.ErrorResponse{Error: err.Error()})
	}

	token, user, err := h.authService.Register(c.Request().Context(), service.RegisterInput{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		FullName:    req.FullName,
		DateOfBirth: req.DateOfBirth,
		SSN:         req.SSN,
		Phone:       req.Phone,
		Address:     req.Address,
		Role:        req.Role,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, AuthResponse{Token: token, User: user})
}

// Login verifies credentials and returns a fresh token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apperrors.ErrorResponse{Error: "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apperrors.ErrorResponse{Error: err.Error()})
	}

	token, user, err := h.authService.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, AuthResponse{Token: token, User: user})
}

// Logout revokes the presented token's session.
func (h *AuthHandler) Logout(c echo.Context) error {
	if err := h.authService.Logout(c.Request().Context(), bearerToken(c)); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "logged out successfully"})
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c echo.Context) error {
	payload, err := caller(c)
	if err != nil {
		return writeError(c, err)
	}

	user, err := h.authService.CurrentUser(c.Request().Context(), payload.UserID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, user)
}
