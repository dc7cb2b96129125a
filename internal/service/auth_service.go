package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"medintake/internal/audit"
	"medintake/internal/auth"
	"medintake/internal/crypto"
	apperrors "medintake/internal/errors"
	"medintake/internal/model"
	"medintake/internal/repository"
)

const bcryptCost = 10

// RegisterInput carries the fields accepted by registration. SSN is
// optional and stored encrypted only.
type RegisterInput struct {
	Username    string
	Email       string
	Password    string
	FullName    string
	DateOfBirth string
	SSN         string
	Phone       string
	Address     string
	Role        string
}

// AuthService handles registration, login and logout.
type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (token string, user *model.User, err error)
	Login(ctx context.Context, username, password string) (token string, user *model.User, err error)
	Logout(ctx context.Context, token string) error
	CurrentUser(ctx context.Context, userID uint) (*model.User, error)
}

type authService struct {
	users    repository.UserRepository
	patients repository.PatientRepository
	tokens   *auth.TokenService
	cipher   *crypto.Cipher
	auditor  audit.Recorder
}

// NewAuthService creates a new authentication service.
func NewAuthService(users repository.UserRepository, patients repository.PatientRepository, tokens *auth.TokenService, cipher *crypto.Cipher, auditor audit.Recorder) AuthService {
	return &authService{users: users, patients: patients, tokens: tokens, cipher: cipher, auditor: auditor}
}

// Register creates the user and, for patient-role users, the patient row in
// one transaction, then issues the first token.
func (s *authService) Register(ctx context.Context, input RegisterInput) (string, *model.User, error) {
	role := input.Role
	if role == "" {
		role = model.RolePatient
	}
	if role != model.RolePatient && role != model.RoleStaff {
		return "", nil, apperrors.NewValidationError("invalid role: %s", role)
	}

	dob, err := time.Parse("2006-01-02", input.DateOfBirth)
	if err != nil {
		return "", nil, apperrors.NewValidationError("date_of_birth must be YYYY-MM-DD")
	}

	if existing, err := s.users.FindByUsername(ctx, input.Username); err == nil && existing != nil {
		return "", nil, apperrors.ErrUsernameExists
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil, fmt.Errorf("check username: %w", err)
	}
	if existing, err := s.users.FindByEmail(ctx, input.Email); err == nil && existing != nil {
		return "", nil, apperrors.ErrEmailExists
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil, fmt.Errorf("check email: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return "", nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: string(hashed),
		Role:         role,
		IsActive:     true,
	}

	err = s.users.WithTransaction(ctx, func(ctx context.Context, txUsers repository.UserRepository) error {
		if err := txUsers.Create(ctx, user); err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		if user.Role == model.RolePatient {
			encryptedSSN, err := s.cipher.Encrypt(input.SSN)
			if err != nil {
				return fmt.Errorf("encrypt ssn: %w", err)
			}
			patient := &model.Patient{
				UserID:       user.ID,
				FullName:     input.FullName,
				DateOfBirth:  dob,
				EncryptedSSN: encryptedSSN,
				Phone:        input.Phone,
				Address:      input.Address,
			}
			if err := s.patients.Create(ctx, patient); err != nil {
				return fmt.Errorf("create patient: %w", err)
			}
			user.Patient = patient
		}
		return nil
	})
	if err != nil {
		return "", nil, err
	}

	token, err := s.tokens.Issue(ctx, user.ID, user.Role)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}

	if err := s.auditor.Record(ctx, model.AuditActionCreate, "user", &user.ID, map[string]interface{}{
		"username": user.Username,
	}); err != nil {
		return "", nil, err
	}

	return token, user, nil
}

// Login verifies credentials and issues a fresh token with its own session,
// which also gives the wizard a clean slate for the new login.
func (s *authService) Login(ctx context.Context, username, password string) (string, *model.User, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return "", nil, apperrors.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, apperrors.ErrInvalidCredentials
	}

	if !user.IsActive {
		return "", nil, apperrors.ErrAccountDeactivated
	}

	now := time.Now()
	user.LastLogin = &now
	if err := s.users.Update(ctx, user); err != nil {
		return "", nil, fmt.Errorf("update last login: %w", err)
	}

	token, err := s.tokens.Issue(ctx, user.ID, user.Role)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}

	if err := s.auditor.Record(ctx, model.AuditActionLogin, "user", &user.ID, map[string]interface{}{
		"username": user.Username,
	}); err != nil {
		return "", nil, err
	}

	return token, user, nil
}

// Logout revokes the token's session. Revoking twice is a no-op success;
// only a token that never had a session is an auth error.
func (s *authService) Logout(ctx context.Context, token string) error {
	revoked, err := s.tokens.Revoke(ctx, token)
	if err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	if !revoked {
		return apperrors.ErrInvalidToken
	}
	return nil
}

// CurrentUser loads the authenticated user's profile with the patient
// sub-record preloaded.
func (s *authService) CurrentUser(ctx context.Context, userID uint) (*model.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
