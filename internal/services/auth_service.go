package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"door_shop_backend/internal/models"
	"door_shop_backend/internal/repositories"
	"door_shop_backend/pkg/utils"

	"golang.org/x/crypto/bcrypt"
)

// --- Custom Service Errors ---
var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameExists     = errors.New("username already exists")
	ErrEmailExists        = errors.New("email already exists")
	ErrTokenGeneration    = errors.New("failed to generate token")
)

// --- AuthService Interface ---
type AuthService interface {
	RegisterUser(ctx context.Context, req models.RegistrationPayload) (*models.User, error)
	LoginUser(ctx context.Context, req models.Credentials) (*models.LoginResponse, error)
	GetUserProfile(ctx context.Context, userID int64) (*models.User, error)
}

// --- authService Implementation ---
type authService struct {
	authRepo repositories.AuthRepository
	db       *sql.DB // Used as SQLExecutor for single repo calls
}

// NewAuthService creates a new instance of AuthService. Tokens are signed with the key given to utils.ConfigureJWT.
func NewAuthService(authRepo repositories.AuthRepository, db *sql.DB) AuthService {
	return &authService{authRepo: authRepo, db: db}
}

// RegisterUser handles the business logic for user registration.
func (s *authService) RegisterUser(ctx context.Context, req models.RegistrationPayload) (*models.User, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, newValidationError("username", "is required")
	}
	if len(req.Password) < 6 {
		return nil, newValidationError("password", "must be at least 6 characters")
	}
	if !models.IsValidRole(req.Role) {
		return nil, newValidationError("role", "must be one of admin, manager, cashier")
	}

	hashedPasswordBytes, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		Username: username,
		Email:    req.Email,
		FullName: req.FullName,
		Role:     models.Role(req.Role),
	}
	if _, err := s.authRepo.CreateUser(ctx, s.db, &user, string(hashedPasswordBytes)); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			// The repository error carries the constraint name, e.g. users_username_key.
			if strings.Contains(err.Error(), "users_email_key") {
				return nil, ErrEmailExists
			}
			return nil, ErrUsernameExists
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}
	utils.LogInfo("user registered", map[string]interface{}{"user_id": user.ID, "role": user.Role})
	return &user, nil
}

// LoginUser handles user login and token generation.
func (s *authService) LoginUser(ctx context.Context, req models.Credentials) (*models.LoginResponse, error) {
	user, storedHashedPassword, err := s.authRepo.FindUserByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login attempt failed: %w", err)
	}

	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(storedHashedPassword), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := utils.GenerateAccessToken(user.ID, user.Username, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenGeneration, err)
	}

	return &models.LoginResponse{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// GetUserProfile retrieves a user's profile by their ID.
func (s *authService) GetUserProfile(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.authRepo.FindUserByID(ctx, userID)
	if err != nil {
		return nil, translateRepoError(err, "user", userID)
	}
	return user, nil
}
