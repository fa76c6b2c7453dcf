package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"leetlab/internal/common"
	"leetlab/internal/common/security"
	"leetlab/internal/domain/model"
	"leetlab/internal/domain/repository"

	"github.com/google/uuid"
)

type AuthService struct {
	userRepo  repository.UserRepository
	blocklist repository.TokenBlocklist
}

func NewAuthService(userRepo repository.UserRepository, blocklist repository.TokenBlocklist) *AuthService {
	return &AuthService{userRepo: userRepo, blocklist: blocklist}
}

type RegisterRequest struct {
	FirstName string  `json:"first_name" validate:"required,min=3,max=20"`
	LastName  *string `json:"last_name,omitempty" validate:"omitempty,min=3,max=20"`
	Email     string  `json:"email" validate:"required,email"`
	Age       *int    `json:"age,omitempty" validate:"omitempty,gte=5,lte=80"`
	Password  string  `json:"password" validate:"required,strongpassword"`
	// Role is only honoured by RegisterAdmin.
	Role string `json:"role,omitempty" validate:"omitempty,oneof=user admin"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	User    *model.User `json:"user"`
	Token   string      `json:"token"`
	Message string      `json:"message"`
}

// Register creates a regular user and signs a session token for it.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	req.Role = model.RoleUser
	resp, err := s.register(ctx, req)
	if err != nil {
		return nil, err
	}
	resp.Message = "user registered successfully"
	return resp, nil
}

// RegisterAdmin lets an admin create users with either role.
func (s *AuthService) RegisterAdmin(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	if req.Role == "" {
		req.Role = model.RoleUser
	}
	resp, err := s.register(ctx, req)
	if err != nil {
		return nil, err
	}
	resp.Message = req.Role + " registered successfully"
	return resp, nil
}

func (s *AuthService) register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	req.Email = normalizeEmail(req.Email)
	req.FirstName = strings.TrimSpace(req.FirstName)
	if err := common.Validate(req); err != nil {
		return nil, err
	}

	hashedPassword, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:             uuid.NewString(),
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Email:          req.Email,
		Age:            req.Age,
		HashedPassword: hashedPassword,
		Role:           req.Role,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := security.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	user.HashedPassword = ""
	return &AuthResponse{User: user, Token: token}, nil
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, fmt.Errorf("email and password are required: %w", common.ErrBadRequest)
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("invalid credentials: %w", common.ErrUnauthorized)
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if !security.CheckPasswordHash(req.Password, user.HashedPassword) {
		return nil, fmt.Errorf("invalid credentials: %w", common.ErrUnauthorized)
	}

	token, err := security.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	user.HashedPassword = ""
	return &AuthResponse{User: user, Token: token, Message: "logged in successfully"}, nil
}

// Logout revokes token until its own expiry.
func (s *AuthService) Logout(ctx context.Context, token string, exp time.Time) error {
	if token == "" {
		return fmt.Errorf("no session token: %w", common.ErrUnauthorized)
	}
	if err := s.blocklist.Block(ctx, token, exp); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// ValidateSession resolves the session user. The token must not be revoked
// and the user must still exist.
func (s *AuthService) ValidateSession(ctx context.Context, userID, token string) (*model.User, error) {
	blocked, err := s.blocklist.IsBlocked(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to check token: %w", err)
	}
	if blocked {
		return nil, fmt.Errorf("token has been revoked: %w", common.ErrUnauthorized)
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("user no longer exists: %w", common.ErrUnauthorized)
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	user.HashedPassword = ""
	return user, nil
}

// DeleteProfile removes the user with all their submissions, then revokes
// the token that made the request.
func (s *AuthService) DeleteProfile(ctx context.Context, userID, token string, exp time.Time) error {
	if err := s.userRepo.DeleteWithSubmissions(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	if token != "" {
		if err := s.blocklist.Block(ctx, token, exp); err != nil {
			return fmt.Errorf("failed to revoke token: %w", err)
		}
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
