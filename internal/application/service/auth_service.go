package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/societyhub/internal/application/port"
	"github.com/garyjia/societyhub/internal/domain/entity"
	"github.com/garyjia/societyhub/internal/domain/errs"
	"github.com/garyjia/societyhub/pkg/auth"
	"github.com/garyjia/societyhub/pkg/utils"
	"github.com/google/uuid"
)

var (
	// ErrInvalidCredentials is returned for an unknown email or a wrong password
	ErrInvalidCredentials = errs.Unauthenticated("invalid credentials")
)

// AuthResult is returned by Login and Register
type AuthResult struct {
	Token     string       `json:"token"`
	ExpiresIn int64        `json:"expiresIn"`
	User      *entity.User `json:"user"`
}

// RegisterRequest holds the fields accepted by Register
type RegisterRequest struct {
	Name        string
	Email       string
	Password    string
	Role        string
	SocietyID   string
	Permissions *entity.Permissions
}

// Profile is a user together with their society, if any
type Profile struct {
	User    *entity.User    `json:"user"`
	Society *entity.Society `json:"society,omitempty"`
}

// AuthService handles credentials, tokens and the caller's own profile
type AuthService interface {
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Register(ctx context.Context, req RegisterRequest) (*AuthResult, error)

	// Authenticate validates a bearer token and loads the user behind it
	Authenticate(ctx context.Context, token string) (*entity.User, error)

	Profile(ctx context.Context, userID string) (*Profile, error)
	UpdateProfile(ctx context.Context, userID, name, email string) (*entity.User, error)
	ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error
}

type authServiceImpl struct {
	store  port.Store
	tokens *auth.JWTManager
	hasher *auth.PasswordHasher
	logger Logger
	now    func() time.Time
}

// NewAuthService creates a new AuthService
func NewAuthService(store port.Store, tokens *auth.JWTManager, hasher *auth.PasswordHasher, logger Logger) AuthService {
	return &authServiceImpl{
		store:  store,
		tokens: tokens,
		hasher: hasher,
		logger: orNop(logger),
		now:    time.Now,
	}
}

// Login checks the credentials, records the login time and issues a token
func (s *authServiceImpl) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = utils.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, errs.InvalidArgument("email and password are required")
	}

	user, err := s.store.Users().GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	if user == nil || !s.hasher.Check(password, user.PasswordHash) {
		s.logger.Warn("Rejected login attempt", "email", email)
		return nil, ErrInvalidCredentials
	}

	now := s.now().UTC()
	user.LastLogin = &now
	user.UpdatedAt = now
	if err := s.store.Users().Update(ctx, user); err != nil {
		// Last login is advisory
		s.logger.Error("Failed to record last login", "error", err, "user_id", user.ID)
	}

	result, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("User logged in", "user_id", user.ID, "role", user.Role)
	return result, nil
}

// Register creates a user account and logs it in
func (s *authServiceImpl) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	name := strings.TrimSpace(req.Name)
	email := utils.NormalizeEmail(req.Email)
	if name == "" || email == "" || req.Password == "" || req.Role == "" {
		return nil, errs.InvalidArgument("name, email, password, and role are required")
	}
	if err := utils.ValidateEmail(email); err != nil {
		return nil, errs.InvalidArgument("%v", err)
	}
	if err := utils.ValidatePassword(req.Password); err != nil {
		return nil, errs.InvalidArgument("%v", err)
	}
	role := entity.Role(req.Role)
	if !role.IsValid() {
		return nil, errs.InvalidArgument("invalid role %q", req.Role)
	}

	var societyID *string
	if role != entity.RoleAdmin {
		if id := strings.TrimSpace(req.SocietyID); id != "" {
			society, err := s.store.Societies().GetByID(ctx, id)
			if err != nil {
				return nil, fmt.Errorf("get society: %w", err)
			}
			if society == nil {
				return nil, errs.InvalidArgument("invalid society ID")
			}
			societyID = &id
		}
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	permissions := entity.Permissions{CanRead: true}
	if req.Permissions != nil {
		permissions = *req.Permissions
	}

	now := s.now().UTC()
	user := &entity.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		SocietyID:    societyID,
		Permissions:  permissions,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Users().Create(ctx, user); err != nil {
		if errors.Is(err, errs.ErrConflict) {
			return nil, errs.Conflict("user with this email already exists")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("User registered", "user_id", user.ID, "role", user.Role)
	return s.issue(user)
}

// Authenticate resolves a token to its current user record
func (s *authServiceImpl) Authenticate(ctx context.Context, token string) (*entity.User, error) {
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return nil, errs.Unauthenticated("invalid or expired token")
	}

	user, err := s.store.Users().GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, errs.Unauthenticated("user no longer exists")
	}
	return user, nil
}

// Profile returns the user and their society
func (s *authServiceImpl) Profile(ctx context.Context, userID string) (*Profile, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile := &Profile{User: user}
	if id := user.Society(); id != "" {
		society, err := s.store.Societies().GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("get society: %w", err)
		}
		profile.Society = society
	}
	return profile, nil
}

// UpdateProfile changes the name and/or email. Empty values are left untouched.
func (s *authServiceImpl) UpdateProfile(ctx context.Context, userID, name, email string) (*entity.User, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if name = strings.TrimSpace(name); name != "" {
		user.Name = name
	}
	if email = utils.NormalizeEmail(email); email != "" && email != user.Email {
		if err := utils.ValidateEmail(email); err != nil {
			return nil, errs.InvalidArgument("%v", err)
		}
		existing, err := s.store.Users().GetByEmail(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("get user by email: %w", err)
		}
		if existing != nil && existing.ID != user.ID {
			return nil, errs.Conflict("email already in use")
		}
		user.Email = email
	}

	user.UpdatedAt = s.now().UTC()
	if err := s.store.Users().Update(ctx, user); err != nil {
		if errors.Is(err, errs.ErrConflict) {
			return nil, errs.Conflict("email already in use")
		}
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.logger.Info("Profile updated", "user_id", user.ID)
	return user, nil
}

// ChangePassword replaces the password after verifying the current one
func (s *authServiceImpl) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if currentPassword == "" || newPassword == "" {
		return errs.InvalidArgument("current password and new password are required")
	}
	if err := utils.ValidatePassword(newPassword); err != nil {
		return errs.InvalidArgument("new %v", err)
	}

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return err
	}
	if !s.hasher.Check(currentPassword, user.PasswordHash) {
		return errs.Unauthenticated("current password is incorrect")
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = hash
	user.UpdatedAt = s.now().UTC()
	if err := s.store.Users().Update(ctx, user); err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	s.logger.Info("Password changed", "user_id", user.ID)
	return nil
}

func (s *authServiceImpl) loadUser(ctx context.Context, userID string) (*entity.User, error) {
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, errs.NotFound("user not found")
	}
	return user, nil
}

func (s *authServiceImpl) issue(user *entity.User) (*AuthResult, error) {
	token, err := s.tokens.GenerateToken(user.ID, user.Email, string(user.Role), user.Society())
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	return &AuthResult{
		Token:     token,
		ExpiresIn: int64(s.tokens.GetTokenDuration().Seconds()),
		User:      user,
	}, nil
}
