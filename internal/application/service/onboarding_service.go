package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/societyhub/internal/application/dispatcher"
	"github.com/garyjia/societyhub/internal/application/port"
	"github.com/garyjia/societyhub/internal/domain/entity"
	"github.com/garyjia/societyhub/internal/domain/errs"
	"github.com/garyjia/societyhub/internal/domain/event"
	"github.com/garyjia/societyhub/pkg/auth"
	"github.com/garyjia/societyhub/pkg/utils"
	"github.com/google/uuid"
)

// TemporaryPasswordLength is the length of passwords generated for new society users
const TemporaryPasswordLength = 8

// CreateSocietyRequest holds the fields accepted by CreateSociety
type CreateSocietyRequest struct {
	Name               string
	Address            entity.Address
	RegistrationNumber string
	ContactInfo        entity.ContactInfo
}

// SocietyUpdate carries the mutable society fields. Nil leaves a field untouched.
type SocietyUpdate struct {
	Name               *string
	Address            *entity.Address
	RegistrationNumber *string
	ContactInfo        *entity.ContactInfo
	Status             *string
}

// CreateUserRequest holds the fields accepted by CreateSocietyUser
type CreateUserRequest struct {
	Name        string
	Email       string
	Role        string
	SocietyID   string
	Permissions *entity.Permissions
}

// CreatedUser is a newly created account and its one-time password
type CreatedUser struct {
	User              *entity.User `json:"user"`
	TemporaryPassword string       `json:"temporaryPassword"`
}

// OnboardingService manages societies and the accounts that belong to them
type OnboardingService interface {
	ListSocieties(ctx context.Context, actor entity.Actor) ([]*entity.Society, error)
	GetSociety(ctx context.Context, actor entity.Actor, id string) (*entity.Society, error)
	CreateSociety(ctx context.Context, actor entity.Actor, req CreateSocietyRequest) (*entity.Society, error)
	UpdateSociety(ctx context.Context, actor entity.Actor, id string, update SocietyUpdate) (*entity.Society, error)

	CreateSocietyUser(ctx context.Context, actor entity.Actor, req CreateUserRequest) (*CreatedUser, error)
	ListSocietyUsers(ctx context.Context, actor entity.Actor, societyID string) ([]*entity.User, error)
	UpdateUserPermissions(ctx context.Context, actor entity.Actor, userID string, permissions entity.Permissions) (*entity.User, error)
}

type onboardingServiceImpl struct {
	store      port.Store
	hasher     *auth.PasswordHasher
	dispatcher dispatcher.Dispatcher
	logger     Logger
	now        func() time.Time
}

// NewOnboardingService creates a new OnboardingService. d may be nil.
func NewOnboardingService(store port.Store, hasher *auth.PasswordHasher, d dispatcher.Dispatcher, logger Logger) OnboardingService {
	return &onboardingServiceImpl{
		store:      store,
		hasher:     hasher,
		dispatcher: d,
		logger:     orNop(logger),
		now:        time.Now,
	}
}

// ListSocieties returns the active societies
func (s *onboardingServiceImpl) ListSocieties(ctx context.Context, actor entity.Actor) ([]*entity.Society, error) {
	if !actor.IsAdmin() {
		return nil, errs.Forbidden("only admins can view all societies")
	}
	societies, err := s.store.Societies().List(ctx, entity.SocietyStatusActive)
	if err != nil {
		return nil, fmt.Errorf("list societies: %w", err)
	}
	return societies, nil
}

// GetSociety returns one society. Non-admins may only read their own.
func (s *onboardingServiceImpl) GetSociety(ctx context.Context, actor entity.Actor, id string) (*entity.Society, error) {
	society, err := s.loadSociety(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !actor.BelongsTo(society.ID) {
		return nil, errs.Forbidden("access denied")
	}
	return society, nil
}

// CreateSociety registers a new active society
func (s *onboardingServiceImpl) CreateSociety(ctx context.Context, actor entity.Actor, req CreateSocietyRequest) (*entity.Society, error) {
	if !actor.IsAdmin() {
		return nil, errs.Forbidden("only admins can create societies")
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, errs.InvalidArgument("name and address are required")
	}
	address := trimAddress(req.Address)
	if !address.IsComplete() {
		return nil, errs.InvalidArgument("complete address is required")
	}
	if address.Country == "" {
		address.Country = entity.DefaultCountry
	}

	now := s.now().UTC()
	society := &entity.Society{
		ID:                 uuid.NewString(),
		Name:               name,
		Address:            address,
		RegistrationNumber: strings.TrimSpace(req.RegistrationNumber),
		ContactInfo:        req.ContactInfo,
		Status:             entity.SocietyStatusActive,
		CreatedBy:          actor.ID,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.store.Societies().Create(ctx, society); err != nil {
		if errors.Is(err, errs.ErrConflict) {
			return nil, errs.Conflict("society with this name already exists")
		}
		return nil, fmt.Errorf("create society: %w", err)
	}

	s.logger.Info("Society created", "society_id", society.ID, "name", society.Name, "created_by", actor.ID)
	s.emit(ctx, event.TypeSocietyCreated, society.ID, actor.ID, map[string]interface{}{
		payloadName:       society.Name,
		payloadAdminEmail: actor.Email,
	})
	return society, nil
}

// UpdateSociety applies update. ID, creator and creation time never change.
func (s *onboardingServiceImpl) UpdateSociety(ctx context.Context, actor entity.Actor, id string, update SocietyUpdate) (*entity.Society, error) {
	if !actor.IsAdmin() {
		return nil, errs.Forbidden("only admins can update societies")
	}
	society, err := s.loadSociety(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return nil, errs.InvalidArgument("name must not be empty")
		}
		society.Name = name
	}
	if update.Address != nil {
		address := trimAddress(*update.Address)
		if !address.IsComplete() {
			return nil, errs.InvalidArgument("complete address is required")
		}
		if address.Country == "" {
			address.Country = entity.DefaultCountry
		}
		society.Address = address
	}
	if update.RegistrationNumber != nil {
		society.RegistrationNumber = strings.TrimSpace(*update.RegistrationNumber)
	}
	if update.ContactInfo != nil {
		society.ContactInfo = *update.ContactInfo
	}
	if update.Status != nil {
		status := entity.SocietyStatus(*update.Status)
		if !status.IsValid() {
			return nil, errs.InvalidArgument("invalid society status %q", *update.Status)
		}
		society.Status = status
	}
	society.UpdatedAt = s.now().UTC()

	if err := s.store.Societies().Update(ctx, society); err != nil {
		if errors.Is(err, errs.ErrConflict) {
			return nil, errs.Conflict("society with this name already exists")
		}
		return nil, fmt.Errorf("update society: %w", err)
	}

	s.logger.Info("Society updated", "society_id", society.ID, "updated_by", actor.ID)
	return society, nil
}

// CreateSocietyUser creates a society user or agent with a temporary password
func (s *onboardingServiceImpl) CreateSocietyUser(ctx context.Context, actor entity.Actor, req CreateUserRequest) (*CreatedUser, error) {
	if !actor.IsAdmin() {
		return nil, errs.Forbidden("only admins can create society users")
	}

	name := strings.TrimSpace(req.Name)
	email := utils.NormalizeEmail(req.Email)
	societyID := strings.TrimSpace(req.SocietyID)
	if name == "" || email == "" || req.Role == "" || societyID == "" {
		return nil, errs.InvalidArgument("name, email, role, and society ID are required")
	}
	if err := utils.ValidateEmail(email); err != nil {
		return nil, errs.InvalidArgument("%v", err)
	}
	role := entity.Role(req.Role)
	if role != entity.RoleSocietyUser && role != entity.RoleAgent {
		return nil, errs.InvalidArgument("invalid role")
	}

	society, err := s.store.Societies().GetByID(ctx, societyID)
	if err != nil {
		return nil, fmt.Errorf("get society: %w", err)
	}
	if society == nil {
		return nil, errs.InvalidArgument("society not found")
	}

	password, err := auth.GenerateTemporaryPassword(TemporaryPasswordLength)
	if err != nil {
		return nil, fmt.Errorf("generate temporary password: %w", err)
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	permissions := entity.DefaultPermissions(role)
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
		SocietyID:    &societyID,
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

	s.logger.Info("Society user created",
		"user_id", user.ID,
		"society_id", societyID,
		"role", role,
		"created_by", actor.ID,
	)
	s.emit(ctx, event.TypeUserCreated, user.ID, actor.ID, map[string]interface{}{
		payloadEmail:             user.Email,
		payloadRole:              string(role),
		payloadSocietyName:       society.Name,
		payloadTemporaryPassword: password,
	})
	return &CreatedUser{User: user, TemporaryPassword: password}, nil
}

// ListSocietyUsers returns the members of a society. Non-admins may only list their own.
func (s *onboardingServiceImpl) ListSocietyUsers(ctx context.Context, actor entity.Actor, societyID string) ([]*entity.User, error) {
	societyID = strings.TrimSpace(societyID)
	if societyID == "" {
		return nil, errs.InvalidArgument("society ID is required")
	}
	if !actor.IsAdmin() && !actor.BelongsTo(societyID) {
		return nil, errs.Forbidden("access denied")
	}

	users, err := s.store.Users().List(ctx, port.UserFilter{SocietyID: societyID})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// UpdateUserPermissions replaces a user's read/write flags
func (s *onboardingServiceImpl) UpdateUserPermissions(ctx context.Context, actor entity.Actor, userID string, permissions entity.Permissions) (*entity.User, error) {
	if !actor.IsAdmin() {
		return nil, errs.Forbidden("only admins can update user permissions")
	}

	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, errs.NotFound("user not found")
	}

	user.Permissions = permissions
	user.UpdatedAt = s.now().UTC()
	if err := s.store.Users().Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.logger.Info("User permissions updated",
		"user_id", user.ID,
		"can_read", permissions.CanRead,
		"can_write", permissions.CanWrite,
		"updated_by", actor.ID,
	)
	return user, nil
}

func (s *onboardingServiceImpl) loadSociety(ctx context.Context, id string) (*entity.Society, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errs.InvalidArgument("society ID is required")
	}
	society, err := s.store.Societies().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get society: %w", err)
	}
	if society == nil {
		return nil, errs.NotFound("society not found")
	}
	return society, nil
}

func (s *onboardingServiceImpl) emit(ctx context.Context, eventType event.Type, aggregateID, actorID string, payload map[string]interface{}) {
	if s.dispatcher == nil {
		return
	}
	s.dispatcher.DispatchAsync(ctx, event.NewEvent(eventType, aggregateID, actorID, payload))
}

func trimAddress(a entity.Address) entity.Address {
	return entity.Address{
		Street:  strings.TrimSpace(a.Street),
		City:    strings.TrimSpace(a.City),
		State:   strings.TrimSpace(a.State),
		ZipCode: strings.TrimSpace(a.ZipCode),
		Country: strings.TrimSpace(a.Country),
	}
}
