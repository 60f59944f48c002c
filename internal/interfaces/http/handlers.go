package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/societyhub/internal/application/service"
	"github.com/garyjia/societyhub/internal/container"
	"github.com/garyjia/societyhub/internal/domain/entity"
	"github.com/garyjia/societyhub/internal/domain/errs"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// Handlers contains all HTTP request handlers
type Handlers struct {
	deps   Dependencies
	logger Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(deps Dependencies, logger Logger) *Handlers {
	return &Handlers{
		deps:   deps,
		logger: logger,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status     string                               `json:"status"`
	Timestamp  string                               `json:"timestamp"`
	Version    string                               `json:"version"`
	Components map[string]container.ComponentHealth `json:"components,omitempty"`
}

// Ping handles GET /api/ping
func (h *Handlers) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "ping"})
}

// HealthCheck handles GET /api/health
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   Version,
	}

	if h.deps.Health == nil {
		respondOK(c, response)
		return
	}

	health := h.deps.Health.Health(c.Request.Context())
	response.Components = health.Components
	if !health.Overall {
		response.Status = "unhealthy"
		c.JSON(http.StatusServiceUnavailable, Response{
			Success: false,
			Data:    response,
			Error:   "one or more components are unhealthy",
		})
		return
	}

	respondOK(c, response)
}

// Login handles POST /api/auth/login
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		respondBadRequest(c, "email and password are required")
		return
	}

	result, err := h.deps.Auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, result)
}

// Register handles POST /api/auth/register
func (h *Handlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	result, err := h.deps.Auth.Register(c.Request.Context(), service.RegisterRequest{
		Name:        req.Name,
		Email:       req.Email,
		Password:    req.Password,
		Role:        req.Role,
		SocietyID:   req.SocietyID,
		Permissions: req.Permissions,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondCreated(c, result)
}

// GetProfile handles GET /api/auth/profile
func (h *Handlers) GetProfile(c *gin.Context) {
	profile, err := h.deps.Auth.Profile(c.Request.Context(), currentActor(c).ID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, profile)
}

// UpdateProfile handles PUT /api/auth/profile
func (h *Handlers) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	user, err := h.deps.Auth.UpdateProfile(c.Request.Context(), currentActor(c).ID, req.Name, req.Email)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, user)
}

// ChangePassword handles POST /api/auth/change-password
func (h *Handlers) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		respondBadRequest(c, "current and new password are required")
		return
	}

	err := h.deps.Auth.ChangePassword(c.Request.Context(), currentActor(c).ID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, gin.H{"message": "password changed successfully"})
}

// ListSocieties handles GET /api/societies
func (h *Handlers) ListSocieties(c *gin.Context) {
	societies, err := h.deps.Onboarding.ListSocieties(c.Request.Context(), currentActor(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	if societies == nil {
		societies = []*entity.Society{}
	}
	respondOK(c, societies)
}

// GetSociety handles GET /api/societies/:id
func (h *Handlers) GetSociety(c *gin.Context) {
	society, err := h.deps.Onboarding.GetSociety(c.Request.Context(), currentActor(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, society)
}

// CreateSociety handles POST /api/societies
func (h *Handlers) CreateSociety(c *gin.Context) {
	var req CreateSocietyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	society, err := h.deps.Onboarding.CreateSociety(c.Request.Context(), currentActor(c), service.CreateSocietyRequest{
		Name:               req.Name,
		Address:            req.Address,
		RegistrationNumber: req.RegistrationNumber,
		ContactInfo:        req.ContactInfo,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondCreated(c, society)
}

// UpdateSociety handles PUT /api/societies/:id
func (h *Handlers) UpdateSociety(c *gin.Context) {
	var req UpdateSocietyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	society, err := h.deps.Onboarding.UpdateSociety(c.Request.Context(), currentActor(c), c.Param("id"), service.SocietyUpdate{
		Name:               req.Name,
		Address:            req.Address,
		RegistrationNumber: req.RegistrationNumber,
		ContactInfo:        req.ContactInfo,
		Status:             req.Status,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, society)
}

// CreateSocietyUser handles POST /api/societies/users
func (h *Handlers) CreateSocietyUser(c *gin.Context) {
	var req CreateSocietyUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	created, err := h.deps.Onboarding.CreateSocietyUser(c.Request.Context(), currentActor(c), service.CreateUserRequest{
		Name:        req.Name,
		Email:       req.Email,
		Role:        req.Role,
		SocietyID:   req.SocietyID,
		Permissions: req.Permissions,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondCreated(c, created)
}

// ListSocietyUsers handles GET /api/societies/:id/users
func (h *Handlers) ListSocietyUsers(c *gin.Context) {
	users, err := h.deps.Onboarding.ListSocietyUsers(c.Request.Context(), currentActor(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	if users == nil {
		users = []*entity.User{}
	}
	respondOK(c, users)
}

// UpdateUserPermissions handles PUT /api/users/:userId/permissions
func (h *Handlers) UpdateUserPermissions(c *gin.Context) {
	var req UpdatePermissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	if req.Permissions == nil {
		respondError(c, h.logger, errs.InvalidArgument("permissions are required"))
		return
	}

	user, err := h.deps.Onboarding.UpdateUserPermissions(c.Request.Context(), currentActor(c), c.Param("userId"), *req.Permissions)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, user)
}
