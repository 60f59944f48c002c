package entity

import "time"

// Permissions are the coarse read/write flags granted to a user
type Permissions struct {
	CanRead  bool `json:"canRead"`
	CanWrite bool `json:"canWrite"`
}

// DefaultPermissions returns the flags a freshly onboarded user gets for role
func DefaultPermissions(role Role) Permissions {
	return Permissions{
		CanRead:  true,
		CanWrite: role == RoleSocietyUser,
	}
}

// User represents an authenticated actor of the system
type User struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	Email           string      `json:"email"`
	PasswordHash    string      `json:"-"`
	Role            Role        `json:"role"`
	SocietyID       *string     `json:"societyId"`
	Permissions     Permissions `json:"permissions"`
	IsEmailVerified bool        `json:"isEmailVerified"`
	LastLogin       *time.Time  `json:"lastLogin,omitempty"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}

// Society returns the affiliated society ID or an empty string for admins
func (u *User) Society() string {
	if u.SocietyID == nil {
		return ""
	}
	return *u.SocietyID
}

// Clone returns a deep copy of the user
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.SocietyID != nil {
		society := *u.SocietyID
		c.SocietyID = &society
	}
	if u.LastLogin != nil {
		last := *u.LastLogin
		c.LastLogin = &last
	}
	return &c
}

// Actor is the authenticated caller of an operation
type Actor struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	SocietyID string `json:"societyId,omitempty"`
}

// ActorFromUser builds the actor view of a stored user
func ActorFromUser(u *User) Actor {
	return Actor{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		SocietyID: u.Society(),
	}
}

// IsAdmin returns true for administrators
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// BelongsTo reports whether the actor is affiliated with societyID
func (a Actor) BelongsTo(societyID string) bool {
	return a.SocietyID != "" && a.SocietyID == societyID
}
