package entity

// Role identifies what an authenticated user may do
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleSocietyUser Role = "society_user"
	RoleAgent       Role = "agent"
)

// IsValid returns true for the three known roles
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleSocietyUser, RoleAgent:
		return true
	default:
		return false
	}
}

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}

// SocietyStatus is the lifecycle state of a tenant
type SocietyStatus string

const (
	SocietyStatusActive    SocietyStatus = "active"
	SocietyStatusInactive  SocietyStatus = "inactive"
	SocietyStatusSuspended SocietyStatus = "suspended"
)

// IsValid returns true for the known society statuses
func (s SocietyStatus) IsValid() bool {
	switch s {
	case SocietyStatusActive, SocietyStatusInactive, SocietyStatusSuspended:
		return true
	default:
		return false
	}
}

// DefaultCountry is used when a society address omits the country
const DefaultCountry = "India"

// Notification status constants
const (
	NotificationStatusPending = "PENDING"
	NotificationStatusSent    = "SENT"
	NotificationStatusFailed  = "FAILED"
)

// Notification type constants
const (
	NotificationTypeTransactionUpdate = "transaction_update"
	NotificationTypeUserCreation      = "user_creation"
	NotificationTypeSocietyCreation   = "society_creation"
)
