package entity

import (
	"strings"
	"time"
)

// Address is the postal address of a society
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}

// IsComplete returns true if every mandatory line is filled in
func (a Address) IsComplete() bool {
	for _, line := range []string{a.Street, a.City, a.State, a.ZipCode} {
		if strings.TrimSpace(line) == "" {
			return false
		}
	}
	return true
}

// ContactInfo holds optional contact details of a society
type ContactInfo struct {
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	Website string `json:"website,omitempty"`
}

// Society is a tenant organization whose users submit transactions
type Society struct {
	ID                 string        `json:"id"`
	Name               string        `json:"name"`
	Address            Address       `json:"address"`
	RegistrationNumber string        `json:"registrationNumber,omitempty"`
	ContactInfo        ContactInfo   `json:"contactInfo"`
	Status             SocietyStatus `json:"status"`
	CreatedBy          string        `json:"createdBy"`
	CreatedAt          time.Time     `json:"createdAt"`
	UpdatedAt          time.Time     `json:"updatedAt"`
}

// IsActive returns true if the society accepts new activity
func (s *Society) IsActive() bool {
	return s.Status == SocietyStatusActive
}
