package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/societyhub/internal/domain/entity"
)

// LoginRequest is the body of POST /api/auth/login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the body of POST /api/auth/register
type RegisterRequest struct {
	Name        string              `json:"name"`
	Email       string              `json:"email"`
	Password    string              `json:"password"`
	Role        string              `json:"role"`
	SocietyID   string              `json:"societyId"`
	Permissions *entity.Permissions `json:"permissions"`
}

// UpdateProfileRequest is the body of PUT /api/auth/profile
type UpdateProfileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ChangePasswordRequest is the body of POST /api/auth/change-password
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// CreateSocietyRequest is the body of POST /api/societies
type CreateSocietyRequest struct {
	Name               string             `json:"name"`
	Address            entity.Address     `json:"address"`
	RegistrationNumber string             `json:"registrationNumber"`
	ContactInfo        entity.ContactInfo `json:"contactInfo"`
}

// UpdateSocietyRequest is the body of PUT /api/societies/:id. Absent fields are left untouched.
type UpdateSocietyRequest struct {
	Name               *string             `json:"name"`
	Address            *entity.Address     `json:"address"`
	RegistrationNumber *string             `json:"registrationNumber"`
	ContactInfo        *entity.ContactInfo `json:"contactInfo"`
	Status             *string             `json:"status"`
}

// CreateSocietyUserRequest is the body of POST /api/societies/users
type CreateSocietyUserRequest struct {
	Name        string              `json:"name"`
	Email       string              `json:"email"`
	Role        string              `json:"role"`
	SocietyID   string              `json:"societyId"`
	Permissions *entity.Permissions `json:"permissions"`
}

// UpdatePermissionsRequest is the body of PUT /api/users/:userId/permissions
type UpdatePermissionsRequest struct {
	Permissions *entity.Permissions `json:"permissions"`
}

// CreateTransactionRequest is the body of POST /api/transactions
type CreateTransactionRequest struct {
	VendorName string      `json:"vendorName"`
	Nature     string      `json:"nature"`
	Amount     amountInput `json:"amount"`
	Remarks    string      `json:"remarks"`
}

// UpdateStatusRequest is the body of PUT /api/transactions/:id/status
type UpdateStatusRequest struct {
	Status string `json:"status"`
	Remark string `json:"remark"`
}

// AssignRequest is the body of PUT /api/transactions/:id/assign
type AssignRequest struct {
	AgentID string `json:"agentId"`
}

// RemarkRequest is the body of POST /api/transactions/:id/remarks
type RemarkRequest struct {
	Text string `json:"text"`
	Type string `json:"type"`
}

// amountInput accepts a JSON number or a numeric string.
// null and absent both decode to the empty string.
type amountInput string

// UnmarshalJSON implements json.Unmarshaler
func (a *amountInput) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = ""
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = amountInput(strings.TrimSpace(s))
		return nil
	}

	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&n); err != nil {
		return fmt.Errorf("amount must be a number or a numeric string")
	}
	*a = amountInput(n.String())
	return nil
}

// parseDateParam parses a report bound given as RFC 3339 or YYYY-MM-DD.
// A date-only upper bound covers the whole day.
func parseDateParam(raw string, endOfDay bool) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}

	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, expected YYYY-MM-DD or RFC 3339", raw)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
