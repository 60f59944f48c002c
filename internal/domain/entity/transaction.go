package entity

import (
	"time"

	"github.com/garyjia/societyhub/internal/domain/workflow"
	"github.com/shopspring/decimal"
)

// Transaction represents one vendor payment/approval request owned by a society
type Transaction struct {
	ID              string           `json:"id"`
	VendorName      string           `json:"vendorName"`
	Nature          string           `json:"nature"`
	Amount          *decimal.Decimal `json:"amount"`
	Status          workflow.State   `json:"status"`
	CreatedBy       string           `json:"createdBy"`
	SocietyID       string           `json:"societyId"`
	AssignedToAgent *string          `json:"assignedToAgent"`
	Remarks         []Remark         `json:"remarks"`
	Attachments     []Attachment     `json:"attachments"`
	Version         int64            `json:"version"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
	CompletedAt     *time.Time       `json:"completedAt"`
}

// Remark is an append-only audit note on a transaction
type Remark struct {
	Text      string              `json:"text"`
	Author    string              `json:"author"`
	Timestamp time.Time           `json:"timestamp"`
	Type      workflow.RemarkType `json:"type"`
}

// IsAssignedTo reports whether the transaction is currently assigned to agentID
func (t *Transaction) IsAssignedTo(agentID string) bool {
	return t.AssignedToAgent != nil && *t.AssignedToAgent == agentID
}

// IsCompleted returns true if the transaction reached the completed status
func (t *Transaction) IsCompleted() bool {
	return t.Status == workflow.StateCompleted
}

// ProcessingTime returns the time from creation to completion.
// ok is false while the transaction is still open.
func (t *Transaction) ProcessingTime() (d time.Duration, ok bool) {
	if t.CompletedAt == nil {
		return 0, false
	}
	return t.CompletedAt.Sub(t.CreatedAt), true
}

// Clone returns a deep copy so stores can hand out values callers may mutate freely
func (t *Transaction) Clone() *Transaction {
	if t == nil {
		return nil
	}
	c := *t
	if t.Amount != nil {
		amount := *t.Amount
		c.Amount = &amount
	}
	if t.AssignedToAgent != nil {
		agent := *t.AssignedToAgent
		c.AssignedToAgent = &agent
	}
	if t.CompletedAt != nil {
		completed := *t.CompletedAt
		c.CompletedAt = &completed
	}
	c.Remarks = append([]Remark(nil), t.Remarks...)
	c.Attachments = append([]Attachment(nil), t.Attachments...)
	return &c
}
