package entity

import (
	"testing"
	"time"

	"github.com/garyjia/societyhub/internal/domain/workflow"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTransaction_Clone(t *testing.T) {
	agent := "agent-1"
	amount := decimal.NewFromInt(25000)
	completed := time.Now()
	original := &Transaction{
		ID:              "txn-1",
		Amount:          &amount,
		Status:          workflow.StateCompleted,
		AssignedToAgent: &agent,
		CompletedAt:     &completed,
		Remarks:         []Remark{{Text: "ok", Type: workflow.RemarkApproval}},
	}

	clone := original.Clone()
	*clone.AssignedToAgent = "agent-2"
	clone.Remarks[0].Text = "changed"
	clone.Remarks = append(clone.Remarks, Remark{Text: "extra"})

	assert.Equal(t, "agent-1", *original.AssignedToAgent)
	assert.Equal(t, "ok", original.Remarks[0].Text)
	assert.Len(t, original.Remarks, 1)
	assert.True(t, original.Amount.Equal(*clone.Amount))
	assert.Nil(t, (*Transaction)(nil).Clone())
}

func TestTransaction_IsAssignedTo(t *testing.T) {
	agent := "agent-1"
	txn := &Transaction{}
	assert.False(t, txn.IsAssignedTo("agent-1"))

	txn.AssignedToAgent = &agent
	assert.True(t, txn.IsAssignedTo("agent-1"))
	assert.False(t, txn.IsAssignedTo("agent-2"))
}

func TestTransaction_ProcessingTime(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	txn := &Transaction{CreatedAt: created}

	_, ok := txn.ProcessingTime()
	assert.False(t, ok)

	completed := created.Add(48 * time.Hour)
	txn.CompletedAt = &completed
	d, ok := txn.ProcessingTime()
	assert.True(t, ok)
	assert.Equal(t, 48*time.Hour, d)
}

func TestAddress_IsComplete(t *testing.T) {
	full := Address{Street: "123 Green Valley Road", City: "Mumbai", State: "Maharashtra", ZipCode: "400001"}
	assert.True(t, full.IsComplete())

	missingZip := full
	missingZip.ZipCode = "  "
	assert.False(t, missingZip.IsComplete())
}

func TestDefaultPermissions(t *testing.T) {
	assert.Equal(t, Permissions{CanRead: true, CanWrite: true}, DefaultPermissions(RoleSocietyUser))
	assert.Equal(t, Permissions{CanRead: true, CanWrite: false}, DefaultPermissions(RoleAgent))
}

func TestActor(t *testing.T) {
	society := "society-1"
	user := &User{ID: "u1", Name: "Rajesh", Email: "r@example.com", Role: RoleSocietyUser, SocietyID: &society}

	actor := ActorFromUser(user)
	assert.True(t, actor.BelongsTo("society-1"))
	assert.False(t, actor.BelongsTo("society-2"))
	assert.False(t, actor.IsAdmin())

	admin := ActorFromUser(&User{ID: "a1", Role: RoleAdmin})
	assert.True(t, admin.IsAdmin())
	assert.False(t, admin.BelongsTo(""))
}
