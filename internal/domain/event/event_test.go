package event

import (
	"testing"
)

func TestType_IsValid(t *testing.T) {
	tests := []struct {
		name      string
		eventType Type
		want      bool
	}{
		{name: "created", eventType: TypeTransactionCreated, want: true},
		{name: "assigned", eventType: TypeTransactionAssigned, want: true},
		{name: "status changed", eventType: TypeStatusChanged, want: true},
		{name: "society created", eventType: TypeSocietyCreated, want: true},
		{name: "user created", eventType: TypeUserCreated, want: true},
		{name: "unknown", eventType: Type("transaction.deleted"), want: false},
		{name: "empty", eventType: Type(""), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.eventType.IsValid(); got != tt.want {
				t.Errorf("Type.IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewEvent(t *testing.T) {
	payload := map[string]interface{}{"status": "completed"}
	e := NewEvent(TypeStatusChanged, "txn-1", "agent-1", payload)

	if e.ID == "" {
		t.Fatal("NewEvent() should generate an ID")
	}
	if e.CorrelationID != e.ID {
		t.Errorf("CorrelationID = %v, want event ID %v", e.CorrelationID, e.ID)
	}
	if e.AggregateID != "txn-1" || e.ActorID != "agent-1" {
		t.Errorf("unexpected ids: aggregate=%v actor=%v", e.AggregateID, e.ActorID)
	}
	if e.Timestamp.IsZero() {
		t.Error("Timestamp should be set")
	}
	if got := e.GetPayloadString("status"); got != "completed" {
		t.Errorf("GetPayloadString() = %v, want completed", got)
	}

	other := NewEvent(TypeStatusChanged, "txn-1", "agent-1", nil)
	if other.ID == e.ID {
		t.Error("NewEvent() should generate unique IDs")
	}
}

func TestNewEventWithCorrelation(t *testing.T) {
	e := NewEventWithCorrelation(TypeUserCreated, "user-1", "admin-1", nil, "corr-42")
	if e.CorrelationID != "corr-42" {
		t.Errorf("CorrelationID = %v, want corr-42", e.CorrelationID)
	}
}

func TestEvent_WithPayload(t *testing.T) {
	original := NewEvent(TypeStatusChanged, "txn-1", "", map[string]interface{}{"from": "pending_on_agent"})
	updated := original.WithPayload("to", "completed")

	if _, ok := original.Payload["to"]; ok {
		t.Error("WithPayload() mutated the original payload")
	}
	if updated.GetPayloadString("from") != "pending_on_agent" || updated.GetPayloadString("to") != "completed" {
		t.Errorf("WithPayload() payload = %v", updated.Payload)
	}
	if updated.ID != original.ID {
		t.Error("WithPayload() should keep the event ID")
	}
}

func TestEvent_GetPayloadMissingKeys(t *testing.T) {
	e := NewEvent(TypeRemarkAdded, "txn-1", "", map[string]interface{}{"n": 3})

	if got := e.GetPayloadString("n"); got != "" {
		t.Errorf("GetPayloadString() on non-string = %q, want empty", got)
	}
	if got := e.GetPayloadBool("missing"); got {
		t.Error("GetPayloadBool() on missing key should be false")
	}
}
