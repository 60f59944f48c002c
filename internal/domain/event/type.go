package event

// Type identifies the type of domain event
type Type string

const (
	TypeTransactionCreated  Type = "transaction.created"
	TypeTransactionAssigned Type = "transaction.assigned"
	TypeStatusChanged       Type = "transaction.status_changed"
	TypeRemarkAdded         Type = "transaction.remark_added"
	TypeAttachmentAdded     Type = "transaction.attachment_added"
	TypeSocietyCreated      Type = "society.created"
	TypeUserCreated         Type = "user.created"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeTransactionCreated,
		TypeTransactionAssigned,
		TypeStatusChanged,
		TypeRemarkAdded,
		TypeAttachmentAdded,
		TypeSocietyCreated,
		TypeUserCreated:
		return true
	default:
		return false
	}
}
