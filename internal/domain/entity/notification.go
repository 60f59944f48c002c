package entity

import "time"

// Notification records one outbound message and its delivery outcome
type Notification struct {
	ID            string     `json:"id"`
	Type          string     `json:"type"`
	Recipient     string     `json:"recipient"`
	Subject       string     `json:"subject"`
	Body          string     `json:"body"`
	TransactionID string     `json:"transactionId,omitempty"`
	Channel       string     `json:"channel"`
	Status        string     `json:"status"`
	ErrorMessage  string     `json:"errorMessage,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	SentAt        *time.Time `json:"sentAt,omitempty"`
}
