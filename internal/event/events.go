package event

import (
	"context"
	"time"
)

type MFAEventType string

const (
	MFAProvisioned        MFAEventType = "mfa.provisioned"
	MFAEnabled            MFAEventType = "mfa.enabled"
	MFADisabled           MFAEventType = "mfa.disabled"
	MFABackupCodeRedeemed MFAEventType = "mfa.backup_code_redeemed"
)

type EventPublisher interface {
	PublishCustomerCreated(ctx context.Context, event CustomerCreatedEvent) error
	PublishMFAEvent(ctx context.Context, event MFAEvent) error
}

// CustomerEventPayload carries no SSN or MFA secret.
type CustomerEventPayload struct {
	CustomerID int64     `json:"customerId"`
	FirstName  string    `json:"firstName"`
	LastName   string    `json:"lastName"`
	Email      string    `json:"email"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
}

type CustomerCreatedEvent struct {
	Timestamp time.Time            `json:"timestamp"`
	Payload   CustomerEventPayload `json:"payload"`
}

type MFAEvent struct {
	Type       MFAEventType `json:"type"`
	CustomerID int64        `json:"customerId"`
	Timestamp  time.Time    `json:"timestamp"`
}
