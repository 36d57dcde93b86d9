package service

import (
	"context"
)

// EventAccountReparented is emitted when the email-linking step overwrites
// the OAuth provider attached to an existing account. The overwrite itself
// is silent at the store level, so this event is the audit trail operators
// use to spot unexpected provider swaps.
const EventAccountReparented = "account.provider_reparented"

// AccountEvent describes a change to an account's login identity.
type AccountEvent struct {
	RequestID     string `json:"request_id,omitempty"` // For distributed tracing
	Type          string `json:"type"`
	UserUUID      string `json:"user_uuid"`
	Email         string `json:"email"`
	PriorProvider string `json:"prior_provider"`
	NewProvider   string `json:"new_provider"`
	OccurredAt    string `json:"occurred_at"` // RFC3339
}

// EventPublisher defines the interface for publishing account events to a message queue.
type EventPublisher interface {
	// PublishAccountEvent publishes an account event for async consumption.
	PublishAccountEvent(ctx context.Context, event *AccountEvent) error

	// Close releases any resources held by the publisher.
	Close() error
}
