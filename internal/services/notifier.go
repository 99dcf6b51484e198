package services

import "context"

// Notifier delivers a plain-text message to an email address. Delivery is
// at-least-once: a retried Send after a success may deliver twice.
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}

// EventPublisher publishes domain events to the message broker.
type EventPublisher interface {
	PublishJSON(routingKey string, v any) error
}

// Routing keys for loan lifecycle events.
const (
	EventLoanBorrowed = "loan.borrowed"
	EventLoanReturned = "loan.returned"
	EventLoanReminded = "loan.reminded"
)
