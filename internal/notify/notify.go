// Package notify publishes workflow events for the platform's notification
// pipeline. Delivery is best-effort: a failed publish is logged and never
// affects the transaction that produced the event.
package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// EventType identifies what happened.
type EventType string

const (
	EventProgressRecorded EventType = "progress.recorded"
	EventPaymentRequested EventType = "payment.requested"
	EventPaymentApproved  EventType = "payment.approved"
	EventPaymentRejected  EventType = "payment.rejected"
	EventPaymentPaid      EventType = "payment.paid"
)

// Event is the payload handed to the notification pipeline after a
// successful commit.
type Event struct {
	Type       EventType      `json:"type"`
	ProjectID  uuid.UUID      `json:"project_id"`
	Details    map[string]any `json:"details,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

type Notifier interface {
	Publish(ctx context.Context, event Event) error
}

const dispatchTimeout = 5 * time.Second

// Dispatch publishes the event in the background, detached from the caller's
// context so an already-finished request cannot cancel delivery.
func Dispatch(ctx context.Context, n Notifier, event Event) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), dispatchTimeout)
		defer cancel()

		if err := n.Publish(ctx, event); err != nil {
			slog.Error("failed to publish notification event",
				"type", event.Type,
				"project_id", event.ProjectID,
				"error", err,
			)
		}
	}()
}

// LogNotifier writes events to the log. Used when no broker is configured.
type LogNotifier struct{}

func (LogNotifier) Publish(_ context.Context, event Event) error {
	slog.Info("notification event",
		"type", event.Type,
		"project_id", event.ProjectID,
		"details", event.Details,
	)

	return nil
}
