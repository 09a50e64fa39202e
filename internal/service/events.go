package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/noah-isme/edusync-assessment-api/internal/models"
	"github.com/noah-isme/edusync-assessment-api/internal/observability"
)

const (
	// EventSubmissionCreated is emitted once a submission is stored.
	EventSubmissionCreated = "submission.created"
	// EventSubmissionGraded is emitted whenever a submission reaches a grade.
	EventSubmissionGraded = "submission.graded"
)

// SubmissionEvent is the payload published to the broker for submission lifecycle changes.
type SubmissionEvent struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"`
	SubmissionID uint      `json:"submission_id"`
	AssessmentID uint      `json:"assessment_id"`
	StudentID    uint      `json:"student_id"`
	Status       string    `json:"status"`
	Grade        *float64  `json:"grade"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// NewSubmissionEvent builds an event describing the submission's current state.
func NewSubmissionEvent(eventType string, submission models.Submission, occurredAt time.Time) SubmissionEvent {
	return SubmissionEvent{
		ID:           uuid.NewString(),
		Type:         eventType,
		SubmissionID: submission.ID,
		AssessmentID: submission.AssessmentID,
		StudentID:    submission.StudentID,
		Status:       string(submission.Status),
		Grade:        submission.Grade,
		OccurredAt:   occurredAt.UTC(),
	}
}

// EventPublisher hands submission events to downstream consumers such as notifications.
type EventPublisher interface {
	Publish(ctx context.Context, event SubmissionEvent) error
}

type natsEventPublisher struct {
	conn    *nats.Conn
	subject string
}

// NewEventPublisher publishes events on "<subject>.<event type>". A nil connection yields a
// publisher that drops every event.
func NewEventPublisher(conn *nats.Conn, subject string) EventPublisher {
	return &natsEventPublisher{conn: conn, subject: subject}
}

func (p *natsEventPublisher) Publish(ctx context.Context, event SubmissionEvent) error {
	if p.conn == nil || p.subject == "" {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.conn.Publish(p.subject+"."+event.Type, payload)
}

// publishEvents is best effort: the submission is already committed, so failures are only logged.
func publishEvents(ctx context.Context, publisher EventPublisher, logger zerolog.Logger, events ...SubmissionEvent) {
	if publisher == nil {
		return
	}

	for _, event := range events {
		if err := publisher.Publish(ctx, event); err != nil {
			observability.EventsPublished().WithLabelValues(event.Type, "failed").Inc()
			logger.Warn().Err(err).Str("event_type", event.Type).Uint("submission_id", event.SubmissionID).Msg("failed to publish submission event")
			continue
		}
		observability.EventsPublished().WithLabelValues(event.Type, "published").Inc()
	}
}
