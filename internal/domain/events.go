package domain

import (
	"context"
	"time"
)

// EventType names an audit event emitted after a state change.
type EventType string

const (
	EventSurveyCreated  EventType = "survey.created"
	EventVoteRecorded   EventType = "vote.recorded"
	EventHistoryCleared EventType = "history.cleared"
)

// Event is a notification about a completed state change.
type Event struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	SurveyID   int64     `json:"survey_id,omitempty"`
	Question   string    `json:"question,omitempty"`
	Choice     Choice    `json:"choice,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// EventPublisher delivers events to an external sink.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}
