package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventProgressRecorded EventType = "progress.recorded"
	EventExerciseImported EventType = "exercise.imported"
	EventUserRegistered   EventType = "user.registered"
)

const (
	EventSource  = "learning-service"
	EventVersion = "1"
)

// Event is the envelope written to the message bus
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// NewEvent stamps a fresh id and timestamp on data
func NewEvent(eventType EventType, data interface{}) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    EventSource,
		Version:   EventVersion,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// EventPublisher publishes domain events
type EventPublisher interface {
	Publish(ctx context.Context, event *Event) error
	Close() error
}

// ProgressRecordedData is the payload of EventProgressRecorded
type ProgressRecordedData struct {
	Kind     string   `json:"kind"`
	UserID   uint     `json:"user_id"`
	ItemID   uint     `json:"item_id"`
	StatusID int16    `json:"status_id"`
	Score    *float64 `json:"score,omitempty"`
	Created  bool     `json:"created"`
}

// ExerciseImportedData is the payload of EventExerciseImported
type ExerciseImportedData struct {
	ExerciseIDs []uint `json:"exercise_ids"`
	Skipped     int    `json:"skipped"`
}

// UserRegisteredData is the payload of EventUserRegistered
type UserRegisteredData struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
}
