package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/wms-platform/task-control-service/pkg/cloudevents"
)

// DefaultMaxRetries bounds delivery attempts per event
const DefaultMaxRetries = 10

// Event is a CloudEvent waiting in the outbox. It is written in the same
// transaction as the aggregate change that produced it.
type Event struct {
	ID            string          `bson:"_id" json:"id"`
	AggregateID   string          `bson:"aggregateId" json:"aggregateId"`
	AggregateType string          `bson:"aggregateType" json:"aggregateType"`
	EventType     string          `bson:"eventType" json:"eventType"`
	Topic         string          `bson:"topic" json:"topic"`
	Payload       json.RawMessage `bson:"payload" json:"payload"`
	CreatedAt     time.Time       `bson:"createdAt" json:"createdAt"`
	PublishedAt   *time.Time      `bson:"publishedAt,omitempty" json:"publishedAt,omitempty"`
	RetryCount    int             `bson:"retryCount" json:"retryCount"`
	LastError     string          `bson:"lastError,omitempty" json:"lastError,omitempty"`
	MaxRetries    int             `bson:"maxRetries" json:"maxRetries"`
}

// NewEvent wraps a CloudEvent for the outbox
func NewEvent(aggregateID, aggregateType, topic string, ce *cloudevents.WMSCloudEvent) (*Event, error) {
	payload, err := json.Marshal(ce)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            uuid.New().String(),
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     ce.Type,
		Topic:         topic,
		Payload:       payload,
		CreatedAt:     time.Now().UTC(),
		MaxRetries:    DefaultMaxRetries,
	}, nil
}

// ShouldRetry checks if the event should be retried
func (e *Event) ShouldRetry() bool {
	return e.PublishedAt == nil && e.RetryCount < e.MaxRetries
}

// CloudEvent decodes the stored payload
func (e *Event) CloudEvent() (*cloudevents.WMSCloudEvent, error) {
	var ce cloudevents.WMSCloudEvent
	if err := json.Unmarshal(e.Payload, &ce); err != nil {
		return nil, err
	}
	return &ce, nil
}
