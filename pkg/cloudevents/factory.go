package cloudevents

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/wms-platform/task-control-service/pkg/logging"
)

// EventFactory creates CloudEvents for one source
type EventFactory struct {
	source string
}

// NewEventFactory creates a new EventFactory for a specific source
func NewEventFactory(source string) *EventFactory {
	return &EventFactory{source: source}
}

// Source returns the event source the factory stamps
func (f *EventFactory) Source() string {
	return f.source
}

// CreateEvent creates a new WMSCloudEvent. The correlation id of the request
// in ctx, if any, is carried over.
func (f *EventFactory) CreateEvent(ctx context.Context, eventType, subject string, data interface{}) *WMSCloudEvent {
	event := &WMSCloudEvent{
		SpecVersion:     "1.0",
		Type:            eventType,
		Source:          f.source,
		Subject:         subject,
		ID:              uuid.New().String(),
		Time:            time.Now().UTC(),
		DataContentType: "application/json",
		Data:            data,
	}

	if v, ok := ctx.Value(logging.CorrelationIDKey).(string); ok {
		event.CorrelationID = v
	}
	if v, ok := ctx.Value(logging.UserIDKey).(string); ok {
		event.OperatorID = v
	}

	return event
}

// CreateTaskEvent creates an event whose subject is the task
func (f *EventFactory) CreateTaskEvent(ctx context.Context, eventType, codTask string, data interface{}) *WMSCloudEvent {
	return f.CreateEvent(ctx, eventType, "task/"+codTask, data)
}
