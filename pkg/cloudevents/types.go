package cloudevents

import (
	"time"
)

// Task control event types
const (
	TaskAssigned  = "wms.task.assigned"
	TaskUpdated   = "wms.task.updated"
	TaskCompleted = "wms.task.completed"
)

// Extension attribute names
const (
	ExtCorrelationID = "wmscorrelationid"
	ExtOperatorID    = "wmsoperatorid"
)

// WMSCloudEvent is a CloudEvents 1.0 envelope with WMS extensions
type WMSCloudEvent struct {
	SpecVersion     string      `json:"specversion"`
	Type            string      `json:"type"`
	Source          string      `json:"source"`
	Subject         string      `json:"subject,omitempty"`
	ID              string      `json:"id"`
	Time            time.Time   `json:"time"`
	DataContentType string      `json:"datacontenttype"`
	Data            interface{} `json:"data"`

	CorrelationID string `json:"wmscorrelationid,omitempty"`
	OperatorID    string `json:"wmsoperatorid,omitempty"`
}
