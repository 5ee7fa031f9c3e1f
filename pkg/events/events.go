package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/gatehouse/visitgate/pkg/logger"
)

// Publisher is the write side of the event bus. Publication is
// best-effort: callers log failures and carry on.
type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

type NATSPublisher struct {
	conn *nats.Conn
}

func NewNATSPublisher(url string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSPublisher{conn: conn}, nil
}

func (n *NATSPublisher) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject, "data", string(payload))

	return n.conn.Publish(subject, payload)
}

func (n *NATSPublisher) Close() error {
	n.conn.Close()
	return nil
}

// NopPublisher discards events. Used when the event bus is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, interface{}) error { return nil }
func (NopPublisher) Close() error                                       { return nil }

// Event subjects
const (
	UserCreated           = "user.created"
	VisitorCreated        = "visitor.created"
	VisitorCheckedIn      = "visitor.checked_in"
	VisitorCheckedOut     = "visitor.checked_out"
	VisitorMeetingUpdated = "visitor.meeting_updated"
)

// Event payloads
type UserCreatedEvent struct {
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type VisitorCreatedEvent struct {
	VisitorID       int64     `json:"visitor_id"`
	VisitorNumber   string    `json:"visitor_number"`
	Name            string    `json:"name"`
	ContactPersonID int64     `json:"contact_person_id"`
	Purpose         string    `json:"purpose"`
	CreatedBy       int64     `json:"created_by"`
	CreatedAt       time.Time `json:"created_at"`
}

type VisitorCheckedInEvent struct {
	VisitorID     int64      `json:"visitor_id"`
	VisitorNumber string     `json:"visitor_number"`
	InTime        *time.Time `json:"in_time,omitempty"`
}

type VisitorCheckedOutEvent struct {
	VisitorID      int64     `json:"visitor_id"`
	VisitorNumber  string    `json:"visitor_number"`
	OutTime        time.Time `json:"out_time"`
	TotalTimeSpent *int      `json:"total_time_spent,omitempty"`
}

type VisitorMeetingUpdatedEvent struct {
	VisitorID       int64     `json:"visitor_id"`
	VisitorNumber   string    `json:"visitor_number"`
	ContactPersonID int64     `json:"contact_person_id"`
	MeetingStatus   string    `json:"meeting_status"`
	OutTime         time.Time `json:"out_time"`
}
