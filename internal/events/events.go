// Package events publishes reservation lifecycle notifications to external subscribers.
package events

import (
	"context"
	"time"
)

// Event types emitted after a mutation has been persisted.
const (
	AssetAdded         = "asset_added"
	AssetRemoved       = "asset_removed"
	CustomerRegistered = "customer_registered"
	Reserved           = "reserved"
	Started            = "started"
	Returned           = "returned"
	Cancelled          = "cancelled"
)

// Event describes a committed change to the rental store.
type Event struct {
	Type          string    `json:"type"`
	ReservationID int64     `json:"reservation_id,omitempty"`
	AssetID       int64     `json:"asset_id,omitempty"`
	CustomerID    int64     `json:"customer_id,omitempty"`
	Status        string    `json:"status,omitempty"`
	TotalAmount   string    `json:"total_amount,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(context.Context, Event) error { return nil }
