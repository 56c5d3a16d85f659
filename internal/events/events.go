package events

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"harvestly/internal/models"
)

type Type string

const (
	OrderCreated       Type = "order.created"
	OrderStatusChanged Type = "order.status_changed"
	OrderCancelled     Type = "order.cancelled"
	OrderReturned      Type = "order.returned"
)

// OrderEvent is published after every accepted order change. Sellers lists
// every farmer with a line in the order so downstream consumers can fan out
// notifications.
type OrderEvent struct {
	Type       Type               `json:"type"`
	OrderID    string             `json:"orderId"`
	BuyerID    string             `json:"buyerId"`
	Sellers    []string           `json:"sellers"`
	Status     models.OrderStatus `json:"status"`
	Previous   models.OrderStatus `json:"previousStatus,omitempty"`
	Reason     string             `json:"reason,omitempty"`
	Total      decimal.Decimal    `json:"total"`
	OccurredAt time.Time          `json:"occurredAt"`
}

// NewOrderEvent builds the event for order after a change from previous.
func NewOrderEvent(t Type, order models.Order, previous models.OrderStatus, reason string) OrderEvent {
	occurred := order.UpdatedAt
	if last, ok := order.Logistics.Last(); ok {
		occurred = last.Timestamp
	}
	return OrderEvent{
		Type:       t,
		OrderID:    order.ID,
		BuyerID:    order.BuyerID,
		Sellers:    order.SellerIDs(),
		Status:     order.Status,
		Previous:   previous,
		Reason:     reason,
		Total:      order.Total,
		OccurredAt: occurred,
	}
}

type Publisher interface {
	Publish(ctx context.Context, event OrderEvent) error
}

// LogPublisher writes events to the standard logger. It is the default when
// no broker is configured.
type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, event OrderEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	log.Printf("[EVENTS] [INFO] %s %s", event.Type, payload)
	return nil
}

// Fanout delivers every event to each publisher in order. Failures do not
// stop delivery to the remaining publishers and are returned joined.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, event OrderEvent) error {
	var errs []error
	for _, p := range f {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []OrderEvent
}

func (r *Recorder) Publish(_ context.Context, event OrderEvent) error {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
	return nil
}

func (r *Recorder) Events() []OrderEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]OrderEvent(nil), r.events...)
}
