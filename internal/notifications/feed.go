// Package notifications keeps the farmer-facing feed of order updates. The
// feed is an events.Publisher, so it receives every accepted order change
// and files one notification per seller with a line in the order.
package notifications

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"harvestly/internal/events"
	"harvestly/internal/models"
)

const (
	TypeOrderUpdate = "order_update"

	// DefaultLimit is how many notifications each seller keeps.
	DefaultLimit = 50
)

type Notification struct {
	ID        string    `json:"_id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	OrderID   string    `json:"orderId,omitempty"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}

type Option func(*Feed)

func WithLimit(n int) Option {
	return func(f *Feed) {
		if n > 0 {
			f.limit = n
		}
	}
}

func WithIDGenerator(fn func() string) Option {
	return func(f *Feed) {
		if fn != nil {
			f.newID = fn
		}
	}
}

// Feed holds each seller's notifications, newest first.
type Feed struct {
	newID func() string
	limit int

	mu       sync.Mutex
	bySeller map[string][]Notification
}

func NewFeed(opts ...Option) *Feed {
	f := &Feed{
		newID:    uuid.NewString,
		limit:    DefaultLimit,
		bySeller: make(map[string][]Notification),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Feed) Publish(_ context.Context, event events.OrderEvent) error {
	title, message := describe(event)
	created := event.OccurredAt
	if created.IsZero() {
		created = time.Now()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, seller := range event.Sellers {
		if seller == "" {
			continue
		}
		n := Notification{
			ID:        f.newID(),
			Type:      TypeOrderUpdate,
			Title:     title,
			Message:   message,
			OrderID:   event.OrderID,
			CreatedAt: created,
		}
		list := append([]Notification{n}, f.bySeller[seller]...)
		if len(list) > f.limit {
			list = list[:f.limit]
		}
		f.bySeller[seller] = list
	}
	return nil
}

func describe(event events.OrderEvent) (string, string) {
	switch event.Type {
	case events.OrderCreated:
		return "New order", fmt.Sprintf("Order %s was placed", event.OrderID)
	case events.OrderCancelled:
		return "Order cancelled", fmt.Sprintf("Order %s was cancelled: %s", event.OrderID, event.Reason)
	case events.OrderReturned:
		return "Order returned", fmt.Sprintf("Order %s was returned: %s", event.OrderID, event.Reason)
	}
	return "Order update", fmt.Sprintf("Order %s is now %s", event.OrderID, event.Status)
}

// List returns the seller's notifications and how many are unread.
func (f *Feed) List(sellerID string) ([]Notification, int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	list := append(make([]Notification, 0, len(f.bySeller[sellerID])), f.bySeller[sellerID]...)
	unread := 0
	for _, n := range list {
		if !n.IsRead {
			unread++
		}
	}
	return list, unread
}

// MarkRead flags one of the seller's notifications. Another seller's id is
// reported as not found.
func (f *Feed) MarkRead(sellerID, id string) (Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	list := f.bySeller[sellerID]
	for i := range list {
		if list[i].ID == id {
			list[i].IsRead = true
			return list[i], nil
		}
	}
	log.Printf("[NOTIFY] [WARN] notification %s not found for %s", id, sellerID)
	return Notification{}, models.ErrNotFound
}

// MarkAllRead flags every notification of the seller and returns how many
// changed.
func (f *Feed) MarkAllRead(sellerID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	changed := 0
	for i := range f.bySeller[sellerID] {
		if !f.bySeller[sellerID][i].IsRead {
			f.bySeller[sellerID][i].IsRead = true
			changed++
		}
	}
	return changed
}
