package orders

import (
	"context"
	"sync"

	"harvestly/internal/models"
)

// Repository persists orders. Update must only succeed while the stored
// order still has the expected status, which keeps concurrent writers from
// reordering the logistics timeline.
type Repository interface {
	Insert(ctx context.Context, order models.Order) error
	Get(ctx context.Context, id string) (models.Order, error)
	ListByBuyer(ctx context.Context, buyerID string) ([]models.Order, error)
	List(ctx context.Context) ([]models.Order, error)
	Update(ctx context.Context, order models.Order, expected models.OrderStatus) error
}

type MemoryRepository struct {
	mu     sync.RWMutex
	orders map[string]models.Order
	order  []string
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{orders: make(map[string]models.Order)}
}

func (r *MemoryRepository) Insert(_ context.Context, order models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.orders[order.ID]; exists {
		return ErrConflict
	}
	r.orders[order.ID] = order.Clone()
	r.order = append(r.order, order.ID)
	return nil
}

func (r *MemoryRepository) Get(_ context.Context, id string) (models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	order, ok := r.orders[id]
	if !ok {
		return models.Order{}, models.ErrNotFound
	}
	return order.Clone(), nil
}

func (r *MemoryRepository) ListByBuyer(_ context.Context, buyerID string) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Order, 0)
	for _, id := range r.order {
		if o := r.orders[id]; o.BuyerID == buyerID {
			out = append(out, o.Clone())
		}
	}
	return out, nil
}

func (r *MemoryRepository) List(_ context.Context) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Order, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.orders[id].Clone())
	}
	return out, nil
}

func (r *MemoryRepository) Update(_ context.Context, order models.Order, expected models.OrderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.orders[order.ID]
	if !ok {
		return models.ErrNotFound
	}
	if current.Status != expected {
		return ErrConflict
	}
	r.orders[order.ID] = order.Clone()
	return nil
}
