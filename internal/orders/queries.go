package orders

import (
	"context"
	"slices"

	"github.com/shopspring/decimal"

	"harvestly/internal/models"
)

// GetOrderByID returns the order if the acting user may see it. Orders of
// other users are reported as not found.
func (s *Store) GetOrderByID(ctx context.Context, id string) (models.Order, error) {
	user, err := s.actor(models.RoleBuyer, models.RoleFarmer, models.RoleAdmin)
	if err != nil {
		return models.Order{}, err
	}
	order, err := s.repo.Get(ctx, id)
	if err != nil {
		return models.Order{}, err
	}
	if !canRead(user, order) {
		return models.Order{}, models.ErrNotFound
	}
	return order, nil
}

// GetOrdersForUser lists the orders placed by userID, newest first. Buyers
// may only list their own.
func (s *Store) GetOrdersForUser(ctx context.Context, userID string) ([]models.Order, error) {
	user, err := s.actor(models.RoleBuyer, models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if user.Role == models.RoleBuyer && userID != user.ID {
		return nil, models.ErrForbidden
	}
	list, err := s.repo.ListByBuyer(ctx, userID)
	if err != nil {
		return nil, err
	}
	return newestFirst(list), nil
}

// GetOrdersForSeller lists orders containing at least one product of
// sellerID. There is no seller index; every order is scanned.
func (s *Store) GetOrdersForSeller(ctx context.Context, sellerID string) ([]models.Order, error) {
	user, err := s.actor(models.RoleFarmer, models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if user.Role == models.RoleFarmer && sellerID != user.ID {
		return nil, models.ErrForbidden
	}
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Order, 0)
	for _, o := range all {
		if o.HasSeller(sellerID) {
			out = append(out, o)
		}
	}
	return newestFirst(out), nil
}

// AllOrders lists every order for admins.
func (s *Store) AllOrders(ctx context.Context) ([]models.Order, error) {
	if _, err := s.actor(models.RoleAdmin); err != nil {
		return nil, err
	}
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return newestFirst(all), nil
}

type Stats struct {
	Total    int                        `json:"total"`
	ByStatus map[models.OrderStatus]int `json:"byStatus"`
	// Amount is what a buyer spent or what a farmer earned from their own
	// lines. Cancelled and returned orders are left out.
	Amount decimal.Decimal `json:"amount"`
}

// Stats summarizes the orders visible to the acting user: a buyer's own
// orders, a farmer's sales, or every order for an admin.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	user, err := s.actor(models.RoleBuyer, models.RoleFarmer, models.RoleAdmin)
	if err != nil {
		return Stats{}, err
	}

	var list []models.Order
	switch user.Role {
	case models.RoleBuyer:
		list, err = s.repo.ListByBuyer(ctx, user.ID)
	case models.RoleFarmer, models.RoleAdmin:
		list, err = s.repo.List(ctx)
	}
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{ByStatus: make(map[models.OrderStatus]int), Amount: decimal.Zero}
	for _, o := range list {
		if user.Role == models.RoleFarmer && !o.HasSeller(user.ID) {
			continue
		}
		stats.Total++
		stats.ByStatus[o.Status]++
		if o.Status == models.StatusCancelled || o.Status == models.StatusReturned {
			continue
		}
		switch user.Role {
		case models.RoleFarmer:
			for _, item := range o.Items {
				if item.SellerID == user.ID {
					stats.Amount = stats.Amount.Add(item.LineTotal())
				}
			}
		case models.RoleBuyer, models.RoleAdmin:
			stats.Amount = stats.Amount.Add(o.Total)
		}
	}
	return stats, nil
}

func newestFirst(list []models.Order) []models.Order {
	slices.SortStableFunc(list, func(a, b models.Order) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return list
}
