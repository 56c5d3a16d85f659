package orders

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"harvestly/internal/cart"
	"harvestly/internal/events"
	"harvestly/internal/models"
	"harvestly/internal/session"
	"harvestly/internal/validation"
)

// DefaultDeliveryFee is added to every order's subtotal.
var DefaultDeliveryFee = decimal.NewFromInt(50)

const defaultPaymentMethod = "cod"

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func WithDeliveryFee(fee decimal.Decimal) Option {
	return func(s *Store) {
		if !fee.IsNegative() {
			s.deliveryFee = fee
		}
	}
}

func WithPublisher(p events.Publisher) Option {
	return func(s *Store) {
		if p != nil {
			s.publisher = p
		}
	}
}

func WithIDGenerator(fn func() string) Option {
	return func(s *Store) {
		s.newID = fn
	}
}

// Store turns carts into orders and moves orders through their lifecycle on
// behalf of the acting user.
type Store struct {
	repo        Repository
	session     session.View
	publisher   events.Publisher
	now         func() time.Time
	newID       func() string
	deliveryFee decimal.Decimal

	// mu serializes transitions issued through this store. Writers in other
	// stores are held off by the status-conditional repository update.
	mu sync.Mutex
}

func New(repo Repository, view session.View, opts ...Option) *Store {
	s := &Store{
		repo:        repo,
		session:     view,
		publisher:   events.LogPublisher{},
		now:         time.Now,
		newID:       uuid.NewString,
		deliveryFee: DefaultDeliveryFee,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) DeliveryFee() decimal.Decimal {
	return s.deliveryFee
}

type CheckoutRequest struct {
	Cart            *cart.Cart
	DeliveryAddress models.DeliveryAddress
	BuyerName       string
	BuyerEmail      string
	BuyerPhone      string
	PaymentMethod   string
	PaymentID       string
}

// CreateOrder places an order for the whole cart. The cart is cleared only
// if the order was stored; on any error both are left untouched.
func (s *Store) CreateOrder(ctx context.Context, req CheckoutRequest) (models.Order, error) {
	user, err := s.actor(models.RoleBuyer)
	if err != nil {
		return models.Order{}, err
	}
	if req.Cart == nil {
		return models.Order{}, ErrEmptyCart
	}

	var order models.Order
	err = req.Cart.Checkout(func(items []models.LineItem) error {
		if len(items) == 0 {
			return ErrEmptyCart
		}
		if violations := models.StockViolations(items); len(violations) > 0 {
			return &StockViolationError{Violations: violations}
		}
		if err := validation.Struct(req.DeliveryAddress); err != nil {
			return err
		}

		order = s.buildOrder(user, req, items)
		return s.repo.Insert(ctx, order)
	})
	if err != nil {
		log.Printf("[ORDER] [WARN] checkout rejected for %s: %v", user.ID, err)
		return models.Order{}, err
	}

	log.Printf("[ORDER] [INFO] order %s created for %s, total %s", order.ID, user.ID, order.Total)
	s.publish(ctx, events.NewOrderEvent(events.OrderCreated, order, "", ""))
	return order, nil
}

func (s *Store) buildOrder(user models.User, req CheckoutRequest, items []models.LineItem) models.Order {
	now := s.now()
	subtotal := models.Subtotal(items)

	order := models.Order{
		ID:              s.newID(),
		BuyerID:         user.ID,
		BuyerName:       firstNonEmpty(req.BuyerName, user.Name()),
		BuyerEmail:      firstNonEmpty(req.BuyerEmail, user.Email),
		BuyerPhone:      firstNonEmpty(req.BuyerPhone, user.Phone),
		Items:           items,
		Subtotal:        subtotal,
		DeliveryFee:     s.deliveryFee,
		Total:           subtotal.Add(s.deliveryFee),
		PaymentMethod:   firstNonEmpty(req.PaymentMethod, defaultPaymentMethod),
		PaymentID:       strings.TrimSpace(req.PaymentID),
		DeliveryAddress: req.DeliveryAddress,
		Status:          models.StatusConfirmed,
	}
	order.Logistics = models.Timeline{}.Append(models.StatusConfirmed, now, describe(models.StatusConfirmed, ""))
	first, _ := order.Logistics.Last()
	order.CreatedAt = first.Timestamp
	order.UpdatedAt = first.Timestamp
	return order
}

// UpdateStatus advances an order one step along the delivery flow. Only the
// farmers selling in the order and admins may do this.
func (s *Store) UpdateStatus(ctx context.Context, id string, to models.OrderStatus) (models.Order, error) {
	user, err := s.actor(models.RoleFarmer, models.RoleAdmin)
	if err != nil {
		return models.Order{}, err
	}

	return s.transition(ctx, id, events.OrderStatusChanged, func(o *models.Order) error {
		if !canManage(user, *o) {
			return models.ErrForbidden
		}
		next, ok := NextStatus(o.Status)
		if !ok || next != to {
			return &InvalidTransitionError{From: o.Status, To: to}
		}
		return nil
	}, to, "")
}

// CancelOrder cancels an order that has not reached a terminal status.
func (s *Store) CancelOrder(ctx context.Context, id, reason string) (models.Order, error) {
	user, err := s.actor(models.RoleBuyer, models.RoleFarmer, models.RoleAdmin)
	if err != nil {
		return models.Order{}, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return models.Order{}, reasonRequired()
	}

	return s.transition(ctx, id, events.OrderCancelled, func(o *models.Order) error {
		if !canRead(user, *o) {
			return models.ErrNotFound
		}
		if o.Status.Terminal() {
			return ErrAlreadyTerminal
		}
		o.CancelReason = reason
		return nil
	}, models.StatusCancelled, reason)
}

// ReturnOrder records a return of a delivered order.
func (s *Store) ReturnOrder(ctx context.Context, id, reason string) (models.Order, error) {
	user, err := s.actor(models.RoleBuyer, models.RoleAdmin)
	if err != nil {
		return models.Order{}, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return models.Order{}, reasonRequired()
	}

	return s.transition(ctx, id, events.OrderReturned, func(o *models.Order) error {
		if !canRead(user, *o) {
			return models.ErrNotFound
		}
		if !CanTransition(o.Status, models.StatusReturned) {
			return &InvalidTransitionError{From: o.Status, To: models.StatusReturned}
		}
		o.ReturnReason = reason
		return nil
	}, models.StatusReturned, reason)
}

// transition loads the order, lets check veto or adjust it, appends exactly
// one logistics update and writes it back conditioned on the status it read.
func (s *Store) transition(ctx context.Context, id string, kind events.Type, check func(*models.Order) error, to models.OrderStatus, reason string) (models.Order, error) {
	s.mu.Lock()
	order, err := s.repo.Get(ctx, id)
	if err != nil {
		s.mu.Unlock()
		return models.Order{}, err
	}
	from := order.Status
	if err := check(&order); err != nil {
		s.mu.Unlock()
		return models.Order{}, err
	}

	order.Logistics = order.Logistics.Append(to, s.now(), describe(to, reason))
	last, _ := order.Logistics.Last()
	order.Status = to
	order.UpdatedAt = last.Timestamp

	if err := s.repo.Update(ctx, order, from); err != nil {
		s.mu.Unlock()
		if errors.Is(err, ErrConflict) {
			log.Printf("[ORDER] [WARN] order %s changed while moving %q -> %q", id, from, to)
		}
		return models.Order{}, err
	}
	s.mu.Unlock()

	log.Printf("[ORDER] [INFO] order %s moved %q -> %q", id, from, to)
	s.publish(ctx, events.NewOrderEvent(kind, order, from, reason))
	return order, nil
}

func (s *Store) publish(ctx context.Context, event events.OrderEvent) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		log.Printf("[ORDER] [ERROR] publish %s for %s: %v", event.Type, event.OrderID, err)
	}
}

// actor returns the acting user if their role is one of roles.
func (s *Store) actor(roles ...models.Role) (models.User, error) {
	user, ok := s.session.User()
	if !ok {
		return models.User{}, models.ErrNotAuthenticated
	}
	for _, r := range roles {
		if user.Role == r {
			return user, nil
		}
	}
	return models.User{}, models.ErrForbidden
}

// canRead: buyers see their own orders, farmers orders with their products,
// admins everything.
func canRead(user models.User, o models.Order) bool {
	switch user.Role {
	case models.RoleAdmin:
		return true
	case models.RoleBuyer:
		return o.BuyerID == user.ID
	case models.RoleFarmer:
		return o.HasSeller(user.ID)
	}
	return false
}

func canManage(user models.User, o models.Order) bool {
	switch user.Role {
	case models.RoleAdmin:
		return true
	case models.RoleFarmer:
		return o.HasSeller(user.ID)
	case models.RoleBuyer:
		return false
	}
	return false
}

func reasonRequired() error {
	verr := &models.ValidationError{}
	verr.Add("reason", "reason is required")
	return verr
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
