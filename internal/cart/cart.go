package cart

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"slices"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"harvestly/internal/models"
	"harvestly/internal/storage"
)

const (
	storageNamespace = "harvestly_cart"
	persistTimeout   = 2 * time.Second
)

var ErrNotPurchasable = errors.New("product is not available for purchase")

// Cart is one user's pending selection. Lines are kept in insertion order
// with at most one line per product.
type Cart struct {
	store storage.Store
	key   string

	mu    sync.Mutex
	items []models.LineItem
}

// Load restores the cart of userID. A stored payload that cannot be decoded
// is discarded and the cart starts empty.
func Load(ctx context.Context, store storage.Store, userID string) *Cart {
	c := &Cart{
		store: store,
		key:   storage.Key(storageNamespace, userID),
		items: make([]models.LineItem, 0),
	}

	raw, ok, err := store.Get(ctx, c.key)
	if err != nil {
		log.Printf("[CART] [ERROR] load %s: %v", c.key, err)
		return c
	}
	if !ok {
		return c
	}

	items, err := decode(raw)
	if err != nil {
		log.Printf("[CART] [WARN] discarding corrupt cart %s: %v", c.key, err)
		if err := store.Delete(ctx, c.key); err != nil {
			log.Printf("[CART] [ERROR] delete corrupt cart %s: %v", c.key, err)
		}
		return c
	}
	c.items = items
	return c
}

var errMalformed = errors.New("malformed cart lines")

func decode(raw []byte) ([]models.LineItem, error) {
	items := make([]models.LineItem, 0)
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	if !wellFormed(items) {
		return nil, errMalformed
	}
	return items, nil
}

func wellFormed(items []models.LineItem) bool {
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if item.ProductID == "" || item.Quantity < 1 || item.Price.IsNegative() {
			return false
		}
		if _, dup := seen[item.ProductID]; dup {
			return false
		}
		seen[item.ProductID] = struct{}{}
	}
	return true
}

// AddItem merges quantity into the product's line or appends a new line
// with a snapshot of the product. Quantities below one count as one.
func (c *Cart) AddItem(p models.Product, quantity int) error {
	if !p.Purchasable() {
		return ErrNotPurchasable
	}
	if quantity < 1 {
		quantity = 1
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if i := c.indexOf(p.ID); i >= 0 {
		c.items[i].Quantity += quantity
	} else {
		c.items = append(c.items, models.NewLineItem(p, quantity))
	}
	c.persistLocked()
	return nil
}

// UpdateQuantity sets the line's quantity. Zero or less removes the line.
// Quantities above the stock snapshot are accepted and surface in Validate.
func (c *Cart) UpdateQuantity(productID string, quantity int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(productID)
	if i < 0 {
		return
	}
	if quantity <= 0 {
		c.items = slices.Delete(c.items, i, i+1)
	} else {
		c.items[i].Quantity = quantity
	}
	c.persistLocked()
}

func (c *Cart) RemoveItem(productID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(productID)
	if i < 0 {
		return
	}
	c.items = slices.Delete(c.items, i, i+1)
	c.persistLocked()
}

func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearLocked()
}

func (c *Cart) clearLocked() {
	c.items = make([]models.LineItem, 0)
	c.persistLocked()
}

func (c *Cart) Items() []models.LineItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.items)
}

func (c *Cart) Total() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return models.Subtotal(c.items)
}

func (c *Cart) ItemCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return itemCount(c.items)
}

func itemCount(items []models.LineItem) int {
	count := 0
	for _, item := range items {
		count += item.Quantity
	}
	return count
}

func (c *Cart) IsEmpty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items) == 0
}

// Validate lists every line asking for more than its stock snapshot.
func (c *Cart) Validate() []models.StockViolation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return models.StockViolations(c.items)
}

// Snapshot is the cart as one consistent view.
type Snapshot struct {
	Items      []models.LineItem       `json:"items"`
	Total      decimal.Decimal         `json:"total"`
	ItemCount  int                     `json:"itemCount"`
	Violations []models.StockViolation `json:"violations"`
}

// Snapshot computes lines, total, count and violations under one lock.
func (c *Cart) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	violations := models.StockViolations(c.items)
	if violations == nil {
		violations = make([]models.StockViolation, 0)
	}
	return Snapshot{
		Items:      slices.Clone(c.items),
		Total:      models.Subtotal(c.items),
		ItemCount:  itemCount(c.items),
		Violations: violations,
	}
}

// Checkout hands a snapshot of the lines to fn while holding the cart lock
// and clears the cart only when fn succeeds. No other mutation can
// interleave, so the cart is either cleared together with fn's effect or
// left exactly as it was. The stored lines are re-read first so a cart
// already bought through another process is seen as empty.
func (c *Cart) Checkout(fn func(items []models.LineItem) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.refreshLocked()
	if err := fn(slices.Clone(c.items)); err != nil {
		return err
	}
	c.clearLocked()
	return nil
}

// refreshLocked replaces the lines with the stored ones. A missing,
// unreadable or failing store leaves the in-memory lines as they are.
func (c *Cart) refreshLocked() {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	raw, ok, err := c.store.Get(ctx, c.key)
	if err != nil {
		log.Printf("[CART] [ERROR] refresh %s: %v", c.key, err)
		return
	}
	if !ok {
		return
	}
	items, err := decode(raw)
	if err != nil {
		log.Printf("[CART] [WARN] ignoring unreadable stored cart %s: %v", c.key, err)
		return
	}
	c.items = items
}

func (c *Cart) indexOf(productID string) int {
	return slices.IndexFunc(c.items, func(item models.LineItem) bool {
		return item.ProductID == productID
	})
}

// persistLocked writes the whole line collection. Failures are logged and
// never reach the caller; the in-memory cart stays authoritative.
func (c *Cart) persistLocked() {
	payload, err := json.Marshal(c.items)
	if err != nil {
		log.Printf("[CART] [ERROR] encode %s: %v", c.key, err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := c.store.Set(ctx, c.key, payload); err != nil {
		log.Printf("[CART] [ERROR] persist %s: %v", c.key, err)
	}
}
