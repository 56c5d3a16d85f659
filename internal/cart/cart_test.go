package cart

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"testing/quick"

	"github.com/shopspring/decimal"

	"harvestly/internal/models"
	"harvestly/internal/storage"
)

func product(id string, price int64, stock int) models.Product {
	return models.Product{
		ID:       id,
		Name:     "Product " + id,
		SellerID: "farmer-1",
		Price:    decimal.NewFromInt(price),
		Stock:    stock,
		Category: models.CategoryOrganic,
		Status:   models.ProductApproved,
	}
}

func TestAddItemMergesExistingLine(t *testing.T) {
	c := Load(context.Background(), storage.NewMemory(), "u1")
	p := product("p1", 40, 5)

	if err := c.AddItem(p, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c.AddItem(p, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	items := c.Items()
	if len(items) != 1 || items[0].Quantity != 3 {
		t.Fatalf("expected single line with quantity 3, got %+v", items)
	}
}

func TestAddItemSnapshotsProduct(t *testing.T) {
	c := Load(context.Background(), storage.NewMemory(), "u1")
	p := product("p1", 40, 5)
	c.AddItem(p, 1)

	p.Price = decimal.NewFromInt(99)
	p.Name = "Renamed"

	item := c.Items()[0]
	if !item.Price.Equal(decimal.NewFromInt(40)) || item.Name != "Product p1" {
		t.Fatalf("line item follows live product: %+v", item)
	}
}

func TestAddItemRejectsUnpurchasable(t *testing.T) {
	c := Load(context.Background(), storage.NewMemory(), "u1")

	pending := product("p1", 40, 5)
	pending.Status = models.ProductPending
	if err := c.AddItem(pending, 1); !errors.Is(err, ErrNotPurchasable) {
		t.Fatalf("expected ErrNotPurchasable for pending product, got %v", err)
	}
	if err := c.AddItem(product("p2", 40, 0), 1); !errors.Is(err, ErrNotPurchasable) {
		t.Fatalf("expected ErrNotPurchasable for out of stock product, got %v", err)
	}
	if !c.IsEmpty() {
		t.Fatal("expected cart to stay empty")
	}
}

func TestUpdateQuantityNonPositiveRemoves(t *testing.T) {
	for _, q := range []int{0, -3} {
		c := Load(context.Background(), storage.NewMemory(), "u1")
		c.AddItem(product("p1", 40, 5), 2)
		c.AddItem(product("p2", 10, 5), 1)

		c.UpdateQuantity("p1", q)

		items := c.Items()
		if len(items) != 1 || items[0].ProductID != "p2" {
			t.Fatalf("quantity %d: expected p1 removed, got %+v", q, items)
		}
	}
}

func TestValidateFlagsOverStock(t *testing.T) {
	c := Load(context.Background(), storage.NewMemory(), "u1")
	c.AddItem(product("p1", 40, 5), 1)
	c.UpdateQuantity("p1", 6)

	violations := c.Validate()
	if len(violations) != 1 {
		t.Fatalf("expected 1 violation, got %d", len(violations))
	}
	if violations[0].ProductID != "p1" || violations[0].Requested != 6 || violations[0].Available != 5 {
		t.Fatalf("unexpected violation %+v", violations[0])
	}
	if items := c.Items(); items[0].Quantity != 6 {
		t.Fatalf("over-stock quantity should be kept, got %d", items[0].Quantity)
	}
}

func TestCartSurvivesReload(t *testing.T) {
	store := storage.NewMemory()
	c := Load(context.Background(), store, "u1")
	c.AddItem(product("p1", 40, 5), 2)
	c.AddItem(product("p2", 15, 5), 1)

	reloaded := Load(context.Background(), store, "u1")
	if reloaded.ItemCount() != 3 {
		t.Fatalf("expected 3 units after reload, got %d", reloaded.ItemCount())
	}
	if !reloaded.Total().Equal(decimal.NewFromInt(95)) {
		t.Fatalf("expected total 95 after reload, got %s", reloaded.Total())
	}

	other := Load(context.Background(), store, "u2")
	if !other.IsEmpty() {
		t.Fatal("cart leaked across users")
	}
}

func TestCorruptPayloadResetsCart(t *testing.T) {
	store := storage.NewMemory()
	key := storage.Key(storageNamespace, "u1")
	payloads := []string{`not json`, `[{"productId":"p1","quantity":0}]`, `{"items":1}`}

	for _, payload := range payloads {
		store.Set(context.Background(), key, []byte(payload))

		c := Load(context.Background(), store, "u1")
		if !c.IsEmpty() {
			t.Fatalf("payload %q: expected empty cart", payload)
		}
		if _, ok, _ := store.Get(context.Background(), key); ok {
			t.Fatalf("payload %q: expected corrupt key deleted", payload)
		}
	}
}

func TestCheckoutClearsOnlyOnSuccess(t *testing.T) {
	c := Load(context.Background(), storage.NewMemory(), "u1")
	c.AddItem(product("p1", 40, 5), 2)

	boom := errors.New("boom")
	if err := c.Checkout(func([]models.LineItem) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("expected callback error, got %v", err)
	}
	if c.IsEmpty() {
		t.Fatal("cart cleared despite failed checkout")
	}

	var seen []models.LineItem
	if err := c.Checkout(func(items []models.LineItem) error {
		seen = items
		return nil
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !c.IsEmpty() || len(seen) != 1 {
		t.Fatalf("expected cart cleared and one line handed over, got empty=%v seen=%d", c.IsEmpty(), len(seen))
	}
}

func TestCheckoutSeesCartBoughtElsewhere(t *testing.T) {
	store := storage.NewMemory()
	first := Load(context.Background(), store, "u1")
	first.AddItem(product("p1", 40, 5), 2)
	second := Load(context.Background(), store, "u1")

	if err := first.Checkout(func([]models.LineItem) error { return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var seen []models.LineItem
	second.Checkout(func(items []models.LineItem) error {
		seen = items
		return errors.New("nothing to buy")
	})
	if len(seen) != 0 {
		t.Fatalf("second copy handed out bought lines: %+v", seen)
	}
	if !second.IsEmpty() {
		t.Fatal("second copy should follow the stored empty cart")
	}
}

func TestSnapshot(t *testing.T) {
	c := Load(context.Background(), storage.NewMemory(), "u1")
	if snap := c.Snapshot(); len(snap.Items) != 0 || snap.Violations == nil || !snap.Total.IsZero() {
		t.Fatalf("unexpected empty snapshot %+v", snap)
	}

	c.AddItem(product("p1", 40, 5), 2)
	c.AddItem(product("p2", 10, 1), 1)
	c.UpdateQuantity("p2", 3)

	snap := c.Snapshot()
	if len(snap.Items) != 2 || snap.ItemCount != 5 {
		t.Fatalf("unexpected lines %+v", snap)
	}
	if !snap.Total.Equal(decimal.NewFromInt(110)) {
		t.Fatalf("expected total 110, got %s", snap.Total)
	}
	if len(snap.Violations) != 1 || snap.Violations[0].ProductID != "p2" {
		t.Fatalf("unexpected violations %+v", snap.Violations)
	}
}

type op struct {
	Kind     uint8
	Product  uint8
	Quantity int8
}

func TestPropertyNoDuplicateLines(t *testing.T) {
	check := func(ops []op) bool {
		c := Load(context.Background(), storage.NewMemory(), "prop")
		for _, o := range ops {
			id := fmt.Sprintf("p%d", o.Product%5)
			switch o.Kind % 3 {
			case 0:
				c.AddItem(product(id, 10, 100), int(o.Quantity))
			case 1:
				c.UpdateQuantity(id, int(o.Quantity))
			case 2:
				c.RemoveItem(id)
			}
		}
		seen := make(map[string]bool)
		for _, item := range c.Items() {
			if seen[item.ProductID] || item.Quantity < 1 {
				return false
			}
			seen[item.ProductID] = true
		}
		return true
	}
	if err := quick.Check(check, nil); err != nil {
		t.Fatal(err)
	}
}

func TestPropertyUpdateNonPositiveEqualsRemove(t *testing.T) {
	check := func(quantities []uint8, target uint8, q int8) bool {
		if q > 0 {
			q = -q
		}
		a := Load(context.Background(), storage.NewMemory(), "a")
		b := Load(context.Background(), storage.NewMemory(), "b")
		for i, n := range quantities {
			p := product(fmt.Sprintf("p%d", i%4), 10, 100)
			a.AddItem(p, int(n))
			b.AddItem(p, int(n))
		}
		id := fmt.Sprintf("p%d", target%4)
		a.UpdateQuantity(id, int(q))
		b.RemoveItem(id)

		ai, bi := a.Items(), b.Items()
		if len(ai) != len(bi) {
			return false
		}
		for i := range ai {
			if ai[i].ProductID != bi[i].ProductID || ai[i].Quantity != bi[i].Quantity {
				return false
			}
		}
		return true
	}
	if err := quick.Check(check, nil); err != nil {
		t.Fatal(err)
	}
}

func TestPropertyTotalIsSumOfLines(t *testing.T) {
	check := func(prices []uint16, quantities []uint8) bool {
		c := Load(context.Background(), storage.NewMemory(), "prop")
		want := decimal.Zero
		for i, price := range prices {
			if i >= len(quantities) {
				break
			}
			q := int(quantities[i]%20) + 1
			p := product(fmt.Sprintf("p%d", i), int64(price), 1000)
			c.AddItem(p, q)
			want = want.Add(decimal.NewFromInt(int64(price)).Mul(decimal.NewFromInt(int64(q))))
		}
		return c.Total().Equal(want)
	}
	if err := quick.Check(check, nil); err != nil {
		t.Fatal(err)
	}
}
