package wishlist

import (
	"context"
	"encoding/json"
	"log"
	"slices"
	"sync"
	"time"

	"harvestly/internal/storage"
)

const storageNamespace = "harvestly_wishlist"

// Wishlist is the ordered set of product ids a user saved for later.
type Wishlist struct {
	store storage.Store
	key   string

	mu  sync.Mutex
	ids []string
}

// Load restores the wishlist of userID, resetting it when the stored payload
// is unreadable.
func Load(ctx context.Context, store storage.Store, userID string) *Wishlist {
	w := &Wishlist{
		store: store,
		key:   storage.Key(storageNamespace, userID),
		ids:   make([]string, 0),
	}
	raw, ok, err := store.Get(ctx, w.key)
	if err != nil {
		log.Printf("[WISHLIST] [ERROR] load %s: %v", w.key, err)
		return w
	}
	if !ok {
		return w
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		log.Printf("[WISHLIST] [WARN] discarding corrupt wishlist %s: %v", w.key, err)
		store.Delete(ctx, w.key)
		return w
	}
	for _, id := range ids {
		if id != "" && !slices.Contains(w.ids, id) {
			w.ids = append(w.ids, id)
		}
	}
	return w
}

// Add reports whether id was newly added.
func (w *Wishlist) Add(productID string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if productID == "" || slices.Contains(w.ids, productID) {
		return false
	}
	w.ids = append(w.ids, productID)
	w.persistLocked()
	return true
}

func (w *Wishlist) Remove(productID string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	i := slices.Index(w.ids, productID)
	if i < 0 {
		return false
	}
	w.ids = slices.Delete(w.ids, i, i+1)
	w.persistLocked()
	return true
}

func (w *Wishlist) Contains(productID string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Contains(w.ids, productID)
}

func (w *Wishlist) Items() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.ids)
}

func (w *Wishlist) persistLocked() {
	payload, err := json.Marshal(w.ids)
	if err != nil {
		log.Printf("[WISHLIST] [ERROR] encode %s: %v", w.key, err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := w.store.Set(ctx, w.key, payload); err != nil {
		log.Printf("[WISHLIST] [ERROR] persist %s: %v", w.key, err)
	}
}
