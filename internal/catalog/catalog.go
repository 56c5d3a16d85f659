package catalog

import (
	"context"
	"errors"
	"log"
	"net/url"
	"slices"
	"strconv"
	"sync"

	"harvestly/internal/apiclient"
	"harvestly/internal/models"
	"harvestly/internal/session"
)

// ErrSuperseded is returned by a listing call whose result was discarded
// because a newer listing call started before it finished.
var ErrSuperseded = errors.New("request superseded by a newer one")

type API interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Put(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string, out any) error
}

type Filter struct {
	Page     int
	Limit    int
	Category models.Category
}

func (f Filter) values() url.Values {
	q := url.Values{}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Category != "" {
		q.Set("category", string(f.Category))
	}
	return q
}

type Query struct {
	Term string
	Sort SortKey
	Filter
}

type listResult struct {
	Products   []models.Product  `json:"products"`
	Pagination models.Pagination `json:"pagination"`
}

type productResult struct {
	Product models.Product `json:"product"`
}

// Store holds the current product listing. Only the most recent listing call
// may replace it; an older call finishing late is dropped.
type Store struct {
	api     API
	session session.View

	mu         sync.Mutex
	products   []models.Product
	pagination models.Pagination
	gen        uint64
	cancel     context.CancelFunc
}

func New(api API, view session.View) *Store {
	return &Store{
		api:      api,
		session:  view,
		products: make([]models.Product, 0),
	}
}

// begin starts a listing call, cancelling whichever call is still in flight.
func (s *Store) begin(ctx context.Context) (context.Context, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	callCtx, cancel := context.WithCancel(ctx)
	s.gen++
	s.cancel = cancel
	return callCtx, s.gen
}

func (s *Store) commit(gen uint64, res listResult, callErr error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return ErrSuperseded
	}
	s.cancel()
	s.cancel = nil
	if callErr != nil {
		return callErr
	}
	if res.Products == nil {
		res.Products = make([]models.Product, 0)
	}
	s.products = res.Products
	s.pagination = res.Pagination
	return nil
}

func (s *Store) list(ctx context.Context, path string, query url.Values, sortKey SortKey) ([]models.Product, error) {
	callCtx, gen := s.begin(ctx)

	var res listResult
	err := s.api.Get(callCtx, path, query, &res)
	if err == nil {
		SortProducts(res.Products, sortKey)
	}
	if err := s.commit(gen, res, err); err != nil {
		return nil, err
	}
	return s.Products(), nil
}

// LoadProducts replaces the listing with one page of the public catalog.
func (s *Store) LoadProducts(ctx context.Context, f Filter) ([]models.Product, error) {
	return s.list(ctx, "/products", f.values(), "")
}

// Search replaces the listing with search results, re-sorted locally by
// q.Sort.
func (s *Store) Search(ctx context.Context, q Query) ([]models.Product, error) {
	values := q.Filter.values()
	if q.Term != "" {
		values.Set("query", q.Term)
	}
	if q.Sort != "" {
		values.Set("sortBy", string(q.Sort))
	}
	return s.list(ctx, "/products/search", values, q.Sort)
}

// MyProducts replaces the listing with the acting farmer's own products.
func (s *Store) MyProducts(ctx context.Context, f Filter) ([]models.Product, error) {
	if err := s.requireRole(models.RoleFarmer); err != nil {
		return nil, err
	}
	return s.list(ctx, "/products/farmer/my-products", f.values(), "")
}

func (s *Store) Products() []models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.products)
}

func (s *Store) Pagination() models.Pagination {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pagination
}

// Approved filters the current listing on every call.
func (s *Store) Approved() []models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	approved := make([]models.Product, 0, len(s.products))
	for _, p := range s.products {
		if p.Status == models.ProductApproved {
			approved = append(approved, p)
		}
	}
	return approved
}

func (s *Store) GetProduct(ctx context.Context, id string) (models.Product, error) {
	var res productResult
	if err := s.api.Get(ctx, "/products/"+url.PathEscape(id), nil, &res); err != nil {
		return models.Product{}, mapNotFound(err)
	}
	if res.Product.ID == "" {
		return models.Product{}, models.ErrNotFound
	}
	return res.Product, nil
}

func (s *Store) listed(id string) (models.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.products {
		if p.ID == id {
			return p, true
		}
	}
	return models.Product{}, false
}

// replace swaps the listed copy of p, if the listing holds one.
func (s *Store) replace(p models.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.products {
		if s.products[i].ID == p.ID {
			s.products[i] = p
			return
		}
	}
}

func (s *Store) drop(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = slices.DeleteFunc(s.products, func(p models.Product) bool {
		return p.ID == id
	})
}

func (s *Store) requireRole(roles ...models.Role) error {
	if s.session == nil || !s.session.IsAuthenticated() {
		return models.ErrNotAuthenticated
	}
	if !slices.Contains(roles, s.session.Role()) {
		return models.ErrForbidden
	}
	return nil
}

func mapNotFound(err error) error {
	if apiclient.IsNotFound(err) {
		return models.ErrNotFound
	}
	return err
}

func logAction(action, id string, err error) {
	if err != nil {
		log.Printf("[CATALOG] [ERROR] %s %s: %v", action, id, err)
		return
	}
	log.Printf("[CATALOG] [INFO] %s %s", action, id)
}
