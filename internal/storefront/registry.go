// Package storefront owns one Workspace per signed-in user. A workspace bundles
// the session, cart, wishlist, catalog and order stores of that user, all
// constructed here and handed to the HTTP layer explicitly.
package storefront

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"harvestly/internal/apiclient"
	"harvestly/internal/cart"
	"harvestly/internal/catalog"
	"harvestly/internal/events"
	"harvestly/internal/models"
	"harvestly/internal/orders"
	"harvestly/internal/session"
	"harvestly/internal/storage"
	"harvestly/internal/wishlist"
)

// ErrNoSession is returned when a request carries no usable token.
var ErrNoSession = errors.New("no active session")

const DefaultIdleTimeout = 30 * time.Minute

// Deps are shared by every workspace. A nil DeliveryFee means the default;
// zero is a valid fee.
type Deps struct {
	APIBaseURL  string
	HTTPClient  *http.Client
	Storage     storage.Store
	Orders      orders.Repository
	Publisher   events.Publisher
	DeliveryFee *decimal.Decimal
	IdleTimeout time.Duration
}

type Workspace struct {
	token    string
	userID   string
	lastSeen atomic.Int64

	Session  *session.Store
	Cart     *cart.Cart
	Wishlist *wishlist.Wishlist
	Catalog  *catalog.Store
	Orders   *orders.Store
}

func (w *Workspace) Token() string {
	return w.token
}

// User returns the signed-in user. It is empty once the session ended.
func (w *Workspace) User() models.User {
	user, _ := w.Session.User()
	return user
}

func (w *Workspace) touch(now time.Time) {
	w.lastSeen.Store(now.UnixNano())
}

func (w *Workspace) idleSince() time.Time {
	return time.Unix(0, w.lastSeen.Load())
}

// shared is the client state of one user. Every workspace of that user
// holds the same cart and wishlist; refs counts those workspaces.
type shared struct {
	cart     *cart.Cart
	wishlist *wishlist.Wishlist
	refs     int
}

type Registry struct {
	deps Deps
	fee  decimal.Decimal
	now  func() time.Time

	mu         sync.Mutex
	workspaces map[string]*Workspace
	users      map[string]*shared
}

func NewRegistry(deps Deps) *Registry {
	if deps.HTTPClient == nil {
		deps.HTTPClient = http.DefaultClient
	}
	if deps.Storage == nil {
		deps.Storage = storage.NewMemory()
	}
	if deps.Orders == nil {
		deps.Orders = orders.NewMemoryRepository()
	}
	if deps.Publisher == nil {
		deps.Publisher = events.LogPublisher{}
	}
	fee := orders.DefaultDeliveryFee
	if deps.DeliveryFee != nil && !deps.DeliveryFee.IsNegative() {
		fee = *deps.DeliveryFee
	}
	if deps.IdleTimeout <= 0 {
		deps.IdleTimeout = DefaultIdleTimeout
	}
	return &Registry{
		deps:       deps,
		fee:        fee,
		now:        time.Now,
		workspaces: make(map[string]*Workspace),
		users:      make(map[string]*shared),
	}
}

func (r *Registry) newAPI() *apiclient.Client {
	return apiclient.New(r.deps.APIBaseURL, apiclient.WithHTTPClient(r.deps.HTTPClient))
}

func (r *Registry) newSession() (*apiclient.Client, *session.Store) {
	api := r.newAPI()
	sess := session.New(api)
	api.OnUnauthorized(sess.HandleUnauthorized)
	return api, sess
}

// Login signs the user in upstream and opens their workspace.
func (r *Registry) Login(ctx context.Context, creds session.Credentials) (*Workspace, error) {
	api, sess := r.newSession()
	if _, err := sess.Login(ctx, creds); err != nil {
		return nil, err
	}
	return r.open(ctx, api, sess), nil
}

// Register creates the account. The workspace is nil when the API did not
// return a token and the user has to sign in separately.
func (r *Registry) Register(ctx context.Context, reg session.Registration) (*Workspace, models.User, error) {
	api, sess := r.newSession()
	user, err := sess.Register(ctx, reg)
	if err != nil {
		return nil, models.User{}, err
	}
	if api.Token() == "" {
		return nil, user, nil
	}
	return r.open(ctx, api, sess), user, nil
}

// Resolve returns the workspace for token, restoring it from the API when
// this process has not seen the token yet.
func (r *Registry) Resolve(ctx context.Context, token string) (*Workspace, error) {
	if token == "" {
		return nil, ErrNoSession
	}

	r.mu.Lock()
	ws, ok := r.workspaces[token]
	r.mu.Unlock()

	if ok {
		if r.expired(ws) || !ws.Session.IsAuthenticated() {
			r.Evict(token)
			return nil, apiclient.ErrUnauthorized
		}
		ws.touch(r.now())
		return ws, nil
	}

	api, sess := r.newSession()
	if _, err := sess.Restore(ctx, token); err != nil {
		return nil, err
	}
	return r.open(ctx, api, sess), nil
}

// Logout ends the session upstream and drops the workspace.
func (r *Registry) Logout(ctx context.Context, token string) {
	r.mu.Lock()
	ws, ok := r.workspaces[token]
	r.mu.Unlock()
	if !ok {
		return
	}
	ws.Session.Logout(ctx)
	r.Evict(token)
}

func (r *Registry) Evict(token string) {
	r.mu.Lock()
	ws, ok := r.workspaces[token]
	if ok {
		r.closeLocked(token, ws)
	}
	r.mu.Unlock()
	if ok {
		log.Println("[STOREFRONT] [INFO] workspace closed")
	}
}

// closeLocked drops the workspace and releases its user's shared state once
// no other workspace of that user is open.
func (r *Registry) closeLocked(token string, ws *Workspace) {
	delete(r.workspaces, token)
	if state, ok := r.users[ws.userID]; ok {
		state.refs--
		if state.refs <= 0 {
			delete(r.users, ws.userID)
		}
	}
}

// Catalog returns a catalog store for anonymous browsing. Each call gets its
// own store so unrelated visitors never supersede each other's loads.
func (r *Registry) Catalog() *catalog.Store {
	return catalog.New(r.newAPI(), session.New(r.newAPI()))
}

// Users reports how many users have shared client state loaded.
func (r *Registry) Users() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.workspaces)
}

// Sweep closes workspaces that were idle too long or whose token expired.
func (r *Registry) Sweep() int {
	now := r.now()
	r.mu.Lock()
	stale := make([]string, 0)
	for token, ws := range r.workspaces {
		if now.Sub(ws.idleSince()) > r.deps.IdleTimeout || r.expired(ws) {
			stale = append(stale, token)
		}
	}
	for _, token := range stale {
		r.closeLocked(token, r.workspaces[token])
	}
	r.mu.Unlock()

	if len(stale) > 0 {
		log.Printf("[STOREFRONT] [INFO] swept %d idle workspaces", len(stale))
	}
	return len(stale)
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

func (r *Registry) expired(ws *Workspace) bool {
	exp, ok := ws.Session.TokenExpiry()
	return ok && !r.now().Before(exp)
}

// open builds the per-token stores once the session knows who the user is.
// The cart and wishlist are shared with the user's other open workspaces.
func (r *Registry) open(ctx context.Context, api *apiclient.Client, sess *session.Store) *Workspace {
	user, _ := sess.User()
	token := api.Token()

	r.mu.Lock()
	if existing, ok := r.workspaces[token]; ok {
		r.mu.Unlock()
		return existing
	}
	state, ok := r.users[user.ID]
	if !ok {
		state = &shared{
			cart:     cart.Load(ctx, r.deps.Storage, user.ID),
			wishlist: wishlist.Load(ctx, r.deps.Storage, user.ID),
		}
		r.users[user.ID] = state
	}
	state.refs++

	ws := &Workspace{
		token:    token,
		userID:   user.ID,
		Session:  sess,
		Cart:     state.cart,
		Wishlist: state.wishlist,
		Catalog:  catalog.New(api, sess),
		Orders: orders.New(r.deps.Orders, sess,
			orders.WithPublisher(r.deps.Publisher),
			orders.WithDeliveryFee(r.fee),
		),
	}
	ws.touch(r.now())
	r.workspaces[token] = ws
	r.mu.Unlock()

	sess.OnLogout(func() { r.Evict(token) })
	log.Printf("[STOREFRONT] [INFO] workspace opened for %s (%s)", user.ID, user.Role)
	return ws
}
