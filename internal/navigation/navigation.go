// Package navigation decides which page a user may open. Decide is pure: it
// depends only on the viewer's authentication state, role and the path.
package navigation

import (
	"slices"
	"strings"

	"harvestly/internal/models"
)

const (
	SignInPath = "/auth/signin"
	RootPath   = "/"
)

type View interface {
	IsAuthenticated() bool
	Role() models.Role
}

type Action string

const (
	Render   Action = "render"
	Redirect Action = "redirect"
)

type Decision struct {
	Action Action            `json:"action"`
	Page   string            `json:"page,omitempty"`
	Target string            `json:"target,omitempty"`
	Params map[string]string `json:"params,omitempty"`
}

// Route maps a path pattern to a page. A route without roles is public.
type Route struct {
	Pattern string
	Page    string
	Roles   []models.Role
}

func (r Route) Public() bool {
	return len(r.Roles) == 0
}

func (r Route) allows(role models.Role) bool {
	return slices.Contains(r.Roles, role)
}

var (
	buyerOnly  = []models.Role{models.RoleBuyer}
	farmerOnly = []models.Role{models.RoleFarmer}
	adminOnly  = []models.Role{models.RoleAdmin}
	anyRole    = []models.Role{models.RoleBuyer, models.RoleFarmer, models.RoleAdmin}
)

// Routes is matched in order. Several routes may share a pattern when each
// serves a different role; the first one allowing the viewer wins.
var Routes = []Route{
	{Pattern: "/", Page: "home"},
	{Pattern: "/welcome", Page: "welcome"},
	{Pattern: "/auth/signin", Page: "signin"},
	{Pattern: "/auth/signup", Page: "signup"},
	{Pattern: "/products", Page: "products"},
	{Pattern: "/product/:id", Page: "product-detail"},

	{Pattern: "/cart", Page: "cart", Roles: buyerOnly},
	{Pattern: "/checkout", Page: "checkout", Roles: buyerOnly},
	{Pattern: "/orders", Page: "orders", Roles: buyerOnly},
	{Pattern: "/orders/:id", Page: "order-detail", Roles: buyerOnly},
	{Pattern: "/profile", Page: "profile", Roles: anyRole},
	{Pattern: "/wishlist", Page: "wishlist", Roles: buyerOnly},

	{Pattern: "/dashboard", Page: "dashboard", Roles: farmerOnly},
	{Pattern: "/products/manage", Page: "farmer-products", Roles: farmerOnly},
	{Pattern: "/products/add", Page: "add-product", Roles: farmerOnly},
	{Pattern: "/products/edit/:id", Page: "edit-product", Roles: farmerOnly},
	{Pattern: "/orders", Page: "farmer-orders", Roles: farmerOnly},

	{Pattern: "/admin", Page: "admin-dashboard", Roles: adminOnly},
	{Pattern: "/admin/products", Page: "admin-products", Roles: adminOnly},
	{Pattern: "/admin/users", Page: "admin-users", Roles: adminOnly},
}

const fallbackPage = "home"

// Home is where a role lands when it opens a page it may not see.
func Home(role models.Role) string {
	switch role {
	case models.RoleBuyer:
		return "/products"
	case models.RoleFarmer:
		return "/dashboard"
	case models.RoleAdmin:
		return "/admin"
	}
	return RootPath
}

// Decide resolves path for v. Unknown paths render the home page. Protected
// pages send anonymous viewers to sign in and viewers of another role to
// their own home; there is no forbidden page.
func Decide(v View, path string) Decision {
	segments := split(path)

	var guarded bool
	for _, route := range Routes {
		params, ok := match(route.Pattern, segments)
		if !ok {
			continue
		}
		if route.Public() {
			return Decision{Action: Render, Page: route.Page, Params: params}
		}
		guarded = true
		if v.IsAuthenticated() && route.allows(v.Role()) {
			return Decision{Action: Render, Page: route.Page, Params: params}
		}
	}

	if !guarded {
		return Decision{Action: Render, Page: fallbackPage}
	}
	if !v.IsAuthenticated() {
		return Decision{Action: Redirect, Target: SignInPath}
	}
	return Decision{Action: Redirect, Target: Home(v.Role())}
}

func split(path string) []string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

func match(pattern string, segments []string) (map[string]string, bool) {
	parts := split(pattern)
	if len(parts) != len(segments) {
		return nil, false
	}
	var params map[string]string
	for i, part := range parts {
		if name, ok := strings.CutPrefix(part, ":"); ok {
			if segments[i] == "" {
				return nil, false
			}
			if params == nil {
				params = make(map[string]string)
			}
			params[name] = segments[i]
			continue
		}
		if part != segments[i] {
			return nil, false
		}
	}
	return params, true
}
