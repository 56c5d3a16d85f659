package navigation

import (
	"testing"

	"harvestly/internal/models"
)

type viewer struct {
	role models.Role
}

func (v viewer) IsAuthenticated() bool { return v.role != "" }
func (v viewer) Role() models.Role     { return v.role }

var anonymous = viewer{}

func TestPublicRoutesRenderForEveryone(t *testing.T) {
	for _, v := range []viewer{anonymous, {models.RoleBuyer}, {models.RoleFarmer}, {models.RoleAdmin}} {
		for _, path := range []string{"/", "/welcome", "/auth/signin", "/products", "/product/p1"} {
			d := Decide(v, path)
			if d.Action != Render {
				t.Fatalf("%q for %q: expected render, got %+v", path, v.role, d)
			}
		}
	}
}

func TestAnonymousRedirectsToSignIn(t *testing.T) {
	for _, path := range []string{"/cart", "/orders/o1", "/dashboard", "/admin/users", "/profile"} {
		d := Decide(anonymous, path)
		if d.Action != Redirect || d.Target != SignInPath {
			t.Fatalf("%q: expected redirect to sign in, got %+v", path, d)
		}
	}
}

func TestWrongRoleRedirectsToRoleHome(t *testing.T) {
	cases := []struct {
		role   models.Role
		path   string
		target string
	}{
		{models.RoleBuyer, "/dashboard", "/products"},
		{models.RoleBuyer, "/admin", "/products"},
		{models.RoleFarmer, "/cart", "/dashboard"},
		{models.RoleFarmer, "/admin/products", "/dashboard"},
		{models.RoleAdmin, "/checkout", "/admin"},
		{models.RoleAdmin, "/products/add", "/admin"},
	}
	for _, tc := range cases {
		d := Decide(viewer{tc.role}, tc.path)
		if d.Action != Redirect || d.Target != tc.target {
			t.Fatalf("%s on %q: expected redirect to %q, got %+v", tc.role, tc.path, tc.target, d)
		}
	}
}

func TestOrdersPageDependsOnRole(t *testing.T) {
	if d := Decide(viewer{models.RoleBuyer}, "/orders"); d.Page != "orders" {
		t.Fatalf("buyer: expected orders page, got %+v", d)
	}
	if d := Decide(viewer{models.RoleFarmer}, "/orders"); d.Page != "farmer-orders" {
		t.Fatalf("farmer: expected farmer-orders page, got %+v", d)
	}
	if d := Decide(viewer{models.RoleAdmin}, "/orders"); d.Action != Redirect || d.Target != "/admin" {
		t.Fatalf("admin: expected redirect home, got %+v", d)
	}
}

func TestParamsAreExtracted(t *testing.T) {
	d := Decide(viewer{models.RoleFarmer}, "/products/edit/p42?tab=stock")
	if d.Action != Render || d.Page != "edit-product" || d.Params["id"] != "p42" {
		t.Fatalf("unexpected decision %+v", d)
	}
}

func TestStaticSegmentsBeatParams(t *testing.T) {
	d := Decide(viewer{models.RoleFarmer}, "/products/manage/")
	if d.Page != "farmer-products" {
		t.Fatalf("expected farmer-products, got %+v", d)
	}
}

func TestUnknownRoutesRenderHome(t *testing.T) {
	for _, v := range []viewer{anonymous, {models.RoleAdmin}} {
		d := Decide(v, "/no/such/page")
		if d.Action != Render || d.Page != "home" {
			t.Fatalf("expected home, got %+v", d)
		}
	}
}

func TestProfileAllowsEveryRole(t *testing.T) {
	for _, role := range models.Roles {
		if d := Decide(viewer{role}, "/profile"); d.Action != Render {
			t.Fatalf("%s: expected render, got %+v", role, d)
		}
	}
}

func TestHome(t *testing.T) {
	if Home(models.RoleBuyer) != "/products" || Home(models.RoleFarmer) != "/dashboard" || Home(models.RoleAdmin) != "/admin" {
		t.Fatal("unexpected role homes")
	}
	if Home("") != RootPath {
		t.Fatal("expected root for unknown role")
	}
}
