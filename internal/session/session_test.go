package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"harvestly/internal/apiclient"
	"harvestly/internal/models"
)

const buyerJSON = `{"id":"u1","firstName":"Asha","lastName":"Rao","email":"asha@example.com","role":"buyer"}`

func newUpstream(t *testing.T, routes map[string]http.HandlerFunc) *apiclient.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h, ok := routes[r.Method+" "+r.URL.Path]; ok {
			h(w, r)
			return
		}
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"success":false,"error":"not found"}`))
	}))
	t.Cleanup(srv.Close)
	return apiclient.New(srv.URL)
}

func loginOK(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte(`{"success":true,"data":{"token":"tok-1","user":` + buyerJSON + `}}`))
}

func TestLoginStoresUserAndDerivesRole(t *testing.T) {
	api := newUpstream(t, map[string]http.HandlerFunc{"POST /auth/login": loginOK})
	s := New(api)

	user, err := s.Login(context.Background(), Credentials{Email: "asha@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID != "u1" || !s.IsAuthenticated() || !s.IsBuyer() || s.IsFarmer() || s.IsAdmin() {
		t.Fatalf("unexpected session state: user=%+v role=%q", user, s.Role())
	}
	if api.Token() != "tok-1" {
		t.Fatalf("expected bearer token stored, got %q", api.Token())
	}
}

func TestLoginMapsRejectionToInvalidCredentials(t *testing.T) {
	api := newUpstream(t, map[string]http.HandlerFunc{
		"POST /auth/login": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"success":false,"error":"Invalid credentials"}`))
		},
	})
	s := New(api)

	_, err := s.Login(context.Background(), Credentials{Email: "asha@example.com", Password: "wrong"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if s.IsAuthenticated() {
		t.Fatal("expected no session after failed login")
	}
}

func TestLogoutIsIdempotentAndRunsHooksOnce(t *testing.T) {
	api := newUpstream(t, map[string]http.HandlerFunc{
		"POST /auth/login":  loginOK,
		"POST /auth/logout": func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`{"success":true}`)) },
	})
	s := New(api)
	calls := 0
	s.OnLogout(func() { calls++ })

	if _, err := s.Login(context.Background(), Credentials{Email: "asha@example.com", Password: "secret1"}); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	s.Logout(context.Background())
	s.Logout(context.Background())

	if s.IsAuthenticated() || api.Token() != "" {
		t.Fatal("expected session cleared")
	}
	if calls != 1 {
		t.Fatalf("expected logout hooks to run once, ran %d", calls)
	}
}

func TestRegisterValidatesRoleSpecificFields(t *testing.T) {
	s := New(newUpstream(t, nil))

	reg := Registration{
		FirstName:       "Ravi",
		LastName:        "Kumar",
		Email:           "ravi@example.com",
		Phone:           "9876543210",
		Password:        "secret1",
		ConfirmPassword: "secret1",
		Role:            models.RoleFarmer,
	}
	_, err := s.Register(context.Background(), reg)

	var verr *models.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, ok := verr.Field("farmName"); !ok {
		t.Fatalf("expected farmName error, got %v", verr.Errors)
	}
	if _, ok := verr.Field("address"); ok {
		t.Fatalf("farmer registration should not require delivery address: %v", verr.Errors)
	}
}

func TestRegisterAdminRequiresCode(t *testing.T) {
	reg := Registration{
		FirstName:       "Meera",
		LastName:        "Shah",
		Email:           "meera@example.com",
		Phone:           "9876543210",
		Password:        "secret1",
		ConfirmPassword: "secret1",
		Role:            models.RoleAdmin,
		AdminDetails: models.AdminDetails{
			AdminOrgName:        "Agri Board",
			AdminOfficeLocation: "HQ",
			AdminOfficeAddress:  "1 Main St",
			AdminOfficeCity:     "Pune",
			AdminOfficeState:    "MH",
			AdminOfficeZipCode:  "411001",
			AdminOfficePhone:    "9876543210",
		},
	}
	err := reg.Validate()
	var verr *models.ValidationError
	if !errors.As(err, &verr) || len(verr.Errors) != 1 {
		t.Fatalf("expected exactly the adminCode error, got %v", err)
	}
	if _, ok := verr.Field("adminCode"); !ok {
		t.Fatalf("expected adminCode error, got %v", verr.Errors)
	}
}

func TestRegisterSendsFormWithoutConfirmation(t *testing.T) {
	var got map[string]any
	api := newUpstream(t, map[string]http.HandlerFunc{
		"POST /auth/register": func(w http.ResponseWriter, r *http.Request) {
			json.NewDecoder(r.Body).Decode(&got)
			w.Write([]byte(`{"success":true,"data":{"token":"tok-2","user":` + buyerJSON + `}}`))
		},
	})
	s := New(api)

	_, err := s.Register(context.Background(), Registration{
		FirstName:       "Asha",
		LastName:        "Rao",
		Email:           "asha@example.com",
		Phone:           "9876543210",
		Password:        "secret1",
		ConfirmPassword: "secret1",
		Role:            models.RoleBuyer,
		DeliveryAddress: models.DeliveryAddress{Address: "1 Farm Rd", City: "Pune", State: "MH", ZipCode: "411001"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := got["confirmPassword"]; ok {
		t.Fatal("confirmPassword should not be sent upstream")
	}
	if got["city"] != "Pune" {
		t.Fatalf("expected flattened delivery fields, got %v", got)
	}
	if !s.IsBuyer() {
		t.Fatal("expected session started after registration")
	}
}

func TestUpdateProfileKeepsRole(t *testing.T) {
	api := newUpstream(t, map[string]http.HandlerFunc{
		"POST /auth/login": loginOK,
		"PUT /auth/profile": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"success":true,"data":{"user":{"id":"u1","firstName":"Asha","city":"Nashik","role":"admin"}}}`))
		},
	})
	s := New(api)
	if _, err := s.Login(context.Background(), Credentials{Email: "asha@example.com", Password: "secret1"}); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	city := "Nashik"
	user, err := s.UpdateProfile(context.Background(), ProfileUpdate{City: &city})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.Role != models.RoleBuyer || !s.IsBuyer() {
		t.Fatalf("role changed through profile update: %q", user.Role)
	}
	if user.City != "Nashik" {
		t.Fatalf("expected merged city, got %q", user.City)
	}
}

func TestUpdateProfileRejectsBadPhone(t *testing.T) {
	api := newUpstream(t, map[string]http.HandlerFunc{"POST /auth/login": loginOK})
	s := New(api)
	s.Login(context.Background(), Credentials{Email: "asha@example.com", Password: "secret1"})

	phone := "12345"
	_, err := s.UpdateProfile(context.Background(), ProfileUpdate{Phone: &phone})
	var verr *models.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestProfileIncompleteIsDismissible(t *testing.T) {
	api := newUpstream(t, map[string]http.HandlerFunc{"POST /auth/login": loginOK})
	s := New(api)
	if s.ProfileIncomplete() {
		t.Fatal("anonymous session cannot be incomplete")
	}
	s.Login(context.Background(), Credentials{Email: "asha@example.com", Password: "secret1"})

	if !s.ProfileIncomplete() {
		t.Fatal("expected incomplete profile for user without delivery fields")
	}
	s.DismissProfilePrompt()
	if s.ProfileIncomplete() {
		t.Fatal("expected prompt hidden after dismiss")
	}
}

func TestUnauthorizedResponseTearsDownSession(t *testing.T) {
	api := newUpstream(t, map[string]http.HandlerFunc{
		"POST /auth/login": loginOK,
		"GET /orders": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		},
	})
	s := New(api)
	api.OnUnauthorized(s.HandleUnauthorized)
	s.Login(context.Background(), Credentials{Email: "asha@example.com", Password: "secret1"})

	err := api.Get(context.Background(), "/orders", nil, nil)
	if !errors.Is(err, apiclient.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if s.IsAuthenticated() {
		t.Fatal("expected session cleared after 401")
	}
}

func TestTokenExpiry(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": "u1",
		"exp":    exp.Unix(),
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	api := apiclient.New("http://unused")
	api.SetToken(token)
	s := New(api)

	got, ok := s.TokenExpiry()
	if !ok || !got.Equal(exp) {
		t.Fatalf("expected expiry %v, got %v (ok=%v)", exp, got, ok)
	}
}

const adminJSON = `{"id":"a1","firstName":"Meera","email":"meera@example.com","role":"admin"}`

func adminSession(t *testing.T, routes map[string]http.HandlerFunc) *Store {
	t.Helper()
	routes["POST /auth/login"] = func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"data":{"token":"tok-a","user":` + adminJSON + `}}`))
	}
	s := New(newUpstream(t, routes))
	if _, err := s.Login(context.Background(), Credentials{Email: "meera@example.com", Password: "secret1"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	return s
}

func TestListUsersRequiresAdmin(t *testing.T) {
	api := newUpstream(t, map[string]http.HandlerFunc{"POST /auth/login": loginOK})
	s := New(api)
	if _, _, err := s.ListUsers(context.Background(), 1, 5); !errors.Is(err, models.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
	s.Login(context.Background(), Credentials{Email: "asha@example.com", Password: "secret1"})
	if _, _, err := s.ListUsers(context.Background(), 1, 5); !errors.Is(err, models.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestListUsersPassesPaging(t *testing.T) {
	s := adminSession(t, map[string]http.HandlerFunc{
		"GET /admin/users": func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("limit") != "5" {
				t.Errorf("expected limit=5, got %q", r.URL.RawQuery)
			}
			w.Write([]byte(`{"success":true,"data":{"users":[` + buyerJSON + `],"pagination":{"currentPage":1,"totalPages":1,"totalItems":1}}}`))
		},
	})

	users, page, err := s.ListUsers(context.Background(), 1, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(users) != 1 || users[0].Role != models.RoleBuyer || page.TotalItems != 1 {
		t.Fatalf("unexpected result %+v %+v", users, page)
	}
}

func TestSetUserActive(t *testing.T) {
	s := adminSession(t, map[string]http.HandlerFunc{
		"PUT /admin/users/u1/status": func(w http.ResponseWriter, r *http.Request) {
			var body map[string]bool
			json.NewDecoder(r.Body).Decode(&body)
			if active, ok := body["isActive"]; !ok || active {
				t.Errorf("expected isActive=false, got %v", body)
			}
			w.Write([]byte(`{"success":true,"data":{"user":{"id":"u1","role":"buyer","isActive":false}}}`))
		},
	})

	user, err := s.SetUserActive(context.Background(), "u1", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.IsActive == nil || *user.IsActive {
		t.Fatalf("expected inactive user, got %+v", user)
	}

	var verr *models.ValidationError
	if _, err := s.SetUserActive(context.Background(), "a1", false); !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError for self deactivation, got %v", err)
	}
}
