package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"harvestly/internal/models"
	"harvestly/internal/storage"
	"harvestly/internal/storefront"
)

const secret = "test-secret"

func sign(t *testing.T, method jwt.SigningMethod, key string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(key))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func newRegistry(t *testing.T, token string) *storefront.Registry {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path != "/auth/profile" || r.Header.Get("Authorization") != "Bearer "+token {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"success":false,"error":"invalid token"}`))
			return
		}
		w.Write([]byte(`{"success":true,"data":{"user":{"id":"u1","firstName":"Asha","role":"buyer"}}}`))
	}))
	t.Cleanup(srv.Close)
	return storefront.NewRegistry(storefront.Deps{APIBaseURL: srv.URL, Storage: storage.NewMemory()})
}

func serve(r *gin.Engine, path, token string) (*httptest.ResponseRecorder, map[string]any) {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	var body map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	return rec, body
}

func ok(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func TestBearerToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := map[string]bool{
		"":              false,
		"Bearer":        false,
		"Bearer ":       false,
		"Basic abc":     false,
		"Bearer abc":    true,
		"bearer abc":    true,
		"Bearer a b":    false,
		"  Bearer abc ": true,
	}
	for header, want := range cases {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		c.Request.Header.Set("Authorization", header)
		token, got := BearerToken(c)
		if got != want {
			t.Fatalf("%q: expected %v, got %v (%q)", header, want, got, token)
		}
		if got && token != "abc" {
			t.Fatalf("%q: unexpected token %q", header, token)
		}
	}
}

func TestVerifyToken(t *testing.T) {
	exp := time.Now().Add(time.Hour).Unix()

	if err := verifyToken("anything", ""); err != nil {
		t.Fatalf("empty secret should skip verification, got %v", err)
	}
	good := sign(t, jwt.SigningMethodHS256, secret, jwt.MapClaims{"userId": "u1", "exp": exp})
	if err := verifyToken(good, secret); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := verifyToken(good, "other-secret"); err == nil {
		t.Fatal("expected signature error")
	}
	noUser := sign(t, jwt.SigningMethodHS256, secret, jwt.MapClaims{"exp": exp})
	if err := verifyToken(noUser, secret); err == nil {
		t.Fatal("expected missing claim error")
	}
	otherAlg := sign(t, jwt.SigningMethodHS384, secret, jwt.MapClaims{"userId": "u1", "exp": exp})
	if err := verifyToken(otherAlg, secret); err == nil {
		t.Fatal("expected algorithm to be refused")
	}
	expired := sign(t, jwt.SigningMethodHS256, secret, jwt.MapClaims{"userId": "u1", "exp": time.Now().Add(-time.Minute).Unix()})
	if err := verifyToken(expired, secret); err == nil {
		t.Fatal("expected expired token to be refused")
	}
}

func TestAuthRedirectsToSignIn(t *testing.T) {
	gin.SetMode(gin.TestMode)
	token := sign(t, jwt.SigningMethodHS256, secret, jwt.MapClaims{"userId": "u1"})
	r := gin.New()
	r.GET("/private", Auth(newRegistry(t, token), secret), ok)

	for _, tc := range []struct {
		name  string
		token string
	}{
		{"missing", ""},
		{"bad signature", sign(t, jwt.SigningMethodHS256, "other-secret", jwt.MapClaims{"userId": "u1"})},
	} {
		rec, body := serve(r, "/private", tc.token)
		if rec.Code != http.StatusUnauthorized || body["redirect"] != "/auth/signin" {
			t.Fatalf("%s: expected 401 with redirect, got %d %v", tc.name, rec.Code, body)
		}
	}

	rec, _ := serve(r, "/private", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestOptionalAuthLetsAnonymousThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/open", OptionalAuth(newRegistry(t, "tok"), ""), func(c *gin.Context) {
		_, signedIn := Workspace(c)
		c.JSON(http.StatusOK, gin.H{"signedIn": signedIn})
	})

	_, body := serve(r, "/open", "")
	if body["signedIn"] != false {
		t.Fatalf("expected anonymous, got %v", body)
	}
	_, body = serve(r, "/open", "forged")
	if body["signedIn"] != false {
		t.Fatalf("expected anonymous for bad token, got %v", body)
	}
	_, body = serve(r, "/open", "tok")
	if body["signedIn"] != true {
		t.Fatalf("expected signed in, got %v", body)
	}
}

func TestRequireRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := newRegistry(t, "tok")
	r := gin.New()
	r.GET("/buyer", Auth(reg, ""), RequireRole(models.RoleBuyer), ok)
	r.GET("/farmer", Auth(reg, ""), RequireRole(models.RoleFarmer, models.RoleAdmin), ok)
	r.GET("/no-auth", RequireRole(models.RoleBuyer), ok)

	if rec, _ := serve(r, "/buyer", "tok"); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	rec, body := serve(r, "/farmer", "tok")
	if rec.Code != http.StatusForbidden || body["redirect"] != "/products" {
		t.Fatalf("expected 403 to buyer home, got %d %v", rec.Code, body)
	}
	if rec, _ := serve(r, "/no-auth", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without workspace, got %d", rec.Code)
	}
}

func TestRateLimiter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(1, 2)
	r := gin.New()
	r.Use(rl.Limit())
	r.GET("/", ok)

	for i := 0; i < 2; i++ {
		if rec, _ := serve(r, "/", ""); rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, rec.Code)
		}
	}
	if rec, _ := serve(r, "/", ""); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}

	if n := rl.Cleanup(time.Hour); n != 0 {
		t.Fatalf("recent visitor removed: %d", n)
	}
	if n := rl.Cleanup(-time.Second); n != 1 {
		t.Fatalf("expected one visitor removed, got %d", n)
	}
}

func TestSecurityHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(SecurityHeaders(), RequestLogger())
	r.GET("/", ok)

	rec, _ := serve(r, "/", "")
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" || rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Fatalf("missing security headers: %v", rec.Header())
	}
}
